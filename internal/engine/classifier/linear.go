package classifier

import (
	"fmt"
	"math"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine/feature"
)

// Linear is a linear decision function: label 1 when x·w + b > 0.
type Linear struct {
	coef      []float32
	intercept float32
}

// LoadLinear reads "coef" ([1, n] or [n]) and "intercept" ([1]) from a
// safetensors file.
func LoadLinear(path string) (*Linear, error) {
	ts, err := artifact.ReadSafetensors(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	coef, err := ts.Get("coef")
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	switch {
	case len(coef.Shape) == 1:
	case len(coef.Shape) == 2 && coef.Shape[0] == 1:
	default:
		return nil, fmt.Errorf("classifier: coef shape %v, want [1, n] or [n]", coef.Shape)
	}
	b, err := ts.Get("intercept")
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	if len(b.Data) != 1 {
		return nil, fmt.Errorf("classifier: intercept shape %v, want [1]", b.Shape)
	}
	return NewLinear(coef.Data, b.Data[0])
}

// NewLinear builds a linear classifier from weights and a bias.
func NewLinear(coef []float32, intercept float32) (*Linear, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("classifier: empty coef")
	}
	return &Linear{coef: append([]float32(nil), coef...), intercept: intercept}, nil
}

func (l *Linear) Width() int { return len(l.coef) }

func (l *Linear) Predict(m feature.Matrix) (int, error) {
	if err := checkShape(m, len(l.coef)); err != nil {
		return 0, fmt.Errorf("classifier: %w", err)
	}
	score := float64(l.intercept)
	for i, w := range l.coef {
		score += float64(w) * float64(m.Data[i])
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("classifier: non-finite decision score")
	}
	if score > 0 {
		return 1, nil
	}
	return 0, nil
}

func (l *Linear) Close() error { return nil }
