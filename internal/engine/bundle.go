package engine

import (
	"errors"
	"fmt"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine/classifier"
	"github.com/crimson-sun/sieve/internal/engine/encoder"
	"github.com/crimson-sun/sieve/internal/engine/vectorizer"
	"github.com/crimson-sun/sieve/internal/logging"
)

// Bundle owns the loaded artifacts. It is built once at startup and shared
// read-only by every request.
type Bundle struct {
	Encoder    *encoder.OneHot
	Vectorizer *vectorizer.TFIDF
	Classifier classifier.Classifier
}

// LoadBundle loads all three artifacts and checks that the encoder and
// vectorizer widths add up to the classifier's input width. A missing file
// yields an error wrapping artifact.ErrMissing.
func LoadBundle(paths artifact.Paths, opts classifier.Options) (*Bundle, error) {
	log := logging.WithComponent("artifact")

	enc, err := encoder.Load(paths.Encoder)
	if err != nil {
		return nil, err
	}
	log.Info().Int("width", enc.Width()).
		Msgf("encoder expects %d categorical features", len(enc.Features()))

	vec, err := vectorizer.Load(paths.Vectorizer)
	if err != nil {
		return nil, err
	}
	log.Info().Int("width", vec.Width()).Msg("vectorizer loaded")

	cls, err := classifier.Open(paths.Classifier, opts)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Encoder: enc, Vectorizer: vec, Classifier: cls}
	if err := b.checkWidths(); err != nil {
		return nil, errors.Join(err, cls.Close())
	}
	log.Info().Int("width", cls.Width()).Str("path", paths.Classifier).Msg("classifier loaded")
	return b, nil
}

func (b *Bundle) checkWidths() error {
	want := b.Classifier.Width()
	got := b.Encoder.Width() + b.Vectorizer.Width()
	if want < 0 {
		log := logging.WithComponent("artifact")
		log.Warn().
			Int("features", got).
			Msg("classifier does not declare its input width")
		return nil
	}
	if got != want {
		return fmt.Errorf("artifact: %w: encoder %d + vectorizer %d = %d, classifier expects %d",
			ErrShapeMismatch, b.Encoder.Width(), b.Vectorizer.Width(), got, want)
	}
	return nil
}

// Engine returns an inference engine over the bundle's artifacts.
func (b *Bundle) Engine() *Engine {
	return New(b.Encoder, b.Vectorizer, b.Classifier)
}

// Widths reports C, V and the classifier input width.
func (b *Bundle) Widths() (categorical, text, model int) {
	return b.Encoder.Width(), b.Vectorizer.Width(), b.Classifier.Width()
}

// Close releases the classifier.
func (b *Bundle) Close() error {
	return b.Classifier.Close()
}
