// Package classifier adapts trained binary models to a single Predict call
// over a combined feature row.
package classifier

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine/feature"
)

// Classifier maps one feature row to a 0/1 anomaly label. Implementations
// are safe for concurrent use.
type Classifier interface {
	// Predict returns the label for a 1×Width() matrix.
	Predict(features feature.Matrix) (int, error)
	// Width is the number of input features, or -1 when the model does not
	// declare it.
	Width() int
	Close() error
}

// Options tune backend construction.
type Options struct {
	// ONNXLibrary is the onnxruntime shared library. Empty means
	// libonnxruntime.so next to the model.
	ONNXLibrary string
	// IntraOpThreads caps per-call ONNX parallelism; 0 keeps the default.
	IntraOpThreads int
}

// Open loads the classifier at path, choosing the backend by extension:
// ".onnx" for ONNX Runtime, ".safetensors" for a linear model.
func Open(path string, opts Options) (Classifier, error) {
	if err := artifact.Stat(path); err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".onnx":
		return OpenONNX(path, opts)
	case ".safetensors":
		return LoadLinear(path)
	default:
		return nil, fmt.Errorf("classifier: unsupported model format %q", ext)
	}
}

func checkShape(m feature.Matrix, width int) error {
	if m.Rows != 1 {
		return fmt.Errorf("expected 1 row, got %d", m.Rows)
	}
	if width >= 0 && m.Cols != width {
		return fmt.Errorf("expected %d features, got %d", width, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("matrix holds %d values for shape %dx%d", len(m.Data), m.Rows, m.Cols)
	}
	return nil
}
