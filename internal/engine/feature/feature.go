// Package feature holds the dense matrices passed between pipeline stages.
package feature

import (
	"errors"
	"fmt"
)

// ErrRowMismatch is returned when two blocks with different row counts are
// concatenated.
var ErrRowMismatch = errors.New("feature: row count mismatch")

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// Zeros returns a rows×cols matrix of zeros.
func Zeros(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// Row wraps values as a single-row matrix. The slice is not copied.
func Row(values []float32) Matrix {
	return Matrix{Rows: 1, Cols: len(values), Data: values}
}

// At returns element (i, j).
func (m Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// RowAt returns row i as a slice sharing m's storage.
func (m Matrix) RowAt(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// HStack concatenates a and b along the feature axis. The result has
// a.Cols+b.Cols columns with a's columns first.
func HStack(a, b Matrix) (Matrix, error) {
	if a.Rows != b.Rows {
		return Matrix{}, fmt.Errorf("%w: %d vs %d", ErrRowMismatch, a.Rows, b.Rows)
	}
	out := Zeros(a.Rows, a.Cols+b.Cols)
	for i := 0; i < a.Rows; i++ {
		dst := out.RowAt(i)
		copy(dst, a.RowAt(i))
		copy(dst[a.Cols:], b.RowAt(i))
	}
	return out, nil
}
