package feature

import (
	"errors"
	"reflect"
	"testing"
)

func TestZeros(t *testing.T) {
	m := Zeros(2, 3)
	if m.Rows != 2 || m.Cols != 3 || len(m.Data) != 6 {
		t.Fatalf("unexpected shape %dx%d (%d values)", m.Rows, m.Cols, len(m.Data))
	}
	for i, v := range m.Data {
		if v != 0 {
			t.Errorf("Data[%d] = %v, want 0", i, v)
		}
	}
}

func TestHStack(t *testing.T) {
	a := Matrix{Rows: 2, Cols: 2, Data: []float32{1, 2, 3, 4}}
	b := Matrix{Rows: 2, Cols: 1, Data: []float32{5, 6}}

	got, err := HStack(a, b)
	if err != nil {
		t.Fatalf("HStack: %v", err)
	}
	want := Matrix{Rows: 2, Cols: 3, Data: []float32{1, 2, 5, 3, 4, 6}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("HStack = %+v, want %+v", got, want)
	}
	if got.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", got.At(1, 2))
	}
}

func TestHStackSingleRow(t *testing.T) {
	got, err := HStack(Row([]float32{0, 1}), Row([]float32{0.5, 0, 0.5}))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cols != 5 || !reflect.DeepEqual(got.Data, []float32{0, 1, 0.5, 0, 0.5}) {
		t.Errorf("got %+v", got)
	}
}

func TestHStackRowMismatch(t *testing.T) {
	_, err := HStack(Zeros(1, 2), Zeros(2, 2))
	if !errors.Is(err, ErrRowMismatch) {
		t.Errorf("expected ErrRowMismatch, got %v", err)
	}
}
