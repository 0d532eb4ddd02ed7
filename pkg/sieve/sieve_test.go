package sieve

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/crimson-sun/sieve/internal/artifact"
)

// writeTestArtifacts lays out a bundle in dir whose linear classifier fires
// on the token "password".
func writeTestArtifacts(dir string) error {
	files := map[string][]byte{
		"encoder.json":    []byte(`{"features":["Hostname","Process"],"categories":[["web-01","web-02"],["sshd"]]}`),
		"vocab.txt":       []byte("failed\npassword\n"),
		"vectorizer.json": []byte(`{"vocabulary":"vocab.txt","norm":"l2"}`),
	}
	data, err := artifact.EncodeSafetensors(artifact.Tensors{
		"coef":      {Shape: []int{1, 5}, Data: []float32{0, 0, 0, 0, 1}},
		"intercept": {Shape: []int{1}, Data: []float32{-0.1}},
	})
	if err != nil {
		return err
	}
	files["model.safetensors"] = data

	for name, b := range files {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newTestSieve(t *testing.T) *Sieve {
	t.Helper()
	dir := t.TempDir()
	if err := writeTestArtifacts(dir); err != nil {
		t.Fatal(err)
	}
	s, err := New(WithArtifactPaths(
		filepath.Join(dir, "encoder.json"),
		filepath.Join(dir, "vectorizer.json"),
		filepath.Join(dir, "model.safetensors"),
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPredict(t *testing.T) {
	s := newTestSieve(t)

	tests := []struct {
		name string
		rec  Record
		want Result
	}{
		{"anomaly", Record{"web-01", "sshd", "Failed password for root"}, Result{Anomaly: true, Label: 1}},
		{"normal", Record{"web-01", "sshd", "Accepted publickey"}, Result{Anomaly: false, Label: 0}},
		{"unknown host", Record{"db-09", "sshd", "password reset"}, Result{Anomaly: true, Label: 1}},
		{"empty fields", Record{}, Result{Anomaly: false, Label: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Predict(tt.rec)
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if got != tt.want {
				t.Errorf("Predict = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPredictConcurrent(t *testing.T) {
	s := newTestSieve(t)
	rec := Record{"web-02", "sshd", "Failed password"}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Predict(rec)
			if err != nil {
				errs <- err
				return
			}
			if res.Label != 1 {
				errs <- errors.New("unexpected label")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestPredictInvalidUTF8(t *testing.T) {
	s := newTestSieve(t)
	_, err := s.Predict(Record{"web-01", "sshd", "bad \xff byte"})
	if err == nil {
		t.Fatal("expected error for invalid UTF-8 message")
	}
	if got := ErrorCategory(err); got != "message_vectorization_failed" {
		t.Errorf("ErrorCategory = %q", got)
	}
}

func TestErrorCategoryForeignError(t *testing.T) {
	if got := ErrorCategory(errors.New("other")); got != "" {
		t.Errorf("ErrorCategory = %q, want empty", got)
	}
}

func TestNewMissingArtifactDir(t *testing.T) {
	_, err := New(WithArtifactDir(filepath.Join(t.TempDir(), "absent")))
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("New = %v, want ErrMissingArtifact", err)
	}
}

func TestResolvePaths(t *testing.T) {
	o := defaultOptions()
	WithArtifactDir("models")(&o)
	if got := resolvePaths(o).Encoder; got != filepath.Join("models", "encoder.json") {
		t.Errorf("encoder = %q", got)
	}

	WithArtifactPaths("a.json", "b.json", "c.onnx")(&o)
	p := resolvePaths(o)
	if p.Encoder != "a.json" || p.Vectorizer != "b.json" || p.Classifier != "c.onnx" {
		t.Errorf("explicit paths = %+v", p)
	}
}
