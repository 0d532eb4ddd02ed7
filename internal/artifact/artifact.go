// Package artifact reads the files produced by model training: JSON
// descriptors, plain-text vocabularies and safetensors weights. Artifacts
// are read once at startup and never written by the service.
package artifact

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
)

// ErrMissing marks an artifact file that does not exist. Errors wrapping it
// also wrap fs.ErrNotExist.
var ErrMissing = errors.New("artifact missing")

// Paths locates the three artifacts the inference pipeline needs.
type Paths struct {
	Encoder    string
	Vectorizer string
	Classifier string
}

func wrapOpen(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("artifact: %w: %s: %w", ErrMissing, path, err)
	}
	return fmt.Errorf("artifact: %s: %w", path, err)
}

// ReadFile reads a whole artifact file.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapOpen(path, err)
	}
	return data, nil
}

// Stat reports whether path exists, wrapping ErrMissing when it does not.
func Stat(path string) error {
	if _, err := os.Stat(path); err != nil {
		return wrapOpen(path, err)
	}
	return nil
}

// ReadJSON decodes a JSON artifact into v. Unknown keys are rejected so a
// descriptor written for another version fails loudly.
func ReadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return wrapOpen(path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("artifact: %s: %w", path, err)
	}
	return nil
}

// ReadLines returns the lines of a text artifact with trailing "\r" removed.
// Line order is significant: vocabularies map line number to column.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapOpen(path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("artifact: %s: %w", path, err)
	}
	return lines, nil
}
