// Package file writes classification results to an NDJSON file that rolls
// over to numbered backups (path.1, path.2, ...) once it reaches a size
// limit.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/sieve/internal/output"
)

// Option configures a Writer.
type Option func(*Writer)

// RotateAt rolls the file over before a line would take it past n bytes.
// A file always receives at least one line. 0 never rolls.
func RotateAt(n int64) Option {
	return func(w *Writer) { w.limit = n }
}

// KeepBackups sets how many rolled-over files are kept. 0 discards the
// old file on roll-over.
func KeepBackups(n int) Option {
	return func(w *Writer) { w.backups = n }
}

// BufferSize sets the write buffer size.
func BufferSize(n int) Option {
	return func(w *Writer) { w.bufSize = n }
}

// Writer appends one JSON line per result. It is safe for concurrent use.
type Writer struct {
	path    string
	v       output.Verbosity
	limit   int64
	backups int
	bufSize int

	mu   sync.Mutex
	f    *os.File
	buf  *bufio.Writer
	size int64
}

// Open opens path for appending, creating it if needed. Existing content
// counts toward the roll-over limit.
func Open(path string, v output.Verbosity, opts ...Option) (*Writer, error) {
	w := &Writer{path: path, v: v, backups: 10, bufSize: 64 << 10}
	for _, o := range opts {
		o(w)
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) Write(_ context.Context, r output.Result) error {
	line, err := json.Marshal(output.FormatResult(r, w.v))
	if err != nil {
		return fmt.Errorf("file: encode line %d: %w", r.Line, err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.full(len(line)) {
		if err := w.roll(); err != nil {
			return fmt.Errorf("file: roll over %s: %w", w.path, err)
		}
	}
	n, err := w.buf.Write(line)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("file: %w", err)
	}
	return nil
}

// Close flushes buffered lines and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return errors.Join(w.buf.Flush(), w.f.Close())
}

func (w *Writer) full(n int) bool {
	return w.limit > 0 && w.size > 0 && w.size+int64(n) > w.limit
}

func (w *Writer) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("file: %w", err)
	}
	w.f, w.size = f, st.Size()
	if w.buf == nil {
		w.buf = bufio.NewWriterSize(f, w.bufSize)
	} else {
		w.buf.Reset(f)
	}
	return nil
}

// roll shifts path.i to path.i+1, moves the current file to path.1 and
// starts an empty one. The oldest backup is overwritten.
func (w *Writer) roll() error {
	if err := errors.Join(w.buf.Flush(), w.f.Close()); err != nil {
		return err
	}
	if w.backups == 0 {
		if err := os.Remove(w.path); err != nil {
			return err
		}
		return w.open()
	}
	for i := w.backups - 1; i > 0; i-- {
		err := os.Rename(w.backup(i), w.backup(i+1))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.Rename(w.path, w.backup(1)); err != nil {
		return err
	}
	return w.open()
}

func (w *Writer) backup(i int) string {
	return fmt.Sprintf("%s.%d", w.path, i)
}
