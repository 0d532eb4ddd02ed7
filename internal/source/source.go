// Package source reads historical log records from a CSV table whose first
// row is a header.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crimson-sun/sieve/internal/model"
)

// RowError reports a row that could not be parsed. Reading may continue
// with the next row.
type RowError struct {
	Num int // 1-based line number in the file
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("source: row at line %d: %v", e.Num, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Row is one data row in file order.
type Row struct {
	Num    int // 1-based line number where the row starts
	Fields []string
}

// Line renders the row as sent on the wire: fields joined by commas with a
// trailing newline. Fields are not re-quoted.
func (r Row) Line() string {
	return strings.Join(r.Fields, ",") + "\n"
}

// Header maps column names to positions.
type Header struct {
	names []string
	index map[string]int
}

func newHeader(names []string) Header {
	h := Header{names: append([]string(nil), names...), index: make(map[string]int, len(names))}
	for i, n := range names {
		n = strings.TrimSpace(n)
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
	}
	return h
}

// Names returns the column names in file order.
func (h Header) Names() []string { return append([]string(nil), h.names...) }

// MissingFieldsError lists record fields a row does not provide, in the
// order Hostname, Process, Message.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "source: missing fields: " + strings.Join(e.Fields, ", ")
}

// Record maps the Hostname, Process and Message columns of r to a log
// record. A column absent from the header or the row is reported in a
// *MissingFieldsError.
func (r Row) Record(h Header) (model.LogRecord, error) {
	var rec model.LogRecord
	var missing []string
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"Hostname", &rec.Hostname},
		{"Process", &rec.Process},
		{"Message", &rec.Message},
	} {
		i, ok := h.index[f.name]
		if !ok || i >= len(r.Fields) {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = r.Fields[i]
	}
	if len(missing) > 0 {
		return model.LogRecord{}, &MissingFieldsError{Fields: missing}
	}
	return rec, nil
}

// Table streams rows from a CSV source. It is not safe for concurrent use.
type Table struct {
	r      *csv.Reader
	closer io.Closer
	header Header
}

// OpenCSV opens path and consumes its header row.
func OpenCSV(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	t, err := NewTable(f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.closer = f
	return t, nil
}

// Option configures the CSV reader.
type Option func(*csv.Reader)

// Strict rejects bare and unbalanced quotes instead of keeping them as
// literal text. Offending rows surface as *RowError.
func Strict() Option {
	return func(r *csv.Reader) { r.LazyQuotes = false }
}

// NewTable reads CSV from r and consumes its header row. An empty input is
// a table with no header and no rows.
func NewTable(r io.Reader, opts ...Option) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	for _, o := range opts {
		o(cr)
	}

	t := &Table{r: cr}
	names, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return t, nil
	case err != nil:
		return nil, fmt.Errorf("source: header: %w", err)
	}
	t.header = newHeader(names)
	return t, nil
}

// Header returns the parsed header row.
func (t *Table) Header() Header { return t.header }

// Next returns the next data row, io.EOF after the last one, or a *RowError
// for a row that failed to parse.
func (t *Table) Next() (Row, error) {
	fields, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Row{}, &RowError{Num: pe.StartLine, Err: pe.Err}
		}
		return Row{}, fmt.Errorf("source: %w", err)
	}
	line, _ := t.r.FieldPos(0)
	return Row{Num: line, Fields: fields}, nil
}

// Close releases the underlying file, if any.
func (t *Table) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
