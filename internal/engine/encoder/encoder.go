// Package encoder one-hot encodes the categorical fields of a log record
// against the categories seen at training time.
package encoder

import (
	"fmt"
	"unicode/utf8"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine/feature"
)

// Kind tags the outcome of Encode.
type Kind int

const (
	// Encoded means every value was known; Vector holds the one-hot row.
	Encoded Kind = iota
	// UnknownCategory means at least one value was never seen in training.
	UnknownCategory
	// Failed means the input could not be encoded at all.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Encoded:
		return "encoded"
	case UnknownCategory:
		return "unknown_category"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is the tagged outcome of encoding one record.
type Result struct {
	Kind    Kind
	Vector  feature.Matrix // set when Kind == Encoded
	Width   int            // C, the total one-hot width
	Unknown []string       // feature names with unseen values
	Err     error          // set when Kind == Failed
}

// Fallback returns the all-zero 1×Width row used in place of an encoding
// that hit an unseen category.
func (r Result) Fallback() feature.Matrix {
	return feature.Zeros(1, r.Width)
}

// OneHot is an immutable one-hot encoder. Safe for concurrent use.
type OneHot struct {
	features   []string
	categories [][]string
	index      []map[string]int
	offsets    []int
	width      int
}

type descriptor struct {
	Features   []string   `json:"features"`
	Categories [][]string `json:"categories"`
}

// Load reads an encoder descriptor:
//
//	{"features": ["Hostname", "Process"], "categories": [["a", "b"], ["x"]]}
func Load(path string) (*OneHot, error) {
	var d descriptor
	if err := artifact.ReadJSON(path, &d); err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	return New(d.Features, d.Categories)
}

// New builds an encoder from feature names and their ordered categories.
// Column order follows the category order given.
func New(features []string, categories [][]string) (*OneHot, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("encoder: no features")
	}
	if len(features) != len(categories) {
		return nil, fmt.Errorf("encoder: %d features but %d category lists", len(features), len(categories))
	}

	e := &OneHot{
		features:   append([]string(nil), features...),
		categories: make([][]string, len(categories)),
		index:      make([]map[string]int, len(categories)),
		offsets:    make([]int, len(categories)),
	}
	for i, cats := range categories {
		if len(cats) == 0 {
			return nil, fmt.Errorf("encoder: feature %q has no categories", features[i])
		}
		idx := make(map[string]int, len(cats))
		for j, c := range cats {
			if _, dup := idx[c]; dup {
				return nil, fmt.Errorf("encoder: feature %q: duplicate category %q", features[i], c)
			}
			idx[c] = j
		}
		e.categories[i] = append([]string(nil), cats...)
		e.index[i] = idx
		e.offsets[i] = e.width
		e.width += len(cats)
	}
	return e, nil
}

// Width returns C, the sum of per-feature category counts.
func (e *OneHot) Width() int { return e.width }

// Features returns the feature names in encoding order.
func (e *OneHot) Features() []string {
	return append([]string(nil), e.features...)
}

// Encode maps one value per feature to a one-hot row. Values are matched
// exactly; no trimming or case folding is applied.
func (e *OneHot) Encode(values []string) Result {
	if len(values) != len(e.features) {
		return Result{
			Kind:  Failed,
			Width: e.width,
			Err:   fmt.Errorf("encoder: got %d values for %d features", len(values), len(e.features)),
		}
	}

	cols := make([]int, len(values))
	var unknown []string
	for i, v := range values {
		if !utf8.ValidString(v) {
			return Result{
				Kind:  Failed,
				Width: e.width,
				Err:   fmt.Errorf("encoder: feature %q: invalid UTF-8", e.features[i]),
			}
		}
		j, ok := e.index[i][v]
		if !ok {
			unknown = append(unknown, e.features[i])
			continue
		}
		cols[i] = e.offsets[i] + j
	}
	if len(unknown) > 0 {
		return Result{Kind: UnknownCategory, Width: e.width, Unknown: unknown}
	}

	m := feature.Zeros(1, e.width)
	for _, c := range cols {
		m.Data[c] = 1
	}
	return Result{Kind: Encoded, Vector: m, Width: e.width}
}
