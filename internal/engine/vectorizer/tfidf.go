// Package vectorizer converts a log message into a TF-IDF weighted term
// vector over a fixed training vocabulary.
package vectorizer

import (
	"fmt"
	"math"
	"path/filepath"
	"unicode/utf8"

	"github.com/crimson-sun/sieve/internal/artifact"
	"github.com/crimson-sun/sieve/internal/engine/feature"
)

// TFIDF is an immutable fitted vectorizer. Safe for concurrent use.
type TFIDF struct {
	analyzer analyzer
	vocab    *vocab
	idf      []float32 // nil when idf weighting is disabled
}

// Load reads vectorizer.json and the vocabulary and idf files it names.
// Relative names resolve against the descriptor's directory.
func Load(path string) (*TFIDF, error) {
	var d descriptor
	if err := artifact.ReadJSON(path, &d); err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if d.Vocabulary == "" {
		return nil, fmt.Errorf("vectorizer: %s: no vocabulary file", path)
	}

	dir := filepath.Dir(path)
	v, err := loadVocab(resolve(dir, d.Vocabulary))
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}

	var idf []float32
	if d.IDF != "" {
		ts, err := artifact.ReadSafetensors(resolve(dir, d.IDF))
		if err != nil {
			return nil, fmt.Errorf("vectorizer: %w", err)
		}
		t, err := ts.Get("idf")
		if err != nil {
			return nil, fmt.Errorf("vectorizer: %w", err)
		}
		idf = t.Data
	}

	return New(d.options(), v.terms, idf)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// New builds a vectorizer from options, an ordered vocabulary and optional
// per-term idf weights (len(idf) must equal len(terms) when non-nil).
func New(opts Options, terms []string, idf []float32) (*TFIDF, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	v, err := newVocab(terms)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: %w", err)
	}
	if idf != nil && len(idf) != v.size() {
		return nil, fmt.Errorf("vectorizer: idf has %d weights for %d terms", len(idf), v.size())
	}

	a := analyzer{opts: opts}
	if opts.TokenPattern != "" {
		tp, err := compilePattern(opts.TokenPattern)
		if err != nil {
			return nil, err
		}
		a.pattern = tp
	}
	return &TFIDF{analyzer: a, vocab: v, idf: idf}, nil
}

// Width returns V, the vocabulary size.
func (t *TFIDF) Width() int { return t.vocab.size() }

// Vectorize returns the 1×V weighted term vector for text. Terms outside
// the vocabulary are ignored; text with no known terms yields all zeros.
func (t *TFIDF) Vectorize(text string) (feature.Matrix, error) {
	if !utf8.ValidString(text) {
		return feature.Matrix{}, fmt.Errorf("vectorizer: message is not valid UTF-8")
	}

	m := feature.Zeros(1, t.vocab.size())
	row := m.Data
	for _, term := range t.analyzer.terms(text) {
		if col, ok := t.vocab.lookup(term); ok {
			row[col]++
		}
	}

	for i, tf := range row {
		if tf == 0 {
			continue
		}
		switch {
		case t.analyzer.opts.Binary:
			tf = 1
		case t.analyzer.opts.SublinearTF:
			tf = float32(1 + math.Log(float64(tf)))
		}
		if t.idf != nil {
			tf *= t.idf[i]
		}
		row[i] = tf
	}

	normalize(row, t.analyzer.opts.Norm)
	return m, nil
}

func normalize(row []float32, kind string) {
	var total float64
	switch kind {
	case "l2":
		for _, v := range row {
			total += float64(v) * float64(v)
		}
		total = math.Sqrt(total)
	case "l1":
		for _, v := range row {
			total += math.Abs(float64(v))
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range row {
		row[i] = float32(float64(row[i]) / total)
	}
}
