package vectorizer

import (
	"fmt"

	"github.com/crimson-sun/sieve/internal/artifact"
)

// vocab maps each term to its column. Column order is the line order of
// vocab.txt.
type vocab struct {
	termToCol map[string]int
	terms     []string
}

func loadVocab(path string) (*vocab, error) {
	lines, err := artifact.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: %w", err)
	}
	v, err := newVocab(lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	return v, nil
}

func newVocab(terms []string) (*vocab, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("vocab: empty vocabulary")
	}
	v := &vocab{
		termToCol: make(map[string]int, len(terms)),
		terms:     append([]string(nil), terms...),
	}
	for i, term := range terms {
		if term == "" {
			return nil, fmt.Errorf("vocab: empty term on line %d", i+1)
		}
		if _, dup := v.termToCol[term]; dup {
			return nil, fmt.Errorf("vocab: duplicate term %q on line %d", term, i+1)
		}
		v.termToCol[term] = i
	}
	return v, nil
}

func (v *vocab) lookup(term string) (int, bool) {
	col, ok := v.termToCol[term]
	return col, ok
}

func (v *vocab) size() int {
	return len(v.terms)
}
