package vectorizer

import "fmt"

// Options control how text is turned into terms and how term counts are
// weighted. The zero value is not usable; start from DefaultOptions.
type Options struct {
	Lowercase    bool
	StripAccents string // "", "unicode" or "ascii"
	TokenPattern string // empty selects the built-in word tokenizer
	NgramRange   [2]int
	Binary       bool
	SublinearTF  bool
	Norm         string // "l2", "l1" or "" for none
}

// DefaultOptions matches the settings the training side uses when a
// descriptor omits them.
func DefaultOptions() Options {
	return Options{
		Lowercase:  true,
		NgramRange: [2]int{1, 1},
		Norm:       "l2",
	}
}

// descriptor is the on-disk form of vectorizer.json. Pointer fields
// distinguish "absent" from an explicit zero value.
type descriptor struct {
	Vocabulary   string  `json:"vocabulary"`
	IDF          string  `json:"idf"`
	Lowercase    *bool   `json:"lowercase"`
	StripAccents *string `json:"strip_accents"`
	TokenPattern string  `json:"token_pattern"`
	NgramRange   *[2]int `json:"ngram_range"`
	Binary       bool    `json:"binary"`
	SublinearTF  bool    `json:"sublinear_tf"`
	Norm         *string `json:"norm"`
}

func (d descriptor) options() Options {
	o := DefaultOptions()
	if d.Lowercase != nil {
		o.Lowercase = *d.Lowercase
	}
	if d.StripAccents != nil {
		o.StripAccents = *d.StripAccents
	}
	o.TokenPattern = d.TokenPattern
	if d.NgramRange != nil {
		o.NgramRange = *d.NgramRange
	}
	o.Binary = d.Binary
	o.SublinearTF = d.SublinearTF
	if d.Norm != nil {
		o.Norm = *d.Norm
	}
	if o.Norm == "none" {
		o.Norm = ""
	}
	return o
}

func (o Options) validate() error {
	switch o.StripAccents {
	case "", "unicode", "ascii":
	default:
		return fmt.Errorf("vectorizer: unknown strip_accents %q", o.StripAccents)
	}
	switch o.Norm {
	case "", "l1", "l2":
	default:
		return fmt.Errorf("vectorizer: unknown norm %q", o.Norm)
	}
	if o.NgramRange[0] < 1 || o.NgramRange[1] < o.NgramRange[0] {
		return fmt.Errorf("vectorizer: invalid ngram_range %v", o.NgramRange)
	}
	return nil
}
