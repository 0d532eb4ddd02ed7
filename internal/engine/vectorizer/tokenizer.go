package vectorizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// analyzer turns raw text into the terms counted against the vocabulary.
type analyzer struct {
	opts    Options
	pattern *tokenPattern // nil selects wordTokens
}

func (a *analyzer) terms(text string) []string {
	text = cleanText(text)
	if a.opts.Lowercase {
		text = strings.ToLower(text)
	}
	switch a.opts.StripAccents {
	case "unicode":
		text = stripAccents(text)
	case "ascii":
		text = stripToASCII(text)
	}

	var tokens []string
	if a.pattern != nil {
		tokens = a.pattern.tokens(text)
	} else {
		tokens = wordTokens(text)
	}
	return ngrams(tokens, a.opts.NgramRange[0], a.opts.NgramRange[1])
}

// wordTokens returns every run of two or more word characters (letters,
// numbers, underscore). Single-character runs are dropped.
func wordTokens(text string) []string {
	var tokens []string
	start, n := -1, 0
	flush := func(end int) {
		if start >= 0 && n >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start, n = -1, 0
	}
	for i, r := range text {
		if isWordChar(r) {
			if start < 0 {
				start = i
			}
			n++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

// ngrams expands tokens into space-joined word n-grams for n in [lo, hi].
func ngrams(tokens []string, lo, hi int) []string {
	if lo == 1 && hi == 1 {
		return tokens
	}
	var out []string
	for n := lo; n <= hi && n <= len(tokens); n++ {
		for i := 0; i+n <= len(tokens); i++ {
			if n == 1 {
				out = append(out, tokens[i])
				continue
			}
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// cleanText replaces control characters and whitespace with spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || isControl(r) || isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining marks after NFKD decomposition.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFKD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// stripToASCII decomposes with NFKD and drops everything outside ASCII.
func stripToASCII(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFKD.String(text) {
		if r < unicode.MaxASCII+1 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}
