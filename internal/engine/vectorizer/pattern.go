package vectorizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// defaultTokenPattern is the training side's default token_pattern with the
// "(?u)" flag removed. It selects wordTokens instead of a compiled regexp.
const defaultTokenPattern = `\b\w\w+\b`

const (
	wordClass  = `\p{L}\p{N}_`
	digitClass = `\p{Nd}`
)

// tokenPattern is a compiled custom token_pattern.
//
// RE2 treats \w, \d and \b as ASCII-only, so the shorthand classes are
// rewritten to their Unicode forms before compiling. \b is supported only
// around the whole pattern: the outer pair is removed and matches that do
// not start and end on a Unicode word boundary are discarded.
type tokenPattern struct {
	re      *regexp.Regexp
	bounded bool
}

// compilePattern compiles p, or returns nil when p is the default pattern.
// A leading "(?u)" is dropped since RE2 reads u as ungreedy. At most one
// capture group is allowed; when present it selects the token.
func compilePattern(p string) (*tokenPattern, error) {
	p = strings.TrimPrefix(p, "(?u)")
	if p == defaultTokenPattern {
		return nil, nil
	}
	expr, bounded, err := translatePattern(p)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: token_pattern %q: %w", p, err)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: token_pattern: %w", err)
	}
	if re.NumSubexp() > 1 {
		return nil, fmt.Errorf("vectorizer: token_pattern has %d capture groups, want at most 1", re.NumSubexp())
	}
	return &tokenPattern{re: re, bounded: bounded}, nil
}

// translatePattern rewrites \w, \W, \d and \D to Unicode classes and strips
// a \b pair wrapping the whole pattern.
func translatePattern(p string) (string, bool, error) {
	var b strings.Builder
	var bounds []int
	inClass, topAlt := false, false
	depth := 0

	for i := 0; i < len(p); i++ {
		c := p[i]
		if c != '\\' || i+1 == len(p) {
			switch {
			case inClass:
				if c == ']' {
					inClass = false
				}
			case c == '[':
				inClass = true
				b.WriteByte(c)
				if i+1 < len(p) && p[i+1] == '^' {
					b.WriteByte('^')
					i++
				}
				if i+1 < len(p) && p[i+1] == ']' {
					b.WriteByte(']')
					i++
				}
				continue
			case c == '(':
				depth++
			case c == ')':
				depth--
			case c == '|' && depth == 0:
				topAlt = true
			}
			b.WriteByte(c)
			continue
		}

		i++
		switch e := p[i]; e {
		case 'w', 'd':
			class := wordClass
			if e == 'd' {
				class = digitClass
			}
			if inClass {
				b.WriteString(class)
			} else {
				b.WriteString("[" + class + "]")
			}
		case 'W', 'D':
			if inClass {
				return "", false, fmt.Errorf(`\%c inside a character class is not supported`, e)
			}
			class := wordClass
			if e == 'D' {
				class = digitClass
			}
			b.WriteString("[^" + class + "]")
		case 'b':
			if inClass {
				return "", false, errors.New(`\b inside a character class is not supported`)
			}
			bounds = append(bounds, i-1)
		case 'B':
			return "", false, errors.New(`\B is not supported`)
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}

	switch {
	case len(bounds) == 0:
		return b.String(), false, nil
	case len(bounds) == 2 && bounds[0] == 0 && bounds[1] == len(p)-2 && !topAlt:
		return b.String(), true, nil
	default:
		return "", false, errors.New(`\b is only supported around the whole pattern`)
	}
}

func (t *tokenPattern) tokens(text string) []string {
	var tokens []string
	for _, m := range t.re.FindAllStringSubmatchIndex(text, -1) {
		if t.bounded && !(wordBoundary(text, m[0]) && wordBoundary(text, m[1])) {
			continue
		}
		switch {
		case len(m) == 2:
			tokens = append(tokens, text[m[0]:m[1]])
		case m[2] < 0:
			tokens = append(tokens, "")
		default:
			tokens = append(tokens, text[m[2]:m[3]])
		}
	}
	return tokens
}

// wordBoundary reports whether byte offset i of text sits between a word
// character and a non-word character, with the text edges counting as
// non-word.
func wordBoundary(text string, i int) bool {
	var before, after bool
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:i])
		before = isWordChar(r)
	}
	if i < len(text) {
		r, _ := utf8.DecodeRuneInString(text[i:])
		after = isWordChar(r)
	}
	return before != after
}
