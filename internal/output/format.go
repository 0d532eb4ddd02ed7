package output

import (
	"fmt"
	"strings"
)

// Verbosity controls how much of the source record is echoed per result.
type Verbosity int

const (
	Minimal  Verbosity = iota // omit the message text
	Standard                  // include everything
)

// ParseVerbosity accepts "minimal" or "standard".
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	default:
		return Standard, fmt.Errorf("output: unknown verbosity %q", s)
	}
}

// FormatResult returns a copy of r with fields stripped according to v.
func FormatResult(r Result, v Verbosity) Result {
	if v == Minimal {
		r.Message = ""
	}
	return r
}
