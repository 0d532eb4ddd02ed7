package output

import "testing"

func TestFormatResult(t *testing.T) {
	one := 1
	r := Result{Line: 2, Hostname: "h", Process: "p", Message: "m", Anomaly: &one}

	if got := FormatResult(r, Minimal); got.Message != "" || got.Hostname != "h" || *got.Anomaly != 1 {
		t.Errorf("minimal = %+v", got)
	}
	if got := FormatResult(r, Standard); got.Message != "m" {
		t.Errorf("standard dropped message: %+v", got)
	}
	if r.Message != "m" {
		t.Error("FormatResult mutated its input")
	}
}

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		in      string
		want    Verbosity
		wantErr bool
	}{
		{"minimal", Minimal, false},
		{"Standard", Standard, false},
		{"", Standard, false},
		{"full", Standard, true},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVerbosity(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVerbosity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
