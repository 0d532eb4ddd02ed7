// Package output writes per-record classification results.
package output

import (
	"context"
)

// Result is the outcome for one source row. Exactly one of Anomaly or
// Error is set.
type Result struct {
	Line     int    `json:"line"`
	Hostname string `json:"hostname"`
	Process  string `json:"process"`
	Message  string `json:"message,omitempty"`
	Anomaly  *int   `json:"anomaly_prediction,omitempty"`
	Error    string `json:"error,omitempty"`
	Category string `json:"category,omitempty"`
}

// Output is a destination for results.
type Output interface {
	Write(ctx context.Context, r Result) error
	Close() error
}
