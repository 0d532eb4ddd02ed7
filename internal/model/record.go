package model

// LogRecord is a single raw log entry as produced by a log source (a CSV row
// or a live JSON payload). All three fields are always present; empty strings
// are valid values.
type LogRecord struct {
	Hostname string
	Process  string
	Message  string
}

// Categorical returns the categorical feature values in encoder column order.
func (r LogRecord) Categorical() []string {
	return []string{r.Hostname, r.Process}
}
