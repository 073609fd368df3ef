package model

import "fmt"

// ConfigError is raised before any work starts when the run is misconfigured
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// InvariantError reports corrupt input data. ID names the offending
// document, paragraph or question.
type InvariantError struct {
	ID     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("data invariant violated (%s): %s", e.ID, e.Reason)
}

// Invariantf builds an InvariantError with a formatted reason
func Invariantf(id, format string, args ...interface{}) *InvariantError {
	return &InvariantError{ID: id, Reason: fmt.Sprintf(format, args...)}
}
