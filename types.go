package schemabin

import (
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// Value, Schema and their helpers live in sub-packages; the aliases keep
// facade call sites short.
type (
	Value  = value.Value
	Member = value.Member
	Type   = value.Type
	Schema = schema.Schema
)

// Severity expresses how duplicate object keys in text input are treated.
type Severity int

const (
	Error  Severity = iota // Reject the input (default).
	Warn                   // Keep the last occurrence and log a warning.
	Ignore                 // Keep the last occurrence silently.
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Ignore:
		return "ignore"
	default:
		return "error"
	}
}

// ParseSeverity maps "error", "warn" or "ignore" to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch s {
	case "error":
		return Error, true
	case "warn":
		return Warn, true
	case "ignore":
		return Ignore, true
	}
	return Error, false
}
