package schemabin

import (
	"github.com/reoring/schemabin/i18n"
	"github.com/reoring/schemabin/issue"
)

type (
	Issue  = issue.Issue
	Issues = issue.Issues
	Kind   = issue.Kind
)

// Failure kinds, usable as errors.Is targets.
const (
	KindInvalidArgument     = issue.KindInvalidArgument
	KindMalformedSchemaText = issue.KindMalformedSchemaText
	KindMalformedValueText  = issue.KindMalformedValueText
	KindSchemaViolation     = issue.KindSchemaViolation
	KindEncodeFailure       = issue.KindEncodeFailure
	KindDecodeFailure       = issue.KindDecodeFailure
	KindFileNotFound        = issue.KindFileNotFound
	KindFileReadMismatch    = issue.KindFileReadMismatch
)

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) { return issue.AsIssues(err) }

// ErrorString returns the human-readable sentence for the failure kind of err,
// in the language selected through the i18n package. A nil error yields the
// success sentence.
func ErrorString(err error) string {
	if err == nil {
		return i18n.T("success", nil)
	}
	return issue.KindOf(err).Error()
}
