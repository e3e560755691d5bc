package issue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/schemabin/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidArgument = "invalid_argument"
	CodeClosed          = "closed"
	// Text parsing
	CodeParseError    = "parse_error"
	CodeSchemaSyntax  = "schema_syntax"
	CodeInvalidSchema = "invalid_schema"
	CodeDuplicateKey  = "duplicate_key"
	CodeMaxDepth      = "max_depth"
	// Validation
	CodeInvalidType = "invalid_type"
	CodeRequired    = "required"
	// Binary codec
	CodeUnsupportedType = "unsupported_type"
	CodeTooLarge        = "too_large"
	CodeKeyIDMismatch   = "key_id_mismatch"
	CodeTruncated       = "truncated"
	CodeUnknownTag      = "unknown_tag"
	CodeInvalidPayload  = "invalid_payload"
	CodeTrailingBytes   = "trailing_bytes"
	CodeWriteFailed     = "write_failed"
	// Schema files
	CodeFileNotFound     = "file_not_found"
	CodeFileReadMismatch = "file_read_mismatch"
)

// Kind is the coarse error taxonomy callers branch on. A Kind is itself an
// error so that errors.Is(err, issue.KindDecodeFailure) works on Issues.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindMalformedSchemaText
	KindMalformedValueText
	KindSchemaViolation
	KindEncodeFailure
	KindDecodeFailure
	KindFileNotFound
	KindFileReadMismatch
)

var kindNames = [...]string{
	KindUnknown:             "unknown",
	KindInvalidArgument:     "invalid_argument",
	KindMalformedSchemaText: "malformed_schema_text",
	KindMalformedValueText:  "malformed_value_text",
	KindSchemaViolation:     "schema_violation",
	KindEncodeFailure:       "encode_failure",
	KindDecodeFailure:       "decode_failure",
	KindFileNotFound:        "file_not_found",
	KindFileReadMismatch:    "file_read_mismatch",
}

// String returns the stable snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindUnknown]
	}
	return kindNames[k]
}

// Error returns the human-readable sentence for the kind.
func (k Kind) Error() string { return i18n.T(k.String(), nil) }

// Issue represents a single failure entry.
type Issue struct {
	Kind    Kind
	Code    string // One of the codes listed above.
	Path    string // JSON Pointer into the value or schema tree (for example: /items/2/price).
	Message string
	Offset  int64 // Byte offset in the input text or stream (-1 when unknown).
	Cause   error // Optional: underlying error.
}

// Issues is a collection of failures that implements error. The core
// components short-circuit, so in practice it holds exactly one entry.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path: expected string, got integer
		fmt.Fprintf(b, "%s at %s", it.Code, pathOrRoot(it.Path))
		if it.Message != "" {
			b.WriteString(": ")
			b.WriteString(it.Message)
		}
		if it.Offset >= 0 && it.Path == "" {
			fmt.Fprintf(b, " (offset %d)", it.Offset)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether the first issue belongs to the target Kind.
func (iss Issues) Is(target error) bool {
	k, ok := target.(Kind)
	if !ok || len(iss) == 0 {
		return false
	}
	return iss[0].Kind == k
}

// Unwrap exposes the first cause, if any.
func (iss Issues) Unwrap() error {
	for _, it := range iss {
		if it.Cause != nil {
			return it.Cause
		}
	}
	return nil
}

// New builds a single-issue error. Message falls back to the translated code.
func New(kind Kind, code, path, msg string) Issues {
	if msg == "" {
		msg = i18n.T(code, nil)
	}
	return Issues{{Kind: kind, Code: code, Path: path, Message: msg, Offset: -1}}
}

// At builds a single-issue error anchored at a byte offset.
func At(kind Kind, code string, offset int, msg string) Issues {
	iss := New(kind, code, "", msg)
	iss[0].Offset = int64(offset)
	return iss
}

// Wrap builds a single-issue error carrying an underlying cause.
func Wrap(kind Kind, code string, cause error, msg string) Issues {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	iss := New(kind, code, "", msg)
	iss[0].Cause = cause
	return iss
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// KindOf returns the Kind of the first issue carried by err.
func KindOf(err error) Kind {
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Kind
	}
	return KindUnknown
}

// CodeOf returns the code of the first issue carried by err.
func CodeOf(err error) string {
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		return iss[0].Code
	}
	return ""
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
