// Package parser reads schema source text and ad-hoc value text into schema
// and value trees using single-pass recursive descent over a byte cursor.
//
// The grammar is a JSON subset: objects, arrays, double-quoted strings with
// the standard escapes, true/false/null, and numbers written as an optionally
// negative digit run with an optional fraction. A fraction makes the number a
// float64, otherwise it must fit in an int32. Exponents are not accepted.
package parser

import (
	"log/slog"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// DefaultMaxDepth bounds container nesting when Options.MaxDepth is unset.
const DefaultMaxDepth = 256

// DuplicatePolicy controls how repeated object keys are handled.
type DuplicatePolicy int

const (
	DupError  DuplicatePolicy = iota // Reject the input (default).
	DupWarn                          // Keep the last occurrence and log a warning.
	DupIgnore                        // Keep the last occurrence silently.
)

// Options bundles parsing options. When several are passed, the last wins.
type Options struct {
	MaxDepth       int
	OnDuplicateKey DuplicatePolicy
	// Logger receives DupWarn notices; nil falls back to slog.Default().
	Logger *slog.Logger
}

func pickOptions(opts []Options) Options {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	return opt
}

// ParseValue parses text as exactly one value surrounded by optional
// whitespace.
func ParseValue(text string, opts ...Options) (value.Value, error) {
	p := newValueParser(text, opts)
	v, err := p.parseValue()
	if err != nil {
		return value.Value{}, err
	}
	if err := p.end(); err != nil {
		return value.Value{}, err
	}
	return v, nil
}

// ParseValueAt parses one value starting at *pos and advances *pos past it.
// After an error *pos is unspecified and parsing must not continue.
func ParseValueAt(text string, pos *int, opts ...Options) (value.Value, error) {
	if err := checkCursor(text, pos); err != nil {
		return value.Value{}, err
	}
	p := newValueParser(text, opts)
	p.pos = *pos
	v, err := p.parseValue()
	*pos = p.pos
	return v, err
}

// ParseSchema parses text as exactly one schema object surrounded by optional
// whitespace.
func ParseSchema(text string, opts ...Options) (*schema.Schema, error) {
	p := newSchemaParser(text, opts)
	s, err := p.parseSchema()
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return s, nil
}

// ParseSchemaAt parses one schema object starting at *pos and advances *pos
// past it. After an error *pos is unspecified and parsing must not continue.
func ParseSchemaAt(text string, pos *int, opts ...Options) (*schema.Schema, error) {
	if err := checkCursor(text, pos); err != nil {
		return nil, err
	}
	p := newSchemaParser(text, opts)
	p.pos = *pos
	s, err := p.parseSchema()
	*pos = p.pos
	return s, err
}

func checkCursor(text string, pos *int) error {
	if pos == nil {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil cursor")
	}
	if *pos < 0 || *pos > len(text) {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "cursor outside input")
	}
	return nil
}

func newValueParser(text string, opts []Options) *parser {
	return &parser{src: text, opt: pickOptions(opts), kind: issue.KindMalformedValueText, code: issue.CodeParseError}
}

func newSchemaParser(text string, opts []Options) *parser {
	return &parser{src: text, opt: pickOptions(opts), kind: issue.KindMalformedSchemaText, code: issue.CodeSchemaSyntax}
}
