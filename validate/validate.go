// Package validate checks a value tree against a schema tree: type tags,
// required object properties, declared properties, and array items.
//
// Validation stops at the first violation. Properties not declared in the
// schema are accepted without checks, and an array schema without items
// accepts any elements.
package validate

import (
	"fmt"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is unset.
const DefaultMaxDepth = 256

// Options bundles validation options. When several are passed, the last wins.
type Options struct {
	MaxDepth int
}

// Validate reports whether v conforms to s. A violation is returned as
// issue.Issues with a single KindSchemaViolation entry whose Path points at
// the offending node.
func Validate(s *schema.Schema, v value.Value, opts ...Options) error {
	if s == nil {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil schema")
	}
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	w := walker{maxDepth: opt.MaxDepth}
	return w.check(s, v, "", 0)
}

type walker struct {
	maxDepth int
}

func violation(code, path, msg string) error {
	return issue.New(issue.KindSchemaViolation, code, path, msg)
}

func (w walker) check(s *schema.Schema, v value.Value, path string, depth int) error {
	if !s.Accepts(v.Type()) {
		return violation(issue.CodeInvalidType, path, fmt.Sprintf("expected %s, got %s", s.TypeName(), v.Type()))
	}
	if t := v.Type(); (t == value.TypeObject || t == value.TypeArray) && depth >= w.maxDepth {
		return violation(issue.CodeMaxDepth, path, fmt.Sprintf("nesting deeper than %d", w.maxDepth))
	}
	switch v.Type() {
	case value.TypeObject:
		return w.object(s, v, path, depth)
	case value.TypeArray:
		if s.Items == nil {
			return nil
		}
		for i, item := range v.Items() {
			if err := w.check(s.Items, item, issue.JoinIndex(path, i), depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w walker) object(s *schema.Schema, v value.Value, path string, depth int) error {
	for _, name := range s.Required() {
		if _, ok := v.Get(name); !ok {
			return violation(issue.CodeRequired, issue.JoinKey(path, name), fmt.Sprintf("required property %q is missing", name))
		}
	}
	for _, m := range v.Members() {
		ps, ok := s.Property(m.Key)
		if !ok {
			continue
		}
		if err := w.check(ps, m.Value, issue.JoinKey(path, m.Key), depth+1); err != nil {
			return err
		}
	}
	return nil
}
