package schema

import (
	"fmt"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

// Schema is one node of a schema tree. A node exclusively owns its property
// and item children.
//
// Properties and required names are kept behind methods: the property map is
// built once and is the only lookup path used by both the validator and the
// codec.
type Schema struct {
	ID    string
	Title string
	// KeyID is written as the stream preamble and checked on decode.
	KeyID uint32
	Type  value.Type
	// Untyped marks a schema without a declared type; it accepts every value
	// type.
	Untyped bool
	// Ref holds a $ref target. It is stored but never resolved.
	Ref   string
	Items *Schema

	names    []string
	props    map[string]*Schema
	required []string
	reqSet   map[string]struct{}
}

// New returns a schema of the given type.
func New(t value.Type) *Schema { return &Schema{Type: t} }

// Any returns an untyped schema.
func Any() *Schema { return &Schema{Untyped: true} }

// Accepts reports whether a value tagged t passes the type check: exact
// match, Number accepting Integer, or any tag for untyped schemas.
func (s *Schema) Accepts(t value.Type) bool {
	if s.Untyped || s.Type == t {
		return true
	}
	return s.Type == value.TypeNumber && t == value.TypeInteger
}

// TypeName returns the declared type keyword, or "any" for untyped schemas.
func (s *Schema) TypeName() string {
	if s.Untyped {
		return "any"
	}
	return s.Type.String()
}

// SetProperty attaches child under name. The schema takes ownership of child.
func (s *Schema) SetProperty(name string, child *Schema) error {
	switch {
	case name == "":
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "property name must not be empty")
	case child == nil:
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, issue.JoinKey("", name), "nil property schema")
	case child.contains(s):
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, issue.JoinKey("", name), "property schema would create a cycle")
	}
	if _, dup := s.props[name]; dup {
		return issue.New(issue.KindInvalidArgument, issue.CodeDuplicateKey, issue.JoinKey("", name), fmt.Sprintf("duplicate property %q", name))
	}
	if s.props == nil {
		s.props = make(map[string]*Schema)
	}
	s.names = append(s.names, name)
	s.props[name] = child
	return nil
}

// SetItems attaches the array item schema. The schema takes ownership of
// child.
func (s *Schema) SetItems(child *Schema) error {
	if child != nil && child.contains(s) {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "/items", "items schema would create a cycle")
	}
	s.Items = child
	return nil
}

// Property returns the child schema for name. It is safe on a nil receiver,
// which is how the codec routes members that have no schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.props[name]
	return p, ok
}

// PropertyNames returns property names in declaration order.
func (s *Schema) PropertyNames() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// NumProperties returns the number of declared properties.
func (s *Schema) NumProperties() int { return len(s.names) }

// AddRequired appends required property names, rejecting empty or repeated
// names.
func (s *Schema) AddRequired(names ...string) error {
	for _, n := range names {
		if n == "" {
			return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "/required", "required name must not be empty")
		}
		if _, dup := s.reqSet[n]; dup {
			return issue.New(issue.KindInvalidArgument, issue.CodeDuplicateKey, "/required", fmt.Sprintf("duplicate required name %q", n))
		}
		if s.reqSet == nil {
			s.reqSet = make(map[string]struct{})
		}
		s.reqSet[n] = struct{}{}
		s.required = append(s.required, n)
	}
	return nil
}

// Required returns the required names in source order.
func (s *Schema) Required() []string {
	out := make([]string, len(s.required))
	copy(out, s.required)
	return out
}

// IsRequired reports whether name is in the required set.
func (s *Schema) IsRequired(name string) bool {
	_, ok := s.reqSet[name]
	return ok
}

// Clone returns a deep copy of the tree rooted at s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := &Schema{
		ID:      s.ID,
		Title:   s.Title,
		KeyID:   s.KeyID,
		Type:    s.Type,
		Untyped: s.Untyped,
		Ref:     s.Ref,
		Items:   s.Items.Clone(),
	}
	for _, n := range s.names {
		_ = out.SetProperty(n, s.props[n].Clone())
	}
	_ = out.AddRequired(s.required...)
	return out
}

func (s *Schema) contains(target *Schema) bool {
	if s == nil {
		return false
	}
	if s == target {
		return true
	}
	if s.Items.contains(target) {
		return true
	}
	for _, n := range s.names {
		if s.props[n].contains(target) {
			return true
		}
	}
	return false
}
