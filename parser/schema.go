package parser

import (
	"fmt"
	"strconv"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

type namedSchema struct {
	name string
	s    *schema.Schema
}

// schemaFields collects recognized keywords before the node is assembled, so
// repeated keywords (under DupWarn/DupIgnore) simply overwrite.
type schemaFields struct {
	id, title, ref string
	keyID          uint32
	typ            value.Type
	typed          bool
	required       []string
	props          []namedSchema
	items          *schema.Schema
}

func (p *parser) invalid(off int, format string, args ...any) error {
	return issue.At(p.kind, issue.CodeInvalidSchema, off, fmt.Sprintf(format, args...))
}

func (p *parser) parseSchema() (*schema.Schema, error) {
	var (
		f    schemaFields
		seen map[string]struct{}
	)
	start := p.pos
	err := p.members(func(key string, off int) error {
		if _, dup := seen[key]; dup {
			if err := p.duplicate(key, off); err != nil {
				return err
			}
		}
		if seen == nil {
			seen = make(map[string]struct{})
		}
		seen[key] = struct{}{}
		return p.keyword(&f, key)
	})
	if err != nil {
		return nil, err
	}
	return p.assemble(&f, start)
}

func (p *parser) keyword(f *schemaFields, key string) error {
	var err error
	switch key {
	case "$id":
		f.id, err = p.stringKeyword(key)
	case "title":
		f.title, err = p.stringKeyword(key)
	case "$ref":
		f.ref, err = p.stringKeyword(key)
	case "keyId":
		f.keyID, err = p.keyIDKeyword()
	case "type":
		off := p.skipTo()
		var name string
		if name, err = p.stringKeyword(key); err != nil {
			return err
		}
		t, ok := value.ParseType(name)
		if !ok {
			return p.invalid(off, "unknown type %q", name)
		}
		f.typ, f.typed = t, true
	case "required":
		f.required, err = p.requiredKeyword()
	case "properties":
		f.props, err = p.propertiesKeyword()
	case "items":
		if err = p.expectObject(key); err != nil {
			return err
		}
		f.items, err = p.parseSchema()
	default:
		// Unrecognized keywords are parsed for well-formedness and dropped.
		_, err = p.parseValue()
	}
	return err
}

// skipTo skips whitespace and returns the cursor.
func (p *parser) skipTo() int {
	p.skipWS()
	return p.pos
}

func (p *parser) stringKeyword(key string) (string, error) {
	off := p.skipTo()
	if off >= len(p.src) || p.src[off] != '"' {
		if off >= len(p.src) {
			return "", p.fail("unexpected end of input")
		}
		return "", p.invalid(off, "%s must be a string", key)
	}
	return p.str()
}

func (p *parser) expectObject(key string) error {
	off := p.skipTo()
	if off >= len(p.src) {
		return p.fail("unexpected end of input")
	}
	if p.src[off] != '{' {
		return p.invalid(off, "%s must be an object", key)
	}
	return nil
}

func (p *parser) keyIDKeyword() (uint32, error) {
	off := p.skipTo()
	if off >= len(p.src) {
		return 0, p.fail("unexpected end of input")
	}
	if c := p.src[off]; c != '-' && !isDigit(c) {
		return 0, p.invalid(off, "keyId must be a number")
	}
	lex, frac, err := p.numberLexeme()
	if err != nil {
		return 0, err
	}
	if frac {
		return 0, p.invalid(off, "keyId must be an integer, got %s", lex)
	}
	n, err := strconv.ParseUint(lex, 10, 32)
	if err != nil {
		return 0, p.invalid(off, "keyId %s out of range [0, %d]", lex, uint32(1<<32-1))
	}
	return uint32(n), nil
}

func (p *parser) requiredKeyword() ([]string, error) {
	off := p.skipTo()
	if off >= len(p.src) {
		return nil, p.fail("unexpected end of input")
	}
	if p.src[off] != '[' {
		return nil, p.invalid(off, "required must be an array of strings")
	}
	names := []string{}
	err := p.elements(func(int) error {
		at := p.skipTo()
		if at >= len(p.src) || p.src[at] != '"' {
			if at >= len(p.src) {
				return p.fail("unexpected end of input")
			}
			return p.invalid(at, "required entries must be strings")
		}
		n, err := p.str()
		if err != nil {
			return err
		}
		if n == "" {
			return p.invalid(at, "required entries must not be empty")
		}
		for _, prev := range names {
			if prev == n {
				return p.invalid(at, "duplicate required entry %q", n)
			}
		}
		names = append(names, n)
		return nil
	})
	return names, err
}

func (p *parser) propertiesKeyword() ([]namedSchema, error) {
	if err := p.expectObject("properties"); err != nil {
		return nil, err
	}
	var (
		props []namedSchema
		index map[string]int
	)
	err := p.members(func(name string, off int) error {
		if err := p.expectObject("property " + strconv.Quote(name)); err != nil {
			return err
		}
		child, err := p.parseSchema()
		if err != nil {
			return err
		}
		if i, dup := index[name]; dup {
			if err := p.duplicate(name, off); err != nil {
				return err
			}
			props[i].s = child
			return nil
		}
		if index == nil {
			index = make(map[string]int)
		}
		index[name] = len(props)
		props = append(props, namedSchema{name: name, s: child})
		return nil
	})
	return props, err
}

func (p *parser) assemble(f *schemaFields, off int) (*schema.Schema, error) {
	s := &schema.Schema{
		ID:      f.id,
		Title:   f.title,
		KeyID:   f.keyID,
		Type:    f.typ,
		Untyped: !f.typed,
		Ref:     f.ref,
		Items:   f.items,
	}
	for _, np := range f.props {
		if err := s.SetProperty(np.name, np.s); err != nil {
			return nil, p.invalid(off, "%v", err)
		}
	}
	if err := s.AddRequired(f.required...); err != nil {
		return nil, p.invalid(off, "%v", err)
	}
	return s, nil
}
