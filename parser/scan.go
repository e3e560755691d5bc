package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

type parser struct {
	src   string
	pos   int
	depth int
	opt   Options
	// kind and code classify syntax failures: value text and schema text
	// report under different kinds.
	kind issue.Kind
	code string
}

func (p *parser) failAt(off int, format string, args ...any) error {
	return issue.At(p.kind, p.code, off, fmt.Sprintf(format, args...))
}

func (p *parser) fail(format string, args ...any) error {
	return p.failAt(p.pos, format, args...)
}

func (p *parser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// peek returns the next non-whitespace byte without consuming it.
func (p *parser) peek() (byte, bool) {
	p.skipWS()
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *parser) expect(c byte) error {
	got, ok := p.peek()
	if !ok {
		return p.fail("expected %q, got end of input", c)
	}
	if got != c {
		return p.fail("expected %q, got %q", c, got)
	}
	p.pos++
	return nil
}

func (p *parser) end() error {
	if c, ok := p.peek(); ok {
		return p.fail("unexpected %q after value", c)
	}
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.opt.MaxDepth {
		return issue.At(p.kind, issue.CodeMaxDepth, p.pos, fmt.Sprintf("nesting deeper than %d", p.opt.MaxDepth))
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

// duplicate applies the duplicate-key policy for key found at off.
func (p *parser) duplicate(key string, off int) error {
	switch p.opt.OnDuplicateKey {
	case DupIgnore:
		return nil
	case DupWarn:
		p.opt.Logger.Warn("duplicate key, keeping last occurrence", "key", key, "offset", off)
		return nil
	default:
		return issue.At(p.kind, issue.CodeDuplicateKey, off, fmt.Sprintf("duplicate key %q", key))
	}
}

// members walks `{ "key": <elem>, ... }`. elem is called with the cursor
// positioned before the member value and must consume it.
func (p *parser) members(elem func(key string, off int) error) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.leave()
	if err := p.expect('{'); err != nil {
		return err
	}
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return nil
	}
	for {
		c, ok := p.peek()
		if !ok {
			return p.fail("unterminated object")
		}
		if c != '"' {
			return p.fail("expected object key, got %q", c)
		}
		off := p.pos
		key, err := p.str()
		if err != nil {
			return err
		}
		if key == "" {
			return p.failAt(off, "object key must not be empty")
		}
		if err := p.expect(':'); err != nil {
			return err
		}
		if err := elem(key, off); err != nil {
			return err
		}
		c, ok = p.peek()
		switch {
		case !ok:
			return p.fail("unterminated object")
		case c == ',':
			p.pos++
		case c == '}':
			p.pos++
			return nil
		default:
			return p.fail("expected ',' or '}', got %q", c)
		}
	}
}

// elements walks `[ <elem>, ... ]`.
func (p *parser) elements(elem func(i int) error) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.leave()
	if err := p.expect('['); err != nil {
		return err
	}
	if c, ok := p.peek(); ok && c == ']' {
		p.pos++
		return nil
	}
	for i := 0; ; i++ {
		if _, ok := p.peek(); !ok {
			return p.fail("unterminated array")
		}
		if err := elem(i); err != nil {
			return err
		}
		c, ok := p.peek()
		switch {
		case !ok:
			return p.fail("unterminated array")
		case c == ',':
			p.pos++
		case c == ']':
			p.pos++
			return nil
		default:
			return p.fail("expected ',' or ']', got %q", c)
		}
	}
}

func (p *parser) parseValue() (value.Value, error) {
	c, ok := p.peek()
	if !ok {
		return value.Value{}, p.fail("unexpected end of input")
	}
	switch {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.str()
		return value.String(s), err
	case c == 't':
		return value.Bool(true), p.literal("true")
	case c == 'f':
		return value.Bool(false), p.literal("false")
	case c == 'n':
		return value.Null(), p.literal("null")
	case c == '-' || isDigit(c):
		return p.number()
	}
	return value.Value{}, p.fail("unexpected %q", c)
}

func (p *parser) object() (value.Value, error) {
	var (
		members []value.Member
		index   map[string]int
	)
	err := p.members(func(key string, off int) error {
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		if i, dup := index[key]; dup {
			if err := p.duplicate(key, off); err != nil {
				return err
			}
			members[i].Value = v
			return nil
		}
		if index == nil {
			index = make(map[string]int)
		}
		index[key] = len(members)
		members = append(members, value.Member{Key: key, Value: v})
		return nil
	})
	if err != nil {
		return value.Value{}, err
	}
	return value.AdoptObject(members), nil
}

func (p *parser) array() (value.Value, error) {
	var items []value.Value
	err := p.elements(func(int) error {
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	if err != nil {
		return value.Value{}, err
	}
	return value.AdoptArray(items), nil
}

func (p *parser) literal(word string) error {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return p.fail("invalid literal, expected %s", word)
	}
	p.pos += len(word)
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (p *parser) digits() int {
	start := p.pos
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
	return p.pos - start
}

// numberLexeme consumes `-?digits(.digits)?` and reports whether it had a
// fraction.
func (p *parser) numberLexeme() (string, bool, error) {
	start := p.pos
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	if p.digits() == 0 {
		return "", false, p.fail("expected digit")
	}
	frac := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		if p.digits() == 0 {
			return "", false, p.fail("expected digit after decimal point")
		}
		frac = true
	}
	return p.src[start:p.pos], frac, nil
}

func (p *parser) number() (value.Value, error) {
	start := p.pos
	lex, frac, err := p.numberLexeme()
	if err != nil {
		return value.Value{}, err
	}
	if frac {
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			return value.Value{}, p.failAt(start, "number %s out of float64 range", lex)
		}
		return value.Float(f), nil
	}
	i, err := strconv.ParseInt(lex, 10, 32)
	if err != nil {
		return value.Value{}, p.failAt(start, "integer %s out of int32 range", lex)
	}
	return value.Int(int32(i)), nil
}

// str consumes a double-quoted string and returns its decoded contents.
func (p *parser) str() (string, error) {
	open := p.pos
	if err := p.expect('"'); err != nil {
		return "", err
	}
	start := p.pos
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '"':
			s := p.src[start:p.pos]
			p.pos++
			return s, nil
		case '\\':
			return p.strEscaped(open, start)
		}
		p.pos++
	}
	return "", p.failAt(open, "unterminated string")
}

func (p *parser) strEscaped(open, start int) (string, error) {
	var b strings.Builder
	b.WriteString(p.src[start:p.pos])
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			p.pos++
			continue
		}
		if p.pos+1 >= len(p.src) {
			break
		}
		esc := p.src[p.pos+1]
		p.pos += 2
		switch esc {
		case '"', '\\', '/':
			b.WriteByte(esc)
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			r, err := p.hex4()
			if err != nil {
				return "", err
			}
			if utf16.IsSurrogate(r) {
				r = p.lowSurrogate(r)
			}
			b.WriteRune(r)
		default:
			return "", p.failAt(p.pos-2, "invalid escape \\%c", esc)
		}
	}
	return "", p.failAt(open, "unterminated string")
}

func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.fail("short \\u escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 16)
	if err != nil {
		return 0, p.fail("invalid \\u escape %q", p.src[p.pos:p.pos+4])
	}
	p.pos += 4
	return rune(n), nil
}

// lowSurrogate pairs hi with a following \uXXXX low surrogate. Unpaired
// surrogates decode to U+FFFD.
func (p *parser) lowSurrogate(hi rune) rune {
	if p.pos+6 <= len(p.src) && p.src[p.pos] == '\\' && p.src[p.pos+1] == 'u' {
		n, err := strconv.ParseUint(p.src[p.pos+2:p.pos+6], 16, 16)
		if err == nil {
			if r := utf16.DecodeRune(hi, rune(n)); r != utf8.RuneError {
				p.pos += 6
				return r
			}
		}
	}
	return utf8.RuneError
}
