// Package codec implements the schema-routed binary encoding of value trees.
//
// A stream is a little-endian uint32 key id followed by one value record. A
// record is a one-byte type tag and its payload:
//
//	0 null     (no payload)
//	1 boolean  u8, 0 or 1
//	2 integer  u32, two's complement int32 bits
//	3 number   8 bytes, IEEE-754 float64 bits
//	4 string   u32 length, bytes
//	5 array    u32 count, records
//	6 object   u32 count, then per member: u32 key length, key bytes, record
//
// All multi-byte integers and floats are little-endian. The schema does not
// select encodings; it only routes recursion (object members through their
// property schema, array items through the items schema) and supplies the key
// id. Type conformance is the validator's concern.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/valyala/bytebufferpool"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// DefaultMaxDepth bounds container nesting when Options.MaxDepth is unset.
const DefaultMaxDepth = 256

// HeaderSize is the length of the key id preamble.
const HeaderSize = 4

// Options bundles codec options. When several are passed, the last wins.
type Options struct {
	MaxDepth int
}

func pickOptions(opts []Options) Options {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	return opt
}

var pool bytebufferpool.Pool

// Encode serializes v under s and returns a freshly allocated stream.
func Encode(s *schema.Schema, v value.Value, opts ...Options) ([]byte, error) {
	buf := pool.Get()
	defer pool.Put(buf)
	if err := encodeInto(buf, s, v, pickOptions(opts)); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.B)
	return out, nil
}

// EncodeTo serializes v under s and writes the stream to w. Nothing is
// written when encoding fails.
func EncodeTo(w io.Writer, s *schema.Schema, v value.Value, opts ...Options) (int64, error) {
	buf := pool.Get()
	defer pool.Put(buf)
	if err := encodeInto(buf, s, v, pickOptions(opts)); err != nil {
		return 0, err
	}
	n, err := buf.WriteTo(w)
	if err != nil {
		return n, issue.Wrap(issue.KindEncodeFailure, issue.CodeWriteFailed, err, "")
	}
	return n, nil
}

func encodeInto(buf *bytebufferpool.ByteBuffer, s *schema.Schema, v value.Value, opt Options) error {
	if s == nil {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil schema")
	}
	e := encoder{buf: buf, maxDepth: opt.MaxDepth}
	e.u32(s.KeyID)
	return e.value(s, v, "", 0)
}

type encoder struct {
	buf      *bytebufferpool.ByteBuffer
	maxDepth int
}

func encodeError(code, path, msg string) error {
	return issue.New(issue.KindEncodeFailure, code, path, msg)
}

func (e *encoder) u8(b byte) { e.buf.B = append(e.buf.B, b) }

func (e *encoder) u32(n uint32) { e.buf.B = binary.LittleEndian.AppendUint32(e.buf.B, n) }

// length writes a u32 count or byte length, rejecting values that do not fit.
func (e *encoder) length(n int, path, what string) error {
	if uint64(n) > math.MaxUint32 {
		return encodeError(issue.CodeTooLarge, path, fmt.Sprintf("%s %d exceeds uint32", what, n))
	}
	e.u32(uint32(n))
	return nil
}

// value writes one record. s may be nil for members without a schema.
func (e *encoder) value(s *schema.Schema, v value.Value, path string, depth int) error {
	t := v.Type()
	if !t.Valid() {
		return encodeError(issue.CodeUnsupportedType, path, "unsupported value "+t.String())
	}
	if (t == value.TypeArray || t == value.TypeObject) && depth >= e.maxDepth {
		return encodeError(issue.CodeMaxDepth, path, fmt.Sprintf("nesting deeper than %d", e.maxDepth))
	}
	e.u8(byte(t))
	switch t {
	case value.TypeNull:
	case value.TypeBool:
		b, _ := v.AsBool()
		if b {
			e.u8(1)
		} else {
			e.u8(0)
		}
	case value.TypeInteger:
		i, _ := v.AsInt()
		e.u32(uint32(i))
	case value.TypeNumber:
		f, _ := v.AsFloat()
		e.buf.B = binary.LittleEndian.AppendUint64(e.buf.B, math.Float64bits(f))
	case value.TypeString:
		str, _ := v.AsString()
		if err := e.length(len(str), path, "string length"); err != nil {
			return err
		}
		e.buf.B = append(e.buf.B, str...)
	case value.TypeArray:
		items := v.Items()
		if err := e.length(len(items), path, "array length"); err != nil {
			return err
		}
		var is *schema.Schema
		if s != nil {
			is = s.Items
		}
		for i, item := range items {
			if err := e.value(is, item, issue.JoinIndex(path, i), depth+1); err != nil {
				return err
			}
		}
	case value.TypeObject:
		members := v.Members()
		if err := e.length(len(members), path, "member count"); err != nil {
			return err
		}
		var seen map[string]struct{}
		for _, m := range members {
			mp := issue.JoinKey(path, m.Key)
			if m.Key == "" {
				return encodeError(issue.CodeInvalidPayload, path, "empty object key")
			}
			if _, dup := seen[m.Key]; dup {
				return encodeError(issue.CodeDuplicateKey, mp, fmt.Sprintf("duplicate object key %q", m.Key))
			}
			if seen == nil {
				seen = make(map[string]struct{}, len(members))
			}
			seen[m.Key] = struct{}{}
			if err := e.length(len(m.Key), mp, "key length"); err != nil {
				return err
			}
			e.buf.B = append(e.buf.B, m.Key...)
			ps, _ := s.Property(m.Key)
			if err := e.value(ps, m.Value, mp, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
