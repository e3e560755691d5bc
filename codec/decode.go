package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

// Decode reads a stream produced by Encode. The key id must match s.KeyID and
// the root record must consume the buffer exactly.
func Decode(s *schema.Schema, data []byte, opts ...Options) (value.Value, error) {
	if s == nil {
		return value.Value{}, issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil schema")
	}
	d := decoder{data: data, maxDepth: pickOptions(opts).MaxDepth}
	id, err := d.u32("")
	if err != nil {
		return value.Value{}, err
	}
	if id != s.KeyID {
		return value.Value{}, d.failAt(0, issue.CodeKeyIDMismatch, "", fmt.Sprintf("key id %d does not match schema key id %d", id, s.KeyID))
	}
	v, err := d.value(s, "", 0)
	if err != nil {
		return value.Value{}, err
	}
	if d.off != len(d.data) {
		return value.Value{}, d.fail(issue.CodeTrailingBytes, "", fmt.Sprintf("%d bytes after root value", len(d.data)-d.off))
	}
	return v, nil
}

// PeekKeyID returns the key id preamble of a stream without decoding it.
func PeekKeyID(data []byte) (uint32, error) {
	d := decoder{data: data}
	return d.u32("")
}

type decoder struct {
	data     []byte
	off      int
	maxDepth int
}

func (d *decoder) failAt(off int, code, path, msg string) error {
	return issue.Issues{{Kind: issue.KindDecodeFailure, Code: code, Path: path, Message: msg, Offset: int64(off)}}
}

func (d *decoder) fail(code, path, msg string) error {
	return d.failAt(d.off, code, path, msg)
}

func (d *decoder) remaining() int { return len(d.data) - d.off }

func (d *decoder) need(n int, path, what string) error {
	if n > d.remaining() {
		return d.fail(issue.CodeTruncated, path, fmt.Sprintf("need %d bytes for %s, have %d", n, what, d.remaining()))
	}
	return nil
}

func (d *decoder) u8(path, what string) (byte, error) {
	if err := d.need(1, path, what); err != nil {
		return 0, err
	}
	b := d.data[d.off]
	d.off++
	return b, nil
}

func (d *decoder) u32(path string) (uint32, error) {
	if err := d.need(4, path, "u32"); err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return n, nil
}

// str returns the next n bytes as a string copy.
func (d *decoder) str(n uint32, path, what string) (string, error) {
	if uint64(n) > uint64(d.remaining()) {
		return "", d.fail(issue.CodeTruncated, path, fmt.Sprintf("%s of %d bytes exceeds remaining %d", what, n, d.remaining()))
	}
	s := string(d.data[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

// capacity bounds a decoded count by how many records of at least size bytes
// could still fit.
func (d *decoder) capacity(n uint32, size int) int {
	if limit := d.remaining() / size; uint64(n) > uint64(limit) {
		return limit
	}
	return int(n)
}

func (d *decoder) value(s *schema.Schema, path string, depth int) (value.Value, error) {
	start := d.off
	tag, err := d.u8(path, "type tag")
	if err != nil {
		return value.Value{}, err
	}
	switch value.Type(tag) {
	case value.TypeNull:
		return value.Null(), nil
	case value.TypeBool:
		b, err := d.u8(path, "boolean")
		if err != nil {
			return value.Value{}, err
		}
		if b > 1 {
			return value.Value{}, d.failAt(d.off-1, issue.CodeInvalidPayload, path, fmt.Sprintf("boolean byte %d is not 0 or 1", b))
		}
		return value.Bool(b == 1), nil
	case value.TypeInteger:
		n, err := d.u32(path)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(int32(n)), nil
	case value.TypeNumber:
		if err := d.need(8, path, "float64"); err != nil {
			return value.Value{}, err
		}
		bits := binary.LittleEndian.Uint64(d.data[d.off:])
		d.off += 8
		return value.Float(math.Float64frombits(bits)), nil
	case value.TypeString:
		n, err := d.u32(path)
		if err != nil {
			return value.Value{}, err
		}
		str, err := d.str(n, path, "string")
		if err != nil {
			return value.Value{}, err
		}
		return value.String(str), nil
	case value.TypeArray:
		if depth >= d.maxDepth {
			return value.Value{}, d.failAt(start, issue.CodeMaxDepth, path, fmt.Sprintf("nesting deeper than %d", d.maxDepth))
		}
		return d.array(s, path, depth)
	case value.TypeObject:
		if depth >= d.maxDepth {
			return value.Value{}, d.failAt(start, issue.CodeMaxDepth, path, fmt.Sprintf("nesting deeper than %d", d.maxDepth))
		}
		return d.object(s, path, depth)
	}
	return value.Value{}, d.failAt(start, issue.CodeUnknownTag, path, fmt.Sprintf("unknown type tag %d", tag))
}

func (d *decoder) array(s *schema.Schema, path string, depth int) (value.Value, error) {
	n, err := d.u32(path)
	if err != nil {
		return value.Value{}, err
	}
	var is *schema.Schema
	if s != nil {
		is = s.Items
	}
	// Every record is at least one tag byte.
	items := make([]value.Value, 0, d.capacity(n, 1))
	for i := 0; uint32(i) < n; i++ {
		v, err := d.value(is, issue.JoinIndex(path, i), depth+1)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
	}
	return value.AdoptArray(items), nil
}

func (d *decoder) object(s *schema.Schema, path string, depth int) (value.Value, error) {
	n, err := d.u32(path)
	if err != nil {
		return value.Value{}, err
	}
	// A member is at least a key length, one key byte and a tag byte.
	members := make([]value.Member, 0, d.capacity(n, 6))
	var seen map[string]struct{}
	for i := uint32(0); i < n; i++ {
		keyOff := d.off
		klen, err := d.u32(path)
		if err != nil {
			return value.Value{}, err
		}
		key, err := d.str(klen, path, "key")
		if err != nil {
			return value.Value{}, err
		}
		if key == "" {
			return value.Value{}, d.failAt(keyOff, issue.CodeInvalidPayload, path, "empty object key")
		}
		if _, dup := seen[key]; dup {
			return value.Value{}, d.failAt(keyOff, issue.CodeDuplicateKey, issue.JoinKey(path, key), fmt.Sprintf("duplicate object key %q", key))
		}
		if seen == nil {
			seen = make(map[string]struct{})
		}
		seen[key] = struct{}{}
		ps, _ := s.Property(key)
		v, err := d.value(ps, issue.JoinKey(path, key), depth+1)
		if err != nil {
			return value.Value{}, err
		}
		members = append(members, value.Member{Key: key, Value: v})
	}
	return value.AdoptObject(members), nil
}
