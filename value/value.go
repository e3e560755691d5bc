package value

import (
	"fmt"
	"math"

	"github.com/reoring/schemabin/issue"
)

// Type is the tag of a Value. The numeric values are the wire tags of the
// binary format and must not be reordered.
type Type uint8

const (
	TypeNull Type = iota
	TypeBool
	TypeInteger // int32
	TypeNumber  // float64
	TypeString
	TypeArray
	TypeObject
)

var typeNames = [...]string{
	TypeNull:    "null",
	TypeBool:    "boolean",
	TypeInteger: "integer",
	TypeNumber:  "number",
	TypeString:  "string",
	TypeArray:   "array",
	TypeObject:  "object",
}

// String returns the JSON Schema keyword for the type.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("type(%d)", uint8(t))
	}
	return typeNames[t]
}

// Valid reports whether t is one of the seven known tags.
func (t Type) Valid() bool { return t <= TypeObject }

// ParseType maps a JSON Schema type keyword to its Type.
func ParseType(s string) (Type, bool) {
	for i, name := range typeNames {
		if name == s {
			return Type(i), true
		}
	}
	return TypeNull, false
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// M is shorthand for Member{Key: key, Value: v}.
func M(key string, v Value) Member { return Member{Key: key, Value: v} }

// Value is a JSON-like tagged variant. The zero value is Null.
//
// Composite values own their children: Set and Append store deep copies, so
// sharing and cycles cannot be built through this API. Plain assignment of a
// Value shares its children; use Clone for an independent copy.
type Value struct {
	typ     Type
	b       bool
	i       int32
	f       float64
	s       string
	items   []Value
	members []Member
}

func Null() Value              { return Value{} }
func Bool(b bool) Value        { return Value{typ: TypeBool, b: b} }
func Int(i int32) Value        { return Value{typ: TypeInteger, i: i} }
func Float(f float64) Value    { return Value{typ: TypeNumber, f: f} }
func String(s string) Value    { return Value{typ: TypeString, s: s} }
func NewArray() Value          { return Value{typ: TypeArray} }
func NewObject() Value         { return Value{typ: TypeObject} }
func (v Value) Type() Type     { return v.typ }
func (v Value) IsNull() bool   { return v.typ == TypeNull }
func (v Value) Len() int       { return len(v.items) + len(v.members) }
func (v Value) Items() []Value { return v.items }

// Array builds an array holding deep copies of items.
func Array(items ...Value) Value {
	out := Value{typ: TypeArray, items: make([]Value, len(items))}
	for i := range items {
		out.items[i] = items[i].Clone()
	}
	return out
}

// Object builds an object from members in order. Keys must be non-empty and
// unique.
func Object(members ...Member) (Value, error) {
	out := NewObject()
	for _, m := range members {
		if _, ok := out.Get(m.Key); ok {
			return Value{}, issue.New(issue.KindInvalidArgument, issue.CodeDuplicateKey, "", fmt.Sprintf("duplicate key %q", m.Key))
		}
		if err := out.Set(m.Key, m.Value); err != nil {
			return Value{}, err
		}
	}
	return out, nil
}

// MustObject is like Object but panics on invalid members.
func MustObject(members ...Member) Value {
	v, err := Object(members...)
	if err != nil {
		panic(err)
	}
	return v
}

// AsBool returns the payload of a Bool value.
func (v Value) AsBool() (bool, bool) { return v.b, v.typ == TypeBool }

// AsInt returns the payload of an Integer value.
func (v Value) AsInt() (int32, bool) { return v.i, v.typ == TypeInteger }

// AsFloat returns the payload of a Number value. Integers are widened.
func (v Value) AsFloat() (float64, bool) {
	switch v.typ {
	case TypeNumber:
		return v.f, true
	case TypeInteger:
		return float64(v.i), true
	}
	return 0, false
}

// AsString returns the payload of a String value.
func (v Value) AsString() (string, bool) { return v.s, v.typ == TypeString }

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Members returns the object members in insertion order. The slice must be
// treated as read-only.
func (v Value) Members() []Member { return v.members }

// Keys returns the object keys in insertion order.
func (v Value) Keys() []string {
	keys := make([]string, len(v.members))
	for i, m := range v.members {
		keys[i] = m.Key
	}
	return keys
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Set stores a deep copy of child under key, replacing an existing member in
// place or appending a new one.
func (v *Value) Set(key string, child Value) error {
	if v.typ != TypeObject {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidType, "", "set on "+v.typ.String())
	}
	if key == "" {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "object keys must not be empty")
	}
	v.put(key, child.Clone())
	return nil
}

// Append adds a deep copy of item to an array.
func (v *Value) Append(item Value) error {
	if v.typ != TypeArray {
		return issue.New(issue.KindInvalidArgument, issue.CodeInvalidType, "", "append on "+v.typ.String())
	}
	v.items = append(v.items, item.Clone())
	return nil
}

// put stores child without copying; callers own child exclusively.
func (v *Value) put(key string, child Value) {
	for i := range v.members {
		if v.members[i].Key == key {
			v.members[i].Value = child
			return
		}
	}
	v.members = append(v.members, Member{Key: key, Value: child})
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	if v.items != nil {
		out.items = make([]Value, len(v.items))
		for i := range v.items {
			out.items[i] = v.items[i].Clone()
		}
	}
	if v.members != nil {
		out.members = make([]Member, len(v.members))
		for i, m := range v.members {
			out.members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	return out
}

// Equal reports structural equality: same tags, same keys in the same order,
// same payloads. Floats are compared bit for bit.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNull:
		return true
	case TypeBool:
		return a.b == b.b
	case TypeInteger:
		return a.i == b.i
	case TypeNumber:
		return math.Float64bits(a.f) == math.Float64bits(b.f)
	case TypeString:
		return a.s == b.s
	case TypeArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as JSON text for diagnostics.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return string(b)
}

// AdoptArray wraps items as an array without copying. The caller hands over
// ownership of the slice and every item in it.
func AdoptArray(items []Value) Value { return Value{typ: TypeArray, items: items} }

// AdoptObject wraps members as an object without copying. The caller hands
// over ownership and guarantees keys are non-empty and unique; the codec
// refuses to encode objects that break this.
func AdoptObject(members []Member) Value { return Value{typ: TypeObject, members: members} }
