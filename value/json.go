package value

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/schemabin/issue"
)

// MarshalJSON renders v as JSON, keeping object keys in insertion order.
// Numbers always carry a fraction or exponent so that they read back as
// Number rather than Integer.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.appendJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) appendJSON(buf *bytes.Buffer) error {
	switch v.typ {
	case TypeNull:
		buf.WriteString("null")
	case TypeBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case TypeInteger:
		buf.WriteString(strconv.FormatInt(int64(v.i), 10))
	case TypeNumber:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return issue.New(issue.KindInvalidArgument, issue.CodeInvalidPayload, "", "NaN and Inf have no JSON form")
		}
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case TypeString:
		return writeJSONString(buf, v.s)
	case TypeArray:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case TypeObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.appendJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return issue.New(issue.KindInvalidArgument, issue.CodeUnsupportedType, "", v.typ.String())
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return issue.Wrap(issue.KindInvalidArgument, issue.CodeInvalidPayload, err, "")
	}
	buf.Write(b)
	return nil
}
