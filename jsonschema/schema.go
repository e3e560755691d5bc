package jsonschema

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Schema is the JSON Schema document form of a schema tree, limited to the
// keywords the schema parser understands. Feeding Marshal output back into the
// parser yields an equivalent tree.
type Schema struct {
	ID         string      `json:"$id,omitempty"`
	Title      string      `json:"title,omitempty"`
	KeyID      uint32      `json:"keyId,omitempty"`
	Type       string      `json:"type,omitempty"`
	Required   []string    `json:"required,omitempty"`
	Properties *Properties `json:"properties,omitempty"`
	Items      *Schema     `json:"items,omitempty"`
	Ref        string      `json:"$ref,omitempty"`
}

// Property is one named entry of Properties.
type Property struct {
	Name   string
	Schema *Schema
}

// Properties keeps declaration order when rendered as a JSON object.
type Properties []Property

// MarshalJSON renders the properties as an object in declaration order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(prop.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(prop.Schema)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Marshal renders s as compact JSON.
func Marshal(s *Schema) ([]byte, error) { return json.Marshal(s) }

// MarshalIndent renders s as indented JSON.
func MarshalIndent(s *Schema) ([]byte, error) { return json.MarshalIndent(s, "", "  ") }
