package schema

import "github.com/reoring/schemabin/jsonschema"

// JSONSchema projects the tree into its JSON Schema document form.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	if s == nil {
		return nil
	}
	out := &jsonschema.Schema{
		ID:       s.ID,
		Title:    s.Title,
		KeyID:    s.KeyID,
		Required: s.Required(),
		Items:    s.Items.JSONSchema(),
		Ref:      s.Ref,
	}
	if !s.Untyped {
		out.Type = s.Type.String()
	}
	if len(out.Required) == 0 {
		out.Required = nil
	}
	if len(s.names) > 0 {
		props := make(jsonschema.Properties, 0, len(s.names))
		for _, n := range s.names {
			props = append(props, jsonschema.Property{Name: n, Schema: s.props[n].JSONSchema()})
		}
		out.Properties = &props
	}
	return out
}
