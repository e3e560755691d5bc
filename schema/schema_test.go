package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/jsonschema"
	"github.com/reoring/schemabin/parser"
	"github.com/reoring/schemabin/schema"
	"github.com/reoring/schemabin/value"
)

func TestAccepts(t *testing.T) {
	num := schema.New(value.TypeNumber)
	assert.True(t, num.Accepts(value.TypeInteger))
	assert.True(t, num.Accepts(value.TypeNumber))
	assert.False(t, schema.New(value.TypeInteger).Accepts(value.TypeNumber))
	assert.True(t, schema.Any().Accepts(value.TypeObject))
	assert.Equal(t, "any", schema.Any().TypeName())
}

func TestSetProperty(t *testing.T) {
	root := schema.New(value.TypeObject)
	child := schema.New(value.TypeObject)
	require.NoError(t, root.SetProperty("b", child))
	require.NoError(t, root.SetProperty("a", schema.New(value.TypeString)))
	assert.Equal(t, []string{"b", "a"}, root.PropertyNames())
	assert.Equal(t, 2, root.NumProperties())

	err := root.SetProperty("a", schema.Any())
	assert.Equal(t, issue.CodeDuplicateKey, issue.CodeOf(err))

	err = child.SetProperty("loop", root)
	assert.Equal(t, issue.CodeInvalidArgument, issue.CodeOf(err))
	err = child.SetItems(root)
	assert.Error(t, err)

	assert.Error(t, root.SetProperty("", schema.Any()))
	assert.Error(t, root.SetProperty("nil", nil))

	var none *schema.Schema
	_, ok := none.Property("x")
	assert.False(t, ok)
}

func TestAddRequired(t *testing.T) {
	s := schema.New(value.TypeObject)
	require.NoError(t, s.AddRequired("id", "name"))
	assert.Equal(t, []string{"id", "name"}, s.Required())
	assert.True(t, s.IsRequired("name"))
	assert.False(t, s.IsRequired("age"))

	assert.Equal(t, issue.CodeDuplicateKey, issue.CodeOf(s.AddRequired("id")))
	assert.Error(t, s.AddRequired(""))
}

func TestClone(t *testing.T) {
	s, err := parser.ParseSchema(`{"keyId": 4, "type": "object", "required": ["xs"],
		"properties": {"xs": {"type": "array", "items": {"type": "integer"}}}}`)
	require.NoError(t, err)

	c := s.Clone()
	xs, _ := c.Property("xs")
	xs.Items.Type = value.TypeString

	orig, _ := s.Property("xs")
	assert.Equal(t, value.TypeInteger, orig.Items.Type)
	assert.Equal(t, []string{"xs"}, c.Required())
	assert.Equal(t, uint32(4), c.KeyID)
}

func TestJSONSchema_RoundTrip(t *testing.T) {
	src := `{"$id": "urn:person", "title": "Person", "keyId": 99, "type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}, "any": {}, "link": {"$ref": "#/defs/x"},
			"tags": {"type": "array", "items": {"type": "string"}}}}`
	s, err := parser.ParseSchema(src)
	require.NoError(t, err)

	b, err := jsonschema.Marshal(s.JSONSchema())
	require.NoError(t, err)
	assert.JSONEq(t, src, string(b))

	back, err := parser.ParseSchema(string(b))
	require.NoError(t, err)
	assert.Equal(t, s.PropertyNames(), back.PropertyNames())
	anyProp, _ := back.Property("any")
	assert.True(t, anyProp.Untyped)
	link, _ := back.Property("link")
	assert.Equal(t, "#/defs/x", link.Ref)
}
