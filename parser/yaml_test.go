package parser_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/parser"
	"github.com/reoring/schemabin/value"
)

func TestParseSchemaYAML(t *testing.T) {
	src := []byte(`
title: Person
keyId: 3000000000
type: object
required: [name]
properties:
  name:
    type: string
  scores:
    type: array
    items:
      type: number
x-extra:
  anything: [1, 2]
`)
	s, err := parser.ParseSchemaYAML(src)
	require.NoError(t, err)
	assert.Equal(t, uint32(3000000000), s.KeyID)
	assert.Equal(t, value.TypeObject, s.Type)
	assert.Equal(t, []string{"name"}, s.Required())
	assert.Equal(t, []string{"name", "scores"}, s.PropertyNames())
	scores, _ := s.Property("scores")
	assert.Equal(t, value.TypeNumber, scores.Items.Type)
}

func TestParseSchemaYAML_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		code string
	}{
		"unknown type":  {"type: date\n", issue.CodeInvalidSchema},
		"negative key":  {"keyId: -4\n", issue.CodeInvalidSchema},
		"duplicate key": {"type: string\ntype: integer\n", issue.CodeDuplicateKey},
		"not a mapping": {"- a\n", issue.CodeInvalidSchema},
		"broken yaml":   {"type: [\n", issue.CodeSchemaSyntax},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.ParseSchemaYAML([]byte(c.src))
			require.Error(t, err)
			assert.Equal(t, issue.KindMalformedSchemaText, issue.KindOf(err))
			assert.Equal(t, c.code, issue.CodeOf(err))
		})
	}
}

func TestParseValueYAML(t *testing.T) {
	v, err := parser.ParseValueYAML([]byte("name: Alice\nage: 30\nratio: 0.5\nok: true\nnote: ~\ntags: [a, b]\n"))
	require.NoError(t, err)

	want := value.MustObject(
		value.M("name", value.String("Alice")),
		value.M("age", value.Int(30)),
		value.M("ratio", value.Float(0.5)),
		value.M("ok", value.Bool(true)),
		value.M("note", value.Null()),
		value.M("tags", value.Array(value.String("a"), value.String("b"))),
	)
	assert.True(t, value.Equal(want, v), "got %s", v)

	_, err = parser.ParseValueYAML([]byte("big: 2147483648\n"))
	assert.Equal(t, issue.KindMalformedValueText, issue.KindOf(err))

	_, err = parser.ParseValueYAML([]byte("x: .inf\n"))
	assert.Equal(t, issue.KindMalformedValueText, issue.KindOf(err))

	// Dates and binary blobs carry no tag of their own and stay text.
	v, err = parser.ParseValueYAML([]byte("born: 2001-12-14\nblob: !!binary aGVsbG8=\n"))
	require.NoError(t, err)
	born, _ := v.Get("born")
	s, ok := born.AsString()
	require.True(t, ok)
	assert.Equal(t, "2001-12-14", s)
	blob, _ := v.Get("blob")
	s, _ = blob.AsString()
	assert.Equal(t, "aGVsbG8=", s)
}

func TestParseValueYAML_Aliases(t *testing.T) {
	v, err := parser.ParseValueYAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	require.NoError(t, err)
	cp, ok := v.Get("copy")
	require.True(t, ok)
	x, _ := cp.Get("x")
	n, _ := x.AsInt()
	assert.Equal(t, int32(1), n)

	// Each level references the previous one ten times: 10^7 nodes once
	// expanded, from a few hundred bytes of input.
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= 7; i++ {
		refs := strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*a%d, ", i-1), 10), ", ")
		fmt.Fprintf(&b, "a%d: &a%d [%s]\n", i, i, refs)
	}
	_, err = parser.ParseValueYAML([]byte(b.String()))
	require.Error(t, err)
	assert.Equal(t, issue.CodeTooLarge, issue.CodeOf(err))

	nested := strings.ReplaceAll(strings.TrimSuffix(b.String(), "\n"), "\n", "\n  ")
	_, err = parser.ParseSchemaYAML([]byte("type: object\nx-bomb:\n  " + nested + "\n"))
	assert.Equal(t, issue.CodeTooLarge, issue.CodeOf(err))
}
