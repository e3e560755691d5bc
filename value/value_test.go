package value_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

func TestType_Names(t *testing.T) {
	for _, name := range []string{"null", "boolean", "integer", "number", "string", "array", "object"} {
		typ, ok := value.ParseType(name)
		require.True(t, ok, name)
		assert.Equal(t, name, typ.String())
	}
	_, ok := value.ParseType("date")
	assert.False(t, ok)
	assert.Equal(t, "type(9)", value.Type(9).String())
}

func TestValue_SetAndAppendCopy(t *testing.T) {
	child := value.Array(value.Int(1))
	obj := value.NewObject()
	require.NoError(t, obj.Set("xs", child))
	require.NoError(t, child.Append(value.Int(2)))

	got, ok := obj.Get("xs")
	require.True(t, ok)
	assert.Equal(t, 1, got.Len(), "object must hold its own copy")

	require.NoError(t, obj.Set("xs", value.String("replaced")))
	assert.Equal(t, []string{"xs"}, obj.Keys())

	err := obj.Set("", value.Null())
	assert.True(t, errors.Is(err, issue.KindInvalidArgument))

	s := value.String("x")
	assert.Error(t, s.Set("k", value.Null()))
	assert.Error(t, s.Append(value.Null()))
}

func TestValue_Object(t *testing.T) {
	v, err := value.Object(value.M("b", value.Int(1)), value.M("a", value.Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, v.Keys())

	_, err = value.Object(value.M("a", value.Null()), value.M("a", value.Null()))
	assert.Equal(t, issue.CodeDuplicateKey, issue.CodeOf(err))

	assert.Panics(t, func() { value.MustObject(value.M("", value.Null())) })
}

func TestValue_Accessors(t *testing.T) {
	f, ok := value.Int(7).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)

	_, ok = value.String("7").AsInt()
	assert.False(t, ok)

	arr := value.Array(value.Null(), value.Bool(false))
	it, ok := arr.Index(1)
	require.True(t, ok)
	assert.Equal(t, value.TypeBool, it.Type())
	_, ok = arr.Index(2)
	assert.False(t, ok)
	assert.True(t, value.Null().IsNull())
}

func TestEqual(t *testing.T) {
	a := value.MustObject(value.M("x", value.Array(value.Float(1.5), value.String("s"))))
	assert.True(t, value.Equal(a, a.Clone()))

	reordered := value.MustObject(value.M("y", value.Null()), value.M("x", value.Null()))
	ordered := value.MustObject(value.M("x", value.Null()), value.M("y", value.Null()))
	assert.False(t, value.Equal(reordered, ordered))

	assert.False(t, value.Equal(value.Int(1), value.Float(1)))
	assert.True(t, value.Equal(value.Float(math.NaN()), value.Float(math.NaN())))
}

func TestMarshalJSON(t *testing.T) {
	v := value.MustObject(
		value.M("name", value.String("A\"lice\n")),
		value.M("n", value.Float(2)),
		value.M("i", value.Int(-3)),
		value.M("xs", value.Array(value.Null(), value.Bool(true))),
	)
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"A\"lice\n","n":2.0,"i":-3,"xs":[null,true]}`, string(b))
	assert.Equal(t, string(b), v.String())

	_, err = value.Float(math.Inf(1)).MarshalJSON()
	assert.Error(t, err)
}
