package schemabin_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemabin "github.com/reoring/schemabin"
	"github.com/reoring/schemabin/i18n"
	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

const personSchema = `{
  "keyId": 99,
  "title": "Person",
  "type": "object",
  "required": ["name", "age"],
  "properties": {
    "name": {"type": "string"},
    "age": {"type": "integer"},
    "score": {"type": "number"},
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

func newEngine(t *testing.T, opts ...schemabin.Option) *schemabin.Engine {
	t.Helper()
	e := schemabin.New(opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_AliceScenario(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	s, err := e.LoadSchema(ctx, personSchema)
	require.NoError(t, err)
	v, err := e.ParseValue(ctx, `{"name": "Alice", "age": 30}`)
	require.NoError(t, err)

	wire, err := e.Serialize(ctx, s, v)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x63, 0, 0, 0, 0x06, 0x02, 0, 0, 0,
		0x04, 0, 0, 0, 'n', 'a', 'm', 'e', 0x04, 0x05, 0, 0, 0, 'A', 'l', 'i', 'c', 'e',
		0x03, 0, 0, 0, 'a', 'g', 'e', 0x02, 0x1e, 0, 0, 0,
	}, wire)

	back, err := e.Deserialize(ctx, s, wire)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, back))

	id, err := schemabin.PeekKeyID(wire)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), id)

	var buf bytes.Buffer
	n, err := e.SerializeTo(ctx, &buf, s, v)
	require.NoError(t, err)
	assert.Equal(t, int64(len(wire)), n)
	assert.Equal(t, wire, buf.Bytes())
}

func TestEngine_SerializeValidatesFirst(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s, err := e.LoadSchema(ctx, personSchema)
	require.NoError(t, err)

	v, err := e.ParseValue(ctx, `{"name": "Alice"}`)
	require.NoError(t, err)
	wire, err := e.Serialize(ctx, s, v)
	assert.Nil(t, wire)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemabin.KindSchemaViolation))
	assert.Equal(t, issue.CodeRequired, issue.CodeOf(err))

	// Number accepts Integer but not the other way round.
	v, err = e.ParseValue(ctx, `{"name": "A", "age": 1, "score": 3}`)
	require.NoError(t, err)
	_, err = e.Serialize(ctx, s, v)
	require.NoError(t, err)

	v, err = e.ParseValue(ctx, `{"name": "A", "age": 1.5}`)
	require.NoError(t, err)
	_, err = e.Serialize(ctx, s, v)
	assert.Equal(t, issue.CodeInvalidType, issue.CodeOf(err))
}

func TestEngine_ArrayItemsUniform(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s, err := e.LoadSchema(ctx, `{"type": "array", "items": {"type": "string"}}`)
	require.NoError(t, err)

	ok, _ := e.ParseValue(ctx, `["a", "b"]`)
	require.NoError(t, e.Validate(ctx, s, ok))

	bad, _ := e.ParseValue(ctx, `["a", 1]`)
	err = e.Validate(ctx, s, bad)
	iss, found := schemabin.AsIssues(err)
	require.True(t, found)
	assert.Equal(t, "/1", iss[0].Path)
}

func TestEngine_KeyIDGuard(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	a, err := e.LoadSchema(ctx, `{"keyId": 1, "type": "string"}`)
	require.NoError(t, err)
	b, err := e.LoadSchema(ctx, `{"keyId": 2, "type": "string"}`)
	require.NoError(t, err)

	wire, err := e.Serialize(ctx, a, value.String("x"))
	require.NoError(t, err)
	_, err = e.Deserialize(ctx, b, wire)
	assert.True(t, errors.Is(err, schemabin.KindDecodeFailure))
	assert.Equal(t, issue.CodeKeyIDMismatch, issue.CodeOf(err))
}

func TestEngine_VerifyOnDecode(t *testing.T) {
	ctx := context.Background()
	loose := newEngine(t)
	strict := newEngine(t, schemabin.WithVerifyOnDecode(true))

	s, err := loose.LoadSchema(ctx, `{"keyId": 5, "type": "object", "required": ["id"]}`)
	require.NoError(t, err)

	// A stream for an object without "id", produced by a schema-less writer.
	wire := []byte{5, 0, 0, 0, 6, 0, 0, 0, 0}
	_, err = loose.Deserialize(ctx, s, wire)
	require.NoError(t, err)

	_, err = strict.Deserialize(ctx, s, wire)
	assert.True(t, errors.Is(err, schemabin.KindSchemaViolation))
}

func TestEngine_DecodeJSON(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	s, err := e.LoadSchema(ctx, personSchema)
	require.NoError(t, err)

	v, err := e.DecodeJSON(ctx, schemabin.JSONReader(strings.NewReader(`{"name": "Bob", "age": 41, "score": 1e2}`)))
	require.NoError(t, err)
	require.NoError(t, e.Validate(ctx, s, v))
	score, _ := v.Get("score")
	f, _ := score.AsFloat()
	assert.Equal(t, 100.0, f)

	_, err = e.DecodeJSON(ctx, schemabin.JSONBytes([]byte(`{"a": 1, "a": 2}`)))
	assert.Equal(t, issue.CodeDuplicateKey, issue.CodeOf(err))

	_, err = e.DecodeJSON(ctx, nil)
	assert.True(t, errors.Is(err, schemabin.KindInvalidArgument))
	_, err = e.DecodeJSON(ctx, schemabin.JSONReader(nil))
	assert.True(t, errors.Is(err, schemabin.KindInvalidArgument))
}

func TestEngine_DuplicateKeysWarn(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	e := newEngine(t, schemabin.WithLogger(logger), schemabin.WithDuplicateKeys(schemabin.Warn))

	v, err := e.ParseValue(ctx, `{"a": 1, "a": 2}`)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Len())

	v, err = e.DecodeJSON(ctx, schemabin.JSONBytes([]byte(`{"b": true, "b": false}`)))
	require.NoError(t, err)
	b, _ := v.Get("b")
	got, _ := b.AsBool()
	assert.False(t, got)

	assert.Equal(t, 2, strings.Count(logs.String(), `msg="duplicate key`))
}

func TestEngine_MaxDepth(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, schemabin.WithMaxDepth(2))
	_, err := e.ParseValue(ctx, `[[[]]]`)
	assert.Equal(t, issue.CodeMaxDepth, issue.CodeOf(err))
	_, err = e.DecodeJSON(ctx, schemabin.JSONBytes([]byte(`[[[]]]`)))
	assert.Equal(t, issue.CodeMaxDepth, issue.CodeOf(err))
}

func TestEngine_Closed(t *testing.T) {
	ctx := context.Background()
	e := schemabin.New()
	s, err := e.LoadSchema(ctx, `{"type": "null"}`)
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, err = e.LoadSchema(ctx, `{}`)
	assert.True(t, errors.Is(err, schemabin.KindInvalidArgument))
	assert.Equal(t, issue.CodeClosed, issue.CodeOf(err))

	_, err = e.Serialize(ctx, s, value.Null())
	assert.Equal(t, issue.CodeClosed, issue.CodeOf(err))
	_, err = e.Deserialize(ctx, s, []byte{0, 0, 0, 0, 0})
	assert.Equal(t, issue.CodeClosed, issue.CodeOf(err))
}

func TestErrorString(t *testing.T) {
	t.Cleanup(func() { i18n.SetLanguage("en") })

	assert.Equal(t, "success", schemabin.ErrorString(nil))
	assert.Equal(t, "schema validation failed", schemabin.ErrorString(issue.New(issue.KindSchemaViolation, issue.CodeRequired, "/x", "")))
	assert.Equal(t, "deserialization failed", schemabin.ErrorString(issue.New(issue.KindDecodeFailure, issue.CodeTruncated, "", "")))
	assert.Equal(t, "unknown error", schemabin.ErrorString(errors.New("boom")))

	i18n.SetLanguage("ja")
	assert.Equal(t, "スキーマ検証に失敗しました", schemabin.ErrorString(issue.New(issue.KindSchemaViolation, issue.CodeRequired, "", "")))
}

func TestParseSeverity(t *testing.T) {
	for _, s := range []schemabin.Severity{schemabin.Error, schemabin.Warn, schemabin.Ignore} {
		got, ok := schemabin.ParseSeverity(s.String())
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := schemabin.ParseSeverity("fatal")
	assert.False(t, ok)
}
