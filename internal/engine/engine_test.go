package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemabin/internal/engine"
	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

func decode(t *testing.T, in string, opt engine.EnforceOptions) (value.Value, error) {
	t.Helper()
	return engine.DecodeValue(engine.WrapWithEnforcement(engine.NewBytes([]byte(in)), opt))
}

func TestDecodeValue_Numbers(t *testing.T) {
	v, err := decode(t, `{"i": 7, "f": 1.5, "e": 2e3, "neg": -3}`, engine.EnforceOptions{OnDuplicate: engine.DupError})
	require.NoError(t, err)

	want := value.MustObject(
		value.M("i", value.Int(7)),
		value.M("f", value.Float(1.5)),
		value.M("e", value.Float(2000)),
		value.M("neg", value.Int(-3)),
	)
	assert.True(t, value.Equal(want, v), "got %s", v)
}

func TestDecodeValue_IntOverflow(t *testing.T) {
	_, err := decode(t, `{"big": [1, 4294967296]}`, engine.EnforceOptions{})
	require.Error(t, err)
	iss, ok := issue.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, issue.KindMalformedValueText, iss[0].Kind)
	assert.Equal(t, "/big/1", iss[0].Path)
}

func TestDecodeValue_Duplicates(t *testing.T) {
	const in = `{"a": {"x": 1, "x": 2}}`

	_, err := decode(t, in, engine.EnforceOptions{OnDuplicate: engine.DupError})
	require.Error(t, err)
	iss, _ := issue.AsIssues(err)
	require.Len(t, iss, 1)
	assert.Equal(t, issue.CodeDuplicateKey, iss[0].Code)
	assert.Equal(t, "/a/x", iss[0].Path)

	var seen []engine.SimpleIssue
	v, err := decode(t, in, engine.EnforceOptions{OnDuplicate: engine.DupWarn, IssueSink: func(si engine.SimpleIssue) { seen = append(seen, si) }})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	a, _ := v.Get("a")
	x, _ := a.Get("x")
	n, _ := x.AsInt()
	assert.Equal(t, int32(2), n)
	assert.Equal(t, 1, a.Len())
}

func TestDecodeValue_Depth(t *testing.T) {
	in := strings.Repeat("[", 4) + strings.Repeat("]", 4)
	_, err := decode(t, in, engine.EnforceOptions{MaxDepth: 4})
	require.NoError(t, err)

	_, err = decode(t, in, engine.EnforceOptions{MaxDepth: 3})
	assert.Equal(t, issue.CodeMaxDepth, issue.CodeOf(err))
}

func TestDecodeValue_Malformed(t *testing.T) {
	for _, in := range []string{``, `{"a": 1`, `{} []`, `{"": 1}`} {
		_, err := decode(t, in, engine.EnforceOptions{})
		require.Error(t, err, in)
		assert.Equal(t, issue.KindMalformedValueText, issue.KindOf(err), in)
	}
}
