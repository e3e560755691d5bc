package schemabin_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemabin "github.com/reoring/schemabin"
	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

const personYAML = `keyId: 99
type: object
required: [name, age]
properties:
  name: {type: string}
  age: {type: integer}
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func gz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func zst(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestLoadSchemaFile(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	files := map[string]string{
		"json":      writeFile(t, "person.schema.json", []byte(personSchema)),
		"yaml":      writeFile(t, "person.yaml", []byte(personYAML)),
		"json.gz":   writeFile(t, "person.json.gz", gz(t, []byte(personSchema))),
		"yml.zst":   writeFile(t, "person.yml.zst", zst(t, []byte(personYAML))),
		"upper ext": writeFile(t, "PERSON.YAML", []byte(personYAML)),
	}
	alice := value.MustObject(value.M("name", value.String("Alice")), value.M("age", value.Int(30)))

	for name, path := range files {
		t.Run(name, func(t *testing.T) {
			s, err := e.LoadSchemaFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, uint32(99), s.KeyID)
			assert.Equal(t, []string{"name", "age"}, s.Required())

			wire, err := e.Serialize(ctx, s, alice)
			require.NoError(t, err)
			assert.Len(t, wire, 39)
		})
	}
}

func TestLoadSchemaFile_Errors(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)

	_, err := e.LoadSchemaFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemabin.KindFileNotFound))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = e.LoadSchemaFile(ctx, writeFile(t, "bad.json", []byte(`{"type": "date"}`)))
	assert.True(t, errors.Is(err, schemabin.KindMalformedSchemaText))
	assert.Equal(t, issue.CodeInvalidSchema, issue.CodeOf(err))

	_, err = e.LoadSchemaFile(ctx, writeFile(t, "bad.json.gz", []byte("not gzip")))
	assert.True(t, errors.Is(err, schemabin.KindMalformedSchemaText))

	_, err = e.LoadSchemaFile(ctx, t.TempDir())
	assert.True(t, errors.Is(err, schemabin.KindFileNotFound))

	// A regular file used as a directory exists but cannot be opened.
	notDir := filepath.Join(writeFile(t, "plain.json", []byte(`{}`)), "child.json")
	_, err = e.LoadSchemaFile(ctx, notDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemabin.KindFileReadMismatch))
	assert.False(t, errors.Is(err, os.ErrNotExist))
}
