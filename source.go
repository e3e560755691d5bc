package schemabin

import (
	"io"

	eng "github.com/reoring/schemabin/internal/engine"
)

// Source is a JSON document origin consumed by Engine.DecodeJSON. Tokens are
// produced by goccy/go-json; unlike the value text grammar, JSON sources
// accept exponents in numbers.
type Source interface {
	tokens() eng.TokenSource
}

type bytesSource []byte

func (b bytesSource) tokens() eng.TokenSource { return eng.NewBytes(b) }

type readerSource struct{ r io.Reader }

func (s readerSource) tokens() eng.TokenSource { return eng.NewReader(s.r) }

// JSONBytes wraps a JSON document held in memory.
func JSONBytes(b []byte) Source { return bytesSource(b) }

// JSONReader wraps a JSON document read from r.
func JSONReader(r io.Reader) Source { return readerSource{r: r} }
