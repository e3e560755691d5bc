package schemabin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/parser"
)

// maxDecompressedSize caps the expanded size of compressed schema files.
const maxDecompressedSize = 64 << 20

// LoadSchemaFile reads a whole schema file and parses it. Files ending in .gz
// or .zst are decompressed first; .yaml and .yml files (after any compression
// suffix) are parsed as YAML, everything else as schema text.
func (e *Engine) LoadSchemaFile(ctx context.Context, path string) (*Schema, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	data, err := readWholeFile(path)
	if err != nil {
		return nil, err
	}
	name := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(name) {
	case ".gz":
		data, err = gunzip(data)
		name = strings.TrimSuffix(name, ".gz")
	case ".zst":
		data, err = unzstd(data)
		name = strings.TrimSuffix(name, ".zst")
	}
	if err != nil {
		return nil, issue.Wrap(issue.KindMalformedSchemaText, issue.CodeSchemaSyntax, err, fmt.Sprintf("decompress %s: %v", path, err))
	}

	var s *Schema
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		s, err = parser.ParseSchemaYAML(data, e.parserOptions())
	default:
		s, err = parser.ParseSchema(string(data), e.parserOptions())
	}
	if err != nil {
		e.cfg.logger.DebugContext(ctx, "schema file rejected", "path", path, "error", err)
		return nil, err
	}
	e.cfg.logger.DebugContext(ctx, "schema file loaded", "path", path, "key_id", s.KeyID, "bytes", len(data))
	return s, nil
}

// readWholeFile reads path in one go, checking the byte count against the
// size reported by stat.
func readWholeFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, issue.Wrap(issue.KindFileNotFound, issue.CodeFileNotFound, err, fmt.Sprintf("open %s", path))
		}
		// Present but unreadable: permissions, descriptor limits, a file in
		// place of a directory.
		return nil, issue.Wrap(issue.KindFileReadMismatch, issue.CodeFileReadMismatch, err, "")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, issue.Wrap(issue.KindFileReadMismatch, issue.CodeFileReadMismatch, err, "")
	}
	if fi.IsDir() {
		return nil, issue.New(issue.KindFileNotFound, issue.CodeFileNotFound, "", path+" is a directory")
	}
	size := fi.Size()
	data := make([]byte, size)
	n, err := io.ReadFull(f, data)
	if err != nil || int64(n) != size {
		return nil, issue.Wrap(issue.KindFileReadMismatch, issue.CodeFileReadMismatch, err,
			fmt.Sprintf("read %d of %d bytes from %s", n, size, path))
	}
	return data, nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}

func unzstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}
