package engine

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/value"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// DecodeValue builds exactly one value from src and requires the source to be
// exhausted afterwards. Duplicate keys that survive enforcement keep their
// first position and last value.
func DecodeValue(src TokenSource) (value.Value, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return value.Value{}, parseError(src, "empty input", nil)
		}
		return value.Value{}, wrapSourceError(src, err)
	}
	v, err := decodeValue(src, tok, "")
	if err != nil {
		return value.Value{}, err
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return value.Value{}, wrapSourceError(src, err)
		}
		return value.Value{}, parseError(src, "unexpected data after value", nil)
	}
	return v, nil
}

func decodeValue(src TokenSource, tok Token, path string) (value.Value, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src, path)
	case KindBeginArray:
		return decodeArray(src, path)
	case KindString:
		return value.String(tok.String), nil
	case KindNumber:
		return decodeNumber(src, tok.Number, path)
	case KindBool:
		return value.Bool(tok.Bool), nil
	case KindNull:
		return value.Null(), nil
	default:
		return value.Value{}, parseError(src, "unexpected token", nil)
	}
}

// decodeNumber maps integral lexemes to Integer and everything else to Number.
func decodeNumber(src TokenSource, lex, path string) (value.Value, error) {
	if !strings.ContainsAny(lex, ".eE") {
		i, err := strconv.ParseInt(lex, 10, 32)
		if err != nil {
			return value.Value{}, pathError(path, "integer "+lex+" out of int32 range")
		}
		return value.Int(int32(i)), nil
	}
	f, err := strconv.ParseFloat(lex, 64)
	if err != nil || math.IsInf(f, 0) {
		return value.Value{}, pathError(path, "number "+lex+" out of float64 range")
	}
	return value.Float(f), nil
}

func decodeObject(src TokenSource, path string) (value.Value, error) {
	var (
		members []value.Member
		index   map[string]int
	)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return value.Value{}, wrapSourceError(src, err)
		}
		if tok.Kind == KindEndObject {
			return value.AdoptObject(members), nil
		}
		if tok.Kind != KindKey {
			return value.Value{}, parseError(src, "expected object key", nil)
		}
		key := tok.String
		if key == "" {
			return value.Value{}, pathError(path, "object key must not be empty")
		}
		vt, err := src.NextToken()
		if err != nil {
			return value.Value{}, wrapSourceError(src, err)
		}
		v, err := decodeValue(src, vt, issue.JoinKey(path, key))
		if err != nil {
			return value.Value{}, err
		}
		if i, dup := index[key]; dup {
			members[i].Value = v
			continue
		}
		if index == nil {
			index = make(map[string]int)
		}
		index[key] = len(members)
		members = append(members, value.Member{Key: key, Value: v})
	}
}

func decodeArray(src TokenSource, path string) (value.Value, error) {
	var items []value.Value
	for {
		tok, err := src.NextToken()
		if err != nil {
			return value.Value{}, wrapSourceError(src, err)
		}
		if tok.Kind == KindEndArray {
			return value.AdoptArray(items), nil
		}
		v, err := decodeValue(src, tok, issue.JoinIndex(path, len(items)))
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, v)
	}
}

func parseError(src TokenSource, msg string, cause error) error {
	iss := issue.Wrap(issue.KindMalformedValueText, issue.CodeParseError, cause, msg)
	iss[0].Offset = src.Location()
	return iss
}

func pathError(path, msg string) error {
	return issue.New(issue.KindMalformedValueText, issue.CodeParseError, path, msg)
}

// wrapSourceError converts enforcement and tokenizer failures to Issues.
func wrapSourceError(src TokenSource, err error) error {
	var ie IssueError
	if errors.As(err, &ie) {
		iss := issue.New(issue.KindMalformedValueText, ie.Code, ie.Path, ie.Message)
		return iss
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return parseError(src, err.Error(), err)
}
