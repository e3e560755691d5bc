package schemabin

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/reoring/schemabin/codec"
	eng "github.com/reoring/schemabin/internal/engine"
	"github.com/reoring/schemabin/issue"
	"github.com/reoring/schemabin/parser"
	"github.com/reoring/schemabin/validate"
)

// DefaultMaxDepth is the nesting bound applied by every component unless
// WithMaxDepth overrides it.
const DefaultMaxDepth = 256

// Engine is a handle over the parser, validator and codec. It holds no
// per-call state and is safe for concurrent use; schemas and values passed to
// it are only read.
type Engine struct {
	cfg    config
	closed atomic.Bool
}

type config struct {
	logger   *slog.Logger
	maxDepth int
	dup      Severity
	verify   bool
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets the logger used for debug traces and duplicate-key warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithMaxDepth bounds container nesting in parsing, validation and the codec.
// Values <= 0 select DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(cfg *config) {
		cfg.maxDepth = n
	}
}

// WithDuplicateKeys sets the policy for repeated object keys in schema text,
// value text and JSON sources.
func WithDuplicateKeys(s Severity) Option {
	return func(cfg *config) {
		cfg.dup = s
	}
}

// WithVerifyOnDecode makes Deserialize validate the decoded value against the
// schema before returning it.
func WithVerifyOnDecode(enabled bool) Option {
	return func(cfg *config) {
		cfg.verify = enabled
	}
}

// New constructs an Engine.
func New(opts ...Option) *Engine {
	cfg := config{dup: Error}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.maxDepth <= 0 {
		cfg.maxDepth = DefaultMaxDepth
	}
	return &Engine{cfg: cfg}
}

// Close ends the engine's lifecycle. Later calls fail with KindInvalidArgument
// and code "closed". Close is idempotent.
func (e *Engine) Close() error {
	if e.closed.CompareAndSwap(false, true) {
		e.cfg.logger.Debug("schemabin engine closed")
	}
	return nil
}

func (e *Engine) check() error {
	if e == nil || e.closed.Load() {
		return issue.New(issue.KindInvalidArgument, issue.CodeClosed, "", "")
	}
	return nil
}

func (e *Engine) parserOptions() parser.Options {
	return parser.Options{MaxDepth: e.cfg.maxDepth, OnDuplicateKey: toParserDup(e.cfg.dup), Logger: e.cfg.logger}
}

func toParserDup(s Severity) parser.DuplicatePolicy {
	switch s {
	case Warn:
		return parser.DupWarn
	case Ignore:
		return parser.DupIgnore
	default:
		return parser.DupError
	}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Ignore:
		return eng.DupIgnore
	default:
		return eng.DupError
	}
}

// LoadSchema parses schema source text.
func (e *Engine) LoadSchema(ctx context.Context, source string) (*Schema, error) {
	if err := e.check(); err != nil {
		return nil, err
	}
	s, err := parser.ParseSchema(source, e.parserOptions())
	if err != nil {
		e.cfg.logger.DebugContext(ctx, "schema rejected", "error", err)
		return nil, err
	}
	e.cfg.logger.DebugContext(ctx, "schema loaded", "key_id", s.KeyID, "type", s.TypeName(), "bytes", len(source))
	return s, nil
}

// ParseValue parses value text.
func (e *Engine) ParseValue(ctx context.Context, text string) (Value, error) {
	if err := e.check(); err != nil {
		return Value{}, err
	}
	return parser.ParseValue(text, e.parserOptions())
}

// ParseValueYAML parses the first document of a YAML stream as a value.
func (e *Engine) ParseValueYAML(ctx context.Context, data []byte) (Value, error) {
	if err := e.check(); err != nil {
		return Value{}, err
	}
	return parser.ParseValueYAML(data, e.parserOptions())
}

// DecodeJSON reads one JSON document from src. Integral numbers must fit in an
// int32; numbers with a fraction or exponent become float64.
func (e *Engine) DecodeJSON(ctx context.Context, src Source) (Value, error) {
	if err := e.check(); err != nil {
		return Value{}, err
	}
	if src == nil {
		return Value{}, issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil source")
	}
	if rs, ok := src.(readerSource); ok && rs.r == nil {
		return Value{}, issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil reader")
	}
	ts := eng.WrapWithEnforcement(src.tokens(), eng.EnforceOptions{
		OnDuplicate: toEngineDup(e.cfg.dup),
		MaxDepth:    e.cfg.maxDepth,
		IssueSink: func(si eng.SimpleIssue) {
			e.cfg.logger.WarnContext(ctx, "duplicate key, keeping last occurrence", "path", si.Path, "message", si.Message)
		},
	})
	return eng.DecodeValue(ts)
}

// Validate checks v against s.
func (e *Engine) Validate(ctx context.Context, s *Schema, v Value) error {
	if err := e.check(); err != nil {
		return err
	}
	return validate.Validate(s, v, validate.Options{MaxDepth: e.cfg.maxDepth})
}

// Serialize validates v against s and encodes it. A validation failure is
// returned unchanged and nothing is encoded.
func (e *Engine) Serialize(ctx context.Context, s *Schema, v Value) ([]byte, error) {
	if err := e.Validate(ctx, s, v); err != nil {
		return nil, err
	}
	data, err := codec.Encode(s, v, codec.Options{MaxDepth: e.cfg.maxDepth})
	if err != nil {
		return nil, err
	}
	e.cfg.logger.DebugContext(ctx, "value serialized", "key_id", s.KeyID, "bytes", len(data))
	return data, nil
}

// SerializeTo is Serialize writing the stream to w.
func (e *Engine) SerializeTo(ctx context.Context, w io.Writer, s *Schema, v Value) (int64, error) {
	if err := e.Validate(ctx, s, v); err != nil {
		return 0, err
	}
	if w == nil {
		return 0, issue.New(issue.KindInvalidArgument, issue.CodeInvalidArgument, "", "nil writer")
	}
	n, err := codec.EncodeTo(w, s, v, codec.Options{MaxDepth: e.cfg.maxDepth})
	if err != nil {
		return n, err
	}
	e.cfg.logger.DebugContext(ctx, "value serialized", "key_id", s.KeyID, "bytes", n)
	return n, nil
}

// Deserialize decodes a stream produced under s. With WithVerifyOnDecode the
// result is also validated.
func (e *Engine) Deserialize(ctx context.Context, s *Schema, data []byte) (Value, error) {
	if err := e.check(); err != nil {
		return Value{}, err
	}
	v, err := codec.Decode(s, data, codec.Options{MaxDepth: e.cfg.maxDepth})
	if err != nil {
		e.cfg.logger.DebugContext(ctx, "stream rejected", "bytes", len(data), "error", err)
		return Value{}, err
	}
	if e.cfg.verify {
		if err := validate.Validate(s, v, validate.Options{MaxDepth: e.cfg.maxDepth}); err != nil {
			return Value{}, err
		}
	}
	e.cfg.logger.DebugContext(ctx, "value deserialized", "key_id", s.KeyID, "bytes", len(data))
	return v, nil
}

// PeekKeyID returns the key id preamble of a stream without decoding it.
func PeekKeyID(data []byte) (uint32, error) { return codec.PeekKeyID(data) }
