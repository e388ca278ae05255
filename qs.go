package structqs

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/wippyai/structqs/errors"
	"github.com/wippyai/structqs/internal/parse"
)

// Codec parses and renders query strings under one Config. It is safe for
// concurrent use; the Decoders and Encoders it hands out are not.
type Codec struct {
	compiler *Compiler
	cfg      Config
}

// New returns a Codec for cfg.
func New(cfg Config) *Codec {
	if cfg.TagName == "" {
		cfg.TagName = DefaultTagName
	}
	return &Codec{
		compiler: NewCompiler(cfg.TagName),
		cfg:      cfg,
	}
}

// Config returns the codec's configuration.
func (c *Codec) Config() Config {
	return c.cfg
}

func (c *Codec) logger() *zap.Logger {
	if c.cfg.Logger != nil {
		return c.cfg.Logger
	}
	return Logger()
}

// Parse parses data into a value tree and returns the decoder for its root.
func (c *Codec) Parse(data []byte) (*Decoder, error) {
	return c.ParseString(string(data))
}

// ParseString is Parse for a string. Unescaped text in the tree refers
// into s without copying.
func (c *Codec) ParseString(s string) (*Decoder, error) {
	root, err := parse.Parse(s, parse.Options{
		Logger:       c.logger(),
		MaxInputSize: c.cfg.MaxInputSize,
		MaxDepth:     c.cfg.MaxDepth,
	})
	if err != nil {
		return nil, err
	}
	return newDecoder(c, root, nil), nil
}

// Unmarshal decodes the query string data into v, a non-nil pointer.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return c.UnmarshalString(string(data), v)
}

// UnmarshalString decodes the query string s into v, a non-nil pointer.
func (c *Codec) UnmarshalString(s string, v any) error {
	d, err := c.ParseString(s)
	if err == nil {
		err = d.Decode(v)
	}
	if err != nil {
		c.logFailure("unmarshal", err)
	}
	return err
}

// NewEncoder returns an empty encoder rooted at the top-level record.
func (c *Codec) NewEncoder() *Encoder {
	return newEncoder(c)
}

// Marshal encodes v, which must bind to a record, as a query string.
func (c *Codec) Marshal(v any) ([]byte, error) {
	e := c.NewEncoder()
	if err := e.Encode(v); err != nil {
		c.logFailure("marshal", err)
		return nil, err
	}
	return e.AppendTo(make([]byte, 0, 64)), nil
}

// MarshalString is Marshal returning a string.
func (c *Codec) MarshalString(v any) (string, error) {
	e := c.NewEncoder()
	if err := e.Encode(v); err != nil {
		c.logFailure("marshal", err)
		return "", err
	}
	return e.String(), nil
}

func (c *Codec) logFailure(op string, err error) {
	log := c.logger()
	var e *errors.Error
	if stderrors.As(err, &e) {
		log.Debug("query "+op+" failed",
			zap.String("phase", string(e.Phase)),
			zap.String("kind", string(e.Kind)),
			zap.Strings("path", e.Path),
			zap.Error(err))
		return
	}
	log.Debug("query "+op+" failed", zap.Error(err))
}

var defaultCodec = New(DefaultConfig())

// Unmarshal decodes data into v with the default configuration.
func Unmarshal(data []byte, v any) error {
	return defaultCodec.Unmarshal(data, v)
}

// UnmarshalString decodes s into v with the default configuration.
func UnmarshalString(s string, v any) error {
	return defaultCodec.UnmarshalString(s, v)
}

// Marshal encodes v with the default configuration.
func Marshal(v any) ([]byte, error) {
	return defaultCodec.Marshal(v)
}

// MarshalString encodes v with the default configuration.
func MarshalString(v any) (string, error) {
	return defaultCodec.MarshalString(v)
}

// Parse parses data with the default configuration.
func Parse(data []byte) (*Decoder, error) {
	return defaultCodec.Parse(data)
}

// ParseString parses s with the default configuration.
func ParseString(s string) (*Decoder, error) {
	return defaultCodec.ParseString(s)
}

// NewEncoder returns an encoder using the default configuration.
func NewEncoder() *Encoder {
	return defaultCodec.NewEncoder()
}
