package structqs

import (
	"go.uber.org/zap"
)

// DefaultTagName is the struct tag consulted for field names.
const DefaultTagName = "qs"

// Config controls parsing limits and binding behaviour of a Codec.
// Zero values mean unlimited or default.
type Config struct {
	// Logger receives debug output. Nil uses the package logger.
	Logger *zap.Logger
	// TagName is the struct tag holding field names and options.
	TagName string
	// MaxInputSize rejects inputs longer than this many bytes.
	MaxInputSize int
	// MaxDepth rejects keys with more segments than this. Key depth is
	// otherwise bounded only by the input length.
	MaxDepth int
	// DisallowUnknownFields makes struct decoding fail on keys that do
	// not match any field.
	DisallowUnknownFields bool
}

// DefaultConfig returns the configuration used by the package-level functions.
func DefaultConfig() Config {
	return Config{
		TagName: DefaultTagName,
	}
}
