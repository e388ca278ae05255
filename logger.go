package structqs

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger   *zap.Logger
	loggerMu sync.RWMutex
)

var nopLogger = zap.NewNop()

// Logger returns the structqs package's logger. It is a no-op logger until
// SetLogger installs another one.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if logger == nil {
		return nopLogger
	}
	return logger
}

// SetLogger replaces the package logger used by codecs without their own
// Config.Logger. A nil logger restores the no-op logger.
func SetLogger(l *zap.Logger) {
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}
