package system

import (
	"go.uber.org/zap"
)

// NewTestLogger returns the debug process logger for use in tests, or a no-op
// logger if it cannot be built.
func NewTestLogger() *zap.SugaredLogger {
	logger, err := NewLogger(true)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
