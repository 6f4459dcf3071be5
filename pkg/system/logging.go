package system

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReqLoggerKey is the context key used to store request-scoped logger in gin context.
const ReqLoggerKey = "reqLogger"

// NewLogger builds the process logger: JSON production output, or the
// human-readable development encoder at debug level when debug is set.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	// Disable automatic stacktraces for non-fatal levels to avoid noisy traces in WARN/INFO logs
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.EncoderConfig.TimeKey = "ts"
	return cfg.Build()
}

// GetReqLogger returns the request-scoped sugared logger from gin.Context if present,
// otherwise returns the fallback.
func GetReqLogger(c *gin.Context, fallback *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return fallback
	}
	if v, ok := c.Get(ReqLoggerKey); ok {
		if l, ok2 := v.(*zap.SugaredLogger); ok2 {
			return l
		}
	}
	return fallback
}

// EnrichReqLoggerWithClient annotates the request-scoped logger with what is
// known about the calling browser: client IP and, when present, the Origin
// header. The user agent is only logged at debug level.
func EnrichReqLoggerWithClient(c *gin.Context, reqLogger *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil || reqLogger == nil || c.Request == nil {
		return reqLogger
	}
	reqLogger = reqLogger.With("clientIP", c.ClientIP())
	if origin := c.GetHeader("Origin"); origin != "" {
		reqLogger = reqLogger.With("origin", origin)
	}
	if ua := c.GetHeader("User-Agent"); ua != "" {
		reqLogger.Debugw("Request user agent", "userAgent", ua)
	}
	return reqLogger
}
