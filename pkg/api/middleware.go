package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruscor/contact-relay/pkg/system"
)

// HeaderRequestID carries the correlation ID of a request in both directions.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 128

// requestContext assigns a request ID (reusing a sane inbound one) and stores
// a request-scoped logger under system.ReqLoggerKey.
func requestContext(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)

		reqLog := system.EnrichReqLoggerWithClient(c, log.With("requestID", id))
		c.Set(system.ReqLoggerKey, reqLog)
		c.Next()
	}
}
