package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruscor/contact-relay/pkg/contactform"
	"github.com/ruscor/contact-relay/pkg/system"
)

// handleEvent adapts a real HTTP request to a gateway event and writes the
// gateway's response back unchanged.
func (s *Server) handleEvent(c *gin.Context) {
	reqLog := system.GetReqLogger(c, s.log)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Server.MaxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reqLog.Infow("Rejected oversized request body", "limit", tooLarge.Limit)
			c.Header(contactform.HeaderAllowOrigin, "*")
			c.JSON(http.StatusRequestEntityTooLarge, contactform.APIError{Error: contactform.MsgErrorPrefix + err.Error()})
			return
		}
		reqLog.Warnw("Failed to read request body", "error", err)
		c.Header(contactform.HeaderAllowOrigin, "*")
		c.JSON(http.StatusBadRequest, contactform.APIError{Error: contactform.MsgErrorPrefix + err.Error()})
		return
	}

	resp := s.gateway.Handle(c.Request.Context(), contactform.Event{
		HTTPMethod: c.Request.Method,
		Headers:    flattenHeaders(c.Request.Header),
		Body:       string(body),
	})

	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	c.Status(resp.StatusCode)
	c.Writer.WriteHeaderNow()
	if resp.Body != "" {
		if _, err := c.Writer.WriteString(resp.Body); err != nil {
			reqLog.Debugw("Failed to write response body", "error", err)
		}
	}
	reqLog.Debugw("Contact form request handled", "status", resp.StatusCode)
}

// flattenHeaders keeps the first value of every header, the shape function
// runtimes deliver.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
