package contactform

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruscor/contact-relay/pkg/config"
)

func TestRespond(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{name: "success", wantStatus: http.StatusOK, wantBody: `{"success":true,"message":"` + MsgSubmitted + `"}`},
		{name: "missing fields", err: ErrMissingFields, wantStatus: http.StatusBadRequest, wantBody: `{"error":"` + MsgFillAllFields + `"}`},
		{name: "wrapped missing fields", err: fmt.Errorf("check: %w", ErrMissingFields), wantStatus: http.StatusBadRequest, wantBody: `{"error":"` + MsgFillAllFields + `"}`},
		{name: "mail not configured", err: config.ErrMailNotConfigured, wantStatus: http.StatusInternalServerError, wantBody: `{"error":"` + MsgMailNotConfigured + `"}`},
		{name: "other failure", err: errors.New("dial tcp: refused"), wantStatus: http.StatusInternalServerError, wantBody: `{"error":"` + MsgErrorPrefix + `dial tcp: refused"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := respond(tt.err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, resp.Body)
			assert.Equal(t, contentTypeJSON, resp.Header(HeaderContentType))
			assert.Equal(t, corsAllowOrigin, resp.Header(HeaderAllowOrigin))
		})
	}
}

func TestPreflightResponse(t *testing.T) {
	resp := preflightResponse()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Body)
	assert.Empty(t, resp.Header(HeaderContentType))
	assert.Len(t, resp.Headers, 3)
}

func TestErrorResponse_NonASCIIPreserved(t *testing.T) {
	resp := errorResponse(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
	assert.Contains(t, resp.Body, MsgMethodNotAllowed)
}
