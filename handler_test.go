package contactrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/contactform"
)

func errorOf(t *testing.T, resp *contactform.Response) string {
	t.Helper()
	var body contactform.APIError
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	return body.Error
}

func TestHandler_NilEvent(t *testing.T) {
	resp, err := Handler(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, contactform.MsgMethodNotAllowed, errorOf(t, resp))
}

func TestHandler_Preflight(t *testing.T) {
	resp, err := Handler(context.Background(), &contactform.Event{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header(contactform.HeaderAllowOrigin))
}

func TestHandler_ReadsEnvironmentPerCall(t *testing.T) {
	ev := &contactform.Event{HTTPMethod: http.MethodPost, Body: `{"name":"Ann","phone":"555"}`}

	t.Setenv(config.EnvSMTPHost, "")
	t.Setenv(config.EnvSMTPUser, "")
	t.Setenv(config.EnvSMTPPassword, "")
	resp, err := Handler(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, contactform.MsgMailNotConfigured, errorOf(t, resp))

	t.Setenv(config.EnvSMTPHost, "smtp.example.com")
	t.Setenv(config.EnvSMTPPort, strconv.Itoa(70000))
	t.Setenv(config.EnvSMTPUser, "relay@example.com")
	t.Setenv(config.EnvSMTPPassword, "secret")
	resp, err = Handler(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, errorOf(t, resp), contactform.MsgErrorPrefix)
	assert.Contains(t, errorOf(t, resp), config.EnvSMTPPort)
}

func TestHandler_Validation(t *testing.T) {
	resp, err := Handler(context.Background(), &contactform.Event{HTTPMethod: http.MethodPost, Body: `{"name":"","phone":"123"}`})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, contactform.MsgFillAllFields, errorOf(t, resp))
}
