package contactform

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruscor/contact-relay/pkg/mail"
)

func TestParseSubmission(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantName  string
		wantPhone string
		wantErr   error
	}{
		{name: "both fields", body: `{"name":"Ann","phone":"555"}`, wantName: "Ann", wantPhone: "555"},
		{name: "extra fields ignored", body: `{"name":"Ann","phone":"555","email":"a@b.c"}`, wantName: "Ann", wantPhone: "555"},
		{name: "unicode preserved", body: `{"name":"Анна","phone":"+7 (900) 000-00-00"}`, wantName: "Анна", wantPhone: "+7 (900) 000-00-00"},
		{name: "surrounding whitespace", body: "  {\"name\":\" Ann \"}\n", wantName: "Ann"},
		{name: "empty body", body: ""},
		{name: "whitespace body", body: " \r\n\t"},
		{name: "null fields", body: `{"name":null,"phone":null}`},
		{name: "numeric phone", body: `{"name":"Ann","phone":5550199}`, wantName: "Ann"},
		{name: "object field", body: `{"name":{"first":"Ann"},"phone":"555"}`, wantPhone: "555"},
		{name: "malformed", body: `{"name":"Ann"`, wantErr: ErrMalformedBody},
		{name: "string body", body: `"Ann"`, wantErr: ErrMalformedBody},
		{name: "number body", body: `42`, wantErr: ErrMalformedBody},
		{name: "array body", body: `[]`, wantErr: ErrMalformedBody},
		{name: "null body", body: `null`, wantErr: ErrMalformedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := parseSubmission(tt.body)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sub.Name)
			assert.Equal(t, tt.wantPhone, sub.Phone)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validate(parsed(t, `{"name":"Ann","phone":"555"}`)))
	assert.ErrorIs(t, validate(parsed(t, `{"name":"Ann"}`)), ErrMissingFields)
	assert.ErrorIs(t, validate(parsed(t, `{"phone":"555"}`)), ErrMissingFields)
	assert.ErrorIs(t, validate(parsed(t, `{"name":" ","phone":"\t"}`)), ErrMissingFields)
}

func parsed(t *testing.T, body string) mail.Submission {
	t.Helper()
	s, err := parseSubmission(body)
	require.NoError(t, err)
	return s
}

func TestDecodeBody(t *testing.T) {
	raw, err := decodeBody(Event{Body: `{"a":1}`})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, raw)

	raw, err = decodeBody(Event{Body: base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)), IsBase64Encoded: true})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, raw)

	_, err = decodeBody(Event{Body: "not*base64", IsBase64Encoded: true})
	assert.ErrorIs(t, err, ErrMalformedBody)
}
