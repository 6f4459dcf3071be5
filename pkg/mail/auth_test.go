package mail

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruscor/contact-relay/pkg/config"
)

func TestSelectAuth(t *testing.T) {
	creds := config.MailCredentials{Host: "smtp.example.com", User: "relay@example.com", Password: "secret"}

	tests := []struct {
		name       string
		advertised string
		wantMech   string
		wantErr    bool
	}{
		{name: "plain preferred", advertised: "LOGIN PLAIN CRAM-MD5", wantMech: "PLAIN"},
		{name: "login only", advertised: "LOGIN", wantMech: "LOGIN"},
		{name: "cram-md5 only", advertised: "CRAM-MD5", wantMech: "CRAM-MD5"},
		{name: "lower case", advertised: "login", wantMech: "LOGIN"},
		{name: "unknown", advertised: "XOAUTH2", wantErr: true},
		{name: "empty", advertised: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := selectAuth(tt.advertised, creds)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAuthUnsupported)
				return
			}
			require.NoError(t, err)
			mech, _, err := auth.Start(&smtp.ServerInfo{Name: creds.Host, TLS: true})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMech, mech)
		})
	}
}

func TestLoginAuth(t *testing.T) {
	a := &loginAuth{username: "relay@example.com", password: "secret", host: "smtp.example.com"}

	_, _, err := a.Start(&smtp.ServerInfo{Name: "smtp.example.com", TLS: false})
	assert.Error(t, err, "LOGIN must not run over an unencrypted connection")

	_, _, err = a.Start(&smtp.ServerInfo{Name: "other.example.com", TLS: true})
	assert.Error(t, err)

	mech, resp, err := a.Start(&smtp.ServerInfo{Name: "smtp.example.com", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", mech)
	assert.Nil(t, resp)

	user, err := a.Next([]byte("Username:"), true)
	require.NoError(t, err)
	assert.Equal(t, "relay@example.com", string(user))

	pass, err := a.Next([]byte("Password:"), true)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pass))

	_, err = a.Next([]byte("Something else:"), true)
	assert.Error(t, err)

	done, err := a.Next(nil, false)
	require.NoError(t, err)
	assert.Nil(t, done)
}
