package mail

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ruscor/contact-relay/pkg/config"
)

// loginAuth implements the LOGIN SMTP auth mechanism, which net/smtp lacks.
type loginAuth struct {
	username string
	password string
	host     string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("unencrypted connection")
	}
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:", "user:", "user name":
		return []byte(a.username), nil
	case "password:", "pass:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge: %s", string(fromServer))
	}
}

// selectAuth picks an auth mechanism from the relay's advertised list,
// preferring PLAIN, then LOGIN, then CRAM-MD5.
func selectAuth(advertised string, creds config.MailCredentials) (smtp.Auth, error) {
	mechs := strings.Fields(strings.ToUpper(advertised))
	has := func(name string) bool {
		for _, m := range mechs {
			if m == name {
				return true
			}
		}
		return false
	}

	switch {
	case has("PLAIN"):
		return smtp.PlainAuth("", creds.User, creds.Password, creds.Host), nil
	case has("LOGIN"):
		return &loginAuth{username: creds.User, password: creds.Password, host: creds.Host}, nil
	case has("CRAM-MD5"):
		return smtp.CRAMMD5Auth(creds.User, creds.Password), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrAuthUnsupported, advertised)
}
