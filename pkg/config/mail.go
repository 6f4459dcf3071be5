package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Environment variables holding the SMTP relay settings.
const (
	EnvSMTPHost               = "SMTP_HOST"
	EnvSMTPPort               = "SMTP_PORT"
	EnvSMTPUser               = "SMTP_USER"
	EnvSMTPPassword           = "SMTP_PASSWORD"
	EnvSMTPInsecureSkipVerify = "SMTP_INSECURE_SKIP_VERIFY"

	DefaultSMTPPort = 587
)

// ErrMailNotConfigured is returned when a required SMTP setting is absent.
var ErrMailNotConfigured = errors.New("mail settings not configured")

// MailCredentials are the settings needed to authenticate against the SMTP
// relay. User doubles as the sender and recipient address.
type MailCredentials struct {
	Host     string
	Port     int
	User     string
	Password string
	// InsecureSkipVerify disables certificate verification of the relay.
	InsecureSkipVerify bool
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadMailCredentials reads the SMTP settings through lookup. Missing required
// values are not an error here; call Validate for that. A malformed port is.
func LoadMailCredentials(lookup LookupFunc) (MailCredentials, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	creds := MailCredentials{
		Host:     get(EnvSMTPHost),
		Port:     DefaultSMTPPort,
		User:     get(EnvSMTPUser),
		Password: get(EnvSMTPPassword),
	}

	if raw, ok := lookup(EnvSMTPPort); ok && strings.TrimSpace(raw) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return creds, fmt.Errorf("invalid %s %q: %w", EnvSMTPPort, raw, err)
		}
		if port < 1 || port > 65535 {
			return creds, fmt.Errorf("invalid %s %q: out of range", EnvSMTPPort, raw)
		}
		creds.Port = port
	}

	if raw, ok := lookup(EnvSMTPInsecureSkipVerify); ok {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1", "yes":
			creds.InsecureSkipVerify = true
		}
	}

	return creds, nil
}

// MailCredentialsFromEnv reads the SMTP settings from the process environment.
// It is meant to be called on every invocation, never cached.
func MailCredentialsFromEnv() (MailCredentials, error) {
	return LoadMailCredentials(os.LookupEnv)
}

// Validate reports ErrMailNotConfigured if host, user or password is empty.
func (c MailCredentials) Validate() error {
	if c.Host == "" || c.User == "" || c.Password == "" {
		return ErrMailNotConfigured
	}
	return nil
}

// Addr returns host:port of the relay.
func (c MailCredentials) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
