package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultListenAddress = ":8080"
	DefaultMaxBodyBytes  = 64 << 10
	DefaultMailTimeout   = 10 * time.Second
)

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	TLSCertFile    string   `yaml:"tlsCertFile"`
	TLSKeyFile     string   `yaml:"tlsKeyFile"`
	TrustedProxies []string `yaml:"trustedProxies"` // IPs/CIDRs to trust for X-Forwarded-For headers
	// MaxBodyBytes caps the size of a submitted request body.
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
}

// Mail holds non-secret SMTP session tuning. Credentials never live in the
// config file; see MailCredentials.
type Mail struct {
	// Timeout bounds the whole SMTP session (connect, TLS, auth, send), e.g. "10s".
	Timeout string `yaml:"timeout"`
}

type Config struct {
	Server Server `yaml:"server"`
	Mail   Mail   `yaml:"mail"`
}

// Load reads the relay configuration from a YAML file. An empty path yields
// the zero Config; callers apply Defaults either way.
func Load(path string) (Config, error) {
	var config Config
	if path == "" {
		return config, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open contact-relay config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}
	return config, nil
}

// Defaults fills unset fields with their default values.
func (c *Config) Defaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = DefaultListenAddress
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Mail.Timeout == "" {
		c.Mail.Timeout = DefaultMailTimeout.String()
	}
}

// MailTimeout parses Mail.Timeout, falling back to DefaultMailTimeout when the
// value is empty. Non-positive durations are rejected.
func (c Config) MailTimeout() (time.Duration, error) {
	if c.Mail.Timeout == "" {
		return DefaultMailTimeout, nil
	}
	d, err := time.ParseDuration(c.Mail.Timeout)
	if err != nil {
		return DefaultMailTimeout, fmt.Errorf("invalid mail timeout %q; using default %s: %w", c.Mail.Timeout, DefaultMailTimeout, err)
	}
	if d <= 0 {
		return DefaultMailTimeout, fmt.Errorf("invalid mail timeout %q; using default %s: must be positive", c.Mail.Timeout, DefaultMailTimeout)
	}
	return d, nil
}
