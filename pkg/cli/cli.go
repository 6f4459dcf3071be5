package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ruscor/contact-relay/pkg/config"
	"github.com/ruscor/contact-relay/pkg/contactform"
	"github.com/ruscor/contact-relay/pkg/mail"
	"github.com/ruscor/contact-relay/pkg/system"
)

// Environment fallbacks for the global flags.
const (
	EnvConfigPath    = "CONTACT_RELAY_CONFIG"
	EnvDebug         = "CONTACT_RELAY_DEBUG"
	EnvListenAddress = "CONTACT_RELAY_LISTEN_ADDRESS"
)

// Config wires the command tree to its surroundings. Zero values fall back to
// the process defaults.
type Config struct {
	OutputWriter io.Writer
	Input        io.Reader
	// Logger replaces the logger built from --debug.
	Logger *zap.Logger
	// Credentials replaces the SMTP_* environment lookup.
	Credentials contactform.CredentialsSource
}

type runtimeState struct {
	configPath  string
	debug       bool
	cfg         config.Config
	logger      *zap.Logger
	credentials contactform.CredentialsSource
}

type runtimeKey struct{}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{logger: cfg.Logger, credentials: cfg.Credentials}

	root := &cobra.Command{
		Use:           "contact-relay",
		Short:         "Relay website contact form submissions by email",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, rt))
			if cmd.Name() == "version" {
				return nil
			}
			if rt.logger == nil {
				logger, err := system.NewLogger(rt.debug)
				if err != nil {
					return err
				}
				rt.logger = logger
			}
			if rt.credentials == nil {
				rt.credentials = config.MailCredentialsFromEnv
			}

			c, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			c.Defaults()
			rt.cfg = c
			return nil
		},
	}

	if cfg.OutputWriter != nil {
		root.SetOut(cfg.OutputWriter)
	}
	if cfg.Input != nil {
		root.SetIn(cfg.Input)
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", getEnvString(EnvConfigPath, ""), "Path to the YAML config file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", getEnvBool(EnvDebug, false), "Enable debug level logging")

	root.AddCommand(
		NewServeCommand(),
		NewInvokeCommand(),
		NewVersionCommand(),
	)
	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

// gateway builds the contact form handler with the configured mail timeout.
func (rt *runtimeState) gateway() *contactform.Handler {
	log := rt.logger.Sugar()
	timeout, err := rt.cfg.MailTimeout()
	if err != nil {
		log.Warn(err)
	}
	dispatcher := mail.NewDispatcher(log, mail.WithTimeout(timeout))
	return contactform.NewHandler(log, dispatcher, rt.credentials)
}

func (rt *runtimeState) logSettings() {
	rt.logger.Sugar().Infow("Contact relay configuration",
		"debug", rt.debug,
		"config_path", rt.configPath,
		"listen_address", rt.cfg.Server.ListenAddress,
		"tls", rt.cfg.Server.TLSCertFile != "" && rt.cfg.Server.TLSKeyFile != "",
		"trusted_proxies", rt.cfg.Server.TrustedProxies,
		"max_body_bytes", rt.cfg.Server.MaxBodyBytes,
		"mail_timeout", rt.cfg.Mail.Timeout,
	)
}

// getEnvString returns the value of an environment variable or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
