package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ruscor/contact-relay/pkg/api"
)

func NewServeCommand() *cobra.Command {
	var listenAddress string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contact form over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			if listenAddress != "" {
				rt.cfg.Server.ListenAddress = listenAddress
			}
			rt.logSettings()

			server, err := api.NewServer(rt.logger, rt.cfg, rt.debug, rt.gateway())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listenAddress, "listen-address", getEnvString(EnvListenAddress, ""),
		"Address to listen on (overrides server.listenAddress)")

	return cmd
}
