package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruscor/contact-relay/pkg/contactform"
)

func NewInvokeCommand() *cobra.Command {
	var eventPath string

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Handle a single function event and print the response",
		Long: "Reads one event as JSON ({\"httpMethod\": ..., \"body\": ...}) from --event or stdin,\n" +
			"handles it exactly like the deployed function and prints the response as JSON.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if eventPath != "" && eventPath != "-" {
				f, err := os.Open(eventPath)
				if err != nil {
					return fmt.Errorf("open event file: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			var ev contactform.Event
			if err := json.NewDecoder(in).Decode(&ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}

			resp := rt.gateway().Handle(cmd.Context(), ev)

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetEscapeHTML(false)
			encoder.SetIndent("", "  ")
			return encoder.Encode(resp)
		},
	}

	cmd.Flags().StringVarP(&eventPath, "event", "e", "", "Path to the event JSON file (default: stdin)")

	return cmd
}
