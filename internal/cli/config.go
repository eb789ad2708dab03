package cli

import (
	"fmt"
	"os"

	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/spf13/cobra"
)

const configHeader = "# Inkpot configuration\n# Copy this file to config.yaml and customize as needed\n\n"

func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "generate [file|-]",
		Short:        "Write the default configuration as YAML",
		Long:         "Write the default configuration as YAML to a file (config.example.yaml by default) or to stdout with \"-\".",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := "config.example.yaml"
			if len(args) == 1 {
				out = args[0]
			}
			return generateConfig(cmd, out)
		},
	})

	return cmd
}

func generateConfig(cmd *cobra.Command, out string) error {
	data, err := config.Default().Marshal()
	if err != nil {
		return fmt.Errorf("generating YAML: %w", err)
	}
	output := configHeader + string(data)

	if out == "-" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), output)
		return err
	}

	if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated example config: %s\n", out)
	return nil
}
