package cli

import (
	"fmt"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/spf13/cobra"
)

func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "delete <id>",
		Short:        "Delete a blog",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.svc.Delete(cmd.Context(), e.author, model.BlogID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
