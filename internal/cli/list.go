package cli

import (
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/spf13/cobra"
)

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List blogs, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			blogs, err := e.svc.List(cmd.Context(), e.author, model.Status(status))
			if err != nil {
				return err
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), blogs)
			}
			return writeBlogTable(cmd.OutOrStdout(), blogs)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "only list blogs with this status (draft|published)")

	return cmd
}
