package cli

import (
	"fmt"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/render"
	"github.com/spf13/cobra"
)

type importOptions struct {
	Path  string
	Style string
}

// ImportResult reports one imported file.
type ImportResult struct {
	Path  string       `json:"path"`
	ID    model.BlogID `json:"id"`
	Title string       `json:"title"`
}

func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import markdown files as drafts",
		Long: `Import a markdown file, or every .md file under a directory, as draft blogs.

Front matter between %%% delimiters is read as TOML: "title" becomes the blog
title and "keyword" becomes its tags. Files without a title use their first
heading or their file name.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "markdown file or directory to import")
	cmd.Flags().StringVar(&opts.Style, "style", render.DefaultStyle, "chroma style for code blocks")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func runImport(cmd *cobra.Command, rootOpts *RootOptions, opts *importOptions) error {
	docs, err := render.ConvertDir(opts.Path, opts.Style)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer e.Close()

	results := make([]ImportResult, 0, len(docs))
	for _, doc := range docs {
		b, err := e.svc.SaveDraft(cmd.Context(), e.author, "", doc.Fields())
		if err != nil {
			return fmt.Errorf("importing %s: %w", doc.Path, err)
		}
		results = append(results, ImportResult{Path: doc.Path, ID: b.ID, Title: b.Title})
	}

	if rootOpts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), results)
	}
	for _, r := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "imported %s as %s (%s)\n", r.Path, r.ID, r.Title)
	}
	return nil
}
