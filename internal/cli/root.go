// Package cli implements the inkctl command line tool.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/db"
	"github.com/debemdeboas/inkpot/internal/logger"
	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/render"
	"github.com/debemdeboas/inkpot/internal/repository"
	"github.com/debemdeboas/inkpot/internal/service"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Author     string
	Format     string // "json" | "text"
	Verbose    bool
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "inkctl",
		Short: "Manage Inkpot blogs from the command line",
		Long:  "Import markdown as drafts, list and delete blogs, and generate configuration for the Inkpot server.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			l := logger.NewWithWriter(cmd.ErrOrStderr(), level, "console")
			config.SetLogger(l)
			db.SetLogger(l)
			repository.SetLogger(l)
			service.SetLogger(l)
			render.SetLogger(l)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.yaml", "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.Author, "author", "", "author id (defaults to the configured demo user)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// env is what the blog commands run against.
type env struct {
	cfg    *config.Config
	author model.UserID
	svc    *service.BlogService
	repo   repository.BlogRepository
}

func (e *env) Close() error {
	return e.repo.Close()
}

func openEnv(ctx context.Context, opts *RootOptions) (*env, error) {
	config.LoadEnv()
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	repo, err := repository.Open(ctx, cfg, clock.New())
	if err != nil {
		return nil, err
	}

	author := model.UserID(opts.Author)
	if author == "" {
		author = model.UserID(cfg.Auth.DemoUserID)
	}

	return &env{
		cfg:    cfg,
		author: author,
		svc:    service.NewBlogService(repo),
		repo:   repo,
	}, nil
}
