package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/debemdeboas/inkpot/internal/api"
	"github.com/debemdeboas/inkpot/internal/auth"
	"github.com/debemdeboas/inkpot/internal/autosave"
	"github.com/debemdeboas/inkpot/internal/clock"
	"github.com/debemdeboas/inkpot/internal/config"
	"github.com/debemdeboas/inkpot/internal/db"
	"github.com/debemdeboas/inkpot/internal/editor"
	"github.com/debemdeboas/inkpot/internal/logger"
	"github.com/debemdeboas/inkpot/internal/render"
	"github.com/debemdeboas/inkpot/internal/repository"
	"github.com/debemdeboas/inkpot/internal/service"
	"github.com/debemdeboas/inkpot/internal/sse"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var mainLogger zerolog.Logger

func setLoggers(l zerolog.Logger) {
	mainLogger = l
	config.SetLogger(l.With().Str("component", "config").Logger())
	db.SetLogger(l.With().Str("component", "db").Logger())
	repository.SetLogger(l.With().Str("component", "repository").Logger())
	service.SetLogger(l.With().Str("component", "service").Logger())
	autosave.SetLogger(l.With().Str("component", "autosave").Logger())
	editor.SetLogger(l.With().Str("component", "editor").Logger())
	auth.SetLogger(l.With().Str("component", "auth").Logger())
	render.SetLogger(l.With().Str("component", "render").Logger())
	api.SetLogger(l.With().Str("component", "http").Logger())
}

func configPath() string {
	if p := os.Getenv("INKPOT_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func main() {
	setLoggers(logger.New("info", "console"))

	config.LoadEnv()
	cfg, err := config.Load(configPath())
	if err != nil {
		mainLogger.Fatal().Stack().Err(err).Msg("Failed to load config")
	}
	setLoggers(logger.New(cfg.Logging.Level, cfg.Logging.Format))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		mainLogger.Fatal().Stack().Err(err).Msg("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	clk := clock.New()

	repo, err := repository.Open(ctx, cfg, clk)
	if err != nil {
		return errors.Wrap(err, "opening repository")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			mainLogger.Error().Err(err).Msg("Failed to close repository")
		}
	}()

	svc := service.NewBlogService(repo)
	clients := sse.NewSSEClients()
	provider := auth.NewDemoAuthProvider(cfg.Auth)

	autosaveCfg := autosave.Config{
		Debounce:         cfg.Autosave.Debounce,
		TitleDebounce:    cfg.Autosave.TitleDebounce,
		SaveTimeout:      cfg.Autosave.SaveTimeout,
		NotifyOnAutosave: cfg.Autosave.NotifyOnAutosave,
	}
	manager := editor.NewManager(ctx, svc, clients, autosaveCfg, cfg.Editor.SessionIdleTimeout, clk)
	manager.StartReaper()
	defer manager.Shutdown()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewServer(cfg.Site, svc, provider, editor.NewHandler(manager, clients, provider)).Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		mainLogger.Info().Str("addr", srv.Addr).Str("backend", cfg.Storage.Backend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listening")
	case <-ctx.Done():
	}

	mainLogger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Closing sessions ends open event streams so Shutdown can drain.
	manager.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down server")
	}
	return nil
}
