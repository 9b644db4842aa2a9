package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/moldhistory/internal/config"
	"github.com/JonMunkholm/moldhistory/internal/history"
	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/schema"
	"github.com/JonMunkholm/moldhistory/internal/source"
	"github.com/JonMunkholm/moldhistory/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	manifest, err := source.LoadManifest(cfg.Source.Manifest)
	if err != nil {
		slog.Error("failed to load source manifest", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	fetcher, closeSource, err := source.NewFromConfig(ctx, cfg.Source, manifest)
	if err != nil {
		slog.Error("failed to open source", "mode", cfg.Source.Mode, "error", err)
		os.Exit(1)
	}
	defer closeSource()

	slog.Info("source ready",
		"source", fetcher.Name(),
		"tables", len(schema.All()),
	)

	store := history.NewStore(&source.Loader{
		Fetcher:  fetcher,
		Manifest: manifest,
		// A manual reload runs inside a request, so keep it within the
		// request timeout.
		Timeout: cfg.Server.RequestTimeout,
	})

	// The server starts even when the first load fails; the view shows the
	// failure and the scheduler keeps retrying.
	if err := store.Reload(ctx); err != nil {
		slog.Error("initial history load failed", "error", err, "user_message", history.FormatUserError(err))
	}

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go store.StartReloadScheduler(jobCtx, cfg.History.ReloadInterval)

	server := web.NewServer(store, web.OptionsFromConfig(cfg))

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server); err != nil {
		slog.Error("server stopped", "error", err)
		closeSource()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
