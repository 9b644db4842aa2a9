package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/moldhistory/internal/config"
	"github.com/JonMunkholm/moldhistory/internal/logging"
	"github.com/JonMunkholm/moldhistory/internal/source"
	"github.com/JonMunkholm/moldhistory/internal/tabular"
)

var (
	dataDir      string
	baseURL      string
	manifestFile string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "historyctl",
	Short: "Mold and cutter history CLI",
	Long: `historyctl loads the location, shipment and status logs with their
reference tables, derives the unified history and prints, classifies or
exports it.

Source settings come from the environment (.env is honored) and can be
overridden with flags.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "", "load CSV snapshots from this directory")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "load CSV snapshots from this base URL")
	rootCmd.PersistentFlags().StringVar(&manifestFile, "manifest", "", "YAML table manifest")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json")
}

// sourceConfig merges environment configuration with command-line flags.
func sourceConfig() (config.SourceConfig, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.SourceConfig{}, "", err
	}
	sc := cfg.Source
	switch {
	case dataDir != "":
		sc.Mode = config.ModeDir
		sc.Dir = dataDir
	case baseURL != "":
		sc.Mode = config.ModeHTTP
		sc.BaseURL = baseURL
	}
	manifest := sc.Manifest
	if manifestFile != "" {
		manifest = manifestFile
	}
	return sc, manifest, nil
}

// loadTables fetches every registered table from the configured source.
func loadTables(ctx context.Context) (tabular.Tables, error) {
	sc, manifestPath, err := sourceConfig()
	if err != nil {
		return nil, err
	}
	m, err := source.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	f, closeSource, err := source.NewFromConfig(ctx, sc, m)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	start := time.Now()
	loader := &source.Loader{Fetcher: f, Manifest: m}
	tables, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load from %s: %w", f.Name(), err)
	}
	slog.Info("tables loaded", "source", f.Name(), "duration_ms", time.Since(start).Milliseconds())
	return tables, nil
}
