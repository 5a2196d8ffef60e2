// Package cmd defines and implements the CLI commands for the metascraper executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/api"
	"github.com/JakeFAU/site-metascraper/internal/app"
	"github.com/JakeFAU/site-metascraper/internal/config"
	"github.com/JakeFAU/site-metascraper/internal/logging"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
	"github.com/JakeFAU/site-metascraper/internal/telemetry"
)

// version is stamped at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use.
// Tests inject a fake through newApp.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetService() api.ScrapeService
	GetResults() scraper.ResultStore
	GetConfig() config.Config
	Readiness() []api.ReadinessCheck
}

// newApp is the application factory. It's a variable so tests can replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// newRootCmd creates and configures the root command. The returned cleanup
// closes whatever PersistentPreRunE built and must run after Execute, whether
// or not the command failed.
func newRootCmd() (*cobra.Command, func()) {
	var (
		cfgFile         string
		appInstance     App
		logger          *zap.Logger
		shutdownTracing func(context.Context) error
	)

	cleanup := func() {
		if appInstance != nil {
			appInstance.Close()
			appInstance = nil
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(context.Background()); err != nil && logger != nil {
				logger.Warn("Failed to flush traces", zap.Error(err))
			}
			shutdownTracing = nil
		}
		if logger != nil {
			_ = logger.Sync()
		}
	}

	cmd := &cobra.Command{
		Use:     "metascraper",
		Version: version,
		Short:   "Fetches a web page and reports its metadata and industry.",
		Long: `metascraper checks robots.txt and a domain policy, fetches a page,
extracts its title, description, keywords, Open Graph and JSON-LD metadata,
and assigns it an industry label. It runs as an HTTP service or one-shot CLI.`,
		SilenceUsage: true,

		// Builds the application after flags are parsed and before the subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(logging.Options{
				Development: cfg.Logging.Development,
				File:        cfg.Logging.File,
				MaxSizeMB:   cfg.Logging.MaxSizeMB,
				MaxBackups:  cfg.Logging.MaxBackups,
				MaxAgeDays:  cfg.Logging.MaxAgeDays,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			tp, err := telemetry.InitTracerProvider(cmd.Context(), telemetry.Config{
				ServiceName: cfg.Telemetry.ServiceName,
				Version:     version,
				ProjectID:   cfg.Telemetry.ProjectID,
				SampleRatio: cfg.Telemetry.SampleRatio,
			})
			if err != nil {
				return fmt.Errorf("init tracing: %w", err)
			}
			shutdownTracing = tp.Shutdown

			appInstance, err = newApp(cmd.Context(), cfg, logger)
			if err != nil {
				appInstance = nil
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newRobotsCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd, cleanup
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	root, cleanup := newRootCmd()
	err := root.ExecuteContext(context.Background())
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
