// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/api"
	"github.com/JakeFAU/site-metascraper/internal/classify"
	"github.com/JakeFAU/site-metascraper/internal/clock/system"
	"github.com/JakeFAU/site-metascraper/internal/config"
	"github.com/JakeFAU/site-metascraper/internal/extract"
	collyfetcher "github.com/JakeFAU/site-metascraper/internal/fetcher/colly"
	headlessfetcher "github.com/JakeFAU/site-metascraper/internal/fetcher/headless"
	"github.com/JakeFAU/site-metascraper/internal/hash/sha256"
	"github.com/JakeFAU/site-metascraper/internal/headless/detector"
	"github.com/JakeFAU/site-metascraper/internal/id/uuid"
	memorypublisher "github.com/JakeFAU/site-metascraper/internal/publisher/memory"
	pubsubpublisher "github.com/JakeFAU/site-metascraper/internal/publisher/pubsub"
	"github.com/JakeFAU/site-metascraper/internal/recorder"
	"github.com/JakeFAU/site-metascraper/internal/robots"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
	"github.com/JakeFAU/site-metascraper/internal/storage/gcs"
	"github.com/JakeFAU/site-metascraper/internal/storage/local"
	memorystorage "github.com/JakeFAU/site-metascraper/internal/storage/memory"
	"github.com/JakeFAU/site-metascraper/internal/storage/postgres"
)

// App holds the shared, long-lived services built from Config.
type App struct {
	logger  *zap.Logger
	service *scraper.Service
	results scraper.ResultStore
	cfg     config.Config

	closers []func() error
}

// New builds every component the config selects and fails fast when a
// configured backend cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger, cfg: cfg}
	logger.Info("Initializing application services...")

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:   cfg.Scraper.UserAgent,
		Timeout:     cfg.FetchTimeout(),
		MaxBodySize: cfg.Scraper.MaxBodyBytes,
	})
	classifier, err := classify.NewDefault(cfg.Scraper.IndustryOverrides)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	deps := scraper.Dependencies{
		Robots: robots.NewChecker(robots.Config{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.RobotsTimeout(),
		}, nil, logger.Named("robots")),
		Fetcher:    fetcher,
		Prober:     fetcher,
		Extractor:  extract.New(cfg.Scraper.MaxImages),
		Classifier: classifier,
	}

	if cfg.Headless.Enabled {
		renderer, err := headlessfetcher.NewChromedp(headlessfetcher.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Scraper.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
			ExecPath:          cfg.Headless.ExecPath,
		})
		if err != nil {
			logger.Warn("headless fetcher init failed", zap.Error(err))
		} else {
			deps.Renderer = renderer
			deps.Detector = detector.NewHeuristic(cfg.Headless.PromotionThresh)
			a.addCloser(func() error {
				renderer.Close()
				return nil
			})
		}
	}

	rec, err := a.buildRecorder(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	deps.Observers = []scraper.Observer{rec}

	svc, err := scraper.NewService(deps, scraper.Config{
		AllowDomains: cfg.Scraper.AllowDomains,
		DenyDomains:  cfg.Scraper.DenyDomains,
		BatchLimit:   cfg.Scraper.BatchLimit,
	}, logger.Named("scraper"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build scrape service: %w", err)
	}
	a.service = svc
	logger.Info("Application services initialized successfully.")
	return a, nil
}

func (a *App) buildRecorder(ctx context.Context, cfg config.Config) (*recorder.Recorder, error) {
	logger := a.logger
	deps := recorder.Dependencies{
		Hasher: sha256.New(),
		Clock:  system.New(),
		IDs:    uuid.New(),
	}

	switch cfg.History.Provider {
	case config.ProviderPostgres:
		logger.Info("Connecting to PostgreSQL...", zap.String("table", cfg.History.Postgres.Table))
		store, err := postgres.NewResultStore(ctx, postgres.Config{
			DSN:      cfg.History.Postgres.DSN,
			Table:    cfg.History.Postgres.Table,
			MaxConns: int32(cfg.History.Postgres.MaxConns), // #nosec G115 -- small config value
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize history: %w", err)
		}
		deps.Store = store
	case config.ProviderMemory:
		logger.Info("Using in-memory history. Records are lost on restart.")
		deps.Store = memorystorage.NewResultStore(0)
	default:
		return nil, fmt.Errorf("unknown history provider: %s", cfg.History.Provider)
	}
	a.results = deps.Store
	a.addCloser(func() error {
		deps.Store.Close()
		return nil
	})

	switch cfg.Archive.Provider {
	case config.ProviderGCS:
		logger.Info("Using GCS snapshot archive", zap.String("bucket", cfg.Archive.Bucket))
		blobs, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.Archive.Bucket}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		deps.Blobs = blobs
		a.addCloser(blobs.Close)
	case config.ProviderLocal:
		blobs, err := local.New(local.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize archive: %w", err)
		}
		deps.Blobs = blobs
	case config.ProviderMemory:
		deps.Blobs = memorystorage.NewBlobStore()
	case config.ProviderNone:
		logger.Info("Snapshot archive disabled. HTML content will be discarded.")
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Archive.Provider)
	}

	switch cfg.Events.Provider {
	case config.ProviderPubSub:
		logger.Info("Connecting to GCP Pub/Sub", zap.String("topic", cfg.Events.Topic))
		pub, err := pubsubpublisher.Open(ctx, cfg.Events.ProjectID, cfg.Events.Topic)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize events: %w", err)
		}
		deps.Publisher = pub
		a.addCloser(pub.Close)
	case config.ProviderMemory:
		deps.Publisher = memorypublisher.New()
	case config.ProviderNone:
	default:
		return nil, fmt.Errorf("unknown events provider: %s", cfg.Events.Provider)
	}

	rec, err := recorder.New(deps, recorder.Config{
		ContentType: cfg.Archive.ContentType,
		BlobPrefix:  cfg.Archive.Prefix,
	}, logger.Named("recorder"))
	if err != nil {
		return nil, fmt.Errorf("build recorder: %w", err)
	}
	return rec, nil
}

// Readiness returns the checks /readyz runs.
func (a *App) Readiness() []api.ReadinessCheck {
	if a.results == nil {
		return nil
	}
	return []api.ReadinessCheck{func(ctx context.Context) error {
		if _, err := a.results.ListRecords(ctx, 1); err != nil {
			return fmt.Errorf("history unavailable: %w", err)
		}
		return nil
	}}
}

// GetLogger returns the application logger.
func (a *App) GetLogger() *zap.Logger { return a.logger }

// GetService returns the scrape service.
func (a *App) GetService() api.ScrapeService { return a.service }

// GetResults returns the history store.
func (a *App) GetResults() scraper.ResultStore { return a.results }

// GetConfig returns the configuration the App was built from.
func (a *App) GetConfig() config.Config { return a.cfg }

func (a *App) addCloser(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close shuts services down in reverse construction order.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Error closing service", zap.Error(err))
		}
	}
	a.closers = nil
}
