// Package recorder persists successful scrapes: it archives the HTML snapshot,
// stores a history record and publishes a completion event.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/metrics"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// EventScrapeCompleted is the event type published after a record is stored.
const EventScrapeCompleted = "scrape.completed"

// Config controls Recorder behavior.
type Config struct {
	ContentType string
	BlobPrefix  string
}

// Dependencies wires the Recorder. Blobs and Publisher are optional.
type Dependencies struct {
	Store     scraper.ResultStore
	Blobs     scraper.BlobStore
	Publisher scraper.Publisher
	Hasher    scraper.Hasher
	Clock     scraper.Clock
	IDs       scraper.IDGenerator
}

// Recorder implements scraper.Observer.
type Recorder struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
}

// New constructs a Recorder.
func New(deps Dependencies, cfg Config, logger *zap.Logger) (*Recorder, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("result store is required")
	case deps.Hasher == nil:
		return nil, errors.New("hasher is required")
	case deps.Clock == nil:
		return nil, errors.New("clock is required")
	case deps.IDs == nil:
		return nil, errors.New("id generator is required")
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	if cfg.BlobPrefix == "" {
		cfg.BlobPrefix = "pages"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{deps: deps, cfg: cfg, logger: logger}, nil
}

// ObserveScrape stores one scrape outcome. The first failing stage aborts the
// rest and is reported in the returned error.
func (r *Recorder) ObserveScrape(ctx context.Context, outcome scraper.Outcome) error {
	hash, err := r.deps.Hasher.Hash(outcome.Page.Body)
	if err != nil {
		return r.fail("hash", fmt.Errorf("hash body: %w", err))
	}
	host := outcome.Target.Hostname()

	var uri string
	if r.deps.Blobs != nil {
		uri, err = r.deps.Blobs.PutObject(ctx, r.blobPath(host, hash), r.cfg.ContentType, bytes.NewReader(outcome.Page.Body))
		if err != nil {
			return r.fail("archive", fmt.Errorf("put object: %w", err))
		}
	}

	id, err := r.deps.IDs.NewID()
	if err != nil {
		return r.fail("history", fmt.Errorf("new record id: %w", err))
	}
	record := scraper.Record{
		ID:           id,
		URL:          outcome.Target.String(),
		Host:         host,
		Industry:     outcome.Result.Industry,
		Metadata:     outcome.Result.Metadata,
		ContentHash:  hash,
		SnapshotURI:  uri,
		UsedHeadless: outcome.Page.UsedHeadless,
		ScrapedAt:    r.deps.Clock.Now(),
	}
	if err := r.deps.Store.SaveRecord(ctx, record); err != nil {
		return r.fail("history", fmt.Errorf("save record: %w", err))
	}

	if err := r.publish(ctx, record); err != nil {
		return r.fail("events", err)
	}
	r.logger.Debug("scrape recorded",
		zap.String("record_id", record.ID),
		zap.String("url", record.URL),
		zap.String("snapshot_uri", uri),
		zap.String("hash", hash),
	)
	return nil
}

func (r *Recorder) publish(ctx context.Context, record scraper.Record) error {
	if r.deps.Publisher == nil {
		return nil
	}
	event := scraper.ScrapeEvent{
		Type:        EventScrapeCompleted,
		RecordID:    record.ID,
		URL:         record.URL,
		Industry:    record.Industry,
		ContentHash: record.ContentHash,
		SnapshotURI: record.SnapshotURI,
		ScrapedAt:   record.ScrapedAt,
	}
	if _, err := r.deps.Publisher.Publish(ctx, EventScrapeCompleted, event); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (r *Recorder) blobPath(host, hash string) string {
	return path.Join(r.cfg.BlobPrefix, host, hash+".html")
}

func (r *Recorder) fail(stage string, err error) error {
	metrics.ObserveObserverFailure(stage)
	return err
}
