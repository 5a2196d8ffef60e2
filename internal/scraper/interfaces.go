package scraper

import (
	"context"
	"io"
	"net/url"
	"time"
)

// RobotsChecker evaluates a site's robots directives for one URL.
type RobotsChecker interface {
	Check(ctx context.Context, target *url.URL) RobotsDecision
}

// Fetcher fetches a URL and returns the body plus response metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (Page, error)
}

// Prober reports the final status code of a GET without judging it.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (int, error)
}

// HeadlessDetector decides whether a fetched page needs a browser render.
type HeadlessDetector interface {
	ShouldPromote(page Page) bool
}

// Extractor turns HTML into metadata and image listings.
type Extractor interface {
	Extract(html string, pageURL *url.URL) (PageMetadata, error)
	Images(html string, pageURL *url.URL) ImageSet
}

// Classifier maps metadata and host to an industry label.
type Classifier interface {
	Classify(meta PageMetadata, host string) IndustryLabel
}

// Observer is notified after every successful scrape.
type Observer interface {
	ObserveScrape(ctx context.Context, outcome Outcome) error
}

// ResultStore persists scrape records.
type ResultStore interface {
	SaveRecord(ctx context.Context, record Record) error
	ListRecords(ctx context.Context, limit int) ([]Record, error)
	Close()
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	NewID() (string, error)
}
