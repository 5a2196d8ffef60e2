package scraper

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the per-URL outcome of ScrapeMany.
type BatchItem struct {
	URL    string  `json:"url"`
	Result *Result `json:"result,omitempty"`
	Error  string  `json:"error,omitempty"`

	err error
}

// Err returns the scrape error for this item, if any.
func (b BatchItem) Err() error {
	return b.err
}

// ScrapeMany scrapes every URL as an independent pipeline, at most limit at a
// time (the configured BatchLimit when limit <= 0). Items keep input order and
// one failure never cancels the others.
func (s *Service) ScrapeMany(ctx context.Context, urls []string, limit int) []BatchItem {
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}
	items := make([]BatchItem, len(urls))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, raw := range urls {
		g.Go(func() error {
			item := BatchItem{URL: raw}
			result, err := s.Scrape(ctx, raw)
			if err != nil {
				item.err = err
				item.Error = err.Error()
			} else {
				item.Result = &result
			}
			items[i] = item
			return nil
		})
	}
	// Workers never return errors; Wait only blocks until all finish.
	_ = g.Wait()
	return items
}
