// Package scraper implements the single-URL scrape pipeline: domain policy and
// robots gate, page fetch with optional headless promotion, metadata extraction
// and industry classification. It also owns the shared record types and the
// collaborator interfaces that the fetcher, storage and publisher packages implement.
package scraper
