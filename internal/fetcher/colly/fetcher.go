// Package collyfetcher implements scraper.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/site-metascraper/internal/metrics"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxBodySize = 5 << 20
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
}

// Fetcher implements scraper.Fetcher and scraper.Prober using a Colly collector
// built per request. Robots handling lives in the robots package, so the
// collector never consults robots.txt itself.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher sharing one pooled transport across requests.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	return &Fetcher{
		cfg:       cfg,
		transport: newHTTPTransport(),
	}
}

// Fetch executes a single HTTP GET. Network errors, timeouts, cancellation and
// non-2xx statuses are returned wrapped in scraper.ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, request scraper.FetchRequest) (scraper.Page, error) {
	page, err := f.visit(ctx, request)
	if err != nil {
		return scraper.Page{}, fmt.Errorf("%w: %w", scraper.ErrFetchFailed, err)
	}
	if page.StatusCode < 200 || page.StatusCode > 299 {
		return scraper.Page{}, fmt.Errorf("%w: unexpected status %d from %s",
			scraper.ErrFetchFailed, page.StatusCode, request.URL)
	}
	metrics.ObserveFetch("colly", request.URL, len(page.Body), page.Duration)
	return page, nil
}

// Probe performs a GET and returns the final status code whatever it is.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (int, error) {
	page, err := f.visit(ctx, scraper.FetchRequest{URL: rawURL})
	if err != nil {
		return 0, err
	}
	return page.StatusCode, nil
}

func (f *Fetcher) visit(ctx context.Context, request scraper.FetchRequest) (scraper.Page, error) {
	var (
		result   scraper.Page
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx)
	f.configureCollectorHooks(collector, request, start, &result, &fetchErr)
	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return scraper.Page{}, err
	}
	if result.StatusCode == 0 {
		return scraper.Page{}, fmt.Errorf("no response received from %s", request.URL)
	}
	return result, nil
}

func (f *Fetcher) buildCollector(ctx context.Context) *colly.Collector {
	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.MaxBodySize(f.cfg.MaxBodySize),
	)
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	request scraper.FetchRequest,
	start time.Time,
	result *scraper.Page,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.copyHeaders(request, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		var headers http.Header
		if r.Headers != nil {
			headers = r.Headers.Clone()
		}
		finalURL := request.URL
		if r.Request != nil && r.Request.URL != nil {
			finalURL = r.Request.URL.String()
		}
		*result = scraper.Page{
			URL:          finalURL,
			StatusCode:   r.StatusCode,
			Headers:      headers,
			Body:         append([]byte(nil), r.Body...),
			Duration:     time.Since(start),
			UsedHeadless: false,
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func (f *Fetcher) copyHeaders(request scraper.FetchRequest, r *colly.Request) {
	if request.Headers == nil {
		return
	}
	for key, values := range request.Headers {
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
