// Package robots evaluates robots.txt directives for a single request.
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/metrics"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// GenericAgent is the user-agent group paths are evaluated against.
const GenericAgent = "*"

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 1 << 20
)

// Config controls the robots fetch.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxBytes  int64
}

// Checker fetches robots.txt fresh on every call and fails open.
type Checker struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// NewChecker builds a Checker. A nil client selects a default one.
func NewChecker(cfg Config, client *http.Client, logger *zap.Logger) *Checker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{client: client, cfg: cfg, logger: logger}
}

// Check implements scraper.RobotsChecker. A missing, empty or unreachable
// robots.txt allows everything.
func (c *Checker) Check(ctx context.Context, target *url.URL) scraper.RobotsDecision {
	data, err := c.load(ctx, target)
	if err != nil {
		metrics.ObserveRobots("unavailable")
		c.logger.Warn("robots fetch failed; allowing access",
			zap.String("host", target.Host),
			zap.Error(err),
		)
		return scraper.RobotsDecision{IsURLScrapable: true}
	}
	allowed := data.TestAgent(requestPath(target), GenericAgent)
	if allowed {
		metrics.ObserveRobots("allowed")
	} else {
		metrics.ObserveRobots("disallowed")
	}
	return scraper.RobotsDecision{IsURLScrapable: allowed}
}

func (c *Checker) load(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	robotsURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("Failed to close robots response body", zap.Error(cerr))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("robots.txt unavailable; allowing access",
			zap.String("host", target.Host),
			zap.Int("status", resp.StatusCode),
		)
		return allowAll(), nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	return data, nil
}

func allowAll() *robotstxt.RobotsData {
	// An empty document parses to an allow-all policy.
	data, _ := robotstxt.FromBytes(nil)
	return data
}

func requestPath(target *url.URL) string {
	p := target.EscapedPath()
	if p == "" {
		p = "/"
	}
	if target.RawQuery != "" {
		p += "?" + target.RawQuery
	}
	return p
}
