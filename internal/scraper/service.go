package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/metrics"
)

var tracer = otel.Tracer("github.com/JakeFAU/site-metascraper/internal/scraper")

// Dependencies are the collaborators of a Service. Robots, Fetcher, Extractor
// and Classifier are required; the rest are optional.
type Dependencies struct {
	Robots     RobotsChecker
	Fetcher    Fetcher
	Extractor  Extractor
	Classifier Classifier

	// Prober backs Status. Status reports an error when it is nil.
	Prober Prober
	// Renderer re-fetches pages the Detector flags as script-rendered shells.
	Renderer Fetcher
	Detector HeadlessDetector
	// Observers run after each successful scrape. Their errors are logged only.
	Observers []Observer
}

// Config holds Service tuning.
type Config struct {
	AllowDomains []string
	DenyDomains  []string
	// BatchLimit caps concurrent pipelines in ScrapeMany.
	BatchLimit int
}

// Service runs the scrape pipeline: policy gate, fetch, extract, classify.
// It keeps no per-request state and is safe for concurrent use.
type Service struct {
	deps   Dependencies
	policy DomainPolicy
	cfg    Config
	logger *zap.Logger
}

// NewService constructs a Service.
func NewService(deps Dependencies, cfg Config, logger *zap.Logger) (*Service, error) {
	switch {
	case deps.Robots == nil:
		return nil, errors.New("robots checker is required")
	case deps.Fetcher == nil:
		return nil, errors.New("fetcher is required")
	case deps.Extractor == nil:
		return nil, errors.New("extractor is required")
	case deps.Classifier == nil:
		return nil, errors.New("classifier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 4
	}
	return &Service{
		deps:   deps,
		policy: NewDomainPolicy(cfg.AllowDomains, cfg.DenyDomains),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Scrape fetches rawURL, extracts its metadata and classifies it.
// Errors match ErrInvalidURL, ErrScrapeForbidden or ErrScrapeFailed via errors.Is;
// fetch failures additionally match ErrFetchFailed.
func (s *Service) Scrape(ctx context.Context, rawURL string) (Result, error) {
	ctx, span := tracer.Start(ctx, "scraper.Scrape", trace.WithAttributes(attribute.String("url.full", rawURL)))
	defer span.End()

	start := time.Now()
	result, err := s.scrape(ctx, rawURL)
	outcome := OutcomeOf(err)
	metrics.ObserveScrape(outcome, string(result.Industry), time.Since(start))
	span.SetAttributes(attribute.String("scrape.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		s.logger.Info("scrape rejected",
			zap.String("url", rawURL),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return Result{}, err
	}
	span.SetAttributes(attribute.String("scrape.industry", string(result.Industry)))
	s.logger.Debug("scrape completed",
		zap.String("url", rawURL),
		zap.String("industry", string(result.Industry)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (s *Service) scrape(ctx context.Context, rawURL string) (Result, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return Result{}, err
	}
	if err := s.authorize(ctx, target); err != nil {
		return Result{}, err
	}
	page, err := s.fetch(ctx, target)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	meta, err := s.deps.Extractor.Extract(string(page.Body), resolveAgainst(page, target))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	result := Result{
		Metadata: meta,
		Industry: s.deps.Classifier.Classify(meta, target.Hostname()),
	}
	s.notify(ctx, Outcome{Target: target, Page: page, Result: result})
	return result, nil
}

// Robots reports whether rawURL may be scraped, applying the domain policy first.
func (s *Service) Robots(ctx context.Context, rawURL string) (RobotsDecision, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return RobotsDecision{}, err
	}
	switch s.policy.Evaluate(target.Hostname()) {
	case VerdictDeny:
		return RobotsDecision{IsURLScrapable: false}, nil
	case VerdictAllow:
		return RobotsDecision{IsURLScrapable: true}, nil
	}
	decision := s.deps.Robots.Check(ctx, target)
	if err := abandoned(ctx); err != nil {
		return RobotsDecision{}, err
	}
	return decision, nil
}

// Status probes rawURL and reports whether the site answered. Network failures
// yield IsLive=false rather than an error. Denied domains are not probed.
func (s *Service) Status(ctx context.Context, rawURL string) (SiteStatus, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return SiteStatus{}, err
	}
	if s.deps.Prober == nil {
		return SiteStatus{}, errors.New("status prober is not configured")
	}
	host := target.Hostname()
	if s.policy.Evaluate(host) == VerdictDeny {
		return SiteStatus{}, &ForbiddenError{Host: host, Reason: ReasonBlocklist}
	}
	status := SiteStatus{URL: target.String()}
	code, err := s.deps.Prober.Probe(ctx, target.String())
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SiteStatus{}, fmt.Errorf("status probe canceled: %w", ctxErr)
		}
		s.logger.Debug("status probe failed", zap.String("url", status.URL), zap.Error(err))
		return status, nil
	}
	status.StatusCode = code
	status.IsLive = code >= 200 && code < 400
	return status, nil
}

// Images fetches rawURL through the same policy gate as Scrape and lists its images.
func (s *Service) Images(ctx context.Context, rawURL string) (ImageSet, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return ImageSet{}, err
	}
	if err := s.authorize(ctx, target); err != nil {
		return ImageSet{}, err
	}
	page, err := s.fetch(ctx, target)
	if err != nil {
		return ImageSet{}, fmt.Errorf("%w: %w", ErrScrapeFailed, err)
	}
	return s.deps.Extractor.Images(string(page.Body), resolveAgainst(page, target)), nil
}

func (s *Service) authorize(ctx context.Context, target *url.URL) error {
	host := target.Hostname()
	switch s.policy.Evaluate(host) {
	case VerdictDeny:
		return &ForbiddenError{Host: host, Reason: ReasonBlocklist}
	case VerdictAllow:
		return nil
	}
	decision := s.deps.Robots.Check(ctx, target)
	if err := abandoned(ctx); err != nil {
		return err
	}
	if !decision.IsURLScrapable {
		return &ForbiddenError{Host: host, Reason: ReasonRobots}
	}
	return nil
}

// abandoned wraps the caller's context error. A robots verdict reached after
// cancellation is discarded.
func abandoned(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: robots check abandoned: %w", ErrScrapeFailed, err)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, target *url.URL) (Page, error) {
	request := FetchRequest{URL: target.String()}
	page, err := s.deps.Fetcher.Fetch(ctx, request)
	if err != nil {
		if !errors.Is(err, ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return Page{}, err
	}
	if s.deps.Renderer == nil || s.deps.Detector == nil || !s.deps.Detector.ShouldPromote(page) {
		return page, nil
	}
	rendered, err := s.deps.Renderer.Fetch(ctx, request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Page{}, fmt.Errorf("%w: %w", ErrFetchFailed, ctxErr)
		}
		metrics.ObserveHeadlessPromotion("fallback")
		s.logger.Warn("headless render failed; using primary response",
			zap.String("url", request.URL),
			zap.Error(err),
		)
		return page, nil
	}
	metrics.ObserveHeadlessPromotion("rendered")
	return rendered, nil
}

func (s *Service) notify(ctx context.Context, outcome Outcome) {
	for _, observer := range s.deps.Observers {
		if err := observer.ObserveScrape(ctx, outcome); err != nil {
			metrics.ObserveObserverFailure("observer")
			s.logger.Warn("scrape observer failed",
				zap.String("url", outcome.Target.String()),
				zap.Error(err),
			)
		}
	}
}
