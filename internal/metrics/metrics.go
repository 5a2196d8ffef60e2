// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal               *prometheus.CounterVec
	scrapeDurationSeconds      *prometheus.HistogramVec
	classificationsTotal       *prometheus.CounterVec
	robotsChecksTotal          *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	fetchBytesTotal            *prometheus.CounterVec
	headlessPromotionsTotal    *prometheus.CounterVec
	observerFailuresTotal      *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_scrapes_total",
				Help: "Total number of scrape requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		scrapeDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_scrape_duration_seconds",
				Help:    "Histogram of end-to-end scrape latencies, labeled by outcome.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		)

		classificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_classifications_total",
				Help: "Total number of classified pages, labeled by industry.",
			},
			[]string{"industry"},
		)

		robotsChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_robots_checks_total",
				Help: "Total number of robots.txt evaluations, labeled by decision.",
			},
			[]string{"decision"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by fetcher.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"fetcher"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		headlessPromotionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_headless_promotions_total",
				Help: "Total number of pages promoted to headless rendering, labeled by result.",
			},
			[]string{"result"},
		)

		observerFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_observer_failures_total",
				Help: "Total number of post-scrape hook failures, labeled by stage.",
			},
			[]string{"stage"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape records the outcome of one scrape and, on success, its industry.
func ObserveScrape(outcome string, industry string, duration time.Duration) {
	Init()
	scrapesTotal.WithLabelValues(outcome).Inc()
	scrapeDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
	if industry != "" {
		classificationsTotal.WithLabelValues(industry).Inc()
	}
}

// ObserveRobots increments the robots decision counter.
func ObserveRobots(decision string) {
	Init()
	robotsChecksTotal.WithLabelValues(decision).Inc()
}

// ObserveFetch records a page fetch.
func ObserveFetch(fetcher string, site string, bytesFetched int, duration time.Duration) {
	Init()
	fetchDurationSeconds.WithLabelValues(fetcher).Observe(duration.Seconds())
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(bytesFetched))
	}
}

// ObserveHeadlessPromotion counts render promotions by result ("rendered" or "fallback").
func ObserveHeadlessPromotion(result string) {
	Init()
	headlessPromotionsTotal.WithLabelValues(result).Inc()
}

// ObserveObserverFailure counts a failed post-scrape hook.
func ObserveObserverFailure(stage string) {
	Init()
	observerFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
