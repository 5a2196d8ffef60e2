package scraper_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/robots"
	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// slowDisallowServer answers robots.txt with Disallow: / after delay.
func slowDisallowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
			fmt.Fprint(w, "User-agent: *\nDisallow: /")
			return
		}
		fmt.Fprint(w, "<html><head><title>Private</title></head></html>")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRobots_CallerDeadlineIsNotAVerdict(t *testing.T) {
	t.Parallel()

	srv := slowDisallowServer(t, 200*time.Millisecond)
	fetcher := &fakeFetcher{}
	svc := newService(t, scraper.Dependencies{
		Robots:  robots.NewChecker(robots.Config{Timeout: 5 * time.Second}, srv.Client(), zap.NewNop()),
		Fetcher: fetcher,
	}, scraper.Config{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	decision, err := svc.Robots(ctx, srv.URL+"/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, scraper.ErrScrapeFailed)
	require.False(t, decision.IsURLScrapable)

	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	_, err = svc.Scrape(ctx2, srv.URL+"/")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, scraper.ErrScrapeForbidden)
	require.Zero(t, fetcher.calls)

	decision, err = svc.Robots(context.Background(), srv.URL+"/")
	require.NoError(t, err)
	require.False(t, decision.IsURLScrapable)
}
