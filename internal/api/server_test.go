package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
	storemem "github.com/JakeFAU/site-metascraper/internal/storage/memory"
)

func TestServer_Scrape(t *testing.T) {
	t.Parallel()

	desc := "Leading online store"
	svc := &fakeService{
		scrape: func(rawURL string) (scraper.Result, error) {
			switch rawURL {
			case "https://www.takealot.com/":
				return scraper.Result{
					Metadata: scraper.PageMetadata{Title: "Takealot", Description: &desc},
					Industry: scraper.IndustryEcommerce,
				}, nil
			case "https://pixabay.com/":
				return scraper.Result{}, &scraper.ForbiddenError{Host: "pixabay.com", Reason: scraper.ReasonBlocklist}
			case "https://down.example/":
				return scraper.Result{}, fmt.Errorf("%w: %w", scraper.ErrScrapeFailed, scraper.ErrFetchFailed)
			default:
				return scraper.Result{}, fmt.Errorf("%w: bad", scraper.ErrInvalidURL)
			}
		},
	}
	server := NewServer(svc, nil, Options{}, zap.NewNop())

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
	}{
		{"success", "https://www.takealot.com/", http.StatusOK, `"industry":"E-commerce"`},
		{"forbidden", "https://pixabay.com/", http.StatusInternalServerError, `{"error":"Cannot Scrape this Website"}`},
		{"failed", "https://down.example/", http.StatusInternalServerError, `{"error":"Cannot Scrape this Website"}`},
		{"invalid", "nope", http.StatusBadRequest, `{"error":"Invalid URL"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/scrape?url="+tc.target, nil)
			server.Handler().ServeHTTP(rec, req)
			require.Equal(t, tc.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tc.wantBody)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestServer_ScrapeResponseShape(t *testing.T) {
	t.Parallel()

	svc := &fakeService{scrape: func(string) (scraper.Result, error) {
		return scraper.Result{Metadata: scraper.PageMetadata{Title: ""}, Industry: scraper.NoClassification}, nil
	}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/scrape?url=https://www.chatgpt.com/", nil)
	NewServer(svc, nil, Options{}, nil).Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"metadata": {"title":"","description":null,"keywords":null,"ogTitle":null,"ogDescription":null,"ogImage":null},
		"industry": "No classification"
	}`, rec.Body.String())
}

func TestServer_ScrapeBatch(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	server := NewServer(svc, nil, Options{MaxBatchURLs: 2}, nil)

	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"urls":["https://a.example/","bogus"],"limit":3}`)
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape/batch", body))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	require.Equal(t, "https://a.example/", resp.Items[0].URL)
	require.Equal(t, 3, svc.lastLimit)

	for _, payload := range []string{`{invalid`, `{"urls":[]}`, `{"urls":["a","b","c"]}`} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape/batch", bytes.NewBufferString(payload)))
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestServer_ScrapeBatchRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	server := NewServer(svc, nil, Options{}, nil)

	payload := `{"urls":["https://example.com/?q=` + strings.Repeat("a", maxBatchBodyBytes) + `"]}`
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape/batch", strings.NewReader(payload)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, svc.lastLimit)
}

func TestServer_RobotsStatusImages(t *testing.T) {
	t.Parallel()

	logo := "https://example.com/logo.png"
	svc := &fakeService{
		robots: scraper.RobotsDecision{IsURLScrapable: true},
		status: scraper.SiteStatus{URL: "https://example.com/", IsLive: true, StatusCode: 200},
		images: scraper.ImageSet{Logo: &logo, Images: []string{logo}},
	}
	server := NewServer(svc, nil, Options{}, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/api/robots?url=https://example.com/", `{"isUrlScrapable":true}`},
		{"/api/status?url=https://example.com/", `{"url":"https://example.com/","isLive":true,"statusCode":200}`},
		{"/api/images?url=https://example.com/", `{"logo":"https://example.com/logo.png","images":["https://example.com/logo.png"]}`},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		require.JSONEq(t, tc.want, rec.Body.String(), tc.path)
	}

	svc.err = fmt.Errorf("%w: empty url", scraper.ErrInvalidURL)
	for _, path := range []string{"/api/robots", "/api/status", "/api/images"} {
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestServer_ListResults(t *testing.T) {
	t.Parallel()

	store := storemem.NewResultStore(0)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.SaveRecord(ctx, scraper.Record{
			ID:        fmt.Sprintf("rec-%d", i),
			Industry:  scraper.IndustryFashion,
			ScrapedAt: time.Unix(int64(i), 0).UTC(),
		}))
	}
	server := NewServer(&fakeService{}, store, Options{}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp resultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
	require.Equal(t, "rec-3", resp.Records[0].ID)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results?limit=zero", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	NewServer(&fakeService{}, nil, Options{}, nil).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_HealthAndReadiness(t *testing.T) {
	t.Parallel()

	var ready bool
	var mu sync.Mutex
	check := func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if !ready {
			return errors.New("database unavailable")
		}
		return nil
	}
	server := NewServer(&fakeService{}, nil, Options{Readiness: []ReadinessCheck{check}}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	mu.Lock()
	ready = true
	mu.Unlock()
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeService{}, nil, Options{}, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestServer_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	svc := &fakeService{scrape: func(string) (scraper.Result, error) { panic("boom") }}
	rec := httptest.NewRecorder()
	NewServer(svc, nil, Options{}, nil).Handler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scrape?url=https://x.example/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	server := NewServer(&fakeService{}, nil, Options{}, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, "caller-supplied", rec.Header().Get("X-Request-ID"))
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil || err.Error() != "hijacker not supported" {
		t.Fatalf("expected unsupported hijacker error, got %v", err)
	}

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	if err != nil {
		t.Fatalf("expected successful hijack, got %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close hijacked conn: %v", err)
	}
	if err := h.CloseClient(); err != nil {
		t.Fatalf("close hijacked client: %v", err)
	}
	if buf == nil {
		t.Fatal("expected buf to be non-nil")
	}
}

// --- helpers/fakes ---

type fakeService struct {
	mu        sync.Mutex
	scrape    func(rawURL string) (scraper.Result, error)
	robots    scraper.RobotsDecision
	status    scraper.SiteStatus
	images    scraper.ImageSet
	err       error
	lastLimit int
}

func (f *fakeService) Scrape(_ context.Context, rawURL string) (scraper.Result, error) {
	if f.scrape == nil {
		return scraper.Result{Industry: scraper.NoClassification}, nil
	}
	return f.scrape(rawURL)
}

func (f *fakeService) ScrapeMany(_ context.Context, urls []string, limit int) []scraper.BatchItem {
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	items := make([]scraper.BatchItem, len(urls))
	for i, u := range urls {
		items[i] = scraper.BatchItem{URL: u, Result: &scraper.Result{Industry: scraper.NoClassification}}
	}
	return items
}

func (f *fakeService) Robots(context.Context, string) (scraper.RobotsDecision, error) {
	return f.robots, f.err
}

func (f *fakeService) Status(context.Context, string) (scraper.SiteStatus, error) {
	return f.status, f.err
}

func (f *fakeService) Images(context.Context, string) (scraper.ImageSet, error) {
	return f.images, f.err
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func (h *hijackableRecorder) CloseClient() error {
	if h.client != nil {
		if err := h.client.Close(); err != nil {
			return fmt.Errorf("close hijacker client: %w", err)
		}
	}
	return nil
}
