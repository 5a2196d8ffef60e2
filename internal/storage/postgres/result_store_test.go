package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

func strPtr(s string) *string { return &s }

func TestSaveRecordInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStoreWithPool(mock, "")
	require.NoError(t, err)

	now := time.Unix(1700000000, 0).UTC()
	rec := scraper.Record{
		ID:       "0190c6d2-7a1b-7c3d-9e4f-123456789abc",
		URL:      "https://www.takealot.com/",
		Host:     "www.takealot.com",
		Industry: scraper.IndustryEcommerce,
		Metadata: scraper.PageMetadata{
			Title:       "Takealot.com: Online Shopping",
			Description: strPtr("South Africa's leading online store."),
		},
		ContentHash: "abc123",
		SnapshotURI: "gs://bucket/pages/www.takealot.com/abc123.html",
		ScrapedAt:   now,
	}
	metadataJSON, err := json.Marshal(rec.Metadata)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO scrape_results").
		WithArgs(
			rec.ID,
			rec.URL,
			rec.Host,
			"E-commerce",
			metadataJSON,
			rec.ContentHash,
			rec.SnapshotURI,
			false,
			now,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveRecord(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRecordWrapsErrors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStoreWithPool(mock, "history")
	require.NoError(t, err)

	require.Error(t, store.SaveRecord(context.Background(), scraper.Record{}), "id is required")

	mock.ExpectExec("INSERT INTO history").WillReturnError(errors.New("duplicate key"))
	err = store.SaveRecord(context.Background(), scraper.Record{ID: "rec-1"})
	require.ErrorContains(t, err, "insert scrape record")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsScansRows(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStoreWithPool(mock, "")
	require.NoError(t, err)

	newer := time.Unix(1700000100, 0).UTC()
	older := time.Unix(1700000000, 0).UTC()
	columns := []string{
		"id", "url", "host", "industry", "metadata",
		"content_hash", "snapshot_uri", "used_headless", "scraped_at",
	}
	rows := pgxmock.NewRows(columns).
		AddRow("rec-2", "https://music.example/", "music.example", "Entertainment",
			[]byte(`{"title":"Music","description":null,"keywords":null,"ogTitle":null,"ogDescription":null,"ogImage":null}`),
			"def", "", true, newer).
		AddRow("rec-1", "https://www.takealot.com/", "www.takealot.com", "E-commerce",
			[]byte(`{"title":"Shop","description":"store","keywords":null,"ogTitle":null,"ogDescription":null,"ogImage":null}`),
			"abc", "memory://pages/x.html", false, older)

	mock.ExpectQuery("SELECT id, url, host").WithArgs(2).WillReturnRows(rows)

	records, err := store.ListRecords(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "rec-2", records[0].ID)
	require.Equal(t, scraper.IndustryEntertainment, records[0].Industry)
	require.True(t, records[0].UsedHeadless)
	require.Nil(t, records[0].Metadata.Description)
	require.Equal(t, "store", *records[1].Metadata.Description)
	require.Equal(t, older, records[1].ScrapedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsDefaultsLimit(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id").WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))
	records, err := store.ListRecords(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, records)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewResultStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS scrape_results").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewResultStoreValidation(t *testing.T) {
	t.Parallel()

	_, err := NewResultStoreWithPool(nil, "")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	_, err = NewResultStoreWithPool(mock, "bad-name;drop")
	require.Error(t, err)

	_, err = NewResultStore(context.Background(), Config{})
	require.Error(t, err)
}
