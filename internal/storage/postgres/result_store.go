// Package postgres provides the Postgres-backed scrape history.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/site-metascraper/internal/scraper"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "scrape_results"

const defaultListLimit = 50

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for scrape records.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// ResultStore writes scrape records into Postgres.
type ResultStore struct {
	pool  pool
	table string
}

// NewResultStore connects a pool, ensures the table exists and returns the store.
func NewResultStore(ctx context.Context, cfg Config) (*ResultStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pgPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewResultStoreWithPool(pgPool, cfg.Table)
	if err != nil {
		pgPool.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		pgPool.Close()
		return nil, err
	}
	return store, nil
}

// NewResultStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewResultStoreWithPool(p pool, table string) (*ResultStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = DefaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultStore{pool: p, table: table}, nil
}

// EnsureSchema creates the results table and its recency index when missing.
func (s *ResultStore) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	host TEXT NOT NULL,
	industry TEXT NOT NULL,
	metadata JSONB NOT NULL,
	content_hash TEXT NOT NULL,
	snapshot_uri TEXT NOT NULL DEFAULT '',
	used_headless BOOLEAN NOT NULL DEFAULT FALSE,
	scraped_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS %[1]s_scraped_at_idx ON %[1]s (scraped_at DESC)`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *ResultStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveRecord inserts a scrape record.
func (s *ResultStore) SaveRecord(ctx context.Context, record scraper.Record) error {
	if s == nil || s.pool == nil {
		return errors.New("result store is not configured")
	}
	if record.ID == "" {
		return errors.New("record id is required")
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	url,
	host,
	industry,
	metadata,
	content_hash,
	snapshot_uri,
	used_headless,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9
)`, s.table)

	args := []any{
		record.ID,
		record.URL,
		record.Host,
		string(record.Industry),
		metadataJSON,
		record.ContentHash,
		record.SnapshotURI,
		record.UsedHeadless,
		record.ScrapedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scrape record: %w", err)
	}
	return nil
}

// ListRecords returns the newest records first. limit <= 0 selects a default page size.
func (s *ResultStore) ListRecords(ctx context.Context, limit int) ([]scraper.Record, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("result store is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := fmt.Sprintf(`
SELECT id, url, host, industry, metadata, content_hash, snapshot_uri, used_headless, scraped_at
FROM %s
ORDER BY scraped_at DESC
LIMIT $1`, s.table)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query scrape records: %w", err)
	}
	defer rows.Close()

	var records []scraper.Record
	for rows.Next() {
		var (
			record       scraper.Record
			industry     string
			metadataJSON []byte
		)
		if err := rows.Scan(
			&record.ID,
			&record.URL,
			&record.Host,
			&industry,
			&metadataJSON,
			&record.ContentHash,
			&record.SnapshotURI,
			&record.UsedHeadless,
			&record.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("scan scrape record: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", record.ID, err)
		}
		record.Industry = scraper.IndustryLabel(industry)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scrape records: %w", err)
	}
	return records, nil
}
