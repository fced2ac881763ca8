package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"homely-price-discovery/models"
	"homely-price-discovery/utils"
)

const resultColumns = 12

// PostgresWriter persists discovery results to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewRunID returns a fresh identifier for a batch run.
func NewRunID() string {
	return uuid.NewString()
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS discovery_results (
			id             SERIAL PRIMARY KEY,
			run_id         UUID         NOT NULL,
			position       INTEGER      NOT NULL,
			address        TEXT         NOT NULL,
			suburb         TEXT         NOT NULL DEFAULT '',
			found          BOOLEAN      NOT NULL,
			exact          BOOLEAN      NOT NULL DEFAULT FALSE,
			min_price      INTEGER,
			max_price      INTEGER,
			queries_made   INTEGER      NOT NULL DEFAULT 0,
			degraded       INTEGER      NOT NULL DEFAULT 0,
			error          TEXT         NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_discovery_results_address ON discovery_results(address);
		CREATE INDEX IF NOT EXISTS idx_discovery_results_suburb  ON discovery_results(suburb);
	`)
	return err
}

// WriteRun batch-inserts results under runID, keeping their input order.
func (pw *PostgresWriter) WriteRun(ctx context.Context, runID string, results []*models.DiscoveryResult) error {
	if len(results) == 0 {
		return nil
	}
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("postgres: invalid run id %q: %w", runID, err)
	}

	const batchSize = 50
	for i := 0; i < len(results); i += batchSize {
		end := i + batchSize
		if end > len(results) {
			end = len(results)
		}
		if err := pw.insertBatch(ctx, runID, i, results[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(ctx context.Context, runID string, offset int, batch []*models.DiscoveryResult) error {
	query, args := buildInsert(runID, offset, batch)
	_, err := pw.db.ExecContext(ctx, query, args...)
	return err
}

// buildInsert renders one multi-row INSERT for batch, numbering positions
// from offset, with resultColumns placeholders per row.
func buildInsert(runID string, offset int, batch []*models.DiscoveryResult) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*resultColumns)

	for idx, r := range batch {
		base := idx * resultColumns
		ph := make([]string, resultColumns)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		rec := r.Record()
		valueArgs = append(valueArgs,
			runID, offset+idx, rec.Address, rec.Suburb, rec.Found, rec.Exact,
			nullPrice(rec.Found, rec.MinPrice), nullPrice(rec.Found, rec.MaxPrice),
			rec.Calls, rec.Degraded, rec.Error, finishedAt(r))
	}

	query := fmt.Sprintf(`
		INSERT INTO discovery_results
			(run_id, position, address, suburb, found, exact, min_price, max_price,
			 queries_made, degraded, error, created_at)
		VALUES %s
		ON CONFLICT (run_id, position) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchRun retrieves the stored results of one run in input order.
func (pw *PostgresWriter) FetchRun(ctx context.Context, runID string) ([]*models.DiscoveryResult, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT address, suburb, found, exact, min_price, max_price,
		       queries_made, degraded, error, created_at
		FROM discovery_results
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run: %w", err)
	}
	defer rows.Close()

	var results []*models.DiscoveryResult
	for rows.Next() {
		r := &models.DiscoveryResult{}
		var minPrice, maxPrice sql.NullInt64
		if err := rows.Scan(
			&r.Address, &r.Suburb, &r.Found, &r.Exact, &minPrice, &maxPrice,
			&r.Calls, &r.Degraded, &r.Message, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Bracket = models.Bracket{MinPrice: int(minPrice.Int64), MaxPrice: int(maxPrice.Int64)}
		results = append(results, r)
	}
	return results, rows.Err()
}

func nullPrice(found bool, price int) sql.NullInt64 {
	if !found {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(price), Valid: true}
}

func finishedAt(r *models.DiscoveryResult) time.Time {
	if r.FinishedAt.IsZero() {
		return time.Now()
	}
	return r.FinishedAt
}
