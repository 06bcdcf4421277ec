// Package db provides PostgreSQL storage for scrape run history.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/basket-scraper/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the run history tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun inserts a run in the running state.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, sourceURL string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO scrape_runs (id, source_url, status)
		 VALUES ($1, $2, $3)`,
		runID, sourceURL, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun records the final state of a run.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, c RunCompletion) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE scrape_runs
		 SET status = $1, provenance = NULLIF($2, ''), shape = NULLIF($3, ''), namespace = NULLIF($4, ''),
		     record_count = $5, detail = NULLIF($6, ''), completed_at = NOW()
		 WHERE id = $7`,
		c.Status, c.Provenance, c.Shape, c.Namespace, c.RecordCount, c.Detail, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveRecords bulk-inserts a batch for a run, keeping batch order in position.
func (db *DB) SaveRecords(ctx context.Context, runID uuid.UUID, batch types.RecordBatch) (int64, error) {
	if batch.Empty() {
		return 0, nil
	}

	rows := make([][]any, 0, len(batch))
	for i, r := range batch {
		rows = append(rows, []any{runID, i, r.Date, r.Price, r.Currency})
	}

	n, err := db.pool.CopyFrom(ctx,
		pgx.Identifier{"price_records"},
		[]string{"run_id", "position", "date", "price", "currency"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save records: %w", err)
	}
	return n, nil
}

const runColumns = `id, source_url, status, provenance, shape, namespace, record_count, detail, created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.SourceURL, &run.Status, &run.Provenance, &run.Shape, &run.Namespace,
		&run.RecordCount, &run.Detail, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID. Returns nil, nil when it does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM scrape_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM scrape_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// GetRecords returns the records stored for a run in batch order.
func (db *DB) GetRecords(ctx context.Context, runID uuid.UUID) (types.RecordBatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT date, price, currency FROM price_records WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	batch := types.RecordBatch{}
	for rows.Next() {
		var r types.PriceRecord
		if err := rows.Scan(&r.Date, &r.Price, &r.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		batch = append(batch, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	return batch, nil
}
