package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pfrederiksen/event-scraper/internal/config"
	"github.com/pfrederiksen/event-scraper/internal/event"
	"github.com/pfrederiksen/event-scraper/internal/metrics"
)

// schemaSQL is applied on open so a fresh database needs no migration step.
//
//go:embed schema.sql
var schemaSQL string

const eventsTable = "scraped_events"

// Table columns in Headers order, preceded by the row position
var tableColumns = []string{
	"position",
	"event_id",
	"event_name",
	"date",
	"venue",
	"city",
	"category",
	"url",
	"source",
	"status",
	"last_updated",
}

// PostgresStore keeps the event set in a Postgres table. Cells are stored as
// text exactly as they appear in the tabular contract.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, fails fast if the database is unreachable and
// ensures the schema exists
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: config.BackendPostgres, Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "open", Backend: config.BackendPostgres, Err: err}
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, &StorageError{Op: "open", Backend: config.BackendPostgres, Err: fmt.Errorf("applying schema: %w", err)}
	}

	return &PostgresStore{pool: pool}, nil
}

// Name returns the backend name
func (p *PostgresStore) Name() string {
	return config.BackendPostgres
}

// Close shuts down the connection pool
func (p *PostgresStore) Close() {
	p.pool.Close()
}

// Load reads every row in stored order
func (p *PostgresStore) Load(ctx context.Context) ([]*event.Event, error) {
	events, err := p.load(ctx)
	metrics.ObserveStore(p.Name(), "load", err)
	return events, err
}

func (p *PostgresStore) load(ctx context.Context) ([]*event.Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT event_id, event_name, date, venue, city, category, url, source, status, last_updated
		FROM scraped_events
		ORDER BY position
	`)
	if err != nil {
		return nil, &StorageError{Op: "load", Backend: p.Name(), Err: err}
	}
	defer rows.Close()

	table := [][]string{Headers}
	for rows.Next() {
		cells := make([]string, len(Headers))
		dest := make([]any, len(cells))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &StorageError{Op: "load", Backend: p.Name(), Err: err}
		}
		table = append(table, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "load", Backend: p.Name(), Err: err}
	}

	return DecodeRows(table), nil
}

// Save replaces the table contents in one transaction
func (p *PostgresStore) Save(ctx context.Context, events []*event.Event) error {
	err := p.save(ctx, events)
	metrics.ObserveStore(p.Name(), "save", err)
	return err
}

func (p *PostgresStore) save(ctx context.Context, events []*event.Event) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return &StorageError{Op: "save", Backend: p.Name(), Err: err}
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, "DELETE FROM "+eventsTable); err != nil {
		return &StorageError{Op: "save", Backend: p.Name(), Err: err}
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{eventsTable}, tableColumns, pgx.CopyFromRows(copyRows(events))); err != nil {
		return &StorageError{Op: "save", Backend: p.Name(), Err: fmt.Errorf("copying rows: %w", err)}
	}

	if err := tx.Commit(ctx); err != nil {
		return &StorageError{Op: "save", Backend: p.Name(), Err: err}
	}
	return nil
}

// copyRows returns one COPY row per event, prefixed by its position
func copyRows(events []*event.Event) [][]any {
	rows := make([][]any, 0, len(events))
	for i, evt := range events {
		cells := EncodeRow(evt)
		row := make([]any, 0, len(cells)+1)
		row = append(row, int32(i))
		for _, c := range cells {
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	return rows
}
