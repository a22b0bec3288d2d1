// Package sqlite persists merged dataset snapshots in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"

	_ "modernc.org/sqlite"
)

func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// DatasetStore implements port.DatasetStore on SQLite.
type DatasetStore struct {
	db *sql.DB
}

// NewDatasetStore opens (creating if needed) the database at path and
// migrates it.
func NewDatasetStore(path string) (*DatasetStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DatasetStore{db: db}, nil
}

// Close closes the underlying database.
func (s *DatasetStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection (used by /readyz).
func (s *DatasetStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save inserts or replaces a dataset.
func (s *DatasetStore) Save(ctx context.Context, ds *domain.Dataset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO datasets (id, source, mode, csv, rows, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ds.ID, ds.Source, ds.Mode, ds.CSV, ds.Rows, ds.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

// Get loads a dataset with its CSV payload.
func (s *DatasetStore) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	var (
		ds      domain.Dataset
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, mode, csv, rows, created_at FROM datasets WHERE id = ?`, id,
	).Scan(&ds.ID, &ds.Source, &ds.Mode, &ds.CSV, &ds.Rows, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	ds.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &ds, nil
}

// List returns the newest datasets first, without their payloads.
func (s *DatasetStore) List(ctx context.Context, limit int) ([]domain.DatasetInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, mode, rows, length(csv), created_at FROM datasets ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DatasetInfo, 0)
	for rows.Next() {
		var (
			info    domain.DatasetInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Source, &info.Mode, &info.Rows, &info.Bytes, &created); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a dataset.
func (s *DatasetStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &domain.ErrNotFound{Resource: "dataset", ID: id}
	}
	return nil
}
