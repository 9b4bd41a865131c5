package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"txstats/internal/core"
)

// createdAtLayout is fixed-width UTC so that text ordering matches time ordering.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Ledger records metadata for every accepted upload in SQLite.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens (creating if needed) the ledger database and applies
// migrations.
func OpenLedger(dbPath string) (*Ledger, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	if err := migrateLedger(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// Ping reports whether the database is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Record stores one accepted upload.
func (l *Ledger) Record(ctx context.Context, rec core.UploadRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO uploads (id, file_name, size_bytes, row_count, sha256, location, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.FileName, rec.SizeBytes, rec.Rows, rec.SHA256, rec.Location,
		rec.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert upload %s: %w", rec.ID, err)
	}
	return nil
}

// Latest returns the most recent upload, or ErrNotFound when none exist.
func (l *Ledger) Latest(ctx context.Context) (core.UploadRecord, error) {
	var (
		rec       core.UploadRecord
		createdAt string
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, file_name, size_bytes, row_count, sha256, location, created_at
		 FROM uploads ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.FileName, &rec.SizeBytes, &rec.Rows, &rec.SHA256, &rec.Location, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UploadRecord{}, ErrNotFound
	}
	if err != nil {
		return core.UploadRecord{}, fmt.Errorf("query latest upload: %w", err)
	}

	rec.CreatedAt, err = time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return core.UploadRecord{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return rec, nil
}
