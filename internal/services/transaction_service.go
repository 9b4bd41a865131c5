// Package services orchestrates uploads and summaries across storage, the
// upload ledger and event publishing.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"txstats/internal/core"
	"txstats/internal/storage"
	"txstats/internal/transactions"
)

const (
	msgNoFile   = "No transaction file found. Please upload a CSV file first."
	msgTooLarge = "File uploaded exceeds 95mb limit"
)

// UploadLedger records accepted uploads.
type UploadLedger interface {
	Record(ctx context.Context, rec core.UploadRecord) error
	Latest(ctx context.Context) (core.UploadRecord, error)
}

// EventPublisher announces accepted uploads.
type EventPublisher interface {
	PublishUploadCompleted(ctx context.Context, rec core.UploadRecord) error
}

// UploadResult is returned for an accepted upload.
type UploadResult struct {
	Record  core.UploadRecord
	Message string
}

// Options carries the optional collaborators. Nil fields disable the feature.
type Options struct {
	Ledger    UploadLedger
	Publisher EventPublisher
	MaxBytes  int64
	Logger    *slog.Logger
	Now       func() time.Time
}

// TransactionService handles uploads and per-user summaries.
type TransactionService struct {
	gateway   storage.Gateway
	ledger    UploadLedger
	publisher EventPublisher
	maxBytes  int64
	logger    *slog.Logger
	now       func() time.Time
}

func NewTransactionService(gateway storage.Gateway, opts Options) *TransactionService {
	s := &TransactionService{
		gateway:   gateway,
		ledger:    opts.Ledger,
		publisher: opts.Publisher,
		maxBytes:  opts.MaxBytes,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.maxBytes <= 0 {
		s.maxBytes = storage.MaxUploadBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Upload validates body and, if it is accepted, replaces the persisted file.
// Rejected uploads leave the previous file untouched.
func (s *TransactionService) Upload(ctx context.Context, fileName string, body io.Reader) (UploadResult, error) {
	raw, err := storage.ReadLimited(body, s.maxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return UploadResult{}, core.NewValidationError(core.KindTooLarge, msgTooLarge, err)
	}
	if err != nil {
		return UploadResult{}, fmt.Errorf("receive upload: %w", err)
	}

	rows, err := transactions.Check(raw)
	if err != nil {
		s.logger.InfoContext(ctx, "Upload rejected",
			"file_name", fileName,
			"size_bytes", len(raw),
			"error", err)
		return UploadResult{}, err
	}

	if err := s.gateway.WriteAll(ctx, raw); err != nil {
		return UploadResult{}, fmt.Errorf("persist upload: %w", err)
	}

	sum := sha256.Sum256(raw)
	rec := core.UploadRecord{
		ID:        uuid.NewString(),
		FileName:  fileName,
		SizeBytes: int64(len(raw)),
		Rows:      rows,
		SHA256:    hex.EncodeToString(sum[:]),
		Location:  s.gateway.Location(),
		CreatedAt: s.now().UTC(),
	}

	s.logger.InfoContext(ctx, "Upload accepted",
		"upload_id", rec.ID,
		"file_name", fileName,
		"size_bytes", rec.SizeBytes,
		"rows", rows,
		"location", rec.Location)

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, rec); err != nil {
			s.logger.ErrorContext(ctx, "Failed to record upload", "upload_id", rec.ID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishUploadCompleted(ctx, rec); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish upload event", "upload_id", rec.ID, "error", err)
		}
	}

	return UploadResult{
		Record:  rec,
		Message: fmt.Sprintf("File uploaded successfully at %s", rec.Location),
	}, nil
}

// Summary loads the persisted file and summarizes userID's transactions in
// [dateFrom, dateTo). Empty bounds are open.
func (s *TransactionService) Summary(ctx context.Context, userID, dateFrom, dateTo string) (core.Summary, error) {
	raw, err := s.gateway.ReadAll(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Summary{}, core.NewSummaryError(core.KindNoFile, msgNoFile, err)
	}
	if err != nil {
		return core.Summary{}, core.NewSummaryError(core.KindLoad,
			fmt.Sprintf("Failed to load transaction data: %v", err), err)
	}

	table, err := transactions.Load(raw)
	if err != nil {
		return core.Summary{}, err
	}
	return transactions.Summarize(table, userID, dateFrom, dateTo)
}

// LatestUpload returns the most recent ledger entry, or storage.ErrNotFound
// when there is none or the ledger is disabled.
func (s *TransactionService) LatestUpload(ctx context.Context) (core.UploadRecord, error) {
	if s.ledger == nil {
		return core.UploadRecord{}, storage.ErrNotFound
	}
	return s.ledger.Latest(ctx)
}

// Close releases collaborators that hold connections.
func (s *TransactionService) Close() error {
	var errs []error
	for name, c := range map[string]any{"ledger": s.ledger, "publisher": s.publisher} {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
