package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// BackendType selects where the transactions file is persisted.
type BackendType string

const (
	FileBackend BackendType = "file"
	S3Backend   BackendType = "s3"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is known
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, S3Backend:
		return true
	default:
		return false
	}
}

// BackendTypes returns all valid backend type strings
func BackendTypes() []string {
	return []string{FileBackend.String(), S3Backend.String()}
}

// Config holds what NewGateway needs for either backend.
type Config struct {
	Type       BackendType
	UploadsDir string
	S3         S3Config
}

// Validate checks the settings required by the selected backend.
func (c Config) Validate() error {
	switch c.Type {
	case FileBackend:
		if c.UploadsDir == "" {
			return fmt.Errorf("uploads directory is required for file backend")
		}
	case S3Backend:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 backend")
		}
		if c.S3.Key == "" {
			return fmt.Errorf("S3 key is required for s3 backend")
		}
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			return fmt.Errorf("S3 access key and secret key must be set together")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Type)
	}
	return nil
}

// NewGateway creates the gateway for cfg.Type.
func NewGateway(ctx context.Context, cfg Config, logger *slog.Logger) (Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case S3Backend:
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3 client: %w", err)
		}
		store := NewS3Store(client, cfg.S3.Bucket, cfg.S3.Key)
		logger.Info("Initialized S3 storage backend",
			"location", store.Location(),
			"custom_endpoint", cfg.S3.Endpoint != "")
		return store, nil
	default:
		store := NewFileStore(cfg.UploadsDir)
		logger.Info("Initialized file storage backend", "location", store.Location())
		return store, nil
	}
}
