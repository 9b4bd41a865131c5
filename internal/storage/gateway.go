// Package storage persists the single transactions file and records accepted
// uploads.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

const (
	// MaxUploadBytes caps an incoming upload at 95 MiB.
	MaxUploadBytes int64 = 95 << 20

	chunkSize = 8 << 10
)

var (
	ErrNotFound = errors.New("storage: not found")
	ErrTooLarge = errors.New("storage: upload exceeds size limit")
)

// Gateway reads and replaces the persisted transactions file.
type Gateway interface {
	// ReadAll returns a private copy of the persisted bytes, or ErrNotFound.
	ReadAll(ctx context.Context) ([]byte, error)
	// WriteAll replaces the persisted file with data.
	WriteAll(ctx context.Context, data []byte) error
	// Location describes where the file lives, for messages and logs.
	Location() string
}

// ReadLimited reads r in chunks and stops with ErrTooLarge as soon as more
// than limit bytes have been seen.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if int64(buf.Len()+n) > limit {
				return nil, ErrTooLarge
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
	}
}
