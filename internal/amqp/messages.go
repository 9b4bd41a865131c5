package amqp

import (
	"encoding/json"
	"time"

	"txstats/internal/core"
)

// UploadCompletedMessage announces that a new transactions file was accepted.
type UploadCompletedMessage struct {
	UploadID  string    `json:"upload_id"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	Rows      int       `json:"rows"`
	SHA256    string    `json:"sha256"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUploadCompletedMessage builds the event for an accepted upload.
func NewUploadCompletedMessage(rec core.UploadRecord) *UploadCompletedMessage {
	ts := rec.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &UploadCompletedMessage{
		UploadID:  rec.ID,
		FileName:  rec.FileName,
		SizeBytes: rec.SizeBytes,
		Rows:      rec.Rows,
		SHA256:    rec.SHA256,
		Location:  rec.Location,
		Timestamp: ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *UploadCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
