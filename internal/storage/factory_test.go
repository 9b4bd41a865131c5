package storage

import (
	"context"
	"testing"
)

func TestBackendTypeIsValid(t *testing.T) {
	tests := []struct {
		bt   BackendType
		want bool
	}{
		{FileBackend, true},
		{S3Backend, true},
		{"sheets", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.bt), func(t *testing.T) {
			if got := tt.bt.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file ok", Config{Type: FileBackend, UploadsDir: "./uploads"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"s3 ok", Config{Type: S3Backend, S3: S3Config{Bucket: "b", Key: "k"}}, false},
		{"s3 without bucket", Config{Type: S3Backend, S3: S3Config{Key: "k"}}, true},
		{"s3 without key", Config{Type: S3Backend, S3: S3Config{Bucket: "b"}}, true},
		{"s3 half credentials", Config{Type: S3Backend, S3: S3Config{Bucket: "b", Key: "k", AccessKey: "a"}}, true},
		{"unknown backend", Config{Type: "ftp"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGatewayFile(t *testing.T) {
	gw, err := NewGateway(context.Background(), Config{Type: FileBackend, UploadsDir: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	if _, ok := gw.(*FileStore); !ok {
		t.Errorf("NewGateway() returned %T, want *FileStore", gw)
	}
}
