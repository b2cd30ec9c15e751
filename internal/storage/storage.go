package storage

import (
	"context"
	"io"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PutOptions conveys upload destination metadata.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores contact export snapshots in remote object storage.
type Service interface {
	PutObject(ctx context.Context, body io.Reader, opts PutOptions) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
