// Package mirror копирует опубликованные артефакты в blob-хранилище
// (локальный каталог, S3-совместимое или GCS) через gocloud.dev.
package mirror

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// driver
	_ "gocloud.dev/blob/gcsblob"  // gs:// driver
	_ "gocloud.dev/blob/s3blob"   // s3:// driver
)

// Mirror пишет копии артефактов в бакет.
type Mirror struct {
	bucket *blob.Bucket
	url    string
}

// Open открывает бакет по URL, например file:///srv/mirror или s3://bucket?region=eu-west-1.
// Пустой URL означает, что зеркало выключено: возвращается nil без ошибки.
func Open(ctx context.Context, bucketURL string) (*Mirror, error) {
	bucketURL = strings.TrimSpace(bucketURL)
	if bucketURL == "" {
		return nil, nil
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("open mirror bucket %s: %w", bucketURL, err)
	}

	return &Mirror{bucket: bucket, url: bucketURL}, nil
}

// Put копирует содержимое r в ключ key.
func (m *Mirror) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	w, err := m.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return 0, fmt.Errorf("create writer for %s: %w", key, err)
	}

	n, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		return n, fmt.Errorf("write %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return n, fmt.Errorf("close writer for %s: %w", key, err)
	}

	return n, nil
}

// URL возвращает адрес бакета для логов.
func (m *Mirror) URL() string {
	return m.url
}

// Close закрывает бакет.
func (m *Mirror) Close() error {
	if m == nil {
		return nil
	}
	return m.bucket.Close()
}
