package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// objectAPI abstracts the minio client surface the store depends on.
type objectAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Store writes attachment payloads to object storage and resolves
// retrievable references for them.
type Store struct {
	api    objectAPI
	bucket string
	urlTTL time.Duration
}

// New constructs a Store bound to one bucket.
func New(client *minio.Client, bucket string, urlTTL time.Duration) *Store {
	return &Store{api: client, bucket: bucket, urlTTL: urlTTL}
}

// Put writes the payload under the given object path.
func (s *Store) Put(ctx context.Context, path string, payload []byte, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.api.PutObject(ctx, s.bucket, path, bytes.NewReader(payload), int64(len(payload)), opts); err != nil {
		return fmt.Errorf("put object %s: %w", path, err)
	}
	return nil
}

// URL resolves a presigned, retrievable reference for a stored object.
func (s *Store) URL(ctx context.Context, path string) (string, error) {
	u, err := s.api.PresignedGetObject(ctx, s.bucket, path, s.urlTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", path, err)
	}
	return u.String(), nil
}

// Remove deletes a stored object.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", path, err)
	}
	return nil
}
