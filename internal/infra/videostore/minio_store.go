package videostore

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/qazinvest/faq-assist/pkg/errors"
)

// Store resolves video references attached to FAQ answers into streams the
// transports can deliver.
type Store interface {
	Fetch(ctx context.Context, reference string) (io.ReadCloser, int64, error)
}

// MinioStore reads answer videos from an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to the object store.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "connect to video store", err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Fetch implements Store.
func (s *MinioStore) Fetch(ctx context.Context, reference string) (io.ReadCloser, int64, error) {
	if reference == "" {
		return nil, 0, apperrors.Wrap(apperrors.CodeNotFound, "empty video reference", nil)
	}
	object, err := s.client.GetObject(ctx, s.bucket, reference, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "fetch video object", err)
	}
	info, err := object.Stat()
	if err != nil {
		object.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, 0, apperrors.Wrap(apperrors.CodeNotFound, "video object missing", err)
		}
		return nil, 0, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "stat video object", err)
	}
	return object, info.Size, nil
}

// NopStore serves deployments without an object store. Every lookup misses
// so transports fall back to text-only answers.
type NopStore struct{}

// Fetch implements Store.
func (NopStore) Fetch(_ context.Context, _ string) (io.ReadCloser, int64, error) {
	return nil, 0, apperrors.Wrap(apperrors.CodeNotFound, "video store disabled", nil)
}

var (
	_ Store = (*MinioStore)(nil)
	_ Store = NopStore{}
)
