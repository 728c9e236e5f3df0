package objstore

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"koqa/internal/contextutil"
)

// MinioStore implements Store using a MinIO (S3-compatible) server.
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore creates a new MinIO-backed object store client.
// endpoint is host:port without a scheme (e.g., "localhost:9000").
func NewMinioStore(endpoint, accessKey, secretKey string, secure bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinioStore{
		client: client,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// List returns all objects in the bucket, recursively.
func (s *MinioStore) List(ctx context.Context, bucket string) ([]ObjectInfo, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var objects []ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			logger.ErrorContext(ctx, "failed to list objects", "bucket", bucket, "error", obj.Err)
			return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:  obj.Key,
			Size: obj.Size,
		})
	}

	logger.DebugContext(ctx, "listed bucket objects", "bucket", bucket, "count", len(objects))
	return objects, nil
}

// Download fetches an object into the given local file path.
// Parent directories of localPath must already exist.
func (s *MinioStore) Download(ctx context.Context, bucket, key, localPath string) error {
	if err := s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		return fmt.Errorf("failed to download %s/%s: %w", bucket, key, err)
	}
	return nil
}
