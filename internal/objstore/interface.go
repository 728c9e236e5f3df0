package objstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks koqa/internal/objstore Store

import "context"

// ObjectInfo describes an object in the bucket.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store defines the interface for object storage operations.
// Implementations provide access to the bucket that holds uploaded documents.
type Store interface {
	// EnsureBucket creates the bucket if it does not exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// List returns all objects in the bucket, recursively.
	List(ctx context.Context, bucket string) ([]ObjectInfo, error)

	// Download fetches an object into the given local file path.
	Download(ctx context.Context, bucket, key, localPath string) error
}
