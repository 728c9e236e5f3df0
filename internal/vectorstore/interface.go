package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks koqa/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// ScrolledPoint represents a point returned by a filter-only scroll.
type ScrolledPoint struct {
	PointID string
	Meta    map[string]any
}

// Filter describes the metadata conditions a retrieval may impose.
// Zero values mean "no condition". All set conditions are combined with AND.
type Filter struct {
	// Year matches the event year exactly.
	Year int
	// Month matches a single event month.
	Month int
	// Months matches any month in the set (half-year, quarter, and explicit ranges).
	Months []int
	// Category matches the event category exactly.
	Category string
	// NotCategory excludes a category.
	NotCategory string
	// Weekend filters weekend (true) or weekday (false) events when set.
	Weekend *bool
	// StartDateFrom keeps events starting on or after this YYYYMMDD integer date.
	StartDateFrom int64
	// RegStartLTE / RegStartGT bound the registration start date (YYYYMMDD).
	RegStartLTE int64
	RegStartGT  int64
	// RegEndGTE / RegEndLTE bound the registration end date (YYYYMMDD).
	RegEndGTE int64
	RegEndLTE int64
	// MinDurationDays / MaxDurationDays bound the event duration in days.
	MinDurationDays int
	MaxDurationDays int
}

// IsZero reports whether no condition is set.
func (f *Filter) IsZero() bool {
	if f == nil {
		return true
	}
	return f.Year == 0 && f.Month == 0 && len(f.Months) == 0 &&
		f.Category == "" && f.NotCategory == "" && f.Weekend == nil &&
		f.StartDateFrom == 0 &&
		f.RegStartLTE == 0 && f.RegStartGT == 0 &&
		f.RegEndGTE == 0 && f.RegEndLTE == 0 &&
		f.MinDurationDays == 0 && f.MaxDurationDays == 0
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with an optional filter.
	Search(ctx context.Context, collection string, query []float32, k int, filter *Filter) ([]SearchResult, error)

	// ScrollAll returns every point matching the filter, without similarity ranking.
	ScrollAll(ctx context.Context, collection string, filter *Filter) ([]ScrolledPoint, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// CollectionExists checks if a collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)
}
