package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"koqa/internal/contextutil"
)

// scrollPageSize is the page size used when scrolling all points matching a filter.
const scrollPageSize = 256

// QdrantStore implements VectorStore using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port (typically 6334) will be derived from the HTTP port.
func NewQdrantStore(urlStr string) (*QdrantStore, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// Extract port from URL, default to 6333 for HTTP
	port := 6334 // Default gRPC port
	if parsedURL.Port() != "" {
		httpPort, err := strconv.Atoi(parsedURL.Port())
		if err == nil {
			// gRPC port is typically HTTP port + 1
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{
		client: client,
	}, nil
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
		}

		if len(point.Meta) > 0 {
			qdrantPoint.Payload = qdrant.NewValueMap(point.Meta)
		}

		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a similarity search with an optional metadata filter.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filter *Filter) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	queryReq := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if qf := buildQdrantFilter(filter); qf != nil {
		queryReq.Filter = qf
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, result := range scoredPoints {
		pointID := ""
		if result.Id != nil {
			pointID = result.Id.GetUuid()
		}

		meta := make(map[string]any)
		if result.Payload != nil {
			meta = convertPayloadToMap(result.Payload)
		}

		results = append(results, SearchResult{
			PointID: pointID,
			Score:   result.Score,
			Meta:    meta,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// ScrollAll returns every point matching the filter, without similarity ranking.
// This serves filtered listings ("every symposium in April") where a top-k
// similarity cut would silently drop matching documents.
func (s *QdrantStore) ScrollAll(ctx context.Context, collection string, filter *Filter) ([]ScrolledPoint, error) {
	logger := contextutil.LoggerFromContext(ctx)

	qf := buildQdrantFilter(filter)

	var all []ScrolledPoint
	seen := make(map[string]struct{})
	var offset *qdrant.PointId

	for {
		limit := uint32(scrollPageSize)
		req := &qdrant.ScrollPoints{
			CollectionName: collection,
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		}
		if qf != nil {
			req.Filter = qf
		}
		if offset != nil {
			req.Offset = offset
		}

		points, err := s.client.Scroll(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "failed to scroll points", "collection", collection, "error", err)
			return nil, fmt.Errorf("failed to scroll points: %w", err)
		}

		added := 0
		for _, point := range points {
			pointID := ""
			if point.Id != nil {
				pointID = point.Id.GetUuid()
			}
			// Scroll offset is inclusive, so the first point of a page may repeat.
			if _, dup := seen[pointID]; dup {
				continue
			}
			seen[pointID] = struct{}{}
			added++

			meta := make(map[string]any)
			if point.Payload != nil {
				meta = convertPayloadToMap(point.Payload)
			}
			all = append(all, ScrolledPoint{
				PointID: pointID,
				Meta:    meta,
			})
		}

		if len(points) < scrollPageSize || added == 0 {
			break
		}
		offset = points[len(points)-1].Id
	}

	logger.InfoContext(ctx, "scroll completed", "collection", collection, "results", len(all))
	return all, nil
}

// Delete removes points by their IDs.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []string) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewID(id))
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points:         qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.InfoContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// CollectionExists checks if a collection exists.
func (s *QdrantStore) CollectionExists(ctx context.Context, collection string) (bool, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// EnsureCollection ensures a collection exists with the specified vector size.
// If the collection exists, validates that the vector size matches.
// If it doesn't exist, creates it with the specified vector size.
// Vectors embedded with a different model dimension must never share a
// collection, so a size mismatch is a hard error.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		logger.InfoContext(ctx, "collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	// Collection exists, validate vector size
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}

	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}

	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}

	actualSize := params.Size
	if actualSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}

	if int(actualSize) != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, actualSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// GetCollectionInfo returns information about a collection including point count.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var vectorSize int
	if config := info.Config; config != nil && config.Params != nil {
		if vectorsConfig := config.Params.GetVectorsConfig(); vectorsConfig != nil {
			if params := vectorsConfig.GetParams(); params != nil {
				vectorSize = int(params.Size)
			}
		}
	}

	var pointsCount int
	if info.PointsCount != nil {
		pointsCount = int(*info.PointsCount)
	}

	status := "unknown"
	if info.Status != 0 {
		status = info.Status.String()
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: pointsCount,
		Status:      status,
	}, nil
}

// CollectionInfo contains information about a Qdrant collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// buildQdrantFilter translates a domain Filter into Qdrant filter conditions.
// Returns nil when the filter imposes no conditions.
func buildQdrantFilter(filter *Filter) *qdrant.Filter {
	if filter.IsZero() {
		return nil
	}

	var must []*qdrant.Condition
	var mustNot []*qdrant.Condition

	if filter.Year != 0 {
		must = append(must, qdrant.NewMatchInt("year", int64(filter.Year)))
	}
	if len(filter.Months) > 0 {
		months := make([]int64, len(filter.Months))
		for i, m := range filter.Months {
			months[i] = int64(m)
		}
		must = append(must, qdrant.NewMatchInts("month", months...))
	} else if filter.Month != 0 {
		must = append(must, qdrant.NewMatchInt("month", int64(filter.Month)))
	}
	if filter.Category != "" {
		must = append(must, qdrant.NewMatch("category", filter.Category))
	}
	if filter.NotCategory != "" {
		mustNot = append(mustNot, qdrant.NewMatch("category", filter.NotCategory))
	}
	if filter.Weekend != nil {
		must = append(must, qdrant.NewMatchBool("is_weekend", *filter.Weekend))
	}
	if filter.StartDateFrom != 0 {
		must = append(must, qdrant.NewRange("start_date_int", &qdrant.Range{
			Gte: floatPtr(float64(filter.StartDateFrom)),
		}))
	}
	if filter.RegStartLTE != 0 || filter.RegStartGT != 0 {
		r := &qdrant.Range{}
		if filter.RegStartLTE != 0 {
			r.Lte = floatPtr(float64(filter.RegStartLTE))
		}
		if filter.RegStartGT != 0 {
			r.Gt = floatPtr(float64(filter.RegStartGT))
		}
		must = append(must, qdrant.NewRange("reg_start_int", r))
	}
	if filter.RegEndGTE != 0 || filter.RegEndLTE != 0 {
		r := &qdrant.Range{}
		if filter.RegEndGTE != 0 {
			r.Gte = floatPtr(float64(filter.RegEndGTE))
		}
		if filter.RegEndLTE != 0 {
			r.Lte = floatPtr(float64(filter.RegEndLTE))
		}
		must = append(must, qdrant.NewRange("reg_end_int", r))
	}
	if filter.MinDurationDays != 0 || filter.MaxDurationDays != 0 {
		r := &qdrant.Range{}
		if filter.MinDurationDays != 0 {
			r.Gte = floatPtr(float64(filter.MinDurationDays))
		}
		if filter.MaxDurationDays != 0 {
			r.Lte = floatPtr(float64(filter.MaxDurationDays))
		}
		must = append(must, qdrant.NewRange("duration_days", r))
	}

	if len(must) == 0 && len(mustNot) == 0 {
		return nil
	}

	return &qdrant.Filter{
		Must:    must,
		MustNot: mustNot,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

// convertValue converts a Qdrant Value to Go any type.
func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
