package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

const (
	// ChunkerVersion identifies the chunking implementation. Bump it when
	// chunking logic changes enough to warrant a forced reindex.
	ChunkerVersion = "v1.0"
	// charsPerToken approximates token counts from character counts.
	charsPerToken = 4.0
)

// CoverageStats describes the current state of the index.
type CoverageStats struct {
	// DocsIndexed is the number of documents in the index.
	DocsIndexed int `json:"docs_indexed"`
	// DocsWithoutChunks is the number of documents that produced no chunks.
	DocsWithoutChunks int `json:"docs_without_chunks"`
	// ChunksIndexed is the number of chunks in the index.
	ChunksIndexed int `json:"chunks_indexed"`
	// ChunkTokenStats contains per-chunk token count statistics.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion is a hash identifying the index build
	// (chunker version + embedding model + chunking params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// CoverageStats computes index coverage statistics from the database.
func (p *Pipeline) CoverageStats(ctx context.Context, embeddingModel string) (*CoverageStats, error) {
	stats := &CoverageStats{
		ChunkerVersion: ChunkerVersion,
	}

	docsCount, err := p.docRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	stats.DocsIndexed = docsCount

	emptyDocs, err := p.docRepo.CountWithoutChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents without chunks: %w", err)
	}
	stats.DocsWithoutChunks = emptyDocs

	lengths, err := p.chunkRepo.TextLengths(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk lengths: %w", err)
	}
	stats.ChunksIndexed = len(lengths)

	if len(lengths) > 0 {
		tokenCounts := make([]int, len(lengths))
		for i, l := range lengths {
			count := int(math.Round(float64(l) / charsPerToken))
			if count < 1 {
				count = 1
			}
			tokenCounts[i] = count
		}
		stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	}

	versionInput := fmt.Sprintf("%s|%s|chunkSize=%d|overlap=%d",
		ChunkerVersion, embeddingModel, p.chunker.chunkSize, p.chunker.overlap)
	hash := sha256.Sum256([]byte(versionInput))
	stats.IndexVersion = hex.EncodeToString(hash[:])[:16]

	return stats, nil
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
