package indexer

// Chunk is one unit of indexable text together with the payload metadata
// stored alongside its vector.
type Chunk struct {
	// Index is the chunk position within the document (starts at 0).
	Index int
	// Section identifies where the chunk came from. For markdown this is
	// the heading path ("# 개요 > ## 일정"), for CSV and JSONL the row.
	Section string
	// Text is the content that gets embedded.
	Text string
	// Meta holds extra payload fields for the vector store. Event rows put
	// their filterable fields (year, month, category, dates) here.
	Meta map[string]any
}
