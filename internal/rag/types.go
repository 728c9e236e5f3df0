// Package rag answers Korean questions over the indexed documents. Queries
// with structural conditions (dates, categories, venues) are answered by
// filtering the full index; everything else goes through similarity search
// with keyword boosting.
package rag

// Reference points at a document chunk that contributed to the answer.
type Reference struct {
	Title   string  `json:"title,omitempty"`
	Source  string  `json:"source"`
	Section string  `json:"section,omitempty"`
	Score   float32 `json:"score,omitempty"`
}

// DebugInfo exposes retrieval internals for ?debug=1 requests.
type DebugInfo struct {
	// Mode is "filter" for filtered listing retrieval, "similarity" for
	// vector search.
	Mode string `json:"mode"`
	// FilterDescription is the human readable summary of applied filters.
	FilterDescription string `json:"filter_description,omitempty"`
	// Matched is the number of chunks retrieved before the context cut.
	Matched int `json:"matched"`
	// Context is the exact context block handed to the LLM.
	Context string `json:"context,omitempty"`
}

// AskResponse is the answer to a question.
type AskResponse struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references,omitempty"`
	Debug      *DebugInfo  `json:"debug,omitempty"`
}
