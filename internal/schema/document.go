// Package schema defines the JSONL document schema for pre-structured
// Q&A records and the keyword synonym table used for search expansion.
package schema

// Content holds the content fields of a Q&A record.
type Content struct {
	// Question is the expected question, written for search optimization.
	Question string `json:"question"`
	// Answer is the answer template returned as LLM context.
	Answer string `json:"answer"`
	// Explanation is an optional additional explanation.
	Explanation string `json:"explanation,omitempty"`
}

// Metadata holds the event metadata fields of a Q&A record.
type Metadata struct {
	EventName         string `json:"event_name,omitempty"`
	StartDate         string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate           string `json:"end_date,omitempty"`   // YYYY-MM-DD
	RegistrationStart string `json:"registration_start,omitempty"`
	RegistrationEnd   string `json:"registration_end,omitempty"`
	Location          string `json:"location,omitempty"`
	Credits           string `json:"credits,omitempty"`
	URL               string `json:"url,omitempty"`
	Category          string `json:"category,omitempty"`
	SourceFile        string `json:"source_file,omitempty"`
	Row               int    `json:"row,omitempty"`
}

// SearchBoost holds the filterable fields of a Q&A record.
type SearchBoost struct {
	Year               int    `json:"year,omitempty"`
	Month              int    `json:"month,omitempty"`
	Day                int    `json:"day,omitempty"`
	LocationNormalized string `json:"location_normalized,omitempty"`
}

// Document is a complete pre-structured Q&A record, one per JSONL line.
type Document struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Content     Content     `json:"content"`
	Keywords    []string    `json:"keywords,omitempty"`
	Metadata    Metadata    `json:"metadata"`
	SearchBoost SearchBoost `json:"search_boost"`
}
