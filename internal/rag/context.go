package rag

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"koqa/internal/vectorstore"
)

// metaInt64 reads an integer metadata value regardless of how it was decoded.
func metaInt64(meta map[string]any, key string) int64 {
	switch v := meta[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func metaString(meta map[string]any, key string) string {
	s, _ := meta[key].(string)
	return s
}

// registrationStatus computes the live registration status of an event from
// its registration window. Empty when the event has no registration dates.
func registrationStatus(meta map[string]any, now time.Time) string {
	regStart := metaInt64(meta, "reg_start_int")
	regEnd := metaInt64(meta, "reg_end_int")
	if regStart == 0 || regEnd == 0 {
		return ""
	}

	today := todayInt(now)
	switch {
	case today < regStart:
		return "등록상태: 등록 시작 전"
	case today <= regEnd:
		if days := daysUntil(regEnd, now); days >= 0 && days <= 7 {
			return fmt.Sprintf("등록상태: 등록 가능 (마감 %d일 전)", days)
		}
		return "등록상태: 등록 가능"
	default:
		return "등록상태: 등록 마감"
	}
}

// daysUntil returns the number of days from now until a YYYYMMDD date.
// Returns -1 when the date cannot be parsed.
func daysUntil(dateInt int64, now time.Time) int {
	year := int(dateInt / 10000)
	month := int(dateInt / 100 % 100)
	day := int(dateInt % 100)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return -1
	}

	target := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(target.Sub(today).Hours() / 24)
}

// filterByLocation keeps points whose venue contains the location keyword.
// Venue matching is a substring check done here because the vector store
// filter language has no contains operator.
func filterByLocation(points []vectorstore.ScrolledPoint, location string) []vectorstore.ScrolledPoint {
	if location == "" {
		return points
	}

	var filtered []vectorstore.ScrolledPoint
	for _, p := range points {
		if strings.Contains(metaString(p.Meta, "location"), location) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// sortByDate orders points by event start date, soonest first. Points
// without a date sort last.
func sortByDate(points []vectorstore.ScrolledPoint) {
	sort.SliceStable(points, func(a, b int) bool {
		da := metaInt64(points[a].Meta, "start_date_int")
		db := metaInt64(points[b].Meta, "start_date_int")
		if da == 0 {
			da = 99999999
		}
		if db == 0 {
			db = 99999999
		}
		return da < db
	})
}

// maxContextTextRunes caps fallback chunk text in the context block.
const maxContextTextRunes = 300

// formatContext renders retrieved points as a numbered context block for the
// LLM. Event points use their answer template plus a live registration
// status; other chunks fall back to truncated text.
func formatContext(points []vectorstore.ScrolledPoint, maxDocs int, now time.Time) string {
	if maxDocs > 0 && len(points) > maxDocs {
		points = points[:maxDocs]
	}

	var entries []string
	for i, p := range points {
		answer := metaString(p.Meta, "answer_template")
		if answer == "" {
			text := metaString(p.Meta, "text")
			runes := []rune(text)
			if len(runes) > maxContextTextRunes {
				text = string(runes[:maxContextTextRunes])
			}
			entries = append(entries, fmt.Sprintf("%d. %s", i+1, text))
			continue
		}

		entry := fmt.Sprintf("%d. %s", i+1, answer)
		if status := registrationStatus(p.Meta, now); status != "" {
			entry += "\n   " + status
		}
		if url := metaString(p.Meta, "url"); url != "" {
			entry += "\n   URL: " + url
		}
		entries = append(entries, entry)
	}

	return strings.Join(entries, "\n\n")
}

// searchResultsToPoints adapts similarity results to the scrolled point shape
// so both retrieval paths share the context formatter.
func searchResultsToPoints(results []vectorstore.SearchResult) []vectorstore.ScrolledPoint {
	points := make([]vectorstore.ScrolledPoint, len(results))
	for i, r := range results {
		points[i] = vectorstore.ScrolledPoint{PointID: r.PointID, Meta: r.Meta}
	}
	return points
}
