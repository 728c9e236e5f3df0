package indexer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"koqa/internal/schema"
)

// LoadJSONL loads a JSONL file of pre-structured Q&A records and returns one
// chunk per line. Malformed lines are logged and skipped so one bad record
// does not block the rest of the file.
func LoadJSONL(path string, logger *slog.Logger) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open jsonl file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var chunks []Chunk
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var doc schema.Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			logger.Warn("skipping malformed jsonl line", "file", path, "line", lineNum, "error", err)
			continue
		}

		chunks = append(chunks, documentChunk(doc, len(chunks), lineNum))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read jsonl file: %w", err)
	}

	return chunks, nil
}

// documentChunk builds the chunk for one Q&A record.
func documentChunk(doc schema.Document, index, lineNum int) Chunk {
	var parts []string
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("행사명", doc.Metadata.EventName)
	add("행사 시작일", doc.Metadata.StartDate)
	add("행사 종료일", doc.Metadata.EndDate)
	add("행사장소", doc.Metadata.Location)
	add("평점", doc.Metadata.Credits)
	add("URL", doc.Metadata.URL)
	add("카테고리", doc.Metadata.Category)
	if len(doc.Keywords) > 0 {
		add("키워드", strings.Join(doc.Keywords, ", "))
	}

	meta := map[string]any{
		"row":             lineNum,
		"event_name":      doc.Metadata.EventName,
		"category":        ExtractCategory(doc.Metadata.EventName),
		"location":        doc.SearchBoost.LocationNormalized,
		"answer_template": doc.Content.Answer,
	}
	if len(doc.Keywords) > 0 {
		meta["keywords"] = strings.Join(doc.Keywords, ",")
	}

	sb := doc.SearchBoost
	if sb.Year != 0 && sb.Month != 0 && sb.Day != 0 {
		meta["year"] = sb.Year
		meta["month"] = sb.Month
		meta["day"] = sb.Day
		meta["start_date"] = fmt.Sprintf("%04d-%02d-%02d", sb.Year, sb.Month, sb.Day)
		meta["start_date_int"] = dateInt(sb.Year, sb.Month, sb.Day)
	}

	return Chunk{
		Index:   index,
		Section: fmt.Sprintf("row %d", lineNum),
		Text:    strings.Join(parts, "\n"),
		Meta:    meta,
	}
}
