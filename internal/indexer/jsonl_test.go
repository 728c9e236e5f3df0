package indexer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qa.jsonl")

	lines := []string{
		`{"id":"qa_1","type":"event_qa","content":{"question":"2025년 4월 천식 심포지엄 일정은?","answer":"제15차 천식 심포지엄\n일시: 2025년 4월 5일"},"keywords":["천식","심포지엄"],"metadata":{"event_name":"제15차 천식 심포지엄","start_date":"2025-04-05","location":"aT센터"},"search_boost":{"year":2025,"month":4,"day":5,"location_normalized":"aT센터"}}`,
		``,
		`not valid json`,
		`{"id":"qa_2","type":"event_qa","content":{"question":"q","answer":"a"},"metadata":{"event_name":"COPD 워크숍"},"search_boost":{}}`,
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		t.Fatalf("failed to write test jsonl: %v", err)
	}

	chunks, err := LoadJSONL(path, slog.Default())
	if err != nil {
		t.Fatalf("LoadJSONL() failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (blank and malformed lines skipped)", len(chunks))
	}

	first := chunks[0]
	if !strings.Contains(first.Text, "행사명: 제15차 천식 심포지엄") {
		t.Errorf("text missing event name: %q", first.Text)
	}
	if !strings.Contains(first.Text, "키워드: 천식, 심포지엄") {
		t.Errorf("text missing keywords: %q", first.Text)
	}
	if first.Meta["year"] != 2025 || first.Meta["month"] != 4 {
		t.Errorf("search boost dates = %v/%v", first.Meta["year"], first.Meta["month"])
	}
	if first.Meta["start_date_int"] != int64(20250405) {
		t.Errorf("start_date_int = %v", first.Meta["start_date_int"])
	}
	if first.Meta["answer_template"] == "" {
		t.Error("answer_template missing")
	}

	second := chunks[1]
	if second.Meta["category"] != "워크숍" {
		t.Errorf("category = %v", second.Meta["category"])
	}
	if _, ok := second.Meta["start_date_int"]; ok {
		t.Error("start_date_int should be absent without search boost dates")
	}
}

func TestLoadJSONL_MissingFile(t *testing.T) {
	_, err := LoadJSONL(filepath.Join(t.TempDir(), "nope.jsonl"), slog.Default())
	if err == nil {
		t.Error("LoadJSONL() on missing file should return error")
	}
}
