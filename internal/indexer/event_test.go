package indexer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractCategory(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		want      string
	}{
		{"korean symposium", "제15차 천식 심포지엄", "심포지엄"},
		{"english symposium", "COPD Symposium 2025", "심포지엄"},
		{"workshop", "폐기능 워크숍", "워크숍"},
		{"school", "결핵 스쿨 기초과정", "스쿨"},
		{"conference", "춘계학술대회", "학술대회"},
		{"training", "전공의 교육 프로그램", "교육"},
		{"leadership counts as training", "차세대 리더쉽 과정", "교육"},
		{"seminar", "수면 세미나", "세미나"},
		{"no match", "정기 총회", "기타"},
		{"empty", "", "기타"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCategory(tt.eventName); got != tt.want {
				t.Errorf("ExtractCategory(%q) = %q, want %q", tt.eventName, got, tt.want)
			}
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"empty", "", ""},
		{"collapse spaces", "서울  양재동   aT센터", "서울 양재동 aT센터"},
		{"at center spacing", "aT 센터 3층", "aT센터 3층"},
		{"changjo room roman numeral", "aT센터 창조룸Ⅰ", "aT센터 창조룸 Ⅰ"},
		{"segyero room roman numeral", "세계로룸Ⅱ", "세계로룸 Ⅱ"},
		{"already normalized", "서울대학교병원", "서울대학교병원"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLocation(tt.location); got != tt.want {
				t.Errorf("NormalizeLocation(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestConvertDateToKorean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"single date", "2025-04-05", "2025년 4월 5일"},
		{"strips leading zeros", "2025-11-02", "2025년 11월 2일"},
		{"inside sentence", "행사는 2025-04-05 시작", "행사는 2025년 4월 5일 시작"},
		{"no date", "날짜 미정", "날짜 미정"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertDateToKorean(tt.in); got != tt.want {
				t.Errorf("ConvertDateToKorean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDurationDays(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		want  int
	}{
		{"single day", "2025-04-05", "2025-04-05", 1},
		{"two days", "2025-04-05", "2025-04-06", 2},
		{"missing end", "2025-04-05", "", 1},
		{"missing both", "", "", 1},
		{"end before start clamps to 1", "2025-04-06", "2025-04-05", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := durationDays(tt.start, tt.end); got != tt.want {
				t.Errorf("durationDays(%q, %q) = %d, want %d", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")

	csvContent := "행사명,행사 시작일,행사 종료일,행사장소,등록 시작일,등록 마감일,평점,url\n" +
		"제15차 천식 심포지엄,2025-04-05,2025-04-05,aT 센터 창조룸Ⅰ,2025-03-01,2025-03-31,6점,https://example.kr/asthma\n" +
		"COPD 워크숍,2025-06-14,2025-06-15,서울대학교병원,2025-05-01,2025-06-01,,\n" +
		",,,,,,,\n"

	if err := os.WriteFile(path, []byte(csvContent), 0644); err != nil {
		t.Fatalf("failed to write test csv: %v", err)
	}

	chunks, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV() failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (empty row skipped)", len(chunks))
	}

	first := chunks[0]
	if !strings.Contains(first.Text, "행사명: 제15차 천식 심포지엄") {
		t.Errorf("key-value text missing event name: %q", first.Text)
	}
	if !strings.Contains(first.Text, "카테고리: 심포지엄") {
		t.Errorf("key-value text missing category: %q", first.Text)
	}

	if first.Meta["category"] != "심포지엄" {
		t.Errorf("category = %v", first.Meta["category"])
	}
	if first.Meta["location"] != "aT센터 창조룸 Ⅰ" {
		t.Errorf("location not normalized: %v", first.Meta["location"])
	}
	if first.Meta["year"] != 2025 || first.Meta["month"] != 4 || first.Meta["day"] != 5 {
		t.Errorf("date metadata = %v/%v/%v", first.Meta["year"], first.Meta["month"], first.Meta["day"])
	}
	if first.Meta["start_date_int"] != int64(20250405) {
		t.Errorf("start_date_int = %v", first.Meta["start_date_int"])
	}
	// 2025-04-05 is a Saturday
	if first.Meta["is_weekend"] != true {
		t.Errorf("is_weekend = %v, want true", first.Meta["is_weekend"])
	}
	if first.Meta["reg_start_int"] != int64(20250301) || first.Meta["reg_end_int"] != int64(20250331) {
		t.Errorf("registration ints = %v / %v", first.Meta["reg_start_int"], first.Meta["reg_end_int"])
	}
	if first.Meta["duration_days"] != 1 {
		t.Errorf("duration_days = %v, want 1", first.Meta["duration_days"])
	}

	answer, _ := first.Meta["answer_template"].(string)
	if !strings.Contains(answer, "일시: 2025년 4월 5일") {
		t.Errorf("answer template missing Korean date: %q", answer)
	}
	if !strings.Contains(answer, "등록기간: 2025년 3월 1일 ~ 2025년 3월 31일") {
		t.Errorf("answer template missing registration window: %q", answer)
	}

	// Keyword expansion: 천식 should bring in its synonyms.
	keywords, _ := first.Meta["keywords"].(string)
	if !strings.Contains(keywords, "천식") {
		t.Errorf("keywords missing 천식: %q", keywords)
	}

	second := chunks[1]
	// 2025-06-14 is a Saturday, two-day event
	if second.Meta["duration_days"] != 2 {
		t.Errorf("duration_days = %v, want 2", second.Meta["duration_days"])
	}
	if second.Meta["category"] != "워크숍" {
		t.Errorf("category = %v", second.Meta["category"])
	}
	if _, ok := second.Meta["credits"]; ok {
		t.Error("empty credits should be omitted from metadata")
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Error("LoadCSV() on missing file should return error")
	}
}
