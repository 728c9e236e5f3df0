package indexer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"koqa/internal/schema"
)

// Event CSV column headers. The source files are exported with Korean
// headers; missing columns are treated as empty.
const (
	colEventName = "행사명"
	colStartDate = "행사 시작일"
	colEndDate   = "행사 종료일"
	colLocation  = "행사장소"
	colRegStart  = "등록 시작일"
	colRegEnd    = "등록 마감일"
	colCredits   = "평점"
	colURL       = "url"
)

var datePattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// eventRow is one parsed event record.
type eventRow struct {
	Name      string
	StartDate string // YYYY-MM-DD
	EndDate   string
	Location  string
	RegStart  string
	RegEnd    string
	Credits   string
	URL       string
}

// LoadCSV loads an event CSV file and returns one chunk per row.
// Each chunk carries the filterable event metadata in its Meta map.
func LoadCSV(path string) ([]Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []Chunk{}, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(name)] = i
	}

	var chunks []Chunk
	rowNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", rowNum+1, err)
		}
		rowNum++

		field := func(name string) string {
			idx, ok := colIndex[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		row := eventRow{
			Name:      field(colEventName),
			StartDate: field(colStartDate),
			EndDate:   field(colEndDate),
			Location:  field(colLocation),
			RegStart:  field(colRegStart),
			RegEnd:    field(colRegEnd),
			Credits:   field(colCredits),
			URL:       field(colURL),
		}
		if row.Name == "" {
			continue
		}

		chunks = append(chunks, eventChunk(row, len(chunks), rowNum))
	}

	return chunks, nil
}

// eventChunk builds the chunk for one event row: key-value text for
// embedding plus filterable metadata and the answer template for context.
func eventChunk(row eventRow, index, rowNum int) Chunk {
	keywords := eventKeywords(row.Name, row.Location)
	category := ExtractCategory(row.Name)

	meta := map[string]any{
		"row":             rowNum,
		"event_name":      row.Name,
		"category":        category,
		"location":        NormalizeLocation(row.Location),
		"answer_template": answerTemplate(row),
	}
	if len(keywords) > 0 {
		meta["keywords"] = strings.Join(keywords, ",")
	}
	if row.Credits != "" {
		meta["credits"] = row.Credits
	}
	if row.URL != "" {
		meta["url"] = row.URL
	}

	if y, m, d, ok := parseDate(row.StartDate); ok {
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		// 0=Monday .. 6=Sunday
		dayOfWeek := (int(t.Weekday()) + 6) % 7

		meta["year"] = y
		meta["month"] = m
		meta["day"] = d
		meta["start_date"] = row.StartDate
		meta["start_date_int"] = dateInt(y, m, d)
		meta["day_of_week"] = dayOfWeek
		meta["is_weekend"] = dayOfWeek >= 5
	}
	if v := dateIntFromString(row.RegStart); v != 0 {
		meta["reg_start_int"] = v
	}
	if v := dateIntFromString(row.RegEnd); v != 0 {
		meta["reg_end_int"] = v
	}
	meta["duration_days"] = durationDays(row.StartDate, row.EndDate)

	return Chunk{
		Index:   index,
		Section: fmt.Sprintf("row %d", rowNum),
		Text:    buildEventText(row, category, keywords),
		Meta:    meta,
	}
}

// buildEventText renders the event as key-value lines for embedding.
// The embedding model matches questions like "4월 심포지엄 일정" against
// these lines far better than against free prose.
func buildEventText(row eventRow, category string, keywords []string) string {
	var parts []string

	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("행사명", row.Name)
	add("행사 시작일", row.StartDate)
	if row.EndDate != row.StartDate {
		add("행사 종료일", row.EndDate)
	}
	add("행사장소", row.Location)
	add("등록 시작일", row.RegStart)
	add("등록 마감일", row.RegEnd)
	add("평점", row.Credits)
	add("URL", row.URL)
	add("카테고리", category)
	if len(keywords) > 0 {
		add("키워드", strings.Join(keywords, ", "))
	}

	return strings.Join(parts, "\n")
}

// answerTemplate renders the structured answer handed to the LLM as context.
func answerTemplate(row eventRow) string {
	parts := []string{row.Name}

	start := ConvertDateToKorean(row.StartDate)
	end := ConvertDateToKorean(row.EndDate)
	if start != "" {
		if end == "" || start == end {
			parts = append(parts, "일시: "+start)
		} else {
			parts = append(parts, "일시: "+start+" ~ "+end)
		}
	}
	if row.Location != "" {
		parts = append(parts, "장소: "+row.Location)
	}

	regStart := ConvertDateToKorean(row.RegStart)
	regEnd := ConvertDateToKorean(row.RegEnd)
	if regStart != "" && regEnd != "" {
		parts = append(parts, "등록기간: "+regStart+" ~ "+regEnd)
	}

	return strings.Join(parts, "\n")
}

// ConvertDateToKorean rewrites YYYY-MM-DD dates as "YYYY년 M월 D일".
func ConvertDateToKorean(text string) string {
	return datePattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := datePattern.FindStringSubmatch(match)
		month, _ := strconv.Atoi(groups[2])
		day, _ := strconv.Atoi(groups[3])
		return fmt.Sprintf("%s년 %d월 %d일", groups[1], month, day)
	})
}

// parseDate parses a YYYY-MM-DD prefix.
func parseDate(s string) (year, month, day int, ok bool) {
	groups := datePattern.FindStringSubmatch(s)
	if groups == nil {
		return 0, 0, 0, false
	}
	year, _ = strconv.Atoi(groups[1])
	month, _ = strconv.Atoi(groups[2])
	day, _ = strconv.Atoi(groups[3])
	return year, month, day, true
}

// dateInt packs a date as a YYYYMMDD integer for range filtering.
func dateInt(year, month, day int) int64 {
	return int64(year)*10000 + int64(month)*100 + int64(day)
}

func dateIntFromString(s string) int64 {
	if y, m, d, ok := parseDate(s); ok {
		return dateInt(y, m, d)
	}
	return 0
}

// durationDays returns the inclusive event length in days, minimum 1.
func durationDays(start, end string) int {
	sy, sm, sd, sok := parseDate(start)
	ey, em, ed, eok := parseDate(end)
	if !sok || !eok {
		return 1
	}

	startT := time.Date(sy, time.Month(sm), sd, 0, 0, 0, 0, time.UTC)
	endT := time.Date(ey, time.Month(em), ed, 0, 0, 0, 0, time.UTC)
	days := int(endT.Sub(startT).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

var (
	multiSpacePattern  = regexp.MustCompile(`\s+`)
	atCenterPattern    = regexp.MustCompile(`aT\s*센터`)
	changjoRoomPattern = regexp.MustCompile(`창조룸\s*([ⅠⅡⅢⅣⅤⅰⅱⅲⅳⅴ])`)
	segyeroRoomPattern = regexp.MustCompile(`세계로룸\s*([ⅠⅡⅢⅣⅤⅰⅱⅲⅳⅴ])`)
)

// NormalizeLocation normalizes a venue string so the same venue always
// matches regardless of spacing variants in the source data.
func NormalizeLocation(location string) string {
	if location == "" {
		return ""
	}

	normalized := multiSpacePattern.ReplaceAllString(strings.TrimSpace(location), " ")
	normalized = atCenterPattern.ReplaceAllString(normalized, "aT센터")
	normalized = changjoRoomPattern.ReplaceAllString(normalized, "창조룸 $1")
	normalized = segyeroRoomPattern.ReplaceAllString(normalized, "세계로룸 $1")

	return normalized
}

// categoryPatterns maps event name patterns to categories, checked in order.
var categoryPatterns = []struct {
	pattern  *regexp.Regexp
	category string
}{
	{regexp.MustCompile(`(?i)심포지엄|symposium`), "심포지엄"},
	{regexp.MustCompile(`(?i)워크숍|workshop`), "워크숍"},
	{regexp.MustCompile(`(?i)스쿨|school`), "스쿨"},
	{regexp.MustCompile(`(?i)학술대회|conference`), "학술대회"},
	{regexp.MustCompile(`(?i)교육|training|리더쉽`), "교육"},
	{regexp.MustCompile(`(?i)세미나|seminar`), "세미나"},
}

// ExtractCategory derives the event category from its name.
func ExtractCategory(eventName string) string {
	for _, cp := range categoryPatterns {
		if cp.pattern.MatchString(eventName) {
			return cp.category
		}
	}
	return "기타"
}

var (
	medicalKeywordPattern = regexp.MustCompile(`(?i)(천식|COPD|ILD|NTM|폐암|결핵|폐기능|수면|호흡|금연|기침|폐혈관|기관지확장증|감염병|환경성폐질환|분자폐암)`)
	eventTypePattern      = regexp.MustCompile(`(심포지엄|워크숍|학술대회|교육|스쿨|세미나)`)
	orgPattern            = regexp.MustCompile(`(연구회|학회)`)
	locationNamePattern   = regexp.MustCompile(`(양재|aT센터|서울대|중앙대|성모병원|SC)`)
)

// eventKeywords extracts searchable keywords from the event name and venue,
// expanded through the synonym table.
func eventKeywords(eventName, location string) []string {
	var keywords []string

	if eventName != "" {
		for _, m := range medicalKeywordPattern.FindAllString(eventName, -1) {
			keywords = append(keywords, m)
		}
		for _, m := range eventTypePattern.FindAllString(eventName, -1) {
			keywords = append(keywords, m)
		}
		for _, m := range orgPattern.FindAllString(eventName, -1) {
			keywords = append(keywords, m)
		}
	}
	if location != "" {
		for _, m := range locationNamePattern.FindAllString(location, -1) {
			keywords = append(keywords, m)
		}
	}

	return schema.ExpandKeywords(keywords)
}
