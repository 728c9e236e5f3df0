package rag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"koqa/internal/vectorstore"
)

// QueryConditions holds everything extracted from a question: the metadata
// filter pushed down to the vector store, the venue substring applied in
// post-processing, and whether the question asks about upcoming events.
type QueryConditions struct {
	Filter    vectorstore.Filter
	Location  string
	TimeBased bool
}

// HasFilter reports whether any pushdown condition was extracted.
func (q *QueryConditions) HasFilter() bool {
	return !q.Filter.IsZero()
}

// HasAny reports whether the question carries any structural condition at all.
func (q *QueryConditions) HasAny() bool {
	return q.HasFilter() || q.Location != ""
}

var (
	yearPattern       = regexp.MustCompile(`(\d{4})년`)
	monthPattern      = regexp.MustCompile(`(\d{1,2})월`)
	monthRangePattern = regexp.MustCompile(`(\d{1,2})월\s*(?:~|-|부터)\s*(\d{1,2})월`)

	firstHalfPattern  = regexp.MustCompile(`상반기|1반기|전반기`)
	secondHalfPattern = regexp.MustCompile(`하반기|2반기|후반기`)
	quarterPatterns   = []struct {
		pattern *regexp.Regexp
		months  []int
	}{
		{regexp.MustCompile(`1분기|1사분기`), []int{1, 2, 3}},
		{regexp.MustCompile(`2분기|2사분기`), []int{4, 5, 6}},
		{regexp.MustCompile(`3분기|3사분기`), []int{7, 8, 9}},
		{regexp.MustCompile(`4분기|4사분기`), []int{10, 11, 12}},
	}

	weekendPattern = regexp.MustCompile(`주말|토요일|일요일|토,?\s*일|토·일`)
	weekdayPattern = regexp.MustCompile(`평일|월요일|화요일|수요일|목요일|금요일|월~금`)

	queryCategoryPatterns = []struct {
		pattern  *regexp.Regexp
		category string
	}{
		{regexp.MustCompile(`심포지엄|심포지움`), "심포지엄"},
		{regexp.MustCompile(`워크숍|워크샵`), "워크숍"},
		{regexp.MustCompile(`(?i)스쿨|school`), "스쿨"},
		{regexp.MustCompile(`학술대회`), "학술대회"},
		{regexp.MustCompile(`교육|연수|리더쉽`), "교육"},
		{regexp.MustCompile(`세미나`), "세미나"},
	}

	exclusionPatterns = []struct {
		pattern  *regexp.Regexp
		category string
	}{
		{regexp.MustCompile(`심포지엄.*(말고|제외|빼고|아니고|외)`), "심포지엄"},
		{regexp.MustCompile(`워크숍.*(말고|제외|빼고|아니고|외)`), "워크숍"},
		{regexp.MustCompile(`스쿨.*(말고|제외|빼고|아니고|외)`), "스쿨"},
		{regexp.MustCompile(`세미나.*(말고|제외|빼고|아니고|외)`), "세미나"},
		{regexp.MustCompile(`교육.*(말고|제외|빼고|아니고|외)`), "교육"},
	}

	locationPatterns = []struct {
		pattern    *regexp.Regexp
		normalized string
	}{
		{regexp.MustCompile(`양재\s*aT\s*센터`), "양재 aT센터"},
		{regexp.MustCompile(`서울대`), "서울대"},
		{regexp.MustCompile(`코엑스`), "코엑스"},
		{regexp.MustCompile(`벡스코`), "벡스코"},
		{regexp.MustCompile(`SC\s*컨벤션`), "SC 컨벤션센터"},
		{regexp.MustCompile(`성모병원`), "성모병원"},
		{regexp.MustCompile(`중앙대`), "중앙대"},
	}

	regAvailablePattern   = regexp.MustCompile(`등록.*(가능|신청|접수)|지금.*(신청|등록)|당장.*(신청|등록)`)
	regClosingSoonPattern = regexp.MustCompile(`등록.*(마감|임박)|마감.*(임박|급|곧)|일주일.*(안|내).*마감`)
	regUpcomingPattern    = regexp.MustCompile(`등록.*(전|대기|시작.*전)|아직.*등록.*(안|전)`)
	regExcludePattern     = regexp.MustCompile(`등록.*(마감|끝|지난).*(제외|빼)|마감.*제외`)

	multiDayPattern  = regexp.MustCompile(`며칠|여러\s*날|장기|이틀|[23]일|연속|동안\s*진행`)
	singleDayPattern = regexp.MustCompile(`하루|당일|단기|하루\s*만`)

	timeBasedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`가장\s*빠른`),
		regexp.MustCompile(`가장\s*빨리`),
		regexp.MustCompile(`가장\s*가까운`),
		regexp.MustCompile(`오늘\s*이후`),
		regexp.MustCompile(`내일\s*이후`),
		regexp.MustCompile(`다음\s*행사`),
		regexp.MustCompile(`가까운\s*행사`),
		regexp.MustCompile(`다가오는`),
		regexp.MustCompile(`예정된`),
		regexp.MustCompile(`곧\s*있는`),
		regexp.MustCompile(`앞으로`),
		regexp.MustCompile(`오늘\s*기준`),
		regexp.MustCompile(`이번\s*달`),
		regexp.MustCompile(`이번\s*주`),
	}
)

// registration status keywords parsed out of questions.
type regStatus int

const (
	regNone regStatus = iota
	regAvailable
	regClosingSoon
	regUpcoming
	regExcludeClosed
)

// parseDates extracts year, single month and month range from the question.
// A month range (half-year, quarter, explicit span) takes precedence over a
// single month mention.
func parseDates(query string) (year, month int, months []int) {
	if m := yearPattern.FindStringSubmatch(query); m != nil {
		year, _ = strconv.Atoi(m[1])
	}

	switch {
	case firstHalfPattern.MatchString(query):
		months = []int{1, 2, 3, 4, 5, 6}
	case secondHalfPattern.MatchString(query):
		months = []int{7, 8, 9, 10, 11, 12}
	default:
		for _, qp := range quarterPatterns {
			if qp.pattern.MatchString(query) {
				months = qp.months
				break
			}
		}
	}

	if m := monthRangePattern.FindStringSubmatch(query); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if start >= 1 && end <= 12 && start <= end {
			months = nil
			for i := start; i <= end; i++ {
				months = append(months, i)
			}
		}
	}

	if months == nil {
		if m := monthPattern.FindStringSubmatch(query); m != nil {
			month, _ = strconv.Atoi(m[1])
		}
	}

	return year, month, months
}

func parseCategory(query string) string {
	for _, cp := range queryCategoryPatterns {
		if cp.pattern.MatchString(query) {
			return cp.category
		}
	}
	return ""
}

func parseExclusion(query string) string {
	for _, ep := range exclusionPatterns {
		if ep.pattern.MatchString(query) {
			return ep.category
		}
	}
	return ""
}

// parseLocation extracts a venue keyword. Venue matching happens in
// post-processing because the vector store has no substring condition.
func parseLocation(query string) string {
	for _, lp := range locationPatterns {
		if lp.pattern.MatchString(query) {
			return lp.normalized
		}
	}
	return ""
}

// parseWeekend returns a weekend flag: true for weekend-only, false for
// weekday-only, nil when the question does not constrain it.
func parseWeekend(query string) *bool {
	if weekendPattern.MatchString(query) {
		v := true
		return &v
	}
	if weekdayPattern.MatchString(query) {
		v := false
		return &v
	}
	return nil
}

func parseRegistration(query string) regStatus {
	switch {
	case regAvailablePattern.MatchString(query):
		return regAvailable
	case regClosingSoonPattern.MatchString(query):
		return regClosingSoon
	case regUpcomingPattern.MatchString(query):
		return regUpcoming
	case regExcludePattern.MatchString(query):
		return regExcludeClosed
	default:
		return regNone
	}
}

// parseDuration returns (minDays, maxDays). Zero means unconstrained.
func parseDuration(query string) (int, int) {
	if multiDayPattern.MatchString(query) {
		return 2, 0
	}
	if singleDayPattern.MatchString(query) {
		return 1, 1
	}
	return 0, 0
}

// isTimeBased reports whether the question asks about upcoming events
// relative to today.
func isTimeBased(query string) bool {
	for _, p := range timeBasedPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}

func todayInt(now time.Time) int64 {
	return int64(now.Year())*10000 + int64(now.Month())*100 + int64(now.Day())
}

// BuildConditions extracts every structural condition from a question.
// now anchors "today" for registration and upcoming-event conditions.
func BuildConditions(query string, now time.Time) QueryConditions {
	var f vectorstore.Filter

	year, month, months := parseDates(query)
	f.Year = year
	f.Month = month
	f.Months = months

	f.Category = parseCategory(query)
	f.NotCategory = parseExclusion(query)
	f.Weekend = parseWeekend(query)
	f.MinDurationDays, f.MaxDurationDays = parseDuration(query)

	today := todayInt(now)
	switch parseRegistration(query) {
	case regAvailable:
		f.RegStartLTE = today
		f.RegEndGTE = today
	case regClosingSoon:
		weekLater := todayInt(now.AddDate(0, 0, 7))
		f.RegEndGTE = today
		f.RegEndLTE = weekLater
	case regUpcoming:
		f.RegStartGT = today
	case regExcludeClosed:
		f.RegEndGTE = today
	}

	timeBased := isTimeBased(query)
	if timeBased && !mentionsPastDate(year, month, months, now) {
		f.StartDateFrom = today
	}

	return QueryConditions{
		Filter:    f,
		Location:  parseLocation(query),
		TimeBased: timeBased,
	}
}

// mentionsPastDate reports whether the year/month the user named lies in the
// past. "2024년 행사 중 가장 빠른" should not get an upcoming-only filter.
func mentionsPastDate(year, month int, months []int, now time.Time) bool {
	if year == 0 {
		return false
	}

	lastMonth := month
	for _, m := range months {
		if m > lastMonth {
			lastMonth = m
		}
	}
	if lastMonth == 0 {
		return year < now.Year()
	}

	// The 28th is in every month, good enough for a past/future check.
	queryDate := int64(year)*10000 + int64(lastMonth)*100 + 28
	return queryDate < todayInt(now)
}

// DescribeConditions renders the applied conditions for users, e.g.
// "[적용된 필터: 2025년, 4월, 카테고리: 심포지엄]". Empty when nothing applied.
func DescribeConditions(query string, now time.Time) string {
	var parts []string

	year, month, months := parseDates(query)
	if year != 0 {
		parts = append(parts, fmt.Sprintf("%d년", year))
	}
	if month != 0 {
		parts = append(parts, fmt.Sprintf("%d월", month))
	}
	if len(months) > 0 {
		parts = append(parts, fmt.Sprintf("%d월~%d월", months[0], months[len(months)-1]))
	}

	if weekend := parseWeekend(query); weekend != nil {
		if *weekend {
			parts = append(parts, "주말(토/일) 행사")
		} else {
			parts = append(parts, "평일 행사")
		}
	}

	if category := parseCategory(query); category != "" {
		parts = append(parts, "카테고리: "+category)
	}
	if exclusion := parseExclusion(query); exclusion != "" {
		parts = append(parts, exclusion+" 제외")
	}

	switch parseRegistration(query) {
	case regAvailable:
		parts = append(parts, "현재 등록 가능")
	case regClosingSoon:
		parts = append(parts, "등록 마감 임박")
	case regUpcoming:
		parts = append(parts, "등록 시작 전")
	}

	minDays, maxDays := parseDuration(query)
	if minDays >= 2 {
		parts = append(parts, "며칠간 진행 행사")
	} else if minDays == 1 && maxDays == 1 {
		parts = append(parts, "당일 행사")
	}

	if location := parseLocation(query); location != "" {
		parts = append(parts, "장소: "+location)
	}

	if isTimeBased(query) {
		parts = append(parts, "오늘 이후 행사")
	}

	if len(parts) == 0 {
		return ""
	}
	return "[적용된 필터: " + strings.Join(parts, ", ") + "]"
}
