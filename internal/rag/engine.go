package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"koqa/internal/contextutil"
	"koqa/internal/llm"
	"koqa/internal/vectorstore"
)

// Answers returned without consulting the LLM.
const (
	noFilterMatchAnswer = "해당 조건에 맞는 문서를 찾을 수 없습니다."
	noSearchMatchAnswer = "해당 정보를 찾을 수 없습니다."
)

// Failure classes returned by Ask. Callers map them to responses with
// errors.Is.
var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrRetrieval     = errors.New("failed to retrieve documents")
	ErrEmbedding     = errors.New("failed to embed question")
	ErrGeneration    = errors.New("failed to generate answer")
)

// Engine answers questions over the indexed documents.
type Engine struct {
	vectorStore vectorstore.VectorStore
	embedder    llm.Embedder
	chat        llm.ChatClient
	collection  string

	retrievalK  int
	boostWeight float64
	maxBoost    float64

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a new answer engine.
func NewEngine(
	vectorStore vectorstore.VectorStore,
	embedder llm.Embedder,
	chat llm.ChatClient,
	collection string,
	retrievalK int,
	boostWeight, maxBoost float64,
) *Engine {
	return &Engine{
		vectorStore: vectorStore,
		embedder:    embedder,
		chat:        chat,
		collection:  collection,
		retrievalK:  retrievalK,
		boostWeight: boostWeight,
		maxBoost:    maxBoost,
		now:         time.Now,
	}
}

// Ask answers a question. Questions with structural conditions (dates,
// categories, venues, registration status) retrieve every matching document
// via the filter path; everything else uses similarity search with keyword
// boosting. debug attaches retrieval internals to the response.
func (e *Engine) Ask(ctx context.Context, question string, debug bool) (*AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	now := e.now()
	conditions := BuildConditions(question, now)

	if conditions.HasAny() {
		return e.askFiltered(ctx, question, conditions, now, debug)
	}
	return e.askSimilarity(ctx, question, now, debug)
}

// askFiltered retrieves every document matching the extracted conditions.
// A top-k similarity cut would silently drop events from listing questions
// like "4월 심포지엄 전부 알려줘", so the filter path scrolls the full match
// set instead.
func (e *Engine) askFiltered(ctx context.Context, question string, conditions QueryConditions, now time.Time, debug bool) (*AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	points, err := e.vectorStore.ScrollAll(ctx, e.collection, &conditions.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	points = filterByLocation(points, conditions.Location)

	logger.InfoContext(ctx, "filtered retrieval", "matched", len(points), "location", conditions.Location, "time_based", conditions.TimeBased)

	filterDesc := DescribeConditions(question, now)

	if len(points) == 0 {
		resp := &AskResponse{Answer: noFilterMatchAnswer}
		if debug {
			resp.Debug = &DebugInfo{Mode: "filter", FilterDescription: filterDesc}
		}
		return resp, nil
	}

	if conditions.TimeBased {
		sortByDate(points)
	}

	total := len(points)
	shown := total
	if shown > e.retrievalK {
		shown = e.retrievalK
	}
	contextBlock := formatContext(points, e.retrievalK, now)

	var prompt strings.Builder
	if filterDesc != "" {
		prompt.WriteString(filterDesc + "\n")
	}
	fmt.Fprintf(&prompt, "다음은 질문 조건에 맞는 문서 %d개 중 %d개입니다:\n\n", total, shown)
	prompt.WriteString(contextBlock)
	prompt.WriteString("\n\n위 문서들은 이미 질문 조건에 맞게 필터링된 결과입니다.\n")
	prompt.WriteString("이 문서들을 바탕으로 답변하세요. 여러 개면 전부 나열하세요.\n")
	prompt.WriteString("반드시 한국어로만 답변하세요.\n\n")
	fmt.Fprintf(&prompt, "질문: %s\n\n답변:", question)

	answer, err := e.chat.Chat(ctx, systemPrompt(now), prompt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	resp := &AskResponse{
		Answer:     answer,
		References: pointReferences(points, e.retrievalK),
	}
	if debug {
		resp.Debug = &DebugInfo{
			Mode:              "filter",
			FilterDescription: filterDesc,
			Matched:           total,
			Context:           contextBlock,
		}
	}
	return resp, nil
}

// askSimilarity embeds the question and runs top-k vector search with
// keyword-boosted reranking.
func (e *Engine) askSimilarity(ctx context.Context, question string, now time.Time, debug bool) (*AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	vec, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	results, err := e.vectorStore.Search(ctx, e.collection, vec, e.retrievalK, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, err)
	}

	logger.InfoContext(ctx, "similarity retrieval", "matched", len(results))

	if len(results) == 0 {
		resp := &AskResponse{Answer: noSearchMatchAnswer}
		if debug {
			resp.Debug = &DebugInfo{Mode: "similarity"}
		}
		return resp, nil
	}

	results = boostByKeywords(results, question, e.boostWeight, e.maxBoost)
	points := searchResultsToPoints(results)
	contextBlock := formatContext(points, e.retrievalK, now)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "오늘 날짜: %s\n\n", koreanDate(now))
	prompt.WriteString("다음은 질문과 관련된 문서 내용입니다:\n\n")
	prompt.WriteString(contextBlock)
	prompt.WriteString("\n\n위 문서 내용을 바탕으로 다음 질문에 답변하세요.\n")
	prompt.WriteString("- 여러 항목이 있으면 전부 나열하세요.\n")
	prompt.WriteString("- 반드시 한국어로만 답변하세요.\n")
	fmt.Fprintf(&prompt, "- \"오늘\", \"가장 빠른\" 등은 오늘 날짜(%s) 기준입니다.\n\n", koreanDate(now))
	fmt.Fprintf(&prompt, "질문: %s\n\n답변:", question)

	answer, err := e.chat.Chat(ctx, systemPrompt(now), prompt.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	resp := &AskResponse{
		Answer:     answer,
		References: searchReferences(results, e.retrievalK),
	}
	if debug {
		resp.Debug = &DebugInfo{
			Mode:    "similarity",
			Matched: len(results),
			Context: contextBlock,
		}
	}
	return resp, nil
}

// koreanDate formats a date as "2025년 4월 5일".
func koreanDate(t time.Time) string {
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

// systemPrompt builds the system prompt anchored to today's date.
func systemPrompt(now time.Time) string {
	today := koreanDate(now)
	todayISO := now.Format("2006-01-02")

	return fmt.Sprintf(`당신은 사내 문서를 기반으로 질문에 답변하는 한국어 AI 어시스턴트입니다.

## 기준 정보
- 오늘 날짜: %s (%s)
- 이 날짜를 기준으로 과거/미래, 등록 가능 여부 등을 판단하세요.

## 필수 규칙
1. 모든 답변은 반드시 한국어로만 작성하세요.
2. 검색된 문서에 없는 내용은 절대 지어내지 마세요.
3. 정보가 없으면 "해당 정보를 찾을 수 없습니다"라고 답변하세요.
4. 행사명, 고유명사, 장소명 등은 원문 그대로 유지하세요.

## 등록 상태 판단 기준 (오늘: %s)
- "등록 가능": 오늘이 등록시작일과 등록마감일 사이
- "마감 임박": 등록마감일이 7일 이내
- "등록 전": 등록시작일이 오늘 이후
- "마감됨": 등록마감일이 오늘 이전

## 답변 형식
- 여러 항목: 번호 매겨서 빠짐없이 전부 나열
- 표 요청 시: Markdown 표 형식 (| 컬럼1 | 컬럼2 |)
- URL 있으면: 함께 제공
- 등록기간 있으면: 함께 안내

## 중요: 필터링된 결과 처리
- 제공된 문서는 이미 질문 조건에 맞게 필터링된 결과입니다.
- 사용자가 "등록 가능한" 등 등록 상태를 명시하지 않았다면, 등록 마감 여부와 관계없이 모든 문서를 답변에 포함하세요.
- 등록상태는 참고 정보일 뿐, 답변에서 제외하는 기준이 아닙니다.

## 모호한 질문 처리
- "그거", "거기" 등 대상이 불명확하면 되물어보세요.
- 예: "어떤 행사를 말씀하시는 건가요?"
`, today, todayISO, todayISO)
}

// pointReferences builds the reference list from scrolled points.
func pointReferences(points []vectorstore.ScrolledPoint, max int) []Reference {
	if len(points) > max {
		points = points[:max]
	}
	refs := make([]Reference, 0, len(points))
	for _, p := range points {
		refs = append(refs, Reference{
			Title:   metaString(p.Meta, "title"),
			Source:  metaString(p.Meta, "source"),
			Section: metaString(p.Meta, "section"),
		})
	}
	return refs
}

// searchReferences builds the reference list from similarity results.
func searchReferences(results []vectorstore.SearchResult, max int) []Reference {
	if len(results) > max {
		results = results[:max]
	}
	refs := make([]Reference, 0, len(results))
	for _, r := range results {
		refs = append(refs, Reference{
			Title:   metaString(r.Meta, "title"),
			Source:  metaString(r.Meta, "source"),
			Section: metaString(r.Meta, "section"),
			Score:   r.Score,
		})
	}
	return refs
}
