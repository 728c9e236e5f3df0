package rag

import (
	"regexp"
	"sort"
	"strings"

	"koqa/internal/schema"
	"koqa/internal/vectorstore"
)

// queryKeywordPattern matches the domain terms worth boosting on.
// Kept in sync with the terms the indexer extracts into chunk keywords.
var queryKeywordPattern = regexp.MustCompile(`(?i)(천식|COPD|ILD|NTM|폐암|결핵|폐기능|수면무호흡|수면|호흡|금연|기침|폐혈관|기관지확장증|감염병|환경성폐질환|분자폐암)`)

// queryKeywords extracts the domain keywords from a question, expanded
// through the synonym table. "COPD 행사" then also matches chunks tagged
// 만성폐쇄성폐질환.
func queryKeywords(query string) []string {
	matches := queryKeywordPattern.FindAllString(query, -1)
	if len(matches) == 0 {
		return nil
	}
	return schema.ExpandKeywords(matches)
}

// boostByKeywords reranks similarity results by adding weight for every
// expanded query keyword found in a chunk's keyword tags, capped at maxBoost.
// Results are returned sorted by boosted score, highest first.
func boostByKeywords(results []vectorstore.SearchResult, query string, weight, maxBoost float64) []vectorstore.SearchResult {
	keywords := queryKeywords(query)
	if len(keywords) == 0 || weight == 0 {
		return results
	}

	boosted := make([]vectorstore.SearchResult, len(results))
	copy(boosted, results)

	for i := range boosted {
		tags, _ := boosted[i].Meta["keywords"].(string)
		if tags == "" {
			continue
		}
		tagsLower := strings.ToLower(tags)

		boost := 0.0
		for _, keyword := range keywords {
			if strings.Contains(tagsLower, strings.ToLower(keyword)) {
				boost += weight
			}
		}
		if boost > maxBoost {
			boost = maxBoost
		}
		boosted[i].Score += float32(boost)
	}

	sort.SliceStable(boosted, func(a, b int) bool {
		return boosted[a].Score > boosted[b].Score
	})
	return boosted
}
