package rag

import (
	"testing"

	"koqa/internal/vectorstore"
)

func TestQueryKeywords(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		contains []string
		empty    bool
	}{
		{
			name:     "korean term expands to english synonym",
			query:    "천식 관련 행사 알려줘",
			contains: []string{"천식", "asthma"},
		},
		{
			name:     "abbreviation expands to korean",
			query:    "COPD 심포지엄 언제야?",
			contains: []string{"COPD", "만성폐쇄성폐질환"},
		},
		{
			name:  "no domain keywords",
			query: "4월 행사 알려줘",
			empty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryKeywords(tt.query)
			if tt.empty {
				if len(got) != 0 {
					t.Errorf("queryKeywords() = %v, want empty", got)
				}
				return
			}
			for _, want := range tt.contains {
				found := false
				for _, k := range got {
					if k == want {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("queryKeywords() = %v, missing %q", got, want)
				}
			}
		})
	}
}

func TestBoostByKeywords(t *testing.T) {
	results := []vectorstore.SearchResult{
		{PointID: "plain", Score: 0.80, Meta: map[string]any{"keywords": "세미나"}},
		{PointID: "asthma", Score: 0.75, Meta: map[string]any{"keywords": "천식,심포지엄"}},
		{PointID: "untagged", Score: 0.70, Meta: map[string]any{}},
	}

	boosted := boostByKeywords(results, "천식 행사 알려줘", 0.1, 0.3)

	// 천식 matches directly plus via its synonyms; boost is capped but must
	// lift the tagged result above the plain one.
	if boosted[0].PointID != "asthma" {
		t.Errorf("top result = %s, want asthma", boosted[0].PointID)
	}
	if boosted[0].Score > 0.75+0.3+1e-6 {
		t.Errorf("boost exceeds cap: %f", boosted[0].Score)
	}

	// Input order must not be mutated.
	if results[0].PointID != "plain" || results[0].Score != 0.80 {
		t.Error("boostByKeywords() mutated its input")
	}
}

func TestBoostByKeywords_NoKeywordsInQuery(t *testing.T) {
	results := []vectorstore.SearchResult{
		{PointID: "a", Score: 0.9},
		{PointID: "b", Score: 0.8},
	}

	got := boostByKeywords(results, "4월 행사", 0.1, 0.3)
	if got[0].PointID != "a" || got[0].Score != 0.9 {
		t.Errorf("results changed without query keywords: %+v", got)
	}
}
