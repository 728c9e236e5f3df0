package schema

import (
	"testing"
)

func TestSynonyms(t *testing.T) {
	tests := []struct {
		name        string
		keyword     string
		wantContain []string
	}{
		{
			name:        "known abbreviation",
			keyword:     "COPD",
			wantContain: []string{"COPD", "만성폐쇄성폐질환"},
		},
		{
			name:        "case insensitive match",
			keyword:     "copd",
			wantContain: []string{"COPD", "만성폐쇄성폐질환"},
		},
		{
			name:        "korean term maps back to abbreviation",
			keyword:     "간질성폐질환",
			wantContain: []string{"ILD", "간질성폐질환"},
		},
		{
			name:        "unknown keyword returns itself",
			keyword:     "호흡기",
			wantContain: []string{"호흡기"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Synonyms(tt.keyword)
			set := make(map[string]struct{}, len(got))
			for _, s := range got {
				set[s] = struct{}{}
			}
			for _, want := range tt.wantContain {
				if _, ok := set[want]; !ok {
					t.Errorf("Synonyms(%q) = %v, missing %q", tt.keyword, got, want)
				}
			}
		})
	}
}

func TestSynonyms_NoDuplicates(t *testing.T) {
	got := Synonyms("폐암") // "폐암" appears in its own synonym list
	seen := make(map[string]int)
	for _, s := range got {
		seen[s]++
	}
	for s, n := range seen {
		if n > 1 {
			t.Errorf("Synonyms(폐암) contains %q %d times", s, n)
		}
	}
}

func TestExpandKeywords(t *testing.T) {
	got := ExpandKeywords([]string{"천식", "결핵", "미등록키워드"})

	set := make(map[string]struct{}, len(got))
	for _, s := range got {
		set[s] = struct{}{}
	}

	for _, want := range []string{"천식", "asthma", "결핵", "TB", "미등록키워드"} {
		if _, ok := set[want]; !ok {
			t.Errorf("ExpandKeywords() = %v, missing %q", got, want)
		}
	}
}

func TestExpandKeywords_Empty(t *testing.T) {
	if got := ExpandKeywords(nil); len(got) != 0 {
		t.Errorf("ExpandKeywords(nil) = %v, want empty", got)
	}
}
