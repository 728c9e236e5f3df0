package schema

import "strings"

// keywordSynonyms maps common medical/academic terms to their synonyms.
// Keys and values are matched case-insensitively during expansion.
var keywordSynonyms = map[string][]string{
	"COPD":     {"만성폐쇄성폐질환", "만성 폐쇄성 폐질환", "chronic obstructive pulmonary disease"},
	"천식":       {"asthma", "기관지천식"},
	"ILD":      {"간질성폐질환", "interstitial lung disease"},
	"NTM":      {"비결핵항산균", "nontuberculous mycobacteria"},
	"폐암":       {"lung cancer", "폐암"},
	"결핵":       {"TB", "tuberculosis"},
	"수면무호흡":    {"sleep apnea", "수면호흡장애"},
	"폐기능":      {"pulmonary function", "PFT"},
}

// Synonyms returns the keyword itself plus all known synonyms.
func Synonyms(keyword string) []string {
	synonyms := []string{keyword}

	keywordLower := strings.ToLower(keyword)
	for key, values := range keywordSynonyms {
		matched := strings.ToLower(key) == keywordLower
		if !matched {
			for _, v := range values {
				if strings.ToLower(v) == keywordLower {
					matched = true
					break
				}
			}
		}
		if matched {
			synonyms = append(synonyms, key)
			synonyms = append(synonyms, values...)
			break
		}
	}

	return dedupe(synonyms)
}

// ExpandKeywords expands each keyword with its synonyms and deduplicates the result.
func ExpandKeywords(keywords []string) []string {
	var expanded []string
	for _, keyword := range keywords {
		expanded = append(expanded, Synonyms(keyword)...)
	}
	return dedupe(expanded)
}

// dedupe removes duplicates while preserving first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}
