package planner

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// tokenPattern matches Hangul syllables and Latin/digit runs. Everything else
// (punctuation, whitespace, other scripts) separates tokens.
var tokenPattern = regexp.MustCompile(`[가-힣A-Za-z0-9]+`)

// stopwords are high-frequency conversational tokens that carry no retrieval
// signal in welfare-policy queries.
var stopwords = map[string]struct{}{
	"그리고": {},
	"하지만": {},
	"근데":  {},
	"가능":  {},
	"문의":  {},
	"신청":  {},
	"여부":  {},
	"있나요": {},
	"해당":  {},
}

// ragTriggerWords enable retrieval when the upstream router left use_rag
// undecided. Terms cover eligibility, support, benefit, target, requirement
// and co-payment phrasings.
var ragTriggerWords = []string{"자격", "지원", "혜택", "대상", "요건", "급여", "본인부담"}

// saveIntentWords trigger the conversation-persistence advisory snippet.
var saveIntentWords = []string{"저장", "보관", "기록"}

// ExtractKeywords tokenizes the query, lowercases, drops tokens shorter than
// two runes and stopwords, deduplicates preserving first-seen order and caps
// the result at maxK.
func ExtractKeywords(text string, maxK int) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	if maxK <= 0 {
		maxK = DefaultMaxKeywords
	}

	out := []string{}
	seen := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(text, -1) {
		token = strings.ToLower(token)
		if utf8.RuneCountInString(token) < 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
		if len(out) >= maxK {
			break
		}
	}
	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
