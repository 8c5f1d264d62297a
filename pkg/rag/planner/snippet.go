package planner

import (
	"sort"
	"strconv"
	"strings"

	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/rag/state"
)

// PersistNoticeDocID identifies the synthetic advisory snippet injected when a
// session ends or the user asks about saving the conversation.
const PersistNoticeDocID = "system:conversation_persist"

const fallbackSource = "policy_db"

// snippetSections fixes the order and labels of the sections a display snippet
// is assembled from. Absent sections are skipped; both absent yields an empty
// snippet.
var snippetSections = []struct {
	label  string
	getter func(*state.Snippet) string
}{
	{"[신청 요건]", func(s *state.Snippet) string { return s.Requirements }},
	{"[지원 내용]", func(s *state.Snippet) string { return s.Benefits }},
}

// toSnippet converts one scored document into the retrieval output shape.
func toSnippet(scored *contract.ScoredPolicyDocument) state.Snippet {
	doc := scored.Document

	snippet := state.Snippet{
		DocID: docID(doc.Id),
		Score: scored.Similarity,
	}
	if doc.Title != "" {
		snippet.Title = strings.TrimSpace(doc.Title)
	}
	snippet.Requirements = strings.TrimSpace(doc.Requirements)
	snippet.Benefits = strings.TrimSpace(doc.Benefits)
	snippet.Region = strings.TrimSpace(doc.Region)
	snippet.URL = strings.TrimSpace(doc.URL)

	snippet.Source = snippet.Region
	if snippet.Source == "" {
		snippet.Source = fallbackSource
	}

	var sections []string
	for _, section := range snippetSections {
		if text := section.getter(&snippet); text != "" {
			sections = append(sections, section.label+"\n"+text)
		}
	}
	snippet.Snippet = strings.Join(sections, "\n\n")

	return snippet
}

func docID(id int64) string {
	return "doc:" + strconv.FormatInt(id, 10)
}

// sortBySimilarity re-sorts snippets by descending score. The store already
// orders by ascending distance, but the sort is repeated here so rows without
// a score always land last regardless of backend behavior.
func sortBySimilarity(snippets []state.Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		si, sj := snippets[i].Score, snippets[j].Score
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si > *sj
	})
}

// persistNoticeSnippet is appended after any retrieved documents so the answer
// generator can mention persistence behavior at the right moment.
func persistNoticeSnippet() state.Snippet {
	score := 1.0
	return state.Snippet{
		DocID:   PersistNoticeDocID,
		Title:   "대화 저장 안내",
		Source:  "system",
		Snippet: "대화를 종료하면 저장 파이프라인이 자동 실행되어 대화 내용이 보관됩니다.",
		Score:   &score,
	}
}
