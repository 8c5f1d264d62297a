package planner

import (
	"context"
	"fmt"
	"log"
	"strings"

	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/embedding"
	"welfare-chat-be/pkg/rag/state"
)

// Defaults for the search and keyword parameters.
const (
	DefaultTopK        = 8
	DefaultMaxKeywords = 8
)

// RetrievalError is a degraded-but-valid outcome: the turn continues with
// whatever was computed before the failure. It never crosses the pipeline
// boundary.
type RetrievalError struct {
	Stage string // "fetch_profile", "fetch_collection", "embed" or "search"
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s failed: %v", e.Stage, e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// Config bounds the planner's search behavior.
type Config struct {
	TopK        int
	MaxKeywords int
}

// DefaultConfig returns the documented defaults: 8 documents, 8 keywords.
func DefaultConfig() Config {
	return Config{
		TopK:        DefaultTopK,
		MaxKeywords: DefaultMaxKeywords,
	}
}

// Planner fuses ephemeral and persisted context, decides whether retrieval is
// warranted this turn, and assembles ranked evidence snippets.
type Planner struct {
	profileRepo  contract.ProfileRepository
	documentRepo contract.PolicyDocumentRepository
	embedder     embedding.Provider
	config       Config
	logger       *log.Logger
}

// NewPlanner creates a retrieval planner.
func NewPlanner(
	profileRepo contract.ProfileRepository,
	documentRepo contract.PolicyDocumentRepository,
	embedder embedding.Provider,
	config Config,
	logger *log.Logger,
) *Planner {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.MaxKeywords <= 0 {
		config.MaxKeywords = DefaultMaxKeywords
	}
	return &Planner{
		profileRepo:  profileRepo,
		documentRepo: documentRepo,
		embedder:     embedder,
		config:       config,
		logger:       logger,
	}
}

// Plan runs once per turn, after extraction. The returned *RetrievalError
// reports the first degradation for observability; st.Retrieval is always
// populated regardless.
func (p *Planner) Plan(ctx context.Context, st *state.TurnState) *RetrievalError {
	query := strings.TrimSpace(st.UserInput)

	var firstErr *RetrievalError
	record := func(stage string, cause error) {
		p.logger.Printf("[PLANNER] %s failed: %v", stage, cause)
		st.AppendTrace("[planner] "+stage+" failed", map[string]interface{}{
			"error": cause.Error(),
		})
		if firstErr == nil {
			firstErr = &RetrievalError{Stage: stage, Cause: cause}
		}
	}

	// 1. Context fusion: persisted profile/collection under the ephemeral
	// overlay. A fetch failure reads as "nothing persisted".
	var persistedProfile state.Profile
	var persistedCollection []state.Triple
	if st.ProfileID != nil {
		var err error
		persistedProfile, err = p.profileRepo.FetchProfile(ctx, *st.ProfileID)
		if err != nil {
			record("fetch_profile", err)
			persistedProfile = nil
		}
		persistedCollection, err = p.profileRepo.FetchCollection(ctx, *st.ProfileID)
		if err != nil {
			record("fetch_collection", err)
			persistedCollection = nil
		}
	}
	mergedProfile := state.MergeProfile(persistedProfile, st.EphemeralProfile)
	mergedCollection := state.MergeCollection(persistedCollection, st.EphemeralCollection)

	// 2. Retrieval gate
	useRAG := decideUseRAG(st.Router, query)

	// 3. Keywords are computed regardless of the gate, for observability.
	keywords := ExtractKeywords(query, p.config.MaxKeywords)

	// 4-7. Embed, search, assemble. Any failure downgrades to "keywords only".
	snippets := []state.Snippet{}
	if useRAG && query != "" {
		snippets = p.searchDocuments(ctx, query, mergedProfile, record)
	}

	// 8. Session-end / save-intent advisory, appended after retrieved docs
	// even when retrieval was disabled.
	if st.EndSession || containsAny(query, saveIntentWords) {
		snippets = append(snippets, persistNoticeSnippet())
	}

	st.Retrieval = &state.Retrieval{
		UsedRAG:       useRAG,
		ProfileCtx:    mergedProfile,
		CollectionCtx: mergedCollection,
		RAGSnippets:   snippets,
		Keywords:      keywords,
	}

	st.AppendTrace("[planner] retrieval planned", map[string]interface{}{
		"used_rag": useRAG,
		"snippets": len(snippets),
		"keywords": keywords,
	})
	return firstErr
}

// searchDocuments runs the embed + vector search + assembly path. On failure
// it returns an empty slice after recording the cause.
func (p *Planner) searchDocuments(
	ctx context.Context,
	query string,
	mergedProfile state.Profile,
	record func(stage string, cause error),
) []state.Snippet {
	regionFilter := deriveRegionFilter(mergedProfile)
	if regionFilter == "" {
		p.logger.Printf("[PLANNER] region filter empty or missing; searching unfiltered")
	}

	embedded, err := p.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		record("embed", err)
		return []state.Snippet{}
	}

	scored, err := p.documentRepo.SearchSimilarWithScore(ctx, embedded.Values, p.config.TopK, regionFilter)
	if err != nil {
		record("search", err)
		return []state.Snippet{}
	}

	snippets := make([]state.Snippet, 0, len(scored))
	for _, doc := range scored {
		if doc == nil || doc.Document == nil {
			continue
		}
		snippets = append(snippets, toSnippet(doc))
	}
	sortBySimilarity(snippets)

	p.logger.Printf("[PLANNER] vector search returned %d documents (region=%q)", len(snippets), regionFilter)
	return snippets
}

// decideUseRAG honors an explicit router flag; with a router present but
// undecided it falls back to the trigger-word heuristic; with no router at all
// retrieval stays enabled.
func decideUseRAG(router *state.RouterDecision, query string) bool {
	if router == nil {
		return true
	}
	if router.UseRAG != nil {
		return *router.UseRAG
	}
	return containsAny(strings.ToLower(query), ragTriggerWords)
}

// deriveRegionFilter inspects the merged profile for a residency field,
// preferring residency_sgg_code over the region_gu alias. Whitespace-only
// values read as absent.
func deriveRegionFilter(profile state.Profile) string {
	for _, name := range []string{"residency_sgg_code", "region_gu"} {
		if field, ok := profile[name]; ok {
			if value := strings.TrimSpace(field.Value); value != "" {
				return value
			}
		}
	}
	return ""
}
