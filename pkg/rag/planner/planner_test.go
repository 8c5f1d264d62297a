package planner

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"welfare-chat-be/internal/entity"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/embedding"
	"welfare-chat-be/pkg/rag/state"
)

type fakeProfileRepo struct {
	profile    state.Profile
	collection []state.Triple
	profileErr error
	collErr    error
}

func (f *fakeProfileRepo) FetchProfile(ctx context.Context, profileId int64) (state.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeProfileRepo) FetchCollection(ctx context.Context, profileId int64) ([]state.Triple, error) {
	return f.collection, f.collErr
}

type fakeDocumentRepo struct {
	results      []*contract.ScoredPolicyDocument
	err          error
	calls        int
	lastRegion   string
	lastTopK     int
	lastEmbedLen int
}

func (f *fakeDocumentRepo) FindById(ctx context.Context, id int64) (*entity.PolicyDocument, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, topK int, regionFilter string) ([]*contract.ScoredPolicyDocument, error) {
	f.calls++
	f.lastRegion = regionFilter
	f.lastTopK = topK
	f.lastEmbedLen = len(emb)
	return f.results, f.err
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.Response{Values: []float32{0.1, 0.2, 0.3}}, nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestPlanner(profiles *fakeProfileRepo, docs *fakeDocumentRepo, emb *fakeEmbedder) *Planner {
	return NewPlanner(profiles, docs, emb, DefaultConfig(), testLogger())
}

func scoreOf(v float64) *float64 { return &v }

func scoredDoc(id int64, title, region string, score *float64) *contract.ScoredPolicyDocument {
	return &contract.ScoredPolicyDocument{
		Document: &entity.PolicyDocument{
			Id:           id,
			Title:        title,
			Requirements: "만 60세 이상",
			Benefits:     "본인부담금 일부 지원",
			Region:       region,
		},
		Similarity: score,
	}
}

func TestPlanPopulatesRetrieval(t *testing.T) {
	docs := &fakeDocumentRepo{results: []*contract.ScoredPolicyDocument{
		scoredDoc(7, "노인 임플란트 지원", "강남구", scoreOf(0.82)),
	}}
	p := newTestPlanner(&fakeProfileRepo{}, docs, &fakeEmbedder{})

	st := &state.TurnState{UserInput: "임플란트 지원 자격이 되나요?"}
	if rerr := p.Plan(context.Background(), st); rerr != nil {
		t.Fatalf("unexpected degradation: %v", rerr)
	}

	if st.Retrieval == nil {
		t.Fatal("retrieval block missing")
	}
	if !st.Retrieval.UsedRAG {
		t.Error("used_rag should default to true without a router")
	}
	if len(st.Retrieval.RAGSnippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(st.Retrieval.RAGSnippets))
	}
	sn := st.Retrieval.RAGSnippets[0]
	if sn.DocID != "doc:7" {
		t.Errorf("doc_id = %q", sn.DocID)
	}
	if sn.Source != "강남구" {
		t.Errorf("source = %q, want region", sn.Source)
	}
	if len(st.Retrieval.Keywords) == 0 {
		t.Error("keywords empty")
	}
	if docs.lastTopK != DefaultTopK {
		t.Errorf("topK = %d", docs.lastTopK)
	}
}

func TestPlanRouterDisablesRAG(t *testing.T) {
	docs := &fakeDocumentRepo{}
	emb := &fakeEmbedder{}
	p := newTestPlanner(&fakeProfileRepo{}, docs, emb)

	useRAG := false
	st := &state.TurnState{
		UserInput: "안녕하세요!",
		Router:    &state.RouterDecision{UseRAG: &useRAG},
	}
	if rerr := p.Plan(context.Background(), st); rerr != nil {
		t.Fatalf("unexpected degradation: %v", rerr)
	}

	if st.Retrieval.UsedRAG {
		t.Error("router said no, used_rag must be false")
	}
	if emb.calls != 0 || docs.calls != 0 {
		t.Error("no embed/search may run when retrieval is off")
	}
	if st.Retrieval.RAGSnippets == nil || len(st.Retrieval.RAGSnippets) != 0 {
		t.Errorf("snippets must be empty non-nil, got %v", st.Retrieval.RAGSnippets)
	}
}

func TestPlanHeuristicGate(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"trigger word present", "지원 대상이 궁금해요", true},
		{"chit chat", "오늘 날씨 좋네요", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Router present but undecided.
			router := &state.RouterDecision{}
			if got := decideUseRAG(router, tt.query); got != tt.want {
				t.Errorf("decideUseRAG(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestPlanContextFusion(t *testing.T) {
	pid := int64(42)
	profiles := &fakeProfileRepo{
		profile: state.Profile{
			"age":       {Value: "62", Confidence: 0.9},
			"region_gu": {Value: "강남구", Confidence: 0.8},
		},
		collection: []state.Triple{
			{Subject: "self", Predicate: "disease", Object: "고혈압"},
		},
	}
	docs := &fakeDocumentRepo{}
	p := newTestPlanner(profiles, docs, &fakeEmbedder{})

	st := &state.TurnState{
		UserInput: "임플란트 지원 되나요",
		ProfileID: &pid,
		EphemeralProfile: state.Profile{
			"age": {Value: "63", Confidence: 0.95},
		},
		EphemeralCollection: []state.Triple{
			{Subject: "self", Predicate: "disease", Object: "당뇨병"},
		},
	}
	if rerr := p.Plan(context.Background(), st); rerr != nil {
		t.Fatalf("unexpected degradation: %v", rerr)
	}

	if got := st.Retrieval.ProfileCtx["age"].Value; got != "63" {
		t.Errorf("fused age = %q, want ephemeral 63", got)
	}
	if got := st.Retrieval.ProfileCtx["region_gu"].Value; got != "강남구" {
		t.Errorf("fused region_gu = %q", got)
	}
	if len(st.Retrieval.CollectionCtx) != 2 {
		t.Fatalf("fused triples = %d, want 2", len(st.Retrieval.CollectionCtx))
	}
	if st.Retrieval.CollectionCtx[0].Object != "고혈압" {
		t.Error("persisted triples must come first")
	}
	if docs.lastRegion != "강남구" {
		t.Errorf("region filter = %q, want 강남구", docs.lastRegion)
	}
}

func TestPlanRegionSanitization(t *testing.T) {
	tests := []struct {
		name    string
		profile state.Profile
		want    string
	}{
		{
			"sgg code preferred",
			state.Profile{
				"residency_sgg_code": {Value: "11680"},
				"region_gu":          {Value: "강남구"},
			},
			"11680",
		},
		{
			"region_gu fallback trimmed",
			state.Profile{"region_gu": {Value: "  강남구 "}},
			"강남구",
		},
		{
			"whitespace only reads as absent",
			state.Profile{"residency_sgg_code": {Value: "   "}},
			"",
		},
		{
			"no residency fields",
			state.Profile{"age": {Value: "62"}},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveRegionFilter(tt.profile); got != tt.want {
				t.Errorf("deriveRegionFilter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanDegradesOnEmbedFailure(t *testing.T) {
	docs := &fakeDocumentRepo{}
	p := newTestPlanner(&fakeProfileRepo{}, docs, &fakeEmbedder{err: errors.New("ollama down")})

	st := &state.TurnState{UserInput: "임플란트 지원 자격"}
	rerr := p.Plan(context.Background(), st)

	if rerr == nil || rerr.Stage != "embed" {
		t.Fatalf("expected embed degradation, got %v", rerr)
	}
	if st.Retrieval == nil {
		t.Fatal("retrieval block must exist on a degraded turn")
	}
	if len(st.Retrieval.RAGSnippets) != 0 {
		t.Error("snippets must be empty after embed failure")
	}
	if len(st.Retrieval.Keywords) == 0 {
		t.Error("keywords must survive a search failure")
	}
	if docs.calls != 0 {
		t.Error("search must not run after embed failure")
	}
}

func TestPlanDegradesOnSearchFailure(t *testing.T) {
	docs := &fakeDocumentRepo{err: errors.New("pg down")}
	p := newTestPlanner(&fakeProfileRepo{}, docs, &fakeEmbedder{})

	st := &state.TurnState{UserInput: "임플란트 지원 자격"}
	rerr := p.Plan(context.Background(), st)

	if rerr == nil || rerr.Stage != "search" {
		t.Fatalf("expected search degradation, got %v", rerr)
	}
	if len(st.Retrieval.RAGSnippets) != 0 {
		t.Error("snippets must be empty after search failure")
	}
}

func TestPlanDegradesOnProfileFetchFailure(t *testing.T) {
	pid := int64(1)
	profiles := &fakeProfileRepo{profileErr: errors.New("pg down")}
	docs := &fakeDocumentRepo{}
	p := newTestPlanner(profiles, docs, &fakeEmbedder{})

	st := &state.TurnState{
		UserInput: "임플란트 지원 자격",
		ProfileID: &pid,
		EphemeralProfile: state.Profile{
			"age": {Value: "62", Confidence: 0.9},
		},
	}
	rerr := p.Plan(context.Background(), st)

	if rerr == nil || rerr.Stage != "fetch_profile" {
		t.Fatalf("expected fetch_profile degradation, got %v", rerr)
	}
	// Ephemeral-only fusion still happens.
	if st.Retrieval.ProfileCtx["age"].Value != "62" {
		t.Error("ephemeral overlay lost on fetch failure")
	}
	if docs.calls != 1 {
		t.Error("search should still run after a profile fetch failure")
	}
}

func TestPlanPersistNoticeOnSessionEnd(t *testing.T) {
	docs := &fakeDocumentRepo{results: []*contract.ScoredPolicyDocument{
		scoredDoc(1, "틀니 지원", "", scoreOf(0.7)),
	}}
	p := newTestPlanner(&fakeProfileRepo{}, docs, &fakeEmbedder{})

	st := &state.TurnState{UserInput: "틀니 지원 자격", EndSession: true}
	if rerr := p.Plan(context.Background(), st); rerr != nil {
		t.Fatalf("unexpected degradation: %v", rerr)
	}

	snippets := st.Retrieval.RAGSnippets
	if len(snippets) != 2 {
		t.Fatalf("snippets = %d, want doc + notice", len(snippets))
	}
	last := snippets[len(snippets)-1]
	if last.DocID != PersistNoticeDocID {
		t.Errorf("last snippet = %q, notice must come after documents", last.DocID)
	}
	if last.Title != "대화 저장 안내" {
		t.Errorf("notice title = %q", last.Title)
	}
	if last.Score == nil || *last.Score != 1.0 {
		t.Errorf("notice score = %v, want 1.0", last.Score)
	}
}

func TestPlanPersistNoticeOnSaveIntent(t *testing.T) {
	useRAG := false
	p := newTestPlanner(&fakeProfileRepo{}, &fakeDocumentRepo{}, &fakeEmbedder{})

	st := &state.TurnState{
		UserInput: "이 대화 저장해 주세요",
		Router:    &state.RouterDecision{UseRAG: &useRAG},
	}
	if rerr := p.Plan(context.Background(), st); rerr != nil {
		t.Fatalf("unexpected degradation: %v", rerr)
	}

	// Retrieval disabled, but the notice is still appended.
	if len(st.Retrieval.RAGSnippets) != 1 {
		t.Fatalf("snippets = %d, want only the notice", len(st.Retrieval.RAGSnippets))
	}
	if st.Retrieval.RAGSnippets[0].DocID != PersistNoticeDocID {
		t.Errorf("snippet = %q", st.Retrieval.RAGSnippets[0].DocID)
	}
}
