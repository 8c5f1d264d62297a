package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"welfare-chat-be/internal/entity"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/embedding"
	"welfare-chat-be/pkg/llm"
	"welfare-chat-be/pkg/rag/extract"
	"welfare-chat-be/pkg/rag/planner"
	"welfare-chat-be/pkg/rag/session"
	"welfare-chat-be/pkg/rag/state"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

type fakeProfileRepo struct{}

func (fakeProfileRepo) FetchProfile(ctx context.Context, profileId int64) (state.Profile, error) {
	return state.Profile{}, nil
}

func (fakeProfileRepo) FetchCollection(ctx context.Context, profileId int64) ([]state.Triple, error) {
	return nil, nil
}

type fakeDocumentRepo struct {
	err error
}

func (f *fakeDocumentRepo) FindById(ctx context.Context, id int64) (*entity.PolicyDocument, error) {
	return nil, nil
}

func (f *fakeDocumentRepo) SearchSimilarWithScore(ctx context.Context, emb []float32, topK int, regionFilter string) ([]*contract.ScoredPolicyDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	score := 0.8
	return []*contract.ScoredPolicyDocument{{
		Document: &entity.PolicyDocument{
			Id:           1,
			Title:        "노인 임플란트 지원",
			Requirements: "만 65세 이상",
			Benefits:     "본인부담금 지원",
		},
		Similarity: &score,
	}}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(text string, taskType string) (*embedding.Response, error) {
	return &embedding.Response{Values: []float32{0.1, 0.2}}, nil
}

const extractionResponse = `{
  "profile": {"age": {"value": "67", "confidence": 0.9}},
  "collection": {"triples": []}
}`

func newTestPipeline(docErr error) *Pipeline {
	logger := log.New(io.Discard, "", 0)
	controller := session.NewController(session.DefaultLimits(), logger)
	extractor := extract.NewExtractor(&fakeLLM{response: extractionResponse}, logger)
	retrievalPlanner := planner.NewPlanner(
		fakeProfileRepo{},
		&fakeDocumentRepo{err: docErr},
		fakeEmbedder{},
		planner.DefaultConfig(),
		logger,
	)
	return NewPipeline(controller, extractor, retrievalPlanner, logger)
}

func TestExecuteCleanTurn(t *testing.T) {
	p := newTestPipeline(nil)

	st := &state.TurnState{
		UserInput: "67세인데 임플란트 지원 자격이 되나요?",
		Router:    &state.RouterDecision{SaveProfile: true},
	}
	report := p.Execute(context.Background(), st)

	if report.Degraded() {
		t.Fatalf("clean turn reported degraded: %+v", report)
	}
	if st.SessionID == "" {
		t.Error("session id not synthesized")
	}
	if st.TurnCount != 1 {
		t.Errorf("turn count = %d", st.TurnCount)
	}
	if st.EphemeralProfile["age"].Value != "67" {
		t.Errorf("extraction did not run: %v", st.EphemeralProfile)
	}
	if st.Retrieval == nil || len(st.Retrieval.RAGSnippets) != 1 {
		t.Errorf("retrieval did not run: %+v", st.Retrieval)
	}
}

func TestExecuteDegradedTurnStillCompletes(t *testing.T) {
	p := newTestPipeline(errors.New("pg down"))

	st := &state.TurnState{UserInput: "임플란트 지원 자격"}
	report := p.Execute(context.Background(), st)

	if !report.Degraded() {
		t.Fatal("search failure must surface in the report")
	}
	if report.RetrievalErr == nil || report.RetrievalErr.Stage != "search" {
		t.Errorf("retrieval err = %v", report.RetrievalErr)
	}
	if st.Retrieval == nil {
		t.Fatal("retrieval block must exist even degraded")
	}
	if st.TurnCount != 1 {
		t.Errorf("lifecycle must still run: turn = %d", st.TurnCount)
	}
}

func TestExecuteStatePassesBetweenTurns(t *testing.T) {
	p := newTestPipeline(nil)

	st := &state.TurnState{UserInput: "첫 질문: 지원 대상?"}
	p.Execute(context.Background(), st)
	first := st.SessionID

	st.UserInput = "두번째 질문: 혜택은?"
	p.Execute(context.Background(), st)

	if st.SessionID != first {
		t.Errorf("session id changed across turns: %q -> %q", first, st.SessionID)
	}
	if st.TurnCount != 2 {
		t.Errorf("turn count = %d, want 2", st.TurnCount)
	}
}
