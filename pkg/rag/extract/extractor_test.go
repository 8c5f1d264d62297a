package extract

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"welfare-chat-be/pkg/llm"
	"welfare-chat-be/pkg/rag/state"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

const validResponse = `{
  "profile": {
    "age": {"value": "62", "confidence": 0.9},
    "region_gu": {"value": "강남구", "confidence": 0.85},
    "sex": null
  },
  "collection": {
    "triples": [
      {"subject": "self", "predicate": "disease", "object": "당뇨병", "code_system": "KCD7", "code": "E11", "confidence": 0.9}
    ]
  }
}`

func routerBoth() *state.RouterDecision {
	return &state.RouterDecision{SaveProfile: true, SaveCollection: true}
}

func TestExtractSkipsWhenFlagsOff(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	e := NewExtractor(provider, testLogger())

	st := &state.TurnState{
		UserInput: "62세이고 당뇨가 있어요",
		Router:    &state.RouterDecision{SaveProfile: false, SaveCollection: false},
	}
	if xerr := e.Extract(context.Background(), st); xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}

	if provider.calls != 0 {
		t.Errorf("model called %d times on a skip turn", provider.calls)
	}
	if st.EphemeralProfile == nil || st.EphemeralCollection == nil {
		t.Error("overlays must be normalized to empty, not nil")
	}
	if len(st.EphemeralProfile) != 0 || len(st.EphemeralCollection) != 0 {
		t.Error("overlays must stay empty on a skip turn")
	}
}

func TestExtractSkipsEmptyInput(t *testing.T) {
	provider := &fakeLLM{response: validResponse}
	e := NewExtractor(provider, testLogger())

	st := &state.TurnState{UserInput: "   ", Router: routerBoth()}
	if xerr := e.Extract(context.Background(), st); xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}
	if provider.calls != 0 {
		t.Error("model must not be called for blank input")
	}
}

func TestExtractMergesProfileAndTriples(t *testing.T) {
	e := NewExtractor(&fakeLLM{response: validResponse}, testLogger())

	st := &state.TurnState{
		UserInput: "62세이고 강남구 살아요. 당뇨 진단 받았어요.",
		Router:    routerBoth(),
		EphemeralProfile: state.Profile{
			"age": {Value: "61", Confidence: 0.5},
		},
	}
	if xerr := e.Extract(context.Background(), st); xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}

	if got := st.EphemeralProfile["age"]; got.Value != "62" || got.Confidence != 0.9 {
		t.Errorf("age not overwritten last-write-wins: %+v", got)
	}
	if got := st.EphemeralProfile["region_gu"].Value; got != "강남구" {
		t.Errorf("region_gu = %q", got)
	}
	if _, ok := st.EphemeralProfile["sex"]; ok {
		t.Error("null field must not be written")
	}

	if len(st.EphemeralCollection) != 1 {
		t.Fatalf("triples = %d, want 1", len(st.EphemeralCollection))
	}
	if st.EphemeralCollection[0].Code != "E11" {
		t.Errorf("triple code = %q", st.EphemeralCollection[0].Code)
	}
}

func TestExtractProfileOnlyGate(t *testing.T) {
	e := NewExtractor(&fakeLLM{response: validResponse}, testLogger())

	st := &state.TurnState{
		UserInput: "62세예요",
		Router:    &state.RouterDecision{SaveProfile: true, SaveCollection: false},
	}
	if xerr := e.Extract(context.Background(), st); xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}

	if len(st.EphemeralProfile) == 0 {
		t.Error("profile gate on but nothing written")
	}
	if len(st.EphemeralCollection) != 0 {
		t.Error("collection gate off but triples appended")
	}
}

func TestExtractFieldWithoutValueNotWritten(t *testing.T) {
	e := NewExtractor(&fakeLLM{response: `{
		"profile": {"age": {"confidence": 0.9}},
		"collection": {"triples": []}
	}`}, testLogger())

	st := &state.TurnState{UserInput: "나이는 비밀이에요", Router: routerBoth()}
	if xerr := e.Extract(context.Background(), st); xerr != nil {
		t.Fatalf("unexpected error: %v", xerr)
	}

	if field, ok := st.EphemeralProfile["age"]; ok {
		t.Errorf("value-less field written to overlay: %+v", field)
	}
}

func TestExtractFailureLeavesOverlaysUnchanged(t *testing.T) {
	tests := []struct {
		name      string
		provider  *fakeLLM
		wantStage string
	}{
		{"call error", &fakeLLM{err: errors.New("connection refused")}, "call"},
		{"no json", &fakeLLM{response: "죄송합니다, 추출할 수 없습니다."}, "parse"},
		{"broken json", &fakeLLM{response: `{"profile": {`}, "parse"},
		{"confidence out of range", &fakeLLM{response: `{
			"profile": {"age": {"value": "62", "confidence": 3.0}},
			"collection": {"triples": []}
		}`}, "validate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(tt.provider, testLogger())
			st := &state.TurnState{
				UserInput: "62세예요",
				Router:    routerBoth(),
				EphemeralProfile: state.Profile{
					"age": {Value: "61", Confidence: 0.5},
				},
				EphemeralCollection: []state.Triple{
					{Subject: "self", Predicate: "disease", Object: "고혈압"},
				},
			}

			xerr := e.Extract(context.Background(), st)
			if xerr == nil {
				t.Fatal("expected a degraded outcome")
			}
			if xerr.Stage != tt.wantStage {
				t.Errorf("stage = %q, want %q", xerr.Stage, tt.wantStage)
			}

			if st.EphemeralProfile["age"].Value != "61" {
				t.Error("profile overlay changed on failure")
			}
			if len(st.EphemeralCollection) != 1 {
				t.Error("collection overlay changed on failure")
			}
		})
	}
}

func TestExtractJSONUnwrapsProse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean", `{"a":1}`, `{"a":1}`},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", `Here you go: {"a":1} hope it helps`, `{"a":1}`},
		{"no object", "no json here", ""},
		{"reversed braces", "} {", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.in); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
