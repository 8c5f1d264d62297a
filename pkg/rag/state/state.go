package state

import (
	"encoding/json"
	"strconv"
	"time"
)

// RouterDecision is produced by the upstream query classifier.
// It is read-only for the pipeline: stages consult it but never modify it.
type RouterDecision struct {
	Category       string `json:"category"`
	SaveProfile    bool   `json:"save_profile"`
	SaveCollection bool   `json:"save_collection"`
	UseRAG         *bool  `json:"use_rag,omitempty"` // nil = router did not decide
	Reason         string `json:"reason,omitempty"`
}

// ProfileField is one extracted profile attribute with its confidence.
// Absence of a field in a Profile means "unknown", not "false".
type ProfileField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// UnmarshalJSON accepts both the canonical {"value":..., "confidence":...}
// shape and a bare scalar (string/number/bool). Upstream producers are not
// consistent about this, so the shape is normalized exactly once, here. An
// object with a missing or null "value" key reads as an empty field: values
// are never synthesized from a shape the model did not actually emit.
func (f *ProfileField) UnmarshalJSON(data []byte) error {
	type pair struct {
		Value      json.RawMessage `json:"value"`
		Confidence float64         `json:"confidence"`
	}
	if isJSONObject(data) {
		var p pair
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		f.Value = scalarToString(p.Value)
		f.Confidence = p.Confidence
		return nil
	}

	// Bare scalar fallback
	f.Value = scalarToString(data)
	f.Confidence = 0
	return nil
}

func isJSONObject(data []byte) bool {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c == '{'
		}
	}
	return false
}

// scalarToString renders a scalar token. Objects, arrays and null carry no
// usable scalar and read as empty.
func scalarToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}
	return ""
}

// Profile maps field name -> extracted value. Session-scoped overlays and
// persisted profiles share this shape.
type Profile map[string]ProfileField

// Triple is one atomic subject-predicate-object fact, e.g.
// ("self", "HAS_CONDITION", "당뇨병"). Deduplication and contradiction
// resolution are persistence-layer concerns; the pipeline only appends.
type Triple struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	CodeSystem string  `json:"code_system,omitempty"`
	Code       string  `json:"code,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Snippet is one formatted evidence excerpt handed to answer generation.
// Score is cosine similarity in [-1, 1]; nil when the store returned no score.
type Snippet struct {
	DocID        string   `json:"doc_id"`
	Title        string   `json:"title,omitempty"`
	Source       string   `json:"source"`
	Snippet      string   `json:"snippet"`
	Score        *float64 `json:"score"`
	Region       string   `json:"region,omitempty"`
	URL          string   `json:"url,omitempty"`
	Requirements string   `json:"requirements,omitempty"`
	Benefits     string   `json:"benefits,omitempty"`
}

// Retrieval is the planner's output block on TurnState.
type Retrieval struct {
	UsedRAG       bool      `json:"used_rag"`
	ProfileCtx    Profile   `json:"profile_ctx"`
	CollectionCtx []Triple  `json:"collection_ctx"`
	RAGSnippets   []Snippet `json:"rag_snippets"`
	Keywords      []string  `json:"keywords"`
}

// TraceEntry is one append-only diagnostic record. Pipeline logic never reads
// the trace back; it exists for auditing and debugging only.
type TraceEntry struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	CreatedAt string                 `json:"created_at"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// TurnState is the single mutable record threaded through one conversational
// turn: Controller -> Extractor -> Planner. It is rehydrated from the
// checkpoint store at turn start and handed to persistence + generation at
// turn end. Timestamps are kept as RFC3339 strings because they round-trip
// through external checkpoints and may arrive malformed; the lifecycle
// controller re-initializes anything it cannot parse.
type TurnState struct {
	SessionID string `json:"session_id"`
	ProfileID *int64 `json:"profile_id,omitempty"`
	UserInput string `json:"user_input"`

	Router *RouterDecision `json:"router,omitempty"`

	EphemeralProfile    Profile  `json:"ephemeral_profile"`
	EphemeralCollection []Triple `json:"ephemeral_collection"`

	StartedAt      string `json:"started_at,omitempty"`
	LastActivityAt string `json:"last_activity_at,omitempty"`
	TurnCount      int    `json:"turn_count"`

	EndSession bool     `json:"end_session"`
	EndReasons []string `json:"end_reasons,omitempty"`

	Retrieval *Retrieval `json:"retrieval,omitempty"`

	Trace []TraceEntry `json:"trace,omitempty"`
}

// AppendTrace appends one tool-role diagnostic entry.
func (s *TurnState) AppendTrace(content string, meta map[string]interface{}) {
	s.Trace = append(s.Trace, TraceEntry{
		Role:      "tool",
		Content:   content,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		Meta:      meta,
	})
}
