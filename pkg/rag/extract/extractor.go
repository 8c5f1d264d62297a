package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"welfare-chat-be/pkg/llm"
	"welfare-chat-be/pkg/rag/state"

	"github.com/go-playground/validator/v10"
)

// ExtractionError is a degraded-but-valid outcome: the turn continues with the
// overlays untouched. It never crosses the pipeline boundary.
type ExtractionError struct {
	Stage string // "call", "parse" or "validate"
	Cause error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction %s failed: %v", e.Stage, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// profileFieldNames fixes the ten well-known profile fields and their order.
var profileFieldNames = []string{
	"age",
	"birth_year",
	"sex",
	"region_gu",
	"income_median_ratio",
	"basic_benefit_type",
	"nhis_qualification",
	"disability_grade",
	"ltci_grade",
	"pregnancy_status",
}

// response schema for the structured-extraction model. Kept local so the wire
// shape can carry validation tags without leaking them into state types.
type extractedField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

func (f *extractedField) UnmarshalJSON(data []byte) error {
	var pf state.ProfileField
	if err := json.Unmarshal(data, &pf); err != nil {
		return err
	}
	f.Value = pf.Value
	f.Confidence = pf.Confidence
	return nil
}

type extractedTriple struct {
	Subject    string  `json:"subject" validate:"required"`
	Predicate  string  `json:"predicate" validate:"required"`
	Object     string  `json:"object" validate:"required"`
	CodeSystem string  `json:"code_system"`
	Code       string  `json:"code"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

type extractResult struct {
	Profile    map[string]*extractedField `json:"profile"`
	Collection struct {
		Triples []extractedTriple `json:"triples" validate:"dive"`
	} `json:"collection"`
}

// Extractor converts free-text user input into profile fields and triples and
// merges them into the session's ephemeral overlay. It never touches durable
// storage and never fails the turn.
type Extractor struct {
	llmProvider llm.LLMProvider
	validate    *validator.Validate
	logger      *log.Logger
}

// NewExtractor creates a structured context extractor.
func NewExtractor(llmProvider llm.LLMProvider, logger *log.Logger) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Extract runs once per turn. The returned *ExtractionError reports a degraded
// turn for observability; the overlays are guaranteed unchanged in that case.
func (e *Extractor) Extract(ctx context.Context, st *state.TurnState) *ExtractionError {
	saveProfile, saveCollection := false, false
	if st.Router != nil {
		saveProfile = st.Router.SaveProfile
		saveCollection = st.Router.SaveCollection
	}

	// Normalize overlay shapes up front so downstream stages always see a
	// non-nil map and list even on no-op turns.
	if st.EphemeralProfile == nil {
		st.EphemeralProfile = state.Profile{}
	}
	if st.EphemeralCollection == nil {
		st.EphemeralCollection = []state.Triple{}
	}

	if !saveProfile && !saveCollection {
		st.AppendTrace("[extract] skip (save_profile=false, save_collection=false)", nil)
		return nil
	}

	text := strings.TrimSpace(st.UserInput)
	if text == "" {
		st.AppendTrace("[extract] empty user_input; nothing extracted", nil)
		return nil
	}

	result, xerr := e.callModel(ctx, text)
	if xerr != nil {
		e.logger.Printf("[EXTRACT] %v", xerr)
		st.AppendTrace("[extract] error; keeping previous overlays", map[string]interface{}{
			"stage": xerr.Stage,
			"error": xerr.Cause.Error(),
		})
		return xerr
	}

	profileWrites := 0
	if saveProfile {
		profileWrites = mergeProfile(st.EphemeralProfile, result.Profile)
	}

	triplesAdded := 0
	if saveCollection {
		for _, t := range result.Collection.Triples {
			st.EphemeralCollection = append(st.EphemeralCollection, state.Triple{
				Subject:    t.Subject,
				Predicate:  t.Predicate,
				Object:     t.Object,
				CodeSystem: t.CodeSystem,
				Code:       t.Code,
				Confidence: t.Confidence,
			})
			triplesAdded++
		}
	}

	e.logger.Printf("[EXTRACT] merged: %d profile fields written, %d triples appended", profileWrites, triplesAdded)
	st.AppendTrace("[extract] extracted profile/collection", map[string]interface{}{
		"profile_fields_written": profileWrites,
		"triples_total":          len(st.EphemeralCollection),
	})
	return nil
}

// mergeProfile applies last-write-wins for every field the model returned with
// textual evidence. Unmentioned fields stay untouched.
func mergeProfile(overlay state.Profile, extracted map[string]*extractedField) int {
	writes := 0
	for _, name := range profileFieldNames {
		field, ok := extracted[name]
		if !ok || field == nil || strings.TrimSpace(field.Value) == "" {
			continue
		}
		overlay[name] = state.ProfileField{
			Value:      field.Value,
			Confidence: field.Confidence,
		}
		writes++
	}
	return writes
}

func (e *Extractor) callModel(ctx context.Context, text string) (*extractResult, *ExtractionError) {
	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}

	response, err := e.llmProvider.Chat(ctx, history, llm.WithTemperature(0.0), llm.WithJSONMode())
	if err != nil {
		return nil, &ExtractionError{Stage: "call", Cause: err}
	}

	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, &ExtractionError{Stage: "parse", Cause: fmt.Errorf("no JSON object in model response")}
	}

	var result extractResult
	if err := json.Unmarshal([]byte(jsonContent), &result); err != nil {
		return nil, &ExtractionError{Stage: "parse", Cause: err}
	}

	if err := e.validateResult(&result); err != nil {
		return nil, &ExtractionError{Stage: "validate", Cause: err}
	}

	return &result, nil
}

func (e *Extractor) validateResult(result *extractResult) error {
	for name, field := range result.Profile {
		if field == nil {
			continue
		}
		if err := e.validate.Struct(field); err != nil {
			return fmt.Errorf("profile field %q: %w", name, err)
		}
	}
	for i := range result.Collection.Triples {
		if err := e.validate.Struct(&result.Collection.Triples[i]); err != nil {
			return fmt.Errorf("triple %d: %w", i, err)
		}
	}
	return nil
}

// extractJSON pulls the outermost JSON object out of a model response that may
// be wrapped in prose or code fences.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}
	return response[startIdx : endIdx+1]
}
