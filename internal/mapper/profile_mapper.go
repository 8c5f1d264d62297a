package mapper

import (
	"welfare-chat-be/internal/model"
	"welfare-chat-be/pkg/rag/state"
)

// ProfileMapper converts persisted profile rows into the pipeline's merge
// shapes. Persisted and ephemeral data share types so the planner's fusion
// stays a pure function.
type ProfileMapper struct{}

func NewProfileMapper() *ProfileMapper {
	return &ProfileMapper{}
}

func (m *ProfileMapper) FieldsToProfile(rows []*model.ProfileField) state.Profile {
	profile := make(state.Profile, len(rows))
	for _, row := range rows {
		if row == nil || row.Name == "" {
			continue
		}
		profile[row.Name] = state.ProfileField{
			Value:      row.Value,
			Confidence: row.Confidence,
		}
	}
	return profile
}

func (m *ProfileMapper) RowsToTriples(rows []*model.ProfileTriple) []state.Triple {
	triples := make([]state.Triple, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		triples = append(triples, state.Triple{
			Subject:    row.Subject,
			Predicate:  row.Predicate,
			Object:     row.Object,
			CodeSystem: row.CodeSystem,
			Code:       row.Code,
			Confidence: row.Confidence,
		})
	}
	return triples
}
