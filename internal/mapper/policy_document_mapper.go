package mapper

import (
	"time"

	"welfare-chat-be/internal/entity"
	"welfare-chat-be/internal/model"
)

type PolicyDocumentMapper struct{}

func NewPolicyDocumentMapper() *PolicyDocumentMapper {
	return &PolicyDocumentMapper{}
}

func (m *PolicyDocumentMapper) ToEntity(d *model.PolicyDocument) *entity.PolicyDocument {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.PolicyDocument{
		Id:           d.Id,
		Title:        d.Title,
		Requirements: d.Requirements,
		Benefits:     d.Benefits,
		Region:       d.Region,
		URL:          d.Url,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *PolicyDocumentMapper) ToModel(d *entity.PolicyDocument) *model.PolicyDocument {
	if d == nil {
		return nil
	}

	var updatedAt time.Time
	if d.UpdatedAt != nil {
		updatedAt = *d.UpdatedAt
	}

	return &model.PolicyDocument{
		Id:           d.Id,
		Title:        d.Title,
		Requirements: d.Requirements,
		Benefits:     d.Benefits,
		Region:       d.Region,
		Url:          d.URL,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}
