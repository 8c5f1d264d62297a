package implementation

import (
	"context"

	"welfare-chat-be/internal/mapper"
	"welfare-chat-be/internal/model"
	"welfare-chat-be/internal/repository/contract"
	"welfare-chat-be/pkg/rag/state"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProfileMapper
}

func NewProfileRepository(db *gorm.DB) contract.ProfileRepository {
	return &ProfileRepositoryImpl{
		db:     db,
		mapper: mapper.NewProfileMapper(),
	}
}

func (r *ProfileRepositoryImpl) FetchProfile(ctx context.Context, profileId int64) (state.Profile, error) {
	var rows []*model.ProfileField
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileId).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.FieldsToProfile(rows), nil
}

func (r *ProfileRepositoryImpl) FetchCollection(ctx context.Context, profileId int64) ([]state.Triple, error) {
	var rows []*model.ProfileTriple
	err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileId).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.RowsToTriples(rows), nil
}

type ProfileWriteRepositoryImpl struct {
	db *gorm.DB
}

func NewProfileWriteRepository(db *gorm.DB) contract.ProfileWriteRepository {
	return &ProfileWriteRepositoryImpl{db: db}
}

// UpsertProfile applies last-write-wins per field name against the unique
// (profile_id, name) index.
func (r *ProfileWriteRepositoryImpl) UpsertProfile(ctx context.Context, profileId int64, profile state.Profile) error {
	if len(profile) == 0 {
		return nil
	}
	rows := make([]*model.ProfileField, 0, len(profile))
	for name, field := range profile {
		rows = append(rows, &model.ProfileField{
			ProfileId:  profileId,
			Name:       name,
			Value:      field.Value,
			Confidence: field.Confidence,
		})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "confidence", "updated_at"}),
		}).
		Create(&rows).Error
}

func (r *ProfileWriteRepositoryImpl) AppendCollection(ctx context.Context, profileId int64, triples []state.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	rows := make([]*model.ProfileTriple, 0, len(triples))
	for _, t := range triples {
		rows = append(rows, &model.ProfileTriple{
			ProfileId:  profileId,
			Subject:    t.Subject,
			Predicate:  t.Predicate,
			Object:     t.Object,
			CodeSystem: t.CodeSystem,
			Code:       t.Code,
			Confidence: t.Confidence,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}
