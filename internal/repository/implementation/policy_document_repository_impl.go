package implementation

import (
	"context"
	"errors"
	"strings"

	"welfare-chat-be/internal/entity"
	"welfare-chat-be/internal/mapper"
	"welfare-chat-be/internal/model"
	"welfare-chat-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PolicyDocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.PolicyDocumentMapper
}

func NewPolicyDocumentRepository(db *gorm.DB) contract.PolicyDocumentRepository {
	return &PolicyDocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewPolicyDocumentMapper(),
	}
}

func (r *PolicyDocumentRepositoryImpl) FindById(ctx context.Context, id int64) (*entity.PolicyDocument, error) {
	var m model.PolicyDocument
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// SearchSimilarWithScore runs the cosine search. pgvector's <=> operator is
// cosine distance, so similarity = 1 - distance; rows come back ordered by
// ascending distance.
func (r *PolicyDocumentRepositoryImpl) SearchSimilarWithScore(
	ctx context.Context,
	embedding []float32,
	topK int,
	regionFilter string,
) ([]*contract.ScoredPolicyDocument, error) {
	if topK <= 0 {
		topK = 8
	}

	type row struct {
		model.PolicyDocument
		Similarity *float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("policy_documents").
		Select("policy_documents.*, 1 - (document_embeddings.embedding_value <=> ?) AS similarity", queryVector).
		Joins("JOIN document_embeddings ON document_embeddings.doc_id = policy_documents.id")

	if regionFilter = strings.TrimSpace(regionFilter); regionFilter != "" {
		query = query.Where("TRIM(policy_documents.region) = ?", regionFilter)
	}

	err := query.
		Order(gorm.Expr("document_embeddings.embedding_value <=> ?", queryVector)).
		Limit(topK).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredPolicyDocument, len(rows))
	for i, res := range rows {
		scored[i] = &contract.ScoredPolicyDocument{
			Document:   r.mapper.ToEntity(&res.PolicyDocument),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
