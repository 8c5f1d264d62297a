package contract

import (
	"context"

	"welfare-chat-be/internal/entity"
)

// ScoredPolicyDocument wraps a document with its cosine similarity to the
// query vector. Similarity is nil when the store produced no score for a row.
type ScoredPolicyDocument struct {
	Document   *entity.PolicyDocument
	Similarity *float64
}

type PolicyDocumentRepository interface {
	FindById(ctx context.Context, id int64) (*entity.PolicyDocument, error)
	// SearchSimilarWithScore returns up to topK documents ordered by ascending
	// cosine distance to the query embedding. A non-empty regionFilter
	// constrains results to documents whose trimmed region matches exactly.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, topK int, regionFilter string) ([]*ScoredPolicyDocument, error)
}
