package entity

import "time"

// DocumentEmbedding is the stored vector for one policy document.
type DocumentEmbedding struct {
	Id             int64
	DocId          int64
	EmbeddingValue []float32
	CreatedAt      time.Time
}
