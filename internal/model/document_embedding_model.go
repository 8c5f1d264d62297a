package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type DocumentEmbedding struct {
	Id             int64           `gorm:"primaryKey;autoIncrement"`
	DocId          int64           `gorm:"not null;index"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1024)"` // bge-m3 uses 1024 dimensions
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
}

func (DocumentEmbedding) TableName() string {
	return "document_embeddings"
}
