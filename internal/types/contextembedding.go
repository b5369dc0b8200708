package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim matches the embedding provider's output dimensionality.
const EmbeddingDim = 768

// ContextEmbedding is one embedded chunk of a ContextItem's content.
// ChunkIndex is zero-based and reflects left-to-right order of the source
// text. Rows are written once at ingestion and only ever deleted with their
// parent.
type ContextEmbedding struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ContextItemID uuid.UUID       `gorm:"type:uuid;not null;index:idx_context_embedding_item_chunk,unique" json:"context_item_id"`
	ContextItem   *ContextItem    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContextItemID;references:ID" json:"context_item,omitempty"`
	ChunkIndex    int             `gorm:"column:chunk_index;not null;index:idx_context_embedding_item_chunk,unique" json:"chunk_index"`
	Content       string          `gorm:"column:content;not null" json:"content"`
	Embedding     pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (ContextEmbedding) TableName() string { return "context_embedding" }
