package types

import (
	"time"

	"github.com/google/uuid"
)

// Document is one generated version in a chat's lineage. Version is 1-based
// and unique per chat.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID           uuid.UUID `gorm:"type:uuid;not null;index:idx_document_chat_version,unique" json:"chat_id"`
	Chat             *Chat     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"chat,omitempty"`
	Version          int       `gorm:"column:version;not null;index:idx_document_chat_version,unique" json:"version"`
	Content          string    `gorm:"column:content;not null" json:"content"`
	TokenInput       int       `gorm:"column:token_input;not null" json:"token_input"`
	TokenOutput      int       `gorm:"column:token_output;not null" json:"token_output"`
	DiffFromPrevious *string   `gorm:"column:diff_from_previous" json:"diff_from_previous,omitempty"`
	GenerationTimeMs *int      `gorm:"column:generation_time_ms" json:"generation_time_ms,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (Document) TableName() string { return "document" }
