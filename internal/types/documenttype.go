package types

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description    *string   `gorm:"column:description" json:"description,omitempty"`
	PromptTemplate *string   `gorm:"column:prompt_template" json:"prompt_template,omitempty"`
	IsActive       bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (DocumentType) TableName() string { return "document_type" }
