package types

import (
	"time"

	"github.com/google/uuid"
)

type Chat struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project      *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Title        string    `gorm:"column:title;not null" json:"title"`
	DocumentType string    `gorm:"column:document_type;not null" json:"document_type"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (Chat) TableName() string { return "chat" }
