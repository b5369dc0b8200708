package types

import (
	"time"

	"github.com/google/uuid"
)

// ContextItem is a titled piece of reference material. Scope decides which
// associations are mandatory: project scope needs ProjectID, chat scope needs
// ProjectID and ChatID, user scope carries UserID for ownership filtering,
// global scope carries none.
type ContextItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Scope     Scope      `gorm:"column:scope;not null;index" json:"scope"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Content   string     `gorm:"column:content;not null" json:"content"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	ProjectID *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	ChatID    *uuid.UUID `gorm:"type:uuid;index" json:"chat_id,omitempty"`
	FileURL   *string    `gorm:"column:file_url" json:"file_url,omitempty"`
	FileType  *string    `gorm:"column:file_type" json:"file_type,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (ContextItem) TableName() string { return "context_item" }
