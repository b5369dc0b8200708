package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Message struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"chat_id"`
	Chat      *Chat          `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"chat,omitempty"`
	Role      string         `gorm:"column:role;not null" json:"role"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Message) TableName() string { return "message" }
