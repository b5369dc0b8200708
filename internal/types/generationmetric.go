package types

import (
	"time"

	"github.com/google/uuid"
)

type GenerationMetric struct {
	ID                     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ChatID                 uuid.UUID  `gorm:"type:uuid;not null;index" json:"chat_id"`
	Chat                   *Chat      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChatID;references:ID" json:"chat,omitempty"`
	DocumentID             *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`
	ModelName              string     `gorm:"column:model_name;not null" json:"model_name"`
	InputTokens            int        `gorm:"column:input_tokens;not null" json:"input_tokens"`
	OutputTokens           int        `gorm:"column:output_tokens;not null" json:"output_tokens"`
	TotalTokens            int        `gorm:"column:total_tokens;not null" json:"total_tokens"`
	LatencyMs              int        `gorm:"column:latency_ms;not null" json:"latency_ms"`
	ContextTokensRetrieved *int       `gorm:"column:context_tokens_retrieved" json:"context_tokens_retrieved,omitempty"`
	IsDifferential         bool       `gorm:"column:is_differential;not null;default:false" json:"is_differential"`
	CreatedAt              time.Time  `gorm:"not null" json:"created_at"`
}

func (GenerationMetric) TableName() string { return "generation_metric" }
