package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type GenerationMetricRepo interface {
	Create(ctx context.Context, tx *gorm.DB, metric *types.GenerationMetric) (*types.GenerationMetric, error)
	ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.GenerationMetric, error)
}

type generationMetricRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationMetricRepo(db *gorm.DB, baseLog *logger.Logger) GenerationMetricRepo {
	return &generationMetricRepo{db: db, log: baseLog.With("repo", "GenerationMetricRepo")}
}

func (r *generationMetricRepo) Create(ctx context.Context, tx *gorm.DB, metric *types.GenerationMetric) (*types.GenerationMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(metric).Error; err != nil {
		return nil, err
	}
	return metric, nil
}

func (r *generationMetricRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.GenerationMetric, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var metrics []*types.GenerationMetric
	if err := transaction.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}
