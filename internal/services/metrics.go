package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type RecordMetricInput struct {
	DocumentID             *uuid.UUID
	ModelName              string
	InputTokens            int
	OutputTokens           int
	LatencyMs              int
	ContextTokensRetrieved *int
	IsDifferential         bool
}

// MetricsSummary aggregates a chat's generation metrics alongside the raw
// rows.
type MetricsSummary struct {
	ChatID            uuid.UUID                 `json:"chat_id"`
	GenerationCount   int                       `json:"generation_count"`
	DifferentialCount int                       `json:"differential_count"`
	TotalInputTokens  int                       `json:"total_input_tokens"`
	TotalOutputTokens int                       `json:"total_output_tokens"`
	TotalTokens       int                       `json:"total_tokens"`
	AverageLatencyMs  float64                   `json:"average_latency_ms"`
	Metrics           []*types.GenerationMetric `json:"metrics"`
}

type MetricsService interface {
	Record(ctx context.Context, userID, chatID uuid.UUID, input RecordMetricInput) (*types.GenerationMetric, error)
	Summary(ctx context.Context, userID, chatID uuid.UUID) (*MetricsSummary, error)
}

type metricsService struct {
	metricRepo repos.GenerationMetricRepo
	authz      Authorizer
	log        *logger.Logger
}

func NewMetricsService(metricRepo repos.GenerationMetricRepo, authz Authorizer, baseLog *logger.Logger) MetricsService {
	return &metricsService{
		metricRepo: metricRepo,
		authz:      authz,
		log:        baseLog.With("service", "MetricsService"),
	}
}

func (s *metricsService) Record(ctx context.Context, userID, chatID uuid.UUID, input RecordMetricInput) (*types.GenerationMetric, error) {
	if strings.TrimSpace(input.ModelName) == "" {
		return nil, apperr.Validation("invalid_metric", "model name must not be empty")
	}
	if input.InputTokens < 0 || input.OutputTokens < 0 || input.LatencyMs < 0 {
		return nil, apperr.Validation("invalid_metric", "token and latency values must be non-negative")
	}
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}

	metric := &types.GenerationMetric{
		ID:                     uuid.New(),
		ChatID:                 chatID,
		DocumentID:             input.DocumentID,
		ModelName:              input.ModelName,
		InputTokens:            input.InputTokens,
		OutputTokens:           input.OutputTokens,
		TotalTokens:            input.InputTokens + input.OutputTokens,
		LatencyMs:              input.LatencyMs,
		ContextTokensRetrieved: input.ContextTokensRetrieved,
		IsDifferential:         input.IsDifferential,
		CreatedAt:              time.Now().UTC(),
	}
	if _, err := s.metricRepo.Create(ctx, nil, metric); err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *metricsService) Summary(ctx context.Context, userID, chatID uuid.UUID) (*MetricsSummary, error) {
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}
	metrics, err := s.metricRepo.ListByChat(ctx, nil, chatID)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{ChatID: chatID, Metrics: metrics}
	totalLatency := 0
	for _, m := range metrics {
		summary.GenerationCount++
		if m.IsDifferential {
			summary.DifferentialCount++
		}
		summary.TotalInputTokens += m.InputTokens
		summary.TotalOutputTokens += m.OutputTokens
		summary.TotalTokens += m.TotalTokens
		totalLatency += m.LatencyMs
	}
	if summary.GenerationCount > 0 {
		summary.AverageLatencyMs = float64(totalLatency) / float64(summary.GenerationCount)
	}
	return summary, nil
}
