package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type fakeMetricRepo struct {
	metrics []*types.GenerationMetric
}

func (f *fakeMetricRepo) Create(ctx context.Context, tx *gorm.DB, metric *types.GenerationMetric) (*types.GenerationMetric, error) {
	f.metrics = append(f.metrics, metric)
	return metric, nil
}

func (f *fakeMetricRepo) ListByChat(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.GenerationMetric, error) {
	return f.metrics, nil
}

func TestMetricsRecordValidation(t *testing.T) {
	authz := &fakeAuthorizer{chat: &types.Chat{ID: uuid.New()}}
	svc := NewMetricsService(&fakeMetricRepo{}, authz, testLogger(t))

	cases := []struct {
		name  string
		input RecordMetricInput
	}{
		{"empty model", RecordMetricInput{ModelName: "  ", InputTokens: 1}},
		{"negative input tokens", RecordMetricInput{ModelName: "gemini-pro", InputTokens: -1}},
		{"negative latency", RecordMetricInput{ModelName: "gemini-pro", LatencyMs: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), uuid.New(), uuid.New(), tc.input)
			if !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if authz.chatCalls != 0 {
		t.Fatalf("invalid input must be rejected before authorization, got %d calls", authz.chatCalls)
	}
}

func TestMetricsRecordComputesTotal(t *testing.T) {
	chatID := uuid.New()
	repo := &fakeMetricRepo{}
	authz := &fakeAuthorizer{chat: &types.Chat{ID: chatID}}
	svc := NewMetricsService(repo, authz, testLogger(t))

	metric, err := svc.Record(context.Background(), uuid.New(), chatID, RecordMetricInput{
		ModelName:    "gemini-pro",
		InputTokens:  1200,
		OutputTokens: 800,
		LatencyMs:    1500,
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if metric.TotalTokens != 2000 {
		t.Fatalf("expected total 2000 tokens, got %d", metric.TotalTokens)
	}
	if len(repo.metrics) != 1 {
		t.Fatalf("metric was not persisted")
	}
}

func TestMetricsSummaryAggregation(t *testing.T) {
	chatID := uuid.New()
	repo := &fakeMetricRepo{metrics: []*types.GenerationMetric{
		{ChatID: chatID, InputTokens: 100, OutputTokens: 50, TotalTokens: 150, LatencyMs: 1000, IsDifferential: false},
		{ChatID: chatID, InputTokens: 200, OutputTokens: 100, TotalTokens: 300, LatencyMs: 2000, IsDifferential: true},
		{ChatID: chatID, InputTokens: 300, OutputTokens: 150, TotalTokens: 450, LatencyMs: 3000, IsDifferential: true},
	}}
	authz := &fakeAuthorizer{chat: &types.Chat{ID: chatID}}
	svc := NewMetricsService(repo, authz, testLogger(t))

	summary, err := svc.Summary(context.Background(), uuid.New(), chatID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.GenerationCount != 3 {
		t.Fatalf("expected 3 generations, got %d", summary.GenerationCount)
	}
	if summary.DifferentialCount != 2 {
		t.Fatalf("expected 2 differential generations, got %d", summary.DifferentialCount)
	}
	if summary.TotalInputTokens != 600 || summary.TotalOutputTokens != 300 || summary.TotalTokens != 900 {
		t.Fatalf("unexpected token totals: %+v", summary)
	}
	if summary.AverageLatencyMs != 2000 {
		t.Fatalf("expected average latency 2000ms, got %v", summary.AverageLatencyMs)
	}
	if len(summary.Metrics) != 3 {
		t.Fatalf("summary must include the raw rows")
	}
}

func TestMetricsSummaryEmptyChat(t *testing.T) {
	chatID := uuid.New()
	authz := &fakeAuthorizer{chat: &types.Chat{ID: chatID}}
	svc := NewMetricsService(&fakeMetricRepo{}, authz, testLogger(t))

	summary, err := svc.Summary(context.Background(), uuid.New(), chatID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.GenerationCount != 0 || summary.AverageLatencyMs != 0 {
		t.Fatalf("empty chat must aggregate to zero, got %+v", summary)
	}
}

func TestMetricsDeniedChat(t *testing.T) {
	authz := &fakeAuthorizer{err: apperr.AccessDenied("project_access_denied", "not yours")}
	svc := NewMetricsService(&fakeMetricRepo{}, authz, testLogger(t))

	if _, err := svc.Record(context.Background(), uuid.New(), uuid.New(), RecordMetricInput{ModelName: "gemini-pro"}); !apperr.IsAccessDenied(err) {
		t.Fatalf("Record: expected access denied, got %v", err)
	}
	if _, err := svc.Summary(context.Background(), uuid.New(), uuid.New()); !apperr.IsAccessDenied(err) {
		t.Fatalf("Summary: expected access denied, got %v", err)
	}
}
