package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type MetricsHandler struct {
	log            *logger.Logger
	metricsService services.MetricsService
}

func NewMetricsHandler(log *logger.Logger, metricsService services.MetricsService) *MetricsHandler {
	return &MetricsHandler{
		log:            log.With("handler", "MetricsHandler"),
		metricsService: metricsService,
	}
}

type recordMetricRequest struct {
	DocumentID             *uuid.UUID `json:"document_id"`
	ModelName              string     `json:"model_name" binding:"required"`
	InputTokens            int        `json:"input_tokens"`
	OutputTokens           int        `json:"output_tokens"`
	LatencyMs              int        `json:"latency_ms"`
	ContextTokensRetrieved *int       `json:"context_tokens_retrieved"`
	IsDifferential         bool       `json:"is_differential"`
}

func (h *MetricsHandler) Record(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	var req recordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	metric, err := h.metricsService.Record(c.Request.Context(), userID, chatID, services.RecordMetricInput{
		DocumentID:             req.DocumentID,
		ModelName:              req.ModelName,
		InputTokens:            req.InputTokens,
		OutputTokens:           req.OutputTokens,
		LatencyMs:              req.LatencyMs,
		ContextTokensRetrieved: req.ContextTokensRetrieved,
		IsDifferential:         req.IsDifferential,
	})
	if err != nil {
		h.log.Error("Record failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"metric": metric})
}

func (h *MetricsHandler) Summary(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	summary, err := h.metricsService.Summary(c.Request.Context(), userID, chatID)
	if err != nil {
		h.log.Error("Summary failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, summary)
}
