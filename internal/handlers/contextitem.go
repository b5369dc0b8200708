package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type ContextHandler struct {
	log              *logger.Logger
	contextService   services.ContextService
	retrievalService services.RetrievalService
}

func NewContextHandler(log *logger.Logger, contextService services.ContextService, retrievalService services.RetrievalService) *ContextHandler {
	return &ContextHandler{
		log:              log.With("handler", "ContextHandler"),
		contextService:   contextService,
		retrievalService: retrievalService,
	}
}

type ingestContextRequest struct {
	Scope     string     `json:"scope" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Content   string     `json:"content" binding:"required"`
	ProjectID *uuid.UUID `json:"project_id"`
	ChatID    *uuid.UUID `json:"chat_id"`
	FileURL   *string    `json:"file_url"`
	FileType  *string    `json:"file_type"`
}

func (h *ContextHandler) Ingest(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req ingestContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	scope, err := types.ParseScope(req.Scope)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scope", err)
		return
	}
	result, err := h.contextService.Ingest(c.Request.Context(), userID, services.IngestContextInput{
		Scope:     scope,
		Title:     req.Title,
		Content:   req.Content,
		ProjectID: req.ProjectID,
		ChatID:    req.ChatID,
		FileURL:   req.FileURL,
		FileType:  req.FileType,
	})
	if err != nil {
		h.log.Error("Ingest failed", "error", err, "scope", scope.String())
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, result)
}

// Upload ingests a context item from a multipart text file instead of a JSON
// body. The file's bytes become the item content.
func (h *ContextHandler) Upload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	scope, err := types.ParseScope(c.PostForm("scope"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_scope", err)
		return
	}
	var projectID, chatID *uuid.UUID
	if raw := c.PostForm("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", err)
			return
		}
		projectID = &id
	}
	if raw := c.PostForm("chat_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", err)
			return
		}
		chatID = &id
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.contextService.IngestFile(c.Request.Context(), userID, services.IngestFileInput{
		Scope:     scope,
		Title:     c.PostForm("title"),
		FileName:  fileHeader.Filename,
		Data:      data,
		ProjectID: projectID,
		ChatID:    chatID,
	})
	if err != nil {
		h.log.Error("Upload failed", "error", err, "scope", scope.String(), "file_name", fileHeader.Filename)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, result)
}

func (h *ContextHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var scope *types.Scope
	if raw := c.Query("scope"); raw != "" {
		parsed, err := types.ParseScope(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_scope", err)
			return
		}
		scope = &parsed
	}
	var projectID, chatID *uuid.UUID
	if raw := c.Query("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", err)
			return
		}
		projectID = &id
	}
	if raw := c.Query("chat_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_id", err)
			return
		}
		chatID = &id
	}
	limit, offset := pageParams(c)
	items, total, err := h.contextService.List(c.Request.Context(), userID, scope, projectID, chatID, limit, offset)
	if err != nil {
		h.log.Error("List failed", "error", err, "user_id", userID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items, "total": total})
}

func (h *ContextHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "contextItemID")
	if !ok {
		return
	}
	if err := h.contextService.Delete(c.Request.Context(), userID, itemID); err != nil {
		h.log.Error("Delete failed", "error", err, "context_item_id", itemID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type retrieveContextRequest struct {
	ChatID    uuid.UUID `json:"chat_id" binding:"required"`
	Query     string    `json:"query" binding:"required"`
	MaxTokens int       `json:"max_tokens"`
}

// Retrieve assembles the scope-partitioned context bundle for the downstream
// document generator.
func (h *ContextHandler) Retrieve(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req retrieveContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	bundle, err := h.retrievalService.Retrieve(c.Request.Context(), req.ChatID, userID, req.Query, req.MaxTokens)
	if err != nil {
		h.log.Error("Retrieve failed", "error", err, "chat_id", req.ChatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"context": bundle})
}
