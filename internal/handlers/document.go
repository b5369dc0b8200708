package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type DocumentHandler struct {
	log             *logger.Logger
	documentService services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documentService services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:             log.With("handler", "DocumentHandler"),
		documentService: documentService,
	}
}

type createDocumentRequest struct {
	Content          string  `json:"content" binding:"required"`
	TokenInput       int     `json:"token_input"`
	TokenOutput      int     `json:"token_output"`
	DiffFromPrevious *string `json:"diff_from_previous"`
	GenerationTimeMs *int    `json:"generation_time_ms"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	document, err := h.documentService.Create(c.Request.Context(), userID, chatID, services.CreateDocumentInput{
		Content:          req.Content,
		TokenInput:       req.TokenInput,
		TokenOutput:      req.TokenOutput,
		DiffFromPrevious: req.DiffFromPrevious,
		GenerationTimeMs: req.GenerationTimeMs,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"document": document})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	documentID, ok := pathUUID(c, "documentID")
	if !ok {
		return
	}
	document, err := h.documentService.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		h.log.Error("Get failed", "error", err, "document_id", documentID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"document": document})
}

// Download streams a document version as a markdown attachment.
func (h *DocumentHandler) Download(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	documentID, ok := pathUUID(c, "documentID")
	if !ok {
		return
	}
	document, err := h.documentService.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		h.log.Error("Download failed", "error", err, "document_id", documentID)
		RespondAppError(c, err)
		return
	}
	filename := fmt.Sprintf("document-v%d.md", document.Version)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(document.Content))
}

func (h *DocumentHandler) ListByChat(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	documents, err := h.documentService.ListByChat(c.Request.Context(), userID, chatID)
	if err != nil {
		h.log.Error("ListByChat failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"documents": documents})
}
