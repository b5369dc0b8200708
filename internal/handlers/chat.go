package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type ChatHandler struct {
	log         *logger.Logger
	chatService services.ChatService
}

func NewChatHandler(log *logger.Logger, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		log:         log.With("handler", "ChatHandler"),
		chatService: chatService,
	}
}

type createChatRequest struct {
	DocumentType string `json:"document_type" binding:"required"`
}

func (h *ChatHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	detail, err := h.chatService.Create(c.Request.Context(), userID, projectID, req.DocumentType)
	if err != nil {
		h.log.Error("Create failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, detail)
}

func (h *ChatHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	chats, total, err := h.chatService.List(c.Request.Context(), userID, projectID, limit, offset)
	if err != nil {
		h.log.Error("List failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"chats": chats, "total": total})
}

func (h *ChatHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	detail, err := h.chatService.Get(c.Request.Context(), userID, chatID)
	if err != nil {
		h.log.Error("Get failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, detail)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	if err := h.chatService.Delete(c.Request.Context(), userID, chatID); err != nil {
		h.log.Error("Delete failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
