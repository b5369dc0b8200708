package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type MessageHandler struct {
	log            *logger.Logger
	messageService services.MessageService
}

func NewMessageHandler(log *logger.Logger, messageService services.MessageService) *MessageHandler {
	return &MessageHandler{
		log:            log.With("handler", "MessageHandler"),
		messageService: messageService,
	}
}

type createMessageRequest struct {
	Role     string         `json:"role" binding:"required"`
	Content  string         `json:"content" binding:"required"`
	Metadata datatypes.JSON `json:"metadata"`
}

func (h *MessageHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	message, err := h.messageService.Create(c.Request.Context(), userID, chatID, services.CreateMessageInput{
		Role:     req.Role,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"message": message})
}

func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	chatID, ok := pathUUID(c, "chatID")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	messages, err := h.messageService.List(c.Request.Context(), userID, chatID, limit)
	if err != nil {
		h.log.Error("List failed", "error", err, "chat_id", chatID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"messages": messages})
}
