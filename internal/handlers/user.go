package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/middleware"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{
		log:         log.With("handler", "UserHandler"),
		userService: userService,
	}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Me failed", "error", err, "user_id", userID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

type updateUserRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.userService.UpdateName(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.log.Error("UpdateMe failed", "error", err, "user_id", userID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

func (h *UserHandler) List(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"users": users})
}

type switchUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (h *UserHandler) Switch(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	var req switchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.userService.Switch(c.Request.Context(), req.UserID)
	if err != nil {
		h.log.Error("Switch failed", "error", err, "target_user_id", req.UserID)
		RespondAppError(c, err)
		return
	}
	middleware.SetIdentityCookie(c, user.CookieID)
	RespondOK(c, gin.H{"user": user})
}
