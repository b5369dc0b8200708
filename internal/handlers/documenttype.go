package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type DocumentTypeHandler struct {
	log                 *logger.Logger
	documentTypeService services.DocumentTypeService
}

func NewDocumentTypeHandler(log *logger.Logger, documentTypeService services.DocumentTypeService) *DocumentTypeHandler {
	return &DocumentTypeHandler{
		log:                 log.With("handler", "DocumentTypeHandler"),
		documentTypeService: documentTypeService,
	}
}

func (h *DocumentTypeHandler) List(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	documentTypes, err := h.documentTypeService.ListActive(c.Request.Context())
	if err != nil {
		h.log.Error("List failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"document_types": documentTypes})
}

type createDocumentTypeRequest struct {
	Name           string  `json:"name" binding:"required"`
	Description    *string `json:"description"`
	PromptTemplate *string `json:"prompt_template"`
}

func (h *DocumentTypeHandler) Create(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	var req createDocumentTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	documentType, err := h.documentTypeService.Create(c.Request.Context(), services.CreateDocumentTypeInput{
		Name:           req.Name,
		Description:    req.Description,
		PromptTemplate: req.PromptTemplate,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"document_type": documentType})
}
