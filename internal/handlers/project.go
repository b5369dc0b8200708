package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/services"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
}

func NewProjectHandler(log *logger.Logger, projectService services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		log:            log.With("handler", "ProjectHandler"),
		projectService: projectService,
	}
}

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	project, err := h.projectService.Create(c.Request.Context(), userID, services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.log.Error("Create failed", "error", err, "user_id", userID)
		RespondAppError(c, err)
		return
	}
	RespondCreated(c, gin.H{"project": project})
}

func (h *ProjectHandler) List(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	projects, total, err := h.projectService.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("List failed", "error", err, "user_id", userID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects, "total": total})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	detail, err := h.projectService.Get(c.Request.Context(), userID, projectID)
	if err != nil {
		h.log.Error("Get failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, detail)
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *ProjectHandler) Update(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	project, err := h.projectService.Update(c.Request.Context(), userID, projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.log.Error("Update failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"project": project})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	projectID, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	if err := h.projectService.Delete(c.Request.Context(), userID, projectID); err != nil {
		h.log.Error("Delete failed", "error", err, "project_id", projectID)
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
