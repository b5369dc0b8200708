package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

// Authorizer resolves a resource back to its owning project and checks the
// caller against the project's owner. Every entry point that touches a
// project-rooted resource goes through here rather than re-walking the chain
// itself.
type Authorizer interface {
	AuthorizeProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*types.Project, error)
	AuthorizeChat(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, *types.Project, error)
}

type authorizer struct {
	projectRepo repos.ProjectRepo
	chatRepo    repos.ChatRepo
	log         *logger.Logger
}

func NewAuthorizer(projectRepo repos.ProjectRepo, chatRepo repos.ChatRepo, baseLog *logger.Logger) Authorizer {
	return &authorizer{
		projectRepo: projectRepo,
		chatRepo:    chatRepo,
		log:         baseLog.With("service", "Authorizer"),
	}
}

func (a *authorizer) AuthorizeProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*types.Project, error) {
	project, err := a.projectRepo.GetByID(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project_not_found", "project %s not found", projectID)
	}
	if project.UserID != userID {
		a.log.Warn("Project access denied", "project_id", projectID.String(), "user_id", userID.String())
		return nil, apperr.AccessDenied("project_access_denied", "project %s is not owned by the caller", projectID)
	}
	return project, nil
}

func (a *authorizer) AuthorizeChat(ctx context.Context, tx *gorm.DB, chatID, userID uuid.UUID) (*types.Chat, *types.Project, error) {
	chat, err := a.chatRepo.GetByID(ctx, tx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if chat == nil {
		return nil, nil, apperr.NotFound("chat_not_found", "chat %s not found", chatID)
	}
	project, err := a.AuthorizeProject(ctx, tx, chat.ProjectID, userID)
	if err != nil {
		return nil, nil, err
	}
	return chat, project, nil
}
