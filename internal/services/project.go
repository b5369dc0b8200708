package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type CreateProjectInput struct {
	Name        string
	Description *string
}

type UpdateProjectInput struct {
	Name        *string
	Description *string
}

type ProjectSummary struct {
	Project   *types.Project `json:"project"`
	ChatCount int            `json:"chat_count"`
}

type ProjectDetail struct {
	Project          *types.Project `json:"project"`
	ChatCount        int            `json:"chat_count"`
	ContextItemCount int64          `json:"context_item_count"`
}

type ProjectService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateProjectInput) (*types.Project, error)
	Get(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetail, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ProjectSummary, int64, error)
	Update(ctx context.Context, userID, projectID uuid.UUID, input UpdateProjectInput) (*types.Project, error)
	Delete(ctx context.Context, userID, projectID uuid.UUID) error
}

type projectService struct {
	projectRepo repos.ProjectRepo
	authz       Authorizer
	log         *logger.Logger
}

func NewProjectService(projectRepo repos.ProjectRepo, authz Authorizer, baseLog *logger.Logger) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		authz:       authz,
		log:         baseLog.With("service", "ProjectService"),
	}
}

func (s *projectService) Create(ctx context.Context, userID uuid.UUID, input CreateProjectInput) (*types.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("invalid_project_name", "project name must not be empty")
	}
	now := time.Now().UTC()
	project := &types.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: input.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.projectRepo.Create(ctx, nil, project); err != nil {
		return nil, err
	}
	s.log.Info("Project created", "project_id", project.ID.String(), "user_id", userID.String())
	return project, nil
}

func (s *projectService) Get(ctx context.Context, userID, projectID uuid.UUID) (*ProjectDetail, error) {
	project, err := s.authz.AuthorizeProject(ctx, nil, projectID, userID)
	if err != nil {
		return nil, err
	}
	chatCounts, err := s.projectRepo.CountChatsByProject(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	contextCount, err := s.projectRepo.CountContextItems(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{
		Project:          project,
		ChatCount:        chatCounts[projectID],
		ContextItemCount: contextCount,
	}, nil
}

func (s *projectService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ProjectSummary, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	projects, total, err := s.projectRepo.ListByUser(ctx, nil, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	counts, err := s.projectRepo.CountChatsByProject(ctx, nil, ids)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, ProjectSummary{Project: p, ChatCount: counts[p.ID]})
	}
	return summaries, total, nil
}

func (s *projectService) Update(ctx context.Context, userID, projectID uuid.UUID, input UpdateProjectInput) (*types.Project, error) {
	project, err := s.authz.AuthorizeProject(ctx, nil, projectID, userID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("invalid_project_name", "project name must not be empty")
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = input.Description
	}
	project.UpdatedAt = time.Now().UTC()
	return s.projectRepo.Update(ctx, nil, project)
}

func (s *projectService) Delete(ctx context.Context, userID, projectID uuid.UUID) error {
	if _, err := s.authz.AuthorizeProject(ctx, nil, projectID, userID); err != nil {
		return err
	}
	if err := s.projectRepo.Delete(ctx, nil, projectID); err != nil {
		return err
	}
	s.log.Info("Project deleted", "project_id", projectID.String(), "user_id", userID.String())
	return nil
}
