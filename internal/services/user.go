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

// UserSummary is a list row with the user's project count attached.
type UserSummary struct {
	User         *types.User `json:"user"`
	ProjectCount int         `json:"project_count"`
}

type UserService interface {
	// GetOrCreateByCookie resolves the anonymous identity behind a cookie
	// value, creating a fresh user on first sight. The returned bool is true
	// when a new user was created.
	GetOrCreateByCookie(ctx context.Context, cookieID string) (*types.User, bool, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) (*types.User, error)
	List(ctx context.Context) ([]UserSummary, error)
	// Switch validates that the target user exists and returns it so the
	// handler can point the identity cookie at its cookie id.
	Switch(ctx context.Context, targetUserID uuid.UUID) (*types.User, error)
}

type userService struct {
	userRepo repos.UserRepo
	log      *logger.Logger
}

func NewUserService(userRepo repos.UserRepo, baseLog *logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      baseLog.With("service", "UserService"),
	}
}

func (s *userService) GetOrCreateByCookie(ctx context.Context, cookieID string) (*types.User, bool, error) {
	if cookieID == "" {
		return nil, false, apperr.Validation("invalid_cookie", "cookie id must not be empty")
	}
	user, err := s.userRepo.GetByCookieID(ctx, nil, cookieID)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	now := time.Now().UTC()
	user = &types.User{
		ID:        uuid.New(),
		CookieID:  cookieID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.userRepo.Create(ctx, nil, user); err != nil {
		// Two first-sight requests can race on the same cookie; the loser
		// re-reads the winner's row.
		existing, getErr := s.userRepo.GetByCookieID(ctx, nil, cookieID)
		if getErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	s.log.Info("New anonymous user created", "user_id", user.ID.String())
	return user, true, nil
}

func (s *userService) GetByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user_not_found", "user %s not found", userID)
	}
	return user, nil
}

func (s *userService) UpdateName(ctx context.Context, userID uuid.UUID, name string) (*types.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("invalid_user_name", "name must not be empty")
	}
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = &name
	user.UpdatedAt = time.Now().UTC()
	return s.userRepo.Update(ctx, nil, user)
}

func (s *userService) List(ctx context.Context) ([]UserSummary, error) {
	users, err := s.userRepo.ListAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	counts, err := s.userRepo.CountProjectsByUser(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{User: u, ProjectCount: counts[u.ID]})
	}
	return summaries, nil
}

func (s *userService) Switch(ctx context.Context, targetUserID uuid.UUID) (*types.User, error) {
	return s.GetByID(ctx, targetUserID)
}
