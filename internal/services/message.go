package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type CreateMessageInput struct {
	Role     string
	Content  string
	Metadata datatypes.JSON
}

type MessageService interface {
	Create(ctx context.Context, userID, chatID uuid.UUID, input CreateMessageInput) (*types.Message, error)
	List(ctx context.Context, userID, chatID uuid.UUID, limit int) ([]*types.Message, error)
}

type messageService struct {
	messageRepo repos.MessageRepo
	chatRepo    repos.ChatRepo
	authz       Authorizer
	log         *logger.Logger
}

func NewMessageService(messageRepo repos.MessageRepo, chatRepo repos.ChatRepo, authz Authorizer, baseLog *logger.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		authz:       authz,
		log:         baseLog.With("service", "MessageService"),
	}
}

func (s *messageService) Create(ctx context.Context, userID, chatID uuid.UUID, input CreateMessageInput) (*types.Message, error) {
	if input.Role != MessageRoleUser && input.Role != MessageRoleAssistant {
		return nil, apperr.Validation("invalid_message_role", "role must be %q or %q, got %q", MessageRoleUser, MessageRoleAssistant, input.Role)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Validation("invalid_message_content", "content must not be empty")
	}
	chat, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	message := &types.Message{
		ID:        uuid.New(),
		ChatID:    chatID,
		Role:      input.Role,
		Content:   input.Content,
		Metadata:  input.Metadata,
		CreatedAt: now,
	}
	if _, err := s.messageRepo.Create(ctx, nil, message); err != nil {
		return nil, err
	}

	// A new message bumps the chat so recency ordering stays truthful.
	chat.UpdatedAt = now
	if _, err := s.chatRepo.Update(ctx, nil, chat); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *messageService) List(ctx context.Context, userID, chatID uuid.UUID, limit int) ([]*types.Message, error) {
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListByChat(ctx, nil, chatID, limit)
}
