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

type CreateDocumentInput struct {
	Content          string
	TokenInput       int
	TokenOutput      int
	DiffFromPrevious *string
	GenerationTimeMs *int
}

type DocumentService interface {
	// Create appends the next version to the chat's document lineage.
	Create(ctx context.Context, userID, chatID uuid.UUID, input CreateDocumentInput) (*types.Document, error)
	Get(ctx context.Context, userID, documentID uuid.UUID) (*types.Document, error)
	GetLatest(ctx context.Context, userID, chatID uuid.UUID) (*types.Document, error)
	ListByChat(ctx context.Context, userID, chatID uuid.UUID) ([]*types.Document, error)
}

type documentService struct {
	documentRepo repos.DocumentRepo
	authz        Authorizer
	log          *logger.Logger
}

func NewDocumentService(documentRepo repos.DocumentRepo, authz Authorizer, baseLog *logger.Logger) DocumentService {
	return &documentService{
		documentRepo: documentRepo,
		authz:        authz,
		log:          baseLog.With("service", "DocumentService"),
	}
}

func (s *documentService) Create(ctx context.Context, userID, chatID uuid.UUID, input CreateDocumentInput) (*types.Document, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Validation("invalid_document_content", "content must not be empty")
	}
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}

	latest, err := s.documentRepo.GetLatest(ctx, nil, chatID)
	if err != nil {
		return nil, err
	}
	version := 1
	if latest != nil {
		version = latest.Version + 1
	}

	document := &types.Document{
		ID:               uuid.New(),
		ChatID:           chatID,
		Version:          version,
		Content:          input.Content,
		TokenInput:       input.TokenInput,
		TokenOutput:      input.TokenOutput,
		DiffFromPrevious: input.DiffFromPrevious,
		GenerationTimeMs: input.GenerationTimeMs,
		CreatedAt:        time.Now().UTC(),
	}
	if _, err := s.documentRepo.Create(ctx, nil, document); err != nil {
		return nil, err
	}
	s.log.Info("Document version created", "document_id", document.ID.String(), "chat_id", chatID.String(), "version", version)
	return document, nil
}

func (s *documentService) Get(ctx context.Context, userID, documentID uuid.UUID) (*types.Document, error) {
	document, err := s.documentRepo.GetByID(ctx, nil, documentID)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperr.NotFound("document_not_found", "document %s not found", documentID)
	}
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, document.ChatID, userID); err != nil {
		return nil, err
	}
	return document, nil
}

func (s *documentService) GetLatest(ctx context.Context, userID, chatID uuid.UUID) (*types.Document, error) {
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}
	document, err := s.documentRepo.GetLatest(ctx, nil, chatID)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, apperr.NotFound("document_not_found", "chat %s has no documents yet", chatID)
	}
	return document, nil
}

func (s *documentService) ListByChat(ctx context.Context, userID, chatID uuid.UUID) ([]*types.Document, error) {
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return nil, err
	}
	return s.documentRepo.ListByChat(ctx, nil, chatID)
}
