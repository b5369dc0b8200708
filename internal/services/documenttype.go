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

type CreateDocumentTypeInput struct {
	Name           string
	Description    *string
	PromptTemplate *string
}

type DocumentTypeService interface {
	Create(ctx context.Context, input CreateDocumentTypeInput) (*types.DocumentType, error)
	ListActive(ctx context.Context) ([]*types.DocumentType, error)
}

type documentTypeService struct {
	documentTypeRepo repos.DocumentTypeRepo
	log              *logger.Logger
}

func NewDocumentTypeService(documentTypeRepo repos.DocumentTypeRepo, baseLog *logger.Logger) DocumentTypeService {
	return &documentTypeService{
		documentTypeRepo: documentTypeRepo,
		log:              baseLog.With("service", "DocumentTypeService"),
	}
}

func (s *documentTypeService) Create(ctx context.Context, input CreateDocumentTypeInput) (*types.DocumentType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("invalid_document_type_name", "name must not be empty")
	}
	existing, err := s.documentTypeRepo.GetByName(ctx, nil, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("document_type_exists", "document type %q already exists", name)
	}
	documentType := &types.DocumentType{
		ID:             uuid.New(),
		Name:           name,
		Description:    input.Description,
		PromptTemplate: input.PromptTemplate,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := s.documentTypeRepo.Create(ctx, nil, documentType); err != nil {
		return nil, err
	}
	s.log.Info("Document type created", "name", name)
	return documentType, nil
}

func (s *documentTypeService) ListActive(ctx context.Context) ([]*types.DocumentType, error) {
	return s.documentTypeRepo.ListActive(ctx, nil)
}
