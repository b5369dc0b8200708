package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

const contextPreviewChars = 200

type IngestContextInput struct {
	Scope     types.Scope
	Title     string
	Content   string
	ProjectID *uuid.UUID
	ChatID    *uuid.UUID
	FileURL   *string
	FileType  *string
}

type IngestContextResult struct {
	Item              *types.ContextItem `json:"item"`
	ChunksCreated     int                `json:"chunks_created"`
	EmbeddingsCreated int                `json:"embeddings_created"`
}

// IngestFileInput carries an uploaded text file. Content is decoded from the
// file bytes rather than submitted directly.
type IngestFileInput struct {
	Scope     types.Scope
	Title     string
	FileName  string
	Data      []byte
	ProjectID *uuid.UUID
	ChatID    *uuid.UUID
}

// ContextItemSummary is a list row: full content is replaced by a short
// preview so listing stays cheap for large items.
type ContextItemSummary struct {
	ID             uuid.UUID   `json:"id"`
	Scope          types.Scope `json:"scope"`
	Title          string      `json:"title"`
	ContentPreview string      `json:"content_preview"`
	ProjectID      *uuid.UUID  `json:"project_id,omitempty"`
	ChatID         *uuid.UUID  `json:"chat_id,omitempty"`
	FileURL        *string     `json:"file_url,omitempty"`
	FileType       *string     `json:"file_type,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

type ContextService interface {
	Ingest(ctx context.Context, userID uuid.UUID, input IngestContextInput) (*IngestContextResult, error)
	IngestFile(ctx context.Context, userID uuid.UUID, input IngestFileInput) (*IngestContextResult, error)
	List(ctx context.Context, userID uuid.UUID, scope *types.Scope, projectID, chatID *uuid.UUID, limit, offset int) ([]ContextItemSummary, int64, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
}

type contextService struct {
	db           *gorm.DB
	authz        Authorizer
	gemini       GeminiClient
	contextItems repos.ContextItemRepo
	embeddings   repos.ContextEmbeddingRepo
	log          *logger.Logger
	chunkSize    int
	chunkOverlap int
}

func NewContextService(
	db *gorm.DB,
	authz Authorizer,
	gemini GeminiClient,
	contextItems repos.ContextItemRepo,
	embeddings repos.ContextEmbeddingRepo,
	baseLog *logger.Logger,
) ContextService {
	log := baseLog.With("service", "ContextService")
	return &contextService{
		db:           db,
		authz:        authz,
		gemini:       gemini,
		contextItems: contextItems,
		embeddings:   embeddings,
		log:          log,
		chunkSize:    utils.GetEnvAsInt("CONTEXT_CHUNK_SIZE", DefaultChunkSize, log),
		chunkOverlap: utils.GetEnvAsInt("CONTEXT_CHUNK_OVERLAP", DefaultChunkOverlap, log),
	}
}

// validateAssociations enforces the scope invariant: project scope needs a
// project reference, chat scope needs both project and chat, global and user
// scope take neither. Ownership of any referenced project/chat is checked
// before anything is written or embedded.
func (s *contextService) validateAssociations(ctx context.Context, userID uuid.UUID, input IngestContextInput) error {
	switch input.Scope {
	case types.ScopeGlobal, types.ScopeUser:
		if input.ProjectID != nil || input.ChatID != nil {
			return apperr.Validation("invalid_context_association", "%s scope must not reference a project or chat", input.Scope)
		}
	case types.ScopeProject:
		if input.ProjectID == nil {
			return apperr.Validation("invalid_context_association", "project scope requires a project reference")
		}
		if input.ChatID != nil {
			return apperr.Validation("invalid_context_association", "project scope must not reference a chat")
		}
		if _, err := s.authz.AuthorizeProject(ctx, nil, *input.ProjectID, userID); err != nil {
			return err
		}
	case types.ScopeChat:
		if input.ProjectID == nil || input.ChatID == nil {
			return apperr.Validation("invalid_context_association", "chat scope requires both project and chat references")
		}
		chat, _, err := s.authz.AuthorizeChat(ctx, nil, *input.ChatID, userID)
		if err != nil {
			return err
		}
		if chat.ProjectID != *input.ProjectID {
			return apperr.Validation("invalid_context_association", "chat %s does not belong to project %s", input.ChatID, input.ProjectID)
		}
	default:
		return apperr.Validation("invalid_scope", "invalid scope %q", input.Scope)
	}
	return nil
}

func (s *contextService) Ingest(ctx context.Context, userID uuid.UUID, input IngestContextInput) (*IngestContextResult, error) {
	if !input.Scope.Valid() {
		return nil, apperr.Validation("invalid_scope", "invalid scope %q", input.Scope)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.Validation("invalid_context_title", "title must not be empty")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, apperr.Validation("invalid_context_content", "content must not be empty")
	}
	if err := s.validateAssociations(ctx, userID, input); err != nil {
		return nil, err
	}

	chunks, err := ChunkText(input.Content, s.chunkSize, s.chunkOverlap)
	if err != nil {
		return nil, err
	}

	vectors, err := s.gemini.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &types.ContextItem{
		ID:        uuid.New(),
		Scope:     input.Scope,
		Title:     input.Title,
		Content:   input.Content,
		ProjectID: input.ProjectID,
		ChatID:    input.ChatID,
		FileURL:   input.FileURL,
		FileType:  input.FileType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Scope != types.ScopeGlobal {
		owner := userID
		item.UserID = &owner
	}

	rows := make([]*types.ContextEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		rows = append(rows, &types.ContextEmbedding{
			ID:            uuid.New(),
			ContextItemID: item.ID,
			ChunkIndex:    i,
			Content:       chunk,
			Embedding:     pgvector.NewVector(vectors[i]),
			CreatedAt:     now,
		})
	}

	// Item and embeddings land atomically; a failed insert leaves no
	// half-ingested item behind.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.contextItems.Create(ctx, tx, item); err != nil {
			return err
		}
		if _, err := s.embeddings.CreateBatch(ctx, tx, rows); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Context item ingested",
		"context_item_id", item.ID.String(),
		"scope", item.Scope.String(),
		"chunks", len(chunks),
	)

	return &IngestContextResult{
		Item:              item,
		ChunksCreated:     len(chunks),
		EmbeddingsCreated: len(rows),
	}, nil
}

const maxUploadBytes = 1 << 20

// uploadFileTypes maps accepted upload extensions to the stored file type.
// Only plain-text formats are decoded; binary formats would need a parser.
var uploadFileTypes = map[string]string{
	".txt":      "txt",
	".md":       "md",
	".markdown": "md",
}

// IngestFile decodes an uploaded txt/md file into content and runs the normal
// ingestion path. There is no object storage backing; the original filename is
// kept on the item for provenance.
func (s *contextService) IngestFile(ctx context.Context, userID uuid.UUID, input IngestFileInput) (*IngestContextResult, error) {
	if len(input.Data) == 0 {
		return nil, apperr.Validation("invalid_context_file", "uploaded file is empty")
	}
	if len(input.Data) > maxUploadBytes {
		return nil, apperr.Validation("invalid_context_file", "uploaded file exceeds %d bytes", maxUploadBytes)
	}
	ext := strings.ToLower(filepath.Ext(input.FileName))
	fileType, ok := uploadFileTypes[ext]
	if !ok {
		return nil, apperr.Validation("unsupported_file_type", "unsupported file type %q, expected txt or md", ext)
	}
	if !utf8.Valid(input.Data) {
		return nil, apperr.Validation("invalid_context_file", "uploaded file is not valid UTF-8 text")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(input.FileName), ext)
	}
	fileName := filepath.Base(input.FileName)

	return s.Ingest(ctx, userID, IngestContextInput{
		Scope:     input.Scope,
		Title:     title,
		Content:   string(input.Data),
		ProjectID: input.ProjectID,
		ChatID:    input.ChatID,
		FileURL:   &fileName,
		FileType:  &fileType,
	})
}

func (s *contextService) List(ctx context.Context, userID uuid.UUID, scope *types.Scope, projectID, chatID *uuid.UUID, limit, offset int) ([]ContextItemSummary, int64, error) {
	if scope != nil && !scope.Valid() {
		return nil, 0, apperr.Validation("invalid_scope", "invalid scope %q", *scope)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	filter := repos.ContextItemFilter{
		Scope:     scope,
		ProjectID: projectID,
		ChatID:    chatID,
	}
	// Global items are visible to everyone; everything else is restricted to
	// the caller's own items. An unscoped list spans both.
	caller := userID
	if scope == nil {
		filter.VisibleToUser = &caller
	} else if *scope != types.ScopeGlobal {
		filter.UserID = &caller
	}

	items, total, err := s.contextItems.List(ctx, nil, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]ContextItemSummary, 0, len(items))
	for _, item := range items {
		preview := item.Content
		if len(preview) > contextPreviewChars {
			preview = preview[:alignRuneStart(preview, contextPreviewChars)]
		}
		summaries = append(summaries, ContextItemSummary{
			ID:             item.ID,
			Scope:          item.Scope,
			Title:          item.Title,
			ContentPreview: preview,
			ProjectID:      item.ProjectID,
			ChatID:         item.ChatID,
			FileURL:        item.FileURL,
			FileType:       item.FileType,
			CreatedAt:      item.CreatedAt,
		})
	}
	return summaries, total, nil
}

func (s *contextService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.contextItems.GetByID(ctx, nil, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return apperr.NotFound("context_item_not_found", "context item %s not found", itemID)
	}

	switch item.Scope {
	case types.ScopeGlobal:
		return apperr.AccessDenied("context_access_denied", "global context items cannot be deleted by users")
	case types.ScopeUser:
		if item.UserID == nil || *item.UserID != userID {
			return apperr.AccessDenied("context_access_denied", "context item %s is not owned by the caller", itemID)
		}
	case types.ScopeProject, types.ScopeChat:
		if item.ProjectID == nil {
			return apperr.AccessDenied("context_access_denied", "context item %s has no resolvable owner", itemID)
		}
		if _, err := s.authz.AuthorizeProject(ctx, nil, *item.ProjectID, userID); err != nil {
			return err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.embeddings.DeleteByContextItem(ctx, tx, itemID); err != nil {
			return err
		}
		return s.contextItems.Delete(ctx, tx, itemID)
	})
	if err != nil {
		return err
	}

	s.log.Info("Context item deleted", "context_item_id", itemID.String(), "scope", item.Scope.String())
	return nil
}
