package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/draftloop/draftloop-backend/internal/apperr"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/types"
)

const maxSuggestedQuestions = 5

// baseSuggestedQuestions seed every new chat regardless of document type.
var baseSuggestedQuestions = []string{
	"What problem should this document address?",
	"Who is the intended audience?",
	"Are there existing materials I should build on?",
}

// typeSuggestedQuestions extend the base set per document type, keyed by the
// document type's name.
var typeSuggestedQuestions = map[string][]string{
	"PRD": {
		"What are the success metrics for this product?",
		"Which user segments are in scope for the first release?",
	},
	"Technical Spec": {
		"What are the main architectural constraints?",
		"Which systems does this integrate with?",
	},
	"Design Doc": {
		"What alternatives were considered and rejected?",
		"What are the main risks of this approach?",
	},
	"Meeting Notes": {
		"Who attended and what decisions were made?",
		"What are the action items and owners?",
	},
}

// SuggestedQuestions returns up to maxSuggestedQuestions starter prompts for
// a chat of the given document type.
func SuggestedQuestions(documentType string) []string {
	questions := make([]string, 0, maxSuggestedQuestions)
	questions = append(questions, baseSuggestedQuestions...)
	questions = append(questions, typeSuggestedQuestions[documentType]...)
	if len(questions) > maxSuggestedQuestions {
		questions = questions[:maxSuggestedQuestions]
	}
	return questions
}

type ChatSummary struct {
	Chat                  *types.Chat `json:"chat"`
	MessageCount          int         `json:"message_count"`
	LatestDocumentVersion int         `json:"latest_document_version"`
}

type ChatDetail struct {
	Chat               *types.Chat      `json:"chat"`
	Messages           []*types.Message `json:"messages"`
	CurrentDocument    *types.Document  `json:"current_document,omitempty"`
	SuggestedQuestions []string         `json:"suggested_questions"`
}

type ChatService interface {
	Create(ctx context.Context, userID, projectID uuid.UUID, documentType string) (*ChatDetail, error)
	Get(ctx context.Context, userID, chatID uuid.UUID) (*ChatDetail, error)
	List(ctx context.Context, userID, projectID uuid.UUID, limit, offset int) ([]ChatSummary, int64, error)
	Delete(ctx context.Context, userID, chatID uuid.UUID) error
}

type chatService struct {
	chatRepo         repos.ChatRepo
	messageRepo      repos.MessageRepo
	documentRepo     repos.DocumentRepo
	documentTypeRepo repos.DocumentTypeRepo
	authz            Authorizer
	log              *logger.Logger
}

func NewChatService(
	chatRepo repos.ChatRepo,
	messageRepo repos.MessageRepo,
	documentRepo repos.DocumentRepo,
	documentTypeRepo repos.DocumentTypeRepo,
	authz Authorizer,
	baseLog *logger.Logger,
) ChatService {
	return &chatService{
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		documentRepo:     documentRepo,
		documentTypeRepo: documentTypeRepo,
		authz:            authz,
		log:              baseLog.With("service", "ChatService"),
	}
}

func (s *chatService) Create(ctx context.Context, userID, projectID uuid.UUID, documentType string) (*ChatDetail, error) {
	if _, err := s.authz.AuthorizeProject(ctx, nil, projectID, userID); err != nil {
		return nil, err
	}

	docType, err := s.documentTypeRepo.GetByName(ctx, nil, documentType)
	if err != nil {
		return nil, err
	}
	if docType == nil || !docType.IsActive {
		return nil, apperr.Validation("invalid_document_type", "unknown document type %q", documentType)
	}

	now := time.Now().UTC()
	chat := &types.Chat{
		ID:           uuid.New(),
		ProjectID:    projectID,
		Title:        now.Format("2006-01-02") + " - " + docType.Name,
		DocumentType: docType.Name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.chatRepo.Create(ctx, nil, chat); err != nil {
		return nil, err
	}
	s.log.Info("Chat created", "chat_id", chat.ID.String(), "project_id", projectID.String(), "document_type", docType.Name)

	return &ChatDetail{
		Chat:               chat,
		Messages:           []*types.Message{},
		SuggestedQuestions: SuggestedQuestions(docType.Name),
	}, nil
}

func (s *chatService) Get(ctx context.Context, userID, chatID uuid.UUID) (*ChatDetail, error) {
	chat, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByChat(ctx, nil, chatID, 0)
	if err != nil {
		return nil, err
	}
	current, err := s.documentRepo.GetLatest(ctx, nil, chatID)
	if err != nil {
		return nil, err
	}
	return &ChatDetail{
		Chat:               chat,
		Messages:           messages,
		CurrentDocument:    current,
		SuggestedQuestions: SuggestedQuestions(chat.DocumentType),
	}, nil
}

func (s *chatService) List(ctx context.Context, userID, projectID uuid.UUID, limit, offset int) ([]ChatSummary, int64, error) {
	if _, err := s.authz.AuthorizeProject(ctx, nil, projectID, userID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	chats, total, err := s.chatRepo.ListByProject(ctx, nil, projectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uuid.UUID, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.ID)
	}
	messageCounts, err := s.chatRepo.CountMessagesByChat(ctx, nil, ids)
	if err != nil {
		return nil, 0, err
	}
	versions, err := s.chatRepo.LatestDocumentVersions(ctx, nil, ids)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]ChatSummary, 0, len(chats))
	for _, c := range chats {
		summaries = append(summaries, ChatSummary{
			Chat:                  c,
			MessageCount:          messageCounts[c.ID],
			LatestDocumentVersion: versions[c.ID],
		})
	}
	return summaries, total, nil
}

func (s *chatService) Delete(ctx context.Context, userID, chatID uuid.UUID) error {
	if _, _, err := s.authz.AuthorizeChat(ctx, nil, chatID, userID); err != nil {
		return err
	}
	if err := s.chatRepo.Delete(ctx, nil, chatID); err != nil {
		return err
	}
	s.log.Info("Chat deleted", "chat_id", chatID.String(), "user_id", userID.String())
	return nil
}
