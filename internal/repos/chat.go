package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type ChatRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Chat, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, limit, offset int) ([]*types.Chat, int64, error)
	Update(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountMessagesByChat(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) (map[uuid.UUID]int, error)
	LatestDocumentVersions(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{db: db, log: baseLog.With("repo", "ChatRepo")}
}

func (r *chatRepo) Create(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var chat types.Chat
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *chatRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, limit, offset int) ([]*types.Chat, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := transaction.WithContext(ctx).
		Model(&types.Chat{}).
		Where("project_id = ?", projectID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var chats []*types.Chat
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&chats).Error; err != nil {
		return nil, 0, err
	}
	return chats, total, nil
}

func (r *chatRepo) Update(ctx context.Context, tx *gorm.DB, chat *types.Chat) (*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Save(chat).Error; err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *chatRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.Chat{}).Error
}

func (r *chatRepo) CountMessagesByChat(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	counts := make(map[uuid.UUID]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ChatID uuid.UUID
		N      int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Select("chat_id, COUNT(*) AS n").
		Where("chat_id IN ?", chatIDs).
		Group("chat_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ChatID] = row.N
	}
	return counts, nil
}

func (r *chatRepo) LatestDocumentVersions(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	versions := make(map[uuid.UUID]int, len(chatIDs))
	if len(chatIDs) == 0 {
		return versions, nil
	}
	var rows []struct {
		ChatID uuid.UUID
		V      int
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Document{}).
		Select("chat_id, MAX(version) AS v").
		Where("chat_id IN ?", chatIDs).
		Group("chat_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		versions[row.ChatID] = row.V
	}
	return versions, nil
}
