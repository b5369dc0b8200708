package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
)

// ContextItemFilter narrows List/GetAllByScope queries. Nil fields are not
// applied. VisibleToUser matches rows owned by the user plus global rows,
// which have no owner.
type ContextItemFilter struct {
	Scope         *types.Scope
	UserID        *uuid.UUID
	VisibleToUser *uuid.UUID
	ProjectID     *uuid.UUID
	ChatID        *uuid.UUID
}

type ContextItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, item *types.ContextItem) (*types.ContextItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContextItem, error)
	List(ctx context.Context, tx *gorm.DB, filter ContextItemFilter, limit, offset int) ([]*types.ContextItem, int64, error)
	// GetAllByScope is exhaustive and unpaginated. It backs project/chat scope
	// retrieval, where item volume is bounded by the project/chat lifetime.
	GetAllByScope(ctx context.Context, tx *gorm.DB, filter ContextItemFilter) ([]*types.ContextItem, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type contextItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContextItemRepo(db *gorm.DB, baseLog *logger.Logger) ContextItemRepo {
	return &contextItemRepo{db: db, log: baseLog.With("repo", "ContextItemRepo")}
}

func applyContextItemFilter(q *gorm.DB, filter ContextItemFilter) *gorm.DB {
	if filter.Scope != nil {
		q = q.Where("scope = ?", *filter.Scope)
	}
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.VisibleToUser != nil {
		q = q.Where("user_id = ? OR scope = ?", *filter.VisibleToUser, types.ScopeGlobal)
	}
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.ChatID != nil {
		q = q.Where("chat_id = ?", *filter.ChatID)
	}
	return q
}

func (r *contextItemRepo) Create(ctx context.Context, tx *gorm.DB, item *types.ContextItem) (*types.ContextItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

func (r *contextItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContextItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.ContextItem
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contextItemRepo) List(ctx context.Context, tx *gorm.DB, filter ContextItemFilter, limit, offset int) ([]*types.ContextItem, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	countQ := applyContextItemFilter(transaction.WithContext(ctx).Model(&types.ContextItem{}), filter)
	if err := countQ.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*types.ContextItem
	listQ := applyContextItemFilter(transaction.WithContext(ctx), filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset)
	if err := listQ.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *contextItemRepo) GetAllByScope(ctx context.Context, tx *gorm.DB, filter ContextItemFilter) ([]*types.ContextItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var items []*types.ContextItem
	q := applyContextItemFilter(transaction.WithContext(ctx), filter).
		Order("created_at ASC")
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *contextItemRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.ContextItem{}).Error
}
