package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
)

type DocumentTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, documentType *types.DocumentType) (*types.DocumentType, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.DocumentType, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.DocumentType, error)
}

type documentTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentTypeRepo(db *gorm.DB, baseLog *logger.Logger) DocumentTypeRepo {
	return &documentTypeRepo{db: db, log: baseLog.With("repo", "DocumentTypeRepo")}
}

func (r *documentTypeRepo) Create(ctx context.Context, tx *gorm.DB, documentType *types.DocumentType) (*types.DocumentType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(documentType).Error; err != nil {
		return nil, err
	}
	return documentType, nil
}

func (r *documentTypeRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.DocumentType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var documentType types.DocumentType
	err := transaction.WithContext(ctx).Where("name = ?", name).First(&documentType).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &documentType, nil
}

func (r *documentTypeRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.DocumentType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var documentTypes []*types.DocumentType
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&documentTypes).Error; err != nil {
		return nil, err
	}
	return documentTypes, nil
}
