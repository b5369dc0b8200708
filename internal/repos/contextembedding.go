package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
)

// VectorSearchResult is one similarity hit: the chunk's content and its
// cosine similarity to the query vector, in [−1, 1].
type VectorSearchResult struct {
	Content    string  `gorm:"column:content"`
	Similarity float64 `gorm:"column:similarity"`
}

type ContextEmbeddingRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, embeddings []*types.ContextEmbedding) ([]*types.ContextEmbedding, error)
	GetByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) ([]*types.ContextEmbedding, error)
	DeleteByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) error
	// VectorSearch returns up to limit chunks whose parent item matches the
	// scope (and user for user scope), ordered by descending cosine
	// similarity. Backs global/user retrieval only; project/chat scope is
	// listed exhaustively instead.
	VectorSearch(ctx context.Context, tx *gorm.DB, query []float32, scope types.Scope, userID *uuid.UUID, limit int) ([]VectorSearchResult, error)
}

type contextEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContextEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) ContextEmbeddingRepo {
	return &contextEmbeddingRepo{db: db, log: baseLog.With("repo", "ContextEmbeddingRepo")}
}

func (r *contextEmbeddingRepo) CreateBatch(ctx context.Context, tx *gorm.DB, embeddings []*types.ContextEmbedding) ([]*types.ContextEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(embeddings) == 0 {
		return []*types.ContextEmbedding{}, nil
	}

	// Keep batches small because Content is large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(embeddings, batchSize).Error; err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (r *contextEmbeddingRepo) GetByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) ([]*types.ContextEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var embeddings []*types.ContextEmbedding
	if err := transaction.WithContext(ctx).
		Where("context_item_id = ?", contextItemID).
		Order("chunk_index ASC").
		Find(&embeddings).Error; err != nil {
		return nil, err
	}
	return embeddings, nil
}

func (r *contextEmbeddingRepo) DeleteByContextItem(ctx context.Context, tx *gorm.DB, contextItemID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("context_item_id = ?", contextItemID).
		Delete(&types.ContextEmbedding{}).Error
}

func (r *contextEmbeddingRepo) VectorSearch(ctx context.Context, tx *gorm.DB, query []float32, scope types.Scope, userID *uuid.UUID, limit int) ([]VectorSearchResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	vec := pgvector.NewVector(query)

	sql := `
		SELECT ce.content, 1 - (ce.embedding <=> ?) AS similarity
		FROM context_embedding ce
		JOIN context_item ci ON ci.id = ce.context_item_id
		WHERE ci.scope = ?`
	args := []interface{}{vec, scope}
	if userID != nil {
		sql += ` AND ci.user_id = ?`
		args = append(args, *userID)
	}
	sql += `
		ORDER BY ce.embedding <=> ?
		LIMIT ?`
	args = append(args, vec, limit)

	var results []VectorSearchResult
	if err := transaction.WithContext(ctx).Raw(sql, args...).Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
