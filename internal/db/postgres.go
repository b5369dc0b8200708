package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/types"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "draftloop", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		serviceLog.Error("Failed to enable pgvector extension", "error", err)
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Project{},
		&types.Chat{},
		&types.Message{},
		&types.Document{},
		&types.DocumentType{},
		&types.GenerationMetric{},
		&types.ContextItem{},
		&types.ContextEmbedding{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	fks := []struct {
		table      string
		constraint string
		column     string
		refTable   string
	}{
		{"project", "fk_project_user_id", "user_id", "user"},
		{"chat", "fk_chat_project_id", "project_id", "project"},
		{"message", "fk_message_chat_id", "chat_id", "chat"},
		{"document", "fk_document_chat_id", "chat_id", "chat"},
		{"generation_metric", "fk_generation_metric_chat_id", "chat_id", "chat"},
		{"context_embedding", "fk_context_embedding_item_id", "context_item_id", "context_item"},
	}
	for _, fk := range fks {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q
			DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q
			ADD CONSTRAINT %q
			FOREIGN KEY (%q)
			REFERENCES %q("id")
			ON DELETE CASCADE
		`, fk.table, fk.constraint, fk.table, fk.constraint, fk.column, fk.refTable)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.constraint, err)
		}
	}

	// ANN index for the retrieval engine's similarity queries.
	if err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_context_embedding_ann
		ON "context_embedding"
		USING ivfflat ("embedding" vector_cosine_ops)
		WITH (lists = 100)
	`).Error; err != nil {
		return fmt.Errorf("failed to create embedding ann index: %w", err)
	}

	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
