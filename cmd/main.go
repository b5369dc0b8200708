package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/draftloop/draftloop-backend/internal/clients/redis"
	"github.com/draftloop/draftloop-backend/internal/db"
	"github.com/draftloop/draftloop-backend/internal/handlers"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/middleware"
	"github.com/draftloop/draftloop-backend/internal/repos"
	"github.com/draftloop/draftloop-backend/internal/server"
	"github.com/draftloop/draftloop-backend/internal/services"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis
	rdb, err := redis.NewClient(log)
	if err != nil {
		log.Warn("Redis init failed, rate limiting will fail open", "error", err)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	chatRepo := repos.NewChatRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	documentTypeRepo := repos.NewDocumentTypeRepo(thePG, log)
	generationMetricRepo := repos.NewGenerationMetricRepo(thePG, log)
	contextItemRepo := repos.NewContextItemRepo(thePG, log)
	contextEmbeddingRepo := repos.NewContextEmbeddingRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}
	authz := services.NewAuthorizer(projectRepo, chatRepo, log)
	userService := services.NewUserService(userRepo, log)
	projectService := services.NewProjectService(projectRepo, authz, log)
	chatService := services.NewChatService(chatRepo, messageRepo, documentRepo, documentTypeRepo, authz, log)
	messageService := services.NewMessageService(messageRepo, chatRepo, authz, log)
	documentService := services.NewDocumentService(documentRepo, authz, log)
	documentTypeService := services.NewDocumentTypeService(documentTypeRepo, log)
	metricsService := services.NewMetricsService(generationMetricRepo, authz, log)
	contextService := services.NewContextService(thePG, authz, geminiClient, contextItemRepo, contextEmbeddingRepo, log)
	retrievalService := services.NewRetrievalService(authz, geminiClient, contextItemRepo, contextEmbeddingRepo, log)

	// Handlers
	log.Info("Setting up Handlers from main...")
	healthHandler := handlers.NewHealthHandler(log, thePG, rdb)
	userHandler := handlers.NewUserHandler(log, userService)
	projectHandler := handlers.NewProjectHandler(log, projectService)
	chatHandler := handlers.NewChatHandler(log, chatService)
	messageHandler := handlers.NewMessageHandler(log, messageService)
	documentHandler := handlers.NewDocumentHandler(log, documentService)
	documentTypeHandler := handlers.NewDocumentTypeHandler(log, documentTypeService)
	contextHandler := handlers.NewContextHandler(log, contextService, retrievalService)
	metricsHandler := handlers.NewMetricsHandler(log, metricsService)

	// Middleware
	identityMiddleware := middleware.NewIdentityMiddleware(userService, log)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(rdb, log)

	// Router
	router := server.NewRouter(server.RouterConfig{
		Log:                 log,
		IdentityMiddleware:  identityMiddleware,
		RateLimitMiddleware: rateLimitMiddleware,
		HealthHandler:       healthHandler,
		UserHandler:         userHandler,
		ProjectHandler:      projectHandler,
		ChatHandler:         chatHandler,
		MessageHandler:      messageHandler,
		DocumentHandler:     documentHandler,
		DocumentTypeHandler: documentTypeHandler,
		ContextHandler:      contextHandler,
		MetricsHandler:      metricsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
