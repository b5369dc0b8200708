package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/draftloop/draftloop-backend/internal/handlers"
	"github.com/draftloop/draftloop-backend/internal/logger"
	"github.com/draftloop/draftloop-backend/internal/middleware"
	"github.com/draftloop/draftloop-backend/internal/utils"
)

type RouterConfig struct {
	Log                 *logger.Logger
	IdentityMiddleware  *middleware.IdentityMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	HealthHandler       *handlers.HealthHandler
	UserHandler         *handlers.UserHandler
	ProjectHandler      *handlers.ProjectHandler
	ChatHandler         *handlers.ChatHandler
	MessageHandler      *handlers.MessageHandler
	DocumentHandler     *handlers.DocumentHandler
	DocumentTypeHandler *handlers.DocumentTypeHandler
	ContextHandler      *handlers.ContextHandler
	MetricsHandler      *handlers.MetricsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", cfg.Log)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(origins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/health", cfg.HealthHandler.Health)
	router.GET("/health/ready", cfg.HealthHandler.Ready)

	// ===============
	// || API v1    ||
	// ===============
	api := router.Group("/api/v1")
	api.Use(cfg.RateLimitMiddleware.Handle())
	api.Use(cfg.IdentityMiddleware.Handle())

	// Users
	api.GET("/users/me", cfg.UserHandler.Me)
	api.PATCH("/users/me", cfg.UserHandler.UpdateMe)
	api.GET("/users", cfg.UserHandler.List)
	api.POST("/users/switch", cfg.UserHandler.Switch)

	// Projects
	api.POST("/projects", cfg.ProjectHandler.Create)
	api.GET("/projects", cfg.ProjectHandler.List)
	api.GET("/projects/:projectID", cfg.ProjectHandler.Get)
	api.PATCH("/projects/:projectID", cfg.ProjectHandler.Update)
	api.DELETE("/projects/:projectID", cfg.ProjectHandler.Delete)

	// Chats
	api.POST("/projects/:projectID/chats", cfg.ChatHandler.Create)
	api.GET("/projects/:projectID/chats", cfg.ChatHandler.List)
	api.GET("/chats/:chatID", cfg.ChatHandler.Get)
	api.DELETE("/chats/:chatID", cfg.ChatHandler.Delete)

	// Messages
	api.POST("/chats/:chatID/messages", cfg.MessageHandler.Create)
	api.GET("/chats/:chatID/messages", cfg.MessageHandler.List)

	// Documents
	api.POST("/chats/:chatID/documents", cfg.DocumentHandler.Create)
	api.GET("/chats/:chatID/documents", cfg.DocumentHandler.ListByChat)
	api.GET("/documents/:documentID", cfg.DocumentHandler.Get)
	api.GET("/documents/:documentID/download", cfg.DocumentHandler.Download)

	// Document types
	api.GET("/document-types", cfg.DocumentTypeHandler.List)
	api.POST("/document-types", cfg.DocumentTypeHandler.Create)

	// Metrics
	api.POST("/chats/:chatID/metrics", cfg.MetricsHandler.Record)
	api.GET("/chats/:chatID/metrics", cfg.MetricsHandler.Summary)

	// Context
	api.POST("/context", cfg.ContextHandler.Ingest)
	api.POST("/context/upload", cfg.ContextHandler.Upload)
	api.GET("/context", cfg.ContextHandler.List)
	api.DELETE("/context/:contextItemID", cfg.ContextHandler.Delete)
	api.POST("/context/retrieve", cfg.ContextHandler.Retrieve)

	return router
}
