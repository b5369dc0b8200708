package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/draftloop/draftloop-backend/internal/logger"
)

type HealthHandler struct {
	log *logger.Logger
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(log *logger.Logger, db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		log: log.With("handler", "HealthHandler"),
		db:  db,
		rdb: rdb,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

// Ready pings postgres and redis so orchestrators can tell a warm process
// from a serving one.
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := gin.H{}
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		h.log.Warn("Postgres readiness check failed", "error", err)
		checks["postgres"] = "down"
		healthy = false
	} else {
		checks["postgres"] = "up"
	}

	if h.rdb != nil {
		if err := h.rdb.Ping(c.Request.Context()).Err(); err != nil {
			h.log.Warn("Redis readiness check failed", "error", err)
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"checks": checks})
}
