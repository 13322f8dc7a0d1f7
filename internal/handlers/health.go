package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"skillshare/internal/database"
	"skillshare/internal/realtime"
	"skillshare/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mongoDB *database.MongoDB
	redis   *services.RedisService // nil when running without Redis
	hub     *realtime.Hub
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongoDB *database.MongoDB, redis *services.RedisService, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{mongoDB: mongoDB, redis: redis, hub: hub}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"
	if err := h.mongoDB.Ping(c.Context()); err != nil {
		status = "degraded"
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "ok"
		if err := h.redis.Ping(c.Context()); err != nil {
			redisStatus = "unavailable"
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":      status,
		"redis":       redisStatus,
		"connections": h.hub.Count(),
		"timestamp":   time.Now().Format(time.RFC3339),
	})
}
