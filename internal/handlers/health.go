package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	store   Pinger
	timeout time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, store Pinger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		Version: version,
		store:   store,
		timeout: timeout,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		log.WithError(err).Warn("⚠️ Health check: store unreachable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Storage unavailable",
			"success": false,
			"status":  "DEGRADED",
			"service": "WashPe Backend",
			"version": h.Version,
		})
	}
	return c.JSON(fiber.Map{
		"message": "OK",
		"success": true,
		"status":  "OK",
		"service": "WashPe Backend",
		"version": h.Version,
	})
}
