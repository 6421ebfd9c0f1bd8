package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports readiness, including database connectivity.
// @Summary Readiness probe
// @Produce json
// @Success 200
// @Router /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "DB_UNAVAILABLE", "database is unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// LivenessProbe reports process liveness only.
// @Summary Liveness probe
// @Produce json
// @Success 200
// @Router /live [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	}
}
