package middleware

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger logs each HTTP request as one JSON object per line on stdout.
// Fields: request_id, user_id (when authenticated), method, path, status,
// bytes, latency (milliseconds).
func Logger() fiber.Handler {
	enc := json.NewEncoder(os.Stdout)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collect fields after the handler ran to capture the final status.
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		entry := map[string]any{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"bytes":      len(c.Response().Body()),
			"latency":    float64(time.Since(start).Milliseconds()),
		}
		if u := AuthUser(c); u != nil {
			entry["user_id"] = u.ID
		}
		_ = enc.Encode(entry)

		return err
	}
}
