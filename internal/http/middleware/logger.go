package middleware

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger logs each HTTP request as one JSON object per line with the fields
// the deployment's log pipeline indexes: request_id, method, path, status,
// latency (milliseconds), response size and, when the auth middleware ran,
// the caller's uid.
func Logger() fiber.Handler {
	return LoggerTo(os.Stdout)
}

// LoggerTo is Logger writing to the given sink; used by tests.
func LoggerTo(w io.Writer) fiber.Handler {
	enc := json.NewEncoder(w)

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Collect fields after handler executed to capture final status
		entry := map[string]any{
			"request_id": c.Locals(RequestIDLocalKey),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"latency":    float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_out":  len(c.Response().Body()),
		}
		if uid, ok := c.Locals(UserLocalKey).(string); ok && uid != "" {
			entry["uid"] = uid
		}
		_ = enc.Encode(entry)

		return err
	}
}
