package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
)

// SecurityHeaders sets the standard hardening headers on every response.
// Cross-origin policies are relaxed so browser clients on other origins and
// the docs page CDN assets keep working.
func SecurityHeaders() fiber.Handler {
	return helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	})
}
