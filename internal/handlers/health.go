package handlers

import (
	"context"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

// Health reports the store and Redis connectivity
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
	defer cancel()

	database := "connected"
	status := "healthy"
	code := fiber.StatusOK
	if h.svc.Database != nil {
		if err := h.svc.Database.Ping(ctx); err != nil {
			h.log.WithError(err).Warn("Health check: store unreachable")
			database = "disconnected"
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
		}
	}

	redis := "disabled"
	if h.svc.Redis != nil {
		redis = "connected"
		if err := h.svc.Redis.Ping(ctx); err != nil {
			redis = "disconnected"
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  database,
		"redis":     redis,
	})
}

// Docs renders the Scalar API reference for the OpenAPI document in DocsDir
func (h *Handler) Docs(c *fiber.Ctx) error {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir(h.cfg.DocsDir),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Shoe Compare API"),
		),
	)
	if err != nil {
		h.log.WithError(err).Error("Failed to render API docs")
		return Error(c, fiber.StatusInternalServerError, "failed to render API docs")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}
