package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/config"
	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

// SnapshotStore persists shareable comparisons
type SnapshotStore interface {
	Save(ctx context.Context, productIDs []int, comparison *models.MultiComparison) (*models.ShareLink, error)
	Load(ctx context.Context, id string) (*models.SharedComparison, error)
}

// Pinger reports whether a backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping calls f
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Services are the core services the handlers expose. Snapshots and Redis may be nil.
type Services struct {
	Search     *services.SearchService
	Products   *services.ProductService
	Comparison *services.ComparisonEngine
	Trends     *services.TrendAnalyzer
	Aggregator *services.Aggregator
	Discovery  *services.DiscoveryService
	Snapshots  SnapshotStore
	Database   Pinger
	Redis      Pinger
}

// Handler holds all handler dependencies
type Handler struct {
	cfg *config.Config
	svc Services
	log logrus.FieldLogger
}

// New creates a new Handler instance
func New(cfg *config.Config, svc Services, log logrus.FieldLogger) *Handler {
	return &Handler{
		cfg: cfg,
		svc: svc,
		log: log.WithField("component", "http"),
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	// Check if it's a Fiber error
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// ValidationFailed returns a 400 listing every rejected field
func ValidationFailed(c *fiber.Ctx, details []FieldError) error {
	return c.Status(fiber.StatusBadRequest).JSON(APIResponse{
		Success: false,
		Error:   "Validation failed",
		Details: details,
	})
}

// fail maps a service error onto a status code. notFound is the message
// used for models.ErrNotFound.
func (h *Handler) fail(c *fiber.Ctx, err error, notFound string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return Error(c, fiber.StatusNotFound, notFound)
	case errors.Is(err, models.ErrInvalidArgument):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrUpstreamUnavailable):
		h.log.WithError(err).WithField("path", c.Path()).Error("Upstream unavailable")
		return Error(c, fiber.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		return Error(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// RegisterRoutes mounts the API on app
func (h *Handler) RegisterRoutes(app *fiber.App, api fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/docs", h.Docs)

	search := api.Group("/search")
	search.Get("/", h.Search)
	search.Get("/suggestions", h.Suggestions)
	search.Get("/trending", h.Trending)

	product := api.Group("/product")
	product.Get("/", h.ListProducts)
	product.Get("/filters", h.ProductFilters)
	product.Get("/:id", h.GetProduct)

	compare := api.Group("/compare")
	compare.Post("/multiple", h.CompareMultiple)
	compare.Get("/export", h.ExportComparison)
	compare.Get("/shared/:id", h.GetSharedComparison)
	compare.Get("/:productId/alerts", h.PriceAlerts)
	compare.Get("/:productId", h.CompareProduct)
}
