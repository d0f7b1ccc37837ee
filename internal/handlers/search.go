package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Search runs a filtered, ranked product search
func (h *Handler) Search(c *fiber.Ctx) error {
	req, errs := parseSearchRequest(c)
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	page, err := h.svc.Search.Search(c.UserContext(), req.filters, req.page, req.limit, c.IP())
	if err != nil {
		return h.fail(c, err, "No products found")
	}

	return Success(c, page)
}

// Suggestions returns autocomplete candidates for a partial query
func (h *Handler) Suggestions(c *fiber.Ctx) error {
	q := c.Query("q")

	suggestions, err := h.svc.Discovery.Suggestions(c.UserContext(), q)
	if err != nil {
		return h.fail(c, err, "No suggestions found")
	}

	return Success(c, fiber.Map{
		"query":       q,
		"suggestions": suggestions,
	})
}

// Trending returns popular searches and brands
func (h *Handler) Trending(c *fiber.Ctx) error {
	view, err := h.svc.Discovery.Trending(c.UserContext())
	if err != nil {
		return h.fail(c, err, "No trending data")
	}

	return Success(c, view)
}
