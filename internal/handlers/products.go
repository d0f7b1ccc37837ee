package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ListProducts returns a page of active products
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	params, errs := parseListRequest(c)
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	page, err := h.svc.Search.ListProducts(c.UserContext(), params)
	if err != nil {
		return h.fail(c, err, "No products found")
	}

	return Success(c, page)
}

// GetProduct returns a product with its store prices and recent history
func (h *Handler) GetProduct(c *fiber.Ctx) error {
	id, errs := parseID(c, "id")
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	detail, err := h.svc.Products.Detail(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "Product not found")
	}

	return Success(c, detail)
}

// ProductFilters returns the category and brand facets
func (h *Handler) ProductFilters(c *fiber.Ctx) error {
	filters, err := h.svc.Discovery.Filters(c.UserContext())
	if err != nil {
		return h.fail(c, err, "No filters found")
	}

	return Success(c, filters)
}
