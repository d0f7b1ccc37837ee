package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multiCompareResponse is a comparison plus its share link when one was requested
type multiCompareResponse struct {
	*models.MultiComparison
	Share *models.ShareLink `json:"share,omitempty"`
}

// CompareProduct returns one product's prices ranked across stores
func (h *Handler) CompareProduct(c *fiber.Ctx) error {
	id, errs := parseID(c, "productId")
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	view, err := h.svc.Comparison.Compare(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "No prices found for this product")
	}

	return Success(c, view)
}

// PriceAlerts suggests an alert price from the product's price history
func (h *Handler) PriceAlerts(c *fiber.Ctx) error {
	id, errs := parseID(c, "productId")
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	view, err := h.svc.Trends.PriceAlerts(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, "No prices found for this product")
	}

	return Success(c, view)
}

// CompareMultiple compares up to five products side by side. With
// ?share=true the result is also stored and a share link returned.
func (h *Handler) CompareMultiple(c *fiber.Ctx) error {
	var req compareRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if errs := validateCompareRequest(req); len(errs) > 0 {
		return ValidationFailed(c, errs)
	}
	ids, err := services.ValidateProductIDs(req.ProductIDs)
	if err != nil {
		return h.fail(c, err, "No valid products found for comparison")
	}

	share := c.QueryBool("share")
	if share && h.svc.Snapshots == nil {
		return Error(c, fiber.StatusServiceUnavailable, "Comparison sharing is not configured")
	}

	mc, err := h.svc.Aggregator.CompareMultiple(c.UserContext(), ids)
	if err != nil {
		return h.fail(c, err, "No valid products found for comparison")
	}

	resp := multiCompareResponse{MultiComparison: mc}
	if share {
		link, err := h.svc.Snapshots.Save(c.UserContext(), ids, mc)
		if err != nil {
			return h.fail(c, err, "Comparison not found")
		}
		resp.Share = link
	}

	return Success(c, resp)
}

// GetSharedComparison returns a stored comparison by share id
func (h *Handler) GetSharedComparison(c *fiber.Ctx) error {
	if h.svc.Snapshots == nil {
		return Error(c, fiber.StatusServiceUnavailable, "Comparison sharing is not configured")
	}

	shared, err := h.svc.Snapshots.Load(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err, "Shared comparison not found")
	}

	return Success(c, shared)
}

// ExportComparison renders a multi-product comparison as an xlsx download
func (h *Handler) ExportComparison(c *fiber.Ctx) error {
	ids, errs := parseIDList(c.Query("ids"), "ids")
	if len(errs) > 0 {
		return ValidationFailed(c, errs)
	}

	mc, err := h.svc.Aggregator.CompareMultiple(c.UserContext(), ids)
	if err != nil {
		return h.fail(c, err, "No valid products found for comparison")
	}

	var buf bytes.Buffer
	if err := services.WriteComparisonWorkbook(&buf, mc); err != nil {
		return h.fail(c, err, "")
	}

	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="comparison.xlsx"`)
	return c.Send(buf.Bytes())
}
