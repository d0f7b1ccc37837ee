package handlers

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

const (
	maxQueryLength  = 100
	maxFilterLength = 50
	maxPage         = 100
	maxPriceFilter  = 100000
)

// validator collects field errors across a request
type validator struct {
	errs []FieldError
}

func (v *validator) add(field, format string, args ...interface{}) {
	v.errs = append(v.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) ok() bool {
	return len(v.errs) == 0
}

// intParam reads an optional integer query parameter within [lo, hi]
func (v *validator) intParam(c *fiber.Ctx, name string, def, lo, hi int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		v.add(name, "%s must be an integer", name)
		return def
	}
	if n < lo || n > hi {
		v.add(name, "%s must be between %d and %d", name, lo, hi)
		return def
	}
	return n
}

// priceParam reads an optional price bound
func (v *validator) priceParam(c *fiber.Ctx, name string) *float64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.add(name, "%s must be a number", name)
		return nil
	}
	if f < 0 || f > maxPriceFilter {
		v.add(name, "%s must be between 0 and %d", name, maxPriceFilter)
		return nil
	}
	return &f
}

func (v *validator) textParam(c *fiber.Ctx, name string, maxLen int) string {
	s := strings.TrimSpace(c.Query(name))
	if utf8.RuneCountInString(s) > maxLen {
		v.add(name, "%s must be at most %d characters", name, maxLen)
		return ""
	}
	return s
}

func (v *validator) sortParam(c *fiber.Ctx, allowed []models.SortMode, def models.SortMode) models.SortMode {
	raw := strings.TrimSpace(c.Query("sortBy"))
	if raw == "" {
		return def
	}
	mode := models.SortMode(raw)
	if !slices.Contains(allowed, mode) {
		names := make([]string, len(allowed))
		for i, m := range allowed {
			names[i] = string(m)
		}
		v.add("sortBy", "sortBy must be one of %s", strings.Join(names, ", "))
		return def
	}
	return mode
}

// searchRequest is a validated search query
type searchRequest struct {
	filters models.SearchFilterSet
	page    int
	limit   int
}

func parseSearchRequest(c *fiber.Ctx) (searchRequest, []FieldError) {
	var v validator
	req := searchRequest{
		filters: models.SearchFilterSet{
			Query:    v.textParam(c, "q", maxQueryLength),
			Brand:    v.textParam(c, "brand", maxFilterLength),
			Category: v.textParam(c, "category", maxFilterLength),
			MinPrice: v.priceParam(c, "minPrice"),
			MaxPrice: v.priceParam(c, "maxPrice"),
			SortBy:   v.sortParam(c, models.SearchSortModes, models.SortRelevance),
		},
		page:  v.intParam(c, "page", 1, 1, maxPage),
		limit: v.intParam(c, "limit", services.DefaultPageLimit, 1, services.MaxPageLimit),
	}

	f := req.filters
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		v.add("maxPrice", "maxPrice must be greater than or equal to minPrice")
	}

	return req, v.errs
}

func parseListRequest(c *fiber.Ctx) (models.ProductListParams, []FieldError) {
	var v validator
	params := models.ProductListParams{
		Brand:    v.textParam(c, "brand", maxFilterLength),
		Category: v.textParam(c, "category", maxFilterLength),
		SortBy:   v.sortParam(c, models.ListSortModes, models.SortCreatedAtDesc),
		Page:     v.intParam(c, "page", 1, 1, maxPage),
		Limit:    v.intParam(c, "limit", services.DefaultPageLimit, 1, services.MaxPageLimit),
	}
	return params, v.errs
}

// parseID reads a positive integer route parameter
func parseID(c *fiber.Ctx, name string) (int, []FieldError) {
	id, err := strconv.Atoi(c.Params(name))
	if err != nil || id < 1 {
		return 0, []FieldError{{Field: name, Message: name + " must be a positive integer"}}
	}
	return id, nil
}

// parseIDList reads a comma separated list of positive ids
func parseIDList(raw, field string) ([]int, []FieldError) {
	var v validator
	raw = strings.TrimSpace(raw)
	if raw == "" {
		v.add(field, "%s is required", field)
		return nil, v.errs
	}

	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id < 1 {
			v.add(field, "%q is not a positive integer", part)
			continue
		}
		ids = append(ids, id)
	}
	if v.ok() {
		v.checkIDCount(field, ids)
	}
	return ids, v.errs
}

func (v *validator) checkIDCount(field string, ids []int) {
	if len(ids) < 1 || len(ids) > services.MaxCompareProducts {
		v.add(field, "%s must contain between 1 and %d products", field, services.MaxCompareProducts)
	}
}

// compareRequest is the body of a multi-product comparison
type compareRequest struct {
	ProductIDs []int `json:"productIds"`
}

func validateCompareRequest(req compareRequest) []FieldError {
	var v validator
	v.checkIDCount("productIds", req.ProductIDs)
	for i, id := range req.ProductIDs {
		if id < 1 {
			v.add(fmt.Sprintf("productIds[%d]", i), "product id must be a positive integer")
		}
	}
	return v.errs
}
