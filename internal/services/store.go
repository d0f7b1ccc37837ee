package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// ProductStore is the read side of the product/price store.
// Implementations return models.ErrNotFound for missing or inactive products.
type ProductStore interface {
	FetchProduct(ctx context.Context, id int) (*models.Product, error)
	FetchPriceRecords(ctx context.Context, productID int) ([]models.RawPriceRecord, error)
	FetchPriceHistory(ctx context.Context, productID, windowDays int) ([]models.PriceHistorySample, error)
	FetchCandidateProducts(ctx context.Context, filters models.SearchFilterSet) ([]models.ProductCandidate, error)
}

// SearchLogger records search analytics
type SearchLogger interface {
	LogSearchQuery(ctx context.Context, entry models.SearchLogEntry) error
}

// CatalogReader serves the browse and discovery reads
type CatalogReader interface {
	SearchSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error)
	TrendingSearches(ctx context.Context, since time.Time, minCount, limit int) ([]models.TrendingSearch, error)
	PopularBrands(ctx context.Context, minProducts, limit int) ([]models.PopularBrand, error)
	ProductFilters(ctx context.Context) (*models.ProductFilters, error)
}

// upstream wraps a store failure so callers can tell an outage from missing data
func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamUnavailable, err)
}
