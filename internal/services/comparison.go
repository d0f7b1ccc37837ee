package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// ComparisonEngine builds ranked per-store price comparisons for a product
type ComparisonEngine struct {
	store ProductStore
	log   logrus.FieldLogger
}

// NewComparisonEngine creates a new ComparisonEngine
func NewComparisonEngine(store ProductStore, log logrus.FieldLogger) *ComparisonEngine {
	return &ComparisonEngine{
		store: store,
		log:   log.WithField("component", "comparison"),
	}
}

// Compare returns the price comparison for a product across all active stores
func (e *ComparisonEngine) Compare(ctx context.Context, productID int) (*models.ComparisonView, error) {
	product, err := e.store.FetchProduct(ctx, productID)
	if err != nil {
		return nil, upstream("fetch product", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}

	raws, err := e.store.FetchPriceRecords(ctx, productID)
	if err != nil {
		return nil, upstream("fetch price records", err)
	}

	records := NormalizePriceRecords(raws, e.log)
	if len(records) == 0 {
		return nil, fmt.Errorf("product %d has no price data: %w", productID, models.ErrNotFound)
	}

	entries, summary := BuildComparison(records)

	e.log.WithFields(logrus.Fields{
		"product_id":   productID,
		"store_count":  summary.StoreCount,
		"lowest_price": summary.LowestPrice,
		"max_savings":  summary.MaxSavings,
	}).Debug("Price comparison built")

	return &models.ComparisonView{
		Product:    product,
		Comparison: entries,
		Summary:    summary,
	}, nil
}

// BuildComparison ranks price records cheapest first and computes the summary.
// Ties on price go to the most recently scraped record. Every record at the
// lowest price is flagged, and out-of-stock records still count toward the
// summary minimum and maximum.
func BuildComparison(records []models.PriceRecord) ([]models.ComparisonEntry, models.ComparisonSummary) {
	if len(records) == 0 {
		return []models.ComparisonEntry{}, models.ComparisonSummary{}
	}

	sorted := make([]models.PriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Price != sorted[j].Price {
			return sorted[i].Price < sorted[j].Price
		}
		return sorted[i].LastScraped.After(sorted[j].LastScraped)
	})

	lowest := decimal.NewFromFloat(sorted[0].Price)
	highest := decimal.NewFromFloat(sorted[len(sorted)-1].Price)
	sum := decimal.Zero

	entries := make([]models.ComparisonEntry, len(sorted))
	rank := 0
	for i, rec := range sorted {
		price := decimal.NewFromFloat(rec.Price)
		if i == 0 || rec.Price != sorted[i-1].Price {
			rank++
		}
		sum = sum.Add(price)

		entries[i] = models.ComparisonEntry{
			PriceRecord:      rec,
			PriceRank:        rank,
			IsLowestPrice:    price.Equal(lowest),
			SavingsVsHighest: highest.Sub(price).InexactFloat64(),
		}
	}

	lastUpdated := sorted[0].LastScraped
	summary := models.ComparisonSummary{
		LowestPrice:  lowest.InexactFloat64(),
		HighestPrice: highest.InexactFloat64(),
		MaxSavings:   highest.Sub(lowest).InexactFloat64(),
		StoreCount:   len(sorted),
		AvgPrice:     sum.Div(decimal.NewFromInt(int64(len(sorted)))).Round(2).InexactFloat64(),
		LastUpdated:  &lastUpdated,
	}

	return entries, summary
}
