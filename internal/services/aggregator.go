package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// MaxCompareProducts is the most products a side-by-side comparison accepts
const MaxCompareProducts = 5

// Comparer produces a single-product comparison
type Comparer interface {
	Compare(ctx context.Context, productID int) (*models.ComparisonView, error)
}

// Aggregator composes per-product comparisons into a store-by-product matrix
type Aggregator struct {
	comparer Comparer
	log      logrus.FieldLogger
}

// NewAggregator creates a new Aggregator
func NewAggregator(comparer Comparer, log logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		comparer: comparer,
		log:      log.WithField("component", "aggregator"),
	}
}

// ValidateProductIDs enforces the 1 to 5 product rule and drops repeated ids,
// keeping first occurrence order
func ValidateProductIDs(ids []int) ([]int, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("product ids are required: %w", models.ErrInvalidArgument)
	}
	if len(ids) > MaxCompareProducts {
		return nil, fmt.Errorf("maximum %d products can be compared at once: %w", MaxCompareProducts, models.ErrInvalidArgument)
	}

	seen := make(map[int]bool, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("invalid product id %d: %w", id, models.ErrInvalidArgument)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique, nil
}

// CompareMultiple compares up to five products side by side. Products that
// fail individually are dropped and reported in Failures; the call fails
// only when none survive.
func (a *Aggregator) CompareMultiple(ctx context.Context, productIDs []int) (*models.MultiComparison, error) {
	ids, err := ValidateProductIDs(productIDs)
	if err != nil {
		return nil, err
	}

	views := make([]*models.ComparisonView, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(ids))
	for i, id := range ids {
		g.Go(func() error {
			views[i], errs[i] = a.comparer.Compare(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	surviving := make([]*models.ComparisonView, 0, len(ids))
	var failures []models.ComparisonFailure
	for i, id := range ids {
		if errs[i] != nil {
			a.log.WithFields(logrus.Fields{"product_id": id}).WithError(errs[i]).Warn("Failed to get comparison for product")
			failures = append(failures, models.ComparisonFailure{ProductID: id, Reason: failureReason(errs[i])})
			continue
		}
		surviving = append(surviving, views[i])
	}

	if len(surviving) == 0 {
		return nil, fmt.Errorf("no valid products found for comparison: %w", models.ErrNotFound)
	}

	result := BuildMultiComparison(surviving)
	result.Failures = failures
	return result, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	default:
		return "error"
	}
}

// BuildMultiComparison assembles the matrix, per-product headers and best
// deal from already computed comparisons
func BuildMultiComparison(views []*models.ComparisonView) *models.MultiComparison {
	products := make([]models.ComparedProduct, 0, len(views))
	ranges := make([]models.PriceRange, 0, len(views))

	for _, v := range views {
		cp := models.ComparedProduct{
			ID:           v.Product.ID,
			Name:         v.Product.Name,
			Brand:        v.Product.Brand,
			Model:        v.Product.Model,
			Image:        v.Product.PrimaryImageURL,
			LowestPrice:  v.Summary.LowestPrice,
			HighestPrice: v.Summary.HighestPrice,
			StoreCount:   v.Summary.StoreCount,
			MaxSavings:   v.Summary.MaxSavings,
		}
		if best := v.BestEntry(); best != nil {
			store, url := best.StoreName, best.ProductURL
			cp.BestStore = &store
			cp.BestStoreURL = &url
		}
		products = append(products, cp)

		ranges = append(ranges, models.PriceRange{
			ProductID: v.Product.ID,
			Min:       v.Summary.LowestPrice,
			Max:       v.Summary.HighestPrice,
			Savings:   v.Summary.MaxSavings,
		})
	}

	return &models.MultiComparison{
		Products:        products,
		StoreComparison: BuildStoreMatrix(views),
		Summary: models.MultiComparisonSummary{
			TotalProducts:   len(views),
			OverallBestDeal: FindBestDeal(views),
			PriceRanges:     ranges,
		},
	}
}

// BuildStoreMatrix returns one row per distinct store, in first-seen order,
// with one cell per product. Stores that do not carry a product get a
// not_available cell.
func BuildStoreMatrix(views []*models.ComparisonView) []models.StoreMatrixRow {
	var stores []string
	seen := make(map[string]bool)
	for _, v := range views {
		for _, e := range v.Comparison {
			if !seen[e.StoreName] {
				seen[e.StoreName] = true
				stores = append(stores, e.StoreName)
			}
		}
	}

	rows := make([]models.StoreMatrixRow, 0, len(stores))
	for _, store := range stores {
		row := models.StoreMatrixRow{
			StoreName: store,
			Products:  make([]models.StoreMatrixCell, 0, len(views)),
		}
		for _, v := range views {
			cell := models.StoreMatrixCell{
				ProductID:    v.Product.ID,
				Availability: models.AvailabilityNotAvailable,
			}
			for _, e := range v.Comparison {
				if e.StoreName != store {
					continue
				}
				price, url := e.Price, e.ProductURL
				cell.Price = &price
				cell.URL = &url
				cell.Availability = e.Availability
				cell.IsLowest = e.IsLowestPrice
				break
			}
			row.Products = append(row.Products, cell)
		}
		rows = append(rows, row)
	}

	return rows
}

// FindBestDeal picks the cheapest lowest-price entry across products.
// On equal prices the earlier product wins.
func FindBestDeal(views []*models.ComparisonView) *models.BestDeal {
	var best *models.BestDeal
	for _, v := range views {
		entry := v.BestEntry()
		if entry == nil {
			continue
		}
		if best == nil || entry.Price < best.Price {
			best = &models.BestDeal{
				ProductID:   v.Product.ID,
				ProductName: v.Product.Name,
				StoreName:   entry.StoreName,
				Price:       entry.Price,
				URL:         entry.ProductURL,
			}
		}
	}
	return best
}
