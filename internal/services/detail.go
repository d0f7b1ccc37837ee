package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// ProductService serves product detail pages
type ProductService struct {
	store      ProductStore
	log        logrus.FieldLogger
	windowDays int
}

// NewProductService creates a new ProductService
func NewProductService(store ProductStore, log logrus.FieldLogger, windowDays int) *ProductService {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &ProductService{
		store:      store,
		log:        log.WithField("component", "product"),
		windowDays: windowDays,
	}
}

// Detail returns a product with all store prices, its recent price history
// and aggregates over in-stock and limited-stock prices
func (s *ProductService) Detail(ctx context.Context, productID int) (*models.ProductDetail, error) {
	product, err := s.store.FetchProduct(ctx, productID)
	if err != nil {
		return nil, upstream("fetch product", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}

	raws, err := s.store.FetchPriceRecords(ctx, productID)
	if err != nil {
		return nil, upstream("fetch price records", err)
	}
	prices := NormalizePriceRecords(raws, s.log)
	sort.SliceStable(prices, func(i, j int) bool { return prices[i].Price < prices[j].Price })

	history, err := s.store.FetchPriceHistory(ctx, productID, s.windowDays)
	if err != nil {
		return nil, upstream("fetch price history", err)
	}
	if history == nil {
		history = []models.PriceHistorySample{}
	}

	detail := &models.ProductDetail{
		Product:      *product,
		Prices:       prices,
		PriceHistory: history,
	}

	stores := make(map[int]bool)
	ratingSum := decimal.Zero
	rated := 0
	for _, p := range prices {
		if !p.Availability.Eligible() {
			continue
		}
		stores[p.StoreID] = true
		price := p.Price
		if detail.LowestPrice == nil || price < *detail.LowestPrice {
			detail.LowestPrice = &price
		}
		if detail.HighestPrice == nil || price > *detail.HighestPrice {
			detail.HighestPrice = &price
		}
		if p.Rating != nil {
			ratingSum = ratingSum.Add(decimal.NewFromFloat(*p.Rating))
			rated++
		}
		detail.TotalReviews += p.ReviewCount
	}
	detail.AvailableStores = len(stores)
	if rated > 0 {
		avg := ratingSum.Div(decimal.NewFromInt(int64(rated))).Round(2).InexactFloat64()
		detail.AvgRating = &avg
	}

	return detail, nil
}
