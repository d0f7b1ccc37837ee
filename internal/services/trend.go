package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const (
	trendWindow            = 7
	trendThresholdPercent  = 5.0
	volatilityHighCoV      = 15.0
	volatilityMediumCoV    = 8.0
	alertDiscountNoHistory = 0.90
	alertDiscountHistory   = 0.95
)

// AnalyzeTrend classifies recent price movement from most-recent-first samples.
// The recent and older windows are the first and last seven samples, and
// overlap when fewer than fourteen samples exist.
func AnalyzeTrend(history []models.PriceHistorySample) models.Trend {
	if len(history) < 2 {
		return models.TrendInsufficientData
	}

	n := min(trendWindow, len(history))
	recent := meanAvgPrice(history[:n])
	older := meanAvgPrice(history[len(history)-n:])
	if older == 0 {
		return models.TrendStable
	}

	change := (recent - older) / older * 100
	switch {
	case change > trendThresholdPercent:
		return models.TrendIncreasing
	case change < -trendThresholdPercent:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// CoefficientOfVariation returns the population stddev of avg prices over
// their mean, as a percentage
func CoefficientOfVariation(history []models.PriceHistorySample) float64 {
	if len(history) == 0 {
		return 0
	}

	mean := meanAvgPrice(history)
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, h := range history {
		d := h.AvgPrice - mean
		variance += d * d
	}
	variance /= float64(len(history))

	return math.Sqrt(variance) / mean * 100
}

// AnalyzeVolatility tiers the price dispersion of the history window
func AnalyzeVolatility(history []models.PriceHistorySample) models.Volatility {
	if len(history) < 3 {
		return models.VolatilityLow
	}
	return volatilityTier(CoefficientOfVariation(history))
}

func volatilityTier(cov float64) models.Volatility {
	switch {
	case cov > volatilityHighCoV:
		return models.VolatilityHigh
	case cov > volatilityMediumCoV:
		return models.VolatilityMedium
	default:
		return models.VolatilityLow
	}
}

// SuggestAlertPrice recommends a price-drop alert threshold
func SuggestAlertPrice(history []models.PriceHistorySample, currentLowest float64) float64 {
	if len(history) == 0 {
		return RoundWhole(currentLowest * alertDiscountNoHistory)
	}

	historicalLowest := history[0].MinPrice
	for _, h := range history[1:] {
		historicalLowest = math.Min(historicalLowest, h.MinPrice)
	}

	return math.Min(historicalLowest, RoundWhole(currentLowest*alertDiscountHistory))
}

func meanAvgPrice(samples []models.PriceHistorySample) float64 {
	var sum float64
	for _, s := range samples {
		sum += s.AvgPrice
	}
	return sum / float64(len(samples))
}

// TrendAnalyzer produces price alert suggestions for a product
type TrendAnalyzer struct {
	store      ProductStore
	log        logrus.FieldLogger
	windowDays int
}

// NewTrendAnalyzer creates a new TrendAnalyzer over the given history window
func NewTrendAnalyzer(store ProductStore, log logrus.FieldLogger, windowDays int) *TrendAnalyzer {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &TrendAnalyzer{
		store:      store,
		log:        log.WithField("component", "trend"),
		windowDays: windowDays,
	}
}

// PriceAlerts returns alert suggestions alongside the current store prices
func (a *TrendAnalyzer) PriceAlerts(ctx context.Context, productID int) (*models.PriceAlertView, error) {
	product, err := a.store.FetchProduct(ctx, productID)
	if err != nil {
		return nil, upstream("fetch product", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}

	raws, err := a.store.FetchPriceRecords(ctx, productID)
	if err != nil {
		return nil, upstream("fetch price records", err)
	}
	records := NormalizePriceRecords(raws, a.log)
	if len(records) == 0 {
		return nil, fmt.Errorf("product %d has no price data: %w", productID, models.ErrNotFound)
	}

	history, err := a.store.FetchPriceHistory(ctx, productID, a.windowDays)
	if err != nil {
		return nil, upstream("fetch price history", err)
	}

	currentLowest := records[0].Price
	current := make([]models.CurrentPrice, 0, len(records))
	for _, r := range records {
		currentLowest = math.Min(currentLowest, r.Price)
		current = append(current, models.CurrentPrice{
			Store:       r.StoreName,
			Price:       r.Price,
			LastUpdated: r.LastScraped,
		})
	}
	sort.SliceStable(current, func(i, j int) bool { return current[i].Price < current[j].Price })

	return &models.PriceAlertView{
		Product: models.ProductRef{ID: product.ID, Name: product.Name, Brand: product.Brand},
		AlertSuggestions: models.AlertSuggestion{
			CurrentLowest:       currentLowest,
			SuggestedAlertPrice: SuggestAlertPrice(history, currentLowest),
			PriceTrend:          AnalyzeTrend(history),
			Volatility:          AnalyzeVolatility(history),
		},
		CurrentPrices: current,
	}, nil
}
