package models

import (
	"strings"
	"time"
)

// Availability is the stock status a store reports for a product
type Availability string

const (
	AvailabilityInStock      Availability = "in_stock"
	AvailabilityLimitedStock Availability = "limited_stock"
	AvailabilityOutOfStock   Availability = "out_of_stock"

	// AvailabilityNotAvailable marks a store that does not carry a product at all.
	// It only appears in comparison matrices.
	AvailabilityNotAvailable Availability = "not_available"
)

// ParseAvailability maps store-reported stock strings onto the enum.
// Unknown values are treated as out of stock.
func ParseAvailability(s string) Availability {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, " ", "_"))) {
	case "in_stock", "instock", "available":
		return AvailabilityInStock
	case "limited_stock", "limited", "few_left":
		return AvailabilityLimitedStock
	default:
		return AvailabilityOutOfStock
	}
}

// Eligible reports whether the record counts toward product-level aggregates
func (a Availability) Eligible() bool {
	return a == AvailabilityInStock || a == AvailabilityLimitedStock
}

// RawPriceRecord is a per-store price row as the store layer reads it,
// before currency parsing and validation
type RawPriceRecord struct {
	ProductID          int
	StoreID            int
	StoreName          string
	StoreLogoURL       string
	Price              string
	OriginalPrice      *string
	DiscountPercentage *string
	Availability       string
	ProductURL         string
	LastScraped        time.Time
	Rating             *string
	ReviewCount        int
	SizeAvailability   map[string]bool
}

// PriceRecord is a validated per-store price for a product
type PriceRecord struct {
	ProductID          int             `json:"product_id"`
	StoreID            int             `json:"store_id"`
	StoreName          string          `json:"store_name"`
	StoreLogoURL       string          `json:"store_logo,omitempty"`
	Price              float64         `json:"price"`
	OriginalPrice      *float64        `json:"original_price"`
	DiscountPercentage *float64        `json:"discount_percentage"`
	Availability       Availability    `json:"availability"`
	ProductURL         string          `json:"product_url"`
	LastScraped        time.Time       `json:"last_scraped"`
	Rating             *float64        `json:"rating"`
	ReviewCount        int             `json:"review_count"`
	SizeAvailability   map[string]bool `json:"size_availability,omitempty"`
}

// PriceHistorySample is one store's daily price aggregate
type PriceHistorySample struct {
	ProductID  int       `json:"product_id"`
	StoreID    int       `json:"store_id"`
	StoreName  string    `json:"store_name"`
	RecordedAt time.Time `json:"date"`
	AvgPrice   float64   `json:"avg_price"`
	MinPrice   float64   `json:"min_price"`
	MaxPrice   float64   `json:"max_price"`
}

// Trend is the direction of recent price movement
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
)

// Volatility is the tier of price dispersion over the history window
type Volatility string

const (
	VolatilityLow    Volatility = "low"
	VolatilityMedium Volatility = "medium"
	VolatilityHigh   Volatility = "high"
)

// Rank orders volatility tiers from calm to volatile
func (v Volatility) Rank() int {
	switch v {
	case VolatilityHigh:
		return 2
	case VolatilityMedium:
		return 1
	default:
		return 0
	}
}

// AlertSuggestion is the price-drop alert recommendation for a product
type AlertSuggestion struct {
	CurrentLowest       float64    `json:"current_lowest"`
	SuggestedAlertPrice float64    `json:"suggested_alert_price"`
	PriceTrend          Trend      `json:"price_trend"`
	Volatility          Volatility `json:"volatility"`
}

// CurrentPrice is a store's present price as shown next to alert suggestions
type CurrentPrice struct {
	Store       string    `json:"store"`
	Price       float64   `json:"price"`
	LastUpdated time.Time `json:"last_updated"`
}

// PriceAlertView is the response for the price alerts endpoint
type PriceAlertView struct {
	Product          ProductRef      `json:"product"`
	AlertSuggestions AlertSuggestion `json:"alert_suggestions"`
	CurrentPrices    []CurrentPrice  `json:"current_prices"`
}

// ProductRef is the minimal product identity carried in derived views
type ProductRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Brand string `json:"brand"`
}
