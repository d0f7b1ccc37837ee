package models

import (
	"time"
)

// ComparisonEntry is a price record annotated with its position in a comparison
type ComparisonEntry struct {
	PriceRecord
	PriceRank        int     `json:"price_rank"`
	IsLowestPrice    bool    `json:"is_lowest_price"`
	SavingsVsHighest float64 `json:"savings_vs_highest"`
}

// ComparisonSummary holds the aggregate figures across all stores
type ComparisonSummary struct {
	LowestPrice  float64    `json:"lowest_price"`
	HighestPrice float64    `json:"highest_price"`
	MaxSavings   float64    `json:"max_savings"`
	StoreCount   int        `json:"store_count"`
	AvgPrice     float64    `json:"avg_price"`
	LastUpdated  *time.Time `json:"last_updated"`
}

// ComparisonView is the full single-product price comparison
type ComparisonView struct {
	Product    *Product          `json:"product"`
	Comparison []ComparisonEntry `json:"comparison"`
	Summary    ComparisonSummary `json:"summary"`
}

// BestEntry returns the first entry flagged as lowest price, or nil
func (v *ComparisonView) BestEntry() *ComparisonEntry {
	for i := range v.Comparison {
		if v.Comparison[i].IsLowestPrice {
			return &v.Comparison[i]
		}
	}
	return nil
}

// ComparedProduct is one product's column header in a multi-product comparison
type ComparedProduct struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Image        string  `json:"image"`
	LowestPrice  float64 `json:"lowest_price"`
	HighestPrice float64 `json:"highest_price"`
	StoreCount   int     `json:"store_count"`
	MaxSavings   float64 `json:"max_savings"`
	BestStore    *string `json:"best_store"`
	BestStoreURL *string `json:"best_store_url"`
}

// StoreMatrixCell is one store/product pair in the comparison matrix
type StoreMatrixCell struct {
	ProductID    int          `json:"product_id"`
	Price        *float64     `json:"price"`
	Availability Availability `json:"availability"`
	URL          *string      `json:"url"`
	IsLowest     bool         `json:"is_lowest"`
}

// StoreMatrixRow is one store across every compared product
type StoreMatrixRow struct {
	StoreName string            `json:"store_name"`
	Products  []StoreMatrixCell `json:"products"`
}

// BestDeal is the cheapest offer across every compared product
type BestDeal struct {
	ProductID   int     `json:"product_id"`
	ProductName string  `json:"product_name"`
	StoreName   string  `json:"store_name"`
	Price       float64 `json:"price"`
	URL         string  `json:"url"`
}

// PriceRange is a product's spread between cheapest and dearest store
type PriceRange struct {
	ProductID int     `json:"product_id"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Savings   float64 `json:"savings"`
}

// MultiComparisonSummary summarises a multi-product comparison
type MultiComparisonSummary struct {
	TotalProducts   int          `json:"total_products"`
	OverallBestDeal *BestDeal    `json:"overall_best_deal"`
	PriceRanges     []PriceRange `json:"price_ranges"`
}

// ComparisonFailure records a product that was dropped from a multi-product comparison
type ComparisonFailure struct {
	ProductID int    `json:"product_id"`
	Reason    string `json:"reason"`
}

// MultiComparison is the side-by-side comparison of up to five products
type MultiComparison struct {
	Products        []ComparedProduct      `json:"products"`
	StoreComparison []StoreMatrixRow       `json:"store_comparison"`
	Summary         MultiComparisonSummary `json:"summary"`
	Failures        []ComparisonFailure    `json:"failures,omitempty"`
}

// Partial reports whether any requested product was dropped
func (m *MultiComparison) Partial() bool {
	return len(m.Failures) > 0
}

// SharedComparison is a stored multi-product comparison snapshot
type SharedComparison struct {
	ID         string           `json:"id"`
	ProductIDs []int            `json:"product_ids"`
	CreatedAt  time.Time        `json:"created_at"`
	Comparison *MultiComparison `json:"comparison"`
}

// ShareLink points at a stored comparison snapshot
type ShareLink struct {
	ShareID   string    `json:"share_id"`
	ShareURL  string    `json:"share_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
