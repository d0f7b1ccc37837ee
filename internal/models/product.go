package models

import (
	"time"
)

// Product represents a shoe listed across one or more stores
type Product struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory,omitempty"`
	Description     string    `json:"description,omitempty"`
	Color           string    `json:"color,omitempty"`
	Gender          string    `json:"gender,omitempty"`
	PrimaryImageURL string    `json:"primary_image_url,omitempty"`
	SearchKeywords  string    `json:"search_keywords,omitempty"`
	Sizes           []string  `json:"sizes"`
	Features        Features  `json:"features"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Features holds the free-form attribute blob decoded from storage
type Features map[string]string

// ProductDetail is a product with its store prices and recent history
type ProductDetail struct {
	Product
	AvailableStores int                  `json:"available_stores"`
	LowestPrice     *float64             `json:"lowest_price"`
	HighestPrice    *float64             `json:"highest_price"`
	AvgRating       *float64             `json:"avg_rating"`
	TotalReviews    int                  `json:"total_reviews"`
	Prices          []PriceRecord        `json:"prices"`
	PriceHistory    []PriceHistorySample `json:"price_history"`
}

// ProductListParams contains parameters for listing products
type ProductListParams struct {
	Brand    string
	Category string
	SortBy   SortMode
	Page     int
	Limit    int
}

// CategoryFacet groups subcategory counts under a category
type CategoryFacet struct {
	Category      string             `json:"category"`
	ProductCount  int                `json:"product_count"`
	Subcategories []SubcategoryFacet `json:"subcategories"`
}

// SubcategoryFacet is a subcategory with its product count
type SubcategoryFacet struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// BrandFacet is a brand with product count and price range
type BrandFacet struct {
	Brand        string   `json:"brand"`
	ProductCount int      `json:"product_count"`
	MinPrice     *float64 `json:"min_price"`
	MaxPrice     *float64 `json:"max_price"`
}

// ProductFilters lists the available browse facets
type ProductFilters struct {
	Categories []CategoryFacet `json:"categories"`
	Brands     []BrandFacet    `json:"brands"`
}
