package models

import (
	"strings"
	"time"
)

// SortMode selects the ordering of a search or product listing
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price_asc"
	SortPriceDesc SortMode = "price_desc"
	SortNameAsc   SortMode = "name_asc"
	SortNameDesc  SortMode = "name_desc"

	// Listing-only modes
	SortBrandAsc      SortMode = "brand_asc"
	SortCreatedAtAsc  SortMode = "created_at_asc"
	SortCreatedAtDesc SortMode = "created_at_desc"
)

// SearchSortModes are the modes accepted by the search endpoint
var SearchSortModes = []SortMode{SortRelevance, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc}

// ListSortModes are the modes accepted by the product listing endpoint
var ListSortModes = []SortMode{
	SortCreatedAtDesc, SortCreatedAtAsc, SortNameAsc, SortNameDesc,
	SortBrandAsc, SortPriceAsc, SortPriceDesc,
}

// SearchFilterSet is the immutable set of filters for one search request
type SearchFilterSet struct {
	Query    string   `json:"query,omitempty"`
	Brand    string   `json:"brand,omitempty"`
	Category string   `json:"category,omitempty"`
	MinPrice *float64 `json:"min_price,omitempty"`
	MaxPrice *float64 `json:"max_price,omitempty"`
	SortBy   SortMode `json:"sort_by"`
}

// NormalizedQuery returns the trimmed, lowercased query text
func (f SearchFilterSet) NormalizedQuery() string {
	return strings.ToLower(strings.TrimSpace(f.Query))
}

// HasPriceFilter reports whether either price bound is set
func (f SearchFilterSet) HasPriceFilter() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

// ProductCandidate is a product with price aggregates over its eligible records,
// as returned by the store for ranking
type ProductCandidate struct {
	Product
	MinPrice      *float64
	MaxPrice      *float64
	StoreCount    int
	AvgRating     *float64
	TotalReviews  int
	FullTextMatch bool
}

// ProductSummary is a product row in search results and listings
type ProductSummary struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Brand           string    `json:"brand"`
	Model           string    `json:"model"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory,omitempty"`
	Description     string    `json:"description,omitempty"`
	PrimaryImageURL string    `json:"primary_image_url,omitempty"`
	SearchKeywords  string    `json:"search_keywords,omitempty"`
	MinPrice        *float64  `json:"min_price"`
	MaxPrice        *float64  `json:"max_price"`
	StoreCount      int       `json:"store_count"`
	AvgRating       *float64  `json:"avg_rating"`
	TotalReviews    int       `json:"total_reviews"`
	RelevanceScore  int       `json:"relevance_score,omitempty"`
	Synthetic       bool      `json:"synthetic,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Pagination describes the page window of a result set
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// SearchResultPage is one page of ranked products
type SearchResultPage struct {
	Products   []ProductSummary `json:"products"`
	Pagination Pagination       `json:"pagination"`
	Filters    SearchFilterSet  `json:"filters"`
	Fallback   bool             `json:"fallback"`
}

// SearchLogEntry is the analytics record written for every search
type SearchLogEntry struct {
	Query           string
	NormalizedQuery string
	ResultCount     int
	UserIP          string
}

// Suggestion is an autocomplete candidate
type Suggestion struct {
	Text      string  `json:"text"`
	Type      string  `json:"type"`
	Brand     *string `json:"brand"`
	Frequency int     `json:"frequency"`
}

// TrendingSearch is a frequently searched normalized query
type TrendingSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
	AvgResults  int    `json:"avg_results"`
}

// PopularBrand is a brand with many priced products
type PopularBrand struct {
	Brand        string  `json:"brand"`
	ProductCount int     `json:"product_count"`
	AvgPrice     float64 `json:"avg_price"`
	MinPrice     float64 `json:"min_price"`
}

// TrendingView is the response for the trending endpoint
type TrendingView struct {
	TrendingSearches []TrendingSearch `json:"trending_searches"`
	PopularBrands    []PopularBrand   `json:"popular_brands"`
}
