package services

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const (
	fallbackIDBase     = 5000
	fallbackPriceBase  = 2000
	fallbackPriceSpan  = 10000
	fallbackMarkupSpan = 2000
	fallbackCategory   = "shoes"
)

var fallbackBrands = []string{
	"Nike", "Adidas", "Puma", "Reebok", "Bata", "Woodland",
	"Sketchers", "Fila", "Timberland", "Clarks", "Crocs", "Asics",
}

var fallbackTypes = []string{"Running", "Walking", "Casual", "Sports", "Sneakers", "Loafers", "Boots"}

var fallbackImages = []string{
	"https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400",
	"https://images.unsplash.com/photo-1549298916-b41d501d3772?w=400",
	"https://images.unsplash.com/photo-1606107557195-0e29a4b5b4aa?w=400",
	"https://images.unsplash.com/photo-1595950653106-6c9ebd614d3a?w=400",
	"https://images.unsplash.com/photo-1608231387042-66d1773070a5?w=400",
	"https://images.unsplash.com/photo-1560769629-975ec94e6a86?w=400",
}

// RandSource is the random source used for synthesized listings
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// SourceFactory returns the random source for a query
type SourceFactory func(query string) RandSource

// SeededSource returns a PCG source seeded from the normalized query, so
// the same query always yields the same listings
func SeededSource(query string) RandSource {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// FallbackSynthesizer generates placeholder listings for queries that match nothing
type FallbackSynthesizer struct {
	newSource SourceFactory
	now       func() time.Time
}

// NewFallbackSynthesizer creates a synthesizer. A nil factory uses SeededSource.
func NewFallbackSynthesizer(factory SourceFactory) *FallbackSynthesizer {
	if factory == nil {
		factory = SeededSource
	}
	return &FallbackSynthesizer{
		newSource: factory,
		now:       time.Now,
	}
}

// FallbackCount is the number of listings synthesized for a query
func FallbackCount(query string) int {
	return 4 + utf8.RuneCountInString(strings.TrimSpace(query))%5
}

// Synthesize returns 4 to 8 listings for a non-empty query, priced inside
// any requested range and ordered by the requested sort. An empty query
// yields nothing.
func (f *FallbackSynthesizer) Synthesize(filters models.SearchFilterSet) []models.ProductSummary {
	query := strings.TrimSpace(filters.Query)
	if query == "" {
		return []models.ProductSummary{}
	}

	rnd := f.newSource(query)
	qlen := utf8.RuneCountInString(query)
	count := FallbackCount(query)
	base := fallbackPriceBase + 100*qlen

	brand := fallbackBrand(query)
	if b := strings.TrimSpace(filters.Brand); b != "" {
		brand = b
	}
	category := fallbackCategory
	if c := strings.TrimSpace(filters.Category); c != "" {
		category = c
	}

	createdAt := f.now()
	items := make([]models.ProductSummary, 0, count)
	for i := 1; i <= count; i++ {
		shoeType := fallbackTypes[rnd.IntN(len(fallbackTypes))]
		modelNum := rnd.IntN(1000)

		minPrice := float64(base + rnd.IntN(fallbackPriceSpan))
		minPrice = fitPriceRange(minPrice, filters, rnd)
		maxPrice := minPrice + float64(rnd.IntN(fallbackMarkupSpan))

		rating := math.Round((3.5+rnd.Float64()*1.5)*10) / 10
		storeCount := 2 + rnd.IntN(5)
		reviews := 10 + rnd.IntN(200)

		summary := models.ProductSummary{
			ID:              fallbackIDBase + i + 10*qlen,
			Name:            fmt.Sprintf("%s %s %d", brand, shoeType, modelNum),
			Brand:           brand,
			Model:           fmt.Sprintf("%s %d", shoeType, modelNum),
			Category:        category,
			Subcategory:     strings.ToLower(shoeType),
			Description:     fmt.Sprintf("Premium %s %s shoes designed for comfort and style. Perfect for everyday wear.", brand, shoeType),
			PrimaryImageURL: fallbackImages[i%len(fallbackImages)],
			SearchKeywords:  fmt.Sprintf("%s %s shoes", strings.ToLower(brand), strings.ToLower(shoeType)),
			MinPrice:        &minPrice,
			MaxPrice:        &maxPrice,
			StoreCount:      storeCount,
			AvgRating:       &rating,
			TotalReviews:    reviews,
			Synthetic:       true,
			CreatedAt:       createdAt,
		}
		summary.RelevanceScore = RelevanceScore(models.Product{
			Name:  summary.Name,
			Brand: summary.Brand,
			Model: summary.Model,
		}, query)

		items = append(items, summary)
	}

	kept := items[:0]
	for _, item := range items {
		if priceInRange(item.MinPrice, filters) {
			kept = append(kept, item)
		}
	}

	SortSummaries(kept, filters.SortBy, true)
	return kept
}

// fitPriceRange moves a synthesized price inside the requested bounds
func fitPriceRange(price float64, filters models.SearchFilterSet, rnd RandSource) float64 {
	lo, hi := 0.0, price
	if filters.MinPrice != nil {
		lo = *filters.MinPrice
	}
	if filters.MaxPrice != nil {
		hi = *filters.MaxPrice
	} else if lo > hi {
		hi = lo + fallbackPriceSpan
	}
	if filters.MinPrice == nil {
		lo = math.Max(0, hi-fallbackPriceSpan)
	}
	if lo > hi {
		return price
	}
	if price >= lo && price <= hi {
		return price
	}

	span := int(hi - lo)
	if span <= 0 {
		return lo
	}
	return lo + float64(rnd.IntN(span+1))
}

// fallbackBrand picks the first known brand mentioned in the query, or
// capitalizes the query's first word
func fallbackBrand(query string) string {
	lower := strings.ToLower(query)
	for _, b := range fallbackBrands {
		if strings.Contains(lower, strings.ToLower(b)) {
			return b
		}
	}

	first := strings.Fields(query)[0]
	r, size := utf8.DecodeRuneInString(first)
	return string(unicode.ToUpper(r)) + first[size:]
}
