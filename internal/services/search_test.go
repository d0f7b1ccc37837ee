package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

var searchEpoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func candidate(id int, name, brand, category string, minPrice float64, stores int) models.ProductCandidate {
	c := models.ProductCandidate{
		Product: models.Product{
			ID:        id,
			Name:      name,
			Brand:     brand,
			Model:     name,
			Category:  category,
			IsActive:  true,
			CreatedAt: searchEpoch.Add(time.Duration(id) * 24 * time.Hour),
		},
		StoreCount: stores,
	}
	if minPrice > 0 {
		c.MinPrice = ptr(minPrice)
		c.MaxPrice = ptr(minPrice + 1000)
	}
	return c
}

func sampleCandidates() []models.ProductCandidate {
	return []models.ProductCandidate{
		candidate(1, "Nike Air Max 270", "Nike", "running", 12999, 3),
		candidate(2, "Nike Revolution 6", "Nike", "running", 7999, 4),
		candidate(3, "Adidas Ultraboost 22", "Adidas", "running", 15999, 2),
		candidate(4, "Nike Court Vision", "Nike", "casual", 8499, 2),
		candidate(5, "Nike Downshifter 12", "Nike", "running", 8999, 5),
		candidate(6, "Nike Waffle One", "Nike", "casual", 0, 0),
	}
}

func minPrices(items []models.ProductSummary) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if it.MinPrice == nil {
			out = append(out, -1)
			continue
		}
		out = append(out, *it.MinPrice)
	}
	return out
}

func ids(items []models.ProductSummary) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRankCandidates(t *testing.T) {
	tests := []struct {
		name    string
		filters models.SearchFilterSet
		wantIDs []int
	}{
		{
			name:    "query sorted by price",
			filters: models.SearchFilterSet{Query: "nike", SortBy: models.SortPriceAsc},
			wantIDs: []int{2, 4, 5, 1},
		},
		{
			name:    "query sorted by price descending",
			filters: models.SearchFilterSet{Query: "NIKE ", SortBy: models.SortPriceDesc},
			wantIDs: []int{1, 5, 4, 2},
		},
		{
			name:    "no query keeps unpriced products, newest first",
			filters: models.SearchFilterSet{Brand: "nike", SortBy: models.SortRelevance},
			wantIDs: []int{6, 5, 4, 2, 1},
		},
		{
			name:    "unpriced products sort last",
			filters: models.SearchFilterSet{Brand: "Nike", SortBy: models.SortPriceAsc},
			wantIDs: []int{2, 4, 5, 1, 6},
		},
		{
			name:    "category filter",
			filters: models.SearchFilterSet{Category: "Casual", SortBy: models.SortNameAsc},
			wantIDs: []int{4, 6},
		},
		{
			name:    "price range excludes unpriced",
			filters: models.SearchFilterSet{MinPrice: ptr(8000.0), MaxPrice: ptr(13000.0), SortBy: models.SortPriceAsc},
			wantIDs: []int{4, 5, 1},
		},
		{
			name:    "no match",
			filters: models.SearchFilterSet{Query: "jordan"},
			wantIDs: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankCandidates(sampleCandidates(), tt.filters)
			assert.Equal(t, tt.wantIDs, ids(got))
		})
	}
}

func TestRankCandidatesRelevance(t *testing.T) {
	got := RankCandidates(sampleCandidates(), models.SearchFilterSet{Query: "ultraboost", SortBy: models.SortRelevance})
	require.Len(t, got, 1)
	assert.Equal(t, 16, got[0].RelevanceScore)

	got = RankCandidates(sampleCandidates(), models.SearchFilterSet{Query: "nike", SortBy: models.SortPriceAsc})
	assert.Equal(t, []float64{7999, 8499, 8999, 12999}, minPrices(got))
}

func TestRankCandidatesRelevanceOrder(t *testing.T) {
	fullText := candidate(6, "Trail Runner", "Puma", "running", 4999, 1)
	fullText.FullTextMatch = true

	// input order is reversed so only the creation tie-break can put 3 before 4
	candidates := []models.ProductCandidate{
		fullText,
		withModel(candidate(5, "Court Legacy", "Nike", "casual", 4499, 1), "Nike Court Legacy"),
		withModel(candidate(4, "Nike Blazer Mid", "Nike", "casual", 7999, 2), "Blazer Mid"),
		withModel(candidate(3, "Nike Dunk Low", "Nike", "casual", 8999, 2), "Dunk Low"),
		candidate(2, "Nike Pegasus 40", "Nike", "running", 10999, 3),
		withModel(candidate(1, "Pegasus Trail", "Nike", "running", 11999, 1), "Pegasus Trail"),
	}

	got := RankCandidates(candidates, models.SearchFilterSet{Query: "nike", SortBy: models.SortRelevance})

	scores := make([]int, 0, len(got))
	for _, s := range got {
		scores = append(scores, s.RelevanceScore)
	}
	assert.Equal(t, []int{2, 3, 4, 5, 1, 6}, ids(got))
	assert.Equal(t, []int{24, 18, 18, 14, 8, 4}, scores)
}

func TestRankCandidatesFullTextMatch(t *testing.T) {
	c := candidate(7, "Trail Runner", "Puma", "running", 4999, 1)
	c.FullTextMatch = true
	substring := withModel(candidate(8, "Speedcat", "Puma", "casual", 6999, 1), "Lightweight Speedcat")

	got := RankCandidates([]models.ProductCandidate{c, substring}, models.SearchFilterSet{Query: "lightweight"})
	require.Len(t, got, 2)
	assert.Equal(t, 8, got[0].ID, "model substring outranks a full-text-only hit")
	assert.Equal(t, scoreModel, got[0].RelevanceScore)
	assert.Equal(t, 7, got[1].ID)
	assert.Equal(t, scoreFullText, got[1].RelevanceScore)
}

func withModel(c models.ProductCandidate, model string) models.ProductCandidate {
	c.Model = model
	return c
}

func TestRelevanceScore(t *testing.T) {
	p := models.Product{Name: "Puma Velocity Nitro", Brand: "Puma", Model: "Velocity Nitro"}

	assert.Equal(t, 18, RelevanceScore(p, "puma"))
	assert.Equal(t, 16, RelevanceScore(p, "Velocity"))
	assert.Equal(t, 0, RelevanceScore(p, "nike"))
	assert.Equal(t, 0, RelevanceScore(p, "  "))
}

func TestBuildCandidate(t *testing.T) {
	now := time.Now()
	records := []models.PriceRecord{
		record(1, 1, "Amazon", 8999, now),
		record(1, 2, "Flipkart", 9499, now),
		record(1, 3, "Myntra", 5000, now),
	}
	records[0].Rating = ptr(4.5)
	records[0].ReviewCount = 100
	records[1].Rating = ptr(4.2)
	records[1].ReviewCount = 50
	records[1].Availability = models.AvailabilityLimitedStock
	records[2].Availability = models.AvailabilityOutOfStock
	records[2].ReviewCount = 999

	c := BuildCandidate(models.Product{ID: 1}, records)

	assert.Equal(t, 2, c.StoreCount)
	assert.Equal(t, 8999.0, *c.MinPrice)
	assert.Equal(t, 9499.0, *c.MaxPrice)
	assert.Equal(t, 4.35, *c.AvgRating)
	assert.Equal(t, 150, c.TotalReviews)

	empty := BuildCandidate(models.Product{ID: 2}, nil)
	assert.Nil(t, empty.MinPrice)
	assert.Nil(t, empty.AvgRating)
	assert.Equal(t, 0, empty.StoreCount)
}

func TestPaginate(t *testing.T) {
	items := RankCandidates(sampleCandidates(), models.SearchFilterSet{})
	require.Len(t, items, 6)

	page, p := Paginate(items, 2, 4)
	assert.Len(t, page, 2)
	assert.Equal(t, models.Pagination{Page: 2, Limit: 4, Total: 6, TotalPages: 2, HasNext: false, HasPrev: true}, p)

	page, p = Paginate(items, 5, 4)
	assert.Empty(t, page)
	assert.Equal(t, 5, p.Page)

	_, p = Paginate(items, 0, 500)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.False(t, p.HasPrev)

	_, p = Paginate(nil, 1, 0)
	assert.Equal(t, DefaultPageLimit, p.Limit)
	assert.Equal(t, 0, p.TotalPages)
}

func TestSearchService(t *testing.T) {
	store := &fakeStore{candidates: sampleCandidates()}
	analytics := &recordingLogger{}
	svc := NewSearchService(store, analytics, nil, quietLogger())
	ctx := context.Background()

	t.Run("ranked page", func(t *testing.T) {
		page, err := svc.Search(ctx, models.SearchFilterSet{Query: "Nike", SortBy: models.SortPriceAsc}, 1, 2, "10.0.0.1")
		require.NoError(t, err)
		svc.Drain()

		assert.False(t, page.Fallback)
		assert.Equal(t, []int{2, 4}, ids(page.Products))
		assert.Equal(t, 4, page.Pagination.Total)
		assert.True(t, page.Pagination.HasNext)
	})

	t.Run("fallback when nothing matches", func(t *testing.T) {
		page, err := svc.Search(ctx, models.SearchFilterSet{Query: "moon boots"}, 1, 20, "10.0.0.2")
		require.NoError(t, err)
		svc.Drain()

		assert.True(t, page.Fallback)
		assert.Len(t, page.Products, FallbackCount("moon boots"))
		for _, p := range page.Products {
			assert.True(t, p.Synthetic)
		}
	})

	t.Run("empty query defaults to relevance", func(t *testing.T) {
		page, err := svc.Search(ctx, models.SearchFilterSet{}, 1, 20, "")
		require.NoError(t, err)
		svc.Drain()

		assert.False(t, page.Fallback)
		assert.Equal(t, models.SortRelevance, page.Filters.SortBy)
		assert.Len(t, page.Products, 6)
	})

	analytics.mu.Lock()
	defer analytics.mu.Unlock()
	require.Len(t, analytics.entries, 3)
	assert.Equal(t, "nike", analytics.entries[0].NormalizedQuery)
	assert.Equal(t, 4, analytics.entries[0].ResultCount)
	assert.Equal(t, 0, analytics.entries[1].ResultCount, "synthesized listings are not counted")
}

func TestSearchServiceAnalyticsFailureIsHidden(t *testing.T) {
	analytics := &recordingLogger{err: errors.New("disk full")}
	svc := NewSearchService(&fakeStore{candidates: sampleCandidates()}, analytics, nil, quietLogger())

	_, err := svc.Search(context.Background(), models.SearchFilterSet{Query: "nike"}, 1, 20, "")
	require.NoError(t, err)
	svc.Drain()
}

func TestSearchServiceUpstream(t *testing.T) {
	svc := NewSearchService(&fakeStore{err: errors.New("timeout")}, nil, nil, quietLogger())

	_, err := svc.Search(context.Background(), models.SearchFilterSet{Query: "nike"}, 1, 20, "")
	assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
}

func TestListProducts(t *testing.T) {
	svc := NewSearchService(&fakeStore{candidates: sampleCandidates()}, nil, nil, quietLogger())

	page, err := svc.ListProducts(context.Background(), models.ProductListParams{Brand: "Nike", Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5, 4}, ids(page.Products))
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, models.SortCreatedAtDesc, page.Filters.SortBy)

	page, err = svc.ListProducts(context.Background(), models.ProductListParams{SortBy: models.SortBrandAsc})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Products[0].ID)
}
