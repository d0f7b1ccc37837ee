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

func TestBuildComparison(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries, summary := BuildComparison([]models.PriceRecord{
		record(1, 1, "Amazon", 8999, now),
		record(1, 3, "Myntra", 12499, now.Add(-time.Hour)),
		record(1, 2, "Flipkart", 9499, now.Add(-2*time.Hour)),
	})

	require.Len(t, entries, 3)
	assert.Equal(t, "Amazon", entries[0].StoreName)
	assert.Equal(t, "Flipkart", entries[1].StoreName)
	assert.Equal(t, "Myntra", entries[2].StoreName)

	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].PriceRank, entries[1].PriceRank, entries[2].PriceRank})
	assert.True(t, entries[0].IsLowestPrice)
	assert.False(t, entries[1].IsLowestPrice)
	assert.Equal(t, 3500.0, entries[0].SavingsVsHighest)
	assert.Equal(t, 3000.0, entries[1].SavingsVsHighest)
	assert.Equal(t, 0.0, entries[2].SavingsVsHighest)

	assert.Equal(t, 8999.0, summary.LowestPrice)
	assert.Equal(t, 12499.0, summary.HighestPrice)
	assert.Equal(t, 3500.0, summary.MaxSavings)
	assert.Equal(t, 3, summary.StoreCount)
	assert.Equal(t, 10332.33, summary.AvgPrice)
	require.NotNil(t, summary.LastUpdated)
	assert.Equal(t, now, *summary.LastUpdated)
}

func TestBuildComparisonTies(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries, summary := BuildComparison([]models.PriceRecord{
		record(1, 1, "Amazon", 5000, now.Add(-3*time.Hour)),
		record(1, 2, "Flipkart", 5000, now),
		record(1, 3, "Ajio", 6000, now),
	})

	require.Len(t, entries, 3)
	assert.Equal(t, "Flipkart", entries[0].StoreName, "fresher record wins a price tie")
	assert.Equal(t, 1, entries[0].PriceRank)
	assert.Equal(t, 1, entries[1].PriceRank)
	assert.Equal(t, 2, entries[2].PriceRank)
	assert.True(t, entries[0].IsLowestPrice)
	assert.True(t, entries[1].IsLowestPrice)
	assert.False(t, entries[2].IsLowestPrice)
	assert.Equal(t, now, *summary.LastUpdated)
}

func TestBuildComparisonSingleStore(t *testing.T) {
	entries, summary := BuildComparison([]models.PriceRecord{record(1, 1, "Amazon", 4999, time.Now())})

	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsLowestPrice)
	assert.Equal(t, 0.0, entries[0].SavingsVsHighest)
	assert.Equal(t, 0.0, summary.MaxSavings)
	assert.Equal(t, 4999.0, summary.AvgPrice)
}

func TestComparisonEngineCompare(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		products: map[int]*models.Product{
			1: {ID: 1, Name: "Air Zoom", Brand: "Nike", IsActive: true},
			2: {ID: 2, Name: "No Prices", Brand: "Puma", IsActive: true},
			3: {ID: 3, Name: "Retired", Brand: "Puma", IsActive: false},
		},
		prices: map[int][]models.RawPriceRecord{
			1: {
				raw(1, 1, "Amazon", "8999.00", "in_stock", now),
				raw(1, 2, "Flipkart", "₹9,499", "in_stock", now),
				raw(1, 3, "Myntra", "broken", "in_stock", now),
			},
			2: {raw(2, 1, "Amazon", "", "in_stock", now)},
		},
	}
	engine := NewComparisonEngine(store, quietLogger())
	ctx := context.Background()

	view, err := engine.Compare(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Air Zoom", view.Product.Name)
	assert.Equal(t, 2, view.Summary.StoreCount, "malformed prices are skipped")
	assert.Equal(t, 500.0, view.Summary.MaxSavings)

	tests := []struct {
		name string
		id   int
	}{
		{"missing product", 99},
		{"no parseable prices", 2},
		{"inactive product", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Compare(ctx, tt.id)
			assert.ErrorIs(t, err, models.ErrNotFound)
		})
	}

	t.Run("store outage", func(t *testing.T) {
		down := NewComparisonEngine(&fakeStore{err: errors.New("connection refused")}, quietLogger())
		_, err := down.Compare(ctx, 1)
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	})
}
