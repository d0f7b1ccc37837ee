package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr error
	}{
		{"8999", 8999, nil},
		{"8999.00", 8999, nil},
		{"₹8,999", 8999, nil},
		{"Rs. 1,299.50", 1299.5, nil},
		{"INR 450", 450, nil},
		{"  ", 0, ErrEmptyAmount},
		{"-5", 0, ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.InexactFloat64())
		})
	}

	_, err := ParseAmount("free")
	assert.Error(t, err)
}

func TestNormalizePriceRecord(t *testing.T) {
	t.Run("derives discount from original price", func(t *testing.T) {
		rec, err := NormalizePriceRecord(models.RawPriceRecord{
			StoreID:       1,
			Price:         "₹8,999",
			OriginalPrice: ptr("9999"),
			Availability:  "in_stock",
			Rating:        ptr("4.35"),
			ReviewCount:   -3,
		})
		require.NoError(t, err)

		assert.Equal(t, 8999.0, rec.Price)
		require.NotNil(t, rec.OriginalPrice)
		assert.Equal(t, 9999.0, *rec.OriginalPrice)
		require.NotNil(t, rec.DiscountPercentage)
		assert.Equal(t, 10.0, *rec.DiscountPercentage)
		require.NotNil(t, rec.Rating)
		assert.Equal(t, 4.4, *rec.Rating)
		assert.Equal(t, 0, rec.ReviewCount)
	})

	t.Run("drops original price below selling price", func(t *testing.T) {
		rec, err := NormalizePriceRecord(models.RawPriceRecord{
			Price:         "5000",
			OriginalPrice: ptr("4000"),
			Availability:  "limited",
		})
		require.NoError(t, err)
		assert.Nil(t, rec.OriginalPrice)
		assert.Nil(t, rec.DiscountPercentage)
		assert.Equal(t, models.AvailabilityLimitedStock, rec.Availability)
	})

	t.Run("keeps explicit discount", func(t *testing.T) {
		rec, err := NormalizePriceRecord(models.RawPriceRecord{
			Price:              "5000",
			DiscountPercentage: ptr("25%"),
		})
		require.NoError(t, err)
		require.NotNil(t, rec.DiscountPercentage)
		assert.Equal(t, 25.0, *rec.DiscountPercentage)
		assert.Equal(t, models.AvailabilityOutOfStock, rec.Availability)
	})

	t.Run("rejects missing price", func(t *testing.T) {
		_, err := NormalizePriceRecord(models.RawPriceRecord{StoreID: 4})
		assert.ErrorIs(t, err, ErrEmptyAmount)
	})
}

func TestNormalizePriceRecordsSkipsMalformed(t *testing.T) {
	records := NormalizePriceRecords([]models.RawPriceRecord{
		{StoreID: 1, Price: "100"},
		{StoreID: 2, Price: "n/a"},
		{StoreID: 3, Price: "300"},
	}, quietLogger())

	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].StoreID)
	assert.Equal(t, 3, records[1].StoreID)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 10332.33, RoundMoney(30997.0/3))
	assert.Equal(t, 8099.0, RoundWhole(8099.1))
	assert.Equal(t, 8550.0, RoundWhole(8549.5))
}
