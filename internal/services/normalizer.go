package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

var (
	ErrEmptyAmount    = errors.New("empty amount")
	ErrNegativeAmount = errors.New("negative amount")
)

var currencyReplacer = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	",", "",
	" ", "",
	"\u00a0", "",
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a store-formatted currency amount such as "₹8,999.00"
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := currencyReplacer.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}

	return d, nil
}

// NormalizePriceRecord converts a raw store row into a validated PriceRecord.
// An original price below the selling price is dropped, and a missing
// discount is derived from the original price when there is one.
func NormalizePriceRecord(raw models.RawPriceRecord) (models.PriceRecord, error) {
	price, err := ParseAmount(raw.Price)
	if err != nil {
		return models.PriceRecord{}, fmt.Errorf("store %d price: %w", raw.StoreID, err)
	}

	rec := models.PriceRecord{
		ProductID:        raw.ProductID,
		StoreID:          raw.StoreID,
		StoreName:        raw.StoreName,
		StoreLogoURL:     raw.StoreLogoURL,
		Price:            price.InexactFloat64(),
		Availability:     models.ParseAvailability(raw.Availability),
		ProductURL:       raw.ProductURL,
		LastScraped:      raw.LastScraped,
		ReviewCount:      raw.ReviewCount,
		SizeAvailability: raw.SizeAvailability,
	}

	var original decimal.Decimal
	hasOriginal := false
	if raw.OriginalPrice != nil {
		if op, err := ParseAmount(*raw.OriginalPrice); err == nil && op.GreaterThanOrEqual(price) {
			original = op
			hasOriginal = true
			v := op.InexactFloat64()
			rec.OriginalPrice = &v
		}
	}

	if raw.DiscountPercentage != nil {
		if dp, err := ParseAmount(strings.TrimSuffix(strings.TrimSpace(*raw.DiscountPercentage), "%")); err == nil && dp.LessThanOrEqual(hundred) {
			v := dp.Round(2).InexactFloat64()
			rec.DiscountPercentage = &v
		}
	}
	if rec.DiscountPercentage == nil && hasOriginal && original.GreaterThan(price) {
		v := original.Sub(price).Div(original).Mul(hundred).Round(2).InexactFloat64()
		rec.DiscountPercentage = &v
	}

	if raw.Rating != nil {
		if r, err := decimal.NewFromString(strings.TrimSpace(*raw.Rating)); err == nil && !r.IsNegative() {
			v := r.Round(1).InexactFloat64()
			rec.Rating = &v
		}
	}

	if rec.ReviewCount < 0 {
		rec.ReviewCount = 0
	}

	return rec, nil
}

// NormalizePriceRecords normalizes a batch, skipping rows that fail validation
func NormalizePriceRecords(raws []models.RawPriceRecord, log logrus.FieldLogger) []models.PriceRecord {
	records := make([]models.PriceRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := NormalizePriceRecord(raw)
		if err != nil {
			log.WithFields(logrus.Fields{
				"product_id": raw.ProductID,
				"store_id":   raw.StoreID,
			}).WithError(err).Warn("Skipping malformed price record")
			continue
		}
		records = append(records, rec)
	}
	return records
}

// RoundMoney rounds to two decimal places
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RoundWhole rounds half away from zero to a whole currency unit
func RoundWhole(v float64) float64 {
	return decimal.NewFromFloat(v).Round(0).InexactFloat64()
}
