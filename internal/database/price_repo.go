package database

import (
	"context"
	"fmt"
	"time"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// maxHistoryRows caps the history rows returned for one product
const maxHistoryRows = 30

// FetchPriceRecords returns the raw store prices of a product at active stores
func (db *DB) FetchPriceRecords(ctx context.Context, productID int) ([]models.RawPriceRecord, error) {
	return db.fetchRawPrices(ctx, "pr.product_id = $1", productID)
}

func (db *DB) fetchRawPrices(ctx context.Context, where string, args ...interface{}) ([]models.RawPriceRecord, error) {
	query := fmt.Sprintf(`
		SELECT
			pr.product_id, pr.store_id, s.name, COALESCE(s.logo_url, ''),
			pr.price, pr.original_price, pr.discount_percentage, pr.availability,
			pr.product_url, pr.last_scraped, pr.rating, pr.review_count, pr.size_availability
		FROM prices pr
		JOIN stores s ON pr.store_id = s.id
		WHERE s.is_active = true AND %s
		ORDER BY pr.product_id, pr.id
	`, where)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RawPriceRecord
	for rows.Next() {
		var r models.RawPriceRecord
		err := rows.Scan(
			&r.ProductID, &r.StoreID, &r.StoreName, &r.StoreLogoURL,
			&r.Price, &r.OriginalPrice, &r.DiscountPercentage, &r.Availability,
			&r.ProductURL, &r.LastScraped, &r.Rating, &r.ReviewCount, &r.SizeAvailability,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// FetchPriceHistory returns daily per-store price aggregates within the
// window, newest first
func (db *DB) FetchPriceHistory(ctx context.Context, productID, windowDays int) ([]models.PriceHistorySample, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT
			ph.product_id, ph.store_id, s.name,
			DATE(ph.recorded_at) AS date,
			AVG(ph.price)::float8, MIN(ph.price)::float8, MAX(ph.price)::float8
		FROM price_history ph
		JOIN stores s ON ph.store_id = s.id
		WHERE ph.product_id = $1
			AND s.is_active = true
			AND ph.recorded_at >= CURRENT_DATE - make_interval(days => $2)
		GROUP BY ph.product_id, ph.store_id, s.name, DATE(ph.recorded_at)
		ORDER BY date DESC, s.name
		LIMIT $3
	`, productID, windowDays, maxHistoryRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.PriceHistorySample{}
	for rows.Next() {
		var h models.PriceHistorySample
		err := rows.Scan(&h.ProductID, &h.StoreID, &h.StoreName, &h.RecordedAt, &h.AvgPrice, &h.MinPrice, &h.MaxPrice)
		if err != nil {
			return nil, err
		}
		samples = append(samples, h)
	}
	return samples, rows.Err()
}

// PrunePriceHistory deletes history rows recorded before the cutoff
func (db *DB) PrunePriceHistory(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM price_history WHERE recorded_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
