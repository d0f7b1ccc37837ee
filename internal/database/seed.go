package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// SeedData is a catalog to load into the database
type SeedData struct {
	Stores   []models.Store
	Products []models.Product
	Prices   []models.RawPriceRecord
	History  []models.PriceHistorySample
}

// SeedResult counts the rows written by SeedCatalog
type SeedResult struct {
	Stores   int
	Products int
	Prices   int
	History  int64
}

// SeedCatalog upserts stores, products and prices by id and replaces the
// price history of the seeded products, all in one transaction
func (db *DB) SeedCatalog(ctx context.Context, data SeedData) (*SeedResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &SeedResult{}

	for _, s := range data.Stores {
		_, err := tx.Exec(ctx, `
			INSERT INTO stores (id, name, base_url, logo_url, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, base_url = EXCLUDED.base_url,
				logo_url = EXCLUDED.logo_url, is_active = EXCLUDED.is_active
		`, s.ID, s.Name, s.BaseURL, s.LogoURL, s.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert store %s: %w", s.Name, err)
		}
		result.Stores++
	}

	productIDs := make([]int, 0, len(data.Products))
	for _, p := range data.Products {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (
				id, name, brand, model, category, subcategory, description, color, gender,
				primary_image_url, search_keywords, sizes, features, is_active, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, brand = EXCLUDED.brand, model = EXCLUDED.model,
				category = EXCLUDED.category, subcategory = EXCLUDED.subcategory,
				description = EXCLUDED.description, color = EXCLUDED.color, gender = EXCLUDED.gender,
				primary_image_url = EXCLUDED.primary_image_url, search_keywords = EXCLUDED.search_keywords,
				sizes = EXCLUDED.sizes, features = EXCLUDED.features, is_active = EXCLUDED.is_active,
				updated_at = NOW()
		`, p.ID, p.Name, p.Brand, p.Model, p.Category, p.Subcategory, p.Description, p.Color, p.Gender,
			p.PrimaryImageURL, p.SearchKeywords, p.Sizes, p.Features, p.IsActive, p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert product %s: %w", p.Name, err)
		}
		productIDs = append(productIDs, p.ID)
		result.Products++
	}

	for _, r := range data.Prices {
		_, err := tx.Exec(ctx, `
			INSERT INTO prices (
				product_id, store_id, price, original_price, discount_percentage, availability,
				product_url, rating, review_count, size_availability, last_scraped
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (product_id, store_id) DO UPDATE SET
				price = EXCLUDED.price, original_price = EXCLUDED.original_price,
				discount_percentage = EXCLUDED.discount_percentage, availability = EXCLUDED.availability,
				product_url = EXCLUDED.product_url, rating = EXCLUDED.rating,
				review_count = EXCLUDED.review_count, size_availability = EXCLUDED.size_availability,
				last_scraped = EXCLUDED.last_scraped
		`, r.ProductID, r.StoreID, r.Price, r.OriginalPrice, r.DiscountPercentage, r.Availability,
			r.ProductURL, r.Rating, r.ReviewCount, r.SizeAvailability, r.LastScraped)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert price for product %d at store %d: %w", r.ProductID, r.StoreID, err)
		}
		result.Prices++
	}

	if _, err := tx.Exec(ctx, `DELETE FROM price_history WHERE product_id = ANY($1)`, productIDs); err != nil {
		return nil, fmt.Errorf("failed to clear price history: %w", err)
	}

	rows := make([][]any, len(data.History))
	for i, h := range data.History {
		rows[i] = []any{h.ProductID, h.StoreID, h.AvgPrice, h.RecordedAt}
	}
	result.History, err = tx.CopyFrom(ctx,
		pgx.Identifier{"price_history"},
		[]string{"product_id", "store_id", "price", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to copy price history: %w", err)
	}

	// Explicit ids leave the serial sequences behind
	for _, table := range []string{"stores", "products"} {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`,
			table, table,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	db.log.WithFields(logrus.Fields{
		"stores":   result.Stores,
		"products": result.Products,
		"prices":   result.Prices,
		"history":  result.History,
	}).Info("Catalog seeded")

	return result, nil
}

// RecordPrice upserts one scraped store price and appends its amount to the
// price history
func (db *DB) RecordPrice(ctx context.Context, r models.RawPriceRecord, amount float64) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO prices (product_id, store_id, price, original_price, availability, product_url, last_scraped)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, store_id) DO UPDATE SET
			price = EXCLUDED.price, original_price = EXCLUDED.original_price,
			availability = EXCLUDED.availability, product_url = EXCLUDED.product_url,
			last_scraped = EXCLUDED.last_scraped
	`, r.ProductID, r.StoreID, r.Price, r.OriginalPrice, r.Availability, r.ProductURL, r.LastScraped)
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO price_history (product_id, store_id, price, recorded_at)
		VALUES ($1, $2, $3, $4)
	`, r.ProductID, r.StoreID, amount, r.LastScraped)
	if err != nil {
		return fmt.Errorf("failed to record price history: %w", err)
	}

	return tx.Commit(ctx)
}

// StoreIDsByName maps store names, lowercased, to ids
func (db *DB) StoreIDsByName(ctx context.Context) (map[string]int, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, LOWER(name) FROM stores`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]int)
	for rows.Next() {
		var id int
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		ids[name] = id
	}
	return ids, rows.Err()
}
