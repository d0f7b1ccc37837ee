package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

const productColumns = `
	p.id, p.name, p.brand, p.model, p.category, p.subcategory, p.description,
	p.color, p.gender, p.primary_image_url, p.search_keywords, p.sizes, p.features,
	p.is_active, p.created_at, p.updated_at`

const productText = `p.name || ' ' || p.brand || ' ' || p.model || ' ' || p.category || ' ' ||
	p.subcategory || ' ' || p.description || ' ' || p.search_keywords`

// amountExpr extracts the numeric amount from a store's price text for SQL
// aggregates. Go-side reads go through services.ParseAmount instead.
const amountExpr = `NULLIF(regexp_replace(regexp_replace(pr.price, '^[^0-9]*', ''), '[^0-9.]', '', 'g'), '')::numeric`

func scanProduct(row pgx.Row, extra ...any) (*models.Product, error) {
	p := &models.Product{}
	dest := []any{
		&p.ID, &p.Name, &p.Brand, &p.Model, &p.Category, &p.Subcategory, &p.Description,
		&p.Color, &p.Gender, &p.PrimaryImageURL, &p.SearchKeywords, &p.Sizes, &p.Features,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchProduct gets an active product by ID
func (db *DB) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products p WHERE p.id = $1 AND p.is_active = true`, productColumns)

	p, err := scanProduct(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

// FetchCandidateProducts returns active products narrowed by the text, brand
// and category filters, each with aggregates over its eligible prices.
// Price bounds and ordering are applied by the caller.
func (db *DB) FetchCandidateProducts(ctx context.Context, filters models.SearchFilterSet) ([]models.ProductCandidate, error) {
	whereClauses := []string{"p.is_active = true"}
	var args []interface{}
	argIndex := 1

	fullText := "false"
	if q := filters.NormalizedQuery(); q != "" {
		fullText = fmt.Sprintf("to_tsvector('english', %s) @@ plainto_tsquery('english', $%d)", productText, argIndex+1)
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(LOWER(p.name) LIKE $%d OR LOWER(p.brand) LIKE $%d OR LOWER(p.model) LIKE $%d OR LOWER(p.search_keywords) LIKE $%d OR %s)",
			argIndex, argIndex, argIndex, argIndex, fullText,
		))
		args = append(args, "%"+escapeLike(q)+"%", q)
		argIndex += 2
	}

	if brand := strings.TrimSpace(filters.Brand); brand != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(p.brand) = LOWER($%d)", argIndex))
		args = append(args, brand)
		argIndex++
	}

	if category := strings.TrimSpace(filters.Category); category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("LOWER(p.category) = LOWER($%d)", argIndex))
		args = append(args, category)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, %s AS full_text
		FROM products p
		WHERE %s
		ORDER BY p.created_at, p.id
	`, productColumns, fullText, strings.Join(whereClauses, " AND "))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	matched := make(map[int]bool)
	for rows.Next() {
		var fullTextMatch bool
		p, err := scanProduct(rows, &fullTextMatch)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
		matched[p.ID] = fullTextMatch
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return []models.ProductCandidate{}, nil
	}

	ids := make([]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	raws, err := db.fetchRawPrices(ctx, "pr.product_id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[int][]models.PriceRecord)
	for _, rec := range services.NormalizePriceRecords(raws, db.log) {
		byProduct[rec.ProductID] = append(byProduct[rec.ProductID], rec)
	}

	candidates := make([]models.ProductCandidate, len(products))
	for i, p := range products {
		candidates[i] = services.BuildCandidate(*p, byProduct[p.ID])
		candidates[i].FullTextMatch = matched[p.ID]
	}
	return candidates, nil
}

// ProductFilters returns the category tree and brand facets of active products
func (db *DB) ProductFilters(ctx context.Context) (*models.ProductFilters, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT category, subcategory, COUNT(*)
		FROM products
		WHERE is_active = true
		GROUP BY category, subcategory
		ORDER BY category, subcategory
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	filters := &models.ProductFilters{
		Categories: []models.CategoryFacet{},
		Brands:     []models.BrandFacet{},
	}
	for rows.Next() {
		var category, subcategory string
		var count int
		if err := rows.Scan(&category, &subcategory, &count); err != nil {
			return nil, err
		}
		n := len(filters.Categories)
		if n == 0 || filters.Categories[n-1].Category != category {
			filters.Categories = append(filters.Categories, models.CategoryFacet{Category: category})
			n++
		}
		facet := &filters.Categories[n-1]
		facet.ProductCount += count
		facet.Subcategories = append(facet.Subcategories, models.SubcategoryFacet{Name: subcategory, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	brandQuery := fmt.Sprintf(`
		SELECT p.brand, COUNT(DISTINCT p.id), MIN(a.amount)::float8, MAX(a.amount)::float8
		FROM products p
		LEFT JOIN (
			SELECT pr.product_id, %s AS amount
			FROM prices pr
			JOIN stores s ON pr.store_id = s.id
			WHERE s.is_active = true
		) a ON a.product_id = p.id
		WHERE p.is_active = true
		GROUP BY p.brand
		ORDER BY p.brand
	`, amountExpr)

	brandRows, err := db.Pool.Query(ctx, brandQuery)
	if err != nil {
		return nil, err
	}
	defer brandRows.Close()

	for brandRows.Next() {
		var b models.BrandFacet
		if err := brandRows.Scan(&b.Brand, &b.ProductCount, &b.MinPrice, &b.MaxPrice); err != nil {
			return nil, err
		}
		filters.Brands = append(filters.Brands, b)
	}
	return filters, brandRows.Err()
}

// PopularBrands ranks brands by how many products have an eligible price
func (db *DB) PopularBrands(ctx context.Context, minProducts, limit int) ([]models.PopularBrand, error) {
	query := fmt.Sprintf(`
		SELECT p.brand, COUNT(DISTINCT p.id) AS product_count,
			ROUND(AVG(a.amount), 2)::float8, MIN(a.amount)::float8
		FROM products p
		JOIN (
			SELECT pr.product_id, %s AS amount
			FROM prices pr
			JOIN stores s ON pr.store_id = s.id
			WHERE s.is_active = true AND pr.availability IN ('in_stock', 'limited_stock')
		) a ON a.product_id = p.id
		WHERE p.is_active = true AND a.amount IS NOT NULL
		GROUP BY p.brand
		HAVING COUNT(DISTINCT p.id) >= $1
		ORDER BY product_count DESC, p.brand
		LIMIT $2
	`, amountExpr)

	rows, err := db.Pool.Query(ctx, query, minProducts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	brands := []models.PopularBrand{}
	for rows.Next() {
		var b models.PopularBrand
		if err := rows.Scan(&b.Brand, &b.ProductCount, &b.AvgPrice, &b.MinPrice); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
