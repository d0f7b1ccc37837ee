package database

import (
	"context"
	"strings"
	"time"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

// LogSearchQuery records a search for analytics
func (db *DB) LogSearchQuery(ctx context.Context, entry models.SearchLogEntry) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO search_queries (query, normalized_query, results_count, user_ip)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, entry.Query, entry.NormalizedQuery, entry.ResultCount, entry.UserIP)
	return err
}

// SearchSuggestions returns product names and brands containing the query
func (db *DB) SearchSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	rows, err := db.Pool.Query(ctx, `
		SELECT suggestion, type, brand, frequency FROM (
			SELECT name AS suggestion, 'product' AS type, brand, COUNT(*) AS frequency
			FROM products
			WHERE is_active = true AND LOWER(name) LIKE $1
			GROUP BY name, brand
			UNION ALL
			SELECT brand AS suggestion, 'brand' AS type, NULL AS brand, COUNT(*) AS frequency
			FROM products
			WHERE is_active = true AND LOWER(brand) LIKE $1
			GROUP BY brand
		) s
		ORDER BY frequency DESC, suggestion ASC, type
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suggestions := []models.Suggestion{}
	for rows.Next() {
		var s models.Suggestion
		if err := rows.Scan(&s.Text, &s.Type, &s.Brand, &s.Frequency); err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// TrendingSearches groups searches since the given time that returned results
func (db *DB) TrendingSearches(ctx context.Context, since time.Time, minCount, limit int) ([]models.TrendingSearch, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT normalized_query, COUNT(*) AS search_count, ROUND(AVG(results_count))::int AS avg_results
		FROM search_queries
		WHERE created_at >= $1 AND results_count > 0 AND normalized_query <> ''
		GROUP BY normalized_query
		HAVING COUNT(*) >= $2
		ORDER BY search_count DESC, avg_results DESC, normalized_query
		LIMIT $3
	`, since, minCount, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trending := []models.TrendingSearch{}
	for rows.Next() {
		var t models.TrendingSearch
		if err := rows.Scan(&t.Query, &t.SearchCount, &t.AvgResults); err != nil {
			return nil, err
		}
		trending = append(trending, t)
	}
	return trending, rows.Err()
}

// PruneSearchQueries deletes searches recorded before the cutoff
func (db *DB) PruneSearchQueries(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM search_queries WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
