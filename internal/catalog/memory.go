package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

// MaxHistoryRows caps the history rows returned for one product
const MaxHistoryRows = 30

type searchRecord struct {
	entry models.SearchLogEntry
	at    time.Time
}

// Memory is a thread-safe in-memory product store
type Memory struct {
	mu       sync.RWMutex
	stores   map[int]models.Store
	products []models.Product
	prices   map[int][]models.RawPriceRecord
	parsed   map[int][]models.PriceRecord
	history  []models.PriceHistorySample
	searches []searchRecord
	now      func() time.Time
}

// NewMemory creates a store over the given dataset. now may be nil.
func NewMemory(ds *Dataset, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	m := &Memory{
		stores: make(map[int]models.Store, len(ds.Stores)),
		prices: make(map[int][]models.RawPriceRecord),
		parsed: make(map[int][]models.PriceRecord),
		now:    now,
	}
	for _, s := range ds.Stores {
		m.stores[s.ID] = s
	}
	m.products = append(m.products, ds.Products...)
	sort.Slice(m.products, func(i, j int) bool { return m.products[i].ID < m.products[j].ID })

	for _, raw := range ds.Prices {
		m.prices[raw.ProductID] = append(m.prices[raw.ProductID], raw)
		if rec, err := services.NormalizePriceRecord(raw); err == nil {
			m.parsed[raw.ProductID] = append(m.parsed[raw.ProductID], rec)
		}
	}
	m.history = append(m.history, ds.History...)
	return m
}

// Ping always succeeds
func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

// FetchProduct returns an active product by id
func (m *Memory) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if p.ID == id && p.IsActive {
			product := p
			return &product, nil
		}
	}
	return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
}

// FetchPriceRecords returns the raw prices of a product at active stores
func (m *Memory) FetchPriceRecords(ctx context.Context, productID int) ([]models.RawPriceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []models.RawPriceRecord
	for _, raw := range m.prices[productID] {
		if m.stores[raw.StoreID].IsActive {
			records = append(records, raw)
		}
	}
	return records, nil
}

// FetchPriceHistory returns the newest history rows within the window
func (m *Memory) FetchPriceHistory(ctx context.Context, productID, windowDays int) ([]models.PriceHistorySample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := startOfDay(m.now()).AddDate(0, 0, -windowDays)

	var samples []models.PriceHistorySample
	for _, h := range m.history {
		if h.ProductID != productID || h.RecordedAt.Before(cutoff) {
			continue
		}
		if !m.stores[h.StoreID].IsActive {
			continue
		}
		samples = append(samples, h)
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if !samples[i].RecordedAt.Equal(samples[j].RecordedAt) {
			return samples[i].RecordedAt.After(samples[j].RecordedAt)
		}
		return samples[i].StoreName < samples[j].StoreName
	})
	if len(samples) > MaxHistoryRows {
		samples = samples[:MaxHistoryRows]
	}
	return samples, nil
}

// FetchCandidateProducts returns every active product with aggregates over
// its eligible prices. Ranking and filtering happen in the search service.
func (m *Memory) FetchCandidateProducts(ctx context.Context, filters models.SearchFilterSet) ([]models.ProductCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := strings.Fields(filters.NormalizedQuery())

	candidates := make([]models.ProductCandidate, 0, len(m.products))
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		var records []models.PriceRecord
		for _, rec := range m.parsed[p.ID] {
			if m.stores[rec.StoreID].IsActive {
				records = append(records, rec)
			}
		}
		c := services.BuildCandidate(p, records)
		if len(tokens) > 0 {
			c.FullTextMatch = fullTextMatch(p, tokens)
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// fullTextMatch requires every query token as a word in the product text
func fullTextMatch(p models.Product, tokens []string) bool {
	text := strings.ToLower(strings.Join([]string{
		p.Name, p.Brand, p.Model, p.Category, p.Subcategory, p.Description, p.SearchKeywords,
	}, " "))
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '/' || r == '.' || r == ',' || r == '\''
	}) {
		words[w] = true
	}
	for _, t := range tokens {
		if !words[t] {
			return false
		}
	}
	return true
}

// LogSearchQuery records a search
func (m *Memory) LogSearchQuery(ctx context.Context, entry models.SearchLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches = append(m.searches, searchRecord{entry: entry, at: m.now()})
	return nil
}

// SearchQueries returns a copy of the recorded searches
func (m *Memory) SearchQueries() []models.SearchLogEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]models.SearchLogEntry, len(m.searches))
	for i, s := range m.searches {
		entries[i] = s.entry
	}
	return entries
}

// SearchSuggestions matches product names and brands containing the query
func (m *Memory) SearchSuggestions(ctx context.Context, query string, limit int) ([]models.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	type key struct{ text, brand string }
	names := make(map[key]int)
	brands := make(map[string]int)
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), q) {
			names[key{p.Name, p.Brand}]++
		}
		if strings.Contains(strings.ToLower(p.Brand), q) {
			brands[p.Brand]++
		}
	}

	suggestions := make([]models.Suggestion, 0, len(names)+len(brands))
	for k, n := range names {
		brand := k.brand
		suggestions = append(suggestions, models.Suggestion{Text: k.text, Type: "product", Brand: &brand, Frequency: n})
	}
	for b, n := range brands {
		suggestions = append(suggestions, models.Suggestion{Text: b, Type: "brand", Frequency: n})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Frequency != suggestions[j].Frequency {
			return suggestions[i].Frequency > suggestions[j].Frequency
		}
		if suggestions[i].Text != suggestions[j].Text {
			return suggestions[i].Text < suggestions[j].Text
		}
		return suggestions[i].Type < suggestions[j].Type
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// TrendingSearches groups recent searches that returned results
func (m *Memory) TrendingSearches(ctx context.Context, since time.Time, minCount, limit int) ([]models.TrendingSearch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct{ count, results int }
	groups := make(map[string]*agg)
	for _, s := range m.searches {
		if s.at.Before(since) || s.entry.ResultCount <= 0 || s.entry.NormalizedQuery == "" {
			continue
		}
		g, ok := groups[s.entry.NormalizedQuery]
		if !ok {
			g = &agg{}
			groups[s.entry.NormalizedQuery] = g
		}
		g.count++
		g.results += s.entry.ResultCount
	}

	trending := make([]models.TrendingSearch, 0, len(groups))
	for q, g := range groups {
		if g.count < minCount {
			continue
		}
		avg := int(services.RoundWhole(float64(g.results) / float64(g.count)))
		trending = append(trending, models.TrendingSearch{Query: q, SearchCount: g.count, AvgResults: avg})
	}

	sort.Slice(trending, func(i, j int) bool {
		if trending[i].SearchCount != trending[j].SearchCount {
			return trending[i].SearchCount > trending[j].SearchCount
		}
		if trending[i].AvgResults != trending[j].AvgResults {
			return trending[i].AvgResults > trending[j].AvgResults
		}
		return trending[i].Query < trending[j].Query
	})
	if len(trending) > limit {
		trending = trending[:limit]
	}
	return trending, nil
}

// PopularBrands ranks brands by how many products have an eligible price
func (m *Memory) PopularBrands(ctx context.Context, minProducts, limit int) ([]models.PopularBrand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type agg struct {
		products map[int]bool
		sum      float64
		n        int
		min      float64
	}
	groups := make(map[string]*agg)
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		for _, rec := range m.parsed[p.ID] {
			if !m.stores[rec.StoreID].IsActive || !rec.Availability.Eligible() {
				continue
			}
			g, ok := groups[p.Brand]
			if !ok {
				g = &agg{products: make(map[int]bool), min: rec.Price}
				groups[p.Brand] = g
			}
			g.products[p.ID] = true
			g.sum += rec.Price
			g.n++
			g.min = min(g.min, rec.Price)
		}
	}

	brands := make([]models.PopularBrand, 0, len(groups))
	for b, g := range groups {
		if len(g.products) < minProducts {
			continue
		}
		brands = append(brands, models.PopularBrand{
			Brand:        b,
			ProductCount: len(g.products),
			AvgPrice:     services.RoundMoney(g.sum / float64(g.n)),
			MinPrice:     g.min,
		})
	}

	sort.Slice(brands, func(i, j int) bool {
		if brands[i].ProductCount != brands[j].ProductCount {
			return brands[i].ProductCount > brands[j].ProductCount
		}
		return brands[i].Brand < brands[j].Brand
	})
	if len(brands) > limit {
		brands = brands[:limit]
	}
	return brands, nil
}

// ProductFilters returns the category tree and brand facets of active products
func (m *Memory) ProductFilters(ctx context.Context) (*models.ProductFilters, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	categories := make(map[string]map[string]int)
	brands := make(map[string]*models.BrandFacet)
	for _, p := range m.products {
		if !p.IsActive {
			continue
		}
		if categories[p.Category] == nil {
			categories[p.Category] = make(map[string]int)
		}
		categories[p.Category][p.Subcategory]++

		facet, ok := brands[p.Brand]
		if !ok {
			facet = &models.BrandFacet{Brand: p.Brand}
			brands[p.Brand] = facet
		}
		facet.ProductCount++
		for _, rec := range m.parsed[p.ID] {
			if !m.stores[rec.StoreID].IsActive {
				continue
			}
			price := rec.Price
			if facet.MinPrice == nil || price < *facet.MinPrice {
				facet.MinPrice = &price
			}
			if facet.MaxPrice == nil || price > *facet.MaxPrice {
				facet.MaxPrice = &price
			}
		}
	}

	filters := &models.ProductFilters{
		Categories: make([]models.CategoryFacet, 0, len(categories)),
		Brands:     make([]models.BrandFacet, 0, len(brands)),
	}
	for name, subs := range categories {
		facet := models.CategoryFacet{Category: name}
		for sub, n := range subs {
			facet.ProductCount += n
			facet.Subcategories = append(facet.Subcategories, models.SubcategoryFacet{Name: sub, Count: n})
		}
		sort.Slice(facet.Subcategories, func(i, j int) bool {
			return facet.Subcategories[i].Name < facet.Subcategories[j].Name
		})
		filters.Categories = append(filters.Categories, facet)
	}
	sort.Slice(filters.Categories, func(i, j int) bool {
		return filters.Categories[i].Category < filters.Categories[j].Category
	})

	for _, facet := range brands {
		filters.Brands = append(filters.Brands, *facet)
	}
	sort.Slice(filters.Brands, func(i, j int) bool { return filters.Brands[i].Brand < filters.Brands[j].Brand })

	return filters, nil
}

// PruneSearchQueries drops searches recorded before the cutoff
func (m *Memory) PruneSearchQueries(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.searches[:0]
	for _, s := range m.searches {
		if !s.at.Before(before) {
			kept = append(kept, s)
		}
	}
	removed := int64(len(m.searches) - len(kept))
	m.searches = kept
	return removed, nil
}

// PrunePriceHistory drops history rows recorded before the cutoff
func (m *Memory) PrunePriceHistory(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.history[:0]
	for _, h := range m.history {
		if !h.RecordedAt.Before(before) {
			kept = append(kept, h)
		}
	}
	removed := int64(len(m.history) - len(kept))
	m.history = kept
	return removed, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
