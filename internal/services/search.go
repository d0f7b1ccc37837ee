package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 50

	scoreName  = 10
	scoreBrand = 8
	scoreModel = 6

	// bonus for a full-text hit on description or keywords
	scoreFullText = 4
)

// SearchService filters, ranks and pages products, falling back to
// synthesized listings when a non-empty query matches nothing
type SearchService struct {
	store            ProductStore
	analytics        SearchLogger
	fallback         *FallbackSynthesizer
	log              logrus.FieldLogger
	analyticsTimeout time.Duration
	pending          sync.WaitGroup
}

// NewSearchService creates a new SearchService. analytics may be nil.
func NewSearchService(store ProductStore, analytics SearchLogger, fallback *FallbackSynthesizer, log logrus.FieldLogger) *SearchService {
	if fallback == nil {
		fallback = NewFallbackSynthesizer(nil)
	}
	return &SearchService{
		store:            store,
		analytics:        analytics,
		fallback:         fallback,
		log:              log.WithField("component", "search"),
		analyticsTimeout: 5 * time.Second,
	}
}

// Search runs a filtered, ranked, paginated product search
func (s *SearchService) Search(ctx context.Context, filters models.SearchFilterSet, page, limit int, userIP string) (*models.SearchResultPage, error) {
	if filters.SortBy == "" {
		filters.SortBy = models.SortRelevance
	}

	candidates, err := s.store.FetchCandidateProducts(ctx, filters)
	if err != nil {
		return nil, upstream("fetch candidates", err)
	}

	ranked := RankCandidates(candidates, filters)
	matched := len(ranked)

	usedFallback := false
	if matched == 0 && filters.NormalizedQuery() != "" {
		ranked = s.fallback.Synthesize(filters)
		usedFallback = true
		s.log.WithFields(logrus.Fields{
			"query": filters.Query,
			"count": len(ranked),
		}).Info("No matches, serving synthesized results")
	}

	items, pagination := Paginate(ranked, page, limit)

	s.recordSearch(models.SearchLogEntry{
		Query:           filters.Query,
		NormalizedQuery: filters.NormalizedQuery(),
		ResultCount:     matched,
		UserIP:          userIP,
	})

	return &models.SearchResultPage{
		Products:   items,
		Pagination: pagination,
		Filters:    filters,
		Fallback:   usedFallback,
	}, nil
}

// ListProducts pages through active products without the availability gate
func (s *SearchService) ListProducts(ctx context.Context, params models.ProductListParams) (*models.SearchResultPage, error) {
	filters := models.SearchFilterSet{
		Brand:    params.Brand,
		Category: params.Category,
		SortBy:   params.SortBy,
	}
	if filters.SortBy == "" {
		filters.SortBy = models.SortCreatedAtDesc
	}

	candidates, err := s.store.FetchCandidateProducts(ctx, filters)
	if err != nil {
		return nil, upstream("fetch candidates", err)
	}

	items, pagination := Paginate(RankCandidates(candidates, filters), params.Page, params.Limit)

	return &models.SearchResultPage{
		Products:   items,
		Pagination: pagination,
		Filters:    filters,
	}, nil
}

// Drain waits for in-flight analytics writes
func (s *SearchService) Drain() {
	s.pending.Wait()
}

// recordSearch writes the analytics record in the background.
// Failures are logged and never reach the caller.
func (s *SearchService) recordSearch(entry models.SearchLogEntry) {
	if s.analytics == nil {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.analyticsTimeout)
		defer cancel()

		if err := s.analytics.LogSearchQuery(ctx, entry); err != nil {
			s.log.WithError(err).WithField("query", entry.NormalizedQuery).Warn("Failed to log search query")
		}
	}()
}

// RankCandidates applies the search filters and orders the survivors.
// Candidates are first put in creation order so ties are broken by it.
func RankCandidates(candidates []models.ProductCandidate, filters models.SearchFilterSet) []models.ProductSummary {
	ordered := make([]models.ProductCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	query := filters.NormalizedQuery()
	results := make([]models.ProductSummary, 0, len(ordered))
	for _, c := range ordered {
		if !matchesFilters(c, filters, query) {
			continue
		}
		summary := toSummary(c)
		if query != "" {
			summary.RelevanceScore = RelevanceScore(c.Product, query)
			if c.FullTextMatch {
				summary.RelevanceScore += scoreFullText
			}
		}
		results = append(results, summary)
	}

	SortSummaries(results, filters.SortBy, query != "")
	return results
}

func matchesFilters(c models.ProductCandidate, filters models.SearchFilterSet, query string) bool {
	if !c.IsActive {
		return false
	}

	if query != "" {
		if !containsQuery(c.Product, query) && !c.FullTextMatch {
			return false
		}
		// Products with no in-stock or limited-stock price only show for empty queries
		if c.StoreCount == 0 {
			return false
		}
	}

	if filters.Brand != "" && !strings.EqualFold(c.Brand, strings.TrimSpace(filters.Brand)) {
		return false
	}
	if filters.Category != "" && !strings.EqualFold(c.Category, strings.TrimSpace(filters.Category)) {
		return false
	}

	return priceInRange(c.MinPrice, filters)
}

func priceInRange(minPrice *float64, filters models.SearchFilterSet) bool {
	if !filters.HasPriceFilter() {
		return true
	}
	if minPrice == nil {
		return false
	}
	if filters.MinPrice != nil && *minPrice < *filters.MinPrice {
		return false
	}
	if filters.MaxPrice != nil && *minPrice > *filters.MaxPrice {
		return false
	}
	return true
}

func containsQuery(p models.Product, query string) bool {
	for _, field := range []string{p.Name, p.Brand, p.Model, p.SearchKeywords} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// RelevanceScore weights substring matches of the lowercased query:
// name 10, brand 8, model 6
func RelevanceScore(p models.Product, query string) int {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return 0
	}

	score := 0
	if strings.Contains(strings.ToLower(p.Name), query) {
		score += scoreName
	}
	if strings.Contains(strings.ToLower(p.Brand), query) {
		score += scoreBrand
	}
	if strings.Contains(strings.ToLower(p.Model), query) {
		score += scoreModel
	}
	return score
}

// BuildCandidate aggregates the in-stock and limited-stock prices of a
// product: distinct store count, price range, mean rating and total reviews
func BuildCandidate(p models.Product, records []models.PriceRecord) models.ProductCandidate {
	c := models.ProductCandidate{Product: p}

	stores := make(map[int]bool)
	ratingSum := decimal.Zero
	rated := 0
	for _, rec := range records {
		if !rec.Availability.Eligible() {
			continue
		}
		stores[rec.StoreID] = true
		price := rec.Price
		if c.MinPrice == nil || price < *c.MinPrice {
			c.MinPrice = &price
		}
		if c.MaxPrice == nil || price > *c.MaxPrice {
			c.MaxPrice = &price
		}
		if rec.Rating != nil {
			ratingSum = ratingSum.Add(decimal.NewFromFloat(*rec.Rating))
			rated++
		}
		c.TotalReviews += rec.ReviewCount
	}
	c.StoreCount = len(stores)
	if rated > 0 {
		avg := ratingSum.Div(decimal.NewFromInt(int64(rated))).Round(2).InexactFloat64()
		c.AvgRating = &avg
	}
	return c
}

func toSummary(c models.ProductCandidate) models.ProductSummary {
	return models.ProductSummary{
		ID:              c.ID,
		Name:            c.Name,
		Brand:           c.Brand,
		Model:           c.Model,
		Category:        c.Category,
		Subcategory:     c.Subcategory,
		Description:     c.Description,
		PrimaryImageURL: c.PrimaryImageURL,
		SearchKeywords:  c.SearchKeywords,
		MinPrice:        c.MinPrice,
		MaxPrice:        c.MaxPrice,
		StoreCount:      c.StoreCount,
		AvgRating:       c.AvgRating,
		TotalReviews:    c.TotalReviews,
		CreatedAt:       c.CreatedAt,
	}
}

// SortSummaries orders summaries in place by the given mode. The sort is
// stable, so equal keys keep their incoming order. Relevance without a
// query falls back to newest first.
func SortSummaries(items []models.ProductSummary, mode models.SortMode, hasQuery bool) {
	var less func(a, b models.ProductSummary) bool

	switch mode {
	case models.SortPriceAsc:
		less = func(a, b models.ProductSummary) bool { return priceLess(a.MinPrice, b.MinPrice, false) }
	case models.SortPriceDesc:
		less = func(a, b models.ProductSummary) bool { return priceLess(a.MinPrice, b.MinPrice, true) }
	case models.SortNameAsc:
		less = func(a, b models.ProductSummary) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case models.SortNameDesc:
		less = func(a, b models.ProductSummary) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case models.SortBrandAsc:
		less = func(a, b models.ProductSummary) bool {
			ab, bb := strings.ToLower(a.Brand), strings.ToLower(b.Brand)
			if ab != bb {
				return ab < bb
			}
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case models.SortCreatedAtAsc:
		less = func(a, b models.ProductSummary) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case models.SortCreatedAtDesc:
		less = newestFirst
	default:
		if hasQuery {
			less = func(a, b models.ProductSummary) bool { return a.RelevanceScore > b.RelevanceScore }
		} else {
			less = newestFirst
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func newestFirst(a, b models.ProductSummary) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// priceLess orders by price with unpriced products always last
func priceLess(a, b *float64, desc bool) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	case desc:
		return *a > *b
	default:
		return *a < *b
	}
}

// NewPagination computes the page window for a result set
func NewPagination(page, limit, total int) models.Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	totalPages := (total + limit - 1) / limit

	return models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Paginate slices one page out of a ranked result set
func Paginate(items []models.ProductSummary, page, limit int) ([]models.ProductSummary, models.Pagination) {
	p := NewPagination(page, limit, len(items))

	start := (p.Page - 1) * p.Limit
	if start >= len(items) {
		return []models.ProductSummary{}, p
	}
	end := min(start+p.Limit, len(items))

	return items[start:end], p
}
