package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const (
	suggestionLimit      = 10
	suggestionMinLength  = 2
	trendingWindow       = 7 * 24 * time.Hour
	trendingMinCount     = 2
	trendingLimit        = 10
	popularBrandMinCount = 3
	popularBrandLimit    = 8
)

// TrendingSource serves trending queries from a faster store than the query log
type TrendingSource interface {
	TopSearches(ctx context.Context, window time.Duration, minCount, limit int) ([]models.TrendingSearch, error)
}

// DiscoveryService serves autocomplete, trending and browse facets
type DiscoveryService struct {
	catalog  CatalogReader
	trending TrendingSource
	log      logrus.FieldLogger
	now      func() time.Time
	sf       singleflight.Group // collapses concurrent trending and facet reads
}

// NewDiscoveryService creates a new DiscoveryService. trending may be nil.
func NewDiscoveryService(catalog CatalogReader, trending TrendingSource, log logrus.FieldLogger) *DiscoveryService {
	return &DiscoveryService{
		catalog:  catalog,
		trending: trending,
		log:      log.WithField("component", "discovery"),
		now:      time.Now,
	}
}

// Suggestions returns product and brand completions for a partial query
func (s *DiscoveryService) Suggestions(ctx context.Context, query string) ([]models.Suggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < suggestionMinLength {
		return nil, fmt.Errorf("query must be at least %d characters: %w", suggestionMinLength, models.ErrInvalidArgument)
	}

	suggestions, err := s.catalog.SearchSuggestions(ctx, query, suggestionLimit)
	if err != nil {
		return nil, upstream("search suggestions", err)
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return suggestions, nil
}

// Trending returns the week's popular queries and the best-stocked brands
func (s *DiscoveryService) Trending(ctx context.Context) (*models.TrendingView, error) {
	v, err, _ := s.sf.Do("trending", func() (interface{}, error) {
		return s.trendingView(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TrendingView), nil
}

func (s *DiscoveryService) trendingView(ctx context.Context) (*models.TrendingView, error) {
	var searches []models.TrendingSearch
	var err error

	if s.trending != nil {
		searches, err = s.trending.TopSearches(ctx, trendingWindow, trendingMinCount, trendingLimit)
		if err != nil {
			s.log.WithError(err).Warn("Trending counter unavailable, using query log")
			searches = nil
		}
	}
	if searches == nil {
		searches, err = s.catalog.TrendingSearches(ctx, s.now().Add(-trendingWindow), trendingMinCount, trendingLimit)
		if err != nil {
			return nil, upstream("trending searches", err)
		}
	}

	brands, err := s.catalog.PopularBrands(ctx, popularBrandMinCount, popularBrandLimit)
	if err != nil {
		return nil, upstream("popular brands", err)
	}

	if searches == nil {
		searches = []models.TrendingSearch{}
	}
	if brands == nil {
		brands = []models.PopularBrand{}
	}

	return &models.TrendingView{
		TrendingSearches: searches,
		PopularBrands:    brands,
	}, nil
}

// Filters returns the category and brand facets for browsing
func (s *DiscoveryService) Filters(ctx context.Context) (*models.ProductFilters, error) {
	v, err, _ := s.sf.Do("filters", func() (interface{}, error) {
		filters, err := s.catalog.ProductFilters(ctx)
		if err != nil {
			return nil, upstream("product filters", err)
		}
		return filters, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ProductFilters), nil
}
