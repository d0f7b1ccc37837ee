package services

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func ptr[T any](v T) *T {
	return &v
}

type fakeStore struct {
	products   map[int]*models.Product
	prices     map[int][]models.RawPriceRecord
	history    map[int][]models.PriceHistorySample
	candidates []models.ProductCandidate
	err        error

	suggestions []models.Suggestion
	trending    []models.TrendingSearch
	brands      []models.PopularBrand
	filters     *models.ProductFilters
	trendingAt  time.Time
}

func (s *fakeStore) FetchProduct(_ context.Context, id int) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) FetchPriceRecords(_ context.Context, productID int) ([]models.RawPriceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.prices[productID], nil
}

func (s *fakeStore) FetchPriceHistory(_ context.Context, productID, _ int) ([]models.PriceHistorySample, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history[productID], nil
}

func (s *fakeStore) FetchCandidateProducts(_ context.Context, _ models.SearchFilterSet) ([]models.ProductCandidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func (s *fakeStore) SearchSuggestions(_ context.Context, _ string, _ int) ([]models.Suggestion, error) {
	return s.suggestions, s.err
}

func (s *fakeStore) TrendingSearches(_ context.Context, since time.Time, _, _ int) ([]models.TrendingSearch, error) {
	s.trendingAt = since
	return s.trending, s.err
}

func (s *fakeStore) PopularBrands(_ context.Context, _, _ int) ([]models.PopularBrand, error) {
	return s.brands, s.err
}

func (s *fakeStore) ProductFilters(_ context.Context) (*models.ProductFilters, error) {
	return s.filters, s.err
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []models.SearchLogEntry
	err     error
}

func (r *recordingLogger) LogSearchQuery(_ context.Context, entry models.SearchLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func raw(productID, storeID int, store, price, availability string, scraped time.Time) models.RawPriceRecord {
	return models.RawPriceRecord{
		ProductID:    productID,
		StoreID:      storeID,
		StoreName:    store,
		Price:        price,
		Availability: availability,
		ProductURL:   "https://" + store + ".example/p",
		LastScraped:  scraped,
	}
}

func record(productID, storeID int, store string, price float64, scraped time.Time) models.PriceRecord {
	return models.PriceRecord{
		ProductID:    productID,
		StoreID:      storeID,
		StoreName:    store,
		Price:        price,
		Availability: models.AvailabilityInStock,
		ProductURL:   "https://" + store + ".example/p",
		LastScraped:  scraped,
	}
}
