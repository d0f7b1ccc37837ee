package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxxcyber/shoe-compare/internal/catalog"
	"github.com/foxxcyber/shoe-compare/internal/config"
	"github.com/foxxcyber/shoe-compare/internal/models"
	"github.com/foxxcyber/shoe-compare/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details []FieldError    `json:"details"`
}

type memorySnapshots struct {
	saved map[string]*models.SharedComparison
}

func (m *memorySnapshots) Save(_ context.Context, ids []int, mc *models.MultiComparison) (*models.ShareLink, error) {
	id := "3f1c9f3e-0000-4000-8000-000000000001"
	m.saved[id] = &models.SharedComparison{ID: id, ProductIDs: ids, Comparison: mc}
	return &models.ShareLink{ShareID: id, ShareURL: "https://s3.example/" + id, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (m *memorySnapshots) Load(_ context.Context, id string) (*models.SharedComparison, error) {
	shared, ok := m.saved[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return shared, nil
}

type testServer struct {
	app    *fiber.App
	search *services.SearchService
}

func newTestServer(t *testing.T, mutate func(*Services)) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	store := catalog.NewMemory(catalog.Sample(time.Now()), nil)
	comparison := services.NewComparisonEngine(store, log)
	search := services.NewSearchService(store, store, nil, log)

	svc := Services{
		Search:     search,
		Products:   services.NewProductService(store, log, 30),
		Comparison: comparison,
		Trends:     services.NewTrendAnalyzer(store, log, 30),
		Aggregator: services.NewAggregator(comparison, log),
		Discovery:  services.NewDiscoveryService(store, nil, log),
		Database:   store,
	}
	if mutate != nil {
		mutate(&svc)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	New(&config.Config{DocsDir: "../../docs"}, svc, log).RegisterRoutes(app, app.Group("/api"))

	t.Cleanup(search.Drain)
	return &testServer{app: app, search: search}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var body envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func (s *testServer) get(t *testing.T, target string) (*http.Response, envelope) {
	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testServer) postJSON(t *testing.T, target, body string) (*http.Response, envelope) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return s.do(t, req)
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.get(t, "/api/search?q=nike&sortBy=price_asc&limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)

	var page models.SearchResultPage
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.Len(t, page.Products, 2)
	assert.Equal(t, 7999.0, *page.Products[0].MinPrice)
	assert.Equal(t, 8499.0, *page.Products[1].MinPrice)
	assert.Equal(t, 4, page.Pagination.Total)
	assert.True(t, page.Pagination.HasNext)
	assert.False(t, page.Fallback)

	resp, body = srv.get(t, "/api/search?q=glass+slipper")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.True(t, page.Fallback)
	assert.NotEmpty(t, page.Products)
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name   string
		query  string
		fields []string
	}{
		{"bad sort and page", "sortBy=cheapest&page=0", []string{"sortBy", "page"}},
		{"inverted price range", "minPrice=5000&maxPrice=100", []string{"maxPrice"}},
		{"limit too large", "limit=51", []string{"limit"}},
		{"price not a number", "minPrice=cheap", []string{"minPrice"}},
		{"query too long", "q=" + strings.Repeat("a", 101), []string{"q"}},
		{"brand too long", "brand=" + strings.Repeat("b", 51), []string{"brand"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := srv.get(t, "/api/search?"+tt.query)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, body.Success)
			assert.Equal(t, "Validation failed", body.Error)

			fields := make([]string, 0, len(body.Details))
			for _, d := range body.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestSuggestionsAndTrending(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.get(t, "/api/search/suggestions?q=ni")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data struct {
		Query       string              `json:"query"`
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "ni", data.Query)
	assert.NotEmpty(t, data.Suggestions)

	resp, _ = srv.get(t, "/api/search/suggestions?q=n")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = srv.get(t, "/api/search/trending")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var trending models.TrendingView
	require.NoError(t, json.Unmarshal(body.Data, &trending))
	assert.NotNil(t, trending.TrendingSearches)
	assert.NotEmpty(t, trending.PopularBrands)
}

func TestProducts(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.get(t, "/api/product?brand=Puma&sortBy=name_asc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page models.SearchResultPage
	require.NoError(t, json.Unmarshal(body.Data, &page))
	require.Len(t, page.Products, 3)
	assert.Equal(t, "Puma Future Rider", page.Products[0].Name)

	resp, body = srv.get(t, "/api/product/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail models.ProductDetail
	require.NoError(t, json.Unmarshal(body.Data, &detail))
	assert.Equal(t, "Nike Air Max 270", detail.Name)
	assert.Equal(t, 4, detail.AvailableStores)
	assert.Len(t, detail.PriceHistory, catalog.MaxHistoryRows)

	resp, body = srv.get(t, "/api/product/999")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Product not found", body.Error)

	resp, body = srv.get(t, "/api/product/abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "id", body.Details[0].Field)

	resp, body = srv.get(t, "/api/product/filters")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var filters models.ProductFilters
	require.NoError(t, json.Unmarshal(body.Data, &filters))
	assert.Len(t, filters.Brands, 8)
}

func TestCompareProduct(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.get(t, "/api/compare/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.ComparisonView
	require.NoError(t, json.Unmarshal(body.Data, &view))
	assert.Equal(t, 4, view.Summary.StoreCount)
	assert.Equal(t, 8999.0, view.Summary.LowestPrice)
	assert.Equal(t, 4000.0, view.Summary.MaxSavings)
	assert.True(t, view.Comparison[0].IsLowestPrice)

	resp, body = srv.get(t, "/api/compare/1/alerts")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts models.PriceAlertView
	require.NoError(t, json.Unmarshal(body.Data, &alerts))
	assert.Equal(t, 8999.0, alerts.AlertSuggestions.CurrentLowest)
	assert.LessOrEqual(t, alerts.AlertSuggestions.SuggestedAlertPrice, 8549.0)

	resp, body = srv.get(t, "/api/compare/404")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No prices found for this product", body.Error)

	resp, _ = srv.get(t, "/api/compare/0")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompareMultiple(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := srv.postJSON(t, "/api/compare/multiple", `{"productIds":[1,2,404]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mc models.MultiComparison
	require.NoError(t, json.Unmarshal(body.Data, &mc))
	assert.Len(t, mc.Products, 2)
	assert.Equal(t, 2, mc.Summary.TotalProducts)
	require.Len(t, mc.Failures, 1)
	assert.Equal(t, 404, mc.Failures[0].ProductID)
	require.NotNil(t, mc.Summary.OverallBestDeal)
	assert.Equal(t, 7999.0, mc.Summary.OverallBestDeal.Price)

	resp, body = srv.postJSON(t, "/api/compare/multiple", `{"productIds":[1,2,3,4,5,6]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "productIds", body.Details[0].Field)

	resp, _ = srv.postJSON(t, "/api/compare/multiple", `{"productIds":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = srv.postJSON(t, "/api/compare/multiple", `{"productIds":[404,405]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "No valid products found for comparison", body.Error)

	resp, body = srv.postJSON(t, "/api/compare/multiple?share=true", `{"productIds":[1,2]}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Comparison sharing is not configured", body.Error)

	resp, _ = srv.get(t, "/api/compare/shared/anything")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestShareComparison(t *testing.T) {
	snapshots := &memorySnapshots{saved: make(map[string]*models.SharedComparison)}
	srv := newTestServer(t, func(s *Services) { s.Snapshots = snapshots })

	resp, body := srv.postJSON(t, "/api/compare/multiple?share=true", `{"productIds":[2,1,2]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var data struct {
		Products []models.ComparedProduct `json:"products"`
		Share    *models.ShareLink        `json:"share"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotNil(t, data.Share)
	assert.Len(t, data.Products, 2)

	resp, body = srv.get(t, "/api/compare/shared/"+data.Share.ShareID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var shared models.SharedComparison
	require.NoError(t, json.Unmarshal(body.Data, &shared))
	assert.Equal(t, []int{2, 1}, shared.ProductIDs)

	resp, _ = srv.postJSON(t, "/api/compare/multiple?share=true", `{"productIds":[3,999,3]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := snapshots.saved["3f1c9f3e-0000-4000-8000-000000000001"]
	require.NotNil(t, stored)
	assert.Equal(t, []int{3, 999}, stored.ProductIDs, "deduplicated request ids are stored")
	require.NotNil(t, stored.Comparison)
	assert.Len(t, stored.Comparison.Failures, 1)

	resp, body = srv.get(t, "/api/compare/shared/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Shared comparison not found", body.Error)
}

func TestExportComparison(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := srv.get(t, "/api/compare/export?ids=1,2,3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "comparison.xlsx")

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(payload[:2]))

	resp, body := srv.get(t, "/api/compare/export?ids=1,x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "ids", body.Details[0].Field)

	resp, _ = srv.get(t, "/api/compare/export")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := srv.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "connected", health["database"])
	assert.Equal(t, "disabled", health["redis"])

	down := newTestServer(t, func(s *Services) {
		s.Database = PingFunc(func(context.Context) error { return errors.New("connection refused") })
		s.Redis = PingFunc(func(context.Context) error { return errors.New("connection refused") })
	})
	resp, err = down.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "unhealthy", health["status"])
	assert.Equal(t, "disconnected", health["database"])
	assert.Equal(t, "disconnected", health["redis"])
}
