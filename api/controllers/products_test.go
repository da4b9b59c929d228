package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pradeepsarraf/sajilomart-backend/internal/catalog"
	"github.com/pradeepsarraf/sajilomart-backend/pkg/db/models"
	pkgerrors "github.com/pradeepsarraf/sajilomart-backend/pkg/errors"
)

type stubCatalogService struct {
	product    *models.Product
	page       *catalog.ProductPage
	categories []string
	err        error

	lastFilter catalog.ListFilter
	created    *catalog.UpsertProductInput
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter catalog.ListFilter) (*catalog.ProductPage, error) {
	s.lastFilter = filter
	return s.page, s.err
}

func (s *stubCatalogService) ListCategories(ctx context.Context) ([]string, error) {
	return s.categories, s.err
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.UpsertProductInput) (*models.Product, error) {
	s.created = &input
	return s.product, s.err
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input catalog.UpsertProductInput) (*models.Product, error) {
	return s.product, s.err
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.err
}

func TestListProductsForwardsFilters(t *testing.T) {
	svc := &stubCatalogService{page: &catalog.ProductPage{
		Products: []models.Product{{ID: uuid.New(), Name: "Ilam Tea"}},
	}}
	handler := ListProducts(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=groceries&search=tea&limit=5", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastFilter.Category != "groceries" || svc.lastFilter.Search != "tea" || svc.lastFilter.Limit != 5 {
		t.Fatalf("filter not forwarded: %+v", svc.lastFilter)
	}
}

func TestListProductsRejectsBadLimit(t *testing.T) {
	svc := &stubCatalogService{page: &catalog.ProductPage{}}
	handler := ListProducts(svc, nil)

	for _, raw := range []string{"abc", "0", "500"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit="+raw, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("limit %q: expected 400 got %d", raw, resp.Code)
		}
	}
	if svc.lastFilter.Limit != 0 {
		t.Fatalf("service called despite invalid limit: %+v", svc.lastFilter)
	}
}

func TestListProductsRejectsBadCursor(t *testing.T) {
	handler := ListProducts(&stubCatalogService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?cursor=%21%21not-base64", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListCategories(t *testing.T) {
	svc := &stubCatalogService{categories: []string{"dairy", "groceries", "snacks"}}
	handler := ListCategories(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/categories", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data struct {
			Categories []string `json:"categories"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(envelope.Data.Categories))
	}
}

func TestAdminCreateProductParsesPrice(t *testing.T) {
	svc := &stubCatalogService{product: &models.Product{ID: uuid.New(), Name: "Ilam Tea"}}
	handler := AdminCreateProduct(svc, nil)

	body := `{"name":"Ilam Tea","category":"groceries","price":"150.50","stock":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected create to reach the service")
	}
	if !svc.created.Price.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("unexpected price: %s", svc.created.Price)
	}
}

func TestAdminCreateProductRejectsBadPrice(t *testing.T) {
	handler := AdminCreateProduct(&stubCatalogService{}, nil)

	body := `{"name":"Ilam Tea","category":"groceries","price":"two hundred","stock":20}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func orderRequestWithParam(method, target, param, value string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestGetProductNotFound(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := GetProduct(svc, nil)

	productID := uuid.New()
	req := orderRequestWithParam(http.MethodGet, "/api/v1/products/"+productID.String(), "productId", productID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
