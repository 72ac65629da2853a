package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
)

type stubCatalogService struct {
	result    *catalog.SearchResult
	product   *catalog.ProductDTO
	err       error
	lastUser  uuid.UUID
	lastInput catalog.SearchInput
}

func (s *stubCatalogService) Search(ctx context.Context, userID uuid.UUID, input catalog.SearchInput) (*catalog.SearchResult, error) {
	s.lastUser = userID
	s.lastInput = input
	return s.result, s.err
}

func (s *stubCatalogService) Product(ctx context.Context, id uuid.UUID) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func TestCatalogSearchPassesFilters(t *testing.T) {
	svc := &stubCatalogService{result: &catalog.SearchResult{
		Products:          []catalog.ProductDTO{{ID: uuid.New(), Name: "Filtro de óleo"}},
		ActiveFilterCount: 2,
	}}
	body := `{"name":"  filtro ","category":"Filtros","price_ceiling":"250.00","sort":"price_desc","require_compatibility":true}`
	user := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/catalog/search", strings.NewReader(body)), user)
	resp := httptest.NewRecorder()
	CatalogSearch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastInput.Name != "filtro" || svc.lastInput.Category != "Filtros" || !svc.lastInput.RequireCompatibility {
		t.Fatalf("unexpected input %+v", svc.lastInput)
	}
	if svc.lastInput.PriceCeiling == nil || svc.lastInput.PriceCeiling.String() != "250" {
		t.Fatalf("unexpected ceiling %v", svc.lastInput.PriceCeiling)
	}
	if svc.lastUser != user {
		t.Fatalf("expected caller user to be forwarded")
	}

	var envelope struct {
		Data catalog.SearchResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ActiveFilterCount != 2 || len(envelope.Data.Products) != 1 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestCatalogSearchAnonymous(t *testing.T) {
	svc := &stubCatalogService{result: &catalog.SearchResult{Products: []catalog.ProductDTO{}}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/search", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	CatalogSearch(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastUser != uuid.Nil {
		t.Fatalf("expected nil user for anonymous search")
	}
}

func TestCatalogSearchValidationError(t *testing.T) {
	svc := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/search", strings.NewReader(`{"sort":"random"}`))
	resp := httptest.NewRecorder()
	CatalogSearch(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogProduct(t *testing.T) {
	id := uuid.New()
	svc := &stubCatalogService{product: &catalog.ProductDTO{ID: id, Name: "Vela de ignição"}}
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/"+id.String(), nil), map[string]string{"productId": id.String()})
	resp := httptest.NewRecorder()
	CatalogProduct(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	missing := &stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	resp = httptest.NewRecorder()
	CatalogProduct(missing, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
