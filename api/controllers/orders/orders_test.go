package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/partfinderz-backend/api/middleware"
	internalorders "github.com/angelmondragon/partfinderz-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/partfinderz-backend/pkg/errors"
	"github.com/angelmondragon/partfinderz-backend/pkg/pagination"
)

type stubOrdersService struct {
	list       *internalorders.OrderList
	detail     *internalorders.OrderDetail
	err        error
	lastParams pagination.Params
	lastOrder  uuid.UUID
}

func (s *stubOrdersService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*internalorders.OrderList, error) {
	s.lastParams = params
	return s.list, s.err
}

func (s *stubOrdersService) Detail(ctx context.Context, userID, orderID uuid.UUID) (*internalorders.OrderDetail, error) {
	s.lastOrder = orderID
	return s.detail, s.err
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func TestListReturnsPage(t *testing.T) {
	svc := &stubOrdersService{list: &internalorders.OrderList{
		Orders:     []internalorders.OrderSummary{{ID: uuid.New(), Number: "PF-1"}},
		NextCursor: "next",
	}}
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&cursor=abc", nil))
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastParams.Limit != 5 || svc.lastParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.lastParams)
	}

	var envelope struct {
		Data struct {
			Items      []internalorders.OrderSummary `json:"items"`
			NextCursor string                        `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.NextCursor != "next" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestListRejectsLimit(t *testing.T) {
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=500", nil))
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListRequiresUser(t *testing.T) {
	resp := httptest.NewRecorder()
	List(&stubOrdersService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestDetail(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String(), nil))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", orderID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.lastOrder != orderID {
		t.Fatalf("unexpected order id %s", svc.lastOrder)
	}
}
