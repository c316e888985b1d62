package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/platform/auth"
	"github.com/chatscai10/friedg-sub006/internal/services"
)

type stubCatalogService struct {
	getFn    func(context.Context, services.Requester, string) (domain.CatalogItem, error)
	upsertFn func(context.Context, services.UpsertCatalogItemCommand) (domain.CatalogItem, error)
	listFn   func(context.Context, services.CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error)
}

func (s *stubCatalogService) GetItem(ctx context.Context, requester services.Requester, itemID string) (domain.CatalogItem, error) {
	if s.getFn != nil {
		return s.getFn(ctx, requester, itemID)
	}
	return domain.CatalogItem{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpsertItem(ctx context.Context, cmd services.UpsertCatalogItemCommand) (domain.CatalogItem, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, cmd)
	}
	return domain.CatalogItem{}, errors.New("not implemented")
}

func (s *stubCatalogService) ListItems(ctx context.Context, query services.CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error) {
	if s.listFn != nil {
		return s.listFn(ctx, query)
	}
	return domain.CursorPage[domain.CatalogItem]{}, nil
}

var _ services.CatalogService = (*stubCatalogService)(nil)

func sampleItem() domain.CatalogItem {
	qty := int64(12)
	return domain.CatalogItem{
		ID:            "item_burger",
		TenantID:      "tn_1",
		StoreID:       "st_1",
		Name:          "Classic Burger",
		Price:         12000,
		IsActive:      true,
		StockQuantity: &qty,
		StockStatus:   domain.StockStatusInStock,
		UpdatedAt:     time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestCatalogHandlersListItems(t *testing.T) {
	var captured services.CatalogListQuery
	service := &stubCatalogService{
		listFn: func(_ context.Context, query services.CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error) {
			captured = query
			return domain.CursorPage[domain.CatalogItem]{
				Items:         []domain.CatalogItem{sampleItem()},
				NextPageToken: "tok-next",
			}, nil
		},
	}

	handler := NewCatalogHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/stores", handler.StoreRoutes)

	req := httptest.NewRequest(http.MethodGet, "/stores/st_1/catalog?only_active=true&page_size=30", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), customerIdentity()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.StoreID != "st_1" || !captured.OnlyActive || captured.PageSize != 30 {
		t.Fatalf("query not built from request: %+v", captured)
	}

	var resp catalogListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "item_burger" {
		t.Fatalf("unexpected items: %+v", resp.Items)
	}
	if resp.Items[0].StockQuantity == nil || *resp.Items[0].StockQuantity != 12 {
		t.Fatalf("stock quantity missing: %+v", resp.Items[0])
	}
	if resp.NextPageToken != "tok-next" {
		t.Fatalf("expected next page token tok-next, got %s", resp.NextPageToken)
	}
}

func TestCatalogHandlersGetItem(t *testing.T) {
	service := &stubCatalogService{
		getFn: func(_ context.Context, _ services.Requester, itemID string) (domain.CatalogItem, error) {
			if itemID != "item_burger" {
				return domain.CatalogItem{}, services.ErrCatalogNotFound
			}
			return sampleItem(), nil
		},
	}

	handler := NewCatalogHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/stores", handler.StoreRoutes)

	req := httptest.NewRequest(http.MethodGet, "/stores/st_1/catalog/item_burger", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), customerIdentity()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/stores/st_1/catalog/item_missing", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), customerIdentity()))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCatalogHandlersAdminListItems(t *testing.T) {
	var captured services.CatalogListQuery
	service := &stubCatalogService{
		listFn: func(_ context.Context, query services.CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error) {
			captured = query
			return domain.CursorPage[domain.CatalogItem]{Items: []domain.CatalogItem{sampleItem()}}, nil
		},
	}

	handler := NewCatalogHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/admin", handler.AdminRoutes)

	req := httptest.NewRequest(http.MethodGet, "/admin/catalog/items?store_id=st_1", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), managerIdentity()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.StoreID != "st_1" || captured.OnlyActive {
		t.Fatalf("query not built from request: %+v", captured)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/catalog/items", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), managerIdentity()))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without store_id, got %d", rr.Code)
	}
}

func TestCatalogHandlersUpsertItem(t *testing.T) {
	var captured services.UpsertCatalogItemCommand
	service := &stubCatalogService{
		upsertFn: func(_ context.Context, cmd services.UpsertCatalogItemCommand) (domain.CatalogItem, error) {
			captured = cmd
			item := sampleItem()
			item.ID = cmd.ItemID
			item.Name = cmd.Name
			return item, nil
		},
	}

	handler := NewCatalogHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/admin", handler.AdminRoutes)

	body := `{"store_id":"st_1","name":"Classic Burger","price":12000,"is_active":true,"stock_quantity":20}`
	req := httptest.NewRequest(http.MethodPut, "/admin/catalog/items/item_burger", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), managerIdentity()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ItemID != "item_burger" || captured.StoreID != "st_1" {
		t.Fatalf("command not built from request: %+v", captured)
	}
	if captured.StockQuantity == nil || *captured.StockQuantity != 20 {
		t.Fatalf("stock quantity not forwarded: %+v", captured)
	}
}

func TestCatalogHandlersCreateItem(t *testing.T) {
	service := &stubCatalogService{
		upsertFn: func(_ context.Context, cmd services.UpsertCatalogItemCommand) (domain.CatalogItem, error) {
			item := sampleItem()
			item.ID = "itm_new"
			item.Name = cmd.Name
			return item, nil
		},
	}

	handler := NewCatalogHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/admin", handler.AdminRoutes)

	body := `{"store_id":"st_1","name":"Fries","price":4000,"is_active":true}`
	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/items", strings.NewReader(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), managerIdentity()))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp catalogItemResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Item.ID != "itm_new" || resp.Item.Name != "Fries" {
		t.Fatalf("unexpected item payload: %+v", resp.Item)
	}
}

func TestCatalogHandlersUpsertItemErrors(t *testing.T) {
	cases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"forbidden", services.ErrCatalogForbidden, http.StatusForbidden},
		{"not found", services.ErrCatalogNotFound, http.StatusNotFound},
		{"invalid input", services.ErrCatalogInvalidInput, http.StatusBadRequest},
	}
	for _, tc := range cases {
		service := &stubCatalogService{
			upsertFn: func(context.Context, services.UpsertCatalogItemCommand) (domain.CatalogItem, error) {
				return domain.CatalogItem{}, tc.serviceErr
			},
		}
		handler := NewCatalogHandlers(nil, service)
		router := chi.NewRouter()
		router.Route("/admin", handler.AdminRoutes)

		body := `{"store_id":"st_1","name":"Burger","price":100}`
		req := httptest.NewRequest(http.MethodPut, "/admin/catalog/items/item_burger", strings.NewReader(body))
		req = req.WithContext(auth.WithIdentity(req.Context(), managerIdentity()))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != tc.wantStatus {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.wantStatus, rr.Code)
		}
	}
}
