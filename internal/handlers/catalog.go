package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/chatscai10/friedg-sub006/internal/platform/auth"
	"github.com/chatscai10/friedg-sub006/internal/platform/httpx"
	"github.com/chatscai10/friedg-sub006/internal/platform/pagination"
	"github.com/chatscai10/friedg-sub006/internal/services"
)

type upsertCatalogItemRequest struct {
	StoreID       string `json:"store_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price"`
	IsActive      bool   `json:"is_active"`
	StockQuantity *int64 `json:"stock_quantity"`
}

// CatalogHandlers exposes menu browsing and management endpoints.
type CatalogHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(authn *auth.Authenticator, catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{
		authn:   authn,
		catalog: catalog,
	}
}

// StoreRoutes registers the customer-facing menu endpoints nested under /stores.
func (h *CatalogHandlers) StoreRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/{storeID}/catalog", h.listItems)
	r.Get("/{storeID}/catalog/{itemID}", h.getItem)
}

// AdminRoutes registers the menu management endpoints nested under /admin.
func (h *CatalogHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleTenantAdmin, auth.RoleStoreManager))
	}
	r.Get("/catalog/items", h.adminListItems)
	r.Post("/catalog/items", h.createItem)
	r.Put("/catalog/items/{itemID}", h.upsertItem)
}

func (h *CatalogHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	storeID := strings.TrimSpace(chi.URLParam(r, "storeID"))
	if storeID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "store id is required", http.StatusBadRequest))
		return
	}

	query := r.URL.Query()
	pageSize, err := parsePageSize(query.Get("page_size"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListItems(ctx, services.CatalogListQuery{
		Requester:  requesterFromIdentity(identity),
		StoreID:    storeID,
		OnlyActive: strings.EqualFold(strings.TrimSpace(query.Get("only_active")), "true"),
		PageSize:   pageSize,
		PageToken:  strings.TrimSpace(query.Get("page_token")),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]catalogItemPayload, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, buildCatalogItemPayload(item))
	}

	writeJSONResponse(w, http.StatusOK, catalogListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *CatalogHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}

	item, err := h.catalog.GetItem(ctx, requesterFromIdentity(identity), itemID)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, catalogItemResponse{Item: buildCatalogItemPayload(item)})
}

func (h *CatalogHandlers) adminListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	query := r.URL.Query()
	storeID := strings.TrimSpace(query.Get("store_id"))
	if storeID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "store_id is required", http.StatusBadRequest))
		return
	}

	pageSize, err := parsePageSize(query.Get("page_size"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.catalog.ListItems(ctx, services.CatalogListQuery{
		Requester:  requesterFromIdentity(identity),
		StoreID:    storeID,
		OnlyActive: strings.EqualFold(strings.TrimSpace(query.Get("only_active")), "true"),
		PageSize:   pageSize,
		PageToken:  strings.TrimSpace(query.Get("page_token")),
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]catalogItemPayload, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, buildCatalogItemPayload(item))
	}

	writeJSONResponse(w, http.StatusOK, catalogListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *CatalogHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	h.saveItem(w, r, "")
}

func (h *CatalogHandlers) upsertItem(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(chi.URLParam(r, "itemID"))
	if itemID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "item id is required", http.StatusBadRequest))
		return
	}
	h.saveItem(w, r, itemID)
}

func (h *CatalogHandlers) saveItem(w http.ResponseWriter, r *http.Request, itemID string) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req upsertCatalogItemRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	item, err := h.catalog.UpsertItem(ctx, services.UpsertCatalogItemCommand{
		Requester:     requesterFromIdentity(identity),
		ItemID:        itemID,
		StoreID:       strings.TrimSpace(req.StoreID),
		Name:          strings.TrimSpace(req.Name),
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		IsActive:      req.IsActive,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if itemID == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, catalogItemResponse{Item: buildCatalogItemPayload(item)})
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is invalid", http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "requester may not act on this catalog item", http.StatusForbidden))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_item_not_found", "catalog item not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
