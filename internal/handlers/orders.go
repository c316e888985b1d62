package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/platform/auth"
	"github.com/chatscai10/friedg-sub006/internal/platform/httpx"
	"github.com/chatscai10/friedg-sub006/internal/platform/pagination"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
	"github.com/chatscai10/friedg-sub006/internal/services"
)

type placeOrderRequest struct {
	OrderType      string                  `json:"order_type"`
	CustomerID     string                  `json:"customer_id"`
	DiscountAmount int64                   `json:"discount_amount"`
	TaxAmount      int64                   `json:"tax_amount"`
	Items          []placeOrderLineRequest `json:"items"`
}

type placeOrderLineRequest struct {
	CatalogItemID     string   `json:"catalog_item_id"`
	Quantity          int64    `json:"quantity"`
	ExpectedUnitPrice int64    `json:"expected_unit_price"`
	Options           []string `json:"options"`
	Notes             string   `json:"notes"`
}

type updateOrderStatusRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expected_status"`
	Reason         string `json:"reason"`
}

type updatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// OrderHandlers exposes order placement and lifecycle endpoints.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{
		authn:  authn,
		orders: orders,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Post("/{orderID}:status", h.updateStatus)
	r.Post("/{orderID}:payment", h.updatePaymentStatus)
}

// StoreRoutes registers order endpoints nested under /stores.
func (h *OrderHandlers) StoreRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/{storeID}/orders", h.placeOrder)
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
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

	var req placeOrderRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	lines := make([]services.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.CartLine{
			CatalogItemID:     strings.TrimSpace(item.CatalogItemID),
			Quantity:          item.Quantity,
			ExpectedUnitPrice: item.ExpectedUnitPrice,
			Options:           item.Options,
			Notes:             strings.TrimSpace(item.Notes),
		})
	}

	result, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		Requester:      requesterFromIdentity(identity),
		StoreID:        storeID,
		OrderType:      strings.TrimSpace(req.OrderType),
		Lines:          lines,
		DiscountAmount: req.DiscountAmount,
		TaxAmount:      req.TaxAmount,
		CustomerID:     strings.TrimSpace(req.CustomerID),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{
		Order:  buildOrderPayload(result.Order),
		Stocks: buildStockPayloads(result.Stocks),
	})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	query := r.URL.Query()

	pageSize, err := parsePageSize(query.Get("page_size"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	listQuery := services.OrderListQuery{
		Requester: requesterFromIdentity(identity),
		StoreID:   strings.TrimSpace(query.Get("store_id")),
		Status:    parseStatusFilters(query["status"]),
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(query.Get("page_token")),
	}

	if raw := strings.TrimSpace(query.Get("created_after")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_after must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		listQuery.From = &ts
	}
	if raw := strings.TrimSpace(query.Get("created_before")); raw != "" {
		ts, err := parseTimeParam(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "created_before must be a valid RFC3339 timestamp", http.StatusBadRequest))
			return
		}
		listQuery.To = &ts
	}

	page, err := h.orders.ListOrders(ctx, listQuery)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, buildOrderPayload(order))
	}

	writeJSONResponse(w, http.StatusOK, orderListResponse{
		Items:         items,
		NextPageToken: strings.TrimSpace(page.NextPageToken),
	})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, requesterFromIdentity(identity), orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateOrderStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.UpdateOrderStatusCommand{
		Requester:      requesterFromIdentity(identity),
		OrderID:        orderID,
		TargetStatus:   domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		ExpectedStatus: domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.ExpectedStatus))),
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updatePaymentStatusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.PaymentStatus) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "payment_status is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdatePaymentStatus(ctx, services.UpdatePaymentStatusCommand{
		Requester:    requesterFromIdentity(identity),
		OrderID:      orderID,
		TargetStatus: domain.PaymentStatus(strings.ToLower(strings.TrimSpace(req.PaymentStatus))),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var placeErr *repositories.PlacementError
	if errors.As(err, &placeErr) {
		writePlacementError(ctx, w, placeErr)
		return
	}

	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_page_token", "page token is invalid", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "requester may not act on this order", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrStoreNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("store_not_found", "store not found", http.StatusNotFound))
	case errors.Is(err, services.ErrStoreInactive):
		httpx.WriteError(ctx, w, httpx.NewError("store_inactive", "store is not accepting orders", http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", err.Error(), http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}

func writePlacementError(ctx context.Context, w http.ResponseWriter, placeErr *repositories.PlacementError) {
	details := map[string]any{
		"catalog_item_id": placeErr.CatalogItemID,
	}

	switch placeErr.Code {
	case repositories.PlacementErrorItemNotFound:
		httpx.WriteError(ctx, w, httpx.NewError(string(placeErr.Code), "catalog item not found", http.StatusNotFound).WithDetails(details))
	case repositories.PlacementErrorTenantMismatch, repositories.PlacementErrorItemInactive:
		httpx.WriteError(ctx, w, httpx.NewError(string(placeErr.Code), placeErr.Message, http.StatusUnprocessableEntity).WithDetails(details))
	case repositories.PlacementErrorInsufficientStock:
		details["requested"] = placeErr.Requested
		details["available"] = placeErr.Available
		httpx.WriteError(ctx, w, httpx.NewError(string(placeErr.Code), placeErr.Message, http.StatusConflict).WithDetails(details))
	case repositories.PlacementErrorPriceDrift:
		details["expected_price"] = placeErr.ExpectedPrice
		details["effective_price"] = placeErr.EffectivePrice
		httpx.WriteError(ctx, w, httpx.NewError(string(placeErr.Code), placeErr.Message, http.StatusConflict).WithDetails(details))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("placement_failed", "failed to place order", http.StatusInternalServerError))
	}
}
