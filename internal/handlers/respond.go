package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/platform/auth"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
	"github.com/chatscai10/friedg-sub006/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func requesterFromIdentity(identity *auth.Identity) services.Requester {
	if identity == nil {
		return services.Requester{}
	}
	return services.Requester{
		UID:      strings.TrimSpace(identity.UID),
		Role:     strings.TrimSpace(identity.Role),
		TenantID: strings.TrimSpace(identity.TenantID),
		StoreID:  strings.TrimSpace(identity.StoreID),
		StoreIDs: identity.StoreIDs,
	}
}

func parsePageSize(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultPageSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("page_size must be an integer")
	}
	switch {
	case size <= 0:
		return defaultPageSize, nil
	case size > maxPageSize:
		return maxPageSize, nil
	default:
		return size, nil
	}
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("timestamp is empty")
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("must be RFC3339 timestamp")
}

func parseStatusFilters(values []string) []domain.OrderStatus {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	statuses := make([]domain.OrderStatus, 0, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			trimmed := strings.ToLower(strings.TrimSpace(part))
			if trimmed == "" {
				continue
			}
			if _, exists := seen[trimmed]; exists {
				continue
			}
			seen[trimmed] = struct{}{}
			statuses = append(statuses, domain.OrderStatus(trimmed))
		}
	}
	return statuses
}

type orderListResponse struct {
	Items         []orderPayload `json:"items"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

type orderResponse struct {
	Order  orderPayload            `json:"order"`
	Stocks map[string]stockPayload `json:"stocks,omitempty"`
}

type orderPayload struct {
	ID               string                 `json:"id"`
	OrderNumber      string                 `json:"order_number"`
	TenantID         string                 `json:"tenant_id"`
	StoreID          string                 `json:"store_id"`
	CustomerID       string                 `json:"customer_id,omitempty"`
	CreatedByUserID  string                 `json:"created_by_user_id"`
	OrderType        string                 `json:"order_type"`
	Items            []orderLinePayload     `json:"items"`
	Subtotal         int64                  `json:"subtotal"`
	TaxAmount        int64                  `json:"tax_amount"`
	DiscountAmount   int64                  `json:"discount_amount"`
	TotalAmount      int64                  `json:"total_amount"`
	Status           string                 `json:"status"`
	PaymentStatus    string                 `json:"payment_status"`
	PaymentUpdatedBy string                 `json:"payment_updated_by,omitempty"`
	StatusHistory    []statusHistoryPayload `json:"status_history"`
	CreatedAt        string                 `json:"created_at"`
	UpdatedAt        string                 `json:"updated_at,omitempty"`
}

type orderLinePayload struct {
	CatalogItemID    string   `json:"catalog_item_id"`
	NameAtOrder      string   `json:"name_at_order"`
	UnitPriceAtOrder int64    `json:"unit_price_at_order"`
	Quantity         int64    `json:"quantity"`
	LineTotal        int64    `json:"line_total"`
	Options          []string `json:"options,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

type statusHistoryPayload struct {
	Status          string `json:"status"`
	ChangedAt       string `json:"changed_at"`
	ChangedByUserID string `json:"changed_by_user_id,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type stockPayload struct {
	Quantity *int64 `json:"quantity"`
	Status   string `json:"status"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		ID:               order.ID,
		OrderNumber:      order.OrderNumber,
		TenantID:         order.TenantID,
		StoreID:          order.StoreID,
		CustomerID:       order.CustomerID,
		CreatedByUserID:  order.CreatedByUserID,
		OrderType:        order.OrderType,
		Items:            make([]orderLinePayload, 0, len(order.Items)),
		Subtotal:         order.Subtotal,
		TaxAmount:        order.TaxAmount,
		DiscountAmount:   order.DiscountAmount,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentUpdatedBy: order.PaymentUpdatedBy,
		StatusHistory:    make([]statusHistoryPayload, 0, len(order.StatusHistory)),
		CreatedAt:        formatTime(order.CreatedAt),
		UpdatedAt:        formatTime(order.UpdatedAt),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderLinePayload{
			CatalogItemID:    item.CatalogItemID,
			NameAtOrder:      item.NameAtOrder,
			UnitPriceAtOrder: item.UnitPriceAtOrder,
			Quantity:         item.Quantity,
			LineTotal:        item.LineTotal,
			Options:          item.OptionsAtOrder,
			Notes:            item.Notes,
		})
	}
	for _, entry := range order.StatusHistory {
		payload.StatusHistory = append(payload.StatusHistory, statusHistoryPayload{
			Status:          string(entry.Status),
			ChangedAt:       formatTime(entry.ChangedAt),
			ChangedByUserID: entry.ChangedByUserID,
			Reason:          entry.Reason,
		})
	}
	return payload
}

func buildStockPayloads(stocks map[string]repositories.StockSnapshot) map[string]stockPayload {
	if len(stocks) == 0 {
		return nil
	}
	result := make(map[string]stockPayload, len(stocks))
	for itemID, snapshot := range stocks {
		result[itemID] = stockPayload{
			Quantity: snapshot.Quantity,
			Status:   string(snapshot.Status),
		}
	}
	return result
}

type catalogItemResponse struct {
	Item catalogItemPayload `json:"item"`
}

type catalogListResponse struct {
	Items         []catalogItemPayload `json:"items"`
	NextPageToken string               `json:"next_page_token,omitempty"`
}

type catalogItemPayload struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenant_id"`
	StoreID       string `json:"store_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
	IsActive      bool   `json:"is_active"`
	StockQuantity *int64 `json:"stock_quantity,omitempty"`
	StockStatus   string `json:"stock_status"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

func buildCatalogItemPayload(item domain.CatalogItem) catalogItemPayload {
	return catalogItemPayload{
		ID:            item.ID,
		TenantID:      item.TenantID,
		StoreID:       item.StoreID,
		Name:          item.Name,
		Price:         item.Price,
		DiscountPrice: item.DiscountPrice,
		IsActive:      item.IsActive,
		StockQuantity: item.StockQuantity,
		StockStatus:   string(item.StockStatus),
		UpdatedAt:     formatTime(item.UpdatedAt),
	}
}
