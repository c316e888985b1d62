package domain

import "time"

// Pagination carries cursor-based page parameters shared by list queries.
type Pagination struct {
	PageSize  int
	PageToken string
}

// RangeQuery represents inclusive range filters for numeric or timestamp fields.
type RangeQuery[T comparable] struct {
	From *T
	To   *T
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// OrderStatus enumerates the operational order lifecycle.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusConfirmed        OrderStatus = "confirmed"
	OrderStatusPreparing        OrderStatus = "preparing"
	OrderStatusReadyForPickup   OrderStatus = "ready_for_pickup"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelledByUser  OrderStatus = "cancelled_by_user"
	OrderStatusCancelledByStore OrderStatus = "cancelled_by_store"
)

// PaymentStatus enumerates the payment lifecycle, tracked independently of the
// operational status.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending_payment"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "payment_failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// StockStatus is the derived classification of a catalog item's stock level.
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// DefaultLowStockThreshold is the quantity below which a tracked item is
// classified as low_stock.
const DefaultLowStockThreshold = 5

// Store is a single operational location owned by a tenant.
type Store struct {
	ID        string
	TenantID  string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CatalogItem is a sellable menu entry. StockQuantity is nil for items whose
// stock is not tracked; StockStatus is derived from the quantity and never
// authoritative on its own.
type CatalogItem struct {
	ID            string
	TenantID      string
	StoreID       string
	Name          string
	Price         int64
	DiscountPrice *int64
	IsActive      bool
	StockQuantity *int64
	StockStatus   StockStatus
	UpdatedAt     time.Time
}

// OrderLineItem is an immutable snapshot of a catalog item captured at
// placement time. It is never re-read from the catalog afterwards.
type OrderLineItem struct {
	CatalogItemID    string
	NameAtOrder      string
	UnitPriceAtOrder int64
	Quantity         int64
	LineTotal        int64
	OptionsAtOrder   []string
	Notes            string
}

// StatusHistoryEntry records one lifecycle transition, including creation.
type StatusHistoryEntry struct {
	Status          OrderStatus
	ChangedAt       time.Time
	ChangedByUserID string
	Reason          string
}

// Order is the persisted order document. Everything except Status,
// PaymentStatus, PaymentUpdatedBy, StatusHistory, and UpdatedAt is immutable
// after creation.
type Order struct {
	ID              string
	OrderNumber     string
	TenantID        string
	StoreID         string
	CustomerID      string
	CreatedByUserID string
	OrderType       string
	Items           []OrderLineItem
	Subtotal        int64
	TaxAmount       int64
	DiscountAmount  int64
	TotalAmount     int64
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	// PaymentUpdatedBy is the user behind the most recent payment transition.
	PaymentUpdatedBy string
	StatusHistory    []StatusHistoryEntry
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsTerminal reports whether the operational status admits no further
// transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelledByUser, OrderStatusCancelledByStore:
		return true
	}
	return false
}

// IsCancellation reports whether the status is one of the two cancellation
// outcomes.
func (s OrderStatus) IsCancellation() bool {
	return s == OrderStatusCancelledByUser || s == OrderStatusCancelledByStore
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelledByUser, OrderStatusCancelledByStore},
	OrderStatusConfirmed:      {OrderStatusPreparing, OrderStatusCancelledByUser, OrderStatusCancelledByStore},
	OrderStatusPreparing:      {OrderStatusReadyForPickup},
	OrderStatusReadyForPickup: {OrderStatusCompleted},
}

var paymentStatusTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusFailed:  {PaymentStatusPending},
	PaymentStatusPaid:    {PaymentStatusRefunded},
}

// CanTransition reports whether the operational state machine permits moving
// from current to target.
func CanTransition(current, target OrderStatus) bool {
	for _, next := range orderStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether the payment state machine permits
// moving from current to target.
func CanTransitionPayment(current, target PaymentStatus) bool {
	for _, next := range paymentStatusTransitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether the value names a known operational status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReadyForPickup, OrderStatusCompleted,
		OrderStatusCancelledByUser, OrderStatusCancelledByStore:
		return true
	}
	return false
}

// ValidPaymentStatus reports whether the value names a known payment status.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}
