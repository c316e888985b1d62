package repositories

import (
	"context"
	"time"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close() error

	Orders() OrderRepository
	Catalog() CatalogRepository
	Stores() StoreRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderRepository persists order documents. Place performs cart reconciliation,
// stock decrement, and order creation inside a single transaction.
type OrderRepository interface {
	Place(ctx context.Context, req OrderPlaceRequest) (OrderPlaceResult, error)
	ApplyStatusChange(ctx context.Context, req OrderStatusChangeRequest) (domain.Order, error)
	ApplyPaymentChange(ctx context.Context, req OrderPaymentChangeRequest) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// OrderPlaceRequest carries the prepared order and the cart lines it must be
// reconciled against. Line quantities are authoritative; names and totals on
// Order are recomputed from fresh catalog reads inside the transaction.
type OrderPlaceRequest struct {
	Order             domain.Order
	Lines             []OrderPlaceLine
	LowStockThreshold int64
	Now               time.Time
}

// OrderPlaceLine describes one requested cart line with the price the client
// last displayed to the customer.
type OrderPlaceLine struct {
	CatalogItemID  string
	Quantity       int64
	ExpectedPrice  int64
	SelectedOption []string
	Notes          string
}

// OrderPlaceResult returns the stored order and the stock levels after decrement.
type OrderPlaceResult struct {
	Order  domain.Order
	Stocks map[string]StockSnapshot
}

// StockSnapshot reports an item's stock after a placement decrement. Quantity
// is nil for untracked items.
type StockSnapshot struct {
	Quantity *int64
	Status   domain.StockStatus
}

// OrderStatusChangeRequest mutates an order's fulfilment status. When
// ExpectedStatus is non-empty the transition only applies if the stored order
// still carries that status.
type OrderStatusChangeRequest struct {
	OrderID        string
	NextStatus     domain.OrderStatus
	ExpectedStatus domain.OrderStatus
	ActorUID       string
	Reason         string
	Now            time.Time
}

// OrderPaymentChangeRequest mutates an order's payment status under the same
// optimistic guard as status changes.
type OrderPaymentChangeRequest struct {
	OrderID    string
	NextStatus domain.PaymentStatus
	ActorUID   string
	Now        time.Time
}

// CatalogRepository stores menu items per tenant.
type CatalogRepository interface {
	GetItem(ctx context.Context, itemID string) (domain.CatalogItem, error)
	UpsertItem(ctx context.Context, item domain.CatalogItem) (domain.CatalogItem, error)
	ListByStore(ctx context.Context, filter CatalogListFilter) (domain.CursorPage[domain.CatalogItem], error)
}

// StoreRepository reads store documents for tenancy checks.
type StoreRepository interface {
	FindByID(ctx context.Context, storeID string) (domain.Store, error)
}

// Filter DTOs shared across repositories ------------------------------------

type OrderListFilter struct {
	TenantID   string
	StoreID    string
	CustomerID string
	Status     []domain.OrderStatus
	DateRange  domain.RangeQuery[time.Time]
	Pagination domain.Pagination
}

type CatalogListFilter struct {
	TenantID   string
	StoreID    string
	OnlyActive bool
	Pagination domain.Pagination
}
