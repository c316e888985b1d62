package services

import (
	"context"
	"time"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

// Requester identifies the authenticated principal on whose behalf a service
// call runs. Services enforce tenancy and role policy from these fields alone;
// they never reach back into transport-level auth.
type Requester struct {
	UID      string
	Role     string
	TenantID string
	StoreID  string
	StoreIDs []string
}

// CartLine is one requested item in a placement command. ExpectedUnitPrice is
// the price the client last displayed; placement fails when it drifts beyond
// tolerance from the live catalog price.
type CartLine struct {
	CatalogItemID     string
	Quantity          int64
	ExpectedUnitPrice int64
	Options           []string
	Notes             string
}

// PlaceOrderCommand creates a new order for a store.
type PlaceOrderCommand struct {
	Requester      Requester
	StoreID        string
	OrderType      string
	Lines          []CartLine
	DiscountAmount int64
	TaxAmount      int64

	// CustomerID lets staff place an order on a customer's behalf. Customers
	// always order for themselves.
	CustomerID string
}

// PlaceOrderResult returns the created order plus post-decrement stock levels
// so callers can surface low stock immediately.
type PlaceOrderResult struct {
	Order  domain.Order
	Stocks map[string]repositories.StockSnapshot
}

// OrderListQuery filters role-scoped order listings.
type OrderListQuery struct {
	Requester Requester
	StoreID   string
	Status    []domain.OrderStatus
	From      *time.Time
	To        *time.Time
	PageSize  int
	PageToken string
}

// UpdateOrderStatusCommand advances an order through its lifecycle. When
// ExpectedStatus is set the transition only applies if the order still
// carries that status.
type UpdateOrderStatusCommand struct {
	Requester      Requester
	OrderID        string
	TargetStatus   domain.OrderStatus
	ExpectedStatus domain.OrderStatus
	Reason         string
}

// UpdatePaymentStatusCommand records payment lifecycle changes.
type UpdatePaymentStatusCommand struct {
	Requester    Requester
	OrderID      string
	TargetStatus domain.PaymentStatus
}

// OrderService exposes order placement, retrieval, and lifecycle operations.
type OrderService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error)
	GetOrder(ctx context.Context, requester Requester, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[domain.Order], error)
	UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, cmd UpdatePaymentStatusCommand) (domain.Order, error)
}

// UpsertCatalogItemCommand creates or replaces a menu item. Setting
// StockQuantity is the restock path; nil leaves the item untracked.
type UpsertCatalogItemCommand struct {
	Requester     Requester
	ItemID        string
	StoreID       string
	Name          string
	Price         int64
	DiscountPrice *int64
	IsActive      bool
	StockQuantity *int64
}

// CatalogListQuery filters catalog listings for one store.
type CatalogListQuery struct {
	Requester  Requester
	StoreID    string
	OnlyActive bool
	PageSize   int
	PageToken  string
}

// CatalogService exposes menu management and lookup operations.
type CatalogService interface {
	GetItem(ctx context.Context, requester Requester, itemID string) (domain.CatalogItem, error)
	UpsertItem(ctx context.Context, cmd UpsertCatalogItemCommand) (domain.CatalogItem, error)
	ListItems(ctx context.Context, query CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error)
}

// OrderEventMessage is the payload published for order lifecycle events.
type OrderEventMessage struct {
	EventType     string    `json:"eventType"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	TenantID      string    `json:"tenantId"`
	StoreID       string    `json:"storeId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	ActorUID      string    `json:"actorUid,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}
