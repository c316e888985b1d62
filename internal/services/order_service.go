package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

const (
	orderEventCreated        = "order.created"
	orderEventStatusChanged  = "order.status.changed"
	orderEventPaymentChanged = "order.payment.changed"

	orderIDPrefix = "ord_"

	defaultOrderType = "takeout"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the requester may not act on the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidTransition indicates the lifecycle forbids the requested move.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates the order changed concurrently.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrStoreNotFound indicates the target store does not exist.
	ErrStoreNotFound = errors.New("order: store not found")
	// ErrStoreInactive indicates the target store is not accepting orders.
	ErrStoreInactive = errors.New("order: store inactive")
)

var allowedOrderTypes = map[string]bool{
	"dine_in":  true,
	"takeout":  true,
	"delivery": true,
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders            repositories.OrderRepository
	Stores            repositories.StoreRepository
	LowStockThreshold int64
	Clock             func() time.Time
	IDGenerator       func() string
	RandomDigits      func() int
	Events            OrderEventPublisher
	Logger            func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders            repositories.OrderRepository
	stores            repositories.StoreRepository
	lowStockThreshold int64
	clock             func() time.Time
	newID             func() string
	randomDigits      func() int
	events            OrderEventPublisher
	logger            func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("order service: store repository is required")
	}

	threshold := deps.LowStockThreshold
	if threshold <= 0 {
		threshold = domain.DefaultLowStockThreshold
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = newULID
	}

	digits := deps.RandomDigits
	if digits == nil {
		digits = func() int {
			return rand.IntN(10000)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:            deps.Orders,
		stores:            deps.Stores,
		lowStockThreshold: threshold,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:        idGen,
		randomDigits: digits,
		events:       deps.Events,
		logger:       logger,
	}, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return PlaceOrderResult{}, fmt.Errorf("%w: store id is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(cmd.Requester.UID) == "" {
		return PlaceOrderResult{}, fmt.Errorf("%w: requester is required", ErrOrderInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return PlaceOrderResult{}, fmt.Errorf("%w: cart must contain at least one line", ErrOrderInvalidInput)
	}
	for _, line := range cmd.Lines {
		if strings.TrimSpace(line.CatalogItemID) == "" {
			return PlaceOrderResult{}, fmt.Errorf("%w: cart line is missing a catalog item id", ErrOrderInvalidInput)
		}
		if line.Quantity <= 0 {
			return PlaceOrderResult{}, fmt.Errorf("%w: quantity for %s must be positive", ErrOrderInvalidInput, line.CatalogItemID)
		}
		if line.ExpectedUnitPrice < 0 {
			return PlaceOrderResult{}, fmt.Errorf("%w: expected price for %s must not be negative", ErrOrderInvalidInput, line.CatalogItemID)
		}
	}
	if cmd.DiscountAmount < 0 || cmd.TaxAmount < 0 {
		return PlaceOrderResult{}, fmt.Errorf("%w: discount and tax must not be negative", ErrOrderInvalidInput)
	}

	orderType := strings.TrimSpace(cmd.OrderType)
	if orderType == "" {
		orderType = defaultOrderType
	}
	if !allowedOrderTypes[orderType] {
		return PlaceOrderResult{}, fmt.Errorf("%w: unknown order type %q", ErrOrderInvalidInput, orderType)
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return PlaceOrderResult{}, fmt.Errorf("%w: %s", ErrStoreNotFound, storeID)
		}
		return PlaceOrderResult{}, s.mapRepositoryError(err)
	}
	if !store.IsActive {
		return PlaceOrderResult{}, fmt.Errorf("%w: %s", ErrStoreInactive, storeID)
	}

	// A tenant claim binds every role, customers included, to that tenant's stores.
	if cmd.Requester.TenantID != "" && cmd.Requester.TenantID != store.TenantID {
		return PlaceOrderResult{}, fmt.Errorf("%w: store %s belongs to another tenant", ErrOrderForbidden, storeID)
	}
	if isStaffRole(cmd.Requester.Role) {
		if cmd.Requester.TenantID != store.TenantID || !storeInScope(cmd.Requester, storeID) {
			return PlaceOrderResult{}, fmt.Errorf("%w: store %s is out of scope", ErrOrderForbidden, storeID)
		}
	}

	customerID := strings.TrimSpace(cmd.CustomerID)
	if cmd.Requester.Role == roleCustomer || customerID == "" {
		customerID = cmd.Requester.UID
	}

	now := s.now()
	order := domain.Order{
		ID:              orderIDPrefix + s.newID(),
		OrderNumber:     s.generateOrderNumber(now, storeID),
		TenantID:        store.TenantID,
		StoreID:         storeID,
		CustomerID:      customerID,
		CreatedByUserID: cmd.Requester.UID,
		OrderType:       orderType,
		DiscountAmount:  cmd.DiscountAmount,
		TaxAmount:       cmd.TaxAmount,
	}

	lines := make([]repositories.OrderPlaceLine, len(cmd.Lines))
	for i, line := range cmd.Lines {
		lines[i] = repositories.OrderPlaceLine{
			CatalogItemID:  strings.TrimSpace(line.CatalogItemID),
			Quantity:       line.Quantity,
			ExpectedPrice:  line.ExpectedUnitPrice,
			SelectedOption: line.Options,
			Notes:          line.Notes,
		}
	}

	result, err := s.orders.Place(ctx, repositories.OrderPlaceRequest{
		Order:             order,
		Lines:             lines,
		LowStockThreshold: s.lowStockThreshold,
		Now:               now,
	})
	if err != nil {
		var placeErr *repositories.PlacementError
		if errors.As(err, &placeErr) {
			return PlaceOrderResult{}, placeErr
		}
		return PlaceOrderResult{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEventMessage{
		EventType:     orderEventCreated,
		OrderID:       result.Order.ID,
		OrderNumber:   result.Order.OrderNumber,
		TenantID:      result.Order.TenantID,
		StoreID:       result.Order.StoreID,
		Status:        string(result.Order.Status),
		PaymentStatus: string(result.Order.PaymentStatus),
		ActorUID:      cmd.Requester.UID,
		OccurredAt:    now,
	})

	return PlaceOrderResult{Order: result.Order, Stocks: result.Stocks}, nil
}

func (s *orderService) GetOrder(ctx context.Context, requester Requester, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	if !canAccessOrder(requester, order) {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, orderID)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, query OrderListQuery) (domain.CursorPage[domain.Order], error) {
	for _, status := range query.Status {
		if !domain.ValidOrderStatus(status) {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, status)
		}
	}

	filter := repositories.OrderListFilter{
		Status: query.Status,
		DateRange: domain.RangeQuery[time.Time]{
			From: query.From,
			To:   query.To,
		},
		Pagination: domain.Pagination{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
	}

	switch {
	case query.Requester.Role == roleCustomer:
		if query.Requester.UID == "" {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: requester is required", ErrOrderInvalidInput)
		}
		filter.CustomerID = query.Requester.UID
		filter.StoreID = strings.TrimSpace(query.StoreID)
	case isStaffRole(query.Requester.Role):
		if query.Requester.TenantID == "" {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: staff requester has no tenant", ErrOrderForbidden)
		}
		filter.TenantID = query.Requester.TenantID
		storeID := strings.TrimSpace(query.StoreID)
		if storeID == "" && query.Requester.Role != roleTenantAdmin {
			storeID = query.Requester.StoreID
		}
		if storeID != "" && !storeInScope(query.Requester, storeID) {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: store %s is out of scope", ErrOrderForbidden, storeID)
		}
		if storeID == "" && query.Requester.Role != roleTenantAdmin {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: store scope is required", ErrOrderForbidden)
		}
		filter.StoreID = storeID
	default:
		return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: unknown role %q", ErrOrderForbidden, query.Requester.Role)
	}

	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, cmd UpdateOrderStatusCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !domain.ValidOrderStatus(cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.TargetStatus)
	}
	if cmd.ExpectedStatus != "" && !domain.ValidOrderStatus(cmd.ExpectedStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown expected status %q", ErrOrderInvalidInput, cmd.ExpectedStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	if !canTransitionOrder(cmd.Requester, order, cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, orderID)
	}

	expected := cmd.ExpectedStatus
	if expected == "" {
		// Guard against concurrent transitions between the read and the write.
		expected = order.Status
	}

	now := s.now()
	updated, err := s.orders.ApplyStatusChange(ctx, repositories.OrderStatusChangeRequest{
		OrderID:        orderID,
		NextStatus:     cmd.TargetStatus,
		ExpectedStatus: expected,
		ActorUID:       cmd.Requester.UID,
		Reason:         strings.TrimSpace(cmd.Reason),
		Now:            now,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInvalidTransition):
			return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.Status, cmd.TargetStatus)
		case errors.Is(err, repositories.ErrStatusConflict):
			return domain.Order{}, fmt.Errorf("%w: order %s changed concurrently", ErrOrderConflict, orderID)
		}
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEventMessage{
		EventType:     orderEventStatusChanged,
		OrderID:       updated.ID,
		OrderNumber:   updated.OrderNumber,
		TenantID:      updated.TenantID,
		StoreID:       updated.StoreID,
		Status:        string(updated.Status),
		PaymentStatus: string(updated.PaymentStatus),
		ActorUID:      cmd.Requester.UID,
		OccurredAt:    now,
	})

	return updated, nil
}

func (s *orderService) UpdatePaymentStatus(ctx context.Context, cmd UpdatePaymentStatusCommand) (domain.Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !domain.ValidPaymentStatus(cmd.TargetStatus) {
		return domain.Order{}, fmt.Errorf("%w: unknown payment status %q", ErrOrderInvalidInput, cmd.TargetStatus)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}
	if !isStaffRole(cmd.Requester.Role) || !canAccessOrder(cmd.Requester, order) {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, orderID)
	}

	now := s.now()
	updated, err := s.orders.ApplyPaymentChange(ctx, repositories.OrderPaymentChangeRequest{
		OrderID:    orderID,
		NextStatus: cmd.TargetStatus,
		ActorUID:   cmd.Requester.UID,
		Now:        now,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidTransition) {
			return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrOrderInvalidTransition, order.PaymentStatus, cmd.TargetStatus)
		}
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, OrderEventMessage{
		EventType:     orderEventPaymentChanged,
		OrderID:       updated.ID,
		OrderNumber:   updated.OrderNumber,
		TenantID:      updated.TenantID,
		StoreID:       updated.StoreID,
		Status:        string(updated.Status),
		PaymentStatus: string(updated.PaymentStatus),
		ActorUID:      cmd.Requester.UID,
		OccurredAt:    now,
	})

	return updated, nil
}

// generateOrderNumber builds the human-facing display code. It is not a
// uniqueness guarantee; the document ID is the identity.
func (s *orderService) generateOrderNumber(now time.Time, storeID string) string {
	return fmt.Sprintf("%s-%s-%04d", now.Format("20060102"), storeID, s.randomDigits())
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func newULID() string {
	return ulid.Make().String()
}

func (s *orderService) publishEvent(ctx context.Context, message OrderEventMessage) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishOrderEvent(ctx, message); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   message.EventType,
			"order":  message.OrderID,
			"error":  err.Error(),
			"status": message.Status,
		})
	}
}
