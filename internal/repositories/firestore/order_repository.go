package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	pfirestore "github.com/chatscai10/friedg-sub006/internal/platform/firestore"
	"github.com/chatscai10/friedg-sub006/internal/platform/pagination"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists orders in Firestore. Placement reconciles the cart
// against fresh catalog reads and decrements stock in the same transaction
// that creates the order document.
type OrderRepository struct {
	provider *pfirestore.Provider
}

func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

func (r *OrderRepository) Place(ctx context.Context, req repositories.OrderPlaceRequest) (repositories.OrderPlaceResult, error) {
	if r == nil || r.provider == nil {
		return repositories.OrderPlaceResult{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(req.Order.ID) == "" {
		return repositories.OrderPlaceResult{}, errors.New("order place: order id is required")
	}
	if len(req.Lines) == 0 {
		return repositories.OrderPlaceResult{}, errors.New("order place: at least one line is required")
	}
	for _, line := range req.Lines {
		if strings.TrimSpace(line.CatalogItemID) == "" {
			return repositories.OrderPlaceResult{}, errors.New("order place: catalog item id is required")
		}
		if line.Quantity <= 0 {
			return repositories.OrderPlaceResult{}, fmt.Errorf("order place: quantity for %s must be > 0", line.CatalogItemID)
		}
	}

	now := req.Now.UTC()
	order := req.Order

	var result repositories.OrderPlaceResult
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		orderRef := client.Collection(ordersCollection).Doc(order.ID)
		itemsCol := client.Collection(catalogItemsCollection)

		// All reads precede writes inside a Firestore transaction.
		type readLine struct {
			line repositories.OrderPlaceLine
			ref  *firestore.DocumentRef
			doc  catalogItemDocument
		}
		reads := make([]readLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			itemRef := itemsCol.Doc(line.CatalogItemID)
			snap, err := tx.Get(itemRef)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewPlacementError(repositories.PlacementErrorItemNotFound,
						line.CatalogItemID, fmt.Sprintf("catalog item %s not found", line.CatalogItemID))
				}
				return err
			}
			var doc catalogItemDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode catalog item %s: %w", line.CatalogItemID, err)
			}
			reads = append(reads, readLine{line: line, ref: itemRef, doc: doc})
		}

		items := make([]domain.OrderLineItem, 0, len(reads))
		stocks := make(map[string]repositories.StockSnapshot, len(reads))
		for i := range reads {
			line := reads[i].line
			doc := &reads[i].doc

			if doc.TenantID != order.TenantID || doc.StoreID != order.StoreID {
				return repositories.NewPlacementError(repositories.PlacementErrorTenantMismatch,
					line.CatalogItemID, fmt.Sprintf("catalog item %s does not belong to store %s", line.CatalogItemID, order.StoreID))
			}
			if !doc.IsActive {
				return repositories.NewPlacementError(repositories.PlacementErrorItemInactive,
					line.CatalogItemID, fmt.Sprintf("catalog item %s is not orderable", line.CatalogItemID))
			}

			effective := domain.EffectiveUnitPrice(doc.Price, doc.DiscountPrice)
			if !domain.WithinPriceTolerance(line.ExpectedPrice, effective) {
				placeErr := repositories.NewPlacementError(repositories.PlacementErrorPriceDrift,
					line.CatalogItemID, fmt.Sprintf("price for %s drifted beyond tolerance", line.CatalogItemID))
				placeErr.ExpectedPrice = line.ExpectedPrice
				placeErr.EffectivePrice = effective
				return placeErr
			}

			if doc.StockQuantity != nil {
				available := *doc.StockQuantity
				if available < line.Quantity {
					placeErr := repositories.NewPlacementError(repositories.PlacementErrorInsufficientStock,
						line.CatalogItemID, fmt.Sprintf("insufficient stock for %s", line.CatalogItemID))
					placeErr.Requested = line.Quantity
					placeErr.Available = available
					return placeErr
				}
				remaining := available - line.Quantity
				doc.StockQuantity = &remaining
			}
			doc.StockStatus = string(domain.StockStatusFor(doc.StockQuantity, req.LowStockThreshold))
			doc.UpdatedAt = now

			// The catalog price only gates tolerance; the line is charged at
			// the price the client accepted.
			items = append(items, domain.OrderLineItem{
				CatalogItemID:    line.CatalogItemID,
				NameAtOrder:      doc.Name,
				UnitPriceAtOrder: line.ExpectedPrice,
				Quantity:         line.Quantity,
				LineTotal:        domain.LineTotal(line.ExpectedPrice, line.Quantity),
				OptionsAtOrder:   line.SelectedOption,
				Notes:            strings.TrimSpace(line.Notes),
			})
			stocks[line.CatalogItemID] = repositories.StockSnapshot{
				Quantity: doc.StockQuantity,
				Status:   domain.StockStatus(doc.StockStatus),
			}
		}

		for i := range reads {
			if err := tx.Set(reads[i].ref, reads[i].doc); err != nil {
				return err
			}
		}

		order.Items = items
		order.Subtotal, order.TotalAmount = domain.ComputeTotals(items, order.DiscountAmount, order.TaxAmount)
		order.Status = domain.OrderStatusPending
		if order.PaymentStatus == "" {
			order.PaymentStatus = domain.PaymentStatusPending
		}
		order.CreatedAt = now
		order.UpdatedAt = now
		order.StatusHistory = []domain.StatusHistoryEntry{{
			Status:          domain.OrderStatusPending,
			ChangedAt:       now,
			ChangedByUserID: order.CreatedByUserID,
		}}

		if err := tx.Create(orderRef, newOrderDocument(order)); err != nil {
			return err
		}

		result = repositories.OrderPlaceResult{Order: order, Stocks: stocks}
		return nil
	})
	if err != nil {
		return repositories.OrderPlaceResult{}, wrapOrderError("orders.place", err)
	}
	return result, nil
}

func (r *OrderRepository) ApplyStatusChange(ctx context.Context, req repositories.OrderStatusChangeRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return domain.Order{}, errors.New("order status change: order id is required")
	}
	if !domain.ValidOrderStatus(req.NextStatus) {
		return domain.Order{}, fmt.Errorf("order status change: unknown status %q", req.NextStatus)
	}

	now := req.Now.UTC()
	var updated domain.Order

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		orderRef := client.Collection(ordersCollection).Doc(req.OrderID)

		snap, err := tx.Get(orderRef)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode order %s: %w", req.OrderID, err)
		}

		current := domain.OrderStatus(doc.Status)
		if req.ExpectedStatus != "" && current != req.ExpectedStatus {
			return fmt.Errorf("%w: order %s is %s", repositories.ErrStatusConflict, req.OrderID, current)
		}
		if !domain.CanTransition(current, req.NextStatus) {
			return fmt.Errorf("%w: %s -> %s", repositories.ErrInvalidTransition, current, req.NextStatus)
		}

		doc.Status = string(req.NextStatus)
		doc.UpdatedAt = now
		doc.StatusHistory = append(doc.StatusHistory, statusHistoryDocument{
			Status:          string(req.NextStatus),
			ChangedAt:       now,
			ChangedByUserID: strings.TrimSpace(req.ActorUID),
			Reason:          strings.TrimSpace(req.Reason),
		})

		if err := tx.Set(orderRef, doc); err != nil {
			return err
		}

		updated = doc.toDomain(req.OrderID)
		return nil
	})
	if err != nil {
		return domain.Order{}, wrapOrderError("orders.status", err)
	}
	return updated, nil
}

func (r *OrderRepository) ApplyPaymentChange(ctx context.Context, req repositories.OrderPaymentChangeRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return domain.Order{}, errors.New("order payment change: order id is required")
	}
	if !domain.ValidPaymentStatus(req.NextStatus) {
		return domain.Order{}, fmt.Errorf("order payment change: unknown status %q", req.NextStatus)
	}

	now := req.Now.UTC()
	var updated domain.Order

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		orderRef := client.Collection(ordersCollection).Doc(req.OrderID)

		snap, err := tx.Get(orderRef)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode order %s: %w", req.OrderID, err)
		}

		current := domain.PaymentStatus(doc.PaymentStatus)
		if !domain.CanTransitionPayment(current, req.NextStatus) {
			return fmt.Errorf("%w: %s -> %s", repositories.ErrInvalidTransition, current, req.NextStatus)
		}

		doc.PaymentStatus = string(req.NextStatus)
		doc.PaymentUpdatedBy = strings.TrimSpace(req.ActorUID)
		doc.UpdatedAt = now

		if err := tx.Set(orderRef, doc); err != nil {
			return err
		}

		updated = doc.toDomain(req.OrderID)
		return nil
	})
	if err != nil {
		return domain.Order{}, wrapOrderError("orders.payment", err)
	}
	return updated, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, errors.New("order find: id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, wrapOrderError("orders.find", err)
	}

	snap, err := client.Collection(ordersCollection).Doc(orderID).Get(ctx)
	if err != nil {
		return domain.Order{}, wrapOrderError("orders.find", err)
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return doc.toDomain(orderID), nil
}

func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(filter.TenantID) == "" && strings.TrimSpace(filter.CustomerID) == "" {
		return domain.CursorPage[domain.Order]{}, errors.New("order list: tenant or customer scope is required")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, wrapOrderError("orders.list", err)
	}

	query := client.Collection(ordersCollection).Query
	if tenantID := strings.TrimSpace(filter.TenantID); tenantID != "" {
		query = query.Where("tenantId", "==", tenantID)
	}
	if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
		query = query.Where("storeId", "==", storeID)
	}
	if customerID := strings.TrimSpace(filter.CustomerID); customerID != "" {
		query = query.Where("customerId", "==", customerID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status", "in", statuses)
	}
	if filter.DateRange.From != nil {
		query = query.Where("createdAt", ">=", filter.DateRange.From.UTC())
	}
	if filter.DateRange.To != nil {
		query = query.Where("createdAt", "<=", filter.DateRange.To.UTC())
	}

	query = query.
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize + 1)

	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	if !cursor.IsZero() {
		query = query.StartAfter(cursor.CreatedAt, cursor.ID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var orders []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, wrapOrderError("orders.list", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		orders = append(orders, doc.toDomain(snap.Ref.ID))
	}

	hasMore := len(orders) > pageSize
	if hasMore {
		orders = orders[:pageSize]
	}
	var nextToken string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, wrapOrderError("orders.list", err)
		}
	}

	return domain.CursorPage[domain.Order]{
		Items:         orders,
		NextPageToken: nextToken,
	}, nil
}

// Document mapping ----------------------------------------------------------

type orderDocument struct {
	OrderNumber      string                  `firestore:"orderNumber"`
	TenantID         string                  `firestore:"tenantId"`
	StoreID          string                  `firestore:"storeId"`
	CustomerID       string                  `firestore:"customerId,omitempty"`
	CreatedByUserID  string                  `firestore:"createdByUserId"`
	OrderType        string                  `firestore:"orderType"`
	Items            []orderLineDocument     `firestore:"items"`
	Subtotal         int64                   `firestore:"subtotal"`
	TaxAmount        int64                   `firestore:"taxAmount"`
	DiscountAmount   int64                   `firestore:"discountAmount"`
	TotalAmount      int64                   `firestore:"totalAmount"`
	Status           string                  `firestore:"status"`
	PaymentStatus    string                  `firestore:"paymentStatus"`
	PaymentUpdatedBy string                  `firestore:"paymentUpdatedBy,omitempty"`
	StatusHistory    []statusHistoryDocument `firestore:"statusHistory"`
	CreatedAt        time.Time               `firestore:"createdAt"`
	UpdatedAt        time.Time               `firestore:"updatedAt"`
}

type orderLineDocument struct {
	CatalogItemID    string   `firestore:"catalogItemId"`
	NameAtOrder      string   `firestore:"nameAtOrder"`
	UnitPriceAtOrder int64    `firestore:"unitPriceAtOrder"`
	Quantity         int64    `firestore:"qty"`
	LineTotal        int64    `firestore:"lineTotal"`
	OptionsAtOrder   []string `firestore:"optionsAtOrder,omitempty"`
	Notes            string   `firestore:"notes,omitempty"`
}

type statusHistoryDocument struct {
	Status          string    `firestore:"status"`
	ChangedAt       time.Time `firestore:"changedAt"`
	ChangedByUserID string    `firestore:"changedByUserId,omitempty"`
	Reason          string    `firestore:"reason,omitempty"`
}

func newOrderDocument(order domain.Order) orderDocument {
	items := make([]orderLineDocument, len(order.Items))
	for i, item := range order.Items {
		items[i] = orderLineDocument{
			CatalogItemID:    item.CatalogItemID,
			NameAtOrder:      item.NameAtOrder,
			UnitPriceAtOrder: item.UnitPriceAtOrder,
			Quantity:         item.Quantity,
			LineTotal:        item.LineTotal,
			OptionsAtOrder:   item.OptionsAtOrder,
			Notes:            item.Notes,
		}
	}
	history := make([]statusHistoryDocument, len(order.StatusHistory))
	for i, entry := range order.StatusHistory {
		history[i] = statusHistoryDocument{
			Status:          string(entry.Status),
			ChangedAt:       entry.ChangedAt.UTC(),
			ChangedByUserID: entry.ChangedByUserID,
			Reason:          entry.Reason,
		}
	}
	return orderDocument{
		OrderNumber:      order.OrderNumber,
		TenantID:         order.TenantID,
		StoreID:          order.StoreID,
		CustomerID:       order.CustomerID,
		CreatedByUserID:  order.CreatedByUserID,
		OrderType:        order.OrderType,
		Items:            items,
		Subtotal:         order.Subtotal,
		TaxAmount:        order.TaxAmount,
		DiscountAmount:   order.DiscountAmount,
		TotalAmount:      order.TotalAmount,
		Status:           string(order.Status),
		PaymentStatus:    string(order.PaymentStatus),
		PaymentUpdatedBy: order.PaymentUpdatedBy,
		StatusHistory:    history,
		CreatedAt:        order.CreatedAt.UTC(),
		UpdatedAt:        order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderLineItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.OrderLineItem{
			CatalogItemID:    item.CatalogItemID,
			NameAtOrder:      item.NameAtOrder,
			UnitPriceAtOrder: item.UnitPriceAtOrder,
			Quantity:         item.Quantity,
			LineTotal:        item.LineTotal,
			OptionsAtOrder:   item.OptionsAtOrder,
			Notes:            item.Notes,
		}
	}
	history := make([]domain.StatusHistoryEntry, len(d.StatusHistory))
	for i, entry := range d.StatusHistory {
		history[i] = domain.StatusHistoryEntry{
			Status:          domain.OrderStatus(entry.Status),
			ChangedAt:       entry.ChangedAt,
			ChangedByUserID: entry.ChangedByUserID,
			Reason:          entry.Reason,
		}
	}
	return domain.Order{
		ID:               id,
		OrderNumber:      d.OrderNumber,
		TenantID:         d.TenantID,
		StoreID:          d.StoreID,
		CustomerID:       d.CustomerID,
		CreatedByUserID:  d.CreatedByUserID,
		OrderType:        d.OrderType,
		Items:            items,
		Subtotal:         d.Subtotal,
		TaxAmount:        d.TaxAmount,
		DiscountAmount:   d.DiscountAmount,
		TotalAmount:      d.TotalAmount,
		Status:           domain.OrderStatus(d.Status),
		PaymentStatus:    domain.PaymentStatus(d.PaymentStatus),
		PaymentUpdatedBy: d.PaymentUpdatedBy,
		StatusHistory:    history,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func wrapOrderError(op string, err error) error {
	if err == nil {
		return nil
	}
	var placeErr *repositories.PlacementError
	if errors.As(err, &placeErr) {
		if placeErr.Op == "" {
			placeErr.Op = op
		}
		return placeErr
	}
	if errors.Is(err, repositories.ErrInvalidTransition) || errors.Is(err, repositories.ErrStatusConflict) {
		return err
	}
	if errors.Is(err, pagination.ErrInvalidPageToken) {
		return err
	}
	return pfirestore.WrapError(op, err)
}
