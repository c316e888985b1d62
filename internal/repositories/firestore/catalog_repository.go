package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	pfirestore "github.com/chatscai10/friedg-sub006/internal/platform/firestore"
	"github.com/chatscai10/friedg-sub006/internal/platform/pagination"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

const catalogItemsCollection = "catalogItems"

// CatalogRepository stores menu items. Stock decrements happen through order
// placement; UpsertItem is the restock and menu management path.
type CatalogRepository struct {
	provider *pfirestore.Provider
}

func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{provider: provider}, nil
}

func (r *CatalogRepository) GetItem(ctx context.Context, itemID string) (domain.CatalogItem, error) {
	if r == nil || r.provider == nil {
		return domain.CatalogItem{}, errors.New("catalog repository not initialised")
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.CatalogItem{}, errors.New("catalog get: item id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CatalogItem{}, pfirestore.WrapError("catalog.get", err)
	}

	snap, err := client.Collection(catalogItemsCollection).Doc(itemID).Get(ctx)
	if err != nil {
		return domain.CatalogItem{}, pfirestore.WrapError("catalog.get", err)
	}
	var doc catalogItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("decode catalog item %s: %w", itemID, err)
	}
	return doc.toDomain(itemID), nil
}

func (r *CatalogRepository) UpsertItem(ctx context.Context, item domain.CatalogItem) (domain.CatalogItem, error) {
	if r == nil || r.provider == nil {
		return domain.CatalogItem{}, errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return domain.CatalogItem{}, errors.New("catalog upsert: item id is required")
	}
	if strings.TrimSpace(item.TenantID) == "" || strings.TrimSpace(item.StoreID) == "" {
		return domain.CatalogItem{}, errors.New("catalog upsert: tenant and store ids are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CatalogItem{}, pfirestore.WrapError("catalog.upsert", err)
	}

	doc := newCatalogItemDocument(item)
	if _, err := client.Collection(catalogItemsCollection).Doc(item.ID).Set(ctx, doc); err != nil {
		return domain.CatalogItem{}, pfirestore.WrapError("catalog.upsert", err)
	}
	return doc.toDomain(item.ID), nil
}

func (r *CatalogRepository) ListByStore(ctx context.Context, filter repositories.CatalogListFilter) (domain.CursorPage[domain.CatalogItem], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.CatalogItem]{}, errors.New("catalog repository not initialised")
	}
	if strings.TrimSpace(filter.TenantID) == "" || strings.TrimSpace(filter.StoreID) == "" {
		return domain.CursorPage[domain.CatalogItem]{}, errors.New("catalog list: tenant and store ids are required")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.CatalogItem]{}, pfirestore.WrapError("catalog.list", err)
	}

	query := client.Collection(catalogItemsCollection).Query.
		Where("tenantId", "==", strings.TrimSpace(filter.TenantID)).
		Where("storeId", "==", strings.TrimSpace(filter.StoreID))
	if filter.OnlyActive {
		query = query.Where("isActive", "==", true)
	}
	query = query.
		OrderBy("updatedAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize + 1)

	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.CatalogItem]{}, err
	}
	if !cursor.IsZero() {
		query = query.StartAfter(cursor.CreatedAt, cursor.ID)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var items []domain.CatalogItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.CatalogItem]{}, pfirestore.WrapError("catalog.list", err)
		}
		var doc catalogItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.CatalogItem]{}, fmt.Errorf("decode catalog item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, doc.toDomain(snap.Ref.ID))
	}

	hasMore := len(items) > pageSize
	if hasMore {
		items = items[:pageSize]
	}
	var nextToken string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextToken, err = pagination.EncodeToken(pagination.Cursor{CreatedAt: last.UpdatedAt, ID: last.ID})
		if err != nil {
			return domain.CursorPage[domain.CatalogItem]{}, pfirestore.WrapError("catalog.list", err)
		}
	}

	return domain.CursorPage[domain.CatalogItem]{
		Items:         items,
		NextPageToken: nextToken,
	}, nil
}

// Document mapping ----------------------------------------------------------

type catalogItemDocument struct {
	TenantID      string    `firestore:"tenantId"`
	StoreID       string    `firestore:"storeId"`
	Name          string    `firestore:"name"`
	Price         int64     `firestore:"price"`
	DiscountPrice *int64    `firestore:"discountPrice,omitempty"`
	IsActive      bool      `firestore:"isActive"`
	StockQuantity *int64    `firestore:"stockQuantity,omitempty"`
	StockStatus   string    `firestore:"stockStatus"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func newCatalogItemDocument(item domain.CatalogItem) catalogItemDocument {
	status := item.StockStatus
	if status == "" {
		status = domain.StockStatusFor(item.StockQuantity, domain.DefaultLowStockThreshold)
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return catalogItemDocument{
		TenantID:      strings.TrimSpace(item.TenantID),
		StoreID:       strings.TrimSpace(item.StoreID),
		Name:          strings.TrimSpace(item.Name),
		Price:         item.Price,
		DiscountPrice: item.DiscountPrice,
		IsActive:      item.IsActive,
		StockQuantity: item.StockQuantity,
		StockStatus:   string(status),
		UpdatedAt:     updatedAt.UTC(),
	}
}

func (d catalogItemDocument) toDomain(id string) domain.CatalogItem {
	return domain.CatalogItem{
		ID:            id,
		TenantID:      d.TenantID,
		StoreID:       d.StoreID,
		Name:          d.Name,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		IsActive:      d.IsActive,
		StockQuantity: d.StockQuantity,
		StockStatus:   domain.StockStatus(d.StockStatus),
		UpdatedAt:     d.UpdatedAt,
	}
}
