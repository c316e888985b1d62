package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

const catalogItemIDPrefix = "itm_"

var (
	// ErrCatalogInvalidInput signals the caller provided invalid data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the catalog item could not be located.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogForbidden indicates the requester may not act on the item.
	ErrCatalogForbidden = errors.New("catalog: forbidden")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Catalog           repositories.CatalogRepository
	Stores            repositories.StoreRepository
	LowStockThreshold int64
	Clock             func() time.Time
	IDGenerator       func() string
}

type catalogService struct {
	catalog           repositories.CatalogRepository
	stores            repositories.StoreRepository
	lowStockThreshold int64
	clock             func() time.Time
	newID             func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	if deps.Stores == nil {
		return nil, errors.New("catalog service: store repository is required")
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

	return &catalogService{
		catalog:           deps.Catalog,
		stores:            deps.Stores,
		lowStockThreshold: threshold,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *catalogService) GetItem(ctx context.Context, requester Requester, itemID string) (domain.CatalogItem, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: item id is required", ErrCatalogInvalidInput)
	}

	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return domain.CatalogItem{}, s.mapRepositoryError(err)
	}

	if requester.Role == roleCustomer {
		if !item.IsActive {
			return domain.CatalogItem{}, fmt.Errorf("%w: %s", ErrCatalogNotFound, itemID)
		}
		return item, nil
	}
	if !isStaffRole(requester.Role) || requester.TenantID != item.TenantID {
		return domain.CatalogItem{}, fmt.Errorf("%w: item %s", ErrCatalogForbidden, itemID)
	}
	return item, nil
}

func (s *catalogService) UpsertItem(ctx context.Context, cmd UpsertCatalogItemCommand) (domain.CatalogItem, error) {
	storeID := strings.TrimSpace(cmd.StoreID)
	if storeID == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: store id is required", ErrCatalogInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.CatalogItem{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if cmd.Price < 0 {
		return domain.CatalogItem{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.DiscountPrice != nil && *cmd.DiscountPrice < 0 {
		return domain.CatalogItem{}, fmt.Errorf("%w: discount price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.StockQuantity != nil && *cmd.StockQuantity < 0 {
		return domain.CatalogItem{}, fmt.Errorf("%w: stock quantity must not be negative", ErrCatalogInvalidInput)
	}
	if !canManageCatalog(cmd.Requester, storeID) {
		return domain.CatalogItem{}, fmt.Errorf("%w: store %s", ErrCatalogForbidden, storeID)
	}

	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.CatalogItem{}, fmt.Errorf("%w: store %s", ErrCatalogNotFound, storeID)
		}
		return domain.CatalogItem{}, s.mapRepositoryError(err)
	}
	if store.TenantID != cmd.Requester.TenantID {
		return domain.CatalogItem{}, fmt.Errorf("%w: store %s", ErrCatalogForbidden, storeID)
	}

	itemID := strings.TrimSpace(cmd.ItemID)
	if itemID == "" {
		itemID = catalogItemIDPrefix + s.newID()
	} else {
		// Replacing an existing item must not move it across tenants or stores.
		existing, err := s.catalog.GetItem(ctx, itemID)
		if err == nil {
			if existing.TenantID != store.TenantID || existing.StoreID != storeID {
				return domain.CatalogItem{}, fmt.Errorf("%w: item %s", ErrCatalogForbidden, itemID)
			}
		} else {
			var repoErr repositories.RepositoryError
			if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
				return domain.CatalogItem{}, s.mapRepositoryError(err)
			}
		}
	}

	item := domain.CatalogItem{
		ID:            itemID,
		TenantID:      store.TenantID,
		StoreID:       storeID,
		Name:          name,
		Price:         cmd.Price,
		DiscountPrice: cmd.DiscountPrice,
		IsActive:      cmd.IsActive,
		StockQuantity: cmd.StockQuantity,
		StockStatus:   domain.StockStatusFor(cmd.StockQuantity, s.lowStockThreshold),
		UpdatedAt:     s.clock(),
	}

	saved, err := s.catalog.UpsertItem(ctx, item)
	if err != nil {
		return domain.CatalogItem{}, s.mapRepositoryError(err)
	}
	return saved, nil
}

func (s *catalogService) ListItems(ctx context.Context, query CatalogListQuery) (domain.CursorPage[domain.CatalogItem], error) {
	storeID := strings.TrimSpace(query.StoreID)
	if storeID == "" {
		return domain.CursorPage[domain.CatalogItem]{}, fmt.Errorf("%w: store id is required", ErrCatalogInvalidInput)
	}

	onlyActive := query.OnlyActive
	tenantID := query.Requester.TenantID
	if query.Requester.Role == roleCustomer {
		// Customers never see retired items and have no tenant claim; resolve
		// the tenant from the store itself.
		onlyActive = true
		store, err := s.stores.FindByID(ctx, storeID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				return domain.CursorPage[domain.CatalogItem]{}, fmt.Errorf("%w: store %s", ErrCatalogNotFound, storeID)
			}
			return domain.CursorPage[domain.CatalogItem]{}, s.mapRepositoryError(err)
		}
		tenantID = store.TenantID
	} else if !isStaffRole(query.Requester.Role) || tenantID == "" || !storeInScope(query.Requester, storeID) {
		return domain.CursorPage[domain.CatalogItem]{}, fmt.Errorf("%w: store %s", ErrCatalogForbidden, storeID)
	}

	page, err := s.catalog.ListByStore(ctx, repositories.CatalogListFilter{
		TenantID:   tenantID,
		StoreID:    storeID,
		OnlyActive: onlyActive,
		Pagination: domain.Pagination{
			PageSize:  query.PageSize,
			PageToken: query.PageToken,
		},
	})
	if err != nil {
		return domain.CursorPage[domain.CatalogItem]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("catalog: repository unavailable: %w", err)
		}
	}

	return err
}
