package firestore

import (
	"errors"

	pfirestore "github.com/chatscai10/friedg-sub006/internal/platform/firestore"
	"github.com/chatscai10/friedg-sub006/internal/repositories"
)

// Registry bundles the Firestore backed repositories behind the repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	orders  *OrderRepository
	catalog *CatalogRepository
	stores  *StoreRepository
}

// NewRegistry wires all repositories against a shared Firestore provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	stores, err := NewStoreRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		orders:   orders,
		catalog:  catalog,
		stores:   stores,
	}, nil
}

// Close releases the shared Firestore client.
func (r *Registry) Close() error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Catalog returns the catalog repository.
func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }

// Stores returns the store repository.
func (r *Registry) Stores() repositories.StoreRepository { return r.stores }
