package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
	pfirestore "github.com/chatscai10/friedg-sub006/internal/platform/firestore"
)

const storesCollection = "stores"

// StoreRepository reads store documents for tenancy and existence checks.
type StoreRepository struct {
	provider *pfirestore.Provider
}

func NewStoreRepository(provider *pfirestore.Provider) (*StoreRepository, error) {
	if provider == nil {
		return nil, errors.New("store repository requires firestore provider")
	}
	return &StoreRepository{provider: provider}, nil
}

func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if r == nil || r.provider == nil {
		return domain.Store{}, errors.New("store repository not initialised")
	}
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return domain.Store{}, errors.New("store find: id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Store{}, pfirestore.WrapError("stores.find", err)
	}

	snap, err := client.Collection(storesCollection).Doc(storeID).Get(ctx)
	if err != nil {
		return domain.Store{}, pfirestore.WrapError("stores.find", err)
	}
	var doc storeDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Store{}, fmt.Errorf("decode store %s: %w", storeID, err)
	}
	return doc.toDomain(storeID), nil
}

type storeDocument struct {
	TenantID  string    `firestore:"tenantId"`
	Name      string    `firestore:"name"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d storeDocument) toDomain(id string) domain.Store {
	return domain.Store{
		ID:        id,
		TenantID:  d.TenantID,
		Name:      d.Name,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
