package services

import (
	domain "github.com/chatscai10/friedg-sub006/internal/domain"
)

const (
	roleTenantAdmin  = "tenant_admin"
	roleStoreManager = "store_manager"
	roleStoreStaff   = "store_staff"
	roleCustomer     = "customer"
)

func isStaffRole(role string) bool {
	switch role {
	case roleTenantAdmin, roleStoreManager, roleStoreStaff:
		return true
	}
	return false
}

// storeInScope reports whether the requester's store assignments cover storeID.
// Tenant admins are scoped by tenant, not store.
func storeInScope(r Requester, storeID string) bool {
	if storeID == "" {
		return false
	}
	if r.Role == roleTenantAdmin {
		return true
	}
	if r.StoreID == storeID {
		return true
	}
	for _, id := range r.StoreIDs {
		if id == storeID {
			return true
		}
	}
	return false
}

// canAccessOrder decides whether the requester may read the order. Customers
// see only their own orders; staff see orders of their tenant within their
// store scope.
func canAccessOrder(r Requester, order domain.Order) bool {
	if r.Role == roleCustomer {
		return r.UID != "" && order.CustomerID == r.UID
	}
	if !isStaffRole(r.Role) {
		return false
	}
	if r.TenantID == "" || order.TenantID != r.TenantID {
		return false
	}
	return storeInScope(r, order.StoreID)
}

// canTransitionOrder decides whether the requester's role permits the target
// status, independent of whether the state machine allows it. Customers may
// only withdraw their own order; staff drive every other transition including
// store-side cancellation.
func canTransitionOrder(r Requester, order domain.Order, target domain.OrderStatus) bool {
	if !canAccessOrder(r, order) {
		return false
	}
	if r.Role == roleCustomer {
		return target == domain.OrderStatusCancelledByUser
	}
	return target != domain.OrderStatusCancelledByUser
}

// canManageCatalog decides whether the requester may mutate the store's menu.
func canManageCatalog(r Requester, storeID string) bool {
	switch r.Role {
	case roleTenantAdmin:
		return r.TenantID != ""
	case roleStoreManager:
		return r.TenantID != "" && storeInScope(r, storeID)
	}
	return false
}
