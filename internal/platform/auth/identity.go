package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// Role constants used throughout the API when checking authorisation boundaries.
const (
	RoleTenantAdmin  = "tenant_admin"
	RoleStoreManager = "store_manager"
	RoleStoreStaff   = "store_staff"
	RoleCustomer     = "customer"
)

// StaffRoles lists the roles allowed to operate on store order queues.
var StaffRoles = []string{RoleTenantAdmin, RoleStoreManager, RoleStoreStaff}

// Identity captures the authenticated principal details extracted from a
// Firebase ID token, including the tenancy claims the backend scopes every
// query by.
type Identity struct {
	UID      string
	Email    string
	Role     string
	TenantID string
	StoreID  string
	StoreIDs []string

	token *firebaseauth.Token
}

// Token exposes the decoded Firebase ID token associated with this identity.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

// HasRole reports whether the identity carries the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = strings.TrimSpace(role)
	return role != "" && strings.EqualFold(i.Role, role)
}

// HasAnyRole reports whether the identity carries any of the provided roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// IsStaff reports whether the identity belongs to tenant or store personnel.
func (i *Identity) IsStaff() bool {
	return i.HasAnyRole(StaffRoles...)
}

// CanAccessStore reports whether the identity's store assignments include storeID.
// Tenant admins are scoped by tenant rather than store and always pass.
func (i *Identity) CanAccessStore(storeID string) bool {
	if i == nil || storeID == "" {
		return false
	}
	if i.HasRole(RoleTenantAdmin) {
		return true
	}
	if i.StoreID == storeID {
		return true
	}
	for _, id := range i.StoreIDs {
		if id == storeID {
			return true
		}
	}
	return false
}

type contextKey string

const identityContextKey contextKey = "github.com/chatscai10/friedg-sub006/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}
