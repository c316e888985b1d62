package services

import (
	"testing"

	domain "github.com/chatscai10/friedg-sub006/internal/domain"
)

func TestStoreInScope(t *testing.T) {
	cases := []struct {
		name      string
		requester Requester
		storeID   string
		want      bool
	}{
		{"tenant admin covers any store", Requester{Role: roleTenantAdmin, TenantID: "tn_1"}, "st_9", true},
		{"primary assignment", Requester{Role: roleStoreStaff, StoreID: "st_1"}, "st_1", true},
		{"secondary assignment", Requester{Role: roleStoreManager, StoreID: "st_1", StoreIDs: []string{"st_2", "st_3"}}, "st_3", true},
		{"unassigned store", Requester{Role: roleStoreStaff, StoreID: "st_1"}, "st_2", false},
		{"empty store id", Requester{Role: roleTenantAdmin}, "", false},
	}
	for _, tc := range cases {
		if got := storeInScope(tc.requester, tc.storeID); got != tc.want {
			t.Fatalf("%s: storeInScope = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanAccessOrder(t *testing.T) {
	order := domain.Order{TenantID: "tn_1", StoreID: "st_1", CustomerID: "user_1"}

	cases := []struct {
		name      string
		requester Requester
		want      bool
	}{
		{"owning customer", Requester{UID: "user_1", Role: roleCustomer}, true},
		{"other customer", Requester{UID: "user_2", Role: roleCustomer}, false},
		{"anonymous customer", Requester{Role: roleCustomer}, false},
		{"staff in scope", Requester{UID: "staff_1", Role: roleStoreStaff, TenantID: "tn_1", StoreID: "st_1"}, true},
		{"staff other store", Requester{UID: "staff_1", Role: roleStoreStaff, TenantID: "tn_1", StoreID: "st_2"}, false},
		{"staff other tenant", Requester{UID: "staff_1", Role: roleStoreStaff, TenantID: "tn_2", StoreID: "st_1"}, false},
		{"staff without tenant", Requester{UID: "staff_1", Role: roleStoreStaff, StoreID: "st_1"}, false},
		{"tenant admin", Requester{UID: "admin_1", Role: roleTenantAdmin, TenantID: "tn_1"}, true},
		{"unknown role", Requester{UID: "x", Role: "auditor"}, false},
	}
	for _, tc := range cases {
		if got := canAccessOrder(tc.requester, order); got != tc.want {
			t.Fatalf("%s: canAccessOrder = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanTransitionOrder(t *testing.T) {
	order := domain.Order{TenantID: "tn_1", StoreID: "st_1", CustomerID: "user_1", Status: domain.OrderStatusPending}
	owner := Requester{UID: "user_1", Role: roleCustomer}
	staff := Requester{UID: "staff_1", Role: roleStoreStaff, TenantID: "tn_1", StoreID: "st_1"}

	if !canTransitionOrder(owner, order, domain.OrderStatusCancelledByUser) {
		t.Fatal("owner should be able to withdraw")
	}
	if canTransitionOrder(owner, order, domain.OrderStatusConfirmed) {
		t.Fatal("customers must not drive store transitions")
	}
	if !canTransitionOrder(staff, order, domain.OrderStatusCancelledByStore) {
		t.Fatal("staff should own store-side cancellation")
	}
	if canTransitionOrder(staff, order, domain.OrderStatusCancelledByUser) {
		t.Fatal("staff must not impersonate a customer withdrawal")
	}
	stranger := Requester{UID: "user_2", Role: roleCustomer}
	if canTransitionOrder(stranger, order, domain.OrderStatusCancelledByUser) {
		t.Fatal("strangers must not cancel someone else's order")
	}
}

func TestCanManageCatalog(t *testing.T) {
	cases := []struct {
		name      string
		requester Requester
		storeID   string
		want      bool
	}{
		{"tenant admin", Requester{Role: roleTenantAdmin, TenantID: "tn_1"}, "st_1", true},
		{"tenant admin without tenant", Requester{Role: roleTenantAdmin}, "st_1", false},
		{"manager in scope", Requester{Role: roleStoreManager, TenantID: "tn_1", StoreID: "st_1"}, "st_1", true},
		{"manager out of scope", Requester{Role: roleStoreManager, TenantID: "tn_1", StoreID: "st_2"}, "st_1", false},
		{"store staff", Requester{Role: roleStoreStaff, TenantID: "tn_1", StoreID: "st_1"}, "st_1", false},
		{"customer", Requester{Role: roleCustomer}, "st_1", false},
	}
	for _, tc := range cases {
		if got := canManageCatalog(tc.requester, tc.storeID); got != tc.want {
			t.Fatalf("%s: canManageCatalog = %v, want %v", tc.name, got, tc.want)
		}
	}
}
