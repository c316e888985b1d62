package repositories

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition signals that the requested lifecycle transition is
	// not permitted from the order's current status.
	ErrInvalidTransition = errors.New("order repository: invalid status transition")
	// ErrStatusConflict signals that the order's status changed concurrently
	// and no longer matches the caller's expectation.
	ErrStatusConflict = errors.New("order repository: expected status mismatch")
)

// PlacementErrorCode enumerates reconciliation failures during order placement.
type PlacementErrorCode string

const (
	// PlacementErrorUnknown represents an unspecified failure.
	PlacementErrorUnknown PlacementErrorCode = "placement_unknown"
	// PlacementErrorItemNotFound indicates a cart line references a missing catalog item.
	PlacementErrorItemNotFound PlacementErrorCode = "placement_item_not_found"
	// PlacementErrorTenantMismatch indicates the item belongs to another tenant or store.
	PlacementErrorTenantMismatch PlacementErrorCode = "placement_tenant_mismatch"
	// PlacementErrorItemInactive indicates the item is not currently orderable.
	PlacementErrorItemInactive PlacementErrorCode = "placement_item_inactive"
	// PlacementErrorInsufficientStock indicates requested quantity exceeds availability.
	PlacementErrorInsufficientStock PlacementErrorCode = "placement_insufficient_stock"
	// PlacementErrorPriceDrift indicates the displayed price diverged beyond tolerance.
	PlacementErrorPriceDrift PlacementErrorCode = "placement_price_drift"
)

// PlacementError wraps placement-specific failures with machine readable codes.
// Exactly one cart line is at fault; CatalogItemID identifies it.
type PlacementError struct {
	Op            string
	Code          PlacementErrorCode
	CatalogItemID string
	Message       string

	// Requested and Available are set for insufficient stock failures.
	Requested int64
	Available int64
	// ExpectedPrice and EffectivePrice are set for price drift failures.
	ExpectedPrice  int64
	EffectivePrice int64

	Err error
}

// Error implements the error interface.
func (e *PlacementError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap exposes the underlying error, if any.
func (e *PlacementError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewPlacementError constructs a typed placement error for the given cart line.
func NewPlacementError(code PlacementErrorCode, itemID, message string) *PlacementError {
	if message == "" {
		message = string(code)
	}
	return &PlacementError{
		Code:          code,
		CatalogItemID: itemID,
		Message:       message,
	}
}
