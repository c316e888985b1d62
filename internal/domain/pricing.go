package domain

// PriceTolerancePercent is the accepted drift between the price a client
// expected and the catalog's current effective price. Clients with a slightly
// stale menu still succeed; anything beyond the band must re-fetch.
const PriceTolerancePercent = 5

// EffectiveUnitPrice returns the price an order line is charged at: the
// discount price when one is set and positive, the list price otherwise.
func EffectiveUnitPrice(price int64, discountPrice *int64) int64 {
	if discountPrice != nil && *discountPrice > 0 {
		return *discountPrice
	}
	return price
}

// WithinPriceTolerance reports whether expected is within the tolerance band
// of effective. Integer arithmetic: |expected-effective|*100 <= effective*pct.
func WithinPriceTolerance(expected, effective int64) bool {
	diff := expected - effective
	if diff < 0 {
		diff = -diff
	}
	return diff*100 <= effective*PriceTolerancePercent
}

// StockStatusFor classifies a tracked stock quantity. Items without tracked
// stock are always in_stock.
func StockStatusFor(quantity *int64, lowStockThreshold int64) StockStatus {
	if quantity == nil {
		return StockStatusInStock
	}
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	switch {
	case *quantity <= 0:
		return StockStatusOutOfStock
	case *quantity < lowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// LineTotal computes the charge for a single order line.
func LineTotal(unitPrice, quantity int64) int64 {
	return unitPrice * quantity
}

// ComputeTotals folds line totals with the caller-supplied discount and tax
// amounts. Discount and tax calculation is policy outside this core; only the
// arithmetic identity totalAmount = subtotal - discount + tax lives here.
func ComputeTotals(items []OrderLineItem, discountAmount, taxAmount int64) (subtotal, total int64) {
	for _, item := range items {
		subtotal += item.LineTotal
	}
	total = subtotal - discountAmount + taxAmount
	return subtotal, total
}
