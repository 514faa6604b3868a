package inventory

// SalesFromDelta interprets a drop in a marketplace quantity as units sold.
// An increase (restock on the marketplace side) counts as zero sales, never negative.
func SalesFromDelta(previous, current int) int {
	if current >= previous {
		return 0
	}
	return previous - current
}

// NewQuantityAfterSales subtracts sales from the warehouse stock, flooring at zero
func NewQuantityAfterSales(warehouse, totalSales int) int {
	if totalSales >= warehouse {
		return 0
	}
	return warehouse - totalSales
}

// SalesDelta is the outcome of sales-delta accounting for one product
type SalesDelta struct {
	SalesAmazon       int
	SalesMercadoLibre int
	TotalSales        int
	NewQuantity       int
}

// ComputeSalesDelta derives per-marketplace sales and the new authoritative quantity
func ComputeSalesDelta(warehouse, prevAmazon, curAmazon, prevMeli, curMeli int) SalesDelta {
	a := SalesFromDelta(prevAmazon, curAmazon)
	b := SalesFromDelta(prevMeli, curMeli)
	return SalesDelta{
		SalesAmazon:       a,
		SalesMercadoLibre: b,
		TotalSales:        a + b,
		NewQuantity:       NewQuantityAfterSales(warehouse, a+b),
	}
}
