/*
stock.go - Warehouse stock allocation for a line

PURPOSE:
  Answers "how much of this item can this line draw from its warehouse?"
  and decides whether a warehouse can be chosen automatically.

TRIGGER POINTS:
  1. Item selected, no warehouse yet:
       totalStock = sum of StockMap[item] over all warehouses
       candidates = accessible warehouses with quantity > 0
       exactly one candidate -> auto-select it, stockLimit = its quantity
       otherwise             -> leave unset, stockLimit = 0
  2. Warehouse chosen/changed, or item re-selected with a warehouse set:
       stockLimit = ResolveStockLimit(item, warehouse, stock)

  3. Stock snapshot or warehouse list refreshed:
       warehouse no longer accessible -> dropped, then trigger 1
       otherwise (set or deliberately unset) -> stockLimit recomputed only

  All paths go through ResolveStockLimit; the limit is never carried over
  from a previous item/warehouse pair.

ACCESS:
  A warehouse outside the WarehouseList is never auto-selected and never
  accepted (ErrWarehouseNotAccessible).

SEE ALSO:
  - line.go: Calls the allocator from SelectItem and SelectWarehouse
  - validate.go: Re-checks quantity against stockLimit before submission
*/
package billing

import "github.com/shopspring/decimal"

// ResolveStockLimit is the single derivation of a line's stock limit.
// An unset item or warehouse has no stock.
func ResolveStockLimit(itemCode, warehouse string, stock StockMap) decimal.Decimal {
	if itemCode == "" || warehouse == "" {
		return decimal.Zero
	}
	return stock.Quantity(itemCode, warehouse)
}

// StockAllocator resolves stock for one item against the user's warehouses.
type StockAllocator struct {
	Stock      StockMap
	Warehouses WarehouseList
}

// TotalStock sums the item's quantity over every warehouse in the snapshot,
// accessible or not.
func (a StockAllocator) TotalStock(itemCode string) decimal.Decimal {
	total := decimal.Zero
	for _, qty := range a.Stock[itemCode] {
		total = total.Add(qty)
	}
	return total
}

// Candidates returns the accessible warehouses holding stock of the item,
// in WarehouseList order.
func (a StockAllocator) Candidates(itemCode string) []string {
	var out []string
	for _, wh := range a.Warehouses {
		if a.Stock.Quantity(itemCode, wh).IsPositive() {
			out = append(out, wh)
		}
	}
	return out
}

// AutoSelect picks the warehouse when exactly one accessible warehouse has
// stock. ok is false when zero or several qualify.
func (a StockAllocator) AutoSelect(itemCode string) (warehouse string, limit decimal.Decimal, ok bool) {
	candidates := a.Candidates(itemCode)
	if len(candidates) != 1 {
		return "", decimal.Zero, false
	}
	wh := candidates[0]
	return wh, ResolveStockLimit(itemCode, wh, a.Stock), true
}

// Allocate applies the item-selected trigger to a line whose ItemCode is
// already set.
func (a StockAllocator) Allocate(l Line) Line {
	l.TotalStock = a.TotalStock(l.ItemCode)
	if l.Warehouse != "" && a.Warehouses.Contains(l.Warehouse) {
		l.StockLimit = ResolveStockLimit(l.ItemCode, l.Warehouse, a.Stock)
		return l
	}
	l.Warehouse = ""
	if wh, limit, ok := a.AutoSelect(l.ItemCode); ok {
		l.Warehouse = wh
		l.StockLimit = limit
		return l
	}
	l.StockLimit = decimal.Zero
	return l
}

// Reconcile applies the refresh trigger. A warehouse the user cleared stays
// cleared; only an inaccessible one is dropped and re-allocated.
func (a StockAllocator) Reconcile(l Line) Line {
	if l.Warehouse != "" && !a.Warehouses.Contains(l.Warehouse) {
		return a.Allocate(l)
	}
	l.TotalStock = a.TotalStock(l.ItemCode)
	l.StockLimit = ResolveStockLimit(l.ItemCode, l.Warehouse, a.Stock)
	return l
}
