/*
Package factory provides JSON to Go conversion for catalog and stock data.

PURPOSE:
  Converts the catalog, stock snapshot and warehouse payloads produced by
  the external fetch layer into billing.CatalogItem, billing.StockMap and
  billing.WarehouseList values.

WHY A FACTORY?
  - The external feed mixes numbers and numeric strings ("40.50" vs 40.5)
  - Stock rows arrive flat and must be folded into item -> warehouse maps
  - Validation of required fields happens once, at the boundary

JSON SCHEMA:
  catalog:
    [{"code": "X001", "name": "Soap", "primary_unit": "PCS",
      "secondary_unit": "BOX", "multiplier": 12, "mrp": "45",
      "base_rate": 40.5, "gst_percent": 18, "pack": "12x100g"}]

  stock:
    [{"item_code": "X001", "warehouse": "A", "quantity": 50}]

  warehouses:
    ["A", "B"]

USAGE:
  f := factory.NewCatalogFactory()
  items, err := f.ParseCatalog(body)
  stock, err := f.ParseStock(body)

SEE ALSO:
  - billing/types.go: Target types
  - api/handlers.go: Uses the factory for PUT /api/catalog and GET/PUT /api/stock
*/
package factory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/invoice-engine/billing"
)

// ErrInvalidPayload is returned for structurally valid JSON that fails
// field validation.
var ErrInvalidPayload = errors.New("invalid payload")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// NumericText accepts either a JSON number or a JSON string and keeps the
// text. Null becomes empty.
type NumericText string

func (n *NumericText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericText(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("expected number or string, got %s", string(b))
	}
	*n = NumericText(num.String())
	return nil
}

// CatalogItemJSON is the JSON representation of a catalog item.
type CatalogItemJSON struct {
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	PrimaryUnit   string      `json:"primary_unit"`
	SecondaryUnit string      `json:"secondary_unit,omitempty"`
	Multiplier    NumericText `json:"multiplier,omitempty"`
	MRP           NumericText `json:"mrp,omitempty"`
	BaseRate      NumericText `json:"base_rate"`
	GSTPercent    NumericText `json:"gst_percent,omitempty"`
	Pack          string      `json:"pack,omitempty"`
}

// StockRowJSON is one item/warehouse quantity.
type StockRowJSON struct {
	ItemCode  string      `json:"item_code"`
	Warehouse string      `json:"warehouse"`
	Quantity  NumericText `json:"quantity"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// CatalogFactory converts JSON payloads to billing values.
type CatalogFactory struct{}

// NewCatalogFactory creates a new catalog factory.
func NewCatalogFactory() *CatalogFactory {
	return &CatalogFactory{}
}

// ParseCatalog parses a JSON array of catalog items.
func (f *CatalogFactory) ParseCatalog(data []byte) ([]billing.CatalogItem, error) {
	var rows []CatalogItemJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return f.CatalogFromJSON(rows)
}

// CatalogFromJSON validates rows and converts them. Codes must be unique.
func (f *CatalogFactory) CatalogFromJSON(rows []CatalogItemJSON) ([]billing.CatalogItem, error) {
	seen := make(map[string]bool, len(rows))
	items := make([]billing.CatalogItem, 0, len(rows))
	for i, r := range rows {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: catalog row %d has no code", ErrInvalidPayload, i)
		}
		if r.PrimaryUnit == "" {
			return nil, fmt.Errorf("%w: item %s has no primary unit", ErrInvalidPayload, code)
		}
		if seen[code] {
			return nil, fmt.Errorf("%w: duplicate item code %s", ErrInvalidPayload, code)
		}
		seen[code] = true
		items = append(items, billing.CatalogItem{
			Code:          code,
			Name:          r.Name,
			PrimaryUnit:   r.PrimaryUnit,
			SecondaryUnit: r.SecondaryUnit,
			Multiplier:    string(r.Multiplier),
			MRP:           string(r.MRP),
			BaseRate:      string(r.BaseRate),
			GSTPercent:    string(r.GSTPercent),
			Pack:          r.Pack,
		})
	}
	return items, nil
}

// CatalogToJSON converts a catalog item back to its JSON form.
func (f *CatalogFactory) CatalogToJSON(item billing.CatalogItem) CatalogItemJSON {
	return CatalogItemJSON{
		Code:          item.Code,
		Name:          item.Name,
		PrimaryUnit:   item.PrimaryUnit,
		SecondaryUnit: item.SecondaryUnit,
		Multiplier:    NumericText(item.Multiplier),
		MRP:           NumericText(item.MRP),
		BaseRate:      NumericText(item.BaseRate),
		GSTPercent:    NumericText(item.GSTPercent),
		Pack:          item.Pack,
	}
}

// ParseStock parses a JSON array of stock rows.
func (f *CatalogFactory) ParseStock(data []byte) (billing.StockMap, error) {
	var rows []StockRowJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse stock JSON: %w", err)
	}
	return f.StockFromJSON(rows)
}

// StockFromJSON folds rows into a StockMap. Repeated item/warehouse pairs
// are summed; unparsable quantities count as zero.
func (f *CatalogFactory) StockFromJSON(rows []StockRowJSON) (billing.StockMap, error) {
	stock := make(billing.StockMap)
	for i, r := range rows {
		if r.ItemCode == "" || r.Warehouse == "" {
			return nil, fmt.Errorf("%w: stock row %d needs item_code and warehouse", ErrInvalidPayload, i)
		}
		byWarehouse, ok := stock[r.ItemCode]
		if !ok {
			byWarehouse = make(map[string]decimal.Decimal)
			stock[r.ItemCode] = byWarehouse
		}
		qty := billing.ParseNumber(string(r.Quantity))
		byWarehouse[r.Warehouse] = byWarehouse[r.Warehouse].Add(qty)
	}
	return stock, nil
}

// StockToJSON flattens a StockMap into rows ordered by item, then
// warehouse. The result is never nil.
func (f *CatalogFactory) StockToJSON(stock billing.StockMap) []StockRowJSON {
	rows := []StockRowJSON{}
	for item, byWarehouse := range stock {
		for wh, qty := range byWarehouse {
			rows = append(rows, StockRowJSON{ItemCode: item, Warehouse: wh, Quantity: NumericText(qty.String())})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ItemCode != rows[j].ItemCode {
			return rows[i].ItemCode < rows[j].ItemCode
		}
		return rows[i].Warehouse < rows[j].Warehouse
	})
	return rows
}

// ParseWarehouses parses a JSON array of warehouse codes, dropping blanks
// and duplicates while keeping order.
func (f *CatalogFactory) ParseWarehouses(data []byte) (billing.WarehouseList, error) {
	var codes []string
	if err := json.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("failed to parse warehouses JSON: %w", err)
	}
	return f.WarehousesFrom(codes), nil
}

// WarehousesFrom normalises a list of codes.
func (f *CatalogFactory) WarehousesFrom(codes []string) billing.WarehouseList {
	seen := make(map[string]bool, len(codes))
	out := make(billing.WarehouseList, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
