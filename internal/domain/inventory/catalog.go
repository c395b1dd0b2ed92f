package inventory

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// CatalogItem is the per-SKU configuration supplied by the item catalog.
// Optional fields are pointers; an item without both reorder fields is not
// monitored for replenishment.
type CatalogItem struct {
	SKU             string           `json:"sku" mapstructure:"sku"`
	Name            string           `json:"name" mapstructure:"name"`
	Unit            string           `json:"unit,omitempty" mapstructure:"unit"`
	ReorderPoint    *decimal.Decimal `json:"reorder_point,omitempty" mapstructure:"reorder_point"`
	ReorderQuantity *decimal.Decimal `json:"reorder_quantity,omitempty" mapstructure:"reorder_quantity"`
	LastOrderCost   *decimal.Decimal `json:"last_order_cost,omitempty" mapstructure:"last_order_cost"`
	StandardCost    *decimal.Decimal `json:"standard_cost,omitempty" mapstructure:"standard_cost"`
	SupplierID      string           `json:"supplier_id,omitempty" mapstructure:"supplier_id"`
}

// HasReorderConfig returns true when both reorder point and quantity are set
func (i CatalogItem) HasReorderConfig() bool {
	return i.ReorderPoint != nil && i.ReorderQuantity != nil
}

// EstimatedUnitCost returns the last order cost, then the standard cost,
// then zero
func (i CatalogItem) EstimatedUnitCost() decimal.Decimal {
	if i.LastOrderCost != nil {
		return *i.LastOrderCost
	}
	if i.StandardCost != nil {
		return *i.StandardCost
	}
	return decimal.Zero
}

// DisplayName falls back to the SKU when the item has no name
func (i CatalogItem) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.SKU
}

func (i CatalogItem) reorderPoint() decimal.Decimal {
	if i.ReorderPoint == nil {
		return decimal.Zero
	}
	return *i.ReorderPoint
}

func (i CatalogItem) reorderQuantity() decimal.Decimal {
	if i.ReorderQuantity == nil {
		return decimal.Zero
	}
	return *i.ReorderQuantity
}

// Catalog supplies item configuration
type Catalog interface {
	// Items returns every known item
	Items() []CatalogItem
	// Item looks up one item by SKU
	Item(sku string) (CatalogItem, bool)
}

// QuantitySource reports current on-hand quantity; *Ledger satisfies it
type QuantitySource interface {
	GetQty(sku string) decimal.Decimal
}

// StaticCatalog is an in-memory Catalog
type StaticCatalog struct {
	mu    sync.RWMutex
	items map[string]CatalogItem
}

// NewStaticCatalog creates a catalog from a list of items. Later duplicates
// replace earlier ones.
func NewStaticCatalog(items ...CatalogItem) *StaticCatalog {
	c := &StaticCatalog{items: make(map[string]CatalogItem, len(items))}
	for _, item := range items {
		c.items[item.SKU] = item
	}
	return c
}

// Put adds or replaces an item
func (c *StaticCatalog) Put(item CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.SKU] = item
}

// Items returns items sorted by SKU
func (c *StaticCatalog) Items() []CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CatalogItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Item looks up one item
func (c *StaticCatalog) Item(sku string) (CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[sku]
	return item, ok
}

// DecimalPtr is a helper for building catalog items in code
func DecimalPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}
