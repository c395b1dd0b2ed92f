package recipe

import (
	"fmt"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Component is one raw material drawn per single unit of a sold item
type Component struct {
	SKU string          `json:"sku" mapstructure:"sku"`
	Qty decimal.Decimal `json:"qty" mapstructure:"qty"`
}

// NewComponent creates a component from a float quantity
func NewComponent(sku string, qty float64) Component {
	return Component{SKU: sku, Qty: decimal.NewFromFloat(qty)}
}

// Requirement is the scaled quantity of a component needed to fulfil a sale
type Requirement struct {
	SKU string          `json:"sku"`
	Qty decimal.Decimal `json:"qty"`
}

// Line is the part of a sale line the resolver looks at
type Line struct {
	SKU  string
	Name string
	Qty  decimal.Decimal
}

// Table is the static recipe table keyed both by sellable SKU and by
// normalized item name. Build it fully before handing it to a Resolver;
// it is not safe for concurrent writes.
type Table struct {
	bySKU  map[string][]Component
	byName map[string][]Component
}

// NewTable creates an empty recipe table
func NewTable() *Table {
	return &Table{
		bySKU:  make(map[string][]Component),
		byName: make(map[string][]Component),
	}
}

// AddBySKU registers the recipe of a sellable SKU
func (t *Table) AddBySKU(sku string, components ...Component) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_RECIPE", "Recipe SKU cannot be empty")
	}
	if err := validateComponents(components); err != nil {
		return err
	}
	t.bySKU[sku] = append([]Component(nil), components...)
	return nil
}

// AddByName registers the recipe of a sellable item by display name
func (t *Table) AddByName(name string, components ...Component) error {
	key := NormalizeName(name)
	if key == "" {
		return shared.NewDomainError("INVALID_RECIPE", "Recipe name cannot be empty")
	}
	if err := validateComponents(components); err != nil {
		return err
	}
	t.byName[key] = append([]Component(nil), components...)
	return nil
}

// LookupSKU returns the recipe registered for an exact SKU
func (t *Table) LookupSKU(sku string) ([]Component, bool) {
	if sku == "" {
		return nil, false
	}
	components, ok := t.bySKU[sku]
	return components, ok
}

// LookupName returns the recipe registered under a name, compared
// case-insensitively after trimming
func (t *Table) LookupName(name string) ([]Component, bool) {
	key := NormalizeName(name)
	if key == "" {
		return nil, false
	}
	components, ok := t.byName[key]
	return components, ok
}

// Len returns the number of registered recipes
func (t *Table) Len() int {
	return len(t.bySKU) + len(t.byName)
}

func validateComponents(components []Component) error {
	for _, c := range components {
		if c.SKU == "" {
			return shared.NewDomainError("INVALID_RECIPE", "Component SKU cannot be empty")
		}
		if c.Qty.IsNegative() {
			return shared.NewDomainError("INVALID_RECIPE",
				fmt.Sprintf("Component %s has negative quantity %s", c.SKU, c.Qty.String()))
		}
	}
	return nil
}
