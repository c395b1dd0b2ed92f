package recipe

import (
	"sort"

	"github.com/kitchenops/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// Strategy is one step of the recipe resolution chain. Resolve returns the
// per-unit components of the line and true when the step claims the line.
type Strategy interface {
	strategy.Strategy
	Resolve(line Line) ([]Component, bool)
}

// SKUStrategy matches the line SKU exactly against the SKU-keyed table
type SKUStrategy struct {
	strategy.BaseStrategy
	table *Table
}

// NewSKUStrategy creates an exact-SKU lookup step
func NewSKUStrategy(table *Table) *SKUStrategy {
	return &SKUStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"sku_recipe",
			strategy.StrategyTypeRecipe,
			"Exact match of the sale line SKU against SKU-keyed recipes",
		),
		table: table,
	}
}

// Resolve implements Strategy
func (s *SKUStrategy) Resolve(line Line) ([]Component, bool) {
	return s.table.LookupSKU(line.SKU)
}

// NameStrategy matches the normalized line name against name-keyed recipes
type NameStrategy struct {
	strategy.BaseStrategy
	table *Table
}

// NewNameStrategy creates a normalized-name lookup step
func NewNameStrategy(table *Table) *NameStrategy {
	return &NameStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"name_recipe",
			strategy.StrategyTypeRecipe,
			"Case-insensitive, trimmed match of the sale line name against name-keyed recipes",
		),
		table: table,
	}
}

// Resolve implements Strategy
func (s *NameStrategy) Resolve(line Line) ([]Component, bool) {
	return s.table.LookupName(line.Name)
}

// DirectDrawStrategy treats the sold item itself as an inventory item.
// It always claims the line; a line with neither SKU nor name draws nothing.
type DirectDrawStrategy struct {
	strategy.BaseStrategy
}

// NewDirectDrawStrategy creates the fallback step
func NewDirectDrawStrategy() *DirectDrawStrategy {
	return &DirectDrawStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"direct_draw",
			strategy.StrategyTypeRecipe,
			"Draw the sold item directly from inventory by SKU or slugified name",
		),
	}
}

// Resolve implements Strategy
func (s *DirectDrawStrategy) Resolve(line Line) ([]Component, bool) {
	sku := line.SKU
	if sku == "" {
		sku = Slugify(line.Name)
	}
	if sku == "" {
		return nil, true
	}
	return []Component{{SKU: sku, Qty: decimal.NewFromInt(1)}}, true
}

// Resolver explodes sale lines into component requirements by walking an
// ordered chain of strategies. It holds no mutable state.
type Resolver struct {
	chain []Strategy
}

// NewResolver builds the default chain: exact SKU, then normalized name,
// then direct draw.
func NewResolver(table *Table) *Resolver {
	if table == nil {
		table = NewTable()
	}
	return NewResolverWithChain(
		NewSKUStrategy(table),
		NewNameStrategy(table),
		NewDirectDrawStrategy(),
	)
}

// NewResolverWithChain builds a resolver with a custom strategy chain
func NewResolverWithChain(chain ...Strategy) *Resolver {
	return &Resolver{chain: append([]Strategy(nil), chain...)}
}

// Chain returns the strategy names in resolution order
func (r *Resolver) Chain() []string {
	names := make([]string, len(r.chain))
	for i, s := range r.chain {
		names[i] = s.Name()
	}
	return names
}

// ExplodeLine returns the requirements of one line, each component scaled by
// the line quantity. Negative line quantities are treated as zero.
func (r *Resolver) ExplodeLine(line Line) []Requirement {
	qty := line.Qty
	if qty.IsNegative() {
		qty = decimal.Zero
	}

	for _, s := range r.chain {
		components, ok := s.Resolve(line)
		if !ok {
			continue
		}
		requirements := make([]Requirement, 0, len(components))
		for _, c := range components {
			requirements = append(requirements, Requirement{
				SKU: c.SKU,
				Qty: c.Qty.Mul(qty),
			})
		}
		return requirements
	}
	return []Requirement{}
}

// ExplodeLines explodes every line and sums the requirements per SKU. The
// result is sorted by SKU; input order has no influence on it.
func (r *Resolver) ExplodeLines(lines []Line) []Requirement {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		for _, req := range r.ExplodeLine(line) {
			totals[req.SKU] = totals[req.SKU].Add(req.Qty)
		}
	}

	skus := make([]string, 0, len(totals))
	for sku := range totals {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	requirements := make([]Requirement, 0, len(skus))
	for _, sku := range skus {
		requirements = append(requirements, Requirement{SKU: sku, Qty: totals[sku]})
	}
	return requirements
}
