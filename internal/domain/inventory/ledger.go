package inventory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kitchenops/backend/internal/domain/recipe"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultLowStockThreshold is the on-hand quantity at or below which a
// mutated SKU is reported as low
var DefaultLowStockThreshold = decimal.NewFromInt(5)

// Adjustment records one SKU mutated by a sale
type Adjustment struct {
	SKU    string          `json:"sku"`
	OldQty decimal.Decimal `json:"old_qty"`
	NewQty decimal.Decimal `json:"new_qty"`
	Delta  decimal.Decimal `json:"delta"`
}

// AdjustmentReport is the outcome of applying one sale. Alerts stays nil
// when nothing noteworthy happened.
type AdjustmentReport struct {
	SaleID      string         `json:"sale_id,omitempty"`
	Policy      OversellPolicy `json:"policy"`
	Adjustments []Adjustment   `json:"adjustments"`
	Alerts      []string       `json:"alerts,omitempty"`
}

// HasAlerts reports whether the sale produced low or negative stock warnings
func (r *AdjustmentReport) HasAlerts() bool {
	return len(r.Alerts) > 0
}

// OversellError is returned when the block policy refuses a sale
type OversellError struct {
	SKU       string
	Required  decimal.Decimal
	Available decimal.Decimal
}

// Shortfall returns how much stock is missing for the failing SKU
func (e *OversellError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// Error implements the error interface
func (e *OversellError) Error() string {
	return fmt.Sprintf("oversell blocked for %s: need %s, have %s (short %s)",
		e.SKU, e.Required.String(), e.Available.String(), e.Shortfall().String())
}

// Is lets callers match the error with errors.Is(err, shared.ErrInsufficientStock)
func (e *OversellError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}

// LedgerOption configures a Ledger
type LedgerOption func(*Ledger)

// WithLowStockThreshold overrides the low-stock warning threshold
func WithLowStockThreshold(threshold decimal.Decimal) LedgerOption {
	return func(l *Ledger) {
		l.lowStockThreshold = threshold
	}
}

// Ledger holds on-hand quantity per SKU. Unknown SKUs read as zero and are
// created on first write. One mutex covers the check and the commit of a
// sale so concurrent sales cannot both pass the availability check.
type Ledger struct {
	mu                sync.Mutex
	resolver          *recipe.Resolver
	quantities        map[string]decimal.Decimal
	lowStockThreshold decimal.Decimal
}

// NewLedger creates a ledger seeded with the given quantities
func NewLedger(resolver *recipe.Resolver, initial map[string]decimal.Decimal, opts ...LedgerOption) *Ledger {
	if resolver == nil {
		resolver = recipe.NewResolver(nil)
	}
	l := &Ledger{
		resolver:          resolver,
		quantities:        make(map[string]decimal.Decimal, len(initial)),
		lowStockThreshold: DefaultLowStockThreshold,
	}
	for sku, qty := range initial {
		l.quantities[sku] = qty
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolver returns the recipe resolver used to explode sales
func (l *Ledger) Resolver() *recipe.Resolver {
	return l.resolver
}

// LowStockThreshold returns the configured low-stock threshold
func (l *Ledger) LowStockThreshold() decimal.Decimal {
	return l.lowStockThreshold
}

// GetQty returns the on-hand quantity of a SKU, zero if unknown
func (l *Ledger) GetQty(sku string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.quantities[sku]
}

// SetQty overwrites the on-hand quantity of a SKU (administrative correction)
func (l *Ledger) SetQty(sku string, qty decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quantities[sku] = qty
}

// UpdateQuantities overwrites several SKUs at once
func (l *Ledger) UpdateQuantities(quantities map[string]decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for sku, qty := range quantities {
		l.quantities[sku] = qty
	}
}

// Adjust adds delta to a SKU in one step (receipts are positive, write-offs
// negative) and returns the resulting adjustment
func (l *Ledger) Adjust(sku string, delta decimal.Decimal) Adjustment {
	l.mu.Lock()
	defer l.mu.Unlock()
	oldQty := l.quantities[sku]
	newQty := oldQty.Add(delta)
	l.quantities[sku] = newQty
	return Adjustment{SKU: sku, OldQty: oldQty, NewQty: newQty, Delta: delta}
}

// Snapshot returns a copy of every known quantity
func (l *Ledger) Snapshot() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(l.quantities))
	for sku, qty := range l.quantities {
		out[sku] = qty
	}
	return out
}

// SKUs returns every SKU the ledger has seen, sorted
func (l *Ledger) SKUs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	skus := make([]string, 0, len(l.quantities))
	for sku := range l.quantities {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// ApplySale explodes the sale into net requirements and subtracts them.
// Under OversellPolicyBlock either every SKU is mutated or none is, and an
// *OversellError names the first SKU (by SKU order) that is short. Unknown
// policies are treated as block.
func (l *Ledger) ApplySale(sale Sale, policy OversellPolicy) (*AdjustmentReport, error) {
	if !policy.IsValid() {
		policy = OversellPolicyBlock
	}
	requirements := l.resolver.ExplodeLines(sale.RecipeLines())

	l.mu.Lock()
	defer l.mu.Unlock()

	if !policy.AllowsNegative() {
		for _, req := range requirements {
			available := l.quantities[req.SKU]
			if req.Qty.GreaterThan(available) {
				return nil, &OversellError{
					SKU:       req.SKU,
					Required:  req.Qty,
					Available: available,
				}
			}
		}
	}

	report := &AdjustmentReport{
		SaleID:      sale.ID,
		Policy:      policy,
		Adjustments: make([]Adjustment, 0, len(requirements)),
	}
	for _, req := range requirements {
		oldQty := l.quantities[req.SKU]
		newQty := oldQty.Sub(req.Qty)
		l.quantities[req.SKU] = newQty

		report.Adjustments = append(report.Adjustments, Adjustment{
			SKU:    req.SKU,
			OldQty: oldQty,
			NewQty: newQty,
			Delta:  newQty.Sub(oldQty),
		})

		if alert := l.stockAlert(req.SKU, newQty, policy); alert != "" {
			report.Alerts = append(report.Alerts, alert)
		}
	}
	return report, nil
}

func (l *Ledger) stockAlert(sku string, qty decimal.Decimal, policy OversellPolicy) string {
	if qty.IsNegative() && policy.AllowsNegative() {
		return fmt.Sprintf("NEGATIVE STOCK: %s is at %s", sku, qty.String())
	}
	if !qty.IsNegative() && qty.LessThanOrEqual(l.lowStockThreshold) {
		return fmt.Sprintf("LOW STOCK: %s has %s remaining", sku, qty.String())
	}
	return ""
}
