package inventory

import (
	"math"
	"time"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// BatchInfo describes a receipt of stock
type BatchInfo struct {
	Quantity       decimal.Decimal
	ReceivedDate   time.Time  // zero means "now"
	ExpirationDate *time.Time // nil for non-perishables
	CostPerUnit    decimal.Decimal
	SupplierID     string
	LotNumber      string
}

// Batch is a quantity-bearing lot of one SKU. Batches are never removed;
// a drained batch stays as a historical record with quantity zero.
type Batch struct {
	shared.BaseEntity
	SKU             string          `json:"sku"`
	LocationID      string          `json:"location_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	ReceivedDate    time.Time       `json:"received_date"`
	ExpirationDate  *time.Time      `json:"expiration_date,omitempty"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	LotNumber       string          `json:"lot_number,omitempty"`
	IsExpired       bool            `json:"is_expired"`
	ExpiredAt       *time.Time      `json:"expired_at,omitempty"`
}

// newBatch creates a batch from receipt information
func newBatch(sku, locationID string, info BatchInfo, now time.Time) *Batch {
	received := info.ReceivedDate
	if received.IsZero() {
		received = now
	}
	return &Batch{
		BaseEntity:      shared.NewBaseEntityAt(now),
		SKU:             sku,
		LocationID:      locationID,
		Quantity:        info.Quantity,
		InitialQuantity: info.Quantity,
		ReceivedDate:    received,
		ExpirationDate:  info.ExpirationDate,
		CostPerUnit:     info.CostPerUnit,
		SupplierID:      info.SupplierID,
		LotNumber:       info.LotNumber,
	}
}

// HasStock returns true if the batch still holds quantity
func (b *Batch) HasStock() bool {
	return b.Quantity.GreaterThan(decimal.Zero)
}

// IsAvailable returns true if the batch can be consumed
func (b *Batch) IsAvailable() bool {
	return b.HasStock() && !b.IsExpired
}

// Value returns the cost value of what is left in the batch
func (b *Batch) Value() decimal.Decimal {
	return b.Quantity.Mul(b.CostPerUnit)
}

// DaysUntilExpiration returns the whole days left until expiry, rounded up.
// The bool is false for batches without an expiration date.
func (b *Batch) DaysUntilExpiration(now time.Time) (int, bool) {
	if b.ExpirationDate == nil {
		return 0, false
	}
	remaining := b.ExpirationDate.Sub(now)
	return int(math.Ceil(float64(remaining) / float64(day))), true
}

// draw removes up to qty from the batch and returns what was removed.
// The batch never goes below zero.
func (b *Batch) draw(qty decimal.Decimal, at time.Time) decimal.Decimal {
	if qty.LessThanOrEqual(decimal.Zero) || !b.HasStock() {
		return decimal.Zero
	}
	taken := decimal.Min(qty, b.Quantity)
	b.Quantity = b.Quantity.Sub(taken)
	b.Touch(at)
	return taken
}

// markExpired flips the expired flag. It returns false if it was already set.
func (b *Batch) markExpired(at time.Time) bool {
	if b.IsExpired {
		return false
	}
	b.IsExpired = true
	b.ExpiredAt = &at
	b.Touch(at)
	return true
}
