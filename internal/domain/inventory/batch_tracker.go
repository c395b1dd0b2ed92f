package inventory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TrackerOption configures a BatchTracker
type TrackerOption func(*BatchTracker)

// WithClock replaces the wall clock, mostly for tests
func WithClock(now func() time.Time) TrackerOption {
	return func(t *BatchTracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithWarningWindowDays sets how many days ahead CheckExpirations warns
func WithWarningWindowDays(days int) TrackerOption {
	return func(t *BatchTracker) {
		if days >= 0 {
			t.warningWindowDays = days
		}
	}
}

// BatchTracker keeps perishable stock as batches per SKU and drains them
// according to a rotation. Shortfalls are reported, never raised.
type BatchTracker struct {
	mu                sync.RWMutex
	batches           map[uuid.UUID]*Batch
	skuBatches        map[string][]uuid.UUID
	consumptions      []Consumption
	waste             []WasteRecord
	warningWindowDays int
	now               func() time.Time
}

// NewBatchTracker creates an empty tracker
func NewBatchTracker(opts ...TrackerOption) *BatchTracker {
	t := &BatchTracker{
		batches:           make(map[uuid.UUID]*Batch),
		skuBatches:        make(map[string][]uuid.UUID),
		warningWindowDays: DefaultWarningWindowDays,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WarningWindowDays returns the configured expiration warning window
func (t *BatchTracker) WarningWindowDays() int {
	return t.warningWindowDays
}

// AddBatch registers a receipt of stock and returns the new batch id
func (t *BatchTracker) AddBatch(sku string, info BatchInfo, locationID string) (uuid.UUID, error) {
	if sku == "" {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "SKU cannot be empty")
	}
	if info.Quantity.LessThanOrEqual(decimal.Zero) {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Batch quantity must be positive")
	}
	if info.CostPerUnit.IsNegative() {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Cost per unit cannot be negative")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b := newBatch(sku, locationID, info, t.now())
	t.batches[b.ID] = b
	t.skuBatches[sku] = append(t.skuBatches[sku], b.ID)
	return b.ID, nil
}

// ConsumeFromBatches drains qty of sku from available batches in rotation
// order. Expired and empty batches are skipped.
func (t *BatchTracker) ConsumeFromBatches(sku string, qty decimal.Decimal, rotation Rotation, reason string) *ConsumptionResult {
	strat := RotationFor(rotation)
	result := &ConsumptionResult{
		SKU:          sku,
		Rotation:     strat.Rotation(),
		Requested:    qty,
		Consumed:     decimal.Zero,
		Shortfall:    decimal.Zero,
		TotalCost:    decimal.Zero,
		Consumptions: []Consumption{},
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return result
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	remaining := qty
	for _, b := range strat.Order(t.availableLocked(sku)) {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		taken := b.draw(remaining, now)
		if taken.IsZero() {
			continue
		}
		c := Consumption{
			ID:               uuid.New(),
			BatchID:          b.ID,
			SKU:              sku,
			QuantityConsumed: taken,
			CostPerUnit:      b.CostPerUnit,
			ConsumedDate:     now,
			Reason:           reason,
		}
		t.consumptions = append(t.consumptions, c)
		result.Consumptions = append(result.Consumptions, c)
		result.Consumed = result.Consumed.Add(taken)
		result.TotalCost = result.TotalCost.Add(taken.Mul(b.CostPerUnit))
		remaining = remaining.Sub(taken)
	}
	if remaining.GreaterThan(decimal.Zero) {
		result.Shortfall = remaining
	}
	return result
}

// CheckExpirations flags batches whose expiration date has passed and
// returns an alert for every stocked batch inside the warning window,
// including ones already expired. Repeated calls never re-flag a batch.
func (t *BatchTracker) CheckExpirations() []ExpirationAlert {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	alerts := make([]ExpirationAlert, 0)
	for _, sku := range t.sortedSKUsLocked() {
		for _, id := range t.skuBatches[sku] {
			b := t.batches[id]
			if !b.HasStock() {
				continue
			}
			days, ok := b.DaysUntilExpiration(now)
			if !ok {
				continue
			}
			newlyExpired := false
			if days <= 0 {
				newlyExpired = b.markExpired(now)
			}
			if days > t.warningWindowDays {
				continue
			}
			alerts = append(alerts, ExpirationAlert{
				BaseEntity:          shared.NewBaseEntityAt(now),
				SKU:                 sku,
				BatchID:             b.ID,
				LotNumber:           b.LotNumber,
				LocationID:          b.LocationID,
				Quantity:            b.Quantity,
				ValueAtRisk:         b.Value(),
				ExpirationDate:      *b.ExpirationDate,
				DaysUntilExpiration: days,
				Status:              AlertStatusActive,
				UrgencyLevel:        ClassifyExpirationUrgency(days),
				CreatedDate:         now,
				NewlyExpired:        newlyExpired,
			})
		}
	}
	return alerts
}

// MarkBatchAsWaste writes off up to qty from a batch. Requests above the
// remaining quantity are capped. It returns false and records nothing for
// an unknown or empty batch, or a non-positive quantity.
func (t *BatchTracker) MarkBatchAsWaste(batchID uuid.UUID, qty decimal.Decimal, reason string) bool {
	_, ok := t.RecordWaste(batchID, qty, reason)
	return ok
}

// RecordWaste is MarkBatchAsWaste returning the stored record
func (t *BatchTracker) RecordWaste(batchID uuid.UUID, qty decimal.Decimal, reason string) (WasteRecord, bool) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return WasteRecord{}, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.batches[batchID]
	if !ok || !b.Quantity.IsPositive() {
		return WasteRecord{}, false
	}
	now := t.now()
	wasted := b.draw(qty, now)
	record := WasteRecord{
		ID:          uuid.New(),
		BatchID:     b.ID,
		SKU:         b.SKU,
		Quantity:    wasted,
		CostPerUnit: b.CostPerUnit,
		WasteValue:  wasted.Mul(b.CostPerUnit),
		Reason:      reason,
		RecordedAt:  now,
	}
	t.waste = append(t.waste, record)
	return record, true
}

// GetExpirationAnalytics summarizes batches and waste as of now
func (t *BatchTracker) GetExpirationAnalytics() ExpirationAnalytics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	now := t.now()
	a := ExpirationAnalytics{
		GeneratedAt:        now,
		WarningWindowDays:  t.warningWindowDays,
		TotalBatches:       len(t.batches),
		ExpiredQuantity:    decimal.Zero,
		ExpiredValue:       decimal.Zero,
		ExpiringSoonValue:  decimal.Zero,
		TotalWasteQuantity: decimal.Zero,
		TotalWasteValue:    decimal.Zero,
		WasteByReason:      make(map[string]decimal.Decimal),
	}
	for _, b := range t.batches {
		if b.IsExpired {
			a.ExpiredBatches++
			a.ExpiredQuantity = a.ExpiredQuantity.Add(b.Quantity)
			a.ExpiredValue = a.ExpiredValue.Add(b.Value())
			continue
		}
		if !b.HasStock() {
			continue
		}
		a.ActiveBatches++
		if days, ok := b.DaysUntilExpiration(now); ok && days <= t.warningWindowDays {
			a.ExpiringSoon++
			a.ExpiringSoonValue = a.ExpiringSoonValue.Add(b.Value())
		}
	}
	for _, w := range t.waste {
		a.TotalWasteQuantity = a.TotalWasteQuantity.Add(w.Quantity)
		a.TotalWasteValue = a.TotalWasteValue.Add(w.WasteValue)
		reason := w.Reason
		if reason == "" {
			reason = "unspecified"
		}
		a.WasteByReason[reason] = a.WasteByReason[reason].Add(w.WasteValue)
	}
	return a
}

// GetBatch returns a copy of a batch
func (t *BatchTracker) GetBatch(batchID uuid.UUID) (*Batch, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	b, ok := t.batches[batchID]
	if !ok {
		return nil, false
	}
	c := *b
	return &c, true
}

// BatchesForSKU returns copies of every batch of a SKU in receipt order,
// drained and expired ones included
func (t *BatchTracker) BatchesForSKU(sku string) []*Batch {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := t.skuBatches[sku]
	out := make([]*Batch, 0, len(ids))
	for _, id := range ids {
		c := *t.batches[id]
		out = append(out, &c)
	}
	return out
}

// AvailableQuantity sums the consumable quantity of a SKU
func (t *BatchTracker) AvailableQuantity(sku string) decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := decimal.Zero
	for _, b := range t.availableLocked(sku) {
		total = total.Add(b.Quantity)
	}
	return total
}

// Tracks reports whether any batch was ever received for the SKU
func (t *BatchTracker) Tracks(sku string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.skuBatches[sku]) > 0
}

// Consumptions returns the consumption history
func (t *BatchTracker) Consumptions() []Consumption {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Consumption, len(t.consumptions))
	copy(out, t.consumptions)
	return out
}

// WasteRecords returns the write-off history
func (t *BatchTracker) WasteRecords() []WasteRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]WasteRecord, len(t.waste))
	copy(out, t.waste)
	return out
}

func (t *BatchTracker) availableLocked(sku string) []*Batch {
	ids := t.skuBatches[sku]
	out := make([]*Batch, 0, len(ids))
	for _, id := range ids {
		if b := t.batches[id]; b.IsAvailable() {
			out = append(out, b)
		}
	}
	return out
}

func (t *BatchTracker) sortedSKUsLocked() []string {
	skus := make([]string, 0, len(t.skuBatches))
	for sku := range t.skuBatches {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// String is used in log fields
func (r *ConsumptionResult) String() string {
	return fmt.Sprintf("%s: requested %s, consumed %s, short %s",
		r.SKU, r.Requested.String(), r.Consumed.String(), r.Shortfall.String())
}
