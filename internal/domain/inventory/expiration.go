package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultWarningWindowDays is how many days ahead the expiration scan looks
const DefaultWarningWindowDays = 7

// ExpirationAlert flags a batch that is expired or about to expire.
// Alerts are emitted on every scan while the condition holds; deduplication
// is left to whoever stores them.
type ExpirationAlert struct {
	shared.BaseEntity
	SKU                 string          `json:"sku"`
	BatchID             uuid.UUID       `json:"batch_id"`
	LotNumber           string          `json:"lot_number,omitempty"`
	LocationID          string          `json:"location_id,omitempty"`
	Quantity            decimal.Decimal `json:"quantity"`
	ValueAtRisk         decimal.Decimal `json:"value_at_risk"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	Status              AlertStatus     `json:"status"`
	UrgencyLevel        UrgencyLevel    `json:"urgency_level"`
	CreatedDate         time.Time       `json:"created_date"`
	// NewlyExpired is true only on the scan that flipped the batch to expired
	NewlyExpired bool `json:"newly_expired"`
}

// ClassifyExpirationUrgency grades days left before expiry
func ClassifyExpirationUrgency(daysUntilExpiration int) UrgencyLevel {
	switch {
	case daysUntilExpiration <= 1:
		return UrgencyCritical
	case daysUntilExpiration <= 2:
		return UrgencyHigh
	case daysUntilExpiration <= 4:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ExpirationAnalytics summarizes batch freshness and write-offs
type ExpirationAnalytics struct {
	GeneratedAt        time.Time                  `json:"generated_at"`
	WarningWindowDays  int                        `json:"warning_window_days"`
	TotalBatches       int                        `json:"total_batches"`
	ActiveBatches      int                        `json:"active_batches"`
	ExpiredBatches     int                        `json:"expired_batches"`
	ExpiringSoon       int                        `json:"expiring_soon"`
	ExpiredQuantity    decimal.Decimal            `json:"expired_quantity"`
	ExpiredValue       decimal.Decimal            `json:"expired_value"`
	ExpiringSoonValue  decimal.Decimal            `json:"expiring_soon_value"`
	TotalWasteQuantity decimal.Decimal            `json:"total_waste_quantity"`
	TotalWasteValue    decimal.Decimal            `json:"total_waste_value"`
	WasteByReason      map[string]decimal.Decimal `json:"waste_by_reason"`
}

// Consumption records one draw from one batch
type Consumption struct {
	ID               uuid.UUID       `json:"id"`
	BatchID          uuid.UUID       `json:"batch_id"`
	SKU              string          `json:"sku"`
	QuantityConsumed decimal.Decimal `json:"quantity_consumed"`
	CostPerUnit      decimal.Decimal `json:"cost_per_unit"`
	ConsumedDate     time.Time       `json:"consumed_date"`
	Reason           string          `json:"reason,omitempty"`
}

// ConsumptionResult is the outcome of ConsumeFromBatches. A shortfall is
// reported here rather than returned as an error.
type ConsumptionResult struct {
	SKU          string          `json:"sku"`
	Rotation     Rotation        `json:"rotation"`
	Requested    decimal.Decimal `json:"requested"`
	Consumed     decimal.Decimal `json:"consumed"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Consumptions []Consumption   `json:"consumptions"`
}

// FullyFulfilled returns true when nothing was missing
func (r *ConsumptionResult) FullyFulfilled() bool {
	return r.Shortfall.IsZero()
}

// WasteRecord records a write-off from a batch
type WasteRecord struct {
	ID          uuid.UUID       `json:"id"`
	BatchID     uuid.UUID       `json:"batch_id"`
	SKU         string          `json:"sku"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	WasteValue  decimal.Decimal `json:"waste_value"`
	Reason      string          `json:"reason,omitempty"`
	RecordedAt  time.Time       `json:"recorded_at"`
}
