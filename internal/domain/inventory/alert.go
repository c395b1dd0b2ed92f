package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AlertStatus is the lifecycle state shared by reorder and expiration alerts
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "active"
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	AlertStatusResolved     AlertStatus = "resolved"
	AlertStatusDismissed    AlertStatus = "dismissed"
)

// IsValid checks if the status is valid
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved, AlertStatusDismissed:
		return true
	}
	return false
}

// IsTerminal returns true for resolved and dismissed
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusResolved || s == AlertStatusDismissed
}

// IsOpen returns true while the alert still asks for action
func (s AlertStatus) IsOpen() bool {
	return s == AlertStatusActive || s == AlertStatusAcknowledged
}

// UrgencyLevel is a coarse severity attached to alerts
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Rank orders urgency levels, higher is more urgent
func (u UrgencyLevel) Rank() int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

var (
	seventyFive = decimal.NewFromInt(75)
	fifty       = decimal.NewFromInt(50)
	hundred     = decimal.NewFromInt(100)
)

// ClassifyReorderUrgency grades how far below its reorder point an item is.
// Out of stock is always critical; otherwise 75% or more below the reorder
// point is high, 50% or more is medium and anything else is low.
func ClassifyReorderUrgency(current, reorderPoint decimal.Decimal) UrgencyLevel {
	if current.LessThanOrEqual(decimal.Zero) {
		return UrgencyCritical
	}
	if reorderPoint.LessThanOrEqual(decimal.Zero) {
		return UrgencyLow
	}
	percentBelow := reorderPoint.Sub(current).Div(reorderPoint).Mul(hundred)
	switch {
	case percentBelow.GreaterThanOrEqual(seventyFive):
		return UrgencyHigh
	case percentBelow.GreaterThanOrEqual(fifty):
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// ReorderAlert signals that a SKU reached its reorder point
type ReorderAlert struct {
	shared.BaseEntity
	SKU             string          `json:"sku"`
	ItemName        string          `json:"item_name"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	ReorderPoint    decimal.Decimal `json:"reorder_point"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
	Status          AlertStatus     `json:"status"`
	UrgencyLevel    UrgencyLevel    `json:"urgency_level"`
	CreatedDate     time.Time       `json:"created_date"`
	AcknowledgedBy  string          `json:"acknowledged_by,omitempty"`
	AcknowledgedAt  *time.Time      `json:"acknowledged_at,omitempty"`
	ClosedBy        string          `json:"closed_by,omitempty"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	PurchaseOrderID *uuid.UUID      `json:"purchase_order_id,omitempty"`
}

// NewReorderAlert creates an active alert for an item at or below its reorder point
func NewReorderAlert(item CatalogItem, current decimal.Decimal, at time.Time) *ReorderAlert {
	reorderPoint := item.reorderPoint()
	return &ReorderAlert{
		BaseEntity:      shared.NewBaseEntityAt(at),
		SKU:             item.SKU,
		ItemName:        item.Name,
		CurrentQuantity: current,
		ReorderPoint:    reorderPoint,
		ReorderQuantity: item.reorderQuantity(),
		Status:          AlertStatusActive,
		UrgencyLevel:    ClassifyReorderUrgency(current, reorderPoint),
		CreatedDate:     at,
	}
}

// Acknowledge marks an active alert as seen
func (a *ReorderAlert) Acknowledge(by string, at time.Time) error {
	if a.Status != AlertStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only active alerts can be acknowledged")
	}
	a.Status = AlertStatusAcknowledged
	a.AcknowledgedBy = by
	a.AcknowledgedAt = &at
	a.Touch(at)
	return nil
}

// Dismiss closes an open alert without action
func (a *ReorderAlert) Dismiss(by, reason string, at time.Time) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Only open alerts can be dismissed")
	}
	a.Status = AlertStatusDismissed
	a.ClosedBy = by
	a.ClosedAt = &at
	if reason != "" {
		a.Notes = reason
	}
	a.Touch(at)
	return nil
}

// Resolve closes an open alert because replenishment was ordered
func (a *ReorderAlert) Resolve(by string, orderID uuid.UUID, at time.Time) error {
	if !a.Status.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Only open alerts can be resolved")
	}
	a.Status = AlertStatusResolved
	a.ClosedBy = by
	a.ClosedAt = &at
	a.PurchaseOrderID = &orderID
	a.Touch(at)
	return nil
}

// Clone returns a copy that callers may keep without racing the monitor
func (a *ReorderAlert) Clone() *ReorderAlert {
	c := *a
	return &c
}
