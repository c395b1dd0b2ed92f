package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeStock         = "Stock"
	AggregateTypeBatch         = "Batch"
	AggregateTypeReorderAlert  = "ReorderAlert"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

// Event type constants
const (
	EventTypeSaleApplied               = "SaleApplied"
	EventTypeOversellBlocked           = "OversellBlocked"
	EventTypeBatchReceived             = "BatchReceived"
	EventTypeBatchConsumed             = "BatchConsumed"
	EventTypeBatchWasted               = "BatchWasted"
	EventTypeBatchExpired              = "BatchExpired"
	EventTypeExpirationAlertRaised     = "ExpirationAlertRaised"
	EventTypeReorderAlertCreated       = "ReorderAlertCreated"
	EventTypeReorderAlertStatusChanged = "ReorderAlertStatusChanged"
	EventTypePurchaseOrderDrafted      = "PurchaseOrderDrafted"
)

// SaleAppliedEvent is raised after a sale mutated the ledger
type SaleAppliedEvent struct {
	shared.BaseDomainEvent
	SaleID      string         `json:"sale_id,omitempty"`
	Policy      OversellPolicy `json:"policy"`
	Adjustments []Adjustment   `json:"adjustments"`
	Alerts      []string       `json:"alerts,omitempty"`
}

// NewSaleAppliedEvent creates a new SaleAppliedEvent
func NewSaleAppliedEvent(report *AdjustmentReport, at time.Time) *SaleAppliedEvent {
	return &SaleAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeSaleApplied, AggregateTypeStock, report.SaleID, at),
		SaleID:          report.SaleID,
		Policy:          report.Policy,
		Adjustments:     report.Adjustments,
		Alerts:          report.Alerts,
	}
}

// OversellBlockedEvent is raised when the block policy refused a sale
type OversellBlockedEvent struct {
	shared.BaseDomainEvent
	SaleID    string          `json:"sale_id,omitempty"`
	SKU       string          `json:"sku"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
	Shortfall decimal.Decimal `json:"shortfall"`
}

// NewOversellBlockedEvent creates a new OversellBlockedEvent
func NewOversellBlockedEvent(saleID string, err *OversellError, at time.Time) *OversellBlockedEvent {
	return &OversellBlockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeOversellBlocked, AggregateTypeStock, err.SKU, at),
		SaleID:          saleID,
		SKU:             err.SKU,
		Required:        err.Required,
		Available:       err.Available,
		Shortfall:       err.Shortfall(),
	}
}

// BatchReceivedEvent is raised when stock is received into a batch
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID       `json:"batch_id"`
	SKU            string          `json:"sku"`
	LocationID     string          `json:"location_id,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	LotNumber      string          `json:"lot_number,omitempty"`
}

// NewBatchReceivedEvent creates a new BatchReceivedEvent
func NewBatchReceivedEvent(b *Batch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeBatchReceived, AggregateTypeBatch, b.ID.String(), b.CreatedAt),
		BatchID:         b.ID,
		SKU:             b.SKU,
		LocationID:      b.LocationID,
		Quantity:        b.InitialQuantity,
		CostPerUnit:     b.CostPerUnit,
		ExpirationDate:  b.ExpirationDate,
		LotNumber:       b.LotNumber,
	}
}

// BatchConsumedEvent is raised after a rotation draw across batches
type BatchConsumedEvent struct {
	shared.BaseDomainEvent
	SKU          string          `json:"sku"`
	Rotation     Rotation        `json:"rotation"`
	Requested    decimal.Decimal `json:"requested"`
	Consumed     decimal.Decimal `json:"consumed"`
	Shortfall    decimal.Decimal `json:"shortfall"`
	Consumptions []Consumption   `json:"consumptions"`
}

// NewBatchConsumedEvent creates a new BatchConsumedEvent
func NewBatchConsumedEvent(result *ConsumptionResult, at time.Time) *BatchConsumedEvent {
	return &BatchConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeBatchConsumed, AggregateTypeStock, result.SKU, at),
		SKU:             result.SKU,
		Rotation:        result.Rotation,
		Requested:       result.Requested,
		Consumed:        result.Consumed,
		Shortfall:       result.Shortfall,
		Consumptions:    result.Consumptions,
	}
}

// BatchWastedEvent is raised when part of a batch is written off
type BatchWastedEvent struct {
	shared.BaseDomainEvent
	Record WasteRecord `json:"record"`
}

// NewBatchWastedEvent creates a new BatchWastedEvent
func NewBatchWastedEvent(record WasteRecord) *BatchWastedEvent {
	return &BatchWastedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeBatchWasted, AggregateTypeBatch, record.BatchID.String(), record.RecordedAt),
		Record:          record,
	}
}

// BatchExpiredEvent is raised the one time a scan flips a batch to expired
type BatchExpiredEvent struct {
	shared.BaseDomainEvent
	BatchID        uuid.UUID       `json:"batch_id"`
	SKU            string          `json:"sku"`
	Quantity       decimal.Decimal `json:"quantity"`
	ValueAtRisk    decimal.Decimal `json:"value_at_risk"`
	ExpirationDate time.Time       `json:"expiration_date"`
}

// NewBatchExpiredEvent creates a new BatchExpiredEvent
func NewBatchExpiredEvent(alert ExpirationAlert) *BatchExpiredEvent {
	return &BatchExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeBatchExpired, AggregateTypeBatch, alert.BatchID.String(), alert.CreatedDate),
		BatchID:         alert.BatchID,
		SKU:             alert.SKU,
		Quantity:        alert.Quantity,
		ValueAtRisk:     alert.ValueAtRisk,
		ExpirationDate:  alert.ExpirationDate,
	}
}

// ExpirationAlertRaisedEvent carries one expiration alert
type ExpirationAlertRaisedEvent struct {
	shared.BaseDomainEvent
	Alert ExpirationAlert `json:"alert"`
}

// NewExpirationAlertRaisedEvent creates a new ExpirationAlertRaisedEvent
func NewExpirationAlertRaisedEvent(alert ExpirationAlert) *ExpirationAlertRaisedEvent {
	return &ExpirationAlertRaisedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeExpirationAlertRaised, AggregateTypeBatch, alert.BatchID.String(), alert.CreatedDate),
		Alert:           alert,
	}
}

// ReorderAlertCreatedEvent is raised when the monitor opens a reorder alert
type ReorderAlertCreatedEvent struct {
	shared.BaseDomainEvent
	Alert ReorderAlert `json:"alert"`
}

// NewReorderAlertCreatedEvent creates a new ReorderAlertCreatedEvent
func NewReorderAlertCreatedEvent(alert *ReorderAlert) *ReorderAlertCreatedEvent {
	return &ReorderAlertCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeReorderAlertCreated, AggregateTypeReorderAlert, alert.ID.String(), alert.CreatedDate),
		Alert:           *alert,
	}
}

// ReorderAlertStatusChangedEvent records an alert lifecycle transition
type ReorderAlertStatusChangedEvent struct {
	shared.BaseDomainEvent
	AlertID    uuid.UUID   `json:"alert_id"`
	SKU        string      `json:"sku"`
	FromStatus AlertStatus `json:"from_status"`
	ToStatus   AlertStatus `json:"to_status"`
	ChangedBy  string      `json:"changed_by,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// NewReorderAlertStatusChangedEvent creates a new ReorderAlertStatusChangedEvent
func NewReorderAlertStatusChangedEvent(alert *ReorderAlert, from AlertStatus, by string) *ReorderAlertStatusChangedEvent {
	return &ReorderAlertStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypeReorderAlertStatusChanged, AggregateTypeReorderAlert, alert.ID.String(), alert.UpdatedAt),
		AlertID:         alert.ID,
		SKU:             alert.SKU,
		FromStatus:      from,
		ToStatus:        alert.Status,
		ChangedBy:       by,
		Notes:           alert.Notes,
	}
}

// PurchaseOrderDraftedEvent is raised when a draft order is generated from an alert
type PurchaseOrderDraftedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	Number          string          `json:"number"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	Total           decimal.Decimal `json:"total"`
	SourceAlertID   *uuid.UUID      `json:"source_alert_id,omitempty"`
}

// NewPurchaseOrderDraftedEvent creates a new PurchaseOrderDraftedEvent
func NewPurchaseOrderDraftedEvent(po *PurchaseOrder) *PurchaseOrderDraftedEvent {
	return &PurchaseOrderDraftedEvent{
		BaseDomainEvent: shared.NewBaseDomainEventAt(EventTypePurchaseOrderDrafted, AggregateTypePurchaseOrder, po.ID.String(), po.CreatedAt),
		PurchaseOrderID: po.ID,
		Number:          po.Number,
		SupplierID:      po.SupplierID,
		Total:           po.Total,
		SourceAlertID:   po.SourceAlertID,
	}
}
