package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSubmitted PurchaseOrderStatus = "submitted"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// PurchaseOrderLine is one item on a purchase order
type PurchaseOrderLine struct {
	SKU       string          `json:"sku"`
	ItemName  string          `json:"item_name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PurchaseOrder is a replenishment order drafted from a reorder alert
type PurchaseOrder struct {
	shared.BaseEntity
	Number        string              `json:"number"`
	SupplierID    string              `json:"supplier_id,omitempty"`
	LocationID    string              `json:"location_id,omitempty"`
	Status        PurchaseOrderStatus `json:"status"`
	Lines         []PurchaseOrderLine `json:"lines"`
	Total         decimal.Decimal     `json:"total"`
	CreatedBy     string              `json:"created_by,omitempty"`
	SourceAlertID *uuid.UUID          `json:"source_alert_id,omitempty"`
}

// NewDraftPurchaseOrder drafts a single-line order for an alert's reorder quantity
func NewDraftPurchaseOrder(alert *ReorderAlert, unitCost decimal.Decimal, supplierID, locationID, createdBy string, at time.Time) *PurchaseOrder {
	line := PurchaseOrderLine{
		SKU:       alert.SKU,
		ItemName:  alert.ItemName,
		Quantity:  alert.ReorderQuantity,
		UnitCost:  unitCost,
		LineTotal: alert.ReorderQuantity.Mul(unitCost),
	}
	alertID := alert.ID
	po := &PurchaseOrder{
		BaseEntity:    shared.NewBaseEntityAt(at),
		SupplierID:    supplierID,
		LocationID:    locationID,
		Status:        PurchaseOrderStatusDraft,
		Lines:         []PurchaseOrderLine{line},
		Total:         line.LineTotal,
		CreatedBy:     createdBy,
		SourceAlertID: &alertID,
	}
	po.Number = purchaseOrderNumber(po.ID, at)
	return po
}

// purchaseOrderNumber builds a readable number such as PO-20250102-1a2b3c4d
func purchaseOrderNumber(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("PO-%s-%s", at.Format("20060102"), id.String()[:8])
}

// PurchaseOrderRepository stores drafted purchase orders
type PurchaseOrderRepository interface {
	Save(ctx context.Context, po *PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
}
