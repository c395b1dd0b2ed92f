package models

import (
	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for a drafted purchase order.
type PurchaseOrderModel struct {
	BaseModel
	Number        string                        `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    string                        `gorm:"type:varchar(64);index"`
	LocationID    string                        `gorm:"type:varchar(64)"`
	Status        inventory.PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	Lines         []PurchaseOrderLineModel      `gorm:"foreignKey:OrderID;references:ID"`
	Total         decimal.Decimal               `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedBy     string                        `gorm:"type:varchar(100)"`
	SourceAlertID *uuid.UUID                    `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *inventory.PurchaseOrder {
	order := &inventory.PurchaseOrder{
		BaseEntity:    m.BaseModel.ToDomain(),
		Number:        m.Number,
		SupplierID:    m.SupplierID,
		LocationID:    m.LocationID,
		Status:        m.Status,
		Total:         m.Total,
		CreatedBy:     m.CreatedBy,
		SourceAlertID: m.SourceAlertID,
		Lines:         make([]inventory.PurchaseOrderLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		order.Lines[i] = line.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *inventory.PurchaseOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.Number = o.Number
	m.SupplierID = o.SupplierID
	m.LocationID = o.LocationID
	m.Status = o.Status
	m.Total = o.Total
	m.CreatedBy = o.CreatedBy
	m.SourceAlertID = o.SourceAlertID
	m.Lines = make([]PurchaseOrderLineModel, len(o.Lines))
	for i, line := range o.Lines {
		m.Lines[i] = PurchaseOrderLineModelFromDomain(o.ID, i+1, line)
	}
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *inventory.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	return m
}

// PurchaseOrderLineModel is the persistence model for one purchase order line.
type PurchaseOrderLineModel struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo    int             `gorm:"not null"`
	SKU       string          `gorm:"type:varchar(64);not null"`
	ItemName  string          `gorm:"type:varchar(200)"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain PurchaseOrderLine.
func (m *PurchaseOrderLineModel) ToDomain() inventory.PurchaseOrderLine {
	return inventory.PurchaseOrderLine{
		SKU:       m.SKU,
		ItemName:  m.ItemName,
		Quantity:  m.Quantity,
		UnitCost:  m.UnitCost,
		LineTotal: m.LineTotal,
	}
}

// PurchaseOrderLineModelFromDomain creates a line model for an order.
func PurchaseOrderLineModelFromDomain(orderID uuid.UUID, lineNo int, l inventory.PurchaseOrderLine) PurchaseOrderLineModel {
	return PurchaseOrderLineModel{
		OrderID:   orderID,
		LineNo:    lineNo,
		SKU:       l.SKU,
		ItemName:  l.ItemName,
		Quantity:  l.Quantity,
		UnitCost:  l.UnitCost,
		LineTotal: l.LineTotal,
	}
}
