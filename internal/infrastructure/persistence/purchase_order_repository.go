package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements inventory.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySourceAlert returns the orders drafted from one reorder alert
func (r *GormPurchaseOrderRepository) FindBySourceAlert(ctx context.Context, alertID uuid.UUID) ([]*inventory.PurchaseOrder, error) {
	var rows []models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Where("source_alert_id = ?", alertID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	orders := make([]*inventory.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// Save creates or updates a purchase order. Lines are replaced wholesale.
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *inventory.PurchaseOrder) error {
	if order == nil || order.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "purchase order must have an ID")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)

		if err := tx.Omit("Lines").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).
			Delete(&models.PurchaseOrderLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
}

var _ inventory.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
