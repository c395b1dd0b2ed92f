package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
)

// InMemoryPurchaseOrderRepository keeps drafted orders in process memory.
// Used when no database is configured and in tests.
type InMemoryPurchaseOrderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*inventory.PurchaseOrder
}

// NewInMemoryPurchaseOrderRepository creates an empty repository
func NewInMemoryPurchaseOrderRepository() *InMemoryPurchaseOrderRepository {
	return &InMemoryPurchaseOrderRepository{orders: make(map[uuid.UUID]*inventory.PurchaseOrder)}
}

// Save stores a copy of the order
func (r *InMemoryPurchaseOrderRepository) Save(ctx context.Context, order *inventory.PurchaseOrder) error {
	if order == nil || order.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_INPUT", "purchase order must have an ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = copyOrder(order)
	return nil
}

// FindByID returns a copy of the stored order
func (r *InMemoryPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.PurchaseOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyOrder(order), nil
}

// Len returns the number of stored orders
func (r *InMemoryPurchaseOrderRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

func copyOrder(o *inventory.PurchaseOrder) *inventory.PurchaseOrder {
	c := *o
	c.Lines = append([]inventory.PurchaseOrderLine(nil), o.Lines...)
	if o.SourceAlertID != nil {
		id := *o.SourceAlertID
		c.SourceAlertID = &id
	}
	return &c
}

var _ inventory.PurchaseOrderRepository = (*InMemoryPurchaseOrderRepository)(nil)
