package inventory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReorderRecommendation is a suggested purchase for an open reorder alert
type ReorderRecommendation struct {
	AlertID             uuid.UUID              `json:"alert_id"`
	SKU                 string                 `json:"sku"`
	ItemName            string                 `json:"item_name"`
	CurrentQuantity     decimal.Decimal        `json:"current_quantity"`
	ReorderPoint        decimal.Decimal        `json:"reorder_point"`
	RecommendedQuantity decimal.Decimal        `json:"recommended_quantity"`
	UrgencyLevel        inventory.UrgencyLevel `json:"urgency_level"`
	Status              inventory.AlertStatus  `json:"status"`
	EstimatedUnitCost   decimal.Decimal        `json:"estimated_unit_cost"`
	EstimatedTotal      decimal.Decimal        `json:"estimated_total"`
	SupplierID          string                 `json:"supplier_id,omitempty"`
}

// ReorderMonitor watches catalog items against their reorder points and
// keeps the reorder alerts it raised. At most one alert per SKU is active
// at any time. Lookup misses and invalid transitions return false rather
// than errors so the monitor can run unattended.
type ReorderMonitor struct {
	mu         sync.Mutex
	catalog    inventory.Catalog
	quantities inventory.QuantitySource
	orders     inventory.PurchaseOrderRepository
	publisher  shared.EventPublisher
	metrics    *telemetry.InventoryMetrics
	logger     *zap.Logger
	now        func() time.Time

	alerts []*inventory.ReorderAlert
	byID   map[uuid.UUID]*inventory.ReorderAlert
	active map[string]*inventory.ReorderAlert
}

// NewReorderMonitor creates a ReorderMonitor. orders may be nil, in which
// case drafted orders are only published as events.
func NewReorderMonitor(
	catalog inventory.Catalog,
	quantities inventory.QuantitySource,
	orders inventory.PurchaseOrderRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ReorderMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &ReorderMonitor{
		catalog:    catalog,
		quantities: quantities,
		orders:     orders,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
		byID:       make(map[uuid.UUID]*inventory.ReorderAlert),
		active:     make(map[string]*inventory.ReorderAlert),
	}
}

// SetMetrics sets the inventory metrics recorder
func (m *ReorderMonitor) SetMetrics(metrics *telemetry.InventoryMetrics) {
	m.metrics = metrics
}

// SetClock overrides the time source
func (m *ReorderMonitor) SetClock(now func() time.Time) {
	m.now = now
}

// Run is the scheduler entry point for CheckReorderPoints
func (m *ReorderMonitor) Run(ctx context.Context) error {
	m.CheckReorderPoints(ctx)
	return nil
}

// CheckReorderPoints raises an alert for every configured item at or below
// its reorder point that has no active alert yet, and returns the new alerts.
func (m *ReorderMonitor) CheckReorderPoints(ctx context.Context) []*inventory.ReorderAlert {
	ctx, span := telemetry.StartServiceSpan(ctx, "reorder", "scan")
	defer span.End()

	items := m.catalog.Items()

	m.mu.Lock()
	now := m.now()
	var created []*inventory.ReorderAlert
	var events []shared.DomainEvent
	for _, item := range items {
		if !item.HasReorderConfig() {
			continue
		}
		if _, exists := m.active[item.SKU]; exists {
			continue
		}
		current := m.quantities.GetQty(item.SKU)
		if current.GreaterThan(*item.ReorderPoint) {
			continue
		}
		alert := inventory.NewReorderAlert(item, current, now)
		m.alerts = append(m.alerts, alert)
		m.byID[alert.ID] = alert
		m.active[item.SKU] = alert

		created = append(created, alert.Clone())
		events = append(events, inventory.NewReorderAlertCreatedEvent(alert))
	}
	m.mu.Unlock()

	for _, alert := range created {
		m.metrics.RecordReorderAlert(ctx, string(alert.UrgencyLevel))
		m.logger.Info("reorder alert created",
			zap.String("sku", alert.SKU),
			zap.String("alert_id", alert.ID.String()),
			zap.String("current_quantity", alert.CurrentQuantity.String()),
			zap.String("reorder_point", alert.ReorderPoint.String()),
			zap.String("urgency", string(alert.UrgencyLevel)),
		)
	}
	publishEvents(ctx, m.publisher, m.logger, events...)

	telemetry.SetAttribute(span, telemetry.SpanAttrAlertCount, len(created))
	return created
}

// Alerts returns copies of the alerts in creation order, optionally
// filtered by status
func (m *ReorderMonitor) Alerts(statuses ...inventory.AlertStatus) []*inventory.ReorderAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*inventory.ReorderAlert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if len(statuses) > 0 && !slices.Contains(statuses, a.Status) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

// GetAlert returns a copy of one alert
func (m *ReorderMonitor) GetAlert(id uuid.UUID) (*inventory.ReorderAlert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// ActiveAlertFor returns a copy of the active alert for a SKU
func (m *ReorderMonitor) ActiveAlertFor(sku string) (*inventory.ReorderAlert, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[sku]
	if !ok {
		return nil, false
	}
	return a.Clone(), true
}

// AcknowledgeAlert marks an active alert as seen by an operator
func (m *ReorderMonitor) AcknowledgeAlert(ctx context.Context, id uuid.UUID, by string) bool {
	return m.transition(ctx, id, by, func(a *inventory.ReorderAlert, at time.Time) error {
		return a.Acknowledge(by, at)
	})
}

// DismissAlert closes an open alert without ordering
func (m *ReorderMonitor) DismissAlert(ctx context.Context, id uuid.UUID, by, reason string) bool {
	return m.transition(ctx, id, by, func(a *inventory.ReorderAlert, at time.Time) error {
		return a.Dismiss(by, reason, at)
	})
}

func (m *ReorderMonitor) transition(ctx context.Context, id uuid.UUID, by string, apply func(*inventory.ReorderAlert, time.Time) error) bool {
	m.mu.Lock()
	alert, ok := m.byID[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Debug("reorder alert not found", zap.String("alert_id", id.String()))
		return false
	}
	from := alert.Status
	if err := apply(alert, m.now()); err != nil {
		m.mu.Unlock()
		m.logger.Debug("reorder alert transition rejected",
			zap.String("alert_id", id.String()),
			zap.String("status", string(from)),
			zap.Error(err),
		)
		return false
	}
	m.releaseLocked(alert)
	event := inventory.NewReorderAlertStatusChangedEvent(alert, from, by)
	m.mu.Unlock()

	m.logger.Info("reorder alert updated",
		zap.String("alert_id", id.String()),
		zap.String("sku", event.SKU),
		zap.String("from", string(from)),
		zap.String("to", string(event.ToStatus)),
		zap.String("by", by),
	)
	publishEvents(ctx, m.publisher, m.logger, event)
	return true
}

// GeneratePurchaseOrder drafts a purchase order for an open alert and
// resolves it together with any other open alert for the same SKU. supplierID falls back to the item's supplier. It
// returns false when the alert or its item is missing, the alert is closed,
// or the order could not be stored; the alert is left untouched then.
func (m *ReorderMonitor) GeneratePurchaseOrder(ctx context.Context, alertID uuid.UUID, supplierID, locationID, by string) (uuid.UUID, bool) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reorder", "generate_purchase_order",
		telemetry.WithAttribute(telemetry.SpanAttrAlertID, alertID.String()),
	)
	defer span.End()

	po, events, err := m.draftOrder(ctx, alertID, supplierID, locationID, by)
	if err != nil {
		telemetry.RecordError(span, err)
		m.logger.Error("failed to save purchase order",
			zap.String("alert_id", alertID.String()),
			zap.Error(err),
		)
		return uuid.Nil, false
	}
	if po == nil {
		return uuid.Nil, false
	}

	m.logger.Info("purchase order drafted",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("number", po.Number),
		zap.String("sku", po.Lines[0].SKU),
		zap.String("total", po.Total.String()),
	)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, po.ID.String(),
		telemetry.SpanAttrSKU, po.Lines[0].SKU,
	)
	publishEvents(ctx, m.publisher, m.logger, events...)
	return po.ID, true
}

// draftOrder stores the order and resolves the SKU's open alerts under one
// lock hold.
// A nil order with a nil error means there was nothing to do.
func (m *ReorderMonitor) draftOrder(ctx context.Context, alertID uuid.UUID, supplierID, locationID, by string) (*inventory.PurchaseOrder, []shared.DomainEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	alert, ok := m.byID[alertID]
	if !ok || !alert.Status.IsOpen() {
		return nil, nil, nil
	}
	item, ok := m.catalog.Item(alert.SKU)
	if !ok {
		m.logger.Warn("no catalog item for reorder alert",
			zap.String("alert_id", alertID.String()),
			zap.String("sku", alert.SKU),
		)
		return nil, nil, nil
	}
	if supplierID == "" {
		supplierID = item.SupplierID
	}

	now := m.now()
	po := inventory.NewDraftPurchaseOrder(alert, item.EstimatedUnitCost(), supplierID, locationID, by, now)
	if m.orders != nil {
		if err := m.orders.Save(ctx, po); err != nil {
			return nil, nil, err
		}
	}

	events := []shared.DomainEvent{inventory.NewPurchaseOrderDraftedEvent(po)}
	// the order covers the SKU, so every open alert for it is resolved
	for _, a := range m.alerts {
		if a.SKU != alert.SKU || !a.Status.IsOpen() {
			continue
		}
		from := a.Status
		if err := a.Resolve(by, po.ID, now); err != nil {
			return nil, nil, err
		}
		m.releaseLocked(a)
		events = append(events, inventory.NewReorderAlertStatusChangedEvent(a, from, by))
	}
	return po, events, nil
}

// GetReorderRecommendations lists one purchase suggestion per SKU with an
// open alert, taken from its newest open alert, most urgent first, then
// by SKU
func (m *ReorderMonitor) GetReorderRecommendations() []ReorderRecommendation {
	m.mu.Lock()
	newest := make(map[string]*inventory.ReorderAlert)
	for _, a := range m.alerts {
		if a.Status.IsOpen() {
			newest[a.SKU] = a
		}
	}
	open := make([]*inventory.ReorderAlert, 0, len(newest))
	for _, a := range newest {
		open = append(open, a.Clone())
	}
	m.mu.Unlock()

	recs := make([]ReorderRecommendation, 0, len(open))
	for _, a := range open {
		rec := ReorderRecommendation{
			AlertID:             a.ID,
			SKU:                 a.SKU,
			ItemName:            a.ItemName,
			CurrentQuantity:     m.quantities.GetQty(a.SKU),
			ReorderPoint:        a.ReorderPoint,
			RecommendedQuantity: a.ReorderQuantity,
			UrgencyLevel:        a.UrgencyLevel,
			Status:              a.Status,
			EstimatedUnitCost:   decimal.Zero,
		}
		if item, ok := m.catalog.Item(a.SKU); ok {
			rec.EstimatedUnitCost = item.EstimatedUnitCost()
			rec.SupplierID = item.SupplierID
		}
		rec.EstimatedTotal = rec.RecommendedQuantity.Mul(rec.EstimatedUnitCost)
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := recs[i].UrgencyLevel.Rank(), recs[j].UrgencyLevel.Rank()
		if ri != rj {
			return ri > rj
		}
		return recs[i].SKU < recs[j].SKU
	})
	return recs
}

// releaseLocked frees the SKU for a new alert once its alert left active
func (m *ReorderMonitor) releaseLocked(alert *inventory.ReorderAlert) {
	if alert.Status == inventory.AlertStatusActive {
		return
	}
	if current, ok := m.active[alert.SKU]; ok && current.ID == alert.ID {
		delete(m.active, alert.SKU)
	}
}
