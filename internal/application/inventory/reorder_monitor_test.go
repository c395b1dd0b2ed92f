package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/infrastructure/persistence"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func reorderCatalog() *inventory.StaticCatalog {
	return inventory.NewStaticCatalog(
		inventory.CatalogItem{
			SKU:             "beef-patty",
			Name:            "Beef patty",
			ReorderPoint:    inventory.DecimalPtr(20),
			ReorderQuantity: inventory.DecimalPtr(100),
			LastOrderCost:   inventory.DecimalPtr(1.25),
			SupplierID:      "SUP-MEAT",
		},
		inventory.CatalogItem{
			SKU:             "burger-bun",
			Name:            "Burger bun",
			ReorderPoint:    inventory.DecimalPtr(40),
			ReorderQuantity: inventory.DecimalPtr(200),
			StandardCost:    inventory.DecimalPtr(0.3),
		},
		inventory.CatalogItem{
			SKU:             "lettuce",
			Name:            "Lettuce",
			ReorderPoint:    inventory.DecimalPtr(2),
			ReorderQuantity: inventory.DecimalPtr(10),
		},
		// no reorder configuration: never monitored
		inventory.CatalogItem{SKU: "salt", Name: "Salt"},
	)
}

// stocked puts every monitored SKU well above its reorder point, then
// applies the overrides
func stocked(overrides map[string]decimal.Decimal) map[string]decimal.Decimal {
	stock := map[string]decimal.Decimal{
		"beef-patty": dec(1000),
		"burger-bun": dec(1000),
		"lettuce":    dec(1000),
	}
	for sku, qty := range overrides {
		stock[sku] = qty
	}
	return stock
}

func newReorderMonitor(t *testing.T, stock map[string]decimal.Decimal, orders inventory.PurchaseOrderRepository) (*ReorderMonitor, *inventory.Ledger, *recordingPublisher) {
	t.Helper()
	ledger := inventory.NewLedger(nil, stock)
	pub := &recordingPublisher{}
	m := NewReorderMonitor(reorderCatalog(), ledger, orders, pub, zaptest.NewLogger(t))
	m.SetClock(fixedClock)
	return m, ledger, pub
}

func TestReorderMonitor_CheckReorderPoints(t *testing.T) {
	ctx := context.Background()
	m, ledger, pub := newReorderMonitor(t, map[string]decimal.Decimal{
		"beef-patty": dec(20), // at the reorder point: triggers
		"burger-bun": dec(41), // above: no alert
		"lettuce":    dec(0),  // out of stock
	}, nil)

	created := m.CheckReorderPoints(ctx)
	require.Len(t, created, 2)
	assert.Equal(t, "beef-patty", created[0].SKU)
	assert.Equal(t, inventory.UrgencyLow, created[0].UrgencyLevel)
	assert.Equal(t, inventory.AlertStatusActive, created[0].Status)
	assert.Equal(t, testNow, created[0].CreatedDate)
	assert.Equal(t, "lettuce", created[1].SKU)
	assert.Equal(t, inventory.UrgencyCritical, created[1].UrgencyLevel)

	t.Run("rescan keeps one active alert per SKU", func(t *testing.T) {
		ledger.SetQty("beef-patty", dec(2))
		assert.Empty(t, m.CheckReorderPoints(ctx))
		assert.Len(t, m.Alerts(inventory.AlertStatusActive), 2)
	})

	t.Run("run wraps the scan for the scheduler", func(t *testing.T) {
		ledger.SetQty("burger-bun", dec(10))
		require.NoError(t, m.Run(ctx))
		active, ok := m.ActiveAlertFor("burger-bun")
		require.True(t, ok)
		assert.Equal(t, inventory.UrgencyHigh, active.UrgencyLevel)
	})

	assert.Len(t, pub.ofType(inventory.EventTypeReorderAlertCreated), 3)
}

func TestReorderMonitor_AlertLifecycle(t *testing.T) {
	ctx := context.Background()
	m, _, pub := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"beef-patty": dec(5)}), nil)

	created := m.CheckReorderPoints(ctx)
	require.Len(t, created, 1)
	id := created[0].ID

	t.Run("acknowledge", func(t *testing.T) {
		require.True(t, m.AcknowledgeAlert(ctx, id, "chef"))
		alert, ok := m.GetAlert(id)
		require.True(t, ok)
		assert.Equal(t, inventory.AlertStatusAcknowledged, alert.Status)
		assert.Equal(t, "chef", alert.AcknowledgedBy)

		assert.False(t, m.AcknowledgeAlert(ctx, id, "chef"), "already acknowledged")
		_, ok = m.ActiveAlertFor("beef-patty")
		assert.False(t, ok)
	})

	t.Run("acknowledged alert does not block a new active alert", func(t *testing.T) {
		again := m.CheckReorderPoints(ctx)
		require.Len(t, again, 1)
		assert.NotEqual(t, id, again[0].ID)
		assert.Len(t, m.Alerts(inventory.AlertStatusActive), 1)
	})

	t.Run("dismiss", func(t *testing.T) {
		require.True(t, m.DismissAlert(ctx, id, "manager", "supplier holiday"))
		alert, _ := m.GetAlert(id)
		assert.Equal(t, inventory.AlertStatusDismissed, alert.Status)
		assert.Equal(t, "supplier holiday", alert.Notes)
		assert.False(t, m.DismissAlert(ctx, id, "manager", ""), "closed alerts stay closed")
	})

	t.Run("unknown alert is a no-op", func(t *testing.T) {
		assert.False(t, m.AcknowledgeAlert(ctx, uuid.New(), "chef"))
		assert.False(t, m.DismissAlert(ctx, uuid.New(), "chef", ""))
		_, ok := m.GetAlert(uuid.New())
		assert.False(t, ok)
	})

	changes := pub.ofType(inventory.EventTypeReorderAlertStatusChanged)
	require.Len(t, changes, 2)
	last := changes[1].(*inventory.ReorderAlertStatusChangedEvent)
	assert.Equal(t, inventory.AlertStatusAcknowledged, last.FromStatus)
	assert.Equal(t, inventory.AlertStatusDismissed, last.ToStatus)
}

func TestReorderMonitor_GeneratePurchaseOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("drafts an order and resolves the alert", func(t *testing.T) {
		repo := persistence.NewInMemoryPurchaseOrderRepository()
		m, _, pub := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"beef-patty": dec(4)}), repo)
		alert := m.CheckReorderPoints(ctx)[0]

		orderID, ok := m.GeneratePurchaseOrder(ctx, alert.ID, "", "MAIN", "chef")
		require.True(t, ok)

		po, err := repo.FindByID(ctx, orderID)
		require.NoError(t, err)
		assert.Equal(t, inventory.PurchaseOrderStatusDraft, po.Status)
		assert.Equal(t, "SUP-MEAT", po.SupplierID, "falls back to the item's supplier")
		assert.Equal(t, "MAIN", po.LocationID)
		require.Len(t, po.Lines, 1)
		assert.Equal(t, "100", po.Lines[0].Quantity.String())
		assert.Equal(t, "125", po.Total.String())

		resolved, _ := m.GetAlert(alert.ID)
		assert.Equal(t, inventory.AlertStatusResolved, resolved.Status)
		require.NotNil(t, resolved.PurchaseOrderID)
		assert.Equal(t, orderID, *resolved.PurchaseOrderID)

		_, ok = m.GeneratePurchaseOrder(ctx, alert.ID, "", "MAIN", "chef")
		assert.False(t, ok, "resolved alerts cannot be ordered twice")

		assert.Len(t, pub.ofType(inventory.EventTypePurchaseOrderDrafted), 1)
		assert.Len(t, pub.ofType(inventory.EventTypeReorderAlertStatusChanged), 1)
	})

	t.Run("explicit supplier and standard cost fallback", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		repo.On("Save", mock.Anything, mock.AnythingOfType("*inventory.PurchaseOrder")).Return(nil)

		m, _, _ := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"burger-bun": dec(0)}), repo)
		alert := m.CheckReorderPoints(ctx)[0]

		_, ok := m.GeneratePurchaseOrder(ctx, alert.ID, "SUP-BAKERY", "", "chef")
		require.True(t, ok)

		saved := repo.Calls[0].Arguments.Get(1).(*inventory.PurchaseOrder)
		assert.Equal(t, "SUP-BAKERY", saved.SupplierID)
		assert.Equal(t, "60", saved.Total.String())
		repo.AssertExpectations(t)
	})

	t.Run("save failure leaves the alert open", func(t *testing.T) {
		repo := new(MockPurchaseOrderRepository)
		repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		m, _, pub := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"lettuce": dec(1)}), repo)
		alert := m.CheckReorderPoints(ctx)[0]

		orderID, ok := m.GeneratePurchaseOrder(ctx, alert.ID, "", "", "chef")
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, orderID)

		still, _ := m.GetAlert(alert.ID)
		assert.Equal(t, inventory.AlertStatusActive, still.Status)
		assert.Empty(t, pub.ofType(inventory.EventTypePurchaseOrderDrafted))
	})

	t.Run("missing alert or item returns false", func(t *testing.T) {
		m, _, _ := newReorderMonitor(t, nil, nil)
		_, ok := m.GeneratePurchaseOrder(ctx, uuid.New(), "", "", "chef")
		assert.False(t, ok)

		catalog := inventory.NewStaticCatalog(inventory.CatalogItem{
			SKU:             "ghost",
			ReorderPoint:    inventory.DecimalPtr(1),
			ReorderQuantity: inventory.DecimalPtr(1),
		})
		m = NewReorderMonitor(catalog, inventory.NewLedger(nil, nil), nil, nil, nil)
		alert := m.CheckReorderPoints(ctx)[0]
		m.catalog = inventory.NewStaticCatalog()
		_, ok = m.GeneratePurchaseOrder(ctx, alert.ID, "", "", "chef")
		assert.False(t, ok)
	})
}

func TestReorderMonitor_OneOrderPerSKUAfterAcknowledge(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewInMemoryPurchaseOrderRepository()
	m, _, pub := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"beef-patty": dec(5)}), repo)

	first := m.CheckReorderPoints(ctx)[0]
	require.True(t, m.AcknowledgeAlert(ctx, first.ID, "chef"))
	second := m.CheckReorderPoints(ctx)[0]
	require.NotEqual(t, first.ID, second.ID)

	recs := m.GetReorderRecommendations()
	require.Len(t, recs, 1, "one suggestion per SKU")
	assert.Equal(t, second.ID, recs[0].AlertID)
	assert.Equal(t, inventory.AlertStatusActive, recs[0].Status)

	orderID, ok := m.GeneratePurchaseOrder(ctx, first.ID, "", "MAIN", "chef")
	require.True(t, ok)

	_, ok = m.GeneratePurchaseOrder(ctx, second.ID, "", "MAIN", "chef")
	assert.False(t, ok, "the SKU is already on order")

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		alert, _ := m.GetAlert(id)
		assert.Equal(t, inventory.AlertStatusResolved, alert.Status)
		require.NotNil(t, alert.PurchaseOrderID)
		assert.Equal(t, orderID, *alert.PurchaseOrderID)
	}
	_, ok = m.ActiveAlertFor("beef-patty")
	assert.False(t, ok)
	assert.Empty(t, m.GetReorderRecommendations())

	assert.Equal(t, 1, repo.Len())
	assert.Len(t, pub.ofType(inventory.EventTypePurchaseOrderDrafted), 1)
	// acknowledge plus two resolutions
	assert.Len(t, pub.ofType(inventory.EventTypeReorderAlertStatusChanged), 3)
}

func TestReorderMonitor_GeneratePurchaseOrderSpan(t *testing.T) {
	sr := setupTracer(t)
	ctx := context.Background()
	m, _, _ := newReorderMonitor(t, stocked(map[string]decimal.Decimal{"lettuce": dec(0)}), nil)
	alert := m.CheckReorderPoints(ctx)[0]

	orderID, ok := m.GeneratePurchaseOrder(ctx, alert.ID, "", "", "chef")
	require.True(t, ok)

	attrs := spanAttrs(endedSpan(t, sr, "reorder.generate_purchase_order").Attributes())
	assert.Equal(t, alert.ID.String(), attrs[telemetry.SpanAttrAlertID])
	assert.Equal(t, orderID.String(), attrs[telemetry.SpanAttrOrderID])
	assert.Equal(t, "lettuce", attrs[telemetry.SpanAttrSKU])
}

func TestReorderMonitor_GetReorderRecommendations(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newReorderMonitor(t, map[string]decimal.Decimal{
		"beef-patty": dec(15), // 25% below: low
		"burger-bun": dec(0),  // critical
		"lettuce":    dec(1),  // 50% below: medium
	}, nil)
	m.CheckReorderPoints(ctx)

	lettuce, _ := m.ActiveAlertFor("lettuce")
	require.True(t, m.AcknowledgeAlert(ctx, lettuce.ID, "chef"))

	recs := m.GetReorderRecommendations()
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"burger-bun", "lettuce", "beef-patty"}, []string{recs[0].SKU, recs[1].SKU, recs[2].SKU})

	assert.Equal(t, inventory.UrgencyCritical, recs[0].UrgencyLevel)
	assert.Equal(t, "60", recs[0].EstimatedTotal.String())
	assert.Equal(t, inventory.AlertStatusAcknowledged, recs[1].Status)
	assert.True(t, recs[1].EstimatedUnitCost.IsZero())
	assert.Equal(t, "SUP-MEAT", recs[2].SupplierID)
	assert.Equal(t, "125", recs[2].EstimatedTotal.String())

	require.True(t, m.DismissAlert(ctx, recs[2].AlertID, "chef", ""))
	assert.Len(t, m.GetReorderRecommendations(), 2)
}

func TestReorderMonitor_ConcurrentScansKeepOneActiveAlert(t *testing.T) {
	m, _, _ := newReorderMonitor(t, map[string]decimal.Decimal{"beef-patty": dec(0), "lettuce": dec(0)}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.CheckReorderPoints(context.Background())
		}()
	}
	wg.Wait()

	active := m.Alerts(inventory.AlertStatusActive)
	assert.Len(t, active, 3)
	seen := map[string]int{}
	for _, a := range active {
		seen[a.SKU]++
	}
	for sku, n := range seen {
		assert.Equal(t, 1, n, sku)
	}
}
