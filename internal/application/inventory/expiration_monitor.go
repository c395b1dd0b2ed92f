package inventory

import (
	"context"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ExpirationMonitor runs the batch tracker's expiration scan on a schedule
// and turns its alerts into events. Alerts are re-emitted on every scan
// while a batch stays inside the warning window.
type ExpirationMonitor struct {
	tracker   *inventory.BatchTracker
	publisher shared.EventPublisher
	metrics   *telemetry.InventoryMetrics
	logger    *zap.Logger
}

// NewExpirationMonitor creates an ExpirationMonitor
func NewExpirationMonitor(tracker *inventory.BatchTracker, publisher shared.EventPublisher, logger *zap.Logger) *ExpirationMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &ExpirationMonitor{
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
	}
}

// SetMetrics sets the inventory metrics recorder
func (m *ExpirationMonitor) SetMetrics(metrics *telemetry.InventoryMetrics) {
	m.metrics = metrics
}

// Run is the scheduler entry point for Scan
func (m *ExpirationMonitor) Run(ctx context.Context) error {
	m.Scan(ctx)
	return nil
}

// Scan checks every batch once and returns the alerts of this pass
func (m *ExpirationMonitor) Scan(ctx context.Context) []inventory.ExpirationAlert {
	ctx, span := telemetry.StartServiceSpan(ctx, "expiration", "scan")
	defer span.End()

	alerts := m.tracker.CheckExpirations()

	events := make([]shared.DomainEvent, 0, len(alerts))
	newlyExpired := 0
	for _, alert := range alerts {
		m.metrics.RecordExpirationAlert(ctx, string(alert.UrgencyLevel), alert.NewlyExpired)
		if alert.NewlyExpired {
			newlyExpired++
			m.logger.Warn("batch expired",
				zap.String("sku", alert.SKU),
				zap.String("batch_id", alert.BatchID.String()),
				zap.String("quantity", alert.Quantity.String()),
				zap.String("value_at_risk", alert.ValueAtRisk.String()),
			)
			events = append(events, inventory.NewBatchExpiredEvent(alert))
		}
		events = append(events, inventory.NewExpirationAlertRaisedEvent(alert))
	}
	publishEvents(ctx, m.publisher, m.logger, events...)

	if len(alerts) > 0 {
		m.logger.Info("expiration scan completed",
			zap.Int("alerts", len(alerts)),
			zap.Int("newly_expired", newlyExpired),
		)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrAlertCount, len(alerts))
	return alerts
}

// Analytics returns the tracker's freshness and waste summary
func (m *ExpirationMonitor) Analytics() inventory.ExpirationAnalytics {
	return m.tracker.GetExpirationAnalytics()
}
