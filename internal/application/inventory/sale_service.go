// Package inventory holds the application services that drive the kitchen
// inventory core: sales against the ledger, batch receipts and write-offs,
// and the scheduled reorder and expiration monitors.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/logger"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SaleServiceConfig controls how sales touch batch stock
type SaleServiceConfig struct {
	// TrackBatches draws consumed quantities from tracked batches after the
	// ledger accepted a sale
	TrackBatches bool
	// Rotation is the batch rotation used for those draws
	Rotation inventory.Rotation
}

// DefaultSaleServiceConfig draws FIFO from batches
func DefaultSaleServiceConfig() SaleServiceConfig {
	return SaleServiceConfig{TrackBatches: true, Rotation: inventory.RotationFIFO}
}

// SaleService applies point-of-sale payloads to the inventory ledger
type SaleService struct {
	ledger    *inventory.Ledger
	tracker   *inventory.BatchTracker
	policies  *PolicyResolver
	publisher shared.EventPublisher
	metrics   *telemetry.InventoryMetrics
	logger    *zap.Logger
	config    SaleServiceConfig
	now       func() time.Time
}

// NewSaleService creates a SaleService. tracker may be nil when batches are
// not tracked; publisher may be nil when nothing listens for events.
func NewSaleService(
	ledger *inventory.Ledger,
	tracker *inventory.BatchTracker,
	policies *PolicyResolver,
	publisher shared.EventPublisher,
	config SaleServiceConfig,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policies == nil {
		policies = NewPolicyResolver(nil, "", logger)
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if !config.Rotation.IsValid() {
		config.Rotation = inventory.RotationFIFO
	}
	return &SaleService{
		ledger:    ledger,
		tracker:   tracker,
		policies:  policies,
		publisher: publisher,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// SetMetrics sets the inventory metrics recorder
func (s *SaleService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// SetClock overrides the event timestamp source
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

// ApplySale applies a sale under the currently effective oversell policy
func (s *SaleService) ApplySale(ctx context.Context, sale inventory.Sale) (*inventory.AdjustmentReport, error) {
	return s.ApplySaleWithPolicy(ctx, sale, s.policies.Resolve(ctx))
}

// ApplySaleWithPolicy applies a sale under an explicit policy. The only
// error it returns is *inventory.OversellError.
func (s *SaleService) ApplySaleWithPolicy(ctx context.Context, sale inventory.Sale, policy inventory.OversellPolicy) (*inventory.AdjustmentReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "apply",
		telemetry.WithAttribute(telemetry.SpanAttrSaleID, sale.ID),
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(sale.Lines)),
		telemetry.WithAttribute(telemetry.SpanAttrPolicy, policy.String()),
	)
	defer span.End()

	ctx, log := logger.WithSaleID(ctx, s.logger, sale.ID)
	log = logger.WithTraceContext(ctx, log)

	start := time.Now()
	report, err := s.ledger.ApplySale(sale, policy)
	if err != nil {
		var oversell *inventory.OversellError
		if errors.As(err, &oversell) {
			log.Warn("sale blocked by oversell policy",
				zap.String("sku", oversell.SKU),
				zap.String("required", oversell.Required.String()),
				zap.String("available", oversell.Available.String()),
			)
			telemetry.AddEvent(span, "oversell_blocked",
				telemetry.SpanAttrSKU, oversell.SKU,
				"required", oversell.Required.String(),
				"available", oversell.Available.String(),
			)
			s.metrics.RecordOversellBlocked(ctx, time.Since(start))
			publishEvents(ctx, s.publisher, log, inventory.NewOversellBlockedEvent(sale.ID, oversell, s.now()))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	negative := 0
	for _, adj := range report.Adjustments {
		if adj.NewQty.IsNegative() {
			negative++
		}
	}
	low := len(report.Alerts) - negative
	s.metrics.RecordSaleApplied(ctx, report.Policy.String(), low, negative, time.Since(start))

	events := []shared.DomainEvent{inventory.NewSaleAppliedEvent(report, s.now())}
	if s.config.TrackBatches && s.tracker != nil {
		events = append(events, s.drawBatches(ctx, log, sale.ID, report)...)
	}
	publishEvents(ctx, s.publisher, log, events...)

	if report.HasAlerts() {
		log.Warn("sale left stock low",
			zap.Strings("alerts", report.Alerts),
		)
	} else {
		log.Debug("sale applied", zap.Int("adjustments", len(report.Adjustments)))
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrAlertCount, len(report.Alerts))
	telemetry.SetOK(span)
	return report, nil
}

// drawBatches mirrors the ledger decrements onto tracked batches. Shortfalls
// are informational and only logged.
func (s *SaleService) drawBatches(ctx context.Context, log *zap.Logger, saleID string, report *inventory.AdjustmentReport) []shared.DomainEvent {
	reason := "sale"
	if saleID != "" {
		reason = "sale:" + saleID
	}

	var events []shared.DomainEvent
	for _, adj := range report.Adjustments {
		if !adj.Delta.IsNegative() || !s.tracker.Tracks(adj.SKU) {
			continue
		}
		result := s.tracker.ConsumeFromBatches(adj.SKU, adj.Delta.Neg(), s.config.Rotation, reason)
		s.metrics.RecordBatchConsumption(ctx, result.Rotation.String(), result.FullyFulfilled())
		if !result.FullyFulfilled() {
			log.Info("batch stock short for sale",
				zap.String("sku", adj.SKU),
				zap.String("shortfall", result.Shortfall.String()),
			)
		}
		if len(result.Consumptions) > 0 || !result.FullyFulfilled() {
			events = append(events, inventory.NewBatchConsumedEvent(result, s.now()))
		}
	}
	return events
}
