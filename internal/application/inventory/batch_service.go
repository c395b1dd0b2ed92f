package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BatchService receives deliveries into batches and writes off waste.
// When a ledger is attached, receipts and write-offs also move the on-hand
// quantity so the ledger and the batches stay in step.
type BatchService struct {
	tracker   *inventory.BatchTracker
	ledger    *inventory.Ledger
	publisher shared.EventPublisher
	metrics   *telemetry.InventoryMetrics
	logger    *zap.Logger
}

// NewBatchService creates a BatchService. ledger may be nil.
func NewBatchService(tracker *inventory.BatchTracker, ledger *inventory.Ledger, publisher shared.EventPublisher, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	return &BatchService{
		tracker:   tracker,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// SetMetrics sets the inventory metrics recorder
func (s *BatchService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// ReceiveBatch records a delivery and returns the new batch id
func (s *BatchService) ReceiveBatch(ctx context.Context, sku string, info inventory.BatchInfo, locationID string) (uuid.UUID, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "receive",
		telemetry.WithAttribute(telemetry.SpanAttrSKU, sku),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, info.Quantity.String()),
	)
	defer span.End()

	id, err := s.tracker.AddBatch(sku, info, locationID)
	if err != nil {
		telemetry.RecordError(span, err)
		return uuid.Nil, err
	}
	if s.ledger != nil {
		s.ledger.Adjust(sku, info.Quantity)
	}

	batch, _ := s.tracker.GetBatch(id)
	s.logger.Info("batch received",
		zap.String("sku", sku),
		zap.String("batch_id", id.String()),
		zap.String("quantity", info.Quantity.String()),
		zap.String("location_id", locationID),
	)
	publishEvents(ctx, s.publisher, s.logger, inventory.NewBatchReceivedEvent(batch))
	telemetry.SetAttribute(span, telemetry.SpanAttrBatchID, id.String())
	return id, nil
}

// WriteOff records waste against a batch, capped at what the batch holds.
// It returns false for an unknown or empty batch or a non-positive
// quantity; nothing is published then.
func (s *BatchService) WriteOff(ctx context.Context, batchID uuid.UUID, qty decimal.Decimal, reason string) (inventory.WasteRecord, bool) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "write_off",
		telemetry.WithAttribute(telemetry.SpanAttrBatchID, batchID.String()),
	)
	defer span.End()

	record, ok := s.tracker.RecordWaste(batchID, qty, reason)
	if !ok {
		return inventory.WasteRecord{}, false
	}
	if s.ledger != nil && record.Quantity.IsPositive() {
		s.ledger.Adjust(record.SKU, record.Quantity.Neg())
	}

	s.metrics.RecordWaste(ctx, reason, record.WasteValue)
	s.logger.Info("waste recorded",
		zap.String("sku", record.SKU),
		zap.String("batch_id", batchID.String()),
		zap.String("quantity", record.Quantity.String()),
		zap.String("waste_value", record.WasteValue.String()),
		zap.String("reason", reason),
	)
	publishEvents(ctx, s.publisher, s.logger, inventory.NewBatchWastedEvent(record))
	return record, true
}

// Consume draws qty from a SKU's batches outside of a sale, e.g. for staff
// meals or prep transfers. Shortfalls are reported, not raised.
func (s *BatchService) Consume(ctx context.Context, sku string, qty decimal.Decimal, rotation inventory.Rotation, reason string) *inventory.ConsumptionResult {
	result := s.tracker.ConsumeFromBatches(sku, qty, rotation, reason)
	if s.ledger != nil && result.Consumed.IsPositive() {
		s.ledger.Adjust(sku, result.Consumed.Neg())
	}
	s.metrics.RecordBatchConsumption(ctx, result.Rotation.String(), result.FullyFulfilled())
	publishEvents(ctx, s.publisher, s.logger, inventory.NewBatchConsumedEvent(result, time.Now()))
	return result
}
