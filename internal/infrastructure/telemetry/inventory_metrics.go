package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// StockLevelProvider exposes the on-hand quantities gauged by periodic
// collection. The inventory ledger satisfies it.
type StockLevelProvider interface {
	Snapshot() map[string]decimal.Decimal
	LowStockThreshold() decimal.Decimal
}

// InventoryMetrics records inventory activity. A nil *InventoryMetrics is
// valid and records nothing, so services can run without metrics.
type InventoryMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	salesApplied      *Counter
	oversellBlocked   *Counter
	stockAlerts       *Counter
	reorderAlerts     *Counter
	expirationAlerts  *Counter
	batchesExpired    *Counter
	batchConsumptions *Counter
	wasteValue        *FloatCounter
	sinkFailures      *Counter
	jobRuns           *Counter
	saleDuration      *Histogram
	jobDuration       *Histogram

	negativeSKUs *Gauge
	lowStockSKUs *Gauge

	stopChan chan struct{}
	stopOnce sync.Once
}

// InventoryMetricsConfig holds configuration for inventory metrics.
type InventoryMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewInventoryMetrics creates every instrument up front.
func NewInventoryMetrics(cfg InventoryMetricsConfig) (*InventoryMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &InventoryMetrics{
		meter:    cfg.Meter,
		logger:   logger,
		stopChan: make(chan struct{}),
	}

	counters := []struct {
		target      **Counter
		name        string
		description string
		unit        string
	}{
		{&m.salesApplied, "kitchen_sales_applied_total", "Sales applied to the inventory ledger", "{sales}"},
		{&m.oversellBlocked, "kitchen_oversell_blocked_total", "Sales rejected by the block oversell policy", "{sales}"},
		{&m.stockAlerts, "kitchen_stock_alerts_total", "Low and negative stock warnings attached to sales", "{alerts}"},
		{&m.reorderAlerts, "kitchen_reorder_alerts_total", "Reorder alerts created", "{alerts}"},
		{&m.expirationAlerts, "kitchen_expiration_alerts_total", "Expiration alerts emitted by scans", "{alerts}"},
		{&m.batchesExpired, "kitchen_batches_expired_total", "Batches flipped to expired", "{batches}"},
		{&m.batchConsumptions, "kitchen_batch_consumptions_total", "Rotation draws across batches", "{draws}"},
		{&m.sinkFailures, "kitchen_event_sink_failures_total", "Events an external sink failed to append", "{events}"},
		{&m.jobRuns, "kitchen_scheduler_job_runs_total", "Scheduled job executions", "{runs}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.description, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	m.wasteValue, err = NewFloatCounter(cfg.Meter, "kitchen_waste_value_total", "Cost value of written-off stock", "{currency}")
	if err != nil {
		return nil, err
	}
	m.saleDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "kitchen_sale_apply_duration_seconds",
		Description: "Time spent applying a sale",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.jobDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "kitchen_scheduler_job_duration_seconds",
		Description: "Duration of scheduled job runs",
		Unit:        "s",
	})
	if err != nil {
		return nil, err
	}
	m.negativeSKUs, err = NewGauge(cfg.Meter, "kitchen_stock_negative_skus", "SKUs currently below zero", "{skus}")
	if err != nil {
		return nil, err
	}
	m.lowStockSKUs, err = NewGauge(cfg.Meter, "kitchen_stock_low_skus", "SKUs at or below the low stock threshold", "{skus}")
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordSaleApplied records a committed sale and its warnings.
func (m *InventoryMetrics) RecordSaleApplied(ctx context.Context, policy string, lowAlerts, negativeAlerts int, d time.Duration) {
	if m == nil {
		return
	}
	policyAttr := AttrPolicy.String(policy)
	m.salesApplied.Inc(ctx, policyAttr, AttrOutcome.String("applied"))
	m.saleDuration.RecordDuration(ctx, d, policyAttr)
	if lowAlerts > 0 {
		m.stockAlerts.Add(ctx, int64(lowAlerts), AttrAlertKind.String("low_stock"))
	}
	if negativeAlerts > 0 {
		m.stockAlerts.Add(ctx, int64(negativeAlerts), AttrAlertKind.String("negative_stock"))
	}
}

// RecordOversellBlocked records a sale refused by the block policy.
func (m *InventoryMetrics) RecordOversellBlocked(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	policyAttr := AttrPolicy.String("block")
	m.oversellBlocked.Inc(ctx, policyAttr)
	m.salesApplied.Inc(ctx, policyAttr, AttrOutcome.String("blocked"))
	m.saleDuration.RecordDuration(ctx, d, policyAttr)
}

// RecordReorderAlert records a newly created reorder alert.
func (m *InventoryMetrics) RecordReorderAlert(ctx context.Context, urgency string) {
	if m == nil {
		return
	}
	m.reorderAlerts.Inc(ctx, AttrUrgency.String(urgency))
}

// RecordExpirationAlert records an emitted expiration alert.
func (m *InventoryMetrics) RecordExpirationAlert(ctx context.Context, urgency string, newlyExpired bool) {
	if m == nil {
		return
	}
	m.expirationAlerts.Inc(ctx, AttrUrgency.String(urgency))
	if newlyExpired {
		m.batchesExpired.Inc(ctx)
	}
}

// RecordBatchConsumption records one rotation draw.
func (m *InventoryMetrics) RecordBatchConsumption(ctx context.Context, rotation string, fulfilled bool) {
	if m == nil {
		return
	}
	outcome := "fulfilled"
	if !fulfilled {
		outcome = "shortfall"
	}
	m.batchConsumptions.Inc(ctx, AttrRotation.String(rotation), AttrOutcome.String(outcome))
}

// RecordWaste records the cost value of a write-off.
func (m *InventoryMetrics) RecordWaste(ctx context.Context, reason string, value decimal.Decimal) {
	if m == nil {
		return
	}
	m.wasteValue.Add(ctx, value.InexactFloat64(), AttrReason.String(reason))
}

// RecordSinkFailure records an event an external sink failed to append.
func (m *InventoryMetrics) RecordSinkFailure(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.Inc(ctx, AttrSink.String(sink))
}

// RecordJobRun records one scheduled job execution.
func (m *InventoryMetrics) RecordJobRun(ctx context.Context, job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	jobAttr := AttrJob.String(job)
	m.jobRuns.Inc(ctx, jobAttr, AttrOutcome.String(outcome))
	m.jobDuration.RecordDuration(ctx, d, jobAttr)
}

// RecordStockLevels gauges how many SKUs are negative and how many are low.
func (m *InventoryMetrics) RecordStockLevels(ctx context.Context, quantities map[string]decimal.Decimal, threshold decimal.Decimal) {
	if m == nil {
		return
	}
	var negative, low int64
	for _, qty := range quantities {
		switch {
		case qty.IsNegative():
			negative++
		case qty.LessThanOrEqual(threshold):
			low++
		}
	}
	m.negativeSKUs.Record(ctx, negative)
	m.lowStockSKUs.Record(ctx, low)
}

// StartPeriodicCollection gauges stock levels from provider on an interval
// until Stop is called or ctx is done.
func (m *InventoryMetrics) StartPeriodicCollection(ctx context.Context, provider StockLevelProvider, interval time.Duration) {
	if m == nil || provider == nil {
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.RecordStockLevels(ctx, provider.Snapshot(), provider.LowStockThreshold())
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopChan:
				return
			case <-ticker.C:
				m.RecordStockLevels(ctx, provider.Snapshot(), provider.LowStockThreshold())
			}
		}
	}()
	m.logger.Info("Started periodic stock level collection", zap.Duration("interval", interval))
}

// Stop stops the periodic collection.
func (m *InventoryMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewInventoryMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
