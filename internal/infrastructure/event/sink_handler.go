package event

import (
	"context"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SinkFailureFunc is called when a sink rejects an event
type SinkFailureFunc func(sink string, err error)

// SinkHandler subscribes an EventSink to the bus. Sink errors are logged
// and reported, then swallowed: sinks are mirrors, not the source of truth.
type SinkHandler struct {
	sink      shared.EventSink
	types     []string
	logger    *zap.Logger
	onFailure SinkFailureFunc
}

// NewSinkHandler wraps sink. With no eventTypes the sink sees every event.
func NewSinkHandler(sink shared.EventSink, logger *zap.Logger, onFailure SinkFailureFunc, eventTypes ...string) *SinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SinkHandler{
		sink:      sink,
		types:     eventTypes,
		logger:    logger.With(zap.String("sink", sink.Name())),
		onFailure: onFailure,
	}
}

// Handle implements shared.EventHandler
func (h *SinkHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "event.sink.append",
		telemetry.WithSpanKind(trace.SpanKindProducer),
		telemetry.WithAttribute(telemetry.SpanAttrSink, h.sink.Name()),
		telemetry.WithAttribute(telemetry.SpanAttrEventType, event.EventType()),
	)
	defer span.End()

	if err := h.sink.Append(ctx, event); err != nil {
		telemetry.RecordError(span, err)
		h.logger.Warn("event sink append failed",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err),
		)
		if h.onFailure != nil {
			h.onFailure(h.sink.Name(), err)
		}
	}
	return nil
}

// EventTypes implements shared.EventHandler
func (h *SinkHandler) EventTypes() []string {
	return h.types
}

var _ shared.EventHandler = (*SinkHandler)(nil)
