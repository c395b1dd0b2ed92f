package inventory

import (
	"context"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// publishEvents hands events to the publisher. Publishing is best effort:
// a failure is logged and never undoes the in-memory change.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		telemetry.AddEvent(telemetry.SpanFromContext(ctx), "publish_failed",
			telemetry.SpanAttrEventCount, len(events),
			telemetry.SpanAttrEventType, events[0].EventType(),
		)
		logger.Warn("failed to publish events",
			zap.Int("count", len(events)),
			zap.String("first_event_type", events[0].EventType()),
			zap.Error(err),
		)
	}
}
