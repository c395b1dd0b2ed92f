package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/infrastructure/event"
	"github.com/kitchenops/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventLogRepository is an append-only audit log of inventory events.
// It implements shared.EventSink.
type GormEventLogRepository struct {
	db         *gorm.DB
	serializer *event.EventSerializer
	now        func() time.Time
}

// NewGormEventLogRepository creates a new GormEventLogRepository
func NewGormEventLogRepository(db *gorm.DB, serializer *event.EventSerializer) *GormEventLogRepository {
	if serializer == nil {
		serializer = event.NewInventoryEventSerializer()
	}
	return &GormEventLogRepository{db: db, serializer: serializer, now: time.Now}
}

// Name implements shared.EventSink
func (r *GormEventLogRepository) Name() string {
	return "event_log"
}

// Append implements shared.EventSink. Appending the same event twice is a no-op.
func (r *GormEventLogRepository) Append(ctx context.Context, e shared.DomainEvent) error {
	env, err := r.serializer.Wrap(e)
	if err != nil {
		return err
	}
	model := &models.EventLogModel{
		EventID:       env.ID,
		EventType:     env.Type,
		AggregateType: env.AggregateType,
		AggregateKey:  env.AggregateKey,
		Payload:       string(env.Payload),
		OccurredAt:    env.OccurredAt,
		CreatedAt:     r.now(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(model).Error; err != nil {
		return fmt.Errorf("failed to append event %s: %w", env.Type, err)
	}
	return nil
}

// FindByAggregate returns the envelopes recorded for one aggregate, oldest first
func (r *GormEventLogRepository) FindByAggregate(ctx context.Context, aggregateType, aggregateKey string) ([]event.Envelope, error) {
	var rows []models.EventLogModel
	if err := r.db.WithContext(ctx).
		Where("aggregate_type = ? AND aggregate_key = ?", aggregateType, aggregateKey).
		Order("occurred_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEnvelopes(rows), nil
}

// FindByType returns up to limit envelopes of one event type, newest first
func (r *GormEventLogRepository) FindByType(ctx context.Context, eventType string, limit int) ([]event.Envelope, error) {
	var rows []models.EventLogModel
	query := r.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("occurred_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEnvelopes(rows), nil
}

// Count returns the number of logged events
func (r *GormEventLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.EventLogModel{}).Count(&n).Error
	return n, err
}

// Load decodes a logged envelope into its concrete event
func (r *GormEventLogRepository) Load(env event.Envelope) (shared.DomainEvent, error) {
	return r.serializer.Unwrap(env)
}

func toEnvelopes(rows []models.EventLogModel) []event.Envelope {
	out := make([]event.Envelope, len(rows))
	for i, row := range rows {
		out[i] = event.Envelope{
			ID:            row.EventID,
			Type:          row.EventType,
			AggregateType: row.AggregateType,
			AggregateKey:  row.AggregateKey,
			OccurredAt:    row.OccurredAt,
			Payload:       json.RawMessage(row.Payload),
		}
	}
	return out
}

var _ shared.EventSink = (*GormEventLogRepository)(nil)
