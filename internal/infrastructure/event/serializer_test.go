package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serializerNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestInventoryEventSerializer_RegistersAllTypes(t *testing.T) {
	s := NewInventoryEventSerializer()

	types := s.RegisteredTypes()
	assert.Len(t, types, 10)
	assert.True(t, s.IsRegistered(inventory.EventTypeSaleApplied))
	assert.True(t, s.IsRegistered(inventory.EventTypePurchaseOrderDrafted))
	assert.False(t, s.IsRegistered("Unknown"))
	assert.IsNonDecreasing(t, types)
}

func TestEventSerializer_WrapUnwrap(t *testing.T) {
	s := NewInventoryEventSerializer()

	report := &inventory.AdjustmentReport{
		SaleID: "order-42",
		Policy: inventory.OversellPolicyBlock,
		Adjustments: []inventory.Adjustment{{
			SKU:    "BUN",
			OldQty: decimal.NewFromInt(10),
			NewQty: decimal.NewFromInt(8),
			Delta:  decimal.NewFromInt(-2),
		}},
		Alerts: []string{"BUN low stock: 8"},
	}
	event := inventory.NewSaleAppliedEvent(report, serializerNow)

	env, err := s.Wrap(event)
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), env.ID)
	assert.Equal(t, inventory.EventTypeSaleApplied, env.Type)
	assert.Equal(t, inventory.AggregateTypeStock, env.AggregateType)
	assert.Equal(t, "order-42", env.AggregateKey)
	assert.True(t, serializerNow.Equal(env.OccurredAt))

	decoded, err := s.Unwrap(env)
	require.NoError(t, err)
	sale, ok := decoded.(*inventory.SaleAppliedEvent)
	require.True(t, ok)
	assert.Equal(t, "order-42", sale.SaleID)
	require.Len(t, sale.Adjustments, 1)
	assert.True(t, sale.Adjustments[0].NewQty.Equal(decimal.NewFromInt(8)))
	assert.Equal(t, report.Alerts, sale.Alerts)
}

func TestEventSerializer_EnvelopeJSON(t *testing.T) {
	s := NewInventoryEventSerializer()
	oversell := &inventory.OversellError{
		SKU:       "PATTY",
		Required:  decimal.NewFromInt(3),
		Available: decimal.NewFromInt(1),
	}
	env, err := s.Wrap(inventory.NewOversellBlockedEvent("order-7", oversell, serializerNow))
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var back Envelope
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, env.ID, back.ID)
	assert.Equal(t, "PATTY", back.AggregateKey)

	decoded, err := s.Unwrap(back)
	require.NoError(t, err)
	blocked := decoded.(*inventory.OversellBlockedEvent)
	assert.True(t, blocked.Shortfall.Equal(decimal.NewFromInt(2)))
}

func TestEventSerializer_UnknownType(t *testing.T) {
	s := NewEventSerializer()
	_, err := s.Deserialize("Nope", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestEventSerializer_BadPayload(t *testing.T) {
	s := NewInventoryEventSerializer()
	_, err := s.Deserialize(inventory.EventTypeSaleApplied, []byte(`{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}
