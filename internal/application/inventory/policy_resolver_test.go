package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"github.com/kitchenops/backend/internal/infrastructure/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPolicyResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("preference wins over configured default", func(t *testing.T) {
		reader := new(MockSettingsReader)
		reader.On("Get", mock.Anything, OversellPolicySettingKey).Return("allow_negative_alert", true, nil)

		r := NewPolicyResolver(reader, "block", zap.NewNop())
		assert.Equal(t, inventory.OversellPolicyAllowNegativeAlert, r.Resolve(ctx))
		reader.AssertExpectations(t)
	})

	t.Run("unset preference falls back to configured default", func(t *testing.T) {
		reader := new(MockSettingsReader)
		reader.On("Get", mock.Anything, OversellPolicySettingKey).Return("", false, nil)

		r := NewPolicyResolver(reader, "allow_negative_alert", zap.NewNop())
		assert.Equal(t, inventory.OversellPolicyAllowNegativeAlert, r.Resolve(ctx))
	})

	t.Run("invalid preference is skipped with a warning", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		reader := new(MockSettingsReader)
		reader.On("Get", mock.Anything, OversellPolicySettingKey).Return("yolo", true, nil)

		r := NewPolicyResolver(reader, "allow_negative_alert", zap.New(core))
		assert.Equal(t, inventory.OversellPolicyAllowNegativeAlert, r.Resolve(ctx))
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "ignoring invalid oversell policy preference", logs.All()[0].Message)
	})

	t.Run("settings error falls through", func(t *testing.T) {
		reader := new(MockSettingsReader)
		reader.On("Get", mock.Anything, OversellPolicySettingKey).Return("", false, errors.New("store down"))

		r := NewPolicyResolver(reader, "", zap.NewNop())
		assert.Equal(t, inventory.OversellPolicyBlock, r.Resolve(ctx))
	})

	t.Run("system default is block", func(t *testing.T) {
		assert.Equal(t, inventory.OversellPolicyBlock, NewPolicyResolver(nil, "", nil).Resolve(ctx))
		assert.Equal(t, inventory.OversellPolicyBlock, NewPolicyResolver(nil, "sometimes", nil).Resolve(ctx))
	})

	t.Run("works against the settings store", func(t *testing.T) {
		store := settings.NewInMemoryStore(nil)
		r := NewPolicyResolver(store, "block", nil)
		assert.Equal(t, inventory.OversellPolicyBlock, r.Resolve(ctx))

		require.NoError(t, store.Set(ctx, OversellPolicySettingKey, "ALLOW_NEGATIVE_ALERT"))
		assert.Equal(t, inventory.OversellPolicyAllowNegativeAlert, r.Resolve(ctx))
	})
}
