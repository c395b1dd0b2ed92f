package inventory

import (
	"context"

	"github.com/kitchenops/backend/internal/domain/inventory"
	"go.uber.org/zap"
)

// OversellPolicySettingKey is the settings key holding the operator's
// preferred oversell policy
const OversellPolicySettingKey = "inventory.oversell_policy"

// SettingsReader reads operator preferences
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// PolicyResolver picks the oversell policy for a sale: the stored operator
// preference wins over the configured technical default, which wins over
// block. Values that do not parse are skipped.
type PolicyResolver struct {
	settings         SettingsReader
	technicalDefault string
	logger           *zap.Logger
}

// NewPolicyResolver creates a PolicyResolver. settings may be nil.
func NewPolicyResolver(settings SettingsReader, technicalDefault string, logger *zap.Logger) *PolicyResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PolicyResolver{
		settings:         settings,
		technicalDefault: technicalDefault,
		logger:           logger,
	}
}

// Resolve returns the effective oversell policy
func (r *PolicyResolver) Resolve(ctx context.Context) inventory.OversellPolicy {
	if r.settings != nil {
		value, ok, err := r.settings.Get(ctx, OversellPolicySettingKey)
		switch {
		case err != nil:
			r.logger.Warn("failed to read oversell policy preference", zap.Error(err))
		case ok:
			if policy, perr := inventory.ParseOversellPolicy(value); perr == nil {
				return policy
			}
			r.logger.Warn("ignoring invalid oversell policy preference",
				zap.String("value", value),
			)
		}
	}

	if r.technicalDefault != "" {
		if policy, err := inventory.ParseOversellPolicy(r.technicalDefault); err == nil {
			return policy
		}
		r.logger.Warn("ignoring invalid configured oversell policy",
			zap.String("value", r.technicalDefault),
		)
	}
	return inventory.OversellPolicyBlock
}
