package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kitchenops/backend/internal/domain/shared"
	"github.com/kitchenops/backend/internal/domain/shared/strategy"
)

// Rotation selects the order in which batches are drained
type Rotation string

const (
	// RotationFIFO drains the oldest receipt first
	RotationFIFO Rotation = "FIFO"
	// RotationLIFO drains the newest receipt first
	RotationLIFO Rotation = "LIFO"
	// RotationFEFO drains the batch closest to expiry first
	RotationFEFO Rotation = "FEFO"
)

// DefaultRotation is used when a caller does not pick one
const DefaultRotation = RotationFIFO

// IsValid checks if the rotation is valid
func (r Rotation) IsValid() bool {
	switch r {
	case RotationFIFO, RotationLIFO, RotationFEFO:
		return true
	}
	return false
}

// String returns the string representation
func (r Rotation) String() string {
	return string(r)
}

// AllRotations returns all valid rotations
func AllRotations() []Rotation {
	return []Rotation{RotationFIFO, RotationLIFO, RotationFEFO}
}

// ParseRotation parses a rotation name, case-insensitively. An empty string
// yields the default rotation.
func ParseRotation(s string) (Rotation, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return DefaultRotation, nil
	}
	r := Rotation(strings.ToUpper(trimmed))
	if !r.IsValid() {
		return "", shared.NewDomainError("INVALID_ROTATION", fmt.Sprintf("Unknown rotation %q", s))
	}
	return r, nil
}

// RotationStrategy orders batches for consumption
type RotationStrategy interface {
	strategy.Strategy
	// Rotation returns the rotation implemented by the strategy
	Rotation() Rotation
	// Order returns a sorted copy of the batches; the input is not modified
	Order(batches []*Batch) []*Batch
}

// FIFORotationStrategy orders by ascending received date
type FIFORotationStrategy struct {
	strategy.BaseStrategy
}

// NewFIFORotationStrategy creates a FIFO strategy
func NewFIFORotationStrategy() *FIFORotationStrategy {
	return &FIFORotationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo_rotation",
			strategy.StrategyTypeRotation,
			"FIFO rotation - drains batches in the order they were received",
		),
	}
}

// Rotation returns RotationFIFO
func (s *FIFORotationStrategy) Rotation() Rotation {
	return RotationFIFO
}

// Order sorts batches oldest receipt first
func (s *FIFORotationStrategy) Order(batches []*Batch) []*Batch {
	sorted := copyBatches(batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReceivedDate.Before(sorted[j].ReceivedDate)
	})
	return sorted
}

// LIFORotationStrategy orders by descending received date
type LIFORotationStrategy struct {
	strategy.BaseStrategy
}

// NewLIFORotationStrategy creates a LIFO strategy
func NewLIFORotationStrategy() *LIFORotationStrategy {
	return &LIFORotationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"lifo_rotation",
			strategy.StrategyTypeRotation,
			"LIFO rotation - drains the most recently received batches first",
		),
	}
}

// Rotation returns RotationLIFO
func (s *LIFORotationStrategy) Rotation() Rotation {
	return RotationLIFO
}

// Order sorts batches newest receipt first
func (s *LIFORotationStrategy) Order(batches []*Batch) []*Batch {
	sorted := copyBatches(batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReceivedDate.After(sorted[j].ReceivedDate)
	})
	return sorted
}

// FEFORotationStrategy orders by ascending expiration date. Batches without
// an expiration date go last; ties fall back to received date.
type FEFORotationStrategy struct {
	strategy.BaseStrategy
}

// NewFEFORotationStrategy creates a FEFO strategy
func NewFEFORotationStrategy() *FEFORotationStrategy {
	return &FEFORotationStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			"fefo_rotation",
			strategy.StrategyTypeRotation,
			"FEFO rotation - drains batches closest to expiry first",
		),
	}
}

// Rotation returns RotationFEFO
func (s *FEFORotationStrategy) Rotation() Rotation {
	return RotationFEFO
}

// Order sorts batches earliest expiry first
func (s *FEFORotationStrategy) Order(batches []*Batch) []*Batch {
	sorted := copyBatches(batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.ExpirationDate != nil && b.ExpirationDate != nil:
			if !a.ExpirationDate.Equal(*b.ExpirationDate) {
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		case a.ExpirationDate != nil:
			return true
		case b.ExpirationDate != nil:
			return false
		}
		return a.ReceivedDate.Before(b.ReceivedDate)
	})
	return sorted
}

// RotationFor returns the strategy implementing a rotation, FIFO for
// unknown values
func RotationFor(r Rotation) RotationStrategy {
	switch r {
	case RotationLIFO:
		return NewLIFORotationStrategy()
	case RotationFEFO:
		return NewFEFORotationStrategy()
	default:
		return NewFIFORotationStrategy()
	}
}

func copyBatches(batches []*Batch) []*Batch {
	out := make([]*Batch, len(batches))
	copy(out, batches)
	return out
}
