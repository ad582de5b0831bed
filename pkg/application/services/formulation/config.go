package formulation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// DefaultBudgetLimit stands in for a missing (slot, currency) budget entry, in currency units.
// It is large enough never to bind in practice.
var DefaultBudgetLimit = decimal.NewFromInt(1_000_000_000_000)

// ErrModelMagnitude reports a model whose coefficients, bounds or objective terms exceed
// MaxMagnitude at the chosen amount scale
var ErrModelMagnitude = errors.New("model exceeds the safe coefficient magnitude")

const (
	// DefaultAmountScale expresses amounts in thousands of the currency unit
	DefaultAmountScale = 1000
	// MaxMagnitude bounds every scaled coefficient, bound and objective term.
	// Integers up to 2^53 are exact in float64.
	MaxMagnitude int64 = 1 << 53
	// DefaultMaxTimeSlots is the horizon for items without delivery dates
	DefaultMaxTimeSlots = 12
	// DefaultFallbackMarkup values an item without revenue at its cheapest cost plus 15%
	DefaultFallbackMarkup = 1.15
)

// Config parameterizes model construction.
//
// Money amounts enter the model as integers in one model unit per model. The unit is the
// largest divisor of AmountScale that divides every cost and budget limit, rounded to whole
// currency units, exactly, so a scenario priced in hundreds keeps its resolution at scale
// 1000. When that unit would push the model past MaxMagnitude, AmountScale itself is used.
// Cost, value, budget limits and slack all use the same unit and the same rounding rule
// (half away from zero); Model.Scale records it.
type Config struct {
	MaxTimeSlots   int
	AmountScale    int64
	FallbackMarkup decimal.Decimal
	SlackFloor     int64 // minimum slack upper bound, in model units
	MinPenalty     int64 // minimum objective penalty per model unit of slack
	DemandMode     entities.DemandMode
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() Config {
	return Config{
		MaxTimeSlots:   DefaultMaxTimeSlots,
		AmountScale:    DefaultAmountScale,
		FallbackMarkup: decimal.NewFromFloat(DefaultFallbackMarkup),
		SlackFloor:     1000,
		MinPenalty:     1000,
		DemandMode:     entities.AtMostOne,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.MaxTimeSlots <= 0 {
		return fmt.Errorf("max time slots must be positive, got %d", c.MaxTimeSlots)
	}
	if c.AmountScale <= 0 {
		return fmt.Errorf("amount scale must be positive, got %d", c.AmountScale)
	}
	if c.FallbackMarkup.IsNegative() {
		return fmt.Errorf("fallback markup cannot be negative, got %s", c.FallbackMarkup)
	}
	if c.SlackFloor < 0 {
		return fmt.Errorf("slack floor cannot be negative, got %d", c.SlackFloor)
	}
	if c.MinPenalty <= 0 {
		return fmt.Errorf("minimum penalty must be positive, got %d", c.MinPenalty)
	}
	switch c.DemandMode {
	case entities.AtMostOne, entities.ExactlyOne:
	default:
		return fmt.Errorf("unknown demand mode %q", c.DemandMode)
	}
	return nil
}
