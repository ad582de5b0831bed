package formulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/domain/entities"
)

var maxMagnitude = decimal.NewFromInt(MaxMagnitude)

// resolveUnit returns the largest divisor of scale that divides every amount, rounded to
// whole currency units, exactly
func resolveUnit(scale int64, amounts []decimal.Decimal) int64 {
	unit := scale
	for _, amount := range amounts {
		if unit == 1 {
			break
		}
		rem := amount.Round(0).Abs().Mod(decimal.NewFromInt(unit))
		unit = gcd(unit, rem.IntPart())
	}
	return unit
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// toUnits converts an amount to model units, rounding half away from zero
func toUnits(amount decimal.Decimal, unit int64) (int64, error) {
	scaled := amount.Div(decimal.NewFromInt(unit)).Round(0)
	if scaled.Abs().GreaterThan(maxMagnitude) {
		return 0, fmt.Errorf("%w: %s at unit %d", ErrModelMagnitude, amount, unit)
	}
	return scaled.IntPart(), nil
}

// budgetLimit returns the limit of a (slot, currency) group and whether a budget entry exists
func budgetLimit(ds *loader.Dataset, slot entities.TimeSlot, currency entities.CurrencyCode) (decimal.Decimal, bool) {
	if entry, ok := ds.Budget(slot, currency); ok {
		return entry.Limit.Amount(), true
	}
	return DefaultBudgetLimit, false
}

// modelUnit resolves the unit from every variable cost and every budget limit the
// variables are grouped under
func modelUnit(ds *loader.Dataset, vars []DecisionVar, scale int64) int64 {
	amounts := make([]decimal.Decimal, 0, len(vars))
	seen := make(map[budgetKey]bool)
	for i := range vars {
		amounts = append(amounts, vars[i].Cost.Amount())
		key := budgetKey{slot: vars[i].PurchaseSlot, currency: vars[i].Currency()}
		if seen[key] {
			continue
		}
		seen[key] = true
		limit, _ := budgetLimit(ds, key.slot, key.currency)
		amounts = append(amounts, limit)
	}
	return resolveUnit(scale, amounts)
}

// checkedMul returns a*b for non-negative operands, or false past MaxMagnitude
func checkedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > MaxMagnitude/b {
		return 0, false
	}
	return a * b, true
}

// checkedAdd returns a+b for non-negative operands, or false past MaxMagnitude
func checkedAdd(a, b int64) (int64, bool) {
	if a > MaxMagnitude-b {
		return 0, false
	}
	return a + b, true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// checkMagnitude verifies that the objective can be evaluated exactly for any 0/1
// selection: the sum of |coefficient| over decision variables plus, per slack, the penalty
// times the largest overrun its row can reach stays within MaxMagnitude.
func (m *Model) checkMagnitude() error {
	exceeded := func(what string) error {
		return fmt.Errorf("%w: %s at unit %d", ErrModelMagnitude, what, m.Scale)
	}

	var total int64
	for i := range m.Vars {
		var ok bool
		if total, ok = checkedAdd(total, abs64(m.Objective[i])); !ok {
			return exceeded("objective")
		}
	}

	for _, c := range m.Constraints {
		if c.Kind != BudgetConstraint || c.SlackCol < 0 {
			continue
		}
		var spend int64
		for _, t := range c.Terms {
			if t.Col < len(m.Vars) {
				spend += t.Coef
			}
		}
		over := spend - c.RHS
		if upper := int64(m.Upper(c.SlackCol)); upper > over {
			over = upper
		}
		term, ok := checkedMul(m.Objective[c.SlackCol], over)
		if ok {
			total, ok = checkedAdd(total, term)
		}
		if !ok {
			return exceeded("slack penalty in " + c.Name)
		}
	}
	return nil
}
