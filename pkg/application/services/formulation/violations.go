package formulation

import (
	"fmt"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ViolationKind classifies a broken invariant
type ViolationKind string

const (
	DemandViolation     ViolationKind = "demand"
	BudgetViolation     ViolationKind = "budget"
	SlackBoundViolation ViolationKind = "slack_bound"
)

// Violation is one constraint or bound broken by an assignment
type Violation struct {
	Kind       ViolationKind
	Constraint string
	Ref        entities.ItemRef
	Slot       entities.TimeSlot
	Currency   entities.CurrencyCode
	Excess     float64
}

func (v Violation) String() string {
	switch v.Kind {
	case DemandViolation:
		return fmt.Sprintf("demand violated for %s (%s off by %.2f)", v.Ref, v.Constraint, v.Excess)
	case SlackBoundViolation:
		return fmt.Sprintf("budget overrun in slot %d %s exceeds the allowed slack by %.2f", v.Slot, v.Currency, v.Excess)
	default:
		return fmt.Sprintf("budget exceeded in slot %d %s by %.2f beyond slack", v.Slot, v.Currency, v.Excess)
	}
}

const checkTolerance = 1e-6

// Check validates an assignment against every constraint and slack bound.
// Decision variables are read with the 0.5 threshold.
func (m *Model) Check(values []float64) []Violation {
	var violations []Violation

	for _, c := range m.Constraints {
		var lhs float64
		for _, t := range c.Terms {
			v := values[t.Col]
			if t.Col < len(m.Vars) {
				v = roundBinary(v)
			}
			lhs += float64(t.Coef) * v
		}
		rhs := float64(c.RHS)

		excess := lhs - rhs
		if c.Sense == Equal && excess < 0 {
			excess = -excess
		}
		if excess <= checkTolerance {
			continue
		}

		kind := BudgetViolation
		if c.Kind == DemandConstraint {
			kind = DemandViolation
		}
		violations = append(violations, Violation{
			Kind:       kind,
			Constraint: c.Name,
			Ref:        c.Ref,
			Slot:       c.Slot,
			Currency:   c.Currency,
			Excess:     excess,
		})
	}

	for i, s := range m.Slacks {
		if v := values[m.SlackCol(i)]; v > float64(s.Upper)+checkTolerance {
			violations = append(violations, Violation{
				Kind:       SlackBoundViolation,
				Constraint: fmt.Sprintf("slack_t%d_%s", s.Slot, s.Currency),
				Slot:       s.Slot,
				Currency:   s.Currency,
				Excess:     v - float64(s.Upper),
			})
		}
	}

	for _, ref := range m.Unsatisfiable {
		violations = append(violations, Violation{
			Kind:       DemandViolation,
			Constraint: "no_feasible_option",
			Ref:        ref,
			Excess:     1,
		})
	}

	return violations
}

func roundBinary(v float64) float64 {
	if v > 0.5 {
		return 1
	}
	return 0
}
