package formulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// VarKey identifies a decision variable: buy item via option for delivery at slot
type VarKey struct {
	ProjectID    entities.ProjectID
	ItemCode     entities.ItemCode
	OptionID     entities.OptionID
	DeliverySlot entities.TimeSlot
}

// Ref returns the item the variable belongs to
func (k VarKey) Ref() entities.ItemRef {
	return entities.ItemRef{ProjectID: k.ProjectID, ItemCode: k.ItemCode}
}

func (k VarKey) String() string {
	return fmt.Sprintf("%d/%s/opt%d@t%d", k.ProjectID, k.ItemCode, k.OptionID, k.DeliverySlot)
}

// DecisionVar is a 0/1 column of the model. Amounts are in the option's currency.
type DecisionVar struct {
	Index        int
	Key          VarKey
	PurchaseSlot entities.TimeSlot
	Item         *entities.ProjectItem
	Option       *entities.ProcurementOption
	Quantity     entities.Quantity
	UnitCost     entities.Money // effective unit cost
	Cost         entities.Money // effective unit cost times quantity
	Value        decimal.Decimal
	ScaledCost   int64
	ScaledValue  int64
	CostWeight   float64
	ValueWeight  float64
}

// Currency returns the currency the variable spends in
func (v *DecisionVar) Currency() entities.CurrencyCode {
	return v.Option.Currency()
}

// SlackVar absorbs overrun of one (slot, currency) budget; bounded by [0, Upper]
type SlackVar struct {
	Index    int
	Slot     entities.TimeSlot
	Currency entities.CurrencyCode
	Upper    int64
}

// Sense of a linear constraint
type Sense int

const (
	LessEqual Sense = iota
	Equal
)

func (s Sense) String() string {
	if s == Equal {
		return "="
	}
	return "<="
}

// ConstraintKind tells demand rows from budget rows
type ConstraintKind string

const (
	DemandConstraint ConstraintKind = "demand"
	BudgetConstraint ConstraintKind = "budget"
)

// Term is coefficient times column; columns index decision variables first, then slacks
type Term struct {
	Col  int
	Coef int64
}

// Constraint is a linear row over model columns
type Constraint struct {
	Name  string
	Kind  ConstraintKind
	Terms []Term
	Sense Sense
	RHS   int64

	// Demand rows
	Ref entities.ItemRef

	// Budget rows
	Slot         entities.TimeSlot
	Currency     entities.CurrencyCode
	SlackCol     int // -1 without slack
	DefaultLimit bool
}

// Model is the solver-agnostic description shared by every back-end.
// It is owned by a single solve and discarded after extraction.
type Model struct {
	Strategy    entities.Strategy
	DemandMode  entities.DemandMode
	Scale       int64
	Vars        []DecisionVar
	Slacks      []SlackVar
	Constraints []Constraint
	Objective   []int64 // one coefficient per column
	Penalty     int64

	// Demand groups in constraint order; each lists variable indices of one item
	Groups [][]int
	// Items that cannot be bought in ExactlyOne mode; the model has no feasible solution
	Unsatisfiable []entities.ItemRef

	index map[VarKey]int
}

// NumCols returns the number of columns (decision variables plus slacks)
func (m *Model) NumCols() int {
	return len(m.Vars) + len(m.Slacks)
}

// SlackCol returns the column of the i-th slack variable
func (m *Model) SlackCol(i int) int {
	return len(m.Vars) + i
}

// Upper returns the upper bound of a column
func (m *Model) Upper(col int) float64 {
	if col < len(m.Vars) {
		return 1
	}
	return float64(m.Slacks[col-len(m.Vars)].Upper)
}

// Lookup finds a variable by key
func (m *Model) Lookup(key VarKey) (*DecisionVar, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return &m.Vars[i], true
}

// Feasible reports whether the model can have a solution at all
func (m *Model) Feasible() bool {
	return len(m.Unsatisfiable) == 0
}

// Complete turns a selection of decision variables into a full column vector,
// giving every slack the smallest value its budget row needs. The objective is exact.
func (m *Model) Complete(selected []bool) ([]float64, int64) {
	values := make([]float64, m.NumCols())
	var objective int64
	for i, on := range selected {
		if on {
			values[i] = 1
			objective += m.Objective[i]
		}
	}

	for _, c := range m.Constraints {
		if c.Kind != BudgetConstraint || c.SlackCol < 0 {
			continue
		}
		var spend int64
		for _, t := range c.Terms {
			if t.Col < len(m.Vars) && selected[t.Col] {
				spend += t.Coef
			}
		}
		if over := spend - c.RHS; over > 0 {
			values[c.SlackCol] = float64(over)
			objective += m.Objective[c.SlackCol] * over
		}
	}
	return values, objective
}

// ObjectiveValue evaluates the objective for a column vector
func (m *Model) ObjectiveValue(values []float64) float64 {
	var total float64
	for col, coef := range m.Objective {
		total += float64(coef) * values[col]
	}
	return total
}

// Selected returns the 0/1 selection implied by values using the 0.5 threshold
func (m *Model) Selected(values []float64) []bool {
	selected := make([]bool, len(m.Vars))
	for i := range m.Vars {
		selected[i] = values[i] > 0.5
	}
	return selected
}
