package formulation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/domain/entities"
)

// Builder assembles a Model step by step: variables, demand rows, budget rows, objective
type Builder struct {
	ds    *loader.Dataset
	cfg   Config
	model *Model
}

// NewBuilder creates a builder with the dataset's variables already enumerated
func NewBuilder(ds *loader.Dataset, cfg Config) (*Builder, error) {
	return newBuilderAt(ds, cfg, 0)
}

func newBuilderAt(ds *loader.Dataset, cfg Config, unit int64) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vars, unit, err := buildScaledVariables(ds, cfg, unit)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Scale: unit,
		Vars:  vars,
		index: make(map[VarKey]int, len(vars)),
	}
	for i := range vars {
		model.index[vars[i].Key] = i
	}

	return &Builder{ds: ds, cfg: cfg, model: model}, nil
}

// Build runs every step for one strategy. When the exact model unit is too fine for the
// model's magnitude, it retries at AmountScale, where amounts are rounded.
func Build(ds *loader.Dataset, cfg Config, strategy entities.Strategy) (*Model, error) {
	model, err := buildAt(ds, cfg, strategy, 0)
	if errors.Is(err, ErrModelMagnitude) {
		if coarse, coarseErr := buildAt(ds, cfg, strategy, cfg.AmountScale); coarseErr == nil {
			return coarse, nil
		}
	}
	return model, err
}

func buildAt(ds *loader.Dataset, cfg Config, strategy entities.Strategy, unit int64) (*Model, error) {
	b, err := newBuilderAt(ds, cfg, unit)
	if err != nil {
		return nil, err
	}
	b.AddDemandConstraints(cfg.DemandMode)
	if err := b.AddBudgetConstraints(); err != nil {
		return nil, err
	}
	if err := b.SetObjective(strategy); err != nil {
		return nil, err
	}
	if err := b.model.checkMagnitude(); err != nil {
		return nil, fmt.Errorf("%w; raise the amount scale", err)
	}
	return b.Model(), nil
}

// Model returns the model built so far
func (b *Builder) Model() *Model {
	return b.model
}

// AddDemandConstraints adds one row per item: sum(group) <= 1 in AtMostOne mode,
// sum(group) = 1 in ExactlyOne mode. In ExactlyOne mode an item without any variable
// makes the model unsatisfiable.
func (b *Builder) AddDemandConstraints(mode entities.DemandMode) {
	m := b.model
	m.DemandMode = mode

	groups := make(map[entities.ItemRef][]int)
	for i := range m.Vars {
		ref := m.Vars[i].Key.Ref()
		groups[ref] = append(groups[ref], i)
	}

	sense := LessEqual
	if mode == entities.ExactlyOne {
		sense = Equal
	}

	for _, item := range b.ds.Items {
		ref := item.Ref()
		group, ok := groups[ref]
		if !ok {
			if mode == entities.ExactlyOne {
				m.Unsatisfiable = append(m.Unsatisfiable, ref)
			}
			continue
		}
		// Guard against the same item listed twice
		delete(groups, ref)

		terms := make([]Term, 0, len(group))
		for _, i := range group {
			terms = append(terms, Term{Col: i, Coef: 1})
		}
		m.Groups = append(m.Groups, group)
		m.Constraints = append(m.Constraints, Constraint{
			Name:     fmt.Sprintf("demand_%d_%s", ref.ProjectID, ref.ItemCode),
			Kind:     DemandConstraint,
			Terms:    terms,
			Sense:    sense,
			RHS:      1,
			Ref:      ref,
			SlackCol: -1,
		})
	}
}

type budgetKey struct {
	slot     entities.TimeSlot
	currency entities.CurrencyCode
}

// AddBudgetConstraints adds one soft row per (purchase slot, currency) group:
// sum(spend * x) - slack <= limit. A slack column is created only when the group could
// overspend. It is bounded by max(limit/2, SlackFloor), capped at the largest overrun the
// group can reach. Missing budget entries use DefaultBudgetLimit.
// Currencies are never combined in one row.
func (b *Builder) AddBudgetConstraints() error {
	m := b.model

	groups := make(map[budgetKey][]int)
	for i := range m.Vars {
		key := budgetKey{slot: m.Vars[i].PurchaseSlot, currency: m.Vars[i].Currency()}
		groups[key] = append(groups[key], i)
	}

	keys := make([]budgetKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].slot != keys[j].slot {
			return keys[i].slot < keys[j].slot
		}
		return keys[i].currency < keys[j].currency
	})

	for _, key := range keys {
		group := groups[key]

		amount, ok := budgetLimit(b.ds, key.slot, key.currency)
		limit, err := toUnits(amount, m.Scale)
		if err != nil {
			return fmt.Errorf("budget slot %d %s: %w", key.slot, key.currency, err)
		}

		terms := make([]Term, 0, len(group)+1)
		var maxSpend int64
		for _, i := range group {
			terms = append(terms, Term{Col: i, Coef: m.Vars[i].ScaledCost})
			var fits bool
			if maxSpend, fits = checkedAdd(maxSpend, m.Vars[i].ScaledCost); !fits {
				return fmt.Errorf("%w: spend in slot %d %s at unit %d", ErrModelMagnitude, key.slot, key.currency, m.Scale)
			}
		}

		slackCol := -1
		if maxSpend > limit {
			upper := limit / 2
			if upper < b.cfg.SlackFloor {
				upper = b.cfg.SlackFloor
			}
			// Slack past the largest possible overrun is never used
			if reach := maxSpend - limit; upper > reach {
				upper = reach
			}
			m.Slacks = append(m.Slacks, SlackVar{
				Index:    len(m.Slacks),
				Slot:     key.slot,
				Currency: key.currency,
				Upper:    upper,
			})
			// Slack columns follow the decision variables
			slackCol = m.SlackCol(len(m.Slacks) - 1)
			terms = append(terms, Term{Col: slackCol, Coef: -1})
		}

		m.Constraints = append(m.Constraints, Constraint{
			Name:         fmt.Sprintf("budget_t%d_%s", key.slot, key.currency),
			Kind:         BudgetConstraint,
			Terms:        terms,
			Sense:        LessEqual,
			RHS:          limit,
			Slot:         key.slot,
			Currency:     key.currency,
			SlackCol:     slackCol,
			DefaultLimit: !ok,
		})
	}
	return nil
}

// SetObjective fills objective coefficients for the strategy:
// round(costWeight*cost) - round(valueWeight*value) per variable and a per-unit penalty on
// every slack. The penalty exceeds the sum of all achievable gains, so any overrun is worse
// than selecting nothing.
func (b *Builder) SetObjective(strategy entities.Strategy) error {
	m := b.model
	weights, err := newWeighting(strategy, m.Vars, b.ds)
	if err != nil {
		return err
	}
	m.Strategy = strategy

	m.Objective = make([]int64, m.NumCols())
	var gains int64
	for i := range m.Vars {
		v := &m.Vars[i]
		v.CostWeight, v.ValueWeight = weights.weights(v)
		coef := weightedRound(v.CostWeight, v.ScaledCost) - weightedRound(v.ValueWeight, v.ScaledValue)
		m.Objective[i] = coef
		if coef < 0 {
			var ok bool
			if gains, ok = checkedAdd(gains, -coef); !ok {
				return fmt.Errorf("%w: objective gains at unit %d", ErrModelMagnitude, m.Scale)
			}
		}
	}

	m.Penalty = gains + 1
	if m.Penalty < b.cfg.MinPenalty {
		m.Penalty = b.cfg.MinPenalty
	}
	for i := range m.Slacks {
		m.Objective[m.SlackCol(i)] = m.Penalty
	}
	return nil
}
