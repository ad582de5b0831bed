package formulation

import (
	"errors"
	"fmt"
	"testing"
	"testing/quick"

	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/procure/pkg/application/services/testing"
	"github.com/vsinha/procure/pkg/domain/entities"
)

func TestBuildVariables_InfeasibleLeadTimeCreatesNoVariable(t *testing.T) {
	// Delivery in slot 3 with a 10 day lead time needs purchase slot -7
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 2000, 3).
		Option(1, "PUMP", 1000, "EUR", 10).
		Budgets(3, "EUR", 5000).
		MustDataset()

	vars, err := BuildVariables(ds, DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(vars) != 0 {
		t.Errorf("Expected 0 variables, got %d", len(vars))
	}

	model, err := Build(ds, DefaultConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !model.Feasible() {
		t.Error("Expected at-most-one model without variables to stay feasible")
	}
	if len(model.Constraints) != 0 {
		t.Errorf("Expected no constraints, got %d", len(model.Constraints))
	}
}

func TestBuildVariables_PurchaseSlotAtLeastOne(t *testing.T) {
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 0).
		Option(1, "PUMP", 100, "EUR", 3).
		Option(2, "PUMP", 100, "EUR", 0).
		Budgets(12, "EUR", 1000).
		MustDataset()

	vars, err := BuildVariables(ds, DefaultConfig())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Option 1: delivery slots 4..12, option 2: 1..12
	if len(vars) != 9+12 {
		t.Errorf("Expected 21 variables, got %d", len(vars))
	}
	seen := make(map[VarKey]bool)
	for _, v := range vars {
		if v.PurchaseSlot < 1 {
			t.Errorf("Expected purchase slot >= 1, got %d for %s", v.PurchaseSlot, v.Key)
		}
		if v.PurchaseSlot > v.Key.DeliverySlot {
			t.Errorf("Expected purchase slot <= delivery slot for %s", v.Key)
		}
		if seen[v.Key] {
			t.Errorf("Duplicate variable key %s", v.Key)
		}
		seen[v.Key] = true
	}
}

func TestBuildVariables_FallbackValueIsPerItem(t *testing.T) {
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 2, 0).
		Option(1, "PUMP", 100, "EUR", 0).
		Option(2, "PUMP", 150, "EUR", 0).
		Budgets(1, "EUR", 1000).
		MustDataset()

	cfg := DefaultConfig()
	cfg.MaxTimeSlots = 1
	vars, err := BuildVariables(ds, cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(vars) != 2 {
		t.Fatalf("Expected 2 variables, got %d", len(vars))
	}
	// Cheapest cost 200 times 1.15
	for _, v := range vars {
		if !v.Value.Equal(decimal.NewFromInt(230)) {
			t.Errorf("Expected value 230 for option %d, got %s", v.Key.OptionID, v.Value)
		}
	}
}

func TestAddDemandConstraints_Modes(t *testing.T) {
	scenario := func() *testhelpers.ScenarioBuilder {
		return testhelpers.NewScenario().
			Project(1, 5).
			Item(1, "PUMP", 1, 500, 4).
			Item(1, "VALVE", 1, 100, 2).
			Option(1, "PUMP", 100, "EUR", 1).
			Option(2, "PUMP", 120, "EUR", 2).
			Option(3, "VALVE", 50, "EUR", 5).
			Budgets(4, "EUR", 1000)
	}

	cfg := DefaultConfig()
	model, err := Build(scenario().MustDataset(), cfg, entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	demand := constraintsOfKind(model, DemandConstraint)
	if len(demand) != 1 {
		t.Fatalf("Expected 1 demand row (VALVE has no feasible variable), got %d", len(demand))
	}
	if demand[0].Sense != LessEqual || demand[0].RHS != 1 || len(demand[0].Terms) != 2 {
		t.Errorf("Expected sum of 2 PUMP variables <= 1, got %+v", demand[0])
	}
	if !model.Feasible() {
		t.Error("Expected at-most-one model to be feasible")
	}

	cfg.DemandMode = entities.ExactlyOne
	strict, err := Build(scenario().MustDataset(), cfg, entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if constraintsOfKind(strict, DemandConstraint)[0].Sense != Equal {
		t.Error("Expected equality demand rows in exactly-one mode")
	}
	if strict.Feasible() || len(strict.Unsatisfiable) != 1 || strict.Unsatisfiable[0].ItemCode != "VALVE" {
		t.Errorf("Expected VALVE to make the strict model unsatisfiable, got %v", strict.Unsatisfiable)
	}
}

func TestAddBudgetConstraints_SlackOnlyUnderPressure(t *testing.T) {
	testCases := []struct {
		name          string
		amountScale   int64
		expectedUnit  int64
		expectedLimit int64
		expectedUpper int64
	}{
		// max(600/2, floor 1000) capped at the 700 overrun of buying both options
		{"unit scale", 1, 1, 600, 700},
		// 500, 800 and 600 share a unit of 100
		{"thousands", 1000, 100, 6, 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.AmountScale = tc.amountScale
			model, err := Build(testhelpers.BuildScenarioB().MustDataset(), cfg, entities.LowestCost)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if model.Scale != tc.expectedUnit {
				t.Errorf("Expected unit %d, got %d", tc.expectedUnit, model.Scale)
			}

			budget := constraintsOfKind(model, BudgetConstraint)
			if len(budget) != 1 {
				t.Fatalf("Expected 1 budget row, got %d", len(budget))
			}
			row := budget[0]
			if row.Slot != 3 || row.Currency != "EUR" || row.RHS != tc.expectedLimit {
				t.Errorf("Expected slot 3 EUR limit %d, got slot %d %s limit %d",
					tc.expectedLimit, row.Slot, row.Currency, row.RHS)
			}
			if len(model.Slacks) != 1 || row.SlackCol != model.SlackCol(0) {
				t.Fatalf("Expected one slack column attached to the row, got %d slacks", len(model.Slacks))
			}
			if model.Slacks[0].Upper != tc.expectedUpper {
				t.Errorf("Expected slack upper bound %d, got %d", tc.expectedUpper, model.Slacks[0].Upper)
			}
		})
	}

	roomy := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 1000, 5).
		Option(1, "PUMP", 500, "EUR", 2).
		Budgets(5, "EUR", 5000).
		MustDataset()
	relaxed, err := Build(roomy, DefaultConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(relaxed.Slacks) != 0 {
		t.Errorf("Expected no slack without budget pressure, got %d", len(relaxed.Slacks))
	}
}

func TestBuild_ScaledBudgetKeepsFit(t *testing.T) {
	zeroBudget := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 300, 3).
		Item(1, "VALVE", 1, 300, 3).
		Option(1, "PUMP", 100, "EUR", 1).
		Option(2, "VALVE", 100, "EUR", 1).
		Budgets(3, "EUR", 0)

	testCases := []struct {
		name     string
		scenario *testhelpers.ScenarioBuilder
		option   entities.OptionID
		delivery entities.TimeSlot
		slack    float64 // overrun in currency units
	}{
		{"option within budget", testhelpers.BuildScenarioB(), 1, 5, 0},
		{"option over budget", testhelpers.BuildScenarioB(), 2, 5, 200},
		{"zero budget", zeroBudget, 1, 3, 100},
	}

	for _, scale := range []int64{1, 10, 1000} {
		for _, tc := range testCases {
			t.Run(fmt.Sprintf("%s/scale %d", tc.name, scale), func(t *testing.T) {
				cfg := DefaultConfig()
				cfg.AmountScale = scale
				model, err := Build(tc.scenario.MustDataset(), cfg, entities.LowestCost)
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}

				var key VarKey
				for _, v := range model.Vars {
					if v.Key.OptionID == tc.option && v.Key.DeliverySlot == tc.delivery {
						key = v.Key
					}
				}
				v, ok := model.Lookup(key)
				if !ok {
					t.Fatalf("Expected a variable for option %d", tc.option)
				}
				if !decimalOf(v.ScaledCost * model.Scale).Equal(v.Cost.Amount()) {
					t.Errorf("Expected scaled cost %d x %d to equal %s", v.ScaledCost, model.Scale, v.Cost)
				}

				selected := make([]bool, len(model.Vars))
				selected[v.Index] = true
				values, _ := model.Complete(selected)
				var slack float64
				for i := range model.Slacks {
					slack += values[model.SlackCol(i)]
				}
				if slack*float64(model.Scale) != tc.slack {
					t.Errorf("Expected overrun %.0f at scale %d, got %.0f", tc.slack, scale, slack*float64(model.Scale))
				}
				if violations := model.Check(values); len(violations) != 0 {
					t.Errorf("Expected no violations, got %v", violations)
				}
			})
		}
	}
}

func TestResolveUnit(t *testing.T) {
	testCases := []struct {
		name     string
		scale    int64
		amounts  []string
		expected int64
	}{
		{"hundreds", 1000, []string{"500", "800", "600"}, 100},
		{"thousands", 1000, []string{"15000000000", "1000000000000"}, 1000},
		{"zero amounts keep the scale", 1000, []string{"0", "2000"}, 1000},
		{"odd amount", 1000, []string{"1000", "1001"}, 1},
		{"cents", 1000, []string{"12.50"}, 1},
		{"cents round to whole units", 1000, []string{"49999.50", "1000"}, 1000},
		{"unit scale", 1, []string{"500"}, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			amounts := make([]decimal.Decimal, 0, len(tc.amounts))
			for _, a := range tc.amounts {
				amounts = append(amounts, decimal.RequireFromString(a))
			}
			if got := resolveUnit(tc.scale, amounts); got != tc.expected {
				t.Errorf("Expected unit %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestBuild_RejectsOversizedModel(t *testing.T) {
	// Scenario B priced in the tens of billions
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 1e11, 5).
		Option(1, "PUMP", 5e10, "IRR", 2).
		Option(2, "PUMP", 8e10, "IRR", 2).
		Budgets(5, "IRR", 6e10).
		MustDataset()

	cfg := DefaultConfig()
	cfg.AmountScale = 1
	if _, err := Build(ds, cfg, entities.LowestCost); !errors.Is(err, ErrModelMagnitude) {
		t.Errorf("Expected ErrModelMagnitude at unit scale, got %v", err)
	}

	model, err := Build(ds, DefaultConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Expected the default scale to fit, got %v", err)
	}
	if model.Scale != 1000 {
		t.Errorf("Expected unit 1000, got %d", model.Scale)
	}
	selected := make([]bool, len(model.Vars))
	for i := range selected {
		selected[i] = true
	}
	if _, objective := model.Complete(selected); objective <= 0 {
		t.Errorf("Expected a positive penalized objective for the worst selection, got %d", objective)
	}
}

func TestBuild_OddAmountsFallBackToAmountScale(t *testing.T) {
	// One odd price resolves to unit 1, which is too fine at this magnitude
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 1e11, 5).
		Option(1, "PUMP", 5e10+1, "IRR", 2).
		Option(2, "PUMP", 8e10, "IRR", 2).
		Budgets(5, "IRR", 6e10).
		MustDataset()

	model, err := Build(ds, DefaultConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Expected a rounded model, got %v", err)
	}
	if model.Scale != DefaultAmountScale {
		t.Errorf("Expected unit %d, got %d", DefaultAmountScale, model.Scale)
	}
	for _, v := range model.Vars {
		if v.Key.OptionID == 1 && v.ScaledCost != 50000000 {
			t.Errorf("Expected rounded cost 50000000, got %d", v.ScaledCost)
		}
	}
}

func TestAddBudgetConstraints_MissingCurrencyUsesDefaultLimit(t *testing.T) {
	// Budget only in EUR, option priced in USD
	ds := testhelpers.NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 1000, 5).
		Option(1, "PUMP", 500, "USD", 2).
		Budgets(5, "EUR", 100).
		MustDataset()

	model, err := Build(ds, DefaultConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	budget := constraintsOfKind(model, BudgetConstraint)
	if len(budget) != 1 {
		t.Fatalf("Expected 1 budget row, got %d", len(budget))
	}
	if budget[0].Currency != "USD" || !budget[0].DefaultLimit {
		t.Errorf("Expected USD row with default limit, got %+v", budget[0])
	}
	if budget[0].RHS*model.Scale != DefaultBudgetLimit.IntPart() {
		t.Errorf("Expected RHS %s, got %d x %d", DefaultBudgetLimit, budget[0].RHS, model.Scale)
	}
	if len(model.Slacks) != 0 {
		t.Error("Expected no slack against the default limit")
	}
}

func TestBudgetRowsNeverMixCurrencies(t *testing.T) {
	property := func(costs [6]uint16, currencyBits uint8, budget uint16) bool {
		currencies := []entities.CurrencyCode{"EUR", "USD"}
		b := testhelpers.NewScenario().Project(1, 5)
		for i, cost := range costs {
			code := string(rune('A' + i))
			currency := currencies[(currencyBits>>uint(i))&1]
			b.Item(1, code, 1, 0).Option(entities.OptionID(i+1), code, float64(cost%5000)+1, currency, i%3)
		}
		b.Budgets(12, "EUR", float64(budget))

		ds, err := b.Dataset()
		if err != nil {
			return false
		}
		model, err := Build(ds, DefaultConfig(), entities.Balanced)
		if err != nil {
			return false
		}

		for _, c := range model.Constraints {
			if c.Kind != BudgetConstraint {
				continue
			}
			for _, term := range c.Terms {
				if term.Col >= len(model.Vars) {
					continue
				}
				v := model.Vars[term.Col]
				if v.Currency() != c.Currency || v.PurchaseSlot != c.Slot {
					return false
				}
			}
		}
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 50}); err != nil {
		t.Errorf("Budget row mixed currencies or slots: %v", err)
	}
}

func TestSetObjective_PenaltyDominatesGains(t *testing.T) {
	ds := testhelpers.BuildMultiProjectScenario().MustDataset()

	for _, strategy := range entities.AllStrategies() {
		t.Run(string(strategy), func(t *testing.T) {
			model, err := Build(ds, DefaultConfig(), strategy)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			var gains int64
			for i := range model.Vars {
				if model.Objective[i] < 0 {
					gains -= model.Objective[i]
				}
			}
			if model.Penalty <= gains {
				t.Errorf("Expected penalty %d to exceed total gains %d", model.Penalty, gains)
			}
			for i := range model.Slacks {
				if model.Objective[model.SlackCol(i)] != model.Penalty {
					t.Errorf("Expected slack %d to carry the penalty", i)
				}
			}
		})
	}
}

func TestSetObjective_StrategyWeights(t *testing.T) {
	ds := testhelpers.NewScenario().
		Project(1, 10).
		Project(2, 1).
		Item(1, "PUMP", 1, 300, 2, 6).
		Item(2, "PUMP", 1, 300, 2, 6).
		Option(1, "PUMP", 100, "EUR", 1).
		Budgets(6, "EUR", 10000).
		MustDataset()

	lowest, _ := Build(ds, unitConfig(), entities.LowestCost)
	for i, v := range lowest.Vars {
		if v.CostWeight != 1 || v.ValueWeight != 1 {
			t.Errorf("Expected unit weights for LOWEST_COST, got %v/%v", v.CostWeight, v.ValueWeight)
		}
		if lowest.Objective[i] != 100-300 {
			t.Errorf("Expected coefficient -200, got %d", lowest.Objective[i])
		}
	}

	priority, _ := Build(ds, DefaultConfig(), entities.PriorityWeighted)
	high, _ := priority.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 2})
	low, _ := priority.Lookup(VarKey{ProjectID: 2, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 2})
	if !(high.CostWeight < low.CostWeight && high.ValueWeight > low.ValueWeight) {
		t.Errorf("Expected high priority to lower cost weight and raise value weight, got %v/%v vs %v/%v",
			high.CostWeight, high.ValueWeight, low.CostWeight, low.ValueWeight)
	}

	fast, _ := Build(ds, DefaultConfig(), entities.FastDelivery)
	early, _ := fast.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 2})
	late, _ := fast.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 6})
	if early.ValueWeight <= late.ValueWeight {
		t.Errorf("Expected earlier delivery to weigh more, got %v <= %v", early.ValueWeight, late.ValueWeight)
	}

	smooth, _ := Build(ds, DefaultConfig(), entities.SmoothCashflow)
	edge, _ := smooth.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 2})
	if edge.CostWeight <= 1 {
		t.Errorf("Expected purchases at the horizon edge to carry a cost penalty, got %v", edge.CostWeight)
	}
}

func TestModel_CompleteAndCheck(t *testing.T) {
	ds := testhelpers.BuildScenarioB().MustDataset()
	model, err := Build(ds, unitConfig(), entities.LowestCost)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cheap, _ := model.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 1, DeliverySlot: 5})
	dear, _ := model.Lookup(VarKey{ProjectID: 1, ItemCode: "PUMP", OptionID: 2, DeliverySlot: 5})

	selected := make([]bool, len(model.Vars))
	selected[cheap.Index] = true
	values, objective := model.Complete(selected)
	if objective != -500 {
		t.Errorf("Expected objective -500, got %d", objective)
	}
	if values[model.SlackCol(0)] != 0 {
		t.Errorf("Expected zero slack within budget, got %v", values[model.SlackCol(0)])
	}
	if violations := model.Check(values); len(violations) != 0 {
		t.Errorf("Expected no violations, got %v", violations)
	}

	selected[cheap.Index] = false
	selected[dear.Index] = true
	values, objective = model.Complete(selected)
	if values[model.SlackCol(0)] != 200 {
		t.Errorf("Expected slack 200, got %v", values[model.SlackCol(0)])
	}
	if objective != -200+200*model.Penalty {
		t.Errorf("Expected penalized objective, got %d", objective)
	}

	selected[cheap.Index] = true
	values, _ = model.Complete(selected)
	violations := model.Check(values)
	if len(violations) != 1 || violations[0].Kind != DemandViolation {
		t.Errorf("Expected one demand violation for two selected options, got %v", violations)
	}
}

func constraintsOfKind(model *Model, kind ConstraintKind) []Constraint {
	var rows []Constraint
	for _, c := range model.Constraints {
		if c.Kind == kind {
			rows = append(rows, c)
		}
	}
	return rows
}

// unitConfig keeps amounts in whole currency units
func unitConfig() Config {
	cfg := DefaultConfig()
	cfg.AmountScale = 1
	return cfg
}

func decimalOf(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
