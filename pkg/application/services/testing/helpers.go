package testing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/repositories/memory"
)

// BaseDate is the start of slot 1 in every fixture
var BaseDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// SlotDate returns the start date of a slot for one-day slots starting at BaseDate
func SlotDate(slot int) time.Time {
	return BaseDate.AddDate(0, 0, slot-1)
}

// ScenarioBuilder assembles an in-memory catalog for tests
type ScenarioBuilder struct {
	projects  []*entities.Project
	items     []*entities.ProjectItem
	options   []*entities.ProcurementOption
	periods   map[time.Time]*entities.BudgetPeriod
	decisions []*entities.FinalizedDecision
	nextItem  int64
}

// NewScenario creates an empty scenario
func NewScenario() *ScenarioBuilder {
	return &ScenarioBuilder{periods: make(map[time.Time]*entities.BudgetPeriod)}
}

// Project adds an active project
func (b *ScenarioBuilder) Project(id entities.ProjectID, priority int) *ScenarioBuilder {
	project, err := entities.NewProject(id, "Project", priority, true)
	if err != nil {
		panic(err)
	}
	b.projects = append(b.projects, project)
	return b
}

// InactiveProject adds an inactive project
func (b *ScenarioBuilder) InactiveProject(id entities.ProjectID) *ScenarioBuilder {
	project, err := entities.NewProject(id, "Inactive", 1, false)
	if err != nil {
		panic(err)
	}
	b.projects = append(b.projects, project)
	return b
}

// Item adds a demand line. Each delivery slot becomes a delivery option with the given revenue
// per unit; without slots the item uses the planning horizon and the fallback value.
func (b *ScenarioBuilder) Item(
	projectID entities.ProjectID,
	code string,
	quantity entities.Quantity,
	revenuePerUnit float64,
	deliverySlots ...int,
) *ScenarioBuilder {
	var delivery []entities.DeliveryOption
	for _, slot := range deliverySlots {
		delivery = append(delivery, entities.DeliveryOption{
			DeliveryDate:   SlotDate(slot),
			RevenuePerUnit: decimal.NewFromFloat(revenuePerUnit),
		})
	}
	b.nextItem++
	item, err := entities.NewProjectItem(b.nextItem, projectID, entities.ItemCode(code), code, quantity, delivery)
	if err != nil {
		panic(err)
	}
	b.items = append(b.items, item)
	return b
}

// Option adds a finalized cash option without discount or shipping
func (b *ScenarioBuilder) Option(
	id entities.OptionID,
	code string,
	unitCost float64,
	currency entities.CurrencyCode,
	leadTimeDays int,
) *ScenarioBuilder {
	return b.OptionWithTerms(id, code, unitCost, currency, leadTimeDays, entities.CashTerms{})
}

// OptionWithTerms adds a finalized option with explicit payment terms
func (b *ScenarioBuilder) OptionWithTerms(
	id entities.OptionID,
	code string,
	unitCost float64,
	currency entities.CurrencyCode,
	leadTimeDays int,
	terms entities.PaymentTerms,
) *ScenarioBuilder {
	option, err := entities.NewProcurementOption(
		id,
		entities.ItemCode(code),
		"Supplier",
		entities.MustMoney(unitCost, currency),
		decimal.Zero,
		leadTimeDays,
		terms,
	)
	if err != nil {
		panic(err)
	}
	b.options = append(b.options, option)
	return b
}

// Budget sets the amount available in one slot for one currency
func (b *ScenarioBuilder) Budget(slot int, currency entities.CurrencyCode, amount float64) *ScenarioBuilder {
	start := SlotDate(slot)
	period, ok := b.periods[start]
	if !ok {
		period = &entities.BudgetPeriod{
			ID:          int64(slot),
			PeriodStart: start,
			Amounts:     make(map[entities.CurrencyCode]decimal.Decimal),
		}
		b.periods[start] = period
	}
	period.Amounts[currency] = decimal.NewFromFloat(amount)
	return b
}

// Budgets sets the same amount for slots 1..slots
func (b *ScenarioBuilder) Budgets(slots int, currency entities.CurrencyCode, amount float64) *ScenarioBuilder {
	for slot := 1; slot <= slots; slot++ {
		b.Budget(slot, currency, amount)
	}
	return b
}

// Decision records an earlier decision for an item
func (b *ScenarioBuilder) Decision(
	projectID entities.ProjectID,
	code string,
	optionID entities.OptionID,
	status entities.DecisionStatus,
) *ScenarioBuilder {
	b.decisions = append(b.decisions, &entities.FinalizedDecision{
		ProjectID: projectID,
		ItemCode:  entities.ItemCode(code),
		OptionID:  optionID,
		Status:    status,
	})
	return b
}

// Store builds the in-memory store
func (b *ScenarioBuilder) Store() *memory.Store {
	periods := make([]*entities.BudgetPeriod, 0, len(b.periods))
	for _, p := range b.periods {
		periods = append(periods, p)
	}
	store, err := memory.NewStoreFromSnapshot(&memory.Snapshot{
		Projects:  b.projects,
		Items:     b.items,
		Options:   b.options,
		Budgets:   periods,
		Decisions: b.decisions,
	})
	if err != nil {
		panic(err)
	}
	return store
}

// Dataset builds the store and loads it with one-day slots
func (b *ScenarioBuilder) Dataset() (*loader.Dataset, error) {
	return loader.NewDataLoader(b.Store().Catalog(), 1).Load(context.Background(), loader.Filter{})
}

// MustDataset is Dataset that panics on error
func (b *ScenarioBuilder) MustDataset() *loader.Dataset {
	ds, err := b.Dataset()
	if err != nil {
		panic(err)
	}
	return ds
}

// BuildScenarioB is one item with two options at 500 and 800, budget 600 everywhere
func BuildScenarioB() *ScenarioBuilder {
	return NewScenario().
		Project(1, 5).
		Item(1, "PUMP", 1, 1000, 5).
		Option(1, "PUMP", 500, "EUR", 2).
		Option(2, "PUMP", 800, "EUR", 2).
		Budgets(5, "EUR", 600)
}

// BuildMultiProjectScenario has two projects, mixed currencies and a tight budget
func BuildMultiProjectScenario() *ScenarioBuilder {
	return NewScenario().
		Project(1, 9).
		Project(2, 2).
		Item(1, "PUMP-1", 2, 700, 4, 6).
		Item(1, "VALVE-2", 4, 90, 5).
		Item(1, "MOTOR-3", 1, 0).
		Item(2, "PUMP-1", 1, 650, 6).
		Item(2, "SENSOR-4", 10, 30, 3).
		Option(1, "PUMP-1", 450, "EUR", 2).
		Option(2, "PUMP-1", 420, "EUR", 4).
		Option(3, "PUMP-1", 500, "USD", 1).
		Option(4, "VALVE-2", 60, "EUR", 1).
		Option(5, "MOTOR-3", 1200, "USD", 3).
		Option(6, "SENSOR-4", 20, "EUR", 1).
		Option(7, "SENSOR-4", 18, "EUR", 2).
		Budgets(6, "EUR", 1000).
		Budgets(6, "USD", 800)
}
