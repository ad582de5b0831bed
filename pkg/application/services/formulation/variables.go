package formulation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/domain/entities"
)

// BuildVariables enumerates one variable per (item, option, delivery slot) whose purchase
// slot is at least 1. Infeasible combinations never become variables. Costs and values are
// scaled to the model unit.
func BuildVariables(ds *loader.Dataset, cfg Config) ([]DecisionVar, error) {
	vars, _, err := buildScaledVariables(ds, cfg, 0)
	return vars, err
}

// buildScaledVariables scales to the given unit, or to the resolved model unit when unit is 0
func buildScaledVariables(ds *loader.Dataset, cfg Config, unit int64) ([]DecisionVar, int64, error) {
	vars, err := enumerateVariables(ds, cfg)
	if err != nil {
		return nil, 0, err
	}

	if unit <= 0 {
		unit = modelUnit(ds, vars, cfg.AmountScale)
	}
	for i := range vars {
		v := &vars[i]
		if v.ScaledCost, err = toUnits(v.Cost.Amount(), unit); err != nil {
			return nil, 0, fmt.Errorf("variable %s cost: %w", v.Key, err)
		}
		if v.ScaledValue, err = toUnits(v.Value, unit); err != nil {
			return nil, 0, fmt.Errorf("variable %s value: %w", v.Key, err)
		}
	}
	return vars, unit, nil
}

func enumerateVariables(ds *loader.Dataset, cfg Config) ([]DecisionVar, error) {
	var vars []DecisionVar

	for _, item := range ds.Items {
		options := ds.OptionsFor(item)
		if len(options) == 0 {
			continue
		}

		values, err := businessValues(item, options, cfg)
		if err != nil {
			return nil, err
		}

		for _, option := range options {
			unitCost, err := option.EffectiveUnitCost(item.Quantity)
			if err != nil {
				return nil, fmt.Errorf("item %s: %w", item.Ref(), err)
			}
			cost := unitCost.Mul(item.Quantity.Decimal())
			value := values[option.Currency()]
			leadSlots := entities.TimeSlot(ds.Calendar.LeadTimeSlots(option.LeadTimeDays))

			for _, delivery := range deliverySlots(item, ds.Calendar, cfg.MaxTimeSlots) {
				purchase := delivery - leadSlots
				if purchase < 1 {
					continue
				}
				vars = append(vars, DecisionVar{
					Index: len(vars),
					Key: VarKey{
						ProjectID:    item.ProjectID,
						ItemCode:     item.ItemCode,
						OptionID:     option.ID,
						DeliverySlot: delivery,
					},
					PurchaseSlot: purchase,
					Item:         item,
					Option:       option,
					Quantity:     item.Quantity,
					UnitCost:     unitCost,
					Cost:         cost,
					Value:        value,
					CostWeight:   1,
					ValueWeight:  1,
				})
			}
		}
	}

	return vars, nil
}

// deliverySlots returns the candidate delivery slots of an item in ascending order.
// Items with delivery dates use the slots containing those dates; others use the horizon.
func deliverySlots(item *entities.ProjectItem, calendar *entities.Calendar, maxSlots int) []entities.TimeSlot {
	if len(item.DeliveryOptions) == 0 {
		slots := make([]entities.TimeSlot, 0, maxSlots)
		for t := 1; t <= maxSlots; t++ {
			slots = append(slots, entities.TimeSlot(t))
		}
		return slots
	}

	seen := make(map[entities.TimeSlot]bool, len(item.DeliveryOptions))
	slots := make([]entities.TimeSlot, 0, len(item.DeliveryOptions))
	for _, d := range item.DeliveryOptions {
		slot := calendar.SlotOf(d.DeliveryDate)
		if slot < 1 || int(slot) > maxSlots || seen[slot] {
			continue
		}
		seen[slot] = true
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots
}

// businessValues returns the item's business value per option currency: the revenue of its
// first delivery option, or for items without delivery options the cheapest effective cost
// among same-currency options times the fallback markup. The fallback is identical for every
// option in a currency so it never rewards a more expensive choice.
func businessValues(
	item *entities.ProjectItem,
	options []*entities.ProcurementOption,
	cfg Config,
) (map[entities.CurrencyCode]decimal.Decimal, error) {
	values := make(map[entities.CurrencyCode]decimal.Decimal)

	if first, ok := item.FirstDeliveryOption(); ok {
		revenue := first.RevenuePerUnit.Mul(item.Quantity.Decimal())
		for _, option := range options {
			values[option.Currency()] = revenue
		}
		return values, nil
	}

	for _, option := range options {
		unitCost, err := option.EffectiveUnitCost(item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", item.Ref(), err)
		}
		cost := unitCost.Amount().Mul(item.Quantity.Decimal())
		if cheapest, ok := values[option.Currency()]; !ok || cost.LessThan(cheapest) {
			values[option.Currency()] = cost
		}
	}
	for code, cheapest := range values {
		values[code] = cheapest.Mul(cfg.FallbackMarkup)
	}
	return values, nil
}
