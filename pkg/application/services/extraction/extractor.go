package extraction

import (
	"fmt"
	"time"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/application/services/solver"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/services"
)

// Extract turns every selected variable of a solution into a Decision.
// Variables count as selected above 0.5; solutions without an assignment yield no decisions.
func Extract(model *formulation.Model, solution *solver.Solution, ds *loader.Dataset) ([]entities.Decision, error) {
	if solution == nil || !solution.Status.HasSolution() {
		return nil, nil
	}

	var decisions []entities.Decision
	for i, selected := range model.Selected(solution.Values) {
		if !selected {
			continue
		}
		v := &model.Vars[i]

		purchaseDate, deliveryDate := decisionDates(v, ds.Calendar)
		decision, err := entities.NewDecision(
			v.Key.Ref(),
			v.Option,
			v.PurchaseSlot,
			v.Key.DeliverySlot,
			purchaseDate,
			deliveryDate,
			v.Quantity,
			v.UnitCost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to extract decision for %s: %w", v.Key, err)
		}
		decisions = append(decisions, *decision)
	}

	services.NewItemCodeComparator().SortDecisions(decisions)
	return decisions, nil
}

// decisionDates prefers the supplier's quoted delivery date. Otherwise delivery falls on the
// item's requested date within the delivery slot, and purchase on the purchase slot start.
func decisionDates(v *formulation.DecisionVar, calendar *entities.Calendar) (time.Time, time.Time) {
	if quoted := v.Option.QuotedDeliveryDate; quoted != nil {
		return quoted.AddDate(0, 0, -v.Option.LeadTimeDays), *quoted
	}

	delivery := calendar.Date(v.Key.DeliverySlot)
	for _, d := range v.Item.DeliveryOptions {
		if calendar.SlotOf(d.DeliveryDate) == v.Key.DeliverySlot {
			delivery = d.DeliveryDate
			break
		}
	}
	return calendar.Date(v.PurchaseSlot), delivery
}
