package extraction

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/application/services/loader"
	"github.com/vsinha/procure/pkg/application/services/solver"
	"github.com/vsinha/procure/pkg/domain/entities"
)

const maxListedItems = 10

// MapStatus converts a solver status into a proposal status
func MapStatus(status solver.Status) entities.ProposalStatus {
	switch status {
	case solver.Optimal:
		return entities.StatusOptimal
	case solver.Feasible:
		return entities.StatusFeasible
	case solver.Infeasible:
		return entities.StatusInfeasible
	default:
		return entities.StatusError
	}
}

// BuildProposal summarizes the decisions of one strategy.
//
// TotalCost adds final costs across currencies at face value. It exists for ranking and
// display only; CostByCurrency carries the exact per-currency totals.
func BuildProposal(
	strategy entities.Strategy,
	model *formulation.Model,
	solution *solver.Solution,
	decisions []entities.Decision,
	ds *loader.Dataset,
) *entities.Proposal {
	proposal := &entities.Proposal{
		Name:           fmt.Sprintf("%s Proposal", strategy.Title()),
		Strategy:       strategy,
		Status:         MapStatus(solution.Status),
		TotalCost:      decimal.Zero,
		CostByCurrency: make(map[entities.CurrencyCode]decimal.Decimal),
		WeightedCost:   decimal.Zero,
		Decisions:      decisions,
	}
	if proposal.Decisions == nil {
		proposal.Decisions = []entities.Decision{}
	}

	items := make(map[entities.ItemRef]bool, len(decisions))
	for _, d := range decisions {
		amount := d.FinalCost.Amount()
		proposal.TotalCost = proposal.TotalCost.Add(amount)
		proposal.CostByCurrency[d.FinalCost.Currency()] = proposal.CostByCurrency[d.FinalCost.Currency()].Add(amount)

		weight := 1.0
		key := formulation.VarKey{
			ProjectID:    d.ProjectID,
			ItemCode:     d.ItemCode,
			OptionID:     d.ProcurementOptionID,
			DeliverySlot: d.DeliverySlot,
		}
		if v, ok := model.Lookup(key); ok {
			weight = v.CostWeight
		}
		proposal.WeightedCost = proposal.WeightedCost.Add(amount.Mul(decimal.NewFromFloat(weight)))
		items[d.Ref()] = true
	}
	proposal.WeightedCost = proposal.WeightedCost.Round(2)
	proposal.ItemsCount = len(items)

	proposal.SummaryNotes = summaryNotes(proposal, model, solution, ds, items)
	return proposal
}

func summaryNotes(
	proposal *entities.Proposal,
	model *formulation.Model,
	solution *solver.Solution,
	ds *loader.Dataset,
	selected map[entities.ItemRef]bool,
) []string {
	notes := []string{
		fmt.Sprintf("Selected %d of %d items (%s solver, %s)",
			proposal.ItemsCount, len(ds.Items), solution.Backend, proposal.Status),
	}

	currencies := make([]entities.CurrencyCode, 0, len(proposal.CostByCurrency))
	for code := range proposal.CostByCurrency {
		currencies = append(currencies, code)
	}
	sort.Slice(currencies, func(i, j int) bool { return currencies[i] < currencies[j] })
	for _, code := range currencies {
		notes = append(notes, fmt.Sprintf("Cost in %s: %s", code, proposal.CostByCurrency[code].StringFixed(2)))
	}

	if first, last, ok := outflowSpan(proposal.Decisions); ok {
		notes = append(notes, fmt.Sprintf("Cash outflows from %s to %s",
			first.Format("2006-01-02"), last.Format("2006-01-02")))
	}

	if proposal.Status.HasSolution() {
		var skipped []string
		for _, item := range ds.Items {
			if !selected[item.Ref()] {
				skipped = append(skipped, item.Ref().String())
			}
		}
		if len(skipped) > 0 {
			notes = append(notes, fmt.Sprintf("Not procured: %s", listItems(skipped)))
		}
	}

	if solution.TimedOut {
		notes = append(notes, "Time limit reached; the result may not be optimal")
	}
	if solution.Status == solver.Error {
		notes = append(notes, "Solver error: "+solution.Message)
	}
	for _, v := range solution.Violations {
		notes = append(notes, "Violation: "+v.String())
	}
	if !proposal.Status.HasSolution() {
		notes = append(notes, InfeasibilityHints(model, solution)...)
	}
	return notes
}

// InfeasibilityHints suggests remedies for a solve without a usable assignment
func InfeasibilityHints(model *formulation.Model, solution *solver.Solution) []string {
	var hints []string
	if len(model.Unsatisfiable) > 0 {
		refs := make([]string, 0, len(model.Unsatisfiable))
		for _, ref := range model.Unsatisfiable {
			refs = append(refs, ref.String())
		}
		hints = append(hints, fmt.Sprintf("Hint: add procurement options or extend the horizon for %s", listItems(refs)))
	}
	if solution != nil && solution.TimedOut {
		hints = append(hints, "Hint: increase the time limit")
	}
	if solution != nil && solution.Status == solver.Error {
		hints = append(hints, "Hint: raise the amount scale or use the CP solver")
	}
	return append(hints,
		"Hint: raise the budget in the tightest slots",
		"Hint: add procurement options or shorten lead times",
		"Hint: allow items to be skipped with the AT_MOST_ONE demand mode",
	)
}

func outflowSpan(decisions []entities.Decision) (time.Time, time.Time, bool) {
	var first, last time.Time
	found := false
	for _, d := range decisions {
		for _, o := range d.CashOutflows {
			if !found || o.Date.Before(first) {
				first = o.Date
			}
			if !found || o.Date.After(last) {
				last = o.Date
			}
			found = true
		}
	}
	return first, last, found
}

func listItems(refs []string) string {
	if len(refs) <= maxListedItems {
		return strings.Join(refs, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(refs[:maxListedItems], ", "), len(refs)-maxListedItems)
}

// SelectBest returns the proposal with the lowest total cost among those that carry a
// solution and at least one item, or nil when none qualifies. Ties keep the earlier proposal.
func SelectBest(proposals []entities.Proposal) *entities.Proposal {
	var best *entities.Proposal
	for i := range proposals {
		p := &proposals[i]
		if !p.Status.HasSolution() || p.ItemsCount == 0 {
			continue
		}
		if best == nil || p.TotalCost.LessThan(best.TotalCost) {
			best = p
		}
	}
	return best
}
