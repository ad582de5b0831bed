package memory

import (
	"context"
	"sort"

	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/domain/repositories"
)

// BudgetRepository provides in-memory budget storage
type BudgetRepository struct {
	periods []entities.BudgetPeriod
}

// NewBudgetRepository creates a new in-memory budget repository
func NewBudgetRepository() *BudgetRepository {
	return &BudgetRepository{
		periods: []entities.BudgetPeriod{},
	}
}

// Verify interface compliance
var _ repositories.BudgetRepository = (*BudgetRepository)(nil)

// LoadBudgetPeriods loads periods into the repository
func (r *BudgetRepository) LoadBudgetPeriods(periods []*entities.BudgetPeriod) error {
	for _, period := range periods {
		r.periods = append(r.periods, *period)
	}
	return nil
}

// GetBudgetPeriods returns periods within the window ordered by period start
func (r *BudgetRepository) GetBudgetPeriods(
	ctx context.Context,
	window entities.DateRange,
) ([]*entities.BudgetPeriod, error) {
	var periods []*entities.BudgetPeriod
	for i := range r.periods {
		if window.Contains(r.periods[i].PeriodStart) {
			periods = append(periods, &r.periods[i])
		}
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].PeriodStart.Before(periods[j].PeriodStart)
	})
	return periods, nil
}
