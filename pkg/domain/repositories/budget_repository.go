package repositories

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// BudgetRepository provides access to time-phased budgets
type BudgetRepository interface {
	// GetBudgetPeriods returns periods within the range ordered by period start
	GetBudgetPeriods(ctx context.Context, window entities.DateRange) ([]*entities.BudgetPeriod, error)
}
