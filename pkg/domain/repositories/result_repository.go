package repositories

import (
	"context"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// ResultRepository persists optimization outcomes
type ResultRepository interface {
	SaveRun(ctx context.Context, run *entities.OptimizationRun) error
}

// Catalog bundles the read-side repositories an optimization run needs
type Catalog struct {
	Projects  ProjectRepository
	Decisions DecisionRepository
	Options   ProcurementOptionRepository
	Budgets   BudgetRepository
}
