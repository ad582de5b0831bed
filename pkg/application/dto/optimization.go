package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/procure/pkg/domain/entities"
)

// OptimizationRequest describes one optimization run
type OptimizationRequest struct {
	MaxTimeSlots     int                  `json:"max_time_slots"`
	TimeLimitSeconds float64              `json:"time_limit_seconds"`
	SolverType       entities.SolverType  `json:"solver_type"`
	Strategies       []entities.Strategy  `json:"strategies,omitempty"`
	DemandMode       entities.DemandMode  `json:"demand_mode,omitempty"`
	ProjectIDs       []entities.ProjectID `json:"project_ids,omitempty"`
	Window           entities.DateRange   `json:"-"`
}

// TimeLimit returns the per-solve wall-clock limit
func (r OptimizationRequest) TimeLimit() time.Duration {
	return time.Duration(r.TimeLimitSeconds * float64(time.Second))
}

// RunStatus is the overall outcome of an optimization run
type RunStatus string

const (
	RunCompleted        RunStatus = "COMPLETED"
	RunInfeasible       RunStatus = "INFEASIBLE"
	RunValidationFailed RunStatus = "VALIDATION_FAILED"
	RunError            RunStatus = "ERROR"
)

// OptimizationResponse is the structured result of a run.
//
// TotalCost is the best proposal's nominal total: final costs of every currency added at
// face value. It ranks proposals and is not an amount of money; use the proposal's
// CostByCurrency for exact totals, or DisplayTotalCost when a converter is configured.
// ItemsOptimized counts the items the best proposal procures, zero without one.
type OptimizationResponse struct {
	RunID                string              `json:"run_id"`
	Status               RunStatus           `json:"status"`
	ExecutionTimeSeconds float64             `json:"execution_time_seconds"`
	TotalCost            decimal.Decimal     `json:"total_cost"`
	DisplayTotalCost     *entities.Money     `json:"display_total_cost,omitempty"`
	ItemsOptimized       int                 `json:"items_optimized"`
	Proposals            []entities.Proposal `json:"proposals"`
	BestProposal         string              `json:"best_proposal,omitempty"`
	Message              string              `json:"message"`

	DependencyAnalysis *entities.DependencyAnalysis `json:"dependency_analysis,omitempty"`
}
