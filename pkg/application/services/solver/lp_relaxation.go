package solver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// LPRelaxation solves the continuous relaxation with every variable in [0, 1] and
// rounds at 0.5. Rounding may break demand or budget rows; such breaches are reported
// as violations on the solution and never repaired.
type LPRelaxation struct{}

// NewLPRelaxation creates the relaxation back-end
func NewLPRelaxation() *LPRelaxation {
	return &LPRelaxation{}
}

func (s *LPRelaxation) Type() entities.SolverType {
	return entities.SolverLP
}

func (s *LPRelaxation) Solve(
	ctx context.Context,
	model *formulation.Model,
	timeLimit time.Duration,
) (*Solution, error) {
	start := time.Now()
	if !model.Feasible() {
		return unsatisfiable(model, s.Type(), start), nil
	}

	ctx, cancel := withTimeLimit(ctx, timeLimit)
	defer cancel()

	solution := &Solution{Backend: s.Type(), Nodes: 1}
	rel, err := relax(ctx, model, nil)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		solution.Status = Infeasible
		solution.TimedOut = true
		solution.Values = make([]float64, model.NumCols())
		solution.Message = "time limit reached before the relaxation was solved"
	case err != nil:
		solution.Status = Error
		solution.Values = make([]float64, model.NumCols())
		solution.Message = err.Error()
	case !rel.feasible:
		solution.Status = Infeasible
		solution.Values = make([]float64, model.NumCols())
		solution.Message = "the relaxation has no feasible point"
	default:
		solution.Status = Optimal
		solution.Bound = rel.objective
		finish(model, solution, model.Selected(rel.values))
	}
	solution.WallTime = time.Since(start)

	logger := logging.FromContext(ctx)
	if solution.Status == Error {
		logger.Warn("LP relaxation failed", zap.String("reason", solution.Message))
	}
	if len(solution.Violations) > 0 {
		logger.Warn("Rounded relaxation violates constraints",
			zap.Int("violations", len(solution.Violations)),
			zap.String("first", solution.Violations[0].String()),
		)
	}
	logger.Debug("LP relaxation finished",
		zap.String("status", string(solution.Status)),
		zap.Float64("bound", solution.Bound),
		zap.Int64("objective", solution.Objective),
		zap.Duration("wall_time", solution.WallTime),
	)
	return solution, nil
}
