package solver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/domain/entities"
)

// Status is the normalized outcome of a solve, independent of the back-end
type Status string

const (
	Optimal    Status = "OPTIMAL"
	Feasible   Status = "FEASIBLE"
	Infeasible Status = "INFEASIBLE"
	Error      Status = "ERROR"
)

// HasSolution reports whether Values carry a usable assignment
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Solution is the result of one solve. Values holds one entry per model column.
type Solution struct {
	Status     Status
	Values     []float64
	Objective  int64
	Bound      float64 // relaxation objective at the root, for LP and MIP back-ends
	Backend    entities.SolverType
	WallTime   time.Duration
	Nodes      int64
	TimedOut   bool
	Violations []formulation.Violation
	Message    string
}

// Solver solves a model within a wall-clock limit.
// A time limit of zero means no limit beyond the context. Numerical failures inside a
// back-end come back as status ERROR on the solution.
type Solver interface {
	Type() entities.SolverType
	Solve(ctx context.Context, model *formulation.Model, timeLimit time.Duration) (*Solution, error)
}

// Options tunes the back-ends
type Options struct {
	Workers int // parallel workers for the exact boolean search
}

// New returns the back-end for a solver type
func New(solverType entities.SolverType, opts Options) (Solver, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	switch solverType {
	case entities.SolverCP:
		return NewBooleanSearch(opts.Workers), nil
	case entities.SolverLP:
		return NewLPRelaxation(), nil
	case entities.SolverMIP:
		return NewBranchAndBound(), nil
	default:
		return nil, fmt.Errorf("unknown solver type %q", solverType)
	}
}

// withTimeLimit derives a context that expires after limit, if positive
func withTimeLimit(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, limit)
}

// unsatisfiable is the result for models that cannot have any solution
func unsatisfiable(model *formulation.Model, backend entities.SolverType, start time.Time) *Solution {
	return &Solution{
		Status:     Infeasible,
		Backend:    backend,
		WallTime:   time.Since(start),
		Violations: model.Check(make([]float64, model.NumCols())),
		Message:    fmt.Sprintf("%d items have no feasible procurement option", len(model.Unsatisfiable)),
	}
}

// finish fills the exact objective and validates the assignment
func finish(model *formulation.Model, solution *Solution, selected []bool) {
	solution.Values, solution.Objective = model.Complete(selected)
	solution.Violations = model.Check(solution.Values)
}
