package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// BranchAndBound is an exact 0/1 solver over LP relaxations. It branches on the most
// fractional variable, explores the "buy" branch first and prunes nodes whose relaxation
// cannot beat the incumbent.
type BranchAndBound struct{}

// NewBranchAndBound creates the MIP back-end
func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{}
}

func (s *BranchAndBound) Type() entities.SolverType {
	return entities.SolverMIP
}

type bbNode struct {
	fixed map[int]float64
}

func (n bbNode) child(col int, value float64) bbNode {
	fixed := make(map[int]float64, len(n.fixed)+1)
	for k, v := range n.fixed {
		fixed[k] = v
	}
	fixed[col] = value
	return bbNode{fixed: fixed}
}

func (s *BranchAndBound) Solve(
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

	var (
		best     int64 = math.MaxInt64
		bestSel  []bool
		found    bool
		timedOut bool
		solveErr error
		nodes    int64
		root     = true
	)
	offer := func(selected []bool) {
		values, objective := model.Complete(selected)
		if len(model.Check(values)) > 0 {
			return
		}
		if !found || objective < best {
			best, bestSel, found = objective, selected, true
		}
	}

	solution := &Solution{Backend: s.Type()}
	if model.DemandMode != entities.ExactlyOne {
		offer(make([]bool, len(model.Vars)))
	}

	stack := []bbNode{{}}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			timedOut = true
			break
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		rel, err := relax(ctx, model, node.fixed)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			timedOut = true
			break
		}
		if err != nil {
			solveErr = err
			break
		}
		if !rel.feasible {
			root = false
			continue
		}
		if root {
			solution.Bound = rel.objective
			root = false
			// Rounding the root often yields a good first incumbent
			offer(model.Selected(rel.values))
		}
		if found && int64(math.Ceil(rel.objective-boundTolerance(rel.objective))) >= best {
			continue
		}

		col := mostFractional(model, rel.values)
		if col < 0 {
			offer(model.Selected(rel.values))
			continue
		}
		stack = append(stack, node.child(col, 0), node.child(col, 1))
	}

	solution.Nodes = nodes
	solution.TimedOut = timedOut
	switch {
	case !found && solveErr != nil:
		solution.Status = Error
		solution.Values = make([]float64, model.NumCols())
		solution.Message = solveErr.Error()
	case !found:
		solution.Status = Infeasible
		solution.Values = make([]float64, model.NumCols())
		if timedOut {
			solution.Message = "time limit reached before any feasible assignment was found"
		} else {
			solution.Message = "no assignment satisfies the demand and budget constraints"
		}
	case timedOut:
		solution.Status = Feasible
	case solveErr != nil:
		// The tree was not exhausted, so the incumbent is not proven optimal
		solution.Status = Feasible
		solution.Message = solveErr.Error()
	default:
		solution.Status = Optimal
	}
	if found {
		finish(model, solution, bestSel)
	}
	solution.WallTime = time.Since(start)

	logger := logging.FromContext(ctx)
	if solveErr != nil {
		logger.Warn("Branch and bound stopped on a relaxation failure", zap.Error(solveErr))
	}
	logger.Debug("Branch and bound finished",
		zap.String("status", string(solution.Status)),
		zap.Int64("nodes", nodes),
		zap.Int64("objective", solution.Objective),
		zap.Float64("bound", solution.Bound),
		zap.Duration("wall_time", solution.WallTime),
	)
	return solution, nil
}
