package solver

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/procure/pkg/application/services/formulation"
	"github.com/vsinha/procure/pkg/domain/entities"
	"github.com/vsinha/procure/pkg/infrastructure/logging"
)

// BooleanSearch is an exact depth-first branch and bound over 0/1 variables.
// Each demand group contributes one choice (an option/slot variable, or nothing in
// AtMostOne mode); budget rows are tracked incrementally with their penalized slack.
// Subtrees of the first group are explored in parallel and share one incumbent.
type BooleanSearch struct {
	workers int
}

// NewBooleanSearch creates the exact boolean back-end
func NewBooleanSearch(workers int) *BooleanSearch {
	if workers < 1 {
		workers = 1
	}
	return &BooleanSearch{workers: workers}
}

func (s *BooleanSearch) Type() entities.SolverType {
	return entities.SolverCP
}

// Solve searches until the tree is exhausted or the time limit expires.
// Expiry yields FEASIBLE with the incumbent, or INFEASIBLE when none was found.
func (s *BooleanSearch) Solve(
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

	p := newSearchProblem(model)
	inc := newIncumbent()
	var nodes atomic.Int64
	var aborted atomic.Bool

	if !p.strict {
		// Selecting nothing is feasible whenever no budget row has a negative limit
		w := p.newWorker(ctx, inc, &nodes, &aborted)
		if w.feasibleEmpty() {
			inc.offer(0, w.choice)
		}
	}

	if len(p.groups) > 0 {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for _, c := range p.groups[0].choices {
			g.Go(func() error {
				w := p.newWorker(ctx, inc, &nodes, &aborted)
				w.branch(0, c)
				w.flush()
				return nil
			})
		}
		_ = g.Wait()
	}

	solution := &Solution{
		Backend:  s.Type(),
		Nodes:    nodes.Load(),
		TimedOut: aborted.Load(),
	}

	choice, found := inc.result()
	switch {
	case !found:
		solution.Status = Infeasible
		solution.Values = make([]float64, model.NumCols())
		if solution.TimedOut {
			solution.Message = "time limit reached before any feasible assignment was found"
		} else {
			solution.Message = "no assignment satisfies the demand and budget constraints"
		}
	case solution.TimedOut:
		solution.Status = Feasible
	default:
		solution.Status = Optimal
	}

	if found {
		selected := make([]bool, len(model.Vars))
		for _, c := range choice {
			if c >= 0 {
				selected[c] = true
			}
		}
		finish(model, solution, selected)
	}
	solution.WallTime = time.Since(start)

	logging.FromContext(ctx).Debug("Boolean search finished",
		zap.String("status", string(solution.Status)),
		zap.Int64("nodes", solution.Nodes),
		zap.Int64("objective", solution.Objective),
		zap.Duration("wall_time", solution.WallTime),
	)
	return solution, nil
}

const none = -1

type searchGroup struct {
	choices []int // variable indices ordered by objective coefficient; none for skipping
}

type budgetRow struct {
	rhs     int64
	upper   int64
	penalty int64
}

type searchProblem struct {
	strict    bool
	groups    []searchGroup
	rows      []budgetRow
	varRow    []int
	varCost   []int64
	varCoef   []int64
	suffixMin []int64 // lower bound on the objective contributed by groups[k:]
}

func newSearchProblem(model *formulation.Model) *searchProblem {
	p := &searchProblem{
		strict:  model.DemandMode == entities.ExactlyOne,
		varRow:  make([]int, len(model.Vars)),
		varCost: make([]int64, len(model.Vars)),
		varCoef: make([]int64, len(model.Vars)),
	}
	for i := range model.Vars {
		p.varRow[i] = none
		p.varCoef[i] = model.Objective[i]
	}

	for _, c := range model.Constraints {
		if c.Kind != formulation.BudgetConstraint {
			continue
		}
		row := budgetRow{rhs: c.RHS}
		if c.SlackCol >= 0 {
			row.upper = int64(model.Upper(c.SlackCol))
			row.penalty = model.Objective[c.SlackCol]
		}
		for _, t := range c.Terms {
			if t.Col < len(model.Vars) {
				p.varRow[t.Col] = len(p.rows)
				p.varCost[t.Col] = t.Coef
			}
		}
		p.rows = append(p.rows, row)
	}

	mins := make([]int64, 0, len(model.Groups))
	for _, members := range model.Groups {
		choices := append([]int(nil), members...)
		if !p.strict {
			choices = append(choices, none)
		}
		sort.SliceStable(choices, func(i, j int) bool {
			return p.coef(choices[i]) < p.coef(choices[j])
		})
		p.groups = append(p.groups, searchGroup{choices: choices})
		mins = append(mins, p.coef(choices[0]))
	}

	// Most valuable groups first tightens the bound early
	order := make([]int, len(p.groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return mins[order[i]] < mins[order[j]] })
	sorted := make([]searchGroup, len(p.groups))
	for i, k := range order {
		sorted[i] = p.groups[k]
	}
	p.groups = sorted

	p.suffixMin = make([]int64, len(p.groups)+1)
	for k := len(p.groups) - 1; k >= 0; k-- {
		p.suffixMin[k] = p.suffixMin[k+1] + p.coef(p.groups[k].choices[0])
	}
	return p
}

func (p *searchProblem) coef(choice int) int64 {
	if choice == none {
		return 0
	}
	return p.varCoef[choice]
}

// penaltyAt returns the slack penalty of a row at a spend level, or false when the
// overrun exceeds the slack bound
func (p *searchProblem) penaltyAt(row int, spend int64) (int64, bool) {
	r := p.rows[row]
	over := spend - r.rhs
	if over <= 0 {
		return 0, true
	}
	if over > r.upper {
		return 0, false
	}
	return over * r.penalty, true
}

type incumbent struct {
	mu     sync.Mutex
	best   atomic.Int64
	choice []int
	found  bool
}

func newIncumbent() *incumbent {
	inc := &incumbent{}
	inc.best.Store(math.MaxInt64)
	return inc
}

func (inc *incumbent) offer(objective int64, choice []int) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.found && objective >= inc.best.Load() {
		return
	}
	inc.best.Store(objective)
	inc.choice = append(inc.choice[:0], choice...)
	inc.found = true
}

func (inc *incumbent) result() ([]int, bool) {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	return inc.choice, inc.found
}

type worker struct {
	p       *searchProblem
	ctx     context.Context
	inc     *incumbent
	nodes   *atomic.Int64
	aborted *atomic.Bool

	spend  []int64
	obj    int64
	pen    int64
	choice []int
	local  int64
}

func (p *searchProblem) newWorker(
	ctx context.Context,
	inc *incumbent,
	nodes *atomic.Int64,
	aborted *atomic.Bool,
) *worker {
	choice := make([]int, len(p.groups))
	for i := range choice {
		choice[i] = none
	}
	return &worker{
		p:       p,
		ctx:     ctx,
		inc:     inc,
		nodes:   nodes,
		aborted: aborted,
		spend:   make([]int64, len(p.rows)),
		choice:  choice,
	}
}

func (w *worker) feasibleEmpty() bool {
	for row := range w.p.rows {
		if _, ok := w.p.penaltyAt(row, 0); !ok {
			return false
		}
	}
	return true
}

func (w *worker) stopped() bool {
	w.local++
	if w.local%256 == 0 {
		w.nodes.Add(256)
		if w.ctx.Err() != nil {
			w.aborted.Store(true)
		}
	}
	return w.aborted.Load()
}

// flush adds the nodes not yet reported by stopped
func (w *worker) flush() {
	w.nodes.Add(w.local % 256)
	w.local = 0
}

// branch tries one choice for group k and explores below it
func (w *worker) branch(k int, c int) {
	if w.obj+w.p.coef(c)+w.pen+w.p.suffixMin[k+1] >= w.inc.best.Load() {
		return
	}
	if !w.apply(k, c) {
		return
	}
	w.dfs(k + 1)
	w.undo(k, c)
}

func (w *worker) dfs(k int) {
	if w.stopped() {
		return
	}
	if k == len(w.p.groups) {
		w.inc.offer(w.obj+w.pen, w.choice)
		return
	}

	for _, c := range w.p.groups[k].choices {
		// Choices are ordered by coefficient and penalties only grow, so no later choice can do better
		if w.obj+w.p.coef(c)+w.pen+w.p.suffixMin[k+1] >= w.inc.best.Load() {
			break
		}
		if !w.apply(k, c) {
			continue
		}
		w.dfs(k + 1)
		w.undo(k, c)
		if w.aborted.Load() {
			return
		}
	}
}

func (w *worker) apply(k int, c int) bool {
	w.choice[k] = c
	if c == none {
		return true
	}

	if row := w.p.varRow[c]; row != none {
		before, _ := w.p.penaltyAt(row, w.spend[row])
		after, ok := w.p.penaltyAt(row, w.spend[row]+w.p.varCost[c])
		if !ok {
			w.choice[k] = none
			return false
		}
		w.spend[row] += w.p.varCost[c]
		w.pen += after - before
	}
	w.obj += w.p.varCoef[c]
	return true
}

func (w *worker) undo(k int, c int) {
	w.choice[k] = none
	if c == none {
		return
	}

	if row := w.p.varRow[c]; row != none {
		before, _ := w.p.penaltyAt(row, w.spend[row])
		w.spend[row] -= w.p.varCost[c]
		after, _ := w.p.penaltyAt(row, w.spend[row])
		w.pen -= before - after
	}
	w.obj -= w.p.varCoef[c]
}
