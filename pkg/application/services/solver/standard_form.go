package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/vsinha/procure/pkg/application/services/formulation"
)

const (
	simplexTolerance  = 1e-9
	integralTolerance = 1e-6
)

var errFixingInfeasible = errors.New("fixed variables violate a constraint")

// standardForm is the model restricted to its unfixed columns and rewritten as
// minimize c'x subject to Ax = b, x >= 0. Inequalities get a surplus column and every
// structural column gets an explicit upper-bound row.
//
// Structural columns are expressed as fractions of their upper bound, every row is divided
// by its largest coefficient and the objective by its largest decision cost, so budgets in
// the millions and 0/1 choices share one well-conditioned basis.
type standardForm struct {
	model  *formulation.Model
	fixed  map[int]float64
	free   []int     // model column of each structural column
	bound  []float64 // upper bound of each structural column
	offset float64
	cScale float64

	c []float64
	a *mat.Dense
	b []float64
}

type formRow struct {
	terms []formTerm
	rhs   float64
	le    bool
}

type formTerm struct {
	pos  int // position in free
	coef float64
}

func newStandardForm(model *formulation.Model, fixed map[int]float64) (*standardForm, error) {
	sf := &standardForm{model: model, fixed: make(map[int]float64, len(fixed)), cScale: 1}

	position := make(map[int]int, model.NumCols())
	for col := 0; col < model.NumCols(); col++ {
		v, ok := fixed[col]
		if !ok && model.Upper(col) <= 0 {
			// A zero bound pins the column
			v, ok = 0, true
		}
		if ok {
			sf.fixed[col] = v
			sf.offset += float64(model.Objective[col]) * v
			continue
		}
		position[col] = len(sf.free)
		sf.free = append(sf.free, col)
		sf.bound = append(sf.bound, model.Upper(col))
	}

	var rows []formRow
	surplus := 0
	for _, con := range model.Constraints {
		rhs := float64(con.RHS)
		var terms []formTerm
		var reach float64
		for _, t := range con.Terms {
			if v, ok := sf.fixed[t.Col]; ok {
				rhs -= float64(t.Coef) * v
				continue
			}
			pos := position[t.Col]
			coef := float64(t.Coef) * sf.bound[pos]
			terms = append(terms, formTerm{pos: pos, coef: coef})
			if coef > 0 {
				reach += coef
			}
		}

		le := con.Sense == formulation.LessEqual
		if len(terms) == 0 {
			if (le && rhs < -integralTolerance) || (!le && math.Abs(rhs) > integralTolerance) {
				return nil, fmt.Errorf("%w: %s", errFixingInfeasible, con.Name)
			}
			continue
		}
		// Rows that cannot bind, such as default budget limits, are left out
		if le && reach <= rhs {
			continue
		}
		if le {
			surplus++
		}
		rows = append(rows, normalizeRow(formRow{terms: terms, rhs: rhs, le: le}))
	}

	if len(sf.free) == 0 {
		return sf, nil
	}

	nFree := len(sf.free)
	nRows := len(rows) + nFree
	nCols := 2*nFree + surplus
	sf.a = mat.NewDense(nRows, nCols, nil)
	sf.b = make([]float64, nRows)
	sf.c = make([]float64, nCols)
	for j, col := range sf.free {
		sf.c[j] = float64(model.Objective[col]) * sf.bound[j]
		// Slack penalties stay large relative to decision costs
		if v := math.Abs(sf.c[j]); col < len(model.Vars) && v > sf.cScale {
			sf.cScale = v
		}
	}
	for j := 0; j < nFree; j++ {
		sf.c[j] /= sf.cScale
	}

	next := nFree
	for i, row := range rows {
		for _, t := range row.terms {
			sf.a.Set(i, t.pos, sf.a.At(i, t.pos)+t.coef)
		}
		if row.le {
			sf.a.Set(i, next, 1)
			next++
		}
		sf.b[i] = row.rhs
	}
	for j := range sf.free {
		i := len(rows) + j
		sf.a.Set(i, j, 1)
		sf.a.Set(i, next, 1)
		next++
		sf.b[i] = 1
	}

	for i := range sf.b {
		if sf.b[i] < 0 {
			sf.b[i] = -sf.b[i]
			for j := 0; j < nCols; j++ {
				sf.a.Set(i, j, -sf.a.At(i, j))
			}
		}
	}
	return sf, nil
}

// normalizeRow divides a row by its largest coefficient magnitude
func normalizeRow(row formRow) formRow {
	var largest float64
	for _, t := range row.terms {
		if v := math.Abs(t.coef); v > largest {
			largest = v
		}
	}
	if largest == 0 || largest == 1 {
		return row
	}
	for i := range row.terms {
		row.terms[i].coef /= largest
	}
	row.rhs /= largest
	return row
}

// expand maps structural values back onto every model column
func (sf *standardForm) expand(x []float64) []float64 {
	values := make([]float64, sf.model.NumCols())
	for col, v := range sf.fixed {
		values[col] = v
	}
	for j, col := range sf.free {
		values[col] = x[j] * sf.bound[j]
	}
	return values
}

// boundTolerance is the slack allowed when comparing a relaxation objective to an
// integer incumbent; it grows with the magnitude of the objective
func boundTolerance(objective float64) float64 {
	return integralTolerance * math.Max(1, math.Abs(objective))
}

type relaxation struct {
	values    []float64
	objective float64
	feasible  bool
}

type simplexResult struct {
	objective float64
	x         []float64
	err       error
}

// relax solves the continuous relaxation with some columns fixed. Simplex cannot be
// interrupted, so on context expiry the call returns immediately and the goroutine drains.
func relax(ctx context.Context, model *formulation.Model, fixed map[int]float64) (*relaxation, error) {
	sf, err := newStandardForm(model, fixed)
	if errors.Is(err, errFixingInfeasible) {
		return &relaxation{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(sf.free) == 0 {
		return &relaxation{values: sf.expand(nil), objective: sf.offset, feasible: true}, nil
	}

	done := make(chan simplexResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- simplexResult{err: fmt.Errorf("simplex panicked: %v", r)}
			}
		}()
		objective, x, err := lp.Simplex(sf.c, sf.a, sf.b, simplexTolerance, nil)
		done <- simplexResult{objective: objective, x: x, err: err}
	}()

	var res simplexResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-done:
	}

	switch {
	case errors.Is(res.err, lp.ErrInfeasible):
		return &relaxation{}, nil
	case res.err != nil:
		return nil, fmt.Errorf("failed to solve relaxation: %w", res.err)
	}
	return &relaxation{
		values:    sf.expand(res.x),
		objective: res.objective*sf.cScale + sf.offset,
		feasible:  true,
	}, nil
}

// mostFractional returns the decision variable closest to 0.5, or -1 when all are integral
func mostFractional(model *formulation.Model, values []float64) int {
	best, bestDist := -1, 0.5
	for i := range model.Vars {
		frac := values[i] - math.Floor(values[i])
		if frac < integralTolerance || frac > 1-integralTolerance {
			continue
		}
		if dist := math.Abs(frac - 0.5); dist < bestDist || best < 0 {
			best, bestDist = i, dist
		}
	}
	return best
}
