package mip

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
)

// Solution holds the result of a branch-and-bound run. Values is indexed by
// variable index; binaries are exact 0/1.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

const (
	intTol   = 1e-6
	boundTol = 1e-9
	looseTol = 1e-8
	maxNodes = 200000
)

type node struct {
	fixed map[int]float64
}

// Solve runs branch and bound over the model's LP relaxations. It returns an
// error only for internal solver failures; an infeasible model is reported
// through Solution.Status.
func Solve(m *Model) (*Solution, error) {
	root := node{fixed: make(map[int]float64)}
	stack := []node{root}

	var best *Solution
	nodes := 0

	for len(stack) > 0 {
		nodes++
		if nodes > maxNodes {
			return nil, fmt.Errorf("branch and bound exceeded %d nodes", maxNodes)
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		values, bound, ok, err := solveRelaxation(m, n.fixed)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if best != nil && bound <= best.Objective+boundTol {
			continue
		}

		branchVar := mostFractional(m, values)
		if branchVar < 0 {
			// Integral relaxation: candidate solution.
			rounded := roundBinaries(m, values)
			obj := objectiveValue(m, rounded)
			if best == nil || obj > best.Objective+boundTol {
				best = &Solution{Status: StatusOptimal, Objective: obj, Values: rounded}
			}
			continue
		}

		// Explore the 1-branch first; roster models tend to satisfy their
		// fill constraints faster that way.
		zero := node{fixed: copyFixed(n.fixed)}
		zero.fixed[branchVar] = 0
		one := node{fixed: copyFixed(n.fixed)}
		one.fixed[branchVar] = 1
		stack = append(stack, zero, one)
	}

	if best == nil {
		return &Solution{Status: StatusInfeasible}, nil
	}
	return best, nil
}

// solveRelaxation solves the LP relaxation with the given binaries fixed.
// Returns the full variable assignment, the relaxation objective (an upper
// bound for the subtree), and ok=false when the node is infeasible.
func solveRelaxation(m *Model, fixed map[int]float64) ([]float64, float64, bool, error) {
	numVars := len(m.names)

	free := make([]int, 0, numVars)
	col := make(map[int]int, numVars)
	for v := 0; v < numVars; v++ {
		if _, isFixed := fixed[v]; !isFixed {
			col[v] = len(free)
			free = append(free, v)
		}
	}

	objConst := 0.0
	for v, val := range fixed {
		objConst += m.objective[v] * val
	}

	type row struct {
		terms map[int]float64 // lp column -> coeff
		rhs   float64
	}
	var rows []row

	addRow := func(terms map[int]float64, rhs float64) {
		if rhs < 0 {
			for c := range terms {
				terms[c] = -terms[c]
			}
			rhs = -rhs
		}
		rows = append(rows, row{terms: terms, rhs: rhs})
	}

	slackCount := 0
	nextSlack := func() int {
		slackCount++
		return len(free) + slackCount - 1
	}

	for _, c := range m.cons {
		rhs := c.rhs
		terms := make(map[int]float64)
		for v, coeff := range c.terms {
			if val, isFixed := fixed[v]; isFixed {
				rhs -= coeff * val
				continue
			}
			terms[col[v]] += coeff
		}

		if len(terms) == 0 {
			// Fully fixed constraint; check it directly.
			switch c.sense {
			case LessEq:
				if rhs < -boundTol {
					return nil, 0, false, nil
				}
			case GreaterEq:
				if rhs > boundTol {
					return nil, 0, false, nil
				}
			case Equal:
				if math.Abs(rhs) > boundTol {
					return nil, 0, false, nil
				}
			}
			continue
		}

		switch c.sense {
		case LessEq:
			terms[nextSlack()] = 1
		case GreaterEq:
			terms[nextSlack()] = -1
		}
		addRow(terms, rhs)
	}

	// Upper bounds for free binaries: x + s = 1.
	for _, v := range free {
		if !m.binary[v] {
			continue
		}
		terms := map[int]float64{col[v]: 1, nextSlack(): 1}
		addRow(terms, 1)
	}

	numCols := len(free) + slackCount
	if numCols == 0 {
		// Everything fixed and feasible.
		return assembleValues(m, fixed, nil, nil), objConst, true, nil
	}

	if len(rows) == 0 {
		// No constraints touch the free variables; optimize them directly.
		x := make([]float64, numCols)
		boundObj := objConst
		for _, v := range free {
			coeff := m.objective[v]
			if coeff <= 0 {
				continue
			}
			if !m.binary[v] {
				return nil, 0, false, fmt.Errorf("unbounded continuous variable %s", m.names[v])
			}
			x[col[v]] = 1
			boundObj += coeff
		}
		return assembleValues(m, fixed, free, x), boundObj, true, nil
	}

	cVec := make([]float64, numCols)
	for v, coeff := range m.objective {
		if lpCol, isFree := col[v]; isFree {
			cVec[lpCol] = -coeff // simplex minimizes
		}
	}

	a := mat.NewDense(len(rows), numCols, nil)
	b := make([]float64, len(rows))
	for i, r := range rows {
		for c, coeff := range r.terms {
			a.Set(i, c, coeff)
		}
		b[i] = r.rhs
	}

	optF, optX, err := lp.Simplex(cVec, a, b, 0, nil)
	if err != nil && (errors.Is(err, lp.ErrBland) || errors.Is(err, lp.ErrLinSolve)) {
		// Rows of mixed magnitude can leave a node's basis borderline
		// ill-conditioned; a looser pivot tolerance recovers it.
		optF, optX, err = lp.Simplex(cVec, a, b, looseTol, nil)
	}
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("simplex: %w", err)
	}

	values := assembleValues(m, fixed, free, optX)
	return values, -optF + objConst, true, nil
}

func assembleValues(m *Model, fixed map[int]float64, free []int, x []float64) []float64 {
	values := make([]float64, len(m.names))
	for v, val := range fixed {
		values[v] = val
	}
	for i, v := range free {
		values[v] = x[i]
	}
	return values
}

// mostFractional returns the binary variable whose relaxation value is
// furthest from integral, or -1 when all binaries are integral.
func mostFractional(m *Model, values []float64) int {
	bestVar := -1
	bestDist := intTol
	for v, val := range values {
		if !m.binary[v] {
			continue
		}
		dist := math.Abs(val - math.Round(val))
		if dist > bestDist {
			bestDist = dist
			bestVar = v
		}
	}
	return bestVar
}

func roundBinaries(m *Model, values []float64) []float64 {
	rounded := make([]float64, len(values))
	for v, val := range values {
		if m.binary[v] {
			rounded[v] = math.Round(val)
		} else {
			rounded[v] = val
		}
	}
	return rounded
}

func objectiveValue(m *Model, values []float64) float64 {
	obj := 0.0
	for v, coeff := range m.objective {
		obj += coeff * values[v]
	}
	return obj
}

func copyFixed(fixed map[int]float64) map[int]float64 {
	copied := make(map[int]float64, len(fixed)+1)
	for v, val := range fixed {
		copied[v] = val
	}
	return copied
}
