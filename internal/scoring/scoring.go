// Package scoring derives the solver's objective signals from a raw
// projection: value, proxy ownership, floor/ceiling/stddev, and the blended
// EV score. All stages are pure functions over the pool slice and are
// idempotent: fields supplied upstream are kept, only missing ones are
// filled.
package scoring

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dfskit/roster-engine/internal/types"
)

// ComputeValue fills the projection-per-dollar ratio. A zero salary is
// treated as 1 so the ratio never divides by zero.
func ComputeValue(pool []types.Player) {
	for i := range pool {
		salary := pool[i].Salary
		if salary < 1 {
			salary = 1
		}
		pool[i].Value = pool[i].Projection / float64(salary)
	}
}

// EstimateOwnership fills a proxy ownership estimate in
// [BaseOwnership, MaxOwnership] from value rank, projection rank and a
// clipped salary z-score. When every player scores identically the estimate
// collapses to BaseOwnership instead of dividing by zero.
func EstimateOwnership(pool []types.Player, w types.OwnershipWeights) {
	n := len(pool)
	if n == 0 {
		return
	}

	values := make([]float64, n)
	projections := make([]float64, n)
	salaries := make([]float64, n)
	for i, p := range pool {
		salary := p.Salary
		if salary < 1 {
			salary = 1
		}
		values[i] = p.Projection / float64(salary)
		projections[i] = p.Projection
		salaries[i] = float64(p.Salary)
	}

	valueRank := percentileRanks(values)
	projRank := percentileRanks(projections)

	mean := stat.Mean(salaries, nil)
	sigma := stat.StdDev(salaries, nil)
	if sigma <= 0 || math.IsNaN(sigma) {
		sigma = 1
	}

	scores := make([]float64, n)
	for i := range pool {
		z := (salaries[i] - mean) / sigma
		z = math.Max(-2, math.Min(2, z))
		salaryNorm := (z + 2) / 4
		scores[i] = w.ValueRank*valueRank[i] + w.ProjectionRank*projRank[i] + w.SalaryZScore*salaryNorm
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	for i := range pool {
		norm := 0.0
		if hi > lo {
			norm = (scores[i] - lo) / (hi - lo)
		}
		pool[i].Ownership = w.BaseOwnership + norm*(w.MaxOwnership-w.BaseOwnership)
	}
}

// EstimateDistribution fills stddev, ceiling and floor. A supplied stddev or
// ceiling is kept; the floor is always derived so it tracks the other two.
func EstimateDistribution(pool []types.Player) {
	for i := range pool {
		p := &pool[i]
		if p.StdDev <= 0 {
			p.StdDev = math.Max(0.25*p.Projection, 1.0)
		}
		if p.Ceiling <= 0 {
			p.Ceiling = p.Projection + 1.5*p.StdDev
		}
		p.Floor = math.Max(p.Projection-p.StdDev, 0)
	}
}

// CalculateEV fills the blended optimization score:
//
//	ev = w_proj*proj + w_ceil*ceiling + w_std*stddev - w_chalk*own + w_lev*proj/(own+0.05)
//
// The formula stays linear in the player so it is usable directly as an
// integer-program objective coefficient.
func CalculateEV(pool []types.Player, w types.EVWeights) {
	for i := range pool {
		p := &pool[i]
		leverage := w.Leverage * (p.Projection / (p.Ownership + 0.05))
		p.EV = w.Projection*p.Projection +
			w.Ceiling*p.Ceiling +
			w.StdDev*p.StdDev -
			w.Chalk*p.Ownership +
			leverage
	}
}

// Score runs the full pipeline in dependency order. Ownership supplied by an
// upstream source (any player with a non-zero estimate) is respected and the
// estimation stage is skipped, matching how imported ownership projections
// are merged ahead of the proxy model.
func Score(pool []types.Player, ow types.OwnershipWeights, ew types.EVWeights) {
	ComputeValue(pool)
	if !hasOwnership(pool) {
		EstimateOwnership(pool, ow)
	}
	EstimateDistribution(pool)
	CalculateEV(pool, ew)
}

func hasOwnership(pool []types.Player) bool {
	for _, p := range pool {
		if p.Ownership > 0 {
			return true
		}
	}
	return false
}

// percentileRanks returns the average-method percentile rank of each element,
// in (0, 1].
func percentileRanks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// ties share the average of their 1-based rank positions
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg / float64(n)
		}
		i = j + 1
	}
	return ranks
}
