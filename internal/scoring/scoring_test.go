package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfskit/roster-engine/internal/types"
)

func testPool() []types.Player {
	return []types.Player{
		{ID: "1", Name: "Stud", Positions: []string{"PG"}, Salary: 9000, Projection: 50},
		{ID: "2", Name: "Mid", Positions: []string{"SG"}, Salary: 6000, Projection: 32},
		{ID: "3", Name: "Value", Positions: []string{"SF"}, Salary: 3500, Projection: 28},
		{ID: "4", Name: "Punt", Positions: []string{"C"}, Salary: 3000, Projection: 12},
	}
}

func TestComputeValue(t *testing.T) {
	pool := testPool()
	ComputeValue(pool)
	assert.InDelta(t, 50.0/9000, pool[0].Value, 1e-9)
	assert.InDelta(t, 28.0/3500, pool[2].Value, 1e-9)
}

func TestComputeValue_ZeroSalaryTreatedAsOne(t *testing.T) {
	pool := []types.Player{{ID: "1", Positions: []string{"PG"}, Salary: 0, Projection: 10}}
	ComputeValue(pool)
	assert.InDelta(t, 10.0, pool[0].Value, 1e-9)
}

func TestEstimateOwnership_Bounds(t *testing.T) {
	pool := testPool()
	w := types.DefaultOwnershipWeights()
	EstimateOwnership(pool, w)

	for _, p := range pool {
		assert.GreaterOrEqual(t, p.Ownership, w.BaseOwnership, "player %s", p.ID)
		assert.LessOrEqual(t, p.Ownership, w.MaxOwnership, "player %s", p.ID)
	}

	// Min-max normalization pins the extremes of the raw score.
	lo, hi := pool[0].Ownership, pool[0].Ownership
	for _, p := range pool[1:] {
		if p.Ownership < lo {
			lo = p.Ownership
		}
		if p.Ownership > hi {
			hi = p.Ownership
		}
	}
	assert.InDelta(t, w.BaseOwnership, lo, 1e-9)
	assert.InDelta(t, w.MaxOwnership, hi, 1e-9)
}

func TestEstimateOwnership_DegenerateCollapsesToBase(t *testing.T) {
	pool := []types.Player{
		{ID: "1", Positions: []string{"PG"}, Salary: 5000, Projection: 20},
		{ID: "2", Positions: []string{"PG"}, Salary: 5000, Projection: 20},
		{ID: "3", Positions: []string{"PG"}, Salary: 5000, Projection: 20},
	}
	w := types.DefaultOwnershipWeights()
	EstimateOwnership(pool, w)
	for _, p := range pool {
		assert.InDelta(t, w.BaseOwnership, p.Ownership, 1e-9)
	}
}

func TestEstimateDistribution_Invariants(t *testing.T) {
	pool := testPool()
	EstimateDistribution(pool)
	for _, p := range pool {
		assert.Greater(t, p.StdDev, 0.0, "player %s", p.ID)
		assert.LessOrEqual(t, p.Floor, p.Projection, "player %s", p.ID)
		assert.GreaterOrEqual(t, p.Ceiling, p.Projection, "player %s", p.ID)
		assert.GreaterOrEqual(t, p.Floor, 0.0, "player %s", p.ID)
	}

	// stddev = max(0.25*proj, 1.0)
	assert.InDelta(t, 12.5, pool[0].StdDev, 1e-9)
	assert.InDelta(t, 3.0, pool[3].StdDev, 1e-9)
}

func TestEstimateDistribution_StdDevFloor(t *testing.T) {
	pool := []types.Player{{ID: "1", Positions: []string{"C"}, Salary: 3000, Projection: 2}}
	EstimateDistribution(pool)
	assert.InDelta(t, 1.0, pool[0].StdDev, 1e-9)
	assert.InDelta(t, 1.0, pool[0].Floor, 1e-9)
	assert.InDelta(t, 3.5, pool[0].Ceiling, 1e-9)
}

func TestEstimateDistribution_KeepsSuppliedCeiling(t *testing.T) {
	pool := []types.Player{{ID: "1", Positions: []string{"C"}, Salary: 3000, Projection: 20, Ceiling: 44}}
	EstimateDistribution(pool)
	assert.InDelta(t, 44.0, pool[0].Ceiling, 1e-9)
}

func TestCalculateEV_DefaultsReduceToProjection(t *testing.T) {
	pool := testPool()
	EstimateDistribution(pool)
	CalculateEV(pool, types.DefaultEVWeights())
	for _, p := range pool {
		assert.InDelta(t, p.Projection, p.EV, 1e-9, "player %s", p.ID)
	}
}

func TestCalculateEV_BlendedFormula(t *testing.T) {
	pool := []types.Player{{
		ID: "1", Positions: []string{"PG"}, Salary: 5000,
		Projection: 40, Ceiling: 55, StdDev: 10, Ownership: 0.30,
	}}
	w := types.EVWeights{Projection: 1, Ceiling: 0.5, StdDev: 0.1, Chalk: 2, Leverage: 0.05}
	CalculateEV(pool, w)

	want := 1*40.0 + 0.5*55.0 + 0.1*10.0 - 2*0.30 + 0.05*(40.0/(0.30+0.05))
	assert.InDelta(t, want, pool[0].EV, 1e-9)
}

func TestScore_Idempotent(t *testing.T) {
	pool := testPool()
	ow := types.DefaultOwnershipWeights()
	ew := types.DefaultEVWeights()

	Score(pool, ow, ew)
	first := make([]types.Player, len(pool))
	copy(first, pool)

	Score(pool, ow, ew)
	for i := range pool {
		assert.InDelta(t, first[i].Ownership, pool[i].Ownership, 1e-9)
		assert.InDelta(t, first[i].Floor, pool[i].Floor, 1e-9)
		assert.InDelta(t, first[i].Ceiling, pool[i].Ceiling, 1e-9)
		assert.InDelta(t, first[i].StdDev, pool[i].StdDev, 1e-9)
		assert.InDelta(t, first[i].EV, pool[i].EV, 1e-9)
	}
}

func TestScore_RespectsSuppliedOwnership(t *testing.T) {
	pool := testPool()
	pool[0].Ownership = 0.42
	Score(pool, types.DefaultOwnershipWeights(), types.DefaultEVWeights())

	require.InDelta(t, 0.42, pool[0].Ownership, 1e-9)
	// The estimation stage is skipped entirely when ownership was supplied.
	assert.Zero(t, pool[1].Ownership)
}
