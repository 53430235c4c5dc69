package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfskit/roster-engine/internal/simulator"
	"github.com/dfskit/roster-engine/internal/types"
)

func nbaRules() types.RosterRules {
	return types.RosterRules{
		Sport:     "NBA",
		Site:      "draftkings",
		SalaryCap: 50000,
		Slots: []types.SlotRule{
			{Name: "G", Eligible: []string{"PG", "SG"}, Count: 2},
			{Name: "F", Eligible: []string{"SF", "PF"}, Count: 2},
			{Name: "UTIL", Eligible: []string{"PG", "SG", "SF", "PF", "C"}, Count: 1},
		},
	}
}

func nbaPool() []types.Player {
	positions := []string{"PG", "SG", "SF", "PF", "C"}
	pool := make([]types.Player, 0, 20)
	for i := 0; i < 20; i++ {
		pool = append(pool, types.Player{
			ID:         fmt.Sprintf("p%d", i+1),
			Name:       fmt.Sprintf("Player %d", i+1),
			Team:       fmt.Sprintf("T%d", i%5),
			Positions:  []string{positions[i%5]},
			Salary:     4000 + 300*i,
			Projection: float64(18 + i),
		})
	}
	return pool
}

func TestGenerateRosters_ExactEndToEnd(t *testing.T) {
	eng := New(nil)
	batch, err := eng.GenerateRosters(nbaRules(), nbaPool(), types.Settings{NumLineups: 2})
	require.NoError(t, err)
	require.Len(t, batch.Rosters, 2)

	for _, roster := range batch.Rosters {
		assert.Len(t, roster.Slots, 5)
		assert.LessOrEqual(t, roster.TotalSalary, 50000)
		for _, slot := range roster.Slots {
			// Scoring ran before solving.
			assert.Greater(t, slot.Player.Value, 0.0)
			assert.Greater(t, slot.Player.Ownership, 0.0)
			assert.Greater(t, slot.Player.StdDev, 0.0)
		}
	}
}

func TestGenerateRosters_RandomizedEndToEnd(t *testing.T) {
	eng := New(nil)
	batch, err := eng.GenerateRosters(nbaRules(), nbaPool(), types.Settings{
		NumLineups:       5,
		UseRandomBuilder: true,
		RandomSeed:       21,
	})
	require.NoError(t, err)
	require.NotEmpty(t, batch.Rosters)

	seen := map[string]bool{}
	for _, roster := range batch.Rosters {
		assert.Len(t, roster.Slots, 5)
		assert.LessOrEqual(t, roster.TotalSalary, 50000)
		sig := roster.Signature()
		assert.False(t, seen[sig])
		seen[sig] = true
	}
}

func TestGenerateRosters_InvalidRules(t *testing.T) {
	eng := New(nil)
	rules := nbaRules()
	rules.SalaryCap = 0

	_, err := eng.GenerateRosters(rules, nbaPool(), types.Settings{})
	var rulesErr *types.RulesError
	require.ErrorAs(t, err, &rulesErr)
	assert.Equal(t, "salary_cap", rulesErr.Field)
}

func TestGenerateRosters_SupplyShortage(t *testing.T) {
	eng := New(nil)
	// No center anywhere: UTIL still covered, but an all-C slot is not.
	rules := nbaRules()
	rules.Slots = append(rules.Slots, types.SlotRule{Name: "C", Eligible: []string{"C"}, Count: 2})

	pool := nbaPool()
	for i := range pool {
		if pool[i].Positions[0] == "C" {
			pool[i].Positions = []string{"PF"}
		}
	}

	_, err := eng.GenerateRosters(rules, pool, types.Settings{})
	var shortage *types.SupplyShortageError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "C", shortage.Slot)
	assert.Equal(t, 2, shortage.Required)
	assert.Equal(t, 0, shortage.Available)
}

func TestGenerateRosters_ExclusionsCanEmptyThePool(t *testing.T) {
	eng := New(nil)
	pool := nbaPool()
	exclude := make([]string, len(pool))
	for i, p := range pool {
		exclude[i] = p.ID
	}

	_, err := eng.GenerateRosters(nbaRules(), pool, types.Settings{ExcludePlayerIDs: exclude})
	require.ErrorIs(t, err, types.ErrEmptyPool)
}

func TestGenerateRosters_DirtyPoolIsCleaned(t *testing.T) {
	eng := New(nil)
	pool := nbaPool()
	pool = append(pool,
		types.Player{ID: "bad1", Positions: []string{"C"}, Salary: 0, Projection: 10},
		types.Player{ID: "bad2", Positions: []string{"C"}, Salary: 5000, Projection: -1},
	)

	batch, err := eng.GenerateRosters(nbaRules(), pool, types.Settings{NumLineups: 1})
	require.NoError(t, err)
	for _, slot := range batch.Rosters[0].Slots {
		assert.NotContains(t, []string{"bad1", "bad2"}, slot.Player.ID)
	}
}

func TestGenerateRosters_MissingPlayerID(t *testing.T) {
	eng := New(nil)
	pool := append(nbaPool(), types.Player{Positions: []string{"C"}, Salary: 5000, Projection: 10})

	_, err := eng.GenerateRosters(nbaRules(), pool, types.Settings{})
	require.Error(t, err)
}

func TestRankRosters_EndToEnd(t *testing.T) {
	eng := New(nil)
	batch, err := eng.GenerateRosters(nbaRules(), nbaPool(), types.Settings{NumLineups: 3})
	require.NoError(t, err)

	rankings, err := eng.RankRosters(batch, simulator.Config{NumSimulations: 2000, Seed: 5})
	require.NoError(t, err)
	assert.Len(t, rankings.ByEV, 3)
	assert.Len(t, rankings.ByP90, 3)
	assert.Len(t, rankings.BySharpe, 3)

	for _, s := range rankings.ByEV {
		assert.NotEmpty(t, s.RosterID)
		assert.Greater(t, s.EV, 0.0)
	}
}

func TestRankRosters_NilBatch(t *testing.T) {
	eng := New(nil)
	_, err := eng.RankRosters(nil, simulator.DefaultConfig())
	require.Error(t, err)
}
