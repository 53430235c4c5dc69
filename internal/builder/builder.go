// Package builder constructs many feasible rosters quickly with a randomized
// greedy strategy, trading optimality for throughput and variety. Each
// attempt fills the slot instances in shuffled order with no backtracking; a
// slot with no valid candidate fails the whole attempt.
package builder

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/types"
)

// topWindow bounds the candidate pool per slot: wide enough for variety,
// narrow enough to stay near the top of the score order.
const topWindow = 1000

// minAttempts and attemptsPerLineup size the hard attempt budget.
const (
	minAttempts       = 4000
	attemptsPerLineup = 800
)

// Result carries the built batch plus the single best roster seen across all
// attempts, which callers may use when the target count was not reached.
type Result struct {
	Batch *types.RosterBatch
	Best  *types.Roster
}

// Build runs randomized attempts up to the budget or until the requested
// count of unique rosters is reached. Zero rosters is a hard failure.
func Build(rules *types.RosterRules, pool []types.Player, s *types.Settings, log *logrus.Entry) (*Result, error) {
	seed := s.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	instances := rules.SlotInstances()
	hasTeam := types.HasTeamData(pool)

	want := s.NumLineups
	budget := attemptsPerLineup * want
	if budget < minAttempts {
		budget = minAttempts
	}

	log.WithFields(logrus.Fields{
		"pool_size":      len(pool),
		"num_lineups":    want,
		"attempt_budget": budget,
		"seed":           seed,
	}).Info("Starting randomized roster generation")

	batch := &types.RosterBatch{}
	seen := make(map[string]bool)
	var best *types.Roster
	bestScore := -1.0

	attempts := 0
	for ; attempts < budget && len(batch.Rosters) < want; attempts++ {
		roster := buildOne(rules, instances, pool, s, rng, hasTeam)
		if roster == nil {
			continue
		}
		score := rosterScore(*roster, s)
		if score > bestScore {
			bestScore = score
			best = roster
		}
		sig := roster.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		batch.Rosters = append(batch.Rosters, *roster)
	}

	if len(batch.Rosters) == 0 {
		if best != nil {
			batch.Rosters = append(batch.Rosters, *best)
		} else {
			return nil, types.ErrNoRosters
		}
	}

	log.WithFields(logrus.Fields{
		"attempts": attempts,
		"produced": len(batch.Rosters),
	}).Info("Randomized roster generation finished")

	return &Result{Batch: batch, Best: best}, nil
}

// buildOne makes a single attempt. Returns nil when any slot cannot be
// filled or the minimum-teams rule fails after construction.
func buildOne(rules *types.RosterRules, instances []types.SlotInstance, pool []types.Player, s *types.Settings, rng *rand.Rand, hasTeam bool) *types.Roster {
	order := rng.Perm(len(instances))

	used := make(map[string]bool, len(instances))
	teamCounts := make(map[string]int)
	salary := 0
	picks := make(map[int]types.Player, len(instances)) // instance index -> player

	maxFromTeam := rules.TeamLimits.MaxFromTeam

	for _, si := range order {
		inst := instances[si]
		remaining := rules.SalaryCap - salary

		candidates := make([]types.Player, 0, len(pool))
		for _, p := range pool {
			if used[p.ID] || !p.EligibleFor(inst.Eligible) || p.Salary > remaining {
				continue
			}
			if hasTeam && maxFromTeam > 0 && p.Team != "" && teamCounts[p.Team] >= maxFromTeam {
				continue
			}
			candidates = append(candidates, p)
		}
		if len(candidates) == 0 {
			return nil
		}

		// Rank by score, then score-per-dollar, and pick randomly from a
		// bounded top window.
		sort.SliceStable(candidates, func(a, b int) bool {
			sa, sb := s.Score(candidates[a]), s.Score(candidates[b])
			if sa != sb {
				return sa > sb
			}
			return ratio(candidates[a], s) > ratio(candidates[b], s)
		})
		window := len(candidates)
		if window > topWindow {
			window = topWindow
		}
		pick := candidates[rng.Intn(window)]

		picks[si] = pick
		used[pick.ID] = true
		salary += pick.Salary
		if pick.Team != "" {
			teamCounts[pick.Team]++
		}
	}

	if hasTeam && rules.TeamLimits.MinTeams > 0 && len(teamCounts) < rules.TeamLimits.MinTeams {
		return nil
	}

	roster := &types.Roster{ID: uuid.New().String()}
	for si, inst := range instances {
		p := picks[si]
		roster.Slots = append(roster.Slots, types.RosterSlot{
			Slot:     inst.Slot,
			Instance: inst.Name,
			Player:   p,
		})
		roster.TotalSalary += p.Salary
		roster.TotalProjection += p.Projection
		roster.TotalEV += p.EV
	}
	return roster
}

func rosterScore(r types.Roster, s *types.Settings) float64 {
	total := 0.0
	for _, slot := range r.Slots {
		total += s.Score(slot.Player)
	}
	return total
}

func ratio(p types.Player, s *types.Settings) float64 {
	salary := p.Salary
	if salary < 1 {
		salary = 1
	}
	return s.Score(p) / float64(salary)
}
