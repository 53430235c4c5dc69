// Package solver produces objective-maximizing rosters from a scored player
// pool via an exact binary-program formulation. A decision variable exists
// only for eligible (player, slot instance) pairs, which keeps the model
// sparse. Multi-lineup batches are generated by the sequential
// solve/freeze/add-overlap-constraint/resolve loop, with the history of
// accepted player sets threaded through each solve.
package solver

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/solver/mip"
	"github.com/dfskit/roster-engine/internal/types"
)

// ownershipRowScale lifts ownership fractions into the same magnitude range
// as the model's unit rows.
const ownershipRowScale = 100

// GenerateBatch runs the multi-lineup loop. Infeasibility on the first
// lineup is a hard failure; on a later lineup the batch simply stops growing
// and the rosters produced so far are returned.
func GenerateBatch(rules *types.RosterRules, pool []types.Player, s *types.Settings, log *logrus.Entry) (*types.RosterBatch, error) {
	instances := rules.SlotInstances()
	hasTeam := types.HasTeamData(pool)

	poolIDs := make(map[string]bool, len(pool))
	for _, p := range pool {
		poolIDs[p.ID] = true
	}
	for _, id := range s.LockPlayerIDs {
		if !poolIDs[id] {
			return nil, fmt.Errorf("locked player %s not found in pool after exclusions", id)
		}
	}

	log.WithFields(logrus.Fields{
		"pool_size":      len(pool),
		"slot_instances": len(instances),
		"num_lineups":    s.NumLineups,
		"objective_mode": s.ObjectiveMode,
	}).Info("Starting exact roster generation")

	batch := &types.RosterBatch{}
	var previous []map[string]bool

	for k := 0; k < s.NumLineups; k++ {
		roster, feasible, err := solveOne(rules, instances, pool, s, previous, hasTeam)
		if err != nil {
			return nil, fmt.Errorf("solving lineup %d: %w", k+1, err)
		}
		if !feasible {
			if k == 0 {
				return nil, types.ErrNoRosters
			}
			log.WithFields(logrus.Fields{
				"requested": s.NumLineups,
				"produced":  k,
			}).Warn("Solver infeasible mid-batch, returning rosters produced so far")
			break
		}

		batch.Rosters = append(batch.Rosters, *roster)
		previous = append(previous, roster.PlayerIDSet())

		log.WithFields(logrus.Fields{
			"lineup":           k + 1,
			"total_salary":     roster.TotalSalary,
			"total_projection": roster.TotalProjection,
		}).Debug("Accepted roster")
	}

	return batch, nil
}

func solveOne(rules *types.RosterRules, instances []types.SlotInstance, pool []types.Player, s *types.Settings, previous []map[string]bool, hasTeam bool) (*types.Roster, bool, error) {
	model := mip.NewModel()

	// x[p,s] only where the player is eligible for the slot instance.
	varPlayer := make(map[int]int)
	varInstance := make(map[int]int)
	playerVars := make([][]int, len(pool))
	instanceVars := make([][]int, len(instances))
	for pi := range pool {
		for si := range instances {
			if !pool[pi].EligibleFor(instances[si].Eligible) {
				continue
			}
			v := model.AddBinary(fmt.Sprintf("x_%s_%s", pool[pi].ID, instances[si].Name))
			varPlayer[v] = pi
			varInstance[v] = si
			playerVars[pi] = append(playerVars[pi], v)
			instanceVars[si] = append(instanceVars[si], v)
		}
	}
	if model.NumVariables() == 0 {
		return nil, false, nil
	}

	// Each slot instance filled by exactly one player.
	for si, vars := range instanceVars {
		terms := unitTerms(vars)
		if err := model.AddConstraint("fill_"+instances[si].Name, terms, mip.Equal, 1); err != nil {
			return nil, false, err
		}
	}

	// Each player used at most once; locked players exactly once.
	lockSet := make(map[string]bool, len(s.LockPlayerIDs))
	for _, id := range s.LockPlayerIDs {
		lockSet[id] = true
	}
	for pi, vars := range playerVars {
		if len(vars) == 0 {
			if lockSet[pool[pi].ID] {
				// Locked player is eligible for no slot.
				return nil, false, nil
			}
			continue
		}
		sense, rhs := mip.LessEq, 1.0
		name := "player_once_" + pool[pi].ID
		if lockSet[pool[pi].ID] {
			sense, rhs = mip.Equal, 1.0
			name = "lock_" + pool[pi].ID
		}
		if err := model.AddConstraint(name, unitTerms(vars), sense, rhs); err != nil {
			return nil, false, err
		}
	}

	// Salary cap across all selected pairs.
	salaryTerms := make(map[int]float64, model.NumVariables())
	for v, pi := range varPlayer {
		salaryTerms[v] = float64(pool[pi].Salary)
	}
	if err := model.AddConstraint("salary_cap", salaryTerms, mip.LessEq, float64(rules.SalaryCap)); err != nil {
		return nil, false, err
	}

	// Optional ownership cap. Ownership coefficients are tiny fractions next
	// to the unit and salary-scale rows, which can ill-condition the simplex
	// basis, so the whole row is scaled up uniformly.
	if s.TotalOwnershipCap != nil {
		terms := make(map[int]float64)
		for v, pi := range varPlayer {
			terms[v] = pool[pi].Ownership * ownershipRowScale
		}
		if err := model.AddConstraint("total_ownership_cap", terms, mip.LessEq, *s.TotalOwnershipCap*ownershipRowScale); err != nil {
			return nil, false, err
		}
	}

	// Optional minimum total ceiling.
	if s.MinTotalCeiling != nil {
		terms := make(map[int]float64)
		for v, pi := range varPlayer {
			terms[v] = pool[pi].Ceiling
		}
		if err := model.AddConstraint("min_total_ceiling", terms, mip.GreaterEq, *s.MinTotalCeiling); err != nil {
			return nil, false, err
		}
	}

	// Optional cap on players at or above the chalk threshold.
	if s.MaxChalkCount != nil {
		terms := make(map[int]float64)
		for v, pi := range varPlayer {
			if pool[pi].Ownership >= s.ChalkThreshold {
				terms[v] = 1
			}
		}
		if err := model.AddConstraint("max_chalk_count", terms, mip.LessEq, float64(*s.MaxChalkCount)); err != nil {
			return nil, false, err
		}
	}

	if hasTeam {
		if err := addTeamConstraints(model, rules, pool, playerVars, len(instances)); err != nil {
			return nil, false, err
		}
	}

	// Overlap cap against every previously accepted roster in the batch.
	if s.MaxOverlap != nil {
		for j, prev := range previous {
			terms := make(map[int]float64)
			for v, pi := range varPlayer {
				if prev[pool[pi].ID] {
					terms[v] = 1
				}
			}
			name := fmt.Sprintf("max_overlap_prev_%d", j+1)
			if err := model.AddConstraint(name, terms, mip.LessEq, float64(*s.MaxOverlap)); err != nil {
				return nil, false, err
			}
		}
	}

	// Primary objective: projection in cash mode, EV in gpp mode.
	for v, pi := range varPlayer {
		model.AddObjectiveTerm(v, s.Score(pool[pi]))
	}

	// Soft ownership terms are additive components on top of the primary
	// objective, independent of the hard chalk cap.
	if s.UseOwnership && s.OwnershipWeight > 0 {
		switch s.LeverageMode {
		case types.LeverageTarget:
			if err := addTargetOwnership(model, pool, varPlayer, s, rules.LineupSize); err != nil {
				return nil, false, err
			}
		default:
			for v, pi := range varPlayer {
				model.AddObjectiveTerm(v, -s.OwnershipWeight*pool[pi].Ownership)
			}
		}
	}

	sol, err := mip.Solve(model)
	if err != nil {
		return nil, false, err
	}
	if sol.Status != mip.StatusOptimal {
		return nil, false, nil
	}

	return extractRoster(instances, pool, sol, varPlayer, varInstance), true, nil
}

// addTeamConstraints adds the per-team selection cap and the min-teams
// indicator linking. M is the roster size, the most players any team could
// contribute.
func addTeamConstraints(model *mip.Model, rules *types.RosterRules, pool []types.Player, playerVars [][]int, rosterSize int) error {
	teamVars := make(map[string][]int)
	for pi, vars := range playerVars {
		team := pool[pi].Team
		if team == "" || len(vars) == 0 {
			continue
		}
		teamVars[team] = append(teamVars[team], vars...)
	}

	if maxFrom := rules.TeamLimits.MaxFromTeam; maxFrom > 0 {
		for team, vars := range teamVars {
			if err := model.AddConstraint("max_from_team_"+team, unitTerms(vars), mip.LessEq, float64(maxFrom)); err != nil {
				return err
			}
		}
	}

	if minTeams := rules.TeamLimits.MinTeams; minTeams > 0 {
		indicators := make(map[int]float64, len(teamVars))
		for team, vars := range teamVars {
			y := model.AddBinary("y_team_" + team)
			indicators[y] = 1

			// team_sum >= y and team_sum <= M*y link usage to the indicator.
			lower := unitTerms(vars)
			lower[y] = -1
			if err := model.AddConstraint("team_used_lb_"+team, lower, mip.GreaterEq, 0); err != nil {
				return err
			}
			upper := unitTerms(vars)
			upper[y] = -float64(rosterSize)
			if err := model.AddConstraint("team_used_ub_"+team, upper, mip.LessEq, 0); err != nil {
				return err
			}
		}
		if err := model.AddConstraint("min_teams", indicators, mip.GreaterEq, float64(minTeams)); err != nil {
			return err
		}
	}

	return nil
}

// addTargetOwnership linearizes |sum(own*x) - target| with two non-negative
// slack variables and penalizes their sum.
func addTargetOwnership(model *mip.Model, pool []types.Player, varPlayer map[int]int, s *types.Settings, rosterSize int) error {
	target := s.TargetOwnership * float64(rosterSize)

	dPos := model.AddContinuous("delta_pos")
	dNeg := model.AddContinuous("delta_neg")

	terms := make(map[int]float64)
	for v, pi := range varPlayer {
		terms[v] = pool[pi].Ownership
	}
	terms[dPos] = -1
	terms[dNeg] = 1
	if err := model.AddConstraint("target_leverage_def", terms, mip.Equal, target); err != nil {
		return err
	}

	model.AddObjectiveTerm(dPos, -s.OwnershipWeight)
	model.AddObjectiveTerm(dNeg, -s.OwnershipWeight)
	return nil
}

func extractRoster(instances []types.SlotInstance, pool []types.Player, sol *mip.Solution, varPlayer, varInstance map[int]int) *types.Roster {
	chosen := make(map[int]int, len(instances)) // instance index -> pool index
	for v, pi := range varPlayer {
		if sol.Values[v] > 0.5 {
			chosen[varInstance[v]] = pi
		}
	}

	roster := &types.Roster{ID: uuid.New().String()}
	for si, inst := range instances {
		pi, ok := chosen[si]
		if !ok {
			continue
		}
		p := pool[pi]
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

func unitTerms(vars []int) map[int]float64 {
	terms := make(map[int]float64, len(vars))
	for _, v := range vars {
		terms[v] = 1
	}
	return terms
}
