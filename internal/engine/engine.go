// Package engine wires the scoring pipeline, the exact solver and the
// stochastic builder behind the two entry points the service exposes. Rules,
// pool and settings are explicit per-invocation arguments; the engine holds
// no mutable state across calls.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/builder"
	"github.com/dfskit/roster-engine/internal/scoring"
	"github.com/dfskit/roster-engine/internal/simulator"
	"github.com/dfskit/roster-engine/internal/solver"
	"github.com/dfskit/roster-engine/internal/types"
	"github.com/dfskit/roster-engine/pkg/logger"
)

// Engine generates and ranks rosters. Safe for concurrent use; every call
// operates only on its own arguments.
type Engine struct {
	log *logrus.Logger
}

// New returns an engine logging through the given logger.
func New(log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Engine{log: log}
}

// GenerateRosters validates the rules, cleans and scores the pool, checks
// slot supply proactively, and runs either the exact solver or the
// randomized builder. The returned batch is never partial: every roster in
// it satisfies all hard constraints.
func (e *Engine) GenerateRosters(rules types.RosterRules, pool []types.Player, settings types.Settings) (*types.RosterBatch, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	settings.Normalize(&rules)

	generationID := uuid.New().String()
	log := logger.WithGenerationContext(e.log, generationID, rules.Sport, rules.Site)

	working, err := types.CleanPool(pool)
	if err != nil {
		return nil, err
	}
	working = types.ExcludePlayers(working, settings.ExcludePlayerIDs)
	if len(working) == 0 {
		return nil, types.ErrEmptyPool
	}

	e.scorePool(working, &settings)

	if err := checkSupply(&rules, working); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"pool_size":   len(working),
		"num_lineups": settings.NumLineups,
		"mode":        settings.ObjectiveMode,
		"randomized":  settings.UseRandomBuilder,
	}).Info("Generating rosters")

	if settings.UseRandomBuilder {
		result, err := builder.Build(&rules, working, &settings, log)
		if err != nil {
			return nil, err
		}
		return result.Batch, nil
	}

	batch, err := solver.GenerateBatch(&rules, working, &settings, log)
	if err != nil {
		return nil, err
	}
	if len(batch.Rosters) == 0 {
		return nil, types.ErrNoRosters
	}
	return batch, nil
}

// RankRosters runs the Monte Carlo ranking over an existing batch.
func (e *Engine) RankRosters(batch *types.RosterBatch, cfg simulator.Config) (*simulator.Rankings, error) {
	simulationID := uuid.New().String()
	numRosters := 0
	if batch != nil {
		numRosters = len(batch.Rosters)
	}
	log := logger.WithSimulationContext(e.log, simulationID, numRosters)
	return simulator.Rank(batch, cfg, log)
}

func (e *Engine) scorePool(pool []types.Player, settings *types.Settings) {
	ow := types.DefaultOwnershipWeights()
	if settings.OwnershipWeights != nil {
		ow = *settings.OwnershipWeights
	}
	ew := types.DefaultEVWeights()
	if settings.EVWeights != nil {
		ew = *settings.EVWeights
	}
	scoring.Score(pool, ow, ew)
}

// checkSupply reports, per slot rule, whether the whole pool can cover the
// required seat count. A shortage here is actionable feedback (which slot,
// how many missing), distinct from general infeasibility.
func checkSupply(rules *types.RosterRules, pool []types.Player) error {
	for _, slot := range rules.Slots {
		available := 0
		for _, p := range pool {
			if p.EligibleFor(slot.Eligible) {
				available++
			}
		}
		if available < slot.Count {
			return &types.SupplyShortageError{
				Slot:      slot.Name,
				Required:  slot.Count,
				Available: available,
			}
		}
	}
	// Seats across all slots also need enough distinct players overall.
	if total := rules.LineupSize; total > len(pool) {
		return fmt.Errorf("pool has %d players but the roster needs %d", len(pool), total)
	}
	return nil
}
