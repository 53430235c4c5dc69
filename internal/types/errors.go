package types

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when no usable players remain after cleaning and
// exclusions.
var ErrEmptyPool = errors.New("no valid players after cleaning")

// ErrNoRosters is returned when a generation run produces zero rosters. A
// batch that stops early with at least one roster is not an error.
var ErrNoRosters = errors.New("no feasible rosters produced")

// RulesError identifies the offending field of an invalid rules definition.
type RulesError struct {
	Field  string
	Reason string
}

func (e *RulesError) Error() string {
	return fmt.Sprintf("invalid rules: %s: %s", e.Field, e.Reason)
}

// SupplyShortageError reports a slot for which the whole pool cannot supply
// the required number of eligible players. It is detected before any solver
// or builder runs, and is distinct from general infeasibility.
type SupplyShortageError struct {
	Slot      string
	Required  int
	Available int
}

func (e *SupplyShortageError) Error() string {
	return fmt.Sprintf("insufficient supply for slot %s: need %d eligible players, have %d",
		e.Slot, e.Required, e.Available)
}
