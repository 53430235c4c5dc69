package types

import (
	"fmt"
	"sort"
	"strings"
)

// Player is one candidate in the normalized player pool. Identity, salary,
// positions and projection come from the external normalizer; the derived
// fields are filled by the scoring pipeline.
type Player struct {
	ID         string   `json:"player_id"`
	Name       string   `json:"player_name"`
	Team       string   `json:"team,omitempty"`
	Positions  []string `json:"positions"`
	Salary     int      `json:"salary"`
	Projection float64  `json:"projection"`

	// Derived by the scoring pipeline. Ownership and Ceiling may instead be
	// supplied upstream, in which case the pipeline leaves them alone.
	Value     float64 `json:"value,omitempty"`
	Ownership float64 `json:"ownership,omitempty"`
	Floor     float64 `json:"floor,omitempty"`
	Ceiling   float64 `json:"ceiling,omitempty"`
	StdDev    float64 `json:"stddev,omitempty"`
	EV        float64 `json:"ev,omitempty"`
}

// EligibleFor reports whether any of the player's positions appears in the
// slot's eligible set.
func (p Player) EligibleFor(eligible []string) bool {
	for _, pos := range p.Positions {
		for _, e := range eligible {
			if strings.EqualFold(pos, e) {
				return true
			}
		}
	}
	return false
}

// SlotRule is a named roster position with its eligibility set and the number
// of seats it contributes to the roster.
type SlotRule struct {
	Name     string   `json:"slot" yaml:"slot"`
	Eligible []string `json:"eligible" yaml:"eligible"`
	Count    int      `json:"count" yaml:"count"`
}

// TeamLimits holds optional per-team constraints. Zero means unset.
type TeamLimits struct {
	MaxFromTeam int `json:"max_from_team,omitempty" yaml:"max_from_team"`
	MinTeams    int `json:"min_teams,omitempty" yaml:"min_teams"`
}

// RosterRules is the declarative roster definition for one sport/site.
type RosterRules struct {
	Sport            string     `json:"sport"`
	Site             string     `json:"site"`
	Slate            string     `json:"slate,omitempty"`
	SalaryCap        int        `json:"salary_cap"`
	LineupSize       int        `json:"lineup_size,omitempty"`
	ProjectionColumn string     `json:"projection_column"`
	NumLineups       int        `json:"num_lineups"`
	ObjectiveMode    string     `json:"objective_mode,omitempty"`
	Slots            []SlotRule `json:"slots"`
	TeamLimits       TeamLimits `json:"team_limits"`
}

// Validate checks the rules invariants before any solving begins. A declared
// lineup_size that disagrees with the slot-count sum is tolerated; the slot
// sum wins.
func (r *RosterRules) Validate() error {
	if r.SalaryCap <= 0 {
		return &RulesError{Field: "salary_cap", Reason: "must be positive"}
	}
	if len(r.Slots) == 0 {
		return &RulesError{Field: "roster_slots", Reason: "must contain at least one slot"}
	}
	total := 0
	for _, s := range r.Slots {
		if s.Name == "" {
			return &RulesError{Field: "roster_slots", Reason: "slot entry missing name"}
		}
		if s.Count <= 0 {
			return &RulesError{Field: "slot " + s.Name, Reason: "non-positive count"}
		}
		if len(s.Eligible) == 0 {
			return &RulesError{Field: "slot " + s.Name, Reason: "empty eligible list"}
		}
		total += s.Count
	}
	r.LineupSize = total
	return nil
}

// SlotInstance is one concrete seat after expanding a slot rule by its count.
// Each instance requires exactly one player.
type SlotInstance struct {
	Name     string   `json:"slot_instance"`
	Slot     string   `json:"slot"`
	Eligible []string `json:"eligible"`
}

// SlotInstances expands every slot rule by its count, preserving rule order.
func (r *RosterRules) SlotInstances() []SlotInstance {
	instances := make([]SlotInstance, 0, r.LineupSize)
	for _, s := range r.Slots {
		for i := 0; i < s.Count; i++ {
			instances = append(instances, SlotInstance{
				Name:     fmt.Sprintf("%s__%d", s.Name, i+1),
				Slot:     s.Name,
				Eligible: s.Eligible,
			})
		}
	}
	return instances
}

// RosterSlot is one filled seat of a roster.
type RosterSlot struct {
	Slot     string `json:"slot"`
	Instance string `json:"slot_instance"`
	Player   Player `json:"player"`
}

// Roster is a complete, constraint-satisfying assignment of players to all
// slot instances. Rosters are constructed atomically and never mutated.
type Roster struct {
	ID              string       `json:"id"`
	Slots           []RosterSlot `json:"slots"`
	TotalSalary     int          `json:"total_salary"`
	TotalProjection float64      `json:"total_projection"`
	TotalEV         float64      `json:"total_ev"`
}

// Players returns the roster's players in slot order.
func (r Roster) Players() []Player {
	players := make([]Player, 0, len(r.Slots))
	for _, s := range r.Slots {
		players = append(players, s.Player)
	}
	return players
}

// PlayerIDSet returns the set of player IDs in the roster.
func (r Roster) PlayerIDSet() map[string]bool {
	set := make(map[string]bool, len(r.Slots))
	for _, s := range r.Slots {
		set[s.Player.ID] = true
	}
	return set
}

// Signature returns a stable identity for the roster's player set, used for
// deduplication regardless of slot assignment.
func (r Roster) Signature() string {
	ids := make([]string, 0, len(r.Slots))
	for _, s := range r.Slots {
		ids = append(ids, s.Player.ID)
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// Overlap counts players shared with another roster.
func (r Roster) Overlap(other Roster) int {
	set := r.PlayerIDSet()
	shared := 0
	for _, s := range other.Slots {
		if set[s.Player.ID] {
			shared++
		}
	}
	return shared
}

// RosterBatch is an ordered collection of rosters produced together under one
// diversity constraint.
type RosterBatch struct {
	Rosters []Roster `json:"rosters"`
}
