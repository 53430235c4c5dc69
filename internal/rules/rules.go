// Package rules loads declarative roster definitions from YAML files, one
// file per sport/site, e.g.:
//
//	sport: NBA
//	site: draftkings
//	salary_cap: 50000
//	projection_column: proj_points
//	num_lineups: 20
//	roster_slots:
//	  slots:
//	    - {slot: PG, eligible: [PG], count: 1}
//	    - {slot: UTIL, eligible: [PG, SG, SF, PF, C], count: 1}
//	team_limits:
//	  max_from_team: 4
//	  min_teams: 2
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dfskit/roster-engine/internal/types"
)

type rulesFile struct {
	Sport            string `yaml:"sport"`
	Site             string `yaml:"site"`
	Slate            string `yaml:"slate"`
	SalaryCap        int    `yaml:"salary_cap"`
	LineupSize       int    `yaml:"lineup_size"`
	ProjectionColumn string `yaml:"projection_column"`
	NumLineups       int    `yaml:"num_lineups"`
	ObjectiveMode    string `yaml:"objective_mode"`
	RosterSlots      struct {
		Slots []types.SlotRule `yaml:"slots"`
	} `yaml:"roster_slots"`
	TeamLimits types.TeamLimits `yaml:"team_limits"`
}

// Parse decodes and validates one rules document.
func Parse(data []byte) (*types.RosterRules, error) {
	var raw rulesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules yaml: %w", err)
	}

	switch {
	case raw.Sport == "":
		return nil, &types.RulesError{Field: "sport", Reason: "missing"}
	case raw.Site == "":
		return nil, &types.RulesError{Field: "site", Reason: "missing"}
	case raw.SalaryCap == 0:
		return nil, &types.RulesError{Field: "salary_cap", Reason: "missing"}
	case raw.ProjectionColumn == "":
		return nil, &types.RulesError{Field: "projection_column", Reason: "missing"}
	case len(raw.RosterSlots.Slots) == 0:
		return nil, &types.RulesError{Field: "roster_slots", Reason: "missing or empty"}
	}

	slots := make([]types.SlotRule, len(raw.RosterSlots.Slots))
	for i, s := range raw.RosterSlots.Slots {
		eligible := make([]string, 0, len(s.Eligible))
		for _, e := range s.Eligible {
			e = strings.ToUpper(strings.TrimSpace(e))
			if e != "" {
				eligible = append(eligible, e)
			}
		}
		slots[i] = types.SlotRule{
			Name:     strings.ToUpper(strings.TrimSpace(s.Name)),
			Eligible: eligible,
			Count:    s.Count,
		}
	}

	numLineups := raw.NumLineups
	if numLineups <= 0 {
		numLineups = 1
	}

	r := &types.RosterRules{
		Sport:            strings.ToUpper(raw.Sport),
		Site:             raw.Site,
		Slate:            raw.Slate,
		SalaryCap:        raw.SalaryCap,
		LineupSize:       raw.LineupSize,
		ProjectionColumn: raw.ProjectionColumn,
		NumLineups:       numLineups,
		ObjectiveMode:    raw.ObjectiveMode,
		Slots:            slots,
		TeamLimits:       raw.TeamLimits,
	}
	// Validate also reconciles a stale lineup_size with the slot-count sum.
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFile loads and validates a single rules file.
func LoadFile(path string) (*types.RosterRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return Parse(data)
}

// LoadSport locates the rules for a sport inside dir, first by filename stem
// and then by the sport field inside each document.
func LoadSport(dir, sport string) (*types.RosterRules, error) {
	paths, err := listRuleFiles(dir)
	if err != nil {
		return nil, err
	}

	want := strings.ToUpper(strings.TrimSpace(sport))
	for _, p := range paths {
		stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		if strings.ToUpper(stem) == want {
			return LoadFile(p)
		}
	}
	for _, p := range paths {
		r, err := LoadFile(p)
		if err != nil {
			continue
		}
		if r.Sport == want {
			return r, nil
		}
	}
	return nil, fmt.Errorf("no rules found for sport %q in %s", sport, dir)
}

// ListSports returns the sports declared by the rule files in dir.
func ListSports(dir string) ([]string, error) {
	paths, err := listRuleFiles(dir)
	if err != nil {
		return nil, err
	}
	sports := make([]string, 0, len(paths))
	for _, p := range paths {
		r, err := LoadFile(p)
		if err != nil {
			continue
		}
		sports = append(sports, r.Sport)
	}
	sort.Strings(sports)
	return sports, nil
}

func listRuleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
