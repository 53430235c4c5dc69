package types

import "fmt"

// CleanPool drops rows that cannot be used by any solver: non-positive
// salary, negative projection, or no positions. Missing identity is a hard
// error rather than a silent drop. Returns a fresh slice; the input is never
// modified.
func CleanPool(pool []Player) ([]Player, error) {
	cleaned := make([]Player, 0, len(pool))
	for i, p := range pool {
		if p.ID == "" {
			return nil, fmt.Errorf("player at index %d has no id", i)
		}
		if p.Salary <= 0 || p.Projection < 0 || len(p.Positions) == 0 {
			continue
		}
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyPool
	}
	return cleaned, nil
}

// ExcludePlayers removes the listed IDs from the pool.
func ExcludePlayers(pool []Player, ids []string) []Player {
	if len(ids) == 0 {
		return pool
	}
	excluded := make(map[string]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	kept := make([]Player, 0, len(pool))
	for _, p := range pool {
		if !excluded[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept
}

// HasTeamData reports whether at least one player carries a team tag. Team
// constraints are skipped entirely when the pool has no team data.
func HasTeamData(pool []Player) bool {
	for _, p := range pool {
		if p.Team != "" {
			return true
		}
	}
	return false
}
