package types

import "strings"

// Objective modes for roster generation.
const (
	ModeCash = "cash"
	ModeGPP  = "gpp"
)

// Leverage modes for the optional ownership objective terms.
const (
	LeveragePenalizeHighOwn = "penalize_high_own"
	LeverageTarget          = "target_leverage"
)

// Settings controls one roster-generation invocation. Pointer fields are
// optional constraints; nil means not applied.
type Settings struct {
	NumLineups       int      `json:"num_lineups,omitempty"`
	MaxOverlap       *int     `json:"max_overlap,omitempty"`
	ObjectiveMode    string   `json:"objective_mode,omitempty"`
	LockPlayerIDs    []string `json:"lock_player_ids,omitempty"`
	ExcludePlayerIDs []string `json:"exclude_player_ids,omitempty"`

	TotalOwnershipCap *float64 `json:"total_ownership_cap,omitempty"`
	MinTotalCeiling   *float64 `json:"min_total_ceiling,omitempty"`
	MaxChalkCount     *int     `json:"max_chalk_count,omitempty"`
	ChalkThreshold    float64  `json:"chalk_threshold,omitempty"`

	// Soft ownership objective terms, layered on top of the primary
	// objective. Both a hard chalk cap and these soft terms may be active in
	// the same solve.
	UseOwnership    bool    `json:"use_ownership,omitempty"`
	OwnershipWeight float64 `json:"ownership_weight,omitempty"`
	LeverageMode    string  `json:"leverage_mode,omitempty"`
	TargetOwnership float64 `json:"target_ownership,omitempty"`

	// Scoring pipeline weights. Zero values fall back to package defaults.
	EVWeights        *EVWeights        `json:"ev_weights,omitempty"`
	OwnershipWeights *OwnershipWeights `json:"ownership_weights,omitempty"`

	// UseRandomBuilder selects the stochastic fallback builder instead of the
	// exact solver.
	UseRandomBuilder bool  `json:"use_random_builder,omitempty"`
	RandomSeed       int64 `json:"random_seed,omitempty"`
}

// EVWeights blends projection, ceiling, volatility and ownership into the
// gpp optimization score. The defaults reduce EV to plain projection.
type EVWeights struct {
	Projection float64 `json:"w_proj"`
	Ceiling    float64 `json:"w_ceil"`
	StdDev     float64 `json:"w_std"`
	Chalk      float64 `json:"w_chalk"`
	Leverage   float64 `json:"w_lev"`
}

// DefaultEVWeights returns weights under which EV equals projection.
func DefaultEVWeights() EVWeights {
	return EVWeights{Projection: 1.0}
}

// OwnershipWeights configures the proxy ownership estimate. These are tunable
// constants, not calibrated values.
type OwnershipWeights struct {
	ValueRank      float64 `json:"value_rank"`
	ProjectionRank float64 `json:"proj_rank"`
	SalaryZScore   float64 `json:"salary_zscore"`
	BaseOwnership  float64 `json:"base_ownership"`
	MaxOwnership   float64 `json:"max_ownership"`
}

// DefaultOwnershipWeights mirrors the stock estimator configuration.
func DefaultOwnershipWeights() OwnershipWeights {
	return OwnershipWeights{
		ValueRank:      0.4,
		ProjectionRank: 0.3,
		SalaryZScore:   0.2,
		BaseOwnership:  0.01,
		MaxOwnership:   0.50,
	}
}

// Normalize fills defaults from the rules and clamps degenerate values. It
// must be called once before generation.
func (s *Settings) Normalize(rules *RosterRules) {
	if s.NumLineups <= 0 {
		s.NumLineups = rules.NumLineups
	}
	if s.NumLineups <= 0 {
		s.NumLineups = 1
	}
	if s.ObjectiveMode == "" {
		s.ObjectiveMode = rules.ObjectiveMode
	}
	s.ObjectiveMode = strings.ToLower(s.ObjectiveMode)
	if s.ObjectiveMode != ModeGPP {
		s.ObjectiveMode = ModeCash
	}
	if s.ChalkThreshold <= 0 {
		s.ChalkThreshold = 0.20
	}
	if s.LeverageMode == "" {
		s.LeverageMode = LeveragePenalizeHighOwn
	}
	if s.TargetOwnership <= 0 {
		s.TargetOwnership = 0.15
	}
}

// Score returns the objective coefficient for a player under the active mode.
func (s *Settings) Score(p Player) float64 {
	if s.ObjectiveMode == ModeGPP {
		return p.EV
	}
	return p.Projection
}
