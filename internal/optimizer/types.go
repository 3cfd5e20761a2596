package optimizer

// PlayerProjection is one pool entry: a player, the slots they can legally
// fill, and the value signal the objective runs on. Uncertainty is a pointer
// because some sources never supply one; a nil value scores with the
// configured substitute and is reported as a data-quality warning.
type PlayerProjection struct {
	PlayerID    string   `json:"player_id"`
	Name        string   `json:"display_name"`
	Positions   []string `json:"eligible_positions"`
	Points      float64  `json:"expected_points"`
	Uncertainty *float64 `json:"uncertainty,omitempty"`
}

// SlotAssignment binds one slot instance to exactly one starter.
type SlotAssignment struct {
	Slot    string           `json:"slot"`
	Player  PlayerProjection `json:"player"`
	Utility float64          `json:"utility"`
}

// Lineup is the immutable result of one optimization call. Starters follow
// slot-configuration order; Bench is the rest of the pool ordered by expected
// points descending. Unfilled lists one entry per slot instance the pool
// could not cover.
type Lineup struct {
	Starters         []SlotAssignment   `json:"starters"`
	Bench            []PlayerProjection `json:"bench"`
	Unfilled         []string           `json:"unfilled,omitempty"`
	TotalPoints      float64            `json:"total_expected_points"`
	TotalUtility     float64            `json:"total_utility"`
	TotalUncertainty float64            `json:"total_uncertainty"`
	Warnings         []Warning          `json:"warnings,omitempty"`
}

// Incomplete reports whether any configured slot could not be filled.
func (l *Lineup) Incomplete() bool {
	return len(l.Unfilled) > 0
}

// StarterIDs returns the starter player ids in slot order.
func (l *Lineup) StarterIDs() []string {
	ids := make([]string, 0, len(l.Starters))
	for _, s := range l.Starters {
		ids = append(ids, s.Player.PlayerID)
	}
	return ids
}

// MatchupResult aggregates two independent optimizations over the same slot
// configuration. Totals are expected-point sums, not utility.
type MatchupResult struct {
	Own           Lineup  `json:"own_lineup"`
	Opponent      Lineup  `json:"opponent_lineup"`
	OwnTotal      float64 `json:"own_total"`
	OpponentTotal float64 `json:"opponent_total"`
}

// Margin is the projected point differential, positive when ahead.
func (m *MatchupResult) Margin() float64 {
	return m.OwnTotal - m.OpponentTotal
}

// Warning surfaces a degraded input condition that was recovered locally.
// Warnings ride on the result value so callers decide how to present them.
type Warning struct {
	Code     string `json:"code"`
	PlayerID string `json:"player_id,omitempty"`
	Message  string `json:"message"`
}

// Warning codes
const (
	WarnCodeMissingUncertainty = "MISSING_UNCERTAINTY"
	WarnCodeExcludedProjection = "EXCLUDED_PROJECTION"
)
