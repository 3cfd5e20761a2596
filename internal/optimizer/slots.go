package optimizer

import (
	"fmt"
	"strings"
)

// Position tags used across the module. ESPN's "D/ST" and the generic "DEF"
// normalize to DST at the ingestion boundary.
const (
	PositionQB  = "QB"
	PositionRB  = "RB"
	PositionWR  = "WR"
	PositionTE  = "TE"
	PositionK   = "K"
	PositionDST = "DST"
)

// Slot defines one lineup requirement: Count instances of a slot that any
// player whose eligible positions intersect Accepts may fill.
type Slot struct {
	Name    string   `json:"slot_name"`
	Accepts []string `json:"accepted_positions"`
	Count   int      `json:"count"`
}

// SlotConfiguration is an ordered list of slot definitions. Order is
// meaningful: starters and tie-breaks follow it.
type SlotConfiguration []Slot

// DefaultSlots returns the canonical skill-position lineup:
// QB, RB x2, WR x2, TE, and a FLEX that accepts RB/WR/TE.
func DefaultSlots() SlotConfiguration {
	return SlotConfiguration{
		{Name: "QB", Accepts: []string{PositionQB}, Count: 1},
		{Name: "RB", Accepts: []string{PositionRB}, Count: 2},
		{Name: "WR", Accepts: []string{PositionWR}, Count: 2},
		{Name: "TE", Accepts: []string{PositionTE}, Count: 1},
		{Name: "FLEX", Accepts: []string{PositionRB, PositionWR, PositionTE}, Count: 1},
	}
}

// StandardLeagueSlots returns the default ESPN league lineup: the skill
// slots plus a defense and a kicker.
func StandardLeagueSlots() SlotConfiguration {
	return append(DefaultSlots(),
		Slot{Name: "DST", Accepts: []string{PositionDST}, Count: 1},
		Slot{Name: "K", Accepts: []string{PositionK}, Count: 1},
	)
}

// SlotsForFormat resolves a configuration by its format token.
func SlotsForFormat(format string) (SlotConfiguration, error) {
	switch strings.ToLower(format) {
	case "", "standard":
		return StandardLeagueSlots(), nil
	case "skill":
		return DefaultSlots(), nil
	default:
		return nil, fmt.Errorf("%w: unknown lineup format %q", ErrInvalidConfiguration, format)
	}
}

// RequiredStarters is the total number of slot instances to fill.
func (c SlotConfiguration) RequiredStarters() int {
	total := 0
	for _, slot := range c {
		total += slot.Count
	}
	return total
}

// Validate rejects configurations that can never be satisfied by
// construction: negative counts, unnamed slots, or slots that accept no
// position at all. A zero count is a valid degenerate slot.
func (c SlotConfiguration) Validate() error {
	for i, slot := range c {
		if slot.Name == "" {
			return fmt.Errorf("%w: slot %d has no name", ErrInvalidConfiguration, i)
		}
		if slot.Count < 0 {
			return fmt.Errorf("%w: slot %s has negative count %d", ErrInvalidConfiguration, slot.Name, slot.Count)
		}
		if len(slot.Accepts) == 0 {
			return fmt.Errorf("%w: slot %s accepts no positions", ErrInvalidConfiguration, slot.Name)
		}
	}
	return nil
}

// CanFillSlot checks whether a player's eligible positions intersect the
// slot's accepted positions.
func CanFillSlot(player PlayerProjection, slot Slot) bool {
	for _, accepted := range slot.Accepts {
		for _, pos := range player.Positions {
			if pos == accepted {
				return true
			}
		}
	}
	return false
}

// NormalizePosition maps provider position spellings onto the tags above.
func NormalizePosition(raw string) string {
	pos := strings.ToUpper(strings.TrimSpace(raw))
	switch pos {
	case "D/ST", "DEF", "DST":
		return PositionDST
	case "PK":
		return PositionK
	default:
		return pos
	}
}
