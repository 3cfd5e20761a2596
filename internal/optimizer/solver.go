package optimizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidConfiguration marks slot configurations that can never be
// satisfied by construction. It is the only error Optimize returns; thin
// pools and empty pools produce a partial Lineup instead.
var ErrInvalidConfiguration = errors.New("invalid slot configuration")

// Optimize solves the starting-lineup assignment for one pool: exactly one
// player per slot instance, each player used at most once, player positions
// intersecting the slot's accepted positions, maximizing summed utility.
// All slots are resolved in a single joint search, so a FLEX is weighed
// against the dedicated slots rather than picked up afterwards.
//
// Slots are left unfilled only when the pool cannot cover them, and every
// unfilled instance is named on the result. Ties on total utility break
// toward lower total starter uncertainty, then the lexicographically
// smallest player id slot by slot in configuration order. Results depend
// only on pool contents, never on pool ordering.
func Optimize(pool []PlayerProjection, slots SlotConfiguration, scorer Scorer) (*Lineup, error) {
	if err := slots.Validate(); err != nil {
		return nil, err
	}

	sorted := make([]PlayerProjection, len(pool))
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PlayerID < sorted[j].PlayerID
	})

	warnings := []Warning{}
	cands := make([]candidate, 0, len(sorted))
	for _, p := range sorted {
		if math.IsNaN(p.Points) || math.IsInf(p.Points, 0) || p.Points < 0 {
			warnings = append(warnings, Warning{
				Code:     WarnCodeExcludedProjection,
				PlayerID: p.PlayerID,
				Message:  fmt.Sprintf("%s has no usable projection and was excluded from the pool", p.Name),
			})
			continue
		}
		utility, missing := scorer.Score(p)
		if missing {
			warnings = append(warnings, Warning{
				Code:     WarnCodeMissingUncertainty,
				PlayerID: p.PlayerID,
				Message:  fmt.Sprintf("%s has no uncertainty value; scored with the configured substitute", p.Name),
			})
		}
		cands = append(cands, candidate{
			projection:  p,
			utility:     utility,
			uncertainty: scorer.ResolveUncertainty(p),
		})
	}

	instances := expandInstances(slots, cands)
	best := searchAssignments(instances, cands)

	return buildLineup(best, instances, cands, warnings), nil
}

type candidate struct {
	projection  PlayerProjection
	utility     float64
	uncertainty float64
}

// slotInstance is one concrete starter seat after slot counts are expanded.
// Instances of the same slot share their eligible list.
type slotInstance struct {
	name     string
	eligible []int // candidate indices, best utility first
}

func expandInstances(slots SlotConfiguration, cands []candidate) []slotInstance {
	instances := make([]slotInstance, 0, slots.RequiredStarters())
	for _, slot := range slots {
		if slot.Count <= 0 {
			continue
		}
		eligible := make([]int, 0, len(cands))
		for ci, c := range cands {
			if CanFillSlot(c.projection, slot) {
				eligible = append(eligible, ci)
			}
		}
		// Candidates already carry ascending player ids from the pool sort,
		// so a stable sort on utility keeps id order inside ties.
		sort.SliceStable(eligible, func(a, b int) bool {
			return cands[eligible[a]].utility > cands[eligible[b]].utility
		})
		for i := 0; i < slot.Count; i++ {
			instances = append(instances, slotInstance{name: slot.Name, eligible: eligible})
		}
	}
	return instances
}

// solution is a complete assignment: one candidate index per slot instance,
// -1 where the instance stays open.
type solution struct {
	assign      []int
	filled      int
	utility     float64
	uncertainty float64
}

type lineupSearch struct {
	instances []slotInstance
	cands     []candidate
	used      []bool
	assign    []int
	best      *solution

	// Admissible bounds over the remaining instances, indexed by instance:
	// how many could still be filled and how much utility they could still
	// add, both ignoring which players are already taken.
	suffixFillable []int
	suffixUtility  []float64
}

// searchAssignments runs a depth-first branch and bound over the slot
// instances. It is exhaustive up to pruning that only cuts branches provably
// worse than the incumbent, so the returned solution is exact: maximum
// filled seats first, then maximum utility, then the tie-break order.
func searchAssignments(instances []slotInstance, cands []candidate) *solution {
	s := &lineupSearch{
		instances:      instances,
		cands:          cands,
		used:           make([]bool, len(cands)),
		assign:         make([]int, len(instances)),
		suffixFillable: make([]int, len(instances)+1),
		suffixUtility:  make([]float64, len(instances)+1),
	}
	for i := range s.assign {
		s.assign[i] = -1
	}
	for i := len(instances) - 1; i >= 0; i-- {
		s.suffixFillable[i] = s.suffixFillable[i+1]
		s.suffixUtility[i] = s.suffixUtility[i+1]
		if len(instances[i].eligible) > 0 {
			s.suffixFillable[i]++
			if top := cands[instances[i].eligible[0]].utility; top > 0 {
				s.suffixUtility[i] += top
			}
		}
	}
	s.descend(0, 0, 0, 0)
	return s.best
}

func (s *lineupSearch) descend(idx, filled int, utility, uncertainty float64) {
	if s.best != nil {
		boundFilled := filled + s.suffixFillable[idx]
		if boundFilled < s.best.filled {
			return
		}
		// Equal bounds stay alive: a branch tying on fill and utility can
		// still win the uncertainty or player-id tie-break.
		if boundFilled == s.best.filled && utility+s.suffixUtility[idx] < s.best.utility {
			return
		}
	}
	if idx == len(s.instances) {
		s.record(filled, utility, uncertainty)
		return
	}
	for _, ci := range s.instances[idx].eligible {
		if s.used[ci] {
			continue
		}
		s.used[ci] = true
		s.assign[idx] = ci
		s.descend(idx+1, filled+1, utility+s.cands[ci].utility, uncertainty+s.cands[ci].uncertainty)
		s.assign[idx] = -1
		s.used[ci] = false
	}
	// Leaving the seat open can still be optimal when filling it would
	// starve a later slot of its only eligible player.
	s.descend(idx+1, filled, utility, uncertainty)
}

func (s *lineupSearch) record(filled int, utility, uncertainty float64) {
	if s.best == nil {
		assign := make([]int, len(s.assign))
		copy(assign, s.assign)
		s.best = &solution{assign: assign, filled: filled, utility: utility, uncertainty: uncertainty}
		return
	}
	if s.improvesBest(filled, utility, uncertainty) {
		copy(s.best.assign, s.assign)
		s.best.filled = filled
		s.best.utility = utility
		s.best.uncertainty = uncertainty
	}
}

// improvesBest applies the full preference order: more seats filled, higher
// utility, lower starter uncertainty, then lexicographically smaller player
// ids slot by slot.
func (s *lineupSearch) improvesBest(filled int, utility, uncertainty float64) bool {
	b := s.best
	if filled != b.filled {
		return filled > b.filled
	}
	if utility != b.utility {
		return utility > b.utility
	}
	if uncertainty != b.uncertainty {
		return uncertainty < b.uncertainty
	}
	return s.lexBeforeBest()
}

// lexBeforeBest compares the working assignment against the incumbent in
// configuration order. An open seat sorts after any player, so earlier
// slots prefer being filled.
func (s *lineupSearch) lexBeforeBest() bool {
	for i, ci := range s.assign {
		bi := s.best.assign[i]
		if ci == bi {
			continue
		}
		if ci == -1 {
			return false
		}
		if bi == -1 {
			return true
		}
		a := s.cands[ci].projection.PlayerID
		b := s.cands[bi].projection.PlayerID
		if a != b {
			return a < b
		}
	}
	return false
}

func buildLineup(best *solution, instances []slotInstance, cands []candidate, warnings []Warning) *Lineup {
	lineup := &Lineup{
		Starters: []SlotAssignment{},
		Bench:    []PlayerProjection{},
		Warnings: warnings,
	}
	inStarters := make([]bool, len(cands))
	for i, inst := range instances {
		ci := best.assign[i]
		if ci < 0 {
			lineup.Unfilled = append(lineup.Unfilled, inst.name)
			continue
		}
		inStarters[ci] = true
		c := cands[ci]
		lineup.Starters = append(lineup.Starters, SlotAssignment{
			Slot:    inst.name,
			Player:  c.projection,
			Utility: c.utility,
		})
		lineup.TotalPoints += c.projection.Points
		lineup.TotalUtility += c.utility
		lineup.TotalUncertainty += c.uncertainty
	}
	for ci, c := range cands {
		if !inStarters[ci] {
			lineup.Bench = append(lineup.Bench, c.projection)
		}
	}
	sort.SliceStable(lineup.Bench, func(i, j int) bool {
		if lineup.Bench[i].Points != lineup.Bench[j].Points {
			return lineup.Bench[i].Points > lineup.Bench[j].Points
		}
		return lineup.Bench[i].PlayerID < lineup.Bench[j].PlayerID
	})
	return lineup
}
