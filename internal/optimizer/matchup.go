package optimizer

import "sync"

// Evaluate optimizes both sides of a head-to-head matchup under the same
// slot configuration and scorer. The two solves share no state, so they run
// concurrently; sequential and parallel execution produce identical results.
func Evaluate(ownPool, opponentPool []PlayerProjection, slots SlotConfiguration, scorer Scorer) (*MatchupResult, error) {
	var (
		wg       sync.WaitGroup
		own, opp *Lineup
		ownErr   error
		oppErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		own, ownErr = Optimize(ownPool, slots, scorer)
	}()
	go func() {
		defer wg.Done()
		opp, oppErr = Optimize(opponentPool, slots, scorer)
	}()
	wg.Wait()

	if ownErr != nil {
		return nil, ownErr
	}
	if oppErr != nil {
		return nil, oppErr
	}

	return &MatchupResult{
		Own:           *own,
		Opponent:      *opp,
		OwnTotal:      own.TotalPoints,
		OpponentTotal: opp.TotalPoints,
	}, nil
}
