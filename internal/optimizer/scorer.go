package optimizer

// Scorer turns a projection into the scalar utility the optimizer maximizes:
// expected points minus a weighted uncertainty penalty. Pure and
// deterministic; identical input always yields identical utility.
type Scorer struct {
	// PenaltyWeight scales how hard projection variance drags on value.
	PenaltyWeight float64 `json:"penalty_weight"`
	// MissingUncertainty substitutes for players with no uncertainty value.
	// Zero means no penalty, which is the contract default; ingestion layers
	// usually configure something harsher.
	MissingUncertainty float64 `json:"missing_uncertainty"`
}

// DefaultScorer returns the tuning used when callers do not override it.
func DefaultScorer() Scorer {
	return Scorer{PenaltyWeight: 0.15}
}

// Score computes the utility for one projection. The second return reports
// whether the uncertainty value was missing and the substitute was used, so
// the caller can surface a data-quality warning instead of hiding it.
func (s Scorer) Score(p PlayerProjection) (float64, bool) {
	if p.Uncertainty == nil {
		return p.Points - s.PenaltyWeight*s.MissingUncertainty, true
	}
	return p.Points - s.PenaltyWeight*(*p.Uncertainty), false
}

// ResolveUncertainty returns the uncertainty value scoring actually used.
func (s Scorer) ResolveUncertainty(p PlayerProjection) float64 {
	if p.Uncertainty == nil {
		return s.MissingUncertainty
	}
	return *p.Uncertainty
}
