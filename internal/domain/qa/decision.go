package qa

// Rationale tags attached to decisions for downstream formatting and logs.
const (
	RationaleNoCandidates      = "no_candidates"
	RationaleHighConfidence    = "high_confidence"
	RationaleSingleMediumMatch = "single_medium_match"
	RationaleMultipleOptions   = "multiple_options"
	RationaleSimilarOptions    = "similar_options"
	RationaleUniformlyWeak     = "uniformly_weak"
)

const (
	maxSupporting  = 5
	maxClarify     = 3
	maxDiagnostics = 3
	closeMatchScan = 5
)

// Decision is the engine's verdict over one ranked candidate list.
type Decision struct {
	Action      Action
	Best        *ScoredCandidate
	Supporting  []ScoredCandidate
	Diagnostics []ScoredCandidate
	Score       float64
	Rationale   string
}

// Engine maps a ranked candidate list to a discrete action. Stateless and
// free of I/O; all boundary comparisons are inclusive so a score equal to a
// threshold lands in the higher band.
type Engine struct {
	thresholds Thresholds
}

// NewEngine validates and fixes up the threshold set.
func NewEngine(t Thresholds) *Engine {
	if t.CloseMatchRatio <= 0 || t.CloseMatchRatio > 1 {
		t.CloseMatchRatio = 0.85
	}
	return &Engine{thresholds: t}
}

// Decide evaluates the decision table top-down; the first matching band wins.
func (e *Engine) Decide(candidates []ScoredCandidate) Decision {
	if len(candidates) == 0 {
		return Decision{
			Action:    ActionNoMatch,
			Score:     0.0,
			Rationale: RationaleNoCandidates,
		}
	}

	best := candidates[0]
	t := e.thresholds

	switch {
	case best.Score >= t.High:
		return Decision{
			Action:     ActionDirectAnswer,
			Best:       &best,
			Supporting: capCandidates(candidates, maxSupporting),
			Score:      best.Score,
			Rationale:  RationaleHighConfidence,
		}

	case best.Score >= t.Medium:
		close := e.closeMatches(candidates)
		if len(close) >= 2 {
			return Decision{
				Action:     ActionClarify,
				Best:       &best,
				Supporting: capCandidates(close, maxClarify),
				Score:      best.Score,
				Rationale:  RationaleMultipleOptions,
			}
		}
		// A lone medium-confidence match is still the best available
		// answer; surface it instead of withholding.
		return Decision{
			Action:     ActionDirectAnswer,
			Best:       &best,
			Supporting: capCandidates(candidates, maxClarify),
			Score:      best.Score,
			Rationale:  RationaleSingleMediumMatch,
		}

	case best.Score >= t.Low:
		var above []ScoredCandidate
		for _, c := range candidates {
			if c.Score >= t.Low {
				above = append(above, c)
			}
		}
		return Decision{
			Action:     ActionShowSimilar,
			Best:       &best,
			Supporting: capCandidates(above, maxSupporting),
			Score:      best.Score,
			Rationale:  RationaleSimilarOptions,
		}

	default:
		return Decision{
			Action:      ActionNoMatch,
			Diagnostics: capCandidates(candidates, maxDiagnostics),
			Score:       best.Score,
			Rationale:   RationaleUniformlyWeak,
		}
	}
}

// closeMatches collects candidates among the top 5 scoring at least
// medium x ratio. Two or more signal genuine ambiguity.
func (e *Engine) closeMatches(candidates []ScoredCandidate) []ScoredCandidate {
	cutoff := e.thresholds.Medium * e.thresholds.CloseMatchRatio
	scan := capCandidates(candidates, closeMatchScan)
	var close []ScoredCandidate
	for _, c := range scan {
		if c.Score >= cutoff {
			close = append(close, c)
		}
	}
	return close
}

func capCandidates(candidates []ScoredCandidate, n int) []ScoredCandidate {
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
