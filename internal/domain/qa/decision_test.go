package qa

import "testing"

func testThresholds() Thresholds {
	return Thresholds{Low: 0.20, Medium: 0.35, High: 0.55, CloseMatchRatio: 0.85}
}

func candidate(id int64, question string, score float64) ScoredCandidate {
	return ScoredCandidate{
		Entry:  FAQEntry{ID: id, Question: question, Answer: "answer " + question},
		Score:  score,
		Source: SourceVector,
	}
}

func TestDecideEmptyList(t *testing.T) {
	engine := NewEngine(testThresholds())
	decision := engine.Decide(nil)

	if decision.Action != ActionNoMatch {
		t.Fatalf("expected no_match got %s", decision.Action)
	}
	if decision.Score != 0.0 {
		t.Fatalf("expected score 0.0 got %f", decision.Score)
	}
	if len(decision.Supporting) != 0 {
		t.Fatalf("expected empty supporting set")
	}
	if decision.Rationale != RationaleNoCandidates {
		t.Fatalf("unexpected rationale %s", decision.Rationale)
	}
}

func TestDecideHighConfidence(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{candidate(1, "open second account", 0.72)}

	decision := engine.Decide(candidates)
	if decision.Action != ActionDirectAnswer {
		t.Fatalf("expected direct_answer got %s", decision.Action)
	}
	if decision.Best == nil || decision.Best.Entry.ID != 1 {
		t.Fatalf("expected best candidate 1")
	}
	if decision.Rationale != RationaleHighConfidence {
		t.Fatalf("unexpected rationale %s", decision.Rationale)
	}
}

func TestDecideMediumBandClarifiesOnCloseMatches(t *testing.T) {
	engine := NewEngine(testThresholds())
	// close-match cutoff = 0.35 * 0.85 = 0.2975; A and B qualify
	candidates := []ScoredCandidate{
		candidate(1, "A", 0.42),
		candidate(2, "B", 0.40),
		candidate(3, "C", 0.10),
	}

	decision := engine.Decide(candidates)
	if decision.Action != ActionClarify {
		t.Fatalf("expected clarify got %s", decision.Action)
	}
	if len(decision.Supporting) != 2 {
		t.Fatalf("expected 2 supporting candidates got %d", len(decision.Supporting))
	}
	if decision.Supporting[0].Entry.ID != 1 || decision.Supporting[1].Entry.ID != 2 {
		t.Fatalf("supporting set should be [A, B]")
	}
	if decision.Rationale != RationaleMultipleOptions {
		t.Fatalf("unexpected rationale %s", decision.Rationale)
	}
}

func TestDecideMediumBandSingleMatchAnswersDirectly(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{
		candidate(1, "A", 0.40),
		candidate(2, "B", 0.15),
	}

	decision := engine.Decide(candidates)
	if decision.Action != ActionDirectAnswer {
		t.Fatalf("expected direct_answer got %s", decision.Action)
	}
	if decision.Rationale != RationaleSingleMediumMatch {
		t.Fatalf("unexpected rationale %s", decision.Rationale)
	}
	if decision.Best == nil || decision.Best.Entry.ID != 1 {
		t.Fatalf("expected lone medium match surfaced")
	}
}

func TestDecideLowBandShowsSimilar(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{candidate(1, "A", 0.25)}

	decision := engine.Decide(candidates)
	if decision.Action != ActionShowSimilar {
		t.Fatalf("expected show_similar got %s", decision.Action)
	}
	if len(decision.Supporting) != 1 || decision.Supporting[0].Entry.ID != 1 {
		t.Fatalf("expected supporting [A]")
	}
}

func TestDecideShowSimilarDropsBelowLowAndCapsAtFive(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{
		candidate(1, "A", 0.30),
		candidate(2, "B", 0.28),
		candidate(3, "C", 0.27),
		candidate(4, "D", 0.25),
		candidate(5, "E", 0.22),
		candidate(6, "F", 0.21),
		candidate(7, "G", 0.05),
	}

	decision := engine.Decide(candidates)
	if decision.Action != ActionShowSimilar {
		t.Fatalf("expected show_similar got %s", decision.Action)
	}
	if len(decision.Supporting) != 5 {
		t.Fatalf("expected cap at 5 got %d", len(decision.Supporting))
	}
	for _, c := range decision.Supporting {
		if c.Score < 0.20 {
			t.Fatalf("candidate below low threshold leaked into supporting set")
		}
	}
}

func TestDecideWeakMatchesKeptForDiagnosticsOnly(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{candidate(1, "A", 0.05)}

	decision := engine.Decide(candidates)
	if decision.Action != ActionNoMatch {
		t.Fatalf("expected no_match got %s", decision.Action)
	}
	if decision.Score != 0.05 {
		t.Fatalf("expected best score retained, got %f", decision.Score)
	}
	if len(decision.Supporting) != 0 {
		t.Fatalf("weak matches must not be shown as supporting")
	}
	if len(decision.Diagnostics) != 1 {
		t.Fatalf("expected weak match kept for diagnostics")
	}
}

func TestDecideThresholdBoundariesAreInclusive(t *testing.T) {
	engine := NewEngine(testThresholds())

	// exactly high lands in the high band
	decision := engine.Decide([]ScoredCandidate{candidate(1, "A", 0.55)})
	if decision.Action != ActionDirectAnswer || decision.Rationale != RationaleHighConfidence {
		t.Fatalf("score == high must be direct_answer, got %s/%s", decision.Action, decision.Rationale)
	}

	// exactly medium lands in the medium band, not show_similar
	decision = engine.Decide([]ScoredCandidate{candidate(1, "A", 0.35)})
	if decision.Action != ActionDirectAnswer || decision.Rationale != RationaleSingleMediumMatch {
		t.Fatalf("score == medium must stay in medium band, got %s/%s", decision.Action, decision.Rationale)
	}

	// two candidates tied exactly at medium both count as close matches
	decision = engine.Decide([]ScoredCandidate{candidate(1, "A", 0.35), candidate(2, "B", 0.35)})
	if decision.Action != ActionClarify {
		t.Fatalf("tied medium candidates must clarify, got %s", decision.Action)
	}

	// exactly low lands in show_similar, not no_match
	decision = engine.Decide([]ScoredCandidate{candidate(1, "A", 0.20)})
	if decision.Action != ActionShowSimilar {
		t.Fatalf("score == low must be show_similar, got %s", decision.Action)
	}
}

func TestDecideClarifyCapsAtThree(t *testing.T) {
	engine := NewEngine(testThresholds())
	candidates := []ScoredCandidate{
		candidate(1, "A", 0.40),
		candidate(2, "B", 0.39),
		candidate(3, "C", 0.38),
		candidate(4, "D", 0.37),
		candidate(5, "E", 0.36),
	}

	decision := engine.Decide(candidates)
	if decision.Action != ActionClarify {
		t.Fatalf("expected clarify got %s", decision.Action)
	}
	if len(decision.Supporting) != 3 {
		t.Fatalf("expected clarify option set capped at 3, got %d", len(decision.Supporting))
	}
}
