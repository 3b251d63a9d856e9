package score

import (
	"math/big"
	"testing"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

var (
	wsol = domain.NewToken("WSOL", "0x0000000000000000000000000000000000000001", 9)
	usdc = domain.NewToken("USDC", "0x0000000000000000000000000000000000000002", 6)
	ray  = domain.NewToken("RAY", "0x0000000000000000000000000000000000000003", 6)
)

func twoHop(quotedAt time.Time) domain.Cycle {
	return domain.Cycle{Edges: []domain.Edge{
		{Venue: "orca", From: wsol, To: usdc, Liquidity: big.NewInt(1_000_000_000), QuotedAt: quotedAt},
		{Venue: "raydium", From: usdc, To: wsol, Liquidity: big.NewInt(1_000_000_000), QuotedAt: quotedAt},
	}}
}

func TestScoreFreshCycleFullConfidence(t *testing.T) {
	now := time.Now()
	s := NewScorer(NewReliabilityTracker(), 5*time.Second)

	o := domain.Opportunity{
		Cycle:       twoHop(now),
		InputAmount: big.NewInt(50_000_000),
		ProfitBps:   200,
	}
	o = s.Score(o, now)

	if o.Confidence < 0.99 || o.Confidence > 1.0 {
		t.Fatalf("Confidence = %v, want ~1.0 for fresh deep liquid cycle", o.Confidence)
	}
	if o.RiskScore != 0 {
		t.Fatalf("RiskScore = %v, want 0 for two hops", o.RiskScore)
	}
	if o.FinalScore <= 0 {
		t.Fatalf("FinalScore = %v, want positive", o.FinalScore)
	}
}

func TestScoreStalenessLowersConfidence(t *testing.T) {
	now := time.Now()
	s := NewScorer(NewReliabilityTracker(), 5*time.Second)

	fresh := s.Score(domain.Opportunity{
		Cycle:       twoHop(now),
		InputAmount: big.NewInt(50_000_000),
		ProfitBps:   200,
	}, now)
	aging := s.Score(domain.Opportunity{
		Cycle:       twoHop(now.Add(-4 * time.Second)),
		InputAmount: big.NewInt(50_000_000),
		ProfitBps:   200,
	}, now)

	if aging.Confidence >= fresh.Confidence {
		t.Fatalf("staleness did not lower confidence: %v >= %v", aging.Confidence, fresh.Confidence)
	}
}

func TestScoreExtraHopsRaiseRisk(t *testing.T) {
	now := time.Now()
	s := NewScorer(NewReliabilityTracker(), 5*time.Second)

	three := domain.Cycle{Edges: []domain.Edge{
		{Venue: "orca", From: wsol, To: usdc, Liquidity: big.NewInt(1_000_000_000), QuotedAt: now},
		{Venue: "raydium", From: usdc, To: ray, Liquidity: big.NewInt(1_000_000_000), QuotedAt: now},
		{Venue: "orca", From: ray, To: wsol, Liquidity: big.NewInt(1_000_000_000), QuotedAt: now},
	}}

	o2 := s.Score(domain.Opportunity{Cycle: twoHop(now), InputAmount: big.NewInt(1_000_000), ProfitBps: 200}, now)
	o3 := s.Score(domain.Opportunity{Cycle: three, InputAmount: big.NewInt(1_000_000), ProfitBps: 200}, now)

	if o3.RiskScore <= o2.RiskScore {
		t.Fatalf("extra hop did not raise risk: %v <= %v", o3.RiskScore, o2.RiskScore)
	}
	if o3.FinalScore >= o2.FinalScore {
		t.Fatalf("equal profit with more hops must rank lower: %v >= %v", o3.FinalScore, o2.FinalScore)
	}
}

func TestReliabilityTracker(t *testing.T) {
	tr := NewReliabilityTracker()

	if got := tr.Rate("orca"); got != 1.0 {
		t.Fatalf("Rate(unknown venue) = %v, want 1.0", got)
	}

	tr.Record("orca", true)
	tr.Record("orca", true)
	tr.Record("orca", false)
	tr.Record("orca", false)
	if got := tr.Rate("orca"); got != 0.5 {
		t.Fatalf("Rate() = %v, want 0.5", got)
	}

	// The window is bounded: a long success streak pushes failures out.
	for i := 0; i < reliabilityWindow; i++ {
		tr.Record("orca", true)
	}
	if got := tr.Rate("orca"); got != 1.0 {
		t.Fatalf("Rate() after full success window = %v, want 1.0", got)
	}
}

func TestCycleRateMultipliesDistinctVenues(t *testing.T) {
	tr := NewReliabilityTracker()
	tr.Record("orca", true)
	tr.Record("orca", false) // 0.5
	tr.Record("raydium", true)

	c := twoHop(time.Now())
	if got := tr.CycleRate(c); got != 0.5 {
		t.Fatalf("CycleRate() = %v, want 0.5*1.0", got)
	}
}

func TestRankOrdering(t *testing.T) {
	now := time.Now()
	mk := func(id string, finalScore float64, profitBps int64, hops int, risk float64) domain.Opportunity {
		edges := make([]domain.Edge, hops)
		for i := range edges {
			edges[i] = domain.Edge{Venue: "orca", From: wsol, To: usdc, QuotedAt: now}
		}
		return domain.Opportunity{
			ID:         id,
			Cycle:      domain.Cycle{Edges: edges},
			ProfitBps:  profitBps,
			RiskScore:  risk,
			FinalScore: finalScore,
		}
	}

	opps := []domain.Opportunity{
		mk("low-score", 10, 500, 2, 0),
		mk("high-score", 90, 100, 3, 0.15),
		mk("tie-more-profit", 50, 300, 3, 0.15),
		mk("tie-less-profit", 50, 200, 2, 0),
		mk("tie-fewer-hops", 50, 200, 3, 0.15),
	}
	Rank(opps)

	want := []string{"high-score", "tie-more-profit", "tie-less-profit", "tie-fewer-hops", "low-score"}
	for i, id := range want {
		if opps[i].ID != id {
			t.Fatalf("rank[%d] = %s, want %s (full order: %v)", i, opps[i].ID, id, ids(opps))
		}
	}
}

func ids(opps []domain.Opportunity) []string {
	out := make([]string, len(opps))
	for i, o := range opps {
		out[i] = o.ID
	}
	return out
}
