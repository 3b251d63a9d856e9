package score

import (
	"math/big"
	"sort"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// Confidence component weights.
const (
	liquidityWeight   = 0.4
	freshnessWeight   = 0.3
	reliabilityWeight = 0.3
)

// hopRisk is the risk added per leg beyond the two-hop minimum; every extra
// leg is more time exposed to price movement. riskPenaltyBps converts the
// risk score into a deduction against the profit-weighted final score.
const (
	hopRisk        = 0.15
	riskPenaltyBps = 100.0
)

// Scorer assigns confidence, risk, and a final ranking score to validated
// opportunities.
type Scorer struct {
	reliability  *ReliabilityTracker
	maxStaleness time.Duration
}

// NewScorer builds a Scorer around the given reliability tracker.
func NewScorer(reliability *ReliabilityTracker, maxStaleness time.Duration) *Scorer {
	if reliability == nil {
		reliability = NewReliabilityTracker()
	}
	return &Scorer{reliability: reliability, maxStaleness: maxStaleness}
}

// Score fills the opportunity's Confidence, RiskScore, and FinalScore
// fields and returns the updated copy.
func (s *Scorer) Score(o domain.Opportunity, now time.Time) domain.Opportunity {
	liq := liquidityRatio(o)
	fresh := s.freshness(o.Cycle, now)
	rel := s.reliability.CycleRate(o.Cycle)

	o.Confidence = liquidityWeight*liq + freshnessWeight*fresh + reliabilityWeight*rel
	o.RiskScore = float64(o.Cycle.Hops()-2) * hopRisk
	o.FinalScore = float64(o.ProfitBps)*o.Confidence - o.RiskScore*riskPenaltyBps
	return o
}

// Rank sorts opportunities best-first: final score descending, ties broken
// by higher profit, then fewer hops, then lower risk.
func Rank(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		a, b := opps[i], opps[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.ProfitBps != b.ProfitBps {
			return a.ProfitBps > b.ProfitBps
		}
		if a.Cycle.Hops() != b.Cycle.Hops() {
			return a.Cycle.Hops() < b.Cycle.Hops()
		}
		return a.RiskScore < b.RiskScore
	})
}

// liquidityRatio is the shallowest edge liquidity over the trial input,
// capped at 1.0.
func liquidityRatio(o domain.Opportunity) float64 {
	minLiq := o.Cycle.MinLiquidity()
	if minLiq == nil || o.InputAmount == nil || o.InputAmount.Sign() <= 0 {
		return 0
	}
	if minLiq.Cmp(o.InputAmount) >= 0 {
		return 1.0
	}
	ratio, _ := new(big.Float).Quo(
		new(big.Float).SetInt(minLiq),
		new(big.Float).SetInt(o.InputAmount),
	).Float64()
	return ratio
}

// freshness is 1 minus the cycle's average quote staleness relative to the
// configured maximum, clamped to [0,1].
func (s *Scorer) freshness(c domain.Cycle, now time.Time) float64 {
	if s.maxStaleness <= 0 || len(c.Edges) == 0 {
		return 1.0
	}
	var total time.Duration
	for _, e := range c.Edges {
		if age := now.Sub(e.QuotedAt); age > 0 {
			total += age
		}
	}
	avg := total / time.Duration(len(c.Edges))
	f := 1.0 - float64(avg)/float64(s.maxStaleness)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
