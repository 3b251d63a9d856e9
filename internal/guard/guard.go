// Package guard applies the stateless validity and safety rules every
// opportunity draft must clear before it is scored or surfaced.
package guard

import (
	"math"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// Rejection reasons, stable strings keyed into telemetry counters.
const (
	ReasonDuplicateEdge  = "duplicate_edge"
	ReasonNotClosed      = "not_closed"
	ReasonDiscontinuous  = "discontinuous"
	ReasonSingleVenue    = "single_venue"
	ReasonBelowThreshold = "below_threshold"
	ReasonNotProfitable  = "not_profitable"
)

// Guard validates opportunity drafts. All rules are pure functions of the
// draft itself; the guard holds only configuration.
type Guard struct {
	minProfitBps int64
	safetyMargin float64
}

// New builds a Guard. minProfitBps is the configured floor; safetyMargin
// scales the cycle's total fee load into a second, fee-aware floor.
func New(minProfitBps int64, safetyMargin float64) *Guard {
	if safetyMargin < 1 {
		safetyMargin = 1
	}
	return &Guard{minProfitBps: minProfitBps, safetyMargin: safetyMargin}
}

// Check runs every rule against the draft. It returns ok=true when the
// draft passes, otherwise the name of the first rule that rejected it.
func (g *Guard) Check(o domain.Opportunity) (ok bool, reason string) {
	c := o.Cycle
	switch {
	case c.HasDuplicateEdge():
		return false, ReasonDuplicateEdge
	case !c.Closed():
		return false, ReasonNotClosed
	case !c.Continuous():
		return false, ReasonDiscontinuous
	case c.SingleVenue():
		return false, ReasonSingleVenue
	case o.NetProfit == nil || o.NetProfit.Sign() <= 0:
		return false, ReasonNotProfitable
	case o.ProfitBps < g.Threshold(c):
		return false, ReasonBelowThreshold
	}
	return true, ""
}

// Threshold returns the effective profit floor for a cycle: the larger of
// the configured minimum and the safety margin applied to the cycle's
// total fees, rounded up.
func (g *Guard) Threshold(c domain.Cycle) int64 {
	feeFloor := int64(math.Ceil(g.safetyMargin * float64(c.TotalFeeBps())))
	if feeFloor > g.minProfitBps {
		return feeFloor
	}
	return g.minProfitBps
}
