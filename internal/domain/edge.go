package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EdgeKey identifies a directed trading edge: one venue, one direction.
type EdgeKey struct {
	Venue VenueID
	From  common.Address
	To    common.Address
}

// Edge is a directed edge of the token graph, derived from the latest valid
// PriceQuote of its venue. EffectiveRate is precomputed at graph rebuild as
// rate x (1 - fee_bps/10000) and never recomputed during search.
type Edge struct {
	Venue         VenueID
	From          Token
	To            Token
	Rate          float64
	FeeBps        uint16
	EffectiveRate float64

	// SurchargeBps is added on top of FeeBps for inputs above
	// SurchargeAbove, when the venue configures one. Size-dependent, so it
	// is applied at profit simulation rather than folded into FeeBps.
	SurchargeBps   uint16
	SurchargeAbove *big.Int

	// Liquidity is the input-side depth in From base units.
	Liquidity *big.Int

	// FromReserve/ToReserve are constant-product pool reserves when known.
	FromReserve *big.Int
	ToReserve   *big.Int

	QuotedAt time.Time
}

// Key returns the directed (venue, from, to) identity of the edge.
func (e Edge) Key() EdgeKey {
	return EdgeKey{Venue: e.Venue, From: e.From.Address, To: e.To.Address}
}

// FeeBpsFor returns the fee for a trade of the given input size: the
// precomputed tier fee plus the venue's large-trade surcharge when the
// input crosses the threshold.
func (e Edge) FeeBpsFor(in *big.Int) uint16 {
	bps := e.FeeBps
	if e.SurchargeAbove != nil && in != nil && in.Cmp(e.SurchargeAbove) > 0 {
		bps += e.SurchargeBps
	}
	return bps
}

// HasReserves reports whether pool reserves are known for this edge.
func (e Edge) HasReserves() bool {
	return e.FromReserve != nil && e.ToReserve != nil &&
		e.FromReserve.Sign() > 0 && e.ToReserve.Sign() > 0
}

func (e Edge) String() string {
	return string(e.Venue) + ":" + e.From.Symbol + "->" + e.To.Symbol
}
