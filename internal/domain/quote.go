package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// QuoteKey uniquely identifies a quoted direction: one venue offering one
// base token against one quote token.
type QuoteKey struct {
	Venue VenueID
	Base  common.Address
	Quote common.Address
}

// PriceQuote is a normalized venue quote for trading Base into Quote.
// Rate is in display units (Quote per one Base). BaseLiquidity is the depth
// available on the base side, in base-token smallest-denomination units.
// BaseReserve/QuoteReserve carry constant-product pool reserves when the
// venue exposes them, nil otherwise.
//
// Quotes are overwritten in place on refresh and never deleted on staleness:
// a stale quote is simply excluded from graph construction until a later
// refresh resurrects it.
type PriceQuote struct {
	Venue         VenueID
	Base          Token
	Quote         Token
	Rate          float64
	BaseLiquidity *big.Int
	BaseReserve   *big.Int
	QuoteReserve  *big.Int
	Timestamp     time.Time
}

// Key returns the map key for this quote's (venue, base, quote) direction.
func (q PriceQuote) Key() QuoteKey {
	return QuoteKey{Venue: q.Venue, Base: q.Base.Address, Quote: q.Quote.Address}
}

// Age returns how old the quote is relative to now.
func (q PriceQuote) Age(now time.Time) time.Duration {
	return now.Sub(q.Timestamp)
}

// Stale reports whether the quote has aged beyond maxStaleness.
func (q PriceQuote) Stale(now time.Time, maxStaleness time.Duration) bool {
	return q.Age(now) > maxStaleness
}

// HasReserves reports whether constant-product pool reserves are known for
// this quote.
func (q PriceQuote) HasReserves() bool {
	return q.BaseReserve != nil && q.QuoteReserve != nil &&
		q.BaseReserve.Sign() > 0 && q.QuoteReserve.Sign() > 0
}
