package domain

import "math/big"

// VenueID identifies a liquidity venue: a pool, exchange, or routing
// aggregator offering tradable rates.
type VenueID string

// FeeTier maps a minimum pool liquidity (in base units of the traded token)
// to a swap fee. Shallower pools charge more.
type FeeTier struct {
	MinLiquidity *big.Int
	Bps          uint16
}

// FeeModel describes how a venue charges swap fees. When Tiers is empty the
// flat rate applies; otherwise the first tier whose MinLiquidity is covered by
// the pool's liquidity wins (tiers are ordered deepest first). A surcharge is
// added for trades above LargeTradeThreshold when one is configured.
type FeeModel struct {
	FlatBps uint16
	Tiers   []FeeTier

	LargeTradeSurchargeBps uint16
	LargeTradeThreshold    *big.Int
}

// Bps returns the fee in basis points for a trade of the given input size
// against a pool with the given liquidity. Either argument may be nil, in
// which case the corresponding adjustment is skipped.
func (m FeeModel) Bps(liquidity, input *big.Int) uint16 {
	bps := m.FlatBps
	if len(m.Tiers) > 0 && liquidity != nil {
		bps = m.Tiers[len(m.Tiers)-1].Bps
		for _, tier := range m.Tiers {
			if liquidity.Cmp(tier.MinLiquidity) >= 0 {
				bps = tier.Bps
				break
			}
		}
	}
	if m.LargeTradeThreshold != nil && input != nil && input.Cmp(m.LargeTradeThreshold) > 0 {
		bps += m.LargeTradeSurchargeBps
	}
	return bps
}

// Venue couples a venue identifier with its fee model. Liquidity itself is
// carried per quote; venue metadata refreshes at a lower frequency than
// prices.
type Venue struct {
	ID   VenueID
	Fees FeeModel
}
