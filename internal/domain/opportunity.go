package domain

import (
	"math/big"
	"time"
)

// Opportunity is a fully costed, validated trade candidate. It is created
// once by the profit calculator, enriched with scores, and then immutable:
// it is either consumed exactly once by the execution collaborator or
// expires after its TTL. All amounts are in base units of the anchor token;
// NetProfit always reflects every known cost, never a gross figure.
type Opportunity struct {
	ID           string
	Cycle        Cycle
	InputAmount  *big.Int
	GrossOutput  *big.Int
	NetOutput    *big.Int
	NetProfit    *big.Int
	ProfitBps    int64
	Confidence   float64
	RiskScore    float64
	FinalScore   float64
	Signature    Signature
	DiscoveredAt time.Time
}

// Expired reports whether the opportunity has outlived ttl at the given time.
func (o Opportunity) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(o.DiscoveredAt) > ttl
}
