package bus

import (
	"math/big"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// Envelope is the JSON wire form of an opportunity as published on the
// Redis bus. Amounts travel as decimal strings so arbitrary-precision
// values survive any JSON consumer.
type Envelope struct {
	ID           string        `json:"id"`
	Signature    string        `json:"signature"`
	Legs         []envelopeLeg `json:"legs"`
	InputAmount  string        `json:"input_amount"`
	GrossOutput  string        `json:"gross_output"`
	NetOutput    string        `json:"net_output"`
	NetProfit    string        `json:"net_profit"`
	ProfitBps    int64         `json:"profit_bps"`
	Confidence   float64       `json:"confidence"`
	RiskScore    float64       `json:"risk_score"`
	FinalScore   float64       `json:"final_score"`
	DiscoveredAt time.Time     `json:"discovered_at"`
}

type envelopeLeg struct {
	Venue  string  `json:"venue"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	FeeBps uint16  `json:"fee_bps"`
}

// NewEnvelope converts an opportunity into its wire form.
func NewEnvelope(o domain.Opportunity) Envelope {
	legs := make([]envelopeLeg, len(o.Cycle.Edges))
	for i, e := range o.Cycle.Edges {
		legs[i] = envelopeLeg{
			Venue:  string(e.Venue),
			From:   e.From.Symbol,
			To:     e.To.Symbol,
			Rate:   e.Rate,
			FeeBps: e.FeeBps,
		}
	}
	return Envelope{
		ID:           o.ID,
		Signature:    o.Signature.Hex(),
		Legs:         legs,
		InputAmount:  amountString(o.InputAmount),
		GrossOutput:  amountString(o.GrossOutput),
		NetOutput:    amountString(o.NetOutput),
		NetProfit:    amountString(o.NetProfit),
		ProfitBps:    o.ProfitBps,
		Confidence:   o.Confidence,
		RiskScore:    o.RiskScore,
		FinalScore:   o.FinalScore,
		DiscoveredAt: o.DiscoveredAt,
	}
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
