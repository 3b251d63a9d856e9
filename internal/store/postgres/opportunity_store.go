package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL. It
// is an append-only audit log; the detection pipeline never reads it on the
// hot path.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// storedLeg is the JSONB form of one cycle edge.
type storedLeg struct {
	Venue  string  `json:"venue"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Rate   float64 `json:"rate"`
	FeeBps uint16  `json:"fee_bps"`
}

// Insert stores an accepted opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunity_history (
			id, signature, legs, hops,
			input_amount, gross_output, net_output, net_profit,
			profit_bps, confidence, risk_score, final_score,
			discovered_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13
		)`

	legs := make([]storedLeg, len(opp.Cycle.Edges))
	for i, e := range opp.Cycle.Edges {
		legs[i] = storedLeg{
			Venue:  string(e.Venue),
			From:   e.From.Symbol,
			To:     e.To.Symbol,
			Rate:   e.Rate,
			FeeBps: e.FeeBps,
		}
	}
	legsJSON, err := json.Marshal(legs)
	if err != nil {
		return fmt.Errorf("postgres: marshal legs for %s: %w", opp.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.ID, opp.Signature.Hex(), legsJSON, opp.Cycle.Hops(),
		amountString(opp.InputAmount), amountString(opp.GrossOutput),
		amountString(opp.NetOutput), amountString(opp.NetProfit),
		opp.ProfitBps, opp.Confidence, opp.RiskScore, opp.FinalScore,
		opp.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// MarkExecuted sets the executed flag and timestamp for an opportunity.
func (s *OpportunityStore) MarkExecuted(ctx context.Context, id string) error {
	const query = `
		UPDATE opportunity_history SET
			executed    = TRUE,
			executed_at = NOW()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres: mark executed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: mark executed %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListRecent returns the most recently discovered opportunities, newest
// first. The cycle carries venue and symbol identity only; amounts and
// scores are complete.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	const query = `
		SELECT id, signature, legs,
			input_amount::TEXT, gross_output::TEXT, net_output::TEXT, net_profit::TEXT,
			profit_bps, confidence, risk_score, final_score, discovered_at
		FROM opportunity_history
		ORDER BY discovered_at DESC
		LIMIT $1`

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent: %w", err)
	}
	defer rows.Close()

	var out []domain.Opportunity
	for rows.Next() {
		var (
			o                               domain.Opportunity
			sigHex                          string
			legsJSON                        []byte
			input, gross, netOut, netProfit string
			discoveredAt                    time.Time
		)
		if err := rows.Scan(
			&o.ID, &sigHex, &legsJSON,
			&input, &gross, &netOut, &netProfit,
			&o.ProfitBps, &o.Confidence, &o.RiskScore, &o.FinalScore,
			&discoveredAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}

		o.Signature = domain.SignatureFromHex(sigHex)
		o.InputAmount = parseAmount(input)
		o.GrossOutput = parseAmount(gross)
		o.NetOutput = parseAmount(netOut)
		o.NetProfit = parseAmount(netProfit)
		o.DiscoveredAt = discoveredAt

		var legs []storedLeg
		if err := json.Unmarshal(legsJSON, &legs); err != nil {
			return nil, fmt.Errorf("postgres: decode legs for %s: %w", o.ID, err)
		}
		for _, l := range legs {
			o.Cycle.Edges = append(o.Cycle.Edges, domain.Edge{
				Venue:  domain.VenueID(l.Venue),
				From:   domain.Token{Symbol: l.From},
				To:     domain.Token{Symbol: l.To},
				Rate:   l.Rate,
				FeeBps: l.FeeBps,
			})
		}

		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list recent: %w", err)
	}
	return out, nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseAmount(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

var _ domain.OpportunityStore = (*OpportunityStore)(nil)
