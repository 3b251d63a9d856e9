// Package graph maintains the in-memory weighted directed multigraph built
// from the current quote snapshot. Edges are stored in arena-style adjacency
// lists indexed by token id, so a rebuild is a single O(E) pass and the
// structure carries no pointer cycles.
package graph

import (
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// Graph is rebuilt from scratch for every discovery cycle and never mutated
// during search, so concurrent searches share it without locks.
type Graph struct {
	tokens  []domain.Token
	index   map[domain.Token]int
	edges   [][]domain.Edge
	maxRate float64
	builtAt time.Time
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[domain.Token]int)}
}

// Rebuild reconstructs the edge list from a quote snapshot. Multi-edges are
// preserved: the same pair offered by two venues produces two distinct
// edges, which is the whole point of cross-venue search. The effective rate
// is computed here, once, and never recomputed during search. Quotes from
// venues missing in the venue set are skipped and counted.
func (g *Graph) Rebuild(snapshot []domain.PriceQuote, venues map[domain.VenueID]domain.Venue) (edges, skipped int) {
	g.tokens = g.tokens[:0]
	g.index = make(map[domain.Token]int, len(g.index))
	g.edges = g.edges[:0]
	g.maxRate = 0
	g.builtAt = time.Now()

	for _, q := range snapshot {
		venue, ok := venues[q.Venue]
		if !ok {
			skipped++
			continue
		}
		if q.Rate <= 0 {
			skipped++
			continue
		}
		feeBps := venue.Fees.Bps(q.BaseLiquidity, nil)
		eff := q.Rate * (1 - float64(feeBps)/10000)
		if eff <= 0 {
			skipped++
			continue
		}

		from := g.intern(q.Base)
		g.intern(q.Quote)

		e := domain.Edge{
			Venue:          q.Venue,
			From:           q.Base,
			To:             q.Quote,
			Rate:           q.Rate,
			FeeBps:         feeBps,
			EffectiveRate:  eff,
			SurchargeBps:   venue.Fees.LargeTradeSurchargeBps,
			SurchargeAbove: venue.Fees.LargeTradeThreshold,
			Liquidity:      q.BaseLiquidity,
			FromReserve:    q.BaseReserve,
			ToReserve:      q.QuoteReserve,
			QuotedAt:       q.Timestamp,
		}
		g.edges[from] = append(g.edges[from], e)
		if eff > g.maxRate {
			g.maxRate = eff
		}
		edges++
	}
	return edges, skipped
}

// intern returns the arena index for a token, registering it on first use.
func (g *Graph) intern(t domain.Token) int {
	if idx, ok := g.index[t]; ok {
		return idx
	}
	idx := len(g.tokens)
	g.index[t] = idx
	g.tokens = append(g.tokens, t)
	g.edges = append(g.edges, nil)
	return idx
}

// EdgesFrom returns the outgoing edges of a token. The returned slice is
// owned by the graph and must not be mutated.
func (g *Graph) EdgesFrom(t domain.Token) []domain.Edge {
	idx, ok := g.index[t]
	if !ok {
		return nil
	}
	return g.edges[idx]
}

// Contains reports whether the token appears in the current graph.
func (g *Graph) Contains(t domain.Token) bool {
	_, ok := g.index[t]
	return ok
}

// MaxEffectiveRate returns the largest effective rate of any edge, the
// optimistic per-hop bound used by search pruning.
func (g *Graph) MaxEffectiveRate() float64 {
	return g.maxRate
}

// TokenCount returns the number of distinct tokens.
func (g *Graph) TokenCount() int {
	return len(g.tokens)
}

// EdgeCount returns the total number of directed edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, es := range g.edges {
		n += len(es)
	}
	return n
}

// BuiltAt returns when the graph was last rebuilt.
func (g *Graph) BuiltAt() time.Time {
	return g.builtAt
}
