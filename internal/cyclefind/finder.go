// Package cyclefind implements the bounded-depth search for candidate trade
// cycles over the token graph. The search is depth-first from each anchor
// token, with rate-product pruning to keep the otherwise exponential
// branching inside the discovery latency budget.
package cyclefind

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/graph"
)

// Finder searches for candidate cycles. Candidates are unvalidated: exact
// fee and slippage accounting happens downstream in the profit calculator.
type Finder struct {
	maxHops   int
	breakEven float64
	logger    *slog.Logger
}

// New creates a Finder. minProfitBps sets the break-even threshold below
// which a partial path is abandoned: a path whose optimistic rate product
// cannot reach 1 + minProfitBps/10000 within its remaining hop budget can
// never survive the guard and is not worth expanding.
func New(maxHops int, minProfitBps int64, logger *slog.Logger) *Finder {
	return &Finder{
		maxHops:   maxHops,
		breakEven: 1 + float64(minProfitBps)/10000,
		logger:    logger.With(slog.String("component", "cycle_finder")),
	}
}

// Search runs one bounded search per anchor token concurrently and streams
// candidate cycles into the returned channel. The sequence is lazy, finite,
// and unordered. When ctx expires mid-search the channel closes with
// whatever partial candidates were already produced; partial results are
// always preferred over blocking for completeness.
func (f *Finder) Search(ctx context.Context, g *graph.Graph, anchors []domain.Token) <-chan domain.Cycle {
	out := make(chan domain.Cycle, 64)
	go func() {
		defer close(out)
		grp, gctx := errgroup.WithContext(ctx)
		for _, anchor := range anchors {
			anchor := anchor
			if !g.Contains(anchor) {
				continue
			}
			grp.Go(func() error {
				s := searcher{
					finder:  f,
					graph:   g,
					anchor:  anchor,
					out:     out,
					visited: map[domain.Token]struct{}{anchor: {}},
				}
				return s.walk(gctx, anchor, nil, 1.0)
			})
		}
		if err := grp.Wait(); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
			f.logger.Warn("cycle search aborted", slog.String("error", err.Error()))
		}
	}()
	return out
}

// searcher holds the per-anchor DFS state.
type searcher struct {
	finder  *Finder
	graph   *graph.Graph
	anchor  domain.Token
	out     chan<- domain.Cycle
	visited map[domain.Token]struct{}
}

// walk expands the partial path ending at cur. product is the cumulative
// effective-rate product along the path.
func (s *searcher) walk(ctx context.Context, cur domain.Token, path []domain.Edge, product float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	depth := len(path)
	remaining := s.finder.maxHops - depth
	if remaining <= 0 {
		return nil
	}
	maxRate := s.graph.MaxEffectiveRate()

	edges := s.graph.EdgesFrom(cur)

	// Closing step: every venue back to the anchor is considered, so
	// genuine cross-venue loops are never collapsed away here.
	if depth >= 1 {
		for _, e := range edges {
			if e.To != s.anchor {
				continue
			}
			if product*e.EffectiveRate < s.finder.breakEven {
				continue
			}
			cycle := domain.Cycle{Edges: make([]domain.Edge, 0, depth+1)}
			cycle.Edges = append(cycle.Edges, path...)
			cycle.Edges = append(cycle.Edges, e)
			select {
			case s.out <- cycle:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if remaining == 1 {
		return nil
	}

	// Continuation step: keep only the best-rate edge per distinct next
	// token to control the branching factor.
	best := make(map[domain.Token]domain.Edge, len(edges))
	for _, e := range edges {
		if e.To == s.anchor {
			continue
		}
		if _, seen := s.visited[e.To]; seen {
			continue
		}
		if b, ok := best[e.To]; !ok || e.EffectiveRate > b.EffectiveRate {
			best[e.To] = e
		}
	}

	for _, e := range best {
		next := product * e.EffectiveRate
		// The optimistic bound assumes every remaining hop trades at the
		// best rate in the graph; below break-even even then, abandon.
		if next*pow(maxRate, remaining-1) < s.finder.breakEven {
			continue
		}
		s.visited[e.To] = struct{}{}
		err := s.walk(ctx, e.To, append(path, e), next)
		delete(s.visited, e.To)
		if err != nil {
			return err
		}
	}
	return nil
}

// pow is a small integer power; hops never exceed 4 so no need for math.Pow.
func pow(x float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= x
	}
	return out
}
