// Package engine runs the discovery loop: refresh quotes, rebuild the token
// graph, enumerate profitable cycles, cost them, and hand the survivors to
// the registry.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/juant72/sniperforge-sub004/internal/cyclefind"
	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/feed"
	"github.com/juant72/sniperforge-sub004/internal/graph"
	"github.com/juant72/sniperforge-sub004/internal/guard"
	"github.com/juant72/sniperforge-sub004/internal/profit"
	"github.com/juant72/sniperforge-sub004/internal/registry"
	"github.com/juant72/sniperforge-sub004/internal/score"
	"github.com/juant72/sniperforge-sub004/internal/telemetry"
)

// Config carries the engine's runtime parameters.
type Config struct {
	Anchors           []domain.Token
	Venues            map[domain.VenueID]domain.Venue
	DiscoveryInterval time.Duration
	DiscoveryBudget   time.Duration
	CleanupInterval   time.Duration
}

// Dependencies are the engine's collaborators. Store and Journal are
// optional; everything else is required.
type Dependencies struct {
	Feed        *feed.Aggregator
	Finder      *cyclefind.Finder
	Calculator  *profit.Calculator
	Guard       *guard.Guard
	Scorer      *score.Scorer
	Reliability *score.ReliabilityTracker
	Registry    *registry.Registry
	Store       domain.OpportunityStore
	Journal     domain.OpportunityJournal
	Logger      *slog.Logger
	Metrics     telemetry.Metrics
}

// Engine drives repeated discovery cycles until its context is cancelled.
type Engine struct {
	cfg  Config
	deps Dependencies

	log *slog.Logger
}

// New builds an Engine. The anchor and venue sets must be non-empty; that
// is enforced earlier by config validation.
func New(cfg Config, deps Dependencies) *Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.Nop{}
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Second
	}
	return &Engine{
		cfg:  cfg,
		deps: deps,
		log:  deps.Logger.With(slog.String("component", "engine")),
	}
}

// Run executes discovery cycles at the configured interval until ctx is
// cancelled. It always returns ctx.Err().
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started",
		slog.Int("anchors", len(e.cfg.Anchors)),
		slog.Int("venues", len(e.cfg.Venues)),
		slog.Duration("interval", e.cfg.DiscoveryInterval),
		slog.Duration("budget", e.cfg.DiscoveryBudget))

	ticker := time.NewTicker(e.cfg.DiscoveryInterval)
	defer ticker.Stop()
	cleanup := time.NewTicker(e.cfg.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return ctx.Err()
		case <-cleanup.C:
			e.deps.Registry.Cleanup()
		case <-ticker.C:
			e.RunDiscovery(ctx)
		}
	}
}

// RunDiscovery executes a single discovery cycle under the wall-clock
// budget. On timeout the cycle is abandoned with whatever partial
// candidates were found; partial results always beat blocking.
func (e *Engine) RunDiscovery(ctx context.Context) {
	start := time.Now()

	budgetCtx := ctx
	var cancel context.CancelFunc
	if e.cfg.DiscoveryBudget > 0 {
		budgetCtx, cancel = context.WithTimeout(ctx, e.cfg.DiscoveryBudget)
		defer cancel()
	}

	if err := e.deps.Feed.RefreshAll(budgetCtx); err != nil {
		e.log.Warn("venue refresh incomplete", slog.String("error", err.Error()))
	}

	now := time.Now()
	snapshot := e.deps.Feed.Snapshot(now)
	g := graph.New()
	edges, skipped := g.Rebuild(snapshot, e.cfg.Venues)
	if skipped > 0 {
		e.log.Debug("rebuild skipped quotes", slog.Int("skipped", skipped))
	}
	if edges == 0 {
		e.log.Debug("no fresh edges, skipping search")
		return
	}

	anchors := make([]domain.Token, 0, len(e.cfg.Anchors))
	for _, a := range e.cfg.Anchors {
		if g.Contains(a) {
			anchors = append(anchors, a)
		}
	}
	if len(anchors) == 0 {
		e.log.Debug("no anchors present in graph")
		return
	}

	cycles := e.deps.Finder.Search(budgetCtx, g, anchors)
	accepted, candidates, evaluated := e.evaluate(budgetCtx, cycles, now)

	score.Rank(accepted)
	for _, o := range accepted {
		// Submission happens outside the budget: a late discovery still
		// delivers what it found.
		res := e.deps.Registry.Submit(ctx, o)
		if res != registry.Accepted {
			continue
		}
		e.record(ctx, o)
	}

	elapsed := time.Since(start)
	e.deps.Metrics.DiscoveryCompleted(elapsed, candidates, evaluated)

	if budgetCtx.Err() != nil && ctx.Err() == nil {
		e.log.Warn("discovery budget exhausted, partial results",
			slog.Duration("elapsed", elapsed),
			slog.Int("candidates", candidates),
			slog.Int("accepted", len(accepted)))
		return
	}
	e.log.Debug("discovery completed",
		slog.Duration("elapsed", elapsed),
		slog.Int("candidates", candidates),
		slog.Int("evaluated", evaluated),
		slog.Int("accepted", len(accepted)))
}

// evaluate drains the cycle channel through a worker pool, costing each
// candidate and applying the guard. Candidates are independent, so
// evaluation parallelizes freely.
func (e *Engine) evaluate(ctx context.Context, cycles <-chan domain.Cycle, now time.Time) (accepted []domain.Opportunity, candidates, evaluated int) {
	var (
		mu   sync.Mutex
		kept []domain.Opportunity
		evs  int
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for c := range cycles {
		candidates++
		cycle := c
		g.Go(func() error {
			opp, err := e.deps.Calculator.Evaluate(cycle, now)
			if err != nil {
				if !errors.Is(err, domain.ErrInsufficientLiquidity) {
					e.log.Debug("evaluation failed", slog.String("error", err.Error()))
				}
				return nil
			}

			mu.Lock()
			evs++
			mu.Unlock()

			if ok, reason := e.deps.Guard.Check(opp); !ok {
				e.deps.Metrics.GuardRejected(reason)
				return nil
			}

			opp = e.deps.Scorer.Score(opp, now)
			mu.Lock()
			kept = append(kept, opp)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return kept, candidates, evs
}

// record forwards an accepted opportunity to the optional audit store and
// journal. Failures are logged, never propagated: persistence is advisory.
func (e *Engine) record(ctx context.Context, o domain.Opportunity) {
	if e.deps.Store != nil {
		if err := e.deps.Store.Insert(ctx, o); err != nil {
			e.log.Warn("audit insert failed",
				slog.String("opportunity_id", o.ID),
				slog.String("error", err.Error()))
		}
	}
	if e.deps.Journal != nil {
		if err := e.deps.Journal.Append(ctx, o); err != nil {
			e.log.Warn("journal append failed",
				slog.String("opportunity_id", o.ID),
				slog.String("error", err.Error()))
		}
	}
}

// PollOpportunities drains up to max ranked opportunities from the
// registry.
func (e *Engine) PollOpportunities(max int) []domain.Opportunity {
	return e.deps.Registry.Poll(max)
}

// ReportOutcome implements domain.ExecutionFeedback. Venue reliability and
// the audit store are updated only from this callback.
func (e *Engine) ReportOutcome(ctx context.Context, venue domain.VenueID, opportunityID string, success bool) {
	e.deps.Reliability.Record(venue, success)
	if success && e.deps.Store != nil {
		if err := e.deps.Store.MarkExecuted(ctx, opportunityID); err != nil {
			e.log.Warn("mark executed failed",
				slog.String("opportunity_id", opportunityID),
				slog.String("error", err.Error()))
		}
	}
}

var _ domain.ExecutionFeedback = (*Engine)(nil)
