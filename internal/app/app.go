// Package app owns the application lifecycle: it wires the detection
// pipeline from configuration, runs the engine, and tears everything down
// in reverse order on shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/juant72/sniperforge-sub004/internal/config"
	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/feed"
)

// statsInterval is how often the running telemetry snapshot is logged.
const statsInterval = 30 * time.Second

// App is the root application object.
type App struct {
	cfg     *config.Config
	fetcher domain.QuoteFetcher
	logger  *slog.Logger
}

// New creates an App. When fetcher is nil the replay fetcher configured
// under [replay] is used, which is the standalone mode of the binary; live
// deployments inject their own venue transport.
func New(cfg *config.Config, fetcher domain.QuoteFetcher, logger *slog.Logger) *App {
	if fetcher == nil {
		fetcher = feed.NewReplayFetcher(cfg.Replay.Dir)
	}
	return &App{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "app")),
	}
}

// Run wires the pipeline and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting detector",
		slog.String("bus", a.cfg.Bus.Kind),
		slog.String("log_level", a.cfg.LogLevel))

	deps, cleanup, err := Wire(ctx, a.cfg, a.fetcher, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	defer cleanup()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})

	// The in-process bus gets a logging consumer so accepted opportunities
	// are visible even without an executor attached.
	if deps.LocalBus != nil {
		g.Go(func() error {
			a.consume(ctx, deps)
			return nil
		})
	}

	g.Go(func() error {
		a.logStats(ctx, deps)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) consume(ctx context.Context, deps *Dependencies) {
	for {
		select {
		case <-ctx.Done():
			return
		case o, ok := <-deps.LocalBus.Subscribe():
			if !ok {
				return
			}
			a.logger.Info("opportunity",
				slog.String("id", o.ID),
				slog.String("path", o.Cycle.String()),
				slog.Int64("profit_bps", o.ProfitBps),
				slog.Float64("confidence", o.Confidence),
				slog.Float64("final_score", o.FinalScore),
				slog.String("net_profit", o.NetProfit.String()))
		}
	}
}

func (a *App) logStats(ctx context.Context, deps *Dependencies) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := deps.Metrics.Snapshot()
			a.logger.Info("pipeline stats",
				slog.Int64("discoveries", s.Discoveries),
				slog.Int64("candidates", s.TotalCandidates),
				slog.Int64("evaluated", s.TotalEvaluated),
				slog.Int64("accepted", s.Accepted),
				slog.Int64("deduped", s.Deduped),
				slog.Int64("expired", s.Expired))
		}
	}
}
