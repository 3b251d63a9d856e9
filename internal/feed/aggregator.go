// Package feed implements the price feed aggregator: concurrent per-venue
// quote refresh into a sharded in-memory quote map, and immutable snapshots
// of quotes still fresh enough for graph construction.
package feed

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/telemetry"
)

// shardCount splits the quote map so concurrent venue refreshes contend on
// different locks. Must be a power of two.
const shardCount = 16

type quoteShard struct {
	mu     sync.RWMutex
	quotes map[domain.QuoteKey]domain.PriceQuote
}

// Aggregator normalizes venue quotes into a shared map keyed by
// (venue, base, quote). It is explicitly owned by the pipeline that creates
// it; there is no process-wide quote cache.
type Aggregator struct {
	fetcher      domain.QuoteFetcher
	venues       []domain.VenueID
	maxStaleness time.Duration
	venueTimeout time.Duration
	logger       *slog.Logger
	metrics      telemetry.Metrics

	shards [shardCount]quoteShard
}

// Config configures an Aggregator.
type Config struct {
	Fetcher      domain.QuoteFetcher
	Venues       []domain.VenueID
	MaxStaleness time.Duration
	VenueTimeout time.Duration
	Logger       *slog.Logger
	Metrics      telemetry.Metrics
}

// New creates an Aggregator for the given venue set.
func New(cfg Config) *Aggregator {
	a := &Aggregator{
		fetcher:      cfg.Fetcher,
		venues:       cfg.Venues,
		maxStaleness: cfg.MaxStaleness,
		venueTimeout: cfg.VenueTimeout,
		logger:       cfg.Logger.With(slog.String("component", "price_feed")),
		metrics:      cfg.Metrics,
	}
	if a.metrics == nil {
		a.metrics = telemetry.Nop{}
	}
	for i := range a.shards {
		a.shards[i].quotes = make(map[domain.QuoteKey]domain.PriceQuote)
	}
	return a
}

func (a *Aggregator) shard(key domain.QuoteKey) *quoteShard {
	h := fnv.New32a()
	h.Write([]byte(key.Venue))
	h.Write(key.Base.Bytes())
	h.Write(key.Quote.Bytes())
	return &a.shards[h.Sum32()&(shardCount-1)]
}

// Ingest merges a venue's quotes into the map, overwriting previous entries
// in place. Quotes from other venues are untouched; nothing is ever deleted
// here, stale entries age out of snapshots and can resurrect on a later
// refresh.
func (a *Aggregator) Ingest(venue domain.VenueID, quotes []domain.PriceQuote) {
	for _, q := range quotes {
		if q.Venue == "" {
			q.Venue = venue
		}
		key := q.Key()
		s := a.shard(key)
		s.mu.Lock()
		s.quotes[key] = q
		s.mu.Unlock()
	}
}

// RefreshAll fetches quotes from every venue concurrently, one task per
// venue with an individual timeout so a slow venue cannot stall the rest.
// Per-venue failures are isolated and logged; RefreshAll itself only fails
// when the parent context is cancelled.
func (a *Aggregator) RefreshAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, venue := range a.venues {
		venue := venue
		g.Go(func() error {
			vctx := gctx
			if a.venueTimeout > 0 {
				var cancel context.CancelFunc
				vctx, cancel = context.WithTimeout(gctx, a.venueTimeout)
				defer cancel()
			}
			quotes, err := a.fetcher.FetchQuotes(vctx, venue)
			if err != nil {
				// Keep last known quotes; they age out naturally.
				a.logger.Warn("venue refresh failed",
					slog.String("venue", string(venue)),
					slog.String("error", err.Error()),
				)
				a.metrics.VenueRefresh(string(venue), false, 0)
				return nil
			}
			a.Ingest(venue, quotes)
			a.metrics.VenueRefresh(string(venue), true, len(quotes))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Snapshot returns a copy of every quote younger than max_staleness at the
// given time. The returned slice is immutable from the aggregator's point of
// view: one discovery cycle operates on it without ever observing a
// half-updated quote set.
func (a *Aggregator) Snapshot(now time.Time) []domain.PriceQuote {
	var out []domain.PriceQuote
	for i := range a.shards {
		s := &a.shards[i]
		s.mu.RLock()
		for _, q := range s.quotes {
			if !q.Stale(now, a.maxStaleness) {
				out = append(out, q)
			}
		}
		s.mu.RUnlock()
	}
	return out
}

// Len returns the total number of quotes held, fresh or stale.
func (a *Aggregator) Len() int {
	n := 0
	for i := range a.shards {
		s := &a.shards[i]
		s.mu.RLock()
		n += len(s.quotes)
		s.mu.RUnlock()
	}
	return n
}
