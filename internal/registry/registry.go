// Package registry is the last stage of the detection pipeline: it
// deduplicates opportunities by cycle signature, expires stale ones, and
// holds the survivors in a bounded score-ordered queue for the execution
// collaborator.
package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/telemetry"
)

// Result classifies the outcome of a Submit call.
type Result int

const (
	Accepted Result = iota
	Deduped
	Expired
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Deduped:
		return "deduped"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Config carries registry tuning.
type Config struct {
	CooldownWindow time.Duration
	OpportunityTTL time.Duration
	QueueSize      int
	Bus            domain.OpportunityBus // optional, push delivery on accept
	Logger         *slog.Logger
	Metrics        telemetry.Metrics
}

// Registry holds ranked, deduplicated opportunities. Submission never
// blocks: on overflow the lowest-score entry is dropped.
type Registry struct {
	dedup     *dedup
	ttl       time.Duration
	queueSize int
	bus       domain.OpportunityBus
	logger    *slog.Logger
	metrics   telemetry.Metrics

	mu    sync.Mutex
	queue []domain.Opportunity // kept sorted, best first
}

// New builds a Registry from cfg.
func New(cfg Config) *Registry {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.Nop{}
	}
	return &Registry{
		dedup:     newDedup(cfg.CooldownWindow),
		ttl:       cfg.OpportunityTTL,
		queueSize: cfg.QueueSize,
		bus:       cfg.Bus,
		logger:    cfg.Logger.With(slog.String("component", "registry")),
		metrics:   cfg.Metrics,
	}
}

// Submit offers an opportunity to the registry. Expired opportunities are
// rejected outright; a signature seen within the cooldown window is
// deduplicated. Accepted opportunities are queued in score order and, when
// a bus is wired, pushed to it.
func (r *Registry) Submit(ctx context.Context, o domain.Opportunity) Result {
	now := time.Now()

	if o.Expired(now, r.ttl) {
		r.metrics.OpportunityExpired()
		return Expired
	}
	if r.dedup.isDuplicate(o.Signature, now) {
		r.metrics.OpportunityDeduped()
		return Deduped
	}

	r.enqueue(o)
	r.metrics.OpportunityAccepted()

	if r.bus != nil {
		if err := r.bus.Publish(ctx, o); err != nil {
			r.logger.Warn("bus publish failed",
				slog.String("opportunity_id", o.ID),
				slog.String("error", err.Error()))
		}
	}
	return Accepted
}

func (r *Registry) enqueue(o domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := sort.Search(len(r.queue), func(i int) bool {
		return r.queue[i].FinalScore < o.FinalScore
	})
	r.queue = append(r.queue, domain.Opportunity{})
	copy(r.queue[pos+1:], r.queue[pos:])
	r.queue[pos] = o

	if len(r.queue) > r.queueSize {
		dropped := r.queue[len(r.queue)-1]
		r.queue = r.queue[:len(r.queue)-1]
		r.logger.Debug("queue full, dropped lowest score",
			slog.String("opportunity_id", dropped.ID),
			slog.Float64("final_score", dropped.FinalScore))
	}
}

// Poll drains up to max opportunities, best first, skipping any that
// expired while queued. max <= 0 drains everything.
func (r *Registry) Poll(max int) []domain.Opportunity {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var out []domain.Opportunity
	kept := r.queue[:0]
	for _, o := range r.queue {
		switch {
		case o.Expired(now, r.ttl):
			r.metrics.OpportunityExpired()
		case max > 0 && len(out) >= max:
			kept = append(kept, o)
		default:
			out = append(out, o)
		}
	}
	r.queue = kept
	return out
}

// Len reports how many opportunities are queued.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Cleanup evicts expired dedup entries and queued opportunities. Run it
// periodically, typically from the engine's housekeeping ticker.
func (r *Registry) Cleanup() {
	now := time.Now()
	r.dedup.cleanup(now)

	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.queue[:0]
	for _, o := range r.queue {
		if o.Expired(now, r.ttl) {
			r.metrics.OpportunityExpired()
			continue
		}
		kept = append(kept, o)
	}
	r.queue = kept
}
