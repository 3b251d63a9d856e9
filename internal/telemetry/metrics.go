// Package telemetry defines the hook interface through which the detection
// pipeline reports observability events. Transport and formatting of metrics
// belong to an external observability collaborator; the pipeline only calls
// hooks.
package telemetry

import (
	"sync"
	"time"
)

// Metrics receives pipeline events. Implementations must be safe for
// concurrent use and must never block.
type Metrics interface {
	// DiscoveryCompleted fires once per discovery cycle, including cycles
	// abandoned on timeout.
	DiscoveryCompleted(elapsed time.Duration, candidates, evaluated int)
	VenueRefresh(venue string, ok bool, quotes int)
	OpportunityAccepted()
	OpportunityDeduped()
	OpportunityExpired()
	GuardRejected(rule string)
}

// Nop is a Metrics implementation that discards every event.
type Nop struct{}

func (Nop) DiscoveryCompleted(time.Duration, int, int) {}
func (Nop) VenueRefresh(string, bool, int)             {}
func (Nop) OpportunityAccepted()                       {}
func (Nop) OpportunityDeduped()                        {}
func (Nop) OpportunityExpired()                        {}
func (Nop) GuardRejected(string)                       {}

var _ Metrics = Nop{}

// Stats is a point-in-time snapshot of Recorder counters.
type Stats struct {
	Discoveries     int64
	LastDiscovery   time.Duration
	TotalCandidates int64
	TotalEvaluated  int64
	Accepted        int64
	Deduped         int64
	Expired         int64
	GuardRejections map[string]int64
	VenueFailures   map[string]int64
}

// Recorder is an in-memory Metrics implementation used by the application
// and by tests. It counts events and exposes them via Snapshot.
type Recorder struct {
	mu    sync.Mutex
	stats Stats
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{stats: Stats{
		GuardRejections: make(map[string]int64),
		VenueFailures:   make(map[string]int64),
	}}
}

func (r *Recorder) DiscoveryCompleted(elapsed time.Duration, candidates, evaluated int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Discoveries++
	r.stats.LastDiscovery = elapsed
	r.stats.TotalCandidates += int64(candidates)
	r.stats.TotalEvaluated += int64(evaluated)
}

func (r *Recorder) VenueRefresh(venue string, ok bool, quotes int) {
	if ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.VenueFailures[venue]++
}

func (r *Recorder) OpportunityAccepted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Accepted++
}

func (r *Recorder) OpportunityDeduped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Deduped++
}

func (r *Recorder) OpportunityExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.Expired++
}

func (r *Recorder) GuardRejected(rule string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.GuardRejections[rule]++
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.stats
	out.GuardRejections = make(map[string]int64, len(r.stats.GuardRejections))
	for k, v := range r.stats.GuardRejections {
		out.GuardRejections[k] = v
	}
	out.VenueFailures = make(map[string]int64, len(r.stats.VenueFailures))
	for k, v := range r.stats.VenueFailures {
		out.VenueFailures[k] = v
	}
	return out
}

var _ Metrics = (*Recorder)(nil)
