// Package score ranks validated opportunities by execution-adjusted
// attractiveness.
package score

import (
	"sync"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// reliabilityWindow bounds how many recent outcomes per venue feed the
// success rate.
const reliabilityWindow = 50

// ReliabilityTracker keeps a rolling per-venue execution success rate.
// Venues with no recorded outcomes score 1.0 so new venues are not
// penalized before they have a track record.
type ReliabilityTracker struct {
	mu     sync.RWMutex
	venues map[domain.VenueID]*venueRecord
}

type venueRecord struct {
	outcomes  [reliabilityWindow]bool
	next      int
	filled    int
	successes int
}

// NewReliabilityTracker builds an empty tracker.
func NewReliabilityTracker() *ReliabilityTracker {
	return &ReliabilityTracker{venues: make(map[domain.VenueID]*venueRecord)}
}

// Record folds one execution outcome into the venue's window.
func (t *ReliabilityTracker) Record(venue domain.VenueID, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.venues[venue]
	if r == nil {
		r = &venueRecord{}
		t.venues[venue] = r
	}
	if r.filled == reliabilityWindow {
		if r.outcomes[r.next] {
			r.successes--
		}
	} else {
		r.filled++
	}
	r.outcomes[r.next] = success
	if success {
		r.successes++
	}
	r.next = (r.next + 1) % reliabilityWindow
}

// Rate returns the venue's success rate in [0,1].
func (t *ReliabilityTracker) Rate(venue domain.VenueID) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r := t.venues[venue]
	if r == nil || r.filled == 0 {
		return 1.0
	}
	return float64(r.successes) / float64(r.filled)
}

// CycleRate returns the product of the success rates of every venue the
// cycle touches, the probability all legs land.
func (t *ReliabilityTracker) CycleRate(c domain.Cycle) float64 {
	rate := 1.0
	seen := make(map[domain.VenueID]struct{}, len(c.Edges))
	for _, e := range c.Edges {
		if _, ok := seen[e.Venue]; ok {
			continue
		}
		seen[e.Venue] = struct{}{}
		rate *= t.Rate(e.Venue)
	}
	return rate
}
