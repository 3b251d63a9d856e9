package telemetry

import (
	"sync"
	"testing"
	"time"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder()

	r.DiscoveryCompleted(40*time.Millisecond, 10, 7)
	r.DiscoveryCompleted(60*time.Millisecond, 5, 5)
	r.OpportunityAccepted()
	r.OpportunityAccepted()
	r.OpportunityDeduped()
	r.OpportunityExpired()
	r.GuardRejected("below_threshold")
	r.GuardRejected("below_threshold")
	r.GuardRejected("single_venue")
	r.VenueRefresh("orca", true, 12)
	r.VenueRefresh("raydium", false, 0)

	s := r.Snapshot()
	if s.Discoveries != 2 || s.TotalCandidates != 15 || s.TotalEvaluated != 12 {
		t.Fatalf("discovery counters = %+v", s)
	}
	if s.LastDiscovery != 60*time.Millisecond {
		t.Fatalf("LastDiscovery = %v, want the most recent cycle", s.LastDiscovery)
	}
	if s.Accepted != 2 || s.Deduped != 1 || s.Expired != 1 {
		t.Fatalf("outcome counters = %+v", s)
	}
	if s.GuardRejections["below_threshold"] != 2 || s.GuardRejections["single_venue"] != 1 {
		t.Fatalf("GuardRejections = %v", s.GuardRejections)
	}
	if len(s.VenueFailures) != 1 || s.VenueFailures["raydium"] != 1 {
		t.Fatalf("VenueFailures = %v, want only the failed venue", s.VenueFailures)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r := NewRecorder()
	r.GuardRejected("not_closed")

	s := r.Snapshot()
	s.GuardRejections["not_closed"] = 99

	if got := r.Snapshot().GuardRejections["not_closed"]; got != 1 {
		t.Fatalf("recorder counter = %d after mutating a snapshot, want 1", got)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.OpportunityAccepted()
				r.GuardRejected("duplicate_edge")
				_ = r.Snapshot()
			}
		}()
	}
	wg.Wait()

	s := r.Snapshot()
	if s.Accepted != 800 || s.GuardRejections["duplicate_edge"] != 800 {
		t.Fatalf("Accepted = %d, GuardRejections = %d, want 800 each",
			s.Accepted, s.GuardRejections["duplicate_edge"])
	}
}
