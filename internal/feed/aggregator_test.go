package feed

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

var (
	wsol = domain.NewToken("WSOL", "0x0000000000000000000000000000000000000001", 9)
	usdc = domain.NewToken("USDC", "0x0000000000000000000000000000000000000002", 6)
	ray  = domain.NewToken("RAY", "0x0000000000000000000000000000000000000003", 6)
)

// stubFetcher serves canned quotes per venue and can fail selectively.
type stubFetcher struct {
	mu     sync.Mutex
	quotes map[domain.VenueID][]domain.PriceQuote
	fail   map[domain.VenueID]error
	calls  map[domain.VenueID]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		quotes: make(map[domain.VenueID][]domain.PriceQuote),
		fail:   make(map[domain.VenueID]error),
		calls:  make(map[domain.VenueID]int),
	}
}

func (f *stubFetcher) FetchQuotes(_ context.Context, venue domain.VenueID) ([]domain.PriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[venue]++
	if err := f.fail[venue]; err != nil {
		return nil, err
	}
	return f.quotes[venue], nil
}

func quote(venue domain.VenueID, base, quoteTok domain.Token, rate float64, ts time.Time) domain.PriceQuote {
	return domain.PriceQuote{
		Venue:         venue,
		Base:          base,
		Quote:         quoteTok,
		Rate:          rate,
		BaseLiquidity: big.NewInt(1_000_000_000),
		Timestamp:     ts,
	}
}

func newTestAggregator(f domain.QuoteFetcher, venues ...domain.VenueID) *Aggregator {
	return New(Config{
		Fetcher:      f,
		Venues:       venues,
		MaxStaleness: 5 * time.Second,
		VenueTimeout: time.Second,
		Logger:       slog.New(slog.DiscardHandler),
	})
}

func TestSnapshotExcludesStaleQuotes(t *testing.T) {
	now := time.Now()
	agg := newTestAggregator(newStubFetcher(), "orca")

	agg.Ingest("orca", []domain.PriceQuote{
		quote("orca", wsol, usdc, 100, now),
		quote("orca", usdc, ray, 2, now.Add(-6*time.Second)),
	})

	snap := agg.Snapshot(now)
	if len(snap) != 1 {
		t.Fatalf("Snapshot() returned %d quotes, want 1", len(snap))
	}
	if snap[0].Base != wsol {
		t.Fatalf("Snapshot() kept wrong quote: %v", snap[0].Base)
	}
	// The stale quote stays in the map and can resurrect.
	if agg.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", agg.Len())
	}
}

func TestStaleQuoteResurrects(t *testing.T) {
	now := time.Now()
	agg := newTestAggregator(newStubFetcher(), "orca")

	agg.Ingest("orca", []domain.PriceQuote{
		quote("orca", wsol, usdc, 100, now.Add(-10*time.Second)),
	})
	if got := agg.Snapshot(now); len(got) != 0 {
		t.Fatalf("Snapshot() = %d quotes, want 0", len(got))
	}

	agg.Ingest("orca", []domain.PriceQuote{
		quote("orca", wsol, usdc, 101, now),
	})
	snap := agg.Snapshot(now)
	if len(snap) != 1 {
		t.Fatalf("Snapshot() = %d quotes after refresh, want 1", len(snap))
	}
	if snap[0].Rate != 101 {
		t.Fatalf("Snapshot() rate = %v, want the refreshed 101", snap[0].Rate)
	}
}

func TestRefreshAllToleratesVenueFailure(t *testing.T) {
	now := time.Now()
	fetcher := newStubFetcher()
	fetcher.quotes["orca"] = []domain.PriceQuote{quote("orca", wsol, usdc, 100, now)}
	fetcher.fail["raydium"] = errors.New("connection refused")

	agg := newTestAggregator(fetcher, "orca", "raydium")
	if err := agg.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() = %v, want nil despite one venue failing", err)
	}
	if len(agg.Snapshot(now)) != 1 {
		t.Fatalf("healthy venue quotes missing after partial failure")
	}
	if fetcher.calls["orca"] != 1 || fetcher.calls["raydium"] != 1 {
		t.Fatalf("both venues should be attempted, got calls %v", fetcher.calls)
	}
}

func TestRefreshAllVenueFailureKeepsLastQuotes(t *testing.T) {
	now := time.Now()
	fetcher := newStubFetcher()
	fetcher.quotes["orca"] = []domain.PriceQuote{quote("orca", wsol, usdc, 100, now)}

	agg := newTestAggregator(fetcher, "orca")
	if err := agg.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() = %v", err)
	}

	fetcher.mu.Lock()
	fetcher.fail["orca"] = errors.New("timeout")
	fetcher.mu.Unlock()

	if err := agg.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() after failure = %v", err)
	}
	if len(agg.Snapshot(now)) != 1 {
		t.Fatalf("last known quotes should survive a failed refresh")
	}
}

func TestIngestConcurrent(t *testing.T) {
	agg := newTestAggregator(newStubFetcher(), "orca", "raydium")
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v domain.VenueID) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				agg.Ingest(v, []domain.PriceQuote{
					quote(v, wsol, usdc, float64(j), now),
					quote(v, usdc, ray, float64(j), now),
				})
			}
		}([]domain.VenueID{"orca", "raydium"}[i%2])
	}
	wg.Wait()

	// Two venues times two directions.
	if got := agg.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
}
