package graph

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

var (
	wsol = domain.NewToken("WSOL", "0x0000000000000000000000000000000000000001", 9)
	usdc = domain.NewToken("USDC", "0x0000000000000000000000000000000000000002", 6)
	ray  = domain.NewToken("RAY", "0x0000000000000000000000000000000000000003", 6)
)

func venues(fees map[domain.VenueID]uint16) map[domain.VenueID]domain.Venue {
	out := make(map[domain.VenueID]domain.Venue, len(fees))
	for id, bps := range fees {
		out[id] = domain.Venue{ID: id, Fees: domain.FeeModel{FlatBps: bps}}
	}
	return out
}

func quote(venue domain.VenueID, base, quoteTok domain.Token, rate float64) domain.PriceQuote {
	return domain.PriceQuote{
		Venue:         venue,
		Base:          base,
		Quote:         quoteTok,
		Rate:          rate,
		BaseLiquidity: big.NewInt(1_000_000_000),
		Timestamp:     time.Now(),
	}
}

func TestRebuildKeepsMultiEdges(t *testing.T) {
	g := New()
	snapshot := []domain.PriceQuote{
		quote("orca", wsol, usdc, 100),
		quote("raydium", wsol, usdc, 101),
		quote("orca", usdc, wsol, 0.0099),
	}
	edges, skipped := g.Rebuild(snapshot, venues(map[domain.VenueID]uint16{"orca": 30, "raydium": 25}))
	if edges != 3 || skipped != 0 {
		t.Fatalf("Rebuild() = (%d, %d), want (3, 0)", edges, skipped)
	}

	out := g.EdgesFrom(wsol)
	if len(out) != 2 {
		t.Fatalf("EdgesFrom(wsol) = %d edges, want the two venues", len(out))
	}
	if out[0].Venue == out[1].Venue {
		t.Fatalf("multi-edges collapsed onto one venue")
	}
	if g.TokenCount() != 2 {
		t.Fatalf("TokenCount() = %d, want 2", g.TokenCount())
	}
}

func TestRebuildSkipsUnknownVenueAndBadRates(t *testing.T) {
	g := New()
	snapshot := []domain.PriceQuote{
		quote("orca", wsol, usdc, 100),
		quote("mystery", wsol, usdc, 100),
		quote("orca", usdc, ray, 0),
		quote("orca", ray, wsol, -3),
	}
	edges, skipped := g.Rebuild(snapshot, venues(map[domain.VenueID]uint16{"orca": 30}))
	if edges != 1 || skipped != 3 {
		t.Fatalf("Rebuild() = (%d, %d), want (1, 3)", edges, skipped)
	}
}

func TestRebuildComputesEffectiveRate(t *testing.T) {
	g := New()
	g.Rebuild([]domain.PriceQuote{quote("orca", wsol, usdc, 100)},
		venues(map[domain.VenueID]uint16{"orca": 30}))

	out := g.EdgesFrom(wsol)
	if len(out) != 1 {
		t.Fatalf("EdgesFrom(wsol) = %d edges, want 1", len(out))
	}
	want := 100 * (1 - 0.0030)
	if math.Abs(out[0].EffectiveRate-want) > 1e-9 {
		t.Fatalf("EffectiveRate = %v, want %v", out[0].EffectiveRate, want)
	}
	if g.MaxEffectiveRate() != out[0].EffectiveRate {
		t.Fatalf("MaxEffectiveRate() = %v, want %v", g.MaxEffectiveRate(), out[0].EffectiveRate)
	}
}

func TestRebuildAppliesTieredFees(t *testing.T) {
	tiered := domain.Venue{
		ID: "orca",
		Fees: domain.FeeModel{
			Tiers: []domain.FeeTier{
				{MinLiquidity: big.NewInt(1_000_000_000), Bps: 25},
				{MinLiquidity: big.NewInt(0), Bps: 50},
			},
		},
	}

	deep := quote("orca", wsol, usdc, 100)
	shallow := quote("orca", usdc, wsol, 0.01)
	shallow.BaseLiquidity = big.NewInt(1_000)

	g := New()
	g.Rebuild([]domain.PriceQuote{deep, shallow}, map[domain.VenueID]domain.Venue{"orca": tiered})

	if got := g.EdgesFrom(wsol)[0].FeeBps; got != 25 {
		t.Fatalf("deep pool FeeBps = %d, want 25", got)
	}
	if got := g.EdgesFrom(usdc)[0].FeeBps; got != 50 {
		t.Fatalf("shallow pool FeeBps = %d, want 50", got)
	}
}

func TestRebuildCarriesSurcharge(t *testing.T) {
	v := domain.Venue{
		ID: "orca",
		Fees: domain.FeeModel{
			FlatBps:                30,
			LargeTradeSurchargeBps: 5,
			LargeTradeThreshold:    big.NewInt(1_000_000),
		},
	}

	g := New()
	g.Rebuild([]domain.PriceQuote{quote("orca", wsol, usdc, 100)},
		map[domain.VenueID]domain.Venue{"orca": v})

	e := g.EdgesFrom(wsol)[0]
	if e.FeeBps != 30 {
		t.Fatalf("FeeBps = %d, want the size-independent 30", e.FeeBps)
	}
	if got := e.FeeBpsFor(big.NewInt(1_000_000)); got != 30 {
		t.Fatalf("FeeBpsFor(at threshold) = %d, want 30", got)
	}
	if got := e.FeeBpsFor(big.NewInt(1_000_001)); got != 35 {
		t.Fatalf("FeeBpsFor(above threshold) = %d, want 35", got)
	}
}

func TestRebuildResets(t *testing.T) {
	g := New()
	vs := venues(map[domain.VenueID]uint16{"orca": 30})

	g.Rebuild([]domain.PriceQuote{quote("orca", wsol, usdc, 100)}, vs)
	g.Rebuild([]domain.PriceQuote{quote("orca", usdc, ray, 2)}, vs)

	if g.Contains(wsol) {
		t.Fatalf("Contains(wsol) = true after rebuild without wsol quotes")
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}
