package domain

import (
	"math/big"
	"testing"
	"time"
)

var (
	tokA = NewToken("WSOL", "0x0000000000000000000000000000000000000001", 9)
	tokB = NewToken("USDC", "0x0000000000000000000000000000000000000002", 6)
	tokC = NewToken("RAY", "0x0000000000000000000000000000000000000003", 6)
)

func edge(venue string, from, to Token, rate float64) Edge {
	return Edge{
		Venue:    VenueID(venue),
		From:     from,
		To:       to,
		Rate:     rate,
		QuotedAt: time.Now(),
	}
}

func TestCycleClosedAndContinuous(t *testing.T) {
	c := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokB, tokC, 2),
		edge("orca", tokC, tokA, 0.0051),
	}}
	if !c.Closed() {
		t.Fatalf("Closed() = false, want true")
	}
	if !c.Continuous() {
		t.Fatalf("Continuous() = false, want true")
	}

	broken := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokC, tokA, 0.0051),
	}}
	if broken.Continuous() {
		t.Fatalf("Continuous() = true for discontinuous cycle")
	}

	open := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokB, tokC, 2),
	}}
	if open.Closed() {
		t.Fatalf("Closed() = true for open path")
	}
}

func TestCycleHasDuplicateEdge(t *testing.T) {
	dup := edge("orca", tokA, tokB, 100)
	c := Cycle{Edges: []Edge{dup, edge("orca", tokB, tokA, 0.01), dup}}
	if !c.HasDuplicateEdge() {
		t.Fatalf("HasDuplicateEdge() = false, want true")
	}

	// Same pair on a different venue is a distinct edge.
	c = Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokA, tokB, 100),
	}}
	if c.HasDuplicateEdge() {
		t.Fatalf("HasDuplicateEdge() = true for distinct venues")
	}

	// A reversed pair on one venue is two distinct directed edges; that
	// loop is rejected as single-venue, not as a duplicate.
	reversed := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("orca", tokB, tokA, 0.0102),
	}}
	if reversed.HasDuplicateEdge() {
		t.Fatalf("HasDuplicateEdge() = true for a reversed pair")
	}
	if !reversed.SingleVenue() {
		t.Fatalf("SingleVenue() = false for a reversed same-venue pair")
	}
}

func TestCycleSignature(t *testing.T) {
	a := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokB, tokA, 0.0102),
	}}
	b := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 987),
		edge("raydium", tokB, tokA, 5),
	}}
	if a.Signature() != b.Signature() {
		t.Fatalf("signature depends on rates, want identical for same path")
	}

	swapped := Cycle{Edges: []Edge{
		edge("raydium", tokA, tokB, 100),
		edge("orca", tokB, tokA, 0.0102),
	}}
	if a.Signature() == swapped.Signature() {
		t.Fatalf("signature identical for different venue order")
	}

	if got := SignatureFromHex(a.Signature().Hex()); got != a.Signature() {
		t.Fatalf("SignatureFromHex round trip: got %s, want %s", got.Hex(), a.Signature().Hex())
	}
}

func TestCycleMinLiquidity(t *testing.T) {
	e1 := edge("orca", tokA, tokB, 100)
	e1.Liquidity = big.NewInt(5_000_000)
	e2 := edge("raydium", tokB, tokA, 0.01)
	e2.Liquidity = big.NewInt(1_000_000)

	c := Cycle{Edges: []Edge{e1, e2}}
	if got := c.MinLiquidity(); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("MinLiquidity() = %s, want 1000000", got)
	}

	if (Cycle{}).MinLiquidity() != nil {
		t.Fatalf("MinLiquidity() != nil for empty cycle")
	}
}

func TestCycleTotalFeeBps(t *testing.T) {
	e1 := edge("orca", tokA, tokB, 100)
	e1.FeeBps = 30
	e2 := edge("raydium", tokB, tokA, 0.01)
	e2.FeeBps = 25
	c := Cycle{Edges: []Edge{e1, e2}}
	if got := c.TotalFeeBps(); got != 55 {
		t.Fatalf("TotalFeeBps() = %d, want 55", got)
	}
}

func TestSingleVenue(t *testing.T) {
	same := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("orca", tokB, tokA, 0.0102),
	}}
	if !same.SingleVenue() {
		t.Fatalf("SingleVenue() = false, want true")
	}

	mixed := Cycle{Edges: []Edge{
		edge("orca", tokA, tokB, 100),
		edge("raydium", tokB, tokA, 0.0102),
	}}
	if mixed.SingleVenue() {
		t.Fatalf("SingleVenue() = true, want false")
	}
}
