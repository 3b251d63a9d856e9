package feed

import (
	"context"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeVenueFile(t *testing.T, dir, venue, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, venue+".jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReplayFetcherNormalizesRecords(t *testing.T) {
	dir := t.TempDir()
	writeVenueFile(t, dir, "orca", `
{"base":{"symbol":"WSOL","address":"0x0000000000000000000000000000000000000001","decimals":9},"quote":{"symbol":"USDC","address":"0x0000000000000000000000000000000000000002","decimals":6},"rate":"98.5","base_liquidity":"1500","base_reserve":"1000000","quote_reserve":"98500000"}
`)

	quotes, err := NewReplayFetcher(dir).FetchQuotes(context.Background(), "orca")
	if err != nil {
		t.Fatalf("FetchQuotes() error = %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("FetchQuotes() = %d quotes, want 1", len(quotes))
	}

	q := quotes[0]
	if q.Venue != "orca" || q.Base.Symbol != "WSOL" || q.Quote.Symbol != "USDC" {
		t.Fatalf("unexpected pair: %s %s/%s", q.Venue, q.Base.Symbol, q.Quote.Symbol)
	}
	if q.Rate != 98.5 {
		t.Fatalf("Rate = %v, want 98.5", q.Rate)
	}
	// 1500 WSOL at 9 decimals.
	if want := big.NewInt(1_500_000_000_000); q.BaseLiquidity.Cmp(want) != 0 {
		t.Fatalf("BaseLiquidity = %s, want %s", q.BaseLiquidity, want)
	}
	// Reserves shift by their own token's decimals.
	if want := big.NewInt(1_000_000_000_000_000); q.BaseReserve.Cmp(want) != 0 {
		t.Fatalf("BaseReserve = %s, want %s", q.BaseReserve, want)
	}
	if want := big.NewInt(98_500_000_000_000); q.QuoteReserve.Cmp(want) != 0 {
		t.Fatalf("QuoteReserve = %s, want %s", q.QuoteReserve, want)
	}
	if time.Since(q.Timestamp) > time.Minute {
		t.Fatalf("Timestamp = %v, want stamped near now", q.Timestamp)
	}
}

func TestReplayFetcherKeepsRecordedTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeVenueFile(t, dir, "raydium", `{"base":{"symbol":"USDC","address":"0x0000000000000000000000000000000000000002","decimals":6},"quote":{"symbol":"WSOL","address":"0x0000000000000000000000000000000000000001","decimals":9},"rate":"0.0101","base_liquidity":"250000","timestamp":"2026-08-30T12:00:00Z"}`)

	quotes, err := NewReplayFetcher(dir).FetchQuotes(context.Background(), "raydium")
	if err != nil {
		t.Fatalf("FetchQuotes() error = %v", err)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !quotes[0].Timestamp.Equal(want) {
		t.Fatalf("Timestamp = %v, want %v", quotes[0].Timestamp, want)
	}
	if quotes[0].BaseReserve != nil || quotes[0].QuoteReserve != nil {
		t.Fatal("reserves should be nil when the record omits them")
	}
}

func TestReplayFetcherErrors(t *testing.T) {
	dir := t.TempDir()
	writeVenueFile(t, dir, "bad", `{"base":{"symbol":"A"},"quote":{"symbol":"B"},"rate":"not-a-number","base_liquidity":"1"}`)

	fetcher := NewReplayFetcher(dir)
	if _, err := fetcher.FetchQuotes(context.Background(), "missing"); err == nil {
		t.Fatal("FetchQuotes() on a missing venue file should fail")
	}
	if _, err := fetcher.FetchQuotes(context.Background(), "bad"); err == nil {
		t.Fatal("FetchQuotes() on a malformed rate should fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fetcher.FetchQuotes(ctx, "bad"); err != context.Canceled {
		t.Fatalf("FetchQuotes() with cancelled context = %v, want context.Canceled", err)
	}
}
