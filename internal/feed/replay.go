package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// ReplayFetcher implements domain.QuoteFetcher from recorded quote files,
// one JSONL file per venue named <venue>.jsonl. It exists for dry runs and
// offline evaluation; live venue transport belongs to external collaborator
// processes publishing through the same interface.
type ReplayFetcher struct {
	dir string
}

// NewReplayFetcher creates a fetcher reading from the given directory.
func NewReplayFetcher(dir string) *ReplayFetcher {
	return &ReplayFetcher{dir: dir}
}

// tokenRecord mirrors the on-disk token description.
type tokenRecord struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

// quoteRecord is one JSONL line. Amounts are decimal display-unit strings;
// they are normalized to integer base units on load.
type quoteRecord struct {
	Base          tokenRecord `json:"base"`
	Quote         tokenRecord `json:"quote"`
	Rate          string      `json:"rate"`
	BaseLiquidity string      `json:"base_liquidity"`
	BaseReserve   string      `json:"base_reserve,omitempty"`
	QuoteReserve  string      `json:"quote_reserve,omitempty"`
	Timestamp     string      `json:"timestamp,omitempty"`
}

// FetchQuotes reads and normalizes every quote recorded for the venue.
// Records without a timestamp are stamped with the current time, so replayed
// feeds stay fresh across repeated discovery cycles.
func (r *ReplayFetcher) FetchQuotes(ctx context.Context, venue domain.VenueID) ([]domain.PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(r.dir, string(venue)+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", path, err)
	}
	defer f.Close()

	now := time.Now()
	var quotes []domain.PriceQuote
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec quoteRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("replay: %s line %d: %w", path, line, err)
		}
		q, err := rec.normalize(venue, now)
		if err != nil {
			return nil, fmt.Errorf("replay: %s line %d: %w", path, line, err)
		}
		quotes = append(quotes, q)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("replay: read %s: %w", path, err)
	}
	return quotes, nil
}

func (rec quoteRecord) normalize(venue domain.VenueID, now time.Time) (domain.PriceQuote, error) {
	base := domain.NewToken(rec.Base.Symbol, rec.Base.Address, rec.Base.Decimals)
	quote := domain.NewToken(rec.Quote.Symbol, rec.Quote.Address, rec.Quote.Decimals)

	rate, err := decimal.NewFromString(rec.Rate)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("rate %q: %w", rec.Rate, err)
	}
	liq, err := decimal.NewFromString(rec.BaseLiquidity)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("base_liquidity %q: %w", rec.BaseLiquidity, err)
	}

	q := domain.PriceQuote{
		Venue:         venue,
		Base:          base,
		Quote:         quote,
		Rate:          rate.InexactFloat64(),
		BaseLiquidity: liq.Shift(int32(base.Decimals)).BigInt(),
		Timestamp:     now,
	}
	if rec.BaseReserve != "" && rec.QuoteReserve != "" {
		br, err := decimal.NewFromString(rec.BaseReserve)
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("base_reserve %q: %w", rec.BaseReserve, err)
		}
		qr, err := decimal.NewFromString(rec.QuoteReserve)
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("quote_reserve %q: %w", rec.QuoteReserve, err)
		}
		q.BaseReserve = br.Shift(int32(base.Decimals)).BigInt()
		q.QuoteReserve = qr.Shift(int32(quote.Decimals)).BigInt()
	}
	if rec.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
		if err != nil {
			return domain.PriceQuote{}, fmt.Errorf("timestamp %q: %w", rec.Timestamp, err)
		}
		q.Timestamp = ts
	}
	return q, nil
}

var _ domain.QuoteFetcher = (*ReplayFetcher)(nil)
