package domain

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signature is the canonical hash of a cycle's ordered (venue, pair)
// sequence, used to deduplicate logically identical opportunities within a
// cooldown window.
type Signature common.Hash

// Hex returns the signature as a 0x-prefixed hex string.
func (s Signature) Hex() string {
	return common.Hash(s).Hex()
}

// SignatureFromHex parses a 0x-prefixed hex string back into a Signature.
func SignatureFromHex(s string) Signature {
	return Signature(common.HexToHash(s))
}

// Cycle is an ordered sequence of edges whose first and last token coincide.
type Cycle struct {
	Edges []Edge
}

// Hops returns the number of legs in the cycle.
func (c Cycle) Hops() int {
	return len(c.Edges)
}

// Anchor returns the start (and end) token of the cycle.
func (c Cycle) Anchor() Token {
	if len(c.Edges) == 0 {
		return Token{}
	}
	return c.Edges[0].From
}

// Closed reports whether the cycle returns to its starting token.
func (c Cycle) Closed() bool {
	if len(c.Edges) < 2 {
		return false
	}
	return c.Edges[0].From == c.Edges[len(c.Edges)-1].To
}

// Continuous reports whether every edge's output token is the next edge's
// input token. A cycle that is closed and continuous conserves every
// intermediate token exactly: each is bought once and fully sold once.
func (c Cycle) Continuous() bool {
	for i := 0; i < len(c.Edges)-1; i++ {
		if c.Edges[i].To != c.Edges[i+1].From {
			return false
		}
	}
	return true
}

// HasDuplicateEdge reports whether any directed (venue, base, quote) edge
// appears more than once. The key is directed: A->B and B->A on the same
// venue are distinct edges here, and such two-hop loops are caught by the
// single-venue rule instead.
func (c Cycle) HasDuplicateEdge() bool {
	seen := make(map[EdgeKey]struct{}, len(c.Edges))
	for _, e := range c.Edges {
		k := e.Key()
		if _, ok := seen[k]; ok {
			return true
		}
		seen[k] = struct{}{}
	}
	return false
}

// SingleVenue reports whether every edge uses the same venue.
func (c Cycle) SingleVenue() bool {
	if len(c.Edges) == 0 {
		return false
	}
	v := c.Edges[0].Venue
	for _, e := range c.Edges[1:] {
		if e.Venue != v {
			return false
		}
	}
	return true
}

// TotalFeeBps returns the sum of per-edge fees in basis points.
func (c Cycle) TotalFeeBps() int64 {
	var total int64
	for _, e := range c.Edges {
		total += int64(e.FeeBps)
	}
	return total
}

// MinLiquidity returns the smallest input-side liquidity across all edges,
// or nil when the cycle is empty. This bounds the executable trade size.
func (c Cycle) MinLiquidity() *big.Int {
	var min *big.Int
	for _, e := range c.Edges {
		if e.Liquidity == nil {
			continue
		}
		if min == nil || e.Liquidity.Cmp(min) < 0 {
			min = e.Liquidity
		}
	}
	return min
}

// OldestQuote returns the timestamp of the stalest quote backing the cycle.
func (c Cycle) OldestQuote() time.Time {
	var oldest time.Time
	for i, e := range c.Edges {
		if i == 0 || e.QuotedAt.Before(oldest) {
			oldest = e.QuotedAt
		}
	}
	return oldest
}

// Signature returns the keccak-256 hash of the ordered (venue, from, to)
// sequence. Two cycles trading the same pairs on the same venues in the same
// order share a signature regardless of rates or sizes.
func (c Cycle) Signature() Signature {
	buf := make([]byte, 0, len(c.Edges)*(2*common.AddressLength+16))
	for _, e := range c.Edges {
		buf = append(buf, []byte(e.Venue)...)
		buf = append(buf, '|')
		buf = append(buf, e.From.Address.Bytes()...)
		buf = append(buf, e.To.Address.Bytes()...)
	}
	return Signature(crypto.Keccak256Hash(buf))
}

func (c Cycle) String() string {
	var b strings.Builder
	for i, e := range c.Edges {
		if i > 0 {
			b.WriteString(" => ")
		}
		b.WriteString(e.String())
	}
	return b.String()
}
