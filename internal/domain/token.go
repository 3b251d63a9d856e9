// Package domain defines the core value types of the arbitrage detection
// engine: tokens, venues, price quotes, graph edges, trade cycles, and
// opportunities, together with the interfaces through which the engine talks
// to its external collaborators.
package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token identifies a tradable asset by symbol and canonical on-chain address.
// It is a small comparable value type: two Tokens are the same asset iff both
// symbol and address match, so Tokens can be used directly as map keys without
// stringly-typed identifiers. A Token is immutable once registered.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

// NewToken builds a Token from a symbol and a hex address string.
func NewToken(symbol, address string, decimals uint8) Token {
	return Token{
		Symbol:   symbol,
		Address:  common.HexToAddress(address),
		Decimals: decimals,
	}
}

// BaseUnit returns 10^Decimals, one display unit in base (smallest
// denomination) units.
func (t Token) BaseUnit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Decimals)), nil)
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%s)", t.Symbol, t.Address.Hex())
}
