package domain

import "errors"

var (
	ErrNoAnchorTokens        = errors.New("no anchor tokens configured")
	ErrNoVenues              = errors.New("no venues configured")
	ErrUnknownVenue          = errors.New("unknown venue")
	ErrDuplicateSignature    = errors.New("duplicate opportunity signature")
	ErrOpportunityExpired    = errors.New("opportunity expired")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrNotFound              = errors.New("not found")
)
