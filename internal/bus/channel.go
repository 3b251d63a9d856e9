// Package bus provides push delivery of accepted opportunities to the
// execution collaborator, either in-process or over Redis Pub/Sub.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// ChannelBus is an in-process bus backed by a buffered channel. Publish
// never blocks: when the subscriber falls behind, the new opportunity is
// dropped and logged.
type ChannelBus struct {
	ch     chan domain.Opportunity
	logger *slog.Logger

	closeOnce sync.Once
}

// NewChannelBus builds a ChannelBus with the given buffer size.
func NewChannelBus(size int, logger *slog.Logger) *ChannelBus {
	if size <= 0 {
		size = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelBus{
		ch:     make(chan domain.Opportunity, size),
		logger: logger.With(slog.String("component", "bus")),
	}
}

// Publish implements domain.OpportunityBus.
func (b *ChannelBus) Publish(_ context.Context, o domain.Opportunity) error {
	select {
	case b.ch <- o:
	default:
		b.logger.Debug("subscriber behind, dropped opportunity",
			slog.String("opportunity_id", o.ID))
	}
	return nil
}

// Subscribe returns the delivery channel. The channel is closed by Close.
func (b *ChannelBus) Subscribe() <-chan domain.Opportunity {
	return b.ch
}

// Close closes the delivery channel. Publish must not be called after
// Close.
func (b *ChannelBus) Close() error {
	b.closeOnce.Do(func() { close(b.ch) })
	return nil
}

var _ domain.OpportunityBus = (*ChannelBus)(nil)
