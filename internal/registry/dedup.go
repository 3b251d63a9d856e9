package registry

import (
	"sync"
	"time"

	"github.com/juant72/sniperforge-sub004/internal/domain"
)

// dedup suppresses resubmissions of the same cycle signature within a
// cooldown window. It is safe for concurrent use.
type dedup struct {
	seen     map[domain.Signature]time.Time // signature -> last accepted
	cooldown time.Duration
	mu       sync.Mutex
}

func newDedup(cooldown time.Duration) *dedup {
	return &dedup{
		seen:     make(map[domain.Signature]time.Time),
		cooldown: cooldown,
	}
}

// isDuplicate reports whether sig was accepted within the cooldown window.
// If not, it is recorded and false is returned.
func (d *dedup) isDuplicate(sig domain.Signature, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.seen[sig]; ok {
		if now.Sub(last) < d.cooldown {
			return true
		}
	}

	d.seen[sig] = now
	return false
}

// cleanup removes entries older than the cooldown window. Called
// periodically to keep the set bounded.
func (d *dedup) cleanup(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for sig, ts := range d.seen {
		if now.Sub(ts) >= d.cooldown {
			delete(d.seen, sig)
		}
	}
}

func (d *dedup) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
