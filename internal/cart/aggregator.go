// Package cart derives the running cart count and the toast stack from
// per-product quantity changes.
package cart

import (
	"sync"
	"time"

	"quicksearch/internal/catalog"
	"quicksearch/internal/logging"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

const (
	DefaultTTL       = 3400 * time.Millisecond
	DefaultMaxToasts = 3
)

// Snapshot is a consistent view of the aggregator for renderers.
type Snapshot struct {
	Count  int
	Toasts []Toast // newest first
}

// Observer is called after every change.
type Observer func(Snapshot)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock toast expiry timers run on.
func WithClock(c clock.Clock) Option { return func(a *Aggregator) { a.clock = c } }

// WithTTL sets how long a toast stays visible after its last update.
func WithTTL(d time.Duration) Option { return func(a *Aggregator) { a.ttl = d } }

// WithMaxToasts caps the number of visible toasts.
func WithMaxToasts(n int) Option { return func(a *Aggregator) { a.max = n } }

// Aggregator tracks quantities, flags and toasts keyed by product id.
type Aggregator struct {
	clock clock.Clock
	ttl   time.Duration
	max   int

	mu         sync.Mutex
	count      int
	quantities map[string]int
	favorites  map[string]bool
	disliked   map[string]bool
	toasts     []*toastEntry
	gen        uint64

	notifyMu  sync.Mutex
	observers []Observer
}

// New creates an empty aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		clock: clock.New(),
		ttl:   DefaultTTL,
		max:   DefaultMaxToasts,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.max < 1 {
		a.max = 1
	}
	a.clearLocked()
	return a
}

// Subscribe registers an observer. Observers must not call back into mutators.
func (a *Aggregator) Subscribe(obs Observer) {
	a.notifyMu.Lock()
	a.observers = append(a.observers, obs)
	a.notifyMu.Unlock()
}

// unlockAndNotify releases a.mu and delivers the resulting snapshot.
func (a *Aggregator) unlockAndNotify() {
	snap := a.snapshotLocked()
	a.notifyMu.Lock()
	a.mu.Unlock()
	defer a.notifyMu.Unlock()
	for _, obs := range a.observers {
		obs(snap)
	}
}

// ChangeQuantity applies a signed delta to a product's quantity, clamped at
// zero, and returns the new quantity. The cart count moves by the delta that
// was actually applied.
func (a *Aggregator) ChangeQuantity(p catalog.Product, delta int) int {
	a.mu.Lock()
	prev := a.quantities[p.ID]
	next := max(prev+delta, 0)
	applied := next - prev
	if applied == 0 {
		a.mu.Unlock()
		return next
	}
	a.applyLocked(p, prev, next)
	a.unlockAndNotify()
	return next
}

func (a *Aggregator) applyLocked(p catalog.Product, prev, next int) {
	applied := next - prev
	a.quantities[p.ID] = next
	a.count = max(a.count+applied, 0)

	if applied > 0 {
		a.upsertLocked(p, StatusAdded, func(int) int { return next })
	} else {
		a.upsertLocked(p, StatusRemoved, func(cur int) int { return cur - applied })
	}
	logging.Cart("%s: %d -> %d (cart=%d)", p.ID, prev, next, a.count)
}

// upsertLocked moves the product's toast of the given status to the front,
// creating it if needed, and re-arms its expiry.
func (a *Aggregator) upsertLocked(p catalog.Product, status Status, qty func(current int) int) {
	var entry *toastEntry
	rest := a.toasts[:0:0]
	for _, t := range a.toasts {
		if entry == nil && t.ProductID == p.ID && t.Status == status {
			entry = t
			continue
		}
		rest = append(rest, t)
	}
	if entry == nil {
		entry = &toastEntry{Toast: Toast{ID: uuid.NewString(), ProductID: p.ID, Status: status}}
	}
	entry.ProductTitle = p.Title
	entry.Quantity = qty(entry.Quantity)
	entry.ExpiresAt = a.clock.Now().Add(a.ttl)

	a.gen++
	entry.gen = a.gen
	entry.stop()
	id, gen := entry.ID, entry.gen
	entry.timer = a.clock.AfterFunc(a.ttl, func() { a.expire(id, gen) })

	a.toasts = append([]*toastEntry{entry}, rest...)
	for len(a.toasts) > a.max {
		dropped := a.toasts[len(a.toasts)-1]
		dropped.stop()
		a.toasts = a.toasts[:len(a.toasts)-1]
	}
}

// expire removes a toast unless it was refreshed or cleared since the timer was armed.
func (a *Aggregator) expire(id string, gen uint64) {
	a.mu.Lock()
	for i, t := range a.toasts {
		if t.ID == id && t.gen == gen {
			t.timer = nil
			a.toasts = append(a.toasts[:i:i], a.toasts[i+1:]...)
			logging.CartDebug("toast %s expired", id)
			a.unlockAndNotify()
			return
		}
	}
	a.mu.Unlock()
}

// ToggleFavorite flips the favorite flag. Becoming a favorite clears dislike.
func (a *Aggregator) ToggleFavorite(p catalog.Product) bool {
	a.mu.Lock()
	fav := !a.favorites[p.ID]
	a.favorites[p.ID] = fav
	if fav {
		a.disliked[p.ID] = false
	}
	a.unlockAndNotify()
	return fav
}

// ToggleDislike flips the dislike flag. Disliking zeroes the quantity, which
// is reported as a removal, and clears the favorite flag.
func (a *Aggregator) ToggleDislike(p catalog.Product) bool {
	a.mu.Lock()
	dis := !a.disliked[p.ID]
	a.disliked[p.ID] = dis
	if dis {
		a.favorites[p.ID] = false
		if prev := a.quantities[p.ID]; prev > 0 {
			a.applyLocked(p, prev, 0)
		}
	}
	a.unlockAndNotify()
	return dis
}

// Count returns the cart count.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}

// Quantity returns a product's current quantity.
func (a *Aggregator) Quantity(productID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quantities[productID]
}

// IsFavorite reports the favorite flag.
func (a *Aggregator) IsFavorite(productID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.favorites[productID]
}

// IsDisliked reports the dislike flag.
func (a *Aggregator) IsDisliked(productID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disliked[productID]
}

// Toasts returns the visible toasts, newest first.
func (a *Aggregator) Toasts() []Toast {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked().Toasts
}

// Snapshot returns the count and toasts together.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() Snapshot {
	out := make([]Toast, len(a.toasts))
	for i, t := range a.toasts {
		out[i] = t.Toast
	}
	return Snapshot{Count: a.count, Toasts: out}
}

// Reset cancels every toast timer and zeroes all state.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.clearLocked()
	logging.Cart("cart reset")
	a.unlockAndNotify()
}

// Close cancels pending toast timers.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.toasts {
		t.stop()
	}
	a.toasts = nil
}

func (a *Aggregator) clearLocked() {
	for _, t := range a.toasts {
		t.stop()
	}
	a.toasts = nil
	a.count = 0
	a.quantities = make(map[string]int)
	a.favorites = make(map[string]bool)
	a.disliked = make(map[string]bool)
	a.gen++
}
