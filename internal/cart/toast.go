package cart

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Status says whether a toast reports additions or removals.
type Status string

const (
	StatusAdded   Status = "added"
	StatusRemoved Status = "removed"
)

// Toast is a transient cart-change notification. For added toasts Quantity is
// the product's current quantity; for removed toasts it is the number of units
// removed since the toast appeared.
type Toast struct {
	ID           string
	ProductID    string
	ProductTitle string
	Quantity     int
	Status       Status
	ExpiresAt    time.Time
}

type toastEntry struct {
	Toast
	timer *clock.Timer
	gen   uint64
}

func (t *toastEntry) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
