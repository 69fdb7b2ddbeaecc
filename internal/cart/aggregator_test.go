package cart

import (
	"testing"
	"time"

	"quicksearch/internal/catalog"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cream = catalog.Product{ID: "p-cream", Title: "Cream"}
	gel   = catalog.Product{ID: "p-gel", Title: "Gel"}
	serum = catalog.Product{ID: "p-serum", Title: "Serum"}
	balm  = catalog.Product{ID: "p-balm", Title: "Balm"}
	// same display name, different product
	cream2 = catalog.Product{ID: "p-cream-2", Title: "Cream"}
)

func newTestAggregator(t *testing.T) (*Aggregator, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	a := New(WithClock(mock))
	t.Cleanup(a.Close)
	return a, mock
}

func TestAddedToastShowsAbsoluteQuantity(t *testing.T) {
	a, _ := newTestAggregator(t)

	a.ChangeQuantity(cream, 1)
	a.ChangeQuantity(cream, 1)
	a.ChangeQuantity(cream, 1)

	toasts := a.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, StatusAdded, toasts[0].Status)
	assert.Equal(t, 3, toasts[0].Quantity)
	assert.Equal(t, 3, a.Count())
}

func TestRemovedToastAccumulates(t *testing.T) {
	a, _ := newTestAggregator(t)

	a.ChangeQuantity(cream, 5)
	a.ChangeQuantity(cream, -1)
	a.ChangeQuantity(cream, -2)

	toasts := a.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, StatusRemoved, toasts[0].Status)
	assert.Equal(t, 3, toasts[0].Quantity)
	assert.Equal(t, StatusAdded, toasts[1].Status)
	assert.Equal(t, 2, a.Quantity(cream.ID))
	assert.Equal(t, 2, a.Count())
}

func TestCountNeverNegative(t *testing.T) {
	a, _ := newTestAggregator(t)

	assert.Equal(t, 0, a.ChangeQuantity(cream, -3))
	assert.Zero(t, a.Count())
	assert.Empty(t, a.Toasts(), "nothing was removed")

	a.ChangeQuantity(gel, 2)
	a.ChangeQuantity(gel, -10)
	assert.Zero(t, a.Count())
	assert.Zero(t, a.Quantity(gel.ID))
	assert.Equal(t, 2, a.Toasts()[0].Quantity)
}

func TestTracksByProductID(t *testing.T) {
	a, _ := newTestAggregator(t)

	a.ChangeQuantity(cream, 2)
	a.ChangeQuantity(cream2, 1)

	assert.Equal(t, 2, a.Quantity(cream.ID))
	assert.Equal(t, 1, a.Quantity(cream2.ID))
	assert.Len(t, a.Toasts(), 2)
	assert.Equal(t, 3, a.Count())
}

func TestAtMostThreeToastsNewestFirst(t *testing.T) {
	a, _ := newTestAggregator(t)

	a.ChangeQuantity(cream, 1)
	a.ChangeQuantity(gel, 1)
	a.ChangeQuantity(serum, 1)
	a.ChangeQuantity(balm, 1)

	toasts := a.Toasts()
	require.Len(t, toasts, 3)
	assert.Equal(t, []string{"p-balm", "p-serum", "p-gel"},
		[]string{toasts[0].ProductID, toasts[1].ProductID, toasts[2].ProductID})

	// an update moves an existing toast to the front
	a.ChangeQuantity(gel, 1)
	assert.Equal(t, "p-gel", a.Toasts()[0].ProductID)
	assert.Len(t, a.Toasts(), 3)
}

func TestToastExpiresAndRefreshResetsTimer(t *testing.T) {
	a, mock := newTestAggregator(t)

	a.ChangeQuantity(cream, 1)
	mock.Add(DefaultTTL - time.Second)
	a.ChangeQuantity(cream, 1)

	mock.Add(time.Second)
	time.Sleep(5 * time.Millisecond)
	require.Len(t, a.Toasts(), 1, "refresh re-armed the timer")

	mock.Add(DefaultTTL)
	require.Eventually(t, func() bool { return len(a.Toasts()) == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, a.Count(), "expiry does not touch the cart")
}

func TestRemovalAccumulationRestartsAfterExpiry(t *testing.T) {
	a, mock := newTestAggregator(t)

	a.ChangeQuantity(cream, 4)
	a.ChangeQuantity(cream, -1)
	mock.Add(DefaultTTL)
	require.Eventually(t, func() bool { return len(a.Toasts()) == 0 }, time.Second, time.Millisecond)

	a.ChangeQuantity(cream, -1)
	toasts := a.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, 1, toasts[0].Quantity)
}

func TestDislikeZeroesQuantityAndClearsFavorite(t *testing.T) {
	a, _ := newTestAggregator(t)

	a.ChangeQuantity(cream, 3)
	require.True(t, a.ToggleFavorite(cream))

	require.True(t, a.ToggleDislike(cream))
	assert.Zero(t, a.Quantity(cream.ID))
	assert.Zero(t, a.Count())
	assert.False(t, a.IsFavorite(cream.ID))

	removed := a.Toasts()[0]
	assert.Equal(t, StatusRemoved, removed.Status)
	assert.Equal(t, 3, removed.Quantity)

	// favoriting clears dislike again
	require.True(t, a.ToggleFavorite(cream))
	assert.False(t, a.IsDisliked(cream.ID))
}

func TestResetClearsEverything(t *testing.T) {
	a, mock := newTestAggregator(t)

	var last Snapshot
	a.Subscribe(func(s Snapshot) { last = s })

	a.ChangeQuantity(cream, 2)
	a.ToggleFavorite(gel)
	a.Reset()

	assert.Zero(t, a.Count())
	assert.Empty(t, a.Toasts())
	assert.False(t, a.IsFavorite(gel.ID))
	assert.Zero(t, last.Count)

	// the cancelled expiry must not resurrect anything
	mock.Add(DefaultTTL)
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, a.Toasts())
}

func TestMaxToastsOption(t *testing.T) {
	a := New(WithClock(clock.NewMock()), WithMaxToasts(1), WithTTL(time.Second))
	defer a.Close()

	a.ChangeQuantity(cream, 1)
	a.ChangeQuantity(gel, 1)
	require.Len(t, a.Toasts(), 1)
	assert.Equal(t, "p-gel", a.Toasts()[0].ProductID)
}
