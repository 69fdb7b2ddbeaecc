package assistant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quicksearch/internal/catalog"
	"quicksearch/internal/chat"
	"quicksearch/internal/config"
	"quicksearch/internal/view"
	"quicksearch/internal/voice"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type memPrefs struct{ done bool }

func (p *memPrefs) IsOnboardingComplete() bool    { return p.done }
func (p *memPrefs) MarkOnboardingComplete() error { p.done = true; return nil }

func newTestWidget(t *testing.T, onboarded bool) (*Widget, *clock.Mock) {
	t.Helper()
	var n atomic.Int64
	mock := clock.NewMock()
	w := New(Options{
		Prefs: &memPrefs{done: onboarded},
		Clock: mock,
		IDs:   func() string { return fmt.Sprintf("m%d", n.Add(1)) },
	})
	t.Cleanup(w.Close)
	return w, mock
}

func lastOf[T chat.Message](t *testing.T, w *Widget) T {
	t.Helper()
	msgs := w.Messages()
	require.NotEmpty(t, msgs)
	m, ok := msgs[len(msgs)-1].(T)
	require.True(t, ok, "last message is %T", msgs[len(msgs)-1])
	return m
}

func settle(t *testing.T, w *Widget, mock *clock.Mock, d time.Duration) {
	t.Helper()
	mock.Add(d)
	require.Eventually(t, func() bool {
		for _, m := range w.Messages() {
			if m.Kind() == chat.KindLoading {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)
}

var delays = config.DefaultConfig()

func TestManyShowsFullCatalog(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()

	require.True(t, w.SubmitText("many"))
	assert.Equal(t, view.Chat, w.View().View)

	settle(t, w, mock, delays.GetChatProductsDelay())

	p := lastOf[chat.Products](t, w)
	assert.Len(t, p.Products, len(catalog.Default().Products()))
	assert.Equal(t, 3, p.VisibleCount)
	assert.False(t, p.ShowMore)
	assert.Len(t, w.Messages(), 2)
}

func TestThreeApples(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()

	w.SubmitText("three apples")
	settle(t, w, mock, delays.GetChatProductsDelay())

	p := lastOf[chat.Products](t, w)
	assert.Len(t, p.Products, 3)
	assert.Equal(t, 3, p.VisibleCount)
	assert.False(t, p.ShowMore)
}

func TestConnectionLostOverridesNavigation(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()

	w.SubmitText("connection please")
	require.NoError(t, w.DockMic())
	require.Equal(t, view.VoiceChat, w.View().View)

	settle(t, w, mock, delays.GetTextDelay())

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.KindConnectionLost, msgs[1].Kind())
	assert.Equal(t, view.ConnectionLost, w.View().View)
}

func TestOnboardingThenCategoryFlow(t *testing.T) {
	w, mock := newTestWidget(t, false)
	w.Open()
	require.Equal(t, view.Explain, w.View().View)
	require.NoError(t, w.Continue())

	require.NoError(t, w.PickChip("Payment"))
	assert.Equal(t, view.Category, w.View().View)
	assert.Equal(t, "Payment", lastOf[chat.UserText](t, w).Text)
	assert.Len(t, w.Messages(), 1, "picking a category does not query the engine")

	subchips := w.Subchips()
	require.Contains(t, subchips, "Installments")

	require.NoError(t, w.PickSubchip("Installments"))
	assert.Equal(t, view.Chat, w.View().View)
	assert.Nil(t, w.Subchips())

	settle(t, w, mock, delays.GetTextDelay())
	assert.Equal(t, chat.KindAssistantText, lastOf[chat.AssistantText](t, w).Kind())
}

func TestPickUnknownCategory(t *testing.T) {
	w, _ := newTestWidget(t, true)
	assert.ErrorIs(t, w.PickChip("Gardening"), ErrUnknownCategory)
	assert.Zero(t, len(w.Messages()))
}

func TestBackResetsEverything(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()

	w.SubmitText("many")
	_, err := w.ChangeQuantity("p-aloe-gel", 2)
	require.NoError(t, err)
	require.Equal(t, 2, w.Snapshot().Cart.Count)

	assert.Equal(t, view.BackReset, w.Back())
	snap := w.Snapshot()
	assert.Empty(t, snap.Messages)
	assert.Zero(t, snap.Cart.Count)
	assert.Empty(t, snap.Cart.Toasts)
	assert.Equal(t, view.Chips, snap.View.View)

	// the old resolution is gone for good
	mock.Add(time.Minute)
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, w.Messages())

	assert.Equal(t, view.BackClosed, w.Back())
	assert.False(t, w.View().Open)
}

func TestUnreadBadgeWhileClosed(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()
	w.SubmitText("hello")
	w.CloseModal()

	settle(t, w, mock, delays.GetTextDelay())
	require.Eventually(t, func() bool { return w.View().Unread }, time.Second, time.Millisecond)

	w.Open()
	s := w.View()
	assert.False(t, s.Unread)
	assert.Equal(t, view.Chat, s.View, "an existing conversation keeps its view")
}

func TestFeedbackFlow(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.Open()

	w.SubmitText("feedback")
	settle(t, w, mock, delays.GetTextDelay())
	require.Equal(t, view.Feedback, w.View().View)

	assert.ErrorIs(t, w.SubmitFeedback(0, ""), ErrInvalidRating)
	require.NoError(t, w.SubmitFeedback(5, " great "))

	snap := w.Snapshot()
	assert.Equal(t, view.FeedbackFilled, snap.View.View)
	require.NotNil(t, snap.Feedback)
	assert.Equal(t, Feedback{Rating: 5, Comment: "great"}, *snap.Feedback)

	w.NewSearch()
	snap = w.Snapshot()
	assert.Equal(t, view.Chips, snap.View.View)
	assert.Empty(t, snap.Messages)
	assert.Nil(t, snap.Feedback)
}

func TestExpandProducts(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.SubmitText("show me more")
	settle(t, w, mock, delays.GetChatProductsDelay())

	p := lastOf[chat.Products](t, w)
	require.True(t, p.ShowMore)

	require.NoError(t, w.ExpandProducts(p.ID))
	expanded := lastOf[chat.Products](t, w)
	assert.Equal(t, len(expanded.Products), expanded.VisibleCount)
	assert.False(t, expanded.ShowMore)

	assert.ErrorIs(t, w.ExpandProducts(p.ID), ErrNotExpandable)
	assert.ErrorIs(t, w.ExpandProducts("missing"), ErrNotExpandable)
}

func TestRetryAfterError(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.SubmitText("error")
	settle(t, w, mock, delays.GetTextDelay())
	require.Equal(t, chat.KindError, lastOf[chat.Error](t, w).Kind())

	require.True(t, w.Retry())
	settle(t, w, mock, delays.GetTextDelay())

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "error", msgs[0].(chat.UserText).Text)
	assert.Equal(t, chat.KindError, msgs[1].Kind())
}

func TestSelectRecommendation(t *testing.T) {
	w, mock := newTestWidget(t, true)
	w.SubmitText("none")
	settle(t, w, mock, delays.GetChatProductsDelay())

	var actions chat.Actions
	for _, m := range w.Messages() {
		if a, ok := m.(chat.Actions); ok {
			actions = a
		}
	}
	require.Len(t, actions.Actions, 2)

	require.True(t, w.SelectAction(actions.Actions[0]))
	assert.Equal(t, "Recommendation 1", w.Messages()[len(w.Messages())-2].(chat.UserText).Text)
}

func TestProductInteractions(t *testing.T) {
	w, _ := newTestWidget(t, true)

	_, err := w.ChangeQuantity("nope", 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	qty, err := w.ChangeQuantity("p-spf50", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	fav, err := w.ToggleFavorite("p-spf50")
	require.NoError(t, err)
	assert.True(t, fav)

	dis, err := w.ToggleDislike("p-spf50")
	require.NoError(t, err)
	assert.True(t, dis)
	assert.Equal(t, ProductState{Disliked: true}, w.Product("p-spf50"))
	assert.Zero(t, w.Snapshot().Cart.Count)
}

func TestDraftSubmission(t *testing.T) {
	w, _ := newTestWidget(t, true)
	w.SetDraft("   ")
	assert.False(t, w.SubmitDraft())
	assert.Empty(t, w.Messages())
	assert.Equal(t, view.Chips, w.View().View)

	w.SetDraft("two creams")
	assert.True(t, w.SubmitDraft())
	assert.Empty(t, w.View().Draft)
	assert.Len(t, w.Messages(), 2)
}

func TestVoiceInterviewThroughWidget(t *testing.T) {
	defer goleak.VerifyNone(t)

	mock := clock.NewMock()
	w := New(Options{Prefs: &memPrefs{done: true}, Clock: mock})
	w.Start(context.Background())
	defer w.Close()

	w.Open()
	require.NoError(t, w.DockMic())
	require.Equal(t, view.Voice, w.View().View)
	require.NoError(t, w.MicStart())
	require.Equal(t, view.VoiceChat, w.View().View)

	require.Eventually(t, func() bool { return w.Snapshot().Voice.Mode == "listening" }, time.Second, time.Millisecond)

	require.NoError(t, w.Dictate("cre", false))
	require.NoError(t, w.Dictate("cream", true))
	require.Eventually(t, func() bool { return w.Snapshot().Voice.Generating }, time.Second, time.Millisecond)
	assert.Equal(t, "cream", lastOf[chat.UserText](t, w).Text)

	mock.Add(delays.GetGenerateDelay())
	require.Eventually(t, func() bool { return w.Snapshot().Voice.Step == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, voice.DefaultQuestions[0], lastOf[chat.AssistantText](t, w).Text)

	require.NoError(t, w.Keyboard())
	assert.Equal(t, view.Chat, w.View().View)

	// coming back resumes after the last asked question
	require.NoError(t, w.DockMic())
	assert.Equal(t, 1, w.Snapshot().Voice.Step)
}

func TestAskWaitsForResolution(t *testing.T) {
	w, mock := newTestWidget(t, true)

	type result struct {
		msgs []chat.Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		msgs, err := w.Ask(context.Background(), "none")
		done <- result{msgs, err}
	}()

	require.Eventually(t, func() bool { return w.engine.Pending() == 1 }, time.Second, time.Millisecond)
	mock.Add(delays.GetChatProductsDelay())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Len(t, r.msgs, 3)
		assert.Equal(t, chat.KindActions, r.msgs[1].Kind())
	case <-time.After(time.Second):
		t.Fatal("Ask did not return")
	}

	_, err := w.Ask(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestAskHonoursContext(t *testing.T) {
	w, _ := newTestWidget(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := w.Ask(ctx, "many")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscribersReceiveTopics(t *testing.T) {
	w, _ := newTestWidget(t, true)

	var mu sync.Mutex
	var first, second []Topic
	w.Subscribe(func(tp Topic) {
		mu.Lock()
		first = append(first, tp)
		mu.Unlock()
	})
	// Subscribing from inside a listener must not deadlock; the new
	// listener only sees later changes.
	var once sync.Once
	w.Subscribe(func(Topic) {
		once.Do(func() {
			w.Subscribe(func(tp Topic) {
				mu.Lock()
				second = append(second, tp)
				mu.Unlock()
			})
		})
	})

	w.Open()
	require.True(t, w.SubmitText("many"))
	p := w.Catalog().Products()[0]
	_, err := w.ChangeQuantity(p.ID, 1)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, first, TopicView)
	assert.Contains(t, first, TopicMessages)
	assert.Contains(t, first, TopicCart)
	assert.Contains(t, second, TopicMessages)
	assert.Contains(t, second, TopicCart)
}
