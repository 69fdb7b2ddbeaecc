// Package assistant composes the conversation store, scenario engine, cart,
// view machine and voice controller into one widget session and exposes every
// user-facing event as a method.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"quicksearch/internal/cart"
	"quicksearch/internal/catalog"
	"quicksearch/internal/chat"
	"quicksearch/internal/engine"
	"quicksearch/internal/logging"
	"quicksearch/internal/speech"
	"quicksearch/internal/view"
	"quicksearch/internal/voice"
)

var (
	// ErrUnknownCategory is returned when a picked chip is not in the catalog.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrInvalidRating is returned for feedback ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrNotExpandable is returned when a message has no hidden products.
	ErrNotExpandable = errors.New("message has no hidden products")
)

// Topic names the part of the session that changed.
type Topic string

const (
	TopicMessages Topic = "messages"
	TopicCart     Topic = "cart"
	TopicView     Topic = "view"
	TopicVoice    Topic = "voice"
)

// Feedback is the in-memory result of the feedback form.
type Feedback struct {
	Rating  int
	Comment string
}

// ProductState is the per-product interaction state for renderers.
type ProductState struct {
	Quantity int
	Favorite bool
	Disliked bool
}

// Snapshot is everything a renderer needs.
type Snapshot struct {
	View     view.State
	Messages []chat.Message
	Cart     cart.Snapshot
	Voice    voice.State
	Feedback *Feedback
}

// Widget is one conversation session.
type Widget struct {
	opts    Options
	catalog *catalog.Catalog

	store  *chat.Store
	engine *engine.Engine
	cart   *cart.Aggregator
	view   *view.Machine
	voice  *voice.Controller
	speech speech.Recognizer

	mu       sync.Mutex
	feedback *Feedback

	subMu       sync.Mutex
	subscribers []func(Topic)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a widget session.
func New(opts Options) *Widget {
	opts = opts.withDefaults()
	cfg := opts.Config

	w := &Widget{
		opts:    opts,
		catalog: opts.Catalog,
		store:   chat.NewStore(),
		speech:  opts.Recognizer,
	}

	engineOpts := []engine.Option{
		engine.WithClock(opts.Clock),
		engine.WithDelays(engineDelays(cfg)),
	}
	voiceOpts := []voice.Option{voice.WithClock(opts.Clock)}
	if opts.IDs != nil {
		engineOpts = append(engineOpts, engine.WithIDGenerator(opts.IDs))
		voiceOpts = append(voiceOpts, voice.WithIDGenerator(opts.IDs))
	}

	w.engine = engine.New(w.store, opts.Catalog, engineOpts...)
	w.cart = cart.New(
		cart.WithClock(opts.Clock),
		cart.WithTTL(cfg.GetToastTTL()),
		cart.WithMaxToasts(cfg.Cart.MaxToasts),
	)
	w.view = view.New(opts.Prefs)
	w.voice = voice.New(w.store, w.engine, voiceConfig(cfg), voiceOpts...)

	w.store.Subscribe(func(c chat.Change) {
		if c.Op == chat.OpAppend || c.Op == chat.OpReplace {
			w.view.Observe(c.Last)
		}
		w.publish(TopicMessages)
	})
	w.cart.Subscribe(func(cart.Snapshot) { w.publish(TopicCart) })
	w.view.Subscribe(func(view.State) { w.publish(TopicView) })
	w.voice.Subscribe(func(voice.State) { w.publish(TopicVoice) })

	return w
}

// Start feeds speech events into the voice controller until ctx is done or
// Close is called.
func (w *Widget) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.voice.Consume(ctx, w.speech.Events()); err != nil && !errors.Is(err, context.Canceled) {
			logging.Voice("speech consumer stopped: %v", err)
		}
	}()
}

// Close stops every timer and the speech consumer.
func (w *Widget) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.engine.Close()
	w.cart.Close()
	w.voice.Close()
	w.speech.Close()
	w.wg.Wait()
}

// Subscribe registers a change listener. Listeners run on the goroutine that
// made the change and must not block.
func (w *Widget) Subscribe(fn func(Topic)) {
	w.subMu.Lock()
	w.subscribers = append(w.subscribers, fn)
	w.subMu.Unlock()
}

func (w *Widget) publish(t Topic) {
	w.subMu.Lock()
	subs := slices.Clone(w.subscribers)
	w.subMu.Unlock()
	for _, fn := range subs {
		fn(t)
	}
}

// Snapshot returns a consistent-enough copy of the session for rendering.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	var fb *Feedback
	if w.feedback != nil {
		cp := *w.feedback
		fb = &cp
	}
	w.mu.Unlock()

	return Snapshot{
		View:     w.view.State(),
		Messages: w.store.Messages(),
		Cart:     w.cart.Snapshot(),
		Voice:    w.voice.State(),
		Feedback: fb,
	}
}

// Catalog returns the catalog the session selects from.
func (w *Widget) Catalog() *catalog.Catalog { return w.catalog }

// Messages returns the conversation log.
func (w *Widget) Messages() []chat.Message { return w.store.Messages() }

// View returns the view state.
func (w *Widget) View() view.State { return w.view.State() }

// Product returns the interaction state of one product.
func (w *Widget) Product(id string) ProductState {
	return ProductState{
		Quantity: w.cart.Quantity(id),
		Favorite: w.cart.IsFavorite(id),
		Disliked: w.cart.IsDisliked(id),
	}
}

// Questions returns the length of the voice interview.
func (w *Widget) Questions() int { return w.voice.Questions() }

func (w *Widget) hasConversation() bool { return w.store.Len() > 0 }

// Open shows the modal.
func (w *Widget) Open() { w.view.Open(w.hasConversation()) }

// CloseModal hides the modal.
func (w *Widget) CloseModal() { w.view.Close() }

// Continue leaves the explainer.
func (w *Widget) Continue() error { return w.view.Continue() }

// Back resets the conversation or closes the modal, depending on the view.
func (w *Widget) Back() view.BackResult {
	res := w.view.Back()
	if res == view.BackReset {
		w.resetConversation()
	}
	return res
}

// NewSearch starts over from the chip picker.
func (w *Widget) NewSearch() {
	w.view.Reset()
	w.resetConversation()
}

func (w *Widget) resetConversation() {
	w.speech.Stop()
	w.engine.Reset()
	w.cart.Reset()
	w.voice.Reset()
	w.mu.Lock()
	w.feedback = nil
	w.mu.Unlock()
	logging.View("conversation reset")
}

// PickChip selects a top-level category. The category name is recorded as a
// user utterance without asking the engine.
func (w *Widget) PickChip(category string) error {
	if w.catalog.Subchips(category) == nil {
		return fmt.Errorf("%q: %w", category, ErrUnknownCategory)
	}
	if err := w.view.PickCategory(category); err != nil {
		return err
	}
	w.store.Append(chat.UserText{Header: chat.Header{ID: w.newID(), Source: chat.SourceChat}, Text: category})
	return nil
}

// Subchips returns the subchips of the selected category while they are shown.
func (w *Widget) Subchips() []string {
	s := w.view.State()
	if !s.ShowSubchips {
		return nil
	}
	return w.catalog.Subchips(s.Category)
}

// PickSubchip sends a subchip label as a query.
func (w *Widget) PickSubchip(label string) error {
	if err := w.view.PickSubchip(); err != nil {
		return err
	}
	w.engine.Submit(label, chat.SourceChat)
	return nil
}

// SetDraft records the text in the input dock.
func (w *Widget) SetDraft(text string) { w.view.SetDraft(text) }

// SubmitText sends a typed query. Blank text is ignored.
func (w *Widget) SubmitText(text string) bool {
	if _, ok := w.engine.Submit(text, chat.SourceChat); !ok {
		return false
	}
	w.view.Submitted()
	return true
}

// SubmitDraft sends the current draft.
func (w *Widget) SubmitDraft() bool {
	return w.SubmitText(w.view.State().Draft)
}

// Retry re-submits the query that produced the last error.
func (w *Widget) Retry() bool { return w.engine.Retry() }

// SelectAction sends a recommendation chip as a query.
func (w *Widget) SelectAction(a chat.Action) bool {
	label := a.Label
	if strings.TrimSpace(label) == "" {
		label = a.Value
	}
	return w.SubmitText(label)
}

// ChangeQuantity applies a quantity delta to a catalog product.
func (w *Widget) ChangeQuantity(productID string, delta int) (int, error) {
	p, err := w.catalog.Lookup(productID)
	if err != nil {
		return 0, err
	}
	return w.cart.ChangeQuantity(p, delta), nil
}

// ToggleFavorite flips a product's favorite flag.
func (w *Widget) ToggleFavorite(productID string) (bool, error) {
	p, err := w.catalog.Lookup(productID)
	if err != nil {
		return false, err
	}
	return w.cart.ToggleFavorite(p), nil
}

// ToggleDislike flips a product's dislike flag.
func (w *Widget) ToggleDislike(productID string) (bool, error) {
	p, err := w.catalog.Lookup(productID)
	if err != nil {
		return false, err
	}
	return w.cart.ToggleDislike(p), nil
}

// ExpandProducts reveals every product of a show-more strip in place.
func (w *Widget) ExpandProducts(messageID string) error {
	m, ok := w.store.Get(messageID)
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, ErrNotExpandable)
	}
	p, ok := m.(chat.Products)
	if !ok || !p.ShowMore {
		return fmt.Errorf("message %s: %w", messageID, ErrNotExpandable)
	}
	w.store.Update(p.Expand())
	return nil
}

// DockMic handles the input dock microphone.
func (w *Widget) DockMic() error {
	if err := w.view.DockMic(w.hasConversation()); err != nil {
		return err
	}
	if w.view.Current() == view.VoiceChat {
		w.voice.Resume()
	}
	return nil
}

// MicStart enters voice chat and starts listening.
func (w *Widget) MicStart() error {
	if err := w.view.MicStart(); err != nil {
		return err
	}
	w.voice.Resume()
	if err := w.speech.Start(); err != nil {
		logging.Voice("mic start: %v", err)
	}
	return nil
}

// ToggleListening starts or stops the recognizer. A failure is reported by
// the recognizer as an error mode and is also returned.
func (w *Widget) ToggleListening() error {
	return w.speech.Toggle()
}

// Dictate feeds typed text to a text-driven recognizer: interim text while
// typing and a final transcript on submit.
func (w *Widget) Dictate(text string, final bool) error {
	feeder, ok := w.speech.(speech.TextFeeder)
	if !ok {
		return speech.ErrUnavailable
	}
	if final {
		feeder.Say(text)
	} else {
		feeder.Hear(text)
	}
	return nil
}

// Keyboard leaves voice chat for typed chat.
func (w *Widget) Keyboard() error {
	if err := w.view.Keyboard(); err != nil {
		return err
	}
	w.speech.Stop()
	return nil
}

// SubmitFeedback records the feedback form and shows its confirmation.
func (w *Widget) SubmitFeedback(rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%d: %w", rating, ErrInvalidRating)
	}
	if err := w.view.SubmitFeedback(); err != nil {
		return err
	}
	w.mu.Lock()
	w.feedback = &Feedback{Rating: rating, Comment: strings.TrimSpace(comment)}
	w.mu.Unlock()
	logging.View("feedback submitted: %d", rating)
	w.publish(TopicView)
	return nil
}

func (w *Widget) newID() string {
	if w.opts.IDs != nil {
		return w.opts.IDs()
	}
	return chat.NewID()
}
