package engine

import (
	"strings"
	"sync"
	"time"

	"quicksearch/internal/catalog"
	"quicksearch/internal/chat"
	"quicksearch/internal/logging"

	"github.com/benbjohnson/clock"
)

// ProductSource supplies the catalog the scenarios slice from.
type ProductSource interface {
	Products() []catalog.Product
}

// pendingQuery is one in-flight resolution.
type pendingQuery struct {
	query  string
	target chat.Target
	source chat.Source
	epoch  uint64
	timer  *clock.Timer
}

// Engine owns the pending-query table and processed set of one conversation
// session. It is safe for concurrent use.
type Engine struct {
	store    *chat.Store
	products ProductSource
	clock    clock.Clock
	delays   Delays
	newID    func() string

	onResolve func(loaderID string, s Scenario)

	mu        sync.Mutex
	pending   map[string]*pendingQuery
	processed map[string]struct{}
	epoch     uint64
	closed    bool
}

// New creates an engine writing into store.
func New(store *chat.Store, products ProductSource, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		products:  products,
		clock:     clock.New(),
		delays:    DefaultDelays(),
		newID:     chat.NewID,
		pending:   make(map[string]*pendingQuery),
		processed: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit appends the user entry and a loading placeholder, then schedules
// the placeholder's resolution. Blank input is ignored. It returns the
// placeholder id.
func (e *Engine) Submit(text string, source chat.Source) (string, bool) {
	q := strings.TrimSpace(text)
	if q == "" {
		return "", false
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", false
	}
	userID, loaderID := e.newID(), e.newID()
	target := TargetFor(q)
	e.pending[loaderID] = &pendingQuery{query: q, target: target, source: source, epoch: e.epoch}
	e.mu.Unlock()

	e.store.Append(
		chat.UserText{Header: chat.Header{ID: userID, Source: source}, Text: q},
		chat.Loading{Header: chat.Header{ID: loaderID, Source: source}, Target: target},
	)
	logging.Engine("submitted %q from %s (loader=%s target=%s)", q, source, loaderID, target)

	e.schedule(loaderID)
	return loaderID, true
}

// ScheduleLatest schedules the most recent loading entry in the store if it
// has not been scheduled yet. Repeated calls are harmless.
func (e *Engine) ScheduleLatest() bool {
	last := e.store.LastWhere(chat.OfKind(chat.KindLoading))
	if last == nil {
		return false
	}
	return e.schedule(last.MessageID())
}

// schedule arms the resolution timer for a pending placeholder at most once.
func (e *Engine) schedule(loaderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}
	if _, done := e.processed[loaderID]; done {
		return false
	}
	p, ok := e.pending[loaderID]
	if !ok {
		return false
	}
	e.processed[loaderID] = struct{}{}

	delay := e.delayFor(p)
	epoch := p.epoch
	p.timer = e.clock.AfterFunc(delay, func() { e.resolve(loaderID, epoch) })
	logging.EngineDebug("scheduled %s in %s", loaderID, delay)
	return true
}

func (e *Engine) delayFor(p *pendingQuery) time.Duration {
	if p.target == chat.TargetText {
		return e.delays.Text
	}
	if p.source == chat.SourceVoice {
		return e.delays.VoiceProducts
	}
	return e.delays.ChatProducts
}

// resolve runs on the timer. It acts only when the placeholder still belongs
// to the live conversation and is still present in the store.
func (e *Engine) resolve(loaderID string, epoch uint64) {
	log := logging.Get(logging.CategoryEngine).With("loader", loaderID)

	e.mu.Lock()
	p, ok := e.pending[loaderID]
	if !ok || p.epoch != epoch || e.epoch != epoch || e.closed {
		e.mu.Unlock()
		log.Debug("dropping stale resolution")
		return
	}
	delete(e.pending, loaderID)
	e.mu.Unlock()

	q := strings.ToLower(p.query)
	scenario := Classify(q)
	out := Build(scenario, loaderID, q, e.products.Products())

	if !e.store.Replace(loaderID, out...) {
		log.Debug("placeholder no longer in store")
		return
	}
	log.Info("resolved as %s (%d message(s))", scenario, len(out))

	if e.onResolve != nil {
		e.onResolve(loaderID, scenario)
	}
}

// Retry drops the last user entry and the last error entry, then re-submits
// that user text as a chat query.
func (e *Engine) Retry() bool {
	last := e.store.LastWhere(chat.OfKind(chat.KindUserText))
	if last == nil {
		return false
	}
	text := last.(chat.UserText).Text

	drop := []string{last.MessageID()}
	if errMsg := e.store.LastWhere(chat.OfKind(chat.KindError)); errMsg != nil {
		drop = append(drop, errMsg.MessageID())
	}
	e.store.RemoveIDs(drop...)
	logging.Engine("retrying %q", text)

	_, ok := e.Submit(text, chat.SourceChat)
	return ok
}

// Reset cancels every pending resolution and clears the store.
func (e *Engine) Reset() {
	e.cancelAll()
	e.store.Reset()
}

// Close cancels pending timers and refuses further submissions.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancelAll()
}

func (e *Engine) cancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.epoch++
	for id, p := range e.pending {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(e.pending, id)
	}
	logging.EngineDebug("cancelled pending resolutions, epoch=%d", e.epoch)
}

// Pending returns how many resolutions are in flight.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Processed reports whether a placeholder has already been scheduled.
func (e *Engine) Processed(loaderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.processed[loaderID]
	return ok
}
