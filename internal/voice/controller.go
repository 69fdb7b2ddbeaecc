// Package voice runs the scripted voice interview on top of the scenario
// engine: finalized transcripts either go straight to the engine or advance
// a fixed list of follow-up questions.
package voice

import (
	"context"
	"strings"
	"sync"
	"time"

	"quicksearch/internal/chat"
	"quicksearch/internal/engine"
	"quicksearch/internal/logging"
	"quicksearch/internal/speech"

	"github.com/benbjohnson/clock"
)

const (
	DefaultGreeting    = "Hello, what are you looking for today?"
	ProcessingHeadline = "Processing your request…"
	NoInputPrompt      = "Couldn’t hear you. Please try again."
	ErrorPrompt        = "Voice input is not available right now. Tap the mic to try again."
)

// DefaultQuestions is the stock interview.
var DefaultQuestions = []string{
	"Question 1: Do you prefer cream or gel?",
	"Question 2: Any allergies?",
	"Question 3: Do you shop online or in store?",
}

// Config holds the interview script and its timings.
type Config struct {
	Greeting        string
	Questions       []string
	GenerateDelay   time.Duration
	ProcessingDelay time.Duration
}

// DefaultConfig returns the stock script.
func DefaultConfig() Config {
	return Config{
		Greeting:        DefaultGreeting,
		Questions:       append([]string(nil), DefaultQuestions...),
		GenerateDelay:   2 * time.Second,
		ProcessingDelay: 3 * time.Second,
	}
}

// Submitter forwards queries to the scenario engine.
type Submitter interface {
	Submit(text string, source chat.Source) (string, bool)
}

// State is what the voice screen renders.
type State struct {
	Step       int
	Headline   string
	Generating bool
	Interim    string
	Mode       speech.Mode
	NoInput    bool
	Failed     bool
}

// Prompt returns the soft prompt to show instead of the headline, if any.
func (s State) Prompt() string {
	switch {
	case s.Failed:
		return ErrorPrompt
	case s.NoInput:
		return NoInputPrompt
	}
	return ""
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the clock reply delays run on.
func WithClock(c clock.Clock) Option { return func(v *Controller) { v.clock = c } }

// WithIDGenerator overrides message id minting.
func WithIDGenerator(fn func() string) Option { return func(v *Controller) { v.newID = fn } }

// Controller is the voice turn controller. It is safe for concurrent use.
type Controller struct {
	store  *chat.Store
	engine Submitter
	cfg    Config
	clock  clock.Clock
	newID  func() string

	mu           sync.Mutex
	state        State
	hadListening bool
	heard        bool
	timer        *clock.Timer
	gen          uint64

	notifyMu  sync.Mutex
	observers []func(State)
}

// New creates a controller positioned at the greeting.
func New(store *chat.Store, submitter Submitter, cfg Config, opts ...Option) *Controller {
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	v := &Controller{
		store:  store,
		engine: submitter,
		cfg:    cfg,
		clock:  clock.New(),
		newID:  chat.NewID,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.state = v.initial()
	return v
}

func (v *Controller) initial() State {
	return State{Headline: v.cfg.Greeting, Mode: speech.ModeIdle}
}

// Subscribe registers an observer notified after every state change.
func (v *Controller) Subscribe(fn func(State)) {
	v.notifyMu.Lock()
	v.observers = append(v.observers, fn)
	v.notifyMu.Unlock()
}

func (v *Controller) commit(before State) {
	after := v.state
	if after == before {
		v.mu.Unlock()
		return
	}
	v.notifyMu.Lock()
	v.mu.Unlock()
	defer v.notifyMu.Unlock()
	for _, fn := range v.observers {
		fn(after)
	}
}

// State returns a snapshot.
func (v *Controller) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Questions returns the interview length.
func (v *Controller) Questions() int { return len(v.cfg.Questions) }

// Resume positions the interview after the last scripted question found as
// the newest assistant text, or at the greeting when there is none.
func (v *Controller) Resume() {
	last := v.store.LastWhere(chat.OfKind(chat.KindAssistantText))

	v.mu.Lock()
	before := v.state
	v.state.Step = 0
	v.state.Headline = v.cfg.Greeting
	v.state.NoInput = false
	v.state.Failed = false
	v.state.Interim = ""
	if last != nil {
		text := last.(chat.AssistantText).Text
		for i, q := range v.cfg.Questions {
			if q == text {
				v.state.Step = i + 1
				v.state.Headline = q
				break
			}
		}
	}
	logging.Voice("resume at step %d", v.state.Step)
	v.commit(before)
}

// Handle dispatches one recognizer event.
func (v *Controller) Handle(ev speech.Event) {
	switch ev.Kind {
	case speech.EventModeChanged:
		v.HandleMode(ev.Mode)
	case speech.EventInterim:
		v.HandleInterim(ev.Text)
	case speech.EventFinal:
		v.HandleFinal(ev.Text)
	}
}

// Consume handles events until the stream closes or ctx is done.
func (v *Controller) Consume(ctx context.Context, events <-chan speech.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			v.Handle(ev)
		}
	}
}

// HandleMode tracks the recognizer mode. Listening that stops without any
// transcript raises the no-input prompt; an error raises the retry prompt.
func (v *Controller) HandleMode(m speech.Mode) {
	v.mu.Lock()
	before := v.state
	v.state.Mode = m
	switch m {
	case speech.ModeListening:
		v.hadListening = true
		v.heard = false
		v.state.NoInput = false
		v.state.Failed = false
	case speech.ModeIdle:
		if v.hadListening && !v.heard {
			v.state.NoInput = true
			logging.VoiceDebug("listening ended without input")
		}
		v.hadListening = false
	case speech.ModeError:
		v.hadListening = false
		v.state.Failed = true
		v.state.NoInput = false
		logging.Voice("speech capability failed")
	}
	v.commit(before)
}

// HandleInterim shows the live transcript.
func (v *Controller) HandleInterim(text string) {
	v.mu.Lock()
	before := v.state
	v.state.Interim = text
	if strings.TrimSpace(text) != "" {
		v.heard = true
		v.state.NoInput = false
	}
	v.commit(before)
}

// HandleFinal processes one finalized transcript.
func (v *Controller) HandleFinal(text string) {
	q := strings.TrimSpace(text)

	v.mu.Lock()
	before := v.state
	v.state.NoInput = false
	if q != "" {
		v.heard = true
		v.state.Interim = ""
	}
	interviewing := v.state.Step < len(v.cfg.Questions)
	v.commit(before)

	switch {
	case q == "":
		return
	case engine.HasKeyword(q):
		logging.Voice("keyword transcript %q goes to the engine", q)
		v.engine.Submit(q, chat.SourceVoice)
	case interviewing:
		v.answer(q)
	default:
		v.process(q)
	}
}

// answer records the transcript and schedules the next scripted question.
// An answer arriving before the question is asked re-arms the same step.
func (v *Controller) answer(text string) {
	userID := v.newID()
	v.store.Append(chat.UserText{Header: chat.Header{ID: userID, Source: chat.SourceVoice}, Text: text})

	v.mu.Lock()
	before := v.state
	step := v.state.Step
	if step >= len(v.cfg.Questions) {
		step = len(v.cfg.Questions) - 1
	}
	question := v.cfg.Questions[step]
	v.state.Generating = true

	v.armLocked(v.cfg.GenerateDelay, func() func() {
		v.state.Generating = false
		// the conversation was reset while the reply was being generated
		if !v.store.Contains(userID) {
			return nil
		}
		v.state.Headline = question
		v.state.Step = step + 1
		return func() {
			v.store.Append(chat.AssistantText{Header: chat.Header{ID: v.newID(), Source: chat.SourceVoice}, Text: question})
			logging.Voice("asked question %d", step+1)
		}
	})
	v.commit(before)
}

// process hands a post-interview transcript to the engine and restarts the
// interview.
func (v *Controller) process(text string) {
	v.mu.Lock()
	before := v.state
	v.state.Headline = ProcessingHeadline
	v.state.Step = 0
	v.state.Generating = true
	v.armLocked(v.cfg.ProcessingDelay, func() func() {
		v.state.Generating = false
		return nil
	})
	v.commit(before)

	logging.Voice("interview complete, submitting %q", text)
	v.engine.Submit(text, chat.SourceVoice)
}

// armLocked replaces the pending reply timer. On fire, update runs under the
// lock if the timer is still current; the function it returns, if any, runs
// after the lock is released.
func (v *Controller) armLocked(d time.Duration, update func() func()) {
	if v.timer != nil {
		v.timer.Stop()
	}
	v.gen++
	gen := v.gen
	v.timer = v.clock.AfterFunc(d, func() {
		v.mu.Lock()
		if gen != v.gen {
			v.mu.Unlock()
			return
		}
		before := v.state
		v.timer = nil
		after := update()
		v.commit(before)
		if after != nil {
			after()
		}
	})
}

// Reset cancels pending replies and returns to the greeting.
func (v *Controller) Reset() {
	v.mu.Lock()
	before := v.state
	v.cancelLocked()
	v.hadListening = false
	v.heard = false
	v.state = v.initial()
	v.commit(before)
}

// Close cancels pending replies.
func (v *Controller) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cancelLocked()
}

func (v *Controller) cancelLocked() {
	v.gen++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}
