package speech

import (
	"strings"
	"sync"
	"time"

	"quicksearch/internal/logging"

	"github.com/benbjohnson/clock"
)

// DefaultSilenceTimeout stops listening after this long without input.
const DefaultSilenceTimeout = 4 * time.Second

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithClock sets the clock the silence timer runs on.
func WithClock(c clock.Clock) SimulatorOption {
	return func(s *Simulator) { s.clock = c }
}

// WithSilenceTimeout sets the silence window.
func WithSilenceTimeout(d time.Duration) SimulatorOption {
	return func(s *Simulator) { s.silence = d }
}

// Unavailable makes every Start fail with ErrUnavailable.
func Unavailable() SimulatorOption {
	return func(s *Simulator) { s.unavailable = true }
}

// WithBuffer sets the event channel capacity.
func WithBuffer(n int) SimulatorOption {
	return func(s *Simulator) { s.buffer = n }
}

// Simulator is a Recognizer fed with text instead of audio. Interim text
// arrives through Hear and a finished utterance through Say.
type Simulator struct {
	clock       clock.Clock
	silence     time.Duration
	unavailable bool
	buffer      int

	mu      sync.Mutex
	mode    Mode
	interim string
	stopper *Debouncer

	sendMu    sync.RWMutex
	closeOnce sync.Once
	closed    bool
	done      chan struct{}
	events    chan Event
}

var (
	_ Recognizer = (*Simulator)(nil)
	_ TextFeeder = (*Simulator)(nil)
)

// NewSimulator creates an idle simulator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		clock:   clock.New(),
		silence: DefaultSilenceTimeout,
		buffer:  64,
		mode:    ModeIdle,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan Event, s.buffer)
	s.stopper = NewDebouncer(s.clock, s.silence)
	return s
}

// Events returns the event stream. It is closed by Close.
func (s *Simulator) Events() <-chan Event { return s.events }

// Mode returns the current mode.
func (s *Simulator) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Interim returns the live interim transcript.
func (s *Simulator) Interim() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interim
}

// Start begins listening.
func (s *Simulator) Start() error {
	s.mu.Lock()
	if s.unavailable {
		changed := s.setModeLocked(ModeError)
		s.mu.Unlock()
		if changed {
			s.emit(Event{Kind: EventModeChanged, Mode: ModeError})
		}
		logging.Speech("start failed: %v", ErrUnavailable)
		return ErrUnavailable
	}
	s.interim = ""
	changed := s.setModeLocked(ModeListening)
	s.mu.Unlock()

	s.stopper.Debounce(s.silenceElapsed)
	if changed {
		s.emit(Event{Kind: EventModeChanged, Mode: ModeListening})
	}
	return nil
}

// Stop ends listening.
func (s *Simulator) Stop() {
	s.stopper.Cancel()
	s.mu.Lock()
	s.interim = ""
	changed := s.setModeLocked(ModeIdle)
	s.mu.Unlock()
	if changed {
		s.emit(Event{Kind: EventModeChanged, Mode: ModeIdle})
	}
}

// Toggle starts or stops listening.
func (s *Simulator) Toggle() error {
	if s.Mode() == ModeListening {
		s.Stop()
		return nil
	}
	return s.Start()
}

func (s *Simulator) silenceElapsed() {
	logging.SpeechDebug("silence timeout, stopping")
	s.Stop()
}

// Hear delivers an interim transcript. Ignored unless listening.
func (s *Simulator) Hear(text string) {
	s.mu.Lock()
	if s.mode != ModeListening {
		s.mu.Unlock()
		return
	}
	s.interim = text
	s.mu.Unlock()

	s.stopper.Debounce(s.silenceElapsed)
	s.emit(Event{Kind: EventInterim, Text: text})
}

// Say delivers a final transcript. Blank text only counts as activity.
func (s *Simulator) Say(text string) {
	s.mu.Lock()
	if s.mode != ModeListening {
		s.mu.Unlock()
		return
	}
	s.interim = ""
	s.mu.Unlock()

	s.stopper.Debounce(s.silenceElapsed)
	if strings.TrimSpace(text) == "" {
		return
	}
	logging.SpeechDebug("final transcript %q", text)
	s.emit(Event{Kind: EventFinal, Text: text})
}

// Fail simulates a recognizer error while listening.
func (s *Simulator) Fail() {
	s.stopper.Cancel()
	s.mu.Lock()
	s.interim = ""
	changed := s.setModeLocked(ModeError)
	s.mu.Unlock()
	if changed {
		s.emit(Event{Kind: EventModeChanged, Mode: ModeError})
	}
}

func (s *Simulator) setModeLocked(m Mode) bool {
	if s.mode == m {
		return false
	}
	logging.Speech("mode %s -> %s", s.mode, m)
	s.mode = m
	return true
}

func (s *Simulator) emit(ev Event) {
	s.sendMu.RLock()
	defer s.sendMu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// Close stops listening and closes the event stream.
func (s *Simulator) Close() {
	s.stopper.Cancel()
	s.closeOnce.Do(func() {
		// unblocks emitters waiting on a full buffer
		close(s.done)
		s.sendMu.Lock()
		s.closed = true
		close(s.events)
		s.sendMu.Unlock()
	})
}
