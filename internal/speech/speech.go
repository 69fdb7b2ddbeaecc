// Package speech models the speech-to-text capability as a stream of events:
// mode changes, interim transcripts and final transcripts.
package speech

import "errors"

// ErrUnavailable is returned when no recognizer can be started.
var ErrUnavailable = errors.New("speech recognition unavailable")

// Mode is the recognizer state.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeListening Mode = "listening"
	ModeError     Mode = "error"
)

// EventKind discriminates events.
type EventKind int

const (
	EventModeChanged EventKind = iota
	EventInterim
	EventFinal
)

func (k EventKind) String() string {
	switch k {
	case EventModeChanged:
		return "mode"
	case EventInterim:
		return "interim"
	case EventFinal:
		return "final"
	}
	return "unknown"
}

// Event is one item of the recognizer stream. Text is set for interim and
// final events, Mode for mode changes.
type Event struct {
	Kind EventKind
	Text string
	Mode Mode
}

// Recognizer is a speech-to-text capability.
type Recognizer interface {
	// Start begins listening. A failure moves the recognizer to ModeError.
	Start() error
	// Stop ends listening and returns to ModeIdle.
	Stop()
	// Toggle starts when idle or errored and stops when listening.
	Toggle() error
	Mode() Mode
	Events() <-chan Event
	Close()
}

// TextFeeder is implemented by recognizers that accept typed text in place
// of audio.
type TextFeeder interface {
	// Hear delivers an interim transcript.
	Hear(text string)
	// Say delivers a final transcript.
	Say(text string)
}
