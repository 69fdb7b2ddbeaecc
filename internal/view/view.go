// Package view is the top-level navigation state machine of the widget: which
// screen is active, whether the modal is open, and the unread badge.
package view

import "errors"

// ErrInvalidTransition is returned when an event is not accepted in the
// current view. State is left unchanged.
var ErrInvalidTransition = errors.New("invalid view transition")

// View is the active screen.
type View string

const (
	Explain        View = "explain"
	Chips          View = "chips"
	Category       View = "category"
	Chat           View = "chat"
	Voice          View = "voice"
	VoiceChat      View = "voicechat"
	Feedback       View = "feedback"
	FeedbackFilled View = "feedback-filled"
	ConnectionLost View = "connection-lost"
)

// All lists every view.
var All = []View{Explain, Chips, Category, Chat, Voice, VoiceChat, Feedback, FeedbackFilled, ConnectionLost}

// resetsOnBack are the views where back discards the conversation.
var resetsOnBack = map[View]bool{
	Chat:           true,
	Category:       true,
	Feedback:       true,
	FeedbackFilled: true,
	ConnectionLost: true,
	Voice:          true,
	VoiceChat:      true,
}

// HasInputDock reports whether the view shows the free-text input dock.
func (v View) HasInputDock() bool {
	switch v {
	case Chips, Category, Chat:
		return true
	}
	return false
}

// Title is the modal headline for the view, empty when none is shown.
func (v View) Title() string {
	switch v {
	case Explain:
		return "How to use Quick Search"
	case Chips, Voice:
		return "Hello, what are you looking for today?"
	}
	return ""
}

// BackResult says what Back did.
type BackResult int

const (
	// BackClosed means the modal was closed and the conversation kept.
	BackClosed BackResult = iota
	// BackReset means the conversation must be cleared; the machine is
	// already back on Chips.
	BackReset
)

// State is a snapshot of the machine.
type State struct {
	View         View
	Open         bool
	Unread       bool
	Onboarded    bool
	Category     string
	ShowSubchips bool
	Draft        string
	// AutoStart asks the voice chat screen to start listening on entry.
	AutoStart bool
}
