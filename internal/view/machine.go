package view

import (
	"fmt"
	"sync"

	"quicksearch/internal/chat"
	"quicksearch/internal/logging"
)

// OnboardingStore persists the "has completed onboarding" flag.
type OnboardingStore interface {
	IsOnboardingComplete() bool
	MarkOnboardingComplete() error
}

// Machine is the view state machine. It is safe for concurrent use.
type Machine struct {
	prefs OnboardingStore

	mu    sync.Mutex
	state State

	notifyMu  sync.Mutex
	observers []func(State)
}

// New creates a machine whose initial view depends on the onboarding flag.
// A nil store behaves as never onboarded and persists nothing.
func New(prefs OnboardingStore) *Machine {
	m := &Machine{prefs: prefs}
	m.state.Onboarded = prefs != nil && prefs.IsOnboardingComplete()
	m.state.View = m.landing()
	return m
}

func (m *Machine) landing() View {
	if m.state.Onboarded {
		return Chips
	}
	return Explain
}

// Subscribe registers an observer notified after every state change.
func (m *Machine) Subscribe(fn func(State)) {
	m.notifyMu.Lock()
	m.observers = append(m.observers, fn)
	m.notifyMu.Unlock()
}

// commit releases m.mu and notifies observers when the state changed.
func (m *Machine) commit(before State) {
	after := m.state
	if after == before {
		m.mu.Unlock()
		return
	}
	if after.View != before.View {
		logging.View("%s -> %s", before.View, after.View)
	}
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()
	for _, fn := range m.observers {
		fn(after)
	}
}

func (m *Machine) reject(event string) error {
	v := m.state.View
	m.mu.Unlock()
	logging.ViewWarn("%s rejected in %s", event, v)
	return fmt.Errorf("%s from %s: %w", event, v, ErrInvalidTransition)
}

// State returns a snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the active view.
func (m *Machine) Current() View {
	return m.State().View
}

// Open shows the modal and clears the unread badge. Without a conversation
// the landing view is re-evaluated; otherwise the current view is kept.
func (m *Machine) Open(hasConversation bool) {
	m.mu.Lock()
	before := m.state
	m.state.Open = true
	m.state.Unread = false
	if !hasConversation {
		m.state.View = m.landing()
	}
	m.commit(before)
}

// Close hides the modal, keeping everything else.
func (m *Machine) Close() {
	m.mu.Lock()
	before := m.state
	m.state.Open = false
	m.commit(before)
}

// Continue leaves the explainer and records onboarding as done.
func (m *Machine) Continue() error {
	m.mu.Lock()
	if m.state.View != Explain {
		return m.reject("continue")
	}
	before := m.state
	if !m.state.Onboarded && m.prefs != nil {
		if err := m.prefs.MarkOnboardingComplete(); err != nil {
			logging.ViewWarn("failed to persist onboarding flag: %v", err)
		}
	}
	m.state.Onboarded = true
	m.state.View = Chips
	m.commit(before)
	return nil
}

// PickCategory selects a top-level chip and shows its subchips.
func (m *Machine) PickCategory(name string) error {
	m.mu.Lock()
	switch m.state.View {
	case Chips, Voice:
	default:
		return m.reject("pick category")
	}
	before := m.state
	m.state.Category = name
	m.state.ShowSubchips = true
	m.state.View = Category
	m.commit(before)
	return nil
}

// PickSubchip hides the subchip panel and moves to chat.
func (m *Machine) PickSubchip() error {
	m.mu.Lock()
	if m.state.View != Category || !m.state.ShowSubchips {
		return m.reject("pick subchip")
	}
	before := m.state
	m.state.ShowSubchips = false
	m.state.View = Chat
	m.commit(before)
	return nil
}

// SetDraft stores the text being typed in the input dock.
func (m *Machine) SetDraft(text string) {
	m.mu.Lock()
	before := m.state
	m.state.Draft = text
	m.commit(before)
}

// Submitted records a free-text submission: the draft is cleared and the
// machine switches to chat.
func (m *Machine) Submitted() {
	m.mu.Lock()
	before := m.state
	m.state.Draft = ""
	m.state.ShowSubchips = false
	m.state.View = Chat
	m.commit(before)
}

// DockMic handles the input dock microphone: an empty conversation opens the
// voice landing screen, otherwise voice chat opens without listening.
func (m *Machine) DockMic(hasConversation bool) error {
	m.mu.Lock()
	if !m.state.View.HasInputDock() {
		return m.reject("dock mic")
	}
	before := m.state
	if hasConversation {
		m.state.View = VoiceChat
		m.state.AutoStart = false
	} else {
		m.state.View = Voice
	}
	m.commit(before)
	return nil
}

// MicStart enters voice chat and asks it to start listening.
func (m *Machine) MicStart() error {
	m.mu.Lock()
	switch m.state.View {
	case Chips, Voice:
	default:
		return m.reject("mic start")
	}
	before := m.state
	m.state.View = VoiceChat
	m.state.AutoStart = true
	m.commit(before)
	return nil
}

// Keyboard leaves voice chat for the typed chat.
func (m *Machine) Keyboard() error {
	m.mu.Lock()
	if m.state.View != VoiceChat {
		return m.reject("keyboard")
	}
	before := m.state
	m.state.View = Chat
	m.state.AutoStart = false
	m.commit(before)
	return nil
}

// SubmitFeedback moves from the feedback form to its confirmation.
func (m *Machine) SubmitFeedback() error {
	m.mu.Lock()
	if m.state.View != Feedback {
		return m.reject("submit feedback")
	}
	before := m.state
	m.state.View = FeedbackFilled
	m.commit(before)
	return nil
}

// Observe reacts to the newest message of the conversation. Assistant
// messages arriving while the modal is closed set the unread badge, and
// feedback or connection-lost messages force their view.
func (m *Machine) Observe(last chat.Message) {
	if last == nil {
		return
	}
	m.mu.Lock()
	before := m.state
	if chat.IsAssistant(last) && !m.state.Open {
		m.state.Unread = true
	}
	switch last.Kind() {
	case chat.KindFeedback:
		m.state.View = Feedback
	case chat.KindConnectionLost:
		m.state.View = ConnectionLost
	}
	m.commit(before)
}

// Back resets the conversation from the conversational views and closes
// the modal from everywhere else.
func (m *Machine) Back() BackResult {
	m.mu.Lock()
	before := m.state
	if resetsOnBack[m.state.View] {
		m.resetLocked()
		m.commit(before)
		return BackReset
	}
	m.state.Open = false
	m.commit(before)
	return BackClosed
}

// Reset returns to chips and clears the category, subchip flag and draft.
func (m *Machine) Reset() {
	m.mu.Lock()
	before := m.state
	m.resetLocked()
	m.commit(before)
}

func (m *Machine) resetLocked() {
	m.state.View = Chips
	m.state.Category = ""
	m.state.ShowSubchips = false
	m.state.Draft = ""
	m.state.AutoStart = false
}
