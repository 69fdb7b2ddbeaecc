package view

import (
	"errors"
	"testing"

	"quicksearch/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPrefs struct {
	done   bool
	writes int
	err    error
}

func (p *memPrefs) IsOnboardingComplete() bool { return p.done }

func (p *memPrefs) MarkOnboardingComplete() error {
	p.writes++
	if p.err != nil {
		return p.err
	}
	p.done = true
	return nil
}

func assistant(id string) chat.Message {
	return chat.AssistantText{Header: chat.Header{ID: id}, Text: "hi"}
}

func TestInitialViewFollowsOnboardingFlag(t *testing.T) {
	assert.Equal(t, Explain, New(&memPrefs{}).Current())
	assert.Equal(t, Chips, New(&memPrefs{done: true}).Current())
	assert.Equal(t, Explain, New(nil).Current())
}

func TestContinuePersistsOnce(t *testing.T) {
	prefs := &memPrefs{}
	m := New(prefs)

	require.NoError(t, m.Continue())
	assert.Equal(t, Chips, m.Current())
	assert.True(t, m.State().Onboarded)
	assert.Equal(t, 1, prefs.writes)

	err := m.Continue()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, prefs.writes)
}

func TestContinueSurvivesPersistFailure(t *testing.T) {
	m := New(&memPrefs{err: errors.New("disk full")})
	require.NoError(t, m.Continue())
	assert.Equal(t, Chips, m.Current())
}

func TestCategoryThenSubchip(t *testing.T) {
	m := New(&memPrefs{done: true})
	m.Open(false)

	require.NoError(t, m.PickCategory("Shipping & delivery"))
	s := m.State()
	assert.Equal(t, Category, s.View)
	assert.Equal(t, "Shipping & delivery", s.Category)
	assert.True(t, s.ShowSubchips)

	require.NoError(t, m.PickSubchip())
	s = m.State()
	assert.Equal(t, Chat, s.View)
	assert.False(t, s.ShowSubchips)

	assert.ErrorIs(t, m.PickSubchip(), ErrInvalidTransition)
	assert.ErrorIs(t, m.PickCategory("Payment"), ErrInvalidTransition)
}

func TestSubmittedSwitchesToChat(t *testing.T) {
	m := New(&memPrefs{done: true})
	m.SetDraft("three apples")
	assert.Equal(t, "three apples", m.State().Draft)

	m.Submitted()
	assert.Equal(t, Chat, m.Current())
	assert.Empty(t, m.State().Draft)
}

func TestVoiceTransitions(t *testing.T) {
	m := New(&memPrefs{done: true})

	require.NoError(t, m.DockMic(false))
	assert.Equal(t, Voice, m.Current())

	require.NoError(t, m.MicStart())
	assert.Equal(t, VoiceChat, m.Current())
	assert.True(t, m.State().AutoStart)

	require.NoError(t, m.Keyboard())
	assert.Equal(t, Chat, m.Current())

	require.NoError(t, m.DockMic(true))
	assert.Equal(t, VoiceChat, m.Current())
	assert.False(t, m.State().AutoStart)

	assert.ErrorIs(t, m.MicStart(), ErrInvalidTransition)
	assert.ErrorIs(t, m.DockMic(true), ErrInvalidTransition, "voice chat has no input dock")
}

func TestVoiceScreenChipPick(t *testing.T) {
	m := New(&memPrefs{done: true})
	require.NoError(t, m.DockMic(false))
	require.NoError(t, m.PickCategory("Payment"))
	assert.Equal(t, Category, m.Current())
}

func TestObserveForcesSpecialViews(t *testing.T) {
	m := New(&memPrefs{done: true})
	m.Open(false)
	m.Submitted()
	require.NoError(t, m.DockMic(true))
	require.Equal(t, VoiceChat, m.Current())

	m.Observe(chat.ConnectionLost{Header: chat.Header{ID: "L-connection"}})
	assert.Equal(t, ConnectionLost, m.Current())

	m.Reset()
	m.Observe(chat.Feedback{Header: chat.Header{ID: "L-feedback"}})
	assert.Equal(t, Feedback, m.Current())

	require.NoError(t, m.SubmitFeedback())
	assert.Equal(t, FeedbackFilled, m.Current())
	assert.ErrorIs(t, m.SubmitFeedback(), ErrInvalidTransition)
}

func TestUnreadBadge(t *testing.T) {
	m := New(&memPrefs{done: true})

	m.Observe(chat.UserText{Header: chat.Header{ID: "u"}, Text: "hi"})
	assert.False(t, m.State().Unread, "user messages never set the badge")

	m.Observe(assistant("a"))
	assert.True(t, m.State().Unread)

	m.Open(true)
	assert.False(t, m.State().Unread)

	m.Observe(assistant("b"))
	assert.False(t, m.State().Unread, "modal is open")
}

func TestBackResetsOrCloses(t *testing.T) {
	for _, v := range All {
		t.Run(string(v), func(t *testing.T) {
			m := New(&memPrefs{done: true})
			m.Open(false)
			m.mu.Lock()
			m.state.View = v
			m.state.Category = "Payment"
			m.state.Draft = "draft"
			m.mu.Unlock()

			got := m.Back()
			s := m.State()
			if resetsOnBack[v] {
				assert.Equal(t, BackReset, got)
				assert.Equal(t, Chips, s.View)
				assert.Empty(t, s.Category)
				assert.Empty(t, s.Draft)
				assert.True(t, s.Open)
			} else {
				assert.Equal(t, BackClosed, got)
				assert.Equal(t, v, s.View)
				assert.False(t, s.Open)
			}
		})
	}
}

func TestOpenReevaluatesLandingOnlyWithoutConversation(t *testing.T) {
	prefs := &memPrefs{}
	m := New(prefs)
	require.NoError(t, m.Continue())
	m.Submitted()
	m.Close()

	m.Open(true)
	assert.Equal(t, Chat, m.Current())

	m.Close()
	m.Open(false)
	assert.Equal(t, Chips, m.Current())
}

func TestObserversSeeChanges(t *testing.T) {
	m := New(&memPrefs{done: true})
	var views []View
	m.Subscribe(func(s State) { views = append(views, s.View) })

	m.Open(false)
	m.Submitted()
	m.Submitted()
	m.Back()

	assert.Equal(t, []View{Chips, Chat, Chips}, views)
}

func TestViewHelpers(t *testing.T) {
	assert.True(t, Chat.HasInputDock())
	assert.False(t, VoiceChat.HasInputDock())
	assert.Equal(t, "How to use Quick Search", Explain.Title())
	assert.Empty(t, Chat.Title())
}
