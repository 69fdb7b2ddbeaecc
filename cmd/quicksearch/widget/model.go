package widget

import (
	"quicksearch/cmd/quicksearch/ui"
	"quicksearch/internal/assistant"
	"quicksearch/internal/chat"
	"quicksearch/internal/config"
	"quicksearch/internal/view"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	eventBuffer  = 64
	inputHeight  = 2
	headerHeight = 3
	footerHeight = 2
	minWidth     = 40
)

// New builds the model for a session. The session must outlive the program.
func New(session *assistant.Widget, theme config.Theme) Model {
	styles := ui.NewStyles(ui.ThemeFor(theme))

	ta := textarea.New()
	ta.Placeholder = "Type what you are looking for..."
	ta.ShowLineNumbers = false
	ta.SetHeight(inputHeight)
	ta.SetWidth(80)
	ta.CharLimit = 500
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Model{
		session:  session,
		events:   make(chan tea.Msg, eventBuffer),
		textarea: ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		styles:   styles,
		renderer: newRenderer(styles, 80),
		focus:    FocusInput,
	}

	// Timer callbacks fire on their own goroutines; hand them to the program
	// through the event channel without blocking the session.
	events := m.events
	session.Subscribe(func(t assistant.Topic) {
		select {
		case events <- widgetMsg(t):
		default:
		}
	})

	m.refresh()
	return m
}

func newRenderer(styles ui.Styles, width int) *glamour.TermRenderer {
	style := glamour.WithStylePath("light")
	if styles.Theme.IsDark {
		style = glamour.WithStylePath("dark")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}
	return r
}

// Init starts the event bridge and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.spinner.Tick, textarea.Blink)
}

// waitForEvent listens for session changes.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// refresh re-reads the session and rebuilds everything derived from it.
func (m *Model) refresh() {
	var prevKey string
	if m.selected >= 0 && m.selected < len(m.choices) {
		prevKey = m.choices[m.selected].key()
	}

	prevView, wasOpen := m.snap.View.View, m.snap.View.Open
	m.snap = m.session.Snapshot()
	m.choices = m.buildChoices()
	m.selected = 0
	for i, c := range m.choices {
		if c.key() == prevKey {
			m.selected = i
			break
		}
	}

	switch {
	case !m.hasInput():
		m.focus = FocusChoices
	case m.snap.View.View != prevView || !wasOpen:
		m.focus = FocusInput
	}
	if m.focus == FocusInput {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}

	if m.ready {
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
	}
}

// hasInput reports whether the current screen shows a text input.
func (m Model) hasInput() bool {
	switch v := m.snap.View.View; {
	case !m.snap.View.Open:
		return false
	case v.HasInputDock(), v == view.VoiceChat, v == view.Feedback:
		return true
	}
	return false
}

// busy reports whether something is still being generated.
func (m Model) busy() bool {
	if m.snap.Voice.Generating {
		return true
	}
	for _, msg := range m.snap.Messages {
		if msg.Kind() == chat.KindLoading {
			return true
		}
	}
	return false
}

// Snapshot returns the last session state the model rendered.
func (m Model) Snapshot() assistant.Snapshot { return m.snap }

// Focused returns which area receives key presses.
func (m Model) Focused() Focus { return m.focus }
