package widget

import (
	"quicksearch/internal/logging"
	"quicksearch/internal/view"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmds  []tea.Cmd
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		next, cmd, handled := m.handleKeyMsg(msg)
		if handled {
			return next, cmd
		}
		m = next

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case widgetMsg:
		m.refresh()
		return m, m.waitForEvent()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.ready && m.busy() {
			m.viewport.SetContent(m.renderHistory())
		}
		return m, cmd
	}

	if m.focus == FocusInput && m.hasInput() {
		before := m.textarea.Value()
		m.textarea, tiCmd = m.textarea.Update(msg)
		if after := m.textarea.Value(); after != before {
			m.inputChanged(after)
		}
		cmds = append(cmds, tiCmd)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)

	return m, tea.Batch(cmds...)
}

// inputChanged mirrors the input dock into the session.
func (m *Model) inputChanged(text string) {
	switch m.snap.View.View {
	case view.VoiceChat:
		if err := m.session.Dictate(text, false); err != nil {
			m.status = err.Error()
		}
	case view.Chips, view.Category, view.Chat:
		m.session.SetDraft(text)
		m.refresh()
	}
}

// resize lays the components out for a new terminal size.
func (m *Model) resize(width, height int) {
	if width < minWidth {
		width = minWidth
	}
	m.width = width
	m.height = height

	inner := width - 4
	vpHeight := height - headerHeight - footerHeight - inputHeight - 4
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = inner
	m.viewport.Height = vpHeight
	m.textarea.SetWidth(inner - 2)
	m.renderer = newRenderer(m.styles, inner-4)

	m.ready = true
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
	logging.UI("resized to %dx%d", width, height)
}

// fail records a failed event and refreshes.
func (m *Model) fail(err error) {
	if err != nil {
		m.status = err.Error()
		logging.UI("event failed: %v", err)
	}
	m.refresh()
}
