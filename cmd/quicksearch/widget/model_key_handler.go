package widget

import (
	"strings"

	"quicksearch/internal/view"

	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg processes all keyboard input for Update.
// Returns (model, cmd, handled) where handled=false means the key falls
// through to the input dock.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	st := m.snap.View

	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit, true
	}

	// Launcher
	if !st.Open {
		switch msg.String() {
		case "enter", " ", "o":
			m.session.Open()
			m.status = ""
			m.refresh()
		case "q":
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	// Global keybindings
	switch msg.Type {
	case tea.KeyEsc:
		m.session.Back()
		m.textarea.Reset()
		m.status = ""
		m.refresh()
		return m, nil, true

	case tea.KeyCtrlN:
		m.session.NewSearch()
		m.textarea.Reset()
		m.refresh()
		return m, nil, true

	case tea.KeyCtrlR:
		if !m.session.Retry() {
			m.status = "Nothing to retry"
		}
		m.refresh()
		return m, nil, true

	case tea.KeyCtrlT:
		var err error
		switch st.View {
		case view.Chips, view.Voice:
			err = m.session.MicStart()
		default:
			err = m.session.DockMic()
		}
		m.textarea.Reset()
		m.fail(err)
		return m, nil, true

	case tea.KeyCtrlL:
		m.fail(m.session.ToggleListening())
		return m, nil, true

	case tea.KeyCtrlK:
		m.textarea.Reset()
		m.fail(m.session.Keyboard())
		return m, nil, true

	case tea.KeyTab, tea.KeyShiftTab:
		m.toggleFocus()
		return m, nil, true

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}

	switch st.View {
	case view.Explain:
		if msg.Type == tea.KeyEnter {
			m.fail(m.session.Continue())
		}
		return m, nil, true

	case view.FeedbackFilled, view.ConnectionLost:
		if msg.Type == tea.KeyEnter {
			m.session.NewSearch()
			m.refresh()
		}
		return m, nil, true
	}

	if m.focus == FocusChoices {
		return m.handleChoiceKey(msg)
	}

	if msg.Type == tea.KeyEnter {
		m.submitInput()
		return m, nil, true
	}
	return m, nil, false
}

// toggleFocus switches between the input dock and the choices.
func (m *Model) toggleFocus() {
	switch {
	case m.focus == FocusInput && len(m.choices) > 0:
		m.focus = FocusChoices
		m.textarea.Blur()
	case m.focus == FocusChoices && m.hasInput():
		m.focus = FocusInput
		m.textarea.Focus()
	}
}

// handleChoiceKey navigates and activates chips and product cards.
func (m Model) handleChoiceKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "left", "up", "h":
		if m.selected > 0 {
			m.selected--
		}
	case "right", "down", "l":
		if m.selected < len(m.choices)-1 {
			m.selected++
		}
	case "enter", " ":
		m.activate()
	case "+", "=":
		m.changeQuantity(1)
	case "-", "_":
		m.changeQuantity(-1)
	case "f":
		if c, ok := m.current(); ok && c.kind == choiceProduct {
			_, err := m.session.ToggleFavorite(c.productID)
			m.fail(err)
		}
	case "d":
		if c, ok := m.current(); ok && c.kind == choiceProduct {
			_, err := m.session.ToggleDislike(c.productID)
			m.fail(err)
		}
	case "1", "2", "3", "4", "5":
		if m.snap.View.View == view.Feedback {
			m.rating = int(msg.Runes[0] - '0')
		}
	}
	m.viewport.SetContent(m.renderHistory())
	return m, nil, true
}

// activate performs the primary action of the selected choice.
func (m *Model) activate() {
	c, ok := m.current()
	if !ok {
		return
	}
	var err error
	switch c.kind {
	case choiceCategory:
		err = m.session.PickChip(c.label)
	case choiceSubchip:
		err = m.session.PickSubchip(c.label)
	case choiceAction:
		m.session.SelectAction(c.action)
	case choiceProduct:
		_, err = m.session.ChangeQuantity(c.productID, 1)
	case choiceShowMore:
		err = m.session.ExpandProducts(c.messageID)
	case choiceRetry:
		m.session.Retry()
	case choiceRating:
		m.rating = c.rating
		if m.hasInput() {
			m.focus = FocusInput
		}
	}
	m.fail(err)
}

func (m *Model) changeQuantity(delta int) {
	c, ok := m.current()
	if !ok || c.kind != choiceProduct {
		return
	}
	_, err := m.session.ChangeQuantity(c.productID, delta)
	m.fail(err)
}

// submitInput sends the input dock according to the current screen.
func (m *Model) submitInput() {
	text := strings.TrimSpace(m.textarea.Value())
	switch m.snap.View.View {
	case view.Chips, view.Category, view.Chat:
		m.session.SetDraft(text)
		if !m.session.SubmitDraft() {
			m.refresh()
			return
		}
	case view.VoiceChat:
		if err := m.session.Dictate(text, true); err != nil {
			m.fail(err)
			return
		}
	case view.Feedback:
		if err := m.session.SubmitFeedback(m.rating, text); err != nil {
			m.fail(err)
			return
		}
		m.rating = 0
	}
	m.textarea.Reset()
	m.status = ""
	m.refresh()
}
