package widget

import (
	"fmt"
	"strings"

	"quicksearch/internal/cart"
	"quicksearch/internal/chat"
	"quicksearch/internal/engine"
	"quicksearch/internal/speech"
	"quicksearch/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// safeRenderMarkdown wraps glamour rendering with panic recovery.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return strings.TrimSpace(rendered)
		}
	}
	return content
}

// View renders the widget.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if !m.snap.View.Open {
		return m.renderLauncher()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	if toasts := m.renderToasts(); toasts != "" {
		b.WriteString(toasts)
		b.WriteString("\n")
	}
	if m.hasInput() {
		b.WriteString(m.styles.Prompt.Render(m.textarea.View()))
		b.WriteString("\n")
	}
	b.WriteString(m.renderFooter())

	return m.styles.Modal.Width(m.width - 2).Render(b.String())
}

func (m Model) renderLauncher() string {
	label := "🛍  Quick Search"
	if m.snap.View.Unread {
		label += " " + m.styles.Badge.Render("●")
	}
	return m.styles.Launcher.Render(label) + "\n" +
		m.styles.Muted.Render("enter: open • q: quit")
}

func (m Model) renderHeader() string {
	title := m.snap.View.View.Title()
	if title == "" {
		title = "Quick Search"
	}
	left := m.styles.Title.Render(title)
	right := m.styles.Badge.Render(fmt.Sprintf("🛒 %d", m.snap.Cart.Count))

	gap := m.width - 6 - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.styles.Header.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderBody() string {
	switch m.snap.View.View {
	case view.Explain:
		return m.renderExplain()
	case view.Chips:
		return m.renderChips("", m.choices)
	case view.Voice:
		return m.renderChips(m.styles.Muted.Render("ctrl+t: talk to the assistant"), m.choices)
	case view.VoiceChat:
		return m.renderVoiceChat()
	case view.Feedback:
		return m.renderFeedback()
	case view.FeedbackFilled:
		return m.styles.Success.Render("Thank you!") + "\n" +
			m.styles.Subtitle.Render("We got your feedback") + "\n" +
			m.styles.Muted.Render("What would you like to find next? (enter)")
	case view.ConnectionLost:
		return m.styles.Warning.Render("A-oh, we lost a connection :(") + "\n" +
			m.styles.Muted.Render("Check your internet and try to refresh the page. (enter)")
	}
	return m.viewport.View()
}

func (m Model) renderExplain() string {
	items := [][2]string{
		{"Find perfect product", "Explain what you're looking for just like you would to a store assistant"},
		{"Voice chat", "Choose voice mode and have a natural back-and-forth conversation"},
		{"Get instant answers", "Fast help with anything from tracking your order to receiving a consultation"},
	}
	var b strings.Builder
	for _, it := range items {
		b.WriteString(m.styles.Bold.Render(it[0]))
		b.WriteString("\n")
		b.WriteString(m.styles.Body.Render(it[1]))
		b.WriteString("\n\n")
	}
	b.WriteString(m.styles.Muted.Render("Try: " + strings.Join(engine.Keywords(), ", ")))
	b.WriteString("\n\n")
	b.WriteString(m.styles.ChipSelected.Render("Get started"))
	return b.String()
}

func (m Model) renderChips(intro string, choices []choice) string {
	var b strings.Builder
	if intro != "" {
		b.WriteString(intro)
		b.WriteString("\n")
	}
	b.WriteString(m.renderChoiceRow(choices))
	return b.String()
}

func (m Model) renderChoiceRow(choices []choice) string {
	chips := make([]string, 0, len(choices))
	for _, c := range choices {
		style := m.styles.Chip
		if m.isSelected(c) {
			style = m.styles.ChipSelected
		}
		chips = append(chips, style.Render(c.label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, chips...)
}

// renderHistory draws the conversation log into the viewport content.
func (m Model) renderHistory() string {
	var b strings.Builder

	st := m.snap.View
	if st.View == view.Category && st.ShowSubchips {
		b.WriteString(m.styles.Subtitle.Render("What kind of information are you looking for?"))
		b.WriteString("\n")
	}

	for _, msg := range m.snap.Messages {
		if out := m.renderMessage(msg); out != "" {
			b.WriteString(out)
			b.WriteString("\n\n")
		}
	}

	if st.View == view.Category && st.ShowSubchips {
		var subchips []choice
		for _, c := range m.choices {
			if c.kind == choiceSubchip {
				subchips = append(subchips, c)
			}
		}
		b.WriteString(m.renderChoiceRow(subchips))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMessage(msg chat.Message) string {
	switch msg := msg.(type) {
	case chat.UserText:
		text := msg.Text
		if msg.Source == chat.SourceVoice {
			text = "🎤 " + text
		}
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, m.styles.UserBubble.Render(text))

	case chat.AssistantText:
		switch msg.Style {
		case chat.StyleSupport:
			return m.styles.SupportText.Render(msg.Text)
		case chat.StyleNoResults:
			return m.styles.NoResults.Render(msg.Text)
		}
		return m.styles.AssistantBubble.Render(m.safeRenderMarkdown(msg.Text))

	case chat.Loading:
		label := "Thinking…"
		if msg.Target == chat.TargetProducts {
			label = "Looking for products…"
		}
		return m.styles.Loading.Render(m.spinner.View() + " " + label)

	case chat.Products:
		return m.renderProducts(msg)

	case chat.Actions:
		var row []choice
		for _, c := range m.choices {
			if c.kind == choiceAction && c.messageID == msg.ID {
				row = append(row, c)
			}
		}
		return m.renderChoiceRow(row)

	case chat.Feedback:
		return m.styles.AssistantBubble.Render("How was your search?")

	case chat.ConnectionLost:
		return m.styles.Warning.Render("Connection lost.")

	case chat.Error:
		out := m.styles.Error.Render(msg.Text)
		for _, c := range m.choices {
			if c.kind == choiceRetry && c.messageID == msg.ID {
				style := m.styles.Chip
				if m.isSelected(c) {
					style = m.styles.ChipSelected
				}
				out += "\n" + style.Render("↻ Retry (ctrl+r)")
			}
		}
		return out
	}
	return ""
}

func (m Model) renderProducts(msg chat.Products) string {
	var b strings.Builder
	if msg.Title != "" {
		b.WriteString(m.styles.Body.Render(msg.Title))
		b.WriteString("\n")
	}
	for _, p := range msg.Visible() {
		c := choice{kind: choiceProduct, label: p.Title, messageID: msg.ID, productID: p.ID}
		style := m.styles.Card
		if m.isSelected(c) {
			style = m.styles.CardSelected
		}

		line := m.styles.Bold.Render(p.Title)
		if p.Price > 0 {
			line += "  " + m.styles.Price.Render(fmt.Sprintf("$%.2f", p.Price))
		}
		if p.Rating > 0 {
			line += "  " + m.styles.Rating.Render(fmt.Sprintf("★ %.1f (%d)", p.Rating, p.ReviewCount))
		}

		state := m.session.Product(p.ID)
		var marks []string
		if state.Quantity > 0 {
			marks = append(marks, fmt.Sprintf("in cart: %d", state.Quantity))
		}
		if state.Favorite {
			marks = append(marks, "♥")
		}
		if state.Disliked {
			marks = append(marks, "✗")
		}
		if len(marks) > 0 {
			line += "\n" + m.styles.Muted.Render(strings.Join(marks, "  "))
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	if msg.ShowMore {
		c := choice{kind: choiceShowMore, label: fmt.Sprintf("Show %d more", len(msg.Products)-len(msg.Visible())), messageID: msg.ID}
		style := m.styles.Chip
		if m.isSelected(c) {
			style = m.styles.ChipSelected
		}
		b.WriteString(style.Render(c.label))
		b.WriteString("\n")
	}
	if msg.Footer != "" {
		b.WriteString(m.styles.Body.Render(msg.Footer))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderVoiceChat() string {
	vs := m.snap.Voice
	var b strings.Builder

	if prompt := vs.Prompt(); prompt != "" {
		b.WriteString(m.styles.Warning.Render(prompt))
	} else {
		b.WriteString(m.styles.Headline.Render(vs.Headline))
	}
	b.WriteString("\n\n")

	switch {
	case vs.Generating:
		b.WriteString(m.styles.Loading.Render(m.spinner.View() + " Generating answer…"))
	case vs.Mode == speech.ModeListening:
		b.WriteString(m.styles.Listening.Render("● LISTENING..."))
	default:
		b.WriteString(m.styles.Muted.Render("ctrl+l: start listening • ctrl+k: keyboard"))
	}
	if vs.Interim != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(vs.Interim))
	}
	if n := m.session.Questions(); vs.Step > 0 && vs.Step <= n {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("question %d of %d", vs.Step, n)))
	}
	return b.String()
}

func (m Model) renderFeedback() string {
	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("How was your search?"))
	b.WriteString("\n")
	stars := make([]string, 0, len(m.choices))
	for _, c := range m.choices {
		mark := "☆"
		if c.rating <= m.rating {
			mark = "★"
		}
		style := m.styles.Chip
		if m.isSelected(c) {
			style = m.styles.ChipSelected
		}
		stars = append(stars, style.Render(mark+" "+c.label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stars...))
	return b.String()
}

func (m Model) renderToasts() string {
	toasts := m.snap.Cart.Toasts
	if len(toasts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		if t.Status == cart.StatusRemoved {
			lines = append(lines, m.styles.ToastRemoved.Render(
				fmt.Sprintf("%s ×%d  Removed from your cart", t.ProductTitle, t.Quantity)))
			continue
		}
		lines = append(lines, m.styles.Toast.Render(
			fmt.Sprintf("%s ×%d  Added to cart successfully", t.ProductTitle, t.Quantity)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var help string
	switch v := m.snap.View.View; {
	case v == view.Explain:
		help = "enter: get started • esc: close"
	case v == view.VoiceChat:
		help = "enter: say it • ctrl+l: listen • ctrl+k: keyboard • esc: back"
	case v == view.Feedback:
		help = "tab: rating/comment • enter: send • esc: back"
	case v.HasInputDock() || v == view.Voice:
		help = "enter: send • tab: choices • ctrl+t: mic • ctrl+r: retry • ctrl+n: new search • esc: back"
	default:
		help = "enter: new search • esc: back"
	}
	if m.status != "" {
		return m.styles.Error.Render(m.status) + "\n" + m.styles.Footer.Render(help)
	}
	return m.styles.Footer.Render(help)
}
