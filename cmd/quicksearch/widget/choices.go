package widget

import (
	"fmt"
	"strconv"

	"quicksearch/internal/chat"
	"quicksearch/internal/view"
)

const maxRating = 5

// buildChoices lists the selectable items of the current screen in display order.
func (m Model) buildChoices() []choice {
	st := m.snap.View
	if !st.Open {
		return nil
	}

	var out []choice
	switch st.View {
	case view.Explain:
		return nil
	case view.Feedback:
		for n := 1; n <= maxRating; n++ {
			out = append(out, choice{kind: choiceRating, label: strconv.Itoa(n), rating: n})
		}
		return out
	case view.Chips, view.Voice:
		for _, name := range m.session.Catalog().CategoryNames() {
			out = append(out, choice{kind: choiceCategory, label: name})
		}
		return out
	case view.Category:
		if st.ShowSubchips {
			for _, label := range m.session.Subchips() {
				out = append(out, choice{kind: choiceSubchip, label: label})
			}
		}
	}

	lastError := ""
	if e, ok := lastMessage[chat.Error](m.snap.Messages); ok {
		lastError = e.MessageID()
	}

	for _, msg := range m.snap.Messages {
		switch msg := msg.(type) {
		case chat.Products:
			for _, p := range msg.Visible() {
				out = append(out, choice{kind: choiceProduct, label: p.Title, messageID: msg.ID, productID: p.ID})
			}
			if msg.ShowMore {
				hidden := len(msg.Products) - len(msg.Visible())
				out = append(out, choice{kind: choiceShowMore, label: fmt.Sprintf("Show %d more", hidden), messageID: msg.ID})
			}
		case chat.Actions:
			for _, a := range msg.Actions {
				out = append(out, choice{kind: choiceAction, label: a.Label, messageID: msg.ID, action: a})
			}
		case chat.Error:
			if msg.ID == lastError {
				out = append(out, choice{kind: choiceRetry, label: "Retry", messageID: msg.ID})
			}
		}
	}
	return out
}

// lastMessage returns the newest message of type T.
func lastMessage[T chat.Message](msgs []chat.Message) (T, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if v, ok := msgs[i].(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// current returns the selected choice.
func (m Model) current() (choice, bool) {
	if m.selected < 0 || m.selected >= len(m.choices) {
		return choice{}, false
	}
	return m.choices[m.selected], true
}

// isSelected reports whether c is the highlighted choice.
func (m Model) isSelected(c choice) bool {
	if m.focus != FocusChoices {
		return false
	}
	cur, ok := m.current()
	return ok && cur.key() == c.key()
}
