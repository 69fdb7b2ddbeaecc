// Package widget implements the interactive quicksearch terminal front-end
// using bubbletea. It renders an assistant.Widget session and turns key
// presses into session events.
package widget

import (
	"quicksearch/cmd/quicksearch/ui"
	"quicksearch/internal/assistant"
	"quicksearch/internal/chat"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// =============================================================================
// FOCUS
// =============================================================================

// Focus is the part of the modal that receives key presses.
type Focus int

const (
	// FocusInput routes keys to the input dock.
	FocusInput Focus = iota
	// FocusChoices routes keys to the selectable chips and cards.
	FocusChoices
)

// choiceKind discriminates the selectable items of the current screen.
type choiceKind int

const (
	choiceCategory choiceKind = iota
	choiceSubchip
	choiceAction
	choiceProduct
	choiceShowMore
	choiceRetry
	choiceRating
)

// choice is one selectable item.
type choice struct {
	kind      choiceKind
	label     string
	messageID string
	productID string
	action    chat.Action
	rating    int
}

// key identifies a choice across refreshes.
func (c choice) key() string {
	return c.messageID + "/" + c.label + "/" + c.productID
}

// =============================================================================
// MESSAGES
// =============================================================================

// widgetMsg reports that part of the session changed.
type widgetMsg assistant.Topic

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model of the widget.
type Model struct {
	session *assistant.Widget
	snap    assistant.Snapshot
	events  chan tea.Msg

	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// Layout
	width  int
	height int
	ready  bool

	// Selection
	focus    Focus
	choices  []choice
	selected int

	// Feedback form
	rating int

	status string
}
