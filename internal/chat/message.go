// Package chat defines the conversation message variants and the ordered,
// identifier-deduplicated message store that owns a session's history.
package chat

import (
	"quicksearch/internal/catalog"

	"github.com/google/uuid"
)

// Kind discriminates the message variants.
type Kind string

const (
	KindUserText       Kind = "user_text"
	KindAssistantText  Kind = "assistant_text"
	KindLoading        Kind = "loading"
	KindProducts       Kind = "products"
	KindActions        Kind = "actions"
	KindFeedback       Kind = "feedback"
	KindConnectionLost Kind = "connection_lost"
	KindError          Kind = "error"
)

// Role is who a message is attributed to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Source is the input channel a message came from.
type Source string

const (
	SourceChat  Source = "chat"
	SourceVoice Source = "voice"
)

// Target is what a pending Loading entry is expected to resolve into.
type Target string

const (
	TargetText     Target = "text"
	TargetProducts Target = "products"
)

// Style hints for the renderer.
const (
	StyleNoResults       = "no-results"
	StyleRecommendations = "recommendation-chips"
	StyleSupport         = "support-text"
)

// Message is the closed set of conversation entries. Every implementation
// lives in this package.
type Message interface {
	MessageID() string
	Kind() Kind
	Role() Role
	isMessage()
}

// Header carries the fields shared by every message.
type Header struct {
	ID     string
	Source Source
}

// MessageID returns the session-unique identifier.
func (h Header) MessageID() string { return h.ID }

func (Header) isMessage() {}

// UserText is something the user typed, spoke or picked.
type UserText struct {
	Header
	Text string
}

// AssistantText is a plain assistant reply.
type AssistantText struct {
	Header
	Text  string
	Style string
}

// Loading is a pending placeholder awaiting resolution.
type Loading struct {
	Header
	Target Target
}

// Products is a product strip.
type Products struct {
	Header
	Products     []catalog.Product
	Title        string // header line above the strip
	Footer       string
	VisibleCount int
	ShowMore     bool
}

// Action is one selectable chip inside an Actions message.
type Action struct {
	Label string
	Value string
}

// Actions is a row of selectable chips.
type Actions struct {
	Header
	Actions []Action
	Style   string
}

// Feedback asks the user to rate the conversation.
type Feedback struct{ Header }

// ConnectionLost signals a (simulated) connection drop.
type ConnectionLost struct{ Header }

// Error is an error bubble with a retry affordance.
type Error struct {
	Header
	Text string
}

func (UserText) Kind() Kind       { return KindUserText }
func (AssistantText) Kind() Kind  { return KindAssistantText }
func (Loading) Kind() Kind        { return KindLoading }
func (Products) Kind() Kind       { return KindProducts }
func (Actions) Kind() Kind        { return KindActions }
func (Feedback) Kind() Kind       { return KindFeedback }
func (ConnectionLost) Kind() Kind { return KindConnectionLost }
func (Error) Kind() Kind          { return KindError }

func (UserText) Role() Role       { return RoleUser }
func (AssistantText) Role() Role  { return RoleAssistant }
func (Loading) Role() Role        { return RoleSystem }
func (Products) Role() Role       { return RoleAssistant }
func (Actions) Role() Role        { return RoleAssistant }
func (Feedback) Role() Role       { return RoleAssistant }
func (ConnectionLost) Role() Role { return RoleAssistant }
func (Error) Role() Role          { return RoleAssistant }

// NewID returns a fresh message identifier.
func NewID() string {
	return uuid.NewString()
}

// DerivedID builds the identifier of an entry that resolves a loading placeholder.
func DerivedID(loaderID, suffix string) string {
	return loaderID + "-" + suffix
}

// IsAssistant reports whether m is attributed to the assistant.
func IsAssistant(m Message) bool {
	return m != nil && m.Role() == RoleAssistant
}

// Expand returns a copy of a Products message with every product visible.
func (p Products) Expand() Products {
	p.Products = append([]catalog.Product(nil), p.Products...)
	p.VisibleCount = len(p.Products)
	p.ShowMore = false
	return p
}

// Visible returns the products that should currently be drawn.
func (p Products) Visible() []catalog.Product {
	n := p.VisibleCount
	if n <= 0 || n > len(p.Products) {
		n = len(p.Products)
	}
	return p.Products[:n]
}
