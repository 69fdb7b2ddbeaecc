// Package ui provides the visual styling for the quicksearch widget.
// Colors follow the shop palette with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"quicksearch/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// Shop palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f7f6f3")
	LightForeground = lipgloss.Color("#1d1b26")
	LightPrimary    = lipgloss.Color("#5b3df5") // Violet
	LightAccent     = lipgloss.Color("#ff6a3d") // Coral
	LightSecondary  = lipgloss.Color("#ece9f7")
	LightMuted      = lipgloss.Color("#8a8799")
	LightBorder     = lipgloss.Color("#dcd8ea")
	LightCard       = lipgloss.Color("#ffffff")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#15131d")
	DarkForeground = lipgloss.Color("#f1f0f5")
	DarkPrimary    = lipgloss.Color("#a997ff")
	DarkAccent     = lipgloss.Color("#ff8a65")
	DarkSecondary  = lipgloss.Color("#242132")
	DarkMuted      = lipgloss.Color("#7b7891")
	DarkBorder     = lipgloss.Color("#353149")
	DarkCard       = lipgloss.Color("#1d1a28")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#43a047")
	Warning     = lipgloss.Color("#ffb300")
	Info        = lipgloss.Color("#2196f3")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme guesses the terminal background, defaulting to light.
func DetectTheme() Theme {
	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
		}
	}
	return LightTheme()
}

// ThemeFor resolves a configured theme name.
func ThemeFor(t config.Theme) Theme {
	switch t {
	case config.ThemeDark:
		return DarkTheme()
	case config.ThemeLight:
		return LightTheme()
	}
	return DetectTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Modal    lipgloss.Style
	Header   lipgloss.Style
	Footer   lipgloss.Style
	Launcher lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Conversation
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SupportText     lipgloss.Style
	NoResults       lipgloss.Style
	Loading         lipgloss.Style

	// Chips
	Chip         lipgloss.Style
	ChipSelected lipgloss.Style

	// Products
	Card         lipgloss.Style
	CardSelected lipgloss.Style
	Price        lipgloss.Style
	Rating       lipgloss.Style

	// Input dock
	Prompt lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Components
	Toast        lipgloss.Style
	ToastRemoved lipgloss.Style
	Badge        lipgloss.Style
	Spinner      lipgloss.Style
	Divider      lipgloss.Style
	Headline     lipgloss.Style
	Listening    lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Launcher: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		UserBubble: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Secondary).
			Padding(0, 1),

		AssistantBubble: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(1).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Primary),

		SupportText: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		NoResults: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Loading: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Chip: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		ChipSelected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Primary).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1).
			Width(26),

		CardSelected: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1).
			Width(26),

		Price: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Rating: lipgloss.NewStyle().
			Foreground(Warning),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Toast: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Success).
			Padding(0, 1),

		ToastRemoved: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Destructive).
			Padding(0, 1),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Headline: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true).
			Padding(1, 0),

		Listening: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Blink(true),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
