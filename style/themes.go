package style

import (
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Theme defines a complete color palette for the terminal backend. Bubble
// and brand colors follow the product branding; markdown colors are taken
// from glamour's stock style of the same brightness.
type Theme struct {
	Name                               string
	Primary, Secondary, Muted, Dim     lipgloss.TerminalColor
	UserBubble, AssistantBubble        lipgloss.TerminalColor
	UserText, AssistantText            lipgloss.TerminalColor
	UserQuote, AssistantQuote          lipgloss.TerminalColor
	Heading, Link, LinkText, Code, Pre lipgloss.TerminalColor
}

func newTheme(name string, md ansi.StyleConfig, base Theme) Theme {
	base.Name = name
	base.AssistantText = colorOf(md.Document.StylePrimitive, "252")
	base.Heading = colorOf(md.Heading.StylePrimitive, "39")
	base.Link = colorOf(md.Link, "30")
	base.LinkText = colorOf(md.LinkText, "35")
	base.Code = colorOf(md.Code.StylePrimitive, "203")
	base.Pre = colorOf(md.CodeBlock.StylePrimitive, "244")
	return base
}

// colorOf reads a glamour color, which is an optional ANSI/hex string.
func colorOf(p ansi.StylePrimitive, fallback string) lipgloss.TerminalColor {
	if p.Color != nil && *p.Color != "" {
		return lipgloss.Color(*p.Color)
	}
	return lipgloss.Color(fallback)
}

// Built-in themes.
var (
	darkTheme = newTheme("dark", styles.DarkStyleConfig, Theme{
		Primary:         lipgloss.Color("#2563EB"), // blue-600
		Secondary:       lipgloss.Color("#60A5FA"), // blue-400
		Muted:           lipgloss.Color("#9CA3AF"), // gray-400
		Dim:             lipgloss.Color("#4B5563"), // gray-600
		UserBubble:      lipgloss.Color("#2563EB"), // blue-600
		AssistantBubble: lipgloss.Color("#374151"), // gray-700
		UserText:        lipgloss.Color("#F9FAFB"), // white/95
		UserQuote:       lipgloss.Color("#3B82F6"), // blue-500
		AssistantQuote:  lipgloss.Color("#14B8A6"), // teal-500
	})

	lightTheme = newTheme("light", styles.LightStyleConfig, Theme{
		Primary:         lipgloss.Color("#1D4ED8"), // blue-700
		Secondary:       lipgloss.Color("#2563EB"), // blue-600
		Muted:           lipgloss.Color("#6B7280"), // gray-500
		Dim:             lipgloss.Color("#D1D5DB"), // gray-300
		UserBubble:      lipgloss.Color("#1D4ED8"), // blue-700
		AssistantBubble: lipgloss.Color("#D1D5DB"), // gray-300
		UserText:        lipgloss.Color("#1E3A8A"), // blue-900
		UserQuote:       lipgloss.Color("#2563EB"), // blue-600
		AssistantQuote:  lipgloss.Color("#0D9488"), // teal-600
	})
)

// Themes maps theme names to their definitions.
var Themes = map[string]Theme{
	"dark":  darkTheme,
	"light": lightTheme,
}

// ThemeNames lists available themes in display order.
var ThemeNames = []string{"dark", "light"}

// CurrentThemeName tracks the active theme name.
var CurrentThemeName = "dark"

// SetTheme switches the active palette. It is meant to be called once at
// startup, before the first render pass.
func SetTheme(name string) bool {
	t, ok := Themes[name]
	if !ok {
		return false
	}
	CurrentThemeName = name
	current = t
	rebuildStyles()
	return true
}

// Current returns the active theme.
func Current() Theme { return current }
