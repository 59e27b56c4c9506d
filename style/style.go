// Package style holds the role-aware look of the conversation: utility
// classes for the HTML backend and lipgloss styles for the terminal.
package style

import (
	"github.com/arogya-ai/chatview/chat"
	"github.com/charmbracelet/lipgloss"
)

var current = darkTheme

// Base styles, rebuilt by SetTheme.
var (
	Bold  = lipgloss.NewStyle().Bold(true)
	Faint = lipgloss.NewStyle().Foreground(current.Muted)

	BrandGlyph   = lipgloss.NewStyle().Foreground(current.Primary).Bold(true)
	WelcomeTitle = lipgloss.NewStyle().Foreground(current.Primary).Bold(true)
	WelcomeText  = lipgloss.NewStyle().Foreground(current.Muted)
	DotBright    = lipgloss.NewStyle().Foreground(current.Secondary).Bold(true)
	DotDim       = lipgloss.NewStyle().Foreground(current.Dim)
)

func rebuildStyles() {
	Bold = lipgloss.NewStyle().Bold(true)
	Faint = lipgloss.NewStyle().Foreground(current.Muted)
	BrandGlyph = lipgloss.NewStyle().Foreground(current.Primary).Bold(true)
	WelcomeTitle = lipgloss.NewStyle().Foreground(current.Primary).Bold(true)
	WelcomeText = lipgloss.NewStyle().Foreground(current.Muted)
	DotBright = lipgloss.NewStyle().Foreground(current.Secondary).Bold(true)
	DotDim = lipgloss.NewStyle().Foreground(current.Dim)
}

// Term returns the terminal style for el in the given role's theme.
func Term(el Element, role chat.Role) lipgloss.Style {
	t := current
	user := role.IsUser()
	text := t.AssistantText
	bubble := t.AssistantBubble
	quote := t.AssistantQuote
	if user {
		text = t.UserText
		bubble = t.UserBubble
		quote = t.UserQuote
	}

	s := lipgloss.NewStyle()
	switch el {
	case ElBubble:
		return s.Border(lipgloss.RoundedBorder()).BorderForeground(bubble).Padding(0, 1)
	case ElAvatar:
		return s.Foreground(bubble).Bold(true)
	case ElAvatarInitial:
		return s.Foreground(lipgloss.Color("#FFFFFF")).Background(t.Primary).Bold(true)
	case ElBadge:
		return s.Foreground(t.Muted).Background(t.Dim).Padding(0, 1)
	case ElTranscription:
		return s.Border(lipgloss.NormalBorder()).BorderForeground(t.Dim).Padding(0, 1)
	case ElTranscriptionLabel:
		return s.Foreground(t.Muted).Bold(true)
	case ElTranscriptionText, ElEm:
		return s.Italic(true)
	case ElAudio:
		return s.Foreground(t.Muted).Italic(true)
	case ElFooter:
		return s.Foreground(t.Muted).Faint(true)
	case ElH1:
		return s.Foreground(t.Heading).Bold(true).Underline(true)
	case ElH2, ElH3, ElTH:
		return s.Foreground(t.Heading).Bold(true)
	case ElParagraph, ElLI, ElTD:
		return s.Foreground(text)
	case ElStrong:
		return s.Bold(true)
	case ElDel:
		return s.Strikethrough(true)
	case ElInlineCode:
		return s.Foreground(t.Code)
	case ElCodeBlock:
		return s.Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(t.Dim).PaddingLeft(1)
	case ElCodeLabel:
		return s.Foreground(t.Muted)
	case ElPre:
		return s.Foreground(t.Pre)
	case ElBlockquote:
		return s.Border(lipgloss.ThickBorder(), false, false, false, true).BorderForeground(quote).PaddingLeft(1).Italic(true)
	case ElLink:
		return s.Foreground(t.LinkText).Underline(true)
	case ElHR:
		return s.Foreground(t.Dim)
	default:
		return s.Foreground(text)
	}
}
