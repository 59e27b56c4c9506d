// Package badge maps a message content type to the small icon + label shown
// above non-text content.
package badge

import "github.com/arogya-ai/chatview/chat"

// Icon identifies the glyph drawn inside a badge.
type Icon int

const (
	IconNone Icon = iota
	IconImage
	IconAudio
)

// String returns the icon name used in the HTML tree.
func (i Icon) String() string {
	switch i {
	case IconImage:
		return "image"
	case IconAudio:
		return "audio"
	default:
		return "none"
	}
}

// Glyph returns a single-cell terminal stand-in for the icon.
func (i Icon) Glyph() string {
	switch i {
	case IconImage:
		return "▣"
	case IconAudio:
		return "♫"
	default:
		return ""
	}
}

// Badge is the (icon, label) pair for a content type.
type Badge struct {
	Icon  Icon
	Label string
}

// Resolve returns the badge for ct. Text and any unrecognized content type
// have no badge; ok is false and the badge is omitted entirely.
func Resolve(ct chat.ContentType) (b Badge, ok bool) {
	switch ct {
	case chat.ContentImage:
		return Badge{Icon: IconImage, Label: "Image"}, true
	case chat.ContentAudio:
		return Badge{Icon: IconAudio, Label: "Audio"}, true
	default:
		return Badge{}, false
	}
}
