// Package avatar decides which identity glyph a message shows.
//
// Resolution is an ordered chain of strategies evaluated eagerly to a single
// Avatar per render pass. For the user role the chain is
//
//	viewer image (unless its load is known to have failed)
//	→ first letter of the display name, upper-cased
//	→ "U"
//
// The assistant always gets the brand glyph. The chain always terminates in
// a renderable result; the avatar slot is never empty.
package avatar

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arogya-ai/chatview/chat"
)

// Kind is the shape of a resolved avatar.
type Kind int

const (
	KindImage Kind = iota
	KindInitial
	KindBrand
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindInitial:
		return "initial"
	default:
		return "brand"
	}
}

// DefaultInitial is shown when the viewer has neither a loadable image nor
// a display name.
const DefaultInitial = "U"

// Avatar is a fully resolved, renderable identity glyph.
type Avatar struct {
	Kind    Kind
	Src     string // KindImage
	Alt     string
	Initial string // KindInitial; for KindImage the letter shown if the image fails
}

// Brand describes the assistant's fixed glyph.
type Brand struct {
	Name  string
	Logo  string // image locator; may be empty
	Glyph string // terminal stand-in
}

// DefaultBrand is the product identity.
var DefaultBrand = Brand{Name: "Arogya AI", Logo: "/healthcheck-ai-logo.svg", Glyph: "✚"}

// LoadState is the outcome of loading an image locator.
type LoadState int

const (
	LoadUnknown LoadState = iota // not attempted yet, or still in flight
	LoadOK
	LoadFailed
)

// Probe reports what is known about an image locator.
type Probe interface {
	State(url string) LoadState
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(url string) LoadState

func (f ProbeFunc) State(url string) LoadState { return f(url) }

// NoProbe knows nothing: every image is optimistically assumed loadable.
var NoProbe Probe = ProbeFunc(func(string) LoadState { return LoadUnknown })

// Strategy is one link of the fallback chain. It returns ok=false to hand
// over to the next strategy.
type Strategy func(v *chat.Viewer, probe Probe) (Avatar, bool)

// UserChain is the ordered fallback chain for the user role.
var UserChain = []Strategy{ViewerImage, NameInitial, DefaultLetter}

// ViewerImage uses the viewer's image unless its load is known to fail.
func ViewerImage(v *chat.Viewer, probe Probe) (Avatar, bool) {
	if v == nil {
		return Avatar{}, false
	}
	src := strings.TrimSpace(v.AvatarImageURL)
	if src == "" {
		return Avatar{}, false
	}
	if probe == nil {
		probe = NoProbe
	}
	if probe.State(src) == LoadFailed {
		return Avatar{}, false
	}
	return Avatar{Kind: KindImage, Src: src, Alt: profileAlt(v.DisplayName), Initial: fallbackInitial(v)}, true
}

// fallbackInitial is the letter the rest of the chain would pick.
func fallbackInitial(v *chat.Viewer) string {
	if a, ok := NameInitial(v, nil); ok {
		return a.Initial
	}
	return DefaultInitial
}

// NameInitial uses the first letter of the display name, upper-cased.
func NameInitial(v *chat.Viewer, _ Probe) (Avatar, bool) {
	if v == nil {
		return Avatar{}, false
	}
	initial, ok := Initial(v.DisplayName)
	if !ok {
		return Avatar{}, false
	}
	return Avatar{Kind: KindInitial, Initial: initial, Alt: profileAlt(v.DisplayName)}, true
}

// DefaultLetter always succeeds.
func DefaultLetter(_ *chat.Viewer, _ Probe) (Avatar, bool) {
	return Avatar{Kind: KindInitial, Initial: DefaultInitial, Alt: profileAlt("")}, true
}

// Initial returns the first letter of name upper-cased. Leading spaces and
// punctuation are skipped.
func Initial(name string) (string, bool) {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r)), true
		}
	}
	return "", false
}

func profileAlt(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "User"
	}
	return name + "'s profile"
}

// Resolve returns the avatar for a message of the given role.
func Resolve(role chat.Role, v *chat.Viewer, probe Probe, brand Brand) Avatar {
	if !role.IsUser() {
		return ForBrand(brand)
	}
	for _, s := range UserChain {
		if a, ok := s(v, probe); ok {
			return a
		}
	}
	// Unreachable while DefaultLetter terminates UserChain.
	a, _ := DefaultLetter(v, probe)
	return a
}

// ForBrand returns the assistant's avatar.
func ForBrand(brand Brand) Avatar {
	if brand.Name == "" {
		brand.Name = DefaultBrand.Name
	}
	glyph := brand.Glyph
	if glyph == "" || utf8.RuneCountInString(glyph) > 2 {
		glyph = DefaultBrand.Glyph
	}
	return Avatar{Kind: KindBrand, Src: brand.Logo, Alt: brand.Name, Initial: glyph}
}
