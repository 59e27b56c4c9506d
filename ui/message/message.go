// Package message assembles one chat message into a single display unit:
// avatar + bubble, oriented by author role.
//
// Bubble order: content-type badge, image body, transcription, main
// content, footer with the timestamp.
package message

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/badge"
	"github.com/arogya-ai/chatview/ui/markdown"
	"github.com/arogya-ai/chatview/view"
)

// Labels shown inside the bubble.
const (
	TranscriptionLabel = "Transcription"
	ImageAlt           = "User uploaded"
	ImageUnavailable   = "Image unavailable"
	AudioPlaceholder   = "Voice message"
	ClockGlyph         = "◷"
)

// AvatarOnError hides a profile image that fails to load in the browser.
const AvatarOnError = "this.hidden=true;"

// DefaultImageMaxHeight is the maximum rendered image height in CSS pixels.
const DefaultImageMaxHeight = 240

// Options configures item rendering. The zero value is usable.
type Options struct {
	Clock          Clock
	Brand          avatar.Brand
	Probe          avatar.Probe
	ImageMaxHeight int
	Markdown       *markdown.Renderer
}

func (o Options) withDefaults() Options {
	if o.Brand == (avatar.Brand{}) {
		o.Brand = avatar.DefaultBrand
	}
	if o.Probe == nil {
		o.Probe = avatar.NoProbe
	}
	if o.ImageMaxHeight <= 0 {
		o.ImageMaxHeight = DefaultImageMaxHeight
	}
	return o
}

// Render builds the display unit for m. A failure while building the rich
// representation degrades to a plain-text item with the same key.
func Render(m chat.Message, viewer *chat.Viewer, opts Options) (out *html.Node) {
	opts = opts.withDefaults()
	role := m.Type.Normalize()
	defer func() {
		if rec := recover(); rec != nil {
			out = fallback(m, viewer, role, opts)
		}
	}()

	av := AvatarNode(avatar.Resolve(role, viewer, opts.Probe, opts.Brand), role)
	bubble := view.El("div", []view.A{view.Part(view.PartBubble), view.Class(style.Class(style.ElBubble, role))},
		badgeNode(m.ContentType, role),
		imageNode(m, role, opts),
		transcriptionNode(m, role),
		bodyNode(m, role, opts),
		footerNode(m.Timestamp, role, opts.Clock),
	)
	return row(m.ID, role, av, bubble)
}

// row lays out avatar and bubble: the assistant's avatar precedes the
// bubble on the leading edge, the user's follows it on the trailing edge.
func row(key string, role chat.Role, av, bubble *html.Node) *html.Node {
	inner := view.El("div", []view.A{view.Class(style.Class(style.ElInner, role))})
	if role.IsUser() {
		view.Append(inner, bubble, av)
	} else {
		view.Append(inner, av, bubble)
	}
	return view.El("div", []view.A{
		view.Part(view.PartItem),
		{Key: view.AttrKey, Val: key},
		{Key: view.AttrRole, Val: string(role)},
		{Key: view.AttrMotion, Val: "enter"},
		view.Class(style.Class(style.ElRow, role)),
	}, inner)
}

// noImages skips the image link of the avatar chain.
var noImages = avatar.ProbeFunc(func(string) avatar.LoadState { return avatar.LoadFailed })

func fallback(m chat.Message, viewer *chat.Viewer, role chat.Role, opts Options) *html.Node {
	av := AvatarNode(avatar.Resolve(role, viewer, noImages, opts.Brand), role)
	bubble := view.El("div", []view.A{view.Part(view.PartBubble), view.Class(style.Class(style.ElBubble, role))},
		markdown.Plain(m.Content, role),
		footerNode(m.Timestamp, role, opts.Clock),
	)
	return row(m.ID, role, av, bubble)
}

// AvatarNode renders a resolved avatar.
func AvatarNode(a avatar.Avatar, role chat.Role) *html.Node {
	attrs := []view.A{view.Part(view.PartAvatar), {Key: "data-kind", Val: a.Kind.String()}, view.Class(style.Class(style.ElAvatar, role))}
	switch a.Kind {
	case avatar.KindImage:
		// The initial sits under the image; a failed load hides the image
		// and leaves the letter.
		initial := a.Initial
		if initial == "" {
			initial = avatar.DefaultInitial
		}
		attrs[2] = view.Class(style.Class(style.ElAvatar, role) + " relative")
		return view.El("div", attrs,
			view.El("span", []view.A{view.Part(view.PartAvatarFallback), view.Class(style.Class(style.ElAvatarInitial, role))}, view.Text(initial)),
			view.El("img", []view.A{
				{Key: "src", Val: a.Src},
				{Key: "alt", Val: a.Alt},
				{Key: "onerror", Val: AvatarOnError},
				view.Class("absolute inset-0 w-full h-full rounded-full object-cover"),
			}),
		)
	case avatar.KindBrand:
		var glyph *html.Node
		if a.Src != "" {
			glyph = view.El("img", []view.A{{Key: "src", Val: a.Src}, {Key: "alt", Val: a.Alt}, view.Class("h-5 w-5 object-contain")})
		}
		return view.El("div", attrs, glyph, view.El("span", []view.A{view.Part(view.PartBrand), view.Class("sr-only")}, view.Text(a.Initial)))
	default:
		return view.El("div", attrs, view.El("span", []view.A{view.Class(style.Class(style.ElAvatarInitial, role))}, view.Text(a.Initial)))
	}
}

func badgeNode(ct chat.ContentType, role chat.Role) *html.Node {
	b, ok := badge.Resolve(ct)
	if !ok {
		return nil
	}
	return view.El("span", []view.A{view.Part(view.PartBadge), {Key: "data-icon", Val: b.Icon.String()}, view.Class(style.Class(style.ElBadge, role))},
		view.El("span", []view.A{{Key: "aria-hidden", Val: "true"}}, view.Text(b.Icon.Glyph())),
		view.El("span", []view.A{view.Class("ml-1")}, view.Text(b.Label)),
	)
}

// imageNode renders the image body: capped height, not draggable and with
// the context menu suppressed so the image is not trivially saved.
func imageNode(m chat.Message, role chat.Role, opts Options) *html.Node {
	if m.ContentType != chat.ContentImage {
		return nil
	}
	src, ok := SafeImageSrc(m.Content)
	if !ok {
		return view.El("div", []view.A{view.Part(view.PartImage), view.Class(style.Class(style.ElAudio, role))}, view.Text(ImageUnavailable))
	}
	return view.El("img", []view.A{
		view.Part(view.PartImage),
		{Key: view.AttrKey, Val: m.ID},
		{Key: "src", Val: src},
		{Key: "alt", Val: ImageAlt},
		{Key: "draggable", Val: "false"},
		{Key: "oncontextmenu", Val: "return false;"},
		{Key: "style", Val: "max-height:" + strconv.Itoa(opts.ImageMaxHeight) + "px"},
		view.Class(style.Class(style.ElImage, role)),
	})
}

// SafeImageSrc accepts http(s), relative, blob: and data:image/ locators.
func SafeImageSrc(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "data:") {
		return raw, strings.HasPrefix(lower, "data:image/") && !strings.HasPrefix(lower, "data:image/svg")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "blob":
		return raw, true
	case "":
		return raw, true
	default:
		return "", false
	}
}

func transcriptionNode(m chat.Message, role chat.Role) *html.Node {
	if !m.HasTranscription() {
		return nil
	}
	return view.El("div", []view.A{view.Part(view.PartTranscription), view.Class(style.Class(style.ElTranscription, role))},
		view.El("div", []view.A{view.Class(style.Class(style.ElTranscriptionLabel, role))}, view.Text(TranscriptionLabel)),
		view.El("div", []view.A{view.Class(style.Class(style.ElTranscriptionText, role))},
			view.El("q", nil, view.Text(m.Transcription)),
		),
	)
}

// bodyNode dispatches on the content type. Unknown types are shown the way
// text is.
func bodyNode(m chat.Message, role chat.Role, opts Options) *html.Node {
	switch m.ContentType {
	case chat.ContentImage:
		return nil
	case chat.ContentAudio:
		return view.El("div", []view.A{view.Part(view.PartAudio), view.Class(style.Class(style.ElAudio, role))}, view.Text(AudioPlaceholder))
	default:
		if m.Content == "" {
			return nil
		}
		if opts.Markdown != nil {
			return opts.Markdown.Render(m.Content, role)
		}
		return markdown.Render(m.Content, role)
	}
}

func footerNode(ts chat.Timestamp, role chat.Role, clock Clock) *html.Node {
	return view.El("div", []view.A{view.Part(view.PartFooter), view.Class(style.Class(style.ElFooter, role))},
		view.El("span", []view.A{{Key: "data-icon", Val: "clock"}, {Key: "aria-hidden", Val: "true"}, view.Class("mr-1")}, view.Text(ClockGlyph)),
		view.El("time", nil, view.Text(clock.Format(ts))),
	)
}
