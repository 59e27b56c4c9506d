// Package conversation is the top-level assembly of the message view: the
// empty-state placeholder, one item per message and the typing indicator.
package conversation

import (
	"strconv"

	"golang.org/x/net/html"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/message"
	"github.com/arogya-ai/chatview/view"
)

// Default copy for the empty state and the typing item.
const (
	DefaultEmptyTitle     = "Welcome to Arogya AI"
	DefaultEmptyText      = "Describe your symptoms, upload a photo or record a voice note to get started."
	DefaultLoadingCaption = "Analyzing symptoms..."
)

// TypingKey is the data-key of the synthetic typing item. Message IDs never
// collide with it because it is not a valid message key.
const TypingKey = "typing:"

// DotCount is the number of pulsing dots in the typing item.
const DotCount = 3

// DotStagger is the delay between two neighbouring dots, in milliseconds.
const DotStagger = 200

// Options configures a render pass. The zero value is usable.
type Options struct {
	Item           message.Options
	EmptyTitle     string
	EmptyText      string
	LoadingCaption string
}

func (o Options) withDefaults() Options {
	if o.EmptyTitle == "" {
		o.EmptyTitle = DefaultEmptyTitle
	}
	if o.EmptyText == "" {
		o.EmptyText = DefaultEmptyText
	}
	if o.LoadingCaption == "" {
		o.LoadingCaption = DefaultLoadingCaption
	}
	if o.Item.Brand == (avatar.Brand{}) {
		o.Item.Brand = avatar.DefaultBrand
	}
	return o
}

// Render projects the conversation, the loading flag and the viewer into a
// display tree. It never mutates conv and has no side effects.
func Render(conv chat.Conversation, loading bool, viewer *chat.Viewer, opts Options) *html.Node {
	opts = opts.withDefaults()
	root := view.El("div", []view.A{
		view.Part(view.PartConversation),
		{Key: "aria-live", Val: "polite"},
		view.Class("flex flex-col gap-6 p-6"),
	})

	if len(conv) == 0 && !loading {
		view.Append(root, Empty(opts))
		return root
	}
	for i, m := range conv {
		if m.ID == "" {
			m.ID = "item-" + strconv.Itoa(i)
		}
		view.Append(root, message.Render(m, viewer, opts.Item))
	}
	if loading {
		view.Append(root, Typing(opts))
	}
	return root
}

// Empty renders the centered "ready to help" placeholder.
func Empty(opts Options) *html.Node {
	opts = opts.withDefaults()
	brand := opts.Item.Brand
	var logo *html.Node
	if brand.Logo != "" {
		logo = view.El("img", []view.A{{Key: "src", Val: brand.Logo}, {Key: "alt", Val: brand.Name}, view.Class("h-10 w-10 object-contain")})
	}
	return view.El("div", []view.A{view.Part(view.PartEmpty), view.Class("flex flex-1 flex-col items-center justify-center text-center py-16")},
		view.El("div", []view.A{view.Part(view.PartBrand), view.Class("mb-4 flex h-16 w-16 items-center justify-center rounded-full bg-gradient-to-r from-blue-500 to-purple-600")},
			logo,
			view.El("span", []view.A{view.Class("sr-only")}, view.Text(brand.Glyph)),
		),
		view.El("h2", []view.A{view.Class("text-2xl font-semibold text-gray-100 mb-2")}, view.Text(opts.EmptyTitle)),
		view.El("p", []view.A{view.Class("max-w-md text-sm text-gray-400")}, view.Text(opts.EmptyText)),
	)
}

// Typing renders the synthetic assistant item shown while a response is
// pending. The pulse is driven by the presentation layer through data-delay.
func Typing(opts Options) *html.Node {
	opts = opts.withDefaults()
	dots := view.El("div", []view.A{view.Class("flex items-center gap-1")})
	for i := 0; i < DotCount; i++ {
		view.Append(dots, view.El("span", []view.A{
			view.Part(view.PartDot),
			{Key: view.AttrDelay, Val: strconv.Itoa(i * DotStagger)},
			view.Class("h-2 w-2 rounded-full bg-blue-400"),
		}))
	}
	bubble := view.El("div", []view.A{view.Part(view.PartBubble), view.Class("rounded-2xl px-5 py-4 bg-gray-800 border border-gray-700")},
		view.El("div", []view.A{view.Part(view.PartTyping), {Key: "role", Val: "status"}, view.Class("flex items-center gap-3")},
			dots,
			view.El("span", []view.A{view.Class("text-sm text-gray-400")}, view.Text(opts.LoadingCaption)),
		),
	)
	av := message.AvatarNode(avatar.ForBrand(opts.Item.Brand), chat.RoleAssistant)
	return view.El("div", []view.A{
		view.Part(view.PartItem),
		{Key: view.AttrKey, Val: TypingKey},
		{Key: view.AttrRole, Val: string(chat.RoleAssistant)},
		{Key: "data-synthetic", Val: "true"},
		{Key: view.AttrMotion, Val: "enter"},
		view.Class(style.Class(style.ElRow, chat.RoleAssistant)),
	}, view.El("div", []view.A{view.Class(style.Class(style.ElInner, chat.RoleAssistant))}, av, bubble))
}

// Keys lists the data-key of every item under root in display order.
func Keys(root *html.Node) []string {
	var keys []string
	for _, it := range view.FindAll(root, view.ByPart(view.PartItem)) {
		k, _ := view.Attr(it, view.AttrKey)
		keys = append(keys, k)
	}
	return keys
}

// IsTyping reports whether item is the synthetic typing item.
func IsTyping(item *html.Node) bool {
	v, _ := view.Attr(item, "data-synthetic")
	return v == "true"
}
