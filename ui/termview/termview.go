// Package termview draws a conversation display tree in an ANSI terminal.
// It consumes the same tree the HTML backend serializes, so both surfaces
// always agree on structure, order and role placement.
package termview

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/ui/image"
	"github.com/arogya-ai/chatview/view"
)

// DefaultWidth is used when Options.Width is not set.
const DefaultWidth = 80

// Glyphs of a static typing indicator.
const (
	DotLit   = "●"
	DotUnlit = "○"
)

// Options configures terminal output.
type Options struct {
	Width int
	// Dots is the current frame of the typing indicator. Static dots are
	// drawn when it is empty.
	Dots string
	// Image draws an image body. A text placeholder is used when nil.
	Image func(key, src string, width int) string
}

// Render draws root, a tree produced by the conversation renderer.
func Render(root *html.Node, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	r := renderer{opts: opts}
	var out []string
	for _, n := range view.Children(root) {
		switch view.PartOf(n) {
		case view.PartEmpty:
			out = append(out, r.empty(n))
		case view.PartItem:
			out = append(out, r.item(n))
		}
	}
	return strings.Join(out, "\n\n")
}

type renderer struct {
	opts Options
}

func (r renderer) empty(n *html.Node) string {
	var lines []string
	if brand := view.Find(n, view.ByPart(view.PartBrand)); brand != nil {
		lines = append(lines, style.BrandGlyph.Render(strings.TrimSpace(view.TextContent(brand))), "")
	}
	if h := view.Find(n, view.ByTag("h2")); h != nil {
		lines = append(lines, style.WelcomeTitle.Render(view.TextContent(h)))
	}
	if p := view.Find(n, view.ByTag("p")); p != nil {
		lines = append(lines, style.WelcomeText.Render(wordwrap.String(view.TextContent(p), min(r.opts.Width-4, 60))))
	}
	block := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return lipgloss.PlaceHorizontal(r.opts.Width, lipgloss.Center, "\n"+block+"\n")
}

// item lays out avatar and bubble in DOM order and pushes user items to the
// right edge.
func (r renderer) item(n *html.Node) string {
	role := roleOf(n)
	avWidth := 3
	bubbleWidth := max(r.opts.Width*85/100-avWidth-1, 16)

	var cols []string
	for _, inner := range view.Children(n) {
		for _, c := range view.Children(inner) {
			switch view.PartOf(c) {
			case view.PartAvatar:
				cols = append(cols, r.avatar(c, role))
			case view.PartBubble:
				cols = append(cols, r.bubble(c, role, bubbleWidth))
			}
		}
	}
	row := strings.Join(cols, " ")
	if len(cols) > 1 {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cols[0], " ", cols[1])
	}
	align := lipgloss.Left
	if role.IsUser() {
		align = lipgloss.Right
	}
	return lipgloss.PlaceHorizontal(r.opts.Width, align, row)
}

func roleOf(n *html.Node) chat.Role {
	v, _ := view.Attr(n, view.AttrRole)
	return chat.Role(v).Normalize()
}

func (r renderer) avatar(n *html.Node, role chat.Role) string {
	kind, _ := view.Attr(n, "data-kind")
	text := strings.TrimSpace(view.TextContent(n))
	switch kind {
	case "brand":
		return style.BrandGlyph.Render(" " + text + " ")
	default:
		// Profile pictures are too small to draw inline; an image avatar
		// shows the initial it carries underneath.
		return style.Term(style.ElAvatarInitial, role).Render(" " + text + " ")
	}
}

func (r renderer) bubble(n *html.Node, role chat.Role, width int) string {
	inner := width - 4
	var parts []string
	for _, c := range view.Children(n) {
		var s string
		switch view.PartOf(c) {
		case view.PartBadge:
			s = style.Term(style.ElBadge, role).Render(strings.TrimSpace(view.TextContent(c)))
		case view.PartImage:
			s = r.image(c, inner)
		case view.PartTranscription:
			s = r.transcription(c, role, inner)
		case view.PartBody:
			s = r.blocks(c, role, inner)
		case view.PartAudio:
			s = style.Term(style.ElAudio, role).Render("♫ " + view.TextContent(c))
		case view.PartTyping:
			s = r.typing(c)
		case view.PartFooter:
			s = style.Term(style.ElFooter, role).Render(strings.TrimSpace(view.TextContent(c)))
			if !role.IsUser() {
				s = lipgloss.PlaceHorizontal(inner, lipgloss.Right, s)
			}
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	content := strings.Join(parts, "\n")
	w := min(widest(content), inner) + 2
	return style.Term(style.ElBubble, role).Width(w).Render(content)
}

func widest(s string) int {
	w := 0
	for _, l := range strings.Split(s, "\n") {
		w = max(w, ansi.StringWidth(l))
	}
	return w
}

func (r renderer) image(n *html.Node, width int) string {
	if n.Data != "img" {
		return style.Faint.Render(view.TextContent(n))
	}
	src, _ := view.Attr(n, "src")
	key, _ := view.Attr(n, view.AttrKey)
	if r.opts.Image != nil {
		return r.opts.Image(key, src, width)
	}
	return image.Placeholder(src)
}

func (r renderer) transcription(n *html.Node, role chat.Role, width int) string {
	kids := view.Children(n)
	var label, text string
	if len(kids) > 0 {
		label = view.TextContent(kids[0])
	}
	if q := view.Find(n, view.ByTag("q")); q != nil {
		text = "“" + view.TextContent(q) + "”"
	}
	body := style.Term(style.ElTranscriptionText, role).Render(wordwrap.String(text, width-4))
	return style.Term(style.ElTranscription, role).Render(
		style.Term(style.ElTranscriptionLabel, role).Render(label) + "\n" + body)
}

func (r renderer) typing(n *html.Node) string {
	dots := r.opts.Dots
	if dots == "" {
		// A still frame of the pulse: the leading dot lit, the staggered
		// ones dim.
		var d []string
		for _, dot := range view.FindAll(n, view.ByPart(view.PartDot)) {
			if delay, _ := view.Attr(dot, view.AttrDelay); delay == "0" {
				d = append(d, style.DotBright.Render(DotLit))
			} else {
				d = append(d, style.DotDim.Render(DotUnlit))
			}
		}
		dots = strings.Join(d, " ")
	}
	return dots + "  " + style.Faint.Render(strings.TrimSpace(view.TextContent(n)))
}

// ---------------------------------------------------------------------------
// Markdown bodies
// ---------------------------------------------------------------------------

func (r renderer) blocks(n *html.Node, role chat.Role, width int) string {
	var out []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := r.block(c, role, width); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

func (r renderer) block(n *html.Node, role chat.Role, width int) string {
	if n.Type == html.TextNode {
		return wordwrap.String(strings.TrimSpace(n.Data), width)
	}
	if n.Type != html.ElementNode {
		return ""
	}
	if view.PartOf(n) == view.PartCode {
		return r.code(n, role)
	}
	switch n.Data {
	case "h1":
		return style.Term(style.ElH1, role).Render(wordwrap.String(r.inline(n, role), width))
	case "h2":
		return style.Term(style.ElH2, role).Render(wordwrap.String(r.inline(n, role), width))
	case "h3":
		return style.Term(style.ElH3, role).Render(wordwrap.String(r.inline(n, role), width))
	case "p":
		return style.Term(style.ElParagraph, role).Render(wordwrap.String(r.inline(n, role), width))
	case "ul", "ol":
		return r.list(n, role, width)
	case "blockquote":
		return style.Term(style.ElBlockquote, role).Render(r.blocks(n, role, width-2))
	case "hr":
		return style.Term(style.ElHR, role).Render(strings.Repeat("─", width))
	case "table":
		return r.table(n, role, width)
	case "div":
		return r.blocks(n, role, width)
	default:
		return wordwrap.String(r.inline(n, role), width)
	}
}

func (r renderer) list(n *html.Node, role chat.Role, width int) string {
	start := 1
	if v, ok := view.Attr(n, "start"); ok {
		if i, err := strconv.Atoi(v); err == nil {
			start = i
		}
	}
	var lines []string
	for i, li := range view.Children(n) {
		bullet := "• "
		if n.Data == "ol" {
			bullet = strconv.Itoa(start+i) + ". "
		}
		pad := strings.Repeat(" ", len(bullet))
		var body []string
		var text strings.Builder
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol" || c.Data == "p" || c.Data == "blockquote" || view.PartOf(c) == view.PartCode) {
				if text.Len() > 0 {
					body = append(body, wordwrap.String(text.String(), width-len(bullet)))
					text.Reset()
				}
				body = append(body, r.block(c, role, width-len(bullet)))
				continue
			}
			text.WriteString(r.inline(c, role))
		}
		if text.Len() > 0 {
			body = append(body, wordwrap.String(text.String(), width-len(bullet)))
		}
		item := strings.Split(strings.Join(body, "\n"), "\n")
		for j, l := range item {
			if j == 0 {
				item[j] = bullet + l
			} else {
				item[j] = pad + l
			}
		}
		lines = append(lines, style.Term(style.ElLI, role).Render(strings.Join(item, "\n")))
	}
	return strings.Join(lines, "\n")
}

func (r renderer) code(n *html.Node, role chat.Role) string {
	var label, body string
	for _, c := range view.Children(n) {
		if c.Data == "pre" {
			body = view.TextContent(c)
		} else {
			label = strings.TrimSpace(view.TextContent(c))
		}
	}
	return style.Term(style.ElCodeBlock, role).Render(
		style.Term(style.ElCodeLabel, role).Render(label) + "\n" + style.Term(style.ElPre, role).Render(body))
}

func (r renderer) table(n *html.Node, role chat.Role, width int) string {
	var rows [][]string
	var header int
	for _, tr := range view.FindAll(n, view.ByTag("tr")) {
		var cells []string
		for _, c := range view.Children(tr) {
			cells = append(cells, r.inline(c, role))
			if c.Data == "th" {
				header = 1
			}
		}
		rows = append(rows, cells)
	}
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}
	widths := make([]int, cols)
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], ansi.StringWidth(c))
		}
	}
	limit := max((width-3*(cols-1))/cols, 3)
	for i := range widths {
		widths[i] = min(widths[i], limit)
	}

	var lines []string
	for ri, row := range rows {
		cells := make([]string, cols)
		for i := range cells {
			var c string
			if i < len(row) {
				c = ansi.Truncate(row[i], widths[i], "…")
			}
			c += strings.Repeat(" ", widths[i]-ansi.StringWidth(c))
			el := style.ElTD
			if ri < header {
				el = style.ElTH
			}
			cells[i] = style.Term(el, role).Render(c)
		}
		lines = append(lines, strings.Join(cells, " │ "))
		if ri == header-1 {
			seps := make([]string, cols)
			for i, w := range widths {
				seps[i] = strings.Repeat("─", w)
			}
			lines = append(lines, style.Faint.Render(strings.Join(seps, "─┼─")))
		}
	}
	return strings.Join(lines, "\n")
}

// inline flattens phrasing content with terminal emphasis.
func (r renderer) inline(n *html.Node, role chat.Role) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(r.inline(c, role))
	}
	s := sb.String()
	if n.Type != html.ElementNode {
		return s
	}
	switch n.Data {
	case "strong":
		return style.Term(style.ElStrong, role).Render(s)
	case "em":
		return style.Term(style.ElEm, role).Render(s)
	case "del":
		return style.Term(style.ElDel, role).Render(s)
	case "code":
		return style.Term(style.ElInlineCode, role).Render(s)
	case "br":
		return "\n"
	case "a":
		href, _ := view.Attr(n, "href")
		link := style.Term(style.ElLink, role).Render(s)
		if href != "" && href != s && "mailto:"+s != href {
			link += style.Faint.Render(" (" + href + ")")
		}
		return link
	default:
		return s
	}
}
