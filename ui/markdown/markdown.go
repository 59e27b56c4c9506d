// Package markdown converts a text message body into passive display
// structure. It parses with goldmark, builds the tree itself so every node
// gets role-aware classes, and finishes with a bluemonday pass over the
// fragment.
//
// Guarantees:
//   - raw HTML in the source is shown as literal text, never interpreted
//   - links open in a new browsing context with rel="noopener noreferrer"
//   - links with a scheme outside http/https/mailto/tel render as plain text
//   - fenced and indented code get the same "Code" container
package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/view"
)

// LinkTarget and LinkRel are forced onto every hyperlink.
const (
	LinkTarget = "_blank"
	LinkRel    = "noopener noreferrer"
)

// CodeLabel is the caption of every code block container.
const CodeLabel = "Code"

// Renderer is safe for concurrent use once constructed.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New builds a renderer with GitHub-flavoured extensions (tables,
// strikethrough, autolinks, task lists).
func New() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: newPolicy(),
	}
}

var defaultRenderer = New()

// Render converts content using the package default renderer.
func Render(content string, role chat.Role) *html.Node {
	return defaultRenderer.Render(content, role)
}

// Render returns a body container holding the display blocks for content.
// It never fails: if the sanitized tree does not come back as a single
// container, or building it panics, the content is shown as plain
// pre-wrapped text.
func (r *Renderer) Render(content string, role chat.Role) (out *html.Node) {
	role = role.Normalize()
	content = stripControl(content)
	defer func() {
		if rec := recover(); rec != nil {
			out = Plain(content, role)
		}
	}()

	src := []byte(content)
	doc := r.md.Parser().Parse(text.NewReader(src))
	b := &builder{src: src, role: role}
	root := newBody(role)
	b.children(root, doc)
	clean, err := r.sanitize(root)
	if err != nil {
		return Plain(content, role)
	}
	return clean
}

// Plain renders content as a single pre-wrapped paragraph with no markdown
// interpretation.
func Plain(content string, role chat.Role) *html.Node {
	role = role.Normalize()
	p := view.El("p", []view.A{view.Class(style.Class(style.ElParagraph, role) + " whitespace-pre-wrap")}, view.Text(stripControl(content)))
	return view.El("div", []view.A{view.Part(view.PartBody), view.Class(style.Class(style.ElBody, role))}, p)
}

func newBody(role chat.Role) *html.Node {
	return view.El("div", []view.A{view.Part(view.PartBody), view.Class(style.Class(style.ElBody, role))})
}

// stripControl removes terminal escape sequences and C0 control characters
// other than newline and tab.
func stripControl(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return -1
		}
		return r
	}, s)
}

// ---------------------------------------------------------------------------
// AST → tree
// ---------------------------------------------------------------------------

type builder struct {
	src  []byte
	role chat.Role
}

func (b *builder) cls(el style.Element) view.A { return view.Class(style.Class(el, b.role)) }

func (b *builder) children(parent *html.Node, n gast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		for _, out := range b.node(c) {
			view.Append(parent, out)
		}
	}
}

func (b *builder) wrap(tag string, attrs []view.A, n gast.Node) *html.Node {
	el := view.El(tag, attrs)
	b.children(el, n)
	return el
}

func (b *builder) node(n gast.Node) []*html.Node {
	switch n := n.(type) {
	case *gast.Heading:
		tag, el := "h3", style.ElH3
		switch n.Level {
		case 1:
			tag, el = "h1", style.ElH1
		case 2:
			tag, el = "h2", style.ElH2
		}
		return one(b.wrap(tag, []view.A{b.cls(el)}, n))

	case *gast.Paragraph:
		return one(b.wrap("p", []view.A{b.cls(style.ElParagraph)}, n))

	case *gast.TextBlock:
		// Tight list items: inline content without a paragraph wrapper.
		var out []*html.Node
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, b.node(c)...)
		}
		return out

	case *gast.List:
		if n.IsOrdered() {
			attrs := []view.A{b.cls(style.ElOL)}
			if n.Start > 1 {
				attrs = append(attrs, view.A{Key: "start", Val: strconv.Itoa(n.Start)})
			}
			return one(b.wrap("ol", attrs, n))
		}
		return one(b.wrap("ul", []view.A{b.cls(style.ElUL)}, n))

	case *gast.ListItem:
		return one(b.wrap("li", []view.A{b.cls(style.ElLI)}, n))

	case *gast.Emphasis:
		if n.Level >= 2 {
			return one(b.wrap("strong", []view.A{b.cls(style.ElStrong)}, n))
		}
		return one(b.wrap("em", []view.A{b.cls(style.ElEm)}, n))

	case *east.Strikethrough:
		return one(b.wrap("del", []view.A{b.cls(style.ElDel)}, n))

	case *gast.CodeSpan:
		return one(view.El("code", []view.A{b.cls(style.ElInlineCode)}, view.Text(b.rawInline(n))))

	case *gast.FencedCodeBlock:
		return one(b.codeBlock(n, string(n.Language(b.src))))

	case *gast.CodeBlock:
		return one(b.codeBlock(n, ""))

	case *gast.Blockquote:
		return one(b.wrap("blockquote", []view.A{b.cls(style.ElBlockquote)}, n))

	case *gast.ThematicBreak:
		return one(view.El("hr", []view.A{b.cls(style.ElHR)}))

	case *gast.Link:
		return one(b.link(string(n.Destination), n))

	case *gast.AutoLink:
		dest := string(n.URL(b.src))
		if n.AutoLinkType == gast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(dest), "mailto:") {
			dest = "mailto:" + dest
		}
		label := view.Text(string(n.Label(b.src)))
		if href, ok := safeHref(dest); ok {
			return one(anchor(href, b.role, label))
		}
		return one(label)

	case *gast.Image:
		// Inline images in text bodies are offered as links to the image
		// rather than fetched into the bubble.
		return one(b.link(string(n.Destination), n))

	case *gast.Text:
		v := b.unescape(n.Segment.Value(b.src))
		out := []*html.Node{view.Text(v)}
		switch {
		case n.HardLineBreak():
			out = append(out, view.El("br", nil))
		case n.SoftLineBreak():
			out = append(out, view.Text("\n"))
		}
		return out

	case *gast.String:
		if n.IsCode() || n.IsRaw() {
			return one(view.Text(string(n.Value)))
		}
		return one(view.Text(b.unescape(n.Value)))

	case *gast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(b.src))
		}
		return one(view.Text(buf.String()))

	case *gast.HTMLBlock:
		raw := b.lines(n)
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(b.src))
		}
		p := view.El("p", []view.A{view.Class(style.Class(style.ElParagraph, b.role) + " whitespace-pre-wrap")}, view.Text(strings.TrimRight(raw, "\n")))
		return one(p)

	case *east.Table:
		return one(b.table(n))

	case *east.TaskCheckBox:
		if n.IsChecked {
			return one(view.Text("☑ "))
		}
		return one(view.Text("☐ "))

	default:
		// Unknown node kinds keep their content.
		var out []*html.Node
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, b.node(c)...)
		}
		return out
	}
}

func one(n *html.Node) []*html.Node { return []*html.Node{n} }

func (b *builder) unescape(v []byte) string {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	return string(v)
}

// rawInline concatenates the literal text of a code span.
func (b *builder) rawInline(n gast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *gast.Text:
			sb.Write(c.Segment.Value(b.src))
		case *gast.String:
			sb.Write(c.Value)
		}
	}
	return sb.String()
}

func (b *builder) lines(n gast.Node) string {
	var sb strings.Builder
	l := n.Lines()
	for i := 0; i < l.Len(); i++ {
		seg := l.At(i)
		sb.Write(seg.Value(b.src))
	}
	return sb.String()
}

// codeBlock draws the offset container with its "Code" label. The declared
// language is kept as a class hint only; there is no highlighting.
func (b *builder) codeBlock(n gast.Node, lang string) *html.Node {
	codeAttrs := []view.A{}
	if lang = strings.TrimSpace(lang); lang != "" && langPattern.MatchString(lang) {
		codeAttrs = append(codeAttrs, view.Class("language-"+lang))
	}
	label := view.El("div", []view.A{b.cls(style.ElCodeLabel)},
		view.El("span", []view.A{view.Class("ml-1")}, view.Text(CodeLabel)),
	)
	pre := view.El("pre", []view.A{b.cls(style.ElPre)},
		view.El("code", codeAttrs, view.Text(strings.TrimRight(b.lines(n), "\n"))),
	)
	return view.El("div", []view.A{view.Part(view.PartCode), b.cls(style.ElCodeBlock)}, label, pre)
}

var langPattern = regexp.MustCompile(`^[A-Za-z0-9_+#.-]{1,32}$`)

func (b *builder) link(dest string, n gast.Node) *html.Node {
	if href, ok := safeHref(dest); ok {
		a := anchor(href, b.role)
		b.children(a, n)
		return a
	}
	span := view.El("span", nil)
	b.children(span, n)
	return span
}

func anchor(href string, role chat.Role, children ...*html.Node) *html.Node {
	return view.El("a", []view.A{
		{Key: "href", Val: href},
		{Key: "target", Val: LinkTarget},
		{Key: "rel", Val: LinkRel},
		view.Class(style.Class(style.ElLink, role)),
	}, children...)
}

var allowedSchemes = map[string]bool{"http": true, "https": true, "mailto": true, "tel": true}

// safeHref accepts relative references and the allowed absolute schemes.
func safeHref(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil {
		return "", false
	}
	if u.Scheme == "" {
		// A colon before the first slash would be read as a scheme by a
		// browser even when url.Parse disagrees.
		if i := strings.IndexByte(dest, ':'); i >= 0 {
			if j := strings.IndexAny(dest, "/?#"); j < 0 || i < j {
				return "", false
			}
		}
		return dest, true
	}
	if !allowedSchemes[strings.ToLower(u.Scheme)] {
		return "", false
	}
	return dest, true
}

func (b *builder) table(n *east.Table) *html.Node {
	table := view.El("table", []view.A{b.cls(style.ElTable)})
	var tbody *html.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *east.TableHeader:
			tr := view.El("tr", nil)
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				view.Append(tr, b.cell("th", style.ElTH, cell))
			}
			view.Append(table, view.El("thead", nil, tr))
		case *east.TableRow:
			if tbody == nil {
				tbody = view.El("tbody", nil)
				view.Append(table, tbody)
			}
			tr := view.El("tr", nil)
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				view.Append(tr, b.cell("td", style.ElTD, cell))
			}
			view.Append(tbody, tr)
		}
	}
	return view.El("div", []view.A{b.cls(style.ElTableWrap)}, table)
}

func (b *builder) cell(tag string, el style.Element, n gast.Node) *html.Node {
	class := style.Class(el, b.role)
	if tc, ok := n.(*east.TableCell); ok {
		switch tc.Alignment {
		case east.AlignCenter:
			class += " text-center"
		case east.AlignRight:
			class += " text-right"
		}
	}
	return b.wrap(tag, []view.A{view.Class(class)}, n)
}

// ---------------------------------------------------------------------------
// Sanitizing pass
// ---------------------------------------------------------------------------

// blockTags and inlineTags are the only elements the renderer ever emits.
var (
	blockTags  = []string{"div", "p", "h1", "h2", "h3", "ul", "ol", "li", "pre", "blockquote", "table", "thead", "tbody", "tr", "th", "td", "hr"}
	inlineTags = []string{"span", "strong", "em", "del", "code", "a", "br"}
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(blockTags...)
	p.AllowElements(inlineTags...)
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowAttrs("start").Matching(bluemonday.Integer).OnElements("ol")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowStandardURLs()
	p.AllowURLSchemes("tel")
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// errRoundTrip reports a sanitized fragment that no longer has the body
// container as its single root.
var errRoundTrip = errors.New("markdown: sanitized fragment did not round-trip")

// sanitize serializes the fragment, runs it through the policy and parses
// the result back.
func (r *Renderer) sanitize(root *html.Node) (*html.Node, error) {
	raw := view.HTML(root)
	clean := r.policy.Sanitize(raw)
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(clean), ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errRoundTrip, err)
	}
	if len(nodes) != 1 || nodes[0].Type != html.ElementNode {
		return nil, fmt.Errorf("%w: %d nodes", errRoundTrip, len(nodes))
	}
	return nodes[0], nil
}
