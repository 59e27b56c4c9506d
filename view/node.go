// Package view is the passive display tree every renderer produces and every
// output backend consumes. Nodes are golang.org/x/net/html nodes so the HTML
// backend can serialize them directly; the terminal backend walks the same
// tree.
package view

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute keys shared between renderers and backends.
const (
	AttrPart   = "data-part"
	AttrKey    = "data-key"
	AttrRole   = "data-role"
	AttrMotion = "data-motion"
	AttrDelay  = "data-delay"
)

// Part names carried in AttrPart.
const (
	PartConversation   = "conversation"
	PartEmpty          = "empty"
	PartItem           = "item"
	PartAvatar         = "avatar"
	PartBubble         = "bubble"
	PartBadge          = "badge"
	PartImage          = "image"
	PartTranscription  = "transcription"
	PartBody           = "body"
	PartAudio          = "audio"
	PartFooter         = "footer"
	PartTyping         = "typing"
	PartDot            = "dot"
	PartCode           = "code"
	PartBrand          = "brand"
	PartAvatarFallback = "avatar-fallback"
)

// A is a single attribute.
type A struct{ Key, Val string }

// El builds an element node with attributes and children. Nil children are
// skipped so callers can pass optional sub-trees inline.
func El(tag string, attrs []A, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for _, a := range attrs {
		if a.Val == "" && a.Key != "alt" {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	Append(n, children...)
	return n
}

// Text builds a text node. The HTML serializer escapes it, so markup inside
// s is always displayed, never interpreted.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Append attaches children to parent, skipping nil entries.
func Append(parent *html.Node, children ...*html.Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Parent != nil {
			c.Parent.RemoveChild(c)
		}
		parent.AppendChild(c)
	}
}

// Class is a shorthand for a class attribute.
func Class(c string) A { return A{Key: "class", Val: c} }

// Part is a shorthand for a data-part attribute.
func Part(p string) A { return A{Key: AttrPart, Val: p} }

// Attr returns the value of key on n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// PartOf returns the data-part of n, or "".
func PartOf(n *html.Node) string {
	v, _ := Attr(n, AttrPart)
	return v
}

// Children returns the direct element children of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// FindAll returns every node under root (root included) for which match
// returns true, in document order.
func FindAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first node matching match.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	if all := FindAll(root, match); len(all) > 0 {
		return all[0]
	}
	return nil
}

// ByTag matches element nodes with the given tag name.
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag }
}

// ByPart matches element nodes with the given data-part.
func ByPart(part string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && PartOf(n) == part }
}

// TextContent concatenates every text node under n.
func TextContent(n *html.Node) string {
	var sb strings.Builder
	for _, t := range FindAll(n, func(x *html.Node) bool { return x.Type == html.TextNode }) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

// HTML serializes n. Serialization errors only come from the writer, which
// is an in-memory buffer here.
func HTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	_ = html.Render(&buf, n)
	return buf.String()
}
