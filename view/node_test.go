package view

import (
	"strings"
	"testing"
)

func TestEl_SkipsEmptyAttributesAndNilChildren(t *testing.T) {
	n := El("img", []A{{Key: "src", Val: ""}, {Key: "alt", Val: ""}, Class("x")}, nil)
	if _, ok := Attr(n, "src"); ok {
		t.Error("empty src should be dropped")
	}
	if _, ok := Attr(n, "alt"); !ok {
		t.Error("empty alt is meaningful and must be kept")
	}
	if n.FirstChild != nil {
		t.Error("nil child must be skipped")
	}
}

func TestHTML_EscapesText(t *testing.T) {
	n := El("p", nil, Text("<script>x</script>"))
	if got := HTML(n); got != "<p>&lt;script&gt;x&lt;/script&gt;</p>" {
		t.Errorf("want escaped text, got %q", got)
	}
}

func TestFind(t *testing.T) {
	root := El("div", []A{Part(PartConversation)},
		El("div", []A{Part(PartItem), {Key: AttrKey, Val: "a"}}, El("span", nil, Text("one"))),
		El("div", []A{Part(PartItem), {Key: AttrKey, Val: "b"}}, El("span", nil, Text("two"))),
	)
	items := FindAll(root, ByPart(PartItem))
	if len(items) != 2 {
		t.Fatalf("want 2 items, got %d", len(items))
	}
	if k, _ := Attr(items[1], AttrKey); k != "b" {
		t.Errorf("want b, got %q", k)
	}
	if got := TextContent(root); got != "onetwo" {
		t.Errorf("want onetwo, got %q", got)
	}
	if len(Children(root)) != 2 || !strings.Contains(HTML(root), `data-part="item"`) {
		t.Error("unexpected structure")
	}
}

func TestAppend_Reparents(t *testing.T) {
	a, b := El("div", nil), El("div", nil)
	c := Text("x")
	Append(a, c)
	Append(b, c)
	if a.FirstChild != nil || b.FirstChild != c {
		t.Error("append should move the node")
	}
}
