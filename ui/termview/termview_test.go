package termview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/ui/conversation"
)

func draw(conv chat.Conversation, loading bool, opts Options) string {
	return ansi.Strip(Render(conversation.Render(conv, loading, nil, conversation.Options{}), opts))
}

func lineWith(out, needle string) string {
	for _, l := range strings.Split(out, "\n") {
		if strings.Contains(l, needle) {
			return l
		}
	}
	return ""
}

func TestRender_EmptyState(t *testing.T) {
	out := draw(nil, false, Options{Width: 60})
	if !strings.Contains(out, conversation.DefaultEmptyTitle) {
		t.Errorf("want welcome title, got:\n%s", out)
	}
}

func TestRender_UserRightAssistantLeft(t *testing.T) {
	conv := chat.Conversation{
		{ID: "1", Type: chat.RoleUser, ContentType: chat.ContentText, Content: "userline", Timestamp: chat.Text("10:45 AM")},
		{ID: "2", Type: chat.RoleAssistant, ContentType: chat.ContentText, Content: "botline"},
	}
	out := draw(conv, false, Options{Width: 80})
	user := lineWith(out, "userline")
	bot := lineWith(out, "botline")
	if user == "" || bot == "" {
		t.Fatalf("missing lines in:\n%s", out)
	}
	if strings.Index(user, "userline") <= strings.Index(bot, "botline") {
		t.Errorf("user text should sit further right than assistant text:\n%s", out)
	}
	if !strings.Contains(out, "10:45 AM") {
		t.Error("want verbatim timestamp")
	}
}

func TestRender_TypingIndicator(t *testing.T) {
	out := draw(nil, true, Options{Width: 80, Dots: "o O o"})
	if !strings.Contains(out, "o O o") {
		t.Errorf("want animation frame, got:\n%s", out)
	}
	if !strings.Contains(out, conversation.DefaultLoadingCaption) {
		t.Errorf("want caption, got:\n%s", out)
	}
	if strings.Contains(out, conversation.DefaultEmptyTitle) {
		t.Error("loading must not show the empty state")
	}
}

func TestRender_StaticDots(t *testing.T) {
	out := draw(nil, true, Options{Width: 80})
	lit, unlit := strings.Count(out, DotLit), strings.Count(out, DotUnlit)
	if lit != 1 || lit+unlit != conversation.DotCount {
		t.Errorf("want 1 lit and %d dim dots, got %d and %d", conversation.DotCount-1, lit, unlit)
	}
	if strings.Index(out, DotLit) > strings.Index(out, DotUnlit) {
		t.Errorf("leading dot should be lit:\n%s", out)
	}
}

func TestRender_ImageAvatarShowsInitial(t *testing.T) {
	conv := chat.Conversation{{ID: "u", Type: chat.RoleUser, ContentType: chat.ContentText, Content: "hi"}}
	viewer := &chat.Viewer{DisplayName: "Maria", AvatarImageURL: "https://img.example/me.png"}
	out := ansi.Strip(Render(conversation.Render(conv, false, viewer, conversation.Options{}), Options{Width: 60}))
	if !strings.Contains(out, " M ") {
		t.Errorf("want initial M in place of the profile picture:\n%s", out)
	}
}

func TestRender_RichBody(t *testing.T) {
	md := "# Care plan\n\n1. Rest\n2. Fluids\n\n| Drug | Dose |\n|---|---|\n| Paracetamol | 500mg |\n\n```\ntake with water\n```\n\nSee [guide](https://example.org/guide)."
	conv := chat.Conversation{{ID: "a", Type: chat.RoleAssistant, ContentType: chat.ContentText, Content: md}}
	out := draw(conv, false, Options{Width: 100})
	for _, want := range []string{"Care plan", "1. Rest", "2. Fluids", "Paracetamol", "500mg", "Code", "take with water", "guide", "(https://example.org/guide)"} {
		if !strings.Contains(out, want) {
			t.Errorf("want %q in:\n%s", want, out)
		}
	}
}

func TestRender_AudioAndTranscription(t *testing.T) {
	conv := chat.Conversation{{ID: "v", Type: chat.RoleUser, ContentType: chat.ContentAudio, Transcription: "fever and cough"}}
	out := draw(conv, false, Options{Width: 80})
	for _, want := range []string{"Audio", "Transcription", "fever and cough"} {
		if !strings.Contains(out, want) {
			t.Errorf("want %q in:\n%s", want, out)
		}
	}
}

func TestRender_ImageHook(t *testing.T) {
	conv := chat.Conversation{{ID: "img", Type: chat.RoleUser, ContentType: chat.ContentImage, Content: "https://img.example/rash.jpg"}}
	var gotKey, gotSrc string
	out := draw(conv, false, Options{Width: 80, Image: func(key, src string, _ int) string {
		gotKey, gotSrc = key, src
		return "<picture>"
	}})
	if gotKey != "img" || gotSrc != "https://img.example/rash.jpg" {
		t.Errorf("want hook called with img/rash.jpg, got %q %q", gotKey, gotSrc)
	}
	if !strings.Contains(out, "<picture>") {
		t.Errorf("want hook output, got:\n%s", out)
	}

	out = draw(conv, false, Options{Width: 80})
	if !strings.Contains(out, "[Image: rash.jpg]") {
		t.Errorf("want placeholder, got:\n%s", out)
	}
}
