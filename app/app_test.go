package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/msg"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
	"github.com/arogya-ai/chatview/ui/image"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(context.Context, string) (*client.Image, error) {
	return nil, errors.New("offline")
}

func snapshot(avatarURL string) chat.Snapshot {
	return chat.Snapshot{
		Viewer: &chat.Viewer{DisplayName: "Maria", AvatarImageURL: avatarURL},
		Messages: chat.Conversation{
			{ID: "m1", Type: chat.RoleUser, ContentType: chat.ContentText, Content: "hello"},
			{ID: "m2", Type: chat.RoleUser, ContentType: chat.ContentImage, Content: "https://img.example/rash.jpg"},
		},
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// runCmd runs cmd and flattens batches into the messages they produce.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch v := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range v {
			out = append(out, runCmd(c)...)
		}
		return out
	default:
		return []tea.Msg{v}
	}
}

func TestUpdate_StaleAvatarLoadIsDropped(t *testing.T) {
	m := New(snapshot("https://img.example/a.png"), Options{Fetcher: fakeFetcher{}})
	m.Init()
	if !m.tracker.Pending(viewerKey) {
		t.Fatal("want avatar load issued")
	}
	if !strings.Contains(ansi.Strip(m.View()), "loading avatar") {
		t.Error("want pending avatar noted in the header")
	}
	old := avatar.Ticket{Key: viewerKey, URL: "https://img.example/a.png"}

	// The viewer changes picture before the first load finishes.
	next, cmd := m.Update(msg.SnapshotLoaded{Snapshot: snapshot("https://img.example/b.png")})
	m = next.(Model)

	next, _ = m.Update(msg.AvatarLoaded{Ticket: old, Err: errors.New("timeout")})
	m = next.(Model)
	if got := m.tracker.State(old.URL); got != avatar.LoadUnknown {
		t.Errorf("stale completion must not be applied, got state %v", got)
	}

	var cur *msg.AvatarLoaded
	for _, out := range runCmd(cmd) {
		if al, ok := out.(msg.AvatarLoaded); ok && al.Ticket.URL == "https://img.example/b.png" {
			cur = &al
		}
	}
	if cur == nil {
		t.Fatal("want a load issued for the new picture")
	}
	next, _ = m.Update(*cur)
	m = next.(Model)
	a := avatar.Resolve(chat.RoleUser, m.snap.Viewer, m.tracker, avatar.DefaultBrand)
	if a.Kind != avatar.KindInitial || a.Initial != "M" {
		t.Errorf("want fallback to M, got %+v", a)
	}
	if strings.Contains(ansi.Strip(m.View()), "loading avatar") {
		t.Error("header must drop the pending note once the load is resolved")
	}
}

func TestUpdate_ReloadWithIssuesKeepsOtherMessages(t *testing.T) {
	snap := snapshot("")
	snap.Messages = append(snap.Messages, chat.Message{ID: "bad", Type: chat.RoleAssistant, ContentType: chat.ContentText, Content: "42"})
	snap.Issues = []error{&chat.MessageError{Index: 2, ID: "bad", Err: errors.New("content: number")}}
	m := New(snapshot(""), Options{})
	next, _ := m.Update(msg.SnapshotLoaded{Snapshot: snap})
	m = next.(Model)
	if len(m.snap.Messages) != 3 || m.status != "" {
		t.Errorf("degraded message must not fail the reload, status %q", m.status)
	}
}

func TestUpdate_ImageForRemovedMessageIsDropped(t *testing.T) {
	m := New(snapshot(""), Options{Fetcher: fakeFetcher{}, Protocol: image.ProtocolKitty})
	m.Init()
	if !m.tracker.Pending("m2") {
		t.Fatal("want image load issued")
	}
	tk := avatar.Ticket{Key: "m2", URL: "https://img.example/rash.jpg"}

	snap := snapshot("")
	snap.Messages = snap.Messages[:1]
	next, _ := m.Update(msg.SnapshotLoaded{Snapshot: snap})
	m = next.(Model)

	next, _ = m.Update(msg.ImageLoaded{Ticket: tk, Data: []byte("png")})
	m = next.(Model)
	if len(m.images) != 0 {
		t.Error("image for a removed message must be dropped")
	}
}

func TestUpdate_NoImageLoadsWithoutProtocol(t *testing.T) {
	m := New(snapshot(""), Options{Fetcher: fakeFetcher{}, Protocol: image.ProtocolNone})
	m.Init()
	if m.tracker.Pending("m2") {
		t.Error("image bodies should not be fetched when the terminal cannot draw them")
	}
}

func TestUpdate_ToggleLoading(t *testing.T) {
	m := New(snapshot(""), Options{})
	next, cmd := m.Update(runes("l"))
	m = next.(Model)
	if !m.Loading() || cmd == nil {
		t.Fatal("want loading on with an animation tick scheduled")
	}
	if !strings.Contains(ansi.Strip(m.View()), conversation.DefaultLoadingCaption) {
		t.Errorf("want typing caption in view:\n%s", ansi.Strip(m.View()))
	}
	next, _ = m.Update(runes("l"))
	m = next.(Model)
	if m.Loading() {
		t.Error("want loading off")
	}
	if strings.Contains(ansi.Strip(m.View()), conversation.DefaultLoadingCaption) {
		t.Error("typing item must disappear as soon as loading is off")
	}
}

func TestUpdate_ReloadError(t *testing.T) {
	m := New(snapshot(""), Options{Loader: func() (chat.Snapshot, error) { return chat.Snapshot{}, errors.New("bad yaml") }})
	_, cmd := m.Update(runes("r"))
	if cmd == nil {
		t.Fatal("want reload command")
	}
	next, _ := m.Update(cmd())
	m = next.(Model)
	if !strings.Contains(m.View(), "reload failed") {
		t.Error("want reload error in status line")
	}
	if len(m.snap.Messages) != 2 {
		t.Error("failed reload must keep the previous conversation")
	}
}

func TestView_EmptyState(t *testing.T) {
	m := New(chat.Snapshot{}, Options{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if !strings.Contains(ansi.Strip(next.View()), conversation.DefaultEmptyTitle) {
		t.Error("want empty state")
	}
}
