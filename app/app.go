// Package app is the interactive terminal viewer: a scrollable conversation
// that reloads from disk, toggles the typing indicator and resolves avatar
// and image loads in the background.
package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/msg"
	"github.com/arogya-ai/chatview/style"
	"github.com/arogya-ai/chatview/ui/anim"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
	"github.com/arogya-ai/chatview/ui/image"
	"github.com/arogya-ai/chatview/ui/message"
	"github.com/arogya-ai/chatview/ui/termview"
)

// viewerKey is the tracker key of the viewer's avatar.
const viewerKey = "viewer:"

// Fetcher loads image bytes. *client.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (*client.Image, error)
}

// Loader reads the conversation snapshot, e.g. from a file.
type Loader func() (chat.Snapshot, error)

// Options configures the viewer.
type Options struct {
	Title        string
	Conversation conversation.Options
	Fetcher      Fetcher
	Loader       Loader
	Timeout      time.Duration
	Protocol     image.Protocol
	// Width fixes the render width; 0 follows the terminal.
	Width  int
	Logger *zap.Logger
}

// Model is the bubbletea model of the viewer.
type Model struct {
	opts    Options
	snap    chat.Snapshot
	loading bool
	tracker *avatar.Tracker
	images  map[string][]byte
	dots    anim.Model
	vp      viewport.Model
	keys    KeyMap
	log     *zap.Logger
	width   int
	height  int
	status  string
}

// New creates the viewer for an initial snapshot.
func New(snap chat.Snapshot, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "chatview"
	}
	t := style.Current()
	m := Model{
		opts:    opts,
		snap:    snap,
		loading: snap.Loading,
		tracker: avatar.NewTracker(),
		images:  make(map[string][]byte),
		dots:    anim.New(anim.Opts{Count: conversation.DotCount, Stagger: conversation.DotStagger * time.Millisecond, Dim: hex(t.Dim), Bright: hex(t.Secondary)}),
		vp:      viewport.New(80, 20),
		keys:    DefaultKeyMap(),
		log:     opts.Logger,
		width:   80,
		height:  24,
	}
	if m.loading {
		m.dots.Start()
	}
	m.logIssues()
	m.refresh()
	return m
}

func (m Model) logIssues() {
	for _, err := range m.snap.Issues {
		m.log.Warn("message shown as plain text", zap.Error(err))
	}
}

func viewerURL(v *chat.Viewer) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.AvatarImageURL)
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.WindowSize()}
	cmds = append(cmds, m.loadCmds()...)
	if m.loading {
		cmds = append(cmds, m.dots.Tick())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(raw tea.Msg) (tea.Model, tea.Cmd) {
	switch v := raw.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = v.Width, v.Height
		m.vp.Width = v.Width
		m.vp.Height = max(v.Height-2, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(v, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(v, m.keys.Reload):
			return m, m.reload()
		case key.Matches(v, m.keys.ToggleLoading):
			return m.setLoading(!m.loading)
		case key.Matches(v, m.keys.Top):
			m.vp.GotoTop()
			return m, nil
		case key.Matches(v, m.keys.Bottom):
			m.vp.GotoBottom()
			return m, nil
		}

	case msg.LoadingToggled:
		return m.setLoading(!m.loading)

	case anim.TickMsg:
		var cmd tea.Cmd
		m.dots, cmd = m.dots.Update(v)
		if m.loading {
			m.refresh()
		}
		return m, cmd

	case msg.AvatarLoaded:
		if !m.tracker.Complete(v.Ticket, v.Err == nil) {
			m.log.Debug("stale avatar load dropped", zap.String("key", v.Ticket.Key))
			return m, nil
		}
		if v.Err != nil {
			m.log.Info("avatar unavailable, falling back", zap.String("url", v.Ticket.URL), zap.Error(v.Err))
		}
		m.refresh()
		return m, nil

	case msg.ImageLoaded:
		if !m.tracker.Complete(v.Ticket, v.Err == nil) {
			m.log.Debug("stale image load dropped", zap.String("key", v.Ticket.Key))
			return m, nil
		}
		if v.Err != nil {
			m.log.Info("image unavailable", zap.String("key", v.Ticket.Key), zap.Error(v.Err))
		} else {
			m.images[v.Ticket.URL] = v.Data
		}
		m.refresh()
		return m, nil

	case msg.SnapshotLoaded:
		if v.Err != nil {
			m.status = "reload failed: " + v.Err.Error()
			m.log.Warn("reload failed", zap.Error(v.Err))
			return m, nil
		}
		m.status = ""
		if viewerURL(m.snap.Viewer) != viewerURL(v.Snapshot.Viewer) {
			// A different identity: nothing in flight is still wanted.
			m.tracker.Invalidate()
		}
		m.snap = v.Snapshot
		m.logIssues()
		displayed := m.displayedKeys()
		m.tracker.Retain(func(k string) bool { return displayed[k] })
		mdl, cmd := m.setLoading(v.Snapshot.Loading)
		m = mdl.(Model)
		m.refresh()
		return m, tea.Batch(append(m.loadCmds(), cmd)...)
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(raw)
	return m, cmd
}

func (m Model) View() string {
	header := style.Bold.Render(m.opts.Title)
	if n := len(m.snap.Messages); n > 0 {
		header += style.Faint.Render("  " + pluralize(n, "message"))
	}
	if m.tracker.Pending(viewerKey) {
		header += style.Faint.Render("  · loading avatar")
	}
	var help []string
	for _, b := range m.keys.Help() {
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}
	footer := style.Faint.Render(strings.Join(help, " • "))
	if m.status != "" {
		footer = style.Faint.Render(m.status)
	}
	return header + "\n" + m.vp.View() + "\n" + footer
}

// Loading reports the current loading flag.
func (m Model) Loading() bool { return m.loading }

func (m Model) setLoading(on bool) (tea.Model, tea.Cmd) {
	if on == m.loading {
		return m, nil
	}
	m.loading = on
	var cmd tea.Cmd
	if on {
		m.dots.Start()
		cmd = m.dots.Tick()
	} else {
		m.dots.Stop()
	}
	m.refresh()
	return m, cmd
}

func (m Model) reload() tea.Cmd {
	if m.opts.Loader == nil {
		return nil
	}
	load := m.opts.Loader
	return func() tea.Msg {
		snap, err := load()
		return msg.SnapshotLoaded{Snapshot: snap, Err: err}
	}
}

// loadCmds issues one background load per unresolved image: the viewer's
// avatar and, when the terminal can draw them, image message bodies.
func (m Model) loadCmds() []tea.Cmd {
	if m.opts.Fetcher == nil {
		return nil
	}
	var cmds []tea.Cmd
	if v := m.snap.Viewer; v != nil {
		if tk, ok := m.tracker.Begin(viewerKey, strings.TrimSpace(v.AvatarImageURL)); ok {
			cmds = append(cmds, m.fetch(tk, func(tk avatar.Ticket, _ []byte, err error) tea.Msg {
				return msg.AvatarLoaded{Ticket: tk, Err: err}
			}))
		}
	}
	if m.opts.Protocol == image.ProtocolNone {
		return cmds
	}
	for _, it := range m.snap.Messages {
		if it.ContentType != chat.ContentImage {
			continue
		}
		src, ok := message.SafeImageSrc(it.Content)
		if !ok {
			continue
		}
		if tk, ok := m.tracker.Begin(it.ID, src); ok {
			cmds = append(cmds, m.fetch(tk, func(tk avatar.Ticket, data []byte, err error) tea.Msg {
				return msg.ImageLoaded{Ticket: tk, Data: data, Err: err}
			}))
		}
	}
	return cmds
}

func (m Model) fetch(tk avatar.Ticket, done func(avatar.Ticket, []byte, error) tea.Msg) tea.Cmd {
	f, timeout := m.opts.Fetcher, m.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		img, err := f.Fetch(ctx, tk.URL)
		if err != nil {
			return done(tk, nil, err)
		}
		return done(tk, img.Data, nil)
	}
}

func (m Model) displayedKeys() map[string]bool {
	keys := map[string]bool{viewerKey: m.snap.Viewer != nil}
	for _, it := range m.snap.Messages {
		keys[it.ID] = true
	}
	return keys
}

// refresh re-renders the conversation into the viewport, keeping the
// scroll position unless the view was already at the bottom.
func (m *Model) refresh() {
	opts := m.opts.Conversation
	opts.Item.Probe = m.tracker
	root := conversation.Render(m.snap.Messages, m.loading, m.snap.Viewer, opts)

	width := m.opts.Width
	if width <= 0 {
		width = m.width
	}
	follow := m.vp.AtBottom() || m.vp.TotalLineCount() == 0
	m.vp.SetContent(termview.Render(root, termview.Options{
		Width: width,
		Dots:  m.dots.View(),
		Image: m.drawImage,
	}))
	if follow {
		m.vp.GotoBottom()
	}
}

func (m *Model) drawImage(_, src string, width int) string {
	if data, ok := m.images[src]; ok {
		return image.Render(m.opts.Protocol, data, src, min(width, 40))
	}
	return image.Placeholder(src)
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// hex extracts a hex color from a theme color, or "" for ANSI indexes.
func hex(c lipgloss.TerminalColor) string {
	if v, ok := c.(lipgloss.Color); ok && strings.HasPrefix(string(v), "#") {
		return string(v)
	}
	return ""
}
