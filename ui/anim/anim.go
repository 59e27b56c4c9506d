// Package anim drives the typing indicator in the terminal viewer: three
// dots whose brightness pulses with a fixed stagger between neighbours.
//
// The animation is a tick loop addressed by model ID. It is purely visual;
// stopping it never waits for a cycle to finish.
package anim

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

const (
	fps           = 12
	frameDuration = time.Second / fps
	// levels is the number of pre-rendered brightness steps per dot.
	levels = 8
)

// Glyph is the dot character.
const Glyph = "●"

// idCounter gives each Model a unique ID so TickMsg events don't cross-talk
// between indicators.
var idCounter atomic.Int64

// TickMsg is sent every animation frame. Only the model with a matching ID
// responds.
type TickMsg struct {
	ID int64
}

// Opts configures the indicator.
type Opts struct {
	Count   int           // number of dots, default 3
	Stagger time.Duration // phase offset between neighbouring dots, default 200ms
	Period  time.Duration // one full pulse, default 1.2s
	Dim     string        // hex color at rest, default #4B5563
	Bright  string        // hex color at peak, default #60A5FA
}

// Model is a pulsing-dots indicator following the Bubble Tea component
// pattern (value receiver Update/View, pointer receiver mutators).
type Model struct {
	id      int64
	opts    Opts
	running bool
	frame   int
	cache   []string // one rendered dot per brightness level
}

// New creates a Model. Unset fields get defaults.
func New(opts Opts) Model {
	if opts.Count <= 0 {
		opts.Count = 3
	}
	if opts.Stagger <= 0 {
		opts.Stagger = 200 * time.Millisecond
	}
	if opts.Period <= 0 {
		opts.Period = 1200 * time.Millisecond
	}
	if opts.Dim == "" {
		opts.Dim = "#4B5563"
	}
	if opts.Bright == "" {
		opts.Bright = "#60A5FA"
	}
	m := Model{id: idCounter.Add(1), opts: opts}
	m.cache = buildCache(opts.Dim, opts.Bright)
	return m
}

// ID returns the model's tick address.
func (m Model) ID() int64 { return m.id }

// Init starts the animation.
func (m Model) Init() (Model, tea.Cmd) {
	m.running = true
	return m, m.tick()
}

// Update advances one frame on each TickMsg addressed to this model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	tick, ok := msg.(TickMsg)
	if !ok || tick.ID != m.id || !m.running {
		return m, nil
	}
	m.frame++
	return m, m.tick()
}

// View renders the dots for the current frame, or "" when stopped.
func (m Model) View() string {
	if !m.running {
		return ""
	}
	return m.Render(m.frame)
}

// Render draws the dots at an arbitrary frame.
func (m Model) Render(frame int) string {
	dots := make([]string, m.opts.Count)
	for i := range dots {
		dots[i] = m.cache[m.Level(frame, i)]
	}
	return strings.Join(dots, " ")
}

// Level is the brightness step, in [0, levels), of dot i at frame.
func (m Model) Level(frame, i int) int {
	elapsed := time.Duration(frame)*frameDuration - time.Duration(i)*m.opts.Stagger
	phase := float64(elapsed%m.opts.Period) / float64(m.opts.Period)
	if phase < 0 {
		phase++
	}
	t := (1 - math.Cos(2*math.Pi*phase)) / 2
	l := int(math.Round(t * float64(levels-1)))
	return min(max(l, 0), levels-1)
}

// Start resumes the animation. Use Tick to schedule the first frame.
func (m *Model) Start() { m.running = true }

// Stop halts the animation immediately.
func (m *Model) Stop() { m.running = false }

// Running reports whether the animation is active.
func (m Model) Running() bool { return m.running }

// Tick schedules the next frame.
func (m Model) Tick() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(frameDuration, func(time.Time) tea.Msg {
		return TickMsg{ID: id}
	})
}

// buildCache pre-renders one dot per brightness level.
func buildCache(dim, bright string) []string {
	a, errA := colorful.Hex(dim)
	b, errB := colorful.Hex(bright)
	out := make([]string, levels)
	for i := range out {
		c := lipgloss.Color(bright)
		if errA == nil && errB == nil {
			c = lipgloss.Color(a.BlendLab(b, float64(i)/float64(levels-1)).Clamped().Hex())
		}
		out[i] = lipgloss.NewStyle().Foreground(c).Render(Glyph)
	}
	return out
}
