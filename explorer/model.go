// Package explorer is the terminal surface of the navigator. It is a
// bubbletea model that polls the runtime for frames and turns key presses
// into actions queued on the runtime loop. It never mutates state itself.
package explorer

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/scene"
)

const (
	orbitStep = 0.15 // radians per arrow press
	panStep   = 2.0  // world units per arrow press
)

// Config tunes the presentation.
type Config struct {
	// Width wraps the info panel.
	Width int
	// Style is a glamour style name: "dark", "light", "notty", "ascii".
	Style string
	// Tick is how often the model pulls a frame from the runtime.
	Tick time.Duration
	// ReducedMotion mirrors the runtime's starting camera profile so the
	// toggle key starts from the right side.
	ReducedMotion bool
}

// DefaultConfig renders 72 columns in the dark style at 30 frames a second.
func DefaultConfig() Config {
	return Config{Width: 72, Style: "dark", Tick: time.Second / 30}
}

type frameMsg scene.Frame

// Model is the explorer's bubbletea model. It is a value; every Update
// returns the next one.
type Model struct {
	rt   *scene.Runtime
	cfg  Config
	keys KeyMap
	help help.Model
	bar  progress.Model
	md   *glamour.TermRenderer
	st   styles

	frame   scene.Frame
	info    string
	infoID  string
	tours   []string
	tour    int
	reduced bool
}

// New builds an explorer over rt. The runtime loop must be running for
// key presses to take effect.
func New(rt *scene.Runtime, cfg Config) (Model, error) {
	def := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Style == "" {
		cfg.Style = def.Style
	}
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStylePath(cfg.Style),
		glamour.WithWordWrap(cfg.Width),
	)
	if err != nil {
		return Model{}, err
	}

	m := Model{
		rt:      rt,
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		md:      md,
		st:      defaultStyles(),
		tour:    -1,
		reduced: cfg.ReducedMotion,
	}
	for _, t := range rt.Atlas().Catalog().Tours() {
		m.tours = append(m.tours, t.ID)
	}
	m.setFrame(rt.Frame())
	return m, nil
}

// Init starts polling frames.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	rt := m.rt
	return tea.Tick(m.cfg.Tick, func(time.Time) tea.Msg {
		return frameMsg(rt.Frame())
	})
}

// Update handles frames, resizes and keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.setFrame(scene.Frame(msg))
		return m, m.tick()
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.bar.Width = max(10, min(msg.Width-30, 40))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) setFrame(f scene.Frame) {
	m.frame = f
	if id := f.Snapshot.SelectedProject; id != m.infoID {
		m.infoID = id
		m.info = m.renderInfo(id)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rt := m.rt
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Galaxy):
		i := int(msg.String()[0] - '1')
		rt.Do(func() { rt.ZoomToGalaxyAt(i) })
	case key.Matches(msg, m.keys.Back):
		rt.Do(rt.Back)
	case key.Matches(msg, m.keys.Home):
		rt.Do(rt.Reset)
	case key.Matches(msg, m.keys.OrbitLeft):
		rt.Do(func() { rt.Orbit(-orbitStep) })
	case key.Matches(msg, m.keys.OrbitRight):
		rt.Do(func() { rt.Orbit(orbitStep) })
	case key.Matches(msg, m.keys.PanIn):
		rt.Do(func() { rt.Pan(geom.Vec3{Z: -panStep}) })
	case key.Matches(msg, m.keys.PanOut):
		rt.Do(func() { rt.Pan(geom.Vec3{Z: panStep}) })
	case key.Matches(msg, m.keys.FocusNext):
		rt.Do(func() { rt.CycleFocus(1) })
	case key.Matches(msg, m.keys.FocusPrev):
		rt.Do(func() { rt.CycleFocus(-1) })
	case key.Matches(msg, m.keys.Scan):
		rt.Do(rt.PressScan)
	case key.Matches(msg, m.keys.Descend):
		rt.Do(func() { rt.Descend() })
	case key.Matches(msg, m.keys.Journey):
		m.tour = -1
		rt.Do(func() { rt.Journey().Start("") })
	case key.Matches(msg, m.keys.Tour):
		if len(m.tours) == 0 {
			break
		}
		m.tour = (m.tour + 1) % len(m.tours)
		id := m.tours[m.tour]
		rt.Do(func() { rt.Journey().Start(id) })
	case key.Matches(msg, m.keys.NextStop):
		rt.Do(func() { rt.Journey().Next() })
	case key.Matches(msg, m.keys.PrevStop):
		rt.Do(func() { rt.Journey().Prev() })
	case key.Matches(msg, m.keys.Pause):
		rt.Do(func() { rt.Journey().TogglePause() })
	case key.Matches(msg, m.keys.Motion):
		m.reduced = !m.reduced
		on := m.reduced
		rt.Do(func() { rt.SetReducedMotion(on) })
	}
	return m, nil
}

// Frame is the last frame the model has seen.
func (m Model) Frame() scene.Frame {
	return m.frame
}

// CurrentMode is the navigation view.
func (m Model) CurrentMode() string {
	return string(m.frame.Snapshot.View)
}

// CurrentFocus is the project picked with tab, empty when none.
func (m Model) CurrentFocus() string {
	return m.frame.Focus
}

// CheckCondition answers named questions about the last frame. Conditions
// that take an id are written "name:id", e.g. "scanned:caipo-ai"; a
// leading "!" negates.
func (m Model) CheckCondition(condition string) bool {
	if c, ok := strings.CutPrefix(condition, "!"); ok {
		return !m.CheckCondition(c)
	}
	name, arg, _ := strings.Cut(condition, ":")
	s := m.frame.Snapshot
	switch name {
	case "journey":
		return s.Journey.Active && (arg == "" || s.Journey.TourID == arg)
	case "paused":
		return s.Journey.Paused
	case "stop":
		return m.frame.Stop != nil && m.frame.Stop.Project.ID == arg
	case "scanning":
		return s.Scanning() && (arg == "" || s.ScanningProject == arg)
	case "scanned":
		if arg == "" {
			return len(s.Scanned) > 0
		}
		return s.IsScanned(arg)
	case "selected":
		return s.SelectedProject == arg
	case "galaxy":
		return s.SelectedGalaxy == arg
	case "target":
		if arg == "" {
			return m.frame.Target != ""
		}
		return m.frame.Target == arg
	case "landing":
		return s.IsLanding
	case "entered":
		return s.HasEntered
	case "flying":
		return m.frame.Flying
	case "help":
		return m.help.ShowAll
	case "reduced":
		return m.reduced
	}
	return false
}
