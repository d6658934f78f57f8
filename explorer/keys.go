package explorer

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the explorer's keyboard surface.
type KeyMap struct {
	Galaxy     key.Binding
	Back       key.Binding
	Home       key.Binding
	OrbitLeft  key.Binding
	OrbitRight key.Binding
	PanIn      key.Binding
	PanOut     key.Binding
	FocusNext  key.Binding
	FocusPrev  key.Binding
	Scan       key.Binding
	Descend    key.Binding
	Journey    key.Binding
	Tour       key.Binding
	NextStop   key.Binding
	PrevStop   key.Binding
	Pause      key.Binding
	Motion     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Galaxy: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "galaxy"),
		),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Home:       key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "universe")),
		OrbitLeft:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "orbit left")),
		OrbitRight: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "orbit right")),
		PanIn:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "pan in")),
		PanOut:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "pan out")),
		FocusNext:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next project")),
		FocusPrev:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous project")),
		Scan:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "hold to scan")),
		Descend:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "approach")),
		Journey:    key.NewBinding(key.WithKeys("j"), key.WithHelp("j", "journey")),
		Tour:       key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "next tour")),
		NextStop:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next stop")),
		PrevStop:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "previous stop")),
		Pause:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Motion:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "reduced motion")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Galaxy, k.Scan, k.Descend, k.Back, k.Journey, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Galaxy, k.Back, k.Home, k.Descend},
		{k.FocusNext, k.FocusPrev, k.Scan},
		{k.OrbitLeft, k.OrbitRight, k.PanIn, k.PanOut, k.Motion},
		{k.Journey, k.Tour, k.NextStop, k.PrevStop, k.Pause},
		{k.Help, k.Quit},
	}
}
