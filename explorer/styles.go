package explorer

import "github.com/charmbracelet/lipgloss"

type styles struct {
	Header   lipgloss.Style
	Crumb    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Hint     lipgloss.Style
	Success  lipgloss.Style
	Journey  lipgloss.Style
	Panel    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Header: lipgloss.NewStyle().
			Background(lipgloss.Color("#4c1d95")).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),
		Crumb:    lipgloss.NewStyle().Foreground(lipgloss.Color("#c4b5fd")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		Selected: lipgloss.NewStyle().Bold(true).Underline(true),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24")).Italic(true),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
		Journey: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0e7ff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("#6366f1")).
			PaddingLeft(1),
		Panel: lipgloss.NewStyle().PaddingLeft(1),
	}
}

// galaxy colors a galaxy name with the catalog's color for it.
func (s styles) galaxy(color string, selected bool) lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if selected {
		st = st.Inherit(s.Selected)
	}
	return st
}
