package explorer

import (
	"fmt"
	"strings"

	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/lod"
	"github.com/teranos/orrery/store"
)

// View renders the current frame.
func (m Model) View() string {
	var sections []string
	sections = append(sections, m.headerView(), m.galaxiesView())
	if s := m.projectsView(); s != "" {
		sections = append(sections, s)
	}
	if s := m.scanView(); s != "" {
		sections = append(sections, s)
	}
	if m.info != "" {
		sections = append(sections, m.st.Panel.Render(m.info))
	}
	if s := m.journeyView(); s != "" {
		sections = append(sections, s)
	}
	sections = append(sections, m.statusView(), m.help.View(m.keys))
	return strings.Join(sections, "\n\n") + "\n"
}

func (m Model) headerView() string {
	s := m.frame.Snapshot
	cat := m.rt.Atlas().Catalog()

	crumbs := []string{"Universe"}
	if g, _, ok := cat.Galaxy(s.SelectedGalaxy); ok {
		crumbs = append(crumbs, g.Name)
	}
	if p, _, ok := cat.Project(s.SelectedProject); ok {
		crumbs = append(crumbs, p.Title)
	}

	line := m.st.Header.Render("orrery") + " " + m.st.Crumb.Render(strings.Join(crumbs, " › "))
	line += m.st.Muted.Render(fmt.Sprintf("  [%s]", s.View))
	switch {
	case s.IsLanding:
		line += m.st.Hint.Render("  landing…")
	case !s.HasEntered:
		line += m.st.Hint.Render("  press 1-9 or j to begin")
	}
	return line
}

func (m Model) galaxiesView() string {
	sel := m.frame.Snapshot.SelectedGalaxy
	var parts []string
	for i, g := range m.rt.Atlas().Catalog().Galaxies() {
		label := fmt.Sprintf("%d %s", i+1, g.Name)
		if i >= 9 {
			label = "  " + g.Name
		}
		parts = append(parts, m.st.galaxy(g.Color, g.ID == sel).Render(label))
	}
	return strings.Join(parts, "  ")
}

func (m Model) projectsView() string {
	s := m.frame.Snapshot
	g, _, ok := m.rt.Atlas().Catalog().Galaxy(s.SelectedGalaxy)
	if !ok || s.View == store.Exploration {
		return ""
	}

	var lines []string
	for _, p := range g.Projects {
		cursor := "  "
		if p.ID == m.frame.Focus {
			cursor = "▸ "
		}
		mark := " "
		if s.IsScanned(p.ID) {
			mark = m.st.Success.Render("✓")
		}
		title := p.Title
		if p.ID == s.SelectedProject {
			title = m.st.Selected.Render(title)
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, title)
		if p.Size >= content.Large {
			line += m.st.Muted.Render("  " + p.Size.String())
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) scanView() string {
	f := m.frame
	s := f.Snapshot
	if f.Target == "" || s.View == store.Exploration {
		return ""
	}
	p, _, ok := m.rt.Atlas().Catalog().Project(f.Target)
	if !ok {
		return ""
	}

	switch {
	case s.ScanningProject == f.Target:
		return fmt.Sprintf("Scanning %s  %s", p.Title, m.bar.ViewAs(float64(s.ScanProgress)))
	case s.IsScanned(f.Target):
		if s.View == store.Project {
			return m.st.Success.Render(p.Title+" scanned") + m.st.Muted.Render("  enter to explore")
		}
		return m.st.Success.Render(p.Title+" scanned") + m.st.Muted.Render("  enter to approach")
	default:
		return m.st.Hint.Render("Hold space to scan " + p.Title)
	}
}

func (m Model) journeyView() string {
	f := m.frame
	j := f.Snapshot.Journey
	if !j.Active || f.Stop == nil {
		return ""
	}

	title := "Highlights"
	if t, ok := m.rt.Atlas().Catalog().Tour(j.TourID); ok {
		title = t.Title
	}
	head := fmt.Sprintf("Journey: %s · stop %d/%d · %s", title, j.Step+1, j.Stops, f.Stop.GalaxyName)
	if j.Paused {
		head += " · paused"
	}
	lines := []string{head}
	if f.Stop.Narrative != "" {
		lines = append(lines, f.Stop.Narrative)
	}
	if f.GalaxyChange {
		lines = append(lines, m.st.Muted.Render("new galaxy"))
	}
	return m.st.Journey.Render(strings.Join(lines, "\n"))
}

func (m Model) statusView() string {
	t := m.frame.Tiers
	status := fmt.Sprintf("lod %d high · %d medium · %d low", t[lod.High], t[lod.Medium], t[lod.Low])
	if m.frame.Flying {
		status += " · flying"
	}
	if m.frame.Query != "" {
		status += " · ?" + m.frame.Query
	}
	return m.st.Muted.Render(status)
}

// renderInfo renders the project panel as markdown.
func (m Model) renderInfo(id string) string {
	if id == "" {
		return ""
	}
	p, _, ok := m.rt.Atlas().Catalog().Project(id)
	if !ok {
		return ""
	}
	md := projectMarkdown(p)
	out, err := m.md.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func projectMarkdown(p content.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)

	var meta []string
	for _, s := range []string{p.Role, p.Company, p.DateRange} {
		if s != "" {
			meta = append(meta, s)
		}
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))
	}
	if d := strings.TrimSpace(p.Description); d != "" {
		b.WriteString(d + "\n\n")
	}
	if len(p.Tags) > 0 {
		tags := make([]string, len(p.Tags))
		for i, t := range p.Tags {
			tags[i] = "`" + t + "`"
		}
		b.WriteString(strings.Join(tags, " ") + "\n\n")
	}
	for _, mt := range p.Metrics {
		fmt.Fprintf(&b, "- **%s**: %s\n", mt.Label, mt.Value)
	}
	if len(p.Metrics) > 0 {
		b.WriteString("\n")
	}
	for _, l := range p.Links {
		fmt.Fprintf(&b, "- [%s](%s)\n", l.Label, l.URL)
	}
	return b.String()
}
