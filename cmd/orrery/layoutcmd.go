package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teranos/orrery/geom"
)

type placedJSON struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Galaxy string    `json:"galaxy"`
	Size   string    `json:"size"`
	Pos    geom.Vec3 `json:"position"`
}

type galaxyJSON struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Center geom.Vec3 `json:"center"`
}

type layoutJSON struct {
	Galaxies []galaxyJSON `json:"galaxies"`
	Projects []placedJSON `json:"projects"`
}

func newLayoutCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the world position of every galaxy and project",
		Long: `Prints galaxy centers and project positions. Positions depend only on the
catalog order and the layout settings, so the output is stable across runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := a.atlas()
			if err != nil {
				return err
			}

			var doc layoutJSON
			for _, g := range atlas.Catalog().Galaxies() {
				c, _ := atlas.GalaxyCenter(g.ID)
				doc.Galaxies = append(doc.Galaxies, galaxyJSON{ID: g.ID, Name: g.Name, Center: c})
			}
			for _, p := range atlas.Projects() {
				doc.Projects = append(doc.Projects, placedJSON{
					ID:     p.Project.ID,
					Title:  p.Project.Title,
					Galaxy: p.Project.Galaxy,
					Size:   p.Project.Size.String(),
					Pos:    p.Pos,
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GALAXY\tPROJECT\tSIZE\tX\tY\tZ")
			for _, g := range doc.Galaxies {
				fmt.Fprintf(w, "%s\t-\t-\t%.2f\t%.2f\t%.2f\n", g.ID, g.Center.X, g.Center.Y, g.Center.Z)
			}
			for _, p := range doc.Projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\n", p.Galaxy, p.ID, p.Size, p.Pos.X, p.Pos.Y, p.Pos.Z)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}
