package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/trip"
)

func newCheckCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the catalog, its tours and its layout",
		Long: `Loads the catalog (schema and duplicate ids are checked on load), resolves
the default journey and every named tour, and checks that no two projects of
a galaxy are placed closer than the minimum separation.

Tour stops that name missing projects are reported but only fail the check
with --strict.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			atlas, err := a.atlas()
			if err != nil {
				return err
			}
			cat := atlas.Catalog()
			out := cmd.OutOrStdout()
			trips := a.trips()

			fmt.Fprintf(out, "catalog: %d galaxies, %d projects, %d tours\n",
				cat.Len(), len(cat.Projects()), len(cat.Tours()))
			if d := cat.Digest(); d != "" {
				fmt.Fprintf(out, "digest:  %s\n", d)
			}

			stops, _ := journey.Resolve(atlas, "", trips)
			fmt.Fprintf(out, "journey: default, %d stops\n", len(stops))
			for _, t := range cat.Tours() {
				stops, _ := journey.Resolve(atlas, t.ID, trips)
				fmt.Fprintf(out, "journey: %s, %d of %d stops\n", t.ID, len(stops), len(t.Stops))
			}
			for _, s := range trips.GetStumbles() {
				if s.Type != trip.TourContent {
					continue
				}
				tour, _ := s.GetContext("tour")
				project, _ := s.GetContext("project")
				index, _ := s.GetContext("index")
				fmt.Fprintf(out, "missing: %v stop %v names %v\n", tour, index, project)
			}

			pairs := crowdedPairs(atlas)
			for _, c := range pairs {
				fmt.Fprintf(out, "layout:  %s and %s are %.2f apart\n", c.a, c.b, c.dist)
			}

			if trips.HasStumbles() {
				fmt.Fprintln(out)
				fmt.Fprint(out, trips.DetailedReport())
			}
			a.logger.Info("check finished",
				zap.String("summary", trips.Summary()),
				zap.Int("crowded", len(pairs)))

			if len(pairs) > 0 {
				return fmt.Errorf("layout: %d project pairs closer than %.1f", len(pairs), layout.MinSeparation)
			}
			if strict && trips.HasStumbles() {
				return fmt.Errorf("catalog: %s", trips.Summary())
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on tour stops that name missing projects")
	return cmd
}

type crowded struct {
	a, b string
	dist float32
}

// crowdedPairs lists project pairs of one galaxy placed within
// layout.MinSeparation of each other.
func crowdedPairs(atlas *layout.Atlas) []crowded {
	byGalaxy := map[string][]layout.Placed{}
	for _, p := range atlas.Projects() {
		byGalaxy[p.Project.Galaxy] = append(byGalaxy[p.Project.Galaxy], p)
	}

	var out []crowded
	for _, g := range atlas.Catalog().Galaxies() {
		placed := byGalaxy[g.ID]
		for i := range placed {
			for j := i + 1; j < len(placed); j++ {
				if d := placed[i].Pos.Dist(placed[j].Pos); d < layout.MinSeparation {
					out = append(out, crowded{placed[i].Project.ID, placed[j].Project.ID, d})
				}
			}
		}
	}
	return out
}
