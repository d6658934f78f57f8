// Package journey runs guided tours: it resolves a tour into stops, walks
// the store through them and advances on a timer.
package journey

import (
	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/trip"
)

// Stop is one resolved step of a tour.
type Stop struct {
	GalaxyID        string          `json:"galaxy_id"`
	GalaxyName      string          `json:"galaxy_name"`
	GalaxyColor     string          `json:"galaxy_color"`
	GalaxyCenter    geom.Vec3       `json:"galaxy_center"`
	Project         content.Project `json:"project"`
	ProjectPosition geom.Vec3       `json:"project_position"`
	Narrative       string          `json:"narrative,omitempty"`
}

// Resolve turns a tour id into stops. The empty id is the default tour: the
// featured (or first) project of every non-empty galaxy, in galaxy order.
// A named tour keeps its authored order and drops stops whose project does
// not exist, recording a tour-content trip for each. ok is false only for an
// unknown tour id.
func Resolve(atlas *layout.Atlas, tourID string, trips *trip.Handler) ([]Stop, bool) {
	cat := atlas.Catalog()

	if tourID == "" {
		var stops []Stop
		for _, g := range cat.Galaxies() {
			p, ok := g.Featured()
			if !ok {
				continue
			}
			stops = append(stops, makeStop(atlas, p, ""))
		}
		return stops, true
	}

	tour, ok := cat.Tour(tourID)
	if !ok {
		if trips != nil {
			trips.Record(trip.UnknownID("startJourney", "tour", tourID))
		}
		return nil, false
	}

	stops := make([]Stop, 0, len(tour.Stops))
	for i, ts := range tour.Stops {
		p, _, ok := cat.Project(ts.ProjectID)
		if !ok {
			if trips != nil {
				trips.Record(trip.SkippedStop(tourID, ts.ProjectID, i))
			}
			continue
		}
		stops = append(stops, makeStop(atlas, p, ts.Narrative))
	}
	return stops, true
}

func makeStop(atlas *layout.Atlas, p content.Project, narrative string) Stop {
	g, _, _ := atlas.Catalog().Galaxy(p.Galaxy)
	center, _ := atlas.GalaxyCenter(p.Galaxy)
	pos, _ := atlas.ProjectPosition(p.ID)
	return Stop{
		GalaxyID:        g.ID,
		GalaxyName:      g.Name,
		GalaxyColor:     g.Color,
		GalaxyCenter:    center,
		Project:         p,
		ProjectPosition: pos,
		Narrative:       narrative,
	}
}

// IsGalaxyChange reports whether stop n lies in a different galaxy than
// stop n-1. The first stop and out-of-range indexes report false.
func IsGalaxyChange(stops []Stop, n int) bool {
	if n <= 0 || n >= len(stops) {
		return false
	}
	return stops[n].GalaxyID != stops[n-1].GalaxyID
}
