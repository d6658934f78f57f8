package layout

import (
	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/geom"
)

// Placed is a project with its world position.
type Placed struct {
	Project content.Project
	Pos     geom.Vec3
}

// Atlas answers position queries by id for one catalog. It holds no
// positions of its own; every answer is recomputed through the Generator.
type Atlas struct {
	catalog *content.Catalog
	gen     *Generator
}

// NewAtlas binds a generator to a catalog.
func NewAtlas(catalog *content.Catalog, gen *Generator) *Atlas {
	return &Atlas{catalog: catalog, gen: gen}
}

// Catalog returns the bound catalog.
func (a *Atlas) Catalog() *content.Catalog {
	return a.catalog
}

// Generator returns the bound generator.
func (a *Atlas) Generator() *Generator {
	return a.gen
}

// GalaxyCenter returns the center of galaxy id.
func (a *Atlas) GalaxyCenter(id string) (geom.Vec3, bool) {
	_, idx, ok := a.catalog.Galaxy(id)
	if !ok {
		return geom.Vec3{}, false
	}
	return a.gen.GalaxyCenter(idx), true
}

// ProjectPosition returns the position of project id.
func (a *Atlas) ProjectPosition(id string) (geom.Vec3, bool) {
	p, ref, ok := a.catalog.Project(id)
	if !ok {
		return geom.Vec3{}, false
	}
	return a.gen.Position(p.ID, ref.GalaxyID, ref.GalaxyIndex, ref.ProjectIndex, ref.Total), true
}

// Projects places every project in catalog order.
func (a *Atlas) Projects() []Placed {
	var out []Placed
	for gi, g := range a.catalog.Galaxies() {
		for pi, p := range g.Projects {
			out = append(out, Placed{
				Project: p,
				Pos:     a.gen.Position(p.ID, g.ID, gi, pi, len(g.Projects)),
			})
		}
	}
	return out
}
