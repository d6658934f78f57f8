// Package layout maps content identity to world coordinates.
//
// Positions are a pure function of (projectID, galaxyID, galaxyIndex,
// projectIndex, total). There is no table to keep in sync: the minimap, the
// tour trail and the camera each call Position and always agree.
package layout

import (
	"hash/fnv"

	"github.com/chewxy/math32"

	"github.com/teranos/orrery/geom"
)

// MinSeparation is the distance every pair of projects in one galaxy is
// guaranteed to exceed with the default Config.
const MinSeparation float32 = 2.0

// goldenAngle twists each ring against the previous one so rings do not line up.
const goldenAngle float32 = 2.39996323

// Config shapes the galaxy ring and the per-galaxy project rings.
type Config struct {
	GalaxySlots  int     `yaml:"galaxy_slots" env:"GALAXY_SLOTS"` // galaxies per ring around the origin
	RingRadius   float32 `yaml:"ring_radius" env:"RING_RADIUS"`   // radius of the first galaxy ring
	InnerRadius  float32 `yaml:"inner_radius"`                    // radius of the first project ring
	RingGap      float32 `yaml:"ring_gap"`                        // distance between project rings
	SlotArc      float32 `yaml:"slot_arc"`                        // minimum arc length per project
	Jitter       float32 `yaml:"jitter"`                          // max radial and tangential offset
	HeightJitter float32 `yaml:"height_jitter"`                   // max vertical offset
}

// DefaultConfig places six galaxies on a ring of radius 25 and projects
// between 3 and roughly 12 units from their galaxy center.
func DefaultConfig() Config {
	return Config{
		GalaxySlots:  6,
		RingRadius:   25,
		InnerRadius:  3,
		RingGap:      3,
		SlotArc:      3.2,
		Jitter:       0.25,
		HeightJitter: 0.5,
	}
}

// Generator computes positions. The zero value is not usable; use New.
type Generator struct {
	cfg Config
}

// New returns a Generator for cfg. Non-positive fields fall back to defaults.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.GalaxySlots <= 0 {
		cfg.GalaxySlots = def.GalaxySlots
	}
	if cfg.RingRadius <= 0 {
		cfg.RingRadius = def.RingRadius
	}
	if cfg.InnerRadius <= 0 {
		cfg.InnerRadius = def.InnerRadius
	}
	if cfg.RingGap <= 0 {
		cfg.RingGap = def.RingGap
	}
	if cfg.SlotArc <= 0 {
		cfg.SlotArc = def.SlotArc
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if cfg.HeightJitter < 0 {
		cfg.HeightJitter = 0
	}
	return &Generator{cfg: cfg}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// GalaxyCenter distributes galaxies evenly around the origin. Indexes past
// GalaxySlots continue on a larger ring instead of overlapping the first.
func (g *Generator) GalaxyCenter(galaxyIndex int) geom.Vec3 {
	if galaxyIndex < 0 {
		galaxyIndex = 0
	}
	ring := galaxyIndex / g.cfg.GalaxySlots
	slot := galaxyIndex % g.cfg.GalaxySlots
	angle := float32(slot) / float32(g.cfg.GalaxySlots) * geom.TwoPi
	radius := g.cfg.RingRadius * float32(ring+1)
	return geom.OnRing(geom.Vec3{}, radius, angle, 0)
}

// Position returns the world position of a project. Projects fill
// concentric rings around the galaxy center; each ring holds as many as fit
// at SlotArc spacing. The hash of the ids only perturbs a project inside its
// own slot, so separation holds for any ids.
func (g *Generator) Position(projectID, galaxyID string, galaxyIndex, projectIndex, total int) geom.Vec3 {
	if projectIndex < 0 {
		projectIndex = 0
	}
	if total <= projectIndex {
		total = projectIndex + 1
	}

	ring, slot, count := g.slot(projectIndex, total)
	radius := g.cfg.InnerRadius + float32(ring)*g.cfg.RingGap

	// count >= 1 always, so the spacing is finite even for a lone project.
	spacing := geom.TwoPi / float32(count)
	phase := unit(hashString(galaxyID))*geom.TwoPi + float32(ring)*goldenAngle

	rng := newMulberry32(seed(projectID, galaxyID))
	radial := (rng.float32()*2 - 1) * g.cfg.Jitter
	tangential := (rng.float32()*2 - 1) * g.cfg.Jitter
	height := (rng.float32()*2 - 1) * g.cfg.HeightJitter

	angle := phase + float32(slot)*spacing + tangential/radius
	return geom.OnRing(g.GalaxyCenter(galaxyIndex), radius+radial, angle, height)
}

// RingCapacity is how many projects fit on ring k.
func (g *Generator) RingCapacity(k int) int {
	r := g.cfg.InnerRadius + float32(k)*g.cfg.RingGap
	n := int(math32.Floor(geom.TwoPi * r / g.cfg.SlotArc))
	if n < 1 {
		return 1
	}
	return n
}

// slot locates index i among total projects: ring number, position on the
// ring and how many projects share that ring.
func (g *Generator) slot(i, total int) (ring, slot, count int) {
	start := 0
	for k := 0; ; k++ {
		capacity := g.RingCapacity(k)
		if i < start+capacity {
			count = capacity
			if remaining := total - start; remaining < count {
				count = remaining
			}
			return k, i - start, count
		}
		start += capacity
	}
}

func seed(projectID, galaxyID string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(projectID))
	h.Write([]byte{0})
	h.Write([]byte(galaxyID))
	return h.Sum32()
}

func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func unit(h uint32) float32 {
	return newMulberry32(h).float32()
}

// mulberry32 is a tiny seeded PRNG with good avalanche on consecutive seeds.
type mulberry32 struct {
	state uint32
}

func newMulberry32(seed uint32) *mulberry32 {
	return &mulberry32{state: seed}
}

func (m *mulberry32) next() uint32 {
	m.state += 0x6d2b79f5
	t := m.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return t ^ (t >> 14)
}

// float32 returns a value in [0, 1).
func (m *mulberry32) float32() float32 {
	// 24 bits keep the result strictly below 1 after float32 rounding.
	return float32(m.next()>>8) / (1 << 24)
}
