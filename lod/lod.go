// Package lod classifies entities into detail tiers by camera distance.
//
// Each entity carries a three-state machine (High, Medium, Low) that only
// moves between adjacent tiers and only once the distance clears a
// threshold by the hysteresis buffer. Hovering the camera on a boundary
// therefore never flickers.
package lod

import (
	"errors"
	"fmt"

	"github.com/teranos/orrery/geom"
)

// Tier is a detail level. Higher tiers get more geometry and effects.
type Tier int

const (
	Low Tier = iota
	Medium
	High
)

func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// ErrThresholds is returned by Thresholds.Validate.
var ErrThresholds = errors.New("invalid lod thresholds")

// Thresholds are the two tier boundaries plus the hysteresis buffer.
type Thresholds struct {
	Near   float32 `yaml:"near" env:"NEAR"`
	Medium float32 `yaml:"medium" env:"MEDIUM"`
	Buffer float32 `yaml:"buffer" env:"BUFFER"`
}

// DefaultThresholds matches the scan range: anything close enough to scan
// renders at full detail.
func DefaultThresholds() Thresholds {
	return Thresholds{Near: 15, Medium: 40, Buffer: 2}
}

// Validate checks that the two hysteresis bands are well formed and do not
// overlap.
func (th Thresholds) Validate() error {
	switch {
	case th.Buffer < 0:
		return fmt.Errorf("%w: buffer %.2f is negative", ErrThresholds, th.Buffer)
	case th.Near >= th.Medium:
		return fmt.Errorf("%w: near %.2f must be below medium %.2f", ErrThresholds, th.Near, th.Medium)
	case th.Near-th.Buffer <= 0:
		return fmt.Errorf("%w: near band reaches the camera", ErrThresholds)
	case th.Near+th.Buffer >= th.Medium-th.Buffer:
		return fmt.Errorf("%w: near and medium bands overlap", ErrThresholds)
	}
	return nil
}

// Classify maps a distance to a tier with no history. Used for the first
// observation of an entity.
func (th Thresholds) Classify(distance float32) Tier {
	switch {
	case distance <= th.Near:
		return High
	case distance <= th.Medium:
		return Medium
	default:
		return Low
	}
}

// Tracker is the per-entity state machine.
type Tracker struct {
	tier    Tier
	primed  bool
	changes int
}

// Tier returns the current tier. An unobserved tracker reports Low.
func (t *Tracker) Tier() Tier {
	return t.tier
}

// Changes counts tier transitions since the first observation.
func (t *Tracker) Changes() int {
	return t.changes
}

// Observe feeds one distance sample and returns the resulting tier and
// whether it changed. At most one adjacent step is taken per call, so a
// jump from far to near passes through Medium on the way.
func (t *Tracker) Observe(th Thresholds, distance float32) (Tier, bool) {
	if !t.primed {
		t.primed = true
		t.tier = th.Classify(distance)
		return t.tier, false
	}

	next := t.tier
	switch t.tier {
	case High:
		if distance > th.Near+th.Buffer {
			next = Medium
		}
	case Medium:
		if distance < th.Near-th.Buffer {
			next = High
		} else if distance > th.Medium+th.Buffer {
			next = Low
		}
	case Low:
		if distance < th.Medium-th.Buffer {
			next = Medium
		}
	}

	if next == t.tier {
		return t.tier, false
	}
	t.tier = next
	t.changes++
	return next, true
}

// Change reports a tier transition of one entity.
type Change struct {
	ID   string
	From Tier
	To   Tier
}

type entity struct {
	id      string
	pos     geom.Vec3
	tracker Tracker
}

// Manager tracks a fixed set of entities. Update is O(1) per entity and
// never compares entities with each other. Not safe for concurrent use: it
// is driven from the frame loop only.
type Manager struct {
	th       Thresholds
	entities []*entity
	index    map[string]*entity
}

// NewManager builds a manager. Invalid thresholds are rejected.
func NewManager(th Thresholds) (*Manager, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Manager{th: th, index: make(map[string]*entity)}, nil
}

// Register adds an entity at a fixed world position. Registering an id
// again moves it and keeps its tier.
func (m *Manager) Register(id string, pos geom.Vec3) {
	if e, ok := m.index[id]; ok {
		e.pos = pos
		return
	}
	e := &entity{id: id, pos: pos}
	m.entities = append(m.entities, e)
	m.index[id] = e
}

// Update classifies every entity against the camera position and returns
// the transitions taken this frame.
func (m *Manager) Update(camera geom.Vec3) []Change {
	var changes []Change
	for _, e := range m.entities {
		from := e.tracker.tier
		to, changed := e.tracker.Observe(m.th, e.pos.Dist(camera))
		if changed {
			changes = append(changes, Change{ID: e.id, From: from, To: to})
		}
	}
	return changes
}

// Tier returns the current tier of id.
func (m *Manager) Tier(id string) (Tier, bool) {
	e, ok := m.index[id]
	if !ok {
		return Low, false
	}
	return e.tracker.tier, true
}

// Counts returns how many entities sit in each tier.
func (m *Manager) Counts() map[Tier]int {
	counts := map[Tier]int{Low: 0, Medium: 0, High: 0}
	for _, e := range m.entities {
		counts[e.tracker.tier]++
	}
	return counts
}

// Len is the number of registered entities.
func (m *Manager) Len() int {
	return len(m.entities)
}

// Thresholds returns the manager's thresholds.
func (m *Manager) Thresholds() Thresholds {
	return m.th
}
