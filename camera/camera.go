// Package camera moves the viewpoint toward whatever the store says we are
// looking at.
//
// The Controller keeps one Transition. A new destination snapshots the
// current pose and starts over from t = 0; progress advances by dt times the
// profile speed and is eased with a cubic ease-out. At t >= 1 the pose is
// set to the destination itself, so repeated flights never drift.
package camera

import (
	"go.uber.org/zap"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/store"
	"github.com/teranos/orrery/trip"
)

// Pose is a camera position and the point it looks at.
type Pose struct {
	Position geom.Vec3 `json:"position"`
	LookAt   geom.Vec3 `json:"look_at"`
}

// Lerp interpolates both parts of the pose.
func (p Pose) Lerp(to Pose, t float32) Pose {
	return Pose{Position: p.Position.Lerp(to.Position, t), LookAt: p.LookAt.Lerp(to.LookAt, t)}
}

// Profile is a transition speed in progress units per second.
type Profile struct {
	Name  string
	Speed float32
}

var (
	// Cinematic takes one and a half seconds per flight.
	Cinematic = Profile{Name: "cinematic", Speed: 1 / 1.5}
	// ReducedMotion settles in a quarter second.
	ReducedMotion = Profile{Name: "reduced-motion", Speed: 4}
)

// Offsets from the target to the camera for each view.
var (
	UniversePose      = Pose{Position: geom.V3(0, 30, 60)}
	GalaxyOffset      = geom.V3(0, 15, 25)
	ProjectOffset     = geom.V3(3, 2, 8)
	ExplorationOffset = geom.V3(1.2, 0.8, 3)
)

// IdleOrbitSpeed is the ambient drift in radians per second.
const IdleOrbitSpeed float32 = 0.05

// Locator resolves ids to world positions.
type Locator interface {
	GalaxyCenter(id string) (geom.Vec3, bool)
	ProjectPosition(id string) (geom.Vec3, bool)
}

// Transition is the active flight.
type Transition struct {
	From    Pose
	To      Pose
	T       float32
	Profile Profile
}

// EaseOutCubic is 1 - (1-t)^3.
func EaseOutCubic(t float32) float32 {
	u := 1 - t
	return 1 - u*u*u
}

// Controller animates the camera. Driven from the frame loop only.
type Controller struct {
	loc     Locator
	profile Profile
	trips   *trip.Handler
	logger  *zap.Logger

	pose    Pose
	dest    string
	waiting string
	tr      *Transition
}

// NewController starts at the universe pose.
func NewController(loc Locator, profile Profile, trips *trip.Handler, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if trips == nil {
		trips = trip.NewHandler("camera", nil)
	}
	if profile.Speed <= 0 {
		profile = Cinematic
	}
	return &Controller{
		loc:     loc,
		profile: profile,
		trips:   trips,
		logger:  logger,
		pose:    UniversePose,
		dest:    destinationKey(store.Snapshot{View: store.Universe}),
	}
}

// Pose returns the current camera pose.
func (c *Controller) Pose() Pose {
	return c.pose
}

// Transition returns a copy of the active transition, if any.
func (c *Controller) Transition() (Transition, bool) {
	if c.tr == nil {
		return Transition{}, false
	}
	return *c.tr, true
}

// Active reports whether a flight is in progress.
func (c *Controller) Active() bool {
	return c.tr != nil
}

// SetProfile switches speed profiles. An active flight continues at the new
// speed from its current progress.
func (c *Controller) SetProfile(p Profile) {
	if p.Speed <= 0 {
		return
	}
	c.profile = p
	if c.tr != nil {
		c.tr.Profile = p
	}
}

// Profile returns the current speed profile.
func (c *Controller) Profile() Profile {
	return c.profile
}

func destinationKey(s store.Snapshot) string {
	switch s.View {
	case store.Galaxy:
		return "galaxy:" + s.SelectedGalaxy
	case store.Project:
		return "project:" + s.SelectedProject
	case store.Exploration:
		return "exploration:" + s.SelectedProject
	default:
		return "universe"
	}
}

// Destination computes the pose implied by a snapshot. ok is false when
// the target cannot be located yet.
func (c *Controller) Destination(s store.Snapshot) (Pose, bool) {
	switch s.View {
	case store.Galaxy:
		center, ok := c.loc.GalaxyCenter(s.SelectedGalaxy)
		if !ok {
			return Pose{}, false
		}
		return Pose{Position: center.Add(GalaxyOffset), LookAt: center}, true
	case store.Project, store.Exploration:
		pos, ok := c.loc.ProjectPosition(s.SelectedProject)
		if !ok {
			return Pose{}, false
		}
		offset := ProjectOffset
		if s.View == store.Exploration {
			offset = ExplorationOffset
		}
		return Pose{Position: pos.Add(offset), LookAt: pos}, true
	default:
		return UniversePose, true
	}
}

// Update advances the camera by dt seconds toward the destination implied
// by s. It reports true on the frame a flight lands.
func (c *Controller) Update(dt float32, s store.Snapshot) bool {
	if key := destinationKey(s); key != c.dest {
		if to, ok := c.Destination(s); ok {
			c.tr = &Transition{From: c.pose, To: to, Profile: c.profile}
			c.dest = key
			c.waiting = ""
			c.logger.Debug("camera flight", zap.String("to", key), zap.Stringer("from", c.pose.Position))
		} else if c.waiting != key {
			c.waiting = key
			c.trips.Record(trip.Waiting("camera", key))
		}
	}

	if c.tr != nil {
		c.tr.T += dt * c.tr.Profile.Speed
		if c.tr.T >= 1 {
			c.tr.T = 1
			c.pose = c.tr.To
			c.tr = nil
			return true
		}
		c.pose = c.tr.From.Lerp(c.tr.To, EaseOutCubic(c.tr.T))
		return false
	}

	if !s.HasEntered && s.View == store.Universe {
		c.pose.Position = c.pose.Position.RotateAround(c.pose.LookAt, IdleOrbitSpeed*dt)
	}
	return false
}

// Orbit swings the idle camera around its look-at point. Ignored during a
// flight.
func (c *Controller) Orbit(angle float32) {
	if c.tr != nil {
		return
	}
	c.pose.Position = c.pose.Position.RotateAround(c.pose.LookAt, angle)
}

// Pan slides the idle camera and its look-at point together. Ignored during
// a flight.
func (c *Controller) Pan(delta geom.Vec3) {
	if c.tr != nil {
		return
	}
	c.pose.Position = c.pose.Position.Add(delta)
	c.pose.LookAt = c.pose.LookAt.Add(delta)
}
