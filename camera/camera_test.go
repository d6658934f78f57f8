package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/store"
	"github.com/teranos/orrery/trip"
)

// fakeLocator knows a fixed set of positions. Entries can be added later to
// simulate targets that mount after the request.
type fakeLocator struct {
	galaxies map[string]geom.Vec3
	projects map[string]geom.Vec3
}

func newFakeLocator() *fakeLocator {
	return &fakeLocator{
		galaxies: map[string]geom.Vec3{"ai": geom.V3(25, 0, 0)},
		projects: map[string]geom.Vec3{"caipo-ai": geom.V3(28.3, 0.7, -1.9)},
	}
}

func (f *fakeLocator) GalaxyCenter(id string) (geom.Vec3, bool) {
	v, ok := f.galaxies[id]
	return v, ok
}

func (f *fakeLocator) ProjectPosition(id string) (geom.Vec3, bool) {
	v, ok := f.projects[id]
	return v, ok
}

var entered = store.Snapshot{View: store.Universe, HasEntered: true}

func galaxyView(id string) store.Snapshot {
	return store.Snapshot{View: store.Galaxy, SelectedGalaxy: id, HasEntered: true}
}

func projectView(id string) store.Snapshot {
	return store.Snapshot{View: store.Project, SelectedGalaxy: "ai", SelectedProject: id, HasEntered: true}
}

func TestEaseOutCubic(t *testing.T) {
	assert.Equal(t, float32(0), EaseOutCubic(0))
	assert.Equal(t, float32(1), EaseOutCubic(1))
	assert.InDelta(t, 0.875, float64(EaseOutCubic(0.5)), 1e-6)
	assert.Greater(t, EaseOutCubic(0.25), float32(0.25), "ease-out front-loads motion")
}

func TestController_FlightLandsExactly(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)

	arrived := false
	frames := 0
	for !arrived && frames < 1000 {
		arrived = c.Update(1.0/60, galaxyView("ai"))
		frames++
	}
	require.True(t, arrived)
	assert.InDelta(t, 90, frames, 2, "cinematic flight takes about 1.5s at 60fps")

	want := Pose{Position: geom.V3(25, 15, 25), LookAt: geom.V3(25, 0, 0)}
	assert.Equal(t, want, c.Pose(), "destination is reached bit for bit")
	assert.False(t, c.Active())
}

func TestController_NoDriftAcrossRepeatedFlights(t *testing.T) {
	c := NewController(newFakeLocator(), ReducedMotion, nil, nil)

	fly := func(s store.Snapshot) {
		for i := 0; i < 1000 && !c.Update(0.013, s); i++ {
		}
	}

	for i := 0; i < 20; i++ {
		fly(galaxyView("ai"))
		fly(projectView("caipo-ai"))
		fly(entered)
	}
	assert.Equal(t, UniversePose, c.Pose())

	fly(projectView("caipo-ai"))
	assert.Equal(t, geom.V3(28.3, 0.7, -1.9).Add(ProjectOffset), c.Pose().Position)
}

func TestController_MidFlightRetargetStartsFromCurrentPose(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)

	for i := 0; i < 30; i++ {
		c.Update(1.0/60, galaxyView("ai"))
	}
	mid := c.Pose()

	c.Update(0, projectView("caipo-ai"))
	tr, ok := c.Transition()
	require.True(t, ok)
	assert.Equal(t, mid, tr.From)
	assert.Equal(t, float32(0), tr.T)
	assert.Equal(t, mid, c.Pose(), "zero dt does not move the camera")
}

func TestController_ReducedMotionIsFaster(t *testing.T) {
	count := func(p Profile) int {
		c := NewController(newFakeLocator(), p, nil, nil)
		n := 0
		for !c.Update(1.0/60, galaxyView("ai")) {
			n++
		}
		return n
	}
	assert.Less(t, count(ReducedMotion), count(Cinematic)/4)
}

func TestController_MissingTargetWaits(t *testing.T) {
	loc := newFakeLocator()
	trips := trip.NewHandler("camera", nil)
	c := NewController(loc, ReducedMotion, trips, nil)

	for i := 0; i < 10; i++ {
		assert.False(t, c.Update(0.1, galaxyView("late")))
	}
	assert.Equal(t, UniversePose, c.Pose())
	assert.False(t, c.Active())
	assert.Equal(t, 1, trips.Count(trip.MissingDependency), "the wait is recorded once")

	loc.galaxies["late"] = geom.V3(-12.5, 0, 21.65)
	arrived := false
	for i := 0; i < 100 && !arrived; i++ {
		arrived = c.Update(0.1, galaxyView("late"))
	}
	assert.True(t, arrived)
	assert.Equal(t, geom.V3(-12.5, 0, 21.65), c.Pose().LookAt)
}

func TestController_IdleDrift(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)

	c.Update(1, store.Snapshot{View: store.Universe})
	drifted := c.Pose()
	assert.NotEqual(t, UniversePose.Position, drifted.Position, "drifts before entering")
	assert.InDelta(t, float64(UniversePose.Position.Len()), float64(drifted.Position.Len()), 1e-3)

	c.Update(1, entered)
	assert.Equal(t, drifted, c.Pose(), "no drift once entered")
}

func TestController_NoDriftDuringFlight(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)
	notEntered := store.Snapshot{View: store.Galaxy, SelectedGalaxy: "ai"}

	for !c.Update(1.0/60, notEntered) {
	}
	landed := c.Pose()
	c.Update(1, notEntered)
	assert.Equal(t, landed, c.Pose(), "drift only happens in universe view")
}

func TestController_OrbitAndPan(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)

	c.Orbit(geom.Pi)
	p := c.Pose()
	assert.InDelta(t, -60, float64(p.Position.Z), 1e-3)
	assert.InDelta(t, 30, float64(p.Position.Y), 1e-6)

	c.Pan(geom.V3(1, 0, 2))
	assert.Equal(t, geom.V3(1, 0, 2), c.Pose().LookAt)

	// Input is ignored mid-flight.
	c.Update(0.1, galaxyView("ai"))
	before := c.Pose()
	c.Orbit(1)
	c.Pan(geom.V3(5, 5, 5))
	assert.Equal(t, before, c.Pose())
}

func TestController_SetProfile(t *testing.T) {
	c := NewController(newFakeLocator(), Cinematic, nil, nil)
	c.Update(0.1, galaxyView("ai"))

	c.SetProfile(ReducedMotion)
	tr, _ := c.Transition()
	assert.Equal(t, ReducedMotion, tr.Profile)

	c.SetProfile(Profile{Name: "broken"})
	assert.Equal(t, ReducedMotion, c.Profile())
}

func TestPose_Lerp(t *testing.T) {
	a := Pose{Position: geom.V3(0, 0, 0), LookAt: geom.V3(1, 1, 1)}
	b := Pose{Position: geom.V3(10, 0, 0), LookAt: geom.V3(3, 3, 3)}
	m := a.Lerp(b, 0.5)
	assert.InDelta(t, 5, float64(m.Position.X), 1e-6)
	assert.InDelta(t, 2, float64(m.LookAt.Y), 1e-6)
	assert.False(t, math32.IsNaN(m.Position.Z))
}
