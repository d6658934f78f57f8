package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/schedule"
	"github.com/teranos/orrery/store"
	"github.com/teranos/orrery/trip"
)

type rig struct {
	store *store.Store
	clock *schedule.Manual
	orch  *Orchestrator
	atlas *layout.Atlas
}

func newRig(t *testing.T, cat *content.Catalog) *rig {
	t.Helper()
	if cat == nil {
		cat = content.Default()
	}
	s := store.New(cat)
	atlas := layout.NewAtlas(cat, layout.New(layout.DefaultConfig()))
	clock := schedule.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return &rig{
		store: s,
		clock: clock,
		atlas: atlas,
		orch:  NewOrchestrator(DefaultConfig(), s, atlas, clock, nil),
	}
}

func (r *rig) journey() store.JourneyState {
	return r.store.Snapshot().Journey
}

func TestResolve_DefaultTour(t *testing.T) {
	r := newRig(t, nil)

	stops, ok := Resolve(r.atlas, "", nil)
	require.True(t, ok)
	require.Len(t, stops, 6, "one stop per galaxy")

	assert.Equal(t, "caipo-ai", stops[0].Project.ID, "featured project represents its galaxy")
	assert.Equal(t, "feature-flags", stops[2].Project.ID)
	for i, s := range stops {
		g, _ := r.atlas.Catalog().GalaxyAt(i)
		assert.Equal(t, g.ID, s.GalaxyID)
		center, _ := r.atlas.GalaxyCenter(g.ID)
		assert.Equal(t, center, s.GalaxyCenter)
		pos, _ := r.atlas.ProjectPosition(s.Project.ID)
		assert.Equal(t, pos, s.ProjectPosition)
	}
}

func TestResolve_DefaultTourFallsBackToFirstProject(t *testing.T) {
	cat, err := content.New([]content.Galaxy{
		{ID: "a", Name: "A", Projects: []content.Project{{ID: "a1"}, {ID: "a2"}}},
		{ID: "empty", Name: "Empty"},
		{ID: "b", Name: "B", Projects: []content.Project{{ID: "b1"}}},
	}, nil)
	require.NoError(t, err)
	r := newRig(t, cat)

	stops, _ := Resolve(r.atlas, "", nil)
	require.Len(t, stops, 2, "empty galaxies are skipped")
	assert.Equal(t, "a1", stops[0].Project.ID)
	assert.Equal(t, "b1", stops[1].Project.ID)
}

func TestResolve_NamedTourSkipsMissingProjects(t *testing.T) {
	cat, err := content.New(
		[]content.Galaxy{{ID: "a", Name: "A", Projects: []content.Project{{ID: "x"}, {ID: "y"}}}},
		[]content.Tour{{ID: "t", Stops: []content.TourStop{
			{ProjectID: "x", Narrative: "first"},
			{ProjectID: "retired"},
			{ProjectID: "y", Narrative: "last"},
		}}},
	)
	require.NoError(t, err)
	r := newRig(t, cat)
	trips := trip.NewHandler("journey", nil)

	stops, ok := Resolve(r.atlas, "t", trips)
	require.True(t, ok)
	require.Len(t, stops, 2)
	assert.Equal(t, "first", stops[0].Narrative)
	assert.Equal(t, "y", stops[1].Project.ID)
	assert.Equal(t, 1, trips.Count(trip.TourContent))

	_, ok = Resolve(r.atlas, "nope", trips)
	assert.False(t, ok)
	assert.Equal(t, 1, trips.Count(trip.InvalidReference))
}

func TestIsGalaxyChange(t *testing.T) {
	stops := []Stop{{GalaxyID: "a"}, {GalaxyID: "a"}, {GalaxyID: "b"}}

	assert.False(t, IsGalaxyChange(stops, 0))
	assert.False(t, IsGalaxyChange(stops, 1))
	assert.True(t, IsGalaxyChange(stops, 2))
	assert.False(t, IsGalaxyChange(stops, 3))
	assert.False(t, IsGalaxyChange(nil, 1))
}

func TestOrchestrator_ScenarioB(t *testing.T) {
	r := newRig(t, nil)

	require.True(t, r.orch.Start("ai-story"))
	require.Len(t, r.orch.Stops(), 3)

	r.orch.Next()
	r.orch.Next()
	r.orch.Next()

	j := r.journey()
	assert.False(t, j.Active, "the journey ends instead of sitting at step 3")
	assert.Equal(t, 0, j.Step)
	assert.Equal(t, 0, r.clock.Pending())
}

func TestOrchestrator_StartNavigatesToFirstStop(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("ai-story")

	snap := r.store.Snapshot()
	assert.Equal(t, store.Project, snap.View)
	assert.Equal(t, "vision-sort", snap.SelectedProject)
	assert.Equal(t, "ai", snap.SelectedGalaxy)
	assert.True(t, snap.HasEntered)

	stop, ok := r.orch.Current()
	require.True(t, ok)
	assert.Equal(t, "It started with pictures of returned parcels and a very tired operations team.", stop.Narrative)
}

func TestOrchestrator_AutoAdvance(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")
	dwell := DefaultConfig().Dwell()

	r.clock.Advance(dwell - time.Millisecond)
	assert.Equal(t, 0, r.journey().Step)

	r.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, r.journey().Step)
	assert.Equal(t, "habit-loop", r.store.Snapshot().SelectedProject)
	assert.True(t, r.orch.IsGalaxyChange())

	r.clock.Advance(4 * dwell)
	assert.Equal(t, 5, r.journey().Step)

	r.clock.Advance(dwell)
	assert.False(t, r.journey().Active, "no wraparound after the last stop")
	assert.Equal(t, 0, r.clock.Pending())
}

func TestOrchestrator_PauseResumeRestartsFullDwell(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")
	dwell := DefaultConfig().Dwell()

	r.clock.Advance(dwell - time.Second)
	r.orch.TogglePause()
	assert.True(t, r.journey().Paused)
	assert.Equal(t, 0, r.clock.Pending())

	r.clock.Advance(time.Hour)
	assert.Equal(t, 0, r.journey().Step, "paused journeys do not advance")

	r.orch.TogglePause()
	r.clock.Advance(dwell - time.Millisecond)
	assert.Equal(t, 0, r.journey().Step, "no credit for time before the pause")
	r.clock.Advance(time.Millisecond)
	assert.Equal(t, 1, r.journey().Step)
}

func TestOrchestrator_ManualStepReschedules(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")
	dwell := DefaultConfig().Dwell()

	r.clock.Advance(dwell - time.Second)
	r.orch.Next()
	assert.Equal(t, 1, r.journey().Step)
	assert.Equal(t, 1, r.clock.Pending(), "exactly one timer in flight")

	// The old timer would have fired here; a double advance would land on 2.
	r.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, r.journey().Step)

	r.clock.Advance(dwell)
	assert.Equal(t, 2, r.journey().Step)

	r.orch.Prev()
	assert.Equal(t, 1, r.journey().Step)
	r.orch.SetStep(4)
	assert.Equal(t, 4, r.journey().Step)
	assert.Equal(t, "token-studio", r.store.Snapshot().SelectedProject)
	assert.Equal(t, 1, r.clock.Pending())
}

func TestOrchestrator_PrevAtFirstStopIsNoOp(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")
	dwell := DefaultConfig().Dwell()

	r.clock.Advance(dwell / 2)
	r.orch.Prev()
	assert.Equal(t, 0, r.journey().Step)

	// The original timer was left alone.
	r.clock.Advance(dwell / 2)
	assert.Equal(t, 1, r.journey().Step)
}

func TestOrchestrator_EndedTimerNeverTouchesNextJourney(t *testing.T) {
	r := newRig(t, nil)
	dwell := DefaultConfig().Dwell()

	r.orch.Start("")
	r.clock.Advance(dwell - time.Second)
	r.orch.End()
	assert.False(t, r.journey().Active)
	assert.Equal(t, 0, r.clock.Pending())

	r.orch.Start("builders")
	r.clock.Advance(2 * time.Second)
	j := r.journey()
	assert.True(t, j.Active)
	assert.Equal(t, "builders", j.TourID)
	assert.Equal(t, 0, j.Step, "the first journey's deadline passed without effect")
}

func TestOrchestrator_EndedThroughStore(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")

	r.store.EndJourney()
	r.orch.Next()
	assert.False(t, r.journey().Active)

	r.clock.Advance(time.Hour)
	assert.False(t, r.journey().Active)
	_, ok := r.orch.Current()
	assert.False(t, ok)
}

func TestOrchestrator_UnknownTour(t *testing.T) {
	r := newRig(t, nil)

	assert.False(t, r.orch.Start("ghost"))
	assert.False(t, r.journey().Active)
	assert.Equal(t, 0, r.clock.Pending())
}

func TestOrchestrator_RestartReplacesJourney(t *testing.T) {
	r := newRig(t, nil)
	r.orch.Start("")
	r.orch.Next()

	require.True(t, r.orch.Start("ai-story"))
	j := r.journey()
	assert.Equal(t, "ai-story", j.TourID)
	assert.Equal(t, 0, j.Step)
	assert.Equal(t, 1, r.clock.Pending())
}
