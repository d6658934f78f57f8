// Package scene runs the navigation core on a single goroutine.
//
// Everything that mutates state, whether a key press, a timer callback or
// an external navigation, is queued with Do and applied at the start of
// the next Step. A Step then moves the camera, reclassifies LOD against the
// camera's new position, advances the scan hold and publishes a Frame.
// Readers on other goroutines only ever see Frames.
package scene

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/orrery/camera"
	"github.com/teranos/orrery/deeplink"
	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/lod"
	"github.com/teranos/orrery/scan"
	"github.com/teranos/orrery/schedule"
	"github.com/teranos/orrery/store"
	"github.com/teranos/orrery/trip"
)

// ErrRunning is returned by Run when the loop is already running.
var ErrRunning = errors.New("scene: runtime already running")

// Options configures a Runtime. Zero values fall back to defaults.
type Options struct {
	FPS           int
	ReducedMotion bool
	Journey       journey.Config
	Scan          scan.Config
	LOD           lod.Thresholds
	Logger        *zap.Logger
	Trips         *trip.Handler

	// Scheduler overrides the wall clock. Tests pass a schedule.Manual and
	// drive Step themselves.
	Scheduler schedule.Scheduler
}

// DefaultFPS is the frame rate when Options.FPS is unset.
const DefaultFPS = 30

// Frame is what one step produced. Frames are values; nothing in them is
// shared with the loop except the snapshot's read-only scanned slice.
type Frame struct {
	Seq      uint64           `json:"seq"`
	Snapshot store.Snapshot   `json:"snapshot"`
	Pose     camera.Pose      `json:"pose"`
	Flying   bool             `json:"flying"`
	Tiers    map[lod.Tier]int `json:"tiers"`

	// Target is the project a scan press would aim at, empty when none.
	Target string `json:"target,omitempty"`
	// Focus is the project chosen by the presentation layer, if any.
	Focus string `json:"focus,omitempty"`

	Stop         *journey.Stop `json:"stop,omitempty"`
	GalaxyChange bool          `json:"galaxy_change"`

	// Query is the deep-link projection of the selection.
	Query string `json:"query"`
}

// Runtime owns the core components and the loop that drives them.
type Runtime struct {
	atlas   *layout.Atlas
	store   *store.Store
	camera  *camera.Controller
	lod     *lod.Manager
	hold    *scan.Hold
	journey *journey.Orchestrator
	mirror  *deeplink.Mirror
	sched   schedule.Scheduler
	logger  *zap.Logger
	fps     int

	targets []scan.Target
	focus   string
	seq     uint64

	mu      sync.Mutex
	queue   []func()
	running atomic.Bool
	frame   atomic.Pointer[Frame]
}

// New assembles a runtime over atlas. The LOD thresholds are validated here;
// everything else in opts is clamped to defaults.
func New(atlas *layout.Atlas, opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	trips := opts.Trips
	if trips == nil {
		trips = trip.NewHandler("core", nil).WithLogger(logger)
	}
	th := opts.LOD
	if th == (lod.Thresholds{}) {
		th = lod.DefaultThresholds()
	}
	manager, err := lod.NewManager(th)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		atlas:  atlas,
		lod:    manager,
		mirror: deeplink.NewMirror(),
		logger: logger,
		fps:    opts.FPS,
	}
	if rt.fps <= 0 {
		rt.fps = DefaultFPS
	}
	rt.sched = opts.Scheduler
	if rt.sched == nil {
		rt.sched = schedule.NewReal(rt.Do)
	}

	profile := camera.Cinematic
	if opts.ReducedMotion {
		profile = camera.ReducedMotion
	}

	rt.store = store.New(atlas.Catalog(), store.WithLogger(logger.Named("store")), store.WithTrips(trips))
	rt.camera = camera.NewController(atlas, profile, trips, logger.Named("camera"))
	rt.hold = scan.NewHold(opts.Scan, rt.store, rt.sched, logger.Named("scan"))
	rt.journey = journey.NewOrchestrator(opts.Journey, rt.store, atlas, rt.sched, logger.Named("journey"))

	for _, p := range atlas.Projects() {
		rt.lod.Register(p.Project.ID, p.Pos)
		rt.targets = append(rt.targets, scan.Target{ID: p.Project.ID, Pos: p.Pos})
	}
	rt.publish()
	return rt, nil
}

// Do queues fn to run on the loop at the start of the next Step. Safe from
// any goroutine, including from inside a queued function.
func (rt *Runtime) Do(fn func()) {
	if fn == nil {
		return
	}
	rt.mu.Lock()
	rt.queue = append(rt.queue, fn)
	rt.mu.Unlock()
}

func (rt *Runtime) drain() {
	rt.mu.Lock()
	queue := rt.queue
	rt.queue = nil
	rt.mu.Unlock()

	for _, fn := range queue {
		fn()
	}
}

// Step advances the scene by dt seconds. Only the loop goroutine calls it.
func (rt *Runtime) Step(dt float32) Frame {
	rt.drain()

	landed := rt.camera.Update(dt, rt.store.Snapshot())
	if snap := rt.store.Snapshot(); snap.IsLanding && snap.View == store.Exploration && !rt.camera.Active() {
		rt.store.CompleteLanding()
		rt.logger.Debug("landing complete", zap.String("project", snap.SelectedProject), zap.Bool("flight", landed))
	}

	for _, c := range rt.lod.Update(rt.camera.Pose().Position) {
		rt.logger.Debug("lod", zap.String("id", c.ID), zap.Stringer("from", c.From), zap.Stringer("to", c.To))
	}

	rt.hold.Tick()

	if query, changed := rt.mirror.Sync(rt.store.Snapshot()); changed {
		rt.logger.Debug("deep link", zap.String("query", query))
	}

	return rt.publish()
}

func (rt *Runtime) publish() Frame {
	rt.seq++
	snap := rt.store.Snapshot()
	f := Frame{
		Seq:      rt.seq,
		Snapshot: snap,
		Pose:     rt.camera.Pose(),
		Flying:   rt.camera.Active(),
		Tiers:    rt.lod.Counts(),
		Target:   rt.ScanTarget(),
		Focus:    rt.focus,
		Query:    rt.mirror.Current(),
	}
	if stop, ok := rt.journey.Current(); ok {
		f.Stop = &stop
		f.GalaxyChange = rt.journey.IsGalaxyChange()
	}
	rt.frame.Store(&f)
	return f
}

// Frame returns the latest published frame. Safe from any goroutine.
func (rt *Runtime) Frame() Frame {
	return *rt.frame.Load()
}

// Run steps the scene at the configured frame rate until ctx is done. On
// exit the journey and any scan hold are stopped so no timer outlives the
// loop.
func (rt *Runtime) Run(ctx context.Context) error {
	if !rt.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer rt.running.Store(false)

	ticker := time.NewTicker(time.Second / time.Duration(rt.fps))
	defer ticker.Stop()

	rt.logger.Info("runtime started", zap.Int("fps", rt.fps), zap.Int("projects", rt.lod.Len()))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			rt.shutdown()
			rt.logger.Info("runtime stopped", zap.Uint64("frames", rt.seq))
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			rt.Step(dt)
		}
	}
}

func (rt *Runtime) shutdown() {
	rt.drain()
	rt.journey.End()
	rt.hold.Release()
}

// ScanTarget is the focused project when one is set, otherwise the nearest
// project within scan range of the camera. Loop only.
func (rt *Runtime) ScanTarget() string {
	if rt.focus != "" {
		return rt.focus
	}
	t, ok := scan.Nearest(rt.camera.Pose().Position, rt.targets, rt.hold.Config().Range)
	if !ok {
		return ""
	}
	return t.ID
}

// SetFocus chooses the project the presentation layer points at. An empty
// id clears it. Loop only.
func (rt *Runtime) SetFocus(id string) {
	if id != "" {
		if _, ok := rt.atlas.ProjectPosition(id); !ok {
			rt.store.Trips().Record(trip.UnknownID("focus", "project", id))
			return
		}
	}
	rt.focus = id
}

// CycleFocus moves the focus through the projects in view: the selected
// galaxy's projects, or every project from universe. step is +1 or -1.
// Loop only.
func (rt *Runtime) CycleFocus(step int) {
	ids := rt.focusable()
	if len(ids) == 0 {
		return
	}
	cur := -1
	for i, id := range ids {
		if id == rt.focus {
			cur = i
			break
		}
	}
	var next int
	switch {
	case cur < 0 && step < 0:
		next = len(ids) - 1
	case cur < 0:
		next = 0
	default:
		next = ((cur+step)%len(ids) + len(ids)) % len(ids)
	}
	rt.focus = ids[next]
}

func (rt *Runtime) focusable() []string {
	snap := rt.store.Snapshot()
	cat := rt.atlas.Catalog()
	if snap.SelectedGalaxy != "" {
		if g, _, ok := cat.Galaxy(snap.SelectedGalaxy); ok {
			ids := make([]string, len(g.Projects))
			for i, p := range g.Projects {
				ids[i] = p.ID
			}
			return ids
		}
	}
	ids := make([]string, 0, len(rt.targets))
	for _, t := range rt.targets {
		ids = append(ids, t.ID)
	}
	return ids
}

// PressScan is one press of the scan key at the current target. Loop only.
func (rt *Runtime) PressScan() {
	rt.hold.Press(rt.ScanTarget())
}

// Descend is the gated "go deeper" action: a project view of the target
// when in galaxy or universe, exploration when already in its project view.
// Both need the target scanned first. Loop only.
func (rt *Runtime) Descend() bool {
	snap := rt.store.Snapshot()
	switch snap.View {
	case store.Exploration:
		return false
	case store.Project:
		return rt.store.GatedExploreProject(snap.SelectedProject)
	}
	target := rt.ScanTarget()
	if target == "" {
		return false
	}
	if rt.store.GatedZoomToProject(target) {
		rt.focus = ""
		rt.store.Enter()
		return true
	}
	return false
}

// Back ends an active journey, or zooms out one level. Loop only.
func (rt *Runtime) Back() {
	if rt.store.Snapshot().Journey.Active {
		rt.journey.End()
		return
	}
	rt.focus = ""
	if rt.store.Snapshot().View == store.Exploration {
		rt.store.ExitExploration()
		return
	}
	rt.store.ZoomOut()
}

// ZoomToGalaxyAt selects the galaxy at ordinal i (0-based). Loop only.
func (rt *Runtime) ZoomToGalaxyAt(i int) {
	g, ok := rt.atlas.Catalog().GalaxyAt(i)
	if !ok {
		rt.store.Trips().Record(trip.NewStumble(trip.InvalidReference, "zoomToGalaxy: no galaxy at ordinal",
			trip.Context{"ordinal": i + 1}))
		return
	}
	rt.focus = ""
	rt.store.Enter()
	rt.store.ZoomToGalaxy(g.ID)
}

// Reset returns to universe and clears the focus. Loop only.
func (rt *Runtime) Reset() {
	rt.focus = ""
	rt.store.Reset()
}

// Orbit swings the idle camera. Loop only.
func (rt *Runtime) Orbit(angle float32) {
	rt.camera.Orbit(angle)
}

// Pan slides the idle camera. Loop only.
func (rt *Runtime) Pan(delta geom.Vec3) {
	rt.camera.Pan(delta)
}

// Navigate applies an externally changed deep-link query. Loop only.
func (rt *Runtime) Navigate(rawQuery string) {
	rt.mirror.Navigate(rt.store, rawQuery)
}

// SetReducedMotion switches the camera speed profile. Loop only.
func (rt *Runtime) SetReducedMotion(on bool) {
	if on {
		rt.camera.SetProfile(camera.ReducedMotion)
	} else {
		rt.camera.SetProfile(camera.Cinematic)
	}
}

// Store returns the store. Mutate it only from the loop.
func (rt *Runtime) Store() *store.Store { return rt.store }

// Journey returns the journey orchestrator. Loop only.
func (rt *Runtime) Journey() *journey.Orchestrator { return rt.journey }

// Hold returns the scan hold tracker. Loop only.
func (rt *Runtime) Hold() *scan.Hold { return rt.hold }

// Camera returns the camera controller. Loop only.
func (rt *Runtime) Camera() *camera.Controller { return rt.camera }

// LOD returns the LOD manager. Loop only.
func (rt *Runtime) LOD() *lod.Manager { return rt.lod }

// Atlas returns the layout the runtime was built over.
func (rt *Runtime) Atlas() *layout.Atlas { return rt.atlas }

// Trips returns the shared trip handler. Safe from any goroutine.
func (rt *Runtime) Trips() *trip.Handler { return rt.store.Trips() }
