package journey

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/schedule"
	"github.com/teranos/orrery/store"
)

// Config sets the auto-advance rhythm. A stop is shown for Transit + Hold.
type Config struct {
	Transit time.Duration `yaml:"transit" env:"TRANSIT"`
	Hold    time.Duration `yaml:"hold" env:"HOLD"`
}

// DefaultConfig allows 4.5s for the flight and 5s at the stop.
func DefaultConfig() Config {
	return Config{Transit: 4500 * time.Millisecond, Hold: 5 * time.Second}
}

// Dwell is the full time spent on one stop.
func (c Config) Dwell() time.Duration {
	return c.Transit + c.Hold
}

// Orchestrator owns the journey lifecycle and its single auto-advance
// timer. Every method must run on the runtime loop, and so must the timer
// callback (the scheduler dispatches it there).
type Orchestrator struct {
	cfg    Config
	store  *store.Store
	atlas  *layout.Atlas
	sched  schedule.Scheduler
	logger *zap.Logger

	stops []Stop
	timer schedule.Timer
	epoch uint64
}

// NewOrchestrator wires the orchestrator to the store.
func NewOrchestrator(cfg Config, s *store.Store, atlas *layout.Atlas, sched schedule.Scheduler, logger *zap.Logger) *Orchestrator {
	def := DefaultConfig()
	if cfg.Transit < 0 {
		cfg.Transit = def.Transit
	}
	if cfg.Hold < 0 {
		cfg.Hold = def.Hold
	}
	if cfg.Dwell() <= 0 {
		cfg = def
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{cfg: cfg, store: s, atlas: atlas, sched: sched, logger: logger}
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Start resolves tourID (empty for the default tour) and begins at its
// first stop. A running journey is ended first. It reports whether a
// journey started.
func (o *Orchestrator) Start(tourID string) bool {
	o.End()

	stops, ok := Resolve(o.atlas, tourID, o.store.Trips())
	if !ok || !o.store.BeginJourney(tourID, len(stops)) {
		return false
	}
	o.stops = stops
	o.store.Enter()
	o.logger.Info("journey started", zap.String("tour", tourID), zap.Int("stops", len(stops)))

	o.navigate()
	o.reschedule()
	return true
}

// End stops the journey and its timer.
func (o *Orchestrator) End() {
	o.cancel()
	if o.store.Snapshot().Journey.Active {
		o.logger.Info("journey ended", zap.Int("step", o.store.Snapshot().Journey.Step))
	}
	o.store.EndJourney()
	o.stops = nil
}

// Next moves to the next stop, or ends the journey at the last one.
func (o *Orchestrator) Next() {
	if !o.active() {
		return
	}
	o.cancel()
	o.advance()
}

// Prev moves to the previous stop. At the first stop it does nothing.
func (o *Orchestrator) Prev() {
	if !o.active() {
		return
	}
	if o.store.RetreatJourney() {
		o.cancel()
		o.navigate()
		o.reschedule()
	}
}

// SetStep jumps to stop n.
func (o *Orchestrator) SetStep(n int) {
	if !o.active() {
		return
	}
	if o.store.SetJourneyStep(n) {
		o.cancel()
		o.navigate()
		o.reschedule()
	}
}

// TogglePause pauses auto-advance, or resumes it with a full dwell.
func (o *Orchestrator) TogglePause() {
	if !o.active() {
		return
	}
	paused := !o.store.Snapshot().Journey.Paused
	o.store.SetJourneyPaused(paused)
	if paused {
		o.cancel()
	} else {
		o.reschedule()
	}
}

// Stops returns the resolved stops of the running journey.
func (o *Orchestrator) Stops() []Stop {
	return o.stops
}

// Current returns the stop being shown.
func (o *Orchestrator) Current() (Stop, bool) {
	if !o.active() {
		return Stop{}, false
	}
	return o.stops[o.store.Snapshot().Journey.Step], true
}

// IsGalaxyChange reports whether the current stop crossed galaxies.
func (o *Orchestrator) IsGalaxyChange() bool {
	if !o.active() {
		return false
	}
	return IsGalaxyChange(o.stops, o.store.Snapshot().Journey.Step)
}

// active is true while the store and the orchestrator agree a journey runs.
func (o *Orchestrator) active() bool {
	j := o.store.Snapshot().Journey
	if !j.Active || j.Stops != len(o.stops) {
		if o.stops != nil && !j.Active {
			// Ended behind our back; drop the timer with it.
			o.cancel()
			o.stops = nil
		}
		return false
	}
	return true
}

func (o *Orchestrator) advance() {
	if o.store.AdvanceJourney() {
		o.navigate()
		o.reschedule()
		return
	}
	o.logger.Info("journey finished")
	o.cancel()
	o.stops = nil
}

func (o *Orchestrator) navigate() {
	j := o.store.Snapshot().Journey
	stop := o.stops[j.Step]
	o.store.ZoomToGalaxy(stop.GalaxyID)
	o.store.ZoomToProject(stop.Project.ID)
	o.logger.Debug("journey stop",
		zap.Int("step", j.Step),
		zap.String("project", stop.Project.ID),
		zap.Bool("galaxy_change", IsGalaxyChange(o.stops, j.Step)))
}

func (o *Orchestrator) reschedule() {
	o.cancel()
	if o.store.Snapshot().Journey.Paused {
		return
	}
	epoch := o.epoch
	o.timer = o.sched.AfterFunc(o.cfg.Dwell(), func() {
		if epoch != o.epoch {
			return
		}
		o.timer = nil
		if o.active() {
			o.advance()
		}
	})
}

// cancel stops the pending timer and invalidates any callback already in
// flight.
func (o *Orchestrator) cancel() {
	o.epoch++
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
