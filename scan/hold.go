// Package scan turns a held key into scan-gate actions.
//
// A terminal reports no key-up, only auto-repeated presses, so a hold is a
// stream of Press calls. The hold ends when presses stop for the release
// grace period, or on an explicit Release. Completion is a scheduled timer
// owned by the hold; releasing early stops it and cancels the scan.
package scan

import (
	"time"

	"go.uber.org/zap"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/schedule"
	"github.com/teranos/orrery/store"
	"github.com/teranos/orrery/trip"
)

// Config tunes the hold interaction.
type Config struct {
	Duration     time.Duration `yaml:"duration" env:"DURATION"`
	Range        float32       `yaml:"range" env:"RANGE"`
	ReleaseGrace time.Duration `yaml:"release_grace" env:"RELEASE_GRACE"`
}

// DefaultConfig is a 1.5 second hold within 15 units of the camera.
func DefaultConfig() Config {
	return Config{
		Duration:     1500 * time.Millisecond,
		Range:        15,
		ReleaseGrace: 600 * time.Millisecond,
	}
}

// Target is a scannable project at a world position.
type Target struct {
	ID  string
	Pos geom.Vec3
}

// Nearest returns the closest target within r of the camera.
func Nearest(camera geom.Vec3, targets []Target, r float32) (Target, bool) {
	var best Target
	bestDist := r
	found := false
	for _, t := range targets {
		if d := t.Pos.Dist(camera); d <= bestDist {
			best, bestDist, found = t, d, true
		}
	}
	return best, found
}

// Hold tracks one hold gesture at a time. Like the store it is driven from
// the runtime loop only.
type Hold struct {
	cfg     Config
	store   *store.Store
	sched   schedule.Scheduler
	release *schedule.Debouncer
	logger  *zap.Logger

	target   string
	started  time.Time
	complete schedule.Timer
}

// NewHold wires a hold tracker to the store.
func NewHold(cfg Config, s *store.Store, sched schedule.Scheduler, logger *zap.Logger) *Hold {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Range <= 0 {
		cfg.Range = def.Range
	}
	if cfg.ReleaseGrace <= 0 {
		cfg.ReleaseGrace = def.ReleaseGrace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hold{
		cfg:     cfg,
		store:   s,
		sched:   sched,
		release: schedule.NewDebouncer(sched, cfg.ReleaseGrace),
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (h *Hold) Config() Config {
	return h.cfg
}

// Holding reports whether a hold is in progress and on which project.
func (h *Hold) Holding() (string, bool) {
	return h.target, h.target != ""
}

// Press is one (possibly repeated) press of the scan key aimed at
// projectID. An empty id means nothing is in range: the press waits for a
// target and does nothing.
func (h *Hold) Press(projectID string) {
	snap := h.store.Snapshot()
	if snap.View == store.Exploration {
		return
	}
	if projectID == "" {
		h.store.Trips().Record(trip.Waiting("scan", "target in range"))
		return
	}
	if snap.IsScanned(projectID) {
		return
	}

	if h.target != projectID {
		// An id the store rejects leaves the running hold untouched.
		h.store.StartScan(projectID)
		if h.store.Snapshot().ScanningProject != projectID {
			return
		}
		h.stop()
		h.target = projectID
		h.started = h.sched.Now()
		h.complete = h.sched.AfterFunc(h.cfg.Duration, h.finish)
		h.logger.Debug("scan started", zap.String("project", projectID))
	}
	h.release.Debounce(h.Release)
}

// Release ends the hold. Before completion the scan is canceled and its
// progress discarded.
func (h *Hold) Release() {
	if h.target == "" {
		return
	}
	target := h.target
	h.stop()
	if h.store.Snapshot().ScanningProject == target {
		h.store.CancelScan()
		h.logger.Debug("scan released early", zap.String("project", target))
	}
}

// Tick publishes progress for the running hold. Called once per frame.
func (h *Hold) Tick() {
	if h.target == "" {
		return
	}
	if h.store.Snapshot().ScanningProject != h.target {
		// Something else took over the scan gate.
		h.stop()
		return
	}
	p := float32(h.sched.Now().Sub(h.started)) / float32(h.cfg.Duration)
	if p < 1 {
		h.store.UpdateScanProgress(p)
	}
}

func (h *Hold) finish() {
	target := h.target
	h.complete = nil
	h.stop()
	if target == "" {
		return
	}
	h.store.CompleteScan(target)
	h.logger.Debug("scan complete", zap.String("project", target))
}

func (h *Hold) stop() {
	if h.complete != nil {
		h.complete.Stop()
		h.complete = nil
	}
	h.release.Cancel()
	h.target = ""
}
