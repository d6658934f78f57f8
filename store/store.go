// Package store is the single source of truth for navigation state: the
// current view and selection, the scan gate, and the journey position.
//
// State changes only through the named actions below. A Store has exactly
// one writer, the runtime loop; every action publishes a fresh Snapshot that
// any goroutine may read through Latest. Actions given ids absent from
// content do nothing and record an invalid-reference trip.
package store

import (
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/trip"
)

// Content is the part of the catalog the store validates ids against.
type Content interface {
	HasGalaxy(id string) bool
	ProjectGalaxy(id string) (string, bool)
}

// Store holds navigation state. Mutating methods must be called from a
// single goroutine.
type Store struct {
	content Content
	trips   *trip.Handler
	logger  *zap.Logger

	state  Snapshot
	latest atomic.Pointer[Snapshot]
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Transitions are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTrips shares a trip handler with other components.
func WithTrips(h *trip.Handler) Option {
	return func(s *Store) {
		if h != nil {
			s.trips = h
		}
	}
}

// New returns a store in the universe view with nothing selected.
func New(content Content, opts ...Option) *Store {
	s := &Store{
		content: content,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.trips == nil {
		s.trips = trip.NewHandler("store", nil).WithLogger(s.logger)
	}
	s.state = Snapshot{View: Universe, Scanned: []string{}}
	s.publish("init")
	return s
}

// Snapshot returns the current state. Only the writer goroutine should call
// it; other goroutines use Latest.
func (s *Store) Snapshot() Snapshot {
	return s.state
}

// Latest returns the most recently published snapshot. Safe from any goroutine.
func (s *Store) Latest() Snapshot {
	return *s.latest.Load()
}

// Trips returns the handler that records absorbed faults.
func (s *Store) Trips() *trip.Handler {
	return s.trips
}

func (s *Store) publish(action string) {
	s.state.Version++
	snap := s.state
	s.latest.Store(&snap)
	s.logger.Debug("state",
		zap.String("action", action),
		zap.Uint64("version", snap.Version),
		zap.String("view", string(snap.View)),
		zap.String("galaxy", snap.SelectedGalaxy),
		zap.String("project", snap.SelectedProject))
}

func (s *Store) knownGalaxy(action, id string) bool {
	if s.content != nil && s.content.HasGalaxy(id) {
		return true
	}
	s.trips.Record(trip.UnknownID(action, "galaxy", id))
	return false
}

func (s *Store) projectOwner(action, id string) (string, bool) {
	if s.content != nil {
		if owner, ok := s.content.ProjectGalaxy(id); ok {
			return owner, true
		}
	}
	s.trips.Record(trip.UnknownID(action, "project", id))
	return "", false
}

// ZoomToGalaxy focuses a galaxy and drops any project selection.
func (s *Store) ZoomToGalaxy(galaxyID string) {
	if !s.knownGalaxy("zoomToGalaxy", galaxyID) {
		return
	}
	s.state.View = Galaxy
	s.state.SelectedGalaxy = galaxyID
	s.state.SelectedProject = ""
	s.state.IsLanding = false
	s.publish("zoomToGalaxy")
}

// ZoomToProject focuses a project. It is reachable from any view, including
// universe. The owning galaxy becomes the selected galaxy so that zooming
// out always has a galaxy to land on.
func (s *Store) ZoomToProject(projectID string) {
	owner, ok := s.projectOwner("zoomToProject", projectID)
	if !ok {
		return
	}
	s.state.View = Project
	s.state.SelectedGalaxy = owner
	s.state.SelectedProject = projectID
	s.state.IsLanding = false
	s.publish("zoomToProject")
}

// ExploreProject enters the surface view of a project and starts the
// landing animation. CompleteLanding ends it.
func (s *Store) ExploreProject(projectID string) {
	owner, ok := s.projectOwner("exploreProject", projectID)
	if !ok {
		return
	}
	s.state.View = Exploration
	s.state.SelectedGalaxy = owner
	s.state.SelectedProject = projectID
	s.state.IsLanding = true
	s.publish("exploreProject")
}

// CompleteLanding is the signal that the landing animation finished.
func (s *Store) CompleteLanding() {
	if !s.state.IsLanding {
		return
	}
	s.state.IsLanding = false
	s.publish("completeLanding")
}

// ExitExploration returns to the selected galaxy, or to universe when none
// is selected.
func (s *Store) ExitExploration() {
	if s.state.SelectedGalaxy != "" {
		s.state.View = Galaxy
	} else {
		s.state.View = Universe
	}
	s.state.SelectedProject = ""
	s.state.IsLanding = false
	s.publish("exitExploration")
}

// ZoomOut steps one level up: exploration and project go to galaxy, galaxy
// goes to universe. It does nothing in universe.
func (s *Store) ZoomOut() {
	switch s.state.View {
	case Exploration, Project:
		if s.state.SelectedGalaxy == "" {
			s.state.View = Universe
		} else {
			s.state.View = Galaxy
		}
		s.state.SelectedProject = ""
	case Galaxy:
		s.state.View = Universe
		s.state.SelectedGalaxy = ""
	default:
		return
	}
	s.state.IsLanding = false
	s.publish("zoomOut")
}

// Reset returns to universe, clears every selection and the entered flag.
// Scan and journey state are untouched.
func (s *Store) Reset() {
	s.state.View = Universe
	s.state.SelectedGalaxy = ""
	s.state.SelectedProject = ""
	s.state.IsLanding = false
	s.state.HasEntered = false
	s.publish("reset")
}

// Enter marks that the user has entered the experience, which stops the
// ambient idle drift.
func (s *Store) Enter() {
	if s.state.HasEntered {
		return
	}
	s.state.HasEntered = true
	s.publish("enter")
}

// StartScan begins scanning projectID, canceling any other scan first.
// Scanning an already scanned project, or the one already being scanned,
// does nothing.
func (s *Store) StartScan(projectID string) {
	if _, ok := s.projectOwner("startScan", projectID); !ok {
		return
	}
	if s.state.IsScanned(projectID) || s.state.ScanningProject == projectID {
		return
	}
	s.state.ScanningProject = projectID
	s.state.ScanProgress = 0
	s.publish("startScan")
}

// UpdateScanProgress sets the progress of the running scan, clamped to
// [0, 1]. Reaching 1 completes the scan. Without a running scan it does
// nothing.
func (s *Store) UpdateScanProgress(p float32) {
	if s.state.ScanningProject == "" {
		return
	}
	p = geom.Clamp01(p)
	if p >= 1 {
		s.CompleteScan(s.state.ScanningProject)
		return
	}
	s.state.ScanProgress = p
	s.publish("updateScanProgress")
}

// CompleteScan adds projectID to the scanned set and clears the scanning
// fields. Completing an already scanned project does nothing.
func (s *Store) CompleteScan(projectID string) {
	if _, ok := s.projectOwner("completeScan", projectID); !ok {
		return
	}
	if s.state.IsScanned(projectID) {
		return
	}
	scanned := make([]string, len(s.state.Scanned), len(s.state.Scanned)+1)
	copy(scanned, s.state.Scanned)
	scanned = append(scanned, projectID)
	sort.Strings(scanned)

	s.state.Scanned = scanned
	s.state.ScanningProject = ""
	s.state.ScanProgress = 0
	s.publish("completeScan")
}

// CancelScan abandons the running scan. The scanned set is untouched.
func (s *Store) CancelScan() {
	if s.state.ScanningProject == "" {
		return
	}
	s.state.ScanningProject = ""
	s.state.ScanProgress = 0
	s.publish("cancelScan")
}

// IsScanned reports whether projectID passed the scan gate.
func (s *Store) IsScanned(projectID string) bool {
	return s.state.IsScanned(projectID)
}

// GatedZoomToProject zooms to projectID only if it has been scanned.
func (s *Store) GatedZoomToProject(projectID string) bool {
	if !s.state.IsScanned(projectID) {
		return false
	}
	s.ZoomToProject(projectID)
	return true
}

// GatedExploreProject explores projectID only if it has been scanned.
func (s *Store) GatedExploreProject(projectID string) bool {
	if !s.state.IsScanned(projectID) {
		return false
	}
	s.ExploreProject(projectID)
	return true
}
