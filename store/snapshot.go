package store

import (
	"errors"
	"fmt"
	"sort"
)

// View is the navigation level.
type View string

const (
	Universe    View = "universe"
	Galaxy      View = "galaxy"
	Project     View = "project"
	Exploration View = "exploration"
)

// Valid reports whether v is one of the four views.
func (v View) Valid() bool {
	switch v {
	case Universe, Galaxy, Project, Exploration:
		return true
	}
	return false
}

// JourneyState is the tour position held by the store. Stops is the length
// of the resolved stop list the journey was started with.
type JourneyState struct {
	Active bool   `json:"active"`
	TourID string `json:"tour_id,omitempty"`
	Step   int    `json:"step"`
	Stops  int    `json:"stops"`
	Paused bool   `json:"paused"`
}

// Snapshot is an immutable copy of everything the store holds. Empty
// strings stand for "no selection". Snapshots share the Scanned slice;
// treat it as read-only.
type Snapshot struct {
	Version uint64 `json:"version"`

	View            View   `json:"view"`
	SelectedGalaxy  string `json:"selected_galaxy,omitempty"`
	SelectedProject string `json:"selected_project,omitempty"`
	IsLanding       bool   `json:"is_landing"`
	HasEntered      bool   `json:"has_entered"`

	Scanned         []string `json:"scanned"`
	ScanningProject string   `json:"scanning_project,omitempty"`
	ScanProgress    float32  `json:"scan_progress"`

	Journey JourneyState `json:"journey"`
}

// IsScanned reports whether id is in the scanned set.
func (s Snapshot) IsScanned(id string) bool {
	i := sort.SearchStrings(s.Scanned, id)
	return i < len(s.Scanned) && s.Scanned[i] == id
}

// Scanning reports whether a scan is in progress.
func (s Snapshot) Scanning() bool {
	return s.ScanningProject != ""
}

// ErrInvariant is wrapped by every Validate failure.
var ErrInvariant = errors.New("state invariant violated")

// Validate checks the structural invariants of a snapshot.
func (s Snapshot) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
	}

	if !s.View.Valid() {
		return fail("unknown view %q", s.View)
	}
	if s.SelectedProject != "" && s.View != Project && s.View != Exploration {
		return fail("project %q selected in %s view", s.SelectedProject, s.View)
	}
	if (s.View == Project || s.View == Exploration) && s.SelectedProject == "" {
		return fail("%s view without a project", s.View)
	}
	if s.View == Galaxy && s.SelectedGalaxy == "" {
		return fail("galaxy view without a galaxy")
	}
	if s.IsLanding && s.View != Exploration {
		return fail("landing outside exploration")
	}
	if s.ScanningProject != "" && (s.ScanProgress < 0 || s.ScanProgress >= 1) {
		return fail("scan progress %.3f out of [0,1)", s.ScanProgress)
	}
	if s.ScanningProject == "" && s.ScanProgress != 0 {
		return fail("scan progress %.3f with nothing scanning", s.ScanProgress)
	}
	if s.ScanningProject != "" && s.IsScanned(s.ScanningProject) {
		return fail("scanning already scanned %q", s.ScanningProject)
	}
	if !sort.StringsAreSorted(s.Scanned) {
		return fail("scanned set not sorted")
	}
	j := s.Journey
	if j.Active && (j.Step < 0 || j.Step >= j.Stops) {
		return fail("journey step %d outside [0,%d)", j.Step, j.Stops)
	}
	if !j.Active && (j.Step != 0 || j.Paused) {
		return fail("idle journey at step %d paused=%t", j.Step, j.Paused)
	}
	return nil
}
