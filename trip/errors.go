// Package trip records the faults the navigation core absorbs instead of
// surfacing.
//
// Nothing in the core returns an error for a bad id or a target that is not
// there yet. It trips, records what happened, and carries on. The Handler
// keeps those trips so a CLI check, a test, or a debug log can see them.
package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Trip types raised by the core.
const (
	// InvalidReference: a navigation action named an id absent from content.
	InvalidReference = "invalid_reference"
	// MissingDependency: a camera or scan operation ran before its target
	// existed. The operation waits; the trip only notes the wait.
	MissingDependency = "missing_dependency"
	// TourContent: a narrative tour named a project absent from content.
	TourContent = "tour_content"
)

// Trip represents a fault with the context needed to debug it.
//
// Example usage:
//
//	t := NewStumble(InvalidReference, "zoomToGalaxy: unknown galaxy",
//	    Context{"id": "nebula-9"})
//
//	if t.CanRecover() {
//	    // nothing happens for the user
//	}
type Trip struct {
	Type      string    // Category for systematic handling
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the trip occurred
	Attempt   int       // Which attempt/retry this was
	Severity  Severity  // How serious this trip is
}

// Context provides structured debugging information for trips.
type Context map[string]interface{}

// Severity indicates how serious a trip is and how it should be handled.
type Severity int

const (
	// Stumble is absorbed silently. Every core fault is a stumble.
	Stumble Severity = iota

	// Error is a significant issue, e.g. a failed scripted assertion.
	Error

	// Fall invalidates the run, e.g. a panicking model.
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewTrip creates a new trip with Error severity.
func NewTrip(errorType, message string, context Context) *Trip {
	return &Trip{
		Type:      errorType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error,
	}
}

// NewStumble creates a new trip with Stumble severity.
func NewStumble(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Stumble
	return t
}

// NewFall creates a new trip with Fall severity.
func NewFall(errorType, message string, context Context) *Trip {
	t := NewTrip(errorType, message, context)
	t.Severity = Fall
	return t
}

// UnknownID is the stumble for an action given an id absent from content.
func UnknownID(action, kind, id string) *Trip {
	return NewStumble(InvalidReference,
		fmt.Sprintf("%s: unknown %s %q", action, kind, id),
		Context{"action": action, "kind": kind, "id": id})
}

// Waiting is the stumble for an operation deferred until its target exists.
func Waiting(operation, target string) *Trip {
	return NewStumble(MissingDependency,
		fmt.Sprintf("%s: waiting for %q", operation, target),
		Context{"operation": operation, "target": target})
}

// SkippedStop is the stumble for a tour stop dropped during resolution.
func SkippedStop(tourID, projectID string, index int) *Trip {
	return NewStumble(TourContent,
		fmt.Sprintf("tour %q: stop %d names unknown project %q", tourID, index, projectID),
		Context{"tour": tourID, "project": projectID, "index": index})
}

// WithAttempt sets the attempt number for this trip.
func (t *Trip) WithAttempt(attemptNumber int) *Trip {
	t.Attempt = attemptNumber
	return t
}

// Error implements the error interface.
func (t *Trip) Error() string {
	return fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message)
}

// CanRecover returns true if work can continue despite this trip.
func (t *Trip) CanRecover() bool {
	return t.Severity == Stumble
}

// IsFall returns true if this trip should immediately stop the run.
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// DetailedString returns a full description with context, keys sorted.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(fmt.Sprintf("[%s:%s] %s", t.Type, t.Severity, t.Message))
	details.WriteString(fmt.Sprintf("\n  Time: %s", t.Timestamp.Format("15:04:05.000")))

	if t.Attempt > 0 {
		details.WriteString(fmt.Sprintf("\n  Attempt: %d", t.Attempt))
	}

	if len(t.Context) > 0 {
		keys := make([]string, 0, len(t.Context))
		for k := range t.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		details.WriteString("\n  Context:")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, t.Context[key]))
		}
	}

	return details.String()
}

func (t *Trip) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("trip", t.Type),
		zap.Stringer("severity", t.Severity),
	}
	for k, v := range t.Context {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}
