package trip

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Handler collects trips for one component.
//
// Stumbles are kept in a bounded window (Policy.Retain); the per-type
// counters are never trimmed. A Handler is safe for concurrent use: the
// runtime loop records while a CLI or test reads.
type Handler struct {
	component string
	policy    *Policy
	logger    *zap.Logger

	mu       sync.Mutex
	trips    []*Trip        // non-stumbles in chronological order
	stumbles []*Trip        // newest Policy.Retain stumbles
	counts   map[string]int // every trip ever recorded, by type

	stumbleTotal int
}

// Policy defines how different types and severities of trips are handled.
type Policy struct {
	// StopOnFall makes ShouldContinue false after any fall.
	StopOnFall bool

	// MaxStumbles makes ShouldContinue false once exceeded. Zero is unlimited.
	MaxStumbles int

	// Retain bounds how many stumbles are kept for reporting. Zero keeps all.
	Retain int

	// RecoverableTypes lists trip types that never stop a run.
	RecoverableTypes []string
}

// DefaultPolicy is the policy of the navigation core: everything it raises
// is recoverable and stumbles never stop anything.
func DefaultPolicy() *Policy {
	return &Policy{
		StopOnFall:       true,
		MaxStumbles:      0,
		Retain:           256,
		RecoverableTypes: []string{InvalidReference, MissingDependency, TourContent},
	}
}

// StagePolicy is the policy for scripted sessions: a handful of stumbles is
// tolerated, then the session is considered broken.
func StagePolicy() *Policy {
	return &Policy{
		StopOnFall:       true,
		MaxStumbles:      10,
		Retain:           0,
		RecoverableTypes: []string{"interaction", "timing"},
	}
}

// NewHandler creates a new trip handler for a specific component.
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Handler{
		component: component,
		policy:    policy,
		logger:    zap.NewNop(),
		counts:    make(map[string]int),
	}
}

// WithLogger logs every recorded trip. Stumbles go to debug level.
func (h *Handler) WithLogger(logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h.logger = logger.With(zap.String("component", h.component))
	return h
}

// Record adds a trip to the handler's collection.
func (h *Handler) Record(trip *Trip) {
	if trip == nil {
		return
	}

	h.mu.Lock()
	h.counts[trip.Type]++
	if trip.Severity == Stumble {
		h.stumbleTotal++
		h.stumbles = append(h.stumbles, trip)
		if h.policy.Retain > 0 && len(h.stumbles) > h.policy.Retain {
			h.stumbles = append(h.stumbles[:0:0], h.stumbles[len(h.stumbles)-h.policy.Retain:]...)
		}
	} else {
		h.trips = append(h.trips, trip)
	}
	h.mu.Unlock()

	switch trip.Severity {
	case Stumble:
		h.logger.Debug(trip.Message, trip.fields()...)
	case Error:
		h.logger.Warn(trip.Message, trip.fields()...)
	default:
		h.logger.Error(trip.Message, trip.fields()...)
	}
}

// ShouldContinue determines if work should continue based on recorded trips.
func (h *Handler) ShouldContinue() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.policy.StopOnFall {
		for _, trip := range h.trips {
			if trip.IsFall() {
				return false
			}
		}
	}

	if h.policy.MaxStumbles > 0 && h.stumbleTotal > h.policy.MaxStumbles {
		return false
	}

	return true
}

// HasTrips returns true if any non-stumbles have been recorded.
func (h *Handler) HasTrips() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.trips) > 0
}

// HasStumbles returns true if any stumbles have been recorded.
func (h *Handler) HasStumbles() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stumbles) > 0
}

// GetTrips returns a copy of the recorded non-stumbles.
func (h *Handler) GetTrips() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.trips...)
}

// GetStumbles returns a copy of the retained stumbles.
func (h *Handler) GetStumbles() []*Trip {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*Trip(nil), h.stumbles...)
}

// Count returns how many trips of errorType were ever recorded.
func (h *Handler) Count(errorType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[errorType]
}

// CanRecover returns true if the given trip type is considered recoverable.
func (h *Handler) CanRecover(errorType string) bool {
	return h.canRecover(errorType)
}

func (h *Handler) canRecover(errorType string) bool {
	for _, recoverableType := range h.policy.RecoverableTypes {
		if recoverableType == errorType {
			return true
		}
	}
	return false
}

// Summary provides a concise overview of all trips and stumbles.
func (h *Handler) Summary() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.summary()
}

func (h *Handler) summary() string {
	if len(h.trips) == 0 && h.stumbleTotal == 0 {
		return fmt.Sprintf("[%s] No issues", h.component)
	}
	return fmt.Sprintf("[%s] %d trips, %d stumbles",
		h.component, len(h.trips), h.stumbleTotal)
}

// DetailedReport provides a comprehensive report of all issues.
func (h *Handler) DetailedReport() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Component Report ===\n", h.component))
	report.WriteString(h.summary() + "\n")

	if len(h.trips) > 0 {
		report.WriteString("\nTrips:\n")
		for i, trip := range h.trips {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, trip.DetailedString()))
		}
	}

	if len(h.stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, stumble := range h.stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, stumble.DetailedString()))
		}
	}

	return report.String()
}
