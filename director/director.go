// Package director drives a bubbletea model headlessly for scripted
// sessions: key presses, holds, waits and assertions against what the model
// renders and reports.
//
// Basic usage:
//
//	result := director.New(t, explorer.New(rt, cfg)).
//		WithTimeout(5 * time.Second).
//		Start().
//		Press("1").
//		WaitForMode("galaxy").
//		HoldKey("space", 2*time.Second, 100*time.Millisecond).
//		WaitForCondition("scanned").
//		AssertViewContains("Applied AI").
//		Stop()
//
//	assert.True(t, result.Success)
//
// Failures do not stop the test immediately. They are recorded as trips
// and reported in the StageResult.
package director

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/orrery/trip"
)

// modelUpdate is a model state published by the wrapper, tagged for ordering.
type modelUpdate struct {
	model     Model
	sequence  int64
	timestamp time.Time
}

// Closeable models are closed when the director stops.
type Closeable interface {
	Close() error
}

// Model is a bubbletea model that can report its state to a director.
//
//	func (m Explorer) CurrentMode() string  { return string(m.frame.Snapshot.View) }
//	func (m Explorer) CurrentFocus() string { return m.frame.Focus }
//	func (m Explorer) CheckCondition(c string) bool {
//		switch c {
//		case "journey": return m.frame.Snapshot.Journey.Active
//		default: return false
//		}
//	}
type Model interface {
	tea.Model
	// CurrentMode is the model's coarse state, e.g. the navigation view.
	CurrentMode() string
	// CurrentFocus is what the model is pointed at, e.g. a project id.
	CurrentFocus() string
	// CheckCondition answers named yes/no questions for waits and asserts.
	CheckCondition(condition string) bool
}

// StageDirector runs one headless session.
type StageDirector struct {
	t       *testing.T
	model   Model
	program *tea.Program
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc

	actions   []StageAction
	snapshots []StageSnapshot

	tripHandler *trip.Handler
	lastTrip    *trip.Trip
	failed      bool

	sendMu sync.Mutex

	modelChan        chan modelUpdate
	latestModel      Model
	modelMu          sync.RWMutex
	updateSeq        int64 // atomic
	lastProcessedSeq int64 // atomic
	droppedUpdates   int64 // atomic
	updatesProcessed int64 // atomic
	staleUpdates     int64 // atomic

	config  StageConfig
	started bool
}

// stageModelWrapper forwards every update to the director.
type stageModelWrapper struct {
	Model
	director *StageDirector
}

// StageAction records one interaction.
type StageAction struct {
	Timestamp time.Time
	Type      string      // "keypress", "hold", "wait", "assertion"
	Details   interface{} // key name, duration, condition...
}

// StageSnapshot is the model's state at one moment.
type StageSnapshot struct {
	Timestamp time.Time
	View      string
	Mode      string
	Focus     string
}

// StageResult is what Stop returns.
type StageResult struct {
	Actions      []StageAction
	Snapshots    []StageSnapshot
	Success      bool
	Duration     time.Duration
	ErrorMessage string
	Error        error
	TripReport   string
}

// StageConfig tunes a session.
type StageConfig struct {
	// Timeout bounds the whole session and every wait in it.
	Timeout time.Duration
	// Settle is how long a key press waits for the view to change.
	Settle time.Duration
	// TypingSpeed is the delay between typed characters.
	TypingSpeed time.Duration
	// CaptureViews records a snapshot after every interaction.
	CaptureViews bool
}

// DefaultStageConfig waits up to 30 seconds, gives each key 250ms to show
// and records snapshots.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		Timeout:      30 * time.Second,
		Settle:       250 * time.Millisecond,
		TypingSpeed:  0,
		CaptureViews: true,
	}
}

// New creates a director with the default configuration.
func New(t *testing.T, model Model) *StageDirector {
	return NewWithConfig(t, model, DefaultStageConfig())
}

// NewWithConfig creates a director. Start must be called before any
// interaction and Stop to collect the result.
func NewWithConfig(t *testing.T, model Model, config StageConfig) *StageDirector {
	def := DefaultStageConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.Settle <= 0 {
		config.Settle = def.Settle
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)

	d := &StageDirector{
		t:           t,
		model:       model,
		ctx:         ctx,
		cancel:      cancel,
		tripHandler: trip.NewHandler("director", trip.StagePolicy()),
		modelChan:   make(chan modelUpdate, 64),
		latestModel: model,
		config:      config,
	}
	go d.syncModelUpdates()
	return d
}
