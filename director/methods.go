package director

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// syncModelUpdates applies published models in sequence order.
func (d *StageDirector) syncModelUpdates() {
	defer func() {
		if r := recover(); r != nil {
			d.t.Logf("model sync goroutine panicked: %v", r)
		}
	}()

	for {
		select {
		case update := <-d.modelChan:
			if update.sequence <= atomic.LoadInt64(&d.lastProcessedSeq) {
				atomic.AddInt64(&d.staleUpdates, 1)
				continue
			}
			d.modelMu.Lock()
			d.latestModel = update.model
			atomic.StoreInt64(&d.lastProcessedSeq, update.sequence)
			atomic.AddInt64(&d.updatesProcessed, 1)
			d.modelMu.Unlock()

		case <-d.ctx.Done():
			return
		}
	}
}

// WithTimeout replaces the session timeout. Ignored after Start.
func (d *StageDirector) WithTimeout(timeout time.Duration) *StageDirector {
	if d.started {
		d.t.Logf("cannot change timeout after start, ignoring WithTimeout(%v)", timeout)
		return d
	}
	// The sync goroutine watches the old context; restart it on the new one.
	d.cancel()
	d.ctx, d.cancel = context.WithTimeout(context.Background(), timeout)
	d.config.Timeout = timeout
	go d.syncModelUpdates()
	return d
}

// WithViewCapture turns snapshot recording on or off. Ignored after Start.
func (d *StageDirector) WithViewCapture(enabled bool) *StageDirector {
	if d.started {
		d.t.Logf("cannot change view capture after start, ignoring WithViewCapture(%v)", enabled)
		return d
	}
	d.config.CaptureViews = enabled
	return d
}

// Start runs the model in a headless program and waits for its first view.
func (d *StageDirector) Start() *StageDirector {
	if d.started {
		d.t.Logf("director already started")
		return d
	}

	d.t.Logf("[TRACE] Start: creating headless program for %T", d.model)
	d.program = tea.NewProgram(stageModelWrapper{Model: d.model, director: d},
		tea.WithoutRenderer(),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
		tea.WithContext(d.ctx),
	)

	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		defer func() {
			if r := recover(); r != nil {
				d.t.Logf("program goroutine panicked: %v", r)
			}
		}()
		if _, err := d.program.Run(); err != nil && d.ctx.Err() == nil {
			d.t.Logf("[TRACE] Start: program returned %v", err)
		}
	}()

	if err := d.waitForProgramReady(); err != nil {
		d.recordTrip(newStageTrip("startup", err.Error(), nil))
		return d
	}

	d.started = true
	d.captureSnapshot()
	d.t.Logf("[TRACE] Start: ready in mode %q", d.getCurrentMode())
	return d
}

// Stop ends the session and reports what happened.
func (d *StageDirector) Stop() *StageResult {
	start := time.Now()
	if d.started {
		d.captureSnapshot()
	}

	if d.program != nil {
		d.program.Quit()
		select {
		case <-d.done:
		case <-time.After(time.Second):
			d.program.Kill()
			<-d.done
		}
	}
	d.cancel()

	if c, ok := d.model.(Closeable); ok {
		if err := c.Close(); err != nil {
			d.recordTrip(newStageTrip("close", err.Error(), nil))
		}
	}

	result := &StageResult{
		Actions:      d.actions,
		Snapshots:    d.snapshots,
		Success:      !d.failed && d.tripHandler.ShouldContinue(),
		Duration:     time.Since(start),
		ErrorMessage: d.getErrorMessage(),
		Error:        d.GetError(),
	}
	if d.tripHandler.HasTrips() || d.tripHandler.HasStumbles() {
		result.TripReport = d.tripHandler.DetailedReport()
	}
	return result
}

// WaitForMode blocks until CurrentMode reports expected.
func (d *StageDirector) WaitForMode(expected string) *StageDirector {
	return d.waitUntil("mode="+expected, func(m Model) bool {
		return m.CurrentMode() == expected
	}, func() map[string]interface{} {
		return map[string]interface{}{"expected_mode": expected, "current_mode": d.getCurrentMode()}
	})
}

// WaitForText blocks until the view contains text.
func (d *StageDirector) WaitForText(text string) *StageDirector {
	return d.waitUntil("text="+text, func(m Model) bool {
		return strings.Contains(m.View(), text)
	}, func() map[string]interface{} {
		return map[string]interface{}{"expected_text": text, "current_view": truncate(d.getCurrentView(), 400)}
	})
}

// WaitForCondition blocks until CheckCondition(condition) is true.
func (d *StageDirector) WaitForCondition(condition string) *StageDirector {
	return d.waitUntil("condition="+condition, func(m Model) bool {
		return m.CheckCondition(condition)
	}, func() map[string]interface{} {
		return map[string]interface{}{"condition": condition, "current_mode": d.getCurrentMode()}
	})
}

// WaitForFocus blocks until CurrentFocus reports id.
func (d *StageDirector) WaitForFocus(id string) *StageDirector {
	return d.waitUntil("focus="+id, func(m Model) bool {
		return m.CurrentFocus() == id
	}, func() map[string]interface{} {
		return map[string]interface{}{"expected_focus": id, "current_focus": d.getCurrentFocus()}
	})
}

func (d *StageDirector) waitUntil(what string, ok func(Model) bool, describe func() map[string]interface{}) *StageDirector {
	if d.failed {
		return d
	}

	timeout := time.NewTimer(d.config.Timeout)
	defer timeout.Stop()

	for polls := 1; ; polls++ {
		if m := d.current(); m != nil && ok(m) {
			d.recordStageAction("wait", what)
			return d
		}
		select {
		case <-timeout.C:
			d.recordTrip(newStageTrip("timeout", "timeout waiting for "+what, describe()).WithAttempt(polls))
			return d
		case <-d.ctx.Done():
			d.recordTrip(newStageTrip("timeout", "session ended waiting for "+what, describe()).WithAttempt(polls))
			return d
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (d *StageDirector) waitForProgramReady() error {
	timeout := time.NewTimer(d.config.Timeout)
	defer timeout.Stop()

	for i := 0; ; i++ {
		if view := d.getCurrentView(); len(view) > 0 {
			d.t.Logf("[TRACE] waitForProgramReady: ready after %d checks, view length=%d", i+1, len(view))
			return nil
		}
		select {
		case <-timeout.C:
			return fmt.Errorf("timeout waiting for program to be ready")
		case <-d.ctx.Done():
			return fmt.Errorf("context canceled while waiting for program")
		case <-d.done:
			return fmt.Errorf("program exited before it was ready")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// waitForViewChange gives the view up to Settle to move away from previous.
func (d *StageDirector) waitForViewChange(previous string) bool {
	timer := time.NewTimer(d.config.Settle)
	defer timer.Stop()

	for {
		if d.getCurrentView() != previous {
			return true
		}
		select {
		case <-timer.C:
			return false
		case <-d.ctx.Done():
			return false
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func (d *StageDirector) current() Model {
	d.modelMu.RLock()
	defer d.modelMu.RUnlock()
	return d.latestModel
}

func (d *StageDirector) getCurrentView() string {
	if m := d.current(); m != nil {
		return m.View()
	}
	return ""
}

func (d *StageDirector) getCurrentMode() string {
	if m := d.current(); m != nil {
		return m.CurrentMode()
	}
	return ""
}

func (d *StageDirector) getCurrentFocus() string {
	if m := d.current(); m != nil {
		return m.CurrentFocus()
	}
	return ""
}

// Mode returns the latest reported mode.
func (d *StageDirector) Mode() string {
	return d.getCurrentMode()
}

// Focus returns the latest reported focus.
func (d *StageDirector) Focus() string {
	return d.getCurrentFocus()
}

// View returns the latest rendered view.
func (d *StageDirector) View() string {
	return d.getCurrentView()
}

// Check evaluates a condition on the latest model.
func (d *StageDirector) Check(condition string) bool {
	m := d.current()
	return m != nil && m.CheckCondition(condition)
}

// GetLatestSnapshot returns the most recent snapshot.
func (d *StageDirector) GetLatestSnapshot() StageSnapshot {
	if len(d.snapshots) == 0 {
		return StageSnapshot{}
	}
	return d.snapshots[len(d.snapshots)-1]
}

// GetStageActionCount returns the number of recorded interactions.
func (d *StageDirector) GetStageActionCount() int {
	return len(d.actions)
}

func (d *StageDirector) getErrorMessage() string {
	if d.lastTrip != nil {
		return fmt.Sprintf("[%s] %s", strings.ToLower(d.lastTrip.Type), d.lastTrip.Message)
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
