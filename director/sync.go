package director

import (
	"fmt"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update forwards msg to the wrapped model and publishes the result.
func (w stageModelWrapper) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil && w.director != nil {
			w.director.handleModelPanic(r, msg)
		}
	}()

	next, cmd := w.Model.Update(msg)
	model, ok := next.(Model)
	if !ok || model == nil {
		if w.director != nil {
			w.director.handleInvalidModel(fmt.Sprintf("Update returned %T", next), msg)
		}
		return w, cmd
	}

	if d := w.director; d != nil {
		update := modelUpdate{
			model:     model,
			sequence:  atomic.AddInt64(&d.updateSeq, 1),
			timestamp: time.Now(),
		}
		select {
		case d.modelChan <- update:
		default:
			// Buffer full: apply in place so the latest state is never lost.
			atomic.AddInt64(&d.droppedUpdates, 1)
			d.modelMu.Lock()
			if update.sequence > atomic.LoadInt64(&d.lastProcessedSeq) {
				d.latestModel = update.model
				atomic.StoreInt64(&d.lastProcessedSeq, update.sequence)
			}
			d.modelMu.Unlock()
		}
	}
	return stageModelWrapper{Model: model, director: w.director}, cmd
}

// GetSynchronizationStats reports how model updates reached the director.
func (d *StageDirector) GetSynchronizationStats() map[string]int64 {
	return map[string]int64{
		"updates_generated":  atomic.LoadInt64(&d.updateSeq),
		"updates_processed":  atomic.LoadInt64(&d.updatesProcessed),
		"updates_overflowed": atomic.LoadInt64(&d.droppedUpdates),
		"updates_stale":      atomic.LoadInt64(&d.staleUpdates),
		"buffer_length":      int64(len(d.modelChan)),
		"buffer_capacity":    int64(cap(d.modelChan)),
	}
}

func (d *StageDirector) handleModelPanic(value interface{}, msg tea.Msg) {
	d.t.Logf("FAIL-FAST: model panicked: %v", value)
	d.captureErrorSnapshot("model_panic", fmt.Sprintf("panic: %v", value))
	d.recordTrip(newFall("model_panic", fmt.Sprintf("model panic during Update: %v", value), map[string]interface{}{
		"panic_value": value,
		"tea_msg":     fmt.Sprintf("%T", msg),
		"model_type":  fmt.Sprintf("%T", d.model),
	}))
	d.cancel()
}

func (d *StageDirector) handleInvalidModel(reason string, msg tea.Msg) {
	d.t.Logf("FAIL-FAST: invalid model state: %s", reason)
	d.captureErrorSnapshot("invalid_model_state", reason)
	d.recordTrip(newFall("invalid_model_state", reason, map[string]interface{}{
		"tea_msg":    fmt.Sprintf("%T", msg),
		"model_type": fmt.Sprintf("%T", d.model),
	}))
	d.cancel()
}

func (d *StageDirector) captureErrorSnapshot(kind, message string) {
	var view string
	func() {
		defer func() {
			if r := recover(); r != nil {
				view = fmt.Sprintf("view unavailable: %v", r)
			}
		}()
		view = d.getCurrentView()
	}()

	d.snapshots = append(d.snapshots, StageSnapshot{
		Timestamp: time.Now(),
		View:      fmt.Sprintf("ERROR STATE (%s)\n%s\n\nLast View:\n%s", kind, message, view),
		Mode:      "error_" + kind,
	})
}
