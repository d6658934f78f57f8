package director

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teranos/orrery/trip"
)

// named keys understood by Press.
var namedKeys = map[string]tea.KeyMsg{
	"enter":     {Type: tea.KeyEnter},
	"esc":       {Type: tea.KeyEsc},
	"tab":       {Type: tea.KeyTab},
	"shift+tab": {Type: tea.KeyShiftTab},
	"up":        {Type: tea.KeyUp},
	"down":      {Type: tea.KeyDown},
	"left":      {Type: tea.KeyLeft},
	"right":     {Type: tea.KeyRight},
	"backspace": {Type: tea.KeyBackspace},
	"space":     {Type: tea.KeySpace, Runes: []rune{' '}},
	"ctrl+c":    {Type: tea.KeyCtrlC},
}

// KeyMsg turns a key name ("enter", "shift+tab", "space") or a single
// character into the message a terminal would deliver.
func KeyMsg(name string) (tea.KeyMsg, bool) {
	if msg, ok := namedKeys[name]; ok {
		return msg, true
	}
	if r := []rune(name); len(r) == 1 {
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: r}, true
	}
	return tea.KeyMsg{}, false
}

// Press sends one key press and waits briefly for the view to react.
func (d *StageDirector) Press(name string) *StageDirector {
	if d.failed {
		return d
	}
	msg, ok := KeyMsg(name)
	if !ok {
		d.recordTrip(newStageTrip("script", "unknown key "+name, map[string]interface{}{"key": name}))
		return d
	}
	d.sendMessage(msg)
	d.recordStageAction("keypress", name)
	return d
}

// PressEnter presses Enter.
func (d *StageDirector) PressEnter() *StageDirector { return d.Press("enter") }

// PressEscape presses Escape.
func (d *StageDirector) PressEscape() *StageDirector { return d.Press("esc") }

// PressTab presses Tab.
func (d *StageDirector) PressTab() *StageDirector { return d.Press("tab") }

// Type sends each character of text as its own key press.
func (d *StageDirector) Type(text string) *StageDirector {
	for _, r := range text {
		d.Press(string(r))
		if d.config.TypingSpeed > 0 {
			time.Sleep(d.config.TypingSpeed)
		}
	}
	return d
}

// HoldKey emulates a held key the way a terminal reports one: the same key
// press repeated every interval for duration, with no release event.
func (d *StageDirector) HoldKey(name string, duration, interval time.Duration) *StageDirector {
	if d.failed {
		return d
	}
	msg, ok := KeyMsg(name)
	if !ok {
		d.recordTrip(newStageTrip("script", "unknown key "+name, map[string]interface{}{"key": name}))
		return d
	}
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	d.sendMu.Lock()
	deadline := time.Now().Add(duration)
	presses := 0
	for d.program != nil && time.Now().Before(deadline) && d.ctx.Err() == nil {
		d.program.Send(msg)
		presses++
		time.Sleep(interval)
	}
	d.sendMu.Unlock()

	d.recordStageAction("hold", map[string]interface{}{"key": name, "duration": duration, "presses": presses})
	d.captureSnapshot()
	return d
}

// Wait sleeps, e.g. to let an animation play out.
func (d *StageDirector) Wait(duration time.Duration) *StageDirector {
	time.Sleep(duration)
	d.recordStageAction("wait", duration)
	d.captureSnapshot()
	return d
}

// AssertViewContains records a failure unless the view contains text.
func (d *StageDirector) AssertViewContains(text string) *StageDirector {
	view := d.getCurrentView()
	if !strings.Contains(view, text) {
		d.recordTrip(newStageTrip("assertion", "view does not contain "+text,
			map[string]interface{}{"expected": text, "actual_view": truncate(view, 400)}))
		return d
	}
	d.recordStageAction("assertion", "contains="+text)
	return d
}

// AssertMode records a failure unless the model is in mode expected.
func (d *StageDirector) AssertMode(expected string) *StageDirector {
	if actual := d.getCurrentMode(); actual != expected {
		d.recordTrip(newStageTrip("assertion", "expected mode "+expected+", got "+actual,
			map[string]interface{}{"expected": expected, "actual": actual}))
		return d
	}
	d.recordStageAction("assertion", "mode="+expected)
	return d
}

// AssertFocus records a failure unless the model is focused on id.
func (d *StageDirector) AssertFocus(id string) *StageDirector {
	if actual := d.getCurrentFocus(); actual != id {
		d.recordTrip(newStageTrip("assertion", "expected focus "+id+", got "+actual,
			map[string]interface{}{"expected": id, "actual": actual}))
		return d
	}
	d.recordStageAction("assertion", "focus="+id)
	return d
}

// AssertCondition records a failure unless the named condition holds.
func (d *StageDirector) AssertCondition(condition string) *StageDirector {
	if !d.Check(condition) {
		d.recordTrip(newStageTrip("assertion", "condition "+condition+" does not hold",
			map[string]interface{}{"condition": condition, "mode": d.getCurrentMode()}))
		return d
	}
	d.recordStageAction("assertion", "condition="+condition)
	return d
}

// AssertNotCondition records a failure if the named condition holds.
func (d *StageDirector) AssertNotCondition(condition string) *StageDirector {
	if d.Check(condition) {
		d.recordTrip(newStageTrip("assertion", "condition "+condition+" holds",
			map[string]interface{}{"condition": condition, "mode": d.getCurrentMode()}))
		return d
	}
	d.recordStageAction("assertion", "!condition="+condition)
	return d
}

func (d *StageDirector) sendMessage(msg tea.Msg) {
	if d.program == nil {
		return
	}
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	before := d.getCurrentView()
	d.t.Logf("[TRACE] sendMessage: %v", msg)
	d.program.Send(msg)
	changed := d.waitForViewChange(before)
	d.captureSnapshot()
	d.t.Logf("[TRACE] sendMessage: view changed=%t", changed)
}

func (d *StageDirector) recordStageAction(kind string, details interface{}) {
	d.actions = append(d.actions, StageAction{Timestamp: time.Now(), Type: kind, Details: details})
}

func (d *StageDirector) captureSnapshot() {
	if !d.config.CaptureViews {
		return
	}
	d.snapshots = append(d.snapshots, StageSnapshot{
		Timestamp: time.Now(),
		View:      d.getCurrentView(),
		Mode:      d.getCurrentMode(),
		Focus:     d.getCurrentFocus(),
	})
}

func newStageTrip(errorType, message string, context map[string]interface{}) *trip.Trip {
	return trip.NewTrip(errorType, message, toContext(context))
}

func newFall(errorType, message string, context map[string]interface{}) *trip.Trip {
	return trip.NewFall(errorType, message, toContext(context))
}

func toContext(m map[string]interface{}) trip.Context {
	c := make(trip.Context, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// recordTrip records t and fails the session unless its type is recoverable
// under the stage policy.
func (d *StageDirector) recordTrip(t *trip.Trip) {
	d.tripHandler.Record(t)
	d.lastTrip = t
	if !d.tripHandler.CanRecover(t.Type) {
		d.failed = true
	}

	if d.t != nil {
		d.t.Helper()
		if t.IsFall() {
			d.t.Error(t)
		} else {
			d.t.Log(t.DetailedString())
		}
	}
}

// HasFailed reports whether the session recorded a non-recoverable trip.
func (d *StageDirector) HasFailed() bool {
	return d.failed || !d.tripHandler.ShouldContinue()
}

// GetError returns the last trip, if any.
func (d *StageDirector) GetError() error {
	if d.lastTrip != nil {
		return d.lastTrip
	}
	return nil
}

// GetTripHandler exposes the session's trips.
func (d *StageDirector) GetTripHandler() *trip.Handler {
	return d.tripHandler
}
