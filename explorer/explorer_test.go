package explorer

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orrery/camera"
	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/director"
	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/scan"
	"github.com/teranos/orrery/scene"
	"github.com/teranos/orrery/schedule"
)

func defaultAtlas() *layout.Atlas {
	return layout.NewAtlas(content.Default(), layout.New(layout.DefaultConfig()))
}

func plainConfig() Config {
	return Config{Width: 60, Style: "notty", Tick: 10 * time.Millisecond, ReducedMotion: true}
}

// rig steps the runtime by hand and feeds each frame to the model, the way
// the tick would.
type rig struct {
	t     *testing.T
	rt    *scene.Runtime
	clock *schedule.Manual
	m     Model
}

func newRig(t *testing.T) *rig {
	t.Helper()
	clock := schedule.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	rt, err := scene.New(defaultAtlas(), scene.Options{ReducedMotion: true, Scheduler: clock})
	require.NoError(t, err)
	m, err := New(rt, plainConfig())
	require.NoError(t, err)
	return &rig{t: t, rt: rt, clock: clock, m: m}
}

func (r *rig) press(keys ...string) {
	r.t.Helper()
	for _, k := range keys {
		msg, ok := director.KeyMsg(k)
		require.True(r.t, ok, k)
		next, _ := r.m.Update(msg)
		r.m = next.(Model)
	}
}

func (r *rig) step() {
	r.t.Helper()
	next, cmd := r.m.Update(frameMsg(r.rt.Step(1)))
	r.m = next.(Model)
	assert.NotNil(r.t, cmd, "every frame schedules the next poll")
}

func TestView_Initial(t *testing.T) {
	r := newRig(t)

	assert.Equal(t, "universe", r.m.CurrentMode())
	assert.Empty(t, r.m.CurrentFocus())
	assert.False(t, r.m.CheckCondition("entered"))
	assert.True(t, r.m.CheckCondition("!entered"))
	assert.False(t, r.m.CheckCondition("no-such-condition"))

	view := r.m.View()
	assert.Contains(t, view, "Universe")
	assert.Contains(t, view, "1 Applied AI")
	assert.Contains(t, view, "6 Community")
	assert.Contains(t, view, "press 1-9 or j to begin")
	assert.Contains(t, view, "lod ")
}

func TestKeys_GalaxyBackHome(t *testing.T) {
	r := newRig(t)

	r.press("2")
	assert.Equal(t, "universe", r.m.CurrentMode(), "nothing changes before the loop steps")
	r.step()
	assert.Equal(t, "galaxy", r.m.CurrentMode())
	assert.True(t, r.m.CheckCondition("galaxy:product"))
	assert.True(t, r.m.CheckCondition("entered"))
	view := r.m.View()
	assert.Contains(t, view, "Universe › Product")
	assert.Contains(t, view, "Habit Loop")
	assert.Contains(t, view, "Pocket Ledger")

	r.press("esc")
	r.step()
	assert.Equal(t, "universe", r.m.CurrentMode())

	r.press("3")
	r.step()
	r.press("h")
	r.step()
	assert.Equal(t, "universe", r.m.CurrentMode())
	assert.False(t, r.m.CheckCondition("entered"), "reset clears the entered flag")
}

func TestKeys_MissingGalaxyOrdinal(t *testing.T) {
	r := newRig(t)

	r.press("9")
	r.step()
	assert.Equal(t, "universe", r.m.CurrentMode())
	assert.Equal(t, 1, r.rt.Trips().Count("invalid_reference"))
}

func TestKeys_ScanGateAndDescend(t *testing.T) {
	r := newRig(t)

	r.press("1")
	r.step()
	r.press("tab")
	r.step()
	assert.Equal(t, "caipo-ai", r.m.CurrentFocus())
	assert.True(t, r.m.CheckCondition("target:caipo-ai"))
	assert.Contains(t, r.m.View(), "Hold space to scan Caipo")

	r.press("enter")
	r.step()
	assert.Equal(t, "galaxy", r.m.CurrentMode(), "enter is gated until the scan completes")

	// Key repeat: presses arrive inside the release grace.
	r.press("space")
	r.step()
	r.clock.Advance(500 * time.Millisecond)
	r.press("space")
	r.step()
	r.clock.Advance(250 * time.Millisecond)
	r.step()
	assert.True(t, r.m.CheckCondition("scanning:caipo-ai"))
	assert.Contains(t, r.m.View(), "Scanning Caipo")

	r.press("space")
	r.step()
	r.clock.Advance(500 * time.Millisecond)
	r.press("space")
	r.step()
	r.clock.Advance(250 * time.Millisecond)
	r.step()
	assert.True(t, r.m.CheckCondition("scanned:caipo-ai"))
	assert.False(t, r.m.CheckCondition("scanning"))
	assert.Contains(t, r.m.View(), "Caipo scanned")

	r.press("enter")
	r.step()
	assert.Equal(t, "project", r.m.CurrentMode())
	assert.True(t, r.m.CheckCondition("selected:caipo-ai"))
	assert.Empty(t, r.m.CurrentFocus())
	view := r.m.View()
	assert.Contains(t, view, "Flo Labs")
	assert.Contains(t, view, "p=caipo-ai")

	r.press("enter")
	r.step()
	r.step()
	assert.Equal(t, "exploration", r.m.CurrentMode())
	assert.False(t, r.m.CheckCondition("landing"))

	r.press("esc")
	r.step()
	assert.Equal(t, "galaxy", r.m.CurrentMode())
}

func TestKeys_Journey(t *testing.T) {
	r := newRig(t)

	r.press("j")
	r.step()
	assert.True(t, r.m.CheckCondition("journey"))
	assert.True(t, r.m.CheckCondition("stop:caipo-ai"))
	assert.Contains(t, r.m.View(), "Journey: Highlights · stop 1/6")

	r.press("]")
	r.step()
	assert.True(t, r.m.CheckCondition("stop:habit-loop"))
	assert.Contains(t, r.m.View(), "new galaxy")

	r.press("p")
	r.step()
	assert.True(t, r.m.CheckCondition("paused"))
	assert.Contains(t, r.m.View(), "paused")

	r.clock.Advance(2 * journey.DefaultConfig().Dwell())
	r.press("[")
	r.step()
	assert.True(t, r.m.CheckCondition("stop:caipo-ai"))

	r.press("esc")
	r.step()
	assert.True(t, r.m.CheckCondition("!journey"))
	assert.Equal(t, "project", r.m.CurrentMode(), "ending a journey keeps the view")
}

func TestKeys_TourCycle(t *testing.T) {
	r := newRig(t)

	r.press("J")
	r.step()
	assert.True(t, r.m.CheckCondition("journey:ai-story"))
	assert.True(t, r.m.CheckCondition("stop:vision-sort"))
	assert.Contains(t, r.m.View(), "How the assistant got built")
	assert.Contains(t, r.m.View(), "returned parcels")

	r.press("J")
	r.step()
	assert.True(t, r.m.CheckCondition("journey:builders"))
	assert.True(t, r.m.CheckCondition("stop:habit-loop"))

	r.press("J")
	r.step()
	assert.True(t, r.m.CheckCondition("journey:ai-story"), "tours wrap around")
}

func TestKeys_HelpMotionQuit(t *testing.T) {
	r := newRig(t)

	assert.NotContains(t, r.m.View(), "orbit left")
	r.press("?")
	assert.True(t, r.m.CheckCondition("help"))
	assert.Contains(t, r.m.View(), "orbit left")
	r.press("?")
	assert.False(t, r.m.CheckCondition("help"))

	assert.True(t, r.m.CheckCondition("reduced"))
	r.press("m")
	r.step()
	assert.False(t, r.m.CheckCondition("reduced"))
	assert.Equal(t, camera.Cinematic, r.rt.Camera().Profile())

	msg, _ := director.KeyMsg("q")
	_, cmd := r.m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_WindowSize(t *testing.T) {
	r := newRig(t)

	next, cmd := r.m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	m := next.(Model)
	assert.Equal(t, 120, m.help.Width)
	assert.Equal(t, 40, m.bar.Width)
}

func TestProjectMarkdown(t *testing.T) {
	p, _, ok := content.Default().Project("caipo-ai")
	require.True(t, ok)

	md := projectMarkdown(p)
	assert.Contains(t, md, "# Caipo\n")
	assert.Contains(t, md, "*Design Team Lead · Flo Labs · 2023-2024*")
	assert.Contains(t, md, "**conversational intake assistant**")
	assert.Contains(t, md, "`LLM` `RAG` `TypeScript`")
	assert.Contains(t, md, "- **users**: 40k")
	assert.Contains(t, md, "- [case study](https://example.com/caipo)")

	bare := projectMarkdown(content.Project{Title: "Bare"})
	assert.Equal(t, "# Bare\n\n", bare)
}

// TestSession drives the explorer through the director against a running
// loop on the wall clock.
func TestSession(t *testing.T) {
	rt, err := scene.New(defaultAtlas(), scene.Options{
		FPS:           100,
		ReducedMotion: true,
		Scan:          scan.Config{Duration: 300 * time.Millisecond, Range: 15, ReleaseGrace: 600 * time.Millisecond},
		Journey:       journey.Config{Transit: 5 * time.Second, Hold: 5 * time.Second},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, rt.Run(ctx))
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	m, err := New(rt, plainConfig())
	require.NoError(t, err)

	cfg := director.DefaultStageConfig()
	cfg.Timeout = 15 * time.Second
	result := director.NewWithConfig(t, m, cfg).
		Start().
		Press("1").
		WaitForMode("galaxy").
		Press("tab").
		WaitForFocus("caipo-ai").
		AssertViewContains("Hold space to scan Caipo").
		HoldKey("space", 700*time.Millisecond, 50*time.Millisecond).
		WaitForCondition("scanned:caipo-ai").
		PressEnter().
		WaitForMode("project").
		WaitForText("Flo Labs").
		PressEnter().
		WaitForMode("exploration").
		WaitForCondition("!landing").
		PressEscape().
		WaitForMode("galaxy").
		Press("j").
		WaitForCondition("stop:caipo-ai").
		Press("]").
		WaitForCondition("stop:habit-loop").
		AssertViewContains("stop 2/6").
		Press("p").
		WaitForCondition("paused").
		PressEscape().
		WaitForCondition("!journey").
		Press("h").
		WaitForMode("universe").
		Stop()

	assert.True(t, result.Success, result.ErrorMessage)
	assert.Empty(t, result.TripReport)
	t.Logf("[TRACE] session: %d actions, %d snapshots in %v", len(result.Actions), len(result.Snapshots), result.Duration)
}
