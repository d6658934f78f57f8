package minimap

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/orrery/camera"
	"github.com/teranos/orrery/content"
	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/scene"
	"github.com/teranos/orrery/store"
)

func newRenderer(t *testing.T) (*Renderer, *layout.Atlas) {
	t.Helper()
	atlas := layout.NewAtlas(content.Default(), layout.New(layout.DefaultConfig()))
	return New(atlas, DefaultConfig()), atlas
}

// plainRenderer draws no labels, for tests that sample single pixels.
func plainRenderer(t *testing.T) (*Renderer, *layout.Atlas) {
	t.Helper()
	atlas := layout.NewAtlas(content.Default(), layout.New(layout.DefaultConfig()))
	cfg := DefaultConfig()
	cfg.Labels = false
	return New(atlas, cfg), atlas
}

// offCanvasFrame parks the camera far outside the map.
func offCanvasFrame() scene.Frame {
	far := camera.Pose{Position: geom.V3(1000, 0, 1000), LookAt: geom.V3(1000, 0, 1000)}
	return scene.Frame{
		Snapshot: store.Snapshot{View: store.Universe, Scanned: []string{}},
		Pose:     far,
	}
}

func universeFrame() scene.Frame {
	return scene.Frame{
		Snapshot: store.Snapshot{View: store.Universe, Scanned: []string{}},
		Pose:     camera.UniversePose,
	}
}

func TestRender_Deterministic(t *testing.T) {
	r, _ := newRenderer(t)

	a := r.Render(universeFrame())
	b := r.Render(universeFrame())

	assert.Equal(t, image.Rect(0, 0, 512, 512), a.Bounds())
	assert.Zero(t, Difference(a, b))
}

func TestProject_EverythingOnCanvas(t *testing.T) {
	r, atlas := newRenderer(t)
	cfg := DefaultConfig()
	inner := image.Rect(cfg.Margin-1, cfg.Margin-1, cfg.Width-cfg.Margin+2, cfg.Height-cfg.Margin+2)

	for _, p := range atlas.Projects() {
		assert.True(t, r.Project(p.Pos).In(inner), "%s at %v", p.Project.ID, r.Project(p.Pos))
	}
	for _, g := range atlas.Catalog().Galaxies() {
		c, _ := atlas.GalaxyCenter(g.ID)
		assert.True(t, r.Project(c).In(inner), g.ID)
	}
}

func TestRender_ProjectColorsAndSelection(t *testing.T) {
	r, atlas := plainRenderer(t)
	pos, ok := atlas.ProjectPosition("caipo-ai")
	require.True(t, ok)
	at := r.Project(pos)

	img := r.Render(offCanvasFrame())
	assert.Equal(t, color.RGBA{0x8b, 0x5c, 0xf6, 255}, img.RGBAAt(at.X, at.Y), "inherits the galaxy color")

	f := offCanvasFrame()
	f.Snapshot.View = store.Project
	f.Snapshot.SelectedGalaxy = "ai"
	f.Snapshot.SelectedProject = "caipo-ai"
	selected := r.Render(f)
	assert.Greater(t, Difference(img, selected), 0.0)
}

func TestRender_ScanGateDimsUnscanned(t *testing.T) {
	r, atlas := plainRenderer(t)
	cfg := DefaultConfig()

	f := offCanvasFrame()
	f.Snapshot.Scanned = []string{"caipo-ai"}
	img := r.Render(f)

	scanned, _ := atlas.ProjectPosition("caipo-ai")
	other, _ := atlas.ProjectPosition("log-lens")
	assert.NotEqual(t, cfg.Dim, img.RGBAAt(r.Project(scanned).X, r.Project(scanned).Y))
	assert.Equal(t, cfg.Dim, img.RGBAAt(r.Project(other).X, r.Project(other).Y))
}

func TestRender_Trail(t *testing.T) {
	r, atlas := newRenderer(t)
	before := r.Render(universeFrame())

	stops, ok := journey.Resolve(atlas, "", nil)
	require.True(t, ok)
	r.SetTrail(stops)
	withTrail := r.Render(universeFrame())
	assert.Greater(t, Difference(before, withTrail), 0.0)

	r.SetTrail(nil)
	assert.Zero(t, Difference(before, r.Render(universeFrame())))
}

func TestDifference(t *testing.T) {
	a := image.NewRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Zero(t, Difference(a, b))

	b.SetRGBA(0, 0, color.RGBA{255, 255, 255, 255})
	b.SetRGBA(3, 3, color.RGBA{255, 255, 255, 255})
	assert.InDelta(t, 2.0/16.0, Difference(a, b), 1e-9)

	assert.Equal(t, 1.0, Difference(a, image.NewRGBA(image.Rect(0, 0, 4, 5))))

	diff := DiffImage(a, b)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, diff.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 0, 0}, diff.RGBAAt(1, 1))
}

func TestEncode_Decodes(t *testing.T) {
	r, _ := newRenderer(t)
	img := r.Render(universeFrame())

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Zero(t, Difference(img, decoded))

	path := filepath.Join(t.TempDir(), "nested", "map.png")
	require.NoError(t, Save(path, img))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, Difference(img, loaded))
}

func TestSupervisor(t *testing.T) {
	r, _ := newRenderer(t)
	dir := t.TempDir()
	sup := NewSupervisor(dir)

	_, err := sup.Check("universe", r.Render(universeFrame()))
	require.Error(t, err, "no baseline yet")

	require.NoError(t, sup.SetBaseline("universe", r.Render(universeFrame())))
	d, err := sup.Check("universe", r.Render(universeFrame()))
	require.NoError(t, err)
	assert.Zero(t, d)

	moved := universeFrame()
	moved.Pose.Position = moved.Pose.Position.Add(moved.Pose.Position.Scale(-0.5))
	moved.Snapshot.SelectedGalaxy = "ai"
	sup.Tolerance = 0
	_, err = sup.Check("universe", r.Render(moved))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drifted")
	assert.FileExists(t, filepath.Join(dir, "universe_diff.png"))
}
