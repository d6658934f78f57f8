// Package minimap draws the layout from above: galaxies, projects, the
// journey trail and the camera, projected onto the X/Z plane.
package minimap

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/teranos/orrery/geom"
	"github.com/teranos/orrery/journey"
	"github.com/teranos/orrery/layout"
	"github.com/teranos/orrery/scene"
)

// Config sets the canvas and palette.
type Config struct {
	Width      int        // canvas width in pixels
	Height     int        // canvas height in pixels
	Margin     int        // empty border in pixels
	Dot        float32    // radius in pixels of a medium project
	Labels     bool       // draw galaxy names
	Background color.RGBA // canvas fill
	Foreground color.RGBA // labels, camera and trail
	Dim        color.RGBA // projects not yet scanned when Frame has scans
}

// DefaultConfig is a 512x512 dark canvas with labels.
func DefaultConfig() Config {
	return Config{
		Width:      512,
		Height:     512,
		Margin:     24,
		Dot:        3,
		Labels:     true,
		Background: color.RGBA{10, 10, 20, 255},
		Foreground: color.RGBA{230, 230, 240, 255},
		Dim:        color.RGBA{90, 90, 110, 255},
	}
}

// Renderer projects one atlas. The world bounds are fixed when it is built
// so successive frames line up pixel for pixel.
type Renderer struct {
	cfg   Config
	atlas *layout.Atlas
	face  font.Face

	min   geom.Vec3
	scale float32
	trail []geom.Vec3
}

// New fits every galaxy center and project of atlas into the canvas.
func New(atlas *layout.Atlas, cfg Config) *Renderer {
	def := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.Dot <= 0 {
		cfg.Dot = def.Dot
	}
	if cfg.Margin < 0 || 2*cfg.Margin >= cfg.Width || 2*cfg.Margin >= cfg.Height {
		cfg.Margin = 0
	}

	r := &Renderer{cfg: cfg, atlas: atlas, face: basicfont.Face7x13}
	r.fit()
	return r
}

func (r *Renderer) fit() {
	lo := geom.V3(math.MaxFloat32, 0, math.MaxFloat32)
	hi := geom.V3(-math.MaxFloat32, 0, -math.MaxFloat32)
	grow := func(p geom.Vec3) {
		lo.X, lo.Z = math32.Min(lo.X, p.X), math32.Min(lo.Z, p.Z)
		hi.X, hi.Z = math32.Max(hi.X, p.X), math32.Max(hi.Z, p.Z)
	}
	for _, g := range r.atlas.Catalog().Galaxies() {
		c, _ := r.atlas.GalaxyCenter(g.ID)
		grow(c)
	}
	for _, p := range r.atlas.Projects() {
		grow(p.Pos)
	}
	if lo.X > hi.X {
		lo, hi = geom.V3(-1, 0, -1), geom.V3(1, 0, 1)
	}

	w := float32(r.cfg.Width - 2*r.cfg.Margin)
	h := float32(r.cfg.Height - 2*r.cfg.Margin)
	span := math32.Max(hi.X-lo.X, hi.Z-lo.Z)
	if span <= 0 {
		span = 1
	}
	r.scale = math32.Min(w, h) / span
	// Center the square fit on the shorter axis.
	r.min = geom.V3(
		lo.X-(w/r.scale-(hi.X-lo.X))/2,
		0,
		lo.Z-(h/r.scale-(hi.Z-lo.Z))/2,
	)
}

// Project maps a world position to canvas pixels.
func (r *Renderer) Project(p geom.Vec3) image.Point {
	return image.Pt(
		r.cfg.Margin+int(math32.Round((p.X-r.min.X)*r.scale)),
		r.cfg.Margin+int(math32.Round((p.Z-r.min.Z)*r.scale)),
	)
}

// SetTrail draws a polyline through the given journey stops on every
// following frame. Nil clears it.
func (r *Renderer) SetTrail(stops []journey.Stop) {
	r.trail = r.trail[:0]
	for _, s := range stops {
		r.trail = append(r.trail, s.ProjectPosition)
	}
}

// Render draws one frame.
func (r *Renderer) Render(f scene.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.cfg.Width, r.cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.cfg.Background), image.Point{}, draw.Src)

	for i := 1; i < len(r.trail); i++ {
		line(img, r.Project(r.trail[i-1]), r.Project(r.trail[i]), r.cfg.Dim)
	}

	cat := r.atlas.Catalog()
	for _, g := range cat.Galaxies() {
		center, _ := r.atlas.GalaxyCenter(g.ID)
		c := parseColor(g.Color, r.cfg.Foreground)
		ring := r.cfg.Dot * 2 * math32.Max(g.Size, 1)
		if g.ID == f.Snapshot.SelectedGalaxy {
			circle(img, r.Project(center), ring+3, r.cfg.Foreground)
		}
		circle(img, r.Project(center), ring, c)
	}

	gateShown := len(f.Snapshot.Scanned) > 0 || f.Snapshot.ScanningProject != ""
	for _, p := range r.atlas.Projects() {
		c := parseColor(p.Project.Color, r.cfg.Foreground)
		if gateShown && !f.Snapshot.IsScanned(p.Project.ID) {
			c = r.cfg.Dim
		}
		radius := r.cfg.Dot * p.Project.Size.Multiplier()
		at := r.Project(p.Pos)
		disc(img, at, radius, c)
		if p.Project.ID == f.Snapshot.SelectedProject || p.Project.ID == f.Focus {
			circle(img, at, radius+2, r.cfg.Foreground)
		}
	}

	if r.cfg.Labels {
		for _, g := range cat.Galaxies() {
			center, _ := r.atlas.GalaxyCenter(g.ID)
			at := r.Project(center)
			r.label(img, at.X-len(g.Name)*7/2, at.Y-int(r.cfg.Dot*2*math32.Max(g.Size, 1))-4, g.Name)
		}
	}

	r.drawCamera(img, f)
	return img
}

func (r *Renderer) drawCamera(img *image.RGBA, f scene.Frame) {
	eye := r.Project(f.Pose.Position)
	look := r.Project(f.Pose.LookAt)
	line(img, eye, look, r.cfg.Dim)
	for d := -3; d <= 3; d++ {
		img.SetRGBA(eye.X+d, eye.Y, r.cfg.Foreground)
		img.SetRGBA(eye.X, eye.Y+d, r.cfg.Foreground)
	}
}

func (r *Renderer) label(img *image.RGBA, x, y int, text string) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(r.cfg.Foreground),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}

// parseColor reads a #rrggbb color, falling back on error.
func parseColor(hex string, fallback color.RGBA) color.RGBA {
	if hex == "" {
		return fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	cr, cg, cb := c.RGB255()
	return color.RGBA{cr, cg, cb, 255}
}

func disc(img *image.RGBA, at image.Point, radius float32, c color.RGBA) {
	rr := radius * radius
	n := int(math32.Ceil(radius))
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if float32(dx*dx+dy*dy) <= rr {
				img.SetRGBA(at.X+dx, at.Y+dy, c)
			}
		}
	}
}

func circle(img *image.RGBA, at image.Point, radius float32, c color.RGBA) {
	steps := int(geom.TwoPi*radius) + 8
	for i := 0; i < steps; i++ {
		s, co := math32.Sincos(geom.TwoPi * float32(i) / float32(steps))
		img.SetRGBA(at.X+int(math32.Round(co*radius)), at.Y+int(math32.Round(s*radius)), c)
	}
}

// line is Bresenham's algorithm.
func line(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	for {
		img.SetRGBA(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			a.X += sx
		}
		if e2 <= dx {
			e += dx
			a.Y += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
