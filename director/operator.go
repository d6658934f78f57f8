package director

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ShotConfig sizes the virtual terminal a tracking shot is drawn on.
type ShotConfig struct {
	Width      int // columns
	Height     int // rows
	Background color.RGBA
	Foreground color.RGBA
}

// DefaultShotConfig is an 80x24 white-on-black terminal.
func DefaultShotConfig() ShotConfig {
	return ShotConfig{
		Width:      80,
		Height:     24,
		Background: color.RGBA{0, 0, 0, 255},
		Foreground: color.RGBA{255, 255, 255, 255},
	}
}

// Operator is a director that also films: each tracking shot renders the
// current view as a PNG in its output directory.
type Operator struct {
	*StageDirector
	shot   ShotConfig
	dir    string
	frames int
	paths  []string
}

// NewOperator wraps a new director around model, filming into dir.
func NewOperator(t *testing.T, model Model, dir string) *Operator {
	return &Operator{StageDirector: New(t, model), shot: DefaultShotConfig(), dir: dir}
}

// WithShotConfig changes the virtual terminal.
func (op *Operator) WithShotConfig(cfg ShotConfig) *Operator {
	if cfg.Width > 0 && cfg.Height > 0 {
		op.shot = cfg
	}
	return op
}

// Start starts the underlying director.
func (op *Operator) Start() *Operator {
	op.StageDirector.Start()
	return op
}

// Press presses a key and returns the operator.
func (op *Operator) Press(name string) *Operator {
	op.StageDirector.Press(name)
	return op
}

// WaitForMode waits for a mode and returns the operator.
func (op *Operator) WaitForMode(mode string) *Operator {
	op.StageDirector.WaitForMode(mode)
	return op
}

// CaptureTrackingShot films the current view as NNN_label.png.
func (op *Operator) CaptureTrackingShot(label string) *Operator {
	op.frames++
	path := filepath.Join(op.dir, fmt.Sprintf("%03d_%s.png", op.frames, label))
	img := RenderText(op.View(), op.shot)

	if err := savePNG(path, img); err != nil {
		op.recordTrip(newStageTrip("capture", err.Error(), map[string]interface{}{"path": path}))
		return op
	}
	op.paths = append(op.paths, path)
	op.recordStageAction("screenshot", path)
	return op
}

// PressWithTrackingShot presses a key and films the result.
func (op *Operator) PressWithTrackingShot(name, label string) *Operator {
	op.StageDirector.Press(name)
	return op.CaptureTrackingShot(label)
}

// Shots lists the files written so far.
func (op *Operator) Shots() []string {
	return op.paths
}

// RenderText draws terminal output on a cfg.Width x cfg.Height character
// grid. Escape sequences are stripped; lines and columns past the grid are
// cut.
func RenderText(output string, cfg ShotConfig) *image.RGBA {
	face := basicfont.Face7x13
	cellW, cellH := face.Advance, face.Height+3

	img := image.NewRGBA(image.Rect(0, 0, cfg.Width*cellW, cfg.Height*cellH))
	draw.Draw(img, img.Bounds(), image.NewUniform(cfg.Background), image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(cfg.Foreground), Face: face}
	for row, line := range strings.Split(ansi.Strip(output), "\n") {
		if row >= cfg.Height {
			break
		}
		col := 0
		for _, r := range line {
			if col >= cfg.Width {
				break
			}
			if r != ' ' {
				drawer.Dot = fixed.P(col*cellW, (row+1)*cellH-face.Descent)
				drawer.DrawString(string(r))
			}
			col++
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
