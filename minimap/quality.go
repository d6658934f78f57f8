package minimap

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// Save writes img as a PNG file, creating parent directories.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a PNG file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Difference is the fraction of pixels that differ, 1 when the bounds do.
func Difference(a, b image.Image) float64 {
	ba, bb := a.Bounds(), b.Bounds()
	if ba.Size() != bb.Size() {
		return 1
	}
	total := ba.Dx() * ba.Dy()
	if total == 0 {
		return 0
	}

	different := 0
	for y := 0; y < ba.Dy(); y++ {
		for x := 0; x < ba.Dx(); x++ {
			if !sameColor(a.At(ba.Min.X+x, ba.Min.Y+y), b.At(bb.Min.X+x, bb.Min.Y+y)) {
				different++
			}
		}
	}
	return float64(different) / float64(total)
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

// DiffImage paints differing pixels red over a dimmed copy of baseline.
func DiffImage(baseline, current image.Image) *image.RGBA {
	bounds := baseline.Bounds()
	diff := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	cb := current.Bounds()

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			base := baseline.At(bounds.Min.X+x, bounds.Min.Y+y)
			if !image.Pt(cb.Min.X+x, cb.Min.Y+y).In(cb) || !sameColor(base, current.At(cb.Min.X+x, cb.Min.Y+y)) {
				diff.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			r, g, b, a := base.RGBA()
			diff.SetRGBA(x, y, color.RGBA{uint8(r >> 9), uint8(g >> 9), uint8(b >> 9), uint8(a >> 8)})
		}
	}
	return diff
}

// Supervisor compares rendered minimaps against baseline PNGs kept in a
// directory, one file per name.
type Supervisor struct {
	BaselineDir string
	// Tolerance is the fraction of pixels allowed to differ.
	Tolerance float64
}

// NewSupervisor allows half a percent of pixels to move.
func NewSupervisor(baselineDir string) *Supervisor {
	return &Supervisor{BaselineDir: baselineDir, Tolerance: 0.005}
}

func (s *Supervisor) path(name string) string {
	return filepath.Join(s.BaselineDir, name+".png")
}

// SetBaseline records img as the baseline for name.
func (s *Supervisor) SetBaseline(name string, img image.Image) error {
	return Save(s.path(name), img)
}

// Check compares img with the baseline for name. Past the tolerance it
// writes name_diff.png next to the baseline and returns an error with the
// measured difference.
func (s *Supervisor) Check(name string, img image.Image) (float64, error) {
	baseline, err := Load(s.path(name))
	if err != nil {
		return 0, fmt.Errorf("load baseline: %w", err)
	}

	d := Difference(baseline, img)
	if d <= s.Tolerance {
		return d, nil
	}
	if err := Save(filepath.Join(s.BaselineDir, name+"_diff.png"), DiffImage(baseline, img)); err != nil {
		return d, fmt.Errorf("minimap %s drifted %.2f%% and the diff could not be written: %w", name, d*100, err)
	}
	return d, fmt.Errorf("minimap %s drifted %.2f%% (tolerance %.2f%%)", name, d*100, s.Tolerance*100)
}
