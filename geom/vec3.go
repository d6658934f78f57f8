// Package geom holds the float32 vector math shared by layout, camera and
// minimap. Everything here is a value type; nothing allocates.
package geom

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// Pi is math.Pi narrowed once for float32 callers.
const Pi = float32(math.Pi)

// TwoPi is a full turn in radians.
const TwoPi = 2 * Pi

// Vec3 is a point or direction in world space. Y is up.
type Vec3 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
	Z float32 `json:"z" yaml:"z"`
}

// V3 builds a Vec3.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns the euclidean length of v.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Dist returns the distance between v and o.
func (v Vec3) Dist(o Vec3) float32 {
	return v.Sub(o).Len()
}

// Lerp interpolates component-wise from v to o. At t == 1 the result is
// exactly o, which keeps repeated camera transitions from accumulating error.
func (v Vec3) Lerp(o Vec3, t float32) Vec3 {
	return Vec3{Lerp(v.X, o.X, t), Lerp(v.Y, o.Y, t), Lerp(v.Z, o.Z, t)}
}

// RotateAround rotates v about the vertical axis through pivot by angle radians.
func (v Vec3) RotateAround(pivot Vec3, angle float32) Vec3 {
	d := v.Sub(pivot)
	sin, cos := math32.Sincos(angle)
	return Vec3{
		X: pivot.X + d.X*cos - d.Z*sin,
		Y: v.Y,
		Z: pivot.Z + d.X*sin + d.Z*cos,
	}
}

func (v Vec3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// Lerp returns the linear interpolation between start and stop in proportion to amount.
func Lerp(start, stop, amount float32) float32 {
	return (1-amount)*start + amount*stop
}

// Clamp01 limits x to [0, 1].
func Clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}

// OnRing returns the point at angle on a horizontal circle of the given
// radius around center, lifted by height.
func OnRing(center Vec3, radius, angle, height float32) Vec3 {
	sin, cos := math32.Sincos(angle)
	return Vec3{
		X: center.X + radius*cos,
		Y: center.Y + height,
		Z: center.Z + radius*sin,
	}
}
