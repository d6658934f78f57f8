package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 6, 3)

	assert.Equal(t, V3(5, 8, 6), a.Add(b))
	assert.Equal(t, V3(3, 4, 0), b.Sub(a))
	assert.Equal(t, V3(2, 4, 6), a.Scale(2))
	assert.InDelta(t, 5.0, float64(a.Dist(b)), 1e-6)
}

func TestVec3_LerpEndpointsAreExact(t *testing.T) {
	from := V3(0.1, -7.3, 1e-3)
	to := V3(25.123, 15.77, -33.9)

	assert.Equal(t, from, from.Lerp(to, 0))
	assert.Equal(t, to, from.Lerp(to, 1), "t=1 must land on the destination bit for bit")

	mid := from.Lerp(to, 0.5)
	assert.InDelta(t, float64((from.X+to.X)/2), float64(mid.X), 1e-5)
}

func TestVec3_RotateAroundKeepsRadius(t *testing.T) {
	pivot := V3(10, 0, -4)
	p := V3(13, 5, -4)

	rotated := p.RotateAround(pivot, Pi/2)
	assert.InDelta(t, 3.0, float64(V3(rotated.X, 0, rotated.Z).Dist(V3(pivot.X, 0, pivot.Z))), 1e-5)
	assert.Equal(t, p.Y, rotated.Y)
	assert.InDelta(t, 10.0, float64(rotated.X), 1e-5)
	assert.InDelta(t, -1.0, float64(rotated.Z), 1e-5)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, float32(0), Clamp01(-0.5))
	assert.Equal(t, float32(0.25), Clamp01(0.25))
	assert.Equal(t, float32(1), Clamp01(1.7))
}

func TestOnRing(t *testing.T) {
	p := OnRing(V3(0, 0, 0), 25, 0, 2)
	assert.InDelta(t, 25.0, float64(p.X), 1e-5)
	assert.InDelta(t, 2.0, float64(p.Y), 1e-5)
	assert.InDelta(t, 0.0, float64(p.Z), 1e-5)
}
