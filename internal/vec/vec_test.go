package vec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec3Float_Ops(t *testing.T) {
	a := V3(3, 4, 0)

	assert.Equal(t, 5.0, a.Length())
	assert.Equal(t, 5.0, a.Length2D())
	assert.InDelta(t, 1.0, a.Normalized().Length(), 1e-9)
	assert.Equal(t, V3(6, 8, 0), a.Add(a))
	assert.Equal(t, 25.0, a.Dot(a))
	assert.Equal(t, V3(0, 0, 1), V3(1, 0, 0).Cross(V3(0, 1, 0)))
	assert.Equal(t, V3(1.5, 2, 0), Zero.Lerp(a, 0.5))
}

func TestAngles_RoundTrip(t *testing.T) {
	for _, dir := range []Vec3Float{V3(1, 0, 0), V3(0, 1, 0), V3(-1, -1, 0), V3(1, 0, -1)} {
		angles := DirToAngles(dir)
		forward, _, _ := AngleVectors(angles)
		assert.InDelta(t, 1.0, forward.Dot(dir.Normalized()), 1e-9, "направление %+v", dir)
	}
}

func TestAngles_RightVector(t *testing.T) {
	_, right, _ := AngleVectors(Angles{Y: 0})
	assert.InDelta(t, -1.0, right.Y, 1e-9, "при взгляде вдоль +X правый вектор смотрит в -Y")
}

func TestAngleHelpers(t *testing.T) {
	assert.Equal(t, 350.0, AngleMod(-10))
	assert.Equal(t, -10.0, AngleNormalize180(350))
	assert.Equal(t, 20.0, AngleDelta(10, 350))

	rotated := RotateAroundZ(V3(1, 0, 5), 90)
	assert.InDelta(t, 0, rotated.X, 1e-9)
	assert.InDelta(t, 1, rotated.Y, 1e-9)
	assert.Equal(t, 5.0, rotated.Z)
	assert.InDelta(t, math.Sqrt2, Vec2Float{X: 1, Y: 1}.Length(), 1e-9)
}
