package movement

import (
	"math"

	"github.com/annel0/botplanner/internal/vec"
)

// Упакованные представления полей, которые копируются на каждом уровне
// спекулятивного стека. Запись всегда упаковывает, чтение распаковывает.

const (
	dirScale      = 32767.0
	velocityScale = 4.0
	maxVelocity   = 32767.0 / velocityScale
)

type packedDir [3]int16

func packDir(v vec.Vec3Float) packedDir {
	return packedDir{
		int16(math.Round(clamp(v.X, -1, 1) * dirScale)),
		int16(math.Round(clamp(v.Y, -1, 1) * dirScale)),
		int16(math.Round(clamp(v.Z, -1, 1) * dirScale)),
	}
}

func (p packedDir) unpack() vec.Vec3Float {
	return vec.Vec3Float{X: float64(p[0]) / dirScale, Y: float64(p[1]) / dirScale, Z: float64(p[2]) / dirScale}
}

type packedVelocity [3]int16

func packVelocity(v vec.Vec3Float) packedVelocity {
	return packedVelocity{
		int16(math.Round(clamp(v.X, -maxVelocity, maxVelocity) * velocityScale)),
		int16(math.Round(clamp(v.Y, -maxVelocity, maxVelocity) * velocityScale)),
		int16(math.Round(clamp(v.Z, -maxVelocity, maxVelocity) * velocityScale)),
	}
}

func (p packedVelocity) unpack() vec.Vec3Float {
	return vec.Vec3Float{X: float64(p[0]) / velocityScale, Y: float64(p[1]) / velocityScale, Z: float64(p[2]) / velocityScale}
}

type packedOrigin [3]float32

func packOrigin(v vec.Vec3Float) packedOrigin {
	return packedOrigin{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (p packedOrigin) unpack() vec.Vec3Float {
	return vec.Vec3Float{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}

// angleToShort аналог ANGLE2SHORT
func angleToShort(a float64) uint16 {
	return uint16(int(math.Round(vec.AngleMod(a)*65536/360)) & 65535)
}

func shortToAngle(s uint16) float64 {
	return float64(s) * (360.0 / 65536)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
