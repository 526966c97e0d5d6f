package vec

import "math"

// Индексы компонент углов обзора
const (
	Pitch = 0
	Yaw   = 1
	Roll  = 2
)

// Angles углы обзора в градусах: X = pitch, Y = yaw, Z = roll
type Angles = Vec3Float

// AngleVectors вычисляет направляющие векторы forward/right/up по углам обзора.
// Pitch положительный вниз, как в движке.
func AngleVectors(angles Angles) (forward, right, up Vec3Float) {
	sy, cy := math.Sincos(angles.Y * math.Pi / 180)
	sp, cp := math.Sincos(angles.X * math.Pi / 180)
	sr, cr := math.Sincos(angles.Z * math.Pi / 180)

	forward = Vec3Float{X: cp * cy, Y: cp * sy, Z: -sp}
	right = Vec3Float{
		X: -1*sr*sp*cy + -1*cr*-sy,
		Y: -1*sr*sp*sy + -1*cr*cy,
		Z: -1 * sr * cp,
	}
	up = Vec3Float{
		X: cr*sp*cy + -sr*-sy,
		Y: cr*sp*sy + -sr*cy,
		Z: cr * cp,
	}
	return forward, right, up
}

// DirToAngles возвращает pitch/yaw для направления
func DirToAngles(dir Vec3Float) Angles {
	if dir.X == 0 && dir.Y == 0 {
		if dir.Z > 0 {
			return Angles{X: -90}
		}
		if dir.Z < 0 {
			return Angles{X: 90}
		}
		return Angles{}
	}
	yaw := math.Atan2(dir.Y, dir.X) * 180 / math.Pi
	forward := math.Sqrt(dir.X*dir.X + dir.Y*dir.Y)
	pitch := -math.Atan2(dir.Z, forward) * 180 / math.Pi
	return Angles{X: pitch, Y: AngleMod(yaw)}
}

// AngleMod приводит угол к диапазону [0, 360)
func AngleMod(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// AngleNormalize180 приводит угол к диапазону (-180, 180]
func AngleNormalize180(a float64) float64 {
	a = AngleMod(a)
	if a > 180 {
		a -= 360
	}
	return a
}

// AngleDelta кратчайшая разница углов a - b
func AngleDelta(a, b float64) float64 {
	return AngleNormalize180(a - b)
}

// RotateAroundZ поворачивает направление вокруг вертикальной оси
func RotateAroundZ(dir Vec3Float, degrees float64) Vec3Float {
	r := Of2D(dir).Rotated(degrees)
	return Vec3Float{X: r.X, Y: r.Y, Z: dir.Z}
}
