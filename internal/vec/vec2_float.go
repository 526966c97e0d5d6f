package vec

import "math"

// Vec2Float представляет 2D координаты с плавающей точкой
type Vec2Float struct {
	X, Y float64
}

// Of2D горизонтальная проекция трехмерного вектора
func Of2D(v Vec3Float) Vec2Float {
	return Vec2Float{X: v.X, Y: v.Y}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Rotated поворачивает вектор на угол в градусах против часовой стрелки
func (v Vec2Float) Rotated(degrees float64) Vec2Float {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Vec2Float{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}
