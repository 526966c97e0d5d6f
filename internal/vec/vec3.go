package vec

import "math"

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Zero нулевой вектор
var Zero = Vec3Float{}

// Up единичный вектор вдоль оси Z
var Up = Vec3Float{Z: 1}

// V3 короткий конструктор Vec3Float
func V3(x, y, z float64) Vec3Float {
	return Vec3Float{X: x, Y: y, Z: z}
}

// Add складывает два вектора
func (v Vec3Float) Add(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec3Float) Sub(other Vec3Float) Vec3Float {
	return Vec3Float{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Mul умножает вектор на скаляр
func (v Vec3Float) Mul(scalar float64) Vec3Float {
	return Vec3Float{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

// MulAdd возвращает v + dir*scale
func (v Vec3Float) MulAdd(dir Vec3Float, scale float64) Vec3Float {
	return Vec3Float{X: v.X + dir.X*scale, Y: v.Y + dir.Y*scale, Z: v.Z + dir.Z*scale}
}

// Dot скалярное произведение
func (v Vec3Float) Dot(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Dot2D скалярное произведение в горизонтальной плоскости
func (v Vec3Float) Dot2D(other Vec3Float) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross векторное произведение
func (v Vec3Float) Cross(other Vec3Float) Vec3Float {
	return Vec3Float{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Length возвращает длину вектора
func (v Vec3Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// LengthSquared возвращает квадрат длины
func (v Vec3Float) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length2D возвращает длину горизонтальной проекции
func (v Vec3Float) Length2D() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalized возвращает нормализованный вектор
func (v Vec3Float) Normalized() Vec3Float {
	length := v.Length()
	if length == 0 {
		return Vec3Float{}
	}
	return v.Mul(1.0 / length)
}

// Normalized2D возвращает нормализованную горизонтальную проекцию (Z = 0)
func (v Vec3Float) Normalized2D() Vec3Float {
	length := v.Length2D()
	if length == 0 {
		return Vec3Float{}
	}
	return Vec3Float{X: v.X / length, Y: v.Y / length}
}

// Flat2D обнуляет координату Z
func (v Vec3Float) Flat2D() Vec3Float {
	return Vec3Float{X: v.X, Y: v.Y}
}

// DistanceTo возвращает расстояние до другого вектора
func (v Vec3Float) DistanceTo(other Vec3Float) float64 {
	return v.Sub(other).Length()
}

// Distance2DTo возвращает горизонтальное расстояние
func (v Vec3Float) Distance2DTo(other Vec3Float) float64 {
	return v.Sub(other).Length2D()
}

// Lerp линейная интерпляция от v к other
func (v Vec3Float) Lerp(other Vec3Float, frac float64) Vec3Float {
	return v.MulAdd(other.Sub(v), frac)
}

// IsZero проверяет вектор на нулевую длину
func (v Vec3Float) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}
