package physics

import (
	"math"

	"github.com/annel0/botplanner/internal/vec"
)

// AABB представляет выровненный по осям объём
type AABB struct {
	Mins vec.Vec3Float
	Maxs vec.Vec3Float
}

// NewAABB создаёт объём по двум углам (порядок не важен)
func NewAABB(a, b vec.Vec3Float) AABB {
	return AABB{
		Mins: vec.Vec3Float{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Maxs: vec.Vec3Float{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// BoxAt возвращает объём тела с границами mins/maxs в точке origin
func BoxAt(origin, mins, maxs vec.Vec3Float) AABB {
	return AABB{Mins: origin.Add(mins), Maxs: origin.Add(maxs)}
}

// SweptBox объём, покрывающий движение тела из from в to
func SweptBox(from, to, mins, maxs vec.Vec3Float) AABB {
	return BoxAt(from, mins, maxs).Union(BoxAt(to, mins, maxs))
}

// Center центр объёма
func (b AABB) Center() vec.Vec3Float {
	return b.Mins.Add(b.Maxs).Mul(0.5)
}

// Size размеры объёма
func (b AABB) Size() vec.Vec3Float {
	return b.Maxs.Sub(b.Mins)
}

// IsPointInside проверяет, находится ли точка внутри объёма
func (b AABB) IsPointInside(p vec.Vec3Float) bool {
	return p.X >= b.Mins.X && p.X <= b.Maxs.X &&
		p.Y >= b.Mins.Y && p.Y <= b.Maxs.Y &&
		p.Z >= b.Mins.Z && p.Z <= b.Maxs.Z
}

// Intersects проверяет пересечение двух объёмов
func (b AABB) Intersects(other AABB) bool {
	return b.Mins.X <= other.Maxs.X && b.Maxs.X >= other.Mins.X &&
		b.Mins.Y <= other.Maxs.Y && b.Maxs.Y >= other.Mins.Y &&
		b.Mins.Z <= other.Maxs.Z && b.Maxs.Z >= other.Mins.Z
}

// Contains проверяет, что other полностью внутри b
func (b AABB) Contains(other AABB) bool {
	return other.Mins.X >= b.Mins.X && other.Maxs.X <= b.Maxs.X &&
		other.Mins.Y >= b.Mins.Y && other.Maxs.Y <= b.Maxs.Y &&
		other.Mins.Z >= b.Mins.Z && other.Maxs.Z <= b.Maxs.Z
}

// Union наименьший объём, содержащий оба
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Mins: vec.Vec3Float{X: math.Min(b.Mins.X, other.Mins.X), Y: math.Min(b.Mins.Y, other.Mins.Y), Z: math.Min(b.Mins.Z, other.Mins.Z)},
		Maxs: vec.Vec3Float{X: math.Max(b.Maxs.X, other.Maxs.X), Y: math.Max(b.Maxs.Y, other.Maxs.Y), Z: math.Max(b.Maxs.Z, other.Maxs.Z)},
	}
}

// Expanded расширяет объём на margin во все стороны
func (b AABB) Expanded(margin float64) AABB {
	m := vec.Vec3Float{X: margin, Y: margin, Z: margin}
	return AABB{Mins: b.Mins.Sub(m), Maxs: b.Maxs.Add(m)}
}

// SquareDistanceToPoint квадрат расстояния от точки до объёма (0 внутри)
func (b AABB) SquareDistanceToPoint(p vec.Vec3Float) float64 {
	var d float64
	for _, axis := range [3][3]float64{
		{p.X, b.Mins.X, b.Maxs.X},
		{p.Y, b.Mins.Y, b.Maxs.Y},
		{p.Z, b.Mins.Z, b.Maxs.Z},
	} {
		if axis[0] < axis[1] {
			d += (axis[1] - axis[0]) * (axis[1] - axis[0])
		} else if axis[0] > axis[2] {
			d += (axis[0] - axis[2]) * (axis[0] - axis[2])
		}
	}
	return d
}

// IntersectsSphere проверяет пересечение со сферой
func (b AABB) IntersectsSphere(center vec.Vec3Float, radius float64) bool {
	return b.SquareDistanceToPoint(center) <= radius*radius
}
