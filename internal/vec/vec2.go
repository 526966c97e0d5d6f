package vec

import "math"

// Vec2 представляет 2D координаты ячейки сетки
type Vec2 struct {
	X, Y int
}

// Neighbors4 смещения соседних ячеек по сторонам
var Neighbors4 = [4]Vec2{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}

// CellOf возвращает ячейку сетки, содержащую точку
func CellOf(x, y, cellSize float64) Vec2 {
	return Vec2{X: int(math.Floor(x / cellSize)), Y: int(math.Floor(y / cellSize))}
}
