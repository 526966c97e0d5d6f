// Package collision описывает контракт мира столкновений и содержит кеши,
// которые позволяют переиспользовать дорогие запросы между спекулятивными
// шагами планирования.
package collision

import (
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/vec"
)

// ShapeList непрозрачный список коллизионных форм мира
type ShapeList []int

// Trace результат трассировки объёма
type Trace struct {
	Fraction   float64
	EndPos     vec.Vec3Float
	Normal     vec.Vec3Float
	StartSolid bool
	AllSolid   bool
	Contents   mover.Contents
	EntNum     int
}

// Hit сообщает, что трассировка во что-то упёрлась
func (t *Trace) Hit() bool {
	return t.Fraction < 1 || t.StartSolid
}

// World мир столкновений. Построение BSP и списков форм вне зоны планировщика.
type World interface {
	// FindTopNodeForBox возвращает ближайший узел BSP, полностью содержащий объём
	FindTopNodeForBox(mins, maxs vec.Vec3Float) int
	// PossibleShapeList возвращает формы, которые могут пересекать объём
	PossibleShapeList(mins, maxs vec.Vec3Float) ShapeList
	// ClipShapeList отсекает список по объёму
	ClipShapeList(list ShapeList, mins, maxs vec.Vec3Float) ShapeList
	// TraceBox трассирует объём, начиная поиск с узла topNode
	TraceBox(start, end, mins, maxs vec.Vec3Float, topNode int, mask mover.Contents) Trace
	// TraceAgainstShapes трассирует объём только против списка форм
	TraceAgainstShapes(list ShapeList, start, end, mins, maxs vec.Vec3Float, mask mover.Contents) Trace
	// PointContents возвращает содержимое точки
	PointContents(p vec.Vec3Float) mover.Contents
}
