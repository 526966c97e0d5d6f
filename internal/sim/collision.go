package sim

import (
	"math"

	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	traceStep    = 2.0
	traceEpsilon = 0.01
)

var _ collision.World = (*Level)(nil)

// FindTopNodeForBox у клеточного мира один узел
func (l *Level) FindTopNodeForBox(vec.Vec3Float, vec.Vec3Float) int { return 1 }

// PossibleShapeList клетки, пересекающие объём по горизонтали. Каждая клетка
// одна форма: стена целиком либо пол ниже своей высоты.
func (l *Level) PossibleShapeList(mins, maxs vec.Vec3Float) collision.ShapeList {
	return l.ClipShapeList(nil, mins, maxs)
}

// ClipShapeList отсекает список по объёму; nil означает все клетки
func (l *Level) ClipShapeList(list collision.ShapeList, mins, maxs vec.Vec3Float) collision.ShapeList {
	var out collision.ShapeList
	l.forCells(mins, maxs, func(index int, _ *Cell) bool {
		if list == nil || containsShape(list, index) {
			out = append(out, index)
		}
		return true
	})
	return out
}

func containsShape(list collision.ShapeList, index int) bool {
	for _, s := range list {
		if s == index {
			return true
		}
	}
	return false
}

// forCells обходит клетки, пересекающие объём по горизонтали; клетки за
// пределами карты передаются с индексом -1 и nil
func (l *Level) forCells(mins, maxs vec.Vec3Float, fn func(index int, cell *Cell) bool) {
	c0 := vec.CellOf(mins.X+traceEpsilon, mins.Y+traceEpsilon, CellSize)
	c1 := vec.CellOf(maxs.X-traceEpsilon, maxs.Y-traceEpsilon, CellSize)
	for row := c0.Y; row <= c1.Y; row++ {
		for col := c0.X; col <= c1.X; col++ {
			cell := l.Cell(col, row)
			index := -1
			if cell != nil {
				index = row*l.Width + col
			}
			if !fn(index, cell) {
				return
			}
		}
	}
}

// boxSolid пересекает ли объём твёрдое; shapes ограничивает проверяемые клетки
func (l *Level) boxSolid(mins, maxs vec.Vec3Float, shapes collision.ShapeList) bool {
	solid := false
	l.forCells(mins, maxs, func(index int, cell *Cell) bool {
		if shapes != nil && !containsShape(shapes, index) {
			return true
		}
		if cell == nil || cell.IsSolid() || mins.Z < cell.Floor-traceEpsilon {
			solid = true
			return false
		}
		return true
	})
	return solid
}

// FloorUnder наибольшая высота пола под объёмом
func (l *Level) FloorUnder(mins, maxs vec.Vec3Float) float64 {
	floor := math.Inf(-1)
	l.forCells(mins, maxs, func(_ int, cell *Cell) bool {
		if cell != nil && !cell.IsSolid() && cell.Floor > floor {
			floor = cell.Floor
		}
		return true
	})
	return floor
}

// TraceBox трассирует объём шагами по 2 единицы
func (l *Level) TraceBox(start, end, mins, maxs vec.Vec3Float, _ int, mask mover.Contents) collision.Trace {
	return l.trace(start, end, mins, maxs, mask, nil)
}

// TraceAgainstShapes трассирует объём только против клеток списка
func (l *Level) TraceAgainstShapes(list collision.ShapeList, start, end, mins, maxs vec.Vec3Float, mask mover.Contents) collision.Trace {
	if list == nil {
		list = collision.ShapeList{}
	}
	return l.trace(start, end, mins, maxs, mask, list)
}

func (l *Level) trace(start, end, mins, maxs vec.Vec3Float, mask mover.Contents, shapes collision.ShapeList) collision.Trace {
	tr := collision.Trace{Fraction: 1, EndPos: end}
	if mask&(mover.ContentsSolid|mover.ContentsPlayerClip) == 0 {
		return tr
	}
	solidAt := func(p vec.Vec3Float) bool {
		return l.boxSolid(p.Add(mins), p.Add(maxs), shapes)
	}
	if solidAt(start) {
		tr.StartSolid = true
		tr.AllSolid = solidAt(end)
		tr.Fraction = 0
		tr.EndPos = start
		tr.Contents = mover.ContentsSolid
		return tr
	}

	steps := int(math.Ceil(start.DistanceTo(end) / traceStep))
	prev := start
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		p := start.Lerp(end, frac)
		if !solidAt(p) {
			prev = p
			continue
		}
		tr.Fraction = float64(i-1) / float64(steps)
		tr.EndPos = prev
		tr.Normal = l.hitNormal(prev, p, solidAt)
		tr.Contents = mover.ContentsSolid
		return tr
	}
	return tr
}

// hitNormal определяет ось, по которой движение упёрлось в твёрдое
func (l *Level) hitNormal(from, to vec.Vec3Float, solidAt func(vec.Vec3Float) bool) vec.Vec3Float {
	d := to.Sub(from)
	if d.Z != 0 && solidAt(vec.Vec3Float{X: from.X, Y: from.Y, Z: to.Z}) {
		return vec.Vec3Float{Z: -math.Copysign(1, d.Z)}
	}
	if d.X != 0 && solidAt(vec.Vec3Float{X: to.X, Y: from.Y, Z: from.Z}) {
		return vec.Vec3Float{X: -math.Copysign(1, d.X)}
	}
	if d.Y != 0 {
		return vec.Vec3Float{Y: -math.Copysign(1, d.Y)}
	}
	return vec.Vec3Float{X: -math.Copysign(1, d.X)}
}

// PointContents содержимое точки
func (l *Level) PointContents(p vec.Vec3Float) mover.Contents {
	cell, _, _ := l.CellAt(p)
	if cell == nil || cell.IsSolid() || p.Z < cell.Floor {
		return mover.ContentsSolid
	}
	if p.Z < cell.Surface {
		switch cell.Kind {
		case CellWater:
			return mover.ContentsWater
		case CellLava:
			return mover.ContentsLava
		}
	}
	return 0
}
