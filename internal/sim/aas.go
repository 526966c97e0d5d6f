package sim

import (
	"math"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/vec"
)

// Времена переходов, сотые доли секунды
const (
	walkCentisPerCell    = 20
	swimCentisPerCell    = 45
	barrierJumpCentis    = 40
	waterJumpCentis      = 50
	jumppadCentis        = 100
	maxBarrierJumpHeight = 3 * HeightStep
	maxStepHeight        = 18.0
)

var _ aas.World = (*Level)(nil)

// NumAreas число областей
func (l *Level) NumAreas() int { return len(l.areas) }

func (l *Level) areaAt(num int) *levelArea {
	if num <= 0 || num > len(l.areas) {
		return nil
	}
	return &l.areas[num-1]
}

// Area геометрия области
func (l *Level) Area(num int) aas.Area {
	if a := l.areaAt(num); a != nil {
		return a.area
	}
	return aas.Area{}
}

// AreaSettings свойства области
func (l *Level) AreaSettings(num int) aas.AreaSettings {
	if a := l.areaAt(num); a != nil {
		return a.settings
	}
	return aas.AreaSettings{}
}

// Reachability ребро по номеру, начиная с 1
func (l *Level) Reachability(num int) aas.Reachability {
	if num <= 0 || num > len(l.reaches) {
		return aas.Reachability{}
	}
	return l.reaches[num-1]
}

// FindAreaNum область-столбец клетки, если точка не ниже её пола
func (l *Level) FindAreaNum(origin vec.Vec3Float) int {
	cell, _, _ := l.CellAt(origin)
	if cell == nil || cell.IsSolid() || origin.Z < cell.Floor {
		return 0
	}
	return cell.AreaNum
}

// AreaFloorClusterNum кластер пола области
func (l *Level) AreaFloorClusterNum(num int) int {
	if a := l.areaAt(num); a != nil {
		return a.floorClus
	}
	return 0
}

// AreaStairsClusterNum на клеточных картах лестниц нет
func (l *Level) AreaStairsClusterNum(int) int { return 0 }

// BBoxAreas области, пересекающие объём
func (l *Level) BBoxAreas(mins, maxs vec.Vec3Float, out []int) []int {
	c0 := vec.CellOf(mins.X, mins.Y, CellSize)
	c1 := vec.CellOf(maxs.X, maxs.Y, CellSize)
	for row := max(c0.Y, 0); row <= min(c1.Y, l.Height-1); row++ {
		for col := max(c0.X, 0); col <= min(c1.X, l.Width-1); col++ {
			cell := l.Cell(col, row)
			if cell.AreaNum == 0 {
				continue
			}
			area := &l.areas[cell.AreaNum-1].area
			if area.Maxs.Z < mins.Z || area.Mins.Z > maxs.Z {
				continue
			}
			out = append(out, cell.AreaNum)
		}
	}
	return out
}

// TraceAreas последовательность областей вдоль отрезка
func (l *Level) TraceAreas(start, end vec.Vec3Float, out []int) []int {
	dist := start.DistanceTo(end)
	steps := int(math.Ceil(dist/(CellSize/4))) + 1
	last := -1
	for i := 0; i <= steps; i++ {
		p := start.Lerp(end, float64(i)/float64(steps))
		num := l.FindAreaNum(p)
		if num == 0 || num == last {
			continue
		}
		out = append(out, num)
		last = num
	}
	return out
}

func (l *Level) addReach(from, to int, reach aas.Reachability) {
	reach.AreaNum = to
	l.reaches = append(l.reaches, reach)
	l.reachFrom = append(l.reachFrom, from)
	a := &l.areas[from-1]
	if a.settings.NumReachabilities == 0 {
		a.settings.FirstReachability = len(l.reaches)
	}
	a.settings.NumReachabilities++
}

// buildReachabilities строит рёбра между соседними клетками и от jumppad к
// их целям. Рёбра одной области идут подряд.
func (l *Level) buildReachabilities() {
	for i := range l.areas {
		from := i + 1
		a := &l.areas[i]
		cell := l.Cell(a.col, a.row)
		center := a.area.Center

		if cell.Kind == CellJumppad {
			if pad, ok := l.jumppadAt(a.col, a.row); ok {
				if to := l.FindAreaNum(pad.Target); to != 0 {
					l.addReach(from, to, aas.Reachability{
						Start:      center,
						End:        pad.Target,
						TravelType: aas.TravelJumppad,
						TravelTime: jumppadCentis,
					})
				}
			}
		}

		for _, d := range vec.Neighbors4 {
			n := l.Cell(a.col+d.X, a.row+d.Y)
			if n == nil || n.IsSolid() {
				continue
			}
			travelType, travelTime, ok := classifyStep(cell, n)
			if !ok {
				continue
			}
			edge := center.Add(vec.Vec3Float{X: float64(d.X) * CellSize / 2, Y: float64(d.Y) * CellSize / 2})
			end := l.CellCenter(a.col+d.X, a.row+d.Y)
			end = end.Sub(vec.Vec3Float{X: float64(d.X) * CellSize / 4, Y: float64(d.Y) * CellSize / 4})
			l.addReach(from, n.AreaNum, aas.Reachability{
				Start:      edge,
				End:        end,
				TravelType: travelType,
				TravelTime: travelTime,
			})
		}
	}

	l.incoming = make([][]int, len(l.areas)+1)
	for i, reach := range l.reaches {
		l.incoming[reach.AreaNum] = append(l.incoming[reach.AreaNum], i+1)
	}
}

// reachSource область, из которой выходит ребро
func (l *Level) reachSource(reachNum int) int {
	if reachNum <= 0 || reachNum > len(l.reachFrom) {
		return 0
	}
	return l.reachFrom[reachNum-1]
}

func classifyStep(from, to *Cell) (aas.TravelType, int, bool) {
	fromLiquid, toLiquid := from.IsLiquid(), to.IsLiquid()
	switch {
	case fromLiquid && toLiquid:
		return aas.TravelSwim, swimCentisPerCell, true
	case fromLiquid:
		if to.Floor-from.Surface <= 2*HeightStep {
			return aas.TravelWaterJump, waterJumpCentis, true
		}
		return aas.TravelInvalid, 0, false
	case toLiquid:
		return aas.TravelSwim, swimCentisPerCell, true
	}

	dz := to.Floor - from.Floor
	switch {
	case math.Abs(dz) <= maxStepHeight:
		return aas.TravelWalk, walkCentisPerCell, true
	case dz > 0 && dz <= maxBarrierJumpHeight:
		return aas.TravelBarrierJump, barrierJumpCentis, true
	case dz < 0:
		return aas.TravelWalkOffLedge, walkCentisPerCell + int(-dz/HeightStep), true
	}
	return aas.TravelInvalid, 0, false
}

// buildFloorClusters объединяет соседние клетки пола с проходимым перепадом
func (l *Level) buildFloorClusters() {
	cluster := 0
	var queue []int
	for i := range l.areas {
		if l.areas[i].floorClus != 0 || !isClusterFloor(l.Cell(l.areas[i].col, l.areas[i].row)) {
			continue
		}
		cluster++
		l.areas[i].floorClus = cluster
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			a := &l.areas[queue[0]]
			queue = queue[1:]
			cell := l.Cell(a.col, a.row)
			for _, d := range vec.Neighbors4 {
				n := l.Cell(a.col+d.X, a.row+d.Y)
				if n == nil || !isClusterFloor(n) || math.Abs(n.Floor-cell.Floor) > maxStepHeight {
					continue
				}
				na := &l.areas[n.AreaNum-1]
				if na.floorClus == 0 {
					na.floorClus = cluster
					queue = append(queue, n.AreaNum-1)
				}
			}
		}
	}
}

func isClusterFloor(c *Cell) bool {
	return c != nil && (c.Kind == CellFloor || c.Kind == CellJumppad)
}
