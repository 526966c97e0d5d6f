package planner

import (
	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// aasLocator отвечает на запросы принадлежности областям и высоты над полом,
// используя кеш узлов BSP текущего региона
type aasLocator struct {
	world  aas.World
	coll   collision.World
	nodes  *collision.NodeCache
	extent float64
}

func (l *aasLocator) FindAreaNum(origin vec.Vec3Float) int {
	return l.world.FindAreaNum(origin)
}

func (l *aasLocator) HeightOverGround(origin, mins vec.Vec3Float) float64 {
	end := origin
	end.Z -= movement.MaxHeightOverGround
	region := collision.RegionAround(origin, l.extent)
	region.Mins.Z = end.Z + mins.Z
	topNode := l.nodes.Get(region)

	boxMins := vec.Vec3Float{X: mins.X, Y: mins.Y}
	boxMaxs := vec.Vec3Float{X: -mins.X, Y: -mins.Y}
	tr := l.coll.TraceBox(origin.Add(vec.Vec3Float{Z: mins.Z}), end.Add(vec.Vec3Float{Z: mins.Z}), boxMins, boxMaxs, topNode, mover.ContentsSolid|mover.ContentsPlayerClip)
	if tr.StartSolid || !tr.Hit() {
		return movement.MaxHeightOverGround
	}
	return tr.Fraction * movement.MaxHeightOverGround
}
