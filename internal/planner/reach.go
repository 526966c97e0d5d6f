package planner

import (
	"sort"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	maxReachChainLength = 16
	// expectedTravelLookahead сколько рёбер цепочки учитывается при проверке
	// ожидаемых касаний триггеров
	expectedTravelLookahead = 4
)

// ReachLink ребро цепочки достижимостей к цели
type ReachLink struct {
	ReachNum int
	aas.Reachability
}

// NavTargetAreaNum область цели навигации, 0 если цели нет
func (c *PredictionContext) NavTargetAreaNum() int {
	return c.request.Intent.NavTargetAreaNum
}

// IsInNavTargetArea находится ли агент в области цели
func (c *PredictionContext) IsInNavTargetArea() bool {
	target := c.NavTargetAreaNum()
	if target == 0 {
		return false
	}
	eps := c.PhysicsState()
	return eps.CurrAasAreaNum() == target || eps.DroppedToFloorAasAreaNum() == target
}

// TravelTimeToNavTarget время пути до цели из текущего положения,
// 0 если маршрута нет
func (c *PredictionContext) TravelTimeToNavTarget() int {
	target := c.NavTargetAreaNum()
	if target == 0 {
		return 0
	}
	eps := c.PhysicsState()
	if c.IsInNavTargetArea() {
		return 1
	}
	travelTime, _ := aas.FindRoute2(c.services.Routes, eps.CurrAasAreaNum(), eps.DroppedToFloorAasAreaNum(), target, c.request.Intent.travelFlags())
	return travelTime
}

// TravelTimeFromArea время пути до цели из области
func (c *PredictionContext) TravelTimeFromArea(areaNum int) int {
	target := c.NavTargetAreaNum()
	if target == 0 || areaNum == 0 {
		return 0
	}
	travelTime, _ := c.services.Routes.FindRoute(areaNum, target, c.request.Intent.travelFlags())
	return travelTime
}

// ReachChain цепочка рёбер от текущего положения к цели. Результат
// мемоизирован на время поиска по паре текущих областей.
func (c *PredictionContext) ReachChain() []ReachLink {
	target := c.NavTargetAreaNum()
	if target == 0 {
		return nil
	}
	eps := c.PhysicsState()
	key := [2]int{eps.CurrAasAreaNum(), eps.DroppedToFloorAasAreaNum()}
	if chain, ok := c.routeMemo[key]; ok {
		return chain
	}

	flags := c.request.Intent.travelFlags()
	var chain []ReachLink
	_, reachNum := aas.FindRoute2(c.services.Routes, key[0], key[1], target, flags)
	for reachNum != 0 && len(chain) < maxReachChainLength {
		reach := c.services.AAS.Reachability(reachNum)
		chain = append(chain, ReachLink{ReachNum: reachNum, Reachability: reach})
		if reach.AreaNum == target {
			break
		}
		_, reachNum = c.services.Routes.FindRoute(reach.AreaNum, target, flags)
	}
	c.routeMemo[key] = chain
	return chain
}

// IsExpectedTravelType встречается ли тип перехода в начале цепочки
func (c *PredictionContext) IsExpectedTravelType(t aas.TravelType) bool {
	chain := c.ReachChain()
	for i := 0; i < len(chain) && i < expectedTravelLookahead; i++ {
		if chain[i].TravelType == t {
			return true
		}
	}
	return false
}

func isWalkableTravel(t aas.TravelType) bool {
	switch t {
	case aas.TravelWalk, aas.TravelWalkOffLedge, aas.TravelCrouch, aas.TravelSwim:
		return true
	default:
		return false
	}
}

// SteeringPoint ближайшая точка маршрута, к которой стоит направляться
func (c *PredictionContext) SteeringPoint() (vec.Vec3Float, bool) {
	origin := c.PhysicsState().Origin()
	chain := c.ReachChain()
	if len(chain) == 0 {
		if c.IsInNavTargetArea() {
			return c.request.Intent.NavTargetOrigin, true
		}
		return vec.Vec3Float{}, false
	}
	head := chain[0]
	if origin.Distance2DTo(head.Start) > 24 {
		return head.Start, true
	}
	return head.End, true
}

// reachChainLookPoint точка вдоль цепочки не дальше maxDistance, на которой
// заканчивается пешая часть маршрута
func (c *PredictionContext) reachChainLookPoint(maxDistance float64) (vec.Vec3Float, bool) {
	origin := c.PhysicsState().Origin()
	chain := c.ReachChain()
	if len(chain) == 0 {
		if c.IsInNavTargetArea() {
			return c.request.Intent.NavTargetOrigin, true
		}
		return vec.Vec3Float{}, false
	}

	point := chain[0].Start
	for i, link := range chain {
		if !isWalkableTravel(link.TravelType) {
			if i == 0 && origin.Distance2DTo(link.Start) < 24 {
				point = link.End
			} else {
				point = link.Start
			}
			break
		}
		point = link.End
		if link.AreaNum == c.NavTargetAreaNum() && c.request.Intent.NavTargetOrigin != (vec.Vec3Float{}) {
			point = c.request.Intent.NavTargetOrigin
		}
		if origin.Distance2DTo(point) > maxDistance {
			break
		}
	}
	if origin.Distance2DTo(point) < 1 {
		return vec.Vec3Float{}, false
	}
	return point, true
}

// areaCandidate область-кандидат с оценкой
type areaCandidate struct {
	areaNum int
	score   float64
}

// bestFloorClusterPoint центр области текущего или следующего кластера пола
// с наименьшим временем пути до цели, достижимой по прямой
func (c *PredictionContext) bestFloorClusterPoint() (vec.Vec3Float, bool) {
	world := c.services.AAS
	eps := c.PhysicsState()
	origin := eps.Origin()
	currArea := eps.PrimaryAasAreaNum()
	if currArea == 0 {
		return vec.Vec3Float{}, false
	}

	clusters := [2]int{world.AreaFloorClusterNum(currArea), 0}
	if chain := c.ReachChain(); len(chain) > 0 {
		clusters[1] = world.AreaFloorClusterNum(chain[0].AreaNum)
	}
	if clusters[0] == 0 && clusters[1] == 0 {
		return vec.Vec3Float{}, false
	}

	currTravelTime := c.TravelTimeToNavTarget()
	if currTravelTime == 0 {
		return vec.Vec3Float{}, false
	}

	extent := vec.Vec3Float{X: 512, Y: 512, Z: 96}
	var buf [64]int
	areas := world.BBoxAreas(origin.Sub(extent), origin.Add(extent), buf[:0])

	candidates := make([]areaCandidate, 0, len(areas))
	for _, areaNum := range areas {
		if areaNum == currArea {
			continue
		}
		cluster := world.AreaFloorClusterNum(areaNum)
		if cluster == 0 || (cluster != clusters[0] && cluster != clusters[1]) {
			continue
		}
		settings := world.AreaSettings(areaNum)
		if settings.Flags&aas.AreaGrounded == 0 || settings.Flags&aas.AreaDisabled != 0 {
			continue
		}
		travelTime := c.TravelTimeFromArea(areaNum)
		if travelTime == 0 || travelTime >= currTravelTime {
			continue
		}
		candidates = append(candidates, areaCandidate{areaNum: areaNum, score: float64(currTravelTime - travelTime)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].areaNum < candidates[j].areaNum
	})

	for _, cand := range candidates {
		point := world.Area(cand.areaNum).Center
		point.Z = origin.Z
		if c.CanWalkStraight(origin, point) {
			return point, true
		}
	}
	return vec.Vec3Float{}, false
}
