package planner

import (
	"math"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	platformMovingSpeed     = 1.0
	platformExitSearchRange = 192.0
	platformExitMillis      = 2000
)

// RidePlatformAction стоит на движущейся платформе, а после её остановки
// запускает сценарий схода в лучшую соседнюю область
type RidePlatformAction struct {
	BaseAction
}

func newRidePlatformAction() *RidePlatformAction {
	a := &RidePlatformAction{BaseAction: newBaseAction(ActionRidePlatform)}
	a.stopPredictionOnTouchingPlatform = false
	return a
}

func (a *RidePlatformAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	eps := &ms.EntityPhysicsState
	platform, ok := ctx.services.Entities.PlatformByEntNum(int(eps.GroundEntNum))
	if !ok {
		ctx.SetCannotApply(nil)
		return
	}

	record := ctx.Record()
	record.SetUcmdSet(true)
	if platform.Velocity.Length() > platformMovingSpeed {
		if point, ok := ctx.SteeringPoint(); ok {
			lookAtOrKeep(ctx, record, point)
		} else {
			record.SetIntendedLookDir(eps.ForwardDir())
		}
		return
	}

	exitArea, exitPoint, ok := findPlatformExit(ctx, platform.Bounds.Center(), platform.Bounds.Maxs.Z)
	if !ok {
		ctx.SetCannotApply(ctx.actions.fallback)
		return
	}
	ms.Script.Activate(movement.ScriptWalkToNode, eps.Origin(), exitPoint, exitArea, platformExitMillis)
	ctx.debug("%s: платформа остановилась, выход в область %d", a.Name(), exitArea)
	ctx.SetCannotApply(ctx.actions.fallback)
}

func (a *RidePlatformAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	ctx.SetCompleted()
}

// findPlatformExit ищет область рядом с верхом платформы с наименьшим
// временем пути до цели, а без цели ближайшую
func findPlatformExit(ctx *PredictionContext, center vec.Vec3Float, topZ float64) (int, vec.Vec3Float, bool) {
	world := ctx.AAS()
	probe := vec.Vec3Float{X: center.X, Y: center.Y, Z: topZ}
	extent := vec.Vec3Float{X: platformExitSearchRange, Y: platformExitSearchRange, Z: 48}
	var buf [64]int
	areas := world.BBoxAreas(probe.Sub(extent), probe.Add(extent), buf[:0])

	onPlatform := ctx.PhysicsState().PrimaryAasAreaNum()
	bestArea, bestScore := 0, math.Inf(1)
	for _, areaNum := range areas {
		if areaNum == onPlatform {
			continue
		}
		settings := world.AreaSettings(areaNum)
		if settings.Flags&aas.AreaGrounded == 0 || settings.Flags&aas.AreaDisabled != 0 {
			continue
		}
		if settings.Contents&aas.ContentsMover != 0 {
			continue
		}
		areaCenter := world.Area(areaNum).Center
		var score float64
		if ctx.NavTargetAreaNum() != 0 {
			travelTime := ctx.TravelTimeFromArea(areaNum)
			if travelTime == 0 {
				continue
			}
			score = float64(travelTime)
		} else {
			score = areaCenter.Distance2DTo(probe)
		}
		if score < bestScore || (score == bestScore && areaNum < bestArea) {
			bestArea, bestScore = areaNum, score
		}
	}
	if bestArea == 0 {
		return 0, vec.Vec3Float{}, false
	}
	return bestArea, world.Area(bestArea).Center, true
}
