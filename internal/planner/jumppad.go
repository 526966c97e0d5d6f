package planner

import (
	"math"
	"sort"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	maxSavedLandingAreas       = 5
	jumppadVerticalDistance2D  = 64.0
	jumppadMinLandingThreshold = 64.0
	jumppadLandingFraction     = 0.3
	jumppadLandingSearchRadius = 384.0
	jumppadLandingSearchHeight = 256.0
	flyMaxSequenceSteps        = 12
	landingNeighbourRange      = 128.0
)

// HandleTriggeredJumppadAction обрабатывает только что задетый jumppad:
// замораживает ввод, запускает полёт и ранжирует области приземления
type HandleTriggeredJumppadAction struct {
	BaseAction
}

func newHandleTriggeredJumppadAction() *HandleTriggeredJumppadAction {
	a := &HandleTriggeredJumppadAction{BaseAction: newBaseAction(ActionHandleTriggeredJumppad)}
	a.stopPredictionOnTouchingJumppad = false
	return a
}

func (a *HandleTriggeredJumppadAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	jumppad := &ms.JumppadState
	if !jumppad.HasEntered() {
		ctx.SetCannotApply(nil)
		return
	}

	eps := &ms.EntityPhysicsState
	origin := eps.Origin()
	target := jumppad.JumpTarget

	record := ctx.Record()
	record.SetUcmdSet(true)
	lookAtOrKeep(ctx, record, target)

	jumppad.MarkInFlight()
	dist2D := origin.Distance2DTo(target)
	if dist2D < jumppadVerticalDistance2D {
		ms.FlyUntilLandingState.Activate(target, target.Z)
	} else {
		ms.FlyUntilLandingState.ActivateWithDistanceThreshold(target, math.Max(jumppadMinLandingThreshold, jumppadLandingFraction*dist2D))
	}

	carry := ctx.Carry()
	carry.SavedLandingAreas = rankLandingAreas(ctx, target, carry.SavedLandingAreas[:0])
	ctx.debug("%s: цель %v, областей приземления %d", a.Name(), target, len(carry.SavedLandingAreas))
	ctx.SetCompleted()
}

// rankLandingAreas выбирает до пяти областей вокруг цели прыжка. Оценка растёт
// с сокращением пути до цели и падает с расстоянием от точки прыжка.
func rankLandingAreas(ctx *PredictionContext, target vec.Vec3Float, out []int) []int {
	world := ctx.AAS()
	extent := vec.Vec3Float{X: jumppadLandingSearchRadius, Y: jumppadLandingSearchRadius}
	mins := target.Sub(extent).Sub(vec.Vec3Float{Z: jumppadLandingSearchHeight})
	maxs := target.Add(extent).Add(vec.Vec3Float{Z: 32})

	var buf [64]int
	areas := world.BBoxAreas(mins, maxs, buf[:0])

	currTravelTime := ctx.TravelTimeToNavTarget()
	candidates := make([]areaCandidate, 0, len(areas))
	for _, areaNum := range areas {
		settings := world.AreaSettings(areaNum)
		if settings.Flags&aas.AreaGrounded == 0 || settings.Flags&aas.AreaDisabled != 0 {
			continue
		}
		if settings.Contents&(aas.ContentsLava|aas.ContentsSlime|aas.ContentsDoNotEnter) != 0 {
			continue
		}
		score := 1.0
		if currTravelTime != 0 {
			travelTime := ctx.TravelTimeFromArea(areaNum)
			if travelTime == 0 || travelTime >= currTravelTime {
				continue
			}
			score = float64(currTravelTime - travelTime)
		}
		center := world.Area(areaNum).Center
		score /= 1 + center.Distance2DTo(target)/256
		if settings.Flags&aas.AreaLedge != 0 {
			score *= 0.5
		}
		if settings.Flags&aas.AreaJunk != 0 {
			score *= 0.25
		}
		candidates = append(candidates, areaCandidate{areaNum: areaNum, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].areaNum < candidates[j].areaNum
	})
	for i := 0; i < len(candidates) && i < maxSavedLandingAreas; i++ {
		out = append(out, candidates[i].areaNum)
	}
	return out
}

// FlyUntilLandingAction баллистический полёт без ввода до стадии приземления
type FlyUntilLandingAction struct {
	BaseAction
}

func newFlyUntilLandingAction() *FlyUntilLandingAction {
	a := &FlyUntilLandingAction{BaseAction: newBaseAction(ActionFlyUntilLanding)}
	a.stopPredictionOnTouchingJumppad = false
	return a
}

func (a *FlyUntilLandingAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	fly := &ms.FlyUntilLandingState
	if !fly.IsActive() {
		ctx.SetCannotApply(ctx.actions.landOnSavedAreas)
		return
	}
	if fly.CheckForLanding(&ms.EntityPhysicsState) {
		ctx.SetCannotApply(ctx.actions.landOnSavedAreas)
		return
	}
	record := ctx.Record()
	record.SetUcmdSet(true)
	lookAtOrKeep(ctx, record, fly.Target)
}

func (a *FlyUntilLandingAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	ms := ctx.MovementState()
	eps := &ms.EntityPhysicsState
	switch {
	case eps.IsOnGround():
		ctx.SetCompleted()
	case ms.FlyUntilLandingState.IsActive() && ms.FlyUntilLandingState.CheckForLanding(eps):
		ctx.SetCompleted()
	case a.sequenceSteps >= flyMaxSequenceSteps:
		ctx.SetCompleted()
	}
}

// LandOnSavedAreasAction направляет приземление в сохранённые области по
// очереди; после их исчерпания целится в точку прыжка
type LandOnSavedAreasAction struct {
	BaseAction
	currAreaIndex int
	targetAreaNum int
}

func newLandOnSavedAreasAction() *LandOnSavedAreasAction {
	a := &LandOnSavedAreasAction{BaseAction: newBaseAction(ActionLandOnSavedAreas)}
	a.stopPredictionOnTouchingJumppad = false
	return a
}

// CurrAreaIndex индекс текущей области-кандидата
func (a *LandOnSavedAreasAction) CurrAreaIndex() int { return a.currAreaIndex }

func (a *LandOnSavedAreasAction) BeforePlanning() {
	a.BaseAction.BeforePlanning()
	a.currAreaIndex = 0
	a.targetAreaNum = 0
}

func (a *LandOnSavedAreasAction) OnApplicationSequenceStopped(ctx *PredictionContext, reason SequenceStopReason, stoppedAtFrameIndex int) {
	if reason == StopFailed {
		a.currAreaIndex++
		if a.currAreaIndex > len(ctx.Carry().SavedLandingAreas) {
			a.DisableForPlanning()
		}
	}
	a.BaseAction.OnApplicationSequenceStopped(ctx, reason, stoppedAtFrameIndex)
}

func (a *LandOnSavedAreasAction) landingTarget(ctx *PredictionContext) (vec.Vec3Float, int) {
	areas := ctx.Carry().SavedLandingAreas
	if a.currAreaIndex < len(areas) {
		areaNum := areas[a.currAreaIndex]
		return ctx.AAS().Area(areaNum).Center, areaNum
	}
	ms := ctx.MovementState()
	if ms.JumppadState.IsActive() {
		return ms.JumppadState.JumpTarget, 0
	}
	return ms.FlyUntilLandingState.Target, 0
}

func (a *LandOnSavedAreasAction) PlanPredictionStep(ctx *PredictionContext) {
	if !a.checkIsActionEnabled(ctx, ctx.actions.fallback) {
		return
	}
	target, areaNum := a.landingTarget(ctx)
	a.targetAreaNum = areaNum

	record := ctx.Record()
	record.SetUcmdSet(true)
	lookAtOrKeep(ctx, record, target)
	record.ForwardMovement = 1
	applyAirControl(ctx, record, target.Sub(ctx.PhysicsState().Origin()))
}

func (a *LandOnSavedAreasAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	eps := ctx.PhysicsState()
	if !eps.IsOnGround() {
		return
	}
	if a.targetAreaNum == 0 {
		ctx.SetCompleted()
		return
	}
	landedArea := eps.PrimaryAasAreaNum()
	if a.isAcceptableLanding(ctx, landedArea) {
		ctx.SetCompleted()
		return
	}
	ctx.debug("%s: приземление в %d вместо %d", a.Name(), landedArea, a.targetAreaNum)
	ctx.SetPendingRollback()
}

func (a *LandOnSavedAreasAction) isAcceptableLanding(ctx *PredictionContext, landedArea int) bool {
	if landedArea == 0 {
		return false
	}
	if landedArea == a.targetAreaNum {
		return true
	}
	world := ctx.AAS()
	if cluster := world.AreaFloorClusterNum(landedArea); cluster != 0 && cluster == world.AreaFloorClusterNum(a.targetAreaNum) {
		return true
	}
	landed := world.Area(landedArea).Center
	target := world.Area(a.targetAreaNum).Center
	if landed.DistanceTo(target) > landingNeighbourRange {
		return false
	}
	return world.AreaSettings(landedArea).Flags&aas.AreaGrounded != 0
}
