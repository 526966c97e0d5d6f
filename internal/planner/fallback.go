package planner

import (
	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	scriptWalkMillis          = 1500
	scriptClusterExitMillis   = 2000
	scriptJumpMillis          = 1200
	scriptTriggerMillis       = 1500
	scriptWalkableTriggerDist = 192.0
	scriptNodeReachRadius     = 16.0
	scriptWaypointRadius      = 24.0
	scriptJumpLandingRadius   = 48.0
	scriptPreciseWalkRadius   = 48.0
)

// FallbackAction запасная стратегия: подставляет сохранённый путь, ведёт
// активный сценарий либо выдаёт сырую команду без симуляции
type FallbackAction struct {
	BaseAction
	// disabledScripts типы сценариев, провалившиеся в текущем поиске
	disabledScripts uint8
	currentKind     movement.ScriptKind
}

func newFallbackAction() *FallbackAction {
	return &FallbackAction{BaseAction: newBaseAction(ActionFallback)}
}

func (a *FallbackAction) BeforePlanning() {
	a.BaseAction.BeforePlanning()
	a.disabledScripts = 0
	a.currentKind = movement.ScriptNone
}

func (a *FallbackAction) isScriptDisabled(kind movement.ScriptKind) bool {
	return a.disabledScripts&(1<<kind) != 0
}

func (a *FallbackAction) disableScript(kind movement.ScriptKind) {
	if kind != movement.ScriptNone {
		a.disabledScripts |= 1 << kind
	}
}

func (a *FallbackAction) OnApplicationSequenceStopped(ctx *PredictionContext, reason SequenceStopReason, stoppedAtFrameIndex int) {
	if reason == StopFailed {
		a.disableScript(a.currentKind)
	}
	a.BaseAction.OnApplicationSequenceStopped(ctx, reason, stoppedAtFrameIndex)
}

func (a *FallbackAction) PlanPredictionStep(ctx *PredictionContext) {
	a.currentKind = movement.ScriptNone
	a.relaxedChecks = false
	ms := ctx.MovementState()
	script := &ms.Script

	if !script.IsActive() && ctx.substituteSecondaryPath() {
		ctx.debug("%s: подставлен запасной путь", a.Name())
		return
	}

	if script.IsActive() {
		status := scriptStatus(ctx, script)
		if status != movement.ScriptPending || a.isScriptDisabled(script.Kind) {
			ctx.debug("%s: сценарий %s снят (%s)", a.Name(), script.Kind, status)
			script.Deactivate()
		}
	}
	if !script.IsActive() {
		a.tryActivateScript(ctx, script)
	}
	if script.IsActive() {
		a.currentKind = script.Kind
		a.relaxedChecks = script.Kind == movement.ScriptRampExit || script.Kind == movement.ScriptStairsExit
		planScriptStep(ctx, script)
		return
	}

	a.planRawCommand(ctx)
	ctx.SetCompleted()
	ctx.SetTruncated()
}

func (a *FallbackAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	if a.currentKind == movement.ScriptNone {
		return
	}
	if scriptStatus(ctx, &ctx.MovementState().Script) == movement.ScriptInvalid {
		ctx.debug("%s: сценарий %s стал недействительным", a.Name(), a.currentKind)
		ctx.SetPendingRollback()
		return
	}
	ctx.SetCompleted()
}

// planRawCommand команда без симуляции: смотреть на цель или по скорости
func (a *FallbackAction) planRawCommand(ctx *PredictionContext) {
	eps := ctx.PhysicsState()
	intent := ctx.Intent()
	record := ctx.Record()
	record.SetUcmdSet(true)
	switch {
	case !intent.NavTargetOrigin.IsZero() && lookAtFlat(record, eps.Origin(), intent.NavTargetOrigin):
	case eps.Speed2D() > 10:
		record.SetIntendedLookDir(eps.Velocity().Flat2D())
	default:
		record.SetIntendedLookDir(eps.ForwardDir())
	}
	if intent.NavTargetAreaNum != 0 {
		record.ForwardMovement = 1
	}
}

// tryActivateScript запускает первый применимый сценарий по приоритету
func (a *FallbackAction) tryActivateScript(ctx *PredictionContext, script *movement.ScriptState) {
	eps := ctx.PhysicsState()
	origin := eps.Origin()
	world := ctx.AAS()
	currArea := eps.PrimaryAasAreaNum()
	chain := ctx.ReachChain()

	if currArea != 0 && !a.isScriptDisabled(movement.ScriptRampExit) &&
		world.AreaSettings(currArea).Flags&aas.AreaInclinedFloor != 0 {
		for _, link := range chain {
			if world.AreaSettings(link.AreaNum).Flags&aas.AreaInclinedFloor == 0 {
				script.Activate(movement.ScriptRampExit, origin, link.End, link.AreaNum, scriptClusterExitMillis)
				script.ClusterNum = world.AreaFloorClusterNum(currArea)
				return
			}
		}
	}

	if currArea != 0 && !a.isScriptDisabled(movement.ScriptStairsExit) {
		if cluster := world.AreaStairsClusterNum(currArea); cluster != 0 {
			for _, link := range chain {
				if world.AreaStairsClusterNum(link.AreaNum) != cluster {
					script.Activate(movement.ScriptStairsExit, origin, link.End, link.AreaNum, scriptClusterExitMillis)
					script.ClusterNum = cluster
					return
				}
			}
		}
	}

	if !a.isScriptDisabled(movement.ScriptUseWalkableTrigger) {
		if trigger, point, ok := findWalkableTrigger(ctx, origin); ok {
			script.Activate(movement.ScriptUseWalkableTrigger, origin, point, 0, scriptTriggerMillis)
			script.TriggerNum = trigger
			return
		}
	}

	if len(chain) == 0 {
		return
	}
	head := chain[0]
	switch head.TravelType {
	case aas.TravelJump, aas.TravelStrafeJump, aas.TravelRampJump, aas.TravelDoubleJump:
		if !a.isScriptDisabled(movement.ScriptJumpToSpot) {
			script.Activate(movement.ScriptJumpToSpot, origin, head.End, head.AreaNum, scriptJumpMillis)
			script.Waypoint = head.Start
			return
		}
	case aas.TravelBarrierJump, aas.TravelWaterJump:
		if !a.isScriptDisabled(movement.ScriptJumpOverBarrier) {
			script.Activate(movement.ScriptJumpOverBarrier, origin, head.End, head.AreaNum, scriptJumpMillis)
			script.Waypoint = head.Start
			return
		}
	}

	if !a.isScriptDisabled(movement.ScriptWalkToNode) {
		if point, ok := ctx.SteeringPoint(); ok {
			script.Activate(movement.ScriptWalkToNode, origin, point, head.AreaNum, scriptWalkMillis)
		}
	}
}

// findWalkableTrigger ищет ближайший прочий триггер, центр которого
// сокращает путь до цели
func findWalkableTrigger(ctx *PredictionContext, origin vec.Vec3Float) (int, vec.Vec3Float, bool) {
	currTravelTime := ctx.TravelTimeToNavTarget()
	if currTravelTime == 0 {
		return 0, vec.Vec3Float{}, false
	}
	bestNum, bestTime := 0, currTravelTime
	var bestPoint vec.Vec3Float
	for _, trigger := range ctx.NearbyTriggers().Others {
		center := trigger.Bounds.Center()
		if center.Distance2DTo(origin) > scriptWalkableTriggerDist {
			continue
		}
		areaNum := ctx.AAS().FindAreaNum(center)
		if areaNum == 0 {
			continue
		}
		travelTime := ctx.TravelTimeFromArea(areaNum)
		if travelTime == 0 || travelTime >= bestTime {
			continue
		}
		bestNum, bestTime = trigger.Num, travelTime
		bestPoint = vec.Vec3Float{X: center.X, Y: center.Y, Z: origin.Z}
	}
	return bestNum, bestPoint, bestNum != 0
}

// scriptStatus проверяет сценарий на текущем состоянии
func scriptStatus(ctx *PredictionContext, s *movement.ScriptState) movement.ScriptStatus {
	if !s.IsActive() {
		return movement.ScriptInvalid
	}
	if s.TimedOut() {
		return movement.ScriptInvalid
	}
	eps := ctx.PhysicsState()
	origin := eps.Origin()
	if s.TargetAreaNum != 0 && (eps.CurrAasAreaNum() == s.TargetAreaNum || eps.DroppedToFloorAasAreaNum() == s.TargetAreaNum) && eps.IsOnGround() {
		return movement.ScriptCompleted
	}

	world := ctx.AAS()
	switch s.Kind {
	case movement.ScriptRampExit:
		if area := eps.PrimaryAasAreaNum(); area != 0 && eps.IsOnGround() && world.AreaSettings(area).Flags&aas.AreaInclinedFloor == 0 {
			return movement.ScriptCompleted
		}
	case movement.ScriptStairsExit:
		if area := eps.PrimaryAasAreaNum(); area != 0 && eps.IsOnGround() && world.AreaStairsClusterNum(area) != s.ClusterNum {
			return movement.ScriptCompleted
		}
	case movement.ScriptJumpToSpot, movement.ScriptJumpOverBarrier:
		if s.HasJumped && eps.IsOnGround() && s.MillisActive > 0 {
			if origin.Distance2DTo(s.Target) < scriptJumpLandingRadius {
				return movement.ScriptCompleted
			}
			if origin.Distance2DTo(s.Target) > origin.Distance2DTo(s.StartOrigin)+scriptJumpLandingRadius {
				return movement.ScriptInvalid
			}
		}
	case movement.ScriptUseWalkableTrigger:
		if ctx.FrameEvents().Touched.OtherNum == s.TriggerNum || origin.Distance2DTo(s.Target) < scriptWaypointRadius {
			return movement.ScriptCompleted
		}
	case movement.ScriptWalkToNode:
		if origin.Distance2DTo(s.Target) < scriptNodeReachRadius {
			return movement.ScriptCompleted
		}
	}

	// Пешие участки сценария должны оставаться проходимыми
	if eps.IsOnGround() {
		if point, ok := scriptWalkPoint(s, origin); ok && !ctx.CanWalkStraight(origin, point) {
			return movement.ScriptInvalid
		}
	}
	return movement.ScriptPending
}

// scriptWalkPoint точка, к которой сценарий ведёт бота по земле. Для
// прыжков это место толчка, не доходя радиуса срабатывания до края.
func scriptWalkPoint(s *movement.ScriptState, origin vec.Vec3Float) (vec.Vec3Float, bool) {
	switch s.Kind {
	case movement.ScriptWalkToNode, movement.ScriptUseWalkableTrigger:
		return s.Target, true
	case movement.ScriptJumpToSpot, movement.ScriptJumpOverBarrier:
		if !s.HasJumped && origin.Distance2DTo(s.Waypoint) > scriptWaypointRadius {
			dir := s.Waypoint.Sub(origin).Normalized2D()
			return s.Waypoint.MulAdd(dir, -scriptWaypointRadius), true
		}
	}
	return vec.Vec3Float{}, false
}

// planScriptStep ввод для одного шага активного сценария
func planScriptStep(ctx *PredictionContext, s *movement.ScriptState) {
	eps := ctx.PhysicsState()
	origin := eps.Origin()
	record := ctx.Record()
	record.SetUcmdSet(true)
	record.ForwardMovement = 1

	switch s.Kind {
	case movement.ScriptJumpToSpot, movement.ScriptJumpOverBarrier:
		if !s.HasJumped {
			if origin.Distance2DTo(s.Waypoint) > scriptWaypointRadius {
				lookAtOrKeep(ctx, record, s.Waypoint)
				return
			}
			lookAtOrKeep(ctx, record, s.Target)
			if eps.IsOnGround() {
				record.UpMovement = 1
				s.HasJumped = true
			}
			return
		}
		lookAtOrKeep(ctx, record, s.Target)
		applyAirControl(ctx, record, s.Target.Sub(origin))
	case movement.ScriptRampExit, movement.ScriptStairsExit:
		dir := s.Target.Sub(viewOrigin(ctx.PlayerState()))
		if dir.Length2D() < 1 {
			record.SetIntendedLookDir(eps.ForwardDir())
		} else {
			record.SetIntendedLookDir(dir)
		}
	default:
		lookAtOrKeep(ctx, record, s.Target)
		if origin.Distance2DTo(s.Target) < scriptPreciseWalkRadius {
			record.SetWalk(true)
		}
	}
}
