package planner

import (
	"github.com/annel0/botplanner/internal/vec"
)

const (
	bunnyLookAheadDistance = 256.0
	// bunnyMaxRegression допустимый рост времени пути, сотые доли секунды
	bunnyMaxRegression        = 200
	bunnyMaxRegressionMillis  = 400
	bunnyMaxSpeedLossMillis   = 480
	bunnyMaxAirControlMillis  = 1200
	bunnyMinHopsToComplete    = 2
	bunnyMinDisplacement      = 48.0
	bunnyMinLastResortDepth   = 4
	bunnyJumpSpeedFraction    = 0.9
	bunnySpeedLossFraction    = 0.8
	bunnyDashSpeedFraction    = 0.5
	bunnyJumpAlignmentDot     = 0.9
	bunnyFloorPointReachRange = 24.0
	// bunnyFreeAirControlDegrees доворот в воздухе, не считающийся штрафом
	bunnyFreeAirControlDegrees = 10.0
	// bunnyPenaltyEscalationMillis шаг роста штрафа за затянувшееся нарушение
	bunnyPenaltyEscalationMillis = 100
)

// lookDirProvider источник направления для семейства bunny-стратегий
type lookDirProvider interface {
	// attempts число попыток за один поиск
	attempts() int
	// atSequenceStart вызывается один раз в начале последовательности
	atSequenceStart(a *BunnyHopAction, ctx *PredictionContext) bool
	// lookDir направление на текущем шаге
	lookDir(a *BunnyHopAction, ctx *PredictionContext) (vec.Vec3Float, bool)
}

// BunnyHopAction распрыжка в направлении, задаваемом провайдером.
// Неудача исчерпывает попытки и передаёт управление следующей стратегии.
type BunnyHopAction struct {
	BaseAction
	provider lookDirProvider
	next     Action

	attempt int

	startTravelTime  int
	minTravelTime    int
	bestAdvancement  int
	penalty          int
	hops             int
	maxSpeed         float64
	regressionMillis int
	speedLossMillis  int
	airMillis        int
	airControlMillis int
	lastHopOrigin    vec.Vec3Float
	dirAtStart       vec.Vec3Float
	pointAtStart     vec.Vec3Float
	hasDir           bool
}

func newBunnyHopAction(kind ActionKind, provider lookDirProvider) *BunnyHopAction {
	return &BunnyHopAction{BaseAction: newBaseAction(kind), provider: provider}
}

// Attempt номер текущей попытки
func (a *BunnyHopAction) Attempt() int { return a.attempt }

func (a *BunnyHopAction) BeforePlanning() {
	a.BaseAction.BeforePlanning()
	a.attempt = 0
}

func (a *BunnyHopAction) OnApplicationSequenceStarted(ctx *PredictionContext) {
	a.BaseAction.OnApplicationSequenceStarted(ctx)
	eps := ctx.PhysicsState()
	a.startTravelTime = ctx.TravelTimeToNavTarget()
	a.minTravelTime = a.startTravelTime
	a.bestAdvancement = 0
	a.penalty = 0
	a.hops = 0
	a.maxSpeed = eps.Speed2D()
	a.regressionMillis = 0
	a.speedLossMillis = 0
	a.airMillis = 0
	a.airControlMillis = 0
	a.lastHopOrigin = eps.Origin()
	a.dirAtStart = vec.Vec3Float{}
	a.pointAtStart = vec.Vec3Float{}
	a.hasDir = a.provider.atSequenceStart(a, ctx)
}

func (a *BunnyHopAction) OnApplicationSequenceStopped(ctx *PredictionContext, reason SequenceStopReason, stoppedAtFrameIndex int) {
	if reason == StopFailed {
		if stoppedAtFrameIndex >= bunnyMinLastResortDepth && a.bestAdvancement > 0 {
			ctx.SaveLastResortPath(a.penalty)
		}
		a.attempt++
		if a.attempt >= a.provider.attempts() {
			a.DisableForPlanning()
		}
	}
	a.BaseAction.OnApplicationSequenceStopped(ctx, reason, stoppedAtFrameIndex)
}

func (a *BunnyHopAction) PlanPredictionStep(ctx *PredictionContext) {
	if !a.checkIsActionEnabled(ctx, a.next) {
		return
	}
	if !a.hasDir {
		a.DisableForPlanning()
		a.switchOrRollback(ctx, a.next)
		return
	}
	dir, ok := a.provider.lookDir(a, ctx)
	if !ok {
		a.switchOrRollback(ctx, a.next)
		return
	}
	dir = dir.Flat2D().Normalized2D()

	eps := ctx.PhysicsState()
	record := ctx.Record()
	record.SetUcmdSet(true)
	record.SetIntendedLookDir(dir)
	record.ForwardMovement = 1

	if !eps.IsOnGround() {
		if turn := applyAirControl(ctx, record, dir); turn > bunnyFreeAirControlDegrees {
			a.airControlMillis += ctx.PredictionStepMillis()
			a.penalty += int(turn/bunnyFreeAirControlDegrees) + a.airControlMillis/bunnyPenaltyEscalationMillis
		}
		return
	}

	speed := eps.Speed2D()
	aligned := speed < 1 || eps.Velocity().Flat2D().Normalized2D().Dot2D(dir) > bunnyJumpAlignmentDot
	switch {
	case speed >= bunnyJumpSpeedFraction*runSpeed && aligned:
		record.UpMovement = 1
	case speed < bunnyDashSpeedFraction*runSpeed && eps.DashTimeout <= 0:
		record.SetSpecial(true)
	}
}

func (a *BunnyHopAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	eps := ctx.PhysicsState()
	prev := ctx.PrevPhysicsState()
	millis := ctx.PredictionStepMillis()

	if ctx.IsInNavTargetArea() {
		ctx.SetCompleted()
		return
	}

	hasTarget := ctx.NavTargetAreaNum() != 0
	travelTime := ctx.TravelTimeToNavTarget()
	if hasTarget && travelTime == 0 {
		ctx.debug("%s: нет маршрута к цели", a.Name())
		ctx.SetPendingRollback()
		return
	}

	if hasTarget {
		if travelTime > a.minTravelTime {
			if travelTime-a.minTravelTime > bunnyMaxRegression {
				ctx.debug("%s: время пути выросло %d -> %d", a.Name(), a.minTravelTime, travelTime)
				ctx.SetPendingRollback()
				return
			}
			a.regressionMillis += millis
			a.penalty += millis / 16
			if a.regressionMillis > bunnyMaxRegressionMillis {
				ctx.SetPendingRollback()
				return
			}
		} else if travelTime < a.minTravelTime {
			a.minTravelTime = travelTime
			a.regressionMillis = 0
		}
	}

	speed := eps.Speed2D()
	if speed > a.maxSpeed {
		a.maxSpeed = speed
	}
	if speed < bunnySpeedLossFraction*a.maxSpeed {
		a.speedLossMillis += millis
		a.penalty += 1 + a.speedLossMillis/bunnyPenaltyEscalationMillis
		if a.speedLossMillis > bunnyMaxSpeedLossMillis {
			ctx.debug("%s: потеря скорости %.1f из %.1f", a.Name(), speed, a.maxSpeed)
			ctx.SetPendingRollback()
			return
		}
	}

	if !eps.IsOnGround() {
		a.airMillis += millis
		if a.airMillis > bunnyMaxAirControlMillis {
			ctx.SetPendingRollback()
			return
		}
	}

	advancement := a.startTravelTime - travelTime
	if advancement > a.bestAdvancement {
		a.bestAdvancement = advancement
	}
	if !hasTarget {
		advancement = 0
	}

	landed := eps.IsOnGround() && !prev.IsOnGround()
	if landed {
		a.hops++
		a.airMillis = 0
		if hasTarget {
			ctx.SaveGoodEnoughPath(advancement, a.penalty)
		}
		displacement := eps.Origin().Distance2DTo(a.lastHopOrigin)
		a.lastHopOrigin = eps.Origin()
		if a.hops >= bunnyMinHopsToComplete && a.penalty == 0 && displacement >= bunnyMinDisplacement && (advancement > 0 || !hasTarget) {
			ctx.SetCompleted()
			return
		}
	}

	// Стек почти полон: чистый прыжок лучше отката, который всё равно
	// отбросит накопленные шаги
	if ctx.TopOfStackIndex() >= ctx.StackCapacity()-2 && a.hops >= 1 && a.penalty == 0 && (advancement > 0 || !hasTarget) {
		ctx.SetCompleted()
	}
}

// reachChainLookDir смотрит вдоль пешей части цепочки достижимостей
type reachChainLookDir struct{}

func (reachChainLookDir) attempts() int { return 1 }

func (reachChainLookDir) atSequenceStart(_ *BunnyHopAction, ctx *PredictionContext) bool {
	_, ok := ctx.reachChainLookPoint(bunnyLookAheadDistance)
	return ok
}

func (reachChainLookDir) lookDir(_ *BunnyHopAction, ctx *PredictionContext) (vec.Vec3Float, bool) {
	point, ok := ctx.reachChainLookPoint(bunnyLookAheadDistance)
	if !ok {
		return vec.Vec3Float{}, false
	}
	return point.Sub(ctx.PhysicsState().Origin()), true
}

var bunnyLookDirAngles = [...]float64{20, -20, 40, -40, 60, -60}

// multipleLookDirs перебирает фиксированные отклонения от направления цепочки
type multipleLookDirs struct{}

func (multipleLookDirs) attempts() int { return len(bunnyLookDirAngles) }

func (multipleLookDirs) atSequenceStart(a *BunnyHopAction, ctx *PredictionContext) bool {
	if a.attempt >= len(bunnyLookDirAngles) {
		return false
	}
	point, ok := ctx.reachChainLookPoint(bunnyLookAheadDistance)
	if !ok {
		return false
	}
	base := point.Sub(ctx.PhysicsState().Origin()).Flat2D().Normalized2D()
	a.dirAtStart = vec.RotateAroundZ(base, bunnyLookDirAngles[a.attempt])
	return true
}

func (multipleLookDirs) lookDir(a *BunnyHopAction, _ *PredictionContext) (vec.Vec3Float, bool) {
	return a.dirAtStart, true
}

// floorClusterLookDir ведёт к лучшей точке текущего кластера пола
type floorClusterLookDir struct{}

func (floorClusterLookDir) attempts() int { return 1 }

func (floorClusterLookDir) atSequenceStart(a *BunnyHopAction, ctx *PredictionContext) bool {
	point, ok := ctx.bestFloorClusterPoint()
	if !ok {
		return false
	}
	a.pointAtStart = point
	a.dirAtStart = point.Sub(ctx.PhysicsState().Origin()).Flat2D().Normalized2D()
	return true
}

func (floorClusterLookDir) lookDir(a *BunnyHopAction, ctx *PredictionContext) (vec.Vec3Float, bool) {
	origin := ctx.PhysicsState().Origin()
	if origin.Distance2DTo(a.pointAtStart) < bunnyFloorPointReachRange {
		return a.dirAtStart, true
	}
	return a.pointAtStart.Sub(origin), true
}

// bunnyTurnRates скорости поворота, градусов в секунду
var bunnyTurnRates = [...]float64{45, -45, 90, -90}

// multipleTurnsLookDir поворачивает взгляд с постоянной скоростью
type multipleTurnsLookDir struct{}

func (multipleTurnsLookDir) attempts() int { return len(bunnyTurnRates) }

func (multipleTurnsLookDir) atSequenceStart(a *BunnyHopAction, ctx *PredictionContext) bool {
	if a.attempt >= len(bunnyTurnRates) {
		return false
	}
	eps := ctx.PhysicsState()
	if point, ok := ctx.reachChainLookPoint(bunnyLookAheadDistance); ok {
		a.dirAtStart = point.Sub(eps.Origin()).Flat2D().Normalized2D()
	} else if eps.Speed2D() > 10 {
		a.dirAtStart = eps.Velocity().Flat2D().Normalized2D()
	} else {
		a.dirAtStart = eps.ForwardDir().Flat2D().Normalized2D()
	}
	return !a.dirAtStart.IsZero()
}

func (multipleTurnsLookDir) lookDir(a *BunnyHopAction, ctx *PredictionContext) (vec.Vec3Float, bool) {
	elapsed := float64(ctx.TotalMillisAhead()-a.sequenceStartMillis) / 1000
	return vec.RotateAroundZ(a.dirAtStart, bunnyTurnRates[a.attempt]*elapsed), true
}
