package planner

import (
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	campKeyMoveProbe        = 48.0
	campKeyMoveMinMillis    = 400
	campKeyMoveRandomMillis = 401
	campLookAtMinMillis     = 500
	campLookAtRandomMillis  = 1001
	campLookAtJitter        = 96.0
	campDefaultLookDistance = 256.0
)

// Соли для детерминированных случайных решений
const (
	saltKeyMoveDir uint64 = iota + 1
	saltKeyMoveMillis
	saltLookAtX
	saltLookAtY
	saltLookAtMillis
)

// CampASpotAction удерживает позицию в радиусе точки, переступая
// в случайных направлениях и осматриваясь вокруг точки взгляда
type CampASpotAction struct {
	BaseAction
}

func newCampASpotAction() *CampASpotAction {
	return &CampASpotAction{BaseAction: newBaseAction(ActionCampASpot)}
}

func (a *CampASpotAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	camp := &ms.CampingSpotState
	if !camp.IsActive() {
		ctx.SetCannotApply(nil)
		return
	}
	eps := &ms.EntityPhysicsState
	spot := camp.Spot
	origin := eps.Origin()

	record := ctx.Record()
	record.SetUcmdSet(true)

	if origin.Distance2DTo(spot.Origin) > spot.Radius {
		ms.KeyMoveDirState.Deactivate()
		lookAtOrKeep(ctx, record, spot.Origin)
		record.ForwardMovement = 1
		if origin.Distance2DTo(spot.Origin) < 2*spot.Radius {
			record.SetWalk(true)
		}
		return
	}

	a.updateLookAt(ctx, camp, origin)
	lookDir := camp.CurrLookAt.Sub(viewOrigin(ctx.PlayerState()))
	if lookDir.LengthSquared() < 1 {
		lookDir = eps.ForwardDir()
	}
	record.SetIntendedLookDir(lookDir)

	keys := &ms.KeyMoveDirState
	if !keys.IsActive() {
		a.pickKeyMoveDir(ctx, keys, spot, lookDir)
	}
	record.ForwardMovement = keys.Forward
	record.RightMovement = keys.Right
	record.SetWalk(true)
}

func (a *CampASpotAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	ctx.SetCompleted()
}

// updateLookAt выбирает новую точку взгляда, когда истёк таймер текущей.
// Разброс тем больше, чем ниже настороженность.
func (a *CampASpotAction) updateLookAt(ctx *PredictionContext, camp *movement.CampingSpotState, origin vec.Vec3Float) {
	if camp.LookAtMillisLeft > 0 && !camp.CurrLookAt.IsZero() {
		return
	}
	base := camp.Spot.LookAtPoint
	if !camp.Spot.HasLookAt {
		base = origin.Add(ctx.PhysicsState().ForwardDir().Flat2D().Normalized2D().Mul(campDefaultLookDistance))
	}
	spread := campLookAtJitter * (1 - clampUnit(camp.Spot.Alertness))
	jitter := vec.Vec3Float{
		X: (ctx.random(saltLookAtX)*2 - 1) * spread,
		Y: (ctx.random(saltLookAtY)*2 - 1) * spread,
	}
	camp.CurrLookAt = base.Add(jitter)
	camp.LookAtMillisLeft = campLookAtMinMillis + ctx.randomInt(saltLookAtMillis, campLookAtRandomMillis)
}

// pickKeyMoveDir перебирает стороны со случайной стартовой и выбирает
// первую свободную, не выводящую из радиуса точки
func (a *CampASpotAction) pickKeyMoveDir(ctx *PredictionContext, keys *movement.KeyMoveDirState, spot movement.CampingSpot, lookDir vec.Vec3Float) {
	eps := ctx.PhysicsState()
	origin := eps.Origin()
	forward := eps.ForwardDir()
	env := ctx.EnvironmentTraceCache()
	millis := campKeyMoveMinMillis + ctx.randomInt(saltKeyMoveMillis, campKeyMoveRandomMillis)

	start := ctx.randomInt(saltKeyMoveDir, int(numTraceSides))
	for i := 0; i < int(numTraceSides); i++ {
		side := TraceSide((start + i) % int(numTraceSides))
		if env.IsBlocked(ctx, side) {
			continue
		}
		dest := origin.Add(SideDir(forward, side).Mul(campKeyMoveProbe))
		if dest.Distance2DTo(spot.Origin) > spot.Radius {
			continue
		}
		probe := movement.NewActionRecord()
		probe.SetIntendedLookDir(forward)
		probe.ForwardMovement = sideKeys[side][0]
		probe.RightMovement = sideKeys[side][1]
		probe.RemapKeysForLookDir(lookDir)
		keys.Activate(probe.ForwardMovement, probe.RightMovement, millis)
		return
	}
	keys.Activate(0, 0, millis)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
