package planner

import (
	"math"
	"sort"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

const (
	weaponJumpMinHeight        = 48.0
	weaponJumpMaxHeight        = 256.0
	weaponJumpMinDistance2D    = 64.0
	weaponJumpMaxDistance2D    = 400.0
	weaponJumpMinTravelGain    = 150
	weaponJumpPendingMillis    = 500
	weaponJumpCooldownMillis   = 2000
	weaponJumpNoSpotCooldown   = 1000
	weaponJumpApexMargin       = 48.0
	weaponJumpMaxLaunchSpeed   = 900.0
	weaponJumpFireBehindOffset = 16.0
)

// ScheduleWeaponJumpAction ищет более высокую область, сокращающую путь,
// и готовит прыжок с отдачей оружия
type ScheduleWeaponJumpAction struct {
	BaseAction
}

func newScheduleWeaponJumpAction() *ScheduleWeaponJumpAction {
	return &ScheduleWeaponJumpAction{BaseAction: newBaseAction(ActionScheduleWeaponJump)}
}

func (a *ScheduleWeaponJumpAction) PlanPredictionStep(ctx *PredictionContext) {
	bunny := ctx.actions.bunnyReachChain
	if !a.checkIsActionEnabled(ctx, bunny) {
		return
	}
	eps := ctx.PhysicsState()
	intent := ctx.Intent()
	carry := ctx.Carry()
	if ctx.TopOfStackIndex() != 0 || !eps.IsOnGround() || intent.WeaponJumpWeapon == 0 || ctx.LevelTime() < carry.WeaponJumpDisabledUntil {
		ctx.SetCannotApply(bunny)
		return
	}

	origin := eps.Origin()
	jumpTarget, ok := findWeaponJumpTarget(ctx, origin)
	if !ok {
		carry.WeaponJumpDisabledUntil = ctx.LevelTime() + weaponJumpNoSpotCooldown
		a.DisableForPlanning()
		ctx.SetCannotApply(bunny)
		return
	}

	dir := jumpTarget.Sub(origin).Flat2D().Normalized2D()
	ps := ctx.PlayerState()
	fireTarget := origin.Add(vec.Vec3Float{Z: ps.Mins.Z}).Sub(dir.Mul(weaponJumpFireBehindOffset))

	ms := ctx.MovementState()
	ms.WeaponJumpState.Activate(origin, jumpTarget, fireTarget, intent.WeaponJumpWeapon, weaponJumpPendingMillis)

	record := ctx.Record()
	record.SetUcmdSet(true)
	record.SetIntendedLookDir(fireTarget.Sub(viewOrigin(ps)))
	record.PendingWeapon = intent.WeaponJumpWeapon
	ctx.debug("%s: цель %v", a.Name(), jumpTarget)
	ctx.SetCompleted()
	ctx.SetTruncated()
}

// findWeaponJumpTarget выбирает область выше текущей с наибольшим выигрышем
// во времени пути, достижимую баллистическим прыжком
func findWeaponJumpTarget(ctx *PredictionContext, origin vec.Vec3Float) (vec.Vec3Float, bool) {
	currTravelTime := ctx.TravelTimeToNavTarget()
	if currTravelTime == 0 {
		return vec.Vec3Float{}, false
	}
	world := ctx.AAS()
	mins := origin.Add(vec.Vec3Float{X: -weaponJumpMaxDistance2D, Y: -weaponJumpMaxDistance2D, Z: weaponJumpMinHeight})
	maxs := origin.Add(vec.Vec3Float{X: weaponJumpMaxDistance2D, Y: weaponJumpMaxDistance2D, Z: weaponJumpMaxHeight})
	var buf [64]int
	areas := world.BBoxAreas(mins, maxs, buf[:0])

	candidates := make([]areaCandidate, 0, len(areas))
	for _, areaNum := range areas {
		settings := world.AreaSettings(areaNum)
		if settings.Flags&aas.AreaGrounded == 0 || settings.Flags&aas.AreaDisabled != 0 {
			continue
		}
		if settings.Contents&(aas.ContentsLava|aas.ContentsSlime|aas.ContentsDoNotEnter) != 0 {
			continue
		}
		center := world.Area(areaNum).Center
		dz := center.Z - origin.Z
		dist2D := center.Distance2DTo(origin)
		if dz < weaponJumpMinHeight || dz > weaponJumpMaxHeight || dist2D < weaponJumpMinDistance2D || dist2D > weaponJumpMaxDistance2D {
			continue
		}
		travelTime := ctx.TravelTimeFromArea(areaNum)
		if travelTime == 0 {
			continue
		}
		gain := currTravelTime - travelTime
		if gain <= weaponJumpMinTravelGain {
			continue
		}
		if ballisticVelocity(origin, center, weaponJumpApexMargin).Length() > weaponJumpMaxLaunchSpeed {
			continue
		}
		candidates = append(candidates, areaCandidate{areaNum: areaNum, score: float64(gain)})
	}
	if len(candidates) == 0 {
		return vec.Vec3Float{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].areaNum < candidates[j].areaNum
	})
	return world.Area(candidates[0].areaNum).Center, true
}

// TriggerWeaponJumpAction выстрел под ноги с одновременным прыжком
type TriggerWeaponJumpAction struct {
	BaseAction
}

func newTriggerWeaponJumpAction() *TriggerWeaponJumpAction {
	return &TriggerWeaponJumpAction{BaseAction: newBaseAction(ActionTriggerWeaponJump)}
}

func (a *TriggerWeaponJumpAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	wj := &ms.WeaponJumpState
	if wj.Stage != movement.WeaponJumpPending {
		ctx.SetCannotApply(nil)
		return
	}
	eps := &ms.EntityPhysicsState
	if !eps.IsOnGround() {
		wj.Deactivate()
		ctx.SetCannotApply(ctx.actions.bunnyReachChain)
		return
	}

	ps := ctx.PlayerState()
	origin := eps.Origin()
	fireDir := wj.FireTarget.Sub(viewOrigin(ps))

	record := ctx.Record()
	record.SetUcmdSet(true)
	record.SetIntendedLookDir(fireDir)
	record.SetAlreadyComputedAngles(vec.DirToAngles(fireDir.Normalized()))
	record.UpMovement = 1
	record.SetAttack(true)
	record.SetModifiedVelocity(ballisticVelocity(origin, wj.JumpTarget, weaponJumpApexMargin))
	record.PendingWeapon = wj.Weapon

	wj.MarkTriggered()
	ctx.Carry().WeaponJumpDisabledUntil = ctx.LevelTime() + weaponJumpCooldownMillis
	ctx.SetCompleted()
	ctx.SetTruncated()
}

// CorrectWeaponJumpAction доворачивает полёт к цели прыжка
type CorrectWeaponJumpAction struct {
	BaseAction
}

func newCorrectWeaponJumpAction() *CorrectWeaponJumpAction {
	return &CorrectWeaponJumpAction{BaseAction: newBaseAction(ActionCorrectWeaponJump)}
}

func (a *CorrectWeaponJumpAction) PlanPredictionStep(ctx *PredictionContext) {
	ms := ctx.MovementState()
	wj := &ms.WeaponJumpState
	if !wj.IsActive() || wj.Stage == movement.WeaponJumpPending {
		ctx.SetCannotApply(nil)
		return
	}
	eps := &ms.EntityPhysicsState
	target := wj.JumpTarget

	record := ctx.Record()
	record.SetUcmdSet(true)
	lookAtOrKeep(ctx, record, target)
	record.ForwardMovement = 1
	toTarget := target.Sub(eps.Origin())
	if toTarget.Length2D() > 1 && math.Abs(toTarget.Z) < weaponJumpMaxHeight*2 {
		applyAirControl(ctx, record, toTarget)
	}
	wj.MarkCorrected()
}

func (a *CorrectWeaponJumpAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	ctx.SetCompleted()
}
