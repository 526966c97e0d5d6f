package planner

import (
	"math"

	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// Физические константы, общие для стратегий
const (
	runSpeed       = 320.0
	gravity        = 800.0
	airControlRate = 3.0
)

// actionSet все стратегии одного контекста. Экземпляры живут столько же,
// сколько контекст, и переиспользуются между поисками.
type actionSet struct {
	dummy              *DummyAction
	fallback           *FallbackAction
	swim               *SwimAction
	scheduleWeaponJump *ScheduleWeaponJumpAction
	triggerWeaponJump  *TriggerWeaponJumpAction
	correctWeaponJump  *CorrectWeaponJumpAction
	handleJumppad      *HandleTriggeredJumppadAction
	flyUntilLanding    *FlyUntilLandingAction
	landOnSavedAreas   *LandOnSavedAreasAction
	ridePlatform       *RidePlatformAction
	campASpot          *CampASpotAction
	bunnyReachChain    *BunnyHopAction
	bunnyLookDirs      *BunnyHopAction
	bunnyFloorCluster  *BunnyHopAction
	bunnyTurns         *BunnyHopAction

	all []Action
}

func newActionSet() *actionSet {
	s := &actionSet{
		dummy:              newDummyAction(),
		fallback:           newFallbackAction(),
		swim:               newSwimAction(),
		scheduleWeaponJump: newScheduleWeaponJumpAction(),
		triggerWeaponJump:  newTriggerWeaponJumpAction(),
		correctWeaponJump:  newCorrectWeaponJumpAction(),
		handleJumppad:      newHandleTriggeredJumppadAction(),
		flyUntilLanding:    newFlyUntilLandingAction(),
		landOnSavedAreas:   newLandOnSavedAreasAction(),
		ridePlatform:       newRidePlatformAction(),
		campASpot:          newCampASpotAction(),
		bunnyReachChain:    newBunnyHopAction(ActionBunnyFollowReachChain, reachChainLookDir{}),
		bunnyLookDirs:      newBunnyHopAction(ActionBunnyTestingMultipleLookDirs, multipleLookDirs{}),
		bunnyFloorCluster:  newBunnyHopAction(ActionBunnyToBestFloorClusterPoint, floorClusterLookDir{}),
		bunnyTurns:         newBunnyHopAction(ActionBunnyTestingMultipleTurns, multipleTurnsLookDir{}),
	}
	s.bunnyReachChain.next = s.bunnyLookDirs
	s.bunnyLookDirs.next = s.bunnyFloorCluster
	s.bunnyFloorCluster.next = s.bunnyTurns
	s.bunnyTurns.next = s.fallback

	s.all = []Action{
		s.dummy, s.fallback, s.swim,
		s.scheduleWeaponJump, s.triggerWeaponJump, s.correctWeaponJump,
		s.handleJumppad, s.flyUntilLanding, s.landOnSavedAreas,
		s.ridePlatform, s.campASpot,
		s.bunnyReachChain, s.bunnyFloorCluster, s.bunnyLookDirs, s.bunnyTurns,
	}
	return s
}

// byKind ищет стратегию по типу
func (s *actionSet) byKind(kind ActionKind) Action {
	for _, a := range s.all {
		if a.Kind() == kind {
			return a
		}
	}
	return nil
}

// applyAirControl доворачивает горизонтальную скорость к направлению dir,
// сохраняя её модуль. Замещает управление в воздухе, которого нет у движка.
// Возвращает угол между скоростью и dir в градусах, если скорость изменена.
func applyAirControl(ctx *PredictionContext, record *movement.ActionRecord, dir vec.Vec3Float) float64 {
	eps := ctx.PhysicsState()
	if eps.IsOnGround() {
		return 0
	}
	vel := eps.Velocity()
	speed2D := vel.Length2D()
	if speed2D < 1 {
		return 0
	}
	dir = dir.Flat2D().Normalized2D()
	if dir.IsZero() {
		return 0
	}
	velDir := vel.Flat2D().Normalized2D()
	dot := velDir.Dot2D(dir)
	if dot > 0.999 || dot < 0 {
		return 0
	}
	frac := math.Min(1, airControlRate*float64(ctx.PredictionStepMillis())/1000)
	newDir := velDir.Lerp(dir, frac).Normalized2D()
	newVel := newDir.Mul(speed2D)
	newVel.Z = vel.Z
	record.SetModifiedVelocity(newVel)
	return math.Acos(dot) * 180 / math.Pi
}

// lookAtFlat направляет взгляд на точку по горизонтали; false, если точка
// совпадает с позицией
func lookAtFlat(record *movement.ActionRecord, from, to vec.Vec3Float) bool {
	dir := to.Sub(from).Flat2D()
	if dir.Length2D() < 1 {
		return false
	}
	record.SetIntendedLookDir(dir)
	return true
}

// lookAtOrKeep смотрит на точку либо сохраняет текущее направление
func lookAtOrKeep(ctx *PredictionContext, record *movement.ActionRecord, to vec.Vec3Float) {
	eps := ctx.PhysicsState()
	if !lookAtFlat(record, eps.Origin(), to) {
		record.SetIntendedLookDir(eps.ForwardDir())
	}
}

// ballisticVelocity начальная скорость прыжка к точке target с запасом
// высоты apexMargin над верхней из двух точек
func ballisticVelocity(from, target vec.Vec3Float, apexMargin float64) vec.Vec3Float {
	dz := target.Z - from.Z
	apex := math.Max(dz, 0) + apexMargin
	vz := math.Sqrt(2 * gravity * apex)
	tUp := vz / gravity
	tDown := math.Sqrt(2 * (apex - dz) / gravity)
	t := tUp + tDown
	flat := target.Sub(from).Flat2D()
	dist := flat.Length2D()
	if dist < 1 || t <= 0 {
		return vec.Vec3Float{Z: vz}
	}
	v := flat.Normalized2D().Mul(dist / t)
	v.Z = vz
	return v
}

// DummyAction последний рубеж: один шаг ввода по умолчанию
type DummyAction struct {
	BaseAction
}

func newDummyAction() *DummyAction {
	return &DummyAction{BaseAction: newBaseAction(ActionDummy)}
}

// PlanPredictionStep заполняет запись вводом по умолчанию и завершает поиск
// без симуляции
func (a *DummyAction) PlanPredictionStep(ctx *PredictionContext) {
	record := ctx.Record()
	record.BotInput = ctx.DefaultBotInput()
	ctx.SetCompleted()
	ctx.SetTruncated()
}

// CheckPredictionStepResults никогда не должен вызываться
func (a *DummyAction) CheckPredictionStepResults(*PredictionContext) {
	panic("planner: шаг dummy не симулируется")
}
