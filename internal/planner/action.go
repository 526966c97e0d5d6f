package planner

import (
	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// ActionKind закрытый набор стратегий движения
type ActionKind uint8

const (
	ActionDummy ActionKind = iota
	ActionFallback
	ActionSwim
	ActionScheduleWeaponJump
	ActionTriggerWeaponJump
	ActionCorrectWeaponJump
	ActionHandleTriggeredJumppad
	ActionFlyUntilLanding
	ActionLandOnSavedAreas
	ActionRidePlatform
	ActionCampASpot
	ActionBunnyFollowReachChain
	ActionBunnyToBestFloorClusterPoint
	ActionBunnyTestingMultipleLookDirs
	ActionBunnyTestingMultipleTurns
	actionKindCount
)

var actionKindNames = [actionKindCount]string{
	"dummy",
	"fallback",
	"swim",
	"schedule_weapon_jump",
	"trigger_weapon_jump",
	"correct_weapon_jump",
	"handle_triggered_jumppad",
	"fly_until_landing",
	"land_on_saved_areas",
	"ride_platform",
	"camp_a_spot",
	"bunny_follow_reach_chain",
	"bunny_to_best_floor_cluster_point",
	"bunny_testing_multiple_look_dirs",
	"bunny_testing_multiple_turns",
}

// String возвращает имя стратегии
func (k ActionKind) String() string {
	if k < actionKindCount {
		return actionKindNames[k]
	}
	return "unknown"
}

// SequenceStopReason причина завершения последовательности применения стратегии
type SequenceStopReason uint8

const (
	StopUnknown SequenceStopReason = iota
	StopSucceeded
	StopSwitched
	StopDisabled
	// StopFailed единственная причина, после которой допускается откат
	StopFailed
)

// String возвращает строковое представление причины
func (r SequenceStopReason) String() string {
	switch r {
	case StopSucceeded:
		return "succeeded"
	case StopSwitched:
		return "switched"
	case StopDisabled:
		return "disabled"
	case StopFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ExecTarget получатель исполняемой записи: ввод для движка и состояние,
// к которому применяется переопределённая скорость
type ExecTarget struct {
	Input         movement.BotInput
	PlayerState   *mover.PlayerState
	PendingWeapon int
}

// Action стратегия движения. Набор реализаций закрыт пакетом.
type Action interface {
	Kind() ActionKind
	Name() string
	// PlanPredictionStep заполняет запись шага либо выставляет в контексте
	// признаки «неприменима» или «требуется откат»
	PlanPredictionStep(ctx *PredictionContext)
	// CheckPredictionStepResults проверяет результат симулированного шага
	CheckPredictionStepResults(ctx *PredictionContext)
	OnApplicationSequenceStarted(ctx *PredictionContext)
	OnApplicationSequenceStopped(ctx *PredictionContext, reason SequenceStopReason, stoppedAtFrameIndex int)
	// BeforePlanning и AfterPlanning вызываются один раз за реальный тик
	BeforePlanning()
	AfterPlanning()
	// ExecActionRecord применяет запись к исполняемому вводу
	ExecActionRecord(record *movement.ActionRecord, target *ExecTarget)
	base() *BaseAction
}

// BaseAction общая часть всех стратегий: состояние последовательности
// применения и общие проверки результатов шага
type BaseAction struct {
	kind ActionKind

	isDisabledForPlanning bool

	stopPredictionOnTouchingJumppad    bool
	stopPredictionOnTouchingTeleporter bool
	stopPredictionOnTouchingPlatform   bool
	stopPredictionOnEnteringWater      bool
	failPredictionOnEnteringHazardZone bool
	// relaxedChecks отключает общие проверки (сценарии выхода из кластеров)
	relaxedChecks bool

	inSequence              bool
	sequenceStartFrameIndex int
	sequenceEndFrameIndex   int
	sequenceStartMillis     int
	sequenceSteps           int
	originAtSequenceStart   vec.Vec3Float

	// Счётчики для проверки парности вызовов
	sequencesStarted int
	sequencesStopped int
	plannedSteps     int
}

func newBaseAction(kind ActionKind) BaseAction {
	return BaseAction{
		kind:                               kind,
		stopPredictionOnTouchingJumppad:    true,
		stopPredictionOnTouchingTeleporter: true,
		stopPredictionOnTouchingPlatform:   true,
		stopPredictionOnEnteringWater:      true,
		failPredictionOnEnteringHazardZone: true,
		sequenceStartFrameIndex:            -1,
		sequenceEndFrameIndex:              -1,
	}
}

func (a *BaseAction) base() *BaseAction { return a }

// Kind тип стратегии
func (a *BaseAction) Kind() ActionKind { return a.kind }

// Name имя стратегии
func (a *BaseAction) Name() string { return a.kind.String() }

// IsDisabledForPlanning отключена ли стратегия до конца текущего поиска
func (a *BaseAction) IsDisabledForPlanning() bool { return a.isDisabledForPlanning }

// DisableForPlanning отключает стратегию до конца текущего поиска
func (a *BaseAction) DisableForPlanning() { a.isDisabledForPlanning = true }

// SequenceSteps число шагов текущей последовательности
func (a *BaseAction) SequenceSteps() int { return a.sequenceSteps }

// BeforePlanning сбрасывает состояние перед поиском
func (a *BaseAction) BeforePlanning() {
	a.isDisabledForPlanning = false
	a.inSequence = false
	a.sequenceStartFrameIndex = -1
	a.sequenceEndFrameIndex = -1
	a.sequenceSteps = 0
	a.sequencesStarted = 0
	a.sequencesStopped = 0
	a.plannedSteps = 0
}

// AfterPlanning вызывается после поиска
func (a *BaseAction) AfterPlanning() {}

// OnApplicationSequenceStarted отмечает начало последовательности и ставит точку сохранения
func (a *BaseAction) OnApplicationSequenceStarted(ctx *PredictionContext) {
	if a.inSequence {
		panic("planner: " + a.Name() + ": последовательность уже начата")
	}
	a.inSequence = true
	a.sequencesStarted++
	a.sequenceSteps = 0
	a.sequenceStartFrameIndex = ctx.TopOfStackIndex()
	a.sequenceEndFrameIndex = -1
	a.sequenceStartMillis = ctx.TotalMillisAhead()
	a.originAtSequenceStart = ctx.PhysicsState().Origin()
	ctx.MarkSavepoint(ctx.TopOfStackIndex())
}

// OnApplicationSequenceStopped отмечает завершение последовательности
func (a *BaseAction) OnApplicationSequenceStopped(ctx *PredictionContext, reason SequenceStopReason, stoppedAtFrameIndex int) {
	if !a.inSequence {
		panic("planner: " + a.Name() + ": последовательность не начата")
	}
	a.inSequence = false
	a.sequencesStopped++
	a.sequenceEndFrameIndex = stoppedAtFrameIndex
}

// ExecActionRecord применяет запись: вычисленные углы, переопределённую
// скорость и смену оружия
func (a *BaseAction) ExecActionRecord(record *movement.ActionRecord, target *ExecTarget) {
	target.Input = record.BotInput
	if angles, ok := record.AlreadyComputedAngles(); ok && target.PlayerState != nil {
		target.PlayerState.ViewAngles = angles
	}
	if record.HasModifiedVelocity && target.PlayerState != nil {
		target.PlayerState.Velocity = record.ModifiedVelocity
	}
	if record.PendingWeapon != 0 {
		target.PendingWeapon = record.PendingWeapon
	}
}

// CheckPredictionStepResults выполняет только общие проверки
func (a *BaseAction) CheckPredictionStepResults(ctx *PredictionContext) {
	a.checkCommonResults(ctx)
}

// checkIsActionEnabled проверяет, что стратегия не отключена; иначе
// объявляет её неприменимой и предлагает замену
func (a *BaseAction) checkIsActionEnabled(ctx *PredictionContext, suggested Action) bool {
	if a.isDisabledForPlanning {
		ctx.SetCannotApply(suggested)
		return false
	}
	return true
}

// switchOrRollback после отказа стратегии посреди последовательности
// откатывает стек, иначе переключается на suggested
func (a *BaseAction) switchOrRollback(ctx *PredictionContext, suggested Action) {
	if ctx.TopOfStackIndex() > a.sequenceStartFrameIndex && a.sequenceStartFrameIndex >= 0 {
		ctx.SuggestAction(suggested)
		ctx.SetPendingRollback()
		return
	}
	ctx.SetCannotApply(suggested)
}

// checkCommonResults общие проверки недопустимых состояний. Возвращает
// false, если шаг уже отклонён или план завершён.
func (a *BaseAction) checkCommonResults(ctx *PredictionContext) bool {
	a.sequenceSteps++
	if a.relaxedChecks {
		return true
	}

	eps := ctx.PhysicsState()
	prev := ctx.PrevPhysicsState()
	events := ctx.FrameEvents()

	if eps.WaterType&mover.ContentsHazard != 0 {
		ctx.debug("%s: вход в опасную жидкость", a.Name())
		ctx.SetPendingRollback()
		return false
	}
	if events.HasFallDamage() {
		ctx.debug("%s: урон от падения", a.Name())
		ctx.SetPendingRollback()
		return false
	}

	world := ctx.AAS()
	currArea := eps.CurrAasAreaNum()
	if currArea != 0 {
		settings := world.AreaSettings(currArea)
		if settings.Contents&(aas.ContentsLava|aas.ContentsSlime|aas.ContentsDoNotEnter) != 0 {
			ctx.debug("%s: запрещённая область %d", a.Name(), currArea)
			ctx.SetPendingRollback()
			return false
		}
		if settings.Flags&aas.AreaDisabled != 0 {
			prevArea := prev.CurrAasAreaNum()
			if prevArea == 0 || world.AreaSettings(prevArea).Flags&aas.AreaDisabled == 0 {
				ctx.debug("%s: вход в отключённую область %d", a.Name(), currArea)
				ctx.SetPendingRollback()
				return false
			}
		}
		if currArea != prev.CurrAasAreaNum() && ctx.Routes().AreaDisabled(currArea) {
			ctx.debug("%s: область %d отключена для маршрутов", a.Name(), currArea)
			ctx.SetPendingRollback()
			return false
		}
	}

	if a.failPredictionOnEnteringHazardZone && ctx.IsInHazardZone(eps.Origin()) {
		ctx.debug("%s: вход в зону опасности", a.Name())
		ctx.SetPendingRollback()
		return false
	}

	touched := &events.Touched
	if touched.JumppadNum != 0 && a.stopPredictionOnTouchingJumppad {
		if !ctx.IsExpectedTravelType(aas.TravelJumppad) {
			ctx.debug("%s: касание неожиданного jumppad %d", a.Name(), touched.JumppadNum)
			ctx.SetPendingRollback()
			return false
		}
	}
	if touched.TeleporterNum != 0 && a.stopPredictionOnTouchingTeleporter {
		if !ctx.IsExpectedTravelType(aas.TravelTeleport) {
			ctx.debug("%s: касание неожиданного телепорта %d", a.Name(), touched.TeleporterNum)
			ctx.SetPendingRollback()
			return false
		}
		// После телепортации предсказание теряет смысл
		ctx.SetCompleted()
		return false
	}
	if touched.PlatformNum != 0 && a.stopPredictionOnTouchingPlatform {
		if !ctx.IsExpectedTravelType(aas.TravelElevator) {
			ctx.debug("%s: касание неожиданной платформы %d", a.Name(), touched.PlatformNum)
			ctx.SetPendingRollback()
			return false
		}
	}

	if a.stopPredictionOnEnteringWater && eps.IsInWater() && !prev.IsInWater() {
		ctx.SetCompleted()
		return false
	}
	return true
}
