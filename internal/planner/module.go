package planner

import (
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// FrameInput данные одного реального тика бота
type FrameInput struct {
	FrameIndex  int64
	LevelTime   int64
	FrameMillis int
	// PlayerState реальное состояние движка; переопределённая планом скорость
	// записывается в него
	PlayerState   *mover.PlayerState
	Intent        Intent
	OtherTriggers []collision.TriggerEntity
}

// FrameOutput результат тика: команда для движка и сведения о плане
type FrameOutput struct {
	Command       mover.Command
	Record        movement.ActionRecord
	PendingWeapon int
	Action        string
	FromCache     bool
	PlanSource    PlanSource
	PlanLength    int
}

// MovementModule движение одного бота: хранит реальное состояние
// подавтоматов, кеширует план между тиками и исполняет его шаги
type MovementModule struct {
	ctx   *PredictionContext
	state movement.MovementState
	carry CarryOver

	plan          []PlannedStep
	planSource    PlanSource
	planTruncated bool
	planNavTarget int
	planValid     bool
}

// NewMovementModule создаёт модуль движения бота
func NewMovementModule(services Services, settings Settings, opts ...Option) *MovementModule {
	m := &MovementModule{}
	opts = append(opts, WithCarryOver(&m.carry))
	m.ctx = NewPredictionContext(services, settings, opts...)
	m.plan = make([]PlannedStep, 0, m.ctx.settings.StackCapacity)
	return m
}

// Context контекст планирования
func (m *MovementModule) Context() *PredictionContext { return m.ctx }

// State реальное состояние движения
func (m *MovementModule) State() *movement.MovementState { return &m.state }

// Carry переносимые между тиками поля
func (m *MovementModule) Carry() *CarryOver { return &m.carry }

// Plan текущий кешированный план
func (m *MovementModule) Plan() []PlannedStep {
	if !m.planValid {
		return nil
	}
	return m.plan
}

// InvalidatePlan сбрасывает кешированный план
func (m *MovementModule) InvalidatePlan() {
	m.planValid = false
	m.plan = m.plan[:0]
}

// SetCampingSpot начинает кемпинг
func (m *MovementModule) SetCampingSpot(spot movement.CampingSpot) {
	m.state.CampingSpotState.Activate(spot)
	m.state.KeyMoveDirState.Deactivate()
	m.InvalidatePlan()
}

// StopCamping прекращает кемпинг
func (m *MovementModule) StopCamping() {
	m.state.CampingSpotState.Deactivate()
	m.state.KeyMoveDirState.Deactivate()
	m.InvalidatePlan()
}

// SetPendingLookAtPoint временно направляет взгляд на точку
func (m *MovementModule) SetPendingLookAtPoint(point vec.Vec3Float, turnSpeedMultiplier float64, timeoutMillis int) {
	m.state.PendingLookAtPointState.Activate(point, turnSpeedMultiplier, timeoutMillis)
	m.InvalidatePlan()
}

// OnJumppadTouched сообщает о реальном касании jumppad
func (m *MovementModule) OnJumppadTouched(trigger collision.TriggerEntity) {
	if m.state.JumppadState.IsActive() {
		return
	}
	m.state.JumppadState.Activate(trigger)
	m.InvalidatePlan()
}

// OnTeleported сбрасывает состояние после телепортации
func (m *MovementModule) OnTeleported() {
	m.state.Reset()
	m.InvalidatePlan()
}

// Frame выполняет один реальный тик: берёт шаг из кешированного плана
// либо строит новый план и превращает шаг в команду движка
func (m *MovementModule) Frame(in FrameInput) FrameOutput {
	ps := in.PlayerState
	m.state.EntityPhysicsState.UpdateFromPlayerState(ps, m.ctx.locator)
	m.state.Frame(in.FrameMillis)
	m.state.TryDeactivateContainedStates()

	step, fromCache := m.cachedStep(in)
	if fromCache {
		m.ctx.observer.OnCachedPlanUsed()
	} else {
		plan := m.ctx.BuildPlan(PlanRequest{
			MovementState: m.state,
			PlayerState:   *ps,
			Intent:        in.Intent,
			FrameIndex:    in.FrameIndex,
			LevelTime:     in.LevelTime,
			OtherTriggers: in.OtherTriggers,
		})
		m.plan = append(m.plan[:0], plan.Steps...)
		m.planSource = plan.Source
		m.planTruncated = plan.Truncated
		m.planNavTarget = in.Intent.NavTargetAreaNum
		m.planValid = len(m.plan) > 0
		step = &m.plan[0]
	}

	record := step.Record
	if fromCache {
		if i := m.stepIndex(step); i > 0 {
			frac := float64(in.LevelTime-step.Timestamp) / float64(max(step.StepMillis, 1))
			record = record.InterpolateLookDir(m.plan[i-1].Record.IntendedLookDir(), frac)
		}
	}
	applyPendingLookAt(&record, &m.state, viewOrigin(ps))
	target := ExecTarget{PlayerState: ps}
	step.Action.ExecActionRecord(&record, &target)

	m.adoptStates(&step.State)

	out := FrameOutput{
		Command:       target.Input.ToCommand(ps.ViewAngles, in.FrameMillis),
		Record:        record,
		PendingWeapon: target.PendingWeapon,
		Action:        step.Action.Name(),
		FromCache:     fromCache,
		PlanSource:    m.planSource,
		PlanLength:    len(m.plan),
	}
	if m.planTruncated {
		m.InvalidatePlan()
	}
	return out
}

func (m *MovementModule) stepIndex(step *PlannedStep) int {
	for i := range m.plan {
		if &m.plan[i] == step {
			return i
		}
	}
	return -1
}

// cachedStep ищет в кешированном плане шаг для текущего времени,
// предсказанное состояние которого совпадает с реальным
func (m *MovementModule) cachedStep(in FrameInput) (*PlannedStep, bool) {
	if !m.planValid || m.planTruncated || m.planNavTarget != in.Intent.NavTargetAreaNum {
		return nil, false
	}
	settings := &m.ctx.settings
	for i := 1; i < len(m.plan); i++ {
		step := &m.plan[i]
		if in.LevelTime < step.Timestamp || in.LevelTime >= step.Timestamp+int64(step.StepMillis) {
			continue
		}
		predicted := &step.State.EntityPhysicsState
		if predicted.Origin().DistanceTo(in.PlayerState.Origin) > settings.CachedPlanOriginTolerance {
			return nil, false
		}
		if predicted.Velocity().DistanceTo(in.PlayerState.Velocity) > settings.CachedPlanVelocityTolerance {
			return nil, false
		}
		if predicted.IsOnGround() != in.PlayerState.OnGround() {
			return nil, false
		}
		return step, true
	}
	return nil, false
}

// adoptStates переносит подавтоматы из шага плана в реальное состояние.
// Предсказанное касание jumppad не переносится, пока оно не произошло.
func (m *MovementModule) adoptStates(planned *movement.MovementState) {
	jumppad := m.state.JumppadState
	eps := m.state.EntityPhysicsState
	m.state = *planned
	m.state.EntityPhysicsState = eps
	if planned.JumppadState.HasEntered() && !jumppad.IsActive() {
		m.state.JumppadState = jumppad
	}
}
