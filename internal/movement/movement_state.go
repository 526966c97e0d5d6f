package movement

import (
	"github.com/annel0/botplanner/internal/vec"
)

// ScriptKind тип сценария движения
type ScriptKind uint8

const (
	ScriptNone ScriptKind = iota
	ScriptWalkToNode
	ScriptRampExit
	ScriptStairsExit
	ScriptJumpOverBarrier
	ScriptJumpToSpot
	ScriptUseWalkableTrigger
)

var scriptKindNames = [...]string{
	"none", "walktonode", "rampexit", "stairsexit", "jumpoverbarrier", "jumptospot", "usewalkabletrigger",
}

// String возвращает строковое представление типа сценария
func (k ScriptKind) String() string {
	if int(k) < len(scriptKindNames) {
		return scriptKindNames[k]
	}
	return "unknown"
}

// ScriptStatus результат проверки сценария
type ScriptStatus uint8

const (
	ScriptPending ScriptStatus = iota
	ScriptCompleted
	ScriptInvalid
)

// String возвращает строковое представление статуса
func (s ScriptStatus) String() string {
	switch s {
	case ScriptCompleted:
		return "COMPLETED"
	case ScriptInvalid:
		return "INVALID"
	default:
		return "PENDING"
	}
}

// ScriptState активный сценарий движения. Хранится по значению и копируется
// вместе с остальным состоянием шага.
type ScriptState struct {
	Kind ScriptKind
	// Target фиксированная точка наведения
	Target vec.Vec3Float
	// Waypoint точка отрыва для прыжковых сценариев
	Waypoint vec.Vec3Float
	// TargetAreaNum область, достижение которой завершает сценарий
	TargetAreaNum int
	// ClusterNum кластер пола/лестницы, из которого нужно выйти
	ClusterNum int
	// StartOrigin позиция при активации
	StartOrigin vec.Vec3Float
	// TriggerNum триггер для UseWalkableTrigger
	TriggerNum int
	// HasJumped прыжок уже выполнен (для прыжковых сценариев)
	HasJumped bool
	// MillisLeft оставшееся время до таймаута
	MillisLeft int
	// MillisActive время с момента активации
	MillisActive int
}

// IsActive активен ли сценарий
func (s *ScriptState) IsActive() bool { return s.Kind != ScriptNone }

// Activate активирует сценарий с фиксированной точкой наведения
func (s *ScriptState) Activate(kind ScriptKind, origin, target vec.Vec3Float, targetAreaNum, timeoutMillis int) {
	*s = ScriptState{
		Kind:          kind,
		Target:        target,
		TargetAreaNum: targetAreaNum,
		StartOrigin:   origin,
		MillisLeft:    timeoutMillis,
	}
}

// Deactivate сбрасывает сценарий
func (s *ScriptState) Deactivate() {
	*s = ScriptState{}
}

// TimedOut истекло ли время сценария
func (s *ScriptState) TimedOut() bool {
	return s.IsActive() && s.MillisLeft <= 0
}

// Frame затухание таймера
func (s *ScriptState) Frame(millis int) {
	if !s.IsActive() {
		return
	}
	s.MillisLeft -= millis
	s.MillisActive += millis
}

// StateMask маска активных подавтоматов
type StateMask uint8

const (
	MaskJumppad StateMask = 1 << iota
	MaskWeaponJump
	MaskPendingLookAt
	MaskCamping
	MaskKeyMoveDir
	MaskFlyUntilLanding
	MaskScript
)

// MovementState полное состояние движения одного шага плана
type MovementState struct {
	EntityPhysicsState EntityPhysicsState

	JumppadState            JumppadMovementState
	WeaponJumpState         WeaponJumpMovementState
	PendingLookAtPointState PendingLookAtPointState
	CampingSpotState        CampingSpotState
	KeyMoveDirState         KeyMoveDirState
	FlyUntilLandingState    FlyUntilLandingMovementState
	Script                  ScriptState
}

// Frame затухание таймеров всех подавтоматов
func (s *MovementState) Frame(millis int) {
	s.JumppadState.Frame(millis)
	s.WeaponJumpState.Frame(millis)
	s.PendingLookAtPointState.Frame(millis)
	s.CampingSpotState.Frame(millis)
	s.KeyMoveDirState.Frame(millis)
	s.FlyUntilLandingState.Frame(millis)
	s.Script.Frame(millis)
}

// TryDeactivateContainedStates снимает подавтоматы, чьё время или условие истекло
func (s *MovementState) TryDeactivateContainedStates() {
	eps := &s.EntityPhysicsState
	s.JumppadState.TryDeactivate(eps)
	s.WeaponJumpState.TryDeactivate(eps)
	s.PendingLookAtPointState.TryDeactivate()
	s.CampingSpotState.TryDeactivate()
	s.KeyMoveDirState.TryDeactivate()
	s.FlyUntilLandingState.TryDeactivate(eps)
}

// ActiveMask маска активных подавтоматов
func (s *MovementState) ActiveMask() StateMask {
	var mask StateMask
	if s.JumppadState.IsActive() {
		mask |= MaskJumppad
	}
	if s.WeaponJumpState.IsActive() {
		mask |= MaskWeaponJump
	}
	if s.PendingLookAtPointState.IsActive() {
		mask |= MaskPendingLookAt
	}
	if s.CampingSpotState.IsActive() {
		mask |= MaskCamping
	}
	if s.KeyMoveDirState.IsActive() {
		mask |= MaskKeyMoveDir
	}
	if s.FlyUntilLandingState.IsActive() {
		mask |= MaskFlyUntilLanding
	}
	if s.Script.IsActive() {
		mask |= MaskScript
	}
	return mask
}

// Reset сбрасывает все подавтоматы, сохраняя снимок физики
func (s *MovementState) Reset() {
	eps := s.EntityPhysicsState
	*s = MovementState{EntityPhysicsState: eps}
}
