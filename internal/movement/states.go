package movement

import (
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/vec"
)

// Маленькие конечные автоматы, встроенные по значению в MovementState.
// Каждый умеет IsActive/Activate/Deactivate/TryDeactivate и Frame (затухание
// таймеров на заданное число миллисекунд).

// JumppadStage стадия прохождения jumppad
type JumppadStage uint8

const (
	JumppadNone JumppadStage = iota
	// JumppadEntered триггер задет, но ещё не обработан
	JumppadEntered
	// JumppadInFlight ввод заморожен, бот летит к цели
	JumppadInFlight
)

const maxJumppadFlightMillis = 5000

// JumppadMovementState прохождение jumppad
type JumppadMovementState struct {
	Stage         JumppadStage
	JumppadEntNum int
	JumpTarget    vec.Vec3Float
	FlightMillis  int
}

// IsActive активен ли автомат
func (s *JumppadMovementState) IsActive() bool { return s.Stage != JumppadNone }

// HasEntered задет ли триггер и ожидает обработки
func (s *JumppadMovementState) HasEntered() bool { return s.Stage == JumppadEntered }

// IsInFlight летит ли бот после обработки
func (s *JumppadMovementState) IsInFlight() bool { return s.Stage == JumppadInFlight }

// Activate переводит автомат в стадию «задет»
func (s *JumppadMovementState) Activate(trigger collision.TriggerEntity) {
	s.Stage = JumppadEntered
	s.JumppadEntNum = trigger.Num
	s.JumpTarget = trigger.Target
	s.FlightMillis = 0
}

// MarkInFlight переводит автомат в стадию полёта
func (s *JumppadMovementState) MarkInFlight() {
	s.Stage = JumppadInFlight
}

// Deactivate сбрасывает автомат
func (s *JumppadMovementState) Deactivate() {
	*s = JumppadMovementState{}
}

// TryDeactivate завершает полёт после приземления
func (s *JumppadMovementState) TryDeactivate(eps *EntityPhysicsState) bool {
	if s.Stage != JumppadInFlight {
		return false
	}
	if (eps.IsOnGround() && s.FlightMillis > 0) || s.FlightMillis > maxJumppadFlightMillis {
		s.Deactivate()
		return true
	}
	return false
}

// Frame учитывает прошедшее время полёта
func (s *JumppadMovementState) Frame(millis int) {
	if s.Stage == JumppadInFlight {
		s.FlightMillis += millis
	}
}

// WeaponJumpStage стадия прыжка с оружием
type WeaponJumpStage uint8

const (
	WeaponJumpNone WeaponJumpStage = iota
	WeaponJumpPending
	WeaponJumpTriggered
	WeaponJumpCorrected
)

const maxWeaponJumpFlightMillis = 3000

// WeaponJumpMovementState прыжок с помощью отдачи оружия
type WeaponJumpMovementState struct {
	Stage         WeaponJumpStage
	JumpTarget    vec.Vec3Float
	FireTarget    vec.Vec3Float
	OriginAtStart vec.Vec3Float
	Weapon        int
	// MillisLeft время на срабатывание в стадии ожидания
	MillisLeft int
	// MillisSinceTrigger время с момента выстрела
	MillisSinceTrigger int
}

// IsActive активен ли автомат
func (s *WeaponJumpMovementState) IsActive() bool { return s.Stage != WeaponJumpNone }

// Activate начинает ожидание прыжка
func (s *WeaponJumpMovementState) Activate(origin, jumpTarget, fireTarget vec.Vec3Float, weapon, timeoutMillis int) {
	*s = WeaponJumpMovementState{
		Stage:         WeaponJumpPending,
		JumpTarget:    jumpTarget,
		FireTarget:    fireTarget,
		OriginAtStart: origin,
		Weapon:        weapon,
		MillisLeft:    timeoutMillis,
	}
}

// MarkTriggered отмечает выстрел
func (s *WeaponJumpMovementState) MarkTriggered() {
	s.Stage = WeaponJumpTriggered
	s.MillisSinceTrigger = 0
}

// MarkCorrected отмечает коррекцию полёта
func (s *WeaponJumpMovementState) MarkCorrected() {
	s.Stage = WeaponJumpCorrected
}

// Deactivate сбрасывает автомат
func (s *WeaponJumpMovementState) Deactivate() {
	*s = WeaponJumpMovementState{}
}

// TryDeactivate снимает ожидание по таймауту и полёт после приземления
func (s *WeaponJumpMovementState) TryDeactivate(eps *EntityPhysicsState) bool {
	switch s.Stage {
	case WeaponJumpPending:
		if s.MillisLeft <= 0 {
			s.Deactivate()
			return true
		}
	case WeaponJumpTriggered, WeaponJumpCorrected:
		if (eps.IsOnGround() && s.MillisSinceTrigger > 250) || s.MillisSinceTrigger > maxWeaponJumpFlightMillis {
			s.Deactivate()
			return true
		}
	}
	return false
}

// Frame затухание таймеров
func (s *WeaponJumpMovementState) Frame(millis int) {
	switch s.Stage {
	case WeaponJumpPending:
		s.MillisLeft -= millis
	case WeaponJumpTriggered, WeaponJumpCorrected:
		s.MillisSinceTrigger += millis
	}
}

// PendingLookAtPointState временный взгляд на точку
type PendingLookAtPointState struct {
	Point               vec.Vec3Float
	TurnSpeedMultiplier float64
	MillisLeft          int
}

// IsActive активен ли автомат
func (s *PendingLookAtPointState) IsActive() bool { return s.MillisLeft > 0 }

// Activate начинает смотреть на точку в течение timeoutMillis
func (s *PendingLookAtPointState) Activate(point vec.Vec3Float, turnSpeedMultiplier float64, timeoutMillis int) {
	s.Point = point
	s.TurnSpeedMultiplier = turnSpeedMultiplier
	s.MillisLeft = timeoutMillis
}

// Deactivate сбрасывает автомат
func (s *PendingLookAtPointState) Deactivate() {
	*s = PendingLookAtPointState{}
}

// TryDeactivate снимает взгляд по таймауту
func (s *PendingLookAtPointState) TryDeactivate() bool {
	if s.MillisLeft <= 0 && s.Point != (vec.Vec3Float{}) {
		s.Deactivate()
		return true
	}
	return false
}

// Frame затухание таймера
func (s *PendingLookAtPointState) Frame(millis int) {
	if s.MillisLeft > 0 {
		s.MillisLeft -= millis
	}
}

// CampingSpot описание точки для кемпинга
type CampingSpot struct {
	Origin        vec.Vec3Float
	LookAtPoint   vec.Vec3Float
	HasLookAt     bool
	Radius        float64
	Alertness     float64
	TimeoutMillis int
}

// CampingSpotState удержание позиции с направленным взглядом
type CampingSpotState struct {
	Spot   CampingSpot
	Active bool
	// MillisLeft оставшееся время кемпинга, отрицательное при бессрочном
	MillisLeft int
	// LookAtMillisLeft время до смены точки взгляда
	LookAtMillisLeft int
	CurrLookAt       vec.Vec3Float
}

// IsActive активен ли автомат
func (s *CampingSpotState) IsActive() bool { return s.Active }

// Activate начинает кемпинг
func (s *CampingSpotState) Activate(spot CampingSpot) {
	millis := spot.TimeoutMillis
	if millis <= 0 {
		millis = -1
	}
	*s = CampingSpotState{Spot: spot, Active: true, MillisLeft: millis, CurrLookAt: spot.LookAtPoint}
}

// Deactivate сбрасывает автомат
func (s *CampingSpotState) Deactivate() {
	*s = CampingSpotState{}
}

// TryDeactivate снимает кемпинг по таймауту
func (s *CampingSpotState) TryDeactivate() bool {
	if s.Active && s.MillisLeft == 0 {
		s.Deactivate()
		return true
	}
	return false
}

// Frame затухание таймеров
func (s *CampingSpotState) Frame(millis int) {
	if !s.Active {
		return
	}
	if s.MillisLeft > 0 {
		s.MillisLeft -= millis
		if s.MillisLeft < 0 {
			s.MillisLeft = 0
		}
	}
	if s.LookAtMillisLeft > 0 {
		s.LookAtMillisLeft -= millis
	}
}

// KeyMoveDirState удержание выбранных клавиш движения в течение времени
type KeyMoveDirState struct {
	Forward    int8
	Right      int8
	MillisLeft int
}

// IsActive активен ли автомат
func (s *KeyMoveDirState) IsActive() bool { return s.MillisLeft > 0 }

// Activate запоминает клавиши на millis миллисекунд
func (s *KeyMoveDirState) Activate(forward, right int8, millis int) {
	s.Forward, s.Right, s.MillisLeft = forward, right, millis
}

// Deactivate сбрасывает автомат
func (s *KeyMoveDirState) Deactivate() {
	*s = KeyMoveDirState{}
}

// TryDeactivate снимает клавиши по таймауту
func (s *KeyMoveDirState) TryDeactivate() bool {
	if s.MillisLeft <= 0 && (s.Forward != 0 || s.Right != 0) {
		s.Deactivate()
		return true
	}
	return false
}

// Frame затухание таймера
func (s *KeyMoveDirState) Frame(millis int) {
	if s.MillisLeft > 0 {
		s.MillisLeft -= millis
	}
}

// FlyUntilLandingMovementState баллистический полёт до приземления
type FlyUntilLandingMovementState struct {
	Active                   bool
	IsLanding                bool
	UsesDistanceThreshold    bool
	Target                   vec.Vec3Float
	LandingDistanceThreshold float64
	StartLandingAtZ          float64
	FlightMillis             int
}

// IsActive активен ли автомат
func (s *FlyUntilLandingMovementState) IsActive() bool { return s.Active }

// Activate начинает полёт; приземление начинается ниже startLandingAtZ
func (s *FlyUntilLandingMovementState) Activate(target vec.Vec3Float, startLandingAtZ float64) {
	*s = FlyUntilLandingMovementState{Active: true, Target: target, StartLandingAtZ: startLandingAtZ}
}

// ActivateWithDistanceThreshold начинает полёт; приземление начинается
// ближе threshold к цели по горизонтали
func (s *FlyUntilLandingMovementState) ActivateWithDistanceThreshold(target vec.Vec3Float, threshold float64) {
	*s = FlyUntilLandingMovementState{
		Active:                   true,
		Target:                   target,
		UsesDistanceThreshold:    true,
		LandingDistanceThreshold: threshold,
	}
}

// CheckForLanding определяет, пора ли переходить к приземлению
func (s *FlyUntilLandingMovementState) CheckForLanding(eps *EntityPhysicsState) bool {
	if s.IsLanding {
		return true
	}
	origin := eps.Origin()
	if s.UsesDistanceThreshold {
		if origin.Distance2DTo(s.Target) < s.LandingDistanceThreshold {
			s.IsLanding = true
		}
	} else if origin.Z < s.StartLandingAtZ && eps.Velocity().Z <= 0 {
		s.IsLanding = true
	}
	return s.IsLanding
}

// Deactivate сбрасывает автомат
func (s *FlyUntilLandingMovementState) Deactivate() {
	*s = FlyUntilLandingMovementState{}
}

// TryDeactivate завершает полёт после приземления
func (s *FlyUntilLandingMovementState) TryDeactivate(eps *EntityPhysicsState) bool {
	if s.Active && eps.IsOnGround() && s.FlightMillis > 0 {
		s.Deactivate()
		return true
	}
	return false
}

// Frame учитывает время полёта
func (s *FlyUntilLandingMovementState) Frame(millis int) {
	if s.Active {
		s.FlightMillis += millis
	}
}
