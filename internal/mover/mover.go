// Package mover описывает контракт внешнего дискретного физического движка
// игрока. Планировщик вызывает его много раз за реальный тик и считает
// детерминированным чёрным ящиком.
package mover

import (
	"github.com/annel0/botplanner/internal/vec"
)

// Contents битовая маска содержимого точки пространства
type Contents uint32

const (
	ContentsSolid Contents = 1 << iota
	ContentsWater
	ContentsSlime
	ContentsLava
	ContentsDoNotEnter
	ContentsTrigger
	ContentsPlayerClip
)

// ContentsLiquid любая жидкость
const ContentsLiquid = ContentsWater | ContentsSlime | ContentsLava

// ContentsHazard жидкости, в которые боту запрещено входить
const ContentsHazard = ContentsSlime | ContentsLava

// Номера сущностей земли
const (
	GroundNone  = -1
	GroundWorld = 0
)

// Уровни погружения в воду
const (
	WaterNone  = 0
	WaterFeet  = 1
	WaterWaist = 2
	WaterUnder = 3
)

// Buttons кнопки команды
type Buttons uint8

const (
	ButtonAttack Buttons = 1 << iota
	ButtonSpecial
	ButtonWalk
)

// Flags флаги физического состояния движка
type Flags uint16

const (
	FlagJumpHeld Flags = 1 << iota
	FlagSpecialHeld
	FlagDucked
	FlagDashUsed
	FlagWallJumpUsed
	FlagDoubleJumpUsed
	FlagTimeTeleport
)

// Command входная команда одного шага движка
type Command struct {
	ForwardMove int8 // -1, 0, 1
	SideMove    int8 // -1, 0, 1, положительное значение вправо
	UpMove      int8 // -1, 0, 1
	Buttons     Buttons
	Angles      vec.Angles
	Msec        int
}

// PlayerState физическое состояние игрока, которое движок читает и изменяет
type PlayerState struct {
	Origin       vec.Vec3Float
	Velocity     vec.Vec3Float
	ViewAngles   vec.Angles
	Mins         vec.Vec3Float
	Maxs         vec.Vec3Float
	ViewHeight   float64
	GroundEntity int
	WaterLevel   int
	WaterType    Contents
	Flags        Flags
	// Оставшиеся миллисекунды до повторного рывка/отскока от стены
	DashTimeout     int
	WallJumpTimeout int
	// Оставшиеся миллисекунды без контроля движения (после телепорта, отбрасывания)
	NoControlTime int
}

// OnGround проверяет, стоит ли игрок на опоре
func (ps *PlayerState) OnGround() bool {
	return ps.GroundEntity != GroundNone
}

// EventKind тип физического события шага
type EventKind uint8

const (
	EventJump EventKind = iota
	EventDoubleJump
	EventDash
	EventWallJump
	EventFallDamage
)

// String возвращает строковое представление события
func (k EventKind) String() string {
	switch k {
	case EventJump:
		return "jump"
	case EventDoubleJump:
		return "doublejump"
	case EventDash:
		return "dash"
	case EventWallJump:
		return "walljump"
	case EventFallDamage:
		return "falldamage"
	default:
		return "unknown"
	}
}

// Event физическое событие, произошедшее во время шага
type Event struct {
	Kind   EventKind
	Damage int
}

// Hooks обратные вызовы движка. Реализации пишут в буферы владельца и сразу
// возвращают управление; повторный вход в планировщик не допускается.
type Hooks interface {
	// OnEvent вызывается на дискретных событиях шага
	OnEvent(ev Event)
	// OnTouchTriggers вызывается при проверке касания триггеров; объём
	// шага задаётся начальной точкой prevOrigin и итоговым состоянием ps
	OnTouchTriggers(ps *PlayerState, prevOrigin vec.Vec3Float)
}

// Mover дискретный физический движок
type Mover interface {
	// Step выполняет один шаг физики, изменяя ps на месте
	Step(cmd *Command, ps *PlayerState, hooks Hooks)
}

// NopHooks реализация Hooks без реакции на события
type NopHooks struct{}

func (NopHooks) OnEvent(Event)                                 {}
func (NopHooks) OnTouchTriggers(*PlayerState, vec.Vec3Float) {}
