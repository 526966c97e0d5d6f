package movement

import (
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/vec"
)

// Locator отвечает на запросы принадлежности точки областям навигации
type Locator interface {
	FindAreaNum(origin vec.Vec3Float) int
	// HeightOverGround расстояние от ног до пола под точкой
	HeightOverGround(origin, mins vec.Vec3Float) float64
}

// MaxHeightOverGround высота, выше которой пол не ищется
const MaxHeightOverGround = 1024.0

// EntityPhysicsState упакованный снимок физического состояния агента.
// Дешёв в копировании; принадлежность областям пересчитывается лениво,
// только когда изменилась позиция.
type EntityPhysicsState struct {
	origin     packedOrigin
	velocity   packedVelocity
	forwardDir packedDir
	rightDir   packedDir
	pitch      uint16
	yaw        uint16

	speed            float32
	speed2D          float32
	heightOverGround float32

	GroundEntNum int32
	WaterLevel   uint8
	WaterType    mover.Contents
	Flags        mover.Flags
	// Оставшееся время до возможности рывка, мс
	DashTimeout int32

	currAasAreaNum           int32
	droppedToFloorAasAreaNum int32
	areaCheckOrigin          packedOrigin
	areaCheckGround          int32
	areasValid               bool
}

// UpdateFromPlayerState заполняет снимок из состояния движка
func (s *EntityPhysicsState) UpdateFromPlayerState(ps *mover.PlayerState, loc Locator) {
	s.origin = packOrigin(ps.Origin)
	s.velocity = packVelocity(ps.Velocity)
	s.pitch = angleToShort(ps.ViewAngles.X)
	s.yaw = angleToShort(ps.ViewAngles.Y)
	forward, right, _ := vec.AngleVectors(ps.ViewAngles)
	s.forwardDir = packDir(forward)
	s.rightDir = packDir(right)
	s.speed = float32(ps.Velocity.Length())
	s.speed2D = float32(ps.Velocity.Length2D())
	s.GroundEntNum = int32(ps.GroundEntity)
	s.WaterLevel = uint8(ps.WaterLevel)
	s.WaterType = ps.WaterType
	s.Flags = ps.Flags
	s.DashTimeout = int32(ps.DashTimeout)

	if s.areasValid && s.areaCheckOrigin == s.origin && s.areaCheckGround == s.GroundEntNum {
		return
	}
	s.updateAreas(ps, loc)
}

func (s *EntityPhysicsState) updateAreas(ps *mover.PlayerState, loc Locator) {
	s.areaCheckOrigin = s.origin
	s.areaCheckGround = s.GroundEntNum
	s.areasValid = true

	origin := s.origin.unpack()
	s.currAasAreaNum = int32(loc.FindAreaNum(origin))

	if ps.GroundEntity != mover.GroundNone {
		s.heightOverGround = 0
		s.droppedToFloorAasAreaNum = s.currAasAreaNum
		return
	}

	height := loc.HeightOverGround(origin, ps.Mins)
	if height > MaxHeightOverGround {
		height = MaxHeightOverGround
	}
	s.heightOverGround = float32(height)
	if height >= MaxHeightOverGround {
		s.droppedToFloorAasAreaNum = s.currAasAreaNum
		return
	}

	dropped := origin
	dropped.Z -= height
	droppedArea := loc.FindAreaNum(dropped)
	if droppedArea == 0 {
		droppedArea = int(s.currAasAreaNum)
	}
	s.droppedToFloorAasAreaNum = int32(droppedArea)
}

// Origin позиция агента
func (s *EntityPhysicsState) Origin() vec.Vec3Float { return s.origin.unpack() }

// Velocity скорость агента
func (s *EntityPhysicsState) Velocity() vec.Vec3Float { return s.velocity.unpack() }

// Speed модуль скорости
func (s *EntityPhysicsState) Speed() float64 { return float64(s.speed) }

// Speed2D модуль горизонтальной скорости
func (s *EntityPhysicsState) Speed2D() float64 { return float64(s.speed2D) }

// Angles углы обзора
func (s *EntityPhysicsState) Angles() vec.Angles {
	return vec.Angles{X: vec.AngleNormalize180(shortToAngle(s.pitch)), Y: shortToAngle(s.yaw)}
}

// ForwardDir направление взгляда
func (s *EntityPhysicsState) ForwardDir() vec.Vec3Float { return s.forwardDir.unpack() }

// RightDir правый вектор
func (s *EntityPhysicsState) RightDir() vec.Vec3Float { return s.rightDir.unpack() }

// HeightOverGround высота ног над полом (0 на земле)
func (s *EntityPhysicsState) HeightOverGround() float64 { return float64(s.heightOverGround) }

// IsOnGround стоит ли агент на опоре
func (s *EntityPhysicsState) IsOnGround() bool { return s.GroundEntNum != mover.GroundNone }

// CurrAasAreaNum область, содержащая агента
func (s *EntityPhysicsState) CurrAasAreaNum() int { return int(s.currAasAreaNum) }

// DroppedToFloorAasAreaNum область под агентом, спроецированным на пол
func (s *EntityPhysicsState) DroppedToFloorAasAreaNum() int { return int(s.droppedToFloorAasAreaNum) }

// PrimaryAasAreaNum основная область: текущая, иначе под ногами
func (s *EntityPhysicsState) PrimaryAasAreaNum() int {
	if s.currAasAreaNum != 0 {
		return int(s.currAasAreaNum)
	}
	return int(s.droppedToFloorAasAreaNum)
}

// IsInWater погружён ли агент достаточно, чтобы плыть
func (s *EntityPhysicsState) IsInWater() bool {
	return s.WaterLevel >= mover.WaterWaist
}
