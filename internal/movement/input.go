package movement

import (
	"math"

	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/vec"
)

// RotationMask разрешённые оси поворота обзора
type RotationMask uint8

const (
	RotationPitch RotationMask = 1 << iota
	RotationYaw

	RotationNone RotationMask = 0
	RotationAll               = RotationPitch | RotationYaw
)

// Скорость поворота обзора, градусов в миллисекунду
const (
	MaxYawDegreesPerMilli   = 0.6
	MaxPitchDegreesPerMilli = 0.4
)

type inputFlags uint8

const (
	inputAttack inputFlags = 1 << iota
	inputSpecial
	inputWalk
	inputUcmdSet
	inputLookDirSet
	inputHasComputedAngles
)

// BotInput упакованный ввод бота для одного шага
type BotInput struct {
	intendedLookDir       packedDir
	alreadyComputedAngles [2]uint16
	flags                 inputFlags

	ForwardMovement int8
	RightMovement   int8
	UpMovement      int8

	AllowedRotationMask RotationMask
	TurnSpeedMultiplier float32
}

// NewBotInput создаёт ввод с разрешённым поворотом по всем осям
func NewBotInput() BotInput {
	return BotInput{AllowedRotationMask: RotationAll, TurnSpeedMultiplier: 1}
}

func (in *BotInput) setFlag(f inputFlags, v bool) {
	if v {
		in.flags |= f
	} else {
		in.flags &^= f
	}
}

// Clear сбрасывает ввод к значениям по умолчанию
func (in *BotInput) Clear() {
	*in = NewBotInput()
}

// SetIntendedLookDir задаёт желаемое направление взгляда
func (in *BotInput) SetIntendedLookDir(dir vec.Vec3Float) {
	n := dir.Normalized()
	if n.IsZero() {
		return
	}
	in.intendedLookDir = packDir(n)
	in.setFlag(inputLookDirSet, true)
	in.setFlag(inputHasComputedAngles, false)
}

// IntendedLookDir желаемое направление взгляда
func (in *BotInput) IntendedLookDir() vec.Vec3Float {
	return in.intendedLookDir.unpack()
}

// IsLookDirSet задано ли направление взгляда
func (in *BotInput) IsLookDirSet() bool { return in.flags&inputLookDirSet != 0 }

// SetAlreadyComputedAngles задаёт уже вычисленные углы обзора
func (in *BotInput) SetAlreadyComputedAngles(angles vec.Angles) {
	in.alreadyComputedAngles = [2]uint16{angleToShort(angles.X), angleToShort(angles.Y)}
	in.setFlag(inputHasComputedAngles, true)
	forward, _, _ := vec.AngleVectors(angles)
	in.intendedLookDir = packDir(forward)
	in.setFlag(inputLookDirSet, true)
}

// AlreadyComputedAngles возвращает вычисленные углы и признак их наличия
func (in *BotInput) AlreadyComputedAngles() (vec.Angles, bool) {
	if in.flags&inputHasComputedAngles == 0 {
		return vec.Angles{}, false
	}
	return vec.Angles{
		X: vec.AngleNormalize180(shortToAngle(in.alreadyComputedAngles[0])),
		Y: shortToAngle(in.alreadyComputedAngles[1]),
	}, true
}

// SetUcmdSet отмечает, что команда движения заполнена
func (in *BotInput) SetUcmdSet(v bool) { in.setFlag(inputUcmdSet, v) }

// IsUcmdSet заполнена ли команда движения
func (in *BotInput) IsUcmdSet() bool { return in.flags&inputUcmdSet != 0 }

// SetAttack нажимает атаку
func (in *BotInput) SetAttack(v bool) { in.setFlag(inputAttack, v) }

// IsAttack нажата ли атака
func (in *BotInput) IsAttack() bool { return in.flags&inputAttack != 0 }

// SetSpecial нажимает специальную кнопку (рывок)
func (in *BotInput) SetSpecial(v bool) { in.setFlag(inputSpecial, v) }

// IsSpecial нажата ли специальная кнопка
func (in *BotInput) IsSpecial() bool { return in.flags&inputSpecial != 0 }

// SetWalk включает шаг
func (in *BotInput) SetWalk(v bool) { in.setFlag(inputWalk, v) }

// IsWalk включён ли шаг
func (in *BotInput) IsWalk() bool { return in.flags&inputWalk != 0 }

// SetMovement задаёт оси движения, значения приводятся к {-1, 0, 1}
func (in *BotInput) SetMovement(forward, right, up int) {
	in.ForwardMovement = sign8(forward)
	in.RightMovement = sign8(right)
	in.UpMovement = sign8(up)
}

func sign8(v int) int8 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// TargetAngles углы, к которым стремится обзор
func (in *BotInput) TargetAngles(current vec.Angles) vec.Angles {
	if angles, ok := in.AlreadyComputedAngles(); ok {
		return angles
	}
	if !in.IsLookDirSet() {
		return current
	}
	return vec.DirToAngles(in.IntendedLookDir())
}

// ApplyTurn поворачивает текущие углы к целевым с учётом маски и скорости поворота
func (in *BotInput) ApplyTurn(current vec.Angles, millis int) vec.Angles {
	target := in.TargetAngles(current)
	if _, ok := in.AlreadyComputedAngles(); ok {
		return target
	}
	multiplier := float64(in.TurnSpeedMultiplier)
	if multiplier <= 0 {
		multiplier = 1
	}
	result := current
	if in.AllowedRotationMask&RotationYaw != 0 {
		maxDelta := MaxYawDegreesPerMilli * multiplier * float64(millis)
		delta := vec.AngleDelta(target.Y, current.Y)
		result.Y = vec.AngleMod(current.Y + clamp(delta, -maxDelta, maxDelta))
	}
	if in.AllowedRotationMask&RotationPitch != 0 {
		maxDelta := MaxPitchDegreesPerMilli * multiplier * float64(millis)
		delta := vec.AngleDelta(target.X, current.X)
		result.X = clamp(vec.AngleNormalize180(current.X+clamp(delta, -maxDelta, maxDelta)), -89, 89)
	}
	return result
}

// ToCommand формирует команду движка
func (in *BotInput) ToCommand(current vec.Angles, millis int) mover.Command {
	cmd := mover.Command{
		ForwardMove: in.ForwardMovement,
		SideMove:    in.RightMovement,
		UpMove:      in.UpMovement,
		Angles:      in.ApplyTurn(current, millis),
		Msec:        millis,
	}
	if in.IsAttack() {
		cmd.Buttons |= mover.ButtonAttack
	}
	if in.IsSpecial() {
		cmd.Buttons |= mover.ButtonSpecial
	}
	if in.IsWalk() {
		cmd.Buttons |= mover.ButtonWalk
	}
	return cmd
}

// ActionRecord симулированная команда одного шага
type ActionRecord struct {
	BotInput
	ModifiedVelocity    vec.Vec3Float
	HasModifiedVelocity bool
	// PendingWeapon оружие для переключения, 0 не переключать
	PendingWeapon int
}

// NewActionRecord создаёт пустую запись
func NewActionRecord() ActionRecord {
	return ActionRecord{BotInput: NewBotInput()}
}

// Clear сбрасывает запись
func (r *ActionRecord) Clear() {
	*r = NewActionRecord()
}

// SetModifiedVelocity переопределяет скорость перед шагом движка
func (r *ActionRecord) SetModifiedVelocity(v vec.Vec3Float) {
	r.ModifiedVelocity = v
	r.HasModifiedVelocity = true
}

// InterpolateLookDir возвращает копию записи со взглядом, интерполированным
// между направлением prev и собственным
func (r ActionRecord) InterpolateLookDir(prev vec.Vec3Float, frac float64) ActionRecord {
	if !r.IsLookDirSet() || prev.IsZero() {
		return r
	}
	if _, ok := r.AlreadyComputedAngles(); ok {
		return r
	}
	frac = clamp(frac, 0, 1)
	dir := prev.Normalized().Lerp(r.IntendedLookDir(), frac)
	if dir.LengthSquared() < 1e-6 {
		return r
	}
	r.SetIntendedLookDir(dir)
	return r
}

// MoveDirWorld мировое направление движения, заданное клавишами в системе взгляда
func (r *ActionRecord) MoveDirWorld() vec.Vec3Float {
	forward := r.IntendedLookDir().Flat2D().Normalized2D()
	right := vec.Vec3Float{X: forward.Y, Y: -forward.X}
	return forward.Mul(float64(r.ForwardMovement)).Add(right.Mul(float64(r.RightMovement)))
}

// RemapKeysForLookDir подбирает клавиши так, чтобы при новом направлении
// взгляда сохранилось мировое направление движения
func (r *ActionRecord) RemapKeysForLookDir(newLookDir vec.Vec3Float) {
	moveDir := r.MoveDirWorld()
	if moveDir.Length2D() < 0.5 {
		r.SetIntendedLookDir(newLookDir)
		return
	}
	moveDir = moveDir.Normalized2D()
	forward := newLookDir.Flat2D().Normalized2D()
	right := vec.Vec3Float{X: forward.Y, Y: -forward.X}
	const threshold = math.Sqrt2 / 2 * 0.75
	fwd, side := 0, 0
	if d := moveDir.Dot2D(forward); d > threshold {
		fwd = 1
	} else if d < -threshold {
		fwd = -1
	}
	if d := moveDir.Dot2D(right); d > threshold {
		side = 1
	} else if d < -threshold {
		side = -1
	}
	r.ForwardMovement = int8(fwd)
	r.RightMovement = int8(side)
	r.SetIntendedLookDir(newLookDir)
}
