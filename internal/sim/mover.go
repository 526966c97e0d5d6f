package sim

import (
	"math"

	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

// Параметры движка
const (
	PlayerStandHeight = 24.0
	PlayerViewHeight  = 22.0

	maxRunSpeed      = 320.0
	maxWalkSpeed     = 160.0
	maxSwimSpeed     = 180.0
	groundAccel      = 10.0
	airAccel         = 1.0
	airWishCap       = 30.0
	swimAccel        = 4.0
	groundFriction   = 6.0
	waterFriction    = 3.0
	stopSpeed        = 100.0
	gravity          = 800.0
	waterSink        = 60.0
	jumpSpeed        = 270.0
	dashSpeed        = 450.0
	dashCooldown     = 1200
	groundProbe      = 2.5
	fallDamageSpeed  = 650.0
	jumppadApexExtra = 64.0
)

// PlayerMins и PlayerMaxs объём игрока
var (
	PlayerMins = vec.Vec3Float{X: -16, Y: -16, Z: -PlayerStandHeight}
	PlayerMaxs = vec.Vec3Float{X: 16, Y: 16, Z: 32}
)

// NewPlayerState состояние игрока, стоящего в точке
func NewPlayerState(origin vec.Vec3Float) mover.PlayerState {
	return mover.PlayerState{
		Origin:       origin,
		Mins:         PlayerMins,
		Maxs:         PlayerMaxs,
		ViewHeight:   PlayerViewHeight,
		GroundEntity: mover.GroundWorld,
	}
}

// Mover детерминированный движок клеточного уровня
type Mover struct {
	level *Level
}

var _ mover.Mover = (*Mover)(nil)

// NewMover создаёт движок уровня
func NewMover(level *Level) *Mover {
	return &Mover{level: level}
}

// Step выполняет один шаг физики
func (m *Mover) Step(cmd *mover.Command, ps *mover.PlayerState, hooks mover.Hooks) {
	if cmd.Msec <= 0 {
		return
	}
	if hooks == nil {
		hooks = mover.NopHooks{}
	}
	dt := float64(cmd.Msec) / 1000
	prevOrigin := ps.Origin
	ps.ViewAngles = cmd.Angles
	ps.DashTimeout = max(ps.DashTimeout-cmd.Msec, 0)
	ps.WallJumpTimeout = max(ps.WallJumpTimeout-cmd.Msec, 0)
	ps.NoControlTime = max(ps.NoControlTime-cmd.Msec, 0)
	ps.Flags &^= mover.FlagTimeTeleport

	forward, right, _ := vec.AngleVectors(cmd.Angles)
	forward = forward.Flat2D().Normalized2D()
	right = right.Flat2D().Normalized2D()
	wish := forward.Mul(float64(cmd.ForwardMove)).Add(right.Mul(float64(cmd.SideMove))).Normalized2D()
	if ps.NoControlTime > 0 {
		wish = vec.Vec3Float{}
	}
	wishSpeed := maxRunSpeed
	if cmd.Buttons&mover.ButtonWalk != 0 {
		wishSpeed = maxWalkSpeed
	}

	onGround := m.updateGround(ps)
	m.handleButtons(cmd, ps, hooks, forward, wish, &onGround)

	switch {
	case ps.WaterLevel >= mover.WaterWaist:
		swimWish := wish
		swimWish.Z = float64(cmd.UpMove)
		applyFriction(ps, waterFriction, dt)
		accelerate(ps, swimWish.Normalized(), maxSwimSpeed, swimAccel, dt)
		if cmd.UpMove <= 0 {
			ps.Velocity.Z -= waterSink * dt
		}
	case onGround:
		applyFriction(ps, groundFriction, dt)
		accelerate(ps, wish, wishSpeed, groundAccel, dt)
		ps.Velocity.Z = 0
	default:
		airAccelerate(ps, wish, wishSpeed, dt)
		ps.Velocity.Z -= gravity * dt
	}

	fallSpeed := ps.Velocity.Z
	m.move(ps, dt, onGround)

	wasAirborne := !onGround
	if m.updateGround(ps) && wasAirborne && fallSpeed < -fallDamageSpeed {
		hooks.OnEvent(mover.Event{Kind: mover.EventFallDamage, Damage: int((-fallSpeed - fallDamageSpeed) / 10)})
	}
	m.updateWaterLevel(ps)
	m.touchJumppads(ps)
	hooks.OnTouchTriggers(ps, prevOrigin)
}

func (m *Mover) handleButtons(cmd *mover.Command, ps *mover.PlayerState, hooks mover.Hooks, forward, wish vec.Vec3Float, onGround *bool) {
	if cmd.UpMove > 0 {
		if *onGround && ps.Flags&mover.FlagJumpHeld == 0 && ps.WaterLevel < mover.WaterWaist {
			ps.Velocity.Z = jumpSpeed
			ps.GroundEntity = mover.GroundNone
			*onGround = false
			hooks.OnEvent(mover.Event{Kind: mover.EventJump})
		}
		ps.Flags |= mover.FlagJumpHeld
	} else {
		ps.Flags &^= mover.FlagJumpHeld
	}

	if cmd.Buttons&mover.ButtonSpecial != 0 {
		if *onGround && ps.DashTimeout <= 0 && ps.Flags&mover.FlagSpecialHeld == 0 {
			dir := wish
			if dir.IsZero() {
				dir = forward
			}
			speed := math.Max(ps.Velocity.Length2D(), dashSpeed)
			ps.Velocity = dir.Mul(speed)
			ps.DashTimeout = dashCooldown
			ps.Flags |= mover.FlagDashUsed
			hooks.OnEvent(mover.Event{Kind: mover.EventDash})
		}
		ps.Flags |= mover.FlagSpecialHeld
	} else {
		ps.Flags &^= mover.FlagSpecialHeld
	}
}

func applyFriction(ps *mover.PlayerState, friction, dt float64) {
	speed := ps.Velocity.Length2D()
	if speed < 0.1 {
		ps.Velocity.X, ps.Velocity.Y = 0, 0
		return
	}
	drop := math.Max(speed, stopSpeed) * friction * dt
	scale := math.Max(speed-drop, 0) / speed
	ps.Velocity.X *= scale
	ps.Velocity.Y *= scale
}

func accelerate(ps *mover.PlayerState, wishDir vec.Vec3Float, wishSpeed, accel, dt float64) {
	if wishDir.IsZero() {
		return
	}
	current := ps.Velocity.Dot(wishDir)
	add := wishSpeed - current
	if add <= 0 {
		return
	}
	ps.Velocity = ps.Velocity.MulAdd(wishDir, math.Min(accel*wishSpeed*dt, add))
}

func airAccelerate(ps *mover.PlayerState, wishDir vec.Vec3Float, wishSpeed, dt float64) {
	if wishDir.IsZero() {
		return
	}
	current := ps.Velocity.Dot2D(wishDir)
	add := math.Min(wishSpeed, airWishCap) - current
	if add <= 0 {
		return
	}
	ps.Velocity = ps.Velocity.MulAdd(wishDir, math.Min(airAccel*wishSpeed*dt, add))
}

// move перемещает игрока раздельно по осям; на земле упор в стену
// пробует подъём на ступеньку
func (m *Mover) move(ps *mover.PlayerState, dt float64, onGround bool) {
	delta := ps.Velocity.Mul(dt)
	mask := mover.ContentsSolid | mover.ContentsPlayerClip

	if delta.Z != 0 {
		end := ps.Origin.Add(vec.Vec3Float{Z: delta.Z})
		tr := m.level.TraceBox(ps.Origin, end, ps.Mins, ps.Maxs, 0, mask)
		ps.Origin = tr.EndPos
		if tr.Hit() {
			ps.Velocity.Z = 0
		}
	}

	for axis := 0; axis < 2; axis++ {
		var step vec.Vec3Float
		if axis == 0 {
			step.X = delta.X
		} else {
			step.Y = delta.Y
		}
		if step.IsZero() {
			continue
		}
		end := ps.Origin.Add(step)
		tr := m.level.TraceBox(ps.Origin, end, ps.Mins, ps.Maxs, 0, mask)
		if !tr.Hit() {
			ps.Origin = end
			continue
		}
		if onGround && m.tryStepUp(ps, step) {
			continue
		}
		ps.Origin = tr.EndPos
		if axis == 0 {
			ps.Velocity.X = 0
		} else {
			ps.Velocity.Y = 0
		}
	}
}

func (m *Mover) tryStepUp(ps *mover.PlayerState, step vec.Vec3Float) bool {
	mask := mover.ContentsSolid | mover.ContentsPlayerClip
	up := ps.Origin.Add(vec.Vec3Float{Z: maxStepHeight})
	if tr := m.level.TraceBox(ps.Origin, up, ps.Mins, ps.Maxs, 0, mask); tr.Hit() {
		return false
	}
	end := up.Add(step)
	if tr := m.level.TraceBox(up, end, ps.Mins, ps.Maxs, 0, mask); tr.Hit() {
		return false
	}
	ps.Origin = end
	return true
}

// updateGround определяет опору и прижимает игрока к полу
func (m *Mover) updateGround(ps *mover.PlayerState) bool {
	if ps.Velocity.Z > 0 {
		ps.GroundEntity = mover.GroundNone
		return false
	}
	floor := m.level.FloorUnder(ps.Origin.Add(ps.Mins), ps.Origin.Add(ps.Maxs))
	feet := ps.Origin.Z + ps.Mins.Z
	cell, _, _ := m.level.CellAt(ps.Origin)
	inLiquid := cell != nil && cell.IsLiquid() && feet < cell.Surface
	if math.IsInf(floor, -1) || feet-floor > groundProbe || inLiquid && feet > floor+groundProbe {
		ps.GroundEntity = mover.GroundNone
		return false
	}
	ps.Origin.Z = floor - ps.Mins.Z
	ps.GroundEntity = mover.GroundWorld
	return true
}

func (m *Mover) updateWaterLevel(ps *mover.PlayerState) {
	feet := ps.Origin.Add(vec.Vec3Float{Z: ps.Mins.Z + 1})
	ps.WaterLevel = mover.WaterNone
	ps.WaterType = 0
	contents := m.level.PointContents(feet)
	if contents&mover.ContentsLiquid == 0 {
		return
	}
	ps.WaterType = contents & mover.ContentsLiquid
	ps.WaterLevel = mover.WaterFeet
	if m.level.PointContents(ps.Origin)&mover.ContentsLiquid != 0 {
		ps.WaterLevel = mover.WaterWaist
		if m.level.PointContents(ps.Origin.Add(vec.Vec3Float{Z: ps.ViewHeight}))&mover.ContentsLiquid != 0 {
			ps.WaterLevel = mover.WaterUnder
		}
	}
}

// touchJumppads запускает игрока к цели задетого jumppad
func (m *Mover) touchJumppads(ps *mover.PlayerState) {
	box := physics.BoxAt(ps.Origin, ps.Mins, ps.Maxs)
	for _, pad := range m.level.jumppads {
		if !box.Intersects(pad.Bounds) {
			continue
		}
		if ps.Velocity.Z > 0 {
			return
		}
		ps.Velocity = launchVelocity(ps.Origin, pad.Target)
		ps.GroundEntity = mover.GroundNone
		return
	}
}

func launchVelocity(from, target vec.Vec3Float) vec.Vec3Float {
	dz := target.Z - from.Z
	apex := math.Max(dz, 0) + jumppadApexExtra
	vz := math.Sqrt(2 * gravity * apex)
	t := vz/gravity + math.Sqrt(2*(apex-dz)/gravity)
	v := target.Sub(from).Flat2D().Mul(1 / t)
	v.Z = vz
	return v
}
