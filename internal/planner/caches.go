package planner

import (
	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// DefaultInputCache мемоизированный ввод по умолчанию для одного уровня стека
type DefaultInputCache struct {
	input movement.BotInput
	valid bool
}

// DefaultBotInput ввод «смотреть и идти к следующей точке маршрута»,
// вычисляется один раз на уровень стека
func (c *PredictionContext) DefaultBotInput() movement.BotInput {
	cache := c.inputCaches.top()
	if !cache.valid {
		cache.input = c.prepareDefaultBotInput()
		cache.valid = true
	}
	return cache.input
}

func (c *PredictionContext) prepareDefaultBotInput() movement.BotInput {
	in := movement.NewBotInput()
	in.SetUcmdSet(true)

	eps := c.PhysicsState()
	if point, ok := c.SteeringPoint(); ok {
		dir := point.Sub(eps.Origin())
		if dir.Length2D() > 1 {
			in.SetIntendedLookDir(dir.Flat2D())
			in.ForwardMovement = 1
			return in
		}
	}
	if eps.Speed2D() > 10 {
		in.SetIntendedLookDir(eps.Velocity().Flat2D())
	} else {
		in.SetIntendedLookDir(eps.ForwardDir())
	}
	return in
}

// TraceSide направление проверки окружения относительно взгляда
type TraceSide uint8

const (
	SideFront TraceSide = iota
	SideBack
	SideLeft
	SideRight
	SideFrontLeft
	SideFrontRight
	SideBackLeft
	SideBackRight
	numTraceSides
)

// sideKeys клавиши движения, ведущие в сторону
var sideKeys = [numTraceSides][2]int8{
	SideFront:      {1, 0},
	SideBack:       {-1, 0},
	SideLeft:       {0, -1},
	SideRight:      {0, 1},
	SideFrontLeft:  {1, -1},
	SideFrontRight: {1, 1},
	SideBackLeft:   {-1, -1},
	SideBackRight:  {-1, 1},
}

// environmentTraceDistance длина проверочных трассировок
const environmentTraceDistance = 36.0

// stepHeight высота ступеньки, которую движок проходит без прыжка
const stepHeight = 18.0

// EnvironmentTraceCache ленивые трассировки окружения для одного уровня стека
type EnvironmentTraceCache struct {
	computed  uint8
	blocked   uint8
	fractions [numTraceSides]float32
}

// EnvironmentTraceCache кеш трассировок вершины стека
func (c *PredictionContext) EnvironmentTraceCache() *EnvironmentTraceCache {
	return c.traceCaches.top()
}

// SideDir мировое направление стороны при взгляде forward
func SideDir(forward vec.Vec3Float, side TraceSide) vec.Vec3Float {
	f := forward.Flat2D().Normalized2D()
	r := vec.Vec3Float{X: f.Y, Y: -f.X}
	keys := sideKeys[side]
	return f.Mul(float64(keys[0])).Add(r.Mul(float64(keys[1]))).Normalized2D()
}

// IsBlocked проверяет, перекрыта ли сторона препятствием на уровне выше ступеньки
func (e *EnvironmentTraceCache) IsBlocked(ctx *PredictionContext, side TraceSide) bool {
	e.compute(ctx, side)
	return e.blocked&(1<<side) != 0
}

// Fraction доля свободного пути в сторону
func (e *EnvironmentTraceCache) Fraction(ctx *PredictionContext, side TraceSide) float64 {
	e.compute(ctx, side)
	return float64(e.fractions[side])
}

// FreeSidesMask маска свободных сторон
func (e *EnvironmentTraceCache) FreeSidesMask(ctx *PredictionContext) uint8 {
	var mask uint8
	for side := TraceSide(0); side < numTraceSides; side++ {
		if !e.IsBlocked(ctx, side) {
			mask |= 1 << side
		}
	}
	return mask
}

func (e *EnvironmentTraceCache) compute(ctx *PredictionContext, side TraceSide) {
	if e.computed&(1<<side) != 0 {
		return
	}
	e.computed |= 1 << side

	eps := ctx.PhysicsState()
	ps := ctx.PlayerState()
	start := eps.Origin()
	start.Z += stepHeight
	end := start.Add(SideDir(eps.ForwardDir(), side).Mul(environmentTraceDistance))
	tr := ctx.traceAgainstShapes(start, end, ps.Mins, ps.Maxs)
	e.fractions[side] = float32(tr.Fraction)
	if tr.Hit() {
		e.blocked |= 1 << side
	}
}

func (c *PredictionContext) traceAgainstShapes(start, end, mins, maxs vec.Vec3Float) collision.Trace {
	region := collision.RegionAround(start, c.settings.CollisionRegionExtent)
	list := c.shapeCache.Get(region)
	if len(list) == 0 {
		return collision.Trace{Fraction: 1, EndPos: end}
	}
	return c.services.Collision.TraceAgainstShapes(list, start, end, mins, maxs, mover.ContentsSolid|mover.ContentsPlayerClip)
}

// CanWalkStraight проходим ли отрезок пешком: все области вдоль него с полом,
// не отключены и не опасны, а сам отрезок не перекрыт выше ступеньки
func (c *PredictionContext) CanWalkStraight(from, to vec.Vec3Float) bool {
	var buf [32]int
	areas := c.services.AAS.TraceAreas(from, to, buf[:0])
	for _, areaNum := range areas {
		settings := c.services.AAS.AreaSettings(areaNum)
		if settings.Flags&aas.AreaGrounded == 0 || settings.Flags&aas.AreaDisabled != 0 {
			return false
		}
		if settings.Contents&(aas.ContentsLava|aas.ContentsSlime|aas.ContentsDoNotEnter) != 0 {
			return false
		}
	}
	ps := c.PlayerState()
	start := from.Add(vec.Vec3Float{Z: stepHeight})
	end := to.Add(vec.Vec3Float{Z: stepHeight})
	tr := c.traceAgainstShapes(start, end, ps.Mins, ps.Maxs)
	return !tr.StartSolid && tr.Fraction > 0.95
}
