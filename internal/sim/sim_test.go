package sim

import (
	"strings"
	"testing"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corridorMap = `
// коридор с целью в конце
######
#S..G#
######
`

func mustParse(t *testing.T, src string) *Level {
	t.Helper()
	level, err := ParseLevel(strings.NewReader(src))
	require.NoError(t, err, "Карта должна разбираться")
	return level
}

type recordingHooks struct {
	events  []mover.Event
	touches int
}

func (h *recordingHooks) OnEvent(ev mover.Event) { h.events = append(h.events, ev) }
func (h *recordingHooks) OnTouchTriggers(*mover.PlayerState, vec.Vec3Float) {
	h.touches++
}

func TestParseLevel(t *testing.T) {
	t.Run("коридор", func(t *testing.T) {
		level := mustParse(t, corridorMap)
		assert.Equal(t, 6, level.Width)
		assert.Equal(t, 3, level.Height)
		assert.Equal(t, 4, level.NumAreas())

		spawn := level.Spawn()
		assert.Equal(t, vec.V3(96, 96, PlayerStandHeight), spawn)
		goal, ok := level.Goal()
		require.True(t, ok)
		assert.Equal(t, 288.0, goal.X)

		assert.NotZero(t, level.FindAreaNum(spawn))
		assert.Zero(t, level.FindAreaNum(vec.V3(10, 10, 30)), "В стене нет области")
	})

	t.Run("ошибки разбора", func(t *testing.T) {
		cases := map[string]string{
			"пустая":           "// только комментарий\n",
			"разная длина":     "####\n#S#\n####\n",
			"неизвестный":      "####\n#S?#\n####\n",
			"нет старта":       "####\n#..#\n####\n",
			"плохая директива": "####\n#SJ#\n####\n@jumppad 2 1\n",
			"нет jumppad":      "####\n#S.#\n####\n@jumppad 2 1 1 1\n",
		}
		for name, src := range cases {
			_, err := ParseLevel(strings.NewReader(src))
			assert.ErrorIs(t, err, ErrBadMap, name)
		}
	})

	t.Run("высоты и жидкости", func(t *testing.T) {
		level := mustParse(t, "######\n#S3~!#\n######\n")
		assert.Equal(t, 48.0, level.Cell(2, 1).Floor)
		water := level.Cell(3, 1)
		assert.True(t, water.IsLiquid())
		assert.Equal(t, -LiquidDepth, water.Floor)
		assert.Equal(t, 0.0, water.Surface)

		assert.Equal(t, mover.ContentsWater, level.PointContents(vec.V3(3*CellSize+32, 96, -10)))
		assert.Equal(t, mover.ContentsLava, level.PointContents(vec.V3(4*CellSize+32, 96, -10)))
		assert.Equal(t, mover.ContentsSolid, level.PointContents(vec.V3(2*CellSize+32, 96, 20)))
		assert.Zero(t, level.PointContents(vec.V3(96, 96, 20)))
	})
}

func TestReachabilities(t *testing.T) {
	level := mustParse(t, "#######\n#S3.4.#\n#######\n")
	areaAt := func(col int) int { return level.Cell(col, 1).AreaNum }

	travelTypeTo := func(from, to int) aas.TravelType {
		settings := level.AreaSettings(from)
		for i := 0; i < settings.NumReachabilities; i++ {
			reach := level.Reachability(settings.FirstReachability + i)
			if reach.AreaNum == to {
				return reach.TravelType
			}
		}
		return aas.TravelInvalid
	}

	assert.Equal(t, aas.TravelBarrierJump, travelTypeTo(areaAt(1), areaAt(2)))
	assert.Equal(t, aas.TravelWalkOffLedge, travelTypeTo(areaAt(2), areaAt(1)))
	assert.Equal(t, aas.TravelInvalid, travelTypeTo(areaAt(3), areaAt(4)), "64 единицы не запрыгнуть")
	assert.Equal(t, aas.TravelWalkOffLedge, travelTypeTo(areaAt(4), areaAt(3)))

	assert.NotZero(t, level.AreaSettings(areaAt(4)).Flags&aas.AreaLedge, "Край над обрывом")
	assert.NotEqual(t, level.AreaFloorClusterNum(areaAt(1)), level.AreaFloorClusterNum(areaAt(2)))
}

func TestRouteCache(t *testing.T) {
	t.Run("маршрут по коридору", func(t *testing.T) {
		level := mustParse(t, corridorMap)
		routes := NewRouteCache(level)
		from := level.FindAreaNum(level.Spawn())
		goal, _ := level.Goal()
		to := level.FindAreaNum(goal)

		travelTime, reachNum := routes.FindRoute(from, to, aas.DefaultTravelFlags)
		assert.Equal(t, 3*walkCentisPerCell, travelTime)
		require.NotZero(t, reachNum)
		assert.Equal(t, level.Cell(2, 1).AreaNum, level.Reachability(reachNum).AreaNum)

		travelTime, reachNum = routes.FindRoute(to, to, aas.DefaultTravelFlags)
		assert.Equal(t, 1, travelTime)
		assert.Zero(t, reachNum)
	})

	t.Run("отключённые области", func(t *testing.T) {
		level := mustParse(t, "######\n#Sx.G#\n######\n")
		routes := NewRouteCache(level)
		from := level.Cell(1, 1).AreaNum
		to := level.Cell(4, 1).AreaNum
		travelTime, _ := routes.FindRoute(from, to, aas.DefaultTravelFlags)
		assert.Zero(t, travelTime, "Маршрут через отключённую область невозможен")
		assert.True(t, routes.AreaDisabled(level.Cell(2, 1).AreaNum))

		open := mustParse(t, corridorMap)
		routes = NewRouteCache(open)
		from = open.Cell(1, 1).AreaNum
		to = open.Cell(4, 1).AreaNum
		travelTime, _ = routes.FindRoute(from, to, aas.DefaultTravelFlags)
		require.NotZero(t, travelTime)

		routes.SetAreaDisabled(open.Cell(3, 1).AreaNum, true)
		travelTime, _ = routes.FindRoute(from, to, aas.DefaultTravelFlags)
		assert.Zero(t, travelTime)

		routes.SetAreaDisabled(open.Cell(3, 1).AreaNum, false)
		travelTime, _ = routes.FindRoute(from, to, aas.DefaultTravelFlags)
		assert.NotZero(t, travelTime)
	})

	t.Run("флаги переходов", func(t *testing.T) {
		level := mustParse(t, "#####\n#S3G#\n#####\n")
		routes := NewRouteCache(level)
		from := level.Cell(1, 1).AreaNum
		to := level.Cell(3, 1).AreaNum
		walkOnly := aas.TravelFlagOf(aas.TravelWalk)
		travelTime, _ := routes.FindRoute(from, to, walkOnly)
		assert.Zero(t, travelTime)
		travelTime, _ = routes.FindRoute(from, to, aas.DefaultTravelFlags)
		assert.NotZero(t, travelTime)
	})
}

func TestTraceBox(t *testing.T) {
	level := mustParse(t, corridorMap)
	start := level.Spawn()
	mask := mover.ContentsSolid

	tr := level.TraceBox(start, start.Add(vec.V3(400, 0, 0)), PlayerMins, PlayerMaxs, 0, mask)
	assert.Less(t, tr.Fraction, 1.0)
	assert.InDelta(t, 304, tr.EndPos.X, traceStep)
	assert.Equal(t, vec.V3(-1, 0, 0), tr.Normal)

	tr = level.TraceBox(start, start.Add(vec.V3(100, 0, 0)), PlayerMins, PlayerMaxs, 0, mask)
	assert.Equal(t, 1.0, tr.Fraction)
	assert.False(t, tr.Hit())

	tr = level.TraceBox(start, start.Add(vec.V3(0, 0, -40)), PlayerMins, PlayerMaxs, 0, mask)
	assert.True(t, tr.Hit())
	assert.Equal(t, vec.V3(0, 0, 1), tr.Normal)

	empty := level.TraceAgainstShapes(nil, start, start.Add(vec.V3(400, 0, 0)), PlayerMins, PlayerMaxs, mask)
	assert.Equal(t, 1.0, empty.Fraction, "Пустой список форм ничего не задевает")

	shapes := level.PossibleShapeList(start.Add(PlayerMins), start.Add(vec.V3(400, 0, 0)).Add(PlayerMaxs))
	assert.NotEmpty(t, shapes)
	tr = level.TraceAgainstShapes(shapes, start, start.Add(vec.V3(400, 0, 0)), PlayerMins, PlayerMaxs, mask)
	assert.Less(t, tr.Fraction, 1.0)
}

func runFrames(m *Mover, ps *mover.PlayerState, cmd mover.Command, frames int, hooks mover.Hooks) {
	for i := 0; i < frames; i++ {
		c := cmd
		m.Step(&c, ps, hooks)
	}
}

func TestMover(t *testing.T) {
	t.Run("бег до стены", func(t *testing.T) {
		level := mustParse(t, corridorMap)
		m := NewMover(level)
		ps := NewPlayerState(level.Spawn())
		hooks := &recordingHooks{}

		runFrames(m, &ps, mover.Command{ForwardMove: 1, Msec: 16}, 100, hooks)
		assert.True(t, ps.OnGround())
		assert.Greater(t, ps.Origin.X, 290.0)
		assert.LessOrEqual(t, ps.Origin.X, 304.01)
		assert.InDelta(t, PlayerStandHeight, ps.Origin.Z, 1e-9)
		assert.Equal(t, 100, hooks.touches)
	})

	t.Run("скорость бега ограничена", func(t *testing.T) {
		level := mustParse(t, "##########\n#S.......#\n##########\n")
		m := NewMover(level)
		ps := NewPlayerState(level.Spawn())
		runFrames(m, &ps, mover.Command{ForwardMove: 1, Msec: 16}, 20, nil)
		assert.LessOrEqual(t, ps.Velocity.Length2D(), maxRunSpeed+1e-6)
		assert.Greater(t, ps.Velocity.Length2D(), 250.0)
	})

	t.Run("прыжок", func(t *testing.T) {
		level := mustParse(t, corridorMap)
		m := NewMover(level)
		ps := NewPlayerState(level.Spawn())
		hooks := &recordingHooks{}

		m.Step(&mover.Command{UpMove: 1, Msec: 16}, &ps, hooks)
		require.Len(t, hooks.events, 1)
		assert.Equal(t, mover.EventJump, hooks.events[0].Kind)
		assert.False(t, ps.OnGround())
		assert.Greater(t, ps.Velocity.Z, 0.0)

		// Удержание кнопки не даёт прыгнуть повторно после приземления
		runFrames(m, &ps, mover.Command{UpMove: 1, Msec: 16}, 60, hooks)
		assert.True(t, ps.OnGround())
		assert.Len(t, hooks.events, 1)
	})

	t.Run("рывок", func(t *testing.T) {
		level := mustParse(t, "##########\n#S.......#\n##########\n")
		m := NewMover(level)
		ps := NewPlayerState(level.Spawn())
		hooks := &recordingHooks{}

		m.Step(&mover.Command{ForwardMove: 1, Buttons: mover.ButtonSpecial, Msec: 16}, &ps, hooks)
		require.NotEmpty(t, hooks.events)
		assert.Equal(t, mover.EventDash, hooks.events[0].Kind)
		assert.Greater(t, ps.DashTimeout, 0)
		assert.Greater(t, ps.Velocity.Length2D(), maxRunSpeed)
	})

	t.Run("погружение в воду", func(t *testing.T) {
		level := mustParse(t, "#####\n#S~~#\n#####\n")
		m := NewMover(level)
		ps := NewPlayerState(level.CellCenter(2, 1))
		ps.GroundEntity = mover.GroundNone

		runFrames(m, &ps, mover.Command{Msec: 16}, 60, nil)
		assert.GreaterOrEqual(t, ps.WaterLevel, mover.WaterWaist)
		assert.Equal(t, mover.ContentsWater, ps.WaterType)
		assert.Less(t, ps.Origin.Z, 0.0)
	})

	t.Run("jumppad", func(t *testing.T) {
		level := mustParse(t, "#######\n#SJ...#\n#######\n@jumppad 2 1 5 1\n")
		require.Len(t, level.Jumppads(), 1)
		pad := level.Jumppads()[0]
		assert.Equal(t, level.CellCenter(5, 1), pad.Target)

		padArea := level.Cell(2, 1).AreaNum
		settings := level.AreaSettings(padArea)
		found := false
		for i := 0; i < settings.NumReachabilities; i++ {
			if level.Reachability(settings.FirstReachability+i).TravelType == aas.TravelJumppad {
				found = true
			}
		}
		assert.True(t, found, "От jumppad есть ребро к цели")

		m := NewMover(level)
		ps := NewPlayerState(level.CellCenter(2, 1))
		m.Step(&mover.Command{Msec: 16}, &ps, nil)
		assert.Greater(t, ps.Velocity.Z, 0.0)
		assert.Greater(t, ps.Velocity.X, 0.0)
		assert.False(t, ps.OnGround())
	})
}

func TestGenerator(t *testing.T) {
	a := NewGenerator(42).GenerateMap(24, 16)
	b := NewGenerator(42).GenerateMap(24, 16)
	assert.Equal(t, a, b, "Генерация детерминирована по сиду")

	rows := strings.Split(strings.TrimSpace(a), "\n")
	require.Len(t, rows, 16)
	assert.Equal(t, strings.Repeat("#", 24), rows[0])
	assert.Equal(t, 1, strings.Count(a, "S"))
	assert.Equal(t, 1, strings.Count(a, "G"))

	level, err := NewGenerator(42).GenerateLevel(24, 16)
	require.NoError(t, err)
	assert.Equal(t, 24, level.Width)
	assert.NotZero(t, level.FindAreaNum(level.Spawn()))
}
