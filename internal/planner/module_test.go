package planner

import (
	"strings"
	"testing"

	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/sim"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longCorridor(cells int) string {
	wall := strings.Repeat("#", cells+2)
	return wall + "\n#S" + strings.Repeat(".", cells-1) + "#\n" + wall + "\n"
}

// counterValue сумма значений счётчика по всем меткам
func counterValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestMovementModule_ReusesCachedPlan(t *testing.T) {
	const cells = 30
	w := newTestWorld(t, longCorridor(cells))
	exporter := NewMetricsExporter(nil)
	m := NewMovementModule(w.services, DefaultSettings(), WithObserver(exporter))

	ps := sim.NewPlayerState(w.level.Spawn())
	engine := sim.NewMover(w.level)
	intent := Intent{
		NavTargetAreaNum: w.level.Cell(cells, 1).AreaNum,
		NavTargetOrigin:  w.level.CellCenter(cells, 1),
	}

	fromCache := 0
	for i := 0; i < 30; i++ {
		out := m.Frame(FrameInput{
			FrameIndex:  int64(i),
			LevelTime:   1000 + int64(i)*16,
			FrameMillis: 16,
			PlayerState: &ps,
			Intent:      intent,
		})
		require.Equal(t, 16, out.Command.Msec)
		require.NotEmpty(t, out.Action)
		if out.FromCache {
			fromCache++
		}
		cmd := out.Command
		engine.Step(&cmd, &ps, nil)
	}

	assert.Positive(t, fromCache, "Хотя бы один тик должен исполниться из кеша")
	assert.Equal(t, float64(fromCache), counterValue(t, exporter.Gatherer(), "botplanner_cached_plan_frames_total"))
	assert.Greater(t, ps.Origin.X, w.level.Spawn().X+100, "Бот должен продвинуться по коридору")
	assert.InDelta(t, w.level.Spawn().Y, ps.Origin.Y, sim.CellSize/2)
}

func TestMovementModule_NewTargetInvalidatesPlan(t *testing.T) {
	w := newTestWorld(t, longCorridor(12))
	m := NewMovementModule(w.services, DefaultSettings())
	ps := sim.NewPlayerState(w.level.Spawn())

	in := FrameInput{
		FrameIndex:  1,
		LevelTime:   1000,
		FrameMillis: 16,
		PlayerState: &ps,
		Intent:      Intent{NavTargetAreaNum: w.level.Cell(12, 1).AreaNum},
	}
	first := m.Frame(in)
	assert.False(t, first.FromCache)
	require.NotEmpty(t, m.Plan())

	in.FrameIndex++
	in.LevelTime += 16
	in.Intent.NavTargetAreaNum = w.level.Cell(6, 1).AreaNum
	second := m.Frame(in)
	assert.False(t, second.FromCache, "Смена цели требует нового плана")

	m.InvalidatePlan()
	assert.Empty(t, m.Plan())
}

func TestMovementModule_CampingSpot(t *testing.T) {
	w := newTestWorld(t, "#######\n#.....#\n#..S..#\n#.....#\n#######\n")
	m := NewMovementModule(w.services, DefaultSettings(), WithSeed(11))
	ps := sim.NewPlayerState(w.level.Spawn())

	m.SetCampingSpot(movement.CampingSpot{
		Origin:      w.level.Spawn(),
		LookAtPoint: w.level.CellCenter(5, 2),
		HasLookAt:   true,
		Radius:      48,
		Alertness:   0.5,
	})
	out := m.Frame(FrameInput{FrameIndex: 1, LevelTime: 1000, FrameMillis: 16, PlayerState: &ps})

	assert.Equal(t, "camp_a_spot", out.Action)
	assert.Equal(t, 1, out.PlanLength, "Кемпинг планирует один шаг")
	assert.True(t, out.Record.IsWalk(), "У точки бот переступает шагом")
	assert.True(t, m.State().CampingSpotState.IsActive())

	m.StopCamping()
	assert.False(t, m.State().CampingSpotState.IsActive())
	out = m.Frame(FrameInput{FrameIndex: 2, LevelTime: 1016, FrameMillis: 16, PlayerState: &ps})
	assert.NotEqual(t, "camp_a_spot", out.Action)
}

func TestMovementModule_TruncatedPlanIsNotCached(t *testing.T) {
	w := newTestWorld(t, longCorridor(6))
	settings := DefaultSettings()
	settings.MaxSimulatedSteps = 1
	m := NewMovementModule(w.services, settings)
	ps := sim.NewPlayerState(w.level.Spawn())

	// Цель без маршрута: поиск исчерпывается и отдаёт dummy
	w.routes.SetAreaDisabled(w.level.Cell(3, 1).AreaNum, true)
	out := m.Frame(FrameInput{
		FrameIndex:  1,
		LevelTime:   1000,
		FrameMillis: 16,
		PlayerState: &ps,
		Intent:      Intent{NavTargetAreaNum: w.level.Cell(5, 1).AreaNum},
	})
	assert.Equal(t, PlanDummy, out.PlanSource)
	assert.Equal(t, "dummy", out.Action)
	assert.Empty(t, m.Plan(), "Усечённый план не кешируется")
}

func TestMovementModule_PendingLookAt(t *testing.T) {
	w := newTestWorld(t, longCorridor(12))
	m := NewMovementModule(w.services, DefaultSettings())
	ps := sim.NewPlayerState(w.level.Spawn())

	lookAt := w.level.Spawn().Add(vec.V3(0, 200, 0))
	m.SetPendingLookAtPoint(lookAt, 2, 300)
	out := m.Frame(FrameInput{
		FrameIndex:  1,
		LevelTime:   1000,
		FrameMillis: 16,
		PlayerState: &ps,
		Intent:      Intent{NavTargetAreaNum: w.level.Cell(12, 1).AreaNum},
	})

	dir := out.Record.IntendedLookDir()
	assert.Greater(t, dir.Y, 0.9, "Взгляд направлен на точку")
	move := out.Record.MoveDirWorld()
	assert.Greater(t, move.X, 0.5, "Движение по-прежнему вдоль коридора")
	assert.True(t, m.State().PendingLookAtPointState.IsActive())
}
