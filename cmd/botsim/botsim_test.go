package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/annel0/botplanner/internal/config"
	"github.com/annel0/botplanner/internal/replay"
	"github.com/annel0/botplanner/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roomMap = `
##########
#S.......#
#........#
#.......G#
##########
`

func parseLevel(t *testing.T, src string) *sim.Level {
	t.Helper()
	level, err := sim.ParseLevel(strings.NewReader(src))
	require.NoError(t, err, "Карта должна разбираться")
	return level
}

func testWorldConfig(bots int) worldConfig {
	return worldConfig{
		Settings:    settingsFromConfig(&config.PlannerConfig{}),
		Bots:        bots,
		FrameMillis: 16,
		Seed:        7,
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Run("значения по умолчанию", func(t *testing.T) {
		s := settingsFromConfig(&config.PlannerConfig{})
		assert.Equal(t, 32, s.StackCapacity)
		assert.Equal(t, 192, s.MaxSimulatedSteps)
		require.Len(t, s.StepMillis, 2)
		assert.Equal(t, 4, s.StepMillis[0].BelowDepth)
		assert.Equal(t, 16, s.StepMillis[0].Millis)
		assert.Equal(t, 48, s.DefaultStepMillis)
		assert.Equal(t, 8.0, s.CachedPlanOriginTolerance)
		assert.NotZero(t, s.CachedPlanVelocityTolerance, "Поле без конфигурации берётся из настроек по умолчанию")
	})

	t.Run("переопределение", func(t *testing.T) {
		s := settingsFromConfig(&config.PlannerConfig{
			StackCapacity: 12,
			StepMillis:    []config.StepMillisRule{{BelowDepth: 2, Millis: 8}},
			TriggerRadius: 100,
		})
		assert.Equal(t, 12, s.StackCapacity)
		require.Len(t, s.StepMillis, 1)
		assert.Equal(t, 8, s.StepMillis[0].Millis)
		assert.Equal(t, 100.0, s.TriggerRadius)
	})
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "250мс", formatUptime(250*time.Millisecond))
	assert.Equal(t, "5с", formatUptime(5*time.Second))
	assert.Equal(t, "2м 3с", formatUptime(123*time.Second))
	assert.Equal(t, "1ч 0м 1с", formatUptime(time.Hour+time.Second))
}

func TestPickIndex(t *testing.T) {
	for serial := uint64(0); serial < 50; serial++ {
		i := pickIndex(1, 2, serial, 7)
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 7)
		assert.Equal(t, i, pickIndex(1, 2, serial, 7), "Индекс должен быть детерминированным")
	}
}

func TestWorld_TargetsAreWalkable(t *testing.T) {
	level := parseLevel(t, roomMap)
	w := newWorld(level, testWorldConfig(3))

	require.Len(t, w.bots, 3)
	for _, b := range w.bots {
		assert.NotZero(t, b.target, "Бот %d должен получить цель", b.id)
		assert.NotEqual(t, level.FindAreaNum(b.ps.Origin), b.target, "Цель не совпадает со стартом")
		assert.Equal(t, level.Area(b.target).Center, b.targetOrigin)
	}
}

func TestWorld_Run(t *testing.T) {
	level := parseLevel(t, roomMap)
	w := newWorld(level, testWorldConfig(2))
	spawn := level.Spawn()

	ticks := w.Run(context.Background(), 400)
	assert.Equal(t, 400, ticks)

	moved := false
	for _, b := range w.bots {
		if b.ps.Origin.Sub(spawn).Length() > 32 || b.reached > 0 {
			moved = true
		}
	}
	assert.True(t, moved, "Боты должны уйти со старта")
	assert.Positive(t, w.stats.total.PlansBuilt)
	assert.Positive(t, w.stats.total.CachedFrames, "Часть тиков исполняется из кешированного плана")
}

func TestWorld_RunCancelled(t *testing.T) {
	w := newWorld(parseLevel(t, roomMap), testWorldConfig(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, w.Run(ctx, 100))
}

func TestWorld_RecordsReplay(t *testing.T) {
	recorder, err := replay.Open("")
	require.NoError(t, err)
	defer recorder.Close()

	cfg := testWorldConfig(2)
	cfg.Recorder = recorder
	w := newWorld(parseLevel(t, roomMap), cfg)
	w.Run(context.Background(), 20)

	for bot := 0; bot < 2; bot++ {
		var frames []int64
		err := recorder.Frames(recorder.RunID(), bot, func(rec *replay.FrameRecord) bool {
			frames = append(frames, rec.Frame)
			return true
		})
		require.NoError(t, err)
		require.Len(t, frames, 20, "Каждый тик бота должен быть записан")
		assert.Equal(t, int64(1), frames[0])
		assert.Equal(t, int64(20), frames[19])
	}

	first, err := recorder.Load(recorder.RunID(), 0, 1)
	require.NoError(t, err)
	assert.False(t, first.FromCache, "Первый тик строит план")
	assert.NotEmpty(t, first.Action)
}

func TestBotHooks_JumppadTouch(t *testing.T) {
	level := parseLevel(t, "#######\n#SJ.9.#\n#######\n@jumppad 2 1 4 1\n")
	w := newWorld(level, testWorldConfig(1))
	b := w.bots[0]
	hooks := &botHooks{w: w, b: b}

	far := b.ps
	hooks.OnTouchTriggers(&far, far.Origin)
	assert.False(t, b.module.State().JumppadState.IsActive(), "Без касания jumppad не активируется")

	onPad := sim.NewPlayerState(level.CellCenter(2, 1))
	hooks.OnTouchTriggers(&onPad, b.ps.Origin)
	assert.True(t, b.module.State().JumppadState.IsActive(), "Касание jumppad активирует автомат")
	assert.Nil(t, b.module.Plan(), "Касание сбрасывает кешированный план")
}
