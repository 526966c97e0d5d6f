package planner

import (
	"testing"

	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/sim"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corridorMap = `
##########
#S.......#
##########
`

func TestBuildPlan_GroundInCorridor(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	obs := newRecordingObserver()
	ctx := NewPredictionContext(w.services, DefaultSettings(), WithObserver(obs))

	plan := ctx.BuildPlan(w.request(w.level.Spawn(), 3, 1))
	require.NotEmpty(t, plan.Steps)
	assert.Equal(t, PlanPrimary, plan.Source)
	assert.False(t, plan.Truncated)
	assert.LessOrEqual(t, len(plan.Steps), ctx.StackCapacity())
	assert.Empty(t, obs.errs)

	first := plan.Steps[0]
	assert.Equal(t, ActionBunnyFollowReachChain, first.Action.Kind())
	assert.True(t, first.Record.IsUcmdSet(), "Команда должна быть выставлена")
	assert.Equal(t, int8(1), first.Record.ForwardMovement)
	assert.InDelta(t, 1.0, first.Record.IntendedLookDir().X, 1e-2, "Взгляд вдоль коридора")
	assert.Equal(t, int64(1000), first.Timestamp, "Время шагов абсолютное")

	last := plan.Steps[len(plan.Steps)-1]
	assert.Greater(t, last.State.EntityPhysicsState.Origin().X, w.level.Spawn().X)
}

func TestRollback_EnteringDisabledArea(t *testing.T) {
	w := newTestWorld(t, "#######\n#S.x..#\n#######\n")
	obs := newRecordingObserver()
	ctx := NewPredictionContext(w.services, DefaultSettings(), WithObserver(obs))

	req := w.request(w.level.CellCenter(2, 1), -1, 0)
	req.PlayerState.Velocity = vec.V3(600, 0, 0)
	ctx.beginSearch(req)

	action := newScriptedAction(moveForward(vec.V3(1, 0, 0)))
	for i := 0; i < 16 && len(obs.rollbacks) == 0; i++ {
		ctx.SuggestAction(action)
		require.False(t, ctx.NextPredictionStep(), "Поиск не должен завершиться")
	}

	require.Len(t, obs.rollbacks, 1, "Вход в отключённую область откатывает стек")
	assert.Greater(t, obs.rollbacks[0][0], 0)
	assert.Equal(t, 0, obs.rollbacks[0][1])
	assert.Equal(t, 0, ctx.TopOfStackIndex())
	assert.Equal(t, 0, ctx.SavepointTopOfStackIndex())
	assert.NoError(t, ctx.checkStackInvariant())
	assert.Equal(t, []SequenceStopReason{StopFailed}, obs.stops)

	// После отката вершина снова содержит исходное состояние
	assert.Equal(t, req.PlayerState.Origin, ctx.PlayerState().Origin)
	assert.NotEqual(t, w.level.Cell(3, 1).AreaNum, ctx.PhysicsState().CurrAasAreaNum())
}

func TestJumppad_HandledWithoutSimulation(t *testing.T) {
	const jumppadMap = `
#######
#SJ.9.#
#######
@jumppad 2 1 4 1
`
	w := newTestWorld(t, jumppadMap)
	obs := newRecordingObserver()
	ctx := NewPredictionContext(w.services, DefaultSettings(), WithObserver(obs))

	// Игрок стоит у края клетки jumppad и задевает его первым же шагом
	origin := w.level.Spawn()
	origin.X = 2*sim.CellSize - 8
	targetArea := w.level.Cell(4, 1).AreaNum
	plan := ctx.BuildPlan(w.request(origin, 4, 1))
	require.Len(t, plan.Steps, 2)
	assert.Equal(t, PlanPrimary, plan.Source)

	assert.Equal(t, ActionBunnyFollowReachChain, plan.Steps[0].Action.Kind())
	last := plan.Steps[1]
	assert.Equal(t, ActionHandleTriggeredJumppad, last.Action.Kind())
	assert.True(t, last.State.JumppadState.IsInFlight(), "После обработки автомат в стадии полёта")
	assert.True(t, last.State.FlyUntilLandingState.IsActive())

	assert.Equal(t, 0, obs.jumppadEnteredAt, "Касание переводит автомат в стадию «задет»")
	assert.NotContains(t, obs.predicted, ActionHandleTriggeredJumppad, "Обработка jumppad не симулируется")
	assert.Equal(t, 1, plan.SimulatedSteps)
	assert.Contains(t, ctx.Carry().SavedLandingAreas, targetArea)
	assert.LessOrEqual(t, len(ctx.Carry().SavedLandingAreas), maxSavedLandingAreas)
}

func TestLastResortPath_KeepsLowestPenalty(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())
	ctx.beginSearch(w.request(w.level.Spawn(), -1, 0))
	for i := 0; i < 5; i++ {
		ctx.topOfStackIndex++
		ctx.pushStep()
	}
	require.NoError(t, ctx.checkStackInvariant())

	bunny := ctx.actions.bunnyLookDirs
	failAttempt := func(penalty int) {
		bunny.OnApplicationSequenceStarted(ctx)
		bunny.bestAdvancement = 40
		bunny.penalty = penalty
		bunny.OnApplicationSequenceStopped(ctx, StopFailed, ctx.TopOfStackIndex())
	}

	failAttempt(500)
	require.True(t, ctx.lastResortPath.valid)
	assert.Equal(t, 500, ctx.lastResortPath.penalty)

	failAttempt(300)
	assert.Equal(t, 300, ctx.lastResortPath.penalty)
	assert.Len(t, ctx.lastResortPath.steps, 5, "Путь без отклонённого шага")
	assert.Equal(t, 2, bunny.Attempt())

	failAttempt(400)
	assert.Equal(t, 300, ctx.lastResortPath.penalty, "Больший штраф не заменяет путь")
	assert.False(t, bunny.IsDisabledForPlanning())
}

func TestStackOverflow_DisablesAndRollsBack(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	obs := newRecordingObserver()
	settings := DefaultSettings()
	settings.StackCapacity = 6
	ctx := NewPredictionContext(w.services, settings, WithObserver(obs))
	ctx.beginSearch(w.request(w.level.Spawn(), -1, 0))

	action := newScriptedAction(idle)
	for i := 0; i < 2*settings.StackCapacity && len(obs.rollbacks) == 0; i++ {
		ctx.SuggestAction(action)
		require.False(t, ctx.NextPredictionStep())
	}

	require.Len(t, obs.rollbacks, 1)
	assert.Equal(t, settings.StackCapacity-1, obs.rollbacks[0][0])
	assert.Equal(t, 0, obs.rollbacks[0][1])
	assert.Equal(t, settings.StackCapacity-1, obs.maxTop, "Стек не превышает ёмкость")
	assert.True(t, action.IsDisabledForPlanning())
	assert.Equal(t, 0, ctx.TopOfStackIndex())
	assert.Empty(t, obs.errs)
}

func TestSequenceStart_MarksSavepoint(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())
	ctx.beginSearch(w.request(w.level.Spawn(), -1, 0))
	for i := 0; i < 3; i++ {
		ctx.topOfStackIndex++
		ctx.pushStep()
	}

	action := newScriptedAction(idle)
	ctx.switchActiveAction(action)
	assert.Equal(t, 3, ctx.SavepointTopOfStackIndex(), "Начало последовательности ставит точку сохранения на вершине")
	assert.Panics(t, func() { ctx.MarkSavepoint(4) }, "Точка сохранения не может быть выше вершины")
	ctx.stopActiveSequence(StopSwitched)
}

func TestBuildPlan_TerminationAndPairing(t *testing.T) {
	maps := map[string]string{
		"коридор":    corridorMap,
		"ступени":    "##########\n#S.1234..#\n##########\n",
		"вода":       "##########\n#S..~~~..#\n##########\n",
		"тупик":      "######\n#S.#.#\n######\n",
		"лабиринт":   "#########\n#S..#...#\n##.##.#.#\n#...#.#.#\n#.#...#.#\n#########\n",
		"отключённо": "########\n#S..xx.#\n########\n",
	}
	for name, src := range maps {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, src)
			obs := newRecordingObserver()
			settings := DefaultSettings()
			settings.StackCapacity = 12
			settings.MaxSimulatedSteps = 96
			ctx := NewPredictionContext(w.services, settings, WithObserver(obs))

			req := w.request(w.level.Spawn(), w.level.Width-2, 1)
			if w.level.Cell(w.level.Width-2, 1).IsSolid() {
				req = w.request(w.level.Spawn(), -1, 0)
			}
			plan := ctx.BuildPlan(req)

			require.NotEmpty(t, plan.Steps, "План всегда содержит хотя бы один шаг")
			assert.LessOrEqual(t, len(plan.Steps), settings.StackCapacity)
			assert.LessOrEqual(t, plan.SimulatedSteps, settings.MaxSimulatedSteps)
			assert.Empty(t, obs.errs)
			assert.LessOrEqual(t, obs.maxTop, settings.StackCapacity-1)
			assert.True(t, plan.Steps[0].Record.IsUcmdSet())

			for _, a := range ctx.Actions() {
				b := a.base()
				assert.Equal(t, b.sequencesStarted, b.sequencesStopped, "%s: начатые и завершённые последовательности", a.Name())
				assert.False(t, b.inSequence, a.Name())
				assert.Equal(t, obs.started[a], obs.stopped[a], a.Name())
			}

			if a, restarts := obs.restartsWithoutStep(); restarts > 1 {
				t.Errorf("%s перезапущена %d раз подряд без шага предсказания", a.Name(), restarts)
			}
		})
	}
}

func TestRecordingObserver_RestartsWithoutStep(t *testing.T) {
	a := newScriptedAction(idle)
	b := newScriptedAction(idle)
	obs := newRecordingObserver()
	obs.events = []observedEvent{
		{'s', a}, {'p', a}, {'x', a},
		{'s', a}, {'x', a},
		{'s', a}, {'x', a},
		{'s', b}, {'p', b},
	}
	worst, restarts := obs.restartsWithoutStep()
	assert.Equal(t, 2, restarts)
	assert.Same(t, a, worst)

	obs.events = []observedEvent{{'s', a}, {'x', a}, {'s', b}, {'x', b}, {'s', a}, {'p', a}}
	_, restarts = obs.restartsWithoutStep()
	assert.Zero(t, restarts, "Перезапуск через другую стратегию не считается")
}

func TestBuildPlan_Deterministic(t *testing.T) {
	w := newTestWorld(t, "############\n#S...1..2..#\n#...##.....#\n############\n")
	req := w.request(w.level.Spawn(), 10, 2)

	first := NewPredictionContext(w.services, DefaultSettings(), WithSeed(7))
	second := NewPredictionContext(w.services, DefaultSettings(), WithSeed(7))

	a := PlanFingerprint(first.BuildPlan(req))
	b := PlanFingerprint(second.BuildPlan(req))
	assert.Equal(t, a, b, "Одинаковые входные данные дают одинаковый план")

	again := PlanFingerprint(first.BuildPlan(req))
	assert.Equal(t, a, again, "Повторный поиск тем же контекстом не зависит от прошлого")
}

func TestBuildPlan_DummyIsLastResort(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	settings := DefaultSettings()
	settings.MaxSimulatedSteps = 1
	ctx := NewPredictionContext(w.services, settings)

	// Цель недостижима: маршрута нет, любой шаг откатывается
	w.routes.SetAreaDisabled(w.level.Cell(2, 1).AreaNum, true)
	plan := ctx.BuildPlan(w.request(w.level.Spawn(), 5, 1))

	require.Len(t, plan.Steps, 1)
	assert.True(t, plan.Steps[0].Record.IsUcmdSet())
	assert.NotEqual(t, PlanPrimary, plan.Source)
}

func TestSuggestSuitableAction_Cascade(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())

	cases := []struct {
		name  string
		setup func(ms *movement.MovementState, req *PlanRequest)
		want  ActionKind
	}{
		{"по умолчанию", func(*movement.MovementState, *PlanRequest) {}, ActionBunnyFollowReachChain},
		{"прыжок с оружием", func(_ *movement.MovementState, req *PlanRequest) {
			req.Intent.WeaponJumpWeapon = 3
		}, ActionScheduleWeaponJump},
		{"ожидающий прыжок с оружием", func(ms *movement.MovementState, _ *PlanRequest) {
			ms.WeaponJumpState.Activate(vec.Vec3Float{}, vec.V3(1, 0, 0), vec.Vec3Float{}, 3, 500)
		}, ActionTriggerWeaponJump},
		{"задетый jumppad", func(ms *movement.MovementState, _ *PlanRequest) {
			ms.JumppadState.Stage = movement.JumppadEntered
		}, ActionHandleTriggeredJumppad},
		{"полёт после jumppad", func(ms *movement.MovementState, _ *PlanRequest) {
			ms.JumppadState.Stage = movement.JumppadInFlight
			ms.FlyUntilLandingState.Activate(vec.V3(0, 0, 0), -100)
		}, ActionFlyUntilLanding},
		{"кемпинг", func(ms *movement.MovementState, _ *PlanRequest) {
			ms.CampingSpotState.Activate(movement.CampingSpot{Origin: w.level.Spawn(), Radius: 32})
		}, ActionCampASpot},
		{"сценарий", func(ms *movement.MovementState, _ *PlanRequest) {
			ms.Script.Activate(movement.ScriptWalkToNode, w.level.Spawn(), w.level.CellCenter(3, 1), 0, 1000)
		}, ActionFallback},
		{"вода", func(_ *movement.MovementState, req *PlanRequest) {
			req.PlayerState.WaterLevel = mover.WaterWaist
		}, ActionSwim},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := w.request(w.level.Spawn(), 5, 1)
			tc.setup(&req.MovementState, &req)
			ctx.beginSearch(req)
			assert.Equal(t, tc.want, ctx.SuggestSuitableAction().Kind())
		})
	}
}

func TestWeaponJump_NoSpotSetsCooldown(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())

	req := w.request(w.level.Spawn(), 7, 1)
	req.Intent.WeaponJumpWeapon = 3
	plan := ctx.BuildPlan(req)

	require.NotEmpty(t, plan.Steps)
	assert.NotEqual(t, ActionScheduleWeaponJump, plan.Steps[0].Action.Kind())
	assert.Equal(t, req.LevelTime+weaponJumpNoSpotCooldown, ctx.Carry().WeaponJumpDisabledUntil)
}

func TestWeaponJump_ScheduledTowardsLedge(t *testing.T) {
	// Пешком до верхней площадки далеко: через весь коридор и по ступеням
	const ledgeMap = `
############
#S.........#
#444######1#
#4444444432#
############
`
	w := newTestWorld(t, ledgeMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())

	req := w.request(w.level.CellCenter(2, 1), 1, 3)
	req.Intent.WeaponJumpWeapon = 3
	plan := ctx.BuildPlan(req)

	require.Len(t, plan.Steps, 1)
	step := plan.Steps[0]
	assert.Equal(t, ActionScheduleWeaponJump, step.Action.Kind())
	assert.True(t, plan.Truncated, "План прыжка исполняется по одному шагу")
	assert.Equal(t, 3, step.Record.PendingWeapon)
	assert.Equal(t, movement.WeaponJumpPending, step.State.WeaponJumpState.Stage)
	assert.Equal(t, 0, plan.SimulatedSteps)
	assert.Zero(t, ctx.Carry().WeaponJumpDisabledUntil)
}

func TestPlanObserver_Metrics(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	exporter := NewMetricsExporter(nil)
	ctx := NewPredictionContext(w.services, DefaultSettings(), WithObserver(exporter))
	ctx.BuildPlan(w.request(w.level.Spawn(), 5, 1))

	families, err := exporter.Gatherer().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["botplanner_plans_built_total"])
	assert.True(t, names["botplanner_plan_length_steps"])
	assert.True(t, names["botplanner_prediction_steps_total"])
}

func TestSimulatedStepMatchesMover(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())
	req := w.request(w.level.Spawn(), -1, 0)
	ctx.beginSearch(req)

	action := newScriptedAction(moveForward(vec.V3(1, 0, 0)))
	ctx.SuggestAction(action)
	require.False(t, ctx.NextPredictionStep())
	require.Equal(t, 1, ctx.TopOfStackIndex())

	ps := sim.NewPlayerState(w.level.Spawn())
	cmd := mover.Command{ForwardMove: 1, Msec: ctx.settings.stepMillisFor(0)}
	sim.NewMover(w.level).Step(&cmd, &ps, nil)

	assert.Greater(t, ps.Origin.X, w.level.Spawn().X)
	assert.InDelta(t, ps.Origin.X, ctx.PlayerState().Origin.X, 0.5)
	assert.InDelta(t, ps.Origin.Y, ctx.PlayerState().Origin.Y, 0.5)
	assert.InDelta(t, ctx.PlayerState().Origin.X, ctx.PhysicsState().Origin().X, 0.5)
}
