package planner

import (
	"strings"
	"testing"

	"github.com/annel0/botplanner/internal/sim"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/stretchr/testify/require"
)

// testWorld клеточный уровень со всеми сервисами планировщика
type testWorld struct {
	level    *sim.Level
	routes   *sim.RouteCache
	services Services
}

func newTestWorld(t *testing.T, src string) *testWorld {
	t.Helper()
	level, err := sim.ParseLevel(strings.NewReader(src))
	require.NoError(t, err, "Тестовая карта должна разбираться")
	routes := sim.NewRouteCache(level)
	return &testWorld{
		level:  level,
		routes: routes,
		services: Services{
			AAS:       level,
			Routes:    routes,
			Collision: level,
			Mover:     sim.NewMover(level),
			Entities:  level.Entities(),
		},
	}
}

// request запрос поиска из точки origin к клетке (col, row); col < 0 без цели
func (w *testWorld) request(origin vec.Vec3Float, col, row int) PlanRequest {
	req := PlanRequest{
		PlayerState: sim.NewPlayerState(origin),
		FrameIndex:  1,
		LevelTime:   1000,
	}
	if col >= 0 {
		req.Intent.NavTargetAreaNum = w.level.Cell(col, row).AreaNum
		req.Intent.NavTargetOrigin = w.level.CellCenter(col, row)
	}
	return req
}

// scriptedAction стратегия с заданным планированием и общими проверками
type scriptedAction struct {
	BaseAction
	plan func(ctx *PredictionContext)
}

func newScriptedAction(plan func(ctx *PredictionContext)) *scriptedAction {
	return &scriptedAction{BaseAction: newBaseAction(ActionFallback), plan: plan}
}

func (a *scriptedAction) PlanPredictionStep(ctx *PredictionContext) { a.plan(ctx) }

// observedEvent событие поиска в порядке поступления
type observedEvent struct {
	kind   byte // 's' начало последовательности, 'p' шаг, 'x' остановка
	action Action
}

// recordingObserver запоминает события поиска и проверяет инвариант стека
type recordingObserver struct {
	NopObserver

	started   map[Action]int
	stopped   map[Action]int
	stops     []SequenceStopReason
	rollbacks [][2]int
	predicted []ActionKind
	events    []observedEvent
	maxTop    int
	errs      []error

	jumppadEnteredAt int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		started:          make(map[Action]int),
		stopped:          make(map[Action]int),
		jumppadEnteredAt: -1,
	}
}

func (o *recordingObserver) OnSequenceStarted(a Action, _ int) {
	o.started[a]++
	o.events = append(o.events, observedEvent{'s', a})
}

func (o *recordingObserver) OnSequenceStopped(a Action, reason SequenceStopReason, _ int) {
	o.stopped[a]++
	o.stops = append(o.stops, reason)
	o.events = append(o.events, observedEvent{'x', a})
}

func (o *recordingObserver) OnPredictionStep(ctx *PredictionContext, a Action) {
	o.predicted = append(o.predicted, a.Kind())
	o.events = append(o.events, observedEvent{'p', a})
	o.maxTop = max(o.maxTop, ctx.TopOfStackIndex())
	if err := ctx.checkStackInvariant(); err != nil {
		o.errs = append(o.errs, err)
	}
	if o.jumppadEnteredAt < 0 && ctx.MovementState().JumppadState.HasEntered() {
		o.jumppadEnteredAt = ctx.TopOfStackIndex()
	}
}

func (o *recordingObserver) OnRollback(_ string, from, to int) {
	o.rollbacks = append(o.rollbacks, [2]int{from, to})
}

// restartsWithoutStep наибольшее число перезапусков одной стратегии
// (остановка и сразу новое начало) подряд без единого шага между ними
func (o *recordingObserver) restartsWithoutStep() (Action, int) {
	var worst Action
	most := 0
	restarts := make(map[Action]int)
	var lastStopped Action
	for _, e := range o.events {
		switch e.kind {
		case 'p':
			clear(restarts)
			lastStopped = nil
		case 'x':
			lastStopped = e.action
		case 's':
			if e.action == lastStopped {
				restarts[e.action]++
				if restarts[e.action] > most {
					worst, most = e.action, restarts[e.action]
				}
			}
			lastStopped = nil
		}
	}
	return worst, most
}

func moveForward(dir vec.Vec3Float) func(ctx *PredictionContext) {
	return func(ctx *PredictionContext) {
		record := ctx.Record()
		record.SetUcmdSet(true)
		record.SetIntendedLookDir(dir)
		record.ForwardMovement = 1
	}
}

func idle(ctx *PredictionContext) {
	ctx.Record().SetUcmdSet(true)
}
