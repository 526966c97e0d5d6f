package main

import (
	"context"
	"fmt"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/logging"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/observability"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/planner"
	"github.com/annel0/botplanner/internal/replay"
	"github.com/annel0/botplanner/internal/sim"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/cespare/xxhash/v2"
)

// targetTimeoutMillis время, после которого недостигнутая цель меняется
const targetTimeoutMillis = 15000

// maxTargetTries попытки найти достижимую цель
const maxTargetTries = 16

type worldConfig struct {
	Settings    planner.Settings
	Bots        int
	FrameMillis int
	Seed        uint64
	Exporter    *planner.MetricsExporter
	Recorder    *replay.Recorder
}

// bot реальное состояние одного бота
type bot struct {
	id     int
	module *planner.MovementModule
	ps     mover.PlayerState

	target       int
	targetOrigin vec.Vec3Float
	targetSince  int64
	targetSerial uint64

	reached   int
	recordErr int
}

// world уровень с ботами, исполняющий тики
type world struct {
	level  *sim.Level
	routes *sim.RouteCache
	mover  *sim.Mover
	cfg    worldConfig

	candidates []int
	bots       []*bot
	stats      *tickStats
	logger     *logging.Logger
}

func newWorld(level *sim.Level, cfg worldConfig) *world {
	routes := sim.NewRouteCache(level)
	w := &world{
		level:  level,
		routes: routes,
		mover:  sim.NewMover(level),
		cfg:    cfg,
		stats:  &tickStats{},
		logger: logging.GetSimLogger(),
	}
	services := planner.Services{
		AAS:       level,
		Routes:    routes,
		Collision: level,
		Mover:     w.mover,
		Entities:  level.Entities(),
	}

	for num := 1; num <= level.NumAreas(); num++ {
		flags := level.AreaSettings(num).Flags
		if flags&aas.AreaGrounded != 0 && flags&(aas.AreaDisabled|aas.AreaLiquid) == 0 {
			w.candidates = append(w.candidates, num)
		}
	}

	observers := planner.MultiObserver{w.stats}
	if cfg.Exporter != nil {
		observers = append(observers, cfg.Exporter)
	}
	for i := 0; i < cfg.Bots; i++ {
		b := &bot{
			id: i,
			module: planner.NewMovementModule(services, cfg.Settings,
				planner.WithObserver(observers),
				planner.WithLogger(logging.GetPlannerLogger()),
				planner.WithSeed(cfg.Seed+uint64(i))),
			ps: sim.NewPlayerState(level.Spawn()),
		}
		w.retarget(b, 0)
		w.bots = append(w.bots, b)
	}
	return w
}

// Run исполняет до ticks тиков или до отмены ctx и возвращает число
// выполненных тиков
func (w *world) Run(ctx context.Context, ticks int) int {
	for tick := 1; tick <= ticks; tick++ {
		if ctx.Err() != nil {
			return tick - 1
		}
		w.Tick(ctx, int64(tick))
	}
	return ticks
}

// Tick один тик всех ботов
func (w *world) Tick(ctx context.Context, tick int64) {
	_, span := observability.StartTick(ctx, tick, len(w.bots))
	w.stats.reset()
	for _, b := range w.bots {
		w.stepBot(b, tick)
	}
	observability.EndTick(span, w.stats.TickStats)
}

func (w *world) stepBot(b *bot, tick int64) {
	levelTime := tick * int64(w.cfg.FrameMillis)
	if w.level.FindAreaNum(b.ps.Origin) == b.target {
		b.reached++
		w.logger.Debug("🎯 Бот %d достиг области %d", b.id, b.target)
		w.retarget(b, levelTime)
	} else if levelTime-b.targetSince > targetTimeoutMillis {
		w.logger.Debug("Бот %d не добрался до области %d, новая цель", b.id, b.target)
		w.retarget(b, levelTime)
	}

	in := planner.FrameInput{
		FrameIndex:  tick,
		LevelTime:   levelTime,
		FrameMillis: w.cfg.FrameMillis,
		PlayerState: &b.ps,
		Intent: planner.Intent{
			NavTargetAreaNum: b.target,
			NavTargetOrigin:  b.targetOrigin,
		},
	}
	out := b.module.Frame(in)

	if w.cfg.Recorder != nil {
		if err := w.cfg.Recorder.Record(replay.Summarize(b.id, in, out, b.module.Plan())); err != nil {
			if b.recordErr == 0 {
				w.logger.Error("Ошибка записи реплея бота %d: %v", b.id, err)
			}
			b.recordErr++
		}
	}

	cmd := out.Command
	w.mover.Step(&cmd, &b.ps, &botHooks{w: w, b: b})
}

// retarget выбирает новую достижимую цель бота
func (w *world) retarget(b *bot, levelTime int64) {
	b.targetSince = levelTime
	if len(w.candidates) == 0 {
		b.target = 0
		return
	}
	from := w.level.FindAreaNum(b.ps.Origin)
	for try := 0; try < maxTargetTries; try++ {
		b.targetSerial++
		num := w.candidates[pickIndex(w.cfg.Seed, b.id, b.targetSerial, len(w.candidates))]
		if num == from {
			continue
		}
		if travelTime, _ := w.routes.FindRoute(from, num, aas.DefaultTravelFlags); from != 0 && travelTime == 0 {
			continue
		}
		b.target = num
		b.targetOrigin = w.level.Area(num).Center
		return
	}
}

// pickIndex детерминированный индекс в [0, n)
func pickIndex(seed uint64, botID int, serial uint64, n int) int {
	h := xxhash.Sum64String(fmt.Sprintf("%d/%d/%d", seed, botID, serial))
	return int(h % uint64(n))
}

// LogSummary печатает итоги прогона по ботам
func (w *world) LogSummary() {
	for _, b := range w.bots {
		logging.Info("   🤖 Бот %d: целей=%d, позиция=(%.0f, %.0f, %.0f)",
			b.id, b.reached, b.ps.Origin.X, b.ps.Origin.Y, b.ps.Origin.Z)
		if b.recordErr > 0 {
			logging.Warn("   Бот %d: ошибок записи реплея %d", b.id, b.recordErr)
		}
	}
	logging.Info("   📈 Всего: планов=%d, из кеша=%d, откатов=%d, запасных=%d",
		w.stats.total.PlansBuilt, w.stats.total.CachedFrames, w.stats.total.Rollbacks, w.stats.total.DummyPlans)
}

// botHooks события реального шага движка одного бота
type botHooks struct {
	w *world
	b *bot
}

func (h *botHooks) OnEvent(ev mover.Event) {
	if ev.Kind == mover.EventFallDamage {
		h.w.logger.Debug("Бот %d получил урон от падения: %d", h.b.id, ev.Damage)
	}
}

func (h *botHooks) OnTouchTriggers(ps *mover.PlayerState, prevOrigin vec.Vec3Float) {
	swept := physics.SweptBox(prevOrigin, ps.Origin, ps.Mins, ps.Maxs)
	for _, pad := range h.w.level.Jumppads() {
		if swept.Intersects(pad.Bounds) {
			h.b.module.OnJumppadTouched(pad)
			return
		}
	}
}

// tickStats наблюдатель, считающий события поиска за тик и за прогон
type tickStats struct {
	planner.NopObserver
	observability.TickStats

	total observability.TickStats
}

func (s *tickStats) reset() { s.TickStats = observability.TickStats{} }

func (s *tickStats) OnPlanBuilt(plan *planner.Plan) {
	s.PlansBuilt++
	s.total.PlansBuilt++
	if plan.Source == planner.PlanDummy {
		s.DummyPlans++
		s.total.DummyPlans++
	}
}

func (s *tickStats) OnRollback(string, int, int) {
	s.Rollbacks++
	s.total.Rollbacks++
}

func (s *tickStats) OnCachedPlanUsed() {
	s.CachedFrames++
	s.total.CachedFrames++
}
