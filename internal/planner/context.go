// Package planner спекулятивный многошаговый планировщик движения ботов.
//
// Каждый реальный тик PredictionContext строит план: шаг за шагом выбирает
// стратегию, симулирует один вызов физического движка и проверяет результат.
// Неудачные последовательности откатываются к точке сохранения.
package planner

import (
	"fmt"

	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/logging"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/movement"
	"github.com/annel0/botplanner/internal/vec"
)

// maxCannotApplySwitches предел замен неприменимых стратегий в одном шаге
const maxCannotApplySwitches = 8

// PlannedStep один шаг спекулятивного плана
type PlannedStep struct {
	// State состояние движения перед вызовом движка, уже с изменениями,
	// внесёнными стратегией при планировании шага
	State  movement.MovementState
	Record movement.ActionRecord
	Action Action
	// Timestamp миллисекунды от начала поиска; в готовом плане абсолютное время
	Timestamp    int64
	StepMillis   int
	ActiveStates movement.StateMask
}

// PlanSource происхождение итогового плана
type PlanSource uint8

const (
	PlanPrimary PlanSource = iota
	PlanGoodEnough
	PlanLastResort
	PlanDummy
)

// String возвращает строковое представление источника
func (s PlanSource) String() string {
	switch s {
	case PlanPrimary:
		return "primary"
	case PlanGoodEnough:
		return "good_enough"
	case PlanLastResort:
		return "last_resort"
	default:
		return "dummy"
	}
}

// Plan результат поиска. Нулевой шаг исполняется в текущем тике.
type Plan struct {
	Steps  []PlannedStep
	Source PlanSource
	// Truncated план нельзя исполнять дальше нулевого шага
	Truncated      bool
	SimulatedSteps int
}

// PlanRequest входные данные поиска
type PlanRequest struct {
	MovementState movement.MovementState
	PlayerState   mover.PlayerState
	Intent        Intent
	FrameIndex    int64
	LevelTime     int64
	// OtherTriggers прочие триггеры, которых можно коснуться в этом тике
	OtherTriggers []collision.TriggerEntity
}

// CarryOver поля, переживающие реальные тики
type CarryOver struct {
	// SavedLandingAreas ранжированные области приземления после jumppad
	SavedLandingAreas []int
	// WeaponJumpDisabledUntil время, до которого прыжки с оружием не планируются
	WeaponJumpDisabledUntil int64
}

// PredictionContext оркестратор спекулятивного поиска. Принадлежит одному боту
// и не предназначен для конкурентного использования.
type PredictionContext struct {
	settings Settings
	services Services
	actions  *actionSet
	observer PlanObserver
	logger   *logging.Logger

	locator        *aasLocator
	nodeCache      *collision.NodeCache
	shapeCache     *collision.ShapeListCache
	nearbyTriggers *collision.NearbyTriggersCache
	carry          *CarryOver

	steps        arena[PlannedStep]
	states       arena[movement.MovementState]
	playerStates arena[mover.PlayerState]
	inputCaches  arena[DefaultInputCache]
	traceCaches  arena[EnvironmentTraceCache]

	topOfStackIndex          int
	savepointTopOfStackIndex int

	activeAction          Action
	suggestedAction       Action
	cannotApplySuggestion Action

	isCompleted       bool
	isTruncated       bool
	cannotApplyAction bool
	shouldRollback    bool

	substitutedPath   *secondaryPath
	substitutedSource PlanSource

	predictionStepMillis int
	totalMillisAhead     int
	simulatedSteps       int
	stepAttempts         int

	frameEvents FrameEvents
	hooks       predictionHooks

	goodEnoughPath secondaryPath
	lastResortPath secondaryPath
	result         Plan

	request   PlanRequest
	botSeed   uint64
	routeMemo map[[2]int][]ReachLink
}

// Option настройка контекста
type Option func(*PredictionContext)

// WithObserver подключает наблюдателя поиска
func WithObserver(o PlanObserver) Option {
	return func(c *PredictionContext) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger задаёт логгер
func WithLogger(l *logging.Logger) Option {
	return func(c *PredictionContext) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSeed задаёт зерно детерминированных псевдослучайных решений
func WithSeed(seed uint64) Option {
	return func(c *PredictionContext) { c.botSeed = seed }
}

// WithCarryOver подключает внешнее хранилище переносимых между тиками полей
func WithCarryOver(carry *CarryOver) Option {
	return func(c *PredictionContext) {
		if carry != nil {
			c.carry = carry
		}
	}
}

// NewPredictionContext создаёт контекст поиска для одного бота
func NewPredictionContext(services Services, settings Settings, opts ...Option) *PredictionContext {
	settings.normalize()
	if services.Entities == nil {
		services.Entities = collision.NewEntitiesCache()
	}
	capacity := settings.StackCapacity

	c := &PredictionContext{
		settings:       settings,
		services:       services,
		observer:       NopObserver{},
		logger:         logging.GetPlannerLogger(),
		nodeCache:      collision.NewNodeCache(services.Collision, settings.CollisionRegionExtent/2),
		shapeCache:     collision.NewShapeListCache(services.Collision, settings.CollisionRegionExtent/2),
		nearbyTriggers: collision.NewNearbyTriggersCache(),
		carry:          &CarryOver{},
		steps:          newArena[PlannedStep](capacity),
		states:         newArena[movement.MovementState](capacity),
		playerStates:   newArena[mover.PlayerState](capacity),
		inputCaches:    newArena[DefaultInputCache](capacity),
		traceCaches:    newArena[EnvironmentTraceCache](capacity),
		routeMemo:      make(map[[2]int][]ReachLink),
	}
	c.locator = &aasLocator{world: services.AAS, coll: services.Collision, nodes: c.nodeCache, extent: settings.CollisionRegionExtent}
	c.hooks = predictionHooks{events: &c.frameEvents, nearby: c.nearbyTriggers}
	c.result.Steps = make([]PlannedStep, 0, capacity)
	c.actions = newActionSet()

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildPlan выполняет поиск. Всегда завершается и всегда возвращает план
// хотя бы из одного шага. Возвращённый план действителен до следующего вызова.
func (c *PredictionContext) BuildPlan(req PlanRequest) *Plan {
	c.beginSearch(req)
	for !c.NextPredictionStep() {
		if c.simulatedSteps >= c.settings.MaxSimulatedSteps || c.stepAttempts >= 4*c.settings.MaxSimulatedSteps {
			c.handleExhaustion()
			break
		}
	}
	c.assertStackInvariant()

	for _, a := range c.actions.all {
		a.AfterPlanning()
	}

	c.result.SimulatedSteps = c.simulatedSteps
	for i := range c.result.Steps {
		c.result.Steps[i].Timestamp += req.LevelTime
	}
	c.observer.OnPlanBuilt(&c.result)
	return &c.result
}

// beginSearch готовит контекст к поиску: снимок физики, ближайшие триггеры,
// сброс стратегий и стеков
func (c *PredictionContext) beginSearch(req PlanRequest) {
	c.request = req
	c.request.MovementState.EntityPhysicsState.UpdateFromPlayerState(&c.request.PlayerState, c.locator)
	c.nearbyTriggers.Update(req.FrameIndex, req.PlayerState.Origin, c.settings.TriggerRadius, c.services.Entities, req.OtherTriggers)

	for _, a := range c.actions.all {
		a.BeforePlanning()
	}
	c.resetSearch()
}

func (c *PredictionContext) resetSearch() {
	c.truncateTo(0)
	c.topOfStackIndex = 0
	c.savepointTopOfStackIndex = 0
	c.activeAction = nil
	c.suggestedAction = nil
	c.cannotApplySuggestion = nil
	c.isCompleted = false
	c.isTruncated = false
	c.cannotApplyAction = false
	c.shouldRollback = false
	c.substitutedPath = nil
	c.totalMillisAhead = 0
	c.simulatedSteps = 0
	c.stepAttempts = 0
	c.goodEnoughPath.clear()
	c.lastResortPath.clear()
	clear(c.routeMemo)
	c.result.Steps = c.result.Steps[:0]
	c.result.Source = PlanPrimary
	c.result.Truncated = false
	c.pushStep()
}

func (c *PredictionContext) truncateTo(n int) {
	c.steps.truncate(n)
	c.states.truncate(n)
	c.playerStates.truncate(n)
	c.inputCaches.truncate(n)
	c.traceCaches.truncate(n)
}

// pushStep наращивает все стеки на один уровень: копией предыдущего
// уровня либо реальным состоянием на нулевой глубине
func (c *PredictionContext) pushStep() {
	if c.steps.len() == 0 {
		c.steps.push(PlannedStep{Record: movement.NewActionRecord()})
		c.states.push(c.request.MovementState)
		c.playerStates.push(c.request.PlayerState)
		c.totalMillisAhead = 0
	} else {
		below := c.steps.top()
		timestamp := below.Timestamp + int64(below.StepMillis)
		c.steps.push(PlannedStep{Record: movement.NewActionRecord(), Timestamp: timestamp})
		c.states.push(*c.states.top())
		c.playerStates.push(*c.playerStates.top())
		c.totalMillisAhead = int(timestamp)
	}
	c.inputCaches.push(DefaultInputCache{})
	c.traceCaches.push(EnvironmentTraceCache{})
}

// NextPredictionStep выполняет один спекулятивный шаг. Возвращает true,
// когда поиск завершён успешно.
func (c *PredictionContext) NextPredictionStep() bool {
	c.assertStackInvariant()
	c.stepAttempts++
	c.shouldRollback = false
	c.predictionStepMillis = c.settings.stepMillisFor(c.topOfStackIndex)
	c.frameEvents.Clear()

	action := c.suggestedAction
	c.suggestedAction = nil
	if action == nil {
		action = c.SuggestSuitableAction()
	}

	action = c.planStep(action)
	if c.shouldRollback {
		c.rollbackToSavepoint()
		return false
	}

	top := c.steps.top()
	top.Action = action
	top.State = *c.states.top()
	top.StepMillis = c.predictionStepMillis
	top.ActiveStates = top.State.ActiveMask()

	if c.isCompleted {
		c.complete()
		return true
	}

	c.simulateStep(action)
	action.CheckPredictionStepResults(c)
	c.observer.OnPredictionStep(c, action)

	if c.isCompleted {
		c.complete()
		return true
	}
	if c.shouldRollback {
		c.rollbackToSavepoint()
		return false
	}
	if c.topOfStackIndex == c.settings.StackCapacity-1 {
		c.debug("%s: стек заполнен, стратегия отключена до конца поиска", action.Name())
		action.base().DisableForPlanning()
		c.shouldRollback = true
		c.rollbackToSavepoint()
		return false
	}

	c.topOfStackIndex++
	c.pushStep()
	return false
}

// planStep вызывает PlanPredictionStep, заменяя неприменимые стратегии.
// Возвращает стратегию, которая в итоге запланировала шаг.
func (c *PredictionContext) planStep(action Action) Action {
	var rejected [maxCannotApplySwitches + 2]Action
	numRejected := 0
	isRejected := func(a Action) bool {
		for i := 0; i < numRejected; i++ {
			if rejected[i] == a {
				return true
			}
		}
		return false
	}

	for {
		c.switchActiveAction(action)
		c.cannotApplyAction = false
		c.cannotApplySuggestion = nil
		c.Record().Clear()
		action.base().plannedSteps++

		action.PlanPredictionStep(c)
		if c.shouldRollback || !c.cannotApplyAction {
			return action
		}
		if action == c.actions.dummy {
			panic("planner: dummy не может быть неприменима")
		}

		rejected[numRejected] = action
		numRejected++

		next := c.cannotApplySuggestion
		if next == nil {
			next = c.SuggestSuitableAction()
		}
		if next == action || isRejected(next) {
			next = c.actions.fallback
		}
		if isRejected(next) || numRejected >= maxCannotApplySwitches {
			next = c.actions.dummy
		}
		c.debug("%s неприменима, замена на %s", action.Name(), next.Name())
		action = next
	}
}

func (c *PredictionContext) switchActiveAction(action Action) {
	if c.activeAction == action {
		return
	}
	if c.activeAction != nil {
		c.stopActiveSequence(StopSwitched)
	}
	c.activeAction = action
	action.OnApplicationSequenceStarted(c)
	c.observer.OnSequenceStarted(action, c.topOfStackIndex)
}

func (c *PredictionContext) stopActiveSequence(reason SequenceStopReason) {
	action := c.activeAction
	if action == nil {
		return
	}
	c.activeAction = nil
	action.OnApplicationSequenceStopped(c, reason, c.topOfStackIndex)
	c.observer.OnSequenceStopped(action, reason, c.topOfStackIndex)
}

// rollbackToSavepoint закрывает последовательность с причиной failed и
// усекает все стеки до точки сохранения
func (c *PredictionContext) rollbackToSavepoint() {
	from := c.topOfStackIndex
	name := "none"
	if c.activeAction != nil {
		name = c.activeAction.Name()
		c.stopActiveSequence(StopFailed)
	}
	if c.savepointTopOfStackIndex > c.topOfStackIndex {
		panic(fmt.Sprintf("planner: точка сохранения %d выше вершины стека %d", c.savepointTopOfStackIndex, c.topOfStackIndex))
	}

	c.topOfStackIndex = c.savepointTopOfStackIndex
	c.truncateTo(c.topOfStackIndex)
	c.pushStep()
	c.shouldRollback = false
	c.isCompleted = false
	c.isTruncated = false

	c.debug("откат %s: %d -> %d", name, from, c.topOfStackIndex)
	c.observer.OnRollback(name, from, c.topOfStackIndex)
}

func (c *PredictionContext) complete() {
	c.stopActiveSequence(StopSucceeded)
	if c.substitutedPath != nil {
		c.result.Steps = append(c.result.Steps[:0], c.substitutedPath.steps...)
		c.result.Source = c.substitutedSource
		c.result.Truncated = false
		c.substitutedPath = nil
		return
	}
	c.result.Steps = append(c.result.Steps[:0], c.steps.items[:c.topOfStackIndex+1]...)
	c.result.Source = PlanPrimary
	c.result.Truncated = c.isTruncated
}

func (c *PredictionContext) handleExhaustion() {
	c.stopActiveSequence(StopDisabled)
	switch {
	case c.goodEnoughPath.valid:
		c.result.Steps = append(c.result.Steps[:0], c.goodEnoughPath.steps...)
		c.result.Source = PlanGoodEnough
		c.result.Truncated = false
	case c.lastResortPath.valid:
		c.result.Steps = append(c.result.Steps[:0], c.lastResortPath.steps...)
		c.result.Source = PlanLastResort
		c.result.Truncated = false
	default:
		c.logger.Warn("поиск исчерпан за %d шагов, используется dummy", c.simulatedSteps)
		c.buildDummyPlan()
	}
}

func (c *PredictionContext) buildDummyPlan() {
	c.truncateTo(0)
	c.topOfStackIndex = 0
	c.savepointTopOfStackIndex = 0
	c.pushStep()
	c.isCompleted = false
	c.shouldRollback = false
	c.predictionStepMillis = c.settings.stepMillisFor(0)

	dummy := c.actions.dummy
	c.switchActiveAction(dummy)
	c.Record().Clear()
	dummy.base().plannedSteps++
	dummy.PlanPredictionStep(c)

	top := c.steps.top()
	top.Action = dummy
	top.State = *c.states.top()
	top.StepMillis = c.predictionStepMillis
	top.ActiveStates = top.State.ActiveMask()
	c.complete()
	c.result.Source = PlanDummy
}

// simulateStep единственный вызов физического движка за шаг
func (c *PredictionContext) simulateStep(action Action) {
	ps := c.playerStates.top()
	ms := c.states.top()

	record := *c.Record()
	applyPendingLookAt(&record, ms, viewOrigin(ps))
	target := ExecTarget{PlayerState: ps}
	action.ExecActionRecord(&record, &target)
	cmd := target.Input.ToCommand(ps.ViewAngles, c.predictionStepMillis)

	c.frameEvents.Clear()
	c.services.Mover.Step(&cmd, ps, c.hooks)
	c.simulatedSteps++

	ms.EntityPhysicsState.UpdateFromPlayerState(ps, c.locator)
	if num := c.frameEvents.Touched.JumppadNum; num != 0 && !ms.JumppadState.IsActive() {
		if trigger, ok := c.nearbyTriggers.Find(num); ok {
			ms.JumppadState.Activate(trigger)
		}
	}
	ms.Frame(c.predictionStepMillis)
	ms.TryDeactivateContainedStates()
}

func viewOrigin(ps *mover.PlayerState) vec.Vec3Float {
	return ps.Origin.Add(vec.Vec3Float{Z: ps.ViewHeight})
}

// applyPendingLookAt направляет взгляд на точку, переназначая клавиши так,
// чтобы мировое направление движения не изменилось
func applyPendingLookAt(record *movement.ActionRecord, ms *movement.MovementState, from vec.Vec3Float) {
	st := &ms.PendingLookAtPointState
	if !st.IsActive() {
		return
	}
	if _, ok := record.AlreadyComputedAngles(); ok {
		return
	}
	dir := st.Point.Sub(from)
	if dir.LengthSquared() < 1 {
		return
	}
	record.RemapKeysForLookDir(dir.Normalized())
	if st.TurnSpeedMultiplier > 0 {
		record.TurnSpeedMultiplier = float32(st.TurnSpeedMultiplier)
	}
}

// SuggestSuitableAction каскад выбора стратегии по активным подавтоматам
// и намерению бота
func (c *PredictionContext) SuggestSuitableAction() Action {
	ms := c.MovementState()
	eps := &ms.EntityPhysicsState

	if eps.IsInWater() {
		return c.actions.swim
	}

	switch ms.WeaponJumpState.Stage {
	case movement.WeaponJumpPending:
		return c.actions.triggerWeaponJump
	case movement.WeaponJumpTriggered, movement.WeaponJumpCorrected:
		return c.actions.correctWeaponJump
	}

	if ms.JumppadState.IsActive() {
		if ms.JumppadState.HasEntered() {
			return c.actions.handleJumppad
		}
		if ms.FlyUntilLandingState.IsActive() && !ms.FlyUntilLandingState.IsLanding {
			return c.actions.flyUntilLanding
		}
		return c.actions.landOnSavedAreas
	}

	if c.isOnPlatform(eps) {
		return c.actions.ridePlatform
	}
	if ms.CampingSpotState.IsActive() {
		return c.actions.campASpot
	}
	if ms.Script.IsActive() {
		return c.actions.fallback
	}
	if c.topOfStackIndex > 0 {
		return c.actions.bunnyReachChain
	}
	if c.request.Intent.WeaponJumpWeapon != 0 && !c.actions.scheduleWeaponJump.base().IsDisabledForPlanning() {
		return c.actions.scheduleWeaponJump
	}
	return c.actions.bunnyReachChain
}

func (c *PredictionContext) isOnPlatform(eps *movement.EntityPhysicsState) bool {
	if eps.GroundEntNum <= mover.GroundWorld {
		return false
	}
	_, ok := c.services.Entities.PlatformByEntNum(int(eps.GroundEntNum))
	return ok
}

// checkStackInvariant проверяет согласованность стеков
func (c *PredictionContext) checkStackInvariant() error {
	if c.savepointTopOfStackIndex < 0 || c.savepointTopOfStackIndex > c.topOfStackIndex {
		return fmt.Errorf("точка сохранения %d вне [0, %d]", c.savepointTopOfStackIndex, c.topOfStackIndex)
	}
	if c.topOfStackIndex >= c.settings.StackCapacity {
		return fmt.Errorf("вершина стека %d не меньше ёмкости %d", c.topOfStackIndex, c.settings.StackCapacity)
	}
	want := c.topOfStackIndex + 1
	lens := [...]int{c.steps.len(), c.states.len(), c.playerStates.len(), c.inputCaches.len(), c.traceCaches.len()}
	for i, l := range lens {
		if l != want {
			return fmt.Errorf("стек %d имеет %d элементов, ожидалось %d", i, l, want)
		}
	}
	return nil
}

func (c *PredictionContext) assertStackInvariant() {
	if err := c.checkStackInvariant(); err != nil {
		panic("planner: нарушен инвариант стека: " + err.Error())
	}
}

func (c *PredictionContext) debug(format string, args ...interface{}) {
	if c.logger.Enabled(logging.DEBUG) {
		c.logger.Debug(format, args...)
	}
}

// Ниже API контекста планирования, доступное стратегиям

// TopOfStackIndex индекс текущего шага
func (c *PredictionContext) TopOfStackIndex() int { return c.topOfStackIndex }

// SavepointTopOfStackIndex индекс точки сохранения
func (c *PredictionContext) SavepointTopOfStackIndex() int { return c.savepointTopOfStackIndex }

// StackCapacity ёмкость стека
func (c *PredictionContext) StackCapacity() int { return c.settings.StackCapacity }

// PredictionStepMillis длительность текущего шага
func (c *PredictionContext) PredictionStepMillis() int { return c.predictionStepMillis }

// TotalMillisAhead время от начала поиска до начала текущего шага
func (c *PredictionContext) TotalMillisAhead() int { return c.totalMillisAhead }

// MovementState состояние движения на вершине стека
func (c *PredictionContext) MovementState() *movement.MovementState { return c.states.top() }

// PhysicsState снимок физики на вершине стека: до симуляции при
// планировании шага и после симуляции при проверке результатов
func (c *PredictionContext) PhysicsState() *movement.EntityPhysicsState {
	return &c.states.top().EntityPhysicsState
}

// PrevPhysicsState снимок физики перед симуляцией текущего шага
func (c *PredictionContext) PrevPhysicsState() *movement.EntityPhysicsState {
	return &c.steps.top().State.EntityPhysicsState
}

// PlayerState полное состояние движка на вершине стека
func (c *PredictionContext) PlayerState() *mover.PlayerState { return c.playerStates.top() }

// Record запись текущего шага
func (c *PredictionContext) Record() *movement.ActionRecord { return &c.steps.top().Record }

// FrameEvents события текущего шага
func (c *PredictionContext) FrameEvents() *FrameEvents { return &c.frameEvents }

// Intent намерение бота
func (c *PredictionContext) Intent() *Intent { return &c.request.Intent }

// FrameIndex номер реального кадра
func (c *PredictionContext) FrameIndex() int64 { return c.request.FrameIndex }

// LevelTime время уровня в начале поиска
func (c *PredictionContext) LevelTime() int64 { return c.request.LevelTime }

// AAS навигационный граф
func (c *PredictionContext) AAS() aas.World { return c.services.AAS }

// Routes кеш маршрутов
func (c *PredictionContext) Routes() aas.RouteCache { return c.services.Routes }

// NearbyTriggers ближайшие триггеры текущего тика
func (c *PredictionContext) NearbyTriggers() *collision.NearbyTriggersCache { return c.nearbyTriggers }

// Carry переносимые между тиками поля
func (c *PredictionContext) Carry() *CarryOver { return c.carry }

// IsInHazardZone попадает ли точка в зону опасности
func (c *PredictionContext) IsInHazardZone(p vec.Vec3Float) bool {
	in := &c.request.Intent
	return in.HasHazardZone && in.HazardZone.IsPointInside(p)
}

// MarkSavepoint ставит точку сохранения
func (c *PredictionContext) MarkSavepoint(index int) {
	if index > c.topOfStackIndex {
		panic(fmt.Sprintf("planner: точка сохранения %d выше вершины %d", index, c.topOfStackIndex))
	}
	c.savepointTopOfStackIndex = index
}

// SetPendingRollback требует отката к точке сохранения
func (c *PredictionContext) SetPendingRollback() { c.shouldRollback = true }

// SetCannotApply объявляет текущую стратегию неприменимой; suggested может быть nil
func (c *PredictionContext) SetCannotApply(suggested Action) {
	c.cannotApplyAction = true
	c.cannotApplySuggestion = suggested
}

// SuggestAction предлагает стратегию для следующего шага (после отката)
func (c *PredictionContext) SuggestAction(a Action) { c.suggestedAction = a }

// SetCompleted завершает поиск успешно
func (c *PredictionContext) SetCompleted() { c.isCompleted = true }

// SetTruncated отмечает, что план нельзя исполнять дальше нулевого шага
func (c *PredictionContext) SetTruncated() { c.isTruncated = true }

// IsCompleted завершён ли поиск
func (c *PredictionContext) IsCompleted() bool { return c.isCompleted }

// IsPendingRollback требуется ли откат
func (c *PredictionContext) IsPendingRollback() bool { return c.shouldRollback }

// Actions набор стратегий контекста
func (c *PredictionContext) Actions() []Action { return c.actions.all }
