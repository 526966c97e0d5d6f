package planner

// PlanObserver наблюдатель поиска (метрики, тесты)
type PlanObserver interface {
	OnSequenceStarted(action Action, frameIndex int)
	OnSequenceStopped(action Action, reason SequenceStopReason, frameIndex int)
	OnPredictionStep(ctx *PredictionContext, action Action)
	OnRollback(action string, fromIndex, toIndex int)
	OnPlanBuilt(plan *Plan)
	OnCachedPlanUsed()
}

// NopObserver наблюдатель, игнорирующий события
type NopObserver struct{}

func (NopObserver) OnSequenceStarted(Action, int)                     {}
func (NopObserver) OnSequenceStopped(Action, SequenceStopReason, int) {}
func (NopObserver) OnPredictionStep(*PredictionContext, Action)       {}
func (NopObserver) OnRollback(string, int, int)                       {}
func (NopObserver) OnPlanBuilt(*Plan)                                 {}
func (NopObserver) OnCachedPlanUsed()                                 {}

// MultiObserver рассылает события нескольким наблюдателям
type MultiObserver []PlanObserver

func (m MultiObserver) OnSequenceStarted(a Action, frameIndex int) {
	for _, o := range m {
		o.OnSequenceStarted(a, frameIndex)
	}
}

func (m MultiObserver) OnSequenceStopped(a Action, reason SequenceStopReason, frameIndex int) {
	for _, o := range m {
		o.OnSequenceStopped(a, reason, frameIndex)
	}
}

func (m MultiObserver) OnPredictionStep(ctx *PredictionContext, a Action) {
	for _, o := range m {
		o.OnPredictionStep(ctx, a)
	}
}

func (m MultiObserver) OnRollback(action string, fromIndex, toIndex int) {
	for _, o := range m {
		o.OnRollback(action, fromIndex, toIndex)
	}
}

func (m MultiObserver) OnPlanBuilt(plan *Plan) {
	for _, o := range m {
		o.OnPlanBuilt(plan)
	}
}

func (m MultiObserver) OnCachedPlanUsed() {
	for _, o := range m {
		o.OnCachedPlanUsed()
	}
}
