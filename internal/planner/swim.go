package planner

import (
	"github.com/annel0/botplanner/internal/aas"
)

const (
	swimMaxSequenceSteps = 6
	swimSurfaceMargin    = 16.0
)

// SwimAction плавание к следующей точке маршрута
type SwimAction struct {
	BaseAction
}

func newSwimAction() *SwimAction {
	a := &SwimAction{BaseAction: newBaseAction(ActionSwim)}
	a.stopPredictionOnEnteringWater = false
	return a
}

func (a *SwimAction) PlanPredictionStep(ctx *PredictionContext) {
	if !a.checkIsActionEnabled(ctx, ctx.actions.fallback) {
		return
	}
	eps := ctx.PhysicsState()
	if !eps.IsInWater() {
		ctx.SetCannotApply(nil)
		return
	}

	record := ctx.Record()
	record.BotInput = ctx.DefaultBotInput()
	record.ForwardMovement = 1

	chain := ctx.ReachChain()
	// Следующее ребро ведёт из воды
	if len(chain) > 0 && chain[0].TravelType != aas.TravelSwim {
		record.UpMovement = 1
		return
	}
	if point, ok := ctx.SteeringPoint(); ok && point.Z > eps.Origin().Z+swimSurfaceMargin {
		record.UpMovement = 1
	}
}

func (a *SwimAction) CheckPredictionStepResults(ctx *PredictionContext) {
	if !a.checkCommonResults(ctx) {
		return
	}
	eps := ctx.PhysicsState()
	switch {
	case ctx.IsInNavTargetArea():
		ctx.SetCompleted()
	case !eps.IsInWater():
		ctx.SetCompleted()
	case a.sequenceSteps >= swimMaxSequenceSteps:
		ctx.SetCompleted()
	}
}
