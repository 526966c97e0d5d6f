package replay

import (
	"github.com/annel0/botplanner/internal/planner"
	"github.com/annel0/botplanner/internal/vec"
)

func triple(v vec.Vec3Float) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Summarize собирает запись тика из входа и результата модуля движения.
// Шаги плана пишутся только для вновь построенных планов.
func Summarize(bot int, in planner.FrameInput, out planner.FrameOutput, plan []planner.PlannedStep) FrameRecord {
	rec := FrameRecord{
		Bot:        bot,
		Frame:      in.FrameIndex,
		LevelTime:  in.LevelTime,
		Action:     out.Action,
		FromCache:  out.FromCache,
		PlanSource: out.PlanSource.String(),
	}
	if in.PlayerState != nil {
		rec.Origin = triple(in.PlayerState.Origin)
		rec.Velocity = triple(in.PlayerState.Velocity)
	}
	if out.FromCache {
		return rec
	}
	rec.Steps = make([]StepSummary, 0, len(plan))
	for i := range plan {
		step := &plan[i]
		rec.Steps = append(rec.Steps, StepSummary{
			Action:     step.Action.Name(),
			Timestamp:  step.Timestamp,
			StepMillis: step.StepMillis,
			Origin:     triple(step.State.EntityPhysicsState.Origin()),
			Forward:    step.Record.ForwardMovement,
			Right:      step.Record.RightMovement,
			Up:         step.Record.UpMovement,
			Special:    step.Record.IsSpecial(),
		})
	}
	return rec
}
