package planner

import (
	"testing"

	"github.com/annel0/botplanner/internal/movement"
	"github.com/stretchr/testify/assert"
)

const wallSplitMap = `
#######
#S.#..#
#######
`

func TestScriptStatus_Walkability(t *testing.T) {
	w := newTestWorld(t, wallSplitMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())
	spawn := w.level.Spawn()

	cases := []struct {
		name string
		kind movement.ScriptKind
		col  int
		want movement.ScriptStatus
	}{
		{"узел за стеной", movement.ScriptWalkToNode, 4, movement.ScriptInvalid},
		{"узел в проходе", movement.ScriptWalkToNode, 2, movement.ScriptPending},
		{"триггер за стеной", movement.ScriptUseWalkableTrigger, 5, movement.ScriptInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := w.request(spawn, -1, 0)
			req.MovementState.Script.Activate(tc.kind, spawn, w.level.CellCenter(tc.col, 1), 0, 1000)
			req.MovementState.Script.TriggerNum = 99
			ctx.beginSearch(req)
			assert.Equal(t, tc.want, scriptStatus(ctx, &ctx.MovementState().Script))
		})
	}

	t.Run("точка толчка за стеной", func(t *testing.T) {
		req := w.request(spawn, -1, 0)
		script := &req.MovementState.Script
		script.Activate(movement.ScriptJumpToSpot, spawn, w.level.CellCenter(5, 1), 0, 1000)
		script.Waypoint = w.level.CellCenter(4, 1)
		ctx.beginSearch(req)
		assert.Equal(t, movement.ScriptInvalid, scriptStatus(ctx, &ctx.MovementState().Script),
			"Прыжок, до места толчка которого не дойти, недействителен")

		ctx.MovementState().Script.HasJumped = true
		assert.Equal(t, movement.ScriptPending, scriptStatus(ctx, &ctx.MovementState().Script),
			"После толчка проходимость уже не проверяется")
	})
}
