package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecondaryPath_Ranking(t *testing.T) {
	t.Run("good-enough", func(t *testing.T) {
		tests := []struct {
			name                 string
			stored               bool
			advancement, penalty int
			candAdv, candPenalty int
			want                 bool
		}{
			{"пустой слот", false, 0, 0, 10, 100, true},
			{"большее продвижение", true, 10, 0, 11, 100, true},
			{"меньшее продвижение", true, 10, 0, 9, 0, false},
			{"равное продвижение, меньший штраф", true, 10, 5, 10, 4, true},
			{"равное продвижение, равный штраф", true, 10, 5, 10, 5, false},
			{"равное продвижение, больший штраф", true, 10, 5, 10, 6, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var p secondaryPath
				if tt.stored {
					p.store(make([]PlannedStep, 2), tt.advancement, tt.penalty)
				}
				assert.Equal(t, tt.want, p.acceptsGoodEnough(tt.candAdv, tt.candPenalty))
			})
		}
	})

	t.Run("last-resort", func(t *testing.T) {
		var p secondaryPath
		assert.True(t, p.acceptsLastResort(1000), "Пустой слот принимает любой путь")
		p.store(make([]PlannedStep, 3), 0, 50)
		assert.True(t, p.acceptsLastResort(49))
		assert.False(t, p.acceptsLastResort(50), "Равный штраф не заменяет путь")
		assert.False(t, p.acceptsLastResort(51))
	})

	t.Run("clear", func(t *testing.T) {
		var p secondaryPath
		p.store(make([]PlannedStep, 3), 7, 1)
		p.clear()
		assert.False(t, p.valid)
		assert.Empty(t, p.steps)
	})
}

func TestSaveGoodEnoughPath(t *testing.T) {
	w := newTestWorld(t, corridorMap)
	ctx := NewPredictionContext(w.services, DefaultSettings())
	ctx.beginSearch(w.request(w.level.Spawn(), -1, 0))
	for i := 0; i < 3; i++ {
		ctx.topOfStackIndex++
		ctx.pushStep()
	}

	assert.False(t, ctx.SaveGoodEnoughPath(0, 0), "Без продвижения путь не сохраняется")
	assert.True(t, ctx.SaveGoodEnoughPath(20, 3))
	assert.Len(t, ctx.goodEnoughPath.steps, 4, "Путь включает текущий шаг")
	assert.False(t, ctx.SaveGoodEnoughPath(20, 3))
	assert.True(t, ctx.SaveGoodEnoughPath(20, 1))
	assert.True(t, ctx.HasSecondaryPath())

	// Сохранённая копия не зависит от дальнейших изменений стека
	ctx.steps.at(0).Record.ForwardMovement = -1
	assert.Zero(t, ctx.goodEnoughPath.steps[0].Record.ForwardMovement)

	assert.True(t, ctx.substituteSecondaryPath())
	assert.True(t, ctx.IsCompleted())
	assert.Equal(t, PlanGoodEnough, ctx.substitutedSource)
}
