package collision

import (
	"testing"

	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingWorld считает обращения к дорогим запросам
type countingWorld struct {
	topNodeCalls  int
	possibleCalls int
	clipCalls     int
}

func (w *countingWorld) FindTopNodeForBox(vec.Vec3Float, vec.Vec3Float) int {
	w.topNodeCalls++
	return w.topNodeCalls
}

func (w *countingWorld) PossibleShapeList(vec.Vec3Float, vec.Vec3Float) ShapeList {
	w.possibleCalls++
	return ShapeList{1, 2, 3}
}

func (w *countingWorld) ClipShapeList(list ShapeList, _, _ vec.Vec3Float) ShapeList {
	w.clipCalls++
	return list[:2]
}

func (w *countingWorld) TraceBox(_, end, _, _ vec.Vec3Float, _ int, _ mover.Contents) Trace {
	return Trace{Fraction: 1, EndPos: end}
}

func (w *countingWorld) TraceAgainstShapes(_ ShapeList, _, end, _, _ vec.Vec3Float, _ mover.Contents) Trace {
	return Trace{Fraction: 1, EndPos: end}
}

func (w *countingWorld) PointContents(vec.Vec3Float) mover.Contents { return 0 }

func TestNodeCache(t *testing.T) {
	world := &countingWorld{}
	cache := NewNodeCache(world, 64)

	first := cache.Get(RegionAround(vec.Zero, 100))
	again := cache.Get(RegionAround(vec.V3(20, 0, 0), 100))
	assert.Equal(t, first, again, "Регион внутри расширенного не пересчитывается")
	assert.Equal(t, 1, world.topNodeCalls)

	cache.Get(RegionAround(vec.V3(1000, 0, 0), 100))
	assert.Equal(t, 2, world.topNodeCalls, "Выход за кешированный регион пересчитывает узел")

	cache.Invalidate()
	cache.Get(RegionAround(vec.V3(1000, 0, 0), 100))
	assert.Equal(t, 3, world.topNodeCalls, "Сброшенный кеш пересчитывается")

	queries, misses := cache.Stats()
	assert.Equal(t, 4, queries)
	assert.Equal(t, 3, misses)
}

func TestShapeListCache(t *testing.T) {
	world := &countingWorld{}
	cache := NewShapeListCache(world, 32)

	list := cache.Get(RegionAround(vec.Zero, 50))
	assert.Equal(t, ShapeList{1, 2}, list, "Возвращается отсечённый список")
	cache.Get(RegionAround(vec.V3(10, 10, 0), 50))
	assert.Equal(t, 1, cache.Misses())
	assert.Equal(t, 1, world.possibleCalls)
	assert.Equal(t, 1, world.clipCalls)

	cache.Invalidate()
	cache.Get(RegionAround(vec.Zero, 50))
	assert.Equal(t, 2, cache.Misses())
}

func trigger(num int, kind TriggerKind, at vec.Vec3Float) TriggerEntity {
	return TriggerEntity{
		Num:    num,
		Kind:   kind,
		Bounds: physics.NewAABB(at.Sub(vec.V3(16, 16, 16)), at.Add(vec.V3(16, 16, 16))),
	}
}

func TestEntitiesCache(t *testing.T) {
	cache := NewEntitiesCache()
	cache.Rebuild([]TriggerEntity{
		trigger(7, TriggerJumppad, vec.V3(500, 0, 0)),
		trigger(3, TriggerJumppad, vec.V3(0, 0, 0)),
		trigger(5, TriggerTeleporter, vec.V3(100, 0, 0)),
		trigger(9, TriggerOther, vec.V3(0, 100, 0)),
		{Num: 11, Kind: TriggerPlatform, PlatformEntNum: 40},
	})

	require.Len(t, cache.Jumppads(), 2)
	assert.Equal(t, 3, cache.Jumppads()[0].Num, "Триггеры упорядочены по номеру")
	assert.Len(t, cache.Teleporters(), 1)

	kind, ok := cache.Classify(5)
	assert.True(t, ok)
	assert.Equal(t, TriggerTeleporter, kind)
	_, ok = cache.Classify(9)
	assert.False(t, ok, "Прочие триггеры не кешируются")

	cache.UpdatePlatform(11, physics.NewAABB(vec.Zero, vec.V3(10, 10, 10)), vec.V3(0, 0, 50))
	platform, ok := cache.PlatformByEntNum(40)
	require.True(t, ok)
	assert.Equal(t, 50.0, platform.Velocity.Z)
	_, ok = cache.PlatformByEntNum(41)
	assert.False(t, ok)
}

func TestNearbyTriggersCache(t *testing.T) {
	entities := NewEntitiesCache()
	entities.Rebuild([]TriggerEntity{
		trigger(1, TriggerJumppad, vec.V3(100, 0, 0)),
		trigger(2, TriggerJumppad, vec.V3(2000, 0, 0)),
		trigger(3, TriggerTeleporter, vec.V3(0, 150, 0)),
	})
	others := []TriggerEntity{trigger(20, TriggerOther, vec.V3(-100, 0, 0))}

	nearby := NewNearbyTriggersCache()
	nearby.Update(1, vec.Zero, 384, entities, others)
	require.Len(t, nearby.Jumppads, 1, "Дальний jumppad отсекается")
	assert.Equal(t, 1, nearby.Jumppads[0].Num)
	assert.Len(t, nearby.Teleporters, 1)
	assert.Len(t, nearby.Others, 1)

	var touched TouchedTriggers
	nearby.Touch(physics.BoxAt(vec.V3(100, 0, 0), vec.V3(-8, -8, -8), vec.V3(8, 8, 8)), &touched)
	assert.True(t, touched.Any())
	assert.Equal(t, 1, touched.JumppadNum)
	assert.Zero(t, touched.TeleporterNum)

	touched.Clear()
	assert.False(t, touched.Any())

	t.Run("повторный вызов в том же кадре", func(t *testing.T) {
		nearby.Update(1, vec.Zero, 384, NewEntitiesCache(), nil)
		assert.Len(t, nearby.Jumppads, 1, "Тот же кадр и регион не пересчитываются")

		nearby.Update(2, vec.Zero, 384, NewEntitiesCache(), nil)
		assert.Empty(t, nearby.Jumppads, "Новый кадр пересчитывает списки")
	})
}
