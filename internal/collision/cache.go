package collision

import (
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

// NodeCache кеш ближайшего узла BSP для региона планирования.
// Пересчитывается только при выходе запрошенного региона за кешированный.
type NodeCache struct {
	world   World
	bounds  physics.AABB
	node    int
	valid   bool
	margin  float64
	queries int
	misses  int
}

// NewNodeCache создаёт кеш узлов; margin расширяет кешированный регион
func NewNodeCache(world World, margin float64) *NodeCache {
	return &NodeCache{world: world, margin: margin}
}

// Get возвращает узел, содержащий регион
func (c *NodeCache) Get(region physics.AABB) int {
	c.queries++
	if c.valid && c.bounds.Contains(region) {
		return c.node
	}
	c.misses++
	c.bounds = region.Expanded(c.margin)
	c.node = c.world.FindTopNodeForBox(c.bounds.Mins, c.bounds.Maxs)
	c.valid = true
	return c.node
}

// Invalidate сбрасывает кеш (например, при загрузке уровня)
func (c *NodeCache) Invalidate() {
	c.valid = false
}

// Stats возвращает число запросов и промахов
func (c *NodeCache) Stats() (queries, misses int) {
	return c.queries, c.misses
}

// ShapeListCache кеш отсечённого списка коллизионных форм вокруг региона
type ShapeListCache struct {
	world  World
	bounds physics.AABB
	list   ShapeList
	valid  bool
	margin float64
	misses int
}

// NewShapeListCache создаёт кеш списков форм
func NewShapeListCache(world World, margin float64) *ShapeListCache {
	return &ShapeListCache{world: world, margin: margin}
}

// Get возвращает список форм, покрывающий регион
func (c *ShapeListCache) Get(region physics.AABB) ShapeList {
	if c.valid && c.bounds.Contains(region) {
		return c.list
	}
	c.misses++
	c.bounds = region.Expanded(c.margin)
	possible := c.world.PossibleShapeList(c.bounds.Mins, c.bounds.Maxs)
	c.list = c.world.ClipShapeList(possible, c.bounds.Mins, c.bounds.Maxs)
	c.valid = true
	return c.list
}

// Invalidate сбрасывает кеш
func (c *ShapeListCache) Invalidate() {
	c.valid = false
	c.list = nil
}

// Misses число пересчётов
func (c *ShapeListCache) Misses() int {
	return c.misses
}

// RegionAround регион планирования вокруг точки
func RegionAround(origin vec.Vec3Float, extent float64) physics.AABB {
	e := vec.Vec3Float{X: extent, Y: extent, Z: extent}
	return physics.AABB{Mins: origin.Sub(e), Maxs: origin.Add(e)}
}
