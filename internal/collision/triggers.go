package collision

import (
	"sort"

	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

// TriggerKind класс триггерной сущности
type TriggerKind uint8

const (
	TriggerOther TriggerKind = iota
	TriggerJumppad
	TriggerTeleporter
	TriggerPlatform
)

// String возвращает строковое представление класса
func (k TriggerKind) String() string {
	switch k {
	case TriggerJumppad:
		return "jumppad"
	case TriggerTeleporter:
		return "teleporter"
	case TriggerPlatform:
		return "platform"
	default:
		return "other"
	}
}

// TriggerEntity триггер уровня
type TriggerEntity struct {
	Num    int
	Kind   TriggerKind
	Bounds physics.AABB
	// Target цель прыжка для jumppad или точка выхода для телепорта
	Target vec.Vec3Float
	// PlatformEntNum сущность-платформа, на которой стоит игрок (для TriggerPlatform)
	PlatformEntNum int
	// Velocity текущая скорость движущейся платформы
	Velocity vec.Vec3Float
}

// EntitiesCache классифицированные триггеры уровня. Строится один раз при
// загрузке уровня и живёт до его выгрузки.
type EntitiesCache struct {
	jumppads    []TriggerEntity
	teleporters []TriggerEntity
	platforms   []TriggerEntity
	byNum       map[int]int
}

// NewEntitiesCache создаёт пустой кеш
func NewEntitiesCache() *EntitiesCache {
	return &EntitiesCache{byNum: make(map[int]int)}
}

// Rebuild перестраивает кеш по списку сущностей уровня; триггеры класса
// TriggerOther игнорируются, они приходят отдельным списком каждый тик
func (c *EntitiesCache) Rebuild(entities []TriggerEntity) {
	c.jumppads = c.jumppads[:0]
	c.teleporters = c.teleporters[:0]
	c.platforms = c.platforms[:0]
	c.byNum = make(map[int]int, len(entities))

	for _, ent := range entities {
		switch ent.Kind {
		case TriggerJumppad:
			c.jumppads = append(c.jumppads, ent)
		case TriggerTeleporter:
			c.teleporters = append(c.teleporters, ent)
		case TriggerPlatform:
			c.platforms = append(c.platforms, ent)
		default:
			continue
		}
		c.byNum[ent.Num] = int(ent.Kind)
	}
	for _, list := range [][]TriggerEntity{c.jumppads, c.teleporters, c.platforms} {
		sort.Slice(list, func(i, j int) bool { return list[i].Num < list[j].Num })
	}
}

// UpdatePlatform обновляет положение и скорость платформы (платформы двигаются)
func (c *EntitiesCache) UpdatePlatform(num int, bounds physics.AABB, velocity vec.Vec3Float) {
	for i := range c.platforms {
		if c.platforms[i].Num == num {
			c.platforms[i].Bounds = bounds
			c.platforms[i].Velocity = velocity
			return
		}
	}
}

// Classify возвращает класс сущности и признак того, что она известна
func (c *EntitiesCache) Classify(num int) (TriggerKind, bool) {
	kind, ok := c.byNum[num]
	return TriggerKind(kind), ok
}

// Jumppads все jumppad-триггеры
func (c *EntitiesCache) Jumppads() []TriggerEntity { return c.jumppads }

// Teleporters все телепорты
func (c *EntitiesCache) Teleporters() []TriggerEntity { return c.teleporters }

// Platforms все платформы
func (c *EntitiesCache) Platforms() []TriggerEntity { return c.platforms }

// PlatformByEntNum ищет платформу по номеру сущности-платформы
func (c *EntitiesCache) PlatformByEntNum(entNum int) (TriggerEntity, bool) {
	for _, p := range c.platforms {
		if p.PlatformEntNum == entNum {
			return p, true
		}
	}
	return TriggerEntity{}, false
}

// MaxNearbyPerKind ограничение размера каждого списка ближайших триггеров
const MaxNearbyPerKind = 16

// NearbyTriggersCache ближайшие к боту триггеры, пересчитываемые раз в реальный тик
type NearbyTriggersCache struct {
	Jumppads    []TriggerEntity
	Teleporters []TriggerEntity
	Platforms   []TriggerEntity
	Others      []TriggerEntity

	lastOrigin vec.Vec3Float
	lastRadius float64
	lastFrame  int64
	computed   bool
}

// NewNearbyTriggersCache создаёт кеш ближайших триггеров
func NewNearbyTriggersCache() *NearbyTriggersCache {
	return &NearbyTriggersCache{
		Jumppads:    make([]TriggerEntity, 0, MaxNearbyPerKind),
		Teleporters: make([]TriggerEntity, 0, MaxNearbyPerKind),
		Platforms:   make([]TriggerEntity, 0, MaxNearbyPerKind),
		Others:      make([]TriggerEntity, 0, MaxNearbyPerKind),
	}
}

// Update сужает списки до триггеров в сфере radius вокруг origin.
// Повторный вызов в том же кадре с тем же регионом ничего не пересчитывает.
func (c *NearbyTriggersCache) Update(frame int64, origin vec.Vec3Float, radius float64, entities *EntitiesCache, others []TriggerEntity) {
	if c.computed && c.lastFrame == frame && c.lastOrigin == origin && c.lastRadius == radius {
		return
	}
	c.lastFrame = frame
	c.lastOrigin = origin
	c.lastRadius = radius
	c.computed = true

	c.Jumppads = collectNearby(c.Jumppads[:0], entities.Jumppads(), origin, radius)
	c.Teleporters = collectNearby(c.Teleporters[:0], entities.Teleporters(), origin, radius)
	c.Platforms = collectNearby(c.Platforms[:0], entities.Platforms(), origin, radius)
	c.Others = collectNearby(c.Others[:0], others, origin, radius)
}

func collectNearby(out, candidates []TriggerEntity, origin vec.Vec3Float, radius float64) []TriggerEntity {
	for _, ent := range candidates {
		if len(out) == MaxNearbyPerKind {
			break
		}
		if ent.Bounds.IntersectsSphere(origin, radius) {
			out = append(out, ent)
		}
	}
	return out
}

// TouchedTriggers триггеры, которых коснулся игрок за шаг
type TouchedTriggers struct {
	JumppadNum    int
	TeleporterNum int
	PlatformNum   int
	OtherNum      int
}

// Clear сбрасывает касания
func (t *TouchedTriggers) Clear() {
	*t = TouchedTriggers{}
}

// Any сообщает о наличии хотя бы одного касания
func (t *TouchedTriggers) Any() bool {
	return t.JumppadNum != 0 || t.TeleporterNum != 0 || t.PlatformNum != 0 || t.OtherNum != 0
}

// Touch записывает касания ближайших триггеров объёмом box
func (c *NearbyTriggersCache) Touch(box physics.AABB, touched *TouchedTriggers) {
	if num := firstTouched(c.Jumppads, box); num != 0 {
		touched.JumppadNum = num
	}
	if num := firstTouched(c.Teleporters, box); num != 0 {
		touched.TeleporterNum = num
	}
	if num := firstTouched(c.Platforms, box); num != 0 {
		touched.PlatformNum = num
	}
	if num := firstTouched(c.Others, box); num != 0 {
		touched.OtherNum = num
	}
}

func firstTouched(list []TriggerEntity, box physics.AABB) int {
	for _, ent := range list {
		if ent.Bounds.Intersects(box) {
			return ent.Num
		}
	}
	return 0
}

// Find ищет ближайший триггер по номеру
func (c *NearbyTriggersCache) Find(num int) (TriggerEntity, bool) {
	for _, list := range [][]TriggerEntity{c.Jumppads, c.Teleporters, c.Platforms, c.Others} {
		for _, ent := range list {
			if ent.Num == num {
				return ent, true
			}
		}
	}
	return TriggerEntity{}, false
}
