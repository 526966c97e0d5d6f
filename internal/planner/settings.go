package planner

import (
	"github.com/annel0/botplanner/internal/aas"
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

// StepMillisRule длительность шага для глубины стека меньше BelowDepth
type StepMillisRule struct {
	BelowDepth int
	Millis     int
}

// Settings параметры поиска
type Settings struct {
	// StackCapacity жёсткая ёмкость спекулятивного стека
	StackCapacity int
	// MaxSimulatedSteps предел вызовов движка за один поиск
	MaxSimulatedSteps int
	// StepMillis расписание длительности шагов по глубине
	StepMillis []StepMillisRule
	// DefaultStepMillis длительность шага глубже всех правил расписания
	DefaultStepMillis int
	// CachedPlanOriginTolerance допустимое расхождение позиции с кешированным планом
	CachedPlanOriginTolerance float64
	// CachedPlanVelocityTolerance допустимое расхождение скорости с кешированным планом
	CachedPlanVelocityTolerance float64
	// TriggerRadius радиус поиска ближайших триггеров
	TriggerRadius float64
	// CollisionRegionExtent полуразмер региона кешей столкновений
	CollisionRegionExtent float64
}

// DefaultSettings параметры по умолчанию
func DefaultSettings() Settings {
	return Settings{
		StackCapacity:     32,
		MaxSimulatedSteps: 192,
		StepMillis: []StepMillisRule{
			{BelowDepth: 4, Millis: 16},
			{BelowDepth: 12, Millis: 32},
		},
		DefaultStepMillis:           48,
		CachedPlanOriginTolerance:   8,
		CachedPlanVelocityTolerance: 24,
		TriggerRadius:               384,
		CollisionRegionExtent:       512,
	}
}

func (s *Settings) stepMillisFor(depth int) int {
	for _, rule := range s.StepMillis {
		if depth < rule.BelowDepth {
			return rule.Millis
		}
	}
	if s.DefaultStepMillis > 0 {
		return s.DefaultStepMillis
	}
	return 48
}

func (s *Settings) normalize() {
	def := DefaultSettings()
	if s.StackCapacity < 2 {
		s.StackCapacity = def.StackCapacity
	}
	if s.MaxSimulatedSteps <= 0 {
		s.MaxSimulatedSteps = def.MaxSimulatedSteps
	}
	if len(s.StepMillis) == 0 && s.DefaultStepMillis <= 0 {
		s.StepMillis = def.StepMillis
		s.DefaultStepMillis = def.DefaultStepMillis
	}
	if s.CachedPlanOriginTolerance <= 0 {
		s.CachedPlanOriginTolerance = def.CachedPlanOriginTolerance
	}
	if s.CachedPlanVelocityTolerance <= 0 {
		s.CachedPlanVelocityTolerance = def.CachedPlanVelocityTolerance
	}
	if s.TriggerRadius <= 0 {
		s.TriggerRadius = def.TriggerRadius
	}
	if s.CollisionRegionExtent <= 0 {
		s.CollisionRegionExtent = def.CollisionRegionExtent
	}
}

// Services внешние сервисы уровня. Создаются при загрузке уровня и
// передаются планировщику явно.
type Services struct {
	AAS       aas.World
	Routes    aas.RouteCache
	Collision collision.World
	Mover     mover.Mover
	Entities  *collision.EntitiesCache
}

// Intent тактическое намерение бота на текущий тик
type Intent struct {
	NavTargetAreaNum int
	NavTargetOrigin  vec.Vec3Float
	// TravelFlags разрешённые переходы; 0 означает aas.DefaultTravelFlags
	TravelFlags aas.TravelFlags
	// WeaponJumpWeapon оружие для прыжков с отдачей, 0 запрещает прыжки
	WeaponJumpWeapon int
	// HazardZone зона, куда нельзя входить (например, ожидаемый взрыв)
	HazardZone    physics.AABB
	HasHazardZone bool
}

func (in *Intent) travelFlags() aas.TravelFlags {
	if in.TravelFlags == 0 {
		return aas.DefaultTravelFlags
	}
	return in.TravelFlags
}
