// Package aas описывает контракт навигационного графа уровня (AAS) и кеша
// маршрутов. Для планировщика это оракул только для чтения.
package aas

import (
	"github.com/annel0/botplanner/internal/vec"
)

// AreaFlags флаги области
type AreaFlags uint32

const (
	AreaGrounded AreaFlags = 1 << iota
	AreaLadder
	AreaLiquid
	AreaDisabled
	AreaNoFall
	AreaJunk
	AreaInclinedFloor
	AreaLedge
	AreaWall
	AreaSkipCollision
)

// AreaContents содержимое области
type AreaContents uint32

const (
	ContentsWater AreaContents = 1 << iota
	ContentsLava
	ContentsSlime
	ContentsDoNotEnter
	ContentsJumppad
	ContentsTeleporter
	ContentsMover
)

// TravelType тип перехода по ребру достижимости
type TravelType uint8

const (
	TravelInvalid TravelType = iota
	TravelWalk
	TravelCrouch
	TravelBarrierJump
	TravelJump
	TravelLadder
	TravelWalkOffLedge
	TravelSwim
	TravelWaterJump
	TravelTeleport
	TravelElevator
	TravelRocketJump
	TravelJumppad
	TravelDoubleJump
	TravelRampJump
	TravelStrafeJump
)

var travelTypeNames = [...]string{
	"invalid", "walk", "crouch", "barrierjump", "jump", "ladder", "walkoffledge",
	"swim", "waterjump", "teleport", "elevator", "rocketjump", "jumppad",
	"doublejump", "rampjump", "strafejump",
}

// String возвращает строковое представление типа перехода
func (t TravelType) String() string {
	if int(t) < len(travelTypeNames) {
		return travelTypeNames[t]
	}
	return "unknown"
}

// TravelFlags маска разрешённых типов перехода при поиске маршрута
type TravelFlags uint32

// TravelFlagOf возвращает флаг типа перехода
func TravelFlagOf(t TravelType) TravelFlags {
	return 1 << t
}

// DefaultTravelFlags переходы, доступные обычному боту
const DefaultTravelFlags = TravelFlags(1<<TravelWalk | 1<<TravelCrouch | 1<<TravelBarrierJump |
	1<<TravelJump | 1<<TravelLadder | 1<<TravelWalkOffLedge | 1<<TravelSwim |
	1<<TravelWaterJump | 1<<TravelTeleport | 1<<TravelElevator | 1<<TravelJumppad |
	1<<TravelDoubleJump | 1<<TravelRampJump | 1<<TravelStrafeJump)

// Area геометрия области
type Area struct {
	Mins   vec.Vec3Float
	Maxs   vec.Vec3Float
	Center vec.Vec3Float
}

// AreaSettings свойства области
type AreaSettings struct {
	Flags             AreaFlags
	Contents          AreaContents
	FirstReachability int
	NumReachabilities int
}

// Reachability направленное ребро достижимости между областями
type Reachability struct {
	AreaNum    int // целевая область
	Start      vec.Vec3Float
	End        vec.Vec3Float
	TravelType TravelType
	TravelTime int // сотые доли секунды
}

// World навигационный граф уровня. Все запросы дешёвые и только для чтения.
// Номер области 0 означает «нет области».
type World interface {
	NumAreas() int
	Area(num int) Area
	AreaSettings(num int) AreaSettings
	Reachability(num int) Reachability
	// FindAreaNum возвращает область, содержащую точку, или 0
	FindAreaNum(origin vec.Vec3Float) int
	AreaFloorClusterNum(num int) int
	AreaStairsClusterNum(num int) int
	// BBoxAreas дописывает в out области, пересекающие объём
	BBoxAreas(mins, maxs vec.Vec3Float, out []int) []int
	// TraceAreas дописывает в out последовательность областей вдоль отрезка
	TraceAreas(start, end vec.Vec3Float, out []int) []int
}

// RouteCache кеш маршрутов между областями
type RouteCache interface {
	// FindRoute возвращает время пути в сотых долях секунды и номер
	// следующего ребра; 0 означает, что маршрута нет.
	// Для fromArea == toArea возвращается время 1 и ребро 0
	FindRoute(fromArea, toArea int, travelFlags TravelFlags) (travelTime int, reachNum int)
	// AreaDisabled сообщает, отключена ли область для маршрутизации
	AreaDisabled(areaNum int) bool
}

// FindRoute2 выбирает лучший маршрут из двух стартовых областей
func FindRoute2(rc RouteCache, fromArea, fromArea2, toArea int, travelFlags TravelFlags) (int, int) {
	bestTime, bestReach := 0, 0
	for _, from := range [2]int{fromArea, fromArea2} {
		if from == 0 {
			continue
		}
		travelTime, reach := rc.FindRoute(from, toArea, travelFlags)
		if travelTime != 0 && (bestTime == 0 || travelTime < bestTime) {
			bestTime, bestReach = travelTime, reach
		}
		if fromArea2 == fromArea {
			break
		}
	}
	return bestTime, bestReach
}

// CentisToMillis переводит время пути в миллисекунды
func CentisToMillis(travelTime int) int {
	return travelTime * 10
}
