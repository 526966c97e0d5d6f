package sim

import (
	"container/heap"
	"sync"

	"github.com/annel0/botplanner/internal/aas"
)

var _ aas.RouteCache = (*RouteCache)(nil)

type routeKey struct {
	to    int
	flags aas.TravelFlags
}

type routeTable struct {
	travelTime []int
	nextReach  []int
}

// RouteCache кеш кратчайших маршрутов к области. Таблица для каждой пары
// (цель, флаги) строится алгоритмом Дейкстры по обратным рёбрам при первом
// запросе. Безопасен для конкурентного использования.
type RouteCache struct {
	level *Level

	mu       sync.RWMutex
	tables   map[routeKey]*routeTable
	disabled map[int]bool
}

// NewRouteCache создаёт кеш маршрутов уровня
func NewRouteCache(level *Level) *RouteCache {
	return &RouteCache{
		level:    level,
		tables:   make(map[routeKey]*routeTable),
		disabled: make(map[int]bool),
	}
}

// SetAreaDisabled отключает область для маршрутизации и сбрасывает таблицы
func (r *RouteCache) SetAreaDisabled(areaNum int, disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if disabled {
		r.disabled[areaNum] = true
	} else {
		delete(r.disabled, areaNum)
	}
	r.tables = make(map[routeKey]*routeTable)
}

// AreaDisabled отключена ли область для маршрутов
func (r *RouteCache) AreaDisabled(areaNum int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isDisabledLocked(areaNum)
}

func (r *RouteCache) isDisabledLocked(areaNum int) bool {
	if r.disabled[areaNum] {
		return true
	}
	return r.level.AreaSettings(areaNum).Flags&aas.AreaDisabled != 0
}

// FindRoute время пути и первое ребро маршрута
func (r *RouteCache) FindRoute(fromArea, toArea int, travelFlags aas.TravelFlags) (int, int) {
	n := r.level.NumAreas()
	if fromArea <= 0 || toArea <= 0 || fromArea > n || toArea > n {
		return 0, 0
	}
	if fromArea == toArea {
		return 1, 0
	}
	table := r.table(toArea, travelFlags)
	return table.travelTime[fromArea], table.nextReach[fromArea]
}

func (r *RouteCache) table(toArea int, flags aas.TravelFlags) *routeTable {
	key := routeKey{to: toArea, flags: flags}
	r.mu.RLock()
	table, ok := r.tables[key]
	r.mu.RUnlock()
	if ok {
		return table
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if table, ok = r.tables[key]; ok {
		return table
	}
	table = r.buildTable(toArea, flags)
	r.tables[key] = table
	return table
}

func (r *RouteCache) buildTable(toArea int, flags aas.TravelFlags) *routeTable {
	l := r.level
	n := l.NumAreas()
	table := &routeTable{travelTime: make([]int, n+1), nextReach: make([]int, n+1)}
	dist := make([]int, n+1)
	for i := range dist {
		dist[i] = -1
	}
	dist[toArea] = 0

	pq := &routeQueue{{area: toArea}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(routeItem)
		if item.dist != dist[item.area] {
			continue
		}
		for _, reachNum := range l.incoming[item.area] {
			reach := l.Reachability(reachNum)
			if flags&aas.TravelFlagOf(reach.TravelType) == 0 {
				continue
			}
			from := l.reachSource(reachNum)
			if from == 0 || (from != toArea && r.isDisabledLocked(from)) {
				continue
			}
			d := item.dist + max(reach.TravelTime, 1)
			if dist[from] == -1 || d < dist[from] || (d == dist[from] && reachNum < table.nextReach[from]) {
				dist[from] = d
				table.nextReach[from] = reachNum
				heap.Push(pq, routeItem{area: from, dist: d})
			}
		}
	}
	for i := 1; i <= n; i++ {
		if i != toArea && dist[i] > 0 {
			table.travelTime[i] = dist[i]
		}
	}
	return table
}

type routeItem struct {
	area int
	dist int
}

type routeQueue []routeItem

func (q routeQueue) Len() int { return len(q) }
func (q routeQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].area < q[j].area
}
func (q routeQueue) Swap(i, j int)  { q[i], q[j] = q[j], q[i] }
func (q *routeQueue) Push(x any)    { *q = append(*q, x.(routeItem)) }
func (q *routeQueue) Pop() any {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
