package aas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// tableRoutes маршруты из таблицы [from][to] -> {время, ребро}
type tableRoutes map[[2]int][2]int

func (r tableRoutes) FindRoute(from, to int, _ TravelFlags) (int, int) {
	v := r[[2]int{from, to}]
	return v[0], v[1]
}

func (r tableRoutes) AreaDisabled(int) bool { return false }

func TestFindRoute2(t *testing.T) {
	routes := tableRoutes{
		{1, 9}: {300, 11},
		{2, 9}: {120, 22},
		{3, 9}: {0, 0},
	}

	cases := []struct {
		name         string
		from, from2  int
		wantTime     int
		wantReachNum int
	}{
		{"лучшая из двух", 1, 2, 120, 22},
		{"вторая без маршрута", 1, 3, 300, 11},
		{"первая не задана", 0, 2, 120, 22},
		{"одинаковые", 1, 1, 300, 11},
		{"нет маршрута", 3, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			travelTime, reach := FindRoute2(routes, tc.from, tc.from2, 9, DefaultTravelFlags)
			assert.Equal(t, tc.wantTime, travelTime)
			assert.Equal(t, tc.wantReachNum, reach)
		})
	}
}

func TestTravelFlags(t *testing.T) {
	assert.NotZero(t, DefaultTravelFlags&TravelFlagOf(TravelWalk))
	assert.Equal(t, 1500, CentisToMillis(150))
}
