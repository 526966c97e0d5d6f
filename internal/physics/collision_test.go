package physics

import (
	"testing"

	"github.com/annel0/botplanner/internal/vec"
	"github.com/stretchr/testify/assert"
)

func TestAABB_Basics(t *testing.T) {
	box := NewAABB(vec.V3(10, 10, 10), vec.V3(-10, -10, -10))

	assert.Equal(t, vec.V3(-10, -10, -10), box.Mins, "углы должны упорядочиваться")
	assert.True(t, box.IsPointInside(vec.V3(0, 0, 0)))
	assert.False(t, box.IsPointInside(vec.V3(11, 0, 0)))
	assert.Equal(t, vec.V3(20, 20, 20), box.Size())
}

func TestAABB_IntersectsAndContains(t *testing.T) {
	a := NewAABB(vec.V3(0, 0, 0), vec.V3(10, 10, 10))
	b := NewAABB(vec.V3(5, 5, 5), vec.V3(15, 15, 15))
	c := NewAABB(vec.V3(20, 20, 20), vec.V3(30, 30, 30))

	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
	assert.True(t, a.Expanded(10).Contains(b))
	assert.False(t, a.Contains(b))
	assert.True(t, a.Union(c).Contains(b))
}

func TestAABB_Sphere(t *testing.T) {
	box := NewAABB(vec.V3(0, 0, 0), vec.V3(10, 10, 10))

	assert.Equal(t, 0.0, box.SquareDistanceToPoint(vec.V3(5, 5, 5)))
	assert.Equal(t, 25.0, box.SquareDistanceToPoint(vec.V3(15, 5, 5)))
	assert.True(t, box.IntersectsSphere(vec.V3(15, 5, 5), 5))
	assert.False(t, box.IntersectsSphere(vec.V3(15, 5, 5), 4.9))
}

func TestSweptBox(t *testing.T) {
	mins, maxs := vec.V3(-16, -16, -24), vec.V3(16, 16, 40)
	swept := SweptBox(vec.V3(0, 0, 0), vec.V3(100, 0, 0), mins, maxs)

	assert.Equal(t, -16.0, swept.Mins.X)
	assert.Equal(t, 116.0, swept.Maxs.X)
	assert.Equal(t, 40.0, swept.Maxs.Z)
}
