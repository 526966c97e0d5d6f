package planner

import (
	"github.com/annel0/botplanner/internal/collision"
	"github.com/annel0/botplanner/internal/mover"
	"github.com/annel0/botplanner/internal/physics"
	"github.com/annel0/botplanner/internal/vec"
)

const maxFrameEvents = 8

// FrameEvents события и касания триггеров одного симулированного шага
type FrameEvents struct {
	Touched collision.TouchedTriggers

	events    [maxFrameEvents]mover.Event
	numEvents int
}

// Clear сбрасывает события шага
func (e *FrameEvents) Clear() {
	e.Touched.Clear()
	e.numEvents = 0
}

func (e *FrameEvents) add(ev mover.Event) {
	if e.numEvents < maxFrameEvents {
		e.events[e.numEvents] = ev
		e.numEvents++
	}
}

// Events события шага
func (e *FrameEvents) Events() []mover.Event {
	return e.events[:e.numEvents]
}

func (e *FrameEvents) has(kind mover.EventKind) bool {
	for i := 0; i < e.numEvents; i++ {
		if e.events[i].Kind == kind {
			return true
		}
	}
	return false
}

// HasJumped был ли прыжок
func (e *FrameEvents) HasJumped() bool { return e.has(mover.EventJump) || e.has(mover.EventDoubleJump) }

// HasDashed был ли рывок
func (e *FrameEvents) HasDashed() bool { return e.has(mover.EventDash) }

// HasWallJumped был ли отскок от стены
func (e *FrameEvents) HasWallJumped() bool { return e.has(mover.EventWallJump) }

// HasFallDamage был ли урон от падения
func (e *FrameEvents) HasFallDamage() bool { return e.has(mover.EventFallDamage) }

// predictionHooks перехватывает обратные вызовы движка и пишет в буферы контекста
type predictionHooks struct {
	events *FrameEvents
	nearby *collision.NearbyTriggersCache
}

func (h predictionHooks) OnEvent(ev mover.Event) {
	h.events.add(ev)
}

func (h predictionHooks) OnTouchTriggers(ps *mover.PlayerState, prevOrigin vec.Vec3Float) {
	box := physics.SweptBox(prevOrigin, ps.Origin, ps.Mins, ps.Maxs)
	h.nearby.Touch(box, &h.events.Touched)
}
