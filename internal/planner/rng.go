package planner

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Детерминированные псевдослучайные числа: один и тот же поиск с теми же
// входными данными делает те же выборы, в том числе после отката.

func hashValues(values ...uint64) uint64 {
	var buf [8]byte
	d := xxhash.New()
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// random возвращает число в [0, 1), зависящее от кадра, глубины и соли
func (c *PredictionContext) random(salt uint64) float64 {
	h := hashValues(c.botSeed, uint64(c.request.FrameIndex), uint64(c.topOfStackIndex), salt)
	return float64(h>>11) / float64(uint64(1)<<53)
}

// randomInt возвращает число в [0, n)
func (c *PredictionContext) randomInt(salt uint64, n int) int {
	if n <= 1 {
		return 0
	}
	return int(c.random(salt) * float64(n))
}

// PlanFingerprint хеш плана для сравнения результатов поиска
func PlanFingerprint(plan *Plan) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}
	put(uint64(plan.Source))
	for i := range plan.Steps {
		step := &plan.Steps[i]
		r := &step.Record
		put(uint64(step.Timestamp))
		put(uint64(step.StepMillis))
		put(uint64(uint8(r.ForwardMovement)) | uint64(uint8(r.RightMovement))<<8 | uint64(uint8(r.UpMovement))<<16)
		dir := r.IntendedLookDir()
		put(uint64(int64(dir.X*1e4)) ^ uint64(int64(dir.Y*1e4))<<20 ^ uint64(int64(dir.Z*1e4))<<40)
		o := step.State.EntityPhysicsState.Origin()
		put(uint64(int64(o.X*16)) ^ uint64(int64(o.Y*16))<<21 ^ uint64(int64(o.Z*16))<<42)
		if step.Action != nil {
			put(uint64(step.Action.Kind()))
		}
	}
	return d.Sum64()
}
