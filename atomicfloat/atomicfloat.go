// Package atomicfloat provides a lock-free float64 for the solve package's
// parallel value-iteration sweep: many workers computing Bellman updates
// concurrently need to track a shared convergence delta without a mutex.
package atomicfloat

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicFloat64 encapsulates a float64 for non-locking atomic operations,
// via a CompareAndSwap loop over its bit pattern. The critical region is
// kept to the width of a single CAS attempt; no unsafe pointer derived
// here outlives this file's functions.
type AtomicFloat64 struct {
	val float64
}

// NewAtomicFloat64 wraps val for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	return &AtomicFloat64{val: val}
}

// AtomicRead atomically reads the float64, synchronized with main memory.
func (af *AtomicFloat64) AtomicRead() float64 {
	bits := atomic.LoadUint64((*uint64)(unsafe.Pointer(&af.val)))
	return math.Float64frombits(bits)
}

// AtomicAdd makes a single compare-and-swap attempt to add addend. Returns
// the value it tried to store and whether the swap succeeded; on a racing
// writer it fails without retrying, so callers loop until succeeded.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.AtomicRead()
	newVal = old + addend
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&af.val)),
		math.Float64bits(old),
		math.Float64bits(newVal))
	return
}

// AtomicSet atomically sets the value, returning true on success. Callers
// that need an unconditional set should retry on failure themselves, the
// same way the package's tests drive AtomicAdd to completion.
func (af *AtomicFloat64) AtomicSet(newVal float64) (succeeded bool) {
	old := af.AtomicRead()
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&af.val)),
		math.Float64bits(old),
		math.Float64bits(newVal))
	return
}

// TrackMax atomically updates af to candidate if candidate is larger than
// af's current value, retrying under contention. Used by value iteration
// to reduce the sweep's max Bellman-delta across workers without a mutex.
func (af *AtomicFloat64) TrackMax(candidate float64) {
	for {
		old := af.AtomicRead()
		if candidate <= old {
			return
		}
		if atomic.CompareAndSwapUint64(
			(*uint64)(unsafe.Pointer(&af.val)),
			math.Float64bits(old),
			math.Float64bits(candidate)) {
			return
		}
	}
}
