// Package ring implements a lock-free, bounded, single-producer/single-consumer
// FIFO queue of fixed-size byte frames, used to hand work between the pinned
// pipeline stages without locks or dynamic allocation on the hot path.
package ring

import (
	"fmt"
	"sync/atomic"
)

const cacheLinePad = 64

// ErrFull is returned by Push when the ring has no free slot.
var ErrFull = fmt.Errorf("ring: full")

// ErrEmpty is returned by Pop when the ring has no published item.
var ErrEmpty = fmt.Errorf("ring: empty")

// slot holds one fixed-size frame plus its used length. Padding keeps
// adjacent slots on separate cache lines so producer writes to slot i don't
// invalidate the consumer's read of slot i-1.
type slot struct {
	data []byte
	n    int
	_    [cacheLinePad]byte
}

// Ring is a bounded SPSC queue of byte frames. Capacity must be a power of
// two. Exactly one goroutine may call Push; exactly one (possibly different)
// goroutine may call Pop — concurrent producers or concurrent consumers are
// undefined behavior, not merely discouraged.
type Ring struct {
	mask uint64

	// head/tail live on their own cache lines: the consumer only ever
	// writes head, the producer only ever writes tail, so false sharing
	// between the two hot counters is eliminated.
	head atomic.Uint64
	_    [cacheLinePad - 8]byte
	tail atomic.Uint64
	_    [cacheLinePad - 8]byte

	slots []slot
}

// New builds a ring with room for capacity frames, each up to itemSize bytes.
// Panics if capacity is not a power of two.
func New(capacity int, itemSize int) *Ring {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two")
	}
	r := &Ring{
		mask:  uint64(capacity - 1),
		slots: make([]slot, capacity),
	}
	for i := range r.slots {
		r.slots[i].data = make([]byte, itemSize)
	}
	return r
}

// Push copies item into the next slot. Producer-only. Returns ErrFull
// without blocking if the ring has no free slot, and ErrFull if item is
// larger than the slot size — the caller's frame never gets split.
func (r *Ring) Push(item []byte) error {
	tail := r.tail.Load()
	head := r.head.Load() // acquire: must see consumer's completed pops
	if tail-head >= uint64(len(r.slots)) {
		return ErrFull
	}
	s := &r.slots[tail&r.mask]
	if len(item) > len(s.data) {
		return ErrFull
	}
	n := copy(s.data, item)
	s.n = n
	r.tail.Store(tail + 1) // release: publishes the payload write above
	return nil
}

// Pop copies the oldest published frame into dst and returns the number of
// bytes written. Consumer-only. Returns ErrEmpty without blocking if no
// frame has been published yet.
func (r *Ring) Pop(dst []byte) (int, error) {
	head := r.head.Load()
	tail := r.tail.Load() // acquire: must see producer's completed payload write
	if head == tail {
		return 0, ErrEmpty
	}
	s := &r.slots[head&r.mask]
	n := copy(dst, s.data[:s.n])
	r.head.Store(head + 1) // release: tells the producer this slot is free
	return n, nil
}

// Len returns the number of items currently queued. Safe to call from either
// side for diagnostics; the value is inherently racy with respect to
// concurrent Push/Pop.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int { return len(r.slots) }
