// Package sequencer reorders a stream of sequence-numbered frames arriving
// out of order on one SPSC ring into a strictly monotonic, gap-free,
// duplicate-free stream on another, tolerating bounded reordering within a
// fixed-size gap buffer.
package sequencer

import (
	"github.com/rishav/exchanged/internal/frame"
	"github.com/rishav/exchanged/internal/ring"
)

// Stats counts the drop reasons called out in the error taxonomy, so an
// operator can tell a healthy feed from one overrunning the reorder window.
type Stats struct {
	WindowExceeded uint64 // slot collision on a future sequence number
	LateDuplicate  uint64 // s < next_expected
}

// Sequencer holds the gap-buffer reorder state for one input/output ring
// pair. It is not safe for concurrent use — exactly one goroutine drives
// RunOnce.
type Sequencer struct {
	in  *ring.Ring
	out *ring.Ring

	window   uint64 // W, power of two
	mask     uint64
	expected uint64 // next_expected, starts at 1

	slots    []frame.Event
	occupied []bool

	buf   []byte
	Stats Stats
}

// New builds a sequencer reading from in and publishing to out, with a
// reorder window of the given size (must be a power of two).
func New(in, out *ring.Ring, window int) *Sequencer {
	if window <= 0 || window&(window-1) != 0 {
		panic("sequencer: window must be a power of two")
	}
	return &Sequencer{
		in:       in,
		out:      out,
		window:   uint64(window),
		mask:     uint64(window - 1),
		expected: 1,
		slots:    make([]frame.Event, window),
		occupied: make([]bool, window),
		buf:      make([]byte, frame.MaxSize),
	}
}

// NextExpected reports the next sequence number the sequencer has not yet
// emitted. Exposed for tests.
func (s *Sequencer) NextExpected() uint64 { return s.expected }

// RunOnce performs exactly one step of the algorithm in §4.2: pop at most
// one input message, classify it against next_expected, and either publish,
// buffer, or drop it. It never blocks: on an empty input it returns false
// ("idle") immediately so the caller can apply its own backoff policy; the
// sequencer itself never sleeps.
//
// Publish is retried until it succeeds — RunOnce only returns once the
// message (and any buffered run it unblocks) has been durably handed to the
// output ring, so next_expected never advances without a successful
// publish.
func (s *Sequencer) RunOnce() bool {
	n, err := s.in.Pop(s.buf)
	if err != nil {
		return false // idle
	}
	ev, decErr := frame.Decode(s.buf[:n])
	if decErr != nil {
		return true // protocol violation: dropped silently, not counted in Stats
	}

	seq := ev.Seq
	switch {
	case seq == s.expected:
		s.publish(s.buf[:n])
		s.expected++
		s.drainBuffered()

	case seq > s.expected:
		i := seq & s.mask
		if !s.occupied[i] {
			s.slots[i] = ev
			s.occupied[i] = true
		} else {
			s.Stats.WindowExceeded++
		}

	default: // seq < s.expected
		s.Stats.LateDuplicate++
	}
	return true
}

// drainBuffered collapses any run of previously-buffered messages that the
// just-closed gap now makes eligible, re-encoding each from its decoded
// form since the raw bytes were not retained in the gap buffer.
func (s *Sequencer) drainBuffered() {
	for {
		i := s.expected & s.mask
		if !s.occupied[i] {
			return
		}
		ev := s.slots[i]
		s.occupied[i] = false
		s.publish(frame.Encode(ev))
		s.expected++
	}
}

// publish retries indefinitely on a full output ring: the sequencer must
// never lose a message to backpressure.
func (s *Sequencer) publish(item []byte) {
	for s.out.Push(item) == ring.ErrFull {
		// spin; caller's idle-backoff policy does not apply here since we
		// are mid-step with a message in hand, not between input polls.
	}
}
