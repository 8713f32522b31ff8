package orderbook

import "github.com/rishav/exchanged/internal/arena"

// orderNode is the arena-resident record for one resting order. prev/next
// are handles into the same pool rather than pointers, so the arena can be
// reset en masse between sessions without leaving dangling *orderNode
// values anywhere in the book — the doubly-linked list is "intrusive" in
// exactly the sense Design Notes call for, just addressed by handle
// instead of by address.
type orderNode struct {
	id        uint64
	side      Side
	price     int64
	remaining uint32

	levelIdx int // index into Book.levels; the order's back-reference

	prev, next arena.Handle // zero means "no neighbor"
}

// priceLevel is a FIFO of resting orders at one price, plus their aggregate
// quantity. Unlike orders, levels are not arena-resident: they are created
// and destroyed far less often and the book keeps them in its own
// freelist-backed table (see Book.levels), which is cheap enough not to
// need bump allocation.
type priceLevel struct {
	price    int64
	totalQty uint64
	count    int
	capacity int

	head, tail arena.Handle
}

func newPriceLevel(price int64, capacity int) *priceLevel {
	return &priceLevel{price: price, capacity: capacity}
}

func (l *priceLevel) isEmpty() bool { return l.count == 0 }

// append adds h to the FIFO tail. Callers must have already checked count
// against capacity.
func (l *priceLevel) append(pool *arena.Pool[orderNode], h arena.Handle) {
	n := pool.Get(h)
	n.prev = l.tail
	n.next = 0
	if l.tail != 0 {
		pool.Get(l.tail).next = h
	} else {
		l.head = h
	}
	l.tail = h
	l.count++
	l.totalQty += uint64(n.remaining)
}

// remove unlinks h from the FIFO in O(1), preserving the relative order of
// the remaining orders.
func (l *priceLevel) remove(pool *arena.Pool[orderNode], h arena.Handle) {
	n := pool.Get(h)
	l.totalQty -= uint64(n.remaining)
	l.count--

	if n.prev != 0 {
		pool.Get(n.prev).next = n.next
	} else {
		l.head = n.next
	}
	if n.next != 0 {
		pool.Get(n.next).prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = 0, 0
}

// decrementQty reduces both the order's own remaining and the level's
// aggregate by qty.
func (l *priceLevel) decrementQty(n *orderNode, qty uint32) {
	n.remaining -= qty
	l.totalQty -= uint64(qty)
}
