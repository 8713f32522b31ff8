// Package orderbook holds the dual-sided, price-level-indexed limit order
// book and its price-time-priority matching engine.
package orderbook

import "github.com/rishav/exchanged/internal/arena"

// Config bounds the book's resources, per the spec's §4.3 "Resource
// limits": exceeding any of these rejects the offending Add's residual
// rather than growing without bound. Trades the Add already made in its
// match phase stand; nothing of the rejected residual rests.
type Config struct {
	MaxOrdersPerLevel int
	MaxLevelsPerSide  int
	MaxOrderID        uint64
	FeeBps            uint64 // trade fee, in basis points of notional
	ListingFee        Fee    // fixed fee charged on every new resting order
}

// DefaultConfig matches the example magnitudes given in spec §4.3.
func DefaultConfig() Config {
	return Config{
		MaxOrdersPerLevel: 2048,
		MaxLevelsPerSide:  1024,
		MaxOrderID:        1_000_000,
		FeeBps:            2,
		ListingFee:        Fee(100_000), // $0.10
	}
}

// Book is the two-sided limit order book: bids ordered descending, asks
// ordered ascending, with an O(1) order-id index for cancel and execute.
// There is no internal concurrency — Book is only ever safe from the single
// matcher goroutine that owns it.
type Book struct {
	cfg Config

	orders *arena.Pool[orderNode]
	index  map[uint64]arena.Handle

	bids, asks     *RBTree
	levels         []*priceLevel
	freeLevelSlots []int
}

// NewBook allocates a book with its resting-order storage served entirely
// by the arena, sized for cfg.MaxOrderID records.
func NewBook(cfg Config) *Book {
	return &Book{
		cfg:    cfg,
		orders: arena.NewPool[orderNode](int(cfg.MaxOrderID) + 1),
		index:  make(map[uint64]arena.Handle, cfg.MaxOrderID),
		bids:   NewRBTree(true),
		asks:   NewRBTree(false),
	}
}

func (b *Book) treeFor(side Side) *RBTree {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// oppositeTreeFor returns the tree an aggressor on side crosses into.
func (b *Book) oppositeTreeFor(side Side) *RBTree {
	if side == Buy {
		return b.asks
	}
	return b.bids
}

func (b *Book) levelAt(idx int) *priceLevel { return b.levels[idx] }

// acquireLevel returns the level table index for price on side, creating
// the level (and a tree entry) if none exists yet, subject to
// MaxLevelsPerSide.
func (b *Book) acquireLevel(side Side, price int64) (int, error) {
	tree := b.treeFor(side)
	if idx := tree.Get(price); idx >= 0 {
		return idx, nil
	}
	if tree.Size() >= b.cfg.MaxLevelsPerSide {
		return -1, &CapacityError{Resource: "price levels per side"}
	}

	lvl := newPriceLevel(price, b.cfg.MaxOrdersPerLevel)
	var idx int
	if n := len(b.freeLevelSlots); n > 0 {
		idx = b.freeLevelSlots[n-1]
		b.freeLevelSlots = b.freeLevelSlots[:n-1]
		b.levels[idx] = lvl
	} else {
		idx = len(b.levels)
		b.levels = append(b.levels, lvl)
	}
	tree.Insert(price, idx)
	return idx, nil
}

// releaseLevel removes an emptied level from its side and frees its table
// slot for reuse.
func (b *Book) releaseLevel(side Side, idx int) {
	lvl := b.levels[idx]
	b.treeFor(side).Delete(lvl.price)
	b.levels[idx] = nil
	b.freeLevelSlots = append(b.freeLevelSlots, idx)
}

// crosses reports whether an aggressor on side at price can trade against
// the opposite side's best level.
func (b *Book) crosses(side Side, price int64) (int, bool) {
	oppIdx := b.oppositeTreeFor(side).Min()
	if oppIdx < 0 {
		return -1, false
	}
	oppPrice := b.levels[oppIdx].price
	if side == Buy {
		return oppIdx, oppPrice <= price
	}
	return oppIdx, oppPrice >= price
}

// Add implements §4.3's Add operation: match phase, then rest phase. It
// returns every Trade produced during matching, and a non-nil *Listing if
// residual quantity rests on the book. If the rest phase is rejected for
// capacity, every trade already produced by the match phase still stands —
// per §4.3 matching is not reversible once emitted, only the rest of an
// unfilled residual can be refused.
func (b *Book) Add(id uint64, side Side, price int64, qty uint32) ([]Trade, *Listing, error) {
	if id == 0 || id > b.cfg.MaxOrderID {
		return nil, nil, &CapacityError{Resource: "order id space"}
	}
	if _, exists := b.index[id]; exists {
		return nil, nil, ErrDuplicateOrder
	}

	var trades []Trade
	residual := qty

	for residual > 0 {
		oppIdx, ok := b.crosses(side, price)
		if !ok {
			break
		}
		oppSide := Sell
		if side == Sell {
			oppSide = Buy
		}
		lvl := b.levels[oppIdx]
		restingHandle := lvl.head
		resting := b.orders.Get(restingHandle)

		tradeQty := residual
		if resting.remaining < tradeQty {
			tradeQty = resting.remaining
		}

		fee := Fee((uint64(tradeQty) * uint64(lvl.price) * b.cfg.FeeBps) / 10000)
		trades = append(trades, Trade{
			AggressorID: id,
			RestingID:   resting.id,
			Price:       lvl.price,
			Quantity:    tradeQty,
			Fee:         fee,
		})

		residual -= tradeQty
		lvl.decrementQty(resting, tradeQty)

		if resting.remaining == 0 {
			lvl.remove(b.orders, restingHandle)
			delete(b.index, resting.id)
		}
		if lvl.isEmpty() {
			b.releaseLevel(oppSide, oppIdx)
		}
	}

	if residual == 0 {
		return trades, nil, nil
	}

	levelIdx, err := b.acquireLevel(side, price)
	if err != nil {
		return trades, nil, err
	}
	lvl := b.levels[levelIdx]
	if lvl.count >= lvl.capacity {
		if lvl.isEmpty() {
			b.releaseLevel(side, levelIdx)
		}
		return trades, nil, &CapacityError{Resource: "orders per level"}
	}

	h, err := b.orders.Alloc()
	if err != nil {
		if lvl.isEmpty() {
			b.releaseLevel(side, levelIdx)
		}
		return trades, nil, &CapacityError{Resource: "order records"}
	}
	n := b.orders.Get(h)
	n.id, n.side, n.price, n.remaining, n.levelIdx = id, side, price, residual, levelIdx

	lvl.append(b.orders, h)
	b.index[id] = h

	return trades, &Listing{OrderID: id, Side: side, Fee: b.cfg.ListingFee}, nil
}

// Cancel implements §4.3's Cancel operation.
func (b *Book) Cancel(id uint64) error {
	h, ok := b.index[id]
	if !ok {
		return ErrUnknownOrder
	}
	n := b.orders.Get(h)
	lvl := b.levels[n.levelIdx]
	side, levelIdx := n.side, n.levelIdx

	lvl.remove(b.orders, h)
	delete(b.index, id)

	if lvl.isEmpty() {
		b.releaseLevel(side, levelIdx)
	}
	return nil
}

// Execute implements §4.3's Execute operation: an upstream-reported fill
// against a known resting order, decrementing it directly rather than via
// matching. If the order's remaining reaches zero it is cancelled.
func (b *Book) Execute(id uint64, qty uint32) error {
	h, ok := b.index[id]
	if !ok {
		return ErrUnknownOrder
	}
	n := b.orders.Get(h)
	lvl := b.levels[n.levelIdx]

	dec := qty
	if n.remaining < dec {
		dec = n.remaining
	}
	lvl.decrementQty(n, dec)

	if n.remaining == 0 {
		return b.Cancel(id)
	}
	return nil
}

// BestBid/BestAsk return (price, qty, ok) for the best level on each side.
func (b *Book) BestBid() (price int64, qty uint64, ok bool) { return b.best(b.bids) }
func (b *Book) BestAsk() (price int64, qty uint64, ok bool) { return b.best(b.asks) }

func (b *Book) best(tree *RBTree) (int64, uint64, bool) {
	idx := tree.Min()
	if idx < 0 {
		return 0, 0, false
	}
	lvl := b.levels[idx]
	return lvl.price, lvl.totalQty, true
}

// Depth returns up to maxLevels (price, aggregate qty) pairs for side, best
// first.
func (b *Book) Depth(side Side, maxLevels int) []struct {
	Price int64
	Qty   uint64
} {
	var out []struct {
		Price int64
		Qty   uint64
	}
	b.treeFor(side).ForEach(func(idx int) bool {
		if len(out) >= maxLevels {
			return false
		}
		lvl := b.levels[idx]
		out = append(out, struct {
			Price int64
			Qty   uint64
		}{lvl.price, lvl.totalQty})
		return true
	})
	return out
}

// Order is a read-only snapshot of one resting order, used by tests and
// diagnostics.
type Order struct {
	ID        uint64
	Side      Side
	Price     int64
	Remaining uint32
}

// GetOrder returns a snapshot of a resting order, or ok=false if unknown.
func (b *Book) GetOrder(id uint64) (Order, bool) {
	h, ok := b.index[id]
	if !ok {
		return Order{}, false
	}
	n := b.orders.Get(h)
	return Order{ID: n.id, Side: n.side, Price: n.price, Remaining: n.remaining}, true
}

// TotalOrders reports how many orders currently rest in the index.
func (b *Book) TotalOrders() int { return len(b.index) }
