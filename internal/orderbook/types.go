package orderbook

import "fmt"

// Side identifies which side of the book an order rests on.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

func (s Side) String() string {
	if s == Buy {
		return "B"
	}
	return "S"
}

// Fee is a fixed-point amount, in millionths of a currency unit, carried on
// emitted events. It never feeds back into book state — the book itself
// only ever does integer price/quantity arithmetic.
type Fee int64

// String renders the fee as a decimal currency amount.
func (f Fee) String() string {
	whole := int64(f) / 1_000_000
	frac := int64(f) % 1_000_000
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%06d", whole, frac)
}

// Trade is emitted whenever an aggressive order crosses a resting one.
type Trade struct {
	AggressorID uint64
	RestingID   uint64
	Price       int64
	Quantity    uint32
	Fee         Fee
}

func (t Trade) String() string {
	return fmt.Sprintf("AggressorID=%d matched RestingID=%d for %d @ %d. Fee=$%s",
		t.AggressorID, t.RestingID, t.Quantity, t.Price, t.Fee)
}

// Listing is emitted whenever residual quantity rests on the book.
type Listing struct {
	OrderID uint64
	Side    Side
	Fee     Fee
}

func (l Listing) String() string {
	return fmt.Sprintf("OrderID=%d, Side=%s, Fee=$%s", l.OrderID, l.Side, l.Fee)
}

// ErrUnknownOrder is returned by Cancel/Execute when the order id is not
// currently resting.
var ErrUnknownOrder = fmt.Errorf("orderbook: unknown order id")

// ErrDuplicateOrder is returned by Add when the order id is already resting.
var ErrDuplicateOrder = fmt.Errorf("orderbook: duplicate order id")

// CapacityError names which resource limit an Add exceeded: total distinct
// price levels per side, resting orders per level, the session's total
// order id space, or the arena's pool of order records.
type CapacityError struct {
	Resource string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("orderbook: capacity exhausted: %s", e.Resource)
}
