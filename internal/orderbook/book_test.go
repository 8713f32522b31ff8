package orderbook

import "testing"

func newTestBook() *Book {
	cfg := DefaultConfig()
	cfg.FeeBps = 0 // keep the literal-value scenarios fee-free and legible
	cfg.ListingFee = 0
	return NewBook(cfg)
}

func mustAdd(t *testing.T, b *Book, id uint64, side Side, price int64, qty uint32) ([]Trade, *Listing) {
	t.Helper()
	trades, listing, err := b.Add(id, side, price, qty)
	if err != nil {
		t.Fatalf("Add(%d): %v", id, err)
	}
	return trades, listing
}

// Scenario 1: rest then trade.
func TestScenarioRestThenTrade(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 9900, 20)
	mustAdd(t, b, 2, Sell, 10100, 15)
	trades, listing := mustAdd(t, b, 3, Buy, 10000, 5)

	if len(trades) != 0 {
		t.Fatalf("expected zero trades, got %v", trades)
	}
	if listing == nil || listing.OrderID != 3 {
		t.Fatalf("expected listing for order 3, got %v", listing)
	}

	if p, q, ok := b.BestBid(); !ok || p != 10000 || q != 5 {
		t.Fatalf("best bid = %d/%d/%v, want 10000/5/true", p, q, ok)
	}
	if p, q, ok := b.BestAsk(); !ok || p != 10100 || q != 15 {
		t.Fatalf("best ask = %d/%d/%v, want 10100/15/true", p, q, ok)
	}
}

// Scenario 2: aggressive sweep.
func TestScenarioAggressiveSweep(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 9900, 20)
	mustAdd(t, b, 2, Sell, 10100, 15)
	mustAdd(t, b, 3, Buy, 10000, 5)

	trades, listing := mustAdd(t, b, 4, Sell, 9900, 25)
	if listing != nil {
		t.Fatalf("expected no listing, got %v", listing)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %v", len(trades), trades)
	}
	if trades[0].RestingID != 3 || trades[0].Quantity != 5 || trades[0].Price != 10000 {
		t.Fatalf("trade 0 = %+v, want resting=3 qty=5 price=10000", trades[0])
	}
	if trades[1].RestingID != 1 || trades[1].Quantity != 20 || trades[1].Price != 9900 {
		t.Fatalf("trade 1 = %+v, want resting=1 qty=20 price=9900", trades[1])
	}

	if _, _, ok := b.BestBid(); ok {
		t.Fatal("expected empty bid side")
	}
	if p, q, ok := b.BestAsk(); !ok || p != 10100 || q != 15 {
		t.Fatalf("best ask = %d/%d/%v, want 10100/15/true", p, q, ok)
	}
}

// Scenario 3: partial fill leaves rest.
func TestScenarioPartialFillLeavesRest(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 10, Buy, 100, 10)
	trades, _ := mustAdd(t, b, 11, Sell, 100, 6)

	if len(trades) != 1 || trades[0].RestingID != 10 || trades[0].Quantity != 6 || trades[0].Price != 100 {
		t.Fatalf("trades = %+v", trades)
	}
	if p, q, ok := b.BestBid(); !ok || p != 100 || q != 4 {
		t.Fatalf("best bid = %d/%d/%v, want 100/4/true", p, q, ok)
	}
	if _, _, ok := b.BestAsk(); ok {
		t.Fatal("expected empty ask side")
	}
	ord, ok := b.GetOrder(10)
	if !ok || ord.Remaining != 4 {
		t.Fatalf("order 10 = %+v/%v, want remaining=4", ord, ok)
	}
}

// Scenario 4: cancel preserves FIFO.
func TestScenarioCancelPreservesFIFO(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 20, Buy, 100, 5)
	mustAdd(t, b, 21, Buy, 100, 5)
	mustAdd(t, b, 22, Buy, 100, 5)
	if err := b.Cancel(21); err != nil {
		t.Fatalf("Cancel(21): %v", err)
	}

	trades, _ := mustAdd(t, b, 30, Sell, 100, 7)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d: %v", len(trades), trades)
	}
	if trades[0].RestingID != 20 || trades[0].Quantity != 5 {
		t.Fatalf("trade 0 = %+v, want resting=20 qty=5", trades[0])
	}
	if trades[1].RestingID != 22 || trades[1].Quantity != 2 {
		t.Fatalf("trade 1 = %+v, want resting=22 qty=2", trades[1])
	}
	ord, ok := b.GetOrder(22)
	if !ok || ord.Remaining != 3 {
		t.Fatalf("order 22 = %+v/%v, want remaining=3", ord, ok)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	b := newTestBook()
	if err := b.Cancel(999); err != ErrUnknownOrder {
		t.Fatalf("Cancel(999) = %v, want ErrUnknownOrder", err)
	}
}

func TestAddCancelIdempotence(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)
	before := b.TotalOrders()
	mustAdd(t, b, 2, Sell, 200, 3)
	if err := b.Cancel(2); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if b.TotalOrders() != before {
		t.Fatalf("TotalOrders after add+cancel = %d, want %d", b.TotalOrders(), before)
	}
	if _, _, ok := b.BestAsk(); ok {
		t.Fatal("ask side should be empty again")
	}
}

func TestExecuteDecrementsAndCancelsAtZero(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)
	if err := b.Execute(1, 4); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	ord, ok := b.GetOrder(1)
	if !ok || ord.Remaining != 6 {
		t.Fatalf("order after partial execute = %+v/%v, want remaining=6", ord, ok)
	}
	if err := b.Execute(1, 6); err != nil {
		t.Fatalf("Execute to zero: %v", err)
	}
	if _, ok := b.GetOrder(1); ok {
		t.Fatal("order should be gone after fully executed")
	}
}

func TestNeverCrossed(t *testing.T) {
	b := newTestBook()
	mustAdd(t, b, 1, Buy, 100, 10)
	mustAdd(t, b, 2, Sell, 105, 10)
	bidP, _, _ := b.BestBid()
	askP, _, _ := b.BestAsk()
	if bidP >= askP {
		t.Fatalf("book crossed: bid=%d ask=%d", bidP, askP)
	}
}

func TestCapacityExhaustedOrderID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOrderID = 2
	b := NewBook(cfg)
	if _, _, err := b.Add(3, Buy, 100, 1); err == nil {
		t.Fatal("expected capacity error for id beyond MaxOrderID")
	}
}

func TestCapacityExhaustedOrdersPerLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOrdersPerLevel = 1
	b := NewBook(cfg)
	mustAdd(t, b, 1, Buy, 100, 1)
	if _, _, err := b.Add(2, Buy, 100, 1); err == nil {
		t.Fatal("expected capacity error for orders per level")
	}
	// Book must remain valid: order 1 should still be queryable.
	if _, ok := b.GetOrder(1); !ok {
		t.Fatal("order 1 should still be resting after rejected sibling add")
	}
}
