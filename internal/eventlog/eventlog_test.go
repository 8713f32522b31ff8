package eventlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rishav/exchanged/internal/orderbook"
)

func TestListingAndTradeLineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.log")
	log, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ts := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
	if err := log.Listing(ts, orderbook.Listing{OrderID: 3, Side: orderbook.Buy, Fee: orderbook.Fee(100000)}); err != nil {
		t.Fatalf("Listing: %v", err)
	}
	if err := log.Trade(ts, orderbook.Trade{AggressorID: 4, RestingID: 3, Price: 10000, Quantity: 5, Fee: orderbook.Fee(10000)}); err != nil {
		t.Fatalf("Trade: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), data)
	}
	if want := "[2026-07-31 12:00:00] LISTING: OrderID=3, Side=B, Fee=$0.100000"; lines[0] != want {
		t.Fatalf("line 0 = %q, want %q", lines[0], want)
	}
	if want := "[2026-07-31 12:00:00] TRADE:   AggressorID=4 matched RestingID=3 for 5 @ 10000. Fee=$0.010000"; lines[1] != want {
		t.Fatalf("line 1 = %q, want %q", lines[1], want)
	}
}
