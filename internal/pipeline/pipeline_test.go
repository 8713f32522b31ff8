package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rishav/exchanged/internal/config"
	"github.com/rishav/exchanged/internal/frame"
)

func addFrame(seq uint64, ref uint64, side frame.Side, price, shares uint32) []byte {
	return frame.Encode(frame.Event{
		Seq: seq, Type: frame.TypeAdd, OrderRef: ref, Side: side, Shares: shares, Price: price,
	})
}

// End-to-end: feed the three frames of spec scenario 1 out of order and
// verify the logger produces the expected listing lines once the
// sequencer reassembles them.
func TestEndToEndOutOfOrderFeedProducesOrderedLog(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "trades.log")

	cfg := config.Defaults()
	cfg.RingCapacity = 64
	cfg.SequencerWindow = 16
	cfg.TradeLog = logPath
	cfg.IdleSleepMicro = 5
	cfg.FeeBps = 0
	cfg.ListingFeeMicros = 0

	frames := [][]byte{
		addFrame(1, 1, frame.SideBuy, 9900, 20),
		addFrame(3, 3, frame.SideBuy, 10000, 5),
		addFrame(2, 2, frame.SideSell, 10100, 15),
	}
	src := &SliceSource{Frames: frames}

	log := zap.NewNop()
	reg := prometheus.NewRegistry()

	orch, err := New(cfg, src, log, reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	orch.Start()

	deadline := time.After(2 * time.Second)
	for {
		if orch.Book().TotalOrders() == 3 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for 3 resting orders, got %d", orch.Book().TotalOrders())
		case <-time.After(time.Millisecond):
		}
	}

	if err := orch.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 listing lines, got %d: %q", len(lines), data)
	}
	for _, l := range lines {
		if !strings.Contains(l, "LISTING:") {
			t.Fatalf("expected only listings (no crossing orders), got %q", l)
		}
	}

	if p, q, ok := orch.Book().BestBid(); !ok || p != 10000 || q != 5 {
		t.Fatalf("best bid = %d/%d/%v, want 10000/5/true", p, q, ok)
	}
}
