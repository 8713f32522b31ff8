// Package pipeline wires the three pinned stages (ingress, sequencer,
// matcher) plus the async trade logger into one running system: it owns
// their lifecycle, the rings between them, and the shared "running" flag
// that is the sole shutdown mechanism.
package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rishav/exchanged/internal/config"
	"github.com/rishav/exchanged/internal/eventlog"
	"github.com/rishav/exchanged/internal/frame"
	"github.com/rishav/exchanged/internal/orderbook"
	"github.com/rishav/exchanged/internal/ring"
	"github.com/rishav/exchanged/internal/sequencer"
)

// FrameSource is the ingress stage's only dependency on the outside world:
// one framed market-data message per call. A UDP multicast socket (the
// external collaborator per spec §1) satisfies it via PacketConnSource;
// tests satisfy it with the in-memory SliceSource.
type FrameSource interface {
	ReadFrame(buf []byte) (int, error)
}

// Orchestrator owns the arena-backed book, the three rings, the sequencer,
// the trade logger, and the four stage goroutines that drive them.
type Orchestrator struct {
	cfg config.Config
	log *zap.Logger
	m   *metrics

	source FrameSource

	r1, r2, r3 *ring.Ring
	seq        *sequencer.Sequencer
	book       *orderbook.Book
	tlog       *eventlog.Log

	running atomic.Bool
	wg      sync.WaitGroup
}

// New allocates the book, rings, and sequencer, and opens the trade log.
// Nothing runs until Start is called.
func New(cfg config.Config, source FrameSource, log *zap.Logger, reg prometheus.Registerer) (*Orchestrator, error) {
	tlog, err := eventlog.Open(cfg.TradeLog)
	if err != nil {
		return nil, err
	}

	bookCfg := orderbook.Config{
		MaxOrdersPerLevel: cfg.MaxOrdersPerLevel,
		MaxLevelsPerSide:  cfg.MaxLevelsPerSide,
		MaxOrderID:        cfg.MaxOrderID,
		FeeBps:            cfg.FeeBps,
		ListingFee:        orderbook.Fee(cfg.ListingFeeMicros),
	}

	o := &Orchestrator{
		cfg:    cfg,
		log:    log,
		m:      newMetrics(reg),
		source: source,
		r1:     ring.New(cfg.RingCapacity, frame.MaxSize),
		r2:     ring.New(cfg.RingCapacity, frame.MaxSize),
		r3:     ring.New(cfg.RingCapacity, MaxEventWireSize),
		book:   orderbook.NewBook(bookCfg),
		tlog:   tlog,
	}
	o.seq = sequencer.New(o.r1, o.r2, cfg.SequencerWindow)
	return o, nil
}

// Start spawns all four stages. Each pins its own OS thread before entering
// its loop.
func (o *Orchestrator) Start() {
	o.running.Store(true)
	o.wg.Add(4)
	go o.runIngress()
	go o.runSequencer()
	go o.runMatcher()
	go o.runLogger()
}

// Shutdown clears the running flag and joins every stage, then flushes and
// closes the trade log. The arena (owned by the book) needs no explicit
// release beyond normal GC once the orchestrator is dropped.
func (o *Orchestrator) Shutdown() error {
	o.running.Store(false)
	o.wg.Wait()
	return o.tlog.Close()
}

// Book exposes the live book for read-only diagnostics (e.g. a depth
// snapshot endpoint); it must never be mutated from outside the matcher
// goroutine.
func (o *Orchestrator) Book() *orderbook.Book { return o.book }

func (o *Orchestrator) idle() time.Duration {
	return time.Duration(o.cfg.IdleSleepMicro) * time.Microsecond
}

func (o *Orchestrator) runIngress() {
	defer o.wg.Done()
	pinCurrentThread(o.cfg.IngressCore, "ingress", o.log)

	buf := make([]byte, frame.MaxSize)
	for o.running.Load() {
		n, err := o.source.ReadFrame(buf)
		if err != nil || n == 0 {
			continue
		}
		if pushErr := o.r1.Push(buf[:n]); pushErr == ring.ErrFull {
			o.m.ringFullDrops.WithLabelValues("r1").Inc()
			o.log.Warn("ring r1 full, dropping frame")
		}
	}
}

func (o *Orchestrator) runSequencer() {
	defer o.wg.Done()
	pinCurrentThread(o.cfg.SequencerCore, "sequencer", o.log)

	idle := o.idle()
	var lastWindow, lastLate uint64
	for o.running.Load() {
		worked := o.seq.RunOnce()

		if w := o.seq.Stats.WindowExceeded; w != lastWindow {
			o.m.sequencerWindowDrops.Add(float64(w - lastWindow))
			lastWindow = w
		}
		if l := o.seq.Stats.LateDuplicate; l != lastLate {
			o.m.sequencerLateDrops.Add(float64(l - lastLate))
			lastLate = l
		}

		if !worked {
			o.m.idleLoops.WithLabelValues("sequencer").Inc()
			time.Sleep(idle)
		}
	}
}

func (o *Orchestrator) runMatcher() {
	defer o.wg.Done()
	pinCurrentThread(o.cfg.MatcherCore, "matcher", o.log)

	idle := o.idle()
	buf := make([]byte, frame.MaxSize)
	for o.running.Load() {
		n, err := o.r2.Pop(buf)
		if err == ring.ErrEmpty {
			o.m.idleLoops.WithLabelValues("matcher").Inc()
			time.Sleep(idle)
			continue
		}

		ev, decErr := frame.Decode(buf[:n])
		if decErr != nil {
			o.log.Warn("protocol violation", zap.Error(decErr))
			continue
		}
		o.dispatch(ev)
	}
}

func (o *Orchestrator) dispatch(ev frame.Event) {
	switch ev.Type {
	case frame.TypeAdd:
		trades, listing, err := o.book.Add(ev.OrderRef, orderbook.Side(ev.Side), int64(ev.Price), ev.Shares)
		if err != nil {
			var capErr *orderbook.CapacityError
			if errors.As(err, &capErr) {
				o.m.capacityExhausted.WithLabelValues(capErr.Resource).Inc()
			}
			o.log.Warn("add rejected", zap.Uint64("order_ref", ev.OrderRef), zap.Error(err))
			return
		}
		for _, t := range trades {
			o.publishEvent(encodeTrade(t))
		}
		if listing != nil {
			o.publishEvent(encodeListing(*listing))
		}

	case frame.TypeExecuted:
		if err := o.book.Execute(ev.OrderRef, ev.ExecShares); err != nil {
			o.log.Warn("execute: unknown order", zap.Uint64("order_ref", ev.OrderRef))
		}

	case frame.TypeCancel:
		if err := o.book.Cancel(ev.OrderRef); err != nil {
			o.log.Warn("cancel: unknown order", zap.Uint64("order_ref", ev.OrderRef))
		}

	default:
		// Unknown message types are no-ops, per §6.
	}
}

// publishEvent retries until R3 accepts the event: a Trade or Listing is
// never dropped to backpressure, only to an explicit book rejection earlier
// in dispatch.
func (o *Orchestrator) publishEvent(item []byte) {
	for o.r3.Push(item) == ring.ErrFull {
		o.m.ringFullDrops.WithLabelValues("r3").Inc()
	}
}

func (o *Orchestrator) runLogger() {
	defer o.wg.Done()
	pinCurrentThread(o.cfg.LoggerCore, "logger", o.log)

	idle := o.idle()
	buf := make([]byte, MaxEventWireSize)
	flushTick := time.NewTicker(100 * time.Millisecond)
	defer flushTick.Stop()

	for o.running.Load() {
		select {
		case <-flushTick.C:
			if err := o.tlog.Flush(); err != nil {
				o.log.Warn("trade log flush failed", zap.Error(err))
			}
		default:
		}

		n, err := o.r3.Pop(buf)
		if err == ring.ErrEmpty {
			o.m.idleLoops.WithLabelValues("logger").Inc()
			time.Sleep(idle)
			continue
		}

		trade, listing, decErr := decodeEvent(buf[:n])
		if decErr != nil {
			o.log.Warn("malformed event frame", zap.Error(decErr))
			continue
		}
		now := time.Now()
		if trade != nil {
			if err := o.tlog.Trade(now, *trade); err != nil {
				o.log.Warn("trade log write failed", zap.Error(err))
			}
		}
		if listing != nil {
			if err := o.tlog.Listing(now, *listing); err != nil {
				o.log.Warn("trade log write failed", zap.Error(err))
			}
		}
	}
	_ = o.tlog.Flush()
}
