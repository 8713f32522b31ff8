package pipeline

import "github.com/prometheus/client_golang/prometheus"

// metrics exposes the counters spec §7 calls for an operator to watch:
// ring-full drops, sequencer window/duplicate drops, and capacity-exhausted
// rejections, none of them on the hot path of a single event — each is a
// single atomic increment via a prometheus counter.
type metrics struct {
	ringFullDrops        *prometheus.CounterVec
	sequencerWindowDrops prometheus.Counter
	sequencerLateDrops   prometheus.Counter
	capacityExhausted    *prometheus.CounterVec
	idleLoops            *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ringFullDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchanged_ring_full_drops_total",
			Help: "Pushes refused because a ring was full (r1: frame dropped; r3: push retried).",
		}, []string{"ring"}),
		sequencerWindowDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchanged_sequencer_window_exceeded_total",
			Help: "Messages dropped due to a reorder-window slot collision.",
		}),
		sequencerLateDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exchanged_sequencer_late_duplicate_total",
			Help: "Messages dropped as late duplicates (seq < next_expected).",
		}),
		capacityExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchanged_capacity_exhausted_total",
			Help: "Add operations rejected due to an exhausted resource limit.",
		}, []string{"resource"}),
		idleLoops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exchanged_stage_idle_loops_total",
			Help: "Iterations a stage spent idle-backing-off.",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.ringFullDrops, m.sequencerWindowDrops, m.sequencerLateDrops, m.capacityExhausted, m.idleLoops)
	return m
}
