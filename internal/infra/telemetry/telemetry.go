package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WatchdogMetrics exposes Prometheus collectors for the reconciliation loop.
type WatchdogMetrics struct {
	Ticks        prometheus.Counter
	Terminations *prometheus.CounterVec
	TickDuration prometheus.Histogram
}

// NewWatchdogMetrics constructs and registers the watchdog collectors.
func NewWatchdogMetrics(reg prometheus.Registerer) (*WatchdogMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Subsystem: "watchdog",
		Name:      "ticks_total",
		Help:      "Total number of completed watchdog reconciliation ticks.",
	})

	terminations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gatekeeper",
		Subsystem: "watchdog",
		Name:      "terminations_total",
		Help:      "Total number of sessions terminated, partitioned by violation kind.",
	}, []string{"kind"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gatekeeper",
		Subsystem: "watchdog",
		Name:      "tick_duration_seconds",
		Help:      "Duration of a single reconciliation tick.",
		Buckets:   prometheus.DefBuckets,
	})

	for _, collector := range []prometheus.Collector{ticks, terminations, duration} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}

	return &WatchdogMetrics{
		Ticks:        ticks,
		Terminations: terminations,
		TickDuration: duration,
	}, nil
}
