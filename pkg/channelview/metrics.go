package channelview

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors of channel views. A nil
// *Metrics records nothing.
type Metrics struct {
	polls           *prometheus.CounterVec
	pollDuration    prometheus.Histogram
	subscribes      *prometheus.CounterVec
	stalePolls      prometheus.Counter
	subscribedGauge prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_polls_total",
			Help: "Channel polls by result (ok, error).",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notify_poll_duration_seconds",
			Help:    "Time to fetch a channel snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		subscribes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_subscribe_total",
			Help: "Subscribe attempts by result (ok, error).",
		}, []string{"result"}),
		stalePolls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notify_stale_polls_discarded_total",
			Help: "Poll results dropped because a newer poll was already displayed.",
		}),
		subscribedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notify_subscribed",
			Help: "1 when this device is subscribed to the viewed channel.",
		}),
	}

	reg.MustRegister(m.polls, m.pollDuration, m.subscribes, m.stalePolls, m.subscribedGauge)
	return m
}

func (m *Metrics) observePoll(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pollDuration.Observe(elapsed.Seconds())
	m.polls.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeSubscribe(err error) {
	if m == nil {
		return
	}
	m.subscribes.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeStale() {
	if m == nil {
		return
	}
	m.stalePolls.Inc()
}

func (m *Metrics) setSubscribed(subscribed bool) {
	if m == nil {
		return
	}
	if subscribed {
		m.subscribedGauge.Set(1)
	} else {
		m.subscribedGauge.Set(0)
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
