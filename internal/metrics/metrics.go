// Package metrics exposes the frame loop's counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/counterwatch/internal/logic"
)

// Metrics holds all application metrics on a private registry.
type Metrics struct {
	FramesRead  prometheus.Counter
	ReadErrors  prometheus.Counter
	ProbeErrors *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Signal      *prometheus.GaugeVec
	Active      *prometheus.GaugeVec
	FrameTime   prometheus.Histogram
	Published   *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered.
func New() *Metrics {
	m := &Metrics{
		FramesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "counterwatch_frames_read_total",
			Help: "Frames read from the source",
		}),
		ReadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "counterwatch_read_errors_total",
			Help: "Failed frame reads",
		}),
		ProbeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counterwatch_probe_errors_total",
			Help: "Frames a monitor skipped because its probe failed",
		}, []string{"monitor"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counterwatch_transitions_total",
			Help: "Committed state changes by monitor and target label",
		}, []string{"monitor", "to"}),
		Signal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counterwatch_signal_value",
			Help: "Last signal value observed by each monitor",
		}, []string{"monitor"}),
		Active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counterwatch_monitor_active",
			Help: "Monitor state (0=inactive, 1=active)",
		}, []string{"monitor"}),
		FrameTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "counterwatch_frame_seconds",
			Help:    "Time spent measuring and observing one frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "counterwatch_mqtt_publish_total",
			Help: "MQTT publish attempts by result",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.FramesRead,
		m.ReadErrors,
		m.ProbeErrors,
		m.Transitions,
		m.Signal,
		m.Active,
		m.FrameTime,
		m.Published,
	)
	return m
}

// ObserveFrame records the processing time of one frame.
func (m *Metrics) ObserveFrame(d time.Duration) {
	m.FrameTime.Observe(d.Seconds())
}

// ObserveMonitor records a monitor's last value and state.
func (m *Metrics) ObserveMonitor(name string, value float64, state logic.State) {
	m.Signal.WithLabelValues(name).Set(value)
	active := 0.0
	if state == logic.StateActive {
		active = 1
	}
	m.Active.WithLabelValues(name).Set(active)
}

// ObserveEvent counts a committed transition.
func (m *Metrics) ObserveEvent(ev logic.Event) {
	m.Transitions.WithLabelValues(ev.Monitor, ev.ToLabel).Inc()
}

// ObservePublish counts an MQTT publish result.
func (m *Metrics) ObservePublish(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Published.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
