// Package metrics exposes room activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the room collectors.
type Metrics struct {
	registry *prometheus.Registry

	songRequests   *prometheus.CounterVec
	groupMoments   *prometheus.CounterVec
	performances   prometheus.Counter
	queueDepth     *prometheus.GaugeVec
	singingShare   *prometheus.GaugeVec
	singingSeconds prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		songRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "karaokebox_song_requests_total", Help: "Song requests by result and code"},
			[]string{"result", "code"},
		),
		groupMoments: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "karaokebox_group_moments_total", Help: "Group moment decisions by mode and reason"},
			[]string{"mode", "reason"},
		),
		performances: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "karaokebox_performances_total", Help: "Completed performances"},
		),
		queueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "karaokebox_queue_depth", Help: "Waiting song requests"},
			[]string{"room"},
		),
		singingShare: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "karaokebox_singing_share_pct", Help: "Share of stage time spent singing"},
			[]string{"room"},
		),
		singingSeconds: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "karaokebox_singing_seconds_total", Help: "Credited singing time"},
		),
	}
	m.registry.MustRegister(
		m.songRequests,
		m.groupMoments,
		m.performances,
		m.queueDepth,
		m.singingShare,
		m.singingSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest counts a song request decision.
func (m *Metrics) ObserveRequest(accepted bool, code string) {
	if m == nil {
		return
	}
	result := "accepted"
	if !accepted {
		result = "rejected"
	}
	m.songRequests.WithLabelValues(result, code).Inc()
}

// ObserveMoment counts a group moment decision.
func (m *Metrics) ObserveMoment(mode, reason string) {
	if m == nil {
		return
	}
	m.groupMoments.WithLabelValues(mode, reason).Inc()
}

// ObservePerformance counts a completed performance and its credited seconds.
func (m *Metrics) ObservePerformance(creditedSec int) {
	if m == nil {
		return
	}
	m.performances.Inc()
	m.singingSeconds.Add(float64(creditedSec))
}

// SetRoomState records the room gauges.
func (m *Metrics) SetRoomState(roomID string, queueDepth, singingSharePct int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(roomID).Set(float64(queueDepth))
	m.singingShare.WithLabelValues(roomID).Set(float64(singingSharePct))
}

// ForgetRoom drops the room gauges.
func (m *Metrics) ForgetRoom(roomID string) {
	if m == nil {
		return
	}
	m.queueDepth.DeleteLabelValues(roomID)
	m.singingShare.DeleteLabelValues(roomID)
}
