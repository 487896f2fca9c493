// Package metrics exports sync and webhook counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brandwisp-store-sync/internal/domain"
	"brandwisp-store-sync/internal/ports"
)

const namespace = "store_sync"

// Prometheus implements ports.Metrics on its own registry
type Prometheus struct {
	registry *prometheus.Registry

	storeSyncs       *prometheus.CounterVec
	storeSyncSeconds *prometheus.HistogramVec
	runs             *prometheus.CounterVec
	runStores        *prometheus.GaugeVec
	events           *prometheus.CounterVec
	webhooks         *prometheus.CounterVec
}

var _ ports.Metrics = (*Prometheus)(nil)

func New() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		storeSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_syncs_total",
			Help:      "Per-store sync attempts by outcome.",
		}, []string{"provider", "trigger", "status"}),
		storeSyncSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_sync_duration_seconds",
			Help:      "Duration of per-store syncs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"provider", "trigger"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_runs_total",
			Help:      "Completed scheduled sync runs.",
		}, []string{"provider"}),
		runStores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_stores",
			Help:      "Stores per outcome in the last scheduled run.",
		}, []string{"provider", "status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_events_total",
			Help:      "Analytics events handed to the sink.",
		}, []string{"event_type"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhooks_total",
			Help:      "Inbound webhooks by topic and response code.",
		}, []string{"topic", "code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.storeSyncs,
		m.storeSyncSeconds,
		m.runs,
		m.runStores,
		m.events,
		m.webhooks,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Prometheus) ObserveStoreSync(provider domain.Provider, trigger domain.SyncTrigger, status domain.SyncStatus, d time.Duration) {
	m.storeSyncs.WithLabelValues(string(provider), string(trigger), string(status)).Inc()
	if status != domain.SyncStatusSkipped {
		m.storeSyncSeconds.WithLabelValues(string(provider), string(trigger)).Observe(d.Seconds())
	}
}

func (m *Prometheus) ObserveRun(provider domain.Provider, summary *domain.RunSummary) {
	p := string(provider)
	m.runs.WithLabelValues(p).Inc()
	m.runStores.WithLabelValues(p, string(domain.SyncStatusSuccess)).Set(float64(summary.Succeeded))
	m.runStores.WithLabelValues(p, string(domain.SyncStatusFailed)).Set(float64(summary.Failed))
	m.runStores.WithLabelValues(p, string(domain.SyncStatusSkipped)).Set(float64(summary.Skipped))
}

func (m *Prometheus) AddEvents(eventType domain.EventType, n int) {
	if n <= 0 {
		return
	}
	m.events.WithLabelValues(string(eventType)).Add(float64(n))
}

func (m *Prometheus) ObserveWebhook(topic string, code int) {
	m.webhooks.WithLabelValues(topic, strconv.Itoa(code)).Inc()
}
