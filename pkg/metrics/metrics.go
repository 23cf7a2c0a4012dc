// Package metrics registra las métricas Prometheus del servicio.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	codesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "robocode_codes_issued_total",
		Help: "Códigos asignados y confirmados en la base de datos",
	})

	// Sin etiqueta de categoría: el espacio de categorías es texto libre.
	nextCodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "robocode_next_code_errors_total",
		Help: "Fallos de NextCode por clase (validation, unavailable, lock_timeout, canceled, query)",
	}, []string{"kind"})

	nextCodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "robocode_next_code_duration_seconds",
		Help:    "Duración de NextCode, incluida la espera por el bloqueo de fila",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total de peticiones HTTP procesadas",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de peticiones HTTP en segundos",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Peticiones HTTP en curso",
	})
)

// ObserveNextCode registra una llamada a NextCode. kind vacío significa éxito.
func ObserveNextCode(kind string, d time.Duration) {
	nextCodeDuration.Observe(d.Seconds())
	if kind == "" {
		codesIssued.Inc()
		return
	}
	nextCodeErrors.WithLabelValues(kind).Inc()
}
