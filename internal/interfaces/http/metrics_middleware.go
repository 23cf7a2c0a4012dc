package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/robocode-api/pkg/metrics"
)

// Metrics registra métricas HTTP básicas en Prometheus.
// Usa la plantilla de ruta (no la ruta concreta) para mantener baja la cardinalidad.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		var fErr *fiber.Error
		if errors.As(err, &fErr) {
			status = fErr.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" && !unmatched(err) {
			route = r.Path
		}

		labels := prometheus.Labels{
			"method": c.Method(),
			"route":  route,
			"status": strconv.Itoa(status),
		}
		metrics.HTTPRequests.With(labels).Inc()
		metrics.HTTPDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// unmatched: el router de fiber devuelve *fiber.Error 404/405 cuando ninguna ruta coincide.
// Los handlers propios responden sus 404 con c.Status, sin error.
func unmatched(err error) bool {
	var fErr *fiber.Error
	if !errors.As(err, &fErr) {
		return false
	}
	return fErr.Code == fiber.StatusNotFound || fErr.Code == fiber.StatusMethodNotAllowed
}
