package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPMetricsMiddleware tracks HTTP request metrics
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		path := sanitizePath(c.Path())

		HTTPRequestDuration.WithLabelValues(c.Method(), path, status).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(c.Method(), path, status).Inc()

		return err
	}
}

// sanitizePath keeps label cardinality bounded
func sanitizePath(path string) string {
	switch path {
	case "/", "/init/sign_in", "/logout", "/contacts", "/select", "/send",
		"/users", "/groups", "/ws/view", "/health", "/metrics":
		return path
	}
	if len(path) > len("/static/") && path[:len("/static/")] == "/static/" {
		return "/static/:file"
	}
	return "/other"
}
