package server

import (
	"webchat/pkg/metrics"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// registerMetrics installs the custom collectors and serves /metrics
func registerMetrics(app *fiber.App, rdb *redis.Client, socketStates func() map[string]int) {
	metrics.RegisterCollectors(rdb, socketStates)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
