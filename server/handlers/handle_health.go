package handlers

import (
	"context"
	"time"

	"webchat/services/client"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// HealthCheckHandler reports process health
type HealthCheckHandler struct {
	rdb *redis.Client
	mgr *client.Manager
}

func NewHealthCheckHandler(rdb *redis.Client, mgr *client.Manager) *HealthCheckHandler {
	return &HealthCheckHandler{rdb: rdb, mgr: mgr}
}

type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Uptime    float64                `json:"uptime_seconds"`
	Checks    map[string]CheckStatus `json:"checks"`
	Clients   ClientsStatus          `json:"clients"`
}

type CheckStatus struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Latency float64 `json:"latency_ms,omitempty"`
}

// ClientsStatus counts chat clients by backend socket state
type ClientsStatus struct {
	Total   int            `json:"total"`
	Sockets map[string]int `json:"sockets"`
}

var startTime = time.Now()

// HandleHealthCheck is healthy unless a configured dependency is down
func (h *HealthCheckHandler) HandleHealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		response := HealthCheckResponse{
			Status:    "healthy",
			Timestamp: time.Now().Format(time.RFC3339),
			Uptime:    time.Since(startTime).Seconds(),
			Checks: map[string]CheckStatus{
				"server": {Status: "up"},
			},
			Clients: ClientsStatus{
				Total:   h.mgr.Len(),
				Sockets: h.mgr.States(),
			},
		}

		if h.rdb != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()

			check := h.checkRedis(ctx)
			response.Checks["redis"] = check
			if check.Status != "healthy" {
				response.Status = "degraded"
				return c.Status(fiber.StatusServiceUnavailable).JSON(response)
			}
		}

		return c.JSON(response)
	}
}

func (h *HealthCheckHandler) checkRedis(ctx context.Context) CheckStatus {
	start := time.Now()
	err := h.rdb.Ping(ctx).Err()
	latency := float64(time.Since(start).Milliseconds())

	if err != nil {
		return CheckStatus{Status: "unhealthy", Message: "Redis connection failed: " + err.Error(), Latency: latency}
	}
	return CheckStatus{Status: "healthy", Latency: latency}
}
