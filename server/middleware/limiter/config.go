package limiter

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Config defines the configuration for the action throttle
type Config struct {
	// Next defines a function to skip middleware.
	//
	// Optional. Default: nil
	Next func(c *fiber.Ctx) bool

	// Burst is the number of actions allowed back to back
	//
	// Optional. Default: 20
	Burst int64

	// RefillRate is the number of actions regained per RefillPeriod
	//
	// Optional. Default: 5
	RefillRate int64

	// RefillPeriod is how often tokens are regained
	//
	// Optional. Default: 1 second
	RefillPeriod time.Duration

	// KeyGenerator picks the bucket for a request
	//
	// Optional. Default: uses IP address
	KeyGenerator func(c *fiber.Ctx) string

	// LimitReached is called when the bucket is empty
	LimitReached fiber.Handler
}

var ConfigDefault = Config{
	Burst:        20,
	RefillRate:   5,
	RefillPeriod: time.Second,
	KeyGenerator: func(c *fiber.Ctx) string {
		return c.IP()
	},
	LimitReached: func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTooManyRequests, "操作过于频繁，请稍后再试")
	},
}

func configDefault(config ...Config) Config {
	if len(config) < 1 {
		return ConfigDefault
	}

	cfg := config[0]

	if cfg.Burst <= 0 {
		cfg.Burst = ConfigDefault.Burst
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = ConfigDefault.RefillRate
	}
	if cfg.RefillPeriod <= 0 {
		cfg.RefillPeriod = ConfigDefault.RefillPeriod
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ConfigDefault.KeyGenerator
	}
	if cfg.LimitReached == nil {
		cfg.LimitReached = ConfigDefault.LimitReached
	}

	return cfg
}
