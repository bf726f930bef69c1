package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RedisStatsCollector exports the session store's connection pool statistics
type RedisStatsCollector struct {
	client *redis.Client

	poolHits       *prometheus.Desc
	poolMisses     *prometheus.Desc
	poolTimeouts   *prometheus.Desc
	poolTotalConns *prometheus.Desc
	poolIdleConns  *prometheus.Desc
}

func NewRedisStatsCollector(client *redis.Client) *RedisStatsCollector {
	return &RedisStatsCollector{
		client:         client,
		poolHits:       prometheus.NewDesc("redis_pool_hits_total", "Free connections found in the pool", nil, nil),
		poolMisses:     prometheus.NewDesc("redis_pool_misses_total", "Free connections not found in the pool", nil, nil),
		poolTimeouts:   prometheus.NewDesc("redis_pool_timeouts_total", "Wait timeouts", nil, nil),
		poolTotalConns: prometheus.NewDesc("redis_pool_total_connections", "Total connections in the pool", nil, nil),
		poolIdleConns:  prometheus.NewDesc("redis_pool_idle_connections", "Idle connections in the pool", nil, nil),
	}
}

// Describe implements prometheus.Collector
func (c *RedisStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolHits
	ch <- c.poolMisses
	ch <- c.poolTimeouts
	ch <- c.poolTotalConns
	ch <- c.poolIdleConns
}

// Collect implements prometheus.Collector
func (c *RedisStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.client.PoolStats()

	ch <- prometheus.MustNewConstMetric(c.poolHits, prometheus.CounterValue, float64(stats.Hits))
	ch <- prometheus.MustNewConstMetric(c.poolMisses, prometheus.CounterValue, float64(stats.Misses))
	ch <- prometheus.MustNewConstMetric(c.poolTimeouts, prometheus.CounterValue, float64(stats.Timeouts))
	ch <- prometheus.MustNewConstMetric(c.poolTotalConns, prometheus.GaugeValue, float64(stats.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.poolIdleConns, prometheus.GaugeValue, float64(stats.IdleConns))
}

// TransportStatsCollector reports how many client sockets sit in each state
type TransportStatsCollector struct {
	states func() map[string]int
	desc   *prometheus.Desc
}

// NewTransportStatsCollector polls states (state name -> count) on every scrape
func NewTransportStatsCollector(states func() map[string]int) *TransportStatsCollector {
	return &TransportStatsCollector{
		states: states,
		desc: prometheus.NewDesc(
			"chat_socket_state",
			"Client sockets by connection state",
			[]string{"state"}, nil,
		),
	}
}

func (c *TransportStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *TransportStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for state, n := range c.states() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), state)
	}
}

// RegisterCollectors registers the pull-based collectors; redisClient may be nil.
// Registering twice keeps the first collectors.
func RegisterCollectors(redisClient *redis.Client, states func() map[string]int) {
	if redisClient != nil {
		register(NewRedisStatsCollector(redisClient))
	}
	if states != nil {
		register(NewTransportStatsCollector(states))
	}
}

func register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			panic(err)
		}
	}
}
