// Package store holds the optional persistence backends: a Redis cache
// for composed documents and a Postgres history of scan outcomes. Both
// degrade gracefully; the analytical core never depends on either.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"market-analyzer/config"
	"market-analyzer/internal/aggregator"
	"market-analyzer/internal/scanner"
)

const (
	keyReport     = "report:%s"
	keyLatestScan = "scan:latest"
)

// RedisCache caches market reports and the latest scan result in Redis
// with a TTL. When Redis is unavailable operations fail soft: callers
// fall back to recomputation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	mu           sync.Mutex
	healthy      bool
	failureCount int
	maxFailures  int
}

// NewRedisCache connects to Redis; an unreachable server yields a cache
// in degraded mode rather than an error.
func NewRedisCache(cfg config.RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &RedisCache{
		client:      client,
		ttl:         time.Duration(cfg.TTLSecs) * time.Second,
		logger:      logger,
		maxFailures: 3,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("initial redis connection failed, cache degraded")
		return rc, nil
	}

	rc.healthy = true
	logger.Info().Str("address", cfg.Address).Msg("redis cache connected")
	return rc, nil
}

// IsHealthy reports whether Redis is currently usable
func (rc *RedisCache) IsHealthy() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.healthy
}

func (rc *RedisCache) recordFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount++
	if rc.failureCount >= rc.maxFailures && rc.healthy {
		rc.healthy = false
		rc.logger.Warn().Int("failures", rc.failureCount).Msg("redis marked unhealthy")
	}
}

func (rc *RedisCache) recordSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount = 0
	rc.healthy = true
}

// SetReport caches a market report
func (rc *RedisCache) SetReport(ctx context.Context, report *aggregator.MarketReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := rc.client.Set(ctx, fmt.Sprintf(keyReport, report.Symbol), data, rc.ttl).Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("failed to cache report: %w", err)
	}
	rc.recordSuccess()
	return nil
}

// GetReport returns the cached report for a symbol; a nil report with
// nil error means a cache miss.
func (rc *RedisCache) GetReport(ctx context.Context, symbol string) (*aggregator.MarketReport, error) {
	data, err := rc.client.Get(ctx, fmt.Sprintf(keyReport, symbol)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		rc.recordFailure()
		return nil, fmt.Errorf("failed to read cached report: %w", err)
	}
	rc.recordSuccess()

	var report aggregator.MarketReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}
	return &report, nil
}

// SetLatestScan caches the most recent scan result
func (rc *RedisCache) SetLatestScan(ctx context.Context, result *scanner.ScanResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal scan result: %w", err)
	}

	if err := rc.client.Set(ctx, keyLatestScan, data, rc.ttl).Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("failed to cache scan result: %w", err)
	}
	rc.recordSuccess()
	return nil
}

// GetLatestScan returns the cached scan result; nil on cache miss
func (rc *RedisCache) GetLatestScan(ctx context.Context) (*scanner.ScanResult, error) {
	data, err := rc.client.Get(ctx, keyLatestScan).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		rc.recordFailure()
		return nil, fmt.Errorf("failed to read cached scan result: %w", err)
	}
	rc.recordSuccess()

	var result scanner.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached scan result: %w", err)
	}
	return &result, nil
}

// Close releases the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
