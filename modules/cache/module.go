package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module wraps the Redis cache as a mono module.
type Module struct {
	config Config
	cache  *Cache
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModuleWithConfig creates a cache module with explicit settings.
func NewModuleWithConfig(redisAddr, prefix string, ttl time.Duration) *Module {
	return &Module{
		config: Config{RedisAddr: redisAddr, Prefix: prefix, TTL: ttl},
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start connects to Redis and verifies the connection.
func (m *Module) Start(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr: m.config.RedisAddr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", m.config.RedisAddr, err)
	}

	m.cache = New(client, m.config.Prefix, m.config.TTL)
	log.Printf("[cache] Connected to Redis at %s (prefix %q, ttl %s)", m.config.RedisAddr, m.config.Prefix, m.config.TTL)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.cache != nil {
		if err := m.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// Health reports the Redis connection state.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "cache not initialized",
		}
	}
	if err := m.cache.Ping(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"addr": m.config.RedisAddr,
		},
	}
}

// GetCache returns the cache instance, nil before Start.
func (m *Module) GetCache() *Cache {
	return m.cache
}
