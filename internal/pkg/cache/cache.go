package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
)

// Redis databases used by the portal. Sessions live apart from the cache so
// FLUSHDB on one never logs customers out.
const (
	CacheDB   = 0
	SessionDB = 1
)

// Config is the Redis endpoint shared by the cache, the job queue, the
// payment counters and the session storage.
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ConfigFromEnv reads CACHE_HOST, CACHE_PORT, CACHE_PASSWORD and CACHE_DB.
func ConfigFromEnv() Config {
	return Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     env.GetInt("CACHE_PORT", 6379),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       env.GetInt("CACHE_DB", CacheDB),
	}
}

var (
	mu     sync.RWMutex
	client *redis.Client
	config Config
)

// SetupCache connects the shared client. An unreachable server is logged and
// not fatal; callers see the error on first use.
func SetupCache() {
	cfg := ConfigFromEnv()
	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.Printf("[Cache] Redis at %s not reachable: %v", cfg.Addr(), err)
	} else {
		log.Printf("[Cache] Connected to Redis at %s (db %d)", cfg.Addr(), cfg.DB)
	}

	mu.Lock()
	client, config = c, cfg
	mu.Unlock()
}

// GetClient returns the shared client, connecting on first use.
func GetClient() *redis.Client {
	mu.RLock()
	c := client
	mu.RUnlock()
	if c != nil {
		return c
	}
	SetupCache()
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// CurrentConfig is the endpoint of the shared client.
func CurrentConfig() Config {
	GetClient()
	mu.RLock()
	defer mu.RUnlock()
	return config
}

// Set stores value under key for ttl.
func Set(key string, value interface{}, ttl time.Duration) error {
	return GetClient().Set(context.Background(), key, value, ttl).Err()
}

// Get returns the value stored under key, or redis.Nil when it is absent.
func Get(key string) (string, error) {
	return GetClient().Get(context.Background(), key).Result()
}
