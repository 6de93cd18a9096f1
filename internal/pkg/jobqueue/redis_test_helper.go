package jobqueue

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
)

// jobQueueTestDB keeps queue tests away from the cache and session databases.
const jobQueueTestDB = 14

// testQueue returns a queue on a flushed scratch database of the configured
// Redis server. The test is skipped when no server answers.
func testQueue(t *testing.T, workers int) *Queue {
	t.Helper()

	cfg := cache.ConfigFromEnv()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       jobQueueTestDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis at %s not reachable: %v", cfg.Addr(), err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		_ = client.Close()
		t.Fatalf("flush redis db %d: %v", jobQueueTestDB, err)
	}
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})

	return newQueueWithClient(client, workers)
}
