package history

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"linebot_assistant/pkg"
)

// RedisStore keeps per-user history in Redis with a TTL, bounding memory for
// idle users. The window itself stays capacity-bounded like MemoryStore.
type RedisStore struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration
}

type redisWindow struct {
	Entries []pkg.ConversationEntry `json:"entries"`
}

// NewRedisStore connects using the REDIS_URL environment variable and pings
// the server before returning.
func NewRedisStore(ctx context.Context, capacity int, ttl time.Duration) (*RedisStore, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL environment variable is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisStore{
		client:   client,
		capacity: capacity,
		ttl:      ttl,
	}, nil
}

func historyKey(userID string) string {
	return "conversation:" + userID
}

func (r *RedisStore) load(ctx context.Context, userID string) (*redisWindow, error) {
	data, err := r.client.Get(ctx, historyKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return &redisWindow{Entries: []pkg.ConversationEntry{}}, nil
		}
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var window redisWindow
	if err := sonic.UnmarshalString(data, &window); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &window, nil
}

func (r *RedisStore) save(ctx context.Context, userID string, window *redisWindow) error {
	data, err := sonic.MarshalString(window)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return r.client.Set(ctx, historyKey(userID), data, r.ttl).Err()
}

// Append loads, extends, trims, and stores the window under the TTL.
func (r *RedisStore) Append(ctx context.Context, userID string, entry pkg.ConversationEntry) error {
	window, err := r.load(ctx, userID)
	if err != nil {
		return err
	}

	window.Entries = append(window.Entries, entry)
	if len(window.Entries) > r.capacity {
		window.Entries = window.Entries[len(window.Entries)-r.capacity:]
	}
	return r.save(ctx, userID, window)
}

// Read returns the current window and refreshes its TTL.
func (r *RedisStore) Read(ctx context.Context, userID string) ([]pkg.ConversationEntry, error) {
	window, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(window.Entries) > 0 {
		r.client.Expire(ctx, historyKey(userID), r.ttl)
	}
	return window.Entries, nil
}

// Clear drops the user's window.
func (r *RedisStore) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, historyKey(userID)).Err()
}

// HealthCheck pings the Redis server.
func (r *RedisStore) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
