package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talgya/campfire/internal/social"
)

// Redis key layout.
const (
	redisMemoryKey        = "memory"        // Hash: pair key → unix millis
	redisConversationsKey = "conversations" // List of JSON conversations, newest first

	DefaultRedisPrefix  = "campfire:"
	DefaultRedisHistory = 1000
	redisOpTimeout      = 2 * time.Second
)

// RedisArchive keeps the social archive in Redis so several processes can
// share conversation memory.
type RedisArchive struct {
	client  *redis.Client
	prefix  string
	history int64
}

var _ social.Archive = (*RedisArchive)(nil)

// NewRedisArchive connects to the Redis server at url and checks it answers.
func NewRedisArchive(ctx context.Context, url string) (*RedisArchive, error) {
	if url == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisArchive{
		client:  client,
		prefix:  DefaultRedisPrefix,
		history: DefaultRedisHistory,
	}, nil
}

// Close closes the client.
func (r *RedisArchive) Close() error {
	return r.client.Close()
}

func (r *RedisArchive) key(name string) string {
	return r.prefix + name
}

// RecordMemory stores when a pair last talked, keeping the newer time.
func (r *RedisArchive) RecordMemory(pairKey string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	key := r.key(redisMemoryKey)
	prev, err := r.client.HGet(ctx, key, pairKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("read memory %q: %w", pairKey, err)
	}
	if err == nil {
		if ms, perr := strconv.ParseInt(prev, 10, 64); perr == nil && ms > at.UnixMilli() {
			return nil
		}
	}
	if err := r.client.HSet(ctx, key, pairKey, at.UnixMilli()).Err(); err != nil {
		return fmt.Errorf("write memory %q: %w", pairKey, err)
	}
	return nil
}

// LoadMemory returns every remembered pair.
func (r *RedisArchive) LoadMemory() (map[string]time.Time, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.client.HGetAll(ctx, r.key(redisMemoryKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	return decodeMemory(raw)
}

// RecordConversation pushes an ended conversation onto a capped list.
func (r *RedisArchive) RecordConversation(c *social.Conversation) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation %s: %w", c.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	key := r.key(redisConversationsKey)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.history-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push conversation %s: %w", c.ID, err)
	}
	return nil
}

// RecentConversations returns up to limit archived conversations, newest
// first.
func (r *RedisArchive) RecentConversations(ctx context.Context, limit int) ([]social.Conversation, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := r.client.LRange(ctx, r.key(redisConversationsKey), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	return decodeConversations(raw)
}

func decodeMemory(raw map[string]string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(raw))
	for pair, v := range raw {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse memory %q: %w", pair, err)
		}
		out[pair] = time.UnixMilli(ms).UTC()
	}
	return out, nil
}

func decodeConversations(raw []string) ([]social.Conversation, error) {
	out := make([]social.Conversation, 0, len(raw))
	for _, s := range raw {
		var c social.Conversation
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return nil, fmt.Errorf("unmarshal conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
