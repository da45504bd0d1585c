package persistence

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"assistant_server/core/domain"
	"assistant_server/pkg/logger"
)

// RedisConversationStore keeps per-user message logs in Redis lists.
// RPUSH preserves per-key ordering, so concurrent users never interleave.
type RedisConversationStore struct {
	client *redis.Client
	cap    int
}

// NewRedisConversationStore connects to Redis with the given URL.
func NewRedisConversationStore(redisURL string, cap int) (*RedisConversationStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cap <= 0 {
		cap = 200
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisConversationStore{client: client, cap: cap}, nil
}

func conversationKey(userKey string) string {
	return "conversation:" + userKey
}

func (s *RedisConversationStore) Append(ctx context.Context, userKey string, msg domain.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	key := conversationKey(userKey)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-s.cap), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

func (s *RedisConversationStore) History(ctx context.Context, userKey string) ([]domain.Message, error) {
	raw, err := s.client.LRange(ctx, conversationKey(userKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			logger.Warn("skipping malformed history entry: %v", err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Close releases the underlying Redis connection.
func (s *RedisConversationStore) Close() error {
	return s.client.Close()
}
