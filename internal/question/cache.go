package question

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache is a Redis-backed cache for anonymous batch responses. User-scoped
// batches are never cached: unseen filtering makes them user-specific.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BatchCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(req BatchRequest) string {
	topics := make([]string, len(req.Topics))
	for i, t := range req.Topics {
		topics[i] = t.String()
	}
	return strings.Join([]string{
		"questionbatch",
		req.Language.String(),
		strings.Join(topics, ","),
		req.Difficulty.String(),
		req.AnswerType.String(),
		strconv.Itoa(req.Count),
	}, ":")
}

func (c *Cache) Get(ctx context.Context, req BatchRequest) ([]Question, error) {
	data, err := c.client.Get(ctx, c.key(req)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *Cache) Set(ctx context.Context, req BatchRequest, questions []Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(req), data, c.ttl).Err()
}
