package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"passage-server/internal/interfaces"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ interfaces.PassageNumberCache = (*redisPassageCache)(nil)

// redisPassageCache keeps one hash per story:
// passage_numbers:{storyID} -> { "<number>": "<passageID>" }.
type redisPassageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisPassageCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.PassageNumberCache {
	return &redisPassageCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisPassageCache"),
	}
}

func storyKey(storyID string) string {
	return fmt.Sprintf("passage_numbers:%s", storyID)
}

func (c *redisPassageCache) Get(ctx context.Context, storyID string, number int) (string, bool, error) {
	id, err := c.client.HGet(ctx, storyKey(storyID), strconv.Itoa(number)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", storyKey(storyID), err)
	}
	return id, true, nil
}

func (c *redisPassageCache) Set(ctx context.Context, storyID string, number int, passageID string) error {
	key := storyKey(storyID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(number), passageID)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	c.logger.Debug("Cached passage number",
		zap.String("storyID", storyID), zap.Int("passageNumber", number), zap.String("passageID", passageID))
	return nil
}

func (c *redisPassageCache) InvalidateStory(ctx context.Context, storyID string) error {
	if err := c.client.Del(ctx, storyKey(storyID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", storyKey(storyID), err)
	}
	return nil
}

// Options mirrors the redis settings of config.Config.
type Options struct {
	Addr       string
	Password   string
	DB         int
	MaxRetries int
	RetryDelay time.Duration
}

// Connect pings Redis until it answers or the retries run out.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	logger.Info("Attempting to connect and ping Redis",
		zap.String("address", redisOpts.Addr), zap.Int("db", redisOpts.DB), zap.Int("max_retries", maxRetries))

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		client := redis.NewClient(redisOpts)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logger.Info("Successfully connected and pinged Redis", zap.Int("attempt", i+1))
			return client, nil
		}

		client.Close()
		lastErr = err
		logger.Warn("Redis ping failed, retrying...", zap.Int("attempt", i+1), zap.Error(err))
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
