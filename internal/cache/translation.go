package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TranslationCache memoizes translated product names
type TranslationCache interface {
	Get(ctx context.Context, text, targetLang string) (string, bool, error)
	Set(ctx context.Context, text, targetLang, translated string) error
}

type redisTranslationCache struct {
	redisClient *redis.Client
	keyPrefix   string
	ttl         time.Duration
}

func NewRedisTranslationCache(redisClient *redis.Client, ttl time.Duration) TranslationCache {
	return &redisTranslationCache{
		redisClient: redisClient,
		keyPrefix:   "gardena:translation:",
		ttl:         ttl,
	}
}

func (c *redisTranslationCache) key(text, targetLang string) string {
	sum := sha1.Sum([]byte(text))
	return c.keyPrefix + targetLang + ":" + hex.EncodeToString(sum[:])
}

func (c *redisTranslationCache) Get(ctx context.Context, text, targetLang string) (string, bool, error) {
	val, err := c.redisClient.Get(ctx, c.key(text, targetLang)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get cached translation: %w", err)
	}

	return val, true, nil
}

func (c *redisTranslationCache) Set(ctx context.Context, text, targetLang, translated string) error {
	err := c.redisClient.Set(ctx, c.key(text, targetLang), translated, c.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache translation: %w", err)
	}
	return nil
}
