// Package redis caches per-user recent-history slices in front of the
// ClickHouse event store, sparing a history query per prediction for
// hot users.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"access-risk-service/internal/client"
	"access-risk-service/internal/model"
	"access-risk-service/internal/repository"
	"access-risk-service/internal/util"
)

const historyKeyPrefix = "history:recent:"

// HistoryCache decorates a HistoryStore with a Redis read-through
// cache. Cache faults fall back to the underlying store; the cache is
// never authoritative.
type HistoryCache struct {
	redis  *client.RedisClient
	store  repository.HistoryStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewHistoryCache(redisClient *client.RedisClient, store repository.HistoryStore, ttl time.Duration, logger *zap.Logger) *HistoryCache {
	return &HistoryCache{
		redis:  redisClient,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

type cachedHistory struct {
	Limit  int                 `json:"limit"`
	Events []model.AccessEvent `json:"events"`
}

// RecentByUser serves from cache when the cached slice covers the
// requested limit, otherwise reads through and repopulates.
func (c *HistoryCache) RecentByUser(ctx context.Context, userID string, limit int) ([]model.AccessEvent, error) {
	key := historyKey(userID)

	if raw, err := c.redis.Client.Get(ctx, key).Result(); err == nil {
		var cached cachedHistory
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && cached.Limit >= limit {
			events := cached.Events
			if len(events) > limit {
				events = events[len(events)-limit:]
			}
			return events, nil
		}
	} else if err != goredis.Nil {
		c.logger.Warn("history cache read failed, falling back to store",
			util.String("user_id", userID),
			util.ErrorField(err),
		)
	}

	events, err := c.store.RecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(cachedHistory{Limit: limit, Events: events})
	if err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl); err != nil {
			c.logger.Warn("history cache write failed",
				util.String("user_id", userID),
				util.ErrorField(err),
			)
		}
	}

	return events, nil
}

// Append writes through to the store and invalidates the cached slice.
func (c *HistoryCache) Append(ctx context.Context, event model.AccessEvent) error {
	if err := c.store.Append(ctx, event); err != nil {
		return err
	}
	if err := c.redis.Del(ctx, historyKey(event.UserID)); err != nil {
		c.logger.Warn("history cache invalidation failed",
			util.String("user_id", event.UserID),
			util.ErrorField(err),
		)
	}
	return nil
}

func historyKey(userID string) string {
	return fmt.Sprintf("%s%s", historyKeyPrefix, userID)
}
