package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "traveltimes:"

func CacheKey(tripID string) string {
	return cacheKeyPrefix + tripID
}

// CacheWriter puts the travel times of each trip into redis for the predictor to pick up
type CacheWriter struct {
	cache *cache.Cache[string]
}

func NewCacheWriter(client *redis.Client, expiration time.Duration) *CacheWriter {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &CacheWriter{
		cache: cache.New[string](redisStore),
	}
}

func (w *CacheWriter) Name() string {
	return "cache"
}

func (w *CacheWriter) Publish(ctx context.Context, run *Run) error {
	for _, tripID := range run.TravelTimes.TripIDs() {
		if err := ctx.Err(); err != nil {
			return err
		}

		value, err := json.Marshal(run.RecordsForTrip(tripID))
		if err != nil {
			return err
		}

		if err := w.cache.Set(ctx, CacheKey(tripID), string(value)); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the cached travel times for the trip ordered by stop path
func (w *CacheWriter) Get(ctx context.Context, tripID string) ([]*Record, error) {
	value, err := w.cache.Get(ctx, CacheKey(tripID))
	if err != nil {
		return nil, err
	}

	var records []*Record
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		return nil, err
	}

	return records, nil
}
