package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
)

// Cache is the Redis hot tier in front of the Postgres store.
// Locations never expire; weather entries expire after the TTL given to SetWeather.
type Cache struct {
	client *redis.Client
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func locationKey(c geo.Coordinate) string { return "location:" + c.String() }

func weatherKey(c geo.Coordinate) string { return "weather:" + c.String() }

// GetLocation returns the cached location for c.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetLocation(ctx context.Context, coord geo.Coordinate) (*lookup.Location, error) {
	var loc lookup.Location
	ok, err := c.get(ctx, locationKey(coord), &loc)
	if err != nil || !ok {
		return nil, err
	}
	return &loc, nil
}

// SetLocation caches loc without expiry. A nil loc is a no-op.
func (c *Cache) SetLocation(ctx context.Context, coord geo.Coordinate, loc *lookup.Location) error {
	if loc == nil {
		return nil
	}
	return c.set(ctx, locationKey(coord), loc, 0)
}

// GetWeather returns the cached weather for c.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetWeather(ctx context.Context, coord geo.Coordinate) (*lookup.Weather, error) {
	var w lookup.Weather
	ok, err := c.get(ctx, weatherKey(coord), &w)
	if err != nil || !ok {
		return nil, err
	}
	return &w, nil
}

// SetWeather caches w for ttl. A ttl of zero keeps the entry forever.
// A nil w is a no-op.
func (c *Cache) SetWeather(ctx context.Context, coord geo.Coordinate, w *lookup.Weather, ttl time.Duration) error {
	if w == nil {
		return nil
	}
	return c.set(ctx, weatherKey(coord), w, ttl)
}

func (c *Cache) get(ctx context.Context, key string, v any) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(val, v); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}

	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}

	return nil
}
