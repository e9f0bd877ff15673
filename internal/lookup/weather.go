package lookup

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/metrics"
	"github.com/neexbeast/vetero/internal/upstream"
)

// DefaultForecastDays is the forecast length used when none is configured.
const DefaultForecastDays = 3

// WeatherStore is the persistent store used by WeatherResolver.
type WeatherStore interface {
	FindWeather(ctx context.Context, c geo.Coordinate) (*StoredWeather, error)
	SaveWeather(ctx context.Context, c geo.Coordinate, blob []byte, updated time.Time) error
}

// WeatherCache is the optional hot tier in front of WeatherStore.
type WeatherCache interface {
	GetWeather(ctx context.Context, c geo.Coordinate) (*Weather, error)
	SetWeather(ctx context.Context, c geo.Coordinate, w *Weather, ttl time.Duration) error
}

// WeatherFetcher is satisfied by upstream.DarkSkyClient.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, c geo.Coordinate) ([]byte, error)
}

// WeatherOptions tunes WeatherResolver.
type WeatherOptions struct {
	// ForecastDays is the exact number of forecast entries returned.
	ForecastDays int
	// MaxAge, when positive, makes stored rows older than it count as misses.
	// Zero keeps stored weather forever.
	MaxAge time.Duration
}

// WeatherResolver resolves weather snapshots cache-aside and normalizes
// provider responses.
type WeatherResolver struct {
	store   WeatherStore
	cache   WeatherCache
	fetcher WeatherFetcher
	days    int
	maxAge  time.Duration
	log     *slog.Logger
}

// NewWeatherResolver constructs a WeatherResolver. cache may be nil.
func NewWeatherResolver(store WeatherStore, fetcher WeatherFetcher, cache WeatherCache, opts WeatherOptions, log *slog.Logger) *WeatherResolver {
	days := opts.ForecastDays
	if days <= 0 {
		days = DefaultForecastDays
	}
	return &WeatherResolver{
		store:   store,
		cache:   cache,
		fetcher: fetcher,
		days:    days,
		maxAge:  opts.MaxAge,
		log:     log.With("component", "weather-resolver"),
	}
}

// Resolve returns the weather for c, or nil when it cannot be resolved.
// Failures are logged, never returned.
func (r *WeatherResolver) Resolve(ctx context.Context, c geo.Coordinate) *Weather {
	kind := upstream.KindWeather.String()

	if r.cache != nil {
		w, err := r.cache.GetWeather(ctx, c)
		if err != nil {
			r.log.Warn("weather cache get failed", "coord", c.String(), "err", err)
		} else if w != nil {
			metrics.RecordLookup(kind, metrics.SourceCache)
			return w
		}
	}

	if w, updated := r.fromStore(ctx, c); w != nil {
		metrics.RecordLookup(kind, metrics.SourceStore)
		if ttl, ok := r.remainingTTL(updated); ok {
			r.setCache(ctx, c, w, ttl)
		}
		return w
	}

	body, err := r.fetcher.FetchWeather(ctx, c)
	if err != nil {
		metrics.RecordLookup(kind, metrics.SourceNone)
		r.log.Error("weather fetch failed", "coord", c.String(), "err", err)
		return nil
	}

	w, err := NormalizeWeather(body, r.days)
	if err != nil {
		metrics.RecordLookup(kind, metrics.SourceNone)
		r.log.Error("weather response unusable", "coord", c.String(), "err", err)
		return nil
	}

	r.save(ctx, c, w)
	r.setCache(ctx, c, w, r.maxAge)

	metrics.RecordLookup(kind, metrics.SourceUpstream)
	return w
}

// fromStore returns the stored weather for c and when it was written, or nil
// on miss, store error, undecodable blob, or a row older than maxAge.
func (r *WeatherResolver) fromStore(ctx context.Context, c geo.Coordinate) (*Weather, time.Time) {
	stored, err := r.store.FindWeather(ctx, c)
	if err != nil {
		metrics.RecordStoreError("find_weather")
		r.log.Error("weather store read failed, falling back to upstream", "coord", c.String(), "err", err)
		return nil, time.Time{}
	}
	if stored == nil {
		return nil, time.Time{}
	}

	if r.maxAge > 0 && time.Since(stored.Updated) > r.maxAge {
		r.log.Debug("stored weather is stale", "coord", c.String(), "updated", stored.Updated)
		return nil, time.Time{}
	}

	var w Weather
	if err := json.Unmarshal(stored.Blob, &w); err != nil {
		r.log.Warn("stored weather undecodable, refetching", "coord", c.String(), "err", err)
		return nil, time.Time{}
	}
	return &w, stored.Updated
}

// remainingTTL is how long a row written at updated may stay in the hot tier.
// The hot tier must never outlive the row's own freshness window. ok is false
// when the row has no time left.
func (r *WeatherResolver) remainingTTL(updated time.Time) (time.Duration, bool) {
	if r.maxAge <= 0 {
		return 0, true
	}
	left := r.maxAge - time.Since(updated)
	if left <= 0 {
		return 0, false
	}
	return left, true
}

func (r *WeatherResolver) save(ctx context.Context, c geo.Coordinate, w *Weather) {
	blob, err := json.Marshal(w)
	if err != nil {
		r.log.Warn("weather serialization failed", "coord", c.String(), "err", err)
		return
	}
	if err := r.store.SaveWeather(ctx, c, blob, time.Now().UTC()); err != nil {
		metrics.RecordStoreError("save_weather")
		r.log.Warn("weather store write failed", "coord", c.String(), "err", err)
	}
}

func (r *WeatherResolver) setCache(ctx context.Context, c geo.Coordinate, w *Weather, ttl time.Duration) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetWeather(ctx, c, w, ttl); err != nil {
		r.log.Warn("weather cache set failed", "coord", c.String(), "err", err)
	}
}
