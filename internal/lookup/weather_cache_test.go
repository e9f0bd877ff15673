package lookup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vetero/internal/cache"
	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
)

const syracuseWeatherKey = "weather:43.05,-76.15"

func newRedisTier(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func storeWithRowAged(t *testing.T, age time.Duration) *mockWeatherStore {
	updated := time.Now().Add(-age)
	return &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return storedWeather(t, lookup.Weather{Description: "snow"}, updated), nil
		},
	}
}

func TestWeatherResolver_StoreWarmedEntryExpiresWithRow(t *testing.T) {
	hot, mr := newRedisTier(t)
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(storeWithRowAged(t, 59*time.Minute), fetcher, hot,
		lookup.WeatherOptions{MaxAge: time.Hour}, discardLogger())

	w := r.Resolve(context.Background(), syracuse)
	require.NotNil(t, w)
	assert.Equal(t, "snow", w.Description)
	assert.Equal(t, 0, fetcher.calls)

	require.True(t, mr.Exists(syracuseWeatherKey))
	ttl := mr.TTL(syracuseWeatherKey)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute, "hot tier must not outlive the row's max age")

	mr.FastForward(58 * time.Minute)
	assert.False(t, mr.Exists(syracuseWeatherKey))

	cached, err := hot.GetWeather(context.Background(), syracuse)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestWeatherResolver_UpstreamEntryGetsFullMaxAge(t *testing.T) {
	hot, mr := newRedisTier(t)
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(&mockWeatherStore{}, fetcher, hot,
		lookup.WeatherOptions{MaxAge: time.Hour}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
	assert.Equal(t, time.Hour, mr.TTL(syracuseWeatherKey))

	mr.FastForward(61 * time.Minute)
	assert.False(t, mr.Exists(syracuseWeatherKey))
}

func TestWeatherResolver_NoMaxAgeNeverExpires(t *testing.T) {
	hot, mr := newRedisTier(t)

	r := lookup.NewWeatherResolver(storeWithRowAged(t, 30*24*time.Hour), &mockWeatherFetcher{}, hot,
		lookup.WeatherOptions{}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
	assert.True(t, mr.Exists(syracuseWeatherKey))
	assert.Equal(t, time.Duration(0), mr.TTL(syracuseWeatherKey))
}
