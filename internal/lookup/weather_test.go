package lookup_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
	"github.com/neexbeast/vetero/internal/upstream"
)

func storedWeather(t *testing.T, w lookup.Weather, updated time.Time) *lookup.StoredWeather {
	t.Helper()
	blob, err := json.Marshal(w)
	require.NoError(t, err)
	return &lookup.StoredWeather{Blob: blob, Updated: updated}
}

func TestWeatherResolver_StoreHitSkipsUpstream(t *testing.T) {
	store := &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return storedWeather(t, lookup.Weather{Description: "snow", Temperature: 28}, time.Now().Add(-48*time.Hour)), nil
		},
	}
	fetcher := &mockWeatherFetcher{}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{}, discardLogger())
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Equal(t, "snow", w.Description)
	assert.Equal(t, 28, w.Temperature)
	assert.Equal(t, 0, fetcher.calls)
}

func TestWeatherResolver_MissFetchesNormalizesAndSaves(t *testing.T) {
	store := &mockWeatherStore{}
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{}, discardLogger())
	before := time.Now().UTC()
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Len(t, w.Forecast, lookup.DefaultForecastDays)
	assert.Equal(t, 1, fetcher.calls)

	require.Len(t, store.saved, 1)
	assert.Equal(t, syracuse, store.saved[0].coord)
	assert.False(t, store.saved[0].updated.Before(before.Add(-time.Second)))

	var roundTrip lookup.Weather
	require.NoError(t, json.Unmarshal(store.saved[0].blob, &roundTrip))
	assert.Equal(t, *w, roundTrip)
}

func TestWeatherResolver_StaleRowRefetched(t *testing.T) {
	store := &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return storedWeather(t, lookup.Weather{Description: "old"}, time.Now().Add(-2*time.Hour)), nil
		},
	}
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{MaxAge: time.Hour}, discardLogger())
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Equal(t, "snow", w.Description)
	assert.Equal(t, 1, fetcher.calls)
	assert.Len(t, store.saved, 1)
}

func TestWeatherResolver_FreshRowWithinMaxAge(t *testing.T) {
	store := &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return storedWeather(t, lookup.Weather{Description: "fresh"}, time.Now().Add(-time.Minute)), nil
		},
	}
	fetcher := &mockWeatherFetcher{}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{MaxAge: time.Hour}, discardLogger())
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Equal(t, "fresh", w.Description)
	assert.Equal(t, 0, fetcher.calls)
}

func TestWeatherResolver_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
	}{
		{name: "network", err: fmt.Errorf("%w: timeout", upstream.ErrNetwork)},
		{name: "upstream status", err: fmt.Errorf("%w: status 403", upstream.ErrUpstream)},
		{name: "malformed body", body: `{"code":400,"error":"poorly formatted request"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockWeatherStore{}
			fetcher := &mockWeatherFetcher{body: []byte(tt.body), err: tt.err}

			r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{}, discardLogger())

			assert.Nil(t, r.Resolve(context.Background(), syracuse))
			assert.Empty(t, store.saved)
		})
	}
}

func TestWeatherResolver_SaveErrorStillReturnsWeather(t *testing.T) {
	store := &mockWeatherStore{
		saveFn: func(context.Context, geo.Coordinate, []byte, time.Time) error {
			return errors.New("unique violation")
		},
	}
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
}

func TestWeatherResolver_StoreReadErrorFallsThrough(t *testing.T) {
	store := &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return nil, errors.New("pool closed")
		},
	}
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(store, fetcher, nil, lookup.WeatherOptions{}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
	assert.Equal(t, 1, fetcher.calls)
}

func TestWeatherResolver_ConfiguredForecastDays(t *testing.T) {
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(&mockWeatherStore{}, fetcher, nil, lookup.WeatherOptions{ForecastDays: 5}, discardLogger())
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Len(t, w.Forecast, 5)
}

func TestWeatherResolver_CacheHit(t *testing.T) {
	cache := &mockWeatherCache{
		getFn: func(context.Context, geo.Coordinate) (*lookup.Weather, error) {
			return &lookup.Weather{Description: "cached"}, nil
		},
	}
	fetcher := &mockWeatherFetcher{}

	r := lookup.NewWeatherResolver(&mockWeatherStore{}, fetcher, cache, lookup.WeatherOptions{}, discardLogger())
	w := r.Resolve(context.Background(), syracuse)

	require.NotNil(t, w)
	assert.Equal(t, "cached", w.Description)
	assert.Equal(t, 0, fetcher.calls)
	assert.Equal(t, 0, cache.sets)
}

func TestWeatherResolver_UpstreamResultIsCached(t *testing.T) {
	cache := &mockWeatherCache{}
	fetcher := &mockWeatherFetcher{body: []byte(darkSkyBody)}

	r := lookup.NewWeatherResolver(&mockWeatherStore{}, fetcher, cache, lookup.WeatherOptions{}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
	assert.Equal(t, 1, cache.sets)
}

func TestWeatherResolver_StoreHitCachedForRemainingAge(t *testing.T) {
	store := &mockWeatherStore{
		findFn: func(context.Context, geo.Coordinate) (*lookup.StoredWeather, error) {
			return storedWeather(t, lookup.Weather{Description: "snow"}, time.Now().Add(-45*time.Minute)), nil
		},
	}
	cache := &mockWeatherCache{}

	r := lookup.NewWeatherResolver(store, &mockWeatherFetcher{}, cache, lookup.WeatherOptions{MaxAge: time.Hour}, discardLogger())

	require.NotNil(t, r.Resolve(context.Background(), syracuse))
	require.Len(t, cache.ttls, 1)
	assert.LessOrEqual(t, cache.ttls[0], 15*time.Minute)
	assert.Greater(t, cache.ttls[0], 14*time.Minute)
}
