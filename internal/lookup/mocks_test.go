package lookup_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var syracuse = geo.Coordinate{Lat: 43.05, Lon: -76.15}

// ---- location store ----

type savedLocation struct {
	coord geo.Coordinate
	loc   lookup.Location
}

type mockLocationStore struct {
	findFn func(ctx context.Context, c geo.Coordinate) (*lookup.Location, error)
	saveFn func(ctx context.Context, c geo.Coordinate, loc lookup.Location) error

	mu    sync.Mutex
	saved []savedLocation
}

func (m *mockLocationStore) FindLocation(ctx context.Context, c geo.Coordinate) (*lookup.Location, error) {
	if m.findFn == nil {
		return nil, nil
	}
	return m.findFn(ctx, c)
}

func (m *mockLocationStore) SaveLocation(ctx context.Context, c geo.Coordinate, loc lookup.Location) error {
	m.mu.Lock()
	m.saved = append(m.saved, savedLocation{coord: c, loc: loc})
	m.mu.Unlock()
	if m.saveFn == nil {
		return nil
	}
	return m.saveFn(ctx, c, loc)
}

// ---- weather store ----

type savedWeather struct {
	coord   geo.Coordinate
	blob    []byte
	updated time.Time
}

type mockWeatherStore struct {
	findFn func(ctx context.Context, c geo.Coordinate) (*lookup.StoredWeather, error)
	saveFn func(ctx context.Context, c geo.Coordinate, blob []byte, updated time.Time) error

	mu    sync.Mutex
	saved []savedWeather
}

func (m *mockWeatherStore) FindWeather(ctx context.Context, c geo.Coordinate) (*lookup.StoredWeather, error) {
	if m.findFn == nil {
		return nil, nil
	}
	return m.findFn(ctx, c)
}

func (m *mockWeatherStore) SaveWeather(ctx context.Context, c geo.Coordinate, blob []byte, updated time.Time) error {
	m.mu.Lock()
	m.saved = append(m.saved, savedWeather{coord: c, blob: blob, updated: updated})
	m.mu.Unlock()
	if m.saveFn == nil {
		return nil
	}
	return m.saveFn(ctx, c, blob, updated)
}

// ---- fetchers ----

type mockLocationFetcher struct {
	body  []byte
	err   error
	calls int
}

func (m *mockLocationFetcher) FetchLocation(_ context.Context, _ geo.Coordinate) ([]byte, error) {
	m.calls++
	return m.body, m.err
}

type mockWeatherFetcher struct {
	body  []byte
	err   error
	calls int
}

func (m *mockWeatherFetcher) FetchWeather(_ context.Context, _ geo.Coordinate) ([]byte, error) {
	m.calls++
	return m.body, m.err
}

// ---- caches ----

type mockLocationCache struct {
	getFn func(ctx context.Context, c geo.Coordinate) (*lookup.Location, error)
	sets  int
}

func (m *mockLocationCache) GetLocation(ctx context.Context, c geo.Coordinate) (*lookup.Location, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, c)
}

func (m *mockLocationCache) SetLocation(_ context.Context, _ geo.Coordinate, _ *lookup.Location) error {
	m.sets++
	return nil
}

type mockWeatherCache struct {
	getFn func(ctx context.Context, c geo.Coordinate) (*lookup.Weather, error)
	sets  int
	ttls  []time.Duration
}

func (m *mockWeatherCache) GetWeather(ctx context.Context, c geo.Coordinate) (*lookup.Weather, error) {
	if m.getFn == nil {
		return nil, nil
	}
	return m.getFn(ctx, c)
}

func (m *mockWeatherCache) SetWeather(_ context.Context, _ geo.Coordinate, _ *lookup.Weather, ttl time.Duration) error {
	m.sets++
	m.ttls = append(m.ttls, ttl)
	return nil
}
