package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
)

// ErrStore is wrapped by every error returned from Repository.
var ErrStore = errors.New("store error")

// wildcardResource grants access to every resource.
const wildcardResource = "*"

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides database access for locations, weather snapshots and
// access grants.
type Repository struct {
	q Querier
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// FindLocation returns the stored location for c.
// Returns nil, nil when the coordinate has not been resolved yet.
func (r *Repository) FindLocation(ctx context.Context, c geo.Coordinate) (*lookup.Location, error) {
	const q = `
		SELECT name, region, country
		FROM locations
		WHERE lat = $1 AND lon = $2
	`

	var loc lookup.Location
	err := r.q.QueryRow(ctx, q, c.Lat, c.Lon).Scan(&loc.Name, &loc.Region, &loc.Country)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying location %s: %w", ErrStore, c, err)
	}

	return &loc, nil
}

// SaveLocation inserts a location. Locations are immutable, so a concurrent
// insert for the same coordinate is ignored.
func (r *Repository) SaveLocation(ctx context.Context, c geo.Coordinate, loc lookup.Location) error {
	const q = `
		INSERT INTO locations (lat, lon, name, region, country)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (lat, lon) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, q, c.Lat, c.Lon, loc.Name, loc.Region, loc.Country); err != nil {
		return fmt.Errorf("%w: inserting location %s: %w", ErrStore, c, err)
	}

	return nil
}

// FindWeather returns the stored weather blob for c and when it was written.
// Returns nil, nil on miss.
func (r *Repository) FindWeather(ctx context.Context, c geo.Coordinate) (*lookup.StoredWeather, error) {
	const q = `
		SELECT weather, updated
		FROM weather
		WHERE lat = $1 AND lon = $2
	`

	var sw lookup.StoredWeather
	err := r.q.QueryRow(ctx, q, c.Lat, c.Lon).Scan(&sw.Blob, &sw.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: querying weather %s: %w", ErrStore, c, err)
	}

	return &sw, nil
}

// SaveWeather upserts the weather blob for c. The latest write wins.
func (r *Repository) SaveWeather(ctx context.Context, c geo.Coordinate, blob []byte, updated time.Time) error {
	const q = `
		INSERT INTO weather (lat, lon, weather, updated)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lat, lon) DO UPDATE
		SET weather = EXCLUDED.weather,
		    updated = EXCLUDED.updated
	`

	if _, err := r.q.Exec(ctx, q, c.Lat, c.Lon, blob, updated); err != nil {
		return fmt.Errorf("%w: upserting weather %s: %w", ErrStore, c, err)
	}

	return nil
}

// CheckAuthorization reports whether any enabled grant for token covers resource.
func (r *Repository) CheckAuthorization(ctx context.Context, token, resource string) (bool, error) {
	const q = `
		SELECT enabled, resources
		FROM "authorization"
		WHERE token = $1
	`

	rows, err := r.q.Query(ctx, q, token)
	if err != nil {
		return false, fmt.Errorf("%w: querying authorization: %w", ErrStore, err)
	}
	defer rows.Close()

	granted := false
	for rows.Next() {
		var (
			enabled   bool
			resources string
		)
		if err := rows.Scan(&enabled, &resources); err != nil {
			return false, fmt.Errorf("%w: scanning authorization row: %w", ErrStore, err)
		}
		if grants(enabled, resources, resource) {
			granted = true
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("%w: iterating authorization rows: %w", ErrStore, err)
	}

	return granted, nil
}

// grants reports whether a single grant row covers resource. resources is a
// comma-separated set; "*" covers everything.
func grants(enabled bool, resources, resource string) bool {
	if !enabled {
		return false
	}
	for _, r := range strings.Split(resources, ",") {
		if r == wildcardResource || (r != "" && r == resource) {
			return true
		}
	}
	return false
}
