package lookup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/metrics"
	"github.com/neexbeast/vetero/internal/upstream"
)

// LocationStore is the persistent store used by LocationResolver.
type LocationStore interface {
	FindLocation(ctx context.Context, c geo.Coordinate) (*Location, error)
	SaveLocation(ctx context.Context, c geo.Coordinate, loc Location) error
}

// LocationCache is the optional hot tier in front of LocationStore.
type LocationCache interface {
	GetLocation(ctx context.Context, c geo.Coordinate) (*Location, error)
	SetLocation(ctx context.Context, c geo.Coordinate, loc *Location) error
}

// LocationFetcher is satisfied by upstream.GeoNamesClient.
type LocationFetcher interface {
	FetchLocation(ctx context.Context, c geo.Coordinate) ([]byte, error)
}

// LocationResolver resolves place metadata cache-aside. Stored locations never
// expire: once a coordinate has a name it is not looked up again.
type LocationResolver struct {
	store   LocationStore
	cache   LocationCache
	fetcher LocationFetcher
	log     *slog.Logger
}

// NewLocationResolver constructs a LocationResolver. cache may be nil.
func NewLocationResolver(store LocationStore, fetcher LocationFetcher, cache LocationCache, log *slog.Logger) *LocationResolver {
	return &LocationResolver{
		store:   store,
		cache:   cache,
		fetcher: fetcher,
		log:     log.With("component", "location-resolver"),
	}
}

// Resolve returns the location for c, or nil when it cannot be resolved.
// Failures are logged, never returned.
func (r *LocationResolver) Resolve(ctx context.Context, c geo.Coordinate) *Location {
	kind := upstream.KindLocation.String()

	if r.cache != nil {
		loc, err := r.cache.GetLocation(ctx, c)
		if err != nil {
			r.log.Warn("location cache get failed", "coord", c.String(), "err", err)
		} else if loc != nil {
			metrics.RecordLookup(kind, metrics.SourceCache)
			return loc
		}
	}

	loc, err := r.store.FindLocation(ctx, c)
	if err != nil {
		metrics.RecordStoreError("find_location")
		r.log.Error("location store read failed, falling back to upstream", "coord", c.String(), "err", err)
	} else if loc != nil {
		metrics.RecordLookup(kind, metrics.SourceStore)
		r.setCache(ctx, c, loc)
		return loc
	}

	body, err := r.fetcher.FetchLocation(ctx, c)
	if err != nil {
		metrics.RecordLookup(kind, metrics.SourceNone)
		r.log.Error("location fetch failed", "coord", c.String(), "err", err)
		return nil
	}

	loc, err = ParseLocation(body)
	if err != nil {
		metrics.RecordLookup(kind, metrics.SourceNone)
		switch {
		case errors.Is(err, ErrNoResults):
			r.log.Info("no location found", "coord", c.String())
		case errors.Is(err, upstream.ErrUpstream):
			r.log.Error("location provider rejected request", "coord", c.String(), "err", err)
		default:
			r.log.Error("location response unusable", "coord", c.String(), "err", err)
		}
		return nil
	}

	if err := r.store.SaveLocation(ctx, c, *loc); err != nil {
		metrics.RecordStoreError("save_location")
		r.log.Warn("location store write failed", "coord", c.String(), "err", err)
	}
	r.setCache(ctx, c, loc)

	metrics.RecordLookup(kind, metrics.SourceUpstream)
	return loc
}

func (r *LocationResolver) setCache(ctx context.Context, c geo.Coordinate, loc *Location) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetLocation(ctx, c, loc); err != nil {
		r.log.Warn("location cache set failed", "coord", c.String(), "err", err)
	}
}
