package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/vetero/internal/geo"
)

type locationResolver interface {
	Resolve(ctx context.Context, c geo.Coordinate) *Location
}

type weatherResolver interface {
	Resolve(ctx context.Context, c geo.Coordinate) *Weather
}

// Service resolves location and weather for a coordinate in parallel.
type Service struct {
	locations locationResolver
	weather   weatherResolver
	log       *slog.Logger
}

// NewService constructs a Service from its two resolvers.
func NewService(locations locationResolver, weather weatherResolver, log *slog.Logger) *Service {
	return &Service{locations: locations, weather: weather, log: log}
}

// Lookup runs both resolvers concurrently. An unresolvable half leaves its
// field nil; only a panic inside a resolver is reported as an error.
func (s *Service) Lookup(ctx context.Context, c geo.Coordinate) (*Result, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var result Result

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("location resolve panicked", "recover", r)
				err = fmt.Errorf("location resolve panicked: %v", r)
			}
		}()
		result.Location = s.locations.Resolve(gCtx, c)
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("weather resolve panicked", "recover", r)
				err = fmt.Errorf("weather resolve panicked: %v", r)
			}
		}()
		result.Weather = s.weather.Resolve(gCtx, c)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("looking up %s: %w", c, err)
	}

	return &result, nil
}
