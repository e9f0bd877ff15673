package api

import (
	"context"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/lookup"
)

// Lookuper resolves location and weather for a coordinate.
type Lookuper interface {
	Lookup(ctx context.Context, c geo.Coordinate) (*lookup.Result, error)
}

// Authorizer decides whether an Authorization header grants a resource.
type Authorizer interface {
	CanAccess(ctx context.Context, header, resource string) (bool, error)
	Penalty(ctx context.Context)
}

type dbPinger interface {
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) error
}
