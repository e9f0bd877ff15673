package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/metrics"
)

const geoNamesDefaultURL = "https://secure.geonames.org/findNearbyPlaceNameJSON"

// GeoNamesClient looks up the nearest named place for a coordinate.
type GeoNamesClient struct {
	username string
	baseURL  string
	getter   Getter
}

// NewGeoNamesClient constructs a GeoNamesClient for the production endpoint.
func NewGeoNamesClient(getter Getter, username string) *GeoNamesClient {
	return &GeoNamesClient{username: username, baseURL: geoNamesDefaultURL, getter: getter}
}

// NewGeoNamesClientWithURL constructs a GeoNamesClient pointing at a custom base URL.
func NewGeoNamesClientWithURL(getter Getter, baseURL, username string) *GeoNamesClient {
	return &GeoNamesClient{username: username, baseURL: baseURL, getter: getter}
}

// Kind reports which provider this client talks to.
func (c *GeoNamesClient) Kind() Kind { return KindLocation }

// FetchLocation returns the raw JSON body for c. GeoNames answers 200 even when
// nothing is found, so the status is not inspected; callers must check the
// result list in the body.
func (c *GeoNamesClient) FetchLocation(ctx context.Context, coord geo.Coordinate) ([]byte, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.2f", coord.Lat))
	params.Set("lng", fmt.Sprintf("%.2f", coord.Lon))
	params.Set("username", c.username)
	endpoint := c.baseURL + "?" + params.Encode()

	start := time.Now()
	resp, err := c.getter.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordUpstream("geonames", "network_error", time.Since(start))
		return nil, fmt.Errorf("geonames fetch for %s: %w", coord, err)
	}
	metrics.RecordUpstream("geonames", "success", time.Since(start))

	return resp.Body, nil
}
