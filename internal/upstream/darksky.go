package upstream

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/metrics"
)

const (
	darkSkyDefaultURL = "https://api.darksky.net/forecast"
	darkSkyQuery      = "lang=en&units=us&exclude=minutely,hourly,alerts,flags"
)

// DarkSkyClient fetches current conditions and the daily forecast for a coordinate.
type DarkSkyClient struct {
	secret  string
	baseURL string
	getter  Getter
}

// NewDarkSkyClient constructs a DarkSkyClient for the production endpoint.
func NewDarkSkyClient(getter Getter, secret string) *DarkSkyClient {
	return &DarkSkyClient{secret: secret, baseURL: darkSkyDefaultURL, getter: getter}
}

// NewDarkSkyClientWithURL constructs a DarkSkyClient pointing at a custom base URL.
func NewDarkSkyClientWithURL(getter Getter, baseURL, secret string) *DarkSkyClient {
	return &DarkSkyClient{secret: secret, baseURL: baseURL, getter: getter}
}

// Kind reports which provider this client talks to.
func (c *DarkSkyClient) Kind() Kind { return KindWeather }

// FetchWeather returns the raw JSON forecast body for coord.
// A 4xx/5xx answer is reported as ErrUpstream.
func (c *DarkSkyClient) FetchWeather(ctx context.Context, coord geo.Coordinate) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/%s/%.2f,%.2f?%s",
		c.baseURL, url.PathEscape(c.secret), coord.Lat, coord.Lon, darkSkyQuery)

	start := time.Now()
	resp, err := c.getter.Get(ctx, endpoint)
	if err != nil {
		metrics.RecordUpstream("darksky", "network_error", time.Since(start))
		return nil, fmt.Errorf("darksky fetch for %s: %w", coord, err)
	}

	if resp.StatusCode >= 400 {
		metrics.RecordUpstream("darksky", "upstream_error", time.Since(start))
		return nil, fmt.Errorf("darksky fetch for %s: %w: HTTP %d", coord, ErrUpstream, resp.StatusCode)
	}
	metrics.RecordUpstream("darksky", "success", time.Since(start))

	return resp.Body, nil
}
