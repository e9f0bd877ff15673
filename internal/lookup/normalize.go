package lookup

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/neexbeast/vetero/internal/geo"
	"github.com/neexbeast/vetero/internal/upstream"
)

const (
	secondsPerDay = 24 * 60 * 60

	// unknownDescription fills forecast days the provider did not return.
	unknownDescription = "unknown"
)

var (
	// ErrNoResults is returned when the geocoder found no place near the coordinate.
	ErrNoResults = errors.New("no results")

	// ErrMalformedResponse is returned when a provider body cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed provider response")
)

type geoNamesResponse struct {
	// Status is set instead of results when GeoNames rejects the request,
	// e.g. an unknown username or an exhausted credit quota.
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
	GeoNames []struct {
		Name        string `json:"name"`
		AdminName1  string `json:"adminName1"`
		CountryCode string `json:"countryCode"`
	} `json:"geonames"`
}

type darkSkyResponse struct {
	Currently *struct {
		Time              float64 `json:"time"`
		Icon              string  `json:"icon"`
		Humidity          float64 `json:"humidity"`
		PrecipProbability float64 `json:"precipProbability"`
		Temperature       float64 `json:"temperature"`
		WindSpeed         float64 `json:"windSpeed"`
		WindBearing       float64 `json:"windBearing"`
	} `json:"currently"`
	Daily struct {
		Data []struct {
			Time            float64 `json:"time"`
			Icon            string  `json:"icon"`
			TemperatureHigh float64 `json:"temperatureHigh"`
			TemperatureLow  float64 `json:"temperatureLow"`
		} `json:"data"`
	} `json:"daily"`
}

// ParseLocation extracts the first place from a GeoNames findNearbyPlaceName body.
// A status object in the body is reported as upstream.ErrUpstream.
func ParseLocation(body []byte) (*Location, error) {
	var raw geoNamesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding geonames body: %w", ErrMalformedResponse, err)
	}

	if raw.Status != nil {
		return nil, fmt.Errorf("%w: geonames status %d: %s", upstream.ErrUpstream, raw.Status.Value, raw.Status.Message)
	}

	if len(raw.GeoNames) == 0 {
		return nil, ErrNoResults
	}

	first := raw.GeoNames[0]
	return &Location{
		Name:    first.Name,
		Region:  first.AdminName1,
		Country: first.CountryCode,
	}, nil
}

// NormalizeWeather converts a DarkSky forecast body into a Weather with exactly
// days forecast entries, in provider order.
func NormalizeWeather(body []byte, days int) (*Weather, error) {
	var raw darkSkyResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding darksky body: %w", ErrMalformedResponse, err)
	}
	if raw.Currently == nil {
		return nil, fmt.Errorf("%w: missing current conditions", ErrMalformedResponse)
	}

	cur := raw.Currently
	w := &Weather{
		Description:  cur.Icon,
		Humidity:     geo.Round(cur.Humidity),
		PrecipChance: geo.Round(cur.PrecipProbability),
		Temperature:  roundInt(cur.Temperature),
		WindSpeed:    roundInt(cur.WindSpeed),
		Time:         int64(cur.Time),
		Forecast:     make([]ForecastDay, 0, max(days, 0)),
	}

	// Direction is meaningless without wind.
	if cur.WindSpeed > 0 {
		bearing := roundInt(cur.WindBearing)
		w.WindBearing = &bearing
	}

	for _, d := range raw.Daily.Data {
		if len(w.Forecast) >= days {
			break
		}
		w.Forecast = append(w.Forecast, ForecastDay{
			Description:     d.Icon,
			TemperatureHigh: roundInt(d.TemperatureHigh),
			TemperatureLow:  roundInt(d.TemperatureLow),
			Time:            int64(d.Time),
		})
	}

	next := w.Time
	if n := len(w.Forecast); n > 0 {
		next = w.Forecast[n-1].Time + secondsPerDay
	}
	for len(w.Forecast) < days {
		w.Forecast = append(w.Forecast, ForecastDay{Description: unknownDescription, Time: next})
		next += secondsPerDay
	}

	return w, nil
}

func roundInt(x float64) int {
	return int(math.Round(x))
}
