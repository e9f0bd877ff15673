package lookup

import "time"

// Location is the place-name metadata for a coordinate.
type Location struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

// ForecastDay is one day of the short forecast.
type ForecastDay struct {
	Description     string `json:"description"`
	TemperatureHigh int    `json:"temperature_high"`
	TemperatureLow  int    `json:"temperature_low"`
	Time            int64  `json:"time"`
}

// Weather is the normalized point-in-time snapshot plus forecast.
// WindBearing is nil when there is no wind.
type Weather struct {
	Description  string        `json:"description"`
	Humidity     float64       `json:"humidity"`
	PrecipChance float64       `json:"precip_chance"`
	Temperature  int           `json:"temperature"`
	WindSpeed    int           `json:"wind_speed"`
	WindBearing  *int          `json:"wind_bearing"`
	Time         int64         `json:"time"`
	Forecast     []ForecastDay `json:"forecast"`
}

// StoredWeather is a persisted weather row: the serialized Weather and when it was written.
type StoredWeather struct {
	Blob    []byte
	Updated time.Time
}

// Result holds both resolutions for one coordinate. Either field may be nil
// when it could not be resolved.
type Result struct {
	Location *Location
	Weather  *Weather
}
