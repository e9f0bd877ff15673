package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinate is returned when a latitude or longitude is unparsable or out of range.
var ErrInvalidCoordinate = errors.New("invalid latitude/longitude")

// Coordinate is a latitude/longitude pair rounded to two decimal places.
// It is the lookup key for both location and weather records.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Round rounds x to two decimal places, halves away from zero. The half is
// judged on the shortest decimal form of x, so 1.005 rounds to 1.01 even though
// its binary value is slightly below it. Negative zero is returned as zero so
// keys render identically.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	neg := x < 0
	s := strconv.FormatFloat(math.Abs(x), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) <= 2 {
		return noNegZero(x)
	}

	digits := []byte(whole + frac[:2])
	if frac[2] >= '5' {
		digits = increment(digits)
	}

	n := len(digits)
	r, err := strconv.ParseFloat(string(digits[:n-2])+"."+string(digits[n-2:]), 64)
	if err != nil {
		return noNegZero(math.Round(x*100) / 100)
	}
	if neg {
		r = -r
	}
	return noNegZero(r)
}

// increment adds one to a decimal digit string, growing it on carry out.
func increment(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] < '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}

func noNegZero(x float64) float64 {
	if x == 0 {
		return 0
	}
	return x
}

// NewCoordinate rounds lat and lon and validates their ranges.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	lat, lon = Round(lat), Round(lon)

	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, lon)
	}

	return Coordinate{Lat: lat, Lon: lon}, nil
}

// ParseCoordinate parses decimal lat/lon strings, as taken from a request path.
func ParseCoordinate(lat, lon string) (Coordinate, error) {
	latVal, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, lat)
	}
	lonVal, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, lon)
	}
	return NewCoordinate(latVal, lonVal)
}

// String renders the coordinate as "lat,lon" with two decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.2f,%.2f", c.Lat, c.Lon)
}
