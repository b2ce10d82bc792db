// Package entities contains the core domain objects for the weather collector
package entities

import (
	"time"
)

// TimestampLayout is the format OpenWeatherMap uses for its dt_txt field and
// the format forecast timestamps are written with in the CSV file.
const TimestampLayout = "2006-01-02 15:04:05"

// ForecastPoint represents one timestamped forecast entry for a single city
type ForecastPoint struct {
	Timestamp   time.Time // Time the forecast is for
	Temperature float64   // Temperature in °C
	Humidity    int       // Relative humidity in %
	WindSpeed   float64   // Wind speed in m/s
	Pressure    int       // Atmospheric pressure in hPa
	Visibility  *int      // Visibility in meters, nil when the API omits it
	Rainfall    float64   // Rain volume over 3h in mm, 0 when the API omits it
	CloudCover  int       // Cloudiness in %
	Icon        string    // Weather icon code
	Description string    // Free-text weather description
	City        string    // City display name, tagged after fetch
}

// Key returns the deduplication key for a point. Two points with the same
// timestamp and city are considered the same row.
func (p ForecastPoint) Key() string {
	return p.Timestamp.Format(TimestampLayout) + "|" + p.City
}

// ForecastTable is an ordered collection of forecast points
type ForecastTable []ForecastPoint

// Tagged returns a copy of the table with every point's City set to name
func (t ForecastTable) Tagged(name string) ForecastTable {
	tagged := make(ForecastTable, len(t))
	for i, p := range t {
		p.City = name
		tagged[i] = p
	}
	return tagged
}

// Deduplicate removes rows that share a (timestamp, city) key, keeping the
// first occurrence in table order
func (t ForecastTable) Deduplicate() ForecastTable {
	seen := make(map[string]bool, len(t))
	result := make(ForecastTable, 0, len(t))
	for _, p := range t {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, p)
	}
	return result
}
