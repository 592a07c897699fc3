package models

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// Coordinate represents a geocoded point together with the label the geocoder returned for it.
type Coordinate struct {
	Latitude    float64 `json:"latitude"`     // Latitude of the geographical point.
	Longitude   float64 `json:"longitude"`    // Longitude of the geographical point.
	DisplayName string  `json:"display_name"` // Human-readable label of the matched place.
}

// Valid reports whether the coordinate lies inside the WGS84 bounds.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Geohash encodes the point with the given character precision.
func (c Coordinate) Geohash(chars uint) string {
	return geohash.EncodeWithPrecision(c.Latitude, c.Longitude, chars)
}

const earthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance to other in kilometres.
func (c Coordinate) DistanceKM(other Coordinate) float64 {
	dLat := (other.Latitude - c.Latitude) * math.Pi / 180
	dLon := (other.Longitude - c.Longitude) * math.Pi / 180
	la1 := c.Latitude * math.Pi / 180
	la2 := other.Latitude * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
