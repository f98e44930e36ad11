// Package geo provides great-circle distance computation for the
// proximity check performed at check-in time.
package geo

import "math"

// EarthRadiusMeters is the mean radius of the spherical Earth model.
const EarthRadiusMeters = 6371000.0

// Point is a coordinate in decimal degrees.
type Point struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Valid reports whether the point is a usable lat/long pair.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Long >= -180 && p.Long <= 180
}

// Distance returns the haversine distance between two points in meters.
//
//	a = sin²(Δlat/2) + cos(lat1)·cos(lat2)·sin²(Δlon/2)
//	c = 2·atan2(√a, √(1−a))
//	d = R·c
func Distance(from, to Point) float64 {
	lat1 := toRadians(from.Lat)
	lat2 := toRadians(to.Lat)
	dLat := toRadians(to.Lat - from.Lat)
	dLong := toRadians(to.Long - from.Long)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLong/2)*math.Sin(dLong/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// WithinRadius reports whether to lies at most radiusMeters from from.
// The boundary is inclusive: a point exactly at the radius passes.
func WithinRadius(from, to Point, radiusMeters float64) bool {
	return Distance(from, to) <= radiusMeters
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
