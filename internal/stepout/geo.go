package stepout

import "math"

const earthRadiusMeters = 6371000

// Distance returns the haversine distance between a and b in meters.
func Distance(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * (math.Pi / 180)
	dLng := (b.Lng - a.Lng) * (math.Pi / 180)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*(math.Pi/180))*math.Cos(b.Lat*(math.Pi/180))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair outside [0,1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
