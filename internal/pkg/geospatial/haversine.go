package geospatial

import (
	"math"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// RingPerimeter sums the great-circle length of consecutive ring edges in
// meters. Malformed positions are skipped.
func RingPerimeter(ring domain.Ring) float64 {
	var total float64
	for i := 0; i+1 < len(ring); i++ {
		a, b := ring[i], ring[i+1]
		if !wellFormed(a) || !wellFormed(b) {
			continue
		}
		total += Haversine(a.Lat(), a.Lng(), b.Lat(), b.Lng())
	}
	return total
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
