package geospatial

import (
	"math"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// EarthRadius is the mean Earth radius in meters used by the area
// approximation.
const EarthRadius = 6371000.0

// CalculatePolygonArea returns the area in m² enclosed by the outer ring.
// Holes are ignored. Degenerate input (no ring, fewer than 3 substantive
// vertices, malformed or non-finite coordinates) yields 0.
//
// The spherical Shoelace approximation degrades for polygons larger than
// about 100 km², near the poles (|lat| > 60°) and across the antimeridian.
func CalculatePolygonArea(rings []domain.Ring) float64 {
	if len(rings) == 0 {
		return 0
	}
	ring := rings[0]
	if substantiveVertices(ring) < 3 {
		return 0
	}
	for _, p := range ring {
		if !wellFormed(p) {
			return 0
		}
	}

	n := len(ring)
	var sum float64
	for i := 0; i < n; i++ {
		p1, p2 := ring[i], ring[(i+1)%n]
		sum += (toRad(p2.Lng()) - toRad(p1.Lng())) *
			(2 + math.Sin(toRad(p1.Lat())) + math.Sin(toRad(p2.Lat())))
	}

	return math.Abs(sum * EarthRadius * EarthRadius / 2)
}

// CountPolygonVertices returns the outer ring length minus the closing
// point, or 0 when fewer than 3 vertices remain. The ring is assumed to be
// closed.
func CountPolygonVertices(rings []domain.Ring) int {
	if len(rings) == 0 {
		return 0
	}
	n := len(rings[0]) - 1
	if n < 3 {
		return 0
	}
	return n
}

// Stats computes the live-display statistics for a geometry.
func Stats(g domain.Geometry) domain.GeometryStats {
	switch g.Type {
	case domain.GeometryPolygon:
		area := CalculatePolygonArea(g.Polygon)
		return domain.GeometryStats{
			Area:          area,
			FormattedArea: FormatArea(area),
			VertexCount:   CountPolygonVertices(g.Polygon),
			Perimeter:     RingPerimeter(g.OuterRing()),
		}
	case domain.GeometryPoint:
		return domain.GeometryStats{FormattedArea: FormatArea(0), VertexCount: 1}
	default:
		return domain.GeometryStats{FormattedArea: FormatArea(0)}
	}
}

func substantiveVertices(ring domain.Ring) int {
	n := len(ring)
	if n > 1 && ring[0].Equal(ring[n-1]) {
		n--
	}
	return n
}

func wellFormed(p domain.Position) bool {
	return len(p) >= 2 && isFinite(p[0]) && isFinite(p[1])
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
