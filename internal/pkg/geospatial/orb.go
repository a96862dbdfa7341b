package geospatial

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// ToOrb converts a domain geometry. Malformed positions are rejected rather
// than padded.
func ToOrb(g domain.Geometry) (orb.Geometry, error) {
	switch g.Type {
	case domain.GeometryPoint:
		return toOrbPoint(g.Point)
	case domain.GeometryPolygon:
		poly := make(orb.Polygon, 0, len(g.Polygon))
		for i, ring := range g.Polygon {
			r := make(orb.Ring, 0, len(ring))
			for j, pos := range ring {
				p, err := toOrbPoint(pos)
				if err != nil {
					return nil, fmt.Errorf("ring %d position %d: %w", i, j, err)
				}
				r = append(r, p)
			}
			poly = append(poly, r)
		}
		return poly, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}

func toOrbPoint(p domain.Position) (orb.Point, error) {
	if len(p) != 2 {
		return orb.Point{}, fmt.Errorf("position has %d coordinates, want 2", len(p))
	}
	return orb.Point{p[0], p[1]}, nil
}

// FromOrb converts an orb point or polygon into a domain geometry.
func FromOrb(g orb.Geometry) (domain.Geometry, error) {
	switch v := g.(type) {
	case orb.Point:
		return domain.NewPoint(v[0], v[1]), nil
	case orb.Polygon:
		rings := make([]domain.Ring, len(v))
		for i, ring := range v {
			r := make(domain.Ring, len(ring))
			for j, p := range ring {
				r[j] = domain.Position{p[0], p[1]}
			}
			rings[i] = r
		}
		return domain.NewPolygon(rings...), nil
	case nil:
		return domain.Geometry{}, fmt.Errorf("missing geometry")
	default:
		return domain.Geometry{}, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}
