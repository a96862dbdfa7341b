package postgres

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

// encodeGeoJSON renders a geometry for ST_GeomFromGeoJSON.
func encodeGeoJSON(g domain.Geometry) ([]byte, error) {
	og, err := geospatial.ToOrb(g)
	if err != nil {
		return nil, err
	}
	return geojson.NewGeometry(og).MarshalJSON()
}

// decodeEWKB converts ST_AsEWKB output into a domain geometry.
func decodeEWKB(b []byte) (domain.Geometry, error) {
	t, err := ewkb.Unmarshal(b)
	if err != nil {
		return domain.Geometry{}, fmt.Errorf("decode ewkb: %w", err)
	}
	switch g := t.(type) {
	case *geom.Point:
		c := g.Coords()
		return domain.NewPoint(c.X(), c.Y()), nil
	case *geom.Polygon:
		coords := g.Coords()
		rings := make([]domain.Ring, len(coords))
		for i, ring := range coords {
			r := make(domain.Ring, len(ring))
			for j, c := range ring {
				r[j] = domain.Position{c.X(), c.Y()}
			}
			rings[i] = r
		}
		return domain.NewPolygon(rings...), nil
	default:
		return domain.Geometry{}, fmt.Errorf("unsupported stored geometry %T", t)
	}
}
