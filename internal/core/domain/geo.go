package domain

import (
	"encoding/json"
	"fmt"
)

// GeometryType discriminates the Geometry union.
type GeometryType string

const (
	GeometryPoint   GeometryType = "Point"
	GeometryPolygon GeometryType = "Polygon"
)

// Position is a [lng, lat] pair in WGS 84. It is a slice rather than an
// array because features coming from a drawing surface may be malformed.
type Position []float64

// Lng returns the longitude, or 0 for a malformed position.
func (p Position) Lng() float64 {
	if len(p) < 1 {
		return 0
	}
	return p[0]
}

// Lat returns the latitude, or 0 for a malformed position.
func (p Position) Lat() float64 {
	if len(p) < 2 {
		return 0
	}
	return p[1]
}

// Equal reports exact numeric equality of both coordinates.
func (p Position) Equal(o Position) bool {
	if len(p) < 2 || len(o) < 2 {
		return false
	}
	return p[0] == o[0] && p[1] == o[1]
}

// Ring is an ordered sequence of positions. A valid ring is closed.
type Ring []Position

// Geometry is either a Point or a Polygon. The first polygon ring is the
// outer boundary, subsequent rings are holes.
type Geometry struct {
	Type    GeometryType `json:"type"`
	Point   Position     `json:"-"`
	Polygon []Ring       `json:"-"`
}

// NewPoint builds a point geometry.
func NewPoint(lng, lat float64) Geometry {
	return Geometry{Type: GeometryPoint, Point: Position{lng, lat}}
}

// NewPolygon builds a polygon geometry from rings.
func NewPolygon(rings ...Ring) Geometry {
	return Geometry{Type: GeometryPolygon, Polygon: rings}
}

// OuterRing returns rings[0] for polygons, nil otherwise.
func (g Geometry) OuterRing() Ring {
	if g.Type != GeometryPolygon || len(g.Polygon) == 0 {
		return nil
	}
	return g.Polygon[0]
}

// Clone returns a deep copy.
func (g Geometry) Clone() Geometry {
	out := Geometry{Type: g.Type}
	if g.Point != nil {
		out.Point = append(Position(nil), g.Point...)
	}
	if g.Polygon != nil {
		out.Polygon = make([]Ring, len(g.Polygon))
		for i, ring := range g.Polygon {
			if ring == nil {
				continue
			}
			r := make(Ring, len(ring))
			for j, pos := range ring {
				if pos != nil {
					r[j] = append(Position(nil), pos...)
				}
			}
			out.Polygon[i] = r
		}
	}
	return out
}

type geoJSONGeometry struct {
	Type        GeometryType    `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// MarshalJSON encodes the geometry as a GeoJSON geometry object.
func (g Geometry) MarshalJSON() ([]byte, error) {
	var coords any
	switch g.Type {
	case GeometryPoint:
		coords = g.Point
	case GeometryPolygon:
		coords = g.Polygon
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	return json.Marshal(geoJSONGeometry{Type: g.Type, Coordinates: raw})
}

// UnmarshalJSON decodes a GeoJSON geometry object. Unknown geometry types
// are kept (without coordinates) so validation can report them.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	var raw geoJSONGeometry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Geometry{Type: raw.Type}
	if len(raw.Coordinates) == 0 || string(raw.Coordinates) == "null" {
		return nil
	}
	switch raw.Type {
	case GeometryPoint:
		if err := json.Unmarshal(raw.Coordinates, &g.Point); err != nil {
			return fmt.Errorf("point coordinates: %w", err)
		}
	case GeometryPolygon:
		if err := json.Unmarshal(raw.Coordinates, &g.Polygon); err != nil {
			return fmt.Errorf("polygon coordinates: %w", err)
		}
	}
	return nil
}
