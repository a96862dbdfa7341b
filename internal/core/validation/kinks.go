package validation

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

var (
	errShortRing    = errors.New("each ring of a polygon must have 4 or more positions")
	errUnclosedRing = errors.New("first and last position of a ring are not equivalent")
	errBadPosition  = errors.New("position must have two coordinates")
)

// outerPolygon builds an orb.Polygon from a ring, refusing rings that do
// not describe a polygon.
func outerPolygon(ring domain.Ring) (orb.Polygon, error) {
	if len(ring) < 4 {
		return nil, errShortRing
	}
	r := make(orb.Ring, len(ring))
	for i, p := range ring {
		if len(p) < 2 {
			return nil, errBadPosition
		}
		r[i] = orb.Point{p[0], p[1]}
	}
	if !r.Closed() {
		return nil, errUnclosedRing
	}
	return orb.Polygon{r}, nil
}

// Kinks returns the points where non-adjacent edges of a closed ring cross
// or touch. Parallel and collinear edges are not reported.
func Kinks(ring orb.Ring) []orb.Point {
	var out []orb.Point
	segments := len(ring) - 1
	for i := 0; i < segments; i++ {
		for j := i + 1; j < segments; j++ {
			if j == i+1 {
				continue
			}
			// The first and last edges share the closing vertex.
			if i == 0 && j == segments-1 && ring.Closed() {
				continue
			}
			if p, ok := segmentIntersection(ring[i], ring[i+1], ring[j], ring[j+1]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func segmentIntersection(a1, a2, b1, b2 orb.Point) (orb.Point, bool) {
	denom := (b2[1]-b1[1])*(a2[0]-a1[0]) - (b2[0]-b1[0])*(a2[1]-a1[1])
	if denom == 0 {
		return orb.Point{}, false
	}
	ua := ((b2[0]-b1[0])*(a1[1]-b1[1]) - (b2[1]-b1[1])*(a1[0]-b1[0])) / denom
	ub := ((a2[0]-a1[0])*(a1[1]-b1[1]) - (a2[1]-a1[1])*(a1[0]-b1[0])) / denom
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return orb.Point{}, false
	}
	return orb.Point{a1[0] + ua*(a2[0]-a1[0]), a1[1] + ua*(a2[1]-a1[1])}, true
}
