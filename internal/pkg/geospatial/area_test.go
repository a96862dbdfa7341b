package geospatial_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

func equatorSquare() []domain.Ring {
	return []domain.Ring{{{0, 0}, {0.009, 0}, {0.009, 0.009}, {0, 0.009}, {0, 0}}}
}

func TestCalculatePolygonArea_EquatorSquare(t *testing.T) {
	area := geospatial.CalculatePolygonArea(equatorSquare())
	if area < 900_000 || area > 1_100_000 {
		t.Fatalf("expected ~1,000,000 m², got %f", area)
	}
}

func TestCalculatePolygonArea_RotationInvariant(t *testing.T) {
	base := geospatial.CalculatePolygonArea(equatorSquare())
	rotated := []domain.Ring{{{0.009, 0}, {0.009, 0.009}, {0, 0.009}, {0, 0}, {0.009, 0}}}
	got := geospatial.CalculatePolygonArea(rotated)
	if math.Abs(got-base) > 1e-6*base {
		t.Errorf("rotated ring area %f differs from %f", got, base)
	}

	reversed := []domain.Ring{{{0, 0}, {0, 0.009}, {0.009, 0.009}, {0.009, 0}, {0, 0}}}
	if got := geospatial.CalculatePolygonArea(reversed); math.Abs(got-base) > 1e-6*base {
		t.Errorf("reversed ring area %f differs from %f", got, base)
	}
}

func TestCalculatePolygonArea_IgnoresHoles(t *testing.T) {
	rings := append(equatorSquare(), domain.Ring{{0.001, 0.001}, {0.002, 0.001}, {0.002, 0.002}, {0.001, 0.001}})
	if got, want := geospatial.CalculatePolygonArea(rings), geospatial.CalculatePolygonArea(equatorSquare()); got != want {
		t.Errorf("expected holes to be ignored: got %f want %f", got, want)
	}
}

func TestCalculatePolygonArea_Degenerate(t *testing.T) {
	cases := map[string][]domain.Ring{
		"nil":            nil,
		"empty ring":     {{}},
		"two vertices":   {{{0, 0}, {1, 1}, {0, 0}}},
		"single point":   {{{0, 0}}},
		"malformed pair": {{{0, 0}, {1}, {1, 1}, {0, 0}}},
		"non-finite":     {{{0, 0}, {math.NaN(), 0}, {1, 1}, {0, 0}}},
		"infinite":       {{{0, 0}, {1, 0}, {1, math.Inf(1)}, {0, 0}}},
	}
	for name, rings := range cases {
		t.Run(name, func(t *testing.T) {
			if got := geospatial.CalculatePolygonArea(rings); got != 0 {
				t.Errorf("expected 0, got %f", got)
			}
		})
	}
}

func TestCalculatePolygonArea_MatchesOrbUpToRadius(t *testing.T) {
	poly := orb.Polygon{{{-2.94, 43.26}, {-2.93, 43.26}, {-2.93, 43.27}, {-2.94, 43.27}, {-2.94, 43.26}}}
	rings := []domain.Ring{{{-2.94, 43.26}, {-2.93, 43.26}, {-2.93, 43.27}, {-2.94, 43.27}, {-2.94, 43.26}}}

	scale := (geospatial.EarthRadius / orb.EarthRadius) * (geospatial.EarthRadius / orb.EarthRadius)
	want := math.Abs(geo.Area(poly)) * scale
	got := geospatial.CalculatePolygonArea(rings)
	if math.Abs(got-want) > 1e-3*want {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestCountPolygonVertices(t *testing.T) {
	if got := geospatial.CountPolygonVertices(equatorSquare()); got != 4 {
		t.Errorf("expected 4 vertices, got %d", got)
	}
	if got := geospatial.CountPolygonVertices([]domain.Ring{{{0, 0}}}); got != 0 {
		t.Errorf("expected 0 for a single point, got %d", got)
	}
	if got := geospatial.CountPolygonVertices(nil); got != 0 {
		t.Errorf("expected 0 for no rings, got %d", got)
	}
	// Unclosed rings still use the length-1 heuristic.
	unclosed := []domain.Ring{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	if got := geospatial.CountPolygonVertices(unclosed); got != 3 {
		t.Errorf("expected 3 for unclosed ring, got %d", got)
	}
}

func TestStats_Polygon(t *testing.T) {
	stats := geospatial.Stats(domain.NewPolygon(equatorSquare()...))
	if stats.VertexCount != 4 {
		t.Errorf("expected 4 vertices, got %d", stats.VertexCount)
	}
	if stats.FormattedArea != "1.00 km²" {
		t.Errorf("expected 1.00 km², got %s", stats.FormattedArea)
	}
	// Four edges of ~1001 m each.
	if stats.Perimeter < 3900 || stats.Perimeter > 4100 {
		t.Errorf("unexpected perimeter %f", stats.Perimeter)
	}
}

func TestStats_Point(t *testing.T) {
	stats := geospatial.Stats(domain.NewPoint(-2.935, 43.263))
	if stats.VertexCount != 1 || stats.Area != 0 {
		t.Errorf("unexpected point stats: %+v", stats)
	}
}
