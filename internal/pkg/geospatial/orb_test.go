package geospatial_test

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

func TestToOrbPolygon(t *testing.T) {
	g := domain.NewPolygon(domain.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 0}})
	og, err := geospatial.ToOrb(g)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poly, ok := og.(orb.Polygon)
	if !ok {
		t.Fatalf("expected orb.Polygon, got %T", og)
	}
	if len(poly) != 1 || len(poly[0]) != 4 || poly[0][1] != (orb.Point{1, 0}) {
		t.Errorf("unexpected polygon %v", poly)
	}

	back, err := geospatial.FromOrb(poly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Type != domain.GeometryPolygon || !back.Polygon[0][2].Equal(domain.Position{1, 1}) {
		t.Errorf("unexpected geometry %+v", back)
	}
}

func TestToOrbRejectsMalformed(t *testing.T) {
	cases := []domain.Geometry{
		{Type: domain.GeometryPoint, Point: domain.Position{1}},
		domain.NewPolygon(domain.Ring{{0, 0}, {1}, {1, 1}, {0, 0}}),
		{Type: "LineString"},
	}
	for _, g := range cases {
		if _, err := geospatial.ToOrb(g); err == nil {
			t.Errorf("expected error for %+v", g)
		}
	}
}

func TestFromOrbUnsupported(t *testing.T) {
	if _, err := geospatial.FromOrb(orb.LineString{{0, 0}, {1, 1}}); err == nil {
		t.Error("expected error for line string")
	}
	if _, err := geospatial.FromOrb(nil); err == nil {
		t.Error("expected error for nil geometry")
	}
}
