package surface_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/geodraw/internal/adapters/surface"
	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/ports"
)

func TestMemory_AddAssignsID(t *testing.T) {
	m := surface.NewMemory()
	ids := m.Add(domain.DrawFeature{Geometry: domain.NewPoint(1, 2)})
	require.Len(t, ids, 1)
	assert.NotEmpty(t, ids[0])

	f := m.Get(ids[0])
	require.NotNil(t, f)
	assert.Equal(t, ids[0], f.ID)
	assert.Nil(t, m.Get("missing"))
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := surface.NewMemory()
	m.Add(domain.DrawFeature{ID: "p", Geometry: domain.NewPoint(1, 2)})

	f := m.Get("p")
	f.Geometry.Point[0] = 99

	assert.Equal(t, 1.0, m.Get("p").Geometry.Point[0])
}

func TestMemory_PutDeleteOrder(t *testing.T) {
	m := surface.NewMemory()
	m.Add(domain.DrawFeature{ID: "a", Geometry: domain.NewPoint(1, 1)})
	m.Add(domain.DrawFeature{ID: "b", Geometry: domain.NewPoint(2, 2)})
	m.Add(domain.DrawFeature{ID: "c", Geometry: domain.NewPoint(3, 3)})

	assert.True(t, m.Put(domain.DrawFeature{ID: "b", Geometry: domain.NewPoint(5, 5)}))
	assert.False(t, m.Put(domain.DrawFeature{ID: "z", Geometry: domain.NewPoint(5, 5)}))

	m.Delete("a")
	m.Delete("missing")

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, 5.0, all[0].Geometry.Point.Lng())
	assert.Equal(t, "c", all[1].ID)

	m.DeleteAll()
	assert.Empty(t, m.All())
}

func TestMemory_ChangeMode(t *testing.T) {
	m := surface.NewMemory()
	mode, target := m.Mode()
	assert.Equal(t, ports.SurfaceModeSimpleSelect, mode)
	assert.Empty(t, target)

	m.ChangeMode(ports.SurfaceModeDirectSelect, &ports.ModeOptions{FeatureID: "a"})
	mode, target = m.Mode()
	assert.Equal(t, ports.SurfaceModeDirectSelect, mode)
	assert.Equal(t, "a", target)
}

func TestMemory_GeoJSONRoundTrip(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	poly := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	poly.ID = "zone"
	poly.Properties["name"] = "Zone A"
	fc.Append(poly)
	fc.Append(geojson.NewFeature(orb.Point{-2.93, 43.26}))

	m := surface.NewMemory()
	ids, err := m.Load(fc)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, "zone", ids[0])

	zone := m.Get("zone")
	require.NotNil(t, zone)
	assert.Equal(t, domain.GeometryPolygon, zone.Geometry.Type)
	assert.Equal(t, "Zone A", zone.Properties["name"])

	out := m.FeatureCollection()
	require.Len(t, out.Features, 2)
	assert.Equal(t, "zone", out.Features[0].ID)
	assert.Equal(t, "Polygon", out.Features[0].Geometry.GeoJSONType())
}

func TestMemory_LoadRejectsLineString(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}}))

	_, err := surface.NewMemory().Load(fc)
	assert.Error(t, err)
}
