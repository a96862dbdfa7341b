package ports

import (
	"context"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// Surface mode names understood by a DrawingSurface.
const (
	SurfaceModeSimpleSelect = "simple_select"
	SurfaceModeDirectSelect = "direct_select"
	SurfaceModeDrawPoint    = "draw_point"
	SurfaceModeDrawPolygon  = "draw_polygon"
)

// ModeOptions carries optional arguments for ChangeMode.
type ModeOptions struct {
	FeatureID string
}

// DrawingSurface is the mutable canvas of features rendered on the map.
type DrawingSurface interface {
	Get(id string) *domain.DrawFeature
	Add(feature domain.DrawFeature) []string
	Delete(id string)
	DeleteAll()
	ChangeMode(mode string, opts *ModeOptions)
}

// SaveFunc persists a feature. Its error is returned to the caller of
// DrawSession.SaveFeature unmodified.
type SaveFunc func(ctx context.Context, feature domain.DrawFeature) error

// EditableSurface is a DrawingSurface whose features can also be replaced
// and listed by a remote client.
type EditableSurface interface {
	DrawingSurface
	// Put replaces an existing feature and reports whether it existed.
	Put(feature domain.DrawFeature) bool
	All() []domain.DrawFeature
}
