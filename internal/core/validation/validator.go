// Package validation checks draw features against the geometric rules that
// gate saving: coordinate bounds, ring closure, minimum vertex count,
// self-intersection and area range.
package validation

import (
	"fmt"
	"math"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

const (
	// DefaultMinArea is the smallest accepted polygon area in m².
	DefaultMinArea = 1.0
	// DefaultMaxArea is the largest accepted polygon area in m² (10,000 km²).
	DefaultMaxArea = 10_000_000_000.0
)

// Error messages reported in ValidationResult.Errors.
const (
	MsgPointMalformed       = "Point must have exactly two coordinates [longitude, latitude]"
	MsgPointNotFinite       = "Point coordinates must be finite numbers"
	MsgLongitudeOutOfRange  = "Longitude must be between -180 and 180"
	MsgLatitudeOutOfRange   = "Latitude must be between -90 and 90"
	MsgPolygonNoCoordinates = "Polygon must have coordinates"
	MsgPolygonNotClosed     = "Polygon must be closed (first and last points must match)"
	MsgPolygonTooFewPoints  = "Polygon must have at least 3 vertices"
	MsgPolygonOutOfBounds   = "Polygon coordinates must be within valid bounds"
	MsgPolygonSelfIntersect = "Polygon must not have self-intersections"
)

// Limits bounds the accepted polygon area.
type Limits struct {
	MinArea float64 // m²
	MaxArea float64 // m²
}

// DefaultLimits returns the 1 m² .. 10,000 km² range.
func DefaultLimits() Limits {
	return Limits{MinArea: DefaultMinArea, MaxArea: DefaultMaxArea}
}

// Validator validates single geometries.
type Validator struct {
	limits Limits
}

// New creates a Validator. Zero limits fall back to the defaults.
func New(limits Limits) *Validator {
	if limits.MinArea <= 0 {
		limits.MinArea = DefaultMinArea
	}
	if limits.MaxArea <= 0 {
		limits.MaxArea = DefaultMaxArea
	}
	return &Validator{limits: limits}
}

var defaultValidator = New(DefaultLimits())

// Validate runs the default validator.
func Validate(feature domain.DrawFeature) domain.ValidationResult {
	return defaultValidator.Validate(feature)
}

// Limits returns the configured area limits.
func (v *Validator) Limits() Limits {
	return v.limits
}

// Validate dispatches on the geometry type. Polygon checks accumulate every
// applicable error so the caller can show the full list.
func (v *Validator) Validate(feature domain.DrawFeature) domain.ValidationResult {
	var errs []string
	switch feature.Geometry.Type {
	case domain.GeometryPoint:
		errs = validatePoint(feature.Geometry.Point)
	case domain.GeometryPolygon:
		errs = v.validatePolygon(feature.Geometry.Polygon)
	default:
		errs = []string{fmt.Sprintf("Unsupported geometry type: %s", feature.Geometry.Type)}
	}
	return domain.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

func validatePoint(p domain.Position) []string {
	var errs []string
	if len(p) != 2 {
		errs = append(errs, MsgPointMalformed)
	}

	nonFinite := false
	if len(p) >= 1 {
		if !isFinite(p[0]) {
			nonFinite = true
		} else if p[0] < -180 || p[0] > 180 {
			errs = append(errs, MsgLongitudeOutOfRange)
		}
	}
	if len(p) >= 2 {
		if !isFinite(p[1]) {
			nonFinite = true
		} else if p[1] < -90 || p[1] > 90 {
			errs = append(errs, MsgLatitudeOutOfRange)
		}
	}
	if nonFinite {
		errs = append(errs, MsgPointNotFinite)
	}
	return errs
}

func (v *Validator) validatePolygon(rings []domain.Ring) []string {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return []string{MsgPolygonNoCoordinates}
	}

	var errs []string
	outer := rings[0]

	if len(outer) < 4 || !outer[0].Equal(outer[len(outer)-1]) {
		errs = append(errs, MsgPolygonNotClosed)
	}

	if len(outer)-1 < 3 {
		errs = append(errs, MsgPolygonTooFewPoints)
	}

	inBounds := true
	for _, ring := range rings {
		for _, pos := range ring {
			if !validPosition(pos) {
				inBounds = false
				break
			}
		}
		if !inBounds {
			break
		}
	}
	if !inBounds {
		errs = append(errs, MsgPolygonOutOfBounds)
	}

	// Kinks are only searched on in-range coordinates. A ring that cannot
	// be turned into a polygon counts as self-intersecting.
	if inBounds {
		poly, err := outerPolygon(outer)
		if err != nil || len(Kinks(poly[0])) > 0 {
			errs = append(errs, MsgPolygonSelfIntersect)
		}
	}

	area := geospatial.CalculatePolygonArea(rings)
	if area < v.limits.MinArea {
		errs = append(errs, fmt.Sprintf("Polygon area is too small (minimum %s)", geospatial.FormatArea(v.limits.MinArea)))
	}
	if area > v.limits.MaxArea {
		errs = append(errs, fmt.Sprintf("Polygon area is too large (maximum %s)", geospatial.FormatArea(v.limits.MaxArea)))
	}

	return errs
}

func validPosition(p domain.Position) bool {
	if len(p) < 2 || !isFinite(p[0]) || !isFinite(p[1]) {
		return false
	}
	return p[0] >= -180 && p[0] <= 180 && p[1] >= -90 && p[1] <= 90
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
