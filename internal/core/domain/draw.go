package domain

import "time"

// DrawFeature is the in-progress feature owned by a draw session. It is
// never persisted directly.
type DrawFeature struct {
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Clone returns an independent snapshot of the feature.
func (f DrawFeature) Clone() DrawFeature {
	out := DrawFeature{ID: f.ID, Geometry: f.Geometry.Clone()}
	if f.Properties != nil {
		out.Properties = make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			out.Properties[k] = v
		}
	}
	return out
}

// EditTargetMetadata identifies a persisted entity being edited. Version is
// the optimistic-lock counter read when the edit started.
type EditTargetMetadata struct {
	LocationID string `json:"location_id"`
	Version    int    `json:"version"`
	Type       string `json:"type"`
}

// DrawMode is the active mode of a draw session.
type DrawMode string

const (
	ModeNone        DrawMode = "none"
	ModeDrawPoint   DrawMode = "draw_point"
	ModeDrawPolygon DrawMode = "draw_polygon"
	ModeEdit        DrawMode = "edit"
)

// ValidationResult reflects the current feature only.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// SessionState is a read-only snapshot of a draw session.
type SessionState struct {
	Mode                 DrawMode            `json:"mode"`
	CurrentFeature       *DrawFeature        `json:"current_feature,omitempty"`
	HasUnsavedChanges    bool                `json:"has_unsaved_changes"`
	ValidationResult     *ValidationResult   `json:"validation_result,omitempty"`
	EditFeatureID        string              `json:"edit_feature_id,omitempty"`
	EditLocationMetadata *EditTargetMetadata `json:"edit_location_metadata,omitempty"`
	CanUndo              bool                `json:"can_undo"`
	CanRedo              bool                `json:"can_redo"`
}

// GeometryStats is the live feedback shown while drawing.
type GeometryStats struct {
	Area          float64 `json:"area"` // m²
	FormattedArea string  `json:"formatted_area"`
	VertexCount   int     `json:"vertex_count"`
	Perimeter     float64 `json:"perimeter"` // m
}

// Location is a persisted point or region.
type Location struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Geometry  Geometry       `json:"geometry"`
	Version   int            `json:"version"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// LocationUpdate holds what a save may change on an existing location. An
// empty Name keeps the stored name.
type LocationUpdate struct {
	Geometry Geometry
	Name     string
}

// GeometrySavedEvent is published after a geometry has been persisted.
type GeometrySavedEvent struct {
	LocationID string    `json:"location_id"`
	Type       string    `json:"type"`
	Version    int       `json:"version"`
	Created    bool      `json:"created"`
	Geometry   Geometry  `json:"geometry"`
	SavedAt    time.Time `json:"saved_at"`
}
