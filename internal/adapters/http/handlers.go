package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/usecases"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
	"github.com/samirrijal/geodraw/internal/pkg/metrics"
)

// SessionResponse is returned by every session action.
type SessionResponse struct {
	ID      string              `json:"id"`
	Applied *bool               `json:"applied,omitempty"` // undo/redo only
	State   domain.SessionState `json:"state"`
}

// SaveResponse is returned after a successful save.
type SaveResponse struct {
	Location *domain.Location    `json:"location"`
	State    domain.SessionState `json:"state"`
}

// ValidateResponse is the result of a stateless geometry check.
type ValidateResponse struct {
	IsValid bool                 `json:"is_valid"`
	Errors  []string             `json:"errors"`
	Stats   domain.GeometryStats `json:"stats"`
}

type drawRequest struct {
	Kind string `json:"kind"` // "point" | "polygon"
}

type editRequest struct {
	FeatureID  string `json:"feature_id"`
	LocationID string `json:"location_id"`
}

type featureRequest struct {
	Geometry   *domain.Geometry `json:"geometry"`
	Properties map[string]any   `json:"properties"`
}

type saveRequest struct {
	Name string `json:"name"`
}

type geoJSONExporter interface {
	FeatureCollection() *geojson.FeatureCollection
}

func lookupSession(c *fiber.Ctx, deps *Dependencies) (*usecases.ManagedSession, error) {
	return deps.Sessions.Get(c.Params("id"))
}

func sessionJSON(c *fiber.Ctx, ms *usecases.ManagedSession) error {
	return c.JSON(SessionResponse{ID: ms.ID, State: ms.Session.State()})
}

func observeValidation(st domain.SessionState) {
	if st.CurrentFeature == nil || st.ValidationResult == nil {
		return
	}
	metrics.ObserveValidation(string(st.CurrentFeature.Geometry.Type), st.ValidationResult.IsValid)
}

// CreateSessionHandler opens a new draw session.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := deps.Sessions.Create()
		if errors.Is(err, usecases.ErrTooManySessions) {
			return errUnavailable(c, err.Error())
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		metrics.SessionsActive.Set(float64(deps.Sessions.Len()))
		return c.Status(201).JSON(SessionResponse{ID: ms.ID, State: ms.Session.State()})
	}
}

// GetSessionHandler returns the session state.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		return sessionJSON(c, ms)
	}
}

// DeleteSessionHandler closes a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Sessions.Delete(c.Params("id"))
		metrics.SessionsActive.Set(float64(deps.Sessions.Len()))
		return c.SendStatus(204)
	}
}

// StartDrawHandler switches the session to drawing a new point or polygon.
func StartDrawHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}

		var req drawRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		switch req.Kind {
		case "point":
			ms.Session.StartDrawPoint()
		case "polygon":
			ms.Session.StartDrawPolygon()
		default:
			return errBadRequest(c, "kind must be point or polygon")
		}
		return sessionJSON(c, ms)
	}
}

// StartEditHandler enters edit mode on a surface feature, or on a persisted
// location which is first loaded onto the surface.
func StartEditHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}

		var req editRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		switch {
		case req.LocationID != "":
			if deps.Locations == nil {
				return errInternal(c, "locations not available")
			}
			loc, err := deps.Locations.GetByID(c.UserContext(), req.LocationID)
			if err != nil {
				return errLookup(c, err, "location")
			}
			feature := domain.DrawFeature{
				ID:         loc.ID,
				Geometry:   loc.Geometry,
				Properties: map[string]any{"name": loc.Name, "type": loc.Type},
			}
			if !ms.Surface.Put(feature) {
				ms.Surface.Add(feature)
			}
			ms.Session.StartEdit(loc.ID, &domain.EditTargetMetadata{
				LocationID: loc.ID,
				Version:    loc.Version,
				Type:       loc.Type,
			})
		case req.FeatureID != "":
			if ms.Surface.Get(req.FeatureID) == nil {
				return errNotFound(c, "feature not found")
			}
			ms.Session.StartEdit(req.FeatureID, nil)
		default:
			return errBadRequest(c, "feature_id or location_id is required")
		}

		st := ms.Session.State()
		observeValidation(st)
		return c.JSON(SessionResponse{ID: ms.ID, State: st})
	}
}

// AddFeatureHandler reports a feature drawn by the client.
func AddFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}

		var req featureRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Geometry == nil {
			return errBadRequest(c, "geometry is required")
		}
		if mode := ms.Session.State().Mode; mode != domain.ModeDrawPoint && mode != domain.ModeDrawPolygon {
			return errConflict(c, "session is not drawing; start a point or polygon first")
		}

		feature := domain.DrawFeature{Geometry: *req.Geometry, Properties: req.Properties}
		feature.ID = ms.Surface.Add(feature)[0]
		ms.Session.HandleFeatureCreated(feature)

		st := ms.Session.State()
		observeValidation(st)
		return c.Status(201).JSON(SessionResponse{ID: ms.ID, State: st})
	}
}

// UpdateFeatureHandler reports an edit of a feature on the surface.
func UpdateFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}

		var req featureRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Geometry == nil {
			return errBadRequest(c, "geometry is required")
		}

		feature := domain.DrawFeature{ID: c.Params("fid"), Geometry: *req.Geometry, Properties: req.Properties}
		if !ms.Surface.Put(feature) {
			return errNotFound(c, "feature not found")
		}
		ms.Session.HandleFeatureUpdated(feature)

		st := ms.Session.State()
		observeValidation(st)
		return c.JSON(SessionResponse{ID: ms.ID, State: st})
	}
}

// ListFeaturesHandler returns the features on the session surface.
func ListFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		features, pg := paginate(c, ms.Surface.All())
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: features, Pagination: pg})
	}
}

// SurfaceGeoJSONHandler exports the session surface as a GeoJSON
// FeatureCollection.
func SurfaceGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		exp, ok := ms.Surface.(geoJSONExporter)
		if !ok {
			return errInternal(c, "surface cannot export geojson")
		}
		data, err := exp.FeatureCollection().MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// UndoHandler steps back in the session history.
func UndoHandler(deps *Dependencies) fiber.Handler {
	return historyHandler(deps, (*usecases.DrawSession).Undo)
}

// RedoHandler re-applies an undone step.
func RedoHandler(deps *Dependencies) fiber.Handler {
	return historyHandler(deps, (*usecases.DrawSession).Redo)
}

func historyHandler(deps *Dependencies, step func(*usecases.DrawSession) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		applied := step(ms.Session)
		return c.JSON(SessionResponse{ID: ms.ID, Applied: &applied, State: ms.Session.State()})
	}
}

// CancelHandler discards the current draft or edit.
func CancelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		ms.Session.CancelDraw()
		return sessionJSON(c, ms)
	}
}

// ClearHandler removes everything from the session surface.
func ClearHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		ms.Session.ClearFeature()
		return sessionJSON(c, ms)
	}
}

// StatsHandler returns live statistics for the feature being drawn.
func StatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		stats, ok := ms.Session.Stats()
		if !ok {
			return errNotFound(c, "no feature in progress")
		}
		return c.JSON(stats)
	}
}

// SaveHandler persists the current feature. Saving is refused while the
// geometry is invalid; the session itself does not enforce this.
func SaveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ms, err := lookupSession(c, deps)
		if err != nil {
			return errNotFound(c, "session not found")
		}
		if deps.Locations == nil {
			return errInternal(c, "locations not available")
		}

		var req saveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}

		st := ms.Session.State()
		if st.CurrentFeature == nil {
			return errBadRequest(c, "nothing to save")
		}
		if st.ValidationResult == nil || !st.ValidationResult.IsValid {
			var details []string
			if st.ValidationResult != nil {
				details = st.ValidationResult.Errors
			}
			return errUnprocessable(c, "geometry is not valid", details)
		}

		var saved *domain.Location
		save := deps.Locations.SaveHandler(st.EditLocationMetadata, func(loc *domain.Location) { saved = loc })
		if req.Name != "" {
			inner := save
			save = func(ctx context.Context, f domain.DrawFeature) error {
				if f.Properties == nil {
					f.Properties = make(map[string]any, 1)
				}
				f.Properties["name"] = req.Name
				return inner(ctx, f)
			}
		}
		start := time.Now()
		err = ms.Session.SaveFeatureWith(c.UserContext(), save)
		if errors.Is(err, usecases.ErrSaveInProgress) {
			return errConflict(c, "a save is already in progress for this session")
		}
		metrics.GeometrySaveDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.GeometrySaves.WithLabelValues(string(domain.ClassifySaveError(err))).Inc()
			return errSave(c, err)
		}
		metrics.GeometrySaves.WithLabelValues("ok").Inc()

		return c.JSON(SaveResponse{Location: saved, State: ms.Session.State()})
	}
}

// ValidateGeometryHandler validates a geometry outside of any session.
func ValidateGeometryHandler(deps *Dependencies) fiber.Handler {
	v := deps.validator()
	return func(c *fiber.Ctx) error {
		var req featureRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Geometry == nil {
			return errBadRequest(c, "geometry is required")
		}

		result := v.Validate(domain.DrawFeature{Geometry: *req.Geometry, Properties: req.Properties})
		metrics.ObserveValidation(string(req.Geometry.Type), result.IsValid)

		errs := result.Errors
		if errs == nil {
			errs = []string{}
		}
		return c.JSON(ValidateResponse{
			IsValid: result.IsValid,
			Errors:  errs,
			Stats:   geospatial.Stats(*req.Geometry),
		})
	}
}

// GetLocationHandler returns a persisted location.
func GetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Locations == nil {
			return errInternal(c, "locations not available")
		}
		loc, err := deps.Locations.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errLookup(c, err, "location")
		}
		c.Set("Cache-Control", "private, max-age=60")
		return c.JSON(loc)
	}
}
