package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/ports"
)

const locationCacheTTL = 600 // seconds

var tracer = otel.Tracer("github.com/samirrijal/geodraw/internal/core/usecases")

// LocationService loads and persists the locations edited in draw sessions.
type LocationService struct {
	locations ports.LocationRepository
	cache     ports.CacheService
	events    ports.EventPublisher
	group     singleflight.Group
	now       func() time.Time

	// cacheMu orders cache writes from loads against those from saves.
	// saves counts successful saves; a load only fills the cache when no
	// save finished while it was reading.
	cacheMu sync.Mutex
	saves   uint64
}

// NewLocationService creates a new LocationService. cache and events may be
// nil.
func NewLocationService(locations ports.LocationRepository, cache ports.CacheService, events ports.EventPublisher) *LocationService {
	return &LocationService{locations: locations, cache: cache, events: events, now: time.Now}
}

func locationCacheKey(id string) string {
	return "locations:id:" + id
}

// GetByID returns a location, reading through the cache. Concurrent loads
// of the same id share one repository call.
func (s *LocationService) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	cacheKey := locationCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var loc domain.Location
			if err := json.Unmarshal(data, &loc); err == nil {
				return &loc, nil
			}
		}
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		s.cacheMu.Lock()
		gen := s.saves
		s.cacheMu.Unlock()

		loc, err := s.locations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cacheMu.Lock()
			if s.saves == gen {
				s.cacheLocation(ctx, loc)
			}
			s.cacheMu.Unlock()
		}
		return loc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Location), nil
}

// SaveGeometry persists the feature geometry. Without edit metadata a new
// location is created; otherwise the existing one is updated under the
// optimistic lock of meta.Version.
func (s *LocationService) SaveGeometry(ctx context.Context, feature domain.DrawFeature, meta *domain.EditTargetMetadata) (*domain.Location, error) {
	ctx, span := tracer.Start(ctx, "LocationService.SaveGeometry")
	defer span.End()

	var (
		loc     *domain.Location
		created bool
		err     error
	)
	if meta == nil || meta.LocationID == "" {
		loc, err = s.create(ctx, feature, meta)
		created = true
	} else {
		span.SetAttributes(
			attribute.String("location.id", meta.LocationID),
			attribute.Int("location.expected_version", meta.Version),
		)
		loc, err = s.update(ctx, feature, meta)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.ClassifySaveError(err)))
		return nil, err
	}
	span.SetAttributes(attribute.Bool("location.created", created), attribute.Int("location.version", loc.Version))

	s.storeSaved(ctx, loc)

	if s.events != nil {
		event := &domain.GeometrySavedEvent{
			LocationID: loc.ID,
			Type:       loc.Type,
			Version:    loc.Version,
			Created:    created,
			Geometry:   loc.Geometry,
			SavedAt:    loc.UpdatedAt,
		}
		if err := s.events.PublishGeometrySaved(ctx, event); err != nil {
			slog.WarnContext(ctx, "publish geometry saved", "location_id", loc.ID, "error", err)
		}
	}

	return loc, nil
}

// storeSaved replaces the cached copy with the saved location and keeps
// loads that started before the save from caching what they read.
func (s *LocationService) storeSaved(ctx context.Context, loc *domain.Location) {
	s.group.Forget(loc.ID)
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.saves++
	if s.cache == nil {
		return
	}
	if !s.cacheLocation(ctx, loc) {
		_ = s.cache.Delete(ctx, locationCacheKey(loc.ID))
	}
}

func (s *LocationService) cacheLocation(ctx context.Context, loc *domain.Location) bool {
	data, err := json.Marshal(loc)
	if err != nil {
		return false
	}
	return s.cache.Set(ctx, locationCacheKey(loc.ID), data, locationCacheTTL) == nil
}

func (s *LocationService) create(ctx context.Context, feature domain.DrawFeature, meta *domain.EditTargetMetadata) (*domain.Location, error) {
	loc := &domain.Location{
		ID:        uuid.NewString(),
		Name:      stringProperty(feature.Properties, "name"),
		Type:      locationType(feature, meta),
		Geometry:  feature.Geometry.Clone(),
		Version:   1,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

func (s *LocationService) update(ctx context.Context, feature domain.DrawFeature, meta *domain.EditTargetMetadata) (*domain.Location, error) {
	upd := domain.LocationUpdate{
		Geometry: feature.Geometry.Clone(),
		Name:     stringProperty(feature.Properties, "name"),
	}
	loc, err := s.locations.UpdateGeometry(ctx, meta.LocationID, upd, meta.Version)
	if err != nil {
		return nil, fmt.Errorf("update location %s: %w", meta.LocationID, err)
	}
	return loc, nil
}

// SaveHandler binds SaveGeometry to a draw session. onSaved, if non-nil,
// receives the stored location.
func (s *LocationService) SaveHandler(meta *domain.EditTargetMetadata, onSaved func(*domain.Location)) ports.SaveFunc {
	return func(ctx context.Context, feature domain.DrawFeature) error {
		loc, err := s.SaveGeometry(ctx, feature, meta)
		if err != nil {
			return err
		}
		if onSaved != nil {
			onSaved(loc)
		}
		return nil
	}
}

func locationType(feature domain.DrawFeature, meta *domain.EditTargetMetadata) string {
	if meta != nil && meta.Type != "" {
		return meta.Type
	}
	if t := stringProperty(feature.Properties, "type"); t != "" {
		return t
	}
	if feature.Geometry.Type == domain.GeometryPolygon {
		return "region"
	}
	return "location"
}

func stringProperty(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
