package ports

import (
	"context"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// LocationRepository persists locations.
type LocationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	Create(ctx context.Context, loc *domain.Location) error
	// UpdateGeometry applies upd if the stored version still equals
	// expectedVersion and returns the stored row. A stale version yields
	// domain.ErrVersionConflict.
	UpdateGeometry(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishGeometrySaved(ctx context.Context, event *domain.GeometrySavedEvent) error
}
