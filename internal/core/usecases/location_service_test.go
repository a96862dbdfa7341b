package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/usecases"
)

// --- Mock LocationRepository ---

type mockLocationRepo struct {
	getByIDFn        func(ctx context.Context, id string) (*domain.Location, error)
	createFn         func(ctx context.Context, loc *domain.Location) error
	updateGeometryFn func(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error)
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockLocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	if m.createFn != nil {
		return m.createFn(ctx, loc)
	}
	return nil
}

func (m *mockLocationRepo) UpdateGeometry(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error) {
	if m.updateGeometryFn != nil {
		return m.updateGeometryFn(ctx, id, upd, expectedVersion)
	}
	return &domain.Location{ID: id, Name: upd.Name, Geometry: upd.Geometry, Version: expectedVersion + 1}, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deleted = append(c.deleted, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.GeometrySavedEvent
	err    error
}

func (p *mockPublisher) PublishGeometrySaved(ctx context.Context, e *domain.GeometrySavedEvent) error {
	p.events = append(p.events, e)
	return p.err
}

// --- Tests ---

func TestLocationService_GetByIDCaches(t *testing.T) {
	calls := 0
	repo := &mockLocationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Location, error) {
			calls++
			return &domain.Location{ID: id, Name: "Plaza Moyua", Geometry: domain.NewPoint(-2.9349, 43.2630), Version: 2}, nil
		},
	}
	cache := newMockCache()
	svc := usecases.NewLocationService(repo, cache, nil)

	for i := 0; i < 2; i++ {
		loc, err := svc.GetByID(context.Background(), "loc-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loc.Name != "Plaza Moyua" || loc.Version != 2 {
			t.Errorf("unexpected location: %+v", loc)
		}
		if loc.Geometry.Point.Lat() != 43.2630 {
			t.Errorf("expected geometry to survive cache round trip, got %v", loc.Geometry.Point)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 repository call, got %d", calls)
	}
}

func TestLocationService_GetByIDCollapsesConcurrentLoads(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	repo := &mockLocationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Location, error) {
			calls.Add(1)
			<-release
			return &domain.Location{ID: id}, nil
		},
	}
	svc := usecases.NewLocationService(repo, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.GetByID(context.Background(), "loc-1"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 5 {
		t.Errorf("unexpected call count %d", n)
	}
}

func TestLocationService_GetByIDNotFound(t *testing.T) {
	svc := usecases.NewLocationService(&mockLocationRepo{}, nil, nil)
	if _, err := svc.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLocationService_SaveGeometryCreates(t *testing.T) {
	var created *domain.Location
	repo := &mockLocationRepo{
		createFn: func(ctx context.Context, loc *domain.Location) error {
			created = loc
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewLocationService(repo, nil, pub)

	feature := square("draft", 0.009)
	feature.Properties = map[string]any{"name": "Zone A"}
	loc, err := svc.SaveGeometry(context.Background(), feature, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.ID != loc.ID {
		t.Fatal("expected repository Create with returned location")
	}
	if loc.Version != 1 || loc.Type != "region" || loc.Name != "Zone A" {
		t.Errorf("unexpected location: %+v", loc)
	}
	if len(pub.events) != 1 || !pub.events[0].Created || pub.events[0].LocationID != loc.ID {
		t.Errorf("expected created event, got %+v", pub.events)
	}
}

func TestLocationService_SaveGeometryUpdates(t *testing.T) {
	var gotVersion int
	repo := &mockLocationRepo{
		updateGeometryFn: func(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error) {
			gotVersion = expectedVersion
			return &domain.Location{ID: id, Type: "zone", Geometry: upd.Geometry, Version: expectedVersion + 1}, nil
		},
	}
	cache := newMockCache()
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewLocationService(repo, cache, pub)

	meta := &domain.EditTargetMetadata{LocationID: "loc-1", Version: 4, Type: "zone"}
	loc, err := svc.SaveGeometry(context.Background(), square("loc-1", 0.009), meta)
	if err != nil {
		t.Fatalf("publish failure must not fail the save: %v", err)
	}
	if gotVersion != 4 || loc.Version != 5 || loc.Type != "zone" {
		t.Errorf("unexpected update: expected=%d loc=%+v", gotVersion, loc)
	}
	cached, err := svc.GetByID(context.Background(), "loc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached.Version != 5 {
		t.Errorf("expected saved location cached at version 5, got %d", cached.Version)
	}
	if len(pub.events) != 1 || pub.events[0].Created {
		t.Errorf("expected update event, got %+v", pub.events)
	}
}

func TestLocationService_SaveGeometryConflict(t *testing.T) {
	repo := &mockLocationRepo{
		updateGeometryFn: func(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error) {
			return nil, domain.ErrVersionConflict
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewLocationService(repo, nil, pub)

	meta := &domain.EditTargetMetadata{LocationID: "loc-1", Version: 1}
	_, err := svc.SaveGeometry(context.Background(), square("loc-1", 0.009), meta)
	if domain.ClassifySaveError(err) != domain.SaveErrorConflict {
		t.Errorf("expected conflict, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("expected no event on failure")
	}
}

func TestLocationService_SaveHandlerDrivesSession(t *testing.T) {
	var stored *domain.Location
	svc := usecases.NewLocationService(&mockLocationRepo{}, nil, nil)
	surface := newFakeSurface()
	s := usecases.NewDrawSession(surface)
	s.SetSaveHandler(svc.SaveHandler(nil, func(loc *domain.Location) { stored = loc }))

	s.StartDrawPoint()
	s.HandleFeatureCreated(domain.DrawFeature{ID: "p", Geometry: domain.NewPoint(-2.93, 43.26)})
	if err := s.SaveFeature(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil || stored.Type != "location" {
		t.Errorf("expected stored point location, got %+v", stored)
	}

	conflict := usecases.NewLocationService(&mockLocationRepo{
		updateGeometryFn: func(ctx context.Context, id string, upd domain.LocationUpdate, v int) (*domain.Location, error) {
			return nil, fmt.Errorf("stale: %w", domain.ErrVersionConflict)
		},
	}, nil, nil)
	surface.Add(square("loc-9", 0.009))
	meta := &domain.EditTargetMetadata{LocationID: "loc-9", Version: 2}
	s.StartEdit("loc-9", meta)
	s.SetSaveHandler(conflict.SaveHandler(meta, nil))
	if err := s.SaveFeature(context.Background()); !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("expected version conflict, got %v", err)
	}
	if s.State().Mode != domain.ModeEdit {
		t.Error("expected edit session preserved after conflict")
	}
}

// storedLocations is an in-memory repository that behaves like the table:
// updates bump the version and keep the name unless a new one is given.
type storedLocations struct {
	mu   sync.Mutex
	rows map[string]domain.Location
}

func (r *storedLocations) repo() *mockLocationRepo {
	return &mockLocationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Location, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			loc, ok := r.rows[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return &loc, nil
		},
		updateGeometryFn: func(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			loc, ok := r.rows[id]
			if !ok {
				return nil, domain.ErrNotFound
			}
			if loc.Version != expectedVersion {
				return nil, domain.ErrVersionConflict
			}
			loc.Geometry = upd.Geometry
			if upd.Name != "" {
				loc.Name = upd.Name
			}
			loc.Version++
			loc.UpdatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			r.rows[id] = loc
			return &loc, nil
		},
	}
}

func TestLocationService_SaveGeometryRenames(t *testing.T) {
	rows := &storedLocations{rows: map[string]domain.Location{
		"loc-1": {ID: "loc-1", Name: "Old", Type: "zone", Version: 3, Metadata: map[string]any{"owner": "parks"}},
	}}
	svc := usecases.NewLocationService(rows.repo(), nil, nil)
	meta := &domain.EditTargetMetadata{LocationID: "loc-1", Version: 3}

	feature := square("loc-1", 0.009)
	feature.Properties = map[string]any{"name": "New"}
	saved, err := svc.SaveGeometry(context.Background(), feature, meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := svc.GetByID(context.Background(), "loc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Name != "New" || stored.Name != "New" {
		t.Errorf("expected rename persisted, returned %q stored %q", saved.Name, stored.Name)
	}
	if saved.Version != 4 || !saved.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Errorf("expected returned location to be the stored row, got %+v", saved)
	}
	if saved.Metadata["owner"] != "parks" || saved.Type != "zone" {
		t.Errorf("expected stored type and metadata in response, got %+v", saved)
	}

	// No name keeps the stored one.
	meta.Version = 4
	saved, err = svc.SaveGeometry(context.Background(), square("loc-1", 0.008), meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Name != "New" || saved.Version != 5 {
		t.Errorf("expected name kept at version 5, got %+v", saved)
	}
}

func TestLocationService_LoadDuringSaveDoesNotCacheStaleVersion(t *testing.T) {
	rows := &storedLocations{rows: map[string]domain.Location{
		"loc-1": {ID: "loc-1", Name: "Plaza", Version: 3},
	}}
	repo := rows.repo()
	read := repo.getByIDFn
	reading := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	repo.getByIDFn = func(ctx context.Context, id string) (*domain.Location, error) {
		loc, err := read(ctx, id)
		if first.CompareAndSwap(false, true) {
			close(reading)
			<-release
		}
		return loc, err
	}
	cache := newMockCache()
	svc := usecases.NewLocationService(repo, cache, nil)

	loaded := make(chan *domain.Location, 1)
	go func() {
		loc, err := svc.GetByID(context.Background(), "loc-1")
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		loaded <- loc
	}()

	<-reading
	meta := &domain.EditTargetMetadata{LocationID: "loc-1", Version: 3}
	if _, err := svc.SaveGeometry(context.Background(), square("loc-1", 0.009), meta); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(release)
	if loc := <-loaded; loc == nil || loc.Version != 3 {
		t.Fatalf("expected the in-flight load to return what it read, got %+v", loc)
	}

	loc, err := svc.GetByID(context.Background(), "loc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Version != 4 {
		t.Fatalf("expected version 4 after save, got %d", loc.Version)
	}

	// Editing from the freshly loaded version must not conflict.
	meta = &domain.EditTargetMetadata{LocationID: "loc-1", Version: loc.Version}
	if _, err := svc.SaveGeometry(context.Background(), square("loc-1", 0.008), meta); err != nil {
		t.Errorf("expected save from reloaded version to succeed, got %v", err)
	}
}
