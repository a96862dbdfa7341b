// Package surface provides an in-memory drawing surface for sessions driven
// by remote clients.
package surface

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/ports"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

// Memory implements ports.EditableSurface. Features keep their insertion
// order.
type Memory struct {
	mu       sync.RWMutex
	features map[string]domain.DrawFeature
	order    []string
	mode     string
	modeOpts *ports.ModeOptions
}

// NewMemory creates an empty surface in simple_select mode.
func NewMemory() *Memory {
	return &Memory{
		features: make(map[string]domain.DrawFeature),
		mode:     ports.SurfaceModeSimpleSelect,
	}
}

// New is a ports.EditableSurface factory for usecases.SessionManager.
func New() ports.EditableSurface {
	return NewMemory()
}

func (m *Memory) Get(id string) *domain.DrawFeature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.features[id]
	if !ok {
		return nil
	}
	c := f.Clone()
	return &c
}

// Add stores a copy of the feature, assigning an id when it has none, and
// returns the stored id.
func (m *Memory) Add(feature domain.DrawFeature) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := feature.Clone()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if _, exists := m.features[f.ID]; !exists {
		m.order = append(m.order, f.ID)
	}
	m.features[f.ID] = f
	return []string{f.ID}
}

func (m *Memory) Put(feature domain.DrawFeature) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.features[feature.ID]; !ok {
		return false
	}
	m.features[feature.ID] = feature.Clone()
	return true
}

func (m *Memory) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.features[id]; !ok {
		return
	}
	delete(m.features, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Memory) DeleteAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.features = make(map[string]domain.DrawFeature)
	m.order = nil
}

func (m *Memory) ChangeMode(mode string, opts *ports.ModeOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	if opts != nil {
		o := *opts
		m.modeOpts = &o
	} else {
		m.modeOpts = nil
	}
}

// Mode returns the current interaction mode and the feature it targets, if
// any.
func (m *Memory) Mode() (string, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.modeOpts == nil {
		return m.mode, ""
	}
	return m.mode, m.modeOpts.FeatureID
}

// All returns copies of the features in insertion order.
func (m *Memory) All() []domain.DrawFeature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.DrawFeature, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.features[id].Clone())
	}
	return out
}

// FeatureCollection exports the surface as GeoJSON. Features whose
// geometry cannot be represented are skipped.
func (m *Memory) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range m.All() {
		g, err := geospatial.ToOrb(f.Geometry)
		if err != nil {
			continue
		}
		gf := geojson.NewFeature(g)
		gf.ID = f.ID
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	return fc
}

// Load adds every point or polygon feature of a GeoJSON collection and
// returns the assigned ids.
func (m *Memory) Load(fc *geojson.FeatureCollection) ([]string, error) {
	var ids []string
	for i, gf := range fc.Features {
		g, err := geospatial.FromOrb(gf.Geometry)
		if err != nil {
			return ids, fmt.Errorf("feature %d: %w", i, err)
		}
		f := domain.DrawFeature{Geometry: g, Properties: map[string]any(gf.Properties.Clone())}
		if id, ok := gf.ID.(string); ok {
			f.ID = id
		}
		ids = append(ids, m.Add(f)...)
	}
	return ids, nil
}
