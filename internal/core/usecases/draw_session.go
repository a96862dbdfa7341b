package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/history"
	"github.com/samirrijal/geodraw/internal/core/ports"
	"github.com/samirrijal/geodraw/internal/core/validation"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

var (
	// ErrNoSaveHandler is returned by SaveFeature when no save handler is set.
	ErrNoSaveHandler = errors.New("no save handler configured")
	// ErrSaveInProgress is returned when a save starts while another one on
	// the same session has not returned yet.
	ErrSaveInProgress = errors.New("save already in progress")
)

// SessionOption configures a DrawSession.
type SessionOption func(*DrawSession)

// WithSaveHandler sets the function that persists a feature on save.
func WithSaveHandler(fn ports.SaveFunc) SessionOption {
	return func(s *DrawSession) { s.save = fn }
}

// WithValidator replaces the default-limits validator.
func WithValidator(v *validation.Validator) SessionOption {
	return func(s *DrawSession) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithHistorySize bounds the undo and redo stacks.
func WithHistorySize(n int) SessionOption {
	return func(s *DrawSession) { s.history = history.New(n) }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *DrawSession) {
		if l != nil {
			s.logger = l
		}
	}
}

// DrawSession drives the creation and editing of a single feature on a
// drawing surface. It validates every change and keeps undo/redo history,
// but never refuses a save because of validation: gating on
// State().ValidationResult is up to the caller.
//
// Only one save runs at a time; an overlapping save fails with
// ErrSaveInProgress.
type DrawSession struct {
	mu        sync.Mutex
	surface   ports.DrawingSurface
	save      ports.SaveFunc
	validator *validation.Validator
	history   *history.History
	logger    *slog.Logger

	mode          domain.DrawMode
	current       *domain.DrawFeature
	unsaved       bool
	result        *domain.ValidationResult
	editFeatureID string
	editMeta      *domain.EditTargetMetadata
	saving        bool
}

// NewDrawSession creates a session in mode none. surface may be nil and
// attached later with SetSurface.
func NewDrawSession(surface ports.DrawingSurface, opts ...SessionOption) *DrawSession {
	s := &DrawSession{
		surface:   surface,
		validator: validation.New(validation.DefaultLimits()),
		history:   history.New(history.DefaultSize),
		logger:    slog.Default(),
		mode:      domain.ModeNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetSurface attaches the drawing surface once it is available.
func (s *DrawSession) SetSurface(surface ports.DrawingSurface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
}

// SetSaveHandler replaces the save handler.
func (s *DrawSession) SetSaveHandler(fn ports.SaveFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save = fn
}

// StartDrawPoint begins drawing a new point.
func (s *DrawSession) StartDrawPoint() {
	s.startDraw(domain.ModeDrawPoint, ports.SurfaceModeDrawPoint)
}

// StartDrawPolygon begins drawing a new polygon.
func (s *DrawSession) StartDrawPolygon() {
	s.startDraw(domain.ModeDrawPolygon, ports.SurfaceModeDrawPolygon)
}

func (s *DrawSession) startDraw(mode domain.DrawMode, surfaceMode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		s.logger.Warn("drawing surface not available", "mode", mode)
		return
	}

	s.discardDraft()
	s.surface.ChangeMode(surfaceMode, nil)
	s.reset()
	s.mode = mode
}

// StartEdit enters vertex editing of a feature already on the surface. meta
// identifies the persisted location behind it and may be nil.
func (s *DrawSession) StartEdit(featureID string, meta *domain.EditTargetMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.surface == nil {
		s.logger.Warn("drawing surface not available", "mode", domain.ModeEdit)
		return
	}

	f := s.surface.Get(featureID)
	if f == nil {
		s.logger.Error("feature to edit not found on surface", "feature_id", featureID)
		return
	}

	feature := f.Clone()
	s.surface.ChangeMode(ports.SurfaceModeDirectSelect, &ports.ModeOptions{FeatureID: featureID})

	s.history.Clear()
	s.mode = domain.ModeEdit
	s.editFeatureID = featureID
	if meta != nil {
		m := *meta
		s.editMeta = &m
	} else {
		s.editMeta = nil
	}
	s.current = &feature
	s.unsaved = false
	s.revalidate()
}

// HandleFeatureCreated records a feature reported as created by the surface.
func (s *DrawSession) HandleFeatureCreated(feature domain.DrawFeature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCurrent(feature)
}

// HandleFeatureUpdated records an edit. The replaced feature becomes an
// undo step.
func (s *DrawSession) HandleFeatureUpdated(feature domain.DrawFeature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.history.RecordChange(*s.current)
	}
	s.setCurrent(feature)
}

func (s *DrawSession) setCurrent(feature domain.DrawFeature) {
	f := feature.Clone()
	s.current = &f
	s.unsaved = true
	s.revalidate()
}

// Undo restores the previous feature state. It reports whether a step was
// applied.
func (s *DrawSession) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	prev, ok := s.history.Undo(*s.current)
	if !ok {
		return false
	}
	s.restore(prev)
	return true
}

// Redo re-applies the last undone state.
func (s *DrawSession) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	next, ok := s.history.Redo(*s.current)
	if !ok {
		return false
	}
	s.restore(next)
	return true
}

func (s *DrawSession) restore(f domain.DrawFeature) {
	if s.surface != nil {
		if s.current.ID != "" {
			s.surface.Delete(s.current.ID)
		}
		if ids := s.surface.Add(f); f.ID == "" && len(ids) > 0 {
			f.ID = ids[0]
		}
		if s.mode == domain.ModeEdit && f.ID != "" {
			s.surface.ChangeMode(ports.SurfaceModeDirectSelect, &ports.ModeOptions{FeatureID: f.ID})
		}
	}
	s.current = &f
	s.unsaved = true
	s.revalidate()
}

// SaveFeature hands a copy of the current feature to the save handler. A
// handler error is returned as is and leaves the session untouched so the
// save can be retried. On success the draft is removed from the surface and
// the session returns to mode none.
func (s *DrawSession) SaveFeature(ctx context.Context) error {
	return s.saveWith(ctx, nil)
}

// SaveFeatureWith is SaveFeature with fn used for this save only, in place
// of the configured handler.
func (s *DrawSession) SaveFeatureWith(ctx context.Context, fn ports.SaveFunc) error {
	if fn == nil {
		return ErrNoSaveHandler
	}
	return s.saveWith(ctx, fn)
}

func (s *DrawSession) saveWith(ctx context.Context, save ports.SaveFunc) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		s.logger.Warn("save requested with no feature")
		return nil
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	if save == nil {
		save = s.save
	}
	if save == nil {
		s.mu.Unlock()
		return ErrNoSaveHandler
	}
	s.saving = true
	feature := s.current.Clone()
	s.mu.Unlock()

	err := save(ctx, feature)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return err
	}
	if s.surface != nil && feature.ID != "" {
		s.surface.Delete(feature.ID)
	}
	s.reset()
	return nil
}

// CancelDraw discards the session. A new draft is removed from the surface;
// a feature under edit keeps its original representation there.
func (s *DrawSession) CancelDraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardDraft()
	if s.surface != nil {
		s.surface.ChangeMode(ports.SurfaceModeSimpleSelect, nil)
	}
	s.reset()
}

// ClearFeature removes everything from the surface and resets the session.
func (s *DrawSession) ClearFeature() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.surface != nil {
		s.surface.DeleteAll()
	}
	s.reset()
}

// State returns a snapshot of the session.
func (s *DrawSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.SessionState{
		Mode:              s.mode,
		HasUnsavedChanges: s.unsaved,
		EditFeatureID:     s.editFeatureID,
		CanUndo:           s.history.CanUndo(),
		CanRedo:           s.history.CanRedo(),
	}
	if s.current != nil {
		f := s.current.Clone()
		st.CurrentFeature = &f
	}
	if s.result != nil {
		r := domain.ValidationResult{IsValid: s.result.IsValid, Errors: append([]string(nil), s.result.Errors...)}
		st.ValidationResult = &r
	}
	if s.editMeta != nil {
		m := *s.editMeta
		st.EditLocationMetadata = &m
	}
	return st
}

// Stats returns live statistics of the current feature.
func (s *DrawSession) Stats() (domain.GeometryStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.GeometryStats{}, false
	}
	return geospatial.Stats(s.current.Geometry), true
}

// discardDraft deletes a new, unsaved feature from the surface. Features
// being edited are left alone.
func (s *DrawSession) discardDraft() {
	if s.surface == nil || s.current == nil || s.editFeatureID != "" {
		return
	}
	if s.current.ID != "" {
		s.surface.Delete(s.current.ID)
	}
}

func (s *DrawSession) revalidate() {
	r := s.validator.Validate(*s.current)
	s.result = &r
}

func (s *DrawSession) reset() {
	s.mode = domain.ModeNone
	s.current = nil
	s.unsaved = false
	s.result = nil
	s.editFeatureID = ""
	s.editMeta = nil
	s.history.Clear()
}
