// Package history keeps bounded undo and redo snapshots of a draw feature.
package history

import "github.com/samirrijal/geodraw/internal/core/domain"

// DefaultSize is the number of undo steps retained.
const DefaultSize = 50

// History stores deep copies of feature states. Entries on the undo stack
// are states preceding the current one, entries on the redo stack are
// states that were undone.
type History struct {
	undo *Stack[domain.DrawFeature]
	redo *Stack[domain.DrawFeature]
}

// New creates a history retaining size steps in each direction.
func New(size int) *History {
	if size <= 0 {
		size = DefaultSize
	}
	return &History{
		undo: NewStack[domain.DrawFeature](size),
		redo: NewStack[domain.DrawFeature](size),
	}
}

// RecordChange pushes the state that is about to be replaced. Any redo
// branch is discarded.
func (h *History) RecordChange(previous domain.DrawFeature) {
	h.undo.Push(previous.Clone())
	h.redo.Clear()
}

// Undo returns the previous state and moves current onto the redo stack.
func (h *History) Undo(current domain.DrawFeature) (domain.DrawFeature, bool) {
	prev, ok := h.undo.Pop()
	if !ok {
		return domain.DrawFeature{}, false
	}
	h.redo.Push(current.Clone())
	return prev.Clone(), true
}

// Redo returns the next undone state and moves current onto the undo
// stack.
func (h *History) Redo(current domain.DrawFeature) (domain.DrawFeature, bool) {
	next, ok := h.redo.Pop()
	if !ok {
		return domain.DrawFeature{}, false
	}
	h.undo.Push(current.Clone())
	return next.Clone(), true
}

func (h *History) Clear() {
	h.undo.Clear()
	h.redo.Clear()
}

func (h *History) CanUndo() bool { return h.undo.Len() > 0 }
func (h *History) CanRedo() bool { return h.redo.Len() > 0 }
func (h *History) UndoLen() int { return h.undo.Len() }
func (h *History) RedoLen() int { return h.redo.Len() }
