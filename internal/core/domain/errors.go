package domain

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrNotFound is returned when a persisted entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when the optimistic-lock version no
	// longer matches the stored one.
	ErrVersionConflict = errors.New("version conflict")
	// ErrPermissionDenied is returned when the caller may not modify the entity.
	ErrPermissionDenied = errors.New("permission denied")
)

// SaveErrorKind is the caller-side category of a save failure.
type SaveErrorKind string

const (
	SaveErrorConflict   SaveErrorKind = "conflict"
	SaveErrorPermission SaveErrorKind = "permission"
	SaveErrorNotFound   SaveErrorKind = "not_found"
	SaveErrorNetwork    SaveErrorKind = "network"
	SaveErrorUnknown    SaveErrorKind = "unknown"
)

// ClassifySaveError inspects an error returned by a save handler.
func ClassifySaveError(err error) SaveErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrVersionConflict):
		return SaveErrorConflict
	case errors.Is(err, ErrPermissionDenied):
		return SaveErrorPermission
	case errors.Is(err, ErrNotFound):
		return SaveErrorNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		return SaveErrorNetwork
	default:
		return SaveErrorUnknown
	}
}

// UserMessage returns the text a UI shows for a save failure category.
func (k SaveErrorKind) UserMessage() string {
	switch k {
	case SaveErrorConflict:
		return "This location was modified by someone else. Reload it and try again."
	case SaveErrorPermission:
		return "You do not have permission to edit this location."
	case SaveErrorNotFound:
		return "This location no longer exists."
	case SaveErrorNetwork:
		return "Network error while saving. Check your connection and retry."
	default:
		return "Failed to save geometry."
	}
}
