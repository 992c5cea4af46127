package ports

import (
	"context"

	"github.com/aretw0/rillweb/pkg/domain"
)

// RequestDeactivator is told when requests tied to an entity name became stale.
type RequestDeactivator interface {
	InactiveByName(name string)
}

// Navigator changes the visible view.
type Navigator interface {
	Goto(route string)
}

// Notifier surfaces a message to the user. Fire-and-forget.
type Notifier interface {
	Send(message string)
}

// Overlay shows and hides a blocking progress indicator.
type Overlay interface {
	Set(title string)
	Clear()
}

// FileDialog asks the user to pick files. Cancellation yields an empty slice.
type FileDialog interface {
	Open(ctx context.Context, multiple bool) ([]File, error)
}

// ErrorRecorder stores per-path reconcile errors for later display.
type ErrorRecorder interface {
	SetErrors(affectedPaths []string, errs []domain.ReconcileError)
}

// CacheInvalidator drops cached query results touched by a reconcile.
type CacheInvalidator interface {
	InvalidateAfterReconcile(ctx context.Context, instanceID string, resp *domain.ReconcileResponse) error
}
