// Package appstore holds the application wide state of the workbench: the entity
// the user is focused on and the one focused before it.
package appstore

import (
	"log/slog"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/aretw0/rillweb/pkg/store"
)

// Store is the single source of truth for the active entity.
// It is owned by the application root and passed explicitly to its users.
type Store struct {
	state       *store.Writable[domain.AppState]
	deactivator ports.RequestDeactivator
	logger      *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithDeactivator sets the channel told when an entity loses focus.
func WithDeactivator(d ports.RequestDeactivator) Option {
	return func(s *Store) {
		s.deactivator = d
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store with both entities unset.
func New(opts ...Option) *Store {
	s := &Store{
		state:  store.NewWritable(domain.AppState{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetActiveEntity focuses the entity name of kind t.
// If an entity was focused before, requests tied to it are marked inactive first.
func (s *Store) SetActiveEntity(name string, t domain.EntityType) {
	s.state.Update(func(prev domain.AppState) domain.AppState {
		if prev.ActiveEntity != nil && s.deactivator != nil {
			s.deactivator.InactiveByName(prev.ActiveEntity.Name)
		}
		next := domain.AppState{
			ActiveEntity:         &domain.ActiveEntity{Name: name, Type: t},
			PreviousActiveEntity: prev.ActiveEntity,
		}
		s.logger.Debug("Active entity changed", "name", name, "type", t)
		return next
	})
}

// State returns a snapshot of the current state.
func (s *Store) State() domain.AppState {
	return s.state.Get().Snapshot()
}

// Subscribe registers fn for every state change and calls it once with the current state.
func (s *Store) Subscribe(fn func(domain.AppState)) (unsubscribe func()) {
	return s.state.Subscribe(func(st domain.AppState) {
		fn(st.Snapshot())
	})
}
