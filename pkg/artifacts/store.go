// Package artifacts keeps the reconcile errors reported for each artifact file.
package artifacts

import (
	"sort"

	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/store"
)

// Entity is the per-file bookkeeping entry.
type Entity struct {
	Errors []domain.ReconcileError `json:"errors"`
}

// State maps artifact paths to their entries.
type State struct {
	Entities map[string]Entity `json:"entities"`
}

// Store implements ports.ErrorRecorder.
type Store struct {
	state *store.Writable[State]
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		state: store.NewWritable(State{Entities: map[string]Entity{}}),
	}
}

// SetErrors clears the errors of every affected path, then files each error under its FilePath.
func (s *Store) SetErrors(affectedPaths []string, errs []domain.ReconcileError) {
	s.state.Update(func(prev State) State {
		next := State{Entities: make(map[string]Entity, len(prev.Entities)+len(affectedPaths))}
		for p, e := range prev.Entities {
			next.Entities[p] = Entity{Errors: append([]domain.ReconcileError(nil), e.Errors...)}
		}
		for _, p := range affectedPaths {
			next.Entities[p] = Entity{Errors: []domain.ReconcileError{}}
		}
		for _, e := range errs {
			entity := next.Entities[e.FilePath]
			entity.Errors = append(entity.Errors, e)
			next.Entities[e.FilePath] = entity
		}
		return next
	})
}

// Errors returns the errors recorded for path.
func (s *Store) Errors(path string) []domain.ReconcileError {
	entity, ok := s.state.Get().Entities[path]
	if !ok {
		return nil
	}
	return append([]domain.ReconcileError(nil), entity.Errors...)
}

// Paths returns every path with at least one recorded error, sorted.
func (s *Store) Paths() []string {
	var out []string
	for p, e := range s.state.Get().Entities {
		if len(e.Errors) > 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Subscribe registers fn for every change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.state.Subscribe(fn)
}
