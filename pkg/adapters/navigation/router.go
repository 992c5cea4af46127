// Package navigation implements ports.Navigator on top of the Active-Entity Store.
package navigation

import (
	"log/slog"
	"sync"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
)

// EntitySetter receives the entity a route points at.
type EntitySetter interface {
	SetActiveEntity(name string, t domain.EntityType)
}

// Router records the current route and focuses the entity it names.
type Router struct {
	mu      sync.Mutex
	current string
	setter  EntitySetter
	logger  *slog.Logger
}

// Option configures the Router.
type Option func(*Router)

// WithLogger configures a logger for the Router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// NewRouter creates a Router starting at "/".
func NewRouter(setter EntitySetter, opts ...Option) *Router {
	r := &Router{
		current: "/",
		setter:  setter,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ ports.Navigator = (*Router)(nil)

// Goto implements ports.Navigator. Routes that do not name an entity only
// change the current route.
func (r *Router) Goto(route string) {
	r.mu.Lock()
	r.current = route
	r.mu.Unlock()

	name, t, err := domain.ParseRoute(route)
	if err != nil {
		r.logger.Debug("Route does not name an entity", "route", route)
		return
	}
	if r.setter != nil {
		r.setter.SetActiveEntity(name, t)
	}
}

// Current returns the last route passed to Goto.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
