// Package notifications surfaces messages and progress to the user.
package notifications

import (
	"log/slog"
	"time"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/store"
	"github.com/google/uuid"
)

// DefaultHistory is the number of notifications kept by default.
const DefaultHistory = 50

// Notification is a message shown to the user.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// Notifications implements ports.Notifier with a bounded history.
type Notifications struct {
	list    *store.Writable[[]Notification]
	history int
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures Notifications.
type Option func(*Notifications)

// WithHistory sets how many notifications are kept.
func WithHistory(n int) Option {
	return func(ns *Notifications) {
		if n > 0 {
			ns.history = n
		}
	}
}

// WithLogger mirrors every notification to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ns *Notifications) {
		ns.logger = logger
	}
}

// New creates an empty notification list.
func New(opts ...Option) *Notifications {
	ns := &Notifications{
		list:    store.NewWritable[[]Notification](nil),
		history: DefaultHistory,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ns)
	}
	return ns
}

// Send appends a notification, dropping the oldest beyond the history size.
func (ns *Notifications) Send(message string) {
	n := Notification{
		ID:      uuid.NewString(),
		Message: message,
		SentAt:  ns.now(),
	}
	ns.list.Update(func(prev []Notification) []Notification {
		next := append(append([]Notification(nil), prev...), n)
		if len(next) > ns.history {
			next = next[len(next)-ns.history:]
		}
		return next
	})
	ns.logger.Info("Notification", "message", message, "id", n.ID)
}

// Dismiss removes a notification by ID.
func (ns *Notifications) Dismiss(id string) {
	ns.list.Update(func(prev []Notification) []Notification {
		next := make([]Notification, 0, len(prev))
		for _, n := range prev {
			if n.ID != id {
				next = append(next, n)
			}
		}
		return next
	})
}

// List returns the current notifications, oldest first.
func (ns *Notifications) List() []Notification {
	return append([]Notification(nil), ns.list.Get()...)
}

// Subscribe registers fn for every change.
func (ns *Notifications) Subscribe(fn func([]Notification)) (unsubscribe func()) {
	return ns.list.Subscribe(fn)
}
