// Package requestqueue runs runtime requests through a prioritized worker pool.
//
// Requests are tagged with the name of the entity they belong to. When the user
// moves focus away from an entity, InactiveByName pushes its queued requests
// behind every other request, so the newly focused entity is served first.
package requestqueue

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Priorities of queued requests. Higher runs first.
const (
	PriorityInactive = 0
	PriorityDefault  = 10
)

// DefaultWorkers is the number of requests run in parallel by default.
const DefaultWorkers = 4

// PendingRequest describes a queued request.
type PendingRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

type entry struct {
	id       string
	name     string
	priority int
	seq      uint64
	ctx      context.Context
	fn       func(context.Context) error
	done     chan error
	index    int
}

// Queue implements ports.RequestDeactivator.
type Queue struct {
	mu       sync.Mutex
	pending  entryHeap
	inactive map[string]bool
	seq      uint64

	wake    chan struct{}
	workers int
	logger  *slog.Logger
}

// Option configures the Queue.
type Option func(*Queue)

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithLogger configures a logger for the Queue.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// New creates a Queue. Requests only run once Run is called.
func New(opts ...Option) *Queue {
	q := &Queue{
		inactive: make(map[string]bool),
		wake:     make(chan struct{}, 1),
		workers:  DefaultWorkers,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Run starts the workers and blocks until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			q.work(ctx)
			return nil
		})
	}
	err := g.Wait()
	q.drain(ctx.Err())
	return err
}

func (q *Queue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		for {
			e := q.pop()
			if e == nil {
				break
			}
			// Let another worker pick up what is left.
			q.signal()
			e.done <- e.fn(e.ctx)
		}
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) pop() *entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending.Len() > 0 {
		e := heap.Pop(&q.pending).(*entry)
		if e.ctx.Err() != nil {
			e.done <- e.ctx.Err()
			continue
		}
		return e
	}
	return nil
}

// drain fails every queued request once the workers are gone.
func (q *Queue) drain(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending.Len() > 0 {
		e := heap.Pop(&q.pending).(*entry)
		e.done <- err
	}
}

// Do queues fn under name and waits for its result.
// A request whose context ends while queued is dropped with the context error.
func (q *Queue) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	e := &entry{
		id:   uuid.NewString(),
		name: name,
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}

	q.mu.Lock()
	q.seq++
	e.seq = q.seq
	e.priority = PriorityDefault
	if q.inactive[name] {
		e.priority = PriorityInactive
	}
	heap.Push(&q.pending, e)
	q.mu.Unlock()

	q.signal()

	select {
	case err := <-e.done:
		return err
	case <-ctx.Done():
		q.remove(e)
		return ctx.Err()
	}
}

func (q *Queue) remove(e *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e.index >= 0 && e.index < q.pending.Len() && q.pending[e.index] == e {
		heap.Remove(&q.pending, e.index)
	}
}

// InactiveByName deprioritizes queued and future requests tagged with name.
func (q *Queue) InactiveByName(name string) {
	q.setPriority(name, true)
	q.logger.Debug("Requests deprioritized", "name", name)
}

// ActiveByName restores the default priority of requests tagged with name.
func (q *Queue) ActiveByName(name string) {
	q.setPriority(name, false)
}

func (q *Queue) setPriority(name string, inactive bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	priority := PriorityDefault
	if inactive {
		q.inactive[name] = true
		priority = PriorityInactive
	} else {
		delete(q.inactive, name)
	}
	for _, e := range q.pending {
		if e.name == name && e.priority != priority {
			e.priority = priority
			heap.Fix(&q.pending, e.index)
		}
	}
}

// Pending lists the queued requests in the order they will run.
func (q *Queue) Pending() []PendingRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	cp := make(entryHeap, len(q.pending))
	for i, e := range q.pending {
		c := *e
		cp[i] = &c
	}
	out := make([]PendingRequest, 0, len(cp))
	for cp.Len() > 0 {
		e := heap.Pop(&cp).(*entry)
		out = append(out, PendingRequest{ID: e.id, Name: e.name, Priority: e.priority})
	}
	return out
}

// entryHeap orders by priority (desc) then arrival (asc).
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
