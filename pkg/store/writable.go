// Package store provides an observable value container.
//
// A Writable holds one value of type T and a set of observers. Observers are
// called in registration order with every new value, and every observer sees
// the values in the order they were written.
//
// An observer may itself write to the Writable. That write is applied at once
// and delivered after the current round of notifications completes, so nested
// updates never deadlock and never overtake the value being delivered.
package store

import "sync"

// Observer receives the current value of a Writable.
type Observer[T any] func(T)

type subscription[T any] struct {
	id uint64
	fn Observer[T]
}

// delivery is one value waiting to reach a fixed set of observers.
type delivery[T any] struct {
	value T
	subs  []subscription[T]
}

// Writable is an observable value. Safe for concurrent use.
type Writable[T any] struct {
	// write serializes read-modify-write cycles of Update.
	write sync.Mutex

	mu       sync.Mutex
	value    T
	nextID   uint64
	subs     []subscription[T]
	pending  []delivery[T]
	draining bool
}

// NewWritable creates a Writable holding initial.
func NewWritable[T any](initial T) *Writable[T] {
	return &Writable[T]{value: initial}
}

// Get returns the current value.
func (w *Writable[T]) Get() T {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// Set replaces the value and notifies observers.
func (w *Writable[T]) Set(v T) {
	w.Update(func(T) T { return v })
}

// Update applies mutator to the current value and notifies observers with the result.
//
// The caller delivers the notifications unless a delivery round is already
// running, in which case the value is queued behind it. mutator must not
// call Update or Set.
func (w *Writable[T]) Update(mutator func(T) T) {
	w.write.Lock()
	value := mutator(w.Get())

	w.mu.Lock()
	w.value = value
	subs := make([]subscription[T], len(w.subs))
	copy(subs, w.subs)
	start := w.enqueueLocked(delivery[T]{value: value, subs: subs})
	w.mu.Unlock()
	w.write.Unlock()

	if start {
		w.drain()
	}
}

// Subscribe registers fn, calls it with the current value and returns a
// function that removes the registration.
func (w *Writable[T]) Subscribe(fn Observer[T]) (unsubscribe func()) {
	w.mu.Lock()
	w.nextID++
	id := w.nextID
	sub := subscription[T]{id: id, fn: fn}
	w.subs = append(w.subs, sub)
	start := w.enqueueLocked(delivery[T]{value: w.value, subs: []subscription[T]{sub}})
	w.mu.Unlock()

	if start {
		w.drain()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			for i, s := range w.subs {
				if s.id == id {
					w.subs = append(w.subs[:i], w.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of registered observers.
func (w *Writable[T]) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// enqueueLocked queues d and reports whether the caller must drain the queue.
// w.mu must be held.
func (w *Writable[T]) enqueueLocked(d delivery[T]) bool {
	w.pending = append(w.pending, d)
	if w.draining {
		return false
	}
	w.draining = true
	return true
}

// drain delivers queued values until the queue is empty.
func (w *Writable[T]) drain() {
	done := false
	defer func() {
		if !done {
			// An observer panicked; drop the round so later writers are not stuck.
			w.mu.Lock()
			w.pending = nil
			w.draining = false
			w.mu.Unlock()
		}
	}()

	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.draining = false
			w.mu.Unlock()
			done = true
			return
		}
		d := w.pending[0]
		w.pending[0] = delivery[T]{}
		w.pending = w.pending[1:]
		w.mu.Unlock()

		for _, s := range d.subs {
			s.fn(d.value)
		}
	}
}
