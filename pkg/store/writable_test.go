package store_test

import (
	"sync"
	"testing"

	"github.com/aretw0/rillweb/pkg/store"
	"github.com/stretchr/testify/assert"
)

func TestWritable_SubscribeReceivesCurrentValue(t *testing.T) {
	w := store.NewWritable(7)

	var got []int
	unsubscribe := w.Subscribe(func(v int) { got = append(got, v) })
	defer unsubscribe()

	assert.Equal(t, []int{7}, got)

	w.Set(8)
	w.Update(func(v int) int { return v * 2 })
	assert.Equal(t, []int{7, 8, 16}, got)
	assert.Equal(t, 16, w.Get())
}

func TestWritable_Unsubscribe(t *testing.T) {
	w := store.NewWritable("a")

	calls := 0
	unsubscribe := w.Subscribe(func(string) { calls++ })
	assert.Equal(t, 1, w.Len())

	unsubscribe()
	unsubscribe() // idempotent
	assert.Equal(t, 0, w.Len())

	w.Set("b")
	assert.Equal(t, 1, calls)
}

func TestWritable_ObserverOrder(t *testing.T) {
	w := store.NewWritable(0)

	var order []string
	w.Subscribe(func(int) { order = append(order, "first") })
	w.Subscribe(func(int) { order = append(order, "second") })
	order = nil

	w.Set(1)
	w.Set(2)
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestWritable_ConcurrentUpdates(t *testing.T) {
	w := store.NewWritable(0)

	var mu sync.Mutex
	var seen []int
	w.Subscribe(func(v int) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Update(func(v int) int { return v + 1 })
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, w.Get())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 51)
	// Notifications are serialized, so observers see a strictly increasing sequence.
	for i := 1; i < len(seen); i++ {
		assert.Equal(t, seen[i-1]+1, seen[i])
	}
}

func TestWritable_UpdateFromObserver(t *testing.T) {
	w := store.NewWritable(0)

	var first, second []int
	w.Subscribe(func(v int) {
		first = append(first, v)
		if v == 1 {
			w.Set(2)
		}
	})
	w.Subscribe(func(v int) { second = append(second, v) })

	w.Set(1)

	assert.Equal(t, 2, w.Get())
	assert.Equal(t, []int{0, 1, 2}, first)
	// The nested write is delivered after the value that triggered it.
	assert.Equal(t, []int{0, 1, 2}, second)
}

func TestWritable_SubscribeFromObserver(t *testing.T) {
	w := store.NewWritable("a")

	var late []string
	w.Subscribe(func(v string) {
		if v == "b" {
			w.Subscribe(func(v string) { late = append(late, v) })
		}
	})

	w.Set("b")
	w.Set("c")
	assert.Equal(t, []string{"b", "c"}, late)
}

func TestWritable_RecoversFromPanickingObserver(t *testing.T) {
	w := store.NewWritable(0)
	w.Subscribe(func(v int) {
		if v == 1 {
			panic("boom")
		}
	})

	assert.Panics(t, func() { w.Set(1) })

	var got []int
	w.Subscribe(func(v int) { got = append(got, v) })
	w.Set(2)
	assert.Equal(t, []int{1, 2}, got)
}
